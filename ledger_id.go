package hedera

import (
	"bytes"
	"encoding/hex"

	"github.com/pkg/errors"
)

// LedgerID identifies a network instance. A nil LedgerID is unresolved.
type LedgerID []byte

var (
	LedgerIDMainnet    = LedgerID{0x00}
	LedgerIDTestnet    = LedgerID{0x01}
	LedgerIDPreviewnet = LedgerID{0x02}
)

// LedgerIDFromString accepts a network name or a hex string.
func LedgerIDFromString(s string) (id LedgerID, err error) {
	switch NetworkName(s) {
	case NetworkNameMainnet:
		return LedgerIDMainnet, nil
	case NetworkNameTestnet:
		return LedgerIDTestnet, nil
	case NetworkNamePreviewnet:
		return LedgerIDPreviewnet, nil
	}

	var b []byte
	if b, err = hex.DecodeString(s); err != nil || len(b) == 0 {
		err = errors.Wrapf(ErrConfiguration, "invalid ledger id '%s'", s)
		return
	}
	id = b
	return
}

func (l LedgerID) Resolved() bool {
	return len(l) > 0
}

func (l LedgerID) Equal(other LedgerID) bool {
	return bytes.Equal(l, other)
}

// Name returns the well-known network name, or an empty string for custom
// ledgers.
func (l LedgerID) Name() NetworkName {
	switch {
	case l.Equal(LedgerIDMainnet):
		return NetworkNameMainnet
	case l.Equal(LedgerIDTestnet):
		return NetworkNameTestnet
	case l.Equal(LedgerIDPreviewnet):
		return NetworkNamePreviewnet
	}
	return ""
}

func (l LedgerID) String() string {
	if name := l.Name(); name != "" {
		return string(name)
	}
	return hex.EncodeToString(l)
}

func (l LedgerID) clone() LedgerID {
	if l == nil {
		return nil
	}
	return append(LedgerID{}, l...)
}
