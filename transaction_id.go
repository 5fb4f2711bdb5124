package hedera

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/atomic"
)

// validStartBackdate keeps generated ids inside the node's acceptance window
// when the local clock runs slightly ahead.
const validStartBackdate = 5 * time.Second

var lastValidStart = atomic.NewInt64(0)

// TransactionID is the payer account plus the instant from which the
// transaction is valid.
type TransactionID struct {
	AccountID  AccountID
	ValidStart time.Time
}

// newTransactionID returns an id for payer that is strictly later than every
// id generated before it in this process.
func newTransactionID(payer AccountID, now time.Time) TransactionID {
	candidate := now.Add(-validStartBackdate).UnixNano()
	for {
		last := lastValidStart.Load()
		if candidate <= last {
			candidate = last + 1
		}
		if lastValidStart.CompareAndSwap(last, candidate) {
			break
		}
	}
	return TransactionID{
		AccountID:  payer.WithoutChecksum(),
		ValidStart: time.Unix(0, candidate).UTC(),
	}
}

func TransactionIDGenerate(payer AccountID) TransactionID {
	return newTransactionID(payer, time.Now())
}

// TransactionIDFromString parses "0.0.2@1700000000.000000123".
func TransactionIDFromString(s string) (id TransactionID, err error) {
	account, start, found := strings.Cut(s, "@")
	if !found {
		err = errors.Wrapf(ErrConfiguration, "invalid transaction id '%s'", s)
		return
	}
	if id.AccountID, err = AccountIDFromString(account); err != nil {
		return
	}
	var seconds, nanos int64
	if seconds, nanos, err = parseValidStart(start); err != nil {
		err = errors.Wrapf(ErrConfiguration, "invalid transaction id '%s'", s)
		return
	}
	id.ValidStart = time.Unix(seconds, nanos).UTC()
	return
}

// parseValidStart reads "seconds[.fraction]" where fraction holds up to nine
// decimal digits, so ".5" is half a second.
func parseValidStart(s string) (seconds, nanos int64, err error) {
	whole, fraction, _ := strings.Cut(s, ".")
	if seconds, err = strconv.ParseInt(whole, 10, 64); err != nil || seconds < 0 {
		err = errors.Errorf("invalid seconds '%s'", whole)
		return
	}
	if fraction == "" {
		return
	}
	if len(fraction) > 9 || strings.Trim(fraction, "0123456789") != "" {
		err = errors.Errorf("invalid fraction '%s'", fraction)
		return
	}
	nanos, err = strconv.ParseInt(fraction+strings.Repeat("0", 9-len(fraction)), 10, 64)
	return
}

func (id TransactionID) IsZero() bool {
	return id.AccountID.IsZero() && id.ValidStart.IsZero()
}

func (id TransactionID) String() string {
	return fmt.Sprintf("%s@%d.%09d", id.AccountID, id.ValidStart.Unix(), id.ValidStart.Nanosecond())
}
