package hedera

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

const tinybarPerHbar = 100_000_000

// Hbar is an amount of the ledger's native currency, stored in tinybars.
type Hbar struct {
	tinybar int64
}

var ZeroHbar = Hbar{}

// NewHbar converts a whole or fractional hbar amount to the nearest tinybar.
func NewHbar(hbar float64) Hbar {
	return Hbar{tinybar: int64(math.Round(hbar * tinybarPerHbar))}
}

func HbarFromTinybar(tinybar int64) Hbar {
	return Hbar{tinybar: tinybar}
}

// ParseHbar accepts "10", "1.5", "1.5 ℏ", "100 tℏ".
func ParseHbar(s string) (hbar Hbar, err error) {
	s = strings.TrimSpace(s)
	unit := tinybarPerHbar
	switch {
	case strings.HasSuffix(s, "tℏ"):
		s, unit = strings.TrimSpace(strings.TrimSuffix(s, "tℏ")), 1
	case strings.HasSuffix(s, "ℏ"):
		s = strings.TrimSpace(strings.TrimSuffix(s, "ℏ"))
	}

	if unit == 1 {
		var tinybar int64
		if tinybar, err = strconv.ParseInt(s, 10, 64); err != nil {
			err = errors.Wrapf(ErrConfiguration, "invalid hbar amount '%s'", s)
			return
		}
		hbar = HbarFromTinybar(tinybar)
		return
	}

	var value float64
	if value, err = strconv.ParseFloat(s, 64); err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		err = errors.Wrapf(ErrConfiguration, "invalid hbar amount '%s'", s)
		return
	}
	hbar = NewHbar(value)
	return
}

func (h Hbar) AsTinybar() int64 {
	return h.tinybar
}

func (h Hbar) IsZero() bool {
	return h.tinybar == 0
}

func (h Hbar) Negated() Hbar {
	return Hbar{tinybar: -h.tinybar}
}

func (h Hbar) String() string {
	if h.tinybar%tinybarPerHbar == 0 {
		return fmt.Sprintf("%d ℏ", h.tinybar/tinybarPerHbar)
	}
	if h.tinybar > -10_000 && h.tinybar < 10_000 {
		return fmt.Sprintf("%d tℏ", h.tinybar)
	}
	return strconv.FormatFloat(float64(h.tinybar)/tinybarPerHbar, 'f', -1, 64) + " ℏ"
}

func minHbar(a, b Hbar) Hbar {
	if a.tinybar < b.tinybar {
		return a
	}
	return b
}
