package hedera

import (
	"fmt"
	"strings"
)

const (
	checksumP3     = 26 * 26 * 26
	checksumP5     = 26 * 26 * 26 * 26 * 26
	checksumM      = 1_000_003
	checksumWeight = 31
	checksumLength = 5
)

// checksumFor derives the 5 letter checksum of "shard.realm.num" on the
// given ledger.
func checksumFor(ledger LedgerID, addr string) string {
	var s, s0, s1 int
	for i := 0; i < len(addr); i++ {
		d := 10
		if addr[i] != '.' {
			d = int(addr[i] - '0')
		}
		s = (checksumWeight*s + d) % checksumP3
		if i%2 == 0 {
			s0 = (s0 + d) % 11
		} else {
			s1 = (s1 + d) % 11
		}
	}

	var sh int
	for _, b := range append(append([]byte{}, ledger...), make([]byte, 6)...) {
		sh = (checksumWeight*sh + int(b)) % checksumP5
	}

	c := ((((len(addr)%5)*11+s0)*11+s1)*checksumP3 + s + sh) % checksumP5
	c = (c * checksumM) % checksumP5

	out := make([]byte, checksumLength)
	for i := checksumLength - 1; i >= 0; i-- {
		out[i] = byte('a' + c%26)
		c /= 26
	}
	return string(out)
}

// entityID is the shard.realm.num triple shared by every id type.
type entityID struct {
	Shard uint64
	Realm uint64
	Num   uint64
}

func (e entityID) String() string {
	return fmt.Sprintf("%d.%d.%d", e.Shard, e.Realm, e.Num)
}

func (e entityID) checksum(ledger LedgerID) string {
	return checksumFor(ledger, e.String())
}

// parseEntityID accepts "num", "shard.realm.num" and
// "shard.realm.num-checksum".
func parseEntityID(s string) (id entityID, checksum string, err error) {
	s = strings.TrimSpace(s)
	if base, sum, found := strings.Cut(s, "-"); found {
		if len(sum) != checksumLength || strings.Trim(sum, "abcdefghijklmnopqrstuvwxyz") != "" {
			err = fmt.Errorf("%w: '%s' has a malformed checksum", ErrInvalidEntityID, s)
			return
		}
		s, checksum = base, sum
	}

	parts := strings.Split(s, ".")
	switch len(parts) {
	case 1:
		_, err = fmt.Sscanf(s, "%d", &id.Num)
	case 3:
		_, err = fmt.Sscanf(s, "%d.%d.%d", &id.Shard, &id.Realm, &id.Num)
	default:
		err = fmt.Errorf("%w: '%s'", ErrInvalidEntityID, s)
		return
	}
	if err != nil || id.String() != normalizeEntityString(s, len(parts)) {
		err = fmt.Errorf("%w: '%s'", ErrInvalidEntityID, s)
		checksum = ""
	}
	return
}

func normalizeEntityString(s string, parts int) string {
	if parts == 1 {
		return "0.0." + s
	}
	return s
}

// validateEntityChecksum checks an id's checksum against the client's ledger
// when auto validation is on and the ledger is known.
func validateEntityChecksum(client *Client, e entityID, checksum string) error {
	if client == nil || !client.AutoValidateChecksums() {
		return nil
	}
	return verifyEntityChecksum(client.LedgerID(), e, checksum)
}

// verifyEntityChecksum is the unconditional form used where a mismatch must
// always be rejected, such as when installing an operator.
func verifyEntityChecksum(ledger LedgerID, e entityID, checksum string) error {
	if !ledger.Resolved() || checksum == "" {
		return nil
	}
	if expected := e.checksum(ledger); expected != checksum {
		return &ChecksumMismatchError{ID: e.String(), Expected: expected, Actual: checksum}
	}
	return nil
}
