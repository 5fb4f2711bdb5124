package hedera

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransactionIDString(t *testing.T) {
	id := TransactionID{AccountID: AccountID{Num: 2}, ValidStart: time.Unix(1_700_000_000, 123).UTC()}
	assert.Equal(t, "0.0.2@1700000000.000000123", id.String())

	parsed, err := TransactionIDFromString(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)

	half, err := TransactionIDFromString("0.0.2@1700000000.5")
	require.NoError(t, err)
	assert.Equal(t, time.Unix(1700000000, 500_000_000).UTC(), half.ValidStart)

	whole, err := TransactionIDFromString("0.0.2@1700000000")
	require.NoError(t, err)
	assert.Equal(t, time.Unix(1700000000, 0).UTC(), whole.ValidStart)

	for _, input := range []string{"0.0.2", "0.0.2@", "x@1.2", "0.0.2@abc", "0.0.2@1.0000000001", "0.0.2@1.-5", "0.0.2@-1.0", "0.0.2@1.2x"} {
		_, err = TransactionIDFromString(input)
		assert.Error(t, err, input)
	}
}

func TestTransactionIDGenerateIncreases(t *testing.T) {
	now := time.Now()
	previous := newTransactionID(AccountID{Num: 2}, now)
	for i := 0; i < 100; i++ {
		next := newTransactionID(AccountID{Num: 2}, now)
		assert.True(t, next.ValidStart.After(previous.ValidStart))
		previous = next
	}
	assert.False(t, previous.ValidStart.After(now))
}

func TestTransactionIDStripsChecksum(t *testing.T) {
	payer, err := AccountIDFromString("0.0.123-vfmkw")
	require.NoError(t, err)
	id := TransactionIDGenerate(payer)
	assert.Equal(t, "", id.AccountID.Checksum())
	assert.False(t, id.IsZero())
	assert.True(t, TransactionID{}.IsZero())
}
