package hedera

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHbar(t *testing.T) {
	assert.Equal(t, int64(100_000_000), NewHbar(1).AsTinybar())
	assert.Equal(t, int64(29_000_000), NewHbar(0.29).AsTinybar())
	assert.Equal(t, int64(-150_000_000), NewHbar(1.5).Negated().AsTinybar())
	assert.True(t, ZeroHbar.IsZero())

	assert.Equal(t, "2 ℏ", NewHbar(2).String())
	assert.Equal(t, "25 tℏ", HbarFromTinybar(25).String())
	assert.Equal(t, "1.5 ℏ", NewHbar(1.5).String())

	assert.Equal(t, HbarFromTinybar(3), minHbar(HbarFromTinybar(3), HbarFromTinybar(4)))
}

func TestParseHbar(t *testing.T) {
	for input, want := range map[string]int64{
		"1":       100_000_000,
		"1.5 ℏ":   150_000_000,
		"0.5ℏ":    50_000_000,
		"25 tℏ":   25,
		" -3 tℏ ": -3,
	} {
		got, err := ParseHbar(input)
		require.NoError(t, err, input)
		assert.Equal(t, want, got.AsTinybar(), input)
	}

	for _, input := range []string{"", "abc", "1.5 tℏ", "NaN"} {
		_, err := ParseHbar(input)
		assert.ErrorIs(t, err, ErrConfiguration, input)
	}
}
