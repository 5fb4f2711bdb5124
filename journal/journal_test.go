package journal

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func journals(t *testing.T) map[string]Journal {
	t.Helper()
	sqlite, err := NewSqliteJournal(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlite.Close() })

	return map[string]Journal{
		"inmemory": NewInMemoryJournal(),
		"sqlite":   sqlite,
	}
}

func TestJournal(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for name, j := range journals(t) {
		t.Run(name, func(t *testing.T) {
			entries, err := j.List(0)
			require.NoError(t, err)
			assert.Empty(t, entries)

			for i, id := range []string{"0.0.2@1704067200.000000001", "0.0.2@1704067201.000000001", "0.0.2@1704067202.000000001"} {
				require.NoError(t, j.Add(Entry{
					TransactionID: id,
					NodeID:        "0.0.3",
					Hash:          "abcd",
					SubmittedAt:   base.Add(time.Duration(i) * time.Second),
				}))
			}

			err = j.Add(Entry{TransactionID: "0.0.2@1704067200.000000001"})
			assert.Error(t, err, "duplicate transaction ids are rejected")
			assert.Error(t, j.Add(Entry{}))

			entry, err := j.Get("0.0.2@1704067201.000000001")
			require.NoError(t, err)
			assert.Equal(t, StatusSubmitted, entry.Status)
			assert.Equal(t, "0.0.3", entry.NodeID)
			assert.Equal(t, "abcd", entry.Hash)
			assert.True(t, base.Add(time.Second).Equal(entry.SubmittedAt))

			require.NoError(t, j.SetStatus("0.0.2@1704067201.000000001", "SUCCESS"))
			entry, err = j.Get("0.0.2@1704067201.000000001")
			require.NoError(t, err)
			assert.Equal(t, "SUCCESS", entry.Status)

			assert.True(t, errors.Is(j.SetStatus("0.0.9@1.0", "SUCCESS"), ErrNotFound))
			_, err = j.Get("0.0.9@1.0")
			assert.True(t, errors.Is(err, ErrNotFound))

			entries, err = j.List(2)
			require.NoError(t, err)
			require.Len(t, entries, 2)
			assert.Equal(t, "0.0.2@1704067202.000000001", entries[0].TransactionID)
			assert.Equal(t, "0.0.2@1704067201.000000001", entries[1].TransactionID)

			entries, err = j.List(0)
			require.NoError(t, err)
			assert.Len(t, entries, 3)
		})
	}
}

func TestSqliteJournalReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")

	j, err := NewSqliteJournal(path)
	require.NoError(t, err)
	require.NoError(t, j.Add(Entry{TransactionID: "0.0.2@1.5", SubmittedAt: time.Unix(1, 5)}))
	require.NoError(t, j.Close())

	j, err = NewSqliteJournal(path)
	require.NoError(t, err)
	defer j.Close()

	entry, err := j.Get("0.0.2@1.5")
	require.NoError(t, err)
	assert.Equal(t, StatusSubmitted, entry.Status)
}

func TestOpen(t *testing.T) {
	j, err := Open("")
	require.NoError(t, err)
	assert.IsType(t, &InMemoryJournal{}, j)

	j, err = Open(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	defer j.Close()
	assert.IsType(t, &SqliteJournal{}, j)
}
