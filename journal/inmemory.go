package journal

import (
	"sort"
	"sync"

	"github.com/pkg/errors"
)

type InMemoryJournal struct {
	entries map[string]Entry
	mu      sync.RWMutex
}

var _ Journal = &InMemoryJournal{}

func NewInMemoryJournal() *InMemoryJournal {
	return &InMemoryJournal{entries: make(map[string]Entry)}
}

func (j *InMemoryJournal) Add(entry Entry) error {
	if entry.TransactionID == "" {
		return errors.New("journal entry has no transaction id")
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	if _, ok := j.entries[entry.TransactionID]; ok {
		return errors.Errorf("transaction %s is already journaled", entry.TransactionID)
	}
	if entry.Status == "" {
		entry.Status = StatusSubmitted
	}
	j.entries[entry.TransactionID] = entry
	return nil
}

func (j *InMemoryJournal) SetStatus(transactionID, status string) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	entry, ok := j.entries[transactionID]
	if !ok {
		return errors.Wrapf(ErrNotFound, "%s", transactionID)
	}
	entry.Status = status
	j.entries[transactionID] = entry
	return nil
}

func (j *InMemoryJournal) Get(transactionID string) (entry Entry, err error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	entry, ok := j.entries[transactionID]
	if !ok {
		err = errors.Wrapf(ErrNotFound, "%s", transactionID)
	}
	return
}

func (j *InMemoryJournal) List(limit int) (entries []Entry, err error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	entries = make([]Entry, 0, len(j.entries))
	for _, entry := range j.entries {
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(a, b int) bool {
		if entries[a].SubmittedAt.Equal(entries[b].SubmittedAt) {
			return entries[a].TransactionID > entries[b].TransactionID
		}
		return entries[a].SubmittedAt.After(entries[b].SubmittedAt)
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return
}

func (j *InMemoryJournal) Close() error {
	return nil
}
