// Package journal records transactions submitted from the command line
// together with the last receipt status seen for each.
package journal

import (
	"fmt"
	"time"
)

var ErrNotFound = fmt.Errorf("journal entry not found")

// StatusSubmitted marks an entry whose receipt has not been read yet.
const StatusSubmitted = "SUBMITTED"

type Entry struct {
	TransactionID string
	NodeID        string
	Hash          string
	Status        string
	SubmittedAt   time.Time
}

type Journal interface {
	Add(entry Entry) error
	SetStatus(transactionID, status string) error
	Get(transactionID string) (Entry, error)
	// List returns up to limit entries, newest first. A limit of 0 returns
	// every entry.
	List(limit int) ([]Entry, error)
	Close() error
}

// Open returns a sqlite journal at path, or an in-memory one when path is
// empty.
func Open(path string) (Journal, error) {
	if path == "" {
		return NewInMemoryJournal(), nil
	}
	j, err := NewSqliteJournal(path)
	if err != nil {
		return nil, err
	}
	return j, nil
}
