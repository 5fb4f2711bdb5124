package journal

import (
	"database/sql"
	"sync"
	"time"

	"github.com/alexdcox/hedera-go"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

var log = hedera.Log()

type SqliteJournal struct {
	db *sql.DB
	mu sync.Mutex
}

var _ Journal = &SqliteJournal{}

func NewSqliteJournal(path string) (j *SqliteJournal, err error) {
	log.Debug().Msgf("opening journal at: '%s'", path)

	sqldb, err := sql.Open("sqlite3", path)
	if err != nil {
		err = errors.Wrap(err, "failed to open journal")
		return
	}

	if err = sqldb.Ping(); err != nil {
		_ = sqldb.Close()
		err = errors.Wrap(err, "failed to ping journal")
		return
	}

	j = &SqliteJournal{db: sqldb}
	if err = j.initTables(); err != nil {
		_ = sqldb.Close()
		j = nil
		err = errors.Wrap(err, "failed to init tables")
		return
	}

	return
}

func (s *SqliteJournal) initTables() (err error) {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS submission (
			transaction_id TEXT PRIMARY KEY,
			node_id TEXT,
			hash TEXT,
			status TEXT,
			submitted_at INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_submission_submitted_at ON submission(submitted_at)`,
	}

	for i, query := range queries {
		_, err = s.db.Exec(query)
		if err != nil {
			err = errors.Wrapf(err, "failed to execute query: %d", i)
			return
		}
	}

	return
}

func (s *SqliteJournal) Add(entry Entry) (err error) {
	if entry.TransactionID == "" {
		return errors.New("journal entry has no transaction id")
	}
	if entry.Status == "" {
		entry.Status = StatusSubmitted
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.Exec(`
		INSERT INTO submission (transaction_id, node_id, hash, status, submitted_at)
		VALUES (?, ?, ?, ?, ?)`,
		entry.TransactionID, entry.NodeID, entry.Hash, entry.Status, entry.SubmittedAt.UnixNano())
	return errors.Wrapf(err, "failed to journal transaction %s", entry.TransactionID)
}

func (s *SqliteJournal) SetStatus(transactionID, status string) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.db.Exec("UPDATE submission SET status = ? WHERE transaction_id = ?", status, transactionID)
	if err != nil {
		return errors.WithStack(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return errors.WithStack(err)
	}
	if affected == 0 {
		return errors.Wrapf(ErrNotFound, "%s", transactionID)
	}
	return
}

func (s *SqliteJournal) Get(transactionID string) (entry Entry, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.db.QueryRow(`
		SELECT transaction_id, node_id, hash, status, submitted_at
		FROM submission
		WHERE transaction_id = ?`,
		transactionID)
	entry, err = scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		err = errors.Wrapf(ErrNotFound, "%s", transactionID)
	}
	return
}

func (s *SqliteJournal) List(limit int) (entries []Entry, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.Query(`
		SELECT transaction_id, node_id, hash, status, submitted_at
		FROM submission
		ORDER BY submitted_at DESC, transaction_id DESC
		LIMIT ?`,
		limit)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	defer rows.Close()

	entries = make([]Entry, 0)
	for rows.Next() {
		var entry Entry
		if entry, err = scanEntry(rows); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	if err = rows.Err(); err != nil {
		return nil, errors.WithStack(err)
	}

	return
}

func (s *SqliteJournal) Close() error {
	return errors.WithStack(s.db.Close())
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanEntry(row scanner) (entry Entry, err error) {
	var submittedAt int64
	if err = row.Scan(&entry.TransactionID, &entry.NodeID, &entry.Hash, &entry.Status, &submittedAt); err != nil {
		err = errors.WithStack(err)
		return
	}
	entry.SubmittedAt = time.Unix(0, submittedAt).UTC()
	return
}
