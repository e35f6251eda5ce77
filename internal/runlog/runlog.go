// Package runlog keeps a local history of scoring runs in a bbolt file.
// Every predict invocation and every server batch appends one record, so
// operators can answer "what was scored last week, with which model".
package runlog

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.etcd.io/bbolt"
)

var bucketRuns = []byte("runs")

// Record is one scored batch.
type Record struct {
	ID        string        `json:"id"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration_ns"`

	InputPath string `json:"input_path,omitempty"`
	InputHash string `json:"input_hash"`
	Rows      int    `json:"rows"`
	Warnings  int    `json:"warnings"`

	Model     string  `json:"model"`
	Threshold float64 `json:"threshold"`

	H1N1NonTakers     int `json:"h1n1_non_takers"`
	SeasonalNonTakers int `json:"seasonal_non_takers"`
}

// Store is a run-history database. Safe for concurrent use.
type Store struct {
	db *bbolt.DB
}

// Open opens or creates the history file at path.
func Open(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening run history %s: %w", path, err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketRuns)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing run history: %w", err)
	}
	return &Store{db: db}, nil
}

// Append stores rec, assigning an ID if it has none.
func (s *Store) Append(rec Record) (Record, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.StartedAt.IsZero() {
		rec.StartedAt = time.Now().UTC()
	}
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketRuns)
		data, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		return b.Put([]byte(key(rec)), data)
	})
	if err != nil {
		return Record{}, fmt.Errorf("recording run: %w", err)
	}
	return rec, nil
}

// key orders records by start time. The zero-padded nanosecond prefix makes
// byte order match time order; the ID suffix breaks ties.
func key(rec Record) string {
	return fmt.Sprintf("%020d-%s", rec.StartedAt.UnixNano(), rec.ID)
}

// List returns up to limit records, most recent first. A non-positive limit
// returns everything.
func (s *Store) List(limit int) ([]Record, error) {
	var out []Record
	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(bucketRuns).Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			if limit > 0 && len(out) >= limit {
				return nil
			}
			var rec Record
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("corrupt run record %s: %w", k, err)
			}
			out = append(out, rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Close releases the database file.
func (s *Store) Close() error {
	return s.db.Close()
}
