// Package results keeps the outcomes of test-all runs in a bbolt
// database so that runs can be compared later.
package results

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"go.etcd.io/bbolt"
)

var RESULTS_BUCKET = []byte("results")

var ErrRunNotFound = errors.New("run not found")

// Record is the outcome of one test case of a run.
type Record struct {
	RunID     string        `json:"run_id"`
	Index     int           `json:"index"`
	Label     string        `json:"label"`
	Commands  []string      `json:"commands"`
	Passed    bool          `json:"passed"`
	Error     string        `json:"error,omitempty"`
	Remaining int64         `json:"remaining"`
	Started   time.Time     `json:"started"`
	Duration  time.Duration `json:"duration"`
}

// RunSummary aggregates the records of one run.
type RunSummary struct {
	RunID   string
	Cases   int
	Failed  int
	Started time.Time
}

// NewRunID returns a sortable id for a run started at t.
func NewRunID(t time.Time) string {
	return t.UTC().Format("20060102T150405.000Z")
}

type Store struct {
	db *bbolt.DB
}

// Open opens (or creates) the results database at path.
func Open(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("bbolt.Open(%s) %w", path, err)
	}
	s, err := NewStore(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func NewStore(db *bbolt.DB) (*Store, error) {
	tx, err := db.Begin(true)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()
	_, err = tx.CreateBucketIfNotExists(RESULTS_BUCKET)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func recordKey(index int) []byte {
	return []byte(fmt.Sprintf("%06d", index))
}

// Put saves a record under its run, replacing a record with the same
// index.
func (s *Store) Put(r Record) error {
	if r.RunID == "" {
		return fmt.Errorf("record without run id")
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		data, err := json.Marshal(r)
		if err != nil {
			return err
		}
		run, err := tx.Bucket(RESULTS_BUCKET).CreateBucketIfNotExists([]byte(r.RunID))
		if err != nil {
			return err
		}
		return run.Put(recordKey(r.Index), data)
	})
}

// GetRun returns the records of a run ordered by case index.
func (s *Store) GetRun(runID string) ([]Record, error) {
	var records []Record
	err := s.db.View(func(tx *bbolt.Tx) error {
		run := tx.Bucket(RESULTS_BUCKET).Bucket([]byte(runID))
		if run == nil {
			return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return run.ForEach(func(k, v []byte) error {
			var r Record
			if err := json.Unmarshal(v, &r); err != nil {
				return err
			}
			records = append(records, r)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// ListRuns returns a summary of every stored run, oldest first.
func (s *Store) ListRuns() ([]RunSummary, error) {
	var runs []RunSummary
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(RESULTS_BUCKET).ForEach(func(k, v []byte) error {
			// Runs are nested buckets, their value is nil.
			if v != nil {
				return nil
			}
			sum := RunSummary{RunID: string(k)}
			err := tx.Bucket(RESULTS_BUCKET).Bucket(k).ForEach(func(_, rv []byte) error {
				var r Record
				if err := json.Unmarshal(rv, &r); err != nil {
					return err
				}
				sum.Cases++
				if !r.Passed {
					sum.Failed++
				}
				if sum.Started.IsZero() || (!r.Started.IsZero() && r.Started.Before(sum.Started)) {
					sum.Started = r.Started
				}
				return nil
			})
			if err != nil {
				return err
			}
			runs = append(runs, sum)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].RunID < runs[j].RunID })
	return runs, nil
}

// Exists reports whether a results database exists at path.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
