// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package archive persists finished report runs in a local bbolt database.
// The archive is an explicit data accumulator: runs are written when a
// report completes and read back by the CLI and API. No TTL, no eviction.
//
// Buckets:
//
//	runs  - full report documents keyed by run:<id>
//	_meta - internal: schema version, created_at
package archive

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	bolt "go.etcd.io/bbolt"
)

// Current schema version. Bump when bucket layout or key format changes.
const schemaVersion = 1

var (
	bucketRuns     = []byte("runs")
	bucketInternal = []byte("_meta")
)

// Run is one archived report run. Document holds the full serialized
// output (stat pack plus insights) exactly as it was produced.
type Run struct {
	RunID       string          `json:"run_id"`
	CampaignID  int64           `json:"campaign_id"`
	GeneratedAt time.Time       `json:"generated_at"`
	Insights    int             `json:"insights"`
	Document    json.RawMessage `json:"document"`
}

// Summary is the list view of a run, without the document body.
type Summary struct {
	RunID       string    `json:"run_id"`
	CampaignID  int64     `json:"campaign_id"`
	GeneratedAt time.Time `json:"generated_at"`
	Insights    int       `json:"insights"`
}

// Archive wraps a bbolt database of report runs.
type Archive struct {
	db *bolt.DB
}

// Open opens (or creates) the archive at path. Parent directories are
// created automatically.
func Open(path string) (*Archive, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("creating archive directory: %w", err)
		}
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening archive %s: %w", path, err)
	}

	a := &Archive{db: db}
	if err := a.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration: %w", err)
	}
	return a, nil
}

// Close closes the database.
func (a *Archive) Close() error {
	return a.db.Close()
}

// Path returns the filesystem path of the open database.
func (a *Archive) Path() string {
	return a.db.Path()
}

func (a *Archive) migrate() error {
	return a.db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{bucketRuns, bucketInternal} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("creating bucket %s: %w", name, err)
			}
		}
		meta := tx.Bucket(bucketInternal)
		if meta.Get([]byte("schema_version")) == nil {
			if err := meta.Put([]byte("schema_version"), []byte(fmt.Sprintf("%d", schemaVersion))); err != nil {
				return err
			}
			if err := meta.Put([]byte("created_at"), []byte(time.Now().UTC().Format(time.RFC3339))); err != nil {
				return err
			}
		}
		return nil
	})
}

func runKey(id string) []byte {
	return []byte("run:" + id)
}

// Put stores a finished run, overwriting any run with the same ID.
func (a *Archive) Put(run Run) error {
	b, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("encoding run: %w", err)
	}
	return a.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketRuns).Put(runKey(run.RunID), b)
	})
}

// Get retrieves a run by ID.
// Returns (run, true, nil) if found, (zero, false, nil) if not found.
func (a *Archive) Get(id string) (Run, bool, error) {
	var run Run
	err := a.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketRuns).Get(runKey(id))
		if v == nil {
			return nil
		}
		return json.Unmarshal(v, &run)
	})
	if err != nil {
		return Run{}, false, err
	}
	return run, run.RunID != "", nil
}

// List returns summaries of all archived runs, newest first.
func (a *Archive) List() ([]Summary, error) {
	var summaries []Summary
	err := a.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketRuns).ForEach(func(k, v []byte) error {
			var run Run
			if err := json.Unmarshal(v, &run); err != nil {
				return err
			}
			summaries = append(summaries, Summary{
				RunID:       run.RunID,
				CampaignID:  run.CampaignID,
				GeneratedAt: run.GeneratedAt,
				Insights:    run.Insights,
			})
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].GeneratedAt.After(summaries[j].GeneratedAt)
	})
	return summaries, nil
}

// Delete removes a run by ID. Deleting a missing run is not an error.
func (a *Archive) Delete(id string) error {
	return a.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketRuns).Delete(runKey(id))
	})
}

// Stats returns the run count and approximate stored bytes.
func (a *Archive) Stats() (count int, bytes int64, err error) {
	err = a.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketRuns).ForEach(func(k, v []byte) error {
			count++
			bytes += int64(len(k) + len(v))
			return nil
		})
	})
	return count, bytes, err
}
