package store

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/eternnoir/videocaps/pkg/timeline"
)

const (
	bucketSessions = "sessions"
	bucketEdits    = "edits"
)

// ErrNotFound is returned when a session does not exist
var ErrNotFound = errors.New("not found")

// SessionRecord describes an editing session bound to a transcript file
type SessionRecord struct {
	ID         string  `json:"id"`
	Transcript string  `json:"transcript"`
	Media      string  `json:"media,omitempty"`
	Duration   float64 `json:"duration"`

	// SavedSeq is the last journaled edit known to be written to the transcript file
	SavedSeq uint64 `json:"saved_seq"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Edit is one committed drag: the final bounds of the segment at Index
type Edit struct {
	Seq   uint64    `json:"seq"`
	Index int       `json:"index"`
	Start float64   `json:"start"`
	End   float64   `json:"end"`
	At    time.Time `json:"at"`
}

// Store is a BoltDB-backed journal of sessions and their committed edits
type Store struct {
	db *bolt.DB
}

// Open opens or creates the journal database at path
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create store directory: %w", err)
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{
		Timeout: 1 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open store database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(bucketSessions)); err != nil {
			return fmt.Errorf("failed to create sessions bucket: %w", err)
		}
		if _, err := tx.CreateBucketIfNotExists([]byte(bucketEdits)); err != nil {
			return fmt.Errorf("failed to create edits bucket: %w", err)
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// SaveSession creates or updates a session record
func (s *Store) SaveSession(rec SessionRecord) error {
	if rec.ID == "" {
		return fmt.Errorf("session id is required")
	}
	now := time.Now().UTC()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now

	return s.db.Update(func(tx *bolt.Tx) error {
		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("failed to marshal session: %w", err)
		}
		if err := tx.Bucket([]byte(bucketSessions)).Put([]byte(rec.ID), data); err != nil {
			return fmt.Errorf("failed to store session: %w", err)
		}
		return nil
	})
}

// GetSession returns the session with id, or ErrNotFound
func (s *Store) GetSession(id string) (*SessionRecord, error) {
	var rec *SessionRecord
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket([]byte(bucketSessions)).Get([]byte(id))
		if data == nil {
			return fmt.Errorf("session %s: %w", id, ErrNotFound)
		}
		var r SessionRecord
		if err := json.Unmarshal(data, &r); err != nil {
			return fmt.Errorf("failed to unmarshal session: %w", err)
		}
		rec = &r
		return nil
	})
	return rec, err
}

// FindByTranscript returns the most recently updated session bound to a transcript path
func (s *Store) FindByTranscript(path string) (*SessionRecord, error) {
	sessions, err := s.ListSessions()
	if err != nil {
		return nil, err
	}
	var found *SessionRecord
	for i := range sessions {
		if sessions[i].Transcript != path {
			continue
		}
		if found == nil || sessions[i].UpdatedAt.After(found.UpdatedAt) {
			found = &sessions[i]
		}
	}
	if found == nil {
		return nil, fmt.Errorf("session for %s: %w", path, ErrNotFound)
	}
	return found, nil
}

// ListSessions returns every session ordered by creation time
func (s *Store) ListSessions() ([]SessionRecord, error) {
	var out []SessionRecord
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketSessions)).ForEach(func(_, v []byte) error {
			var r SessionRecord
			if err := json.Unmarshal(v, &r); err != nil {
				return fmt.Errorf("failed to unmarshal session: %w", err)
			}
			out = append(out, r)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// DeleteSession removes a session and its edit journal
func (s *Store) DeleteSession(id string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		sessions := tx.Bucket([]byte(bucketSessions))
		if sessions.Get([]byte(id)) == nil {
			return fmt.Errorf("session %s: %w", id, ErrNotFound)
		}
		if err := sessions.Delete([]byte(id)); err != nil {
			return fmt.Errorf("failed to delete session: %w", err)
		}
		edits := tx.Bucket([]byte(bucketEdits))
		if edits.Bucket([]byte(id)) != nil {
			if err := edits.DeleteBucket([]byte(id)); err != nil {
				return fmt.Errorf("failed to delete edits: %w", err)
			}
		}
		return nil
	})
}

// RecordEdit appends a committed edit to the session's journal and returns its sequence number
func (s *Store) RecordEdit(id string, edit Edit) (uint64, error) {
	if edit.At.IsZero() {
		edit.At = time.Now().UTC()
	}

	var seq uint64
	err := s.db.Update(func(tx *bolt.Tx) error {
		if tx.Bucket([]byte(bucketSessions)).Get([]byte(id)) == nil {
			return fmt.Errorf("session %s: %w", id, ErrNotFound)
		}
		journal, err := tx.Bucket([]byte(bucketEdits)).CreateBucketIfNotExists([]byte(id))
		if err != nil {
			return fmt.Errorf("failed to create edit journal: %w", err)
		}

		seq, err = journal.NextSequence()
		if err != nil {
			return fmt.Errorf("failed to allocate edit sequence: %w", err)
		}
		edit.Seq = seq

		data, err := json.Marshal(edit)
		if err != nil {
			return fmt.Errorf("failed to marshal edit: %w", err)
		}
		if err := journal.Put(seqKey(seq), data); err != nil {
			return fmt.Errorf("failed to store edit: %w", err)
		}
		return nil
	})
	return seq, err
}

// Edits returns the session's journal in commit order
func (s *Store) Edits(id string) ([]Edit, error) {
	var out []Edit
	err := s.db.View(func(tx *bolt.Tx) error {
		journal := tx.Bucket([]byte(bucketEdits)).Bucket([]byte(id))
		if journal == nil {
			return nil
		}
		return journal.ForEach(func(_, v []byte) error {
			var e Edit
			if err := json.Unmarshal(v, &e); err != nil {
				return fmt.Errorf("failed to unmarshal edit: %w", err)
			}
			out = append(out, e)
			return nil
		})
	})
	return out, err
}

// EditsSince returns the journaled edits with a sequence number greater than after
func (s *Store) EditsSince(id string, after uint64) ([]Edit, error) {
	var out []Edit
	err := s.db.View(func(tx *bolt.Tx) error {
		journal := tx.Bucket([]byte(bucketEdits)).Bucket([]byte(id))
		if journal == nil {
			return nil
		}
		c := journal.Cursor()
		for k, v := c.Seek(seqKey(after + 1)); k != nil; k, v = c.Next() {
			var e Edit
			if err := json.Unmarshal(v, &e); err != nil {
				return fmt.Errorf("failed to unmarshal edit: %w", err)
			}
			out = append(out, e)
		}
		return nil
	})
	return out, err
}

// ClearEdits drops the session's journal, e.g. after its edits were written back
func (s *Store) ClearEdits(id string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		edits := tx.Bucket([]byte(bucketEdits))
		if edits.Bucket([]byte(id)) == nil {
			return nil
		}
		return edits.DeleteBucket([]byte(id))
	})
}

// Close closes the underlying database
func (s *Store) Close() error {
	return s.db.Close()
}

// ApplyEdits replays journaled edits onto tl. Each edit goes through the
// timeline's validation, so a journal recorded against a longer media file
// is clamped to the current duration. Edits for unknown indices are skipped.
func ApplyEdits(tl *timeline.Timeline, edits []Edit) *timeline.Timeline {
	for _, e := range edits {
		seg, ok := tl.Get(e.Index)
		if !ok {
			continue
		}
		seg.Start = e.Start
		seg.End = e.End
		tl = tl.Replace(e.Index, seg)
	}
	return tl
}

func seqKey(seq uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, seq)
	return b
}
