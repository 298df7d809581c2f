// Package keystore persists issued API keys as a flat JSON snapshot file.
//
// The store keeps the full collection in memory and rewrites the snapshot
// wholesale on every issuance (write-to-temp then atomic rename), so a
// reader can never observe a partially written file. Lookups take a read
// lock only; issuance serializes writers.
package keystore

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// KeyPrefix is the fixed namespace tag every issued key starts with, so
// keys are recognizable and greppable in logs and config.
const KeyPrefix = "ZLAPI-"

// DefaultCreatedBy is the attribution recorded when the caller does not
// supply one.
const DefaultCreatedBy = "System"

// keyEntropyBytes is the random payload per key: 32 bytes (256 bits),
// base64url encoded after the prefix.
const keyEntropyBytes = 32

// ErrCorruptStore is returned when the snapshot file exists but cannot be
// parsed. Authentication against a corrupt store fails closed.
var ErrCorruptStore = errors.New("api key store is corrupt")

// Record is a single issued API key with its metadata. Records are
// immutable once issued; there is no update, revocation or expiry.
type Record struct {
	Key       string `json:"key"`
	Created   string `json:"created"`
	CreatedBy string `json:"created_by"`
}

// Store is a file-backed collection of issued API keys. Safe for
// concurrent use.
type Store struct {
	path string

	mu      sync.RWMutex
	records []Record
}

// Open loads the snapshot at path. A missing file yields an empty store;
// an unparseable file is an error so a half-written or corrupted snapshot
// is surfaced at startup instead of silently authenticating nobody.
func Open(path string) (*Store, error) {
	s := &Store{path: path}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("read key store %s: %w", path, err)
	}

	if err := json.Unmarshal(data, &s.records); err != nil {
		return nil, fmt.Errorf("parse key store %s: %w (%v)", path, ErrCorruptStore, err)
	}
	return s, nil
}

// Issue generates a new unique key, appends a record with the current
// timestamp and the given attribution (DefaultCreatedBy when empty),
// persists the updated snapshot, and returns the record. The in-memory
// collection is only updated after the snapshot has been durably renamed
// into place, so a failed write loses nothing.
func (s *Store) Issue(createdBy string) (Record, error) {
	if createdBy == "" {
		createdBy = DefaultCreatedBy
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key, err := s.generateKeyLocked()
	if err != nil {
		return Record{}, err
	}

	rec := Record{
		Key:       key,
		Created:   time.Now().Format(time.RFC3339),
		CreatedBy: createdBy,
	}

	updated := make([]Record, len(s.records), len(s.records)+1)
	copy(updated, s.records)
	updated = append(updated, rec)

	if err := s.persist(updated); err != nil {
		return Record{}, err
	}
	s.records = updated
	return rec, nil
}

// Exists reports whether key matches a stored record by exact comparison.
// No side effects; safe to call concurrently with Issue.
func (s *Store) Exists(key string) bool {
	if key == "" {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.records {
		if s.records[i].Key == key {
			return true
		}
	}
	return false
}

// List returns a copy of all issued records, oldest first.
func (s *Store) List() []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Record, len(s.records))
	copy(out, s.records)
	return out
}

// Len returns the number of issued records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Path returns the snapshot file location.
func (s *Store) Path() string {
	return s.path
}

// generateKeyLocked draws a fresh key, re-drawing on the (negligible)
// chance of a collision with an existing record. Caller holds s.mu.
func (s *Store) generateKeyLocked() (string, error) {
	for {
		buf := make([]byte, keyEntropyBytes)
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("generate api key: %w", err)
		}
		key := KeyPrefix + base64.RawURLEncoding.EncodeToString(buf)

		collision := false
		for i := range s.records {
			if s.records[i].Key == key {
				collision = true
				break
			}
		}
		if !collision {
			return key, nil
		}
	}
}

// persist writes the full snapshot to a temp file in the same directory
// and renames it over the store path. Rename is atomic on POSIX, so
// concurrent readers of the file see either the old or the new snapshot,
// never a torn one.
func (s *Store) persist(records []Record) error {
	data, err := json.MarshalIndent(records, "", "    ")
	if err != nil {
		return fmt.Errorf("encode key store: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".api_keys-*.tmp")
	if err != nil {
		return fmt.Errorf("write key store: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write key store: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write key store: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace key store %s: %w", s.path, err)
	}
	return nil
}
