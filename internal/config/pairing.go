package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
)

// ErrPersistence wraps every failure to write the pairing record.
var ErrPersistence = errors.New("failed to save pairing record")

// PairingRecord is the locally persisted pairing state.
//
// JSON format:
//
//	{
//	  "site": "https://example.com",
//	  "device_id": "dev456",
//	  "device_token": "tok123",
//	  "paired": true
//	}
//
// Absent optional fields are written as null.
type PairingRecord struct {
	Site        *string `json:"site"`
	DeviceID    *string `json:"device_id"`
	DeviceToken *string `json:"device_token"`
	Paired      bool    `json:"paired"`
}

// NewPairedRecord builds the record stored after a successful pairing.
func NewPairedRecord(site, deviceID, deviceToken string) PairingRecord {
	return PairingRecord{
		Site:        StringPtr(site),
		DeviceID:    StringPtr(deviceID),
		DeviceToken: StringPtr(deviceToken),
		Paired:      true,
	}
}

// SiteValue returns the site or "" when absent.
func (r PairingRecord) SiteValue() string { return deref(r.Site) }

// DeviceIDValue returns the device id or "" when absent.
func (r PairingRecord) DeviceIDValue() string { return deref(r.DeviceID) }

// DeviceTokenValue returns the device token or "" when absent.
func (r PairingRecord) DeviceTokenValue() string { return deref(r.DeviceToken) }

// CanReport reports whether the record holds enough to send a heartbeat.
func (r PairingRecord) CanReport() bool {
	return r.Paired && r.SiteValue() != "" && r.DeviceTokenValue() != ""
}

// Equal compares all four fields by value.
func (r PairingRecord) Equal(o PairingRecord) bool {
	return r.Paired == o.Paired &&
		equalPtr(r.Site, o.Site) &&
		equalPtr(r.DeviceID, o.DeviceID) &&
		equalPtr(r.DeviceToken, o.DeviceToken)
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string {
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func equalPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// Store loads and saves the pairing record as a whole.
type Store interface {
	// Load returns the stored record, or the zero record when none can be read.
	Load() PairingRecord

	// Save replaces the stored record. Errors wrap ErrPersistence.
	Save(PairingRecord) error
}

// FileStore keeps the pairing record in a JSON file.
// No locking: a single process is assumed, last write wins.
type FileStore struct {
	path string
}

// NewFileStore creates a store for path, or for PairingFilePath() when path is empty.
func NewFileStore(path string) *FileStore {
	if path == "" {
		path = PairingFilePath()
	}
	return &FileStore{path: path}
}

// Path returns the file backing this store.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the pairing record. A missing, unreadable or corrupt file yields
// the zero (unpaired) record; errors are never surfaced.
func (s *FileStore) Load() PairingRecord {
	s.ensureDir()

	data, err := os.ReadFile(s.path)
	if err != nil {
		return PairingRecord{}
	}

	var rec PairingRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return PairingRecord{}
	}
	return rec
}

// Save writes the record as indented JSON, replacing the previous file.
func (s *FileStore) Save(rec PairingRecord) error {
	s.ensureDir()

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	// Temporary file + rename so a failed write never truncates the old record
	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	// The token is a bearer credential
	if runtime.GOOS != "windows" {
		if err := os.Chmod(tmpPath, 0600); err != nil {
			os.Remove(tmpPath)
			return fmt.Errorf("%w: %w", ErrPersistence, err)
		}
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	return nil
}

// ensureDir creates the containing directory. Failures are ignored here and
// show up as read defaults or write errors.
func (s *FileStore) ensureDir() {
	_ = os.MkdirAll(filepath.Dir(s.path), 0700)
}

// MemoryStore is an in-memory Store.
type MemoryStore struct {
	mu     sync.Mutex
	record PairingRecord
	saves  int

	// SaveErr, when set, is returned (wrapped) by every Save.
	SaveErr error
}

// NewMemoryStore creates a store holding rec.
func NewMemoryStore(rec PairingRecord) *MemoryStore {
	return &MemoryStore{record: rec}
}

// Load returns the held record.
func (m *MemoryStore) Load() PairingRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.record
}

// Save replaces the held record unless SaveErr is set.
func (m *MemoryStore) Save(rec PairingRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveErr != nil {
		return fmt.Errorf("%w: %w", ErrPersistence, m.SaveErr)
	}
	m.record = rec
	m.saves++
	return nil
}

// Saves returns the number of successful saves.
func (m *MemoryStore) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}
