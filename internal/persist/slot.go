package persist

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"unicode"

	"github.com/gofrs/flock"

	"pkt.systems/notetabs/schema"
	"pkt.systems/pslog"
)

// Slot is a byte-oriented durable key-value store. A write replaces the
// value of a single key atomically.
type Slot interface {
	// Read returns the stored value or schema.ErrSlotEmpty.
	Read(key string) ([]byte, error)
	Write(key string, data []byte) error
	Close() error
}

// Backend names a Slot implementation.
type Backend string

const (
	// BackendFile stores each key as a JSON file written via rename.
	BackendFile Backend = "file"
	// BackendDiskv stores keys through diskv.
	BackendDiskv Backend = "diskv"
	// BackendBolt stores keys in a bbolt bucket.
	BackendBolt Backend = "bbolt"
	// BackendMemory keeps values in process memory only.
	BackendMemory Backend = "memory"
)

// ErrLocked indicates another process holds the state directory.
var ErrLocked = errors.New("state directory is in use by another process")

// Options selects and configures a Slot backend.
type Options struct {
	Backend Backend
	Dir     string
	Logger  pslog.Logger
}

// Open constructs the configured backend. Directory backends take an
// exclusive lock on the state directory for the lifetime of the slot.
func Open(opts Options) (Slot, error) {
	backend := Backend(strings.ToLower(strings.TrimSpace(string(opts.Backend))))
	if backend == "" {
		backend = BackendFile
	}
	if backend == BackendMemory {
		return NewMemorySlot(), nil
	}
	if strings.TrimSpace(opts.Dir) == "" {
		return nil, errors.New("state directory is required")
	}
	switch backend {
	case BackendFile:
		slot, err := NewFileSlot(opts.Dir, opts.Logger)
		if err != nil {
			return nil, err
		}
		return withDirLock(slot, opts.Dir)
	case BackendDiskv:
		slot, err := NewDiskvSlot(opts.Dir, opts.Logger)
		if err != nil {
			return nil, err
		}
		return withDirLock(slot, opts.Dir)
	case BackendBolt:
		// bbolt locks its own database file.
		return NewBoltSlot(filepath.Join(opts.Dir, "notetabs.db"), opts.Logger)
	default:
		return nil, fmt.Errorf("unsupported state backend %q", opts.Backend)
	}
}

type lockedSlot struct {
	Slot
	lock *flock.Flock
}

func withDirLock(slot Slot, dir string) (Slot, error) {
	lock := flock.New(filepath.Join(dir, ".lock"))
	ok, err := lock.TryLock()
	if err != nil {
		_ = slot.Close()
		return nil, fmt.Errorf("lock state directory: %w", err)
	}
	if !ok {
		_ = slot.Close()
		return nil, ErrLocked
	}
	return &lockedSlot{Slot: slot, lock: lock}, nil
}

func (s *lockedSlot) Close() error {
	err := s.Slot.Close()
	if unlockErr := s.lock.Unlock(); unlockErr != nil && err == nil {
		err = unlockErr
	}
	return err
}

// MemorySlot keeps values in memory.
type MemorySlot struct {
	mu     sync.Mutex
	values map[string][]byte
	writes int
}

// NewMemorySlot constructs an empty in-memory slot.
func NewMemorySlot() *MemorySlot {
	return &MemorySlot{values: make(map[string][]byte)}
}

// Read implements Slot.
func (m *MemorySlot) Read(key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.values[key]
	if !ok {
		return nil, schema.ErrSlotEmpty
	}
	return append([]byte(nil), data...), nil
}

// Write implements Slot.
func (m *MemorySlot) Write(key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = append([]byte(nil), data...)
	m.writes++
	return nil
}

// Writes reports how many writes the slot accepted.
func (m *MemorySlot) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

// Close implements Slot.
func (m *MemorySlot) Close() error {
	return nil
}

func sanitize(value string) string {
	var b strings.Builder
	for _, r := range value {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			continue
		}
		if r == '-' || r == '_' || r == '.' {
			b.WriteRune(r)
			continue
		}
		b.WriteRune('_')
	}
	return b.String()
}
