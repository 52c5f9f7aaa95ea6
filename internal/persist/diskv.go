package persist

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterbourgon/diskv/v3"

	"pkt.systems/notetabs/schema"
	"pkt.systems/pslog"
)

// DiskvSlot stores keys through a flat diskv store.
type DiskvSlot struct {
	d   *diskv.Diskv
	log pslog.Logger
}

// NewDiskvSlot constructs a diskv-backed slot rooted at dir.
func NewDiskvSlot(dir string, logger pslog.Logger) (*DiskvSlot, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("state directory is required")
	}
	base := filepath.Join(dir, "kv")
	if err := os.MkdirAll(base, 0o700); err != nil {
		return nil, err
	}
	if logger != nil {
		logger = logger.With("state_dir", dir, "backend", BackendDiskv)
	}
	return &DiskvSlot{
		d: diskv.New(diskv.Options{
			BasePath:     base,
			TempDir:      filepath.Join(dir, "kv-tmp"),
			Transform:    flatTransform,
			CacheSizeMax: 1024 * 1024, // 1MB
			FilePerm:     0o600,
			PathPerm:     0o700,
		}),
		log: logger,
	}, nil
}

// Read implements Slot.
func (s *DiskvSlot) Read(key string) ([]byte, error) {
	name := diskvKey(key)
	if !s.d.Has(name) {
		if s.log != nil {
			s.log.Debug("state read miss", "key", key)
		}
		return nil, schema.ErrSlotEmpty
	}
	data, err := s.d.Read(name)
	if err != nil {
		if s.log != nil {
			s.log.Warn("state read failed", "key", key, "err", err)
		}
		return nil, err
	}
	return data, nil
}

// Write implements Slot. diskv writes through TempDir and renames.
func (s *DiskvSlot) Write(key string, data []byte) error {
	if err := s.d.Write(diskvKey(key), data); err != nil {
		if s.log != nil {
			s.log.Warn("state write failed", "key", key, "err", err)
		}
		return err
	}
	if s.log != nil {
		s.log.Trace("state write ok", "key", key, "bytes", len(data))
	}
	return nil
}

// Close implements Slot.
func (s *DiskvSlot) Close() error {
	return nil
}

func flatTransform(string) []string {
	return []string{}
}

func diskvKey(key string) string {
	name := sanitize(key)
	if name == "" {
		name = schema.DefaultStateKey
	}
	return name
}
