package persist

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"pkt.systems/notetabs/schema"
	"pkt.systems/pslog"
)

// FileSlot persists each key as a JSON file in a directory.
type FileSlot struct {
	dir string
	log pslog.Logger
}

// NewFileSlot constructs a file slot at the given directory.
func NewFileSlot(dir string, logger pslog.Logger) (*FileSlot, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("state directory is required")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, err
	}
	if logger != nil {
		logger = logger.With("state_dir", dir, "backend", BackendFile)
	}
	return &FileSlot{dir: dir, log: logger}, nil
}

// Read implements Slot.
func (s *FileSlot) Read(key string) ([]byte, error) {
	data, err := os.ReadFile(s.pathForKey(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if s.log != nil {
				s.log.Debug("state read miss", "key", key)
			}
			return nil, schema.ErrSlotEmpty
		}
		if s.log != nil {
			s.log.Warn("state read failed", "key", key, "err", err)
		}
		return nil, err
	}
	if s.log != nil {
		s.log.Debug("state read ok", "key", key, "bytes", len(data))
	}
	return data, nil
}

// Write implements Slot. The value lands via a synced temp file and rename.
func (s *FileSlot) Write(key string, data []byte) error {
	path := s.pathForKey(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		s.warn(key, err)
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "state-*.json")
	if err != nil {
		s.warn(key, err)
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		s.warn(key, err)
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		s.warn(key, err)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		s.warn(key, err)
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o600); err != nil {
		_ = os.Remove(tmp.Name())
		s.warn(key, err)
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		s.warn(key, err)
		return err
	}
	if s.log != nil {
		s.log.Trace("state write ok", "key", key, "bytes", len(data))
	}
	return nil
}

// Close implements Slot.
func (s *FileSlot) Close() error {
	return nil
}

func (s *FileSlot) warn(key string, err error) {
	if s.log != nil {
		s.log.Warn("state write failed", "key", key, "err", err)
	}
}

func (s *FileSlot) pathForKey(key string) string {
	name := sanitize(key)
	if name == "" {
		name = schema.DefaultStateKey
	}
	return filepath.Join(s.dir, name+".json")
}
