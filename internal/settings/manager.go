package settings

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"pkt.systems/pslog"
)

const reloadDelay = 100 * time.Millisecond

// Manager owns the settings file: load at start, save on change, and
// reload on external edits.
type Manager struct {
	path   string
	logger pslog.Logger

	mu      sync.Mutex
	current Settings
	subs    map[uint64]chan Settings
	nextID  uint64
}

// Open loads settings from path.
func Open(path string, logger pslog.Logger) (*Manager, error) {
	if path == "" {
		return nil, fmt.Errorf("settings: missing path")
	}
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	current, err := Load(path)
	if err != nil {
		return nil, err
	}
	return &Manager{
		path:    path,
		logger:  logger.With("settings_file", path),
		current: current,
		subs:    make(map[uint64]chan Settings),
	}, nil
}

// Path returns the settings file path.
func (m *Manager) Path() string {
	return m.path
}

// Get returns the current settings.
func (m *Manager) Get() Settings {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Update normalizes next, saves it, and notifies subscribers.
func (m *Manager) Update(next Settings) (Settings, error) {
	next = next.Normalize()
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := Save(m.path, next); err != nil {
		return m.current, err
	}
	changed := next != m.current
	m.current = next
	if changed {
		m.logger.Info("settings updated")
		m.publishLocked(next)
	}
	return next, nil
}

// Set applies a single key and saves the result.
func (m *Manager) Set(key, value string) (Settings, error) {
	next, err := Apply(m.Get(), key, value)
	if err != nil {
		return m.Get(), err
	}
	return m.Update(next)
}

// Subscribe returns a channel of settings changes and a cancel func.
func (m *Manager) Subscribe(buffer int) (<-chan Settings, func()) {
	if buffer <= 0 {
		buffer = 4
	}
	ch := make(chan Settings, buffer)
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.subs[id] = ch
	m.mu.Unlock()
	return ch, func() {
		m.mu.Lock()
		if existing, ok := m.subs[id]; ok {
			delete(m.subs, id)
			close(existing)
		}
		m.mu.Unlock()
	}
}

func (m *Manager) publishLocked(s Settings) {
	for _, ch := range m.subs {
		select {
		case ch <- s:
		default:
		}
	}
}

// reload re-reads the file and publishes it when it differs.
func (m *Manager) reload() {
	next, err := Load(m.path)
	if err != nil {
		m.logger.Warn("settings reload failed", "err", err)
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if next == m.current {
		return
	}
	m.current = next
	m.logger.Info("settings reloaded from disk")
	m.publishLocked(next)
}

// Watch reloads settings when the file changes on disk until ctx is done.
// The parent directory is watched so atomic replacements are seen.
func (m *Manager) Watch(ctx context.Context) error {
	dir := filepath.Dir(m.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("settings: ensure dir: %w", err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("settings: create watcher: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("settings: watch %s: %w", dir, err)
	}
	target := filepath.Clean(m.path)

	go func() {
		var (
			timerMu sync.Mutex
			timer   *time.Timer
		)
		defer func() {
			timerMu.Lock()
			if timer != nil {
				timer.Stop()
			}
			timerMu.Unlock()
			_ = watcher.Close()
		}()

		for {
			select {
			case <-ctx.Done():
				return
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				m.logger.Warn("settings watcher error", "err", err)
			case evt, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(evt.Name) != target {
					continue
				}
				if evt.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				timerMu.Lock()
				if timer != nil {
					timer.Stop()
				}
				timer = time.AfterFunc(reloadDelay, func() {
					if ctx.Err() != nil {
						return
					}
					m.reload()
				})
				timerMu.Unlock()
			}
		}
	}()
	m.logger.Debug("settings watcher started")
	return nil
}
