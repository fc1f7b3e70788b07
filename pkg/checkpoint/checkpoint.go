package checkpoint

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"lcscraper/internal/atomicfile"
	"lcscraper/pkg/logger"
)

// None is the checkpoint value meaning no item has been completed
const None = -1

// Manager persists the index of the last successfully completed item
// as a single text line.
type Manager struct {
	mu      sync.Mutex
	path    string
	logger  logger.Logger
	current int
	loaded  bool
}

// NewManager creates a checkpoint manager for the file at path
func NewManager(path string, log logger.Logger) *Manager {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Manager{
		path:    path,
		logger:  log,
		current: None,
	}
}

// Path returns the checkpoint file location
func (m *Manager) Path() string {
	return m.path
}

// Load reads the checkpoint. An absent or unparsable file yields None.
func (m *Manager) Load() (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.load()
}

func (m *Manager) load() (int, error) {
	data, err := os.ReadFile(m.path)
	if err != nil {
		if os.IsNotExist(err) {
			m.current, m.loaded = None, true
			return None, nil
		}
		return None, fmt.Errorf("failed to read checkpoint file: %w", err)
	}

	value, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || value < None {
		m.logger.WarnWithFields("Checkpoint file is corrupt, starting from the beginning", map[string]interface{}{
			"path":    m.path,
			"content": strings.TrimSpace(string(data)),
		})
		m.current, m.loaded = None, true
		return None, nil
	}

	m.current, m.loaded = value, true
	m.logger.InfoWithFields("Checkpoint loaded", map[string]interface{}{
		"path":  m.path,
		"index": value,
	})
	return value, nil
}

// Advance records index as the last completed item. The checkpoint never
// moves backwards; a lower index is rejected and the file is left as is.
func (m *Manager) Advance(index int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.loaded {
		if _, err := m.load(); err != nil {
			return err
		}
	}
	if index < m.current {
		return fmt.Errorf("checkpoint cannot move backwards from %d to %d", m.current, index)
	}

	if err := m.save(index); err != nil {
		return err
	}
	m.current = index

	m.logger.DebugWithFields("Checkpoint saved", map[string]interface{}{
		"index": index,
	})
	return nil
}

// Reset rewrites the checkpoint to None after backing up the previous file
func (m *Manager) Reset() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.backup(); err != nil {
		return err
	}
	if err := m.save(None); err != nil {
		return err
	}
	m.current, m.loaded = None, true

	m.logger.InfoWithFields("Checkpoint reset", map[string]interface{}{
		"path": m.path,
	})
	return nil
}

// Exists checks if a checkpoint file exists
func (m *Manager) Exists() bool {
	_, err := os.Stat(m.path)
	return err == nil
}

func (m *Manager) save(index int) error {
	if err := atomicfile.Write(m.path, []byte(strconv.Itoa(index)+"\n"), 0644); err != nil {
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}
	return nil
}

// backup copies the current checkpoint file next to itself
func (m *Manager) backup() error {
	src, err := os.Open(m.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to open checkpoint for backup: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(m.path + ".backup")
	if err != nil {
		return fmt.Errorf("failed to create backup file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("failed to copy checkpoint to backup: %w", err)
	}

	m.logger.Debug("Checkpoint backed up")
	return nil
}
