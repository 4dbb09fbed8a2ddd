package viewer

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// Preferences persists small string settings across runs.
type Preferences interface {
	Get(key string) (string, error)
	Set(key, value string) error
}

// FilePreferences stores preferences as a flat YAML mapping, e.g. "theme: dark".
// A missing file reads as empty.
type FilePreferences struct {
	path string
	mu   sync.Mutex
}

// NewFilePreferences returns preferences stored at path.
func NewFilePreferences(path string) *FilePreferences {
	return &FilePreferences{path: path}
}

// DefaultPreferencesPath is $XDG_CONFIG_HOME/agentnote/prefs.yaml or its
// platform equivalent.
func DefaultPreferencesPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("viewer: config dir: %w", err)
	}
	return filepath.Join(dir, "agentnote", "prefs.yaml"), nil
}

func (p *FilePreferences) Get(key string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	values, err := p.load()
	if err != nil {
		return "", err
	}
	return values[key], nil
}

func (p *FilePreferences) Set(key, value string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	values, err := p.load()
	if err != nil {
		return err
	}
	values[key] = value

	data, err := yaml.Marshal(values)
	if err != nil {
		return fmt.Errorf("viewer: marshal prefs: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(p.path), 0o755); err != nil {
		return fmt.Errorf("viewer: mkdir prefs: %w", err)
	}
	tmp := p.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("viewer: write prefs: %w", err)
	}
	if err := os.Rename(tmp, p.path); err != nil {
		return fmt.Errorf("viewer: write prefs: %w", err)
	}
	return nil
}

func (p *FilePreferences) load() (map[string]string, error) {
	values := map[string]string{}
	data, err := os.ReadFile(p.path)
	if errors.Is(err, fs.ErrNotExist) {
		return values, nil
	}
	if err != nil {
		return nil, fmt.Errorf("viewer: read prefs: %w", err)
	}
	if err := yaml.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("viewer: parse prefs %s: %w", p.path, err)
	}
	if values == nil {
		values = map[string]string{}
	}
	return values, nil
}
