package integration

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrNotLoggedIn is returned when no Notion credentials have been stored.
var ErrNotLoggedIn = errors.New("not logged in to notion: run 'doer notion login'")

// NotionKeys are the credentials needed to reach one Notion database.
type NotionKeys struct {
	APIKey     string `yaml:"api_key"`
	DatabaseID string `yaml:"database_id"`
}

// Validate reports missing fields.
func (k NotionKeys) Validate() error {
	var missing []string
	if strings.TrimSpace(k.APIKey) == "" {
		missing = append(missing, "api_key")
	}
	if strings.TrimSpace(k.DatabaseID) == "" {
		missing = append(missing, "database_id")
	}
	if len(missing) > 0 {
		return fmt.Errorf("notion keys missing %s", strings.Join(missing, ", "))
	}
	return nil
}

// NotionKeyStore persists NotionKeys as YAML.
type NotionKeyStore interface {
	Load() (NotionKeys, error)
	Save(keys NotionKeys) error
	Remove() error
	Path() string
}

type fileNotionKeyStore struct {
	path string
}

// NewNotionKeyStore creates a NotionKeyStore backed by the file at path.
func NewNotionKeyStore(path string) NotionKeyStore {
	return &fileNotionKeyStore{path: path}
}

// DefaultNotionKeyPath returns <user config dir>/doer/notion.yaml.
func DefaultNotionKeyPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locating user config dir: %w", err)
	}
	return filepath.Join(dir, "doer", "notion.yaml"), nil
}

func (s *fileNotionKeyStore) Path() string {
	return s.path
}

// Load reads the stored keys. A missing file or incomplete keys yield
// ErrNotLoggedIn.
func (s *fileNotionKeyStore) Load() (NotionKeys, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return NotionKeys{}, ErrNotLoggedIn
		}
		return NotionKeys{}, fmt.Errorf("reading notion keys: %w", err)
	}

	var keys NotionKeys
	if err := yaml.Unmarshal(data, &keys); err != nil {
		return NotionKeys{}, fmt.Errorf("parsing notion keys: %w", err)
	}
	if err := keys.Validate(); err != nil {
		return NotionKeys{}, fmt.Errorf("%w (%v)", ErrNotLoggedIn, err)
	}
	return keys, nil
}

// Save writes keys with owner-only permissions.
func (s *fileNotionKeyStore) Save(keys NotionKeys) error {
	if err := keys.Validate(); err != nil {
		return fmt.Errorf("saving notion keys: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := yaml.Marshal(keys)
	if err != nil {
		return fmt.Errorf("marshalling notion keys: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("writing notion keys: %w", err)
	}
	return nil
}

// Remove deletes the stored keys. Removing keys that do not exist is not an error.
func (s *fileNotionKeyStore) Remove() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing notion keys: %w", err)
	}
	return nil
}
