// Package session keeps small per-user values, such as the display name
// chosen at login, in a JSON file next to the database.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/julianstephens/habitflow/internal/constants"
	"github.com/julianstephens/habitflow/internal/utils"
)

var (
	// ErrEmptyDisplayName is returned when a blank display name is set
	ErrEmptyDisplayName = errors.New("display name cannot be empty")
	// ErrInvalidImage is returned when a profile image is not a readable file
	ErrInvalidImage = errors.New("profile image must be an existing file")
)

// Store is a string key-value file. It is safe for concurrent use within
// one process.
type Store struct {
	path   string
	mu     sync.Mutex
	values map[string]string
}

// Open reads the session file at path. A missing file is an empty session.
func Open(path string) (*Store, error) {
	s := &Store{path: path, values: make(map[string]string)}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session: %w", err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(data, &s.values); err != nil {
		return nil, fmt.Errorf("failed to parse session %s: %w", path, err)
	}
	if s.values == nil {
		s.values = make(map[string]string)
	}
	return s, nil
}

// PathFor returns the session file used alongside the given storage
// config. PostgreSQL configs keep it in the default config directory.
func PathFor(config string) string {
	dir := filepath.Dir(utils.ExpandPath(constants.DefaultConfigPath))
	if !strings.Contains(config, "://") && !strings.Contains(config, "host=") {
		dir = filepath.Dir(utils.ExpandPath(config))
	}
	return filepath.Join(dir, constants.SessionFileName)
}

// Path returns the file backing the store.
func (s *Store) Path() string {
	return s.path
}

// Get returns the value stored under key.
func (s *Store) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	return v, ok
}

// Set stores value under key and writes the file.
func (s *Store) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, had := s.values[key]
	s.values[key] = value
	if err := s.save(); err != nil {
		if had {
			s.values[key] = prev
		} else {
			delete(s.values, key)
		}
		return err
	}
	return nil
}

// Delete removes key. Removing a missing key is not an error.
func (s *Store) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, had := s.values[key]
	if !had {
		return nil
	}
	delete(s.values, key)
	if err := s.save(); err != nil {
		s.values[key] = prev
		return err
	}
	return nil
}

// DisplayName returns the name the user logged in with.
func (s *Store) DisplayName() (string, bool) {
	name, ok := s.Get(constants.SessionKeyDisplayName)
	if !ok || name == "" {
		return "", false
	}
	return name, true
}

// SetDisplayName stores name after trimming surrounding space.
func (s *Store) SetDisplayName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyDisplayName
	}
	return s.Set(constants.SessionKeyDisplayName, name)
}

// ProfileImage returns the stored profile image path.
func (s *Store) ProfileImage() (string, bool) {
	img, ok := s.Get(constants.SessionKeyProfileImage)
	if !ok || img == "" {
		return "", false
	}
	return img, true
}

// SetProfileImage stores the absolute path of an existing regular file.
func (s *Store) SetProfileImage(path string) error {
	path = utils.ExpandPath(strings.TrimSpace(path))
	if path == "" {
		return ErrInvalidImage
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%w: %s is not a regular file", ErrInvalidImage, abs)
	}
	return s.Set(constants.SessionKeyProfileImage, abs)
}

// Logout forgets the display name. The profile image is kept.
func (s *Store) Logout() error {
	return s.Delete(constants.SessionKeyDisplayName)
}

// save writes the values atomically. Callers hold s.mu.
func (s *Store) save() error {
	data, err := json.MarshalIndent(s.values, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, constants.SessionFileName+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to write session: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write session: %w", err)
	}
	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write session: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write session: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("failed to write session: %w", err)
	}
	return nil
}
