// Package settings stores user preferences as plain files in one directory.
// A boolean setting is on while its file exists; a string setting is the
// file's content.
package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/unigetui/engine/internal/logging"
)

var log = logging.L("settings")

const (
	AutomaticallyUpdatePackages = "AutomaticallyUpdatePackages"
	DisableUpdatesNotifications = "DisableUpdatesNotifications"
	DisableNotifications        = "DisableNotifications"
)

// volatile settings describe the running session and are never exported.
var volatile = map[string]bool{
	"OperationHistory":    true,
	"CurrentSessionToken": true,
	"OldWindowGeometry":   true,
}

// Store reads and writes settings under dir.
type Store struct {
	dir string
	mu  sync.Mutex
}

func New(dir string) *Store {
	return &Store{dir: dir}
}

func (s *Store) Dir() string { return s.dir }

func (s *Store) path(name string) (string, error) {
	if err := validName(name); err != nil {
		return "", err
	}
	return filepath.Join(s.dir, name), nil
}

// validName rejects names that would escape the settings directory.
func validName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\:`) {
		return fmt.Errorf("invalid setting name %q", name)
	}
	return nil
}

// Get reports whether the boolean setting is on. Invalid names read as off.
func (s *Store) Get(name string) bool {
	p, err := s.path(name)
	if err != nil {
		log.Warn("setting lookup rejected", logging.KeyError, err)
		return false
	}
	_, err = os.Stat(p)
	return err == nil
}

// Set turns a boolean setting on or off.
func (s *Store) Set(name string, on bool) error {
	if on {
		return s.SetValue(name, "")
	}
	return s.remove(name)
}

// Value returns the content of a string setting, or "" when it is unset.
func (s *Store) Value(name string) string {
	p, err := s.path(name)
	if err != nil {
		log.Warn("setting lookup rejected", logging.KeyError, err)
		return ""
	}
	data, err := os.ReadFile(p)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.Warn("failed to read setting", logging.KeyPath, p, logging.KeyError, err)
		}
		return ""
	}
	return string(data)
}

// SetValue writes a string setting. The file is created even for an empty
// value, which turns the same name on as a boolean.
func (s *Store) SetValue(name, value string) error {
	p, err := s.path(name)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create settings directory: %w", err)
	}
	if err := os.WriteFile(p, []byte(value), 0o644); err != nil {
		return fmt.Errorf("write setting %s: %w", name, err)
	}
	return nil
}

func (s *Store) remove(name string) error {
	p, err := s.path(name)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove setting %s: %w", name, err)
	}
	return nil
}

// AutoUpdateEnabled implements updates.Settings.
func (s *Store) AutoUpdateEnabled() bool {
	return s.Get(AutomaticallyUpdatePackages)
}

// UpdatesNotificationsDisabled implements updates.Settings. Turning all
// notifications off also silences update notifications.
func (s *Store) UpdatesNotificationsDisabled() bool {
	return s.Get(DisableUpdatesNotifications) || s.Get(DisableNotifications)
}

// Names lists the settings currently stored, sorted.
func (s *Store) Names() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// Export encodes every stored setting as a JSON object of name to content.
// Session state such as the operation history is left out.
func (s *Store) Export() ([]byte, error) {
	names, err := s.Names()
	if err != nil {
		return nil, err
	}

	out := make(map[string]string, len(names))
	for _, name := range names {
		if volatile[name] {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.dir, name))
		if err != nil {
			return nil, fmt.Errorf("read setting %s: %w", name, err)
		}
		out[name] = string(data)
	}
	return json.Marshal(out)
}

// Import replaces every setting with the contents of an Export. The data is
// decoded before anything is reset, so malformed input changes nothing.
func (s *Store) Import(data []byte) error {
	var in map[string]string
	if err := json.Unmarshal(data, &in); err != nil {
		return fmt.Errorf("decode settings: %w", err)
	}
	for name := range in {
		if err := validName(name); err != nil {
			return err
		}
	}

	if err := s.Reset(); err != nil {
		return err
	}

	var errs []error
	for name, value := range in {
		if err := s.SetValue(name, value); err != nil {
			errs = append(errs, err)
		}
	}
	log.Info("settings imported", logging.KeyCount, len(in)-len(errs))
	return errors.Join(errs...)
}

// Reset deletes every stored setting.
func (s *Store) Reset() error {
	names, err := s.Names()
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	for _, name := range names {
		if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, fmt.Errorf("remove setting %s: %w", name, err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		log.Error("settings reset incomplete", logging.KeyError, err)
		return err
	}
	return nil
}
