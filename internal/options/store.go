package options

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/unigetui/engine/internal/logging"
	"github.com/unigetui/engine/internal/packages"
)

var log = logging.L("options")

// idReplacer percent-escapes path separators and the escape byte itself, so
// distinct ids always map to distinct file names.
var idReplacer = strings.NewReplacer("%", "%25", "/", "%2F", `\`, "%5C", ":", "%3A")

// Store reads and writes options files under one directory. Files for
// different packages never overlap; calls for the same package are serialized.
type Store struct {
	dir string

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewStore returns a store rooted at dir. The directory is created on first save.
func NewStore(dir string) *Store {
	return &Store{dir: dir, locks: make(map[string]*sync.Mutex)}
}

// Key returns the storage key: manager name without spaces or dots, a dot,
// then the package id with '%', '/', '\' and ':' percent-escaped.
func Key(pkg *packages.Package) string {
	mustPackage(pkg)
	manager := strings.NewReplacer(" ", "", ".", "").Replace(pkg.Manager().Name)
	return manager + "." + idReplacer.Replace(pkg.ID())
}

// Path returns the options file used for pkg.
func (s *Store) Path(pkg *packages.Package) string {
	return filepath.Join(s.dir, Key(pkg)+".json")
}

// Load returns the saved options for pkg. With reset set, or when no file
// exists, it returns defaults. A corrupt or unreadable file is logged and
// also yields defaults.
func (s *Store) Load(pkg *packages.Package, reset bool) *InstallationOptions {
	path := s.Path(pkg)
	if reset {
		return Default()
	}

	unlock := s.lock(path)
	defer unlock()

	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.Warn("failed to read installation options", logging.KeyPath, path, logging.KeyError, err)
		}
		return Default()
	}

	var raw serialized
	if err := json.Unmarshal(data, &raw); err != nil {
		log.Warn("corrupt installation options, using defaults", logging.KeyPath, path, logging.KeyError, err)
		return Default()
	}
	if raw.SchemaVersion > SchemaVersion {
		log.Debug("options file written by a newer schema", logging.KeyPath, path, "schemaVersion", raw.SchemaVersion)
	}
	return fromSerialized(raw)
}

// Save writes opts for pkg, replacing the previous file.
func (s *Store) Save(pkg *packages.Package, opts *InstallationOptions) error {
	path := s.Path(pkg)
	if opts == nil {
		opts = Default()
	}

	data, err := json.MarshalIndent(opts.toSerialized(), "", "  ")
	if err != nil {
		return fmt.Errorf("encode installation options: %w", err)
	}

	unlock := s.lock(path)
	defer unlock()

	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		log.Error("failed to create options directory", logging.KeyPath, s.dir, logging.KeyError, err)
		return fmt.Errorf("create options directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		log.Error("failed to save installation options", logging.KeyPath, path, logging.KeyError, err)
		return fmt.Errorf("save installation options: %w", err)
	}
	log.Debug("installation options saved", logging.KeyPackage, pkg.ID(), logging.KeyPath, path)
	return nil
}

// Delete removes the saved options for pkg. A missing file is not an error.
func (s *Store) Delete(pkg *packages.Package) error {
	path := s.Path(pkg)
	unlock := s.lock(path)
	defer unlock()

	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete installation options: %w", err)
	}
	return nil
}

// LoadAsync runs Load on its own goroutine. The channel receives exactly one
// value and is then closed.
func (s *Store) LoadAsync(pkg *packages.Package, reset bool) <-chan *InstallationOptions {
	mustPackage(pkg)
	out := make(chan *InstallationOptions, 1)
	go func() {
		defer close(out)
		out <- s.Load(pkg, reset)
	}()
	return out
}

// SaveAsync runs Save on its own goroutine. The write completes even if the
// caller stops waiting; the channel receives its result and is then closed.
func (s *Store) SaveAsync(pkg *packages.Package, opts *InstallationOptions) <-chan error {
	mustPackage(pkg)
	snapshot := opts.clone()
	out := make(chan error, 1)
	go func() {
		defer close(out)
		out <- s.Save(pkg, snapshot)
	}()
	return out
}

func (s *Store) lock(path string) func() {
	s.mu.Lock()
	l, ok := s.locks[path]
	if !ok {
		l = &sync.Mutex{}
		s.locks[path] = l
	}
	s.mu.Unlock()

	l.Lock()
	return l.Unlock
}

func (o *InstallationOptions) clone() *InstallationOptions {
	if o == nil {
		return nil
	}
	c := *o
	c.CustomParameters = append([]string(nil), o.CustomParameters...)
	if o.Architecture != nil {
		arch := *o.Architecture
		c.Architecture = &arch
	}
	if o.InstallScope != nil {
		scope := *o.InstallScope
		c.InstallScope = &scope
	}
	return &c
}

func mustPackage(pkg *packages.Package) {
	if pkg == nil || pkg.Manager() == nil {
		panic("options: nil package")
	}
}
