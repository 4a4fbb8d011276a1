package managers

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/unigetui/engine/internal/options"
	"github.com/unigetui/engine/internal/packages"
	"github.com/unigetui/engine/internal/updates"
)

// SnapshotManager is the recorded state of one manager.
type SnapshotManager struct {
	Upgradable []updates.RawPackage `yaml:"upgradable"`
	Installed  []updates.RawPackage `yaml:"installed"`
}

type snapshotFile struct {
	Managers map[string]*SnapshotManager `yaml:"managers"`
}

// Snapshot serves package listings from a YAML file instead of live
// managers. Applying an update moves the package to its new version in the
// file. Useful on machines without the managers and for reproducing
// reports.
//
//	managers:
//	  Winget:
//	    upgradable:
//	      - {name: Git, id: Git.Git, version: 2.45.0, newVersion: 2.46.0, source: winget}
//	    installed:
//	      - {name: Git, id: Git.Git, version: 2.45.0, source: winget}
type Snapshot struct {
	path string

	mu   sync.Mutex
	file snapshotFile
}

// LoadSnapshot reads the snapshot at path. A missing file is an empty
// snapshot.
func LoadSnapshot(path string) (*Snapshot, error) {
	s := &Snapshot{path: path, file: snapshotFile{Managers: map[string]*SnapshotManager{}}}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	if err := yaml.Unmarshal(data, &s.file); err != nil {
		return nil, fmt.Errorf("parse snapshot %s: %w", path, err)
	}
	if s.file.Managers == nil {
		s.file.Managers = map[string]*SnapshotManager{}
	}
	return s, nil
}

// Sources returns one source per manager in the snapshot, sorted by name.
func (s *Snapshot) Sources() []updates.Source {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.file.Managers))
	for name := range s.file.Managers {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]updates.Source, len(names))
	for i, name := range names {
		out[i] = &snapshotSource{snap: s, name: name}
	}
	return out
}

// Set replaces the recorded state of one manager.
func (s *Snapshot) Set(manager string, state SnapshotManager) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.file.Managers[manager] = &state
}

// Save writes the snapshot back to its file.
func (s *Snapshot) Save() error {
	s.mu.Lock()
	data, err := yaml.Marshal(&s.file)
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create snapshot directory: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

// Update records pkg as installed at its new version and saves the file.
func (s *Snapshot) Update(_ context.Context, pkg *packages.UpgradablePackage, _ *options.InstallationOptions) error {
	s.mu.Lock()
	state, ok := s.lookup(pkg.Manager().Name)
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("snapshot has no manager %s", pkg.Manager().Name)
	}

	found := false
	kept := state.Upgradable[:0]
	for _, raw := range state.Upgradable {
		if raw.ID == pkg.ID() && raw.Version == pkg.Version() {
			found = true
			continue
		}
		kept = append(kept, raw)
	}
	state.Upgradable = kept
	if !found {
		s.mu.Unlock()
		return fmt.Errorf("snapshot has no update for %s", pkg.UniqueKey())
	}

	for i, raw := range state.Installed {
		if raw.ID == pkg.ID() && raw.Version == pkg.Version() {
			state.Installed[i].Version = pkg.NewVersion()
		}
	}
	s.mu.Unlock()

	log.Info("snapshot package updated", "package", pkg.UniqueKey(), "to", pkg.NewVersion())
	return s.Save()
}

func (s *Snapshot) lookup(manager string) (*SnapshotManager, bool) {
	if state, ok := s.file.Managers[manager]; ok && state != nil {
		return state, true
	}
	for name, state := range s.file.Managers {
		if state != nil && strings.EqualFold(name, manager) {
			return state, true
		}
	}
	return nil, false
}

type snapshotSource struct {
	snap *Snapshot
	name string
}

func (s *snapshotSource) Name() string { return s.name }

func (s *snapshotSource) Upgradable(context.Context) ([]updates.RawPackage, error) {
	return s.list(func(m *SnapshotManager) []updates.RawPackage { return m.Upgradable })
}

func (s *snapshotSource) Installed(context.Context) ([]updates.RawPackage, error) {
	return s.list(func(m *SnapshotManager) []updates.RawPackage { return m.Installed })
}

func (s *snapshotSource) list(pick func(*SnapshotManager) []updates.RawPackage) ([]updates.RawPackage, error) {
	s.snap.mu.Lock()
	defer s.snap.mu.Unlock()
	state, ok := s.snap.lookup(s.name)
	if !ok {
		return nil, nil
	}
	rows := pick(state)
	out := make([]updates.RawPackage, len(rows))
	copy(out, rows)
	return out, nil
}
