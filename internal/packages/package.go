package packages

import (
	"sync"

	"github.com/unigetui/engine/internal/version"
)

// Source is the repository a manager installed a package from.
type Source struct {
	Name string
	URL  string
}

func (s Source) String() string {
	return s.Name
}

// FieldSelected names the selected flag in change events.
const FieldSelected = "Selected"

// ChangeEvent is delivered to subscribers when a mutable field changes.
type ChangeEvent struct {
	Package *Package
	Field   string
	Old     any
	New     any
}

// Listener receives change events synchronously on the mutating goroutine.
type Listener func(ChangeEvent)

type subscription struct {
	id int
	fn Listener
}

// Package is one package reported by a manager. Only the selected flag is
// mutable after construction.
type Package struct {
	name         string
	id           string
	version      string
	versionValue float64
	source       Source
	manager      *Manager
	scope        Scope

	mu        sync.Mutex
	selected  bool
	listeners []subscription
	nextSubID int
}

// New builds a package. id and manager are required.
func New(name, id, ver string, source Source, manager *Manager, scope Scope) (*Package, error) {
	if id == "" {
		return nil, &ErrInvalidPackage{Field: "id"}
	}
	if manager == nil {
		return nil, &ErrInvalidPackage{Field: "manager"}
	}
	return &Package{
		name:         name,
		id:           id,
		version:      ver,
		versionValue: version.Parse(ver),
		source:       source,
		manager:      manager,
		scope:        scope,
	}, nil
}

func (p *Package) Name() string          { return p.name }
func (p *Package) ID() string            { return p.id }
func (p *Package) Version() string       { return p.version }
func (p *Package) VersionValue() float64 { return p.versionValue }
func (p *Package) Source() Source        { return p.source }
func (p *Package) Manager() *Manager     { return p.manager }
func (p *Package) Scope() Scope          { return p.scope }

// UniqueKey returns manager\id\version.
func (p *Package) UniqueKey() string {
	return UniqueKey(p.manager.Name, p.id, p.version)
}

// IgnoreKey returns lower(manager)\id.
func (p *Package) IgnoreKey() string {
	return IgnoreKey(p.manager.Name, p.id)
}

// IconKey returns the icon database key for this package.
func (p *Package) IconKey() string {
	return IconKey(p.manager.Name, p.id)
}

// Equal reports whether p and other share source and id. Versions and
// managers are not compared; list deduplication relies on this.
func (p *Package) Equal(other *Package) bool {
	if p == nil || other == nil {
		return p == other
	}
	return p.source == other.source && p.id == other.id
}

// Selected reports whether the package is checked in the list.
func (p *Package) Selected() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.selected
}

// SetSelected updates the flag and notifies subscribers when it changes.
func (p *Package) SetSelected(selected bool) {
	p.mu.Lock()
	old := p.selected
	if old == selected {
		p.mu.Unlock()
		return
	}
	p.selected = selected
	listeners := make([]subscription, len(p.listeners))
	copy(listeners, p.listeners)
	p.mu.Unlock()

	event := ChangeEvent{Package: p, Field: FieldSelected, Old: old, New: selected}
	for _, l := range listeners {
		l.fn(event)
	}
}

// Subscribe registers fn for change events and returns a function that
// removes it. Calling the returned function more than once is harmless.
func (p *Package) Subscribe(fn Listener) (unsubscribe func()) {
	p.mu.Lock()
	p.nextSubID++
	id := p.nextSubID
	p.listeners = append(p.listeners, subscription{id: id, fn: fn})
	p.mu.Unlock()

	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		for i, l := range p.listeners {
			if l.id == id {
				p.listeners = append(p.listeners[:i], p.listeners[i+1:]...)
				return
			}
		}
	}
}
