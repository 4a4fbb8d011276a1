package packages

import (
	"sort"
	"strings"
	"sync"
)

// Capabilities describes what a manager backend supports. The values are
// shared by every package of that manager.
type Capabilities struct {
	CanRunAsAdmin           bool
	CanRunInteractively     bool
	CanSkipIntegrityChecks  bool
	SupportsCustomScopes    bool
	SupportsPreRelease      bool
	SupportsCustomLocations bool
}

// Manager is a package-manager backend as seen by the engine. Packages keep a
// pointer to the single Manager value held by a Registry and never copy it.
type Manager struct {
	Name         string
	DisplayName  string
	Capabilities Capabilities
}

// Registry owns the Manager values for the process.
type Registry struct {
	mu       sync.RWMutex
	managers map[string]*Manager
}

// NewRegistry creates a registry holding the given managers.
func NewRegistry(managers ...*Manager) *Registry {
	r := &Registry{managers: make(map[string]*Manager, len(managers))}
	for _, m := range managers {
		r.Register(m)
	}
	return r
}

// Register adds m, replacing any manager with the same (case-insensitive) name.
func (r *Registry) Register(m *Manager) {
	if m == nil || m.Name == "" {
		return
	}
	r.mu.Lock()
	r.managers[strings.ToLower(m.Name)] = m
	r.mu.Unlock()
}

// Lookup finds a manager by name or display name, case-insensitively.
func (r *Registry) Lookup(name string) (*Manager, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if m, ok := r.managers[strings.ToLower(name)]; ok {
		return m, true
	}
	for _, m := range r.managers {
		if strings.EqualFold(m.DisplayName, name) {
			return m, true
		}
	}
	return nil, false
}

// Names returns the registered manager names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.managers))
	for _, m := range r.managers {
		names = append(names, m.Name)
	}
	sort.Strings(names)
	return names
}

// DefaultManagers returns the three managers the front-end knows about.
func DefaultManagers() []*Manager {
	return []*Manager{
		{
			Name:        "Winget",
			DisplayName: "Winget",
			Capabilities: Capabilities{
				CanRunAsAdmin:           true,
				CanRunInteractively:     true,
				CanSkipIntegrityChecks:  true,
				SupportsCustomScopes:    true,
				SupportsCustomLocations: true,
			},
		},
		{
			Name:        "Chocolatey",
			DisplayName: "Chocolatey",
			Capabilities: Capabilities{
				CanRunAsAdmin:          true,
				CanRunInteractively:    true,
				CanSkipIntegrityChecks: true,
				SupportsPreRelease:     true,
			},
		},
		{
			Name:        "Scoop",
			DisplayName: "Scoop",
			Capabilities: Capabilities{
				CanRunAsAdmin:          true,
				CanSkipIntegrityChecks: true,
				SupportsCustomScopes:   true,
			},
		},
	}
}
