package packages

import "github.com/unigetui/engine/internal/version"

// UpgradablePackage is an installed package with a newer version available.
// Loaders build a fresh set on every reload; instances are never updated in
// place.
type UpgradablePackage struct {
	*Package
	newVersion      string
	newVersionValue float64
}

// NewUpgradable builds an upgradable package. It starts out selected.
func NewUpgradable(name, id, installed, available string, source Source, manager *Manager, scope Scope) (*UpgradablePackage, error) {
	p, err := New(name, id, installed, source, manager, scope)
	if err != nil {
		return nil, err
	}
	p.selected = true
	return &UpgradablePackage{
		Package:         p,
		newVersion:      available,
		newVersionValue: version.Parse(available),
	}, nil
}

func (u *UpgradablePackage) NewVersion() string       { return u.newVersion }
func (u *UpgradablePackage) NewVersionValue() float64 { return u.newVersionValue }

// NewVersionIsInstalled reports whether installed already contains this
// package at its new version, from the same manager and source.
func (u *UpgradablePackage) NewVersionIsInstalled(installed []*Package) bool {
	for _, p := range installed {
		if p == nil {
			continue
		}
		if p.manager == u.manager &&
			p.id == u.id &&
			p.version == u.newVersion &&
			p.source.Name == u.source.Name {
			return true
		}
	}
	return false
}
