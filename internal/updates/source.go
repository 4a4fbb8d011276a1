// Package updates turns manager output into the filtered update list and
// raises the "updates available" notification for it.
package updates

import (
	"context"

	"github.com/unigetui/engine/internal/packages"
)

// RawPackage is one row reported by a package manager. NewVersion is empty
// for installed-package listings.
type RawPackage struct {
	Name       string `yaml:"name"`
	ID         string `yaml:"id"`
	Version    string `yaml:"version"`
	NewVersion string `yaml:"newVersion,omitempty"`
	Source     string `yaml:"source,omitempty"`
	SourceURL  string `yaml:"sourceUrl,omitempty"`
	Scope      string `yaml:"scope,omitempty"`
}

// Source lists packages for one manager. Name must match a manager in the
// registry the loader was built with.
type Source interface {
	Name() string
	Upgradable(ctx context.Context) ([]RawPackage, error)
	Installed(ctx context.Context) ([]RawPackage, error)
}

// Settings exposes the user preferences the update flow reads.
type Settings interface {
	AutoUpdateEnabled() bool
	UpdatesNotificationsDisabled() bool
}

// StaticSettings is a fixed Settings value.
type StaticSettings struct {
	AutoUpdate            bool
	NotificationsDisabled bool
}

func (s StaticSettings) AutoUpdateEnabled() bool            { return s.AutoUpdate }
func (s StaticSettings) UpdatesNotificationsDisabled() bool { return s.NotificationsDisabled }

func scopeOf(raw RawPackage) packages.Scope {
	scope, _ := packages.ParseScope(raw.Scope)
	return scope
}
