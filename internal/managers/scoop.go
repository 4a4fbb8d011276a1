package managers

import (
	"context"
	"strings"

	"github.com/unigetui/engine/internal/options"
	"github.com/unigetui/engine/internal/packages"
	"github.com/unigetui/engine/internal/updates"
)

// Scoop drives the scoop command-line installer.
type Scoop struct {
	exec ExecFunc
}

func NewScoop(run ExecFunc) *Scoop {
	return &Scoop{exec: run}
}

func (s *Scoop) Name() string { return "Scoop" }

// Upgradable parses `scoop status`. The bucket of each app is looked up in
// `scoop list`; a failing list only loses the bucket names.
func (s *Scoop) Upgradable(ctx context.Context) ([]updates.RawPackage, error) {
	stdout, err := runScan(ctx, s.exec, "scoop", []string{"status"})
	if err != nil {
		return nil, err
	}

	installed, err := s.Installed(ctx)
	if err != nil {
		log.Warn("scoop list failed, buckets unknown", "error", err)
	}
	byID := make(map[string]updates.RawPackage, len(installed))
	for _, p := range installed {
		byID[p.ID] = p
	}

	var out []updates.RawPackage
	for _, cells := range parseTable(stdout, "Name", "Installed Version", "Latest Version") {
		if cells[0] == "" || cells[2] == "" {
			continue
		}
		raw := updates.RawPackage{
			Name:       cells[0],
			ID:         cells[0],
			Version:    cells[1],
			NewVersion: cells[2],
			Scope:      "user",
		}
		if p, ok := byID[raw.ID]; ok {
			raw.Source = p.Source
			raw.Scope = p.Scope
		}
		out = append(out, raw)
	}
	return out, nil
}

// Installed parses `scoop list`. Apps installed with --global are reported
// with "Global install" in the Info column.
func (s *Scoop) Installed(ctx context.Context) ([]updates.RawPackage, error) {
	stdout, err := runScan(ctx, s.exec, "scoop", []string{"list"})
	if err != nil {
		return nil, err
	}

	var out []updates.RawPackage
	for _, cells := range parseTable(stdout, "Name", "Version", "Source", "Updated", "Info") {
		if cells[0] == "" {
			continue
		}
		scope := "user"
		if strings.Contains(strings.ToLower(cells[4]), "global") {
			scope = "machine"
		}
		out = append(out, updates.RawPackage{
			Name:    cells[0],
			ID:      cells[0],
			Version: cells[1],
			Source:  cells[2],
			Scope:   scope,
		})
	}
	return out, nil
}

func (s *Scoop) Update(ctx context.Context, pkg *packages.UpgradablePackage, opts *options.InstallationOptions) error {
	return runUpdate(ctx, s.exec, "scoop", scoopUpdateArgs(pkg, opts))
}

func scoopUpdateArgs(pkg *packages.UpgradablePackage, opts *options.InstallationOptions) []string {
	id := pkg.ID()
	if src := pkg.Source().Name; src != "" && !strings.Contains(id, "/") {
		id = src + "/" + id
	}
	args := []string{"update", id}

	global := pkg.Scope() == packages.ScopeMachine
	if opts != nil {
		if opts.SkipHashCheck {
			args = append(args, "--skip")
		}
		if opts.InstallScope != nil {
			global = *opts.InstallScope == packages.ScopeMachine
		}
	}
	if global {
		args = append(args, "--global")
	}
	if opts != nil {
		args = append(args, opts.CustomParameters...)
	}
	return args
}
