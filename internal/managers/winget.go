package managers

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/unigetui/engine/internal/options"
	"github.com/unigetui/engine/internal/packages"
	"github.com/unigetui/engine/internal/updates"
)

// validWingetPkgID matches winget package identifiers such as
// "Mozilla.Firefox" or "Microsoft.VisualStudioCode".
var validWingetPkgID = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._\-+]{0,255}$`)

// Winget drives the Windows Package Manager.
type Winget struct {
	exec ExecFunc
}

func NewWinget(run ExecFunc) *Winget {
	return &Winget{exec: run}
}

func (w *Winget) Name() string { return "Winget" }

// Upgradable lists available upgrades from `winget upgrade`.
func (w *Winget) Upgradable(ctx context.Context) ([]updates.RawPackage, error) {
	stdout, err := runScan(ctx, w.exec, "winget", []string{
		"upgrade",
		"--include-unknown",
		"--accept-source-agreements",
		"--disable-interactivity",
	})
	if err != nil {
		return nil, err
	}
	return parseWingetUpgradeOutput(stdout), nil
}

// Installed lists installed packages from `winget list`.
func (w *Winget) Installed(ctx context.Context) ([]updates.RawPackage, error) {
	stdout, err := runScan(ctx, w.exec, "winget", []string{
		"list",
		"--accept-source-agreements",
		"--disable-interactivity",
	})
	if err != nil {
		return nil, err
	}
	return parseWingetListOutput(stdout), nil
}

// Update upgrades one package, honouring its installation options.
func (w *Winget) Update(ctx context.Context, pkg *packages.UpgradablePackage, opts *options.InstallationOptions) error {
	if !validWingetPkgID.MatchString(pkg.ID()) {
		return fmt.Errorf("invalid winget package ID: %q", pkg.ID())
	}
	return runUpdate(ctx, w.exec, "winget", wingetUpdateArgs(pkg, opts))
}

func wingetUpdateArgs(pkg *packages.UpgradablePackage, opts *options.InstallationOptions) []string {
	args := []string{"upgrade", "--id", pkg.ID(), "--exact"}
	if src := pkg.Source().Name; src != "" {
		args = append(args, "--source", src)
	}
	args = append(args,
		"--accept-source-agreements",
		"--accept-package-agreements",
		"--disable-interactivity",
	)
	if opts == nil {
		return append(args, "--silent")
	}

	if opts.Interactive {
		args = append(args, "--interactive")
	} else {
		args = append(args, "--silent")
	}
	if opts.SkipHashCheck {
		args = append(args, "--ignore-security-hash")
	}
	if opts.Version != "" {
		args = append(args, "--version", opts.Version)
	}
	if opts.Architecture != nil {
		args = append(args, "--architecture", opts.Architecture.String())
	}
	if opts.InstallScope != nil {
		args = append(args, "--scope", strings.ToLower(opts.InstallScope.String()))
	}
	if opts.CustomInstallLocation != "" {
		args = append(args, "--location", opts.CustomInstallLocation)
	}
	return append(args, opts.CustomParameters...)
}

// wingetFooter matches informational lines winget prints inside or after a
// table.
func wingetFooter(line string) bool {
	for _, marker := range []string{
		"upgrades available",
		"upgrade available",
		"No installed package",
		"No applicable update",
		"version numbers that cannot be determined",
		"require explicit targeting",
	} {
		if strings.Contains(line, marker) {
			return true
		}
	}
	return false
}

// parseWingetUpgradeOutput parses `winget upgrade`:
//
//	Name            Id                  Version   Available  Source
//	---------------------------------------------------------------
//	Mozilla Firefox Mozilla.Firefox     128.0     129.0      winget
func parseWingetUpgradeOutput(output string) []updates.RawPackage {
	rows := parseTable(output, "Name", "Id", "Version", "Available", "Source")
	withSource := rows != nil
	if !withSource {
		rows = parseTable(output, "Name", "Id", "Version", "Available")
	}

	var out []updates.RawPackage
	for _, cells := range rows {
		if wingetFooter(strings.Join(cells, " ")) {
			continue
		}
		id := cells[1]
		if !validWingetPkgID.MatchString(id) {
			continue
		}
		raw := updates.RawPackage{
			Name:       cells[0],
			ID:         id,
			Version:    cells[2],
			NewVersion: cells[3],
		}
		if withSource {
			raw.Source = cells[4]
		}
		out = append(out, raw)
	}
	return out
}

// parseWingetListOutput parses `winget list`:
//
//	Name            Id                  Version   Available Source
//	--------------------------------------------------------------
//	Mozilla Firefox Mozilla.Firefox     128.0               winget
func parseWingetListOutput(output string) []updates.RawPackage {
	rows := parseTable(output, "Name", "Id", "Version")

	var out []updates.RawPackage
	for _, cells := range rows {
		if wingetFooter(strings.Join(cells, " ")) {
			continue
		}
		id := cells[1]
		if !validWingetPkgID.MatchString(id) {
			continue
		}
		// The version cell runs to the end of the line and may carry the
		// Available and Source columns.
		fields := strings.Fields(cells[2])
		raw := updates.RawPackage{Name: cells[0], ID: id}
		if len(fields) > 0 {
			raw.Version = fields[0]
		}
		if len(fields) > 1 {
			raw.Source = fields[len(fields)-1]
		}
		out = append(out, raw)
	}
	return out
}
