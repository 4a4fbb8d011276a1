package managers

import (
	"bufio"
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/unigetui/engine/internal/options"
	"github.com/unigetui/engine/internal/packages"
	"github.com/unigetui/engine/internal/updates"
)

var validChocoPkgID = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._\-]{0,255}$`)

const chocoSource = "chocolatey"

// Chocolatey drives choco using its machine-readable (-r) output.
type Chocolatey struct {
	exec ExecFunc
}

func NewChocolatey(run ExecFunc) *Chocolatey {
	return &Chocolatey{exec: run}
}

func (c *Chocolatey) Name() string { return "Chocolatey" }

// Upgradable parses `choco outdated -r`: id|current|available|pinned.
// Pinned packages are left out.
func (c *Chocolatey) Upgradable(ctx context.Context) ([]updates.RawPackage, error) {
	stdout, err := runScan(ctx, c.exec, "choco", []string{"outdated", "-r", "--ignore-unfound"})
	if err != nil {
		return nil, err
	}

	var out []updates.RawPackage
	for _, parts := range pipeRows(stdout, 3) {
		if len(parts) > 3 && strings.EqualFold(parts[3], "true") {
			continue
		}
		out = append(out, updates.RawPackage{
			Name:       parts[0],
			ID:         parts[0],
			Version:    parts[1],
			NewVersion: parts[2],
			Source:     chocoSource,
			Scope:      "machine",
		})
	}
	return out, nil
}

// Installed parses `choco list -r`: id|version. Chocolatey v1 needs
// --localonly, which v2 rejects, so it is only tried as a fallback.
func (c *Chocolatey) Installed(ctx context.Context) ([]updates.RawPackage, error) {
	stdout, err := runScan(ctx, c.exec, "choco", []string{"list", "-r"})
	if err != nil {
		stdout, err = runScan(ctx, c.exec, "choco", []string{"list", "--localonly", "-r"})
		if err != nil {
			return nil, err
		}
	}

	var out []updates.RawPackage
	for _, parts := range pipeRows(stdout, 2) {
		out = append(out, updates.RawPackage{
			Name:    parts[0],
			ID:      parts[0],
			Version: parts[1],
			Source:  chocoSource,
			Scope:   "machine",
		})
	}
	return out, nil
}

func (c *Chocolatey) Update(ctx context.Context, pkg *packages.UpgradablePackage, opts *options.InstallationOptions) error {
	if !validChocoPkgID.MatchString(pkg.ID()) {
		return fmt.Errorf("invalid chocolatey package ID: %q", pkg.ID())
	}
	return runUpdate(ctx, c.exec, "choco", chocoUpdateArgs(pkg, opts))
}

func chocoUpdateArgs(pkg *packages.UpgradablePackage, opts *options.InstallationOptions) []string {
	args := []string{"upgrade", pkg.ID(), "-y", "--no-progress"}
	if opts == nil {
		return args
	}
	if opts.Interactive {
		args = append(args, "--notsilent")
	}
	if opts.SkipHashCheck {
		args = append(args, "--ignore-checksums")
	}
	if opts.Version != "" {
		args = append(args, "--version="+opts.Version, "--allow-downgrade")
	}
	if opts.Architecture != nil && *opts.Architecture == options.ArchX86 {
		args = append(args, "--forcex86")
	}
	if opts.PreRelease {
		args = append(args, "--pre")
	}
	return append(args, opts.CustomParameters...)
}

// pipeRows splits non-empty lines on '|' and keeps rows with at least min
// fields and a valid id.
func pipeRows(output string, min int) [][]string {
	var rows [][]string
	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		parts := strings.Split(line, "|")
		if len(parts) < min || !validChocoPkgID.MatchString(parts[0]) {
			continue
		}
		rows = append(rows, parts)
	}
	return rows
}
