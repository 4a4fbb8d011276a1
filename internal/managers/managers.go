// Package managers adapts package-manager command-line tools to the update
// engine: it parses their listings into raw packages and runs their update
// commands. Commands go through an injected ExecFunc so tests never start a
// real process.
package managers

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"sort"
	"strings"
	"time"

	"github.com/unigetui/engine/internal/logging"
	"github.com/unigetui/engine/internal/options"
	"github.com/unigetui/engine/internal/packages"
	"github.com/unigetui/engine/internal/updates"
)

var log = logging.L("managers")

const (
	scanTimeout   = 120 * time.Second
	updateTimeout = 300 * time.Second
)

// ExecFunc runs a command and returns its output and exit code. err is set
// only when the command could not be run at all.
type ExecFunc func(ctx context.Context, name string, args []string) (stdout, stderr string, exitCode int, err error)

// SystemExec runs commands with os/exec.
func SystemExec(ctx context.Context, name string, args []string) (string, string, int, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	var exitErr *exec.ExitError
	switch {
	case err == nil:
		return stdout.String(), stderr.String(), 0, nil
	case errors.As(err, &exitErr):
		return stdout.String(), stderr.String(), exitErr.ExitCode(), nil
	default:
		return stdout.String(), stderr.String(), -1, err
	}
}

// Backend is a manager that can list packages and update them.
type Backend interface {
	updates.Source
	Update(ctx context.Context, pkg *packages.UpgradablePackage, opts *options.InstallationOptions) error
}

// New returns the command-line backend for the named manager.
func New(name string, run ExecFunc) (Backend, error) {
	if run == nil {
		run = SystemExec
	}
	switch strings.ToLower(name) {
	case "winget":
		return NewWinget(run), nil
	case "chocolatey":
		return NewChocolatey(run), nil
	case "scoop":
		return NewScoop(run), nil
	}
	return nil, fmt.Errorf("unknown package manager: %s", name)
}

// runScan runs a listing command with the scan timeout. A non-zero exit with
// no output is an error; some tools exit non-zero while still listing.
func runScan(ctx context.Context, run ExecFunc, name string, args []string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, scanTimeout)
	defer cancel()

	stdout, stderr, exitCode, err := run(ctx, name, args)
	if err != nil {
		return "", fmt.Errorf("%s %s failed: %w", name, args[0], err)
	}
	if exitCode != 0 && strings.TrimSpace(stdout) == "" {
		return "", fmt.Errorf("%s %s failed (exit %d): %s", name, args[0], exitCode, strings.TrimSpace(stderr))
	}
	return stdout, nil
}

func runUpdate(ctx context.Context, run ExecFunc, name string, args []string) error {
	ctx, cancel := context.WithTimeout(ctx, updateTimeout)
	defer cancel()

	stdout, stderr, exitCode, err := run(ctx, name, args)
	if err != nil {
		return fmt.Errorf("%s update failed: %w", name, err)
	}
	if exitCode != 0 {
		return fmt.Errorf("%s update failed (exit %d): %s", name, exitCode, strings.TrimSpace(stdout+"\n"+stderr))
	}
	return nil
}

// Dispatcher routes each update to the backend of the package's manager.
type Dispatcher struct {
	backends map[string]Backend
}

func NewDispatcher(backends ...Backend) *Dispatcher {
	d := &Dispatcher{backends: make(map[string]Backend, len(backends))}
	for _, b := range backends {
		d.backends[strings.ToLower(b.Name())] = b
	}
	return d
}

// Sources returns the registered backends sorted by name.
func (d *Dispatcher) Sources() []updates.Source {
	out := make([]updates.Source, 0, len(d.backends))
	for _, b := range d.backends {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

func (d *Dispatcher) Update(ctx context.Context, pkg *packages.UpgradablePackage, opts *options.InstallationOptions) error {
	b, ok := d.backends[strings.ToLower(pkg.Manager().Name)]
	if !ok {
		return fmt.Errorf("no backend for manager %s", pkg.Manager().Name)
	}
	log.Info("updating package", logging.KeyManager, b.Name(), logging.KeyPackage, pkg.ID(), "from", pkg.Version(), "to", pkg.NewVersion())
	return b.Update(ctx, pkg, opts)
}
