package updates

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/unigetui/engine/internal/ignore"
	"github.com/unigetui/engine/internal/logging"
	"github.com/unigetui/engine/internal/packages"
	"github.com/unigetui/engine/internal/pause"
)

// ErrPackageNotFound is returned when an id or manager matches nothing in
// the current update list.
var ErrPackageNotFound = errors.New("package not found in update list")

// Queue schedules update operations. *operations.Queue satisfies it.
type Queue interface {
	Enqueue(pkg *packages.UpgradablePackage) error
	Busy(pkg *packages.Package) bool
}

// BusyChecker reports whether a manager is already running outside the
// engine, e.g. an update started from a terminal.
type BusyChecker interface {
	ManagerBusy(ctx context.Context, manager string) bool
}

// LoaderConfig wires a Loader. Registry, Ledger and Sources are required.
type LoaderConfig struct {
	Registry *packages.Registry
	Ledger   *ignore.Ledger
	Sources  []Source
	Notifier *Notifier
	Queue    Queue
	Busy     BusyChecker
	Settings Settings
	// ForceAutoUpdate updates everything found on this run regardless of
	// the saved setting.
	ForceAutoUpdate bool
	Now             func() time.Time
}

// Loader rebuilds the update list from every source on each Reload.
type Loader struct {
	cfg LoaderConfig

	mu        sync.Mutex
	upgrades  []*packages.UpgradablePackage
	ignored   []*packages.UpgradablePackage
	installed []*packages.Package
}

func NewLoader(cfg LoaderConfig) *Loader {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Settings == nil {
		cfg.Settings = StaticSettings{}
	}
	return &Loader{cfg: cfg}
}

// Reload queries every source, filters the result and, when anything is
// left that is not already queued, runs auto-update and notification.
// Source failures are joined into the returned error; packages from the
// sources that succeeded are still returned.
func (l *Loader) Reload(ctx context.Context) ([]*packages.UpgradablePackage, error) {
	var (
		upgrades  []*packages.UpgradablePackage
		ignored   []*packages.UpgradablePackage
		installed []*packages.Package
		errs      []error
	)

	now := l.cfg.Now()
	for _, src := range l.cfg.Sources {
		mgr, ok := l.cfg.Registry.Lookup(src.Name())
		if !ok {
			errs = append(errs, fmt.Errorf("%s: manager not registered", src.Name()))
			continue
		}

		inst, err := l.loadInstalled(ctx, src, mgr)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s installed scan failed: %w", mgr.Name, err))
		}
		installed = append(installed, inst...)

		found, skipped, err := l.loadUpgradable(ctx, src, mgr, inst, now)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s update scan failed: %w", mgr.Name, err))
			continue
		}
		upgrades = append(upgrades, found...)
		ignored = append(ignored, skipped...)
	}

	sort.SliceStable(upgrades, func(i, j int) bool {
		return strings.ToLower(upgrades[i].Name()) < strings.ToLower(upgrades[j].Name())
	})

	l.mu.Lock()
	l.upgrades = upgrades
	l.ignored = ignored
	l.installed = installed
	l.mu.Unlock()

	log.Info("update list reloaded", logging.KeyCount, len(upgrades), "ignored", len(ignored))
	l.afterReload(ctx, upgrades)

	if len(upgrades) == 0 && len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return upgrades, errors.Join(errs...)
}

func (l *Loader) loadInstalled(ctx context.Context, src Source, mgr *packages.Manager) ([]*packages.Package, error) {
	raws, err := src.Installed(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*packages.Package, 0, len(raws))
	for _, raw := range raws {
		p, err := packages.New(raw.Name, raw.ID, raw.Version, packages.Source{Name: raw.Source, URL: raw.SourceURL}, mgr, scopeOf(raw))
		if err != nil {
			log.Debug("skipping installed package", logging.KeyManager, mgr.Name, logging.KeyError, err)
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (l *Loader) loadUpgradable(ctx context.Context, src Source, mgr *packages.Manager, installed []*packages.Package, now time.Time) (found, skipped []*packages.UpgradablePackage, err error) {
	raws, err := src.Upgradable(ctx)
	if err != nil {
		return nil, nil, err
	}

	for _, raw := range raws {
		u, err := packages.NewUpgradable(raw.Name, raw.ID, raw.Version, raw.NewVersion,
			packages.Source{Name: raw.Source, URL: raw.SourceURL}, mgr, scopeOf(raw))
		if err != nil {
			log.Debug("skipping malformed update", logging.KeyManager, mgr.Name, logging.KeyError, err)
			continue
		}

		if u.NewVersion() == "" || u.NewVersion() == u.Version() {
			log.Debug("skipping update without a new version", logging.KeyPackage, u.UniqueKey())
			continue
		}
		if u.NewVersionIsInstalled(installed) {
			log.Debug("skipping update already installed side by side", logging.KeyPackage, u.UniqueKey())
			continue
		}
		if l.suppressed(u, now) {
			skipped = append(skipped, u)
			continue
		}
		found = append(found, u)
	}
	return found, skipped, nil
}

// suppressed checks the ledger. Expired snoozes are removed on the way.
func (l *Loader) suppressed(u *packages.UpgradablePackage, now time.Time) bool {
	key := u.IgnoreKey()
	value := l.cfg.Ledger.IgnoredVersion(key)
	if value == "" {
		return false
	}

	switch ignore.Snooze(value, now) {
	case ignore.SnoozeActive:
		return true
	case ignore.SnoozeExpired:
		l.purgeSnooze(key, value)
		return false
	}
	return value == ignore.Wildcard || value == u.NewVersion()
}

// purgeSnooze removes an expired snooze unless the entry changed since it
// was read.
func (l *Loader) purgeSnooze(key, value string) {
	removed, err := l.cfg.Ledger.RemoveIf(key, value)
	switch {
	case err != nil:
		log.Warn("failed to purge expired snooze", logging.KeyPackage, key, logging.KeyError, err)
	case removed:
		log.Info("snooze expired", logging.KeyPackage, key, "until", value)
	default:
		log.Debug("ledger entry changed, expired snooze kept out", logging.KeyPackage, key)
	}
}

func (l *Loader) afterReload(ctx context.Context, upgrades []*packages.UpgradablePackage) {
	batch := make([]*packages.UpgradablePackage, 0, len(upgrades))
	for _, u := range upgrades {
		if l.cfg.Queue != nil && l.cfg.Queue.Busy(u.Package) {
			continue
		}
		batch = append(batch, u)
	}
	if len(batch) == 0 {
		return
	}

	autoUpdate := l.cfg.ForceAutoUpdate || l.cfg.Settings.AutoUpdateEnabled()
	if autoUpdate {
		l.enqueue(ctx, batch)
	}
	if l.cfg.Notifier != nil {
		l.cfg.Notifier.Notify(batch, autoUpdate)
	}
}

// Upgrades returns the update list from the last Reload.
func (l *Loader) Upgrades() []*packages.UpgradablePackage {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]*packages.UpgradablePackage, len(l.upgrades))
	copy(out, l.upgrades)
	return out
}

// Ignored returns the updates the last Reload dropped because of the ledger.
func (l *Loader) Ignored() []*packages.UpgradablePackage {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]*packages.UpgradablePackage, len(l.ignored))
	copy(out, l.ignored)
	return out
}

// Installed returns the installed packages seen by the last Reload.
func (l *Loader) Installed() []*packages.Package {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]*packages.Package, len(l.installed))
	copy(out, l.installed)
	return out
}

// UpdateAll queues every listed update that is not already queued. It
// returns the number of operations queued.
func (l *Loader) UpdateAll(ctx context.Context) (int, error) {
	return l.enqueue(ctx, l.Upgrades())
}

// UpdateAllForManager queues the listed updates of one manager, matched by
// name or display name.
func (l *Loader) UpdateAllForManager(ctx context.Context, manager string) (int, error) {
	var batch []*packages.UpgradablePackage
	for _, u := range l.Upgrades() {
		m := u.Manager()
		if strings.EqualFold(m.Name, manager) || strings.EqualFold(m.DisplayName, manager) {
			batch = append(batch, u)
		}
	}
	if len(batch) == 0 {
		return 0, fmt.Errorf("manager %s: %w", manager, ErrPackageNotFound)
	}
	return l.enqueue(ctx, batch)
}

// UpdatePackageForID queues the first listed update with the given id.
func (l *Loader) UpdatePackageForID(ctx context.Context, id string) error {
	for _, u := range l.Upgrades() {
		if u.ID() == id {
			_, err := l.enqueue(ctx, []*packages.UpgradablePackage{u})
			return err
		}
	}
	log.Warn("no package with id found", logging.KeyPackage, id)
	return fmt.Errorf("%s: %w", id, ErrPackageNotFound)
}

func (l *Loader) enqueue(ctx context.Context, batch []*packages.UpgradablePackage) (int, error) {
	if l.cfg.Queue == nil {
		return 0, errors.New("no operation queue configured")
	}

	var (
		queued int
		errs   []error
	)
	busyManagers := map[string]bool{}
	for _, u := range batch {
		if l.cfg.Queue.Busy(u.Package) {
			continue
		}
		mgr := u.Manager().Name
		if l.cfg.Busy != nil {
			busy, seen := busyManagers[mgr]
			if !seen {
				busy = l.cfg.Busy.ManagerBusy(ctx, mgr)
				busyManagers[mgr] = busy
			}
			if busy {
				log.Warn("manager already running, not queueing update", logging.KeyManager, mgr, logging.KeyPackage, u.UniqueKey())
				continue
			}
		}
		if err := l.cfg.Queue.Enqueue(u); err != nil {
			errs = append(errs, err)
			continue
		}
		queued++
	}
	return queued, errors.Join(errs...)
}

// Ignore suppresses every future update of the package.
func (l *Loader) Ignore(pkg *packages.Package) error {
	return l.suppress(pkg, ignore.Wildcard)
}

// SkipVersion suppresses only the currently offered new version.
func (l *Loader) SkipVersion(u *packages.UpgradablePackage) error {
	return l.suppress(u.Package, u.NewVersion())
}

// Pause snoozes updates of the package for d.
func (l *Loader) Pause(pkg *packages.Package, d pause.Duration) error {
	return l.suppress(pkg, d.IgnoreValue(l.cfg.Now()))
}

// Unignore removes any suppression of the package.
func (l *Loader) Unignore(pkg *packages.Package) error {
	if err := l.cfg.Ledger.Remove(pkg.IgnoreKey()); err != nil {
		return fmt.Errorf("unignore %s: %w", pkg.IgnoreKey(), err)
	}
	return nil
}

func (l *Loader) suppress(pkg *packages.Package, value string) error {
	key := pkg.IgnoreKey()
	if err := l.cfg.Ledger.Add(key, value); err != nil {
		return fmt.Errorf("ignore %s: %w", key, err)
	}
	l.dropFromList(pkg)
	log.Info("update suppressed", logging.KeyPackage, key, "value", value)
	return nil
}

// dropFromList moves pkg's entries from the update list to the ignored
// list without waiting for the next reload.
func (l *Loader) dropFromList(pkg *packages.Package) {
	l.mu.Lock()
	defer l.mu.Unlock()
	kept := make([]*packages.UpgradablePackage, 0, len(l.upgrades))
	for _, u := range l.upgrades {
		if u.Manager() == pkg.Manager() && u.ID() == pkg.ID() {
			l.ignored = append(l.ignored, u)
			continue
		}
		kept = append(kept, u)
	}
	l.upgrades = kept
}
