package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/unigetui/engine/internal/config"
	"github.com/unigetui/engine/internal/i18n"
	"github.com/unigetui/engine/internal/ignore"
	"github.com/unigetui/engine/internal/logging"
	"github.com/unigetui/engine/internal/managers"
	"github.com/unigetui/engine/internal/notify"
	"github.com/unigetui/engine/internal/operations"
	"github.com/unigetui/engine/internal/options"
	"github.com/unigetui/engine/internal/packages"
	"github.com/unigetui/engine/internal/settings"
	"github.com/unigetui/engine/internal/updates"
)

var log = logging.L("main")

// stores are the file-backed pieces every command may touch.
type stores struct {
	cfg      *config.Config
	registry *packages.Registry
	ledger   *ignore.Ledger
	options  *options.Store
	settings *settings.Store

	logCloser io.Closer
}

// openStores loads the config, sets up logging and opens the data-directory
// stores. Config problems are logged and never fatal.
func openStores() (*stores, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	closer, logErr := logging.Setup(cfg.LogFormat, cfg.LogLevel, cfg.LogFile, cfg.LogMaxSizeMB, cfg.LogMaxBackups)
	if logErr != nil {
		log.Warn("log file unavailable, logging to stderr only", logging.KeyPath, cfg.LogFile, logging.KeyError, logErr)
	}
	for _, verr := range cfg.Validate() {
		log.Warn("config", logging.KeyError, verr)
	}

	return &stores{
		cfg:       cfg,
		registry:  packages.NewRegistry(packages.DefaultManagers()...),
		ledger:    ignore.Open(cfg.LedgerPath()),
		options:   options.NewStore(cfg.OptionsDir()),
		settings:  settings.New(cfg.SettingsDir()),
		logCloser: closer,
	}, nil
}

func (s *stores) Close() error {
	return s.logCloser.Close()
}

// manager resolves a manager name given on the command line.
func (s *stores) manager(name string) (*packages.Manager, error) {
	m, ok := s.registry.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("unknown package manager %q (known: %v)", name, s.registry.Names())
	}
	return m, nil
}

// engineOptions carries the test seams and per-command switches.
type engineOptions struct {
	forceAutoUpdate bool
	exec            managers.ExecFunc
	desktopRun      notify.CommandFunc
	onAction        notify.ActionHandler
}

// engine wires the loader to its sources, queue and notification sinks.
type engine struct {
	*stores

	queue  *operations.Queue
	bridge *notify.Bridge
	loader *updates.Loader
}

func openEngine(s *stores, eo engineOptions) (*engine, error) {
	cfg := s.cfg

	var (
		sources   []updates.Source
		installer operations.Installer
		busy      updates.BusyChecker
	)
	if cfg.SnapshotFile != "" {
		snap, err := managers.LoadSnapshot(cfg.SnapshotFile)
		if err != nil {
			return nil, err
		}
		sources, installer = snap.Sources(), snap
	} else {
		backends := make([]managers.Backend, 0, len(cfg.EnabledManagers))
		for _, name := range cfg.EnabledManagers {
			b, err := managers.New(name, eo.exec)
			if err != nil {
				log.Warn("skipping manager", logging.KeyManager, name, logging.KeyError, err)
				continue
			}
			backends = append(backends, b)
		}
		d := managers.NewDispatcher(backends...)
		sources, installer, busy = d.Sources(), d, managers.NewProcessBusy(nil)
	}

	e := &engine{stores: s}
	e.queue = operations.New(installer, operations.Config{
		MaxWorkers: cfg.MaxConcurrentOperations,
		QueueSize:  cfg.OperationQueueSize,
		Options:    s.options,
		OnResult: func(r operations.Result) {
			if r.Err != nil {
				log.Error("operation failed", logging.KeyPackage, r.Package.UniqueKey(), logging.KeyError, r.Err)
			}
		},
	})

	var sinks notify.Multi
	if cfg.DesktopNotifications {
		sinks = append(sinks, notify.NewDesktop(cfg.AppName, eo.desktopRun))
	}
	if cfg.GUIBridgeURL != "" {
		e.bridge = notify.NewBridge(cfg.GUIBridgeURL, eo.onAction)
		sinks = append(sinks, e.bridge)
	}
	var sink notify.Sink = notify.Discard{}
	if len(sinks) > 0 {
		sink = sinks
	}

	printer := i18n.NewPrinter(cfg.Locale)
	e.loader = updates.NewLoader(updates.LoaderConfig{
		Registry:        s.registry,
		Ledger:          s.ledger,
		Sources:         sources,
		Notifier:        updates.NewNotifier(sink, s.settings, printer, cfg.AppName),
		Queue:           e.queue,
		Busy:            busy,
		Settings:        s.settings,
		ForceAutoUpdate: eo.forceAutoUpdate,
	})
	return e, nil
}

// connectBridge makes one connection attempt so a single run can push its
// notification. Failure only loses the front-end notification.
func (e *engine) connectBridge(ctx context.Context) {
	if e.bridge == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := e.bridge.Connect(ctx); err != nil {
		log.Warn("GUI bridge unavailable", logging.KeyError, err)
	}
}

// Close waits up to wait for queued operations, then releases everything.
func (e *engine) Close(wait time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), wait)
	defer cancel()
	e.queue.Shutdown(ctx)

	if e.bridge != nil {
		if err := e.bridge.Close(); err != nil {
			log.Debug("closing GUI bridge", logging.KeyError, err)
		}
	}
	return e.stores.Close()
}
