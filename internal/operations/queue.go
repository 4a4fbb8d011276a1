// Package operations runs package updates on a bounded set of workers and
// tracks which packages are queued or in progress.
package operations

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/unigetui/engine/internal/logging"
	"github.com/unigetui/engine/internal/options"
	"github.com/unigetui/engine/internal/packages"
)

var log = logging.L("operations")

var (
	ErrStopped       = errors.New("operation queue stopped")
	ErrQueueFull     = errors.New("operation queue full")
	ErrAlreadyQueued = errors.New("package already queued")
)

// Installer performs the update of one package with the given options.
type Installer interface {
	Update(ctx context.Context, pkg *packages.UpgradablePackage, opts *options.InstallationOptions) error
}

// OptionsSource supplies the saved installation options for a package.
// *options.Store satisfies it.
type OptionsSource interface {
	Load(pkg *packages.Package, reset bool) *options.InstallationOptions
}

// Result reports a finished operation.
type Result struct {
	Package *packages.UpgradablePackage
	Err     error
}

type job struct {
	key string
	pkg *packages.UpgradablePackage
}

// Queue is a bounded worker pool for update operations.
type Queue struct {
	installer Installer
	opts      OptionsSource
	onResult  func(Result)

	maxWorkers int
	jobs       chan job
	wg         sync.WaitGroup
	stopOnce   sync.Once
	closeOnce  sync.Once
	stopChan   chan struct{}

	ctx    context.Context
	cancel context.CancelFunc

	// sendMu covers accepting, the wg.Add and the send so that Drain
	// never closes jobs under a sender.
	sendMu    sync.Mutex
	accepting bool

	mu   sync.Mutex
	tags map[string]packages.Tag
}

// Config tunes a Queue.
type Config struct {
	MaxWorkers int
	QueueSize  int
	// Options, when set, provides the saved options for each package;
	// otherwise defaults are used.
	Options OptionsSource
	// OnResult, when set, is called from the worker after each operation.
	OnResult func(Result)
}

// New starts cfg.MaxWorkers workers.
func New(installer Installer, cfg Config) *Queue {
	if cfg.MaxWorkers < 1 {
		cfg.MaxWorkers = 1
	}
	if cfg.QueueSize < 1 {
		cfg.QueueSize = 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	q := &Queue{
		installer:  installer,
		opts:       cfg.Options,
		onResult:   cfg.OnResult,
		maxWorkers: cfg.MaxWorkers,
		jobs:       make(chan job, cfg.QueueSize),
		stopChan:   make(chan struct{}),
		ctx:        ctx,
		cancel:     cancel,
		tags:       map[string]packages.Tag{},
	}
	q.accepting = true

	for i := 0; i < cfg.MaxWorkers; i++ {
		go q.worker()
	}

	log.Debug("operation queue started", "workers", cfg.MaxWorkers, "queueSize", cfg.QueueSize)
	return q
}

// Enqueue schedules an update of pkg. A package that is already queued or
// running is rejected with ErrAlreadyQueued.
func (q *Queue) Enqueue(pkg *packages.UpgradablePackage) error {
	if pkg == nil {
		panic("operations: nil package")
	}
	q.sendMu.Lock()
	defer q.sendMu.Unlock()
	if !q.accepting {
		return ErrStopped
	}

	key := pkg.UniqueKey()
	q.mu.Lock()
	if q.tags[key].Busy() {
		q.mu.Unlock()
		return fmt.Errorf("%s: %w", key, ErrAlreadyQueued)
	}
	q.tags[key] = packages.TagOnQueue
	q.mu.Unlock()

	q.wg.Add(1)
	select {
	case q.jobs <- job{key: key, pkg: pkg}:
		log.Info("update queued", logging.KeyPackage, key)
		return nil
	default:
		q.wg.Done()
		q.setTag(key, packages.TagDefault)
		log.Warn("operation queue full, update rejected", logging.KeyPackage, key)
		return ErrQueueFull
	}
}

// Tag returns the queue state of the package with the given unique key.
func (q *Queue) Tag(uniqueKey string) packages.Tag {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.tags[uniqueKey]
}

// Busy reports whether pkg is queued or being processed.
func (q *Queue) Busy(pkg *packages.Package) bool {
	return q.Tag(pkg.UniqueKey()).Busy()
}

// Pending returns the number of operations queued or running.
func (q *Queue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := 0
	for _, t := range q.tags {
		if t.Busy() {
			n++
		}
	}
	return n
}

// StopAccepting rejects further Enqueue calls.
func (q *Queue) StopAccepting() {
	q.sendMu.Lock()
	q.accepting = false
	q.sendMu.Unlock()
}

// Drain waits for queued and running operations, up to ctx's deadline. If
// the deadline passes, running operations see their context cancelled.
// Drain also stops accepting; workers exit once it returns.
func (q *Queue) Drain(ctx context.Context) {
	q.StopAccepting()
	q.stopOnce.Do(func() {
		close(q.stopChan)
	})

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Debug("operation queue drained")
	case <-ctx.Done():
		log.Warn("operation queue drain timed out")
		q.cancel()
	}

	q.sendMu.Lock()
	q.closeOnce.Do(func() {
		close(q.jobs)
	})
	q.sendMu.Unlock()
}

// Shutdown stops accepting operations and drains the queue.
func (q *Queue) Shutdown(ctx context.Context) {
	q.StopAccepting()
	q.Drain(ctx)
}

func (q *Queue) worker() {
	for {
		select {
		case j, ok := <-q.jobs:
			if !ok {
				return
			}
			q.run(j)
		case <-q.stopChan:
			for {
				select {
				case j, ok := <-q.jobs:
					if !ok {
						return
					}
					q.run(j)
				default:
					return
				}
			}
		}
	}
}

func (q *Queue) run(j job) {
	defer q.wg.Done()
	defer q.setTag(j.key, packages.TagDefault)

	q.setTag(j.key, packages.TagBeingProcessed)

	err := q.update(j)
	if err != nil {
		log.Error("update failed", logging.KeyPackage, j.key, logging.KeyError, err)
	} else {
		log.Info("update finished", logging.KeyPackage, j.key)
	}
	if q.onResult != nil {
		q.onResult(Result{Package: j.pkg, Err: err})
	}
}

func (q *Queue) update(j job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("update panicked", logging.KeyPackage, j.key, "panic", r, "stack", string(debug.Stack()))
			err = fmt.Errorf("update of %s panicked: %v", j.key, r)
		}
	}()

	opts := options.Default()
	if q.opts != nil {
		opts = q.opts.Load(j.pkg.Package, false)
	}
	return q.installer.Update(q.ctx, j.pkg, opts)
}

func (q *Queue) setTag(key string, tag packages.Tag) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if tag == packages.TagDefault {
		delete(q.tags, key)
		return
	}
	q.tags[key] = tag
}
