package operations

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/unigetui/engine/internal/options"
	"github.com/unigetui/engine/internal/packages"
)

var winget = &packages.Manager{Name: "Winget", DisplayName: "WinGet"}

func upgradable(t *testing.T, id string) *packages.UpgradablePackage {
	t.Helper()
	u, err := packages.NewUpgradable(id, id, "1.0", "2.0", packages.Source{Name: "winget"}, winget, packages.ScopeUser)
	if err != nil {
		t.Fatal(err)
	}
	return u
}

type fakeInstaller struct {
	mu      sync.Mutex
	updated []string
	opts    []*options.InstallationOptions
	block   chan struct{}
	started chan string
	err     error
	panics  bool
}

func (f *fakeInstaller) Update(ctx context.Context, pkg *packages.UpgradablePackage, opts *options.InstallationOptions) error {
	if f.started != nil {
		f.started <- pkg.ID()
	}
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if f.panics {
		panic("installer exploded")
	}
	f.mu.Lock()
	f.updated = append(f.updated, pkg.ID())
	f.opts = append(f.opts, opts)
	f.mu.Unlock()
	return f.err
}

type fixedOptions struct{ opts *options.InstallationOptions }

func (f fixedOptions) Load(*packages.Package, bool) *options.InstallationOptions { return f.opts }

func shutdown(t *testing.T, q *Queue) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	q.Shutdown(ctx)
}

func TestEnqueueRunsUpdates(t *testing.T) {
	inst := &fakeInstaller{}
	var mu sync.Mutex
	var results []Result
	q := New(inst, Config{MaxWorkers: 2, QueueSize: 10, OnResult: func(r Result) {
		mu.Lock()
		results = append(results, r)
		mu.Unlock()
	}})

	for _, id := range []string{"Git.Git", "Mozilla.Firefox", "7zip.7zip"} {
		if err := q.Enqueue(upgradable(t, id)); err != nil {
			t.Fatalf("Enqueue %s: %v", id, err)
		}
	}
	shutdown(t, q)

	if len(inst.updated) != 3 {
		t.Fatalf("updated %v", inst.updated)
	}
	if len(results) != 3 {
		t.Fatalf("got %d results", len(results))
	}
	if q.Pending() != 0 {
		t.Fatalf("pending = %d after drain", q.Pending())
	}
}

func TestTagsFollowLifecycle(t *testing.T) {
	inst := &fakeInstaller{block: make(chan struct{}), started: make(chan string, 2)}
	q := New(inst, Config{MaxWorkers: 1, QueueSize: 4})

	first, second := upgradable(t, "Git.Git"), upgradable(t, "Mozilla.Firefox")
	q.Enqueue(first)
	<-inst.started
	q.Enqueue(second)

	if got := q.Tag(first.UniqueKey()); got != packages.TagBeingProcessed {
		t.Errorf("running package tag = %v", got)
	}
	if got := q.Tag(second.UniqueKey()); got != packages.TagOnQueue {
		t.Errorf("queued package tag = %v", got)
	}
	if !q.Busy(second.Package) {
		t.Error("queued package should be busy")
	}

	close(inst.block)
	shutdown(t, q)

	if q.Busy(first.Package) || q.Busy(second.Package) {
		t.Fatal("finished packages still busy")
	}
}

func TestDuplicateEnqueueRejected(t *testing.T) {
	inst := &fakeInstaller{block: make(chan struct{})}
	q := New(inst, Config{MaxWorkers: 1, QueueSize: 4})

	pkg := upgradable(t, "Git.Git")
	if err := q.Enqueue(pkg); err != nil {
		t.Fatal(err)
	}
	if err := q.Enqueue(pkg); !errors.Is(err, ErrAlreadyQueued) {
		t.Fatalf("expected ErrAlreadyQueued, got %v", err)
	}

	close(inst.block)
	shutdown(t, q)
}

func TestQueueFull(t *testing.T) {
	inst := &fakeInstaller{block: make(chan struct{}), started: make(chan string, 2)}
	q := New(inst, Config{MaxWorkers: 1, QueueSize: 1})

	q.Enqueue(upgradable(t, "A.A"))
	<-inst.started
	if err := q.Enqueue(upgradable(t, "B.B")); err != nil {
		t.Fatalf("second enqueue: %v", err)
	}

	rejected := upgradable(t, "C.C")
	if err := q.Enqueue(rejected); !errors.Is(err, ErrQueueFull) {
		t.Fatalf("expected ErrQueueFull, got %v", err)
	}
	if q.Busy(rejected.Package) {
		t.Fatal("rejected package must not stay tagged")
	}

	close(inst.block)
	shutdown(t, q)
}

func TestEnqueueAfterShutdown(t *testing.T) {
	q := New(&fakeInstaller{}, Config{})
	shutdown(t, q)
	if err := q.Enqueue(upgradable(t, "Git.Git")); !errors.Is(err, ErrStopped) {
		t.Fatalf("expected ErrStopped, got %v", err)
	}
}

func TestOptionsAreLoaded(t *testing.T) {
	saved := options.Default()
	saved.RunAsAdmin = true
	inst := &fakeInstaller{}
	q := New(inst, Config{Options: fixedOptions{saved}})

	q.Enqueue(upgradable(t, "Git.Git"))
	shutdown(t, q)

	if len(inst.opts) != 1 || !inst.opts[0].RunAsAdmin {
		t.Fatalf("installer got %+v", inst.opts)
	}
}

func TestFailuresAndPanicsAreReported(t *testing.T) {
	boom := errors.New("exit 1")
	var mu sync.Mutex
	var errs []error
	onResult := func(r Result) {
		mu.Lock()
		errs = append(errs, r.Err)
		mu.Unlock()
	}

	q := New(&fakeInstaller{err: boom}, Config{OnResult: onResult})
	q.Enqueue(upgradable(t, "Git.Git"))
	shutdown(t, q)

	q = New(&fakeInstaller{panics: true}, Config{OnResult: onResult})
	q.Enqueue(upgradable(t, "Git.Git"))
	shutdown(t, q)

	if len(errs) != 2 {
		t.Fatalf("got %d results", len(errs))
	}
	if !errors.Is(errs[0], boom) {
		t.Errorf("first error = %v", errs[0])
	}
	if errs[1] == nil {
		t.Error("panic was not reported as an error")
	}
}

func TestDrainTimeoutCancelsRunningUpdates(t *testing.T) {
	inst := &fakeInstaller{block: make(chan struct{}), started: make(chan string, 1)}
	result := make(chan error, 1)
	q := New(inst, Config{OnResult: func(r Result) { result <- r.Err }})

	q.Enqueue(upgradable(t, "Git.Git"))
	<-inst.started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	q.Shutdown(ctx)

	select {
	case err := <-result:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected cancellation, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("running update was not cancelled")
	}
}

func TestEnqueueDuringShutdownNeverStrandsPackages(t *testing.T) {
	q := New(&fakeInstaller{}, Config{MaxWorkers: 2, QueueSize: 8})

	var wg sync.WaitGroup
	start := make(chan struct{})
	pkgs := make([]*packages.UpgradablePackage, 0, 200)
	for i := 0; i < 200; i++ {
		pkgs = append(pkgs, upgradable(t, fmt.Sprintf("Pkg.%d", i)))
	}
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			<-start
			for i := w; i < len(pkgs); i += 4 {
				err := q.Enqueue(pkgs[i])
				if err != nil && !errors.Is(err, ErrStopped) && !errors.Is(err, ErrQueueFull) {
					t.Errorf("Enqueue: %v", err)
				}
			}
		}(w)
	}

	close(start)
	shutdown(t, q)
	wg.Wait()

	if n := q.Pending(); n != 0 {
		t.Fatalf("%d packages left queued after shutdown", n)
	}
	for _, p := range pkgs {
		if q.Busy(p.Package) {
			t.Fatalf("%s still tagged %s", p.ID(), q.Tag(p.UniqueKey()))
		}
	}
}
