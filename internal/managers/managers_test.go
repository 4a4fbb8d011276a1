package managers

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/unigetui/engine/internal/options"
	"github.com/unigetui/engine/internal/packages"
)

// mockExec returns an ExecFunc that records the last call and returns the
// given output.
type mockExec struct {
	stdout   string
	stderr   string
	exitCode int
	err      error

	byArgs map[string]string
	calls  [][]string
}

func (m *mockExec) run(_ context.Context, name string, args []string) (string, string, int, error) {
	m.calls = append(m.calls, append([]string{name}, args...))
	if out, ok := m.byArgs[strings.Join(args, " ")]; ok {
		return out, "", 0, nil
	}
	return m.stdout, m.stderr, m.exitCode, m.err
}

func (m *mockExec) last() []string {
	if len(m.calls) == 0 {
		return nil
	}
	return m.calls[len(m.calls)-1]
}

var registry = packages.NewRegistry(packages.DefaultManagers()...)

func upgradable(t *testing.T, manager, id, installed, available, source string, scope packages.Scope) *packages.UpgradablePackage {
	t.Helper()
	mgr, ok := registry.Lookup(manager)
	if !ok {
		t.Fatalf("manager %s not registered", manager)
	}
	u, err := packages.NewUpgradable(id, id, installed, available, packages.Source{Name: source}, mgr, scope)
	if err != nil {
		t.Fatal(err)
	}
	return u
}

func contains(args []string, want ...string) bool {
	joined := " " + strings.Join(args, " ") + " "
	return strings.Contains(joined, " "+strings.Join(want, " ")+" ")
}

func TestNewKnowsManagers(t *testing.T) {
	for _, name := range []string{"Winget", "chocolatey", "SCOOP"} {
		b, err := New(name, (&mockExec{}).run)
		if err != nil {
			t.Fatalf("New(%s): %v", name, err)
		}
		if !strings.EqualFold(b.Name(), name) {
			t.Errorf("New(%s).Name() = %s", name, b.Name())
		}
	}
	if _, err := New("brew", nil); err == nil {
		t.Fatal("expected error for unknown manager")
	}
}

func TestScanErrors(t *testing.T) {
	w := NewWinget((&mockExec{err: errors.New("not installed")}).run)
	if _, err := w.Upgradable(context.Background()); err == nil {
		t.Fatal("expected exec error")
	}

	w = NewWinget((&mockExec{stderr: "boom", exitCode: 2}).run)
	if _, err := w.Upgradable(context.Background()); err == nil || !strings.Contains(err.Error(), "exit 2") {
		t.Fatalf("expected exit code error, got %v", err)
	}
}

func TestDispatcherRoutesByManager(t *testing.T) {
	wingetExec, chocoExec := &mockExec{}, &mockExec{}
	d := NewDispatcher(NewWinget(wingetExec.run), NewChocolatey(chocoExec.run))

	if err := d.Update(context.Background(), upgradable(t, "Chocolatey", "git", "2.45.0", "2.46.0", "chocolatey", packages.ScopeMachine), options.Default()); err != nil {
		t.Fatal(err)
	}
	if len(chocoExec.calls) != 1 || len(wingetExec.calls) != 0 {
		t.Fatalf("choco calls %v, winget calls %v", chocoExec.calls, wingetExec.calls)
	}

	if err := d.Update(context.Background(), upgradable(t, "Scoop", "git", "1", "2", "main", packages.ScopeUser), nil); err == nil {
		t.Fatal("expected error for manager without backend")
	}

	srcs := d.Sources()
	if len(srcs) != 2 || srcs[0].Name() != "Chocolatey" || srcs[1].Name() != "Winget" {
		t.Fatalf("Sources = %v", srcs)
	}
}

func TestUpdateFailureCarriesOutput(t *testing.T) {
	c := NewChocolatey((&mockExec{stdout: "checksum mismatch", exitCode: 1}).run)
	err := c.Update(context.Background(), upgradable(t, "Chocolatey", "git", "1", "2", "chocolatey", packages.ScopeMachine), nil)
	if err == nil || !strings.Contains(err.Error(), "checksum mismatch") {
		t.Fatalf("got %v", err)
	}
}

func TestSnapshotSourcesAndUpdate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.yaml")
	content := `managers:
  Winget:
    upgradable:
      - {name: Git, id: Git.Git, version: 2.45.0, newVersion: 2.46.0, source: winget}
      - {name: 7-Zip, id: 7zip.7zip, version: "23.01", newVersion: "24.07", source: winget, scope: machine}
    installed:
      - {name: Git, id: Git.Git, version: 2.45.0, source: winget}
  Scoop:
    upgradable: []
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	snap, err := LoadSnapshot(path)
	if err != nil {
		t.Fatal(err)
	}
	srcs := snap.Sources()
	if len(srcs) != 2 || srcs[0].Name() != "Scoop" || srcs[1].Name() != "Winget" {
		t.Fatalf("Sources = %v", srcs)
	}

	rows, err := srcs[1].Upgradable(context.Background())
	if err != nil || len(rows) != 2 {
		t.Fatalf("Upgradable = %v, %v", rows, err)
	}
	if rows[1].Version != "23.01" || rows[1].Scope != "machine" {
		t.Fatalf("row = %+v", rows[1])
	}

	git := upgradable(t, "Winget", "Git.Git", "2.45.0", "2.46.0", "winget", packages.ScopeUser)
	if err := snap.Update(context.Background(), git, nil); err != nil {
		t.Fatal(err)
	}
	if err := snap.Update(context.Background(), git, nil); err == nil {
		t.Fatal("second update of the same package should fail")
	}

	reloaded, err := LoadSnapshot(path)
	if err != nil {
		t.Fatal(err)
	}
	winget := reloaded.Sources()[1]
	rows, _ = winget.Upgradable(context.Background())
	if len(rows) != 1 || rows[0].ID != "7zip.7zip" {
		t.Fatalf("after update upgradable = %+v", rows)
	}
	inst, _ := winget.Installed(context.Background())
	if len(inst) != 1 || inst[0].Version != "2.46.0" {
		t.Fatalf("after update installed = %+v", inst)
	}
}

func TestSnapshotMissingAndCorrupt(t *testing.T) {
	dir := t.TempDir()
	snap, err := LoadSnapshot(filepath.Join(dir, "none.yaml"))
	if err != nil || len(snap.Sources()) != 0 {
		t.Fatalf("missing snapshot: %v, %v", snap, err)
	}

	bad := filepath.Join(dir, "bad.yaml")
	os.WriteFile(bad, []byte("managers: [oops"), 0o644)
	if _, err := LoadSnapshot(bad); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestProcessBusy(t *testing.T) {
	running := []string{"explorer.exe", "WinGet.exe"}
	b := NewProcessBusy(func(context.Context) ([]string, error) { return running, nil })

	if !b.ManagerBusy(context.Background(), "Winget") {
		t.Error("winget should be busy")
	}
	if b.ManagerBusy(context.Background(), "Chocolatey") {
		t.Error("chocolatey should not be busy")
	}
	if b.ManagerBusy(context.Background(), "Scoop") {
		t.Error("scoop is never reported busy")
	}

	failing := NewProcessBusy(func(context.Context) ([]string, error) { return nil, errors.New("denied") })
	if failing.ManagerBusy(context.Background(), "Winget") {
		t.Error("listing failure should not report busy")
	}
}
