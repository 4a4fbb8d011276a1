package packages

import (
	"errors"
	"testing"
)

var (
	winget = &Manager{Name: "Winget", DisplayName: "Winget"}
	choco  = &Manager{Name: "Chocolatey", DisplayName: "Chocolatey"}

	wingetSource = Source{Name: "winget", URL: "https://cdn.winget.microsoft.com/cache"}
	msstore      = Source{Name: "msstore", URL: "https://storeedgefd.dsx.mp.microsoft.com/v9.0"}
)

func mustPackage(t *testing.T, id, ver string, src Source, mgr *Manager) *Package {
	t.Helper()
	p, err := New(id, id, ver, src, mgr, ScopeUser)
	if err != nil {
		t.Fatalf("New(%q): %v", id, err)
	}
	return p
}

func TestKeys(t *testing.T) {
	p := mustPackage(t, "Mozilla.Firefox", "128.0", wingetSource, winget)

	if got := p.UniqueKey(); got != `Winget\Mozilla.Firefox\128.0` {
		t.Errorf("UniqueKey = %q", got)
	}
	if got := p.IgnoreKey(); got != `winget\Mozilla.Firefox` {
		t.Errorf("IgnoreKey = %q", got)
	}

	other := mustPackage(t, "Mozilla.Firefox", "129.0", wingetSource, winget)
	if p.UniqueKey() == other.UniqueKey() {
		t.Error("different versions must have different unique keys")
	}
	if p.IgnoreKey() != other.IgnoreKey() {
		t.Error("ignore key must not depend on version")
	}
}

func TestIconKey(t *testing.T) {
	tests := []struct {
		manager string
		id      string
		want    string
	}{
		{"Winget", "Mozilla.Firefox", "firefox"},
		{"Winget", "Microsoft.VisualStudioCode.Insiders", "visualstudiocode.insiders"},
		{"Winget", "7zip", ""},
		{"Chocolatey", "Git.Install", "git"},
		{"Chocolatey", "7zip.portable", "7zip"},
		{"Chocolatey", "foo.install.portable", "foo"},
		{"Chocolatey", "foo.portable.install", "foo"},
		{"Scoop", "Firefox.app", "firefox"},
		{"Pip", "Requests", "requests"},
	}
	for _, tt := range tests {
		if got := IconKey(tt.manager, tt.id); got != tt.want {
			t.Errorf("IconKey(%q, %q) = %q, want %q", tt.manager, tt.id, got, tt.want)
		}
	}
}

func TestRegisterIconNormalizer(t *testing.T) {
	RegisterIconNormalizer("Npm", func(id string) string { return "npm-" + id })
	t.Cleanup(func() { RegisterIconNormalizer("Npm", nil) })

	if got := IconKey("npm", "TypeScript"); got != "npm-typescript" {
		t.Fatalf("IconKey = %q, want npm-typescript", got)
	}
}

func TestNewRequiresIDAndManager(t *testing.T) {
	var invalid *ErrInvalidPackage

	_, err := New("Firefox", "", "1.0", wingetSource, winget, ScopeUser)
	if !errors.As(err, &invalid) || invalid.Field != "id" {
		t.Fatalf("expected id error, got %v", err)
	}
	_, err = New("Firefox", "Mozilla.Firefox", "1.0", wingetSource, nil, ScopeUser)
	if !errors.As(err, &invalid) || invalid.Field != "manager" {
		t.Fatalf("expected manager error, got %v", err)
	}
}

func TestEqualUsesSourceAndID(t *testing.T) {
	a := mustPackage(t, "Mozilla.Firefox", "128.0", wingetSource, winget)
	b := mustPackage(t, "Mozilla.Firefox", "129.0", wingetSource, winget)
	c := mustPackage(t, "Mozilla.Firefox", "128.0", msstore, winget)

	if !a.Equal(b) {
		t.Error("same source and id with different versions should be equal")
	}
	if a.Equal(c) {
		t.Error("same id from different sources should not be equal")
	}
	if a.Equal(nil) {
		t.Error("package should not equal nil")
	}
}

func TestScopeAliases(t *testing.T) {
	if ScopeGlobal != ScopeMachine || ScopeLocal != ScopeUser {
		t.Fatal("scope aliases must share values")
	}
	if int(ScopeUser) != 0 || int(ScopeMachine) != 1 {
		t.Fatal("scope ordinals changed")
	}
	if s, ok := ParseScope("Global"); !ok || s != ScopeMachine {
		t.Fatalf("ParseScope(Global) = %v, %v", s, ok)
	}
	if s, ok := ParseScope("local"); !ok || s != ScopeUser {
		t.Fatalf("ParseScope(local) = %v, %v", s, ok)
	}
	if _, ok := ParseScope("system"); ok {
		t.Fatal("unknown scope should not parse")
	}
	if ScopeGlobal.String() != "Machine" || ScopeLocal.String() != "User" {
		t.Fatal("unexpected scope names")
	}
}

func TestSetSelectedNotifiesOnChangeOnly(t *testing.T) {
	p := mustPackage(t, "Git.Git", "2.45.0", wingetSource, winget)

	var events []ChangeEvent
	unsubscribe := p.Subscribe(func(e ChangeEvent) { events = append(events, e) })

	p.SetSelected(true)
	p.SetSelected(true)
	p.SetSelected(false)

	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Field != FieldSelected || events[0].Old != false || events[0].New != true {
		t.Fatalf("unexpected first event: %+v", events[0])
	}
	if events[0].Package != p {
		t.Fatal("event should reference the package")
	}

	unsubscribe()
	unsubscribe()
	p.SetSelected(true)
	if len(events) != 2 {
		t.Fatalf("listener called after unsubscribe: %d events", len(events))
	}
	if !p.Selected() {
		t.Fatal("flag should still change without listeners")
	}
}

func TestUpgradablePackage(t *testing.T) {
	u, err := NewUpgradable("Firefox", "Mozilla.Firefox", "128.0", "129.0.1", wingetSource, winget, ScopeMachine)
	if err != nil {
		t.Fatalf("NewUpgradable: %v", err)
	}
	if !u.Selected() {
		t.Fatal("upgradable packages start selected")
	}
	if u.NewVersion() != "129.0.1" || u.NewVersionValue() != 129.01 {
		t.Fatalf("new version = %q (%v)", u.NewVersion(), u.NewVersionValue())
	}
	if u.VersionValue() != 128 {
		t.Fatalf("VersionValue = %v", u.VersionValue())
	}
	if u.Scope() != ScopeGlobal {
		t.Fatal("scope not kept")
	}
}

func TestNewVersionIsInstalled(t *testing.T) {
	u, err := NewUpgradable("Firefox", "Mozilla.Firefox", "128.0", "129.0", wingetSource, winget, ScopeUser)
	if err != nil {
		t.Fatal(err)
	}

	installed := []*Package{
		mustPackage(t, "Mozilla.Firefox", "128.0", wingetSource, winget),
		mustPackage(t, "Mozilla.Firefox", "129.0", wingetSource, choco),
		nil,
	}
	if u.NewVersionIsInstalled(installed) {
		t.Fatal("new version from another manager must not count")
	}

	installed = append(installed, mustPackage(t, "Mozilla.Firefox", "129.0", wingetSource, winget))
	if !u.NewVersionIsInstalled(installed) {
		t.Fatal("expected new version to be found")
	}
	if u.NewVersionIsInstalled(nil) {
		t.Fatal("empty list cannot contain the new version")
	}
}

func TestRegistryReturnsSharedManager(t *testing.T) {
	r := NewRegistry(DefaultManagers()...)

	a, ok := r.Lookup("winget")
	if !ok {
		t.Fatal("winget not registered")
	}
	b, _ := r.Lookup("WINGET")
	if a != b {
		t.Fatal("lookups must return the same manager value")
	}
	if _, ok := r.Lookup("pacman"); ok {
		t.Fatal("unexpected manager")
	}

	a.Capabilities.CanRunAsAdmin = false
	if b.Capabilities.CanRunAsAdmin {
		t.Fatal("capability change not visible through shared reference")
	}

	names := r.Names()
	if len(names) != 3 || names[0] != "Chocolatey" || names[2] != "Winget" {
		t.Fatalf("Names = %v", names)
	}
}
