package settings

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestBooleanSettings(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "Settings"))

	if s.Get(AutomaticallyUpdatePackages) {
		t.Fatal("unset setting reported on")
	}
	if err := s.Set(AutomaticallyUpdatePackages, true); err != nil {
		t.Fatal(err)
	}
	if !s.Get(AutomaticallyUpdatePackages) || !s.AutoUpdateEnabled() {
		t.Fatal("setting not on after Set(true)")
	}
	if err := s.Set(AutomaticallyUpdatePackages, false); err != nil {
		t.Fatal(err)
	}
	if s.AutoUpdateEnabled() {
		t.Fatal("setting still on after Set(false)")
	}
	if err := s.Set(AutomaticallyUpdatePackages, false); err != nil {
		t.Fatalf("turning off an unset setting: %v", err)
	}
}

func TestUpdatesNotificationsDisabled(t *testing.T) {
	s := New(t.TempDir())
	if s.UpdatesNotificationsDisabled() {
		t.Fatal("disabled by default")
	}
	s.Set(DisableNotifications, true)
	if !s.UpdatesNotificationsDisabled() {
		t.Fatal("DisableNotifications should silence update notifications")
	}
	s.Set(DisableNotifications, false)
	s.Set(DisableUpdatesNotifications, true)
	if !s.UpdatesNotificationsDisabled() {
		t.Fatal("DisableUpdatesNotifications not honoured")
	}
}

func TestStringValues(t *testing.T) {
	s := New(t.TempDir())
	if v := s.Value("PreferredLanguage"); v != "" {
		t.Fatalf("unset value = %q", v)
	}
	if err := s.SetValue("PreferredLanguage", "de-DE"); err != nil {
		t.Fatal(err)
	}
	if v := s.Value("PreferredLanguage"); v != "de-DE" {
		t.Fatalf("value = %q", v)
	}
	if !s.Get("PreferredLanguage") {
		t.Fatal("a stored value should read as on")
	}
}

func TestInvalidNames(t *testing.T) {
	s := New(t.TempDir())
	for _, name := range []string{"", "..", "../escape", `a\b`, "C:x"} {
		if err := s.Set(name, true); err == nil {
			t.Errorf("Set(%q) accepted", name)
		}
		if s.Get(name) {
			t.Errorf("Get(%q) reported on", name)
		}
	}
}

func TestExportSkipsVolatile(t *testing.T) {
	s := New(t.TempDir())
	s.Set(AutomaticallyUpdatePackages, true)
	s.SetValue("PreferredLanguage", "es-ES")
	s.SetValue("OperationHistory", "lots of history")
	s.SetValue("CurrentSessionToken", "secret")

	data, err := s.Export()
	if err != nil {
		t.Fatal(err)
	}
	var got map[string]string
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got["PreferredLanguage"] != "es-ES" {
		t.Fatalf("export = %v", got)
	}
	if _, ok := got[AutomaticallyUpdatePackages]; !ok {
		t.Fatal("boolean setting missing from export")
	}
}

func TestExportMissingDirectory(t *testing.T) {
	data, err := New(filepath.Join(t.TempDir(), "none")).Export()
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "{}" {
		t.Fatalf("export = %s", data)
	}
}

func TestImportReplacesEverything(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)
	s.Set(DisableNotifications, true)
	s.SetValue("OperationHistory", "old")

	if err := s.Import([]byte(`{"AutomaticallyUpdatePackages": "", "PreferredLanguage": "de-DE"}`)); err != nil {
		t.Fatal(err)
	}
	if s.Get(DisableNotifications) || s.Get("OperationHistory") {
		t.Fatal("import kept old settings")
	}
	if !s.AutoUpdateEnabled() || s.Value("PreferredLanguage") != "de-DE" {
		t.Fatal("imported settings missing")
	}
}

func TestImportRejectsBadInput(t *testing.T) {
	s := New(t.TempDir())
	s.Set(AutomaticallyUpdatePackages, true)

	if err := s.Import([]byte("not json")); err == nil {
		t.Fatal("expected decode error")
	}
	if err := s.Import([]byte(`{"../evil": "x"}`)); err == nil {
		t.Fatal("expected name error")
	}
	if !s.AutoUpdateEnabled() {
		t.Fatal("failed import must not reset settings")
	}
}

func TestResetLeavesDirectories(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)
	s.Set(AutomaticallyUpdatePackages, true)
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0o755); err != nil {
		t.Fatal(err)
	}

	if err := s.Reset(); err != nil {
		t.Fatal(err)
	}
	names, _ := s.Names()
	if len(names) != 0 {
		t.Fatalf("names after reset = %v", names)
	}
	if _, err := os.Stat(filepath.Join(dir, "sub")); err != nil {
		t.Fatal("reset removed a directory")
	}
}
