//go:build linux

package notify

import (
	"errors"
	"strings"
	"testing"
)

type fakeRunner struct {
	name string
	args []string
	err  error
}

func (f *fakeRunner) run(name string, args ...string) error {
	f.name = name
	f.args = args
	return f.err
}

func TestDesktopShowUsesNotifySend(t *testing.T) {
	r := &fakeRunner{}
	d := NewDesktop("UniGetUI", r.run)

	err := d.Show(Notification{
		Tag:             UpdatesTag,
		Texts:           []string{"An update was found!", "Git can be updated to version 2.46"},
		ExpiresOnReboot: true,
	})
	if err != nil {
		t.Fatalf("Show: %v", err)
	}
	if r.name != "notify-send" {
		t.Fatalf("ran %q", r.name)
	}
	joined := strings.Join(r.args, " ")
	if !strings.Contains(joined, "-a UniGetUI") {
		t.Errorf("app name missing: %v", r.args)
	}
	if !strings.Contains(joined, "x-canonical-private-synchronous:"+UpdatesTag) {
		t.Errorf("replace hint missing: %v", r.args)
	}
	n := len(r.args)
	if r.args[n-2] != "An update was found!" || r.args[n-1] != "Git can be updated to version 2.46" {
		t.Errorf("title/body = %q, %q", r.args[n-2], r.args[n-1])
	}
}

func TestDesktopShowError(t *testing.T) {
	d := NewDesktop("UniGetUI", (&fakeRunner{err: errors.New("not found")}).run)
	if err := d.Show(Notification{Texts: []string{"x"}}); err == nil {
		t.Fatal("expected error")
	}
}

func TestDesktopWithdrawIsNoop(t *testing.T) {
	r := &fakeRunner{}
	if err := NewDesktop("UniGetUI", r.run).Withdraw(UpdatesTag); err != nil {
		t.Fatal(err)
	}
	if r.name != "" {
		t.Fatalf("withdraw ran %q", r.name)
	}
}
