package notify

import (
	"os/exec"
)

// CommandFunc runs an external program to completion.
type CommandFunc func(name string, args ...string) error

func runCommand(name string, args ...string) error {
	return exec.Command(name, args...).Run()
}

// Desktop shows notifications through the operating system's notification
// facility: notify-send on Linux, osascript on macOS and a PowerShell toast
// on Windows.
type Desktop struct {
	appName string
	run     CommandFunc
}

// NewDesktop returns a desktop sink attributing notifications to appName.
// A nil run uses os/exec.
func NewDesktop(appName string, run CommandFunc) *Desktop {
	if run == nil {
		run = runCommand
	}
	return &Desktop{appName: appName, run: run}
}

func (d *Desktop) Show(n Notification) error {
	if err := showOS(d.run, d.appName, n); err != nil {
		log.Warn("desktop notification failed", "tag", n.Tag, "error", err)
		return err
	}
	return nil
}

func (d *Desktop) Withdraw(tag string) error {
	if err := withdrawOS(d.run, d.appName, tag); err != nil {
		log.Warn("withdrawing desktop notification failed", "tag", tag, "error", err)
		return err
	}
	return nil
}
