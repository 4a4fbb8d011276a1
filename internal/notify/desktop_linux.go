//go:build linux

package notify

import "fmt"

// showOS uses notify-send. The synchronous hint makes a notification with the
// same tag replace the previous one on servers that support it. Buttons are
// not offered because notify-send blocks while waiting for an action.
func showOS(run CommandFunc, appName string, n Notification) error {
	args := []string{
		"-a", appName,
		"-u", "normal",
		"-h", "string:x-canonical-private-synchronous:" + n.Tag,
	}
	if n.ExpiresOnReboot {
		args = append(args, "-e")
	}
	args = append(args, n.Title(), n.Body())

	if err := run("notify-send", args...); err != nil {
		return fmt.Errorf("notify-send: %w", err)
	}
	return nil
}

// withdrawOS is a no-op: notify-send cannot close a notification by tag, and
// the next notification with the same tag replaces it.
func withdrawOS(run CommandFunc, appName, tag string) error {
	return nil
}
