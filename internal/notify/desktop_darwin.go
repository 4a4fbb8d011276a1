//go:build darwin

package notify

import "fmt"

func showOS(run CommandFunc, appName string, n Notification) error {
	script := `display notification "` + escapeAppleScript(n.Body()) +
		`" with title "` + escapeAppleScript(appName) +
		`" subtitle "` + escapeAppleScript(n.Title()) + `"`
	if err := run("osascript", "-e", script); err != nil {
		return fmt.Errorf("osascript: %w", err)
	}
	return nil
}

// Notification Center offers no way to remove a notification posted by
// osascript.
func withdrawOS(run CommandFunc, appName, tag string) error {
	return nil
}

// escapeAppleScript escapes s for an AppleScript double-quoted string and
// strips control characters other than newline, carriage return and tab.
func escapeAppleScript(s string) string {
	result := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch {
		case ch == '"':
			result = append(result, '\\', '"')
		case ch == '\\':
			result = append(result, '\\', '\\')
		case ch == '\n':
			result = append(result, '\\', 'n')
		case ch == '\r':
			result = append(result, '\\', 'r')
		case ch == '\t':
			result = append(result, '\\', 't')
		case ch < 0x20 || ch == 0x7f:
			continue
		default:
			result = append(result, ch)
		}
	}
	return string(result)
}
