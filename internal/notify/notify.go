// Package notify delivers update notifications to the desktop and to a
// connected front-end.
package notify

import (
	"errors"
	"strings"

	"github.com/unigetui/engine/internal/logging"
)

var log = logging.L("notify")

// UpdatesTag identifies the single "updates available" notification. Showing
// a new one is always preceded by withdrawing the previous one.
const UpdatesTag = "uniget-updates-available"

// Actions carried by notifications and their buttons.
const (
	ActionShowUpdates = "show-updates"
	ActionUpdateAll   = "update-all"
)

// Button is a notification action button.
type Button struct {
	Label  string `json:"label"`
	Action string `json:"action"`
}

// Notification is a platform-neutral toast.
type Notification struct {
	Tag             string   `json:"tag"`
	Texts           []string `json:"texts"`
	Attribution     string   `json:"attribution,omitempty"`
	Action          string   `json:"action"`
	Buttons         []Button `json:"buttons,omitempty"`
	ExpiresOnReboot bool     `json:"expiresOnReboot"`
}

// Title is the first text line, or "".
func (n Notification) Title() string {
	if len(n.Texts) == 0 {
		return ""
	}
	return n.Texts[0]
}

// Body joins the remaining text lines and the attribution.
func (n Notification) Body() string {
	var lines []string
	if len(n.Texts) > 1 {
		lines = append(lines, n.Texts[1:]...)
	}
	if n.Attribution != "" {
		lines = append(lines, n.Attribution)
	}
	return strings.Join(lines, "\n")
}

// Sink displays and withdraws notifications.
type Sink interface {
	Show(n Notification) error
	Withdraw(tag string) error
}

// Multi fans every call out to each sink. All sinks are called even when
// one fails; the errors are joined.
type Multi []Sink

func (m Multi) Show(n Notification) error {
	var errs []error
	for _, s := range m {
		if err := s.Show(n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) Withdraw(tag string) error {
	var errs []error
	for _, s := range m {
		if err := s.Withdraw(tag); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Discard drops every notification.
type Discard struct{}

func (Discard) Show(Notification) error { return nil }
func (Discard) Withdraw(string) error   { return nil }
