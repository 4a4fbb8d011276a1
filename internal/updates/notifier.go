package updates

import (
	"strings"
	"sync"

	"github.com/unigetui/engine/internal/i18n"
	"github.com/unigetui/engine/internal/logging"
	"github.com/unigetui/engine/internal/notify"
	"github.com/unigetui/engine/internal/packages"
)

var log = logging.L("updates")

// Notifier raises at most one "updates available" notification per reload.
type Notifier struct {
	sink     notify.Sink
	settings Settings
	printer  *i18n.Printer
	appName  string

	mu                sync.Mutex
	lastNotifiedCount int
}

// NewNotifier returns a notifier that has not notified yet. A nil printer
// renders the base locale.
func NewNotifier(sink notify.Sink, settings Settings, printer *i18n.Printer, appName string) *Notifier {
	if printer == nil {
		printer = i18n.NewPrinter(i18n.BaseLocale)
	}
	return &Notifier{
		sink:              sink,
		settings:          settings,
		printer:           printer,
		appName:           appName,
		lastNotifiedCount: -1,
	}
}

// LastNotifiedCount is the size of the last batch a notification was shown
// for, or -1.
func (n *Notifier) LastNotifiedCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.lastNotifiedCount
}

// Notify replaces the live updates notification with one describing pkgs.
// Nothing happens for an empty batch or when notifications are disabled.
// autoUpdate selects the "being updated" wording and drops the buttons.
func (n *Notifier) Notify(pkgs []*packages.UpgradablePackage, autoUpdate bool) error {
	if len(pkgs) == 0 {
		return nil
	}
	if n.settings != nil && n.settings.UpdatesNotificationsDisabled() {
		log.Debug("update notifications disabled", logging.KeyCount, len(pkgs))
		return nil
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	if err := n.sink.Withdraw(notify.UpdatesTag); err != nil {
		log.Warn("failed to withdraw previous update notification", logging.KeyError, err)
	}

	note := BuildNotification(n.printer, n.appName, pkgs, autoUpdate)
	if err := n.sink.Show(note); err != nil {
		log.Error("failed to show update notification", logging.KeyCount, len(pkgs), logging.KeyError, err)
		return err
	}
	n.lastNotifiedCount = len(pkgs)
	return nil
}

// BuildNotification renders the updates notification for a non-empty batch.
// A nil printer renders the base locale.
func BuildNotification(p *i18n.Printer, appName string, pkgs []*packages.UpgradablePackage, autoUpdate bool) notify.Notification {
	if p == nil {
		p = i18n.NewPrinter(i18n.BaseLocale)
	}
	note := notify.Notification{
		Tag:             notify.UpdatesTag,
		Action:          notify.ActionShowUpdates,
		ExpiresOnReboot: true,
	}
	// Apostrophes in button labels break the toast argument encoding.
	app := strings.ReplaceAll(appName, "'", "´")

	if len(pkgs) == 1 {
		pkg := pkgs[0]
		note.Attribution = p.Sprintf("You have currently version %s installed", pkg.Version())
		if autoUpdate {
			note.Texts = []string{
				p.Sprintf("An update was found!"),
				p.Sprintf("%s is being updated to version %s", pkg.Name(), pkg.NewVersion()),
			}
			return note
		}
		note.Texts = []string{
			p.Sprintf("An update was found!"),
			p.Sprintf("%s can be updated to version %s", pkg.Name(), pkg.NewVersion()),
		}
		note.Buttons = []notify.Button{
			{Label: p.Sprintf("View on %s", app), Action: notify.ActionShowUpdates},
			{Label: p.Sprintf("Update"), Action: notify.ActionUpdateAll},
		}
		return note
	}

	names := make([]string, len(pkgs))
	for i, pkg := range pkgs {
		names[i] = pkg.Name()
	}
	note.Attribution = strings.Join(names, ", ")

	if autoUpdate {
		note.Texts = []string{
			p.Sprintf("%d packages are being updated", len(pkgs)),
			p.Sprintf("Updates found!"),
		}
		return note
	}
	note.Texts = []string{
		p.Sprintf("Updates found!"),
		p.Sprintf("%d packages can be updated", len(pkgs)),
	}
	note.Buttons = []notify.Button{
		{Label: p.Sprintf("Open %s", app), Action: notify.ActionShowUpdates},
		{Label: p.Sprintf("Update all"), Action: notify.ActionUpdateAll},
	}
	return note
}
