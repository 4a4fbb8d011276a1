//go:build windows

package notify

import (
	"encoding/xml"
	"fmt"
	"strings"
)

const showToastScript = `param([string]$xml, [string]$tag, [string]$app, [string]$expires)
[Windows.UI.Notifications.ToastNotificationManager, Windows.UI.Notifications, ContentType = WindowsRuntime] | Out-Null
[Windows.Data.Xml.Dom.XmlDocument, Windows.Data.Xml.Dom.XmlDocument, ContentType = WindowsRuntime] | Out-Null
$doc = [Windows.Data.Xml.Dom.XmlDocument]::new()
$doc.LoadXml($xml)
$toast = [Windows.UI.Notifications.ToastNotification]::new($doc)
$toast.Tag = $tag
$toast.ExpiresOnReboot = ($expires -eq 'true')
[Windows.UI.Notifications.ToastNotificationManager]::CreateToastNotifier($app).Show($toast)`

const removeToastScript = `param([string]$tag, [string]$app)
[Windows.UI.Notifications.ToastNotificationManager, Windows.UI.Notifications, ContentType = WindowsRuntime] | Out-Null
[Windows.UI.Notifications.ToastNotificationManager]::History.Remove($tag, '', $app)`

// showOS passes the toast XML and tag as script parameters so none of the
// notification text is interpreted by PowerShell.
func showOS(run CommandFunc, appName string, n Notification) error {
	err := run("powershell", "-NoProfile", "-Command", showToastScript,
		"-xml", toastXML(n),
		"-tag", n.Tag,
		"-app", appName,
		"-expires", fmt.Sprint(n.ExpiresOnReboot))
	if err != nil {
		return fmt.Errorf("powershell toast: %w", err)
	}
	return nil
}

func withdrawOS(run CommandFunc, appName, tag string) error {
	if err := run("powershell", "-NoProfile", "-Command", removeToastScript, "-tag", tag, "-app", appName); err != nil {
		return fmt.Errorf("powershell toast removal: %w", err)
	}
	return nil
}

func toastXML(n Notification) string {
	var b strings.Builder
	b.WriteString(`<toast launch="action=` + xmlEscape(n.Action) + `"><visual><binding template="ToastGeneric">`)
	for _, text := range n.Texts {
		b.WriteString(`<text>` + xmlEscape(text) + `</text>`)
	}
	if n.Attribution != "" {
		b.WriteString(`<text placement="attribution">` + xmlEscape(n.Attribution) + `</text>`)
	}
	b.WriteString(`</binding></visual>`)
	if len(n.Buttons) > 0 {
		b.WriteString(`<actions>`)
		for _, btn := range n.Buttons {
			b.WriteString(`<action content="` + xmlEscape(btn.Label) + `" arguments="action=` + xmlEscape(btn.Action) + `"/>`)
		}
		b.WriteString(`</actions>`)
	}
	b.WriteString(`</toast>`)
	return b.String()
}

func xmlEscape(s string) string {
	var b strings.Builder
	if err := xml.EscapeText(&b, []byte(s)); err != nil {
		return ""
	}
	return b.String()
}
