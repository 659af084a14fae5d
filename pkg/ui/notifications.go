package ui

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

// NotificationSender interface for platform-specific notification implementations
type NotificationSender interface {
	Send(title, message string) error
}

// LinuxNotificationSender sends notifications on Linux using notify-send
type LinuxNotificationSender struct{}

func (l *LinuxNotificationSender) Send(title, message string) error {
	cmd := exec.Command("notify-send", "--app-name=p95status", title, message)
	return cmd.Run()
}

// MacOSNotificationSender sends notifications on macOS using osascript
type MacOSNotificationSender struct{}

func (m *MacOSNotificationSender) Send(title, message string) error {
	script := fmt.Sprintf(`display notification %q with title %q`, message, title)
	cmd := exec.Command("osascript", "-e", script)
	return cmd.Run()
}

// WindowsNotificationSender sends notifications on Windows using PowerShell
type WindowsNotificationSender struct{}

func (w *WindowsNotificationSender) Send(title, message string) error {
	script := fmt.Sprintf(`
		[Windows.UI.Notifications.ToastNotificationManager, Windows.UI.Notifications, ContentType = WindowsRuntime] | Out-Null
		$template = [Windows.UI.Notifications.ToastNotificationManager]::GetTemplateContent([Windows.UI.Notifications.ToastTemplateType]::ToastText02)
		$text = $template.GetElementsByTagName("text")
		$text.Item(0).AppendChild($template.CreateTextNode('%s')) | Out-Null
		$text.Item(1).AppendChild($template.CreateTextNode('%s')) | Out-Null
		$toast = [Windows.UI.Notifications.ToastNotification]::new($template)
		[Windows.UI.Notifications.ToastNotificationManager]::CreateToastNotifier("p95status").Show($toast)
	`, psQuote(title), psQuote(message))

	cmd := exec.Command("powershell", "-NoProfile", "-NonInteractive", "-Command", script)
	return cmd.Run()
}

func psQuote(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

// Notifier sends desktop notifications when a save file's status changes
type Notifier struct {
	sender NotificationSender
}

// NewNotifier creates a new Notifier based on the current platform
func NewNotifier() *Notifier {
	var sender NotificationSender

	switch runtime.GOOS {
	case "linux", "freebsd", "openbsd":
		sender = &LinuxNotificationSender{}
	case "darwin":
		sender = &MacOSNotificationSender{}
	case "windows":
		sender = &WindowsNotificationSender{}
	}

	return &Notifier{sender: sender}
}

// NewNotifierWithSender creates a Notifier that delivers through sender
func NewNotifierWithSender(sender NotificationSender) *Notifier {
	return &Notifier{sender: sender}
}

// Supported reports whether this platform has a way to show notifications
func (n *Notifier) Supported() bool {
	return n != nil && n.sender != nil
}

// StatusChanged announces a new status line for the named file
func (n *Notifier) StatusChanged(name, message string) error {
	return n.send("p95status: "+name, message)
}

// Failed announces that the named file can no longer be decoded
func (n *Notifier) Failed(name, reason string) error {
	return n.send("p95status: "+name+" failed", reason)
}

func (n *Notifier) send(title, message string) error {
	if n == nil || n.sender == nil {
		return nil
	}
	return n.sender.Send(title, message)
}
