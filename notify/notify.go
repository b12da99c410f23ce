// Package notify raises desktop notifications. Delivery is best effort; a
// missing notification daemon never fails a toggle.
package notify

import "github.com/gen2brain/beeep"

const appTitle = "Voice Tool"

// Info shows a normal-urgency notification.
func Info(message string) error {
	return beeep.Notify(appTitle, message, "")
}

// Error shows a critical-urgency notification.
func Error(message string) error {
	return beeep.Alert(appTitle, message, "")
}
