// Package device talks to the Android device whose classpaths are checked.
package device

import (
	"context"
	"strings"
)

// Device defines the operations the checker needs from a device.
type Device interface {
	// Shell runs cmd with the device shell and returns its stdout.
	Shell(ctx context.Context, cmd string) (string, error)
	// Pull copies the device file remote to the local path.
	Pull(ctx context.Context, remote, local string) error
	// FileExists reports whether path exists on the device.
	FileExists(ctx context.Context, path string) (bool, error)
	// Name identifies the device in logs and reports.
	Name() string
}

// Quote single-quotes s for the device shell.
func Quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
