package device

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"strings"

	"github.com/pkg/errors"
)

// ADB reaches a device through the adb client on the host.
type ADB struct {
	Serial string // empty means the only attached device
	Bin    string // adb binary; "adb" when empty
}

// NewADB returns an ADB for the device with the given serial. An empty
// serial falls back to $ANDROID_SERIAL, as adb itself does.
func NewADB(serial string) *ADB {
	if serial == "" {
		serial = os.Getenv("ANDROID_SERIAL")
	}
	return &ADB{Serial: serial, Bin: "adb"}
}

func (a *ADB) Name() string {
	if a.Serial == "" {
		return "adb"
	}
	return "adb:" + a.Serial
}

func (a *ADB) command(ctx context.Context, args ...string) *exec.Cmd {
	bin := a.Bin
	if bin == "" {
		bin = "adb"
	}
	if a.Serial != "" {
		args = append([]string{"-s", a.Serial}, args...)
	}
	return exec.CommandContext(ctx, bin, args...)
}

func (a *ADB) run(ctx context.Context, args ...string) (string, error) {
	cmd := a.command(ctx, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		}
		return "", errors.Wrapf(err, "%s %s: %s", a.Name(), strings.Join(args, " "), msg)
	}
	return stdout.String(), nil
}

func (a *ADB) Shell(ctx context.Context, cmd string) (string, error) {
	return a.run(ctx, "shell", cmd)
}

func (a *ADB) Pull(ctx context.Context, remote, local string) error {
	_, err := a.run(ctx, "pull", remote, local)
	return err
}

func (a *ADB) FileExists(ctx context.Context, path string) (bool, error) {
	out, err := a.Shell(ctx, "test -e "+Quote(path)+" && echo 1 || echo 0")
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(out) == "1", nil
}
