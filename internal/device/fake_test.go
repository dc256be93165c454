package device

import (
	"context"
	"os"

	"github.com/pkg/errors"
)

// stub answers shell commands from a table, like a canned device.
type stub struct {
	responses map[string]string
	files     map[string]bool
}

func (s *stub) Name() string { return "stub" }

func (s *stub) Shell(ctx context.Context, cmd string) (string, error) {
	out, ok := s.responses[cmd]
	if !ok {
		return "", errors.Errorf("unexpected command %q", cmd)
	}
	return out, nil
}

func (s *stub) Pull(ctx context.Context, remote, local string) error {
	return os.ErrNotExist
}

func (s *stub) FileExists(ctx context.Context, path string) (bool, error) {
	return s.files[path], nil
}
