// Package devicetest provides an in-memory Device for tests.
package devicetest

import (
	"context"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"strictjars/internal/device"
	"strictjars/internal/model"
)

// Fake serves canned shell output and in-memory files.
type Fake struct {
	Responses map[string]string // shell command -> stdout
	Files     map[string][]byte // device path -> contents

	mu    sync.Mutex
	pulls map[string]int
}

// New returns an empty Fake reporting the given SDK level.
func New(apiLevel string) *Fake {
	return &Fake{
		Responses: map[string]string{device.APILevelCmd: apiLevel + "\n"},
		Files:     make(map[string][]byte),
	}
}

func (f *Fake) Name() string { return "fake" }

// SetClasspath makes `echo $cp` return jars joined with ':'.
func (f *Fake) SetClasspath(cp model.Classpath, jars ...model.JarPath) {
	parts := make([]string, len(jars))
	for i, j := range jars {
		parts[i] = string(j)
	}
	f.Responses[device.EchoClasspathCmd(cp)] = strings.Join(parts, ":") + "\n"
}

// AddFile places contents at a device path.
func (f *Fake) AddFile(path model.JarPath, contents []byte) {
	f.Files[string(path)] = contents
}

// SetApexApks makes the apk listing return every added file that is an
// apk under /apex.
func (f *Fake) SetApexApks() {
	var apks []string
	for p := range f.Files {
		if strings.HasPrefix(p, "/apex/") && strings.HasSuffix(p, ".apk") {
			apks = append(apks, p)
		}
	}
	sort.Strings(apks)
	f.Responses[device.FindApexApksCmd] = strings.Join(apks, "\n") + "\n"
}

func (f *Fake) Shell(ctx context.Context, cmd string) (string, error) {
	out, ok := f.Responses[cmd]
	if !ok {
		return "", errors.Errorf("fake: unexpected command %q", cmd)
	}
	return out, nil
}

func (f *Fake) Pull(ctx context.Context, remote, local string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b, ok := f.Files[remote]
	if !ok {
		return errors.Errorf("fake: %s: no such file", remote)
	}
	f.mu.Lock()
	if f.pulls == nil {
		f.pulls = make(map[string]int)
	}
	f.pulls[remote]++
	f.mu.Unlock()
	return os.WriteFile(local, b, 0644)
}

// Pulls reports how many times remote was pulled.
func (f *Fake) Pulls(remote string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pulls[remote]
}

func (f *Fake) FileExists(ctx context.Context, path string) (bool, error) {
	_, ok := f.Files[path]
	return ok, nil
}
