package device

import (
	"bufio"
	"context"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// Dir is an offline snapshot of a device: a directory mirroring the
// device filesystem plus a few files standing in for shell queries.
//
//	<root>/environ        KEY=VALUE lines, answers `echo $KEY`
//	<root>/libraries.txt  output of `pm list libraries -v`
//	<root>/build.prop     key=value lines, answers getprop
//	<root>/system/...     device files, e.g. system/framework/foo.jar
//	<root>/apex/...
type Dir struct {
	Root string
}

func (d *Dir) Name() string {
	return "dir:" + d.Root
}

// local maps a device path into Root. The path is cleaned first so it
// cannot climb out of Root.
func (d *Dir) local(devicePath string) string {
	return filepath.Join(d.Root, filepath.FromSlash(path.Clean("/"+devicePath)))
}

func (d *Dir) Shell(ctx context.Context, cmd string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	switch {
	case strings.HasPrefix(cmd, "echo $"):
		v, err := d.keyValue("environ", strings.TrimPrefix(cmd, "echo $"))
		return v + "\n", err
	case cmd == ListLibrariesCmd:
		b, err := os.ReadFile(filepath.Join(d.Root, "libraries.txt"))
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return string(b), err
	case cmd == APILevelCmd:
		v, err := d.keyValue("build.prop", "ro.build.version.sdk")
		return v + "\n", err
	case cmd == FindApexApksCmd:
		return d.findApexApks()
	}
	return "", errors.Errorf("%s: unsupported command %q", d.Name(), cmd)
}

// keyValue looks up key in a KEY=VALUE file under Root. A missing file or
// key yields "", matching an unset variable.
func (d *Dir) keyValue(file, key string) (string, error) {
	f, err := os.Open(filepath.Join(d.Root, file))
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	} else if err != nil {
		return "", err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		k, v, ok := strings.Cut(line, "=")
		if ok && strings.TrimSpace(strings.TrimPrefix(k, "export ")) == key {
			return strings.TrimSpace(v), nil
		}
	}
	return "", scanner.Err()
}

func (d *Dir) findApexApks() (string, error) {
	root := d.local("/apex")
	var found []string
	err := filepath.WalkDir(root, func(p string, e fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) && p == root {
				return fs.SkipDir
			}
			return err
		}
		rel, _ := filepath.Rel(d.Root, p)
		devicePath := "/" + filepath.ToSlash(rel)
		if strings.Contains(devicePath, "@") {
			if e.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if !e.IsDir() && strings.HasSuffix(devicePath, ".apk") {
			found = append(found, devicePath)
		}
		return nil
	})
	if err != nil {
		return "", errors.Wrap(err, "failed to walk apex directory")
	}
	sort.Strings(found)
	return strings.Join(found, "\n"), nil
}

func (d *Dir) Pull(ctx context.Context, remote, local string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	src, err := os.Open(d.local(remote))
	if err != nil {
		return errors.Wrapf(err, "%s: pull %s", d.Name(), remote)
	}
	defer src.Close()

	dst, err := os.Create(local)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return errors.Wrapf(err, "%s: pull %s", d.Name(), remote)
	}
	return dst.Close()
}

func (d *Dir) FileExists(ctx context.Context, p string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	_, err := os.Stat(d.local(p))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return err == nil, err
}
