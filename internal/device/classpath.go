package device

import (
	"bufio"
	"context"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"strictjars/internal/model"
)

// Shell commands used to query the device. Dir answers exactly these.
const (
	ListLibrariesCmd = "pm list libraries -v"
	// Versioned apex directories (/apex/com.foo@123) mirror the active
	// /apex/com.foo mount and would list every apk twice. find exits 1 when
	// some directory is unreadable; the hits it did print still count.
	FindApexApksCmd = "find /apex -name '*.apk' -not -path '*@*' 2>/dev/null; true"
	APILevelCmd     = "getprop ro.build.version.sdk"
)

// EchoClasspathCmd prints the value of a classpath variable.
func EchoClasspathCmd(cp model.Classpath) string {
	return "echo $" + string(cp)
}

// JarsOnClasspath returns the jars of cp, in classpath order.
func JarsOnClasspath(ctx context.Context, d Device, cp model.Classpath) ([]model.JarPath, error) {
	out, err := d.Shell(ctx, EchoClasspathCmd(cp))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", cp)
	}
	var jars []model.JarPath
	for _, p := range strings.Split(strings.TrimSpace(out), ":") {
		if p = strings.TrimSpace(p); p != "" {
			jars = append(jars, model.JarPath(p))
		}
	}
	return jars, nil
}

// SharedLibraries lists the platform shared libraries.
func SharedLibraries(ctx context.Context, d Device) ([]model.SharedLibrary, error) {
	out, err := d.Shell(ctx, ListLibrariesCmd)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list shared libraries")
	}
	return ParseSharedLibraries(strings.NewReader(out))
}

var fieldRe = regexp.MustCompile(`([A-Za-z_]+):(\S*)`)

// ParseSharedLibraries parses `pm list libraries -v` output. Each library
// is one line of key:value fields, starting with library:<name>:
//
//	library:android.test.base type:builtin version:-1 path:/system/framework/android.test.base.jar
//
// A library with several jars repeats path: or separates them with commas.
// Lines that do not start with library: are ignored.
func ParseSharedLibraries(r io.Reader) ([]model.SharedLibrary, error) {
	var libs []model.SharedLibrary
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "library:") {
			continue
		}
		lib := model.SharedLibrary{Version: -1}
		for _, m := range fieldRe.FindAllStringSubmatch(line, -1) {
			key, value := m[1], m[2]
			switch key {
			case "library", "name":
				lib.Name = value
			case "type":
				lib.Type = value
			case "version":
				v, err := strconv.ParseInt(value, 10, 64)
				if err != nil {
					return nil, errors.Wrapf(err, "bad version in %q", line)
				}
				lib.Version = v
			case "path", "paths":
				for _, p := range strings.Split(value, ",") {
					if p != "" {
						lib.Paths = append(lib.Paths, model.JarPath(p))
					}
				}
			}
		}
		if lib.Name == "" {
			return nil, errors.Errorf("library without a name: %q", line)
		}
		libs = append(libs, lib)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to read library list")
	}
	return libs, nil
}

// ApksInApex lists the apks shipped inside apex modules, sorted.
func ApksInApex(ctx context.Context, d Device) ([]model.JarPath, error) {
	out, err := d.Shell(ctx, FindApexApksCmd)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list apks in apexes")
	}
	var apks []model.JarPath
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		// Keep only apk paths; adb may mix in shell noise.
		if strings.HasPrefix(line, "/apex/") && strings.HasSuffix(line, ".apk") {
			apks = append(apks, model.JarPath(line))
		}
	}
	sort.Slice(apks, func(i, j int) bool { return apks[i] < apks[j] })
	return apks, nil
}

// APILevel returns the device's SDK level.
func APILevel(ctx context.Context, d Device) (int, error) {
	out, err := d.Shell(ctx, APILevelCmd)
	if err != nil {
		return 0, errors.Wrap(err, "failed to read SDK level")
	}
	level, err := strconv.Atoi(strings.TrimSpace(out))
	if err != nil {
		return 0, errors.Wrapf(err, "bad SDK level %q", strings.TrimSpace(out))
	}
	return level, nil
}

// ExistingPaths keeps the paths that exist on the device. Shared library
// entries may name jars that are absent on a given build.
func ExistingPaths(ctx context.Context, d Device, paths []model.JarPath) ([]model.JarPath, error) {
	var out []model.JarPath
	for _, p := range paths {
		ok, err := d.FileExists(ctx, string(p))
		if err != nil {
			return nil, errors.Wrapf(err, "could not check whether %s exists", p)
		}
		if ok {
			out = append(out, p)
		}
	}
	return out, nil
}
