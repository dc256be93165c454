package checks

import (
	"context"
	"log/slog"
	"sort"

	"github.com/pkg/errors"

	"strictjars/internal/burndown"
	"strictjars/internal/device"
	"strictjars/internal/dupes"
	"strictjars/internal/inventory"
	"strictjars/internal/model"
)

// Env is everything the checks read: the device facts and the snapshot
// of every jar they touch. It is built once and shared read-only.
type Env struct {
	Device                string
	APILevel              int
	BootClasspath         []model.JarPath
	SystemServerClasspath []model.JarPath
	SharedLibraries       []model.SharedLibrary
	// SharedLibraryJars are the library paths that exist on the device.
	SharedLibraryJars []model.JarPath
	ApexApks          []model.JarPath
	Snapshot          *model.Snapshot
	Burndown          *burndown.Registry
}

func (env *Env) platformJars() []model.JarPath {
	return append(append([]model.JarPath{}, env.BootClasspath...), env.SystemServerClasspath...)
}

func (env *Env) burndown(name string) dupes.Filter {
	return dupes.NotIn("burndown:"+name, env.Burndown.Get(name))
}

// Jars returns every jar the Env knows about, without repeats.
func (env *Env) Jars() []model.JarPath {
	var all []model.JarPath
	all = append(all, env.BootClasspath...)
	all = append(all, env.SystemServerClasspath...)
	all = append(all, env.SharedLibraryJars...)
	all = append(all, env.ApexApks...)
	seen := make(map[model.JarPath]bool, len(all))
	var out []model.JarPath
	for _, j := range all {
		if !seen[j] {
			seen[j] = true
			out = append(out, j)
		}
	}
	return out
}

// Collect queries d for what the runnable checks need and builds the
// snapshot of all those jars in one pass.
func Collect(ctx context.Context, d device.Device, checks []Check, b *inventory.Builder, reg *burndown.Registry, logger *slog.Logger) (*Env, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "checks"))

	level, err := device.APILevel(ctx, d)
	if err != nil {
		return nil, err
	}
	env := &Env{Device: d.Name(), APILevel: level, Burndown: reg}

	var needs Inputs
	for _, c := range checks {
		if runnable(c, level) {
			needs |= c.Inputs
		}
	}

	if needs&NeedsBootClasspath != 0 {
		if env.BootClasspath, err = device.JarsOnClasspath(ctx, d, model.BootClasspath); err != nil {
			return nil, err
		}
	}
	if needs&NeedsSystemServerClasspath != 0 {
		if env.SystemServerClasspath, err = device.JarsOnClasspath(ctx, d, model.SystemServerClasspath); err != nil {
			return nil, err
		}
	}
	if needs&NeedsSharedLibraries != 0 {
		if env.SharedLibraries, err = device.SharedLibraries(ctx, d); err != nil {
			return nil, err
		}
		var paths []model.JarPath
		for _, l := range env.SharedLibraries {
			paths = append(paths, l.Paths...)
		}
		if env.SharedLibraryJars, err = device.ExistingPaths(ctx, d, paths); err != nil {
			return nil, err
		}
	}
	if needs&NeedsApexApks != 0 {
		if env.ApexApks, err = device.ApksInApex(ctx, d); err != nil {
			return nil, err
		}
	}

	logger.Info("device queried",
		slog.String("device", env.Device),
		slog.Int("api_level", level),
		slog.Int("bootclasspath", len(env.BootClasspath)),
		slog.Int("systemserverclasspath", len(env.SystemServerClasspath)),
		slog.Int("shared_library_jars", len(env.SharedLibraryJars)),
		slog.Int("apex_apks", len(env.ApexApks)))

	if env.Snapshot, err = b.Build(ctx, env.Jars()); err != nil {
		return nil, errors.Wrap(err, "failed to build class inventory")
	}
	return env, nil
}

func runnable(c Check, apiLevel int) bool {
	return apiLevel >= c.MinAPILevel
}

func sortJars(jars []model.JarPath) {
	sort.Slice(jars, func(i, j int) bool { return jars[i] < jars[j] })
}
