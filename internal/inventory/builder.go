// Package inventory pulls jars from a device and records the classes and
// files each one contains.
package inventory

import (
	"context"
	"log/slog"
	"os"
	"path"
	"runtime"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"strictjars/internal/device"
	"strictjars/internal/model"
)

// Builder produces a Snapshot from a device.
type Builder struct {
	Device device.Device
	Jobs   int // concurrent pulls; runtime.NumCPU() when <= 0
	Logger *slog.Logger
}

// NewBuilder returns a Builder for d with default settings.
func NewBuilder(d device.Device, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{
		Device: d,
		Logger: logger.With(slog.String("component", "inventory")),
	}
}

// Build pulls every jar once and scans it. Any pull or scan failure aborts
// the build; there is no partial snapshot.
func (b *Builder) Build(ctx context.Context, jars []model.JarPath) (*model.Snapshot, error) {
	start := time.Now()
	logger := b.Logger
	if logger == nil {
		logger = slog.Default()
	}

	unique := dedupe(jars)

	tmp, err := os.MkdirTemp("", "strictjars-")
	if err != nil {
		return nil, errors.Wrap(err, "failed to create temp dir")
	}
	defer os.RemoveAll(tmp)

	jobs := b.Jobs
	if jobs <= 0 {
		jobs = runtime.NumCPU()
	}

	// Each task owns one slot; the slots are folded into the snapshot
	// after Wait, so no task shares state with another.
	results := make([]model.JarContents, len(unique))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i, jar := range unique {
		g.Go(func() error {
			c, err := b.pullAndScan(gctx, tmp, jar)
			if err != nil {
				return err
			}
			logger.Debug("scanned jar",
				slog.String("jar", string(jar)),
				slog.Int("files", len(c.Files)),
				slog.Int("classes", len(c.Classes)))
			results[i] = c
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	snap := model.NewSnapshot(results)
	logger.Info("inventory built",
		slog.String("device", b.Device.Name()),
		slog.Int("jars", len(unique)),
		slog.Int("classes", snap.ClassCount()),
		slog.Duration("elapsed", time.Since(start)))
	return snap, nil
}

func (b *Builder) pullAndScan(ctx context.Context, dir string, jar model.JarPath) (model.JarContents, error) {
	f, err := os.CreateTemp(dir, "*-"+path.Base(string(jar)))
	if err != nil {
		return model.JarContents{}, errors.Wrap(err, "failed to create temp file")
	}
	local := f.Name()
	f.Close()
	defer os.Remove(local)

	if err := b.Device.Pull(ctx, string(jar), local); err != nil {
		return model.JarContents{}, errors.Wrapf(err, "failed to pull %s", jar)
	}
	return ScanFile(local, jar)
}

func dedupe(jars []model.JarPath) []model.JarPath {
	seen := make(map[model.JarPath]bool, len(jars))
	var out []model.JarPath
	for _, j := range jars {
		if !seen[j] {
			seen[j] = true
			out = append(out, j)
		}
	}
	return out
}
