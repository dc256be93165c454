package inventory

import (
	"archive/zip"
	"io"
	"strings"

	"github.com/pkg/errors"

	"strictjars/internal/dex"
	"strictjars/internal/model"
)

const (
	metaDir         = "META-INF/"
	moduleInfoClass = "module-info.class"
	// maxDexSize bounds a single dex entry read into memory.
	maxDexSize = 512 << 20
)

// ScanFile reads the entries and top-level classes of the jar or apk at
// path on the local disk.
func ScanFile(path string, jar model.JarPath) (model.JarContents, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return model.JarContents{}, errors.Wrapf(err, "failed to open %s", jar)
	}
	defer r.Close()
	return scan(&r.Reader, jar)
}

// Scan reads an archive held in r.
func Scan(r io.ReaderAt, size int64, jar model.JarPath) (model.JarContents, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return model.JarContents{}, errors.Wrapf(err, "failed to open %s", jar)
	}
	return scan(zr, jar)
}

func scan(zr *zip.Reader, jar model.JarPath) (model.JarContents, error) {
	contents := model.JarContents{Path: jar}
	for _, f := range zr.File {
		contents.Files = append(contents.Files, f.Name)

		switch {
		case dex.IsDexEntry(f.Name):
			descs, err := readDex(f)
			if err != nil {
				return model.JarContents{}, errors.Wrapf(err, "%s!%s", jar, f.Name)
			}
			for _, d := range descs {
				addClass(&contents, model.ClassName(d))
			}
		default:
			if c, ok := classFileDescriptor(f.Name); ok {
				addClass(&contents, c)
			}
		}
	}
	return contents, nil
}

// Inner classes always go with their parent.
func addClass(c *model.JarContents, name model.ClassName) {
	if !name.IsInner() {
		c.Classes = append(c.Classes, name)
	}
}

func readDex(f *zip.File) ([]string, error) {
	if f.UncompressedSize64 > maxDexSize {
		return nil, errors.Errorf("dex entry is %d bytes", f.UncompressedSize64)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	b, err := io.ReadAll(io.LimitReader(rc, maxDexSize+1))
	if err != nil {
		return nil, err
	}
	return dex.ClassDescriptors(b)
}

// classFileDescriptor maps a .class entry such as a/b/C.class to La/b/C;.
// Entries under META-INF (multi-release variants) and module descriptors
// are not classes on the classpath.
func classFileDescriptor(name string) (model.ClassName, bool) {
	if !strings.HasSuffix(name, ".class") || strings.HasPrefix(name, metaDir) {
		return "", false
	}
	if name == moduleInfoClass || strings.HasSuffix(name, "/"+moduleInfoClass) {
		return "", false
	}
	return model.ClassName("L" + strings.TrimSuffix(name, ".class") + ";"), true
}
