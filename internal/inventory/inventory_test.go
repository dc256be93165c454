package inventory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"strictjars/internal/dex/dextest"
	"strictjars/internal/device/devicetest"
	"strictjars/internal/model"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestScan(t *testing.T) {
	jar := dextest.Jar(map[string][]byte{
		"META-INF/MANIFEST.MF":              []byte("Manifest-Version: 1.0\n"),
		"META-INF/versions/9/a/Multi.class": {},
		"classes.dex":                       dextest.Build("La/Foo;", "La/Foo$1;"),
		"classes2.dex":                      dextest.Build("La/Bar;"),
		"a/Plain.class":                     {},
		"a/Plain$Inner.class":               {},
		"module-info.class":                 {},
		"res/raw/data.bin":                  []byte("x"),
	})
	c, err := Scan(bytes.NewReader(jar), int64(len(jar)), "/system/framework/a.jar")
	require.NoError(t, err)

	assert.Equal(t, model.JarPath("/system/framework/a.jar"), c.Path)
	assert.ElementsMatch(t, []model.ClassName{"La/Foo;", "La/Bar;", "La/Plain;"}, c.Classes)
	assert.Len(t, c.Files, 8)
	for _, cls := range c.Classes {
		assert.False(t, cls.IsInner(), "inner class %s tracked", cls)
	}
}

func TestScanErrors(t *testing.T) {
	_, err := Scan(bytes.NewReader([]byte("not a zip")), 9, "/x.jar")
	assert.Error(t, err)

	bad := dextest.Jar(map[string][]byte{"classes.dex": []byte("dex\n035\x00garbage")})
	_, err = Scan(bytes.NewReader(bad), int64(len(bad)), "/x.jar")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "/x.jar!classes.dex")
}

func TestBuild(t *testing.T) {
	d := devicetest.New("34")
	d.AddFile("/system/framework/a.jar", dextest.DexJar("LFoo;", "LBar;"))
	d.AddFile("/system/framework/b.jar", dextest.DexJar("LBar;", "LBaz;", "LBaz$Inner;"))

	b := NewBuilder(d, quiet)
	b.Jobs = 2
	snap, err := b.Build(context.Background(), []model.JarPath{
		"/system/framework/a.jar",
		"/system/framework/b.jar",
		"/system/framework/a.jar",
	})
	require.NoError(t, err)

	if diff := cmp.Diff([]model.JarPath{"/system/framework/a.jar", "/system/framework/b.jar"}, snap.Jars()); diff != "" {
		t.Errorf("Jars() mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []model.ClassName{"LBar;", "LFoo;"}, snap.Classes("/system/framework/a.jar"))
	assert.Equal(t, []model.ClassName{"LBar;", "LBaz;"}, snap.Classes("/system/framework/b.jar"))
	assert.Equal(t, []string{"META-INF/MANIFEST.MF", "classes.dex"}, snap.Files("/system/framework/a.jar"))
	assert.Equal(t, 1, d.Pulls("/system/framework/a.jar"))
}

func TestBuildManyJars(t *testing.T) {
	d := devicetest.New("34")
	var jars []model.JarPath
	for i := 0; i < 40; i++ {
		p := model.JarPath(fmt.Sprintf("/system/framework/j%02d.jar", i))
		d.AddFile(p, dextest.DexJar(fmt.Sprintf("LC%d;", i), "LShared;"))
		jars = append(jars, p)
	}
	b := NewBuilder(d, quiet)
	b.Jobs = 8
	snap, err := b.Build(context.Background(), jars)
	require.NoError(t, err)
	assert.Equal(t, jars, snap.Jars())
	assert.Equal(t, 80, snap.ClassCount())
}

func TestBuildFailsOnMissingJar(t *testing.T) {
	d := devicetest.New("34")
	d.AddFile("/system/framework/a.jar", dextest.DexJar("LFoo;"))

	_, err := NewBuilder(d, quiet).Build(context.Background(), []model.JarPath{
		"/system/framework/a.jar",
		"/system/framework/missing.jar",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "/system/framework/missing.jar")
}

func TestBuildCleansUpTempFiles(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("TMPDIR", tmp)

	d := devicetest.New("34")
	d.AddFile("/a.jar", dextest.DexJar("LFoo;"))
	d.AddFile("/bad.jar", []byte("corrupt"))

	_, err := NewBuilder(d, quiet).Build(context.Background(), []model.JarPath{"/a.jar"})
	require.NoError(t, err)
	_, err = NewBuilder(d, quiet).Build(context.Background(), []model.JarPath{"/a.jar", "/bad.jar"})
	require.Error(t, err)

	left, err := os.ReadDir(tmp)
	require.NoError(t, err)
	assert.Empty(t, left)
}

func TestBuildIsDeterministic(t *testing.T) {
	d := devicetest.New("34")
	d.AddFile("/a.jar", dextest.DexJar("LB;", "LA;"))
	d.AddFile("/b.jar", dextest.DexJar("LA;"))
	jars := []model.JarPath{"/a.jar", "/b.jar"}

	first, err := NewBuilder(d, quiet).Build(context.Background(), jars)
	require.NoError(t, err)
	second, err := NewBuilder(d, quiet).Build(context.Background(), jars)
	require.NoError(t, err)
	for _, j := range jars {
		assert.Equal(t, first.Classes(j), second.Classes(j))
	}
}
