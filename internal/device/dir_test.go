package device

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"strictjars/internal/model"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0644))
}

func TestDir(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "environ", "# comment\nexport BOOTCLASSPATH=/system/framework/a.jar:/apex/com.x/javalib/b.jar\n")
	writeFile(t, root, "build.prop", "ro.build.version.sdk=33\n")
	writeFile(t, root, "libraries.txt", "library:foo type:builtin version:-1 path:/system/framework/foo.jar\n")
	writeFile(t, root, "system/framework/a.jar", "jar-a")
	writeFile(t, root, "apex/com.x/app/X/X.apk", "apk")
	writeFile(t, root, "apex/com.x@1/app/X/X.apk", "apk")

	d := &Dir{Root: root}
	ctx := context.Background()

	jars, err := JarsOnClasspath(ctx, d, model.BootClasspath)
	require.NoError(t, err)
	assert.Equal(t, []model.JarPath{"/system/framework/a.jar", "/apex/com.x/javalib/b.jar"}, jars)

	jars, err = JarsOnClasspath(ctx, d, model.SystemServerClasspath)
	require.NoError(t, err)
	assert.Empty(t, jars)

	level, err := APILevel(ctx, d)
	require.NoError(t, err)
	assert.Equal(t, 33, level)

	libs, err := SharedLibraries(ctx, d)
	require.NoError(t, err)
	require.Len(t, libs, 1)
	assert.Equal(t, "foo", libs[0].Name)

	apks, err := ApksInApex(ctx, d)
	require.NoError(t, err)
	assert.Equal(t, []model.JarPath{"/apex/com.x/app/X/X.apk"}, apks)

	ok, err := d.FileExists(ctx, "/system/framework/a.jar")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = d.FileExists(ctx, "/system/framework/missing.jar")
	require.NoError(t, err)
	assert.False(t, ok)

	local := filepath.Join(t.TempDir(), "a.jar")
	require.NoError(t, d.Pull(ctx, "/system/framework/a.jar", local))
	b, err := os.ReadFile(local)
	require.NoError(t, err)
	assert.Equal(t, "jar-a", string(b))

	assert.Error(t, d.Pull(ctx, "/system/framework/missing.jar", local))

	_, err = d.Shell(ctx, "reboot")
	assert.Error(t, err)
}

func TestDirStaysInsideRoot(t *testing.T) {
	d := &Dir{Root: "/data/snap"}
	assert.Equal(t, filepath.FromSlash("/data/snap/etc/passwd"), d.local("/../../etc/passwd"))
}

func TestDirWithoutApex(t *testing.T) {
	apks, err := ApksInApex(context.Background(), &Dir{Root: t.TempDir()})
	require.NoError(t, err)
	assert.Empty(t, apks)
}
