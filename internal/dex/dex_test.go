package dex

import (
	"encoding/binary"
	"hash/adler32"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"strictjars/internal/dex/dextest"
)

func TestClassDescriptors(t *testing.T) {
	want := []string{
		"Landroid/foo/Bar;",
		"Landroid/foo/Bar$Inner;",
		"Lcom/example/Café;",
		"Lcom/example/\U0001F600;",
	}
	got, err := ClassDescriptors(dextest.Build(want...))
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestClassDescriptorsEmpty(t *testing.T) {
	got, err := ClassDescriptors(dextest.Build())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestClassDescriptorsErrors(t *testing.T) {
	valid := dextest.Build("La/B;")

	testCases := []struct {
		name   string
		mutate func(b []byte) []byte
	}{
		{"short", func(b []byte) []byte { return b[:0x20] }},
		{"magic", func(b []byte) []byte { b[0] = 'x'; return b }},
		{"endian", func(b []byte) []byte { binary.LittleEndian.PutUint32(b[0x28:], 0x78563412); return b }},
		{"checksum", func(b []byte) []byte { b[len(b)-2] ^= 0xff; return b }},
		{"truncated", func(b []byte) []byte { return b[:len(b)-4] }},
		{"type index", func(b []byte) []byte {
			binary.LittleEndian.PutUint32(b[0x70+4+4:], 7)
			return resum(b)
		}},
		{"string offset", func(b []byte) []byte {
			binary.LittleEndian.PutUint32(b[0x70:], 0xffffff)
			return resum(b)
		}},
		{"string length", func(b []byte) []byte {
			// A length of 0xffffffff must not be trusted for allocation.
			off := binary.LittleEndian.Uint32(b[0x70:])
			b = append(b[:off], append([]byte{0xff, 0xff, 0xff, 0xff, 0x0f}, b[off+1:]...)...)
			binary.LittleEndian.PutUint32(b[0x20:], uint32(len(b)))
			return resum(b)
		}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			b := append([]byte(nil), valid...)
			_, err := ClassDescriptors(tc.mutate(b))
			assert.Error(t, err)
		})
	}
}

func TestIsDexEntry(t *testing.T) {
	for name, want := range map[string]bool{
		"classes.dex":          true,
		"classes2.dex":         true,
		"classes12.dex":        true,
		"lib/classes.dex":      false,
		"classes.dex.bak":      false,
		"Classes.dex":          false,
		"classesx.dex":         false,
		"META-INF/MANIFEST.MF": false,
	} {
		assert.Equal(t, want, IsDexEntry(name), name)
	}
}

// resum recomputes the checksum so that only the intended corruption is
// detected.
func resum(b []byte) []byte {
	binary.LittleEndian.PutUint32(b[0x08:], adler32.Checksum(b[0x0c:]))
	return b
}
