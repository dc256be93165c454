package dextest

import (
	"archive/zip"
	"bytes"
	"sort"
)

// Jar returns a zip archive holding the given entries, written in sorted
// name order.
func Jar(entries map[string][]byte) []byte {
	names := make([]string, 0, len(entries))
	for n := range entries {
		names = append(names, n)
	}
	sort.Strings(names)

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for _, n := range names {
		f, err := w.Create(n)
		if err != nil {
			panic(err)
		}
		if _, err := f.Write(entries[n]); err != nil {
			panic(err)
		}
	}
	if err := w.Close(); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// DexJar returns a jar with a manifest and a single classes.dex defining
// the given classes.
func DexJar(descriptors ...string) []byte {
	return Jar(map[string][]byte{
		"META-INF/MANIFEST.MF": []byte("Manifest-Version: 1.0\n"),
		"classes.dex":          Build(descriptors...),
	})
}
