// Package dupes finds classes defined by more than one jar and filters
// out the duplicates that are known or expected.
package dupes

import (
	"slices"
	"strings"

	"strictjars/internal/model"
)

// Invert maps every class of the given jars to the jars defining it. Jars
// missing from snap contribute nothing; a jar listed twice counts once.
func Invert(snap *model.Snapshot, jars []model.JarPath) model.ClassMap {
	m := make(model.ClassMap)
	seen := make(map[model.JarPath]bool, len(jars))
	for _, jar := range jars {
		if seen[jar] {
			continue
		}
		seen[jar] = true
		for _, c := range snap.Classes(jar) {
			m[c] = append(m[c], jar)
		}
	}
	for c := range m {
		slices.Sort(m[c])
	}
	return m
}

// Duplicates returns the classes defined by two or more of jars.
func Duplicates(snap *model.Snapshot, jars []model.JarPath) model.ClassMap {
	m := Invert(snap, jars)
	for c, owners := range m {
		if len(owners) < 2 {
			delete(m, c)
		}
	}
	return m
}

// Leaks returns the classes of jars whose descriptor starts with any of
// prefixes, such as Landroidx/.
func Leaks(snap *model.Snapshot, jars []model.JarPath, prefixes ...string) model.ClassMap {
	m := Invert(snap, jars)
	for c := range m {
		if !hasAnyPrefix(string(c), prefixes) {
			delete(m, c)
		}
	}
	return m
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
