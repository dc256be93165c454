package model

import (
	"slices"
	"sort"
)

// JarContents is what one pulled jar contributes to a Snapshot.
type JarContents struct {
	Path    JarPath
	Files   []string    // zip entry names
	Classes []ClassName // top-level class descriptors only
}

// Snapshot is the class and file inventory of a set of jars, taken once
// per run. It is never modified after NewSnapshot returns.
type Snapshot struct {
	jars    []JarPath
	classes map[JarPath][]ClassName
	files   map[JarPath][]string
}

// NewSnapshot builds a Snapshot from per-jar results. Jar order is kept;
// class and file lists are sorted and deduplicated. A jar listed twice
// keeps its first contents.
func NewSnapshot(contents []JarContents) *Snapshot {
	s := &Snapshot{
		classes: make(map[JarPath][]ClassName, len(contents)),
		files:   make(map[JarPath][]string, len(contents)),
	}
	for _, c := range contents {
		if _, ok := s.classes[c.Path]; ok {
			continue
		}
		s.jars = append(s.jars, c.Path)

		classes := slices.Clone(c.Classes)
		slices.Sort(classes)
		s.classes[c.Path] = slices.Compact(classes)

		files := slices.Clone(c.Files)
		slices.Sort(files)
		s.files[c.Path] = slices.Compact(files)
	}
	return s
}

// Jars returns the inventoried jars in the order they were added.
func (s *Snapshot) Jars() []JarPath {
	return slices.Clone(s.jars)
}

// Has reports whether jar was inventoried.
func (s *Snapshot) Has(jar JarPath) bool {
	_, ok := s.classes[jar]
	return ok
}

// Classes returns the sorted top-level classes defined in jar.
func (s *Snapshot) Classes(jar JarPath) []ClassName {
	return slices.Clone(s.classes[jar])
}

// Files returns the sorted zip entry names of jar.
func (s *Snapshot) Files(jar JarPath) []string {
	return slices.Clone(s.files[jar])
}

// ClassCount is the number of (jar, class) pairs in the snapshot.
func (s *Snapshot) ClassCount() int {
	n := 0
	for _, c := range s.classes {
		n += len(c)
	}
	return n
}

// ClassMap maps a class to the jars that define it. Jar lists are sorted
// and hold no repeats.
type ClassMap map[ClassName][]JarPath

// Classes returns the keys of m in sorted order.
func (m ClassMap) Classes() []ClassName {
	keys := make([]ClassName, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Jars returns every jar that appears in m, sorted.
func (m ClassMap) Jars() []JarPath {
	seen := make(map[JarPath]bool)
	var jars []JarPath
	for _, js := range m {
		for _, j := range js {
			if !seen[j] {
				seen[j] = true
				jars = append(jars, j)
			}
		}
	}
	slices.Sort(jars)
	return jars
}
