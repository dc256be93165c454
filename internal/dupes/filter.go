package dupes

import (
	"strictjars/internal/model"
)

// A Filter decides whether a class map entry is still reported.
type Filter struct {
	// Name identifies the filter in reports, e.g. "burndown:bcp-shared-lib".
	Name string
	// Keep returns false to suppress the entry.
	Keep func(class model.ClassName, jars []model.JarPath) bool
}

// Apply runs every filter over m and returns the entries all of them keep.
// suppressed counts the removed entries by the first filter that dropped
// them. m is not modified.
func Apply(m model.ClassMap, filters ...Filter) (kept model.ClassMap, suppressed map[string]int) {
	kept = make(model.ClassMap, len(m))
	suppressed = make(map[string]int)
entries:
	for c, jars := range m {
		for _, f := range filters {
			if !f.Keep(c, jars) {
				suppressed[f.Name]++
				continue entries
			}
		}
		kept[c] = jars
	}
	return kept, suppressed
}

// ClassSet is anything that can answer membership for a class, such as a
// burn-down list.
type ClassSet interface {
	Contains(model.ClassName) bool
}

// NotIn suppresses classes contained in set.
func NotIn(name string, set ClassSet) Filter {
	return Filter{
		Name: name,
		Keep: func(c model.ClassName, _ []model.JarPath) bool {
			return !set.Contains(c)
		},
	}
}

// NotSameApex suppresses duplicates whose jars all ship in the same apex.
// That is packaging redundancy inside one module, not a real duplicate.
func NotSameApex() Filter {
	return Filter{
		Name: "same-apex",
		Keep: func(_ model.ClassName, jars []model.JarPath) bool {
			return !SameApex(jars)
		},
	}
}

// InvolvesApex keeps only entries with at least one jar under /apex/.
func InvolvesApex() Filter {
	return Filter{
		Name: "no-apex-jar",
		Keep: func(_ model.ClassName, jars []model.JarPath) bool {
			for _, j := range jars {
				if IsApexPath(j) {
					return true
				}
			}
			return false
		},
	}
}

// NotSameSharedLibrary suppresses duplicates whose jars are all versions
// of one named shared library. A jar that belongs to no library stands
// for itself.
func NotSameSharedLibrary(libs []model.SharedLibrary) Filter {
	return Filter{
		Name: "same-shared-library",
		Keep: func(_ model.ClassName, jars []model.JarPath) bool {
			return !sameLibrary(jars, libs)
		},
	}
}

func sameLibrary(jars []model.JarPath, libs []model.SharedLibrary) bool {
	names := make(map[string]bool)
	for _, j := range jars {
		names[libraryNameOrPath(j, libs)] = true
	}
	return len(names) == 1
}

// libraryNameOrPath returns the name of the first library owning jar, or
// the jar path when no library does.
func libraryNameOrPath(jar model.JarPath, libs []model.SharedLibrary) string {
	for _, l := range libs {
		if l.Owns(jar) {
			return l.Name
		}
	}
	return string(jar)
}
