// Package checks defines the duplicate and leakage checks run against a
// device snapshot.
package checks

import (
	"path"
	"strings"

	"github.com/pkg/errors"

	"strictjars/internal/burndown"
	"strictjars/internal/dupes"
	"strictjars/internal/model"
)

// Inputs a check reads from the Env, used to avoid querying or pulling
// what no selected check needs.
type Inputs uint8

const (
	NeedsBootClasspath Inputs = 1 << iota
	NeedsSystemServerClasspath
	NeedsSharedLibraries
	NeedsApexApks
)

// Check is one named assertion over a snapshot.
type Check struct {
	Name        string
	Description string
	// MinAPILevel skips the check on older devices; 0 runs everywhere.
	MinAPILevel int
	Inputs      Inputs
	// Advice is shown next to a failure to help whoever triages it.
	Advice string

	find func(env *Env) (offending model.ClassMap, suppressed map[string]int)
}

const (
	duplicateAdvice = "Each class must be defined by exactly one jar. Remove it from all but one jar, " +
		"or jarjar the copy into a private package."
	leakAdvice = "Library classes must not be visible on the platform classpaths. " +
		"Jarjar them into a package owned by the jar that bundles them."
)

var registry = []Check{
	{
		Name:        "bootclasspath",
		Description: "No duplicate classes among BOOTCLASSPATH jars",
		MinAPILevel: 30,
		Inputs:      NeedsBootClasspath,
		Advice:      duplicateAdvice,
		find: func(env *Env) (model.ClassMap, map[string]int) {
			return dupes.Apply(dupes.Duplicates(env.Snapshot, env.BootClasspath))
		},
	},
	{
		Name:        "systemserverclasspath",
		Description: "No duplicate classes among SYSTEMSERVERCLASSPATH jars",
		MinAPILevel: 30,
		Inputs:      NeedsSystemServerClasspath,
		Advice:      duplicateAdvice,
		find: func(env *Env) (model.ClassMap, map[string]int) {
			return dupes.Apply(dupes.Duplicates(env.Snapshot, env.SystemServerClasspath))
		},
	},
	{
		Name:        "bootclasspath-and-systemserverclasspath",
		Description: "No duplicate classes among BOOTCLASSPATH and SYSTEMSERVERCLASSPATH jars",
		MinAPILevel: 30,
		Inputs:      NeedsBootClasspath | NeedsSystemServerClasspath,
		Advice:      duplicateAdvice,
		find: func(env *Env) (model.ClassMap, map[string]int) {
			return dupes.Apply(dupes.Duplicates(env.Snapshot, env.platformJars()),
				env.burndown(burndown.BootAndSystemServerOverlap))
		},
	},
	{
		Name:        "bootclasspath-apex-jars",
		Description: "No duplicate classes involving APEX jars on BOOTCLASSPATH",
		Inputs:      NeedsBootClasspath,
		Advice:      duplicateAdvice,
		find: func(env *Env) (model.ClassMap, map[string]int) {
			return dupes.Apply(dupes.Duplicates(env.Snapshot, env.BootClasspath), dupes.InvolvesApex())
		},
	},
	{
		Name:        "systemserverclasspath-apex-jars",
		Description: "No duplicate classes involving APEX jars on SYSTEMSERVERCLASSPATH",
		Inputs:      NeedsSystemServerClasspath,
		Advice:      duplicateAdvice,
		find: func(env *Env) (model.ClassMap, map[string]int) {
			return dupes.Apply(dupes.Duplicates(env.Snapshot, env.SystemServerClasspath), dupes.InvolvesApex())
		},
	},
	{
		Name:        "bootclasspath-and-systemserverclasspath-apex-jars",
		Description: "No duplicate classes involving APEX jars across BOOTCLASSPATH and SYSTEMSERVERCLASSPATH",
		Inputs:      NeedsBootClasspath | NeedsSystemServerClasspath,
		Advice:      duplicateAdvice,
		find: func(env *Env) (model.ClassMap, map[string]int) {
			return dupes.Apply(dupes.Duplicates(env.Snapshot, env.platformJars()),
				env.burndown(burndown.BootAndSystemServerOverlap),
				dupes.InvolvesApex())
		},
	},
	{
		Name:        "bootclasspath-and-shared-libs",
		Description: "No duplicate classes among BOOTCLASSPATH and shared library jars",
		MinAPILevel: 30,
		Inputs:      NeedsBootClasspath | NeedsSharedLibraries,
		Advice: "A shared library must not bundle classes that are already on BOOTCLASSPATH. " +
			"Versions of the same library may overlap.",
		find: func(env *Env) (model.ClassMap, map[string]int) {
			jars := append(append([]model.JarPath{}, env.BootClasspath...), env.SharedLibraryJars...)
			return dupes.Apply(dupes.Duplicates(env.Snapshot, jars),
				env.burndown(burndown.BootAndSharedLibrary),
				dupes.NotSameSharedLibrary(env.SharedLibraries))
		},
	},
	{
		Name:        "apk-in-apex",
		Description: "Apks inside APEX modules do not redefine BOOTCLASSPATH or SYSTEMSERVERCLASSPATH classes",
		Inputs:      NeedsBootClasspath | NeedsSystemServerClasspath | NeedsApexApks,
		Advice: "The platform classpaths shadow classes bundled in an apk. " +
			"Depend on the platform copy or jarjar the bundled one.",
		find: apkInApex,
	},
	leakCheck("androidx-leakage", "androidx", "Landroidx/", burndown.AndroidxLeakage),
	leakCheck("kotlin-stdlib-leakage", "the Kotlin standard library", "Lkotlin/", burndown.KotlinLeakage),
	leakCheck("protobuf-leakage", "un-jarjared protobuf", "Lcom/google/protobuf/", burndown.ProtobufLeakage),
}

func leakCheck(name, what, prefix, list string) Check {
	return Check{
		Name:        name,
		Description: "No classes from " + what + " on BOOTCLASSPATH or SYSTEMSERVERCLASSPATH",
		Inputs:      NeedsBootClasspath | NeedsSystemServerClasspath,
		Advice:      leakAdvice,
		find: func(env *Env) (model.ClassMap, map[string]int) {
			return dupes.Apply(dupes.Leaks(env.Snapshot, env.platformJars(), prefix), env.burndown(list))
		},
	}
}

// apkInApex checks each apk against the platform jars on its own, so that
// grouping by apex only ever compares an apk with jars it could collide
// with at runtime.
func apkInApex(env *Env) (model.ClassMap, map[string]int) {
	offending := make(model.ClassMap)
	suppressed := make(map[string]int)
	platform := env.platformJars()
	for _, apk := range env.ApexApks {
		jars := append(append([]model.JarPath{}, platform...), apk)
		involving := make(model.ClassMap)
		for c, owners := range dupes.Duplicates(env.Snapshot, jars) {
			for _, o := range owners {
				if o == apk {
					involving[c] = owners
					break
				}
			}
		}
		kept, s := dupes.Apply(involving, env.burndown(burndown.ApkInApex), dupes.NotSameApex())
		for name, n := range s {
			suppressed[name] += n
		}
		for c, owners := range kept {
			offending[c] = mergeSorted(offending[c], owners)
		}
	}
	return offending, suppressed
}

func mergeSorted(a, b []model.JarPath) []model.JarPath {
	seen := make(map[model.JarPath]bool, len(a)+len(b))
	var out []model.JarPath
	for _, j := range append(append([]model.JarPath{}, a...), b...) {
		if !seen[j] {
			seen[j] = true
			out = append(out, j)
		}
	}
	sortJars(out)
	return out
}

// All returns every check in registry order.
func All() []Check {
	return append([]Check(nil), registry...)
}

// Select returns the checks whose names match any of patterns, in
// registry order. Patterns use path.Match syntax. No patterns selects
// everything; a pattern matching nothing is an error.
func Select(patterns []string) ([]Check, error) {
	if len(patterns) == 0 {
		return All(), nil
	}
	selected := make([]bool, len(registry))
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		matched := false
		for i, c := range registry {
			ok, err := path.Match(p, c.Name)
			if err != nil {
				return nil, errors.Wrapf(err, "bad check pattern %q", p)
			}
			if ok {
				selected[i] = true
				matched = true
			}
		}
		if !matched {
			return nil, errors.Errorf("no check matches %q", p)
		}
	}
	var out []Check
	for i, c := range registry {
		if selected[i] {
			out = append(out, c)
		}
	}
	return out, nil
}
