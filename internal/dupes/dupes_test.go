package dupes

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"strictjars/internal/model"
)

func snapshot(jars map[model.JarPath][]model.ClassName) *model.Snapshot {
	var contents []model.JarContents
	for j, cs := range jars {
		contents = append(contents, model.JarContents{Path: j, Classes: cs})
	}
	return model.NewSnapshot(contents)
}

type classSet map[model.ClassName]bool

func (s classSet) Contains(c model.ClassName) bool { return s[c] }

func TestDuplicatesScenario(t *testing.T) {
	snap := snapshot(map[model.JarPath][]model.ClassName{
		"A.jar": {"LFoo;", "LBar;"},
		"B.jar": {"LBar;", "LBaz;"},
	})
	got := Duplicates(snap, []model.JarPath{"A.jar", "B.jar"})
	want := model.ClassMap{"LBar;": {"A.jar", "B.jar"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Duplicates() mismatch (-want +got):\n%s", diff)
	}

	filtered, suppressed := Apply(got, NotIn("burndown:test", classSet{"LBar;": true}))
	assert.Empty(t, filtered)
	assert.Equal(t, map[string]int{"burndown:test": 1}, suppressed)
}

func TestDuplicatesSameApex(t *testing.T) {
	a := model.JarPath("/apex/com.example/javalib/a.jar")
	b := model.JarPath("/apex/com.example@340000000/javalib/b.jar")
	snap := snapshot(map[model.JarPath][]model.ClassName{
		a: {"LFoo;", "LBar;"},
		b: {"LBar;", "LBaz;"},
	})
	got := Duplicates(snap, []model.JarPath{a, b})
	assert.Len(t, got, 1)

	filtered, _ := Apply(got, NotSameApex())
	assert.Empty(t, filtered)
}

func TestDuplicatesAcrossApexesAreKept(t *testing.T) {
	a := model.JarPath("/apex/com.one/javalib/a.jar")
	b := model.JarPath("/apex/com.two/javalib/b.jar")
	c := model.JarPath("/system/framework/c.jar")
	snap := snapshot(map[model.JarPath][]model.ClassName{
		a: {"LX;", "LY;"},
		b: {"LX;"},
		c: {"LY;"},
	})
	filtered, suppressed := Apply(Duplicates(snap, []model.JarPath{a, b, c}), NotSameApex())
	assert.Equal(t, model.ClassMap{"LX;": {a, b}, "LY;": {a, c}}, filtered)
	assert.Empty(t, suppressed)
}

func TestDuplicatesSubset(t *testing.T) {
	snap := snapshot(map[model.JarPath][]model.ClassName{
		"A.jar": {"LFoo;"},
		"B.jar": {"LFoo;"},
		"C.jar": {"LFoo;"},
	})
	assert.Empty(t, Duplicates(snap, []model.JarPath{"A.jar"}))
	assert.Empty(t, Duplicates(snap, []model.JarPath{"A.jar", "A.jar"}))
	assert.Equal(t, model.ClassMap{"LFoo;": {"A.jar", "C.jar"}},
		Duplicates(snap, []model.JarPath{"C.jar", "A.jar", "missing.jar"}))
}

// Every class reported by Duplicates is defined by at least two of the
// selected jars, and every such class is reported.
func TestDuplicatesExact(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	jars := make(map[model.JarPath][]model.ClassName)
	var order []model.JarPath
	for i := 0; i < 12; i++ {
		j := model.JarPath(fmt.Sprintf("/system/framework/j%d.jar", i))
		order = append(order, j)
		for k := 0; k < 30; k++ {
			jars[j] = append(jars[j], model.ClassName(fmt.Sprintf("LC%d;", r.Intn(80))))
		}
	}
	snap := snapshot(jars)
	selected := order[:8]
	got := Duplicates(snap, selected)

	owners := make(map[model.ClassName]map[model.JarPath]bool)
	for _, j := range selected {
		for _, c := range jars[j] {
			if owners[c] == nil {
				owners[c] = make(map[model.JarPath]bool)
			}
			owners[c][j] = true
		}
	}
	for c, js := range owners {
		if len(js) >= 2 {
			assert.Len(t, got[c], len(js), "class %s", c)
		} else {
			assert.NotContains(t, got, c)
		}
	}
	for c := range got {
		assert.GreaterOrEqual(t, len(owners[c]), 2, "class %s", c)
	}

	// Running twice over the same snapshot gives the same answer.
	assert.Equal(t, got, Duplicates(snap, selected))
}

func TestLeaks(t *testing.T) {
	snap := snapshot(map[model.JarPath][]model.ClassName{
		"/system/framework/a.jar": {"Landroidx/core/Foo;", "Landroid/Bar;", "Lkotlin/Unit;"},
		"/system/framework/b.jar": {"Landroidx/core/Foo;"},
	})
	jars := []model.JarPath{"/system/framework/a.jar", "/system/framework/b.jar"}
	assert.Equal(t, model.ClassMap{
		"Landroidx/core/Foo;": {"/system/framework/a.jar", "/system/framework/b.jar"},
	}, Leaks(snap, jars, "Landroidx/"))
	assert.Equal(t, model.ClassMap{
		"Landroidx/core/Foo;": {"/system/framework/a.jar", "/system/framework/b.jar"},
		"Lkotlin/Unit;":       {"/system/framework/a.jar"},
	}, Leaks(snap, jars, "Landroidx/", "Lkotlin/"))
	assert.Empty(t, Leaks(snap, jars, "Lcom/google/protobuf/"))
}

func TestApexName(t *testing.T) {
	for jar, want := range map[model.JarPath]string{
		"/apex/com.android.art/javalib/core-oj.jar":        "com.android.art",
		"/apex/com.android.art@340090000/javalib/core.jar": "com.android.art",
		"/apex/com.android.tethering/priv-app/T/T.apk":     "com.android.tethering",
		"/system/framework/framework.jar":                  "",
		"/system/apex/com.android.art.apex":                "",
		"/apex/":                                           "",
	} {
		assert.Equal(t, want, ApexName(jar), string(jar))
	}
}

func TestSameApex(t *testing.T) {
	assert.False(t, SameApex(nil))
	assert.False(t, SameApex([]model.JarPath{"/system/a.jar", "/system/b.jar"}))
	assert.True(t, SameApex([]model.JarPath{"/apex/x/javalib/a.jar", "/apex/x/app/B/B.apk"}))
	assert.False(t, SameApex([]model.JarPath{"/apex/x/javalib/a.jar", "/apex/y/javalib/a.jar"}))
	assert.False(t, SameApex([]model.JarPath{"/apex/x/javalib/a.jar", "/system/a.jar"}))
}

func TestInvolvesApex(t *testing.T) {
	m := model.ClassMap{
		"LA;": {"/apex/x/javalib/a.jar", "/system/framework/a.jar"},
		"LB;": {"/system/framework/a.jar", "/system/framework/b.jar"},
	}
	got, suppressed := Apply(m, InvolvesApex())
	assert.Equal(t, model.ClassMap{"LA;": {"/apex/x/javalib/a.jar", "/system/framework/a.jar"}}, got)
	assert.Equal(t, map[string]int{"no-apex-jar": 1}, suppressed)
}

func TestNotSameSharedLibrary(t *testing.T) {
	libs := []model.SharedLibrary{
		{Name: "com.example.lib", Version: 1, Paths: []model.JarPath{"/system/lib_v1.jar"}},
		{Name: "com.example.lib", Version: 2, Paths: []model.JarPath{"/system/lib_v2.jar"}},
		{Name: "other", Paths: []model.JarPath{"/system/other.jar"}},
	}
	m := model.ClassMap{
		"LVersioned;": {"/system/lib_v1.jar", "/system/lib_v2.jar"},
		"LMixed;":     {"/system/lib_v1.jar", "/system/other.jar"},
		"LBoot;":      {"/system/framework/framework.jar", "/system/lib_v1.jar"},
	}
	got, suppressed := Apply(m, NotSameSharedLibrary(libs))
	assert.Equal(t, []model.ClassName{"LBoot;", "LMixed;"}, got.Classes())
	assert.Equal(t, 1, suppressed["same-shared-library"])
}

func TestApplyAttributesFirstFilter(t *testing.T) {
	m := model.ClassMap{
		"LA;": {"/apex/x/javalib/a.jar", "/apex/x/javalib/b.jar"},
		"LB;": {"/system/a.jar", "/system/b.jar"},
	}
	got, suppressed := Apply(m, NotIn("burndown:x", classSet{"LA;": true}), NotSameApex())
	assert.Equal(t, []model.ClassName{"LB;"}, got.Classes())
	assert.Equal(t, map[string]int{"burndown:x": 1}, suppressed)
	assert.Len(t, m, 2, "Apply must not modify its input")
}
