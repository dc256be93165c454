// Package burndown holds the frozen lists of duplicate or leaked classes
// that predate the checks. The lists may only shrink.
package burndown

import (
	"bufio"
	"bytes"
	"embed"
	"encoding/json"
	"io"
	"io/fs"
	"os"
	"path"
	"sort"
	"unicode"

	"github.com/pkg/errors"

	"strictjars/internal/model"
)

// Names of the built-in lists.
const (
	BootAndSystemServerOverlap = "bcp-sscp-overlap"
	BootAndSharedLibrary       = "bcp-shared-lib"
	ApkInApex                  = "apk-in-apex"
	AndroidxLeakage            = "androidx-leakage"
	KotlinLeakage              = "kotlin-leakage"
	ProtobufLeakage            = "protobuf-leakage"
)

//go:embed lists/*.json
var builtin embed.FS

// List is a named set of classes.
type List struct {
	name    string
	classes map[model.ClassName]bool
}

func (l *List) Name() string { return l.name }

func (l *List) Contains(c model.ClassName) bool { return l.classes[c] }

func (l *List) Len() int { return len(l.classes) }

// Classes returns the members in sorted order.
func (l *List) Classes() []model.ClassName {
	out := make([]model.ClassName, 0, len(l.classes))
	for c := range l.classes {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Registry is the set of lists in effect for a run. It is not modified
// after Load returns.
type Registry struct {
	lists map[string]*List
}

// Get returns the list called name. A name nobody defined, or a nil
// Registry, yields an empty list.
func (r *Registry) Get(name string) *List {
	if r == nil {
		return &List{name: name}
	}
	if l, ok := r.lists[name]; ok {
		return l
	}
	return &List{name: name}
}

// Names returns the defined list names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.lists))
	for n := range r.lists {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Load reads the built-in lists and merges in the given files. Classes in
// a file are added to the list of the same name.
func Load(files ...string) (*Registry, error) {
	r := &Registry{lists: make(map[string]*List)}

	entries, err := fs.ReadDir(builtin, "lists")
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		name := path.Join("lists", e.Name())
		b, err := builtin.ReadFile(name)
		if err != nil {
			return nil, err
		}
		if err := r.merge(bytes.NewReader(b), name); err != nil {
			return nil, err
		}
	}

	for _, file := range files {
		f, err := os.Open(file)
		if err != nil {
			return nil, errors.Wrap(err, "failed to open burn-down file")
		}
		err = r.merge(f, file)
		f.Close()
		if err != nil {
			return nil, err
		}
	}
	return r, nil
}

// ListSpec is the on-disk form of a list.
type ListSpec struct {
	Name    string   `json:"name"`
	Classes []string `json:"classes"`
}

func (r *Registry) merge(in io.Reader, source string) error {
	lists, err := Parse(in)
	if err != nil {
		return errors.Wrapf(err, "failed to parse %s", source)
	}
	for _, jl := range lists {
		if jl.Name == "" {
			return errors.Errorf("%s: list without a name", source)
		}
		l, ok := r.lists[jl.Name]
		if !ok {
			l = &List{name: jl.Name, classes: make(map[model.ClassName]bool)}
			r.lists[jl.Name] = l
		}
		for _, c := range jl.Classes {
			l.classes[model.ClassName(c)] = true
		}
	}
	return nil
}

// Parse decodes one list object or an array of them. Lines whose first
// non-blank characters are // are comments.
func Parse(in io.Reader) ([]ListSpec, error) {
	b, err := io.ReadAll(newJSONCommentStripper(in))
	if err != nil {
		return nil, err
	}
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return nil, nil
	}
	if b[0] == '[' {
		var lists []ListSpec
		if err := json.Unmarshal(b, &lists); err != nil {
			return nil, err
		}
		return lists, nil
	}
	var l ListSpec
	if err := json.Unmarshal(b, &l); err != nil {
		return nil, err
	}
	return []ListSpec{l}, nil
}

func newJSONCommentStripper(r io.Reader) *jsonCommentStripper {
	return &jsonCommentStripper{
		r: bufio.NewReader(r),
	}
}

type jsonCommentStripper struct {
	r   *bufio.Reader
	b   []byte
	err error
}

func (j *jsonCommentStripper) Read(buf []byte) (int, error) {
	for len(j.b) == 0 {
		if j.err != nil {
			return 0, j.err
		}

		j.b, j.err = j.r.ReadBytes('\n')

		if isComment(j.b) {
			j.b = nil
		}
	}

	n := copy(buf, j.b)
	j.b = j.b[n:]
	return n, nil
}

var commentPrefix = []byte("//")

func isComment(b []byte) bool {
	for len(b) > 0 && unicode.IsSpace(rune(b[0])) {
		b = b[1:]
	}
	return bytes.HasPrefix(b, commentPrefix)
}
