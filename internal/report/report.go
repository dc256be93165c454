// Package report renders check results for people and for tools.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"strictjars/internal/burndown"
	"strictjars/internal/checks"
	"strictjars/internal/model"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	passStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	failStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	skipStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

	classStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("81")).Bold(true)
	jarStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	adviceStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("208")) // Orange
)

// Badge returns the styled status label of r.
func Badge(r checks.Result) string {
	switch r.Status {
	case checks.Pass:
		return passStyle.Render(r.Icon() + " PASS")
	case checks.Fail:
		return failStyle.Render(r.Icon() + " FAIL")
	}
	return skipStyle.Render(r.Icon() + " SKIP")
}

// Text renders results as a report for a terminal or a file. With verbose
// set, passing checks show their description and every check lists the
// entries its filters suppressed.
func Text(results []checks.Result, verbose bool) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("strictjars " + model.Version))
	b.WriteString("\n\n")

	var passed, failed, skipped int
	for _, r := range results {
		switch r.Status {
		case checks.Pass:
			passed++
		case checks.Fail:
			failed++
		default:
			skipped++
		}

		fmt.Fprintf(&b, "%s %s\n", Badge(r), r.Name)
		if verbose || r.Status == checks.Fail {
			b.WriteString(dimStyle.Render("    "+r.Description) + "\n")
		}
		if r.Status == checks.Skipped {
			b.WriteString(dimStyle.Render("    "+r.Reason) + "\n")
		}
		if len(r.Offending) > 0 {
			b.WriteString("\n")
			b.WriteString(Offending(r.Offending, "    "))
			b.WriteString("\n")
			if r.Advice != "" {
				b.WriteString(adviceStyle.Render("    "+r.Advice) + "\n")
			}
		}
		if verbose && len(r.Suppressed) > 0 {
			b.WriteString(Suppressed(r.Suppressed, "    "))
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "%d passed, %d failed, %d skipped\n", passed, failed, skipped)
	return b.String()
}

// Offending pretty-prints m as each class followed by its jars, one per
// line, both in sorted order. A class held by one jar is marked as a leak.
func Offending(m model.ClassMap, indent string) string {
	var b strings.Builder
	classes := m.Classes()
	jars := len(m.Jars())
	fmt.Fprintf(&b, "%s%d offending %s across %d %s:\n",
		indent, len(classes), plural(len(classes), "class", "classes"), jars, plural(jars, "jar", "jars"))
	for _, c := range classes {
		icon := model.IconDuplicate
		if len(m[c]) < 2 {
			icon = model.IconLeak
		}
		b.WriteString(indent + "  " + icon + " " + classStyle.Render(string(c)) + "\n")
		for _, j := range m[c] {
			b.WriteString(indent + "    " + jarStyle.Render(string(j)) + "\n")
		}
	}
	return b.String()
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

// Suppressed lists how many entries each filter hid, by filter name.
func Suppressed(s map[string]int, indent string) string {
	names := make([]string, 0, len(s))
	for n := range s {
		names = append(names, n)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, n := range names {
		b.WriteString(dimStyle.Render(fmt.Sprintf("%s%s %d suppressed by %s", indent, model.IconSuppressed, s[n], n)))
		b.WriteString("\n")
	}
	return b.String()
}

// Catalog lists the available checks and the burn-down lists in effect,
// with the number of classes each list allows.
func Catalog(all []checks.Check, reg *burndown.Registry) string {
	var b strings.Builder
	b.WriteString("Checks:\n")
	for _, c := range all {
		fmt.Fprintf(&b, "  %-50s %s\n", c.Name, c.Description)
	}
	b.WriteString("\nBurn-down lists:\n")
	for _, n := range reg.Names() {
		l := reg.Get(n)
		fmt.Fprintf(&b, "  %-50s %d %s\n", l.Name(), l.Len(), plural(l.Len(), "class", "classes"))
	}
	return b.String()
}

// Document is the JSON form of a run.
type Document struct {
	Version  string          `json:"version"`
	Device   string          `json:"device,omitempty"`
	APILevel int             `json:"api_level,omitempty"`
	Failed   bool            `json:"failed"`
	Results  []checks.Result `json:"results"`
}

// NewDocument wraps results with the facts of the device they ran on. env
// may be nil.
func NewDocument(env *checks.Env, results []checks.Result) Document {
	doc := Document{
		Version: model.Version,
		Failed:  checks.Failed(results),
		Results: results,
	}
	if doc.Results == nil {
		doc.Results = []checks.Result{}
	}
	if env != nil {
		doc.Device = env.Device
		doc.APILevel = env.APILevel
	}
	return doc
}

// JSON writes doc as indented JSON. Map keys are sorted, so equal runs
// produce identical output.
func JSON(w io.Writer, doc Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}
