package checks

import (
	"fmt"
	"log/slog"

	"strictjars/internal/model"
)

// Status is the outcome of a check.
type Status string

const (
	Pass    Status = "pass"
	Fail    Status = "fail"
	Skipped Status = "skipped"
)

// Result is the outcome of running one check.
type Result struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Status      Status         `json:"status"`
	Reason      string         `json:"reason,omitempty"` // why the check was skipped
	Offending   model.ClassMap `json:"offending,omitempty"`
	Suppressed  map[string]int `json:"suppressed,omitempty"` // filter name -> entries it hid
	Advice      string         `json:"advice,omitempty"`
}

// Icon returns the status icon for the result.
func (r Result) Icon() string {
	switch r.Status {
	case Pass:
		return model.IconPass
	case Fail:
		return model.IconFail
	}
	return model.IconSkipped
}

// SuppressedTotal is the number of entries hidden by all filters.
func (r Result) SuppressedTotal() int {
	n := 0
	for _, v := range r.Suppressed {
		n += v
	}
	return n
}

// Run evaluates checks against env. A check passes when nothing is left
// after its filters.
func Run(env *Env, checks []Check, logger *slog.Logger) []Result {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "checks"))

	results := make([]Result, 0, len(checks))
	for _, c := range checks {
		r := Result{Name: c.Name, Description: c.Description}
		if !runnable(c, env.APILevel) {
			r.Status = Skipped
			r.Reason = fmt.Sprintf("requires API level %d, device is %d", c.MinAPILevel, env.APILevel)
			logger.Info("check skipped", slog.String("check", c.Name), slog.String("reason", r.Reason))
			results = append(results, r)
			continue
		}

		offending, suppressed := c.find(env)
		if len(suppressed) > 0 {
			r.Suppressed = suppressed
		}
		if len(offending) == 0 {
			r.Status = Pass
		} else {
			r.Status = Fail
			r.Offending = offending
			r.Advice = c.Advice
		}
		logger.Info("check finished",
			slog.String("check", c.Name),
			slog.String("status", string(r.Status)),
			slog.Int("offending", len(offending)),
			slog.Int("suppressed", r.SuppressedTotal()))
		results = append(results, r)
	}
	return results
}

// Failed reports whether any result failed.
func Failed(results []Result) bool {
	for _, r := range results {
		if r.Status == Fail {
			return true
		}
	}
	return false
}
