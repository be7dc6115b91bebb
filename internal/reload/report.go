// SPDX-License-Identifier: MPL-2.0

package reload

import (
	"fmt"
	"strings"
)

// Summary classifies which part of a run failed.
const (
	SummaryNone Summary = iota
	SummarySelectedOnly
	SummarySelectedAndDependencies
	SummaryDependenciesOnly
)

type (
	// Summary is the shape of a run's failures, used to pick the notice text.
	Summary int

	// Outcome is the result of one reload attempt. Err is nil on success;
	// otherwise Detail holds the flattened cause chain.
	Outcome struct {
		Label    string
		ID       ProjectID
		Selected bool
		Err      error
		Detail   string
	}

	// Report lists the outcome of every attempt of a run, selected project
	// first, then dependencies in discovery order.
	Report struct {
		Outcomes []Outcome
	}
)

// Ok reports whether the attempt succeeded.
func (o Outcome) Ok() bool { return o.Err == nil }

func (o *Outcome) fail(err error) {
	o.Err = err
	o.Detail = Flatten(err)
}

// Failures returns the failed outcomes in attempt order.
func (r *Report) Failures() []Outcome {
	if r == nil {
		return nil
	}
	var failed []Outcome
	for _, o := range r.Outcomes {
		if !o.Ok() {
			failed = append(failed, o)
		}
	}
	return failed
}

// HasFailures reports whether any attempt failed.
func (r *Report) HasFailures() bool {
	return len(r.Failures()) > 0
}

// Summary classifies the report's failures.
func (r *Report) Summary() Summary {
	if r == nil {
		return SummaryNone
	}
	return Summarize(r.Outcomes)
}

// LogLines renders one block per failure: the label, the flattened detail
// lines and an empty separator line.
func (r *Report) LogLines() []string {
	var lines []string
	for _, f := range r.Failures() {
		lines = append(lines, f.Label)
		if f.Detail != "" {
			lines = append(lines, strings.Split(f.Detail, "\n")...)
		}
		lines = append(lines, "")
	}
	return lines
}

// Summarize derives the failure shape from a sequence of outcomes.
func Summarize(outcomes []Outcome) Summary {
	var selectedFailed, depFailed bool
	for _, o := range outcomes {
		if o.Ok() {
			continue
		}
		if o.Selected {
			selectedFailed = true
		} else {
			depFailed = true
		}
	}
	switch {
	case selectedFailed && depFailed:
		return SummarySelectedAndDependencies
	case selectedFailed:
		return SummarySelectedOnly
	case depFailed:
		return SummaryDependenciesOnly
	default:
		return SummaryNone
	}
}

// Message returns the user-facing notice text. SummaryNone has no message.
func (s Summary) Message() string {
	var head string
	switch s {
	case SummarySelectedOnly:
		head = "Failed to reload the selected project."
	case SummarySelectedAndDependencies:
		head = "Failed to reload the selected project and some of its dependencies."
	case SummaryDependenciesOnly:
		head = "Failed to reload some of the selected project's dependencies."
	default:
		return ""
	}
	return fmt.Sprintf("%s See the %q output pane for details.", head, Title)
}

// String returns a short name for the summary.
func (s Summary) String() string {
	switch s {
	case SummaryNone:
		return "none"
	case SummarySelectedOnly:
		return "selected-only"
	case SummarySelectedAndDependencies:
		return "selected-and-dependencies"
	case SummaryDependenciesOnly:
		return "dependencies-only"
	default:
		return fmt.Sprintf("Summary(%d)", int(s))
	}
}
