// SPDX-License-Identifier: MPL-2.0

package reload

import (
	"strings"
)

// Flatten renders an error and its whole cause chain as newline-separated
// text, outermost first. Branches of multi-errors (errors.Join, or any error
// with Unwrap() []error) are visited depth-first in order.
//
// Each level contributes only its own part of the message: a level created
// with fmt.Errorf("context: %w", cause) yields "context", one created with
// fmt.Errorf("a: %w, b: %w", e1, e2) yields "a, b", and a level whose message
// is exactly its cause's message yields nothing. Repeated lines are
// emitted once.
func Flatten(err error) string {
	if err == nil {
		return ""
	}
	f := flattener{seen: make(map[string]bool)}
	f.walk(err)
	return strings.Join(f.lines, "\n")
}

type flattener struct {
	lines []string
	seen  map[string]bool
}

func (f *flattener) walk(err error) {
	children := causes(err)
	own := err.Error()
	for i := len(children) - 1; i >= 0; i-- {
		own = trimCause(own, children[i].Error())
	}
	for line := range strings.SplitSeq(own, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || f.seen[line] {
			continue
		}
		f.seen[line] = true
		f.lines = append(f.lines, line)
	}
	for _, c := range children {
		f.walk(c)
	}
}

func causes(err error) []error {
	switch u := err.(type) {
	case interface{ Unwrap() []error }:
		var out []error
		for _, c := range u.Unwrap() {
			if c != nil {
				out = append(out, c)
			}
		}
		return out
	case interface{ Unwrap() error }:
		if c := u.Unwrap(); c != nil {
			return []error{c}
		}
	}
	return nil
}

// causeSeparators are trimmed from the fragments left around a removed cause.
const causeSeparators = " :,;\n\t"

// trimCause removes every occurrence of the cause's message from msg, along
// with the separators around it and parentheses that enclosed only the
// cause. Remaining fragments are joined with ", ", so
// "a: <e1>, b: <e2>" reduces to "a, b" once both causes are removed.
func trimCause(msg, cause string) string {
	if cause == "" || !strings.Contains(msg, cause) {
		return msg
	}
	var kept []string
	rest := msg
	for {
		before, after, found := strings.Cut(rest, cause)
		if !found {
			break
		}
		if strings.HasSuffix(before, "(") && strings.HasPrefix(after, ")") {
			before, after = before[:len(before)-1], after[1:]
		}
		kept = appendFragment(kept, before)
		rest = after
	}
	kept = appendFragment(kept, rest)
	return strings.Join(kept, ", ")
}

func appendFragment(kept []string, s string) []string {
	if s = strings.Trim(s, causeSeparators); s != "" {
		kept = append(kept, s)
	}
	return kept
}
