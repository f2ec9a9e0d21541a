/*
Copyright © 2025 Jayson Grace <jayson.e.grace@gmail.com>

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/

// Package batch runs the four subcommand passes over a list of targets and
// accounts every requested name into exactly one of three disjoint outcome
// sets: Succeeded, Failed, or Ignored.
package batch

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

// Failure records why one target failed, for the batch summary.
type Failure struct {
	Name   string
	Reason string
}

// Outcome is the per-invocation accounting of target results. A target name
// appears in exactly one of the three sets.
type Outcome struct {
	Succeeded []string
	Failed    []Failure
	Ignored   []string
}

// Succeed records a successful target.
func (o *Outcome) Succeed(name string) {
	o.Succeeded = append(o.Succeeded, name)
}

// Fail records a failed target with the reason shown in the summary.
func (o *Outcome) Fail(name string, err error) {
	reason := ""
	if err != nil {
		reason = err.Error()
	}
	o.Failed = append(o.Failed, Failure{Name: name, Reason: reason})
}

// Ignore records a target name the catalog does not recognize.
func (o *Outcome) Ignore(name string) {
	o.Ignored = append(o.Ignored, name)
}

// Len returns the total number of accounted targets.
func (o *Outcome) Len() int {
	return len(o.Succeeded) + len(o.Failed) + len(o.Ignored)
}

// HasFailures reports whether any target failed.
func (o *Outcome) HasFailures() bool {
	return len(o.Failed) > 0
}

// Fprint writes the three-section summary. Sections are titled and printed
// only when non-empty.
func (o *Outcome) Fprint(w io.Writer) {
	if len(o.Succeeded) > 0 {
		fmt.Fprintln(w, color.GreenString("Succeeded:"))
		for _, name := range o.Succeeded {
			fmt.Fprintf(w, "  %s\n", name)
		}
	}
	if len(o.Failed) > 0 {
		fmt.Fprintln(w, color.RedString("Failed:"))
		for _, f := range o.Failed {
			if f.Reason != "" {
				fmt.Fprintf(w, "  %s: %s\n", f.Name, f.Reason)
			} else {
				fmt.Fprintf(w, "  %s\n", f.Name)
			}
		}
	}
	if len(o.Ignored) > 0 {
		fmt.Fprintln(w, color.YellowString("Ignored:"))
		for _, name := range o.Ignored {
			fmt.Fprintf(w, "  %s\n", name)
		}
	}
}
