// Copyright (c) 2024 The HIRXC Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package diagnostic implements the error taxonomy of spec.md §7 (Bug /
// User error / RecursionDetected; there is no separate Deferred category)
// and collects them into
// golang.org/x/tools/go/analysis.Diagnostic values the driver can render,
// the same output shape the teacher's own diagnostic engine produces.
package diagnostic

import (
	"fmt"
	"go/token"

	"golang.org/x/tools/go/analysis"
)

// Bug panics with a span-annotated message, for invariant violations that
// indicate a defect in an earlier pass rather than a problem with the
// user's program (spec.md §7's "Bug" category).
func Bug(fset *token.FileSet, pos token.Pos, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if fset != nil {
		panic(fmt.Sprintf("%s (%s)", msg, fset.Position(pos)))
	}
	panic(msg)
}

// RecursionDetected is returned by traitresolve queries that re-enter
// themselves at the same (trait, params, type) tuple (spec.md §7). Callers
// either convert it to a Fuzzy grade or propagate it as a Bug.
type RecursionDetected struct {
	Query string
}

func (e *RecursionDetected) Error() string {
	return fmt.Sprintf("recursive trait query detected: %s", e.Query)
}

// UserError is a diagnostic against the user's own program (spec.md §7's
// "E0000-class" category): a lifetime-bound violation, an invalid cast, an
// overly generic const-fn application, etc.
type UserError struct {
	Pos     token.Pos
	End     token.Pos
	Code    string
	Message string
	// Notes is an ordered chain of supplementary explanations, e.g. walking
	// back through composite lifetime members to the originating Borrow
	// site (spec.md §4.6.4).
	Notes []Note
}

// Note is one entry in a UserError's explanation chain.
type Note struct {
	Pos     token.Pos
	Message string
}

func (e *UserError) Error() string { return e.Message }

// Diagnostic converts a UserError into the analysis.Diagnostic shape the
// driver consumes, folding the note chain into the message body the way
// the teacher's engine folds conflict explanations into one string.
func (e *UserError) Diagnostic(fset *token.FileSet) analysis.Diagnostic {
	msg := e.Message
	for _, n := range e.Notes {
		msg += "\n\tnote: " + n.Message
		if fset != nil {
			msg += fmt.Sprintf(" (%s)", fset.Position(n.Pos))
		}
	}
	return analysis.Diagnostic{
		Pos:      e.Pos,
		End:      e.End,
		Category: e.Code,
		Message:  msg,
	}
}

// Engine accumulates diagnostics across a single crate's pass run.
type Engine struct {
	fset  *token.FileSet
	items []*UserError
}

// NewEngine returns an empty diagnostic engine backed by fset for position
// rendering.
func NewEngine(fset *token.FileSet) *Engine { return &Engine{fset: fset} }

// Report appends a UserError to the engine.
func (e *Engine) Report(err *UserError) { e.items = append(e.items, err) }

// Diagnostics renders every reported UserError into the driver-facing
// analysis.Diagnostic slice, in report order (deterministic, since passes
// run strictly sequentially per spec.md §5).
func (e *Engine) Diagnostics() []analysis.Diagnostic {
	out := make([]analysis.Diagnostic, 0, len(e.items))
	for _, it := range e.items {
		out = append(out, it.Diagnostic(e.fset))
	}
	return out
}

// Empty reports whether no diagnostics have been collected.
func (e *Engine) Empty() bool { return len(e.items) == 0 }
