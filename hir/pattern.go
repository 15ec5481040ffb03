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

package hir

// BindingMode is the by-value/by-reference mode a `Binding` pattern
// captures its matched place with (spec.md §4.4 pattern-derived usage).
type BindingMode uint8

const (
	// BindMove binds by value, moving (or copying, if the type is Copy)
	// the matched place.
	BindMove BindingMode = iota
	// BindRef binds `ref x` — a shared borrow of the matched place.
	BindRef
	// BindMutRef binds `ref mut x` — a unique borrow of the matched place.
	BindMutRef
)

// Pattern is the sum type of match/let pattern shapes.
type Pattern interface {
	isPattern()
	// DerefCount is the number of implicit `&`/`&mut` layers this pattern
	// unwraps before matching against its subject (e.g. matching `&Some(x)`
	// against a `&Option<T>` scrutinee via match ergonomics).
	DerefCount() int
}

type patternBase struct{ Derefs int }

func (p patternBase) DerefCount() int { return p.Derefs }

// PatternAny is the wildcard pattern `_`.
type PatternAny struct{ patternBase }

func (*PatternAny) isPattern() {}

// PatternBinding binds the matched place to a name, optionally with a
// further sub-pattern (`x @ Some(y)`).
type PatternBinding struct {
	patternBase
	Name string
	Mode BindingMode
	Sub  Pattern // nil if no `@` sub-pattern
	Ty   Type
	// Copy records whether Ty is known to implement Copy, used by the
	// usage-annotation pass to decide Move vs. Borrow for BindMove.
	Copy bool
	// Slot is the dense per-function-body variable slot this binding
	// introduces, in the same numbering space ExprVariable.Slot indexes
	// into; closurelower's free-variable scan uses it to tell a closure's
	// own local bindings apart from captures of an enclosing scope.
	Slot int
}

func (*PatternBinding) isPattern() {}

// PatternValue matches against a literal or unit-like enum variant value.
type PatternValue struct {
	patternBase
	Literal *Literal
	Path    *Path // set instead of Literal for unit-like variant patterns
}

func (*PatternValue) isPattern() {}

// PatternRange matches an inclusive numeric range `lo..=hi`.
type PatternRange struct {
	patternBase
	Lo, Hi *Literal
}

func (*PatternRange) isPattern() {}

// PatternAggregate matches a tuple, tuple-struct, struct, or enum-variant
// pattern with named or positional sub-patterns.
type PatternAggregate struct {
	patternBase
	Path   *Path // nil for a bare tuple pattern
	Fields []Pattern
}

func (*PatternAggregate) isPattern() {}

// UsageOrder totally orders usage tags so pattern usages can be combined
// with max (spec.md: "Borrow < Mutate < Move").
type UsageOrder = Usage

// CombineUsage returns the maximum of two usages under Borrow < Mutate < Move.
func CombineUsage(a, b Usage) Usage {
	rank := func(u Usage) int {
		switch u {
		case UsageBorrow:
			return 0
		case UsageMutate:
			return 1
		case UsageMove:
			return 2
		default:
			return -1
		}
	}
	if rank(a) >= rank(b) {
		return a
	}
	return b
}
