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

package usageinfer

import "github.com/rlang/hirxc/hir"

// patternUsage computes the usage a Let/Match scrutinee needs in order to be
// matched against pat (spec.md §4.4 "Pattern-derived usage"). A pattern's
// own DerefCount is ignored here: it counts implicit borrow layers the
// *matching engine* strips via match ergonomics, not a usage tag, and has
// no bearing on what access the scrutinee place itself requires.
func patternUsage(pat hir.Pattern) hir.Usage {
	switch p := pat.(type) {
	case *hir.PatternAny, *hir.PatternValue, *hir.PatternRange:
		return hir.UsageBorrow

	case *hir.PatternBinding:
		var u hir.Usage
		switch p.Mode {
		case hir.BindMutRef:
			u = hir.UsageMutate
		case hir.BindRef:
			u = hir.UsageBorrow
		default: // BindMove
			if p.Copy {
				u = hir.UsageBorrow
			} else {
				u = hir.UsageMove
			}
		}
		if p.Sub != nil {
			u = hir.CombineUsage(u, patternUsage(p.Sub))
		}
		return u

	case *hir.PatternAggregate:
		if len(p.Fields) == 0 {
			// Unit-like variant pattern (no sub-patterns to combine over).
			return hir.UsageBorrow
		}
		u := patternUsage(p.Fields[0])
		for _, f := range p.Fields[1:] {
			u = hir.CombineUsage(u, patternUsage(f))
		}
		return u

	default:
		return hir.UsageBorrow
	}
}

// armsUsage combines the pattern-derived usage of every match arm: any arm
// may be the one that ends up matching, so the scrutinee needs whichever
// access is the strictest across all of them.
func armsUsage(arms []hir.MatchArm) hir.Usage {
	if len(arms) == 0 {
		return hir.UsageBorrow
	}
	u := patternUsage(arms[0].Pat)
	for _, a := range arms[1:] {
		u = hir.CombineUsage(u, patternUsage(a.Pat))
	}
	return u
}
