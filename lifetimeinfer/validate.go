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

package lifetimeinfer

import (
	"fmt"
	"go/token"

	"github.com/rlang/hirxc/hir"
)

// validate implements spec.md §4.6.4, phase 3: for every ivar, verify each
// destination outlives its resolved value, and check every direct-check
// queued by phase 1's equateLifetimes the same way.
func validate(ctx *Context) error {
	var failures []Failure
	for i := range ctx.ivars {
		iv := &ctx.ivars[i]
		for _, dest := range iv.dests {
			if causes, ok := ctx.checkLifetimes(dest, iv.resolved, nil); !ok {
				failures = append(failures, Failure{At: iv.span, Causes: causes})
			}
		}
	}
	for _, dc := range ctx.direct {
		if causes, ok := ctx.checkLifetimes(dc.outer, dc.inner, nil); !ok {
			failures = append(failures, Failure{At: dc.at, Causes: causes})
		}
	}
	if len(failures) > 0 {
		return &ValidationError{Failures: failures}
	}
	return nil
}

// checkLifetimes implements spec.md §4.6.4's check_lifetimes(dest, src):
// does a value actually scoped to src satisfy a requirement to live at
// least as long as dest? causes accumulates the chained notes as the
// recursion unwinds back toward the original borrow site.
func (c *Context) checkLifetimes(dest, src hir.Lifetime, causes []Cause) ([]Cause, bool) {
	if lifetimeKey(dest) == lifetimeKey(src) || src.Kind == hir.LifetimeStatic {
		return causes, true
	}

	if sl := c.local(src); sl != nil && sl.Kind == LocalComposite {
		for _, m := range sl.Members {
			next, ok := c.checkLifetimes(dest, m, append(causes, Cause{At: sl.BorrowPoint, Message: "via composite source member"}))
			if !ok {
				return next, false
			}
		}
		return causes, true
	}

	if dl := c.local(dest); dl != nil && dl.Kind == LocalComposite {
		for _, m := range dl.Members {
			if next, ok := c.checkLifetimes(m, src, append(causes, Cause{At: dl.BorrowPoint, Message: "via composite destination member"})); ok {
				return next, true
			}
		}
		return append(causes, Cause{At: dl.BorrowPoint, Message: "no composite destination member is satisfied"}), false
	}

	destNamed := dest.Kind == hir.LifetimeNamed
	destStatic := dest.Kind == hir.LifetimeStatic
	srcNamed := src.Kind == hir.LifetimeNamed
	srcLocal := src.Kind == hir.LifetimeLocal

	switch {
	case destNamed && srcNamed:
		if c.hasOutlivesEdge(src, dest) {
			return causes, true
		}
		return append(causes, Cause{Message: fmt.Sprintf("no bound establishes '%s: '%s", src.Name, dest.Name)}), false
	case destStatic && srcNamed:
		if c.hasOutlivesEdge(src, hir.Static) {
			return causes, true
		}
		return append(causes, Cause{Message: fmt.Sprintf("'%s is not bounded by 'static", src.Name)}), false
	case (destNamed || destStatic) && srcLocal:
		return append(causes, Cause{At: token.NoPos, Message: "a function-local borrow scope cannot outlive a named lifetime parameter"}), false
	case dest.Kind == hir.LifetimeLocal && srcLocal:
		// Conservative per spec.md §4.6.4: local-to-local is accepted only
		// when identical, which the lifetimeKey equality check above
		// already would have caught; reaching here means they differ.
		return append(causes, Cause{Message: "two distinct local borrow scopes cannot be shown to agree without precise region ordering"}), false
	default:
		return append(causes, Cause{Message: "lifetime bound could not be established"}), false
	}
}

// hasOutlivesEdge reports whether the transitively-closed bound graph
// contains `valid: 'outlives` (valid outlives outlives).
func (c *Context) hasOutlivesEdge(valid, outlives hir.Lifetime) bool {
	for _, e := range c.Outlives {
		if lifetimeKey(e.Valid) == lifetimeKey(valid) && lifetimeKey(e.Outlives) == lifetimeKey(outlives) {
			return true
		}
	}
	return false
}
