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

// Package lifetimeinfer implements the four-phase per-body lifetime solver
// of spec.md §4.6: enumerate (replace every unknown/HRL lifetime with a
// fresh ivar and record outlives relations), solve (an iterative fixpoint
// bounded by hirconfig.LifetimeSolveIterationCap), validate (check every
// resolved ivar's destinations against the bound graph), and commit
// (rewrite every lifetime reference in the body to its resolved value).
//
// The four phases mirror typeinfer's own shape closely enough that a
// reader of that package should recognize this one: Context plays the same
// per-body, union-find-adjacent role NewIvar/GetType/SetIvarTo play there,
// just over hir.Lifetime rather than hir.Type.
package lifetimeinfer

import (
	"go/token"

	"github.com/rlang/hirxc/hir"
)

// ivarState is one lifetime inference variable's accumulated state
// (spec.md §4.6.1's "each ivar carries a span, a final resolved lifetime
// ..., a list of source lifetimes ..., a list of destination lifetimes
// ..., and an equal-to list").
type ivarState struct {
	id       int
	span     token.Pos
	resolved hir.Lifetime // zero value (Kind Unknown) means still unresolved
	sources  []hir.Lifetime
	dests    []hir.Lifetime
	equalTo  []hir.Lifetime
}

// directCheck is an outlives assertion between two already-concrete
// lifetimes, queued by equateLifetimes when neither side is an ivar
// (spec.md §4.6.2: "or, if both concrete, directly asserts outlives via
// ensure_outlives"). Phase 3 validates these the same way it validates an
// ivar's destination list.
type directCheck struct {
	at       token.Pos
	outer    hir.Lifetime // must outlive...
	inner    hir.Lifetime
}

// Context holds the lifetime-inference state for exactly one function
// body, the same "fresh Context per body" discipline typeinfer.Context
// uses.
type Context struct {
	locals []LocalLifetime
	ivars  []ivarState
	direct []directCheck

	// Outlives is the transitively-closed bound graph this body's generics
	// and implicit reference-shaped parameters establish (built the same
	// way typeinfer.BuildBounds derives OutlivesClosure; see outlives.go).
	Outlives []OutlivesEdge
}

// NewContext builds an empty per-body lifetime-inference context seeded
// with the given outlives closure.
func NewContext(outlives []OutlivesEdge) *Context {
	return &Context{Outlives: outlives}
}

// NewIvar allocates a fresh lifetime inference variable and returns a
// reference to it. Ivar ids start at hir.MaxLocalLifetime per spec.md
// §4.6.1.
func (c *Context) NewIvar(span token.Pos) hir.Lifetime {
	id := hir.MaxLocalLifetime + len(c.ivars)
	c.ivars = append(c.ivars, ivarState{id: id, span: span})
	return hir.Lifetime{Kind: hir.LifetimeIvar, ID: id}
}

// ivarIndex maps an ivar's id back to its dense slice index. Ivars are
// allocated in strictly increasing id order starting at MaxLocalLifetime,
// so the mapping is a direct subtraction — no map needed.
func (c *Context) ivarIndex(id int) int { return id - hir.MaxLocalLifetime }

func (c *Context) ivar(lt hir.Lifetime) *ivarState {
	if lt.Kind != hir.LifetimeIvar {
		return nil
	}
	idx := c.ivarIndex(lt.ID)
	if idx < 0 || idx >= len(c.ivars) {
		return nil
	}
	return &c.ivars[idx]
}

// equateLifetimes implements spec.md §4.6.2's equate_lifetimes: records
// `rhs ∈ sources_of(lhs)` and, if rhs is itself an ivar, `lhs ∈
// destinations_of(rhs)`; if neither side is an ivar, queues a direct
// outlives check for phase 3 instead of touching any ivar state.
func (c *Context) equateLifetimes(at token.Pos, lhs, rhs hir.Lifetime) {
	lv, rv := c.ivar(lhs), c.ivar(rhs)
	switch {
	case lv != nil:
		lv.sources = append(lv.sources, rhs)
		if rv != nil {
			rv.dests = append(rv.dests, lhs)
		}
	case rv != nil:
		rv.dests = append(rv.dests, lhs)
	default:
		c.direct = append(c.direct, directCheck{at: at, outer: lhs, inner: rhs})
	}
}

// getFinalLft follows a resolved ivar to its current value (used by the
// periodic compaction phase 2 calls for), or returns lt unchanged if it is
// not an ivar or is not yet resolved.
func (c *Context) getFinalLft(lt hir.Lifetime) hir.Lifetime {
	iv := c.ivar(lt)
	if iv == nil || iv.resolved.Kind == hir.LifetimeUnknown {
		return lt
	}
	return iv.resolved
}
