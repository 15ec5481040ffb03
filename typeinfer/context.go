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

// Package typeinfer implements the single-function-body inference context
// of spec.md §4.3: two parallel union-find systems (type ivars, value
// ivars), the per-body trait-bound cache that feeds traitresolve, and
// equality propagation with its coercion rules.
package typeinfer

import (
	"github.com/rlang/hirxc/hir"
	"github.com/rlang/hirxc/traitresolve"
)

// Context holds the inference state for exactly one function body. A
// fresh Context is created per body (mirroring the original's
// "single-body structure" note); Resolver is shared crate-wide.
type Context struct {
	Resolver *traitresolve.Resolver
	Crate    *hir.Crate

	typeSlots  []typeSlot
	valueSlots []valueSlot

	// Bounds is this body's precomputed trait-bound table (§4.3.3),
	// installed into Resolver via Resolver.SetBounds before any query
	// that needs it.
	Bounds []traitresolve.BoundEntry
	// OutlivesClosure is the transitively-closed outlives bound set
	// computed alongside Bounds. lifetimeinfer does not read it; it derives
	// its own closure with lifetimeinfer.BuildOutlivesClosure.
	OutlivesClosure []OutlivesEdge
}

// New returns a fresh Context for inferring one function body against
// crate, sharing resolver's crate-wide trait-resolution caches.
func New(resolver *traitresolve.Resolver, crate *hir.Crate) *Context {
	return &Context{Resolver: resolver, Crate: crate}
}
