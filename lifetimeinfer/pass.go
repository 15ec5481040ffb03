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

	"github.com/rlang/hirxc/hir"
	"github.com/rlang/hirxc/hirvisit"
)

// Pass carries the state needed to lifetime-infer one crate's function
// bodies. It holds no per-body state of its own (each Run call builds a
// fresh Context, the same "one Context per body" discipline
// typeinfer.Context and usageinfer.Pass both follow); one Pass can be
// reused across every body in the crate.
type Pass struct {
	Crate *hir.Crate
}

// New returns a Pass ready to lifetime-infer function bodies belonging to
// crate.
func New(crate *hir.Crate) *Pass { return &Pass{Crate: crate} }

// Run implements spec.md §6's HIR_Expand_LifetimeInfer entry point for one
// function: it runs all four phases (enumerate, solve, validate, commit)
// in order, implBounds being the owning impl's where-clause bounds (nil
// for a free function). A Run call is idempotent once it has completed
// without error — every lifetime reference left in fn's body satisfies
// IsConcrete(), so a second Run finds nothing left to enumerate.
func (p *Pass) Run(fn *hir.Function, implBounds []hir.GenericBound) error {
	if fn.Body == nil {
		return nil
	}
	outlives := BuildOutlivesClosure(fn, implBounds)
	ctx := NewContext(outlives)

	enumerate(ctx, fn)
	if err := solve(ctx); err != nil {
		return fmt.Errorf("lifetimeinfer: function %q: %w", fn.Name, err)
	}
	if err := validate(ctx); err != nil {
		return fmt.Errorf("lifetimeinfer: function %q: %w", fn.Name, err)
	}
	commit(ctx, fn)
	return nil
}

// RunCrate drives Run across every function body in the crate (free
// functions, inherent/trait impl methods, and trait default-method
// bodies), matching hirvisit.Walk's definition of "every function in the
// crate". Impl-level where-clause bounds aren't threaded through this
// crate-wide walk (hirvisit.Visitor.VisitFunction doesn't carry the owning
// impl back to the caller) — a function whose only reference-outlives
// bounds come from its *impl block's* where clause, rather than its own
// generics or parameter/return shapes, will see an incomplete bound graph
// here. Callers validating such a function should call Run directly with
// the impl's bounds instead.
func (p *Pass) RunCrate() error {
	var firstErr error
	record := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	hirvisit.Walk(p.Crate, &hirvisit.Visitor{
		VisitFunction: func(mod *hir.Module, name string, fn *hir.Function) {
			record(p.Run(fn, nil))
		},
	})
	return firstErr
}
