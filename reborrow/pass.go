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

package reborrow

import (
	"github.com/rlang/hirxc/hir"
	"github.com/rlang/hirxc/hirvisit"
)

// Pass runs reborrow insertion over every function/static/const body in a
// crate (spec.md's HIR_Expand_Reborrows entry point).
type Pass struct {
	Crate *hir.Crate
}

// New returns a Pass for crate.
func New(crate *hir.Crate) *Pass { return &Pass{Crate: crate} }

// Run walks the whole crate, inserting reborrows at every body it finds.
func (p *Pass) Run() {
	hirvisit.Walk(p.Crate, &hirvisit.Visitor{
		VisitFunction: func(mod *hir.Module, name string, fn *hir.Function) {
			if fn.Body != nil {
				insertBody(&fn.Body)
			}
		},
		VisitStatic: func(mod *hir.Module, name string, s *hir.Static) {
			if s.Init != nil {
				insertBody(&s.Init)
			}
		},
		VisitConstant: func(mod *hir.Module, name string, c *hir.Const) {
			if c.Init != nil {
				insertBody(&c.Init)
			}
		},
	})
}

// insertBody walks *ptr, applying maybeReborrow at every apply site the
// source enumerates, then recursing into every child so a reborrow
// candidate nested arbitrarily deep is still found.
//
// Closure.captures[i] is listed as an apply site in spec.md §4.9, but by
// the time this pass runs (pass F, after closure/generator extraction in
// pass C) an ExprClosure node no longer carries an expression per capture
// — closurelower has already rewritten it to ObjPath + a Captures list of
// (OuterSlot, Usage, FieldType) tuples with no Expr to wrap. That apply
// site is therefore structurally unreachable in this HIR's pipeline
// ordering, not a silent omission.
func insertBody(ptr *hir.Expr) {
	if ptr == nil || *ptr == nil {
		return
	}
	switch n := (*ptr).(type) {
	case *hir.ExprBlock:
		for i := range n.Stmts {
			insertBody(&n.Stmts[i])
		}
		if n.Tail != nil {
			insertBody(&n.Tail)
		}

	case *hir.ExprReturn:
		if n.Value != nil {
			insertBody(&n.Value)
		}

	case *hir.ExprAssign:
		insertBody(&n.LHS)
		maybeReborrow(&n.RHS)
		insertBody(&n.RHS)

	case *hir.ExprLet:
		maybeReborrow(&n.Value)
		insertBody(&n.Value)

	case *hir.ExprMatch:
		insertBody(&n.Scrutinee)
		for i := range n.Arms {
			if n.Arms[i].Guard != nil {
				insertBody(&n.Arms[i].Guard)
			}
			insertBody(&n.Arms[i].Body)
		}

	case *hir.ExprCast:
		maybeReborrow(&n.Value)
		insertBody(&n.Value)

	case *hir.ExprUnsize:
		maybeReborrow(&n.Value)
		insertBody(&n.Value)

	case *hir.ExprEmplace:
		maybeReborrow(&n.Value)
		insertBody(&n.Value)

	case *hir.ExprTuple:
		maybeReborrowAll(n.Vals)
		for i := range n.Vals {
			insertBody(&n.Vals[i])
		}

	case *hir.ExprArrayList:
		maybeReborrowAll(n.Vals)
		for i := range n.Vals {
			insertBody(&n.Vals[i])
		}

	case *hir.ExprArrayRepeat:
		insertBody(&n.Value)

	case *hir.ExprStructLiteral:
		for i := range n.Fields {
			maybeReborrow(&n.Fields[i].Value)
			insertBody(&n.Fields[i].Value)
		}
		if n.Base != nil {
			insertBody(&n.Base)
		}

	case *hir.ExprTupleVariant:
		maybeReborrowAll(n.Args)
		for i := range n.Args {
			insertBody(&n.Args[i])
		}

	case *hir.ExprField:
		insertBody(&n.Base)

	case *hir.ExprIndex:
		insertBody(&n.Base)
		insertBody(&n.Index)

	case *hir.ExprDeref:
		insertBody(&n.Base)

	case *hir.ExprBorrow:
		insertBody(&n.Base)

	case *hir.ExprBinOp:
		insertBody(&n.Left)
		insertBody(&n.Right)

	case *hir.ExprUniOp:
		insertBody(&n.Value)

	case *hir.ExprCallValue:
		insertBody(&n.Callee)
		maybeReborrowAll(n.Args)
		for i := range n.Args {
			insertBody(&n.Args[i])
		}

	case *hir.ExprCallMethod:
		insertBody(&n.Receiver)
		maybeReborrowAll(n.Args)
		for i := range n.Args {
			insertBody(&n.Args[i])
		}

	case *hir.ExprCallPath:
		maybeReborrowAll(n.Args)
		for i := range n.Args {
			insertBody(&n.Args[i])
		}

	case *hir.ExprGenerator:
		if n.Body != nil {
			insertBody(&n.Body)
		}

	case *hir.ExprYield:
		if n.Value != nil {
			insertBody(&n.Value)
		}
	}
}
