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

package ufcsrewrite

import (
	"github.com/rlang/hirxc/hir"
	"github.com/rlang/hirxc/hirvisit"
)

// Pass runs UFCS rewriting over every function/static/const body in a
// crate (spec.md's HIR_Expand_UfcsEverything entry point).
type Pass struct {
	Crate *hir.Crate
}

// New returns a Pass for crate.
func New(crate *hir.Crate) *Pass { return &Pass{Crate: crate} }

// Run walks the whole crate, rewriting every CallMethod and eligible
// CallValue it finds into a CallPath.
func (p *Pass) Run() {
	hirvisit.Walk(p.Crate, &hirvisit.Visitor{
		VisitFunction: func(mod *hir.Module, name string, fn *hir.Function) {
			if fn.Body != nil {
				rewriteBody(&fn.Body)
			}
		},
		VisitStatic: func(mod *hir.Module, name string, s *hir.Static) {
			if s.Init != nil {
				rewriteBody(&s.Init)
			}
		},
		VisitConstant: func(mod *hir.Module, name string, c *hir.Const) {
			if c.Init != nil {
				rewriteBody(&c.Init)
			}
		},
	})
}

// rewriteBody walks *ptr bottom-up (children first, so a CallMethod nested
// inside a CallValue's receiver — or vice versa — is rewritten before its
// parent is inspected), rewriting every CallMethod and eligible CallValue
// node it finds.
func rewriteBody(ptr *hir.Expr) {
	if ptr == nil || *ptr == nil {
		return
	}
	switch n := (*ptr).(type) {
	case *hir.ExprBlock:
		for i := range n.Stmts {
			rewriteBody(&n.Stmts[i])
		}
		if n.Tail != nil {
			rewriteBody(&n.Tail)
		}

	case *hir.ExprReturn:
		if n.Value != nil {
			rewriteBody(&n.Value)
		}

	case *hir.ExprAssign:
		rewriteBody(&n.LHS)
		rewriteBody(&n.RHS)

	case *hir.ExprLet:
		rewriteBody(&n.Value)

	case *hir.ExprMatch:
		rewriteBody(&n.Scrutinee)
		for i := range n.Arms {
			if n.Arms[i].Guard != nil {
				rewriteBody(&n.Arms[i].Guard)
			}
			rewriteBody(&n.Arms[i].Body)
		}

	case *hir.ExprCast:
		rewriteBody(&n.Value)
	case *hir.ExprUnsize:
		rewriteBody(&n.Value)
	case *hir.ExprEmplace:
		rewriteBody(&n.Value)
	case *hir.ExprDeref:
		rewriteBody(&n.Base)
	case *hir.ExprBorrow:
		rewriteBody(&n.Base)
	case *hir.ExprField:
		rewriteBody(&n.Base)
	case *hir.ExprIndex:
		rewriteBody(&n.Base)
		rewriteBody(&n.Index)
	case *hir.ExprBinOp:
		rewriteBody(&n.Left)
		rewriteBody(&n.Right)
	case *hir.ExprUniOp:
		rewriteBody(&n.Value)
	case *hir.ExprArrayRepeat:
		rewriteBody(&n.Value)

	case *hir.ExprTuple:
		rewriteAll(n.Vals)
	case *hir.ExprArrayList:
		rewriteAll(n.Vals)
	case *hir.ExprTupleVariant:
		rewriteAll(n.Args)

	case *hir.ExprStructLiteral:
		for i := range n.Fields {
			rewriteBody(&n.Fields[i].Value)
		}
		if n.Base != nil {
			rewriteBody(&n.Base)
		}

	case *hir.ExprCallPath:
		rewriteAll(n.Args)

	case *hir.ExprCallMethod:
		rewriteBody(&n.Receiver)
		rewriteAll(n.Args)
		rewriteMethod(ptr)

	case *hir.ExprCallValue:
		rewriteBody(&n.Callee)
		rewriteAll(n.Args)
		if !isFunctionPointer(n.Callee.ResultType()) {
			rewriteValue(ptr)
		}

	case *hir.ExprGenerator:
		if n.Body != nil {
			rewriteBody(&n.Body)
		}
	case *hir.ExprYield:
		if n.Value != nil {
			rewriteBody(&n.Value)
		}
	}
}

func rewriteAll(exprs []hir.Expr) {
	for i := range exprs {
		rewriteBody(&exprs[i])
	}
}
