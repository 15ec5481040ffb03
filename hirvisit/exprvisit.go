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

package hirvisit

import "github.com/rlang/hirxc/hir"

// ExprVisitor is implemented by passes that inspect or rewrite expression
// trees (usage inference, closure/generator lowering, reborrow insertion,
// UFCS rewriting, erased-type substitution). VisitExpr is called once per
// node, in pre-order, with ptr addressing the slot the node currently
// lives in — exactly the slot golang.org/x/tools/go/ast/astutil's
// Cursor.Replace writes through, just without a separate Cursor type,
// since every field that can hold an hir.Expr is already addressable.
//
// Replacing *ptr inside VisitExpr is how a pass swaps in a new node (a
// reborrow wrapper, a rewritten UFCS call); WalkExpr always recurses into
// whatever *ptr holds *after* VisitExpr returns, so the replacement's own
// children are visited too.
type ExprVisitor interface {
	VisitExpr(ptr *hir.Expr) (descend bool)
}

// WalkExpr visits the node at *ptr and, if the visitor asks to descend,
// recurses into its children. A nil *ptr (an absent tail expression, a
// struct-literal base that wasn't given) is simply skipped.
func WalkExpr(ptr *hir.Expr, v ExprVisitor) {
	if ptr == nil || *ptr == nil {
		return
	}
	if !v.VisitExpr(ptr) {
		return
	}
	walkExprChildren(ptr, v)
}

func walkExprChildren(ptr *hir.Expr, v ExprVisitor) {
	switch n := (*ptr).(type) {
	case *hir.ExprLiteral, *hir.ExprVariable, *hir.ExprPathValue:
		// leaves

	case *hir.ExprBlock:
		for i := range n.Stmts {
			WalkExpr(&n.Stmts[i], v)
		}
		WalkExpr(&n.Tail, v)

	case *hir.ExprReturn:
		WalkExpr(&n.Value, v)

	case *hir.ExprAssign:
		WalkExpr(&n.LHS, v)
		WalkExpr(&n.RHS, v)

	case *hir.ExprLet:
		WalkExpr(&n.Value, v)

	case *hir.ExprMatch:
		WalkExpr(&n.Scrutinee, v)
		for i := range n.Arms {
			if n.Arms[i].Guard != nil {
				WalkExpr(&n.Arms[i].Guard, v)
			}
			WalkExpr(&n.Arms[i].Body, v)
		}

	case *hir.ExprCast:
		WalkExpr(&n.Value, v)

	case *hir.ExprUnsize:
		WalkExpr(&n.Value, v)

	case *hir.ExprTuple:
		for i := range n.Vals {
			WalkExpr(&n.Vals[i], v)
		}

	case *hir.ExprArrayList:
		for i := range n.Vals {
			WalkExpr(&n.Vals[i], v)
		}

	case *hir.ExprArrayRepeat:
		WalkExpr(&n.Value, v)

	case *hir.ExprStructLiteral:
		for i := range n.Fields {
			WalkExpr(&n.Fields[i].Value, v)
		}
		if n.Base != nil {
			WalkExpr(&n.Base, v)
		}

	case *hir.ExprTupleVariant:
		for i := range n.Args {
			WalkExpr(&n.Args[i], v)
		}

	case *hir.ExprField:
		WalkExpr(&n.Base, v)

	case *hir.ExprIndex:
		WalkExpr(&n.Base, v)
		WalkExpr(&n.Index, v)

	case *hir.ExprDeref:
		WalkExpr(&n.Base, v)

	case *hir.ExprBorrow:
		WalkExpr(&n.Base, v)

	case *hir.ExprBinOp:
		WalkExpr(&n.Left, v)
		WalkExpr(&n.Right, v)

	case *hir.ExprUniOp:
		WalkExpr(&n.Value, v)

	case *hir.ExprCallValue:
		WalkExpr(&n.Callee, v)
		for i := range n.Args {
			WalkExpr(&n.Args[i], v)
		}

	case *hir.ExprCallMethod:
		WalkExpr(&n.Receiver, v)
		for i := range n.Args {
			WalkExpr(&n.Args[i], v)
		}

	case *hir.ExprCallPath:
		for i := range n.Args {
			WalkExpr(&n.Args[i], v)
		}

	case *hir.ExprEmplace:
		WalkExpr(&n.Value, v)

	case *hir.ExprClosure:
		WalkExpr(&n.Body, v)

	case *hir.ExprGenerator:
		WalkExpr(&n.Body, v)

	case *hir.ExprYield:
		WalkExpr(&n.Value, v)

	default:
		// New node kind added to hir without a matching case here: fail
		// loudly during development rather than silently skip children.
		panic("hirvisit: walkExprChildren: unhandled expression kind")
	}
}
