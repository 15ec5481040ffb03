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

// Package reborrow implements spec.md §4.9: wrapping a bare l-value of type
// `&mut T` with `&mut *x` at every site where the value is about to be
// moved out from under its owner, so the move only takes a fresh,
// shorter-lived reborrow rather than the original unique reference itself.
package reborrow

import "github.com/rlang/hirxc/hir"

// Inserter is a stateless marker type for reborrow insertion; it has no
// methods, and the walk over a body's apply sites is insertBody in pass.go,
// driven by Pass.Run. That walk does not need the bottom-up constant-ness-style
// traversal constprop/usageinfer use: each apply site is a fixed child
// slot of a fixed node shape, so a single pre-order descent that special-
// cases those slots is enough.
type Inserter struct{}

// NewInserter returns an Inserter; it carries no state of its own.
func NewInserter() *Inserter { return &Inserter{} }

// isLValueShape reports whether expr is one of the four node kinds the
// source treats as a reborrowable place expression.
func isLValueShape(expr hir.Expr) bool {
	switch expr.(type) {
	case *hir.ExprVariable, *hir.ExprField, *hir.ExprIndex, *hir.ExprDeref:
		return true
	default:
		return false
	}
}

// isUniqueBorrowType reports whether ty is `&mut T` (a unique/mutable
// reference), the only reference kind a move needs to reacquire through a
// reborrow.
func isUniqueBorrowType(ty hir.Type) bool {
	b, ok := ty.(*hir.Borrow)
	return ok && b.Kind == hir.BorrowUnique
}

// candidate resolves *ptr through the one recursion rule the source
// allows (descend into a Block's own tail value, since a block's value is
// exactly its tail expression's value) and reports whether the resolved
// node is a reborrow candidate: an l-value shape of type `&mut T`.
func candidate(ptr *hir.Expr) (*hir.Expr, bool) {
	if ptr == nil || *ptr == nil {
		return nil, false
	}
	if blk, ok := (*ptr).(*hir.ExprBlock); ok {
		if blk.Tail == nil {
			return nil, false
		}
		return candidate(&blk.Tail)
	}
	if isLValueShape(*ptr) && isUniqueBorrowType((*ptr).ResultType()) {
		return ptr, true
	}
	return nil, false
}

// maybeReborrow rewrites *ptr to `&mut *(*ptr)` if the resolved expression
// at (or beneath, through a Block tail) *ptr is a reborrow candidate.
func maybeReborrow(ptr *hir.Expr) {
	target, ok := candidate(ptr)
	if !ok {
		return
	}
	orig := *target
	deref := &hir.ExprDeref{Base: orig}
	borrowTy := orig.ResultType().(*hir.Borrow)
	deref.SetResultType(borrowTy.Inner)

	wrapped := &hir.ExprBorrow{Kind: hir.BorrowUnique, Base: deref}
	wrapped.SetResultType(orig.ResultType())
	wrapped.SetUsage(orig.GetUsage())
	*target = wrapped
}

// maybeReborrowAll applies maybeReborrow to every element of a slot slice
// (Call*.args[i], StructLiteral.values[i], Tuple.vals[i], ArrayList.vals[i],
// TupleVariant.args[i]).
func maybeReborrowAll(exprs []hir.Expr) {
	for i := range exprs {
		maybeReborrow(&exprs[i])
	}
}
