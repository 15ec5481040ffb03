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

// Package constprop implements spec.md §4.8: static borrow promotion
// (lifting a constant `&expr` out of its host function body into an
// anonymous static) and full constant evaluation of const/static
// initializers and enum discriminants.
package constprop

import "github.com/rlang/hirxc/hir"

// NewStaticFunc mints a fresh name for a synthesized static plus the
// module it should be added to, mirroring closurelower.NewTypeFunc's same
// "escape hatch for a pass to create items in the current module mid
// traversal" shape (spec.md §9 design notes).
type NewStaticFunc func() (string, *hir.Module)

// Promoter drives spec.md §4.8's first half over one function body: an
// expression walker that tracks, bottom-up, whether the subtree rooted at
// each node is itself a compile-time constant (m_is_constant in the
// source), promoting any qualifying `&expr` node into a reference to a
// newly synthesized static.
//
// Unlike hirvisit.ExprVisitor's pre-order "visit then maybe descend" hook,
// deciding a node's own constant-ness needs its children's answers already
// in hand, so Promoter drives its own post-order recursion directly — the
// same divergence usageinfer takes, for the same reason (a single
// pre-order hook can't express "look at the children's results first").
type Promoter struct {
	Crate     *hir.Crate
	NewStatic NewStaticFunc
	Buffer    hir.NewItemBuffer
}

// NewPromoter returns a Promoter for crate, minting new statics through
// newStatic.
func NewPromoter(crate *hir.Crate, newStatic NewStaticFunc) *Promoter {
	return &Promoter{Crate: crate, NewStatic: newStatic}
}

// PromoteBody walks *ptr, promoting every qualifying Borrow node in place.
// itemGenerics is cloned onto each promoted static's referenced types so a
// promotion inside a generic function still type-checks against the
// enclosing generics — this HIR's Static item has no generic-parameter list
// of its own (unlike a real top-level `static`, which can never be
// generic), so "cloning in-scope generics" here just means the promoted
// static's Ty/Init are left free to reference itemGenerics' own Generic
// type nodes verbatim, the same as the body they were lifted out of.
func (p *Promoter) PromoteBody(ptr *hir.Expr, itemGenerics *hir.GenericParams) bool {
	if ptr == nil || *ptr == nil {
		return false
	}
	return p.visit(ptr, itemGenerics)
}

func (p *Promoter) visit(ptr *hir.Expr, generics *hir.GenericParams) bool {
	switch n := (*ptr).(type) {
	case *hir.ExprLiteral:
		return true

	case *hir.ExprPathValue:
		return n.Kind == hir.PathValueConst || n.Kind == hir.PathValueFunction || n.Kind == hir.PathValueUnitVariant

	case *hir.ExprVariable:
		return false

	case *hir.ExprBlock:
		all := true
		for i := range n.Stmts {
			if !p.visit(&n.Stmts[i], generics) {
				all = false
			}
		}
		tailConst := true
		if n.Tail != nil {
			tailConst = p.visit(&n.Tail, generics)
		}
		return all && tailConst

	case *hir.ExprTuple:
		return p.visitAll(n.Vals, generics)

	case *hir.ExprArrayList:
		return p.visitAll(n.Vals, generics)

	case *hir.ExprArrayRepeat:
		return p.visit(&n.Value, generics)

	case *hir.ExprStructLiteral:
		ok := true
		for i := range n.Fields {
			if !p.visit(&n.Fields[i].Value, generics) {
				ok = false
			}
		}
		if n.Base != nil && !p.visit(&n.Base, generics) {
			ok = false
		}
		return ok

	case *hir.ExprTupleVariant:
		return p.visitAll(n.Args, generics)

	case *hir.ExprCast:
		return p.visit(&n.Value, generics)

	case *hir.ExprUnsize:
		return p.visit(&n.Value, generics)

	case *hir.ExprField:
		return p.visit(&n.Base, generics)

	case *hir.ExprIndex:
		base := p.visit(&n.Base, generics)
		p.visit(&n.Index, generics)
		return base && n.FullRange

	case *hir.ExprCallPath:
		argsConst := p.visitAll(n.Args, generics)
		fn, ok := resolveFunction(n.Callee)
		return ok && fn.IsConstFn && argsConst && !isInteriorMutable(n.ResultType())

	case *hir.ExprBorrow:
		innerConst := p.visit(&n.Base, generics)
		qualifies := innerConst && !isInteriorMutable(n.Base.ResultType()) &&
			(n.Kind == hir.BorrowShared || isZeroSizedType(n.Base.ResultType()))
		if qualifies {
			p.promote(ptr, n, generics)
		}
		return false // a Borrow's own value is never itself "constant" for an enclosing aggregate check

	default:
		// Every other node kind (Variable-adjacent control flow, calls,
		// mutation, loops) can't be constant; still recurse so any nested
		// constant Borrow deeper inside still gets promoted.
		p.descendNonConstant(ptr, generics)
		return false
	}
}

func (p *Promoter) visitAll(exprs []hir.Expr, generics *hir.GenericParams) bool {
	ok := true
	for i := range exprs {
		if !p.visit(&exprs[i], generics) {
			ok = false
		}
	}
	return ok
}

// promote rewrites *ptr (a qualifying Borrow node) into a PathValue
// referencing a newly synthesized static whose initializer is the
// borrow's own inner expression (spec.md §4.8: "rewrite the borrowed
// expression node to a PathValue of kind STATIC pointing at the new item").
func (p *Promoter) promote(ptr *hir.Expr, borrow *hir.ExprBorrow, generics *hir.GenericParams) {
	name, mod := p.NewStatic()
	st := &hir.Static{Name: name, Ty: borrow.Base.ResultType(), Init: borrow.Base}
	p.Buffer.Statics = append(p.Buffer.Statics, st)
	p.Buffer.Flush(p.Crate, mod)

	path := &hir.Path{Kind: hir.PathGeneric, Generic: &hir.GenericPath{
		Segments:     append(append([]string{}, mod.Path...), name),
		ResolvedItem: st,
	}}
	pv := &hir.ExprPathValue{Path: path, Kind: hir.PathValueStatic}
	pv.SetResultType(borrow.ResultType())
	pv.SetUsage(borrow.GetUsage())
	*ptr = pv
}

// descendNonConstant still walks into a node's children (to find and
// promote a nested constant Borrow) without needing its own constant-ness
// answer, used for the node kinds this walker never treats as constant
// itself: Return/Assign/Let/Match/Deref/BinOp/UniOp/CallValue/CallMethod/
// Emplace/Closure/Generator/Yield.
func (p *Promoter) descendNonConstant(ptr *hir.Expr, generics *hir.GenericParams) {
	switch n := (*ptr).(type) {
	case *hir.ExprReturn:
		if n.Value != nil {
			p.visit(&n.Value, generics)
		}
	case *hir.ExprAssign:
		p.visit(&n.LHS, generics)
		p.visit(&n.RHS, generics)
	case *hir.ExprLet:
		p.visit(&n.Value, generics)
	case *hir.ExprMatch:
		p.visit(&n.Scrutinee, generics)
		for i := range n.Arms {
			if n.Arms[i].Guard != nil {
				p.visit(&n.Arms[i].Guard, generics)
			}
			p.visit(&n.Arms[i].Body, generics)
		}
	case *hir.ExprDeref:
		p.visit(&n.Base, generics)
	case *hir.ExprBinOp:
		p.visit(&n.Left, generics)
		p.visit(&n.Right, generics)
	case *hir.ExprUniOp:
		p.visit(&n.Value, generics)
	case *hir.ExprCallValue:
		p.visit(&n.Callee, generics)
		p.visitAll(n.Args, generics)
	case *hir.ExprCallMethod:
		p.visit(&n.Receiver, generics)
		p.visitAll(n.Args, generics)
	case *hir.ExprEmplace:
		p.visit(&n.Value, generics)
	case *hir.ExprClosure:
		if n.Body != nil {
			p.visit(&n.Body, generics)
		}
	case *hir.ExprGenerator:
		p.visit(&n.Body, generics)
	case *hir.ExprYield:
		if n.Value != nil {
			p.visit(&n.Value, generics)
		}
	}
}
