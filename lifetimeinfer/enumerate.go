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
	"go/token"

	"github.com/rlang/hirxc/hir"
	"github.com/rlang/hirxc/hirvisit"
)

// enumerator implements spec.md §4.6.2, phase 1: walk a function body,
// replacing every unknown/HRL lifetime with a fresh ivar and recording the
// outlives relations structural assignment/return/call sites imply.
type enumerator struct {
	ctx        *Context
	returnType hir.Type
}

// enumerate runs phase 1 over fn's body. fn.ReturnType is substituted the
// same as any expression's result type and threaded through so explicit
// Return nodes (and the final implicit return of a fall-through tail
// expression) can equate against it.
func enumerate(ctx *Context, fn *hir.Function) {
	if fn.Body == nil {
		return
	}
	fn.ReturnType = (&enumerator{ctx: ctx}).substLifetimes(fn.ReturnType, fn.Body.Pos())
	e := &enumerator{ctx: ctx, returnType: fn.ReturnType}
	hirvisit.WalkExpr(&fn.Body, e)
	e.equateTypes(fn.Body.Pos(), e.returnType, fn.Body.ResultType())
}

func (e *enumerator) VisitExpr(ptr *hir.Expr) bool {
	n := *ptr
	if rt := n.ResultType(); rt != nil {
		n.SetResultType(e.substLifetimes(rt, n.Pos()))
	}

	switch v := n.(type) {
	case *hir.ExprBorrow:
		lt := e.getBorrowLifetime(v.Pos(), v.Base)
		if bt, ok := v.ResultType().(*hir.Borrow); ok {
			nb := *bt
			nb.Lifetime = lt
			v.SetResultType(&nb)
		}

	case *hir.ExprAssign:
		e.equateTypes(v.Pos(), v.LHS.ResultType(), v.RHS.ResultType())

	case *hir.ExprLet:
		if v.Value != nil {
			e.equateTypes(v.Pos(), patternDeclaredType(v.Pat), v.Value.ResultType())
		}

	case *hir.ExprReturn:
		if v.Value != nil && e.returnType != nil {
			e.equateTypes(v.Pos(), e.returnType, v.Value.ResultType())
		}

	case *hir.ExprCallPath:
		// Arg/return monomorphisation against the callee's own signature
		// happens in typeinfer during type inference proper; by the time
		// this pass runs every CallPath's ArgTypeCache already carries the
		// substituted parameter types, so equating against it is enough to
		// pick up any lifetime the call site's substitution fixed.
		for i, arg := range v.Args {
			if i < len(v.ArgTypeCache) {
				e.equateTypes(v.Pos(), v.ArgTypeCache[i], arg.ResultType())
			}
		}

	case *hir.ExprCast:
		e.equateTypes(v.Pos(), v.ResultType(), v.Value.ResultType())

	case *hir.ExprUnsize:
		e.equateTypes(v.Pos(), v.ResultType(), v.Value.ResultType())
	}
	return true
}

// getBorrowLifetime implements spec.md §4.6.2's get_borrow_lifetime:
// descend through Field/Index/Deref into the underlying place. Deref of a
// borrow propagates its lifetime; deref of a raw pointer yields 'static;
// deref through anything else (a user Deref impl) propagates inward by
// recursing the same way Field/Index do. Anything else is a fresh borrow
// point, given its own Node local lifetime.
func (e *enumerator) getBorrowLifetime(at token.Pos, base hir.Expr) hir.Lifetime {
	switch b := base.(type) {
	case *hir.ExprField:
		return e.getBorrowLifetime(at, b.Base)
	case *hir.ExprIndex:
		return e.getBorrowLifetime(at, b.Base)
	case *hir.ExprDeref:
		switch bt := b.Base.ResultType().(type) {
		case *hir.Borrow:
			return bt.Lifetime
		case *hir.Pointer:
			return hir.Static
		default:
			return e.getBorrowLifetime(at, b.Base)
		}
	default:
		return e.ctx.newLocal(LocalNode, at)
	}
}

// equateTypes implements spec.md §4.6.2's equate_types: recurse
// structurally through both sides in lock-step; whenever both reach a
// lifetime slot, equate it. Types is a best-effort structural match —
// shape mismatches (which shouldn't occur on a type-checked body) are
// simply skipped rather than treated as a bug, since this pass runs after
// typeinfer has already confirmed the two sides unify.
func (e *enumerator) equateTypes(at token.Pos, lhs, rhs hir.Type) {
	switch l := lhs.(type) {
	case *hir.Borrow:
		r, ok := rhs.(*hir.Borrow)
		if !ok {
			return
		}
		e.ctx.equateLifetimes(at, l.Lifetime, r.Lifetime)
		e.equateTypes(at, l.Inner, r.Inner)
	case *hir.Slice:
		if r, ok := rhs.(*hir.Slice); ok {
			e.equateTypes(at, l.Element, r.Element)
		}
	case *hir.Array:
		if r, ok := rhs.(*hir.Array); ok {
			e.equateTypes(at, l.Element, r.Element)
		}
	case *hir.Tuple:
		r, ok := rhs.(*hir.Tuple)
		if !ok || len(l.Elements) != len(r.Elements) {
			return
		}
		for i := range l.Elements {
			e.equateTypes(at, l.Elements[i], r.Elements[i])
		}
	case *hir.PathType:
		r, ok := rhs.(*hir.PathType)
		if !ok || l.Path.Generic == nil || r.Path.Generic == nil {
			return
		}
		lp, rp := l.Path.Generic.Params, r.Path.Generic.Params
		if lp == nil || rp == nil || len(lp.Lifetimes) != len(rp.Lifetimes) {
			return
		}
		for i := range lp.Lifetimes {
			e.ctx.equateLifetimes(at, lp.Lifetimes[i], rp.Lifetimes[i])
		}
	case *hir.FunctionType:
		r, ok := rhs.(*hir.FunctionType)
		if !ok || len(l.Args) != len(r.Args) {
			return
		}
		for i := range l.Args {
			e.equateTypes(at, l.Args[i], r.Args[i])
		}
		e.equateTypes(at, l.Return, r.Return)
	}
}

// substLifetimes replaces every LifetimeUnknown/LifetimeHRL occurrence
// within ty with a fresh ivar, recursing into every structural position a
// lifetime can appear (spec.md §4.6.2: "for every expression node and
// every type substitution"). Two distinct occurrences of the same HRL name
// within one call each get their own fresh ivar, matching "replaced with
// fresh ivars at every use site" — a `for<'a>` bound is re-instantiated
// per use, not shared across uses.
func (e *enumerator) substLifetimes(ty hir.Type, at token.Pos) hir.Type {
	switch v := ty.(type) {
	case *hir.Borrow:
		n := *v
		n.Lifetime = e.freshIfNeeded(v.Lifetime, at)
		n.Inner = e.substLifetimes(v.Inner, at)
		return &n
	case *hir.Pointer:
		n := *v
		n.Inner = e.substLifetimes(v.Inner, at)
		return &n
	case *hir.Slice:
		return &hir.Slice{Element: e.substLifetimes(v.Element, at)}
	case *hir.Array:
		n := *v
		n.Element = e.substLifetimes(v.Element, at)
		return &n
	case *hir.Tuple:
		elems := make([]hir.Type, len(v.Elements))
		for i, el := range v.Elements {
			elems[i] = e.substLifetimes(el, at)
		}
		return &hir.Tuple{Elements: elems}
	case *hir.FunctionType:
		n := *v
		n.Args = make([]hir.Type, len(v.Args))
		for i, a := range v.Args {
			n.Args[i] = e.substLifetimes(a, at)
		}
		n.Return = e.substLifetimes(v.Return, at)
		return &n
	case *hir.PathType:
		if v.Path.Kind != hir.PathGeneric || v.Path.Generic == nil || v.Path.Generic.Params == nil {
			return v
		}
		params := v.Path.Generic.Params
		if !anyNeedsFresh(params.Lifetimes) {
			return v
		}
		lifetimes := make([]hir.Lifetime, len(params.Lifetimes))
		for i, l := range params.Lifetimes {
			lifetimes[i] = e.freshIfNeeded(l, at)
		}
		gp := *v.Path.Generic
		gp.Params = &hir.PathParams{Lifetimes: lifetimes, Types: params.Types, Values: params.Values}
		p := *v.Path
		p.Generic = &gp
		return &hir.PathType{Path: &p}
	case *hir.TraitObject:
		n := *v
		n.Lifetime = e.freshIfNeeded(v.Lifetime, at)
		return &n
	default:
		return ty
	}
}

func (e *enumerator) freshIfNeeded(lt hir.Lifetime, at token.Pos) hir.Lifetime {
	if lt.Kind == hir.LifetimeUnknown || lt.Kind == hir.LifetimeHRL {
		return e.ctx.NewIvar(at)
	}
	return lt
}

func anyNeedsFresh(lts []hir.Lifetime) bool {
	for _, l := range lts {
		if l.Kind == hir.LifetimeUnknown || l.Kind == hir.LifetimeHRL {
			return true
		}
	}
	return false
}

// patternDeclaredType extracts the declared type of a let-binding pattern,
// used by the Let case above to equate the binding's own lifetime slots
// against the initializer's. Returns nil for pattern shapes that don't
// carry one (only PatternBinding does).
func patternDeclaredType(pat hir.Pattern) hir.Type {
	if b, ok := pat.(*hir.PatternBinding); ok {
		return b.Ty
	}
	return nil
}
