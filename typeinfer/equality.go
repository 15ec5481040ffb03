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

package typeinfer

import (
	"github.com/rlang/hirxc/hir"
	"github.com/rlang/hirxc/traitresolve"
)

// Unify implements spec.md §4.3.4's equality propagation: require l and r
// to denote the same type, assigning through any ivars encountered and
// falling back to a coercion when their shapes don't match outright. It
// reports whether l and r could be reconciled.
func (c *Context) Unify(l, r hir.Type) bool {
	l, r = c.GetType(l), c.GetType(r)

	if lv, ok := l.(*hir.Infer); ok {
		if rv, ok := r.(*hir.Infer); ok {
			return c.IvarUnify(lv.Ivar, rv.Ivar)
		}
		return c.SetIvarTo(lv.Ivar, r)
	}
	if rv, ok := r.(*hir.Infer); ok {
		return c.SetIvarTo(rv.Ivar, l)
	}

	if c.unifyStructural(l, r) {
		return true
	}
	return c.coerce(l, r)
}

func (c *Context) unifyStructural(l, r hir.Type) bool {
	switch lv := l.(type) {
	case *hir.Primitive:
		rv, ok := r.(*hir.Primitive)
		return ok && lv.Name == rv.Name
	case *hir.Diverge:
		_, ok := r.(*hir.Diverge)
		return ok
	case *hir.Borrow:
		rv, ok := r.(*hir.Borrow)
		return ok && lv.Kind == rv.Kind && c.Unify(lv.Inner, rv.Inner)
	case *hir.Pointer:
		rv, ok := r.(*hir.Pointer)
		return ok && lv.Kind == rv.Kind && c.Unify(lv.Inner, rv.Inner)
	case *hir.Slice:
		rv, ok := r.(*hir.Slice)
		return ok && c.Unify(lv.Element, rv.Element)
	case *hir.Array:
		rv, ok := r.(*hir.Array)
		if !ok || !c.Unify(lv.Element, rv.Element) {
			return false
		}
		if lv.Len.Known && rv.Len.Known {
			return lv.Len.Value == rv.Len.Value
		}
		return true
	case *hir.Tuple:
		rv, ok := r.(*hir.Tuple)
		if !ok || len(lv.Elements) != len(rv.Elements) {
			return false
		}
		for i := range lv.Elements {
			if !c.Unify(lv.Elements[i], rv.Elements[i]) {
				return false
			}
		}
		return true
	case *hir.FunctionType:
		rv, ok := r.(*hir.FunctionType)
		if !ok || len(lv.Args) != len(rv.Args) {
			return false
		}
		for i := range lv.Args {
			if !c.Unify(lv.Args[i], rv.Args[i]) {
				return false
			}
		}
		return c.Unify(lv.Return, rv.Return)
	case *hir.PathType:
		rv, ok := r.(*hir.PathType)
		return ok && c.unifyPath(lv.Path, rv.Path)
	case *hir.TraitObject:
		rv, ok := r.(*hir.TraitObject)
		return ok && c.unifyTraitObject(lv, rv)
	case *hir.Generic:
		rv, ok := r.(*hir.Generic)
		return ok && lv.Group == rv.Group && lv.Index == rv.Index && lv.ImplID == rv.ImplID
	case *hir.ClosureType:
		rv, ok := r.(*hir.ClosureType)
		return ok && lv.Node == rv.Node
	case *hir.GeneratorType:
		rv, ok := r.(*hir.GeneratorType)
		return ok && lv.Node == rv.Node
	case *hir.ErasedType:
		rv, ok := r.(*hir.ErasedType)
		return ok && lv.Origin.Function == rv.Origin.Function && lv.Index == rv.Index
	default:
		return false
	}
}

// unifyPath implements "for paths, equate parameters positionally."
func (c *Context) unifyPath(l, r *hir.Path) bool {
	if l.Kind != r.Kind {
		return false
	}
	switch l.Kind {
	case hir.PathGeneric:
		if len(l.Generic.Segments) != len(r.Generic.Segments) {
			return false
		}
		for i := range l.Generic.Segments {
			if l.Generic.Segments[i] != r.Generic.Segments[i] {
				return false
			}
		}
		return c.PathParamsEqual(l.Generic.Params, r.Generic.Params)
	default:
		if l.UfcsItem != r.UfcsItem {
			return false
		}
		if !c.Unify(l.UfcsSelfType, r.UfcsSelfType) {
			return false
		}
		if (l.UfcsTrait == nil) != (r.UfcsTrait == nil) {
			return false
		}
		return l.UfcsTrait == nil || c.PathParamsEqual(l.UfcsTrait.Params, r.UfcsTrait.Params)
	}
}

// unifyTraitObject implements "equate principal, marker list
// (order-sensitive), and associated-type bounds."
func (c *Context) unifyTraitObject(l, r *hir.TraitObject) bool {
	if !hir.GenericPathsEqual(l.Principal, r.Principal) || len(l.Markers) != len(r.Markers) {
		return false
	}
	for i := range l.Markers {
		if !hir.GenericPathsEqual(l.Markers[i], r.Markers[i]) {
			return false
		}
	}
	if len(l.AssociatedTys) != len(r.AssociatedTys) {
		return false
	}
	for k, lt := range l.AssociatedTys {
		rt, ok := r.AssociatedTys[k]
		if !ok || !c.Unify(lt, rt) {
			return false
		}
	}
	return true
}

// coerce applies the adjustment rules listed for a shape mismatch: a
// unique borrow coerces to a shared one or to a raw pointer of either
// mutability, an unsized coercion fires through Resolver.CanUnsize, and a
// deref coercion steps through Resolver.Autoderef looking for a shape
// that does unify.
func (c *Context) coerce(l, r hir.Type) bool {
	if lb, ok := l.(*hir.Borrow); ok && lb.Kind == hir.BorrowUnique {
		if rb, ok := r.(*hir.Borrow); ok && rb.Kind == hir.BorrowShared {
			return c.Unify(lb.Inner, rb.Inner)
		}
		if rp, ok := r.(*hir.Pointer); ok {
			return c.Unify(lb.Inner, rp.Inner)
		}
	}

	hint := func(h traitresolve.EqualityHint) { c.Unify(h.Left, h.Right) }
	var refined hir.Type
	setRefined := func(t hir.Type) { refined = t }
	if g := c.Resolver.CanUnsize(r, l, setRefined, hint); g != traitresolve.Unequal {
		if refined != nil {
			return c.Unify(refined, r)
		}
		return true
	}

	if next, ok := c.Resolver.Autoderef(l); ok {
		return c.unifyStructural(next, r) || c.coerce(next, r)
	}
	return false
}
