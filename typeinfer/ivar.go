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

import "github.com/rlang/hirxc/hir"

// typeSlot is one entry of the type-ivar union-find (spec.md §4.3.1):
// either an alias to another slot, or an owned, possibly-still-ivar-laden
// value type.
type typeSlot struct {
	isAlias bool
	alias   int
	value   hir.Type
	class   hir.IvarClass
}

// NewIvar allocates a fresh, unconstrained type inference variable of the
// given class and returns a reference to it.
func (c *Context) NewIvar(class hir.IvarClass) *hir.Infer {
	idx := len(c.typeSlots)
	c.typeSlots = append(c.typeSlots, typeSlot{class: class})
	return &hir.Infer{Ivar: idx, Class: class}
}

// GetType follows ty's alias chain (if ty is an ivar reference) to either
// an unresolved root ivar or the concrete type currently assigned to it.
// A malformed alias cycle (which set_ivar_to/ivar_unify never produce, but
// a corrupted slot vector could) is detected by bounding the walk at the
// slot count, matching the original's "loop-detected" note.
func (c *Context) GetType(ty hir.Type) hir.Type {
	iv, ok := ty.(*hir.Infer)
	if !ok {
		return ty
	}
	idx := iv.Ivar
	for steps := 0; steps <= len(c.typeSlots); steps++ {
		if idx < 0 || idx >= len(c.typeSlots) {
			return ty
		}
		slot := c.typeSlots[idx]
		if !slot.isAlias {
			if slot.value != nil {
				return slot.value
			}
			return &hir.Infer{Ivar: idx, Class: slot.class}
		}
		idx = slot.alias
	}
	return ty
}

// root follows ty's alias chain all the way to its unaliased slot index,
// used internally by SetIvarTo/IvarUnify so they always mutate the true
// root rather than an intermediate alias.
func (c *Context) root(idx int) int {
	for steps := 0; steps <= len(c.typeSlots); steps++ {
		slot := c.typeSlots[idx]
		if !slot.isAlias {
			return idx
		}
		idx = slot.alias
	}
	return idx
}

// SetIvarTo implements set_ivar_to: unify slot idx with ty. If ty is
// itself an (unresolved) ivar, idx is aliased to it; otherwise idx's
// value is assigned directly. A class mismatch between two already-
// classed ivars, or a primitive assigned to an incompatible class, is
// reported to the caller so it can raise the appropriate inference error;
// this function itself always completes the union (callers that care
// about the mismatch decide how to recover).
func (c *Context) SetIvarTo(idx int, ty hir.Type) bool {
	idx = c.root(idx)
	ok := true

	if rhsIvar, isIvar := ty.(*hir.Infer); isIvar {
		rIdx := c.root(rhsIvar.Ivar)
		if rIdx == idx {
			return true
		}
		ok = classCompatible(c.typeSlots[idx].class, c.typeSlots[rIdx].class)
		cls := mergeClass(c.typeSlots[idx].class, c.typeSlots[rIdx].class)
		c.typeSlots[idx] = typeSlot{isAlias: true, alias: rIdx}
		c.typeSlots[rIdx].class = cls
		return ok
	}

	if prim, isPrim := ty.(*hir.Primitive); isPrim {
		ok = classAccepts(c.typeSlots[idx].class, prim)
	}
	c.typeSlots[idx] = typeSlot{value: ty, class: c.typeSlots[idx].class}
	return ok
}

// IvarUnify implements ivar_unify: alias b's root to a's root, merging
// their literal-fallback classes (a None class widens to the other
// side's class).
func (c *Context) IvarUnify(a, b int) bool {
	aRoot, bRoot := c.root(a), c.root(b)
	if aRoot == bRoot {
		return true
	}
	ok := classCompatible(c.typeSlots[aRoot].class, c.typeSlots[bRoot].class)
	cls := mergeClass(c.typeSlots[aRoot].class, c.typeSlots[bRoot].class)
	c.typeSlots[bRoot] = typeSlot{isAlias: true, alias: aRoot}
	c.typeSlots[aRoot].class = cls
	return ok
}

func mergeClass(a, b hir.IvarClass) hir.IvarClass {
	if a == hir.ClassNone {
		return b
	}
	return a
}

func classCompatible(a, b hir.IvarClass) bool {
	return a == hir.ClassNone || b == hir.ClassNone || a == b
}

func classAccepts(class hir.IvarClass, prim *hir.Primitive) bool {
	switch class {
	case hir.ClassInteger:
		return prim.IsInteger()
	case hir.ClassFloat:
		return prim.IsFloat()
	default:
		return true
	}
}

// ApplyDefaults implements apply_defaults: every still-unresolved ivar
// carrying a literal-fallback class is assigned its default (Integer →
// i32, Float → f64).
func (c *Context) ApplyDefaults() {
	for idx, slot := range c.typeSlots {
		if slot.isAlias || slot.value != nil {
			continue
		}
		switch slot.class {
		case hir.ClassInteger:
			c.typeSlots[idx].value = &hir.Primitive{Name: hir.PrimI32}
		case hir.ClassFloat:
			c.typeSlots[idx].value = &hir.Primitive{Name: hir.PrimF64}
		}
	}
}

// CompactIvars implements compact_ivars: every slot's alias chain is
// collapsed to point directly at its root, and every resolved value has
// any ivars it still contains expanded in place. Call once inference for
// the body has converged, before handing types to later passes.
func (c *Context) CompactIvars() {
	for idx := range c.typeSlots {
		root := c.root(idx)
		if root != idx {
			c.typeSlots[idx] = typeSlot{isAlias: true, alias: root}
			continue
		}
		if c.typeSlots[idx].value != nil {
			c.typeSlots[idx].value = c.expand(c.typeSlots[idx].value)
		}
	}
}

func (c *Context) expand(ty hir.Type) hir.Type {
	resolved := c.GetType(ty)
	switch v := resolved.(type) {
	case *hir.Borrow:
		n := *v
		n.Inner = c.expand(v.Inner)
		return &n
	case *hir.Pointer:
		n := *v
		n.Inner = c.expand(v.Inner)
		return &n
	case *hir.Slice:
		return &hir.Slice{Element: c.expand(v.Element)}
	case *hir.Array:
		n := *v
		n.Element = c.expand(v.Element)
		return &n
	case *hir.Tuple:
		elems := make([]hir.Type, len(v.Elements))
		for i, e := range v.Elements {
			elems[i] = c.expand(e)
		}
		return &hir.Tuple{Elements: elems}
	case *hir.FunctionType:
		n := *v
		n.Args = make([]hir.Type, len(v.Args))
		for i, a := range v.Args {
			n.Args[i] = c.expand(a)
		}
		n.Return = c.expand(v.Return)
		return &n
	case *hir.PathType:
		if v.Path.Kind != hir.PathGeneric || v.Path.Generic == nil || v.Path.Generic.Params == nil {
			return v
		}
		types := make([]hir.Type, len(v.Path.Generic.Params.Types))
		for i, t := range v.Path.Generic.Params.Types {
			types[i] = c.expand(t)
		}
		gp := *v.Path.Generic
		gp.Params = &hir.PathParams{Types: types, Lifetimes: v.Path.Generic.Params.Lifetimes, Values: v.Path.Generic.Params.Values}
		p := *v.Path
		p.Generic = &gp
		return &hir.PathType{Path: &p}
	default:
		return resolved
	}
}

// TypeContainsIvars implements type_contains_ivars: does ty, after
// following aliases, still reference an unresolved ivar anywhere?
func (c *Context) TypeContainsIvars(ty hir.Type) bool {
	resolved := c.GetType(ty)
	switch v := resolved.(type) {
	case *hir.Infer:
		return true
	case *hir.Borrow:
		return c.TypeContainsIvars(v.Inner)
	case *hir.Pointer:
		return c.TypeContainsIvars(v.Inner)
	case *hir.Slice:
		return c.TypeContainsIvars(v.Element)
	case *hir.Array:
		return c.TypeContainsIvars(v.Element)
	case *hir.Tuple:
		for _, e := range v.Elements {
			if c.TypeContainsIvars(e) {
				return true
			}
		}
		return false
	case *hir.FunctionType:
		for _, a := range v.Args {
			if c.TypeContainsIvars(a) {
				return true
			}
		}
		return c.TypeContainsIvars(v.Return)
	case *hir.PathType:
		if v.Path.Kind != hir.PathGeneric || v.Path.Generic == nil || v.Path.Generic.Params == nil {
			return false
		}
		for _, t := range v.Path.Generic.Params.Types {
			if c.TypeContainsIvars(t) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// TypesEqual implements types_equal: structural equality that follows
// ivar aliases on both sides before comparing.
func (c *Context) TypesEqual(a, b hir.Type) bool {
	return hir.TypesEqual(c.expand(a), c.expand(b))
}

// PathParamsEqual implements pathparams_equal: positional type-parameter
// equality, ivar-aware.
func (c *Context) PathParamsEqual(a, b *hir.PathParams) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if len(a.Types) != len(b.Types) {
		return false
	}
	for i := range a.Types {
		if !c.TypesEqual(a.Types[i], b.Types[i]) {
			return false
		}
	}
	return true
}
