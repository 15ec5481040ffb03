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

package erasedtype

import "github.com/rlang/hirxc/hir"

// unifySelfType structurally unifies pattern (an inherent impl's SelfType,
// which may reference that impl's own GroupImpl generics as free slots)
// against concrete (the Self type recorded on a UFCS-inherent ErasedOrigin),
// filling slots as it goes. It reports whether the two types have the same
// shape.
//
// This mirrors traitresolve's impl-matching unifier (unifyFuzz in
// params.go), which cannot be imported directly since it is unexported.
// The copy here is simpler: traitresolve's version has to tolerate
// unresolved ivars and UFCS-unknown paths mid-inference and grade the match
// Equal/Fuzzy/Unequal accordingly, but erased-type expansion runs after
// typeinfer has already resolved every ivar in the crate, so there is
// nothing left to degrade — a type either unifies or it doesn't.
func unifySelfType(pattern, concrete hir.Type, slots []hir.Type) bool {
	if g, ok := pattern.(*hir.Generic); ok && g.Group == hir.GroupImpl {
		if existing := slots[g.Index]; existing != nil {
			return unifySelfType(existing, concrete, slots)
		}
		slots[g.Index] = concrete
		return true
	}

	switch p := pattern.(type) {
	case *hir.Primitive:
		c, ok := concrete.(*hir.Primitive)
		return ok && c.Name == p.Name
	case *hir.Borrow:
		c, ok := concrete.(*hir.Borrow)
		return ok && c.Kind == p.Kind && unifySelfType(p.Inner, c.Inner, slots)
	case *hir.Pointer:
		c, ok := concrete.(*hir.Pointer)
		return ok && c.Kind == p.Kind && unifySelfType(p.Inner, c.Inner, slots)
	case *hir.Slice:
		c, ok := concrete.(*hir.Slice)
		return ok && unifySelfType(p.Element, c.Element, slots)
	case *hir.Array:
		c, ok := concrete.(*hir.Array)
		if !ok || (p.Len.Known && c.Len.Known && p.Len.Value != c.Len.Value) {
			return false
		}
		return unifySelfType(p.Element, c.Element, slots)
	case *hir.Tuple:
		c, ok := concrete.(*hir.Tuple)
		if !ok || len(p.Elements) != len(c.Elements) {
			return false
		}
		for i := range p.Elements {
			if !unifySelfType(p.Elements[i], c.Elements[i], slots) {
				return false
			}
		}
		return true
	case *hir.PathType:
		c, ok := concrete.(*hir.PathType)
		return ok && unifyPathSelfType(p.Path, c.Path, slots)
	case *hir.Generic:
		// A generic on the pattern side that isn't this impl's own GroupImpl
		// slot (e.g. the impl sits inside a module generic over something
		// else entirely) must match identically rather than bind.
		c, ok := concrete.(*hir.Generic)
		return ok && c.Group == p.Group && c.Index == p.Index && c.ImplID == p.ImplID
	default:
		return hir.TypesEqual(pattern, concrete)
	}
}

func unifyPathSelfType(pattern, concrete *hir.Path, slots []hir.Type) bool {
	if pattern.Kind != hir.PathGeneric || concrete.Kind != hir.PathGeneric {
		return hir.PathsEqual(pattern, concrete)
	}
	pg, cg := pattern.Generic, concrete.Generic
	if pg.ResolvedItem != nil && cg.ResolvedItem != nil {
		if pg.ResolvedItem != cg.ResolvedItem {
			return false
		}
	} else if len(pg.Segments) != len(cg.Segments) {
		return false
	}
	pt, ct := pathParamTypes(pg), pathParamTypes(cg)
	if len(pt) != len(ct) {
		return false
	}
	for i := range pt {
		if !unifySelfType(pt[i], ct[i], slots) {
			return false
		}
	}
	return true
}

func pathParamTypes(g *hir.GenericPath) []hir.Type {
	if g == nil || g.Params == nil {
		return nil
	}
	return g.Params.Types
}
