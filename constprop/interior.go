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

package constprop

import "github.com/rlang/hirxc/hir"

// isInteriorMutable reports whether ty might let its bytes change through a
// shared reference, disqualifying it from both the const-fn-result rule and
// the Borrow-promotion rule of spec.md §4.8. Struct interior mutability is
// a precomputed fact (hir.StructMarkings.IsInteriorMutable, set by the
// frontend the same way IsCopy is); a union carries no such marking and
// answers false. This just propagates it
// through the composite type shapes a constant expression's result type can
// take.
func isInteriorMutable(ty hir.Type) bool {
	switch v := ty.(type) {
	case *hir.Tuple:
		for _, e := range v.Elements {
			if isInteriorMutable(e) {
				return true
			}
		}
		return false
	case *hir.Array:
		return isInteriorMutable(v.Element)
	case *hir.PathType:
		if v.Path.Kind != hir.PathGeneric || v.Path.Generic == nil {
			return false
		}
		switch item := v.Path.Generic.ResolvedItem.(type) {
		case *hir.Struct:
			return item.Markings.IsInteriorMutable
		case *hir.Union:
			return false
		default:
			return false
		}
	default:
		return false
	}
}

// isZeroSizedType conservatively recognizes the type shapes the const
// evaluator can prove are zero-sized without a real layout query: unit, the
// empty tuple, a fixed-length-0 array, and a tuple/array built entirely from
// zero-sized elements. Anything else (including a struct, since this HIR
// doesn't track per-field layout) answers false rather than guess.
func isZeroSizedType(ty hir.Type) bool {
	switch v := ty.(type) {
	case *hir.Primitive:
		return v.Name == hir.PrimUnit
	case *hir.Tuple:
		for _, e := range v.Elements {
			if !isZeroSizedType(e) {
				return false
			}
		}
		return true
	case *hir.Array:
		return v.Len.Known && (v.Len.Value == 0 || isZeroSizedType(v.Element))
	default:
		return false
	}
}
