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

package usageinfer

import "github.com/rlang/hirxc/hir"

// isCopy reports whether ty is known-Copy, the only question the
// Field/Index/Deref usage rule needs answered (spec.md §4.4). Anything not
// structurally decidable here (an unresolved generic, an erased type, a
// trait object) is conservatively treated as non-Copy: undercounting Copy
// only ever costs a tighter (Move-propagating) usage tag, never an unsound
// one.
func isCopy(ty hir.Type) bool {
	switch v := ty.(type) {
	case *hir.Primitive:
		return v.Name != hir.PrimStr
	case *hir.Borrow:
		return v.Kind == hir.BorrowShared
	case *hir.Pointer:
		return true
	case *hir.Tuple:
		for _, e := range v.Elements {
			if !isCopy(e) {
				return false
			}
		}
		return true
	case *hir.Array:
		return isCopy(v.Element)
	case *hir.ClosureType:
		return v.IsCopy
	case *hir.PathType:
		return pathTypeIsCopy(v)
	default:
		return false
	}
}

// pathTypeIsCopy resolves a PathType through its GenericPath.ResolvedItem
// (populated by name resolution ahead of this core) to the owning
// struct/enum's precomputed StructMarkings.IsCopy.
func pathTypeIsCopy(pt *hir.PathType) bool {
	if pt.Path.Kind != hir.PathGeneric || pt.Path.Generic == nil {
		return false
	}
	switch item := pt.Path.Generic.ResolvedItem.(type) {
	case *hir.Struct:
		return item.Markings.IsCopy
	case *hir.Enum:
		return item.Markings.IsCopy
	default:
		return false
	}
}
