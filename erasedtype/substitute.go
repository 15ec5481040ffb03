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

// substGroup replaces every Generic reference belonging to group within ty
// with the corresponding entry of args, leaving every other generic and
// every non-generic shape untouched. It mirrors vtablegen's substVTableType,
// the established shape for a structural generic-substitution walk in this
// codebase.
func substGroup(ty hir.Type, group hir.GenericGroup, args []hir.Type) hir.Type {
	switch v := ty.(type) {
	case nil:
		return nil
	case *hir.Generic:
		if v.Group == group && int(v.Index) < len(args) && args[v.Index] != nil {
			return args[v.Index]
		}
		return v
	case *hir.Borrow:
		n := *v
		n.Inner = substGroup(v.Inner, group, args)
		return &n
	case *hir.Pointer:
		n := *v
		n.Inner = substGroup(v.Inner, group, args)
		return &n
	case *hir.Slice:
		return &hir.Slice{Element: substGroup(v.Element, group, args)}
	case *hir.Array:
		n := *v
		n.Element = substGroup(v.Element, group, args)
		return &n
	case *hir.Tuple:
		elems := make([]hir.Type, len(v.Elements))
		for i, e := range v.Elements {
			elems[i] = substGroup(e, group, args)
		}
		return &hir.Tuple{Elements: elems}
	case *hir.FunctionType:
		n := *v
		n.Args = make([]hir.Type, len(v.Args))
		for i, a := range v.Args {
			n.Args[i] = substGroup(a, group, args)
		}
		n.Return = substGroup(v.Return, group, args)
		return &n
	case *hir.PathType:
		if v.Path.Kind != hir.PathGeneric || v.Path.Generic == nil {
			return v
		}
		return &hir.PathType{Path: &hir.Path{Kind: hir.PathGeneric, Generic: substGenericPathGroup(v.Path.Generic, group, args)}}
	case *hir.ErasedType:
		// Bounds can themselves reference the generics being substituted,
		// e.g. an `impl Iterator<Item = T>` where T is the enclosing impl's
		// own parameter.
		n := *v
		n.Bounds = make([]*hir.GenericPath, len(v.Bounds))
		for i, b := range v.Bounds {
			n.Bounds[i] = substGenericPathGroup(b, group, args)
		}
		return &n
	default:
		return ty
	}
}

func substGenericPathGroup(g *hir.GenericPath, group hir.GenericGroup, args []hir.Type) *hir.GenericPath {
	if g == nil || g.Params == nil || len(g.Params.Types) == 0 {
		return g
	}
	types := make([]hir.Type, len(g.Params.Types))
	for i, t := range g.Params.Types {
		types[i] = substGroup(t, group, args)
	}
	np := *g.Params
	np.Types = types
	ng := *g
	ng.Params = &np
	return &ng
}
