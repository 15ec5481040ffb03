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

package traitresolve

import "github.com/rlang/hirxc/hir"

// substType rebuilds t with every Generic reference f matches replaced by
// f's substitute, recursing into every type constructor that can nest a
// generic reference. Used to monomorphise an impl's where-clauses and
// supertrait lists against the slot/placeholder substitution computed by
// ficCheckParams (spec.md §4.2.3 step 4).
func substType(t hir.Type, f func(*hir.Generic) (hir.Type, bool)) hir.Type {
	switch v := t.(type) {
	case *hir.Generic:
		if repl, ok := f(v); ok {
			return repl
		}
		return v
	case *hir.Borrow:
		return &hir.Borrow{Kind: v.Kind, Lifetime: v.Lifetime, Inner: substType(v.Inner, f)}
	case *hir.Pointer:
		return &hir.Pointer{Kind: v.Kind, Inner: substType(v.Inner, f)}
	case *hir.Slice:
		return &hir.Slice{Element: substType(v.Element, f)}
	case *hir.Array:
		return &hir.Array{Element: substType(v.Element, f), Len: v.Len}
	case *hir.Tuple:
		elems := make([]hir.Type, len(v.Elements))
		for i, e := range v.Elements {
			elems[i] = substType(e, f)
		}
		return &hir.Tuple{Elements: elems}
	case *hir.PathType:
		return &hir.PathType{Path: substPath(v.Path, f)}
	case *hir.FunctionType:
		args := make([]hir.Type, len(v.Args))
		for i, a := range v.Args {
			args[i] = substType(a, f)
		}
		return &hir.FunctionType{Unsafe: v.Unsafe, ABI: v.ABI, Args: args, Return: substType(v.Return, f)}
	case *hir.TraitObject:
		assoc := make(map[string]hir.Type, len(v.AssociatedTys))
		for k, val := range v.AssociatedTys {
			assoc[k] = substType(val, f)
		}
		return &hir.TraitObject{Principal: substGenericPath(v.Principal, f), Markers: substMarkers(v.Markers, f), AssociatedTys: assoc, Lifetime: v.Lifetime}
	default:
		return t
	}
}

func substMarkers(ms []*hir.GenericPath, f func(*hir.Generic) (hir.Type, bool)) []*hir.GenericPath {
	if ms == nil {
		return nil
	}
	out := make([]*hir.GenericPath, len(ms))
	for i, m := range ms {
		out[i] = substGenericPath(m, f)
	}
	return out
}

func substPath(p *hir.Path, f func(*hir.Generic) (hir.Type, bool)) *hir.Path {
	if p == nil {
		return nil
	}
	switch p.Kind {
	case hir.PathGeneric:
		return &hir.Path{Kind: hir.PathGeneric, Generic: substGenericPath(p.Generic, f)}
	default:
		return &hir.Path{
			Kind:         p.Kind,
			UfcsSelfType: substType(p.UfcsSelfType, f),
			UfcsTrait:    substGenericPath(p.UfcsTrait, f),
			UfcsItem:     p.UfcsItem,
			UfcsParams:   p.UfcsParams,
		}
	}
}

func substGenericPath(g *hir.GenericPath, f func(*hir.Generic) (hir.Type, bool)) *hir.GenericPath {
	if g == nil {
		return nil
	}
	out := &hir.GenericPath{Segments: g.Segments, ResolvedItem: g.ResolvedItem}
	if g.Params != nil {
		types := make([]hir.Type, len(g.Params.Types))
		for i, t := range g.Params.Types {
			types[i] = substType(t, f)
		}
		out.Params = &hir.PathParams{Types: types, Lifetimes: g.Params.Lifetimes, Values: g.Params.Values}
	}
	return out
}
