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

// resolvedItem reads a Path's pre-resolved target (filled in by name
// resolution, external to this module), nil if the path isn't the simple
// PathGeneric shape these helpers care about.
func resolvedItem(p *hir.Path) any {
	if p == nil || p.Kind != hir.PathGeneric || p.Generic == nil {
		return nil
	}
	return p.Generic.ResolvedItem
}

func resolveConst(p *hir.Path) (*hir.Const, bool) {
	c, ok := resolvedItem(p).(*hir.Const)
	return c, ok
}

func resolveStatic(p *hir.Path) (*hir.Static, bool) {
	s, ok := resolvedItem(p).(*hir.Static)
	return s, ok
}

func resolveStruct(p *hir.Path) (*hir.Struct, bool) {
	s, ok := resolvedItem(p).(*hir.Struct)
	return s, ok
}

func resolveFunction(p *hir.Path) (*hir.Function, bool) {
	fn, ok := resolvedItem(p).(*hir.Function)
	return fn, ok
}

// resolveVariantIndex finds the declared index of the variant a
// TupleVariant/unit-variant path names, from the owning Enum's Variants
// order. A path resolved straight to an Enum (rather than to a specific
// variant — this HIR has no standalone EnumVariant reference shape) is
// disambiguated by matching the path's final segment against variant names.
func resolveVariantIndex(p *hir.Path) (int, bool) {
	en, ok := resolvedItem(p).(*hir.Enum)
	if !ok || p.Generic == nil || len(p.Generic.Segments) == 0 {
		return 0, false
	}
	name := p.Generic.Segments[len(p.Generic.Segments)-1]
	for i, v := range en.Variants {
		if v.Name == name {
			return i, true
		}
	}
	return 0, false
}
