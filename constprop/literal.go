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

func intLiteral(v uint64, signed bool) *hir.Literal {
	return &hir.Literal{LiteralTag: hir.LitInteger, Integer: v, Signed: signed}
}

func floatLiteral(v float64) *hir.Literal {
	return &hir.Literal{LiteralTag: hir.LitFloat, Float: v}
}

func boolLiteral(v bool) *hir.Literal {
	if v {
		return intLiteral(1, false)
	}
	return intLiteral(0, false)
}

func listLiteral(elems []*hir.Literal) *hir.Literal {
	return &hir.Literal{LiteralTag: hir.LitList, List: elems}
}

func variantLiteral(idx int, fields []*hir.Literal) *hir.Literal {
	return &hir.Literal{LiteralTag: hir.LitVariant, VariantIndex: idx, List: fields}
}

func stringLiteral(s string) *hir.Literal {
	return &hir.Literal{LiteralTag: hir.LitString, Str: s}
}

func borrowLiteral(p *hir.Path) *hir.Literal {
	return &hir.Literal{LiteralTag: hir.LitBorrowOf, BorrowPath: p}
}

// maskInteger implements spec.md §4.8's "Literal-type post-check masks
// integer literals to their primitive width": truncate v to width bits,
// then (if signed) sign-extend the top bit back out to a full uint64 so
// comparisons and further arithmetic see the right signed value.
func maskInteger(v uint64, width int, signed bool) uint64 {
	if width <= 0 || width >= 64 {
		return v
	}
	mask := uint64(1)<<uint(width) - 1
	v &= mask
	if signed && v&(uint64(1)<<uint(width-1)) != 0 {
		v |= ^mask
	}
	return v
}

func widthOf(target map[string]int, name hir.PrimitiveName) int {
	if w, ok := target[string(name)]; ok {
		return w
	}
	return 64
}

func isSignedPrimitive(name hir.PrimitiveName) bool {
	switch name {
	case hir.PrimI8, hir.PrimI16, hir.PrimI32, hir.PrimI64, hir.PrimI128, hir.PrimIsize:
		return true
	}
	return false
}
