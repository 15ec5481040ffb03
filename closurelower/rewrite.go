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

package closurelower

import (
	"sort"

	"github.com/rlang/hirxc/hir"
	"github.com/rlang/hirxc/hirvisit"
)

// bodyRewriter implements spec.md §4.5 step 2: renumber a closure/
// generator's own local variable slots starting at 1 (0 is reserved for
// self) and rewrite references to captured slots into `self.N` field
// accesses, wrapped in a Deref when the capture was stored by reference.
// selfType and fieldTypes (the struct's own already-decided field types,
// in capture order) are threaded through so the synthesized self/field
// nodes carry correct result types rather than the pre-capture ones.
type bodyRewriter struct {
	localRemap   map[int]int
	captureIndex map[int]int
	captureUsage map[int]hir.Usage
	selfType     hir.Type
	fieldTypes   []hir.Type
	// fieldOffset is added to a capture's position in the capture list to
	// get its actual struct field index: 0 for a closure (the struct holds
	// nothing but captures), 1 for a generator (field 0 is the state
	// discriminant).
	fieldOffset int
}

func newBodyRewriter(locals map[int]bool, captures []capture, selfType hir.Type, fieldTypes []hir.Type, fieldOffset, startSlot int) *bodyRewriter {
	r := &bodyRewriter{
		localRemap:   map[int]int{},
		captureIndex: map[int]int{},
		captureUsage: map[int]hir.Usage{},
		selfType:     selfType,
		fieldTypes:   fieldTypes,
		fieldOffset:  fieldOffset,
	}
	ordered := make([]int, 0, len(locals))
	for slot := range locals {
		ordered = append(ordered, slot)
	}
	sort.Ints(ordered)
	next := startSlot
	for _, slot := range ordered {
		r.localRemap[slot] = next
		next++
	}
	for i, c := range captures {
		r.captureIndex[c.OuterSlot] = i
		r.captureUsage[c.OuterSlot] = c.Usage
	}
	return r
}

func (r *bodyRewriter) VisitExpr(ptr *hir.Expr) bool {
	v, ok := (*ptr).(*hir.ExprVariable)
	if !ok {
		return true
	}
	if newSlot, isLocal := r.localRemap[v.Slot]; isLocal {
		v.Slot = newSlot
		return true
	}
	idx, isCapture := r.captureIndex[v.Slot]
	if !isCapture {
		// Neither bound within this body nor found in the capture list
		// computed from the very same scan: a bug in the capture analysis
		// upstream of this rewrite, not a recoverable input condition.
		panic("closurelower: bodyRewriter: variable slot is neither local nor captured")
	}
	self := &hir.ExprVariable{Slot: 0, Name: "self"}
	self.SetResultType(r.selfType)
	field := &hir.ExprField{Base: self, Kind: hir.FieldIndexed, Index: idx + r.fieldOffset}
	field.SetResultType(r.fieldTypes[idx])
	var access hir.Expr = field
	if u := r.captureUsage[v.Slot]; u == hir.UsageBorrow || u == hir.UsageMutate {
		deref := &hir.ExprDeref{Base: field}
		deref.SetResultType(v.ResultType())
		access = deref
	}
	*ptr = access
	return false
}

func rewriteBody(body *hir.Expr, locals map[int]bool, captures []capture, selfType hir.Type, fieldTypes []hir.Type, fieldOffset, startSlot int) *bodyRewriter {
	r := newBodyRewriter(locals, captures, selfType, fieldTypes, fieldOffset, startSlot)
	hirvisit.WalkExpr(body, r)
	return r
}

// newSlotOf looks up the renumbered slot for one of the closure's own
// params, after rewriteBody has run.
func (r *bodyRewriter) newSlotOf(oldSlot int) int { return r.localRemap[oldSlot] }
