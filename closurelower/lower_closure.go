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

import "github.com/rlang/hirxc/hir"

// lowerClosure implements spec.md §4.5 steps 1-7 for a single ExprClosure
// node. It is called leaves-up (nested closures are already lowered by the
// time this runs), so the capture scan below only ever sees Captures lists
// for any closure literal still appearing in n.Body.
func (x *Extractor) lowerClosure(_ *hir.Expr, n *hir.ExprClosure, itemGenerics, implGenerics *hir.GenericParams, selfInScope bool) {
	structGenerics, remap := buildStructGenerics(selfInScope, implGenerics, itemGenerics)

	scan := newCaptureScan(n.Params)
	scan.walk(n.Body)
	caps := scan.captures()

	fieldTypes := make([]hir.Type, len(caps))
	fields := make([]hir.StructField, len(caps))
	allCopy := true
	for i, c := range caps {
		ft := remapGenerics(c.FieldType, remap)
		switch c.Usage {
		case hir.UsageBorrow:
			ft = &hir.Borrow{Kind: hir.BorrowShared, Lifetime: hir.Lifetime{Kind: hir.LifetimeUnknown}, Inner: ft}
		case hir.UsageMutate:
			ft = &hir.Borrow{Kind: hir.BorrowUnique, Lifetime: hir.Lifetime{Kind: hir.LifetimeUnknown}, Inner: ft}
		}
		fieldTypes[i] = ft
		fields[i] = hir.StructField{Name: c.Name, Ty: ft}
		if !isCopyType(ft) {
			allCopy = false
		}
	}

	name, owner := x.NewType()
	newStruct := &hir.Struct{
		Name:     name,
		Generics: structGenerics,
		Fields:   fields,
		Markings: hir.StructMarkings{IsCopy: allCopy, UnsizedParam: -1},
	}
	x.Buffer.Structs = append(x.Buffer.Structs, newStruct)

	selfType := &hir.PathType{Path: buildTypePath(owner, name, structGenerics, newStruct)}

	rw := rewriteBody(&n.Body, scan.locals(), caps, selfType, fieldTypes, 0, 1)

	params := make([]hir.Param, len(n.Params))
	for i, p := range n.Params {
		newSlot := rw.newSlotOf(p.Slot)
		params[i] = hir.Param{
			Pat: &hir.PatternBinding{Name: p.Name, Mode: hir.BindMove, Slot: newSlot, Ty: remapGenerics(p.Ty, remap)},
			Ty:  remapGenerics(p.Ty, remap),
		}
	}
	retType := remapGenerics(n.RetType, remap)

	class := classify(caps)
	switch class {
	case classNoCapture:
		x.emitNoCaptureImpls(selfType, structGenerics, params, retType, n.Body)
	case classShared:
		x.emitFnImpls(selfType, structGenerics, params, retType, n.Body, hir.ReceiverBorrowShared)
	case classMut:
		x.emitFnMutImpls(selfType, structGenerics, params, retType, n.Body, hir.ReceiverBorrowUnique)
	case classOnce:
		x.emitFnOnceOnly(selfType, structGenerics, params, retType, n.Body)
	}
	if allCopy {
		x.Buffer.MarkerImpls = append(x.Buffer.MarkerImpls, &hir.MarkerImpl{
			Generics: structGenerics,
			Trait:    copyTraitPath(),
			SelfType: selfType,
		})
	}

	n.Body = nil
	n.ObjPath = buildTypePath(owner, name, structGenerics, newStruct)
	n.Captures = make([]hir.ClosureCapture, len(caps))
	for i, c := range caps {
		n.Captures[i] = hir.ClosureCapture{Name: c.Name, OuterSlot: c.OuterSlot, Usage: c.Usage, FieldType: c.FieldType}
	}
}

func copyTraitPath() *hir.GenericPath {
	return &hir.GenericPath{Segments: []string{"core", "marker", "Copy"}}
}

func fnTraitPath(name string) *hir.GenericPath {
	return &hir.GenericPath{Segments: []string{"core", "ops", name}}
}

func selfParam(kind hir.ReceiverKind) hir.Param {
	return hir.Param{Pat: &hir.PatternBinding{Name: "self", Mode: hir.BindMove, Slot: 0}}
}

func forwardingBody(calleeMethod string, params []hir.Param, retType hir.Type) hir.Expr {
	args := make([]hir.Expr, len(params))
	for i, p := range params {
		b, ok := p.Pat.(*hir.PatternBinding)
		if !ok {
			continue
		}
		v := &hir.ExprVariable{Slot: b.Slot, Name: b.Name}
		v.SetResultType(p.Ty)
		args[i] = v
	}
	self := &hir.ExprVariable{Slot: 0, Name: "self"}
	call := &hir.ExprCallMethod{Receiver: self, Method: calleeMethod, Args: args}
	call.SetResultType(retType)
	return call
}

// emitFnImpls emits the real Fn::call body plus FnMut/FnOnce impls that
// forward to it, the "Shared" shape of spec.md §4.5 step 5.
func (x *Extractor) emitFnImpls(selfType hir.Type, g *hir.GenericParams, params []hir.Param, ret hir.Type, body hir.Expr, recv hir.ReceiverKind) {
	callParams := append([]hir.Param{selfParam(recv)}, params...)
	real := &hir.Function{Name: "call", Generics: &hir.GenericParams{}, Params: callParams, ReturnType: ret, Body: body, ReceiverKind: recv, IsMethod: true}
	x.Buffer.TraitImpls = append(x.Buffer.TraitImpls,
		&hir.TraitImpl{Generics: g, Trait: fnTraitPath("Fn"), SelfType: selfType, Methods: []*hir.Function{real}},
		&hir.TraitImpl{Generics: g, Trait: fnTraitPath("FnMut"), SelfType: selfType, Methods: []*hir.Function{
			{Name: "call_mut", Generics: &hir.GenericParams{}, Params: append([]hir.Param{selfParam(hir.ReceiverBorrowUnique)}, params...), ReturnType: ret, Body: forwardingBody("call", params, ret), ReceiverKind: hir.ReceiverBorrowUnique, IsMethod: true},
		}},
		&hir.TraitImpl{Generics: g, Trait: fnTraitPath("FnOnce"), SelfType: selfType, Methods: []*hir.Function{
			{Name: "call_once", Generics: &hir.GenericParams{}, Params: append([]hir.Param{selfParam(hir.ReceiverValue)}, params...), ReturnType: ret, Body: forwardingBody("call", params, ret), ReceiverKind: hir.ReceiverValue, IsMethod: true},
		}},
	)
}

// emitFnMutImpls emits the real FnMut::call_mut body plus a forwarding
// FnOnce impl, the "Mut" shape.
func (x *Extractor) emitFnMutImpls(selfType hir.Type, g *hir.GenericParams, params []hir.Param, ret hir.Type, body hir.Expr, recv hir.ReceiverKind) {
	callParams := append([]hir.Param{selfParam(recv)}, params...)
	real := &hir.Function{Name: "call_mut", Generics: &hir.GenericParams{}, Params: callParams, ReturnType: ret, Body: body, ReceiverKind: recv, IsMethod: true}
	x.Buffer.TraitImpls = append(x.Buffer.TraitImpls,
		&hir.TraitImpl{Generics: g, Trait: fnTraitPath("FnMut"), SelfType: selfType, Methods: []*hir.Function{real}},
		&hir.TraitImpl{Generics: g, Trait: fnTraitPath("FnOnce"), SelfType: selfType, Methods: []*hir.Function{
			{Name: "call_once", Generics: &hir.GenericParams{}, Params: append([]hir.Param{selfParam(hir.ReceiverValue)}, params...), ReturnType: ret, Body: forwardingBody("call_mut", params, ret), ReceiverKind: hir.ReceiverValue, IsMethod: true},
		}},
	)
}

// emitFnOnceOnly emits just the FnOnce::call_once body, the "Once" shape:
// the closure moves a non-Copy capture, so it cannot be called more than
// once and has no Fn/FnMut impl at all.
func (x *Extractor) emitFnOnceOnly(selfType hir.Type, g *hir.GenericParams, params []hir.Param, ret hir.Type, body hir.Expr) {
	callParams := append([]hir.Param{selfParam(hir.ReceiverValue)}, params...)
	real := &hir.Function{Name: "call_once", Generics: &hir.GenericParams{}, Params: callParams, ReturnType: ret, Body: body, ReceiverKind: hir.ReceiverValue, IsMethod: true}
	x.Buffer.TraitImpls = append(x.Buffer.TraitImpls,
		&hir.TraitImpl{Generics: g, Trait: fnTraitPath("FnOnce"), SelfType: selfType, Methods: []*hir.Function{real}},
	)
}

// emitNoCaptureImpls is the "NoCapture" shape: a capture-less closure needs
// no self state, so the real body lives in the Fn impl's call method and the
// FnMut and FnOnce impls forward to call. No inherent method is emitted.
func (x *Extractor) emitNoCaptureImpls(selfType hir.Type, g *hir.GenericParams, params []hir.Param, ret hir.Type, body hir.Expr) {
	freeParams := append([]hir.Param{selfParam(hir.ReceiverBorrowShared)}, params...)
	x.Buffer.TraitImpls = append(x.Buffer.TraitImpls,
		&hir.TraitImpl{Generics: g, Trait: fnTraitPath("Fn"), SelfType: selfType, Methods: []*hir.Function{
			{Name: "call", Generics: &hir.GenericParams{}, Params: freeParams, ReturnType: ret, Body: body, ReceiverKind: hir.ReceiverBorrowShared, IsMethod: true},
		}},
		&hir.TraitImpl{Generics: g, Trait: fnTraitPath("FnMut"), SelfType: selfType, Methods: []*hir.Function{
			{Name: "call_mut", Generics: &hir.GenericParams{}, Params: append([]hir.Param{selfParam(hir.ReceiverBorrowUnique)}, params...), ReturnType: ret, Body: forwardingBody("call", params, ret), ReceiverKind: hir.ReceiverBorrowUnique, IsMethod: true},
		}},
		&hir.TraitImpl{Generics: g, Trait: fnTraitPath("FnOnce"), SelfType: selfType, Methods: []*hir.Function{
			{Name: "call_once", Generics: &hir.GenericParams{}, Params: append([]hir.Param{selfParam(hir.ReceiverValue)}, params...), ReturnType: ret, Body: forwardingBody("call", params, ret), ReceiverKind: hir.ReceiverValue, IsMethod: true},
		}},
	)
}
