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

package ufcsrewrite_test

import (
	"testing"

	"github.com/rlang/hirxc/hir"
	"github.com/rlang/hirxc/ufcsrewrite"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) { goleak.VerifyTestMain(m) }

func u32Type() hir.Type { return &hir.Primitive{Name: hir.PrimU32} }

func structPathType(name string, st *hir.Struct) hir.Type {
	return &hir.PathType{Path: &hir.Path{Kind: hir.PathGeneric, Generic: &hir.GenericPath{Segments: []string{name}, ResolvedItem: st}}}
}

func runOnFunction(crate *hir.Crate, body hir.Expr) hir.Expr {
	mod := hir.NewModule([]string{"pkg"})
	fn := &hir.Function{Name: "f", Body: body}
	mod.AddValue("f", &hir.ValueItem{Function: fn})
	crate.Root = mod
	ufcsrewrite.New(crate).Run()
	return fn.Body
}

// TestInherentMethodCallBecomesCallPath covers the common UFCS rewrite:
// `recv.method(arg)` with no resolved trait becomes a PathUfcsInherent
// CallPath with the receiver prepended to the arguments.
func TestInherentMethodCallBecomesCallPath(t *testing.T) {
	t.Parallel()

	st := &hir.Struct{Name: "Widget"}
	recv := &hir.ExprVariable{Slot: 0, Name: "w"}
	recv.SetResultType(structPathType("Widget", st))
	arg := &hir.ExprVariable{Slot: 1, Name: "n"}
	arg.SetResultType(u32Type())

	call := &hir.ExprCallMethod{Receiver: recv, Method: "resize", Args: []hir.Expr{arg}, ArgTypeCache: []hir.Type{u32Type()}}
	call.SetResultType(u32Type())

	crate := hir.NewCrate(nil)
	got := runOnFunction(crate, call)

	cp, ok := got.(*hir.ExprCallPath)
	require.True(t, ok)
	require.Equal(t, hir.PathUfcsInherent, cp.Callee.Kind)
	require.Equal(t, "resize", cp.Callee.UfcsItem)
	require.Len(t, cp.Args, 2)
	require.Same(t, hir.Expr(recv), cp.Args[0])
	require.Same(t, hir.Expr(arg), cp.Args[1])
	require.Len(t, cp.ArgTypeCache, 2)
}

// TestTraitMethodCallUsesResolvedTrait covers the ResolvedTrait-set case:
// the rewritten callee must be PathUfcsKnown naming that trait, with the
// receiver's borrow stripped down to its pointee type for UfcsSelfType.
func TestTraitMethodCallUsesResolvedTrait(t *testing.T) {
	t.Parallel()

	st := &hir.Struct{Name: "Widget"}
	recv := &hir.ExprVariable{Slot: 0, Name: "w"}
	recv.SetResultType(&hir.Borrow{Kind: hir.BorrowShared, Inner: structPathType("Widget", st)})

	trait := &hir.GenericPath{Segments: []string{"Drawable"}}
	call := &hir.ExprCallMethod{Receiver: recv, Method: "draw", ResolvedTrait: trait}
	call.SetResultType(u32Type())

	crate := hir.NewCrate(nil)
	got := runOnFunction(crate, call)

	cp := got.(*hir.ExprCallPath)
	require.Equal(t, hir.PathUfcsKnown, cp.Callee.Kind)
	require.Same(t, trait, cp.Callee.UfcsTrait)
	require.Equal(t, structPathType("Widget", st), cp.Callee.UfcsSelfType)
}

// TestClosureCallValueRewrittenThroughFnTrait covers the CallValue half:
// a callee that isn't a function pointer becomes a CallPath through the
// trait named by TraitUsed, with the callee prepended to args.
func TestClosureCallValueRewrittenThroughFnTrait(t *testing.T) {
	t.Parallel()

	st := &hir.Struct{Name: "Closure0"}
	callee := &hir.ExprVariable{Slot: 0, Name: "c"}
	callee.SetResultType(structPathType("Closure0", st))

	call := &hir.ExprCallValue{Callee: callee, TraitUsed: hir.CallableFnMut}
	call.SetResultType(u32Type())

	crate := hir.NewCrate(nil)
	got := runOnFunction(crate, call)

	cp := got.(*hir.ExprCallPath)
	require.Equal(t, hir.PathUfcsKnown, cp.Callee.Kind)
	require.Equal(t, []string{"FnMut"}, cp.Callee.UfcsTrait.Segments)
	require.Equal(t, "call_mut", cp.Callee.UfcsItem)
	require.Same(t, hir.Expr(callee), cp.Args[0])
}

// TestFunctionPointerCallValueIsUntouched covers the negative case: a
// CallValue whose callee is a real function pointer is left alone.
func TestFunctionPointerCallValueIsUntouched(t *testing.T) {
	t.Parallel()

	callee := &hir.ExprVariable{Slot: 0, Name: "f"}
	callee.SetResultType(&hir.FunctionType{Return: u32Type()})

	call := &hir.ExprCallValue{Callee: callee}
	call.SetResultType(u32Type())

	crate := hir.NewCrate(nil)
	got := runOnFunction(crate, call)

	_, stillCallValue := got.(*hir.ExprCallValue)
	require.True(t, stillCallValue)
}
