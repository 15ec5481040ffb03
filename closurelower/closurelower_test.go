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

package closurelower_test

import (
	"fmt"
	"testing"

	"github.com/rlang/hirxc/closurelower"
	"github.com/rlang/hirxc/hir"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) { goleak.VerifyTestMain(m) }

func u32Type() hir.Type { return &hir.Primitive{Name: hir.PrimU32} }

func newTypeCounter(mod *hir.Module) closurelower.NewTypeFunc {
	n := 0
	return func() (string, *hir.Module) {
		n++
		return fmt.Sprintf("Closure%d", n), mod
	}
}

func TestNoCaptureClosureGetsForwardingImpls(t *testing.T) {
	t.Parallel()

	crate := hir.NewCrate(nil)
	mod := hir.NewModule([]string{"pkg"})

	lit := &hir.ExprVariable{Slot: 1, Name: "x"}
	lit.SetResultType(u32Type())
	var body hir.Expr = &hir.ExprClosure{
		Params:  []hir.ClosureParam{{Name: "x", Ty: u32Type(), Slot: 1}},
		RetType: u32Type(),
		Body:    lit,
	}

	x := closurelower.New(crate, newTypeCounter(mod))
	x.Extract(&body, &hir.GenericParams{}, nil, false)
	x.Buffer.Flush(crate, mod)

	closure := body.(*hir.ExprClosure)
	require.Nil(t, closure.Body, "a lowered closure never keeps its Body")
	require.NotNil(t, closure.ObjPath)
	require.Empty(t, closure.Captures)

	_, ok := mod.Types["Closure1"]
	require.True(t, ok, "the synthesized struct must be flushed into the owning module")

	var sawFn, sawFnMut, sawFnOnce bool
	for _, impl := range crate.TraitImpls {
		switch impl.Trait.Segments[len(impl.Trait.Segments)-1] {
		case "Fn":
			sawFn = true
		case "FnMut":
			sawFnMut = true
		case "FnOnce":
			sawFnOnce = true
		}
	}
	require.True(t, sawFn && sawFnMut && sawFnOnce, "a capture-less closure gets all three dispatch impls")
}

func TestCapturingClosureProducesStructFieldPerCapture(t *testing.T) {
	t.Parallel()

	crate := hir.NewCrate(nil)
	mod := hir.NewModule([]string{"pkg"})

	captured := &hir.ExprVariable{Slot: 0, Name: "n"}
	captured.SetResultType(u32Type())
	captured.SetUsage(hir.UsageMove)
	var body hir.Expr = &hir.ExprClosure{
		Params:  nil,
		RetType: u32Type(),
		Body:    captured,
	}

	x := closurelower.New(crate, newTypeCounter(mod))
	x.Extract(&body, &hir.GenericParams{}, nil, false)
	x.Buffer.Flush(crate, mod)

	item, ok := mod.Types["Closure1"]
	require.True(t, ok)
	require.NotNil(t, item.Struct)
	require.Len(t, item.Struct.Fields, 1, "one capture, one field")
	require.Equal(t, "n", item.Struct.Fields[0].Name)

	closure := body.(*hir.ExprClosure)
	require.Len(t, closure.Captures, 1)
	require.Equal(t, 0, closure.Captures[0].OuterSlot)
}

func TestMutatingCaptureProducesMutShape(t *testing.T) {
	t.Parallel()

	crate := hir.NewCrate(nil)
	mod := hir.NewModule([]string{"pkg"})

	target := &hir.ExprVariable{Slot: 0, Name: "acc"}
	target.SetResultType(u32Type())
	amount := &hir.ExprVariable{Slot: 1, Name: "amount"}
	amount.SetResultType(u32Type())
	amount.SetUsage(hir.UsageMove)
	assign := &hir.ExprAssign{LHS: target, RHS: amount}
	target.SetUsage(hir.UsageMutate)
	var body hir.Expr = &hir.ExprClosure{
		Params:  []hir.ClosureParam{{Name: "amount", Ty: u32Type(), Slot: 1}},
		RetType: &hir.Primitive{Name: hir.PrimUnit},
		Body:    assign,
	}

	x := closurelower.New(crate, newTypeCounter(mod))
	x.Extract(&body, &hir.GenericParams{}, nil, false)
	x.Buffer.Flush(crate, mod)

	var sawFnMut, sawFn bool
	for _, impl := range crate.TraitImpls {
		switch impl.Trait.Segments[len(impl.Trait.Segments)-1] {
		case "FnMut":
			sawFnMut = true
		case "Fn":
			sawFn = true
		}
	}
	require.True(t, sawFnMut, "a mutated capture needs at least FnMut")
	require.False(t, sawFn, "a mutated capture never gets a plain Fn impl")
}

func TestGeneratorLoweringSynthesizesStateStructAndEnum(t *testing.T) {
	t.Parallel()

	crate := hir.NewCrate(nil)
	mod := hir.NewModule([]string{"pkg"})

	yieldVal := &hir.ExprVariable{Slot: 0, Name: "n"}
	yieldVal.SetResultType(u32Type())
	var body hir.Expr = &hir.ExprGenerator{
		YieldType:  u32Type(),
		ReturnType: &hir.Primitive{Name: hir.PrimUnit},
		Body:       &hir.ExprYield{Value: yieldVal},
	}

	x := closurelower.New(crate, newTypeCounter(mod))
	x.Extract(&body, &hir.GenericParams{}, nil, false)
	x.Buffer.Flush(crate, mod)

	gen := body.(*hir.ExprGenerator)
	require.Nil(t, gen.Body)
	require.NotNil(t, gen.ObjPath)

	var sawEnum, sawUnion, sawStruct bool
	for _, name := range mod.TypeOrder {
		item := mod.Types[name]
		if item.Enum != nil {
			sawEnum = true
		}
		if item.Union != nil {
			sawUnion = true
		}
		if item.Struct != nil {
			sawStruct = true
		}
	}
	require.True(t, sawEnum, "the discriminant enum must be flushed")
	require.True(t, sawUnion, "the overlapping-locals union must be flushed")
	require.True(t, sawStruct, "the generator state struct must be flushed")

	var sawGenerator, sawDrop bool
	for _, impl := range crate.TraitImpls {
		switch impl.Trait.Segments[len(impl.Trait.Segments)-1] {
		case "Generator":
			sawGenerator = true
		case "Drop":
			sawDrop = true
		}
	}
	require.True(t, sawGenerator)
	require.True(t, sawDrop)
}
