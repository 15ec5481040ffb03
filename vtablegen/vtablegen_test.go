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

package vtablegen_test

import (
	"testing"

	"github.com/rlang/hirxc/hir"
	"github.com/rlang/hirxc/hirconfig"
	"github.com/rlang/hirxc/vtablegen"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) { goleak.VerifyTestMain(m) }

func selfRef() hir.Type {
	return &hir.Borrow{Kind: hir.BorrowShared, Lifetime: hir.Lifetime{Kind: hir.LifetimeUnknown}, Inner: &hir.Generic{Name: "Self"}}
}

func u32Type() hir.Type { return &hir.Primitive{Name: hir.PrimU32} }

// TestSimpleTraitGetsVTableFieldsInOrder mirrors: trait T { fn a(&self);
// fn b(&mut self, u32); } — the synthesized vtable struct's fields must be
// [drop_glue, size, align, a_ptr, b_ptr] and ValueIndexes must place "a"
// at slot 3 and "b" at slot 4.
func TestSimpleTraitGetsVTableFieldsInOrder(t *testing.T) {
	t.Parallel()

	crate := hir.NewCrate(nil)
	mod := hir.NewModule([]string{"pkg"})

	methodA := &hir.Function{
		Name:         "a",
		IsMethod:     true,
		ReceiverKind: hir.ReceiverBorrowShared,
		Params:       []hir.Param{{Ty: selfRef()}},
		ReturnType:   &hir.Primitive{Name: hir.PrimUnit},
	}
	methodB := &hir.Function{
		Name:         "b",
		IsMethod:     true,
		ReceiverKind: hir.ReceiverBorrowUnique,
		Params: []hir.Param{
			{Ty: &hir.Borrow{Kind: hir.BorrowUnique, Lifetime: hir.Lifetime{Kind: hir.LifetimeUnknown}, Inner: &hir.Generic{Name: "Self"}}},
			{Ty: u32Type()},
		},
		ReturnType: &hir.Primitive{Name: hir.PrimUnit},
	}

	tr := &hir.Trait{Name: "T", Generics: &hir.GenericParams{}, Methods: []*hir.Function{methodA, methodB}}
	mod.AddType("T", &hir.TypeItem{Trait: tr})

	g := vtablegen.New(crate, hirconfig.Edition1_54)
	g.RunCrate()

	require.True(t, tr.ObjectSafe)
	require.NotNil(t, tr.VTableStructPath)

	item, ok := mod.Types["T#vtable"]
	require.True(t, ok)
	require.NotNil(t, item.Struct)

	fieldNames := make([]string, len(item.Struct.Fields))
	for i, f := range item.Struct.Fields {
		fieldNames[i] = f.Name
	}
	require.Equal(t, []string{"drop_glue", "size", "align", "a_ptr", "b_ptr"}, fieldNames)

	require.Equal(t, 5, tr.VTableParentsStart)
	require.Len(t, tr.ValueIndexes, 2)
	require.Equal(t, hir.TraitValueIndex{Method: "a", SlotIndex: 3, SourceTrait: tr.ValueIndexes[0].SourceTrait}, tr.ValueIndexes[0])
	require.Equal(t, hir.TraitValueIndex{Method: "b", SlotIndex: 4, SourceTrait: tr.ValueIndexes[1].SourceTrait}, tr.ValueIndexes[1])

	_, ok = mod.Values["vtable#"]
	require.True(t, ok, "vtable# static must be pushed into the trait's own module")
}

// TestGenericMethodMakesTraitNonObjectSafe covers the reject-the-whole-
// trait branch: a single generic method disqualifies every other method
// too, and no vtable struct is synthesized at all.
func TestGenericMethodMakesTraitNonObjectSafe(t *testing.T) {
	t.Parallel()

	crate := hir.NewCrate(nil)
	mod := hir.NewModule([]string{"pkg"})

	generic := &hir.Function{
		Name:         "g",
		IsMethod:     true,
		ReceiverKind: hir.ReceiverBorrowShared,
		Generics:     &hir.GenericParams{TypeNames: []string{"P"}},
		Params:       []hir.Param{{Ty: selfRef()}},
		ReturnType:   &hir.Primitive{Name: hir.PrimUnit},
	}
	tr := &hir.Trait{Name: "U", Generics: &hir.GenericParams{}, Methods: []*hir.Function{generic}}
	mod.AddType("U", &hir.TypeItem{Trait: tr})

	vtablegen.New(crate, hirconfig.Edition1_54).RunCrate()

	require.False(t, tr.ObjectSafe)
	require.Nil(t, tr.VTableStructPath)
	_, ok := mod.Types["U#vtable"]
	require.False(t, ok)
}

// TestSelfSizedMethodSkippedNotRejected covers the Self: Sized opt-out:
// the trait stays object safe and the method is simply excluded from the
// vtable's fields rather than disqualifying T.
func TestSelfSizedMethodSkippedNotRejected(t *testing.T) {
	t.Parallel()

	crate := hir.NewCrate(nil)
	mod := hir.NewModule([]string{"pkg"})

	sizedOnly := &hir.Function{
		Name:         "only_when_sized",
		IsMethod:     true,
		ReceiverKind: hir.ReceiverBorrowShared,
		Generics: &hir.GenericParams{
			Bounds: []hir.GenericBound{{Subject: &hir.Generic{Name: "Self"}, Trait: &hir.GenericPath{Segments: []string{"Sized"}}}},
		},
		Params:     []hir.Param{{Ty: selfRef()}},
		ReturnType: &hir.Primitive{Name: hir.PrimUnit},
	}
	dispatchable := &hir.Function{
		Name:         "a",
		IsMethod:     true,
		ReceiverKind: hir.ReceiverBorrowShared,
		Params:       []hir.Param{{Ty: selfRef()}},
		ReturnType:   &hir.Primitive{Name: hir.PrimUnit},
	}
	tr := &hir.Trait{Name: "V", Generics: &hir.GenericParams{}, Methods: []*hir.Function{sizedOnly, dispatchable}}
	mod.AddType("V", &hir.TypeItem{Trait: tr})

	vtablegen.New(crate, hirconfig.Edition1_54).RunCrate()

	require.True(t, tr.ObjectSafe)
	require.Len(t, tr.ValueIndexes, 1)
	require.Equal(t, "a", tr.ValueIndexes[0].Method)
}
