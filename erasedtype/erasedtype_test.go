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

package erasedtype_test

import (
	"testing"

	"github.com/rlang/hirxc/erasedtype"
	"github.com/rlang/hirxc/hir"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) { goleak.VerifyTestMain(m) }

func u32Type() hir.Type { return &hir.Primitive{Name: hir.PrimU32} }

// TestGenericOriginSubstitutedUsingCallSiteArgs covers the generic-origin
// case: a call's result type is an ErasedType whose table entry refers back
// to the callee's own generic T, and the call site's concrete argument (u32)
// must be substituted in.
func TestGenericOriginSubstitutedUsingCallSiteArgs(t *testing.T) {
	t.Parallel()

	fn := &hir.Function{
		Name:     "first",
		Generics: &hir.GenericParams{TypeNames: []string{"T"}},
		ErasedTypes: []hir.Type{
			&hir.Generic{Group: hir.GroupItem, Index: 0, Name: "T"},
		},
	}
	calleePath := &hir.Path{Kind: hir.PathGeneric, Generic: &hir.GenericPath{
		Segments: []string{"first"},
		Params:   &hir.PathParams{Types: []hir.Type{u32Type()}},
		ResolvedItem: fn,
	}}
	call := &hir.ExprCallPath{Callee: calleePath}
	call.SetResultType(&hir.ErasedType{Origin: hir.ErasedOrigin{Function: fn}, Index: 0})

	crate := hir.NewCrate(nil)
	mod := hir.NewModule([]string{"pkg"})
	mod.AddValue("first", &hir.ValueItem{Function: fn})
	caller := &hir.Function{Name: "caller", Body: hir.Expr(call)}
	mod.AddValue("caller", &hir.ValueItem{Function: caller})
	crate.Root = mod

	erasedtype.New(crate).Run()

	require.Equal(t, u32Type(), caller.Body.ResultType())
}

// TestUfcsInherentOriginSubstitutedViaImplUnification covers the
// UFCS-inherent case: the erased type's table entry refers to the owning
// impl's own generic, recovered by unifying the impl's (generic) SelfType
// against the origin's concrete SelfType. The impl's Self type is a slice
// (whose type-head bucket is content-independent, unlike a generic struct
// path) so the lookup exercises unification rather than exact identity.
func TestUfcsInherentOriginSubstitutedViaImplUnification(t *testing.T) {
	t.Parallel()

	fn := &hir.Function{
		Name: "first",
		ErasedTypes: []hir.Type{
			&hir.Generic{Group: hir.GroupImpl, Index: 0},
		},
	}
	implSelfType := &hir.Slice{Element: &hir.Generic{Group: hir.GroupImpl, Index: 0, Name: "T"}}
	impl := &hir.TypeImpl{
		Generics: &hir.GenericParams{TypeNames: []string{"T"}},
		SelfType: implSelfType,
		Methods:  []*hir.Function{fn},
	}

	crate := hir.NewCrate(nil)
	crate.AddTypeImpl(impl)

	concreteSelf := &hir.Slice{Element: u32Type()}
	fn.ReturnType = &hir.ErasedType{Origin: hir.ErasedOrigin{Function: fn, SelfType: concreteSelf}, Index: 0}

	mod := hir.NewModule([]string{"pkg"})
	mod.AddValue("first", &hir.ValueItem{Function: fn})
	crate.Root = mod

	erasedtype.New(crate).Run()

	require.Equal(t, u32Type(), fn.ReturnType)
}

// TestChainedErasedTypeFullyExpanded covers a chained erased type: one
// function's table entry names another function's own ErasedType, which
// must itself be expanded rather than left one layer deep.
func TestChainedErasedTypeFullyExpanded(t *testing.T) {
	t.Parallel()

	inner := &hir.Function{Name: "inner", ErasedTypes: []hir.Type{u32Type()}}
	outer := &hir.Function{
		Name: "outer",
		ErasedTypes: []hir.Type{
			&hir.ErasedType{Origin: hir.ErasedOrigin{Function: inner}, Index: 0},
		},
	}

	crate := hir.NewCrate(nil)
	mod := hir.NewModule([]string{"pkg"})
	mod.AddValue("inner", &hir.ValueItem{Function: inner})
	mod.AddValue("outer", &hir.ValueItem{Function: outer})

	st := &hir.Static{Name: "X", Ty: &hir.ErasedType{Origin: hir.ErasedOrigin{Function: outer}, Index: 0}}
	mod.AddValue("X", &hir.ValueItem{Static: st})
	crate.Root = mod

	erasedtype.New(crate).Run()

	require.Equal(t, u32Type(), st.Ty)
}

// TestNonErasedTypesAreLeftAlone is a negative case: ordinary types pass
// through resolveType unchanged.
func TestNonErasedTypesAreLeftAlone(t *testing.T) {
	t.Parallel()

	fn := &hir.Function{Name: "plain", ReturnType: &hir.Borrow{Kind: hir.BorrowShared, Inner: u32Type()}}
	crate := hir.NewCrate(nil)
	mod := hir.NewModule([]string{"pkg"})
	mod.AddValue("plain", &hir.ValueItem{Function: fn})
	crate.Root = mod

	erasedtype.New(crate).Run()

	require.Equal(t, &hir.Borrow{Kind: hir.BorrowShared, Inner: u32Type()}, fn.ReturnType)
}
