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

package typeinfer_test

import (
	"testing"

	"github.com/rlang/hirxc/hir"
	"github.com/rlang/hirxc/hirconfig"
	"github.com/rlang/hirxc/traitresolve"
	"github.com/rlang/hirxc/typeinfer"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) { goleak.VerifyTestMain(m) }

func newContext() *typeinfer.Context {
	crate := hir.NewCrate(nil)
	crate.Root = hir.NewModule(nil)
	resolver := traitresolve.New(crate, hirconfig.Default())
	return typeinfer.New(resolver, crate)
}

func u32Type() hir.Type { return &hir.Primitive{Name: hir.PrimU32} }

// TestSetIvarToAssignsConcreteType confirms GetType reports the concrete
// type once an ivar has been resolved.
func TestSetIvarToAssignsConcreteType(t *testing.T) {
	t.Parallel()

	c := newContext()
	iv := c.NewIvar(hir.ClassNone)

	require.True(t, c.SetIvarTo(iv.Ivar, u32Type()))
	require.Equal(t, u32Type(), c.GetType(iv))
}

// TestIvarUnifyAliasesBothSlotsTogether confirms two unresolved ivars
// unified with each other resolve to the same concrete type once either
// side is assigned.
func TestIvarUnifyAliasesBothSlotsTogether(t *testing.T) {
	t.Parallel()

	c := newContext()
	a := c.NewIvar(hir.ClassNone)
	b := c.NewIvar(hir.ClassNone)

	require.True(t, c.IvarUnify(a.Ivar, b.Ivar))
	require.True(t, c.SetIvarTo(a.Ivar, u32Type()))
	require.Equal(t, u32Type(), c.GetType(b))
}

// TestApplyDefaultsFillsIntegerClassIvar confirms an integer-class ivar
// left unresolved through the whole body defaults to i32.
func TestApplyDefaultsFillsIntegerClassIvar(t *testing.T) {
	t.Parallel()

	c := newContext()
	iv := c.NewIvar(hir.ClassInteger)

	c.ApplyDefaults()
	require.Equal(t, &hir.Primitive{Name: hir.PrimI32}, c.GetType(iv))
}

// TestSetIvarToRejectsIncompatiblePrimitiveClass confirms assigning a
// float literal to an integer-class ivar is reported as a mismatch even
// though the union still completes.
func TestSetIvarToRejectsIncompatiblePrimitiveClass(t *testing.T) {
	t.Parallel()

	c := newContext()
	iv := c.NewIvar(hir.ClassInteger)

	ok := c.SetIvarTo(iv.Ivar, &hir.Primitive{Name: hir.PrimF64})
	require.False(t, ok)
	require.Equal(t, &hir.Primitive{Name: hir.PrimF64}, c.GetType(iv))
}

// TestUnifyResolvesIvarAgainstConcreteType exercises the Unify entry point
// used directly by later passes: an unresolved ivar on one side takes on
// the other side's concrete type.
func TestUnifyResolvesIvarAgainstConcreteType(t *testing.T) {
	t.Parallel()

	c := newContext()
	iv := c.NewIvar(hir.ClassNone)

	require.True(t, c.Unify(iv, u32Type()))
	require.True(t, c.TypesEqual(iv, u32Type()))
}

// TestUnifyCoercesUniqueBorrowToShared exercises the coercion fallback:
// `&mut T` unifies against `&T` of the same inner type.
func TestUnifyCoercesUniqueBorrowToShared(t *testing.T) {
	t.Parallel()

	c := newContext()
	unique := &hir.Borrow{Kind: hir.BorrowUnique, Inner: u32Type()}
	shared := &hir.Borrow{Kind: hir.BorrowShared, Inner: u32Type()}

	require.True(t, c.Unify(unique, shared))
}

// TestUnifyFailsOnIncompatibleShapes confirms two structurally
// incompatible concrete types do not unify.
func TestUnifyFailsOnIncompatibleShapes(t *testing.T) {
	t.Parallel()

	c := newContext()
	require.False(t, c.Unify(u32Type(), &hir.Primitive{Name: hir.PrimBool}))
}

// TestBuildBoundsInstallsFunctionGenericsIntoResolver confirms a
// function's own where-clause bound ends up both on the Context and
// propagated into the shared Resolver via SetBounds.
func TestBuildBoundsInstallsFunctionGenericsIntoResolver(t *testing.T) {
	t.Parallel()

	c := newContext()
	clonePath := &hir.GenericPath{Segments: []string{"Clone"}}
	fn := &hir.Function{
		Generics: &hir.GenericParams{
			Bounds: []hir.GenericBound{{Subject: u32Type(), Trait: clonePath}},
		},
	}

	c.BuildBounds(fn, nil, nil)
	require.Len(t, c.Bounds, 1)

	found := c.Resolver.FindTraitImpls(clonePath, u32Type(), false, func(traitresolve.Candidate) bool {
		return true
	})
	require.True(t, found, "BuildBounds must install its bound table into the resolver's bound cache")
}

// TestBuildBoundsDerivesImplicitOutlivesFromReferenceParam confirms a
// `&'a T` parameter contributes a `T: 'a` outlives edge with a concrete
// lifetime.
func TestBuildBoundsDerivesImplicitOutlivesFromReferenceParam(t *testing.T) {
	t.Parallel()

	c := newContext()
	lt := hir.Lifetime{Kind: hir.LifetimeLocal, ID: 1}
	paramType := &hir.Borrow{
		Kind:     hir.BorrowShared,
		Lifetime: lt,
		Inner: &hir.PathType{Path: &hir.Path{Kind: hir.PathGeneric, Generic: &hir.GenericPath{
			Segments: []string{"T"},
			Params:   &hir.PathParams{Lifetimes: []hir.Lifetime{{Kind: hir.LifetimeLocal, ID: 2}}},
		}}},
	}
	fn := &hir.Function{Params: []hir.Param{{Ty: paramType}}}

	c.BuildBounds(fn, nil, nil)
	require.NotEmpty(t, c.OutlivesClosure)
}
