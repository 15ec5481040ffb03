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

package lifetimeinfer_test

import (
	"testing"

	"github.com/rlang/hirxc/hir"
	"github.com/rlang/hirxc/lifetimeinfer"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) { goleak.VerifyTestMain(m) }

func u32() hir.Type { return &hir.Primitive{Name: hir.PrimU32} }

func namedBorrow(name string) hir.Type {
	return &hir.Borrow{Kind: hir.BorrowShared, Lifetime: hir.Lifetime{Kind: hir.LifetimeNamed, Name: name}, Inner: u32()}
}

func unknownBorrow() hir.Type {
	return &hir.Borrow{Kind: hir.BorrowShared, Lifetime: hir.Lifetime{Kind: hir.LifetimeUnknown}, Inner: u32()}
}

// TestSingleSourceReturnResolvesToParamLifetime mirrors spec.md's S5
// scenario: fn f<'a, 'b>(x: &'a u32, y: &'b u32) -> &u32 { x } — the
// return lifetime ivar has exactly one source ('a, from equating the
// returned variable's type against the declared return type) and resolves
// to it.
func TestSingleSourceReturnResolvesToParamLifetime(t *testing.T) {
	t.Parallel()

	x := &hir.ExprVariable{Slot: 0, Name: "x"}
	x.SetResultType(namedBorrow("a"))

	fn := &hir.Function{
		Name:       "f",
		Generics:   &hir.GenericParams{Lifetimes: []string{"a", "b"}},
		Params:     []hir.Param{{Ty: namedBorrow("a")}, {Ty: namedBorrow("b")}},
		ReturnType: unknownBorrow(),
		Body:       x,
	}

	err := lifetimeinfer.New(hir.NewCrate(nil)).Run(fn, nil)
	require.NoError(t, err)

	rt, ok := fn.ReturnType.(*hir.Borrow)
	require.True(t, ok)
	require.Equal(t, hir.LifetimeNamed, rt.Lifetime.Kind)
	require.Equal(t, "a", rt.Lifetime.Name)
}

// TestUnboundedNamedLifetimesFailValidation covers the case spec.md §4.6.4
// flags as invalid: two named parameter lifetimes with no outlives bound
// between them ever established, so a value genuinely scoped to the
// shorter one cannot satisfy a requirement scoped to the (bound-)longer
// one.
func TestUnboundedNamedLifetimesFailValidation(t *testing.T) {
	t.Parallel()

	// fn g<'a, 'b>(x: &'a u32, y: &'b u32, out: &'a u32) — assign y
	// ('b-scoped) directly to out (an 'a-scoped slot) with no bound
	// relating 'a and 'b: an outlives failure.
	out := &hir.ExprVariable{Slot: 2, Name: "out"}
	out.SetResultType(namedBorrow("a"))
	y := &hir.ExprVariable{Slot: 1, Name: "y"}
	y.SetResultType(namedBorrow("b"))
	assign := &hir.ExprAssign{LHS: out, RHS: y}

	fn := &hir.Function{
		Name:     "g",
		Generics: &hir.GenericParams{Lifetimes: []string{"a", "b"}},
		Params: []hir.Param{
			{Ty: namedBorrow("a")},
			{Ty: namedBorrow("b")},
			{Ty: namedBorrow("a")},
		},
		ReturnType: &hir.Primitive{Name: hir.PrimUnit},
		Body:       assign,
	}

	err := lifetimeinfer.New(hir.NewCrate(nil)).Run(fn, nil)
	require.Error(t, err)
}

// TestNoSourceIvarDefaultsToStatic covers phase 2's zero-sources rule: a
// return-position reference never tied to any parameter resolves to
// 'static.
func TestNoSourceIvarDefaultsToStatic(t *testing.T) {
	t.Parallel()

	lit := &hir.ExprLiteral{Value: &hir.Literal{}}
	lit.SetResultType(&hir.Primitive{Name: hir.PrimU32})
	deref := &hir.ExprDeref{Base: lit}
	// A deref of something with no borrow/pointer result type at all is an
	// odd shape on its own, so give the literal an unknown-lifetime borrow
	// type instead: its own ivar has no source and resolves to 'static, and
	// the declared return type's ivar, sourced only from it, follows.
	_ = deref

	fn := &hir.Function{
		Name:       "h",
		Generics:   &hir.GenericParams{},
		Params:     nil,
		ReturnType: unknownBorrow(),
		Body:       lit,
	}
	lit.SetResultType(unknownBorrow())

	err := lifetimeinfer.New(hir.NewCrate(nil)).Run(fn, nil)
	require.NoError(t, err)

	rt, ok := fn.ReturnType.(*hir.Borrow)
	require.True(t, ok)
	require.Equal(t, hir.LifetimeStatic, rt.Lifetime.Kind)
}
