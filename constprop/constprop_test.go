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

package constprop_test

import (
	"testing"

	"github.com/rlang/hirxc/constprop"
	"github.com/rlang/hirxc/hir"
	"github.com/rlang/hirxc/hirconfig"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) { goleak.VerifyTestMain(m) }

func u8Type() hir.Type { return &hir.Primitive{Name: hir.PrimU8} }

func intLit(t *testing.T, v uint64) *hir.ExprLiteral {
	t.Helper()
	e := &hir.ExprLiteral{Value: &hir.Literal{LiteralTag: hir.LitInteger, Integer: v}}
	e.SetResultType(u8Type())
	return e
}

// TestBorrowOfConstantArrayIsPromoted mirrors spec.md's S2 scenario: `let p
// = &[1u8, 2, 3];` promotes the array literal out into a standalone static
// and rewrites the Let's value to a PathValue naming it.
func TestBorrowOfConstantArrayIsPromoted(t *testing.T) {
	t.Parallel()

	crate := hir.NewCrate(nil)
	mod := hir.NewModule([]string{"pkg"})

	arr := &hir.ExprArrayList{Vals: []hir.Expr{intLit(t, 1), intLit(t, 2), intLit(t, 3)}}
	arr.SetResultType(&hir.Array{Element: u8Type(), Len: hir.ArrayLen{Known: true, Value: 3}})

	var borrowed hir.Expr = &hir.ExprBorrow{Kind: hir.BorrowShared, Base: arr}
	borrowed.SetResultType(&hir.Borrow{Kind: hir.BorrowShared, Lifetime: hir.Static, Inner: arr.ResultType()})

	letExpr := &hir.ExprLet{Pat: &hir.PatternBinding{Name: "p", Slot: 0}, Value: borrowed}

	n := 0
	newStatic := func() (string, *hir.Module) {
		n++
		return "lifted#0", mod
	}

	p := constprop.NewPromoter(crate, newStatic)
	p.PromoteBody(&letExpr.Value, &hir.GenericParams{})

	pv, ok := letExpr.Value.(*hir.ExprPathValue)
	require.True(t, ok, "the borrow must be rewritten to a PathValue")
	require.Equal(t, hir.PathValueStatic, pv.Kind)

	item, ok := mod.Values["lifted#0"]
	require.True(t, ok, "the promoted static must be flushed into the owning module")
	require.NotNil(t, item.Static)
	require.Same(t, hir.Expr(arr), item.Static.Init)
}

// TestBorrowOfMutableLocalIsNotPromoted covers the negative case: a Borrow
// whose inner expression isn't constant (a plain variable read) is left
// untouched.
func TestBorrowOfMutableLocalIsNotPromoted(t *testing.T) {
	t.Parallel()

	crate := hir.NewCrate(nil)
	mod := hir.NewModule([]string{"pkg"})

	v := &hir.ExprVariable{Slot: 0, Name: "x"}
	v.SetResultType(u8Type())
	var borrowed hir.Expr = &hir.ExprBorrow{Kind: hir.BorrowShared, Base: v}

	p := constprop.NewPromoter(crate, func() (string, *hir.Module) { return "lifted#0", mod })
	p.PromoteBody(&borrowed, &hir.GenericParams{})

	_, stillBorrow := borrowed.(*hir.ExprBorrow)
	require.True(t, stillBorrow)
	require.Empty(t, mod.Values)
}

// TestEvaluatorFoldsArithmetic covers pass A's binary-operator handling on
// a const initializer: `1u8 + 2u8` evaluates to the integer literal 3.
func TestEvaluatorFoldsArithmetic(t *testing.T) {
	t.Parallel()

	crate := hir.NewCrate(nil)
	add := &hir.ExprBinOp{Op: hir.BinAdd, Left: intLit(t, 1), Right: intLit(t, 2)}
	add.SetResultType(u8Type())

	ev := constprop.NewEvaluator(crate, hirconfig.DefaultTargetSpec(), nil)
	lit, ok := ev.Eval(add, nil)
	require.True(t, ok)
	require.Equal(t, hir.LitInteger, lit.LiteralTag)
	require.Equal(t, uint64(3), lit.Integer)
}

// TestEvaluatorMasksOverflowToPrimitiveWidth covers the literal-type
// post-check: 250u8 + 10u8 must mask down to the low 8 bits (4), not
// silently keep a wider in-memory sum.
func TestEvaluatorMasksOverflowToPrimitiveWidth(t *testing.T) {
	t.Parallel()

	crate := hir.NewCrate(nil)
	add := &hir.ExprBinOp{Op: hir.BinAdd, Left: intLit(t, 250), Right: intLit(t, 10)}
	add.SetResultType(u8Type())

	ev := constprop.NewEvaluator(crate, hirconfig.DefaultTargetSpec(), nil)
	lit, ok := ev.Eval(add, nil)
	require.True(t, ok)
	require.Equal(t, uint64(4), lit.Integer)
}

// TestEnumDiscriminantsDefaultSequentially covers the enum-discriminant
// half of pass A: three unit variants with no explicit value get 0, 1, 2.
func TestEnumDiscriminantsDefaultSequentially(t *testing.T) {
	t.Parallel()

	crate := hir.NewCrate(nil)
	en := &hir.Enum{
		Name: "Color",
		Variants: []hir.EnumVariant{
			{Name: "Red"}, {Name: "Green"}, {Name: "Blue"},
		},
	}
	crate.Root.AddType("Color", &hir.TypeItem{Enum: en})

	constprop.New(crate, hirconfig.DefaultTargetSpec()).RunConstantEvaluation()

	require.Equal(t, uint64(0), en.Variants[0].Discriminant.Integer)
	require.Equal(t, uint64(1), en.Variants[1].Discriminant.Integer)
	require.Equal(t, uint64(2), en.Variants[2].Discriminant.Integer)
}

// TestRunConstantEvaluationResolvesArrayLengthInStructField covers the
// type-position half of pass A: a struct field's `[u8; N]` where N is
// still an unevaluated ConstExpr (never reachable from any initializer
// expression) must come out known once the pass returns.
func TestRunConstantEvaluationResolvesArrayLengthInStructField(t *testing.T) {
	t.Parallel()

	crate := hir.NewCrate(nil)
	arrTy := &hir.Array{
		Element: u8Type(),
		Len:     hir.ArrayLen{ConstVal: &hir.ConstExpr{Init: intLit(t, 4)}},
	}
	st := &hir.Struct{Name: "Buf", Fields: []hir.StructField{{Name: "data", Ty: arrTy}}}
	crate.Root.AddType("Buf", &hir.TypeItem{Struct: st})

	constprop.New(crate, hirconfig.DefaultTargetSpec()).RunConstantEvaluation()

	require.True(t, arrTy.Len.Known)
	require.Equal(t, uint64(4), arrTy.Len.Value)
}

// TestRunConstantEvaluationResolvesArrayLengthNestedInFunctionSignature
// covers the same gap one level deeper: the array sits inside a tuple
// inside a function parameter type, exercising the recursive type walk
// rather than a single top-level field type.
func TestRunConstantEvaluationResolvesArrayLengthNestedInFunctionSignature(t *testing.T) {
	t.Parallel()

	crate := hir.NewCrate(nil)
	arrTy := &hir.Array{
		Element: u8Type(),
		Len:     hir.ArrayLen{ConstVal: &hir.ConstExpr{Init: intLit(t, 7)}},
	}
	fn := &hir.Function{
		Name:   "f",
		Params: []hir.Param{{Pat: &hir.PatternBinding{Name: "x"}, Ty: &hir.Tuple{Elements: []hir.Type{arrTy}}}},
	}
	crate.Root.AddValue("f", &hir.ValueItem{Function: fn})

	constprop.New(crate, hirconfig.DefaultTargetSpec()).RunConstantEvaluation()

	require.True(t, arrTy.Len.Known)
	require.Equal(t, uint64(7), arrTy.Len.Value)
}
