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

package usageinfer_test

import (
	"testing"

	"github.com/rlang/hirxc/hir"
	"github.com/rlang/hirxc/usageinfer"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) { goleak.VerifyTestMain(m) }

func u32() hir.Type { return &hir.Primitive{Name: hir.PrimU32} }

func TestAssignLHSIsMutateRHSIsMove(t *testing.T) {
	t.Parallel()

	lhs := &hir.ExprVariable{Slot: 0}
	rhs := &hir.ExprVariable{Slot: 1}
	var body hir.Expr = &hir.ExprAssign{LHS: lhs, RHS: rhs}

	usageinfer.New(hir.NewCrate(nil)).Run(&body)

	require.Equal(t, hir.UsageMutate, lhs.GetUsage())
	require.Equal(t, hir.UsageMove, rhs.GetUsage())
}

func TestBlockStmtsMoveTailInherits(t *testing.T) {
	t.Parallel()

	stmt := &hir.ExprVariable{Slot: 0}
	tail := &hir.ExprVariable{Slot: 1}
	var body hir.Expr = &hir.ExprBlock{Stmts: []hir.Expr{stmt}, Tail: tail}

	usageinfer.New(hir.NewCrate(nil)).Run(&body)

	require.Equal(t, hir.UsageMove, stmt.GetUsage())
	require.Equal(t, hir.UsageMove, tail.GetUsage(), "tail inherits the block's own (root) context")
}

func TestBorrowPushesKindToInner(t *testing.T) {
	t.Parallel()

	shared := &hir.ExprVariable{}
	unique := &hir.ExprVariable{}
	var sharedBorrow hir.Expr = &hir.ExprBorrow{Kind: hir.BorrowShared, Base: shared}
	var uniqueBorrow hir.Expr = &hir.ExprBorrow{Kind: hir.BorrowUnique, Base: unique}

	p := usageinfer.New(hir.NewCrate(nil))
	p.Run(&sharedBorrow)
	p.Run(&uniqueBorrow)

	require.Equal(t, hir.UsageBorrow, shared.GetUsage())
	require.Equal(t, hir.UsageMutate, unique.GetUsage())
}

func TestBinOpComparisonBorrowsArithmeticMoves(t *testing.T) {
	t.Parallel()

	cmpL, cmpR := &hir.ExprVariable{}, &hir.ExprVariable{}
	var cmp hir.Expr = &hir.ExprBinOp{Op: hir.BinLt, Left: cmpL, Right: cmpR}

	addL, addR := &hir.ExprVariable{}, &hir.ExprVariable{}
	var add hir.Expr = &hir.ExprBinOp{Op: hir.BinAdd, Left: addL, Right: addR}

	p := usageinfer.New(hir.NewCrate(nil))
	p.Run(&cmp)
	p.Run(&add)

	require.Equal(t, hir.UsageBorrow, cmpL.GetUsage())
	require.Equal(t, hir.UsageBorrow, cmpR.GetUsage())
	require.Equal(t, hir.UsageMove, addL.GetUsage())
	require.Equal(t, hir.UsageMove, addR.GetUsage())
}

func TestFieldOnCopyResultDowngradesMoveToBorrow(t *testing.T) {
	t.Parallel()

	base := &hir.ExprVariable{}
	field := &hir.ExprField{Base: base, Name: "x"}
	field.SetResultType(u32())
	var body hir.Expr = field

	usageinfer.New(hir.NewCrate(nil)).Run(&body)

	require.Equal(t, hir.UsageBorrow, base.GetUsage(), "extracting a Copy field only needs to read the base")
}

func TestFieldOnNonCopyResultPropagatesMove(t *testing.T) {
	t.Parallel()

	base := &hir.ExprVariable{}
	field := &hir.ExprField{Base: base, Name: "x"}
	field.SetResultType(&hir.PathType{Path: &hir.Path{Kind: hir.PathGeneric, Generic: &hir.GenericPath{Segments: []string{"String"}}}})
	var body hir.Expr = field

	usageinfer.New(hir.NewCrate(nil)).Run(&body)

	require.Equal(t, hir.UsageMove, base.GetUsage())
}

func TestRawPointerDerefAlwaysBorrows(t *testing.T) {
	t.Parallel()

	base := &hir.ExprVariable{}
	base.SetResultType(&hir.Pointer{Kind: hir.PointerConst, Inner: u32()})
	deref := &hir.ExprDeref{Base: base}
	var body hir.Expr = deref

	usageinfer.New(hir.NewCrate(nil)).Run(&body)

	require.Equal(t, hir.UsageBorrow, base.GetUsage())
}

func TestCallMethodReceiverUsageByReceiverKind(t *testing.T) {
	t.Parallel()

	cases := []struct {
		kind hir.ReceiverKind
		want hir.Usage
	}{
		{hir.ReceiverValue, hir.UsageMove},
		{hir.ReceiverBox, hir.UsageMove},
		{hir.ReceiverBorrowUnique, hir.UsageMutate},
		{hir.ReceiverBorrowShared, hir.UsageBorrow},
	}
	for _, c := range cases {
		recv := &hir.ExprVariable{}
		var body hir.Expr = &hir.ExprCallMethod{Receiver: recv, Method: "m", ReceiverKind: c.kind}
		usageinfer.New(hir.NewCrate(nil)).Run(&body)
		require.Equal(t, c.want, recv.GetUsage())
	}
}

func TestCallValueReceiverUsageByTraitUsed(t *testing.T) {
	t.Parallel()

	cases := []struct {
		trait hir.CallableTraitKind
		want  hir.Usage
	}{
		{hir.CallableFn, hir.UsageBorrow},
		{hir.CallableFnMut, hir.UsageMutate},
		{hir.CallableFnOnce, hir.UsageMove},
		{hir.CallableUnknown, hir.UsageUnknown},
	}
	for _, c := range cases {
		callee := &hir.ExprVariable{}
		var body hir.Expr = &hir.ExprCallValue{Callee: callee, TraitUsed: c.trait}
		usageinfer.New(hir.NewCrate(nil)).Run(&body)
		require.Equal(t, c.want, callee.GetUsage())
	}
}

func TestStructLiteralBaseUsageFromOmittedFieldCopyness(t *testing.T) {
	t.Parallel()

	allCopy := &hir.ExprVariable{}
	var withAllCopy hir.Expr = &hir.ExprStructLiteral{
		Base:          allCopy,
		OmittedFields: []hir.FieldNilability{{Name: "a", IsCopy: true}},
	}

	someMove := &hir.ExprVariable{}
	var withNonCopy hir.Expr = &hir.ExprStructLiteral{
		Base:          someMove,
		OmittedFields: []hir.FieldNilability{{Name: "a", IsCopy: true}, {Name: "b", IsCopy: false}},
	}

	p := usageinfer.New(hir.NewCrate(nil))
	p.Run(&withAllCopy)
	p.Run(&withNonCopy)

	require.Equal(t, hir.UsageBorrow, allCopy.GetUsage())
	require.Equal(t, hir.UsageMove, someMove.GetUsage())
}

func TestLetScrutineeUsageFromPattern(t *testing.T) {
	t.Parallel()

	moveVal := &hir.ExprVariable{}
	var moveBody hir.Expr = &hir.ExprLet{
		Pat:   &hir.PatternBinding{Name: "x", Mode: hir.BindMove, Copy: false},
		Value: moveVal,
	}

	borrowVal := &hir.ExprVariable{}
	var borrowBody hir.Expr = &hir.ExprLet{
		Pat:   &hir.PatternBinding{Name: "x", Mode: hir.BindMove, Copy: true},
		Value: borrowVal,
	}

	refMutVal := &hir.ExprVariable{}
	var refMutBody hir.Expr = &hir.ExprLet{
		Pat:   &hir.PatternBinding{Name: "x", Mode: hir.BindMutRef},
		Value: refMutVal,
	}

	p := usageinfer.New(hir.NewCrate(nil))
	p.Run(&moveBody)
	p.Run(&borrowBody)
	p.Run(&refMutBody)

	require.Equal(t, hir.UsageMove, moveVal.GetUsage())
	require.Equal(t, hir.UsageBorrow, borrowVal.GetUsage())
	require.Equal(t, hir.UsageMutate, refMutVal.GetUsage())
}

func TestMatchScrutineeTakesMaxAcrossArms(t *testing.T) {
	t.Parallel()

	scrutinee := &hir.ExprVariable{}
	var body hir.Expr = &hir.ExprMatch{
		Scrutinee: scrutinee,
		Arms: []hir.MatchArm{
			{Pat: &hir.PatternAny{}, Body: &hir.ExprVariable{}},
			{Pat: &hir.PatternBinding{Name: "x", Mode: hir.BindMove, Copy: false}, Body: &hir.ExprVariable{}},
		},
	}

	usageinfer.New(hir.NewCrate(nil)).Run(&body)

	require.Equal(t, hir.UsageMove, scrutinee.GetUsage(), "one arm needs Move, so the scrutinee as a whole does")
}
