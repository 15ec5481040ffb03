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

package reborrow_test

import (
	"testing"

	"github.com/rlang/hirxc/hir"
	"github.com/rlang/hirxc/reborrow"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) { goleak.VerifyTestMain(m) }

func mutBorrowOfU32() hir.Type {
	return &hir.Borrow{Kind: hir.BorrowUnique, Lifetime: hir.Lifetime{Kind: hir.LifetimeLocal, ID: 1}, Inner: &hir.Primitive{Name: hir.PrimU32}}
}

// TestArgumentMoveOfUniqueRefIsReborrowed covers the common case: a
// `&mut T`-typed local passed as a call argument gets wrapped in `&mut *x`
// rather than moving the original reference.
func TestArgumentMoveOfUniqueRefIsReborrowed(t *testing.T) {
	t.Parallel()

	v := &hir.ExprVariable{Slot: 0, Name: "x"}
	v.SetResultType(mutBorrowOfU32())

	callee := &hir.Path{Kind: hir.PathGeneric, Generic: &hir.GenericPath{Segments: []string{"f"}}}
	call := &hir.ExprCallPath{Callee: callee, Args: []hir.Expr{v}}

	var body hir.Expr = call
	crate := hir.NewCrate(nil)
	mod := hir.NewModule([]string{"pkg"})
	fn := &hir.Function{Name: "g", Body: body}
	mod.AddValue("g", &hir.ValueItem{Function: fn})
	crate.Root = mod

	reborrow.New(crate).Run()

	reborrowed, ok := fn.Body.(*hir.ExprCallPath).Args[0].(*hir.ExprBorrow)
	require.True(t, ok, "the argument must be rewritten to a reborrow")
	require.Equal(t, hir.BorrowUnique, reborrowed.Kind)

	deref, ok := reborrowed.Base.(*hir.ExprDeref)
	require.True(t, ok)
	require.Same(t, hir.Expr(v), deref.Base)
}

// TestSharedBorrowArgumentIsUntouched covers the negative case: a `&T`
// (shared) argument never needs reborrowing.
func TestSharedBorrowArgumentIsUntouched(t *testing.T) {
	t.Parallel()

	v := &hir.ExprVariable{Slot: 0, Name: "x"}
	v.SetResultType(&hir.Borrow{Kind: hir.BorrowShared, Inner: &hir.Primitive{Name: hir.PrimU32}})

	callee := &hir.Path{Kind: hir.PathGeneric, Generic: &hir.GenericPath{Segments: []string{"f"}}}
	call := &hir.ExprCallPath{Callee: callee, Args: []hir.Expr{v}}

	crate := hir.NewCrate(nil)
	mod := hir.NewModule([]string{"pkg"})
	fn := &hir.Function{Name: "g", Body: call}
	mod.AddValue("g", &hir.ValueItem{Function: fn})
	crate.Root = mod

	reborrow.New(crate).Run()

	_, stillVar := fn.Body.(*hir.ExprCallPath).Args[0].(*hir.ExprVariable)
	require.True(t, stillVar)
}

// TestBlockTailThroughAssignIsReborrowed covers the "Block whose
// value-expression is a reborrow candidate: recurse into that
// value-expression only" rule — the wrap must land on the block's tail,
// leaving the block's own statements and shape intact.
func TestBlockTailThroughAssignIsReborrowed(t *testing.T) {
	t.Parallel()

	v := &hir.ExprVariable{Slot: 0, Name: "x"}
	v.SetResultType(mutBorrowOfU32())
	block := &hir.ExprBlock{Tail: v}

	lhs := &hir.ExprVariable{Slot: 1, Name: "y"}
	lhs.SetResultType(mutBorrowOfU32())
	assign := &hir.ExprAssign{LHS: lhs, RHS: block}

	crate := hir.NewCrate(nil)
	mod := hir.NewModule([]string{"pkg"})
	fn := &hir.Function{Name: "g", Body: assign}
	mod.AddValue("g", &hir.ValueItem{Function: fn})
	crate.Root = mod

	reborrow.New(crate).Run()

	gotBlock, ok := fn.Body.(*hir.ExprAssign).RHS.(*hir.ExprBlock)
	require.True(t, ok, "the outer Block node must survive untouched")
	_, ok = gotBlock.Tail.(*hir.ExprBorrow)
	require.True(t, ok, "the block's tail must be wrapped in place")
}
