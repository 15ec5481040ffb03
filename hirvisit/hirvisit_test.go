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

package hirvisit_test

import (
	"testing"

	"github.com/rlang/hirxc/hir"
	"github.com/rlang/hirxc/hirvisit"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) { goleak.VerifyTestMain(m) }

func intLiteral(n uint64) hir.Expr {
	return &hir.ExprLiteral{Value: &hir.Literal{LiteralTag: hir.LitInteger, Integer: n}}
}

// TestWalkVisitsSubmodulesBeforeTheModulesOwnItems confirms a submodule's
// function fires before the parent module's own VisitModule hook, and that
// the parent's own function is visited after.
func TestWalkVisitsSubmodulesBeforeTheModulesOwnItems(t *testing.T) {
	t.Parallel()

	child := hir.NewModule([]string{"outer", "inner"})
	child.AddValue("leaf", &hir.ValueItem{Function: &hir.Function{Name: "leaf"}})

	root := hir.NewCrate(nil).Root
	root.AddSubmodule("inner", child)
	root.AddValue("top", &hir.ValueItem{Function: &hir.Function{Name: "top"}})

	crate := &hir.Crate{Root: root}

	var order []string
	v := &hirvisit.Visitor{
		VisitModule: func(path []string, mod *hir.Module) {
			if len(path) == 0 {
				order = append(order, "module:root")
				return
			}
			order = append(order, "module:"+path[len(path)-1])
		},
		VisitFunction: func(mod *hir.Module, name string, fn *hir.Function) {
			order = append(order, "fn:"+name)
		},
	}
	hirvisit.Walk(crate, v)

	require.Equal(t, []string{"module:inner", "fn:leaf", "module:root", "fn:top"}, order)
}

// TestWalkVisitsImplTablesAfterTheModuleTree confirms the crate's flat
// TypeImpls/TraitImpls/MarkerImpls tables are each walked, in that order,
// after the module tree, and that a TraitImpl's methods are descended into.
func TestWalkVisitsImplTablesAfterTheModuleTree(t *testing.T) {
	t.Parallel()

	crate := hir.NewCrate(nil)
	crate.TypeImpls = append(crate.TypeImpls, &hir.TypeImpl{Generics: &hir.GenericParams{}})
	crate.TraitImpls = append(crate.TraitImpls, &hir.TraitImpl{
		Generics: &hir.GenericParams{},
		Methods:  []*hir.Function{{Name: "run"}},
	})
	crate.MarkerImpls = append(crate.MarkerImpls, &hir.MarkerImpl{Generics: &hir.GenericParams{}})

	var kinds []string
	var sawMethod bool
	v := &hirvisit.Visitor{
		VisitTypeImpl:   func(impl *hir.TypeImpl) { kinds = append(kinds, "type") },
		VisitTraitImpl:  func(impl *hir.TraitImpl) { kinds = append(kinds, "trait") },
		VisitMarkerImpl: func(impl *hir.MarkerImpl) { kinds = append(kinds, "marker") },
		VisitFunction: func(mod *hir.Module, name string, fn *hir.Function) {
			if name == "run" {
				sawMethod = true
			}
		},
	}
	hirvisit.Walk(crate, v)

	require.Equal(t, []string{"type", "trait", "marker"}, kinds)
	require.True(t, sawMethod, "TraitImpl methods must be descended into")
}

// TestWalkFunctionFiresExprRootOnNonNilBody confirms walkFunction reaches
// the body's VisitExprRoot hook, and that a function with a nil body (a
// trait method declaration without a default) does not.
func TestWalkFunctionFiresExprRootOnNonNilBody(t *testing.T) {
	t.Parallel()

	crate := hir.NewCrate(nil)
	body := &hir.ExprBlock{Tail: intLiteral(1)}
	crate.Root.AddValue("f", &hir.ValueItem{Function: &hir.Function{Name: "f", Body: body}})
	crate.Root.AddValue("g", &hir.ValueItem{Function: &hir.Function{Name: "g"}})

	var roots int
	v := &hirvisit.Visitor{
		VisitExprRoot: func(root *hir.Expr) { roots++ },
	}
	hirvisit.Walk(crate, v)

	require.Equal(t, 1, roots)
}

// stubExprVisitor records the node kinds it's handed, in visitation order,
// and always descends.
type stubExprVisitor struct {
	seen []hir.Expr
}

func (s *stubExprVisitor) VisitExpr(ptr *hir.Expr) bool {
	s.seen = append(s.seen, *ptr)
	return true
}

func TestWalkExprVisitsBlockStatementsThenTail(t *testing.T) {
	t.Parallel()

	block := &hir.ExprBlock{
		Stmts: []hir.Expr{intLiteral(1), intLiteral(2)},
		Tail:  intLiteral(3),
	}
	var root hir.Expr = block

	s := &stubExprVisitor{}
	hirvisit.WalkExpr(&root, s)

	require.Len(t, s.seen, 4) // block itself + 2 stmts + tail
	tail := s.seen[3].(*hir.ExprLiteral)
	require.Equal(t, uint64(3), tail.Value.Integer)
}

// TestWalkExprSkipsNilPointerOrNilExpr confirms both an absent slot
// (nil *hir.Expr) and a slot holding a nil interface value are no-ops.
func TestWalkExprSkipsNilPointerOrNilExpr(t *testing.T) {
	t.Parallel()

	s := &stubExprVisitor{}
	hirvisit.WalkExpr(nil, s)
	require.Empty(t, s.seen)

	var nilExpr hir.Expr
	hirvisit.WalkExpr(&nilExpr, s)
	require.Empty(t, s.seen)
}

// TestWalkExprStopsDescendingWhenVisitorReturnsFalse confirms a visitor
// that declines to descend leaves the node's children unvisited, mirroring
// astutil.Cursor's "return false to skip children" contract.
func TestWalkExprStopsDescendingWhenVisitorReturnsFalse(t *testing.T) {
	t.Parallel()

	block := &hir.ExprBlock{Stmts: []hir.Expr{intLiteral(9)}}
	var root hir.Expr = block

	calls := 0
	v := exprVisitorFunc(func(ptr *hir.Expr) bool {
		calls++
		return false
	})
	hirvisit.WalkExpr(&root, v)

	require.Equal(t, 1, calls, "children must not be visited once the root declines to descend")
}

// TestWalkExprRewriteThroughPointerAffectsParentSlot confirms replacing
// *ptr inside VisitExpr mutates the slot the caller holds, and that
// WalkExpr then recurses into the replacement's own children.
func TestWalkExprRewriteThroughPointerAffectsParentSlot(t *testing.T) {
	t.Parallel()

	var root hir.Expr = intLiteral(1)

	replaced := false
	v := exprVisitorFunc(func(ptr *hir.Expr) bool {
		if !replaced {
			if _, ok := (*ptr).(*hir.ExprLiteral); ok {
				replaced = true
				*ptr = &hir.ExprBorrow{Base: intLiteral(2)}
			}
		}
		return true
	})
	hirvisit.WalkExpr(&root, v)

	borrow, ok := root.(*hir.ExprBorrow)
	require.True(t, ok, "replacement must be visible through the original pointer")
	lit := borrow.Base.(*hir.ExprLiteral)
	require.Equal(t, uint64(2), lit.Value.Integer)
}

type exprVisitorFunc func(ptr *hir.Expr) bool

func (f exprVisitorFunc) VisitExpr(ptr *hir.Expr) bool { return f(ptr) }

// TestWalkExprPanicsOnUnhandledExprKind confirms an hir.Expr kind with no
// matching case in walkExprChildren fails loudly rather than silently
// skipping its children.
func TestWalkExprPanicsOnUnhandledExprKind(t *testing.T) {
	t.Parallel()

	var root hir.Expr = &unknownExpr{}
	require.Panics(t, func() {
		hirvisit.WalkExpr(&root, &stubExprVisitor{})
	})
}

type unknownExpr struct{ hir.Expr }
