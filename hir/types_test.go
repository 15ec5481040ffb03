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

package hir_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/rlang/hirxc/hir"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) { goleak.VerifyTestMain(m) }

// TestTypesEqualMatchesStructurallyIdenticalCompositeType builds two
// separately-allocated but structurally identical composite types (a slice
// of a unique borrow of a tuple) and confirms TypesEqual treats them as
// equal, using go-cmp to render a readable diff on failure rather than
// testify's default formatting.
func TestTypesEqualMatchesStructurallyIdenticalCompositeType(t *testing.T) {
	t.Parallel()

	build := func() hir.Type {
		return &hir.Slice{Element: &hir.Borrow{
			Kind: hir.BorrowUnique,
			Inner: &hir.Tuple{Elements: []hir.Type{
				&hir.Primitive{Name: hir.PrimU32},
				&hir.Primitive{Name: hir.PrimBool},
			}},
		}}
	}

	a, b := build(), build()
	if diff := cmp.Diff(a, b); diff != "" {
		t.Fatalf("independently built composite types diverge structurally (-a +b):\n%s", diff)
	}
	require.True(t, hir.TypesEqual(a, b))
}

// TestTypesEqualRejectsDifferingTupleArity confirms a shape mismatch deep
// inside a composite type (an extra tuple element) is caught.
func TestTypesEqualRejectsDifferingTupleArity(t *testing.T) {
	t.Parallel()

	a := &hir.Tuple{Elements: []hir.Type{&hir.Primitive{Name: hir.PrimU32}}}
	b := &hir.Tuple{Elements: []hir.Type{&hir.Primitive{Name: hir.PrimU32}, &hir.Primitive{Name: hir.PrimBool}}}

	require.False(t, hir.TypesEqual(a, b))
	require.NotEmpty(t, cmp.Diff(a, b), "go-cmp must also observe a structural difference here")
}

// TestTypesEqualRejectsDifferingBorrowKind confirms `&T` and `&mut T` over
// the same inner type are not considered equal.
func TestTypesEqualRejectsDifferingBorrowKind(t *testing.T) {
	t.Parallel()

	inner := &hir.Primitive{Name: hir.PrimU32}
	shared := &hir.Borrow{Kind: hir.BorrowShared, Inner: inner}
	unique := &hir.Borrow{Kind: hir.BorrowUnique, Inner: inner}

	require.False(t, hir.TypesEqual(shared, unique))
}

// TestTypesEqualFollowsGenericPathParamsPositionally confirms two PathType
// values compare equal only when every positional type parameter matches,
// not merely the path's segments.
func TestTypesEqualFollowsGenericPathParamsPositionally(t *testing.T) {
	t.Parallel()

	vecOf := func(elem hir.Type) hir.Type {
		return &hir.PathType{Path: &hir.Path{Kind: hir.PathGeneric, Generic: &hir.GenericPath{
			Segments: []string{"Vec"},
			Params:   &hir.PathParams{Types: []hir.Type{elem}},
		}}}
	}

	require.True(t, hir.TypesEqual(vecOf(&hir.Primitive{Name: hir.PrimU32}), vecOf(&hir.Primitive{Name: hir.PrimU32})))
	require.False(t, hir.TypesEqual(vecOf(&hir.Primitive{Name: hir.PrimU32}), vecOf(&hir.Primitive{Name: hir.PrimBool})))
}
