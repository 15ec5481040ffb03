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

package traitresolve_test

import (
	"testing"

	"github.com/rlang/hirxc/hir"
	"github.com/rlang/hirxc/hirconfig"
	"github.com/rlang/hirxc/traitresolve"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) { goleak.VerifyTestMain(m) }

func u32Type() hir.Type { return &hir.Primitive{Name: hir.PrimU32} }

func clonePath() *hir.GenericPath { return &hir.GenericPath{Segments: []string{"Clone"}} }

func newResolver(crate *hir.Crate) *traitresolve.Resolver {
	return traitresolve.New(crate, hirconfig.Default())
}

// TestFindTraitImplsMatchesCrateLevelImpl exercises step 4 of
// FindTraitImpls: a plain, non-generic `impl Clone for u32` with no
// where-clauses is found via the crate's bucketed index and graded Equal.
func TestFindTraitImplsMatchesCrateLevelImpl(t *testing.T) {
	t.Parallel()

	impl := &hir.TraitImpl{
		Generics: &hir.GenericParams{},
		Trait:    clonePath(),
		SelfType: u32Type(),
	}
	crate := hir.NewCrate(nil)
	crate.AddTraitImpl(impl)

	r := newResolver(crate)

	var got []traitresolve.Candidate
	found := r.FindTraitImpls(clonePath(), u32Type(), false, func(c traitresolve.Candidate) bool {
		got = append(got, c)
		return false
	})

	require.False(t, found, "fn always returns false, so FindTraitImpls reports no early stop")
	require.Len(t, got, 1)
	require.Equal(t, traitresolve.Equal, got[0].Grade)
	require.Same(t, impl, got[0].Impl.Trait)
}

// TestFindTraitImplsSkipsMismatchedSelfType confirms a crate-level impl for
// a different concrete type never reaches the callback.
func TestFindTraitImplsSkipsMismatchedSelfType(t *testing.T) {
	t.Parallel()

	impl := &hir.TraitImpl{
		Generics: &hir.GenericParams{},
		Trait:    clonePath(),
		SelfType: &hir.Primitive{Name: hir.PrimBool},
	}
	crate := hir.NewCrate(nil)
	crate.AddTraitImpl(impl)

	r := newResolver(crate)

	found := r.FindTraitImpls(clonePath(), u32Type(), false, func(traitresolve.Candidate) bool {
		t.Fatal("callback must not run for a mismatched Self type")
		return true
	})
	require.False(t, found)
}

// TestFindTraitImplsEarlyStopsOnTrueCallback confirms the early-stop
// contract: once fn returns true, FindTraitImpls itself returns true and
// does not keep iterating remaining candidates.
func TestFindTraitImplsEarlyStopsOnTrueCallback(t *testing.T) {
	t.Parallel()

	implA := &hir.TraitImpl{Generics: &hir.GenericParams{}, Trait: clonePath(), SelfType: u32Type()}
	implB := &hir.TraitImpl{Generics: &hir.GenericParams{}, Trait: clonePath(), SelfType: u32Type()}
	crate := hir.NewCrate(nil)
	crate.AddTraitImpl(implA)
	crate.AddTraitImpl(implB)

	r := newResolver(crate)

	calls := 0
	found := r.FindTraitImpls(clonePath(), u32Type(), false, func(traitresolve.Candidate) bool {
		calls++
		return true
	})
	require.True(t, found)
	require.Equal(t, 1, calls)
}

// TestFindTraitImplsConsultsBoundCache exercises step 3: with no matching
// crate-level impl at all, a bound installed via SetBounds for the same
// (trait, subject type) pair still produces a candidate.
func TestFindTraitImplsConsultsBoundCache(t *testing.T) {
	t.Parallel()

	crate := hir.NewCrate(nil)
	r := newResolver(crate)

	r.SetBounds([]traitresolve.BoundEntry{
		{Subject: u32Type(), Trait: clonePath()},
	})

	var got []traitresolve.Candidate
	found := r.FindTraitImpls(clonePath(), u32Type(), false, func(c traitresolve.Candidate) bool {
		got = append(got, c)
		return true
	})
	require.True(t, found)
	require.Len(t, got, 1)
	require.Equal(t, traitresolve.Equal, got[0].Grade)
}

// TestFindTraitImplsBoundCacheIsPerCallToSetBounds confirms a later
// SetBounds call replaces rather than appends to the previous body's table.
func TestFindTraitImplsBoundCacheIsPerCallToSetBounds(t *testing.T) {
	t.Parallel()

	crate := hir.NewCrate(nil)
	r := newResolver(crate)

	r.SetBounds([]traitresolve.BoundEntry{{Subject: u32Type(), Trait: clonePath()}})
	r.SetBounds([]traitresolve.BoundEntry{{Subject: &hir.Primitive{Name: hir.PrimBool}, Trait: clonePath()}})

	found := r.FindTraitImpls(clonePath(), u32Type(), false, func(traitresolve.Candidate) bool {
		t.Fatal("stale bound entry from the first SetBounds call must not survive")
		return true
	})
	require.False(t, found)
}

func intoPath(arg hir.Type) *hir.GenericPath {
	return &hir.GenericPath{Segments: []string{"Into"}, Params: &hir.PathParams{Types: []hir.Type{arg}}}
}

// TestFindTraitImplsBoundCacheRejectsIncompatibleTraitParams confirms step
// 3 checks the bound's own trait arguments, not just the trait's name: a
// cached `u32: Into<bool>` bound must not answer a query for
// `u32: Into<u32>`.
func TestFindTraitImplsBoundCacheRejectsIncompatibleTraitParams(t *testing.T) {
	t.Parallel()

	crate := hir.NewCrate(nil)
	r := newResolver(crate)

	r.SetBounds([]traitresolve.BoundEntry{
		{Subject: u32Type(), Trait: intoPath(&hir.Primitive{Name: hir.PrimBool})},
	})

	found := r.FindTraitImpls(intoPath(u32Type()), u32Type(), false, func(traitresolve.Candidate) bool {
		t.Fatal("a bound whose trait argument doesn't match the query must not answer it")
		return true
	})
	require.False(t, found)
}

// TestFindTraitImplsBoundCacheMatchesCompatibleTraitParams is the positive
// counterpart: identical trait arguments on both sides still resolve.
func TestFindTraitImplsBoundCacheMatchesCompatibleTraitParams(t *testing.T) {
	t.Parallel()

	crate := hir.NewCrate(nil)
	r := newResolver(crate)

	r.SetBounds([]traitresolve.BoundEntry{
		{Subject: u32Type(), Trait: intoPath(&hir.Primitive{Name: hir.PrimBool})},
	})

	found := r.FindTraitImpls(intoPath(&hir.Primitive{Name: hir.PrimBool}), u32Type(), false, func(traitresolve.Candidate) bool {
		return true
	})
	require.True(t, found)
}

// TestFindTraitImplsBoundCacheCarriesAssociatedTypeBinding confirms a
// where-bound's associated-type binding (`T: Iterator<Item = U>`) flows
// through to the candidate's BuiltinImpl.AssocTypes, the map eat.go's
// projection lookup consults.
func TestFindTraitImplsBoundCacheCarriesAssociatedTypeBinding(t *testing.T) {
	t.Parallel()

	crate := hir.NewCrate(nil)
	r := newResolver(crate)

	iteratorPath := &hir.GenericPath{Segments: []string{"Iterator"}}
	r.SetBounds([]traitresolve.BoundEntry{
		{Subject: u32Type(), Trait: iteratorPath, Assoc: map[string]hir.Type{"Item": &hir.Primitive{Name: hir.PrimBool}}},
	})

	var got traitresolve.Candidate
	found := r.FindTraitImpls(iteratorPath, u32Type(), false, func(c traitresolve.Candidate) bool {
		got = c
		return true
	})
	require.True(t, found)
	require.NotNil(t, got.Impl.Builtin)
	require.True(t, hir.TypesEqual(&hir.Primitive{Name: hir.PrimBool}, got.Impl.Builtin.AssocTypes["Item"]))
}

// TestFindTraitImplsCrateLevelImplRejectsUnsizedParamSubstitution covers
// spec.md §4.2.3 step 5: an impl's own generic parameter implicitly
// requires Sized, so a query that would substitute an unsized type (a
// slice) into that parameter must grade Unequal rather than matching.
func TestFindTraitImplsCrateLevelImplRejectsUnsizedParamSubstitution(t *testing.T) {
	t.Parallel()

	fooPath := func(arg hir.Type) *hir.GenericPath {
		return &hir.GenericPath{Segments: []string{"Foo"}, Params: &hir.PathParams{Types: []hir.Type{arg}}}
	}

	impl := &hir.TraitImpl{
		Generics: &hir.GenericParams{TypeNames: []string{"T"}},
		Trait:    fooPath(&hir.Generic{Group: hir.GroupImpl, Index: 0}),
		SelfType: u32Type(),
	}
	crate := hir.NewCrate(nil)
	crate.AddTraitImpl(impl)

	r := newResolver(crate)

	found := r.FindTraitImpls(fooPath(&hir.Slice{Element: u32Type()}), u32Type(), false, func(traitresolve.Candidate) bool {
		t.Fatal("substituting an unsized slice into T must fail the implicit Sized bound")
		return true
	})
	require.False(t, found)
}

func TestGradeMinReturnsMorePessimistic(t *testing.T) {
	t.Parallel()

	require.Equal(t, traitresolve.Unequal, traitresolve.Min(traitresolve.Equal, traitresolve.Unequal))
	require.Equal(t, traitresolve.Fuzzy, traitresolve.Min(traitresolve.Equal, traitresolve.Fuzzy))
	require.Equal(t, traitresolve.Equal, traitresolve.Min(traitresolve.Equal, traitresolve.Equal))
}
