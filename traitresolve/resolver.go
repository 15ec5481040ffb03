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

package traitresolve

import (
	"github.com/rlang/hirxc/hir"
	"github.com/rlang/hirxc/hirconfig"
	"github.com/rlang/hirxc/util/orderedmap"
	"github.com/rlang/hirxc/util/recursionguard"
)

// Candidate is one callback invocation from FindTraitImpls.
type Candidate struct {
	Impl  ImplRef
	Grade Grade
}

// queryKey identifies a (trait, params, type) resolution query for both
// the recursion guard and the answer cache.
type queryKey struct {
	trait  string
	params string
	ty     string
}

// Resolver implements spec.md §4.2's find_trait_impls and its supporting
// queries against one hir.Crate. A Resolver is not safe for concurrent
// use from multiple goroutines (the whole core is single-threaded per
// spec.md §5), but is cheap to share across every function body in a
// crate — its caches are exactly the point.
type Resolver struct {
	Crate  *hir.Crate
	Config hirconfig.Config

	// recursion is the "thread-local stack of (Tr, P, T) tuples" from
	// spec.md §4.2.2, reimplemented as an explicit guard object per
	// spec.md §9's design note rather than actual goroutine-local state.
	recursion recursionguard.Stack[queryKey]
	// autoRecursion is the auto-trait resolver's own, separate recursion
	// stack (spec.md §4.2.4 step 2: "a second thread-local stack").
	autoRecursion recursionguard.Stack[queryKey]
	// eatRecursion guards expand_associated_types_inplace (spec.md §4.2.6
	// step 1).
	eatRecursion recursionguard.Stack[string]

	// autoTraitCache is the per-type auto-impl answer cache (spec.md
	// §4.2.4 step 1), keyed by (trait, type).
	autoTraitCache *orderedmap.OrderedMap[queryKey, Grade]
	// boundCache holds each function body's precomputed m_trait_bounds
	// (spec.md §4.3.3), populated by typeinfer and consulted here. cache.go's
	// Snapshot leaves it out, so it is never persisted across compiler
	// invocations.
	boundCache *orderedmap.OrderedMap[string, []BoundEntry]

	// implIDs assigns each impl a stable small integer the first time
	// ficCheckParams needs to mint a placeholder generic for it (spec.md
	// §4.2.3 step 3: "impl pointer as name, for per-impl uniqueness" —
	// a dense counter serves the same uniqueness purpose without reaching
	// for unsafe.Pointer).
	implIDs    map[*hir.TraitImpl]uint64
	nextImplID uint64
}

// BoundEntry is one entry of a function body's precomputed bound table
// (spec.md §4.3.3): a `(type, trait-generic-path)` key with its payload.
type BoundEntry struct {
	Subject Type
	Trait   *hir.GenericPath
	Assoc   map[string]hir.Type
}

// Type is a thin alias kept local to this package's bound-table payload;
// it is always exactly an hir.Type. The bound table is not part of
// cache.go's Snapshot and is never gob-encoded.
type Type = hir.Type

// New returns a Resolver over crate, ready to answer queries.
func New(crate *hir.Crate, cfg hirconfig.Config) *Resolver {
	return &Resolver{
		Crate:          crate,
		Config:         cfg,
		autoTraitCache: orderedmap.New[queryKey, Grade](),
		boundCache:     orderedmap.New[string, []BoundEntry](),
		implIDs:        map[*hir.TraitImpl]uint64{},
	}
}

// implIdentity returns a stable, dense per-impl identity for placeholder
// generic minting (spec.md §4.2.3 step 3), assigning a fresh one on first
// use.
func (r *Resolver) implIdentity(impl *hir.TraitImpl) uint64 {
	if id, ok := r.implIDs[impl]; ok {
		return id
	}
	r.nextImplID++
	r.implIDs[impl] = r.nextImplID
	return r.nextImplID
}

// FindTraitImpls is the query entry point of spec.md §4.2.1: invokes fn
// for every candidate impl of trait/params against ty, in the fixed order
// of steps 1-4 (built-in magic, type-driven dispatch, generic bounds,
// crate-level impl search). It returns true iff fn returned true for some
// candidate (matching the original's early-stop contract).
func (r *Resolver) FindTraitImpls(trait *hir.GenericPath, ty hir.Type, magic bool, fn func(Candidate) bool) bool {
	key := queryKey{trait: trait.String(), params: trait.Params.String(), ty: typeKey(ty)}
	guard, ok := r.recursion.Enter(key)
	if !ok {
		// RecursionDetected (spec.md §4.2.2 "Cycle protection"): the
		// original throws here; we treat a direct cycle as an outright
		// resolution failure for this call site instead of panicking,
		// since a handful of legitimate recursive bound shapes (a trait
		// bound on itself through an associated type) are expected to
		// bottom out this way rather than being bugs.
		return false
	}
	defer guard.Exit()

	if magic {
		if cand, handled := r.findBuiltinImpl(trait, ty); handled {
			return fn(cand)
		}
	}

	if cand, handled := r.findTypeDrivenImpl(trait, ty); handled {
		return fn(cand)
	}

	if cand, ok := r.findBoundImpl(trait, ty); ok {
		if fn(cand) {
			return true
		}
	}

	return r.findCrateImpl(trait, ty, fn)
}

// findCrateImpl implements spec.md §4.2.2 step 4: iterate every impl of
// trait for ty in the crate's bucketed index, running ftic_check_params
// on each.
func (r *Resolver) findCrateImpl(trait *hir.GenericPath, ty hir.Type, fn func(Candidate) bool) bool {
	for _, impl := range r.Crate.TraitImplCandidates(trait, ty) {
		subst, paramGrade := ficCheckParams(r, impl, trait, ty)
		if paramGrade == Unequal {
			continue
		}
		boundGrade := r.checkImplBounds(impl, subst)
		grade := Min(paramGrade, boundGrade)
		if grade == Unequal {
			continue
		}
		cand := Candidate{Impl: ImplRef{Trait: impl, Subst: subst}, Grade: grade}
		if fn(cand) {
			return true
		}
	}
	return false
}

// findBoundImpl implements spec.md §4.2.2 step 3: consult the current
// function body's cached bound set for an entry whose subject matches ty
// and "whose parameters are compatible with P [the query's trait params]"
// — not merely one naming the same trait. It is the responsibility of
// typeinfer to have populated SetBounds before any query that needs this
// step; an empty/unset cache simply contributes no candidate, matching a
// function with no relevant where-clause.
func (r *Resolver) findBoundImpl(trait *hir.GenericPath, ty hir.Type) (Candidate, bool) {
	entries, ok := r.boundCache.Load(currentBoundScope)
	if !ok {
		return Candidate{}, false
	}
	for _, e := range entries {
		if e.Trait.Segments[len(e.Trait.Segments)-1] != trait.Segments[len(trait.Segments)-1] {
			continue
		}
		if !hir.TypesEqual(e.Subject, ty) {
			continue
		}
		grade, ok := boundParamsCompatible(e.Trait, trait)
		if !ok {
			continue
		}
		return Candidate{Impl: ImplRef{Builtin: &BuiltinImpl{AssocTypes: e.Assoc}}, Grade: grade}, true
	}
	return Candidate{}, false
}

// boundParamsCompatible implements the "parameters are compatible with P"
// half of spec.md §4.2.2 step 3: the where-bound's own trait arguments
// (the `U` in `T: Into<U>`) must unify against the query's trait
// arguments, under the same fuzzy-match contract ficCheckParams applies
// to a crate-level impl's trait arguments (params.go). A bound entry
// never carries an impl's own placeholder generics, so no slots array is
// needed here — nil is passed straight through to unifyFuzz.
func boundParamsCompatible(bound, query *hir.GenericPath) (Grade, bool) {
	boundArgs := implTraitParamTypes(bound)
	queryArgs := implTraitParamTypes(query)
	if len(boundArgs) != len(queryArgs) {
		if len(boundArgs) != 0 || len(queryArgs) != 0 {
			return Unequal, false
		}
		return Equal, true
	}
	grade := Equal
	for i := range boundArgs {
		grade = Min(grade, unifyFuzz(boundArgs[i], queryArgs[i], nil))
	}
	if grade == Unequal {
		return Unequal, false
	}
	return grade, true
}

// currentBoundScope is a placeholder scope key; SetBounds below
// overwrites it per function body, matching the original's "per function
// body" bound cache scope without threading an explicit scope handle
// through every query call site.
const currentBoundScope = "current"

// SetBounds installs the bound table for the function body about to be
// processed, evicting whatever was cached for the previous body. Called
// by typeinfer before it runs inference over a new function.
func (r *Resolver) SetBounds(entries []BoundEntry) {
	r.boundCache.Store(currentBoundScope, entries)
}
