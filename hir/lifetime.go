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

package hir

// LifetimeKind distinguishes the four shapes a lifetime reference can take
// during the middle-end's lifetime pass (spec.md §4.6.1).
type LifetimeKind uint8

const (
	// LifetimeUnknown is the placeholder used by the frontend for an
	// inferred lifetime (`&T` with no explicit name); pass I replaces every
	// occurrence of this with a concrete kind.
	LifetimeUnknown LifetimeKind = iota
	// LifetimeStatic is `'static`.
	LifetimeStatic
	// LifetimeNamed is a user-written named parameter, e.g. `'a`.
	LifetimeNamed
	// LifetimeLocal is a local lifetime id (>= LocalLifetimeBase),
	// identifying a Composite, PatternBinding, or Node local lifetime.
	LifetimeLocal
	// LifetimeIvar is an inference-variable id (>= MaxLocalLifetime).
	LifetimeIvar
	// LifetimeHRL is a higher-ranked lifetime bound by a `for<'a>` clause;
	// these are replaced with fresh ivars at every use site during
	// enumeration (phase 1) and never survive past it.
	LifetimeHRL
)

// LocalLifetimeBase is the first id used for local (per-body) lifetimes;
// ivar ids start at MaxLocalLifetime. Mirrors spec.md §4.6.1's id ranges.
const LocalLifetimeBase = 0x1_0000

// MaxLocalLifetime is the exclusive upper bound of the local-lifetime id
// space; ids at or above this value are lifetime inference variables.
const MaxLocalLifetime = 0x8000_0000

// Lifetime is a lifetime reference attached to a Borrow, GenericPath, or
// TraitObject.
type Lifetime struct {
	Kind LifetimeKind
	// Name is set for LifetimeNamed.
	Name string
	// ID is set for LifetimeLocal and LifetimeIvar.
	ID int
	// HRLName is set for LifetimeHRL (the bound name inside `for<...>`).
	HRLName string
}

// IsConcrete reports whether the lifetime is a named parameter, 'static, or
// a local scope id — i.e. satisfies the pass-I exit invariant.
func (l Lifetime) IsConcrete() bool {
	switch l.Kind {
	case LifetimeStatic, LifetimeNamed, LifetimeLocal:
		return true
	default:
		return false
	}
}

// Static is the `'static` lifetime singleton value.
var Static = Lifetime{Kind: LifetimeStatic}

// ConstExpr is a constant-expression placeholder used by array lengths and
// const-generic value parameters before evaluation. The constant evaluator
// (constprop package) fills in EvaluatedLiteral.
type ConstExpr struct {
	Init             Expr
	EvaluatedLiteral *Literal
}
