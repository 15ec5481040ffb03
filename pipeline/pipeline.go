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

// Package pipeline wires every middle-end pass in this module together in
// spec.md §2's fixed order, so a driver needs exactly one call to turn a
// freshly loaded, already-typed hir.Crate into one ready for codegen.
package pipeline

import (
	"fmt"

	"github.com/rlang/hirxc/closurelower"
	"github.com/rlang/hirxc/constprop"
	"github.com/rlang/hirxc/erasedtype"
	"github.com/rlang/hirxc/hir"
	"github.com/rlang/hirxc/hirconfig"
	"github.com/rlang/hirxc/hirvisit"
	"github.com/rlang/hirxc/lifetimeinfer"
	"github.com/rlang/hirxc/reborrow"
	"github.com/rlang/hirxc/traitresolve"
	"github.com/rlang/hirxc/ufcsrewrite"
	"github.com/rlang/hirxc/usageinfer"
	"github.com/rlang/hirxc/vtablegen"
)

// Pipeline drives every pass over one crate.
type Pipeline struct {
	Crate  *hir.Crate
	Config hirconfig.Config

	// Resolver is the crate-wide trait-resolution engine (spec.md §4.2,
	// pass J, underpinning typeinfer's pass K). Neither is sequenced as a
	// step of Run: by the time an already-typed crate reaches this
	// pipeline, the frontend has already used both to settle every ivar
	// and pick every impl, which is the precondition the passes below
	// assume. Resolver is still built and exposed here rather than left
	// for the caller to construct separately, since it shares the crate's
	// placeholder-generic identity bookkeeping (implIdentity) that any
	// pass synthesizing new impls — closurelower's Fn/FnMut/FnOnce impls,
	// vtablegen's dispatch-table impls — would need to consult if it ever
	// had to re-resolve something incrementally.
	Resolver *traitresolve.Resolver

	closureCounter int
}

// New returns a Pipeline ready to run over crate.
func New(crate *hir.Crate, cfg hirconfig.Config) *Pipeline {
	return &Pipeline{
		Crate:    crate,
		Config:   cfg,
		Resolver: traitresolve.New(crate, cfg),
	}
}

// Run executes passes A through I in order. Each step mutates Crate in
// place; every later step sees every earlier step's output. A and E are
// both halves of constprop's work (spec.md §4.8: full constant evaluation
// is A, static-borrow promotion is E) but are driven from a single shared
// constprop.Pass so the synthesized-static name counter the two halves
// mint from doesn't reset and collide between them.
func (p *Pipeline) Run() error {
	cp := constprop.New(p.Crate, p.Config.Target)

	// A: full constant evaluation, first so every later pass sees folded
	// array lengths and evaluated enum discriminants rather than
	// unevaluated ConstExpr nodes.
	cp.RunConstantEvaluation()

	// B: value-usage annotation, consumed by closure/generator extraction.
	p.runUsageInfer()

	// C: closure/generator lowering.
	p.runClosureLower()

	// D: erased-type (`impl Trait`) substitution.
	erasedtype.New(p.Crate).Run()

	// E: static-borrow promotion. Runs after closures have been lowered so
	// a promoted borrow inside what used to be a closure body sees the
	// same slot-based capture shape every other pass does.
	cp.RunStaticBorrowPromotion()

	// F: reborrow insertion.
	reborrow.New(p.Crate).Run()

	// G: UFCS rewriting. Runs after reborrow so the argument lists it
	// flattens into CallPath already have every reborrow they need.
	ufcsrewrite.New(p.Crate).Run()

	// H: vtable synthesis.
	vtablegen.New(p.Crate, p.Config.Edition).RunCrate()

	// I: lifetime inference, last, since it validates the borrow/reborrow
	// shape every earlier pass produced.
	if err := lifetimeinfer.New(p.Crate).RunCrate(); err != nil {
		return fmt.Errorf("pipeline: %w", err)
	}

	return nil
}

// runUsageInfer drives usageinfer.Pass.Run (which takes one body at a
// time) across every function, static, and const in the crate.
func (p *Pipeline) runUsageInfer() {
	pass := usageinfer.New(p.Crate)
	hirvisit.Walk(p.Crate, &hirvisit.Visitor{
		VisitFunction: func(mod *hir.Module, name string, fn *hir.Function) {
			if fn.Body != nil {
				pass.Run(&fn.Body)
			}
		},
		VisitStatic: func(mod *hir.Module, name string, s *hir.Static) {
			if s.Init != nil {
				pass.Run(&s.Init)
			}
		},
		VisitConstant: func(mod *hir.Module, name string, c *hir.Const) {
			if c.Init != nil {
				pass.Run(&c.Init)
			}
		},
	})
}

// runClosureLower drives closurelower.Extractor across every function
// body in the crate, threading each one's owning impl generics (if any)
// through from the most recently visited VisitTypeImpl/VisitTraitImpl hook.
//
// Every synthesized closure/generator struct lands in the crate's root
// module rather than wherever its source closure lived: hir.TypeImpl and
// hir.TraitImpl carry no back-reference to an owning hir.Module (the
// "arena-and-index model" design note in hir/crate.go — impls live in the
// crate's flat tables, not inside a Module), so there is no module to
// recover for a closure captured inside an impl method. This mirrors the
// same kind of documented imprecision lifetimeinfer.Pass.RunCrate already
// carries for impl where-clause bounds: a trait's default-method bodies
// are also visited with a non-nil mod (same shape as an ordinary free
// function), so a closure captured inside one is extracted with
// implGenerics nil rather than the trait's own generics. A caller that
// needs full fidelity for either case should call Extractor.Extract
// directly with the right generics threaded through by hand.
func (p *Pipeline) runClosureLower() {
	var currentImplGenerics *hir.GenericParams

	x := closurelower.New(p.Crate, func() (string, *hir.Module) {
		name := fmt.Sprintf("Closure#%d", p.closureCounter)
		p.closureCounter++
		return name, p.Crate.Root
	})

	hirvisit.Walk(p.Crate, &hirvisit.Visitor{
		VisitTypeImpl: func(impl *hir.TypeImpl) {
			currentImplGenerics = impl.Generics
		},
		VisitTraitImpl: func(impl *hir.TraitImpl) {
			currentImplGenerics = impl.Generics
		},
		VisitFunction: func(mod *hir.Module, name string, fn *hir.Function) {
			if fn.Body == nil {
				return
			}
			implGenerics := currentImplGenerics
			if mod != nil {
				implGenerics = nil
			}
			x.Extract(&fn.Body, fn.Generics, implGenerics, fn.IsMethod)
		},
	})
	x.Buffer.Flush(p.Crate, p.Crate.Root)
}
