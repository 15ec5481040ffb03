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

package constprop

import (
	"fmt"

	"github.com/rlang/hirxc/hir"
	"github.com/rlang/hirxc/hirconfig"
	"github.com/rlang/hirxc/hirvisit"
)

// Pass orchestrates both halves of spec.md §4.8 over a whole crate: full
// constant evaluation (ConvertHIR_ConstantEvaluateFull) of every const,
// static, and enum discriminant, and borrow promotion
// (HIR_Expand_StaticBorrowConstants). The pipeline calls them separately:
// evaluation first (pass A), promotion later (pass E).
type Pass struct {
	Crate  *hir.Crate
	Target hirconfig.TargetSpec

	liftCounter int
}

// New returns a Pass ready to run over crate.
func New(crate *hir.Crate, target hirconfig.TargetSpec) *Pass {
	return &Pass{Crate: crate, Target: target}
}

// newStaticIn returns a NewStaticFunc that places each lifted static in mod
// and names it "lifted#N", with N counted across the whole Pass.
func (p *Pass) newStaticIn(mod *hir.Module) NewStaticFunc {
	return func() (string, *hir.Module) {
		name := fmt.Sprintf("lifted#%d", p.liftCounter)
		p.liftCounter++
		return name, mod
	}
}

// RunStaticBorrowPromotion implements HIR_Expand_StaticBorrowConstants:
// promote every qualifying constant Borrow in every function body (and
// every const/static initializer) to a standalone static.
func (p *Pass) RunStaticBorrowPromotion() {
	hirvisit.Walk(p.Crate, &hirvisit.Visitor{
		VisitFunction: func(mod *hir.Module, name string, fn *hir.Function) {
			if fn.Body == nil {
				return
			}
			NewPromoter(p.Crate, p.newStaticIn(mod)).PromoteBody(&fn.Body, fn.Generics)
		},
		VisitStatic: func(mod *hir.Module, name string, s *hir.Static) {
			if s.Init != nil {
				NewPromoter(p.Crate, p.newStaticIn(mod)).PromoteBody(&s.Init, nil)
			}
		},
		VisitConstant: func(mod *hir.Module, name string, c *hir.Const) {
			if c.Init != nil {
				NewPromoter(p.Crate, p.newStaticIn(mod)).PromoteBody(&c.Init, nil)
			}
		},
	})
}

// RunConstantEvaluation implements ConvertHIR_ConstantEvaluateFull: evaluate
// every const/static's Init expression and every enum variant's
// Discriminant, in module order, so a later initializer can reference an
// earlier one by path; then evaluate every array length reachable from a
// type anywhere in the crate (evaluateArrayLengths), so a length written
// in type position — never visited by the Init-expression walk above —
// still ends up known by the time this pass returns (spec.md §3's "after
// pass A: every array length is a concrete value").
func (p *Pass) RunConstantEvaluation() {
	hirvisit.Walk(p.Crate, &hirvisit.Visitor{
		VisitConstant: func(mod *hir.Module, name string, c *hir.Const) {
			if c.Init == nil || !c.EvaluatedLiteral.IsInvalid() {
				return
			}
			ev := NewEvaluator(p.Crate, p.Target, p.newStaticIn(mod))
			if lit, ok := ev.Eval(c.Init, nil); ok {
				c.EvaluatedLiteral = lit
			}
		},
		VisitStatic: func(mod *hir.Module, name string, s *hir.Static) {
			if s.Init == nil || !s.EvaluatedLiteral.IsInvalid() {
				return
			}
			ev := NewEvaluator(p.Crate, p.Target, p.newStaticIn(mod))
			if lit, ok := ev.Eval(s.Init, nil); ok {
				s.EvaluatedLiteral = lit
			}
		},
		VisitEnum: func(mod *hir.Module, name string, en *hir.Enum) {
			p.evaluateDiscriminants(mod, en)
		},
	})
	p.evaluateArrayLengths()
}

// evaluateDiscriminants fills each variant's Discriminant, defaulting to
// one past the previous variant's value the way a source enum with no
// explicit `= N` on every variant does; only unit variants (no Fields)
// carry one.
func (p *Pass) evaluateDiscriminants(mod *hir.Module, en *hir.Enum) {
	var next uint64
	for i := range en.Variants {
		v := &en.Variants[i]
		if len(v.Fields) > 0 {
			continue
		}
		if v.Discriminant == nil || v.Discriminant.IsInvalid() {
			v.Discriminant = intLiteral(next, false)
		}
		next = v.Discriminant.Integer + 1
	}
}
