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
	"github.com/rlang/hirxc/hir"
	"github.com/rlang/hirxc/hirvisit"
)

// evaluateArrayLengths implements the other half of spec.md §3's "after
// pass A: ... every array length is a concrete value." RunConstantEvaluation's
// main loop only reaches an ArrayLen.ConstVal that happens to be nested
// inside an evaluated initializer expression (an ExprArrayRepeat's count);
// a length written in pure type position — a struct field, a function
// parameter or return type, an associated-type binding — sits on an
// hir.Array that no initializer expression ever visits. This walks every
// type appearing anywhere in the crate and evaluates any ArrayLen still
// unresolved.
func (p *Pass) evaluateArrayLengths() {
	visitFields := func(mod *hir.Module, fields []hir.StructField) {
		for i := range fields {
			p.evaluateArrayLengthsIn(fields[i].Ty, mod)
		}
	}
	hirvisit.Walk(p.Crate, &hirvisit.Visitor{
		VisitStruct: func(mod *hir.Module, name string, s *hir.Struct) { visitFields(mod, s.Fields) },
		VisitUnion:  func(mod *hir.Module, name string, u *hir.Union) { visitFields(mod, u.Fields) },
		VisitEnum: func(mod *hir.Module, name string, en *hir.Enum) {
			for i := range en.Variants {
				visitFields(mod, en.Variants[i].Fields)
			}
		},
		VisitFunction: func(mod *hir.Module, name string, fn *hir.Function) {
			for _, param := range fn.Params {
				p.evaluateArrayLengthsIn(param.Ty, mod)
			}
			p.evaluateArrayLengthsIn(fn.ReturnType, mod)
		},
		VisitStatic:   func(mod *hir.Module, name string, s *hir.Static) { p.evaluateArrayLengthsIn(s.Ty, mod) },
		VisitConstant: func(mod *hir.Module, name string, c *hir.Const) { p.evaluateArrayLengthsIn(c.Ty, mod) },
		VisitTypeImpl: func(impl *hir.TypeImpl) { p.evaluateArrayLengthsIn(impl.SelfType, nil) },
		VisitTraitImpl: func(impl *hir.TraitImpl) {
			p.evaluateArrayLengthsIn(impl.SelfType, nil)
			for _, t := range impl.AssocTypes {
				p.evaluateArrayLengthsIn(t, nil)
			}
		},
		VisitMarkerImpl: func(impl *hir.MarkerImpl) { p.evaluateArrayLengthsIn(impl.SelfType, nil) },
	})
}

// evaluateArrayLengthsIn recursively descends ty, evaluating every
// not-yet-known ArrayLen.ConstVal reachable from it. mod only matters if
// the length expression itself contains a promotable Borrow; nil is fine
// for an impl's Self type, which has no owning module in the
// arena-and-index model.
func (p *Pass) evaluateArrayLengthsIn(ty hir.Type, mod *hir.Module) {
	switch t := ty.(type) {
	case nil:
		return
	case *hir.Array:
		if !t.Len.Known && t.Len.ConstVal != nil {
			ev := NewEvaluator(p.Crate, p.Target, p.newStaticIn(mod))
			if lit, ok := ev.evalConstExpr(t.Len.ConstVal, nil); ok {
				t.Len.Known = true
				t.Len.Value = lit.Integer
			}
		}
		p.evaluateArrayLengthsIn(t.Element, mod)
	case *hir.Slice:
		p.evaluateArrayLengthsIn(t.Element, mod)
	case *hir.Tuple:
		for _, e := range t.Elements {
			p.evaluateArrayLengthsIn(e, mod)
		}
	case *hir.Borrow:
		p.evaluateArrayLengthsIn(t.Inner, mod)
	case *hir.Pointer:
		p.evaluateArrayLengthsIn(t.Inner, mod)
	case *hir.FunctionType:
		for _, a := range t.Args {
			p.evaluateArrayLengthsIn(a, mod)
		}
		p.evaluateArrayLengthsIn(t.Return, mod)
	case *hir.PathType:
		p.evaluateArrayLengthsInPath(t.Path, mod)
	case *hir.TraitObject:
		p.evaluateArrayLengthsInGenericPath(t.Principal, mod)
		for _, m := range t.Markers {
			p.evaluateArrayLengthsInGenericPath(m, mod)
		}
		for _, at := range t.AssociatedTys {
			p.evaluateArrayLengthsIn(at, mod)
		}
	}
}

func (p *Pass) evaluateArrayLengthsInPath(path *hir.Path, mod *hir.Module) {
	if path == nil {
		return
	}
	if path.Kind == hir.PathGeneric {
		p.evaluateArrayLengthsInGenericPath(path.Generic, mod)
		return
	}
	p.evaluateArrayLengthsIn(path.UfcsSelfType, mod)
	p.evaluateArrayLengthsInGenericPath(path.UfcsTrait, mod)
}

func (p *Pass) evaluateArrayLengthsInGenericPath(g *hir.GenericPath, mod *hir.Module) {
	if g == nil || g.Params == nil {
		return
	}
	for _, t := range g.Params.Types {
		p.evaluateArrayLengthsIn(t, mod)
	}
	for _, b := range g.Params.Bindings {
		p.evaluateArrayLengthsIn(b.Type, mod)
	}
}
