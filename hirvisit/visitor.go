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

// Package hirvisit implements the generic recursive traversal over a
// hir.Crate described in spec.md §4.1. It does not itself rewrite
// anything; passes subclass it by setting the hook fields they care about
// on a Visitor value and calling Walk.
//
// Go has no method overriding, so rather than the "subclass overrides a
// virtual hook, default recurses" shape the original uses, Visitor is a
// struct of optional callback fields (every hook defaults to nil, meaning
// "no-op, just recurse") and the traversal functions in this package own
// all of the recursion — the same shape golang.org/x/tools/go/ast/inspector
// and http.Client's optional Transport hooks use.
package hirvisit

import "github.com/rlang/hirxc/hir"

// PathContext tags how a path is being used at a use site, so
// path-sensitive passes can distinguish `Foo::Bar` (type) from `Foo::bar`
// (value) from `Foo` in trait position (spec.md §4.1 "Path context").
type PathContext uint8

const (
	ContextType PathContext = iota
	ContextValue
	ContextTrait
)

// Visitor holds one optional hook per item/impl/structural kind named in
// spec.md §4.1. Passes only need to set the fields relevant to their own
// rewrite; Walk always performs the full traversal regardless of which
// hooks are set.
type Visitor struct {
	VisitModule func(path []string, mod *hir.Module)

	VisitFunction       func(mod *hir.Module, name string, fn *hir.Function)
	VisitStatic         func(mod *hir.Module, name string, s *hir.Static)
	VisitConstant       func(mod *hir.Module, name string, c *hir.Const)
	VisitEnum           func(mod *hir.Module, name string, e *hir.Enum)
	VisitStruct         func(mod *hir.Module, name string, s *hir.Struct)
	VisitUnion          func(mod *hir.Module, name string, u *hir.Union)
	VisitTrait          func(mod *hir.Module, name string, t *hir.Trait)
	VisitTraitAlias     func(mod *hir.Module, name string, t *hir.TraitAlias)
	VisitAssociatedType func(mod *hir.Module, name string, a *hir.AssociatedType)

	// Impls are visited off the crate's own flat tables (they aren't owned
	// by a Module in the arena-and-index model hir.Crate uses), so these
	// hooks take the impl alone.
	VisitTypeImpl   func(impl *hir.TypeImpl)
	VisitTraitImpl  func(impl *hir.TraitImpl)
	VisitMarkerImpl func(impl *hir.MarkerImpl)

	VisitParams       func(g *hir.GenericParams)
	VisitGenericBound func(b *hir.GenericBound)
	VisitType         func(ctx PathContext, t *hir.Type)
	VisitPattern      func(p *hir.Pattern)
	VisitPatternVal   func(p *hir.Pattern)
	VisitTraitPath    func(p *hir.GenericPath)
	VisitPath         func(ctx PathContext, p *hir.Path)
	VisitGenericPath  func(ctx PathContext, p *hir.GenericPath)
	VisitPathParams   func(p *hir.PathParams)

	// VisitExprRoot is handed the root expression pointer of every
	// function/const/static body encountered during the walk, so passes
	// that also need expression-tree rewriting can kick off a
	// hirvisit.WalkExpr from here (the outer item visitor leaves
	// expression trees opaque by default, matching spec.md §4.1's
	// "default visit_expr does nothing").
	VisitExprRoot func(root *hir.Expr)
}

// Walk traverses the whole crate: nested modules first, then items in
// source order, then the three impl tables, matching spec.md's
// visit_module contract.
func Walk(c *hir.Crate, v *Visitor) {
	walkModule(nil, c.Root, v)
	for _, impl := range c.TypeImpls {
		if v.VisitTypeImpl != nil {
			v.VisitTypeImpl(impl)
		}
		walkTypeImplBody(impl, v)
	}
	for _, impl := range c.TraitImpls {
		if v.VisitTraitImpl != nil {
			v.VisitTraitImpl(impl)
		}
		walkTraitImplBody(impl, v)
	}
	for _, impl := range c.MarkerImpls {
		if v.VisitMarkerImpl != nil {
			v.VisitMarkerImpl(impl)
		}
	}
}

func walkModule(path []string, mod *hir.Module, v *Visitor) {
	for _, name := range mod.SubOrder {
		walkModule(append(append([]string{}, path...), name), mod.Submodules[name], v)
	}
	if v.VisitModule != nil {
		v.VisitModule(path, mod)
	}
	for _, name := range mod.TypeOrder {
		item := mod.Types[name]
		switch {
		case item.Struct != nil:
			if v.VisitStruct != nil {
				v.VisitStruct(mod, name, item.Struct)
			}
			if v.VisitParams != nil {
				v.VisitParams(item.Struct.Generics)
			}
		case item.Enum != nil:
			if v.VisitEnum != nil {
				v.VisitEnum(mod, name, item.Enum)
			}
		case item.Union != nil:
			if v.VisitUnion != nil {
				v.VisitUnion(mod, name, item.Union)
			}
		case item.Trait != nil:
			if v.VisitTrait != nil {
				v.VisitTrait(mod, name, item.Trait)
			}
			for _, m := range item.Trait.Methods {
				walkFunction(mod, m.Name, m, v)
			}
		case item.TraitAlias != nil:
			if v.VisitTraitAlias != nil {
				v.VisitTraitAlias(mod, name, item.TraitAlias)
			}
		case item.AssociatedType != nil:
			if v.VisitAssociatedType != nil {
				v.VisitAssociatedType(mod, name, item.AssociatedType)
			}
		}
	}
	for _, name := range mod.ValueOrder {
		item := mod.Values[name]
		switch {
		case item.Function != nil:
			walkFunction(mod, name, item.Function, v)
		case item.Static != nil:
			if v.VisitStatic != nil {
				v.VisitStatic(mod, name, item.Static)
			}
			if v.VisitExprRoot != nil {
				v.VisitExprRoot(&item.Static.Init)
			}
		case item.Const != nil:
			if v.VisitConstant != nil {
				v.VisitConstant(mod, name, item.Const)
			}
			if v.VisitExprRoot != nil {
				v.VisitExprRoot(&item.Const.Init)
			}
		}
	}
}

func walkFunction(mod *hir.Module, name string, fn *hir.Function, v *Visitor) {
	if v.VisitFunction != nil {
		v.VisitFunction(mod, name, fn)
	}
	if v.VisitParams != nil {
		v.VisitParams(fn.Generics)
	}
	if fn.Body != nil && v.VisitExprRoot != nil {
		v.VisitExprRoot(&fn.Body)
	}
}

func walkTypeImplBody(impl *hir.TypeImpl, v *Visitor) {
	if v.VisitParams != nil {
		v.VisitParams(impl.Generics)
	}
	for _, m := range impl.Methods {
		walkFunction(nil, m.Name, m, v)
	}
}

func walkTraitImplBody(impl *hir.TraitImpl, v *Visitor) {
	if v.VisitParams != nil {
		v.VisitParams(impl.Generics)
	}
	if v.VisitTraitPath != nil {
		v.VisitTraitPath(impl.Trait)
	}
	for _, m := range impl.Methods {
		walkFunction(nil, m.Name, m, v)
	}
}
