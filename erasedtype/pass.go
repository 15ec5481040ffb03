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

package erasedtype

import (
	"github.com/rlang/hirxc/hir"
	"github.com/rlang/hirxc/hirvisit"
)

// Pass runs erased-type expansion over a whole crate (spec.md's
// HIR_Expand_ErasedType entry point).
type Pass struct {
	Crate *hir.Crate
}

// New returns a Pass for crate.
func New(crate *hir.Crate) *Pass { return &Pass{Crate: crate} }

// Run expands every ErasedType reachable from any item in the crate.
func (p *Pass) Run() {
	r := &Resolver{Crate: p.Crate}
	hirvisit.Walk(p.Crate, &hirvisit.Visitor{
		VisitFunction: func(mod *hir.Module, name string, fn *hir.Function) {
			fn.ReturnType = r.resolveType(fn.ReturnType, nil)
			for i := range fn.Params {
				fn.Params[i].Ty = r.resolveType(fn.Params[i].Ty, nil)
			}
			if fn.Body != nil {
				r.resolveBody(&fn.Body)
			}
		},
		VisitStatic: func(mod *hir.Module, name string, s *hir.Static) {
			s.Ty = r.resolveType(s.Ty, nil)
			if s.Init != nil {
				r.resolveBody(&s.Init)
			}
		},
		VisitConstant: func(mod *hir.Module, name string, c *hir.Const) {
			c.Ty = r.resolveType(c.Ty, nil)
			if c.Init != nil {
				r.resolveBody(&c.Init)
			}
		},
		VisitStruct: func(mod *hir.Module, name string, st *hir.Struct) {
			for i := range st.Fields {
				st.Fields[i].Ty = r.resolveType(st.Fields[i].Ty, nil)
			}
		},
		VisitEnum: func(mod *hir.Module, name string, en *hir.Enum) {
			for vi := range en.Variants {
				for fi := range en.Variants[vi].Fields {
					en.Variants[vi].Fields[fi].Ty = r.resolveType(en.Variants[vi].Fields[fi].Ty, nil)
				}
			}
		},
		VisitTypeImpl: func(impl *hir.TypeImpl) {
			for i := range impl.Consts {
				impl.Consts[i].Ty = r.resolveType(impl.Consts[i].Ty, nil)
				if impl.Consts[i].Init != nil {
					r.resolveBody(&impl.Consts[i].Init)
				}
			}
		},
		VisitTraitImpl: func(impl *hir.TraitImpl) {
			for name, ty := range impl.AssocTypes {
				impl.AssocTypes[name] = r.resolveType(ty, nil)
			}
			for i := range impl.Consts {
				impl.Consts[i].Ty = r.resolveType(impl.Consts[i].Ty, nil)
				if impl.Consts[i].Init != nil {
					r.resolveBody(&impl.Consts[i].Init)
				}
			}
		},
	})
}

// resolveBody walks an expression tree, substituting every node's result
// type. A CallPath through a PathGeneric callee supplies that path's own
// generic arguments as substitution context for its result type, the one
// position where a call site (rather than the declaring function) pins down
// which concrete type an erased type resolves to.
func (r *Resolver) resolveBody(ptr *hir.Expr) {
	if ptr == nil || *ptr == nil {
		return
	}
	e := *ptr
	switch n := e.(type) {
	case *hir.ExprBlock:
		for i := range n.Stmts {
			r.resolveBody(&n.Stmts[i])
		}
		if n.Tail != nil {
			r.resolveBody(&n.Tail)
		}
	case *hir.ExprReturn:
		if n.Value != nil {
			r.resolveBody(&n.Value)
		}
	case *hir.ExprAssign:
		r.resolveBody(&n.LHS)
		r.resolveBody(&n.RHS)
	case *hir.ExprLet:
		r.resolveBody(&n.Value)
	case *hir.ExprMatch:
		r.resolveBody(&n.Scrutinee)
		for i := range n.Arms {
			if n.Arms[i].Guard != nil {
				r.resolveBody(&n.Arms[i].Guard)
			}
			r.resolveBody(&n.Arms[i].Body)
		}
	case *hir.ExprCast:
		r.resolveBody(&n.Value)
	case *hir.ExprUnsize:
		r.resolveBody(&n.Value)
	case *hir.ExprEmplace:
		r.resolveBody(&n.Value)
	case *hir.ExprDeref:
		r.resolveBody(&n.Base)
	case *hir.ExprBorrow:
		r.resolveBody(&n.Base)
	case *hir.ExprField:
		r.resolveBody(&n.Base)
	case *hir.ExprIndex:
		r.resolveBody(&n.Base)
		r.resolveBody(&n.Index)
	case *hir.ExprBinOp:
		r.resolveBody(&n.Left)
		r.resolveBody(&n.Right)
	case *hir.ExprUniOp:
		r.resolveBody(&n.Value)
	case *hir.ExprArrayRepeat:
		r.resolveBody(&n.Value)
	case *hir.ExprTuple:
		r.resolveAll(n.Vals)
	case *hir.ExprArrayList:
		r.resolveAll(n.Vals)
	case *hir.ExprTupleVariant:
		r.resolveAll(n.Args)
	case *hir.ExprStructLiteral:
		for i := range n.Fields {
			r.resolveBody(&n.Fields[i].Value)
		}
		if n.Base != nil {
			r.resolveBody(&n.Base)
		}
	case *hir.ExprCallPath:
		r.resolveAll(n.Args)
		n.SetResultType(r.resolveType(n.ResultType(), pathCallArgs(n.Callee)))
		return
	case *hir.ExprCallMethod:
		r.resolveBody(&n.Receiver)
		r.resolveAll(n.Args)
	case *hir.ExprCallValue:
		r.resolveBody(&n.Callee)
		r.resolveAll(n.Args)
	case *hir.ExprGenerator:
		if n.Body != nil {
			r.resolveBody(&n.Body)
		}
	case *hir.ExprYield:
		if n.Value != nil {
			r.resolveBody(&n.Value)
		}
	}
	e.SetResultType(r.resolveType(e.ResultType(), nil))
}

func (r *Resolver) resolveAll(exprs []hir.Expr) {
	for i := range exprs {
		r.resolveBody(&exprs[i])
	}
}
