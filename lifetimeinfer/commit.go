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

package lifetimeinfer

import (
	"github.com/rlang/hirxc/hir"
	"github.com/rlang/hirxc/hirvisit"
)

// committer implements spec.md §4.6.5, phase 4: walk every type/path-param
// in the body and rewrite lifetime references with the ivar's resolved
// value (or, for a resolved Composite, its minimized member if one
// strictly outlives the rest).
type committer struct{ ctx *Context }

func commit(ctx *Context, fn *hir.Function) {
	if fn.Body == nil {
		return
	}
	cm := &committer{ctx: ctx}
	fn.ReturnType = cm.commitType(fn.ReturnType)
	hirvisit.WalkExpr(&fn.Body, cm)
}

func (cm *committer) VisitExpr(ptr *hir.Expr) bool {
	n := *ptr
	if rt := n.ResultType(); rt != nil {
		n.SetResultType(cm.commitType(rt))
	}
	return true
}

func (cm *committer) commitType(ty hir.Type) hir.Type {
	switch v := ty.(type) {
	case *hir.Borrow:
		n := *v
		n.Lifetime = cm.ctx.commitLifetime(v.Lifetime)
		n.Inner = cm.commitType(v.Inner)
		return &n
	case *hir.Pointer:
		n := *v
		n.Inner = cm.commitType(v.Inner)
		return &n
	case *hir.Slice:
		return &hir.Slice{Element: cm.commitType(v.Element)}
	case *hir.Array:
		n := *v
		n.Element = cm.commitType(v.Element)
		return &n
	case *hir.Tuple:
		elems := make([]hir.Type, len(v.Elements))
		for i, e := range v.Elements {
			elems[i] = cm.commitType(e)
		}
		return &hir.Tuple{Elements: elems}
	case *hir.FunctionType:
		n := *v
		n.Args = make([]hir.Type, len(v.Args))
		for i, a := range v.Args {
			n.Args[i] = cm.commitType(a)
		}
		n.Return = cm.commitType(v.Return)
		return &n
	case *hir.PathType:
		if v.Path.Kind != hir.PathGeneric || v.Path.Generic == nil || v.Path.Generic.Params == nil {
			return v
		}
		params := v.Path.Generic.Params
		lifetimes := make([]hir.Lifetime, len(params.Lifetimes))
		for i, l := range params.Lifetimes {
			lifetimes[i] = cm.ctx.commitLifetime(l)
		}
		gp := *v.Path.Generic
		gp.Params = &hir.PathParams{Lifetimes: lifetimes, Types: params.Types, Values: params.Values}
		p := *v.Path
		p.Generic = &gp
		return &hir.PathType{Path: &p}
	case *hir.TraitObject:
		n := *v
		n.Lifetime = cm.ctx.commitLifetime(v.Lifetime)
		return &n
	default:
		return ty
	}
}

// commitLifetime resolves lt to its final value, per spec.md §4.6.5:
// follow an ivar/local to its resolved value, and if that value is a
// Composite, attempt to pick a unique minimum member via pairwise
// checkLifetimes — if one strictly outlives every other flattened member,
// use it directly; otherwise keep the composite handle.
func (c *Context) commitLifetime(lt hir.Lifetime) hir.Lifetime {
	resolved := c.getFinalLft(lt)
	local := c.local(resolved)
	if local == nil || local.Kind != LocalComposite {
		return resolved
	}
	flat := c.flattenComposite(resolved)
	if len(flat) == 1 {
		return flat[0]
	}
	for _, candidate := range flat {
		if c.outlivesAllOthers(candidate, flat) {
			return candidate
		}
	}
	return c.newComposite(flat)
}

func (c *Context) flattenComposite(lt hir.Lifetime) []hir.Lifetime {
	local := c.local(lt)
	if local == nil || local.Kind != LocalComposite {
		return []hir.Lifetime{lt}
	}
	seen := map[int]bool{}
	var out []hir.Lifetime
	for _, m := range local.Members {
		for _, f := range c.flattenComposite(m) {
			k := lifetimeKey(f)
			if seen[k] {
				continue
			}
			seen[k] = true
			out = append(out, f)
		}
	}
	return out
}

func (c *Context) outlivesAllOthers(candidate hir.Lifetime, members []hir.Lifetime) bool {
	for _, other := range members {
		if lifetimeKey(other) == lifetimeKey(candidate) {
			continue
		}
		if _, ok := c.checkLifetimes(other, candidate, nil); !ok {
			return false
		}
	}
	return true
}
