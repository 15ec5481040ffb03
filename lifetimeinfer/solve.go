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
	"fmt"

	"github.com/rlang/hirxc/hir"
	"github.com/rlang/hirxc/hirconfig"
)

// solve implements spec.md §4.6.3, phase 2: an iterative fixpoint, capped
// at hirconfig.LifetimeSolveIterationCap iterations (see that constant's
// doc comment and spec.md §9's Open Question — this is a safety net, not a
// proof of O(#ivars) convergence).
//
// Every few iterations the source/destination lists are canonicalized
// through getFinalLft (spec.md's "periodically compact"), so an ivar
// chained behind an already-resolved ivar resolves in fewer passes than a
// naive fixpoint that never looks through resolved neighbors.
func solve(ctx *Context) error {
	const compactEvery = 8
	for iter := 0; iter < hirconfig.LifetimeSolveIterationCap; iter++ {
		if iter%compactEvery == compactEvery-1 {
			ctx.compactIvarLists()
		}
		changed := false
		unresolved := 0
		for i := range ctx.ivars {
			iv := &ctx.ivars[i]
			if iv.resolved.Kind != hir.LifetimeUnknown {
				continue
			}
			if v, ok := resolveOne(ctx, iv); ok {
				iv.resolved = v
				changed = true
				continue
			}
			unresolved++
		}
		if !changed {
			if unresolved == 0 {
				return nil
			}
			return fmt.Errorf("lifetimeinfer: solve: %d lifetime ivar(s) remain unresolved after convergence", unresolved)
		}
	}
	return fmt.Errorf("lifetimeinfer: solve: did not converge within %d iterations", hirconfig.LifetimeSolveIterationCap)
}

// resolveOne applies spec.md §4.6.3's four resolution rules, in order, to
// one still-unresolved ivar. Rules 2 and 3 are read as "the source (resp.
// destination) list holds exactly one entry, and it is concrete" rather
// than "exactly one of possibly several entries is concrete" — the
// stricter reading, but one the fixpoint's later iterations still reach
// once any sibling ivar sources resolve and get deduplicated away by rule
// 4 on a later pass, so nothing is lost, only deferred a few iterations.
func resolveOne(ctx *Context, iv *ivarState) (hir.Lifetime, bool) {
	if len(iv.sources) == 0 {
		return hir.Static, true
	}

	if nonIvar := nonIvarMembers(ctx, iv.sources); len(nonIvar) == 1 && len(iv.sources) == 1 {
		return nonIvar[0], true
	}

	if len(iv.dests) > 0 {
		if nonIvar := nonIvarMembers(ctx, iv.dests); len(nonIvar) == 1 && len(iv.dests) == 1 {
			return nonIvar[0], true
		}
	}

	dedup := dedupLifetimes(ctx, iv.sources)
	resolved := true
	for _, lt := range dedup {
		if ctx.ivar(lt) != nil && ctx.getFinalLft(lt).Kind == hir.LifetimeUnknown {
			resolved = false
			break
		}
	}
	if !resolved {
		return hir.Lifetime{}, false
	}
	final := make([]hir.Lifetime, len(dedup))
	for i, lt := range dedup {
		final[i] = ctx.getFinalLft(lt)
	}
	final = dedupLifetimes(ctx, final)
	if len(final) == 1 {
		return final[0], true
	}
	return ctx.newComposite(final), true
}

// nonIvarMembers filters a lifetime list to the ones that are not
// themselves unresolved ivars (following resolved ivars to their value
// first).
func nonIvarMembers(ctx *Context, lts []hir.Lifetime) []hir.Lifetime {
	var out []hir.Lifetime
	for _, lt := range lts {
		final := ctx.getFinalLft(lt)
		if ctx.ivar(final) != nil && final.Kind == hir.LifetimeIvar {
			continue
		}
		out = append(out, final)
	}
	return out
}

func dedupLifetimes(ctx *Context, lts []hir.Lifetime) []hir.Lifetime {
	seen := map[int]bool{}
	var out []hir.Lifetime
	for _, lt := range lts {
		k := lifetimeKey(ctx.getFinalLft(lt))
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, ctx.getFinalLft(lt))
	}
	return out
}

// compactIvarLists canonicalizes every ivar's source/destination list
// in place through getFinalLft, spec.md §4.6.3's "periodically compact".
func (c *Context) compactIvarLists() {
	for i := range c.ivars {
		c.ivars[i].sources = compactOne(c, c.ivars[i].sources)
		c.ivars[i].dests = compactOne(c, c.ivars[i].dests)
	}
}

func compactOne(c *Context, lts []hir.Lifetime) []hir.Lifetime {
	out := make([]hir.Lifetime, len(lts))
	for i, lt := range lts {
		out[i] = c.getFinalLft(lt)
	}
	return out
}
