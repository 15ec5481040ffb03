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
	"go/token"

	"github.com/rlang/hirxc/hir"
)

// LocalKind distinguishes the three local-lifetime sub-kinds of spec.md
// §4.6.1.
type LocalKind uint8

const (
	// LocalComposite is the union of several other lifetimes (named or
	// local), produced when phase 2 finds an ivar with more than one
	// distinct resolved source.
	LocalComposite LocalKind = iota
	// LocalPatternBinding is the scope a `ref`/`ref mut` pattern binding
	// introduces at its match/let site.
	LocalPatternBinding
	// LocalNode is the scope of a single borrow expression — the ordinary
	// case get_borrow_lifetime produces for `&place`.
	LocalNode
)

// LocalLifetime is one per-body local scope, identified by an id ≥
// hir.LocalLifetimeBase.
type LocalLifetime struct {
	ID          int
	Kind        LocalKind
	BorrowPoint token.Pos
	// Members is populated only for LocalComposite.
	Members []hir.Lifetime
	// Pat is set only for LocalPatternBinding.
	Pat hir.Pattern
}

// newLocal allocates a plain LocalNode scope at the given borrow point
// (spec.md §4.6.2's "Borrow nodes create a local lifetime from the borrow
// point via get_borrow_lifetime").
func (c *Context) newLocal(kind LocalKind, at token.Pos) hir.Lifetime {
	id := hir.LocalLifetimeBase + len(c.locals)
	c.locals = append(c.locals, LocalLifetime{ID: id, Kind: kind, BorrowPoint: at})
	return hir.Lifetime{Kind: hir.LifetimeLocal, ID: id}
}

// newPatternBindingLocal allocates a PatternBinding local for a `ref`/`ref
// mut` pattern (spec.md §4.6.1/.2).
func (c *Context) newPatternBindingLocal(at token.Pos, pat hir.Pattern) hir.Lifetime {
	id := hir.LocalLifetimeBase + len(c.locals)
	c.locals = append(c.locals, LocalLifetime{ID: id, Kind: LocalPatternBinding, BorrowPoint: at, Pat: pat})
	return hir.Lifetime{Kind: hir.LifetimeLocal, ID: id}
}

// newComposite allocates a Composite local unioning members as given — it
// does not deduplicate them; its callers in solve.go and commit.go pass
// lists they have already deduplicated — spec.md §4.6.3's "multiple
// elements construct a Composite local".
func (c *Context) newComposite(members []hir.Lifetime) hir.Lifetime {
	id := hir.LocalLifetimeBase + len(c.locals)
	c.locals = append(c.locals, LocalLifetime{ID: id, Kind: LocalComposite, Members: members})
	return hir.Lifetime{Kind: hir.LifetimeLocal, ID: id}
}

func (c *Context) localIndex(id int) int { return id - hir.LocalLifetimeBase }

func (c *Context) local(lt hir.Lifetime) *LocalLifetime {
	if lt.Kind != hir.LifetimeLocal {
		return nil
	}
	idx := c.localIndex(lt.ID)
	if idx < 0 || idx >= len(c.locals) {
		return nil
	}
	return &c.locals[idx]
}
