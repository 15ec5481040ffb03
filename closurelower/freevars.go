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

package closurelower

import "github.com/rlang/hirxc/hir"

// capture is one free variable a closure/generator body references from an
// enclosing scope: its outer slot, a display name (for the synthesized
// struct field and diagnostics), the field type to give it, and the
// strictest usage any occurrence in the body demands of it.
type capture struct {
	OuterSlot int
	Name      string
	FieldType hir.Type
	Usage     hir.Usage
}

// captureScan walks a closure/generator body once, read-only, to produce
// the "local vars" / "captured vars" partition spec.md §4.5 step 2 asks
// for: bound collects every slot a Let, match arm, or nested (already
// lowered) capture list introduces within the body itself; captures
// collects, in first-use order, every other slot actually referenced,
// with its combined usage across all occurrences.
type captureScan struct {
	bound     map[int]bool
	order     []int
	usage     map[int]hir.Usage
	name      map[int]string
	fieldType map[int]hir.Type
	// localType records the declared type of every slot bound within the
	// body itself, keyed the same as bound; lowerGenerator needs this to
	// give the synthesized state struct's per-local fields a type (a
	// closure's own locals stay ordinary function locals and never need
	// this, but the two passes share one scan).
	localType map[int]hir.Type
	localName map[int]string
}

func newCaptureScan(ownParams []hir.ClosureParam) *captureScan {
	s := &captureScan{
		bound:     map[int]bool{},
		usage:     map[int]hir.Usage{},
		name:      map[int]string{},
		fieldType: map[int]hir.Type{},
		localType: map[int]hir.Type{},
		localName: map[int]string{},
	}
	for _, p := range ownParams {
		s.bound[p.Slot] = true
		s.localType[p.Slot] = p.Ty
		s.localName[p.Slot] = p.Name
	}
	return s
}

// bindPattern marks every slot pat introduces as locally bound. Shadowing
// across sibling match arms is not modeled precisely (a later arm's
// binding of the same slot number as an earlier, non-taken arm is already
// impossible in practice since slot numbers are assigned densely and never
// reused within one body), so one flat bound-set suffices here.
func (s *captureScan) bindPattern(pat hir.Pattern) {
	switch p := pat.(type) {
	case *hir.PatternBinding:
		s.bound[p.Slot] = true
		s.localType[p.Slot] = p.Ty
		s.localName[p.Slot] = p.Name
		if p.Sub != nil {
			s.bindPattern(p.Sub)
		}
	case *hir.PatternAggregate:
		for _, f := range p.Fields {
			s.bindPattern(f)
		}
	}
}

func (s *captureScan) reference(slot int, name string, ty hir.Type, u hir.Usage) {
	if s.bound[slot] {
		return
	}
	if _, seen := s.usage[slot]; !seen {
		s.order = append(s.order, slot)
		s.name[slot] = name
		s.fieldType[slot] = ty
	}
	s.usage[slot] = hir.CombineUsage(s.usage[slot], u)
}

// locals returns every slot bound within the scanned body itself (the
// closure's own params plus every Let/match binding the walk encountered),
// the complement of captures in the slot space the rewrite needs.
func (s *captureScan) locals() map[int]bool { return s.bound }

// captures returns the scan's accumulated free variables in first-use order.
func (s *captureScan) captures() []capture {
	out := make([]capture, len(s.order))
	for i, slot := range s.order {
		out[i] = capture{OuterSlot: slot, Name: s.name[slot], FieldType: s.fieldType[slot], Usage: s.usage[slot]}
	}
	return out
}

// walk performs the read-only body scan. It does not reuse hirvisit's
// pointer-based ExprVisitor: nothing here mutates, and tracking an
// evolving bound-set alongside a plain recursive descent is simpler than
// threading that state through a mutate-oriented visitor interface.
func (s *captureScan) walk(e hir.Expr) {
	if e == nil {
		return
	}
	switch n := e.(type) {
	case *hir.ExprVariable:
		s.reference(n.Slot, n.Name, n.ResultType(), n.GetUsage())

	case *hir.ExprLiteral, *hir.ExprPathValue:
		// leaves

	case *hir.ExprBlock:
		for _, st := range n.Stmts {
			s.walk(st)
		}
		s.walk(n.Tail)

	case *hir.ExprReturn:
		s.walk(n.Value)

	case *hir.ExprAssign:
		s.walk(n.LHS)
		s.walk(n.RHS)

	case *hir.ExprLet:
		s.walk(n.Value)
		s.bindPattern(n.Pat)

	case *hir.ExprMatch:
		s.walk(n.Scrutinee)
		for _, arm := range n.Arms {
			s.bindPattern(arm.Pat)
			s.walk(arm.Guard)
			s.walk(arm.Body)
		}

	case *hir.ExprCast:
		s.walk(n.Value)
	case *hir.ExprUnsize:
		s.walk(n.Value)

	case *hir.ExprTuple:
		for _, v := range n.Vals {
			s.walk(v)
		}
	case *hir.ExprArrayList:
		for _, v := range n.Vals {
			s.walk(v)
		}
	case *hir.ExprArrayRepeat:
		s.walk(n.Value)

	case *hir.ExprStructLiteral:
		for _, f := range n.Fields {
			s.walk(f.Value)
		}
		s.walk(n.Base)

	case *hir.ExprTupleVariant:
		for _, a := range n.Args {
			s.walk(a)
		}

	case *hir.ExprField:
		s.walk(n.Base)
	case *hir.ExprIndex:
		s.walk(n.Base)
		s.walk(n.Index)
	case *hir.ExprDeref:
		s.walk(n.Base)
	case *hir.ExprBorrow:
		s.walk(n.Base)

	case *hir.ExprBinOp:
		s.walk(n.Left)
		s.walk(n.Right)
	case *hir.ExprUniOp:
		s.walk(n.Value)

	case *hir.ExprCallValue:
		s.walk(n.Callee)
		for _, a := range n.Args {
			s.walk(a)
		}
	case *hir.ExprCallMethod:
		s.walk(n.Receiver)
		for _, a := range n.Args {
			s.walk(a)
		}
	case *hir.ExprCallPath:
		for _, a := range n.Args {
			s.walk(a)
		}

	case *hir.ExprEmplace:
		s.walk(n.Value)

	case *hir.ExprClosure:
		// Already lowered (this pass runs leaves-up): its free variables
		// now live in its own capture list, each a reference into this
		// scope via Captures[i].OuterSlot.
		for _, c := range n.Captures {
			s.reference(c.OuterSlot, c.Name, c.FieldType, c.Usage)
		}

	case *hir.ExprGenerator:
		for _, c := range n.Captures {
			s.reference(c.OuterSlot, c.Name, c.FieldType, c.Usage)
		}

	case *hir.ExprYield:
		s.walk(n.Value)

	default:
		panic("closurelower: captureScan.walk: unhandled expression kind")
	}
}
