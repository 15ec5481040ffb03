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

// Package usageinfer implements pass B (spec.md §4.4): walk every
// expression node of a function body and assign it a usage tag drawn from
// {Move, Mutate, Borrow, Unknown}, the annotation closurelower (pass C)
// consumes to decide each capture's borrow form.
//
// Unlike the mutate-in-place rewrites hirvisit.ExprVisitor is built for,
// usage annotation needs to hand *different* children of the *same* node
// different contextual usages (an Assign's LHS gets Mutate while its RHS
// gets Move), which a single VisitExpr(ptr) (descend bool) hook can't
// express without a side channel. So this pass drives its own recursion
// directly, threading the contextual usage as an explicit stack rather
// than a bare function parameter to keep the shape described in the spec:
// a guard that pushes on entry and is deferred to pop on every exit path.
package usageinfer

import "github.com/rlang/hirxc/hir"

// contextStack is a push/pop stack of the usage context in effect for the
// expression currently being visited: the same scoped-guard shape as
// util/recursionguard.Stack, but threading a contextual value through the
// walk instead of detecting re-entrancy.
type contextStack struct {
	entries []hir.Usage
}

// push installs u as the current context and returns a guard; the caller
// MUST defer guard.pop() immediately.
func (s *contextStack) push(u hir.Usage) contextGuard {
	s.entries = append(s.entries, u)
	return contextGuard{s}
}

func (s *contextStack) current() hir.Usage {
	if len(s.entries) == 0 {
		return hir.UsageMove
	}
	return s.entries[len(s.entries)-1]
}

type contextGuard struct{ stack *contextStack }

func (g contextGuard) pop() { g.stack.entries = g.stack.entries[:len(g.stack.entries)-1] }

// Pass carries the state needed to annotate one crate's function bodies.
// It holds no per-body state beyond the context stack, so one Pass can be
// reused across every body in the crate.
type Pass struct {
	Crate *hir.Crate
	ctx   contextStack
}

// New returns a Pass ready to annotate function bodies belonging to crate.
func New(crate *hir.Crate) *Pass {
	return &Pass{Crate: crate}
}

// Run annotates every node reachable from *body, whose root is always
// visited in Move context.
func (p *Pass) Run(body *hir.Expr) {
	if body == nil || *body == nil {
		return
	}
	guard := p.ctx.push(hir.UsageMove)
	defer guard.pop()
	p.visit(body)
}

// visit tags *ptr with the current contextual usage and recurses into its
// children under whichever usage each child's own position demands.
func (p *Pass) visit(ptr *hir.Expr) {
	if ptr == nil || *ptr == nil {
		return
	}
	e := *ptr
	e.SetUsage(p.ctx.current())

	switch n := e.(type) {
	case *hir.ExprLiteral, *hir.ExprVariable, *hir.ExprPathValue:
		// leaves

	case *hir.ExprBlock:
		p.visitUnder(&n.Stmts, hir.UsageMove)
		// Tail inherits the block's own context.
		p.visit(&n.Tail)

	case *hir.ExprReturn:
		p.visitOneUnder(&n.Value, hir.UsageMove)

	case *hir.ExprAssign:
		p.visitOneUnder(&n.LHS, hir.UsageMutate)
		p.visitOneUnder(&n.RHS, hir.UsageMove)

	case *hir.ExprLet:
		p.visitOneUnder(&n.Value, patternUsage(n.Pat))

	case *hir.ExprMatch:
		p.visitOneUnder(&n.Scrutinee, armsUsage(n.Arms))
		for i := range n.Arms {
			if n.Arms[i].Guard != nil {
				p.visitOneUnder(&n.Arms[i].Guard, hir.UsageBorrow)
			}
			// A match arm's body is itself in the match expression's own
			// context, mirroring a block's tail-inherits rule.
			p.visit(&n.Arms[i].Body)
		}

	case *hir.ExprCast:
		p.visitOneUnder(&n.Value, hir.UsageMove)

	case *hir.ExprUnsize:
		p.visitOneUnder(&n.Value, hir.UsageMove)

	case *hir.ExprTuple:
		p.visitUnder(&n.Vals, hir.UsageMove)

	case *hir.ExprArrayList:
		p.visitUnder(&n.Vals, hir.UsageMove)

	case *hir.ExprArrayRepeat:
		p.visitOneUnder(&n.Value, hir.UsageMove)

	case *hir.ExprStructLiteral:
		for i := range n.Fields {
			p.visitOneUnder(&n.Fields[i].Value, hir.UsageMove)
		}
		if n.Base != nil {
			p.visitOneUnder(&n.Base, structBaseUsage(n.OmittedFields))
		}

	case *hir.ExprTupleVariant:
		p.visitUnder(&n.Args, hir.UsageMove)

	case *hir.ExprField:
		p.visitOneUnder(&n.Base, derefFieldUsage(p.ctx.current(), e.ResultType(), false))

	case *hir.ExprIndex:
		p.visitOneUnder(&n.Base, derefFieldUsage(p.ctx.current(), e.ResultType(), false))
		p.visitOneUnder(&n.Index, hir.UsageMove)

	case *hir.ExprDeref:
		_, rawPointer := n.Base.ResultType().(*hir.Pointer)
		p.visitOneUnder(&n.Base, derefFieldUsage(p.ctx.current(), e.ResultType(), rawPointer))

	case *hir.ExprBorrow:
		p.visitOneUnder(&n.Base, borrowInnerUsage(n.Kind))

	case *hir.ExprBinOp:
		inner := hir.UsageMove
		if n.Op.IsComparison() {
			inner = hir.UsageBorrow
		}
		p.visitOneUnder(&n.Left, inner)
		p.visitOneUnder(&n.Right, inner)

	case *hir.ExprUniOp:
		p.visitOneUnder(&n.Value, hir.UsageMove)

	case *hir.ExprCallValue:
		p.visitOneUnder(&n.Callee, callValueReceiverUsage(n.TraitUsed))
		p.visitUnder(&n.Args, hir.UsageMove)

	case *hir.ExprCallMethod:
		p.visitOneUnder(&n.Receiver, callMethodReceiverUsage(n.ReceiverKind))
		p.visitUnder(&n.Args, hir.UsageMove)

	case *hir.ExprCallPath:
		p.visitUnder(&n.Args, hir.UsageMove)

	case *hir.ExprEmplace:
		p.visitOneUnder(&n.Value, hir.UsageMove)

	case *hir.ExprClosure:
		// The body is extracted into its own function by closurelower
		// (pass C, which runs after this one); it is annotated as a fresh
		// root, exactly like a top-level function body.
		p.Run(&n.Body)

	case *hir.ExprGenerator:
		p.Run(&n.Body)

	case *hir.ExprYield:
		p.visitOneUnder(&n.Value, hir.UsageMove)

	default:
		panic("usageinfer: visit: unhandled expression kind")
	}
}

func (p *Pass) visitOneUnder(ptr *hir.Expr, u hir.Usage) {
	guard := p.ctx.push(u)
	defer guard.pop()
	p.visit(ptr)
}

func (p *Pass) visitUnder(ptrs *[]hir.Expr, u hir.Usage) {
	guard := p.ctx.push(u)
	defer guard.pop()
	for i := range *ptrs {
		p.visit(&(*ptrs)[i])
	}
}

// derefFieldUsage implements the Field/Index/Deref rule: a raw-pointer
// deref always reads its pointer operand (Borrow); otherwise a Move
// context downgrades to Borrow when the accessed result is Copy (pulling
// out a Copy value doesn't need to move the place it came from), and any
// other context (Mutate, Borrow, Unknown) simply propagates unchanged.
func derefFieldUsage(ctx hir.Usage, result hir.Type, rawPointerDeref bool) hir.Usage {
	if rawPointerDeref {
		return hir.UsageBorrow
	}
	if ctx == hir.UsageMove && result != nil && isCopy(result) {
		return hir.UsageBorrow
	}
	return ctx
}

// borrowInnerUsage maps a Borrow node's own kind to the usage it imposes
// on the place it borrows.
func borrowInnerUsage(kind hir.BorrowKind) hir.Usage {
	switch kind {
	case hir.BorrowUnique:
		return hir.UsageMutate
	case hir.BorrowOwned:
		return hir.UsageMove
	default: // BorrowShared
		return hir.UsageBorrow
	}
}

// callValueReceiverUsage implements "receiver use depends on trait_used".
// CallableUnknown (still-unresolved closure-class) leaves the receiver
// Unknown, matching the §3 data-model invariant that Unknown only survives
// at still-inferred callable receivers after this pass runs.
func callValueReceiverUsage(trait hir.CallableTraitKind) hir.Usage {
	switch trait {
	case hir.CallableFn:
		return hir.UsageBorrow
	case hir.CallableFnMut:
		return hir.UsageMutate
	case hir.CallableFnOnce:
		return hir.UsageMove
	default:
		return hir.UsageUnknown
	}
}

// callMethodReceiverUsage implements "receiver usage from function
// receiver kind".
func callMethodReceiverUsage(kind hir.ReceiverKind) hir.Usage {
	switch kind {
	case hir.ReceiverBorrowUnique:
		return hir.UsageMutate
	case hir.ReceiverBorrowShared:
		return hir.UsageBorrow
	default: // ReceiverValue, ReceiverBox
		return hir.UsageMove
	}
}

// structBaseUsage implements the StructLiteral functional-update rule: any
// omitted non-Copy field forces the whole base to be moved out of (since
// that field can only be taken by value), otherwise the base is only read
// for the Copy fields it contributes and can be borrowed.
func structBaseUsage(omitted []hir.FieldNilability) hir.Usage {
	for _, f := range omitted {
		if !f.IsCopy {
			return hir.UsageMove
		}
	}
	return hir.UsageBorrow
}
