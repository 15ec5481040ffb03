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

// Package ufcsrewrite implements spec.md §4.10: rewriting every
// `receiver.method(args)` and non-function-pointer `callee(args)` call into
// the uniform `CallPath(path, args)` shape every later pass (vtablegen,
// lifetimeinfer) consumes.
package ufcsrewrite

import "github.com/rlang/hirxc/hir"

// fnTraitName names the Fn/FnMut/FnOnce trait (and its call method) a
// CallValue dispatches through.
var fnTraitName = map[hir.CallableTraitKind]struct {
	trait  string
	method string
}{
	hir.CallableFn:     {"Fn", "call"},
	hir.CallableFnMut:  {"FnMut", "call_mut"},
	hir.CallableFnOnce: {"FnOnce", "call_once"},
}

// rewriteMethod turns *ptr (an *hir.ExprCallMethod) into an *hir.ExprCallPath
// naming the resolved method, with the receiver prepended to args.
func rewriteMethod(ptr *hir.Expr) {
	n := (*ptr).(*hir.ExprCallMethod)

	selfTy := n.Receiver.ResultType()
	if b, ok := selfTy.(*hir.Borrow); ok {
		selfTy = b.Inner
	}

	var path *hir.Path
	if n.ResolvedTrait != nil {
		path = &hir.Path{
			Kind:         hir.PathUfcsKnown,
			UfcsSelfType: selfTy,
			UfcsTrait:    n.ResolvedTrait,
			UfcsItem:     n.Method,
		}
	} else {
		path = &hir.Path{
			Kind:         hir.PathUfcsInherent,
			UfcsSelfType: selfTy,
			UfcsItem:     n.Method,
		}
	}

	args := make([]hir.Expr, 0, len(n.Args)+1)
	args = append(args, n.Receiver)
	args = append(args, n.Args...)

	argTypes := make([]hir.Type, 0, len(n.ArgTypeCache)+1)
	argTypes = append(argTypes, n.Receiver.ResultType())
	argTypes = append(argTypes, n.ArgTypeCache...)

	call := &hir.ExprCallPath{Callee: path, Args: args, ArgTypeCache: argTypes}
	call.SetResultType(n.ResultType())
	call.SetUsage(n.GetUsage())
	*ptr = call
}

// rewriteValue turns *ptr (an *hir.ExprCallValue whose callee type is not a
// function pointer) into an *hir.ExprCallPath through the appropriate
// Fn/FnMut/FnOnce call method, with the callee value prepended to args.
func rewriteValue(ptr *hir.Expr) {
	n := (*ptr).(*hir.ExprCallValue)

	kind := n.TraitUsed
	if kind == hir.CallableUnknown {
		// No closure-class signal survives to this point in the pipeline:
		// by pass G any ExprClosure/ClosureType has already been replaced
		// by closurelower (pass C), so there is no original closure kind
		// left to fall back to. FnOnce is the most permissive trait every
		// callable value implements, so it is the only sound default left.
		kind = hir.CallableFnOnce
	}
	names := fnTraitName[kind]

	path := &hir.Path{
		Kind:         hir.PathUfcsKnown,
		UfcsSelfType: n.Callee.ResultType(),
		UfcsTrait:    &hir.GenericPath{Segments: []string{names.trait}},
		UfcsItem:     names.method,
	}

	args := make([]hir.Expr, 0, len(n.Args)+1)
	args = append(args, n.Callee)
	args = append(args, n.Args...)

	call := &hir.ExprCallPath{Callee: path, Args: args}
	call.SetResultType(n.ResultType())
	call.SetUsage(n.GetUsage())
	*ptr = call
}

// isFunctionPointer reports whether ty is a `fn(...) -> T` type, the one
// CallValue shape the rule leaves untouched.
func isFunctionPointer(ty hir.Type) bool {
	_, ok := ty.(*hir.FunctionType)
	return ok
}
