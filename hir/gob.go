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

package hir

import "encoding/gob"

// RegisterGobKinds registers every concrete Type and Expr implementation
// with encoding/gob, so a Crate (held behind these two interfaces almost
// everywhere) can round-trip across a gob.Encoder/Decoder boundary — the
// same encoding traitresolve's Snapshot and the teacher's own InferredMap
// use for their own cross-invocation persistence. A driver that hands a
// Crate to this module across a process boundary (cmd/hirxc's -crate/-out
// flags) must call this once before the first Encode or Decode; a single
// process that only ever builds and consumes a Crate in memory never
// needs it.
func RegisterGobKinds() {
	for _, t := range []Type{
		&Infer{},
		&Diverge{},
		&Primitive{},
		&PathType{},
		&Generic{},
		&TraitObject{},
		&ErasedType{},
		&Array{},
		&Slice{},
		&Tuple{},
		&Borrow{},
		&Pointer{},
		&FunctionType{},
		&ClosureType{},
		&GeneratorType{},
	} {
		gob.Register(t)
	}

	for _, e := range []Expr{
		&ExprLiteral{},
		&ExprVariable{},
		&ExprPathValue{},
		&ExprBlock{},
		&ExprReturn{},
		&ExprAssign{},
		&ExprLet{},
		&ExprMatch{},
		&ExprCast{},
		&ExprUnsize{},
		&ExprTuple{},
		&ExprArrayList{},
		&ExprArrayRepeat{},
		&ExprStructLiteral{},
		&ExprTupleVariant{},
		&ExprField{},
		&ExprIndex{},
		&ExprDeref{},
		&ExprBorrow{},
		&ExprBinOp{},
		&ExprUniOp{},
		&ExprCallValue{},
		&ExprCallMethod{},
		&ExprCallPath{},
		&ExprEmplace{},
		&ExprClosure{},
		&ExprGenerator{},
		&ExprYield{},
	} {
		gob.Register(e)
	}
}
