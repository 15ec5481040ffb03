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

// LiteralTag enumerates the shapes of an evaluated constant value, per
// spec.md §4.8's tagged Literal value.
type LiteralTag uint8

const (
	LitInvalid LiteralTag = iota
	LitList
	LitVariant
	LitInteger
	LitFloat
	LitString
	LitBorrowOf
)

// Literal is the tagged constant value produced by the constant evaluator
// and stored on Static/Const items and array lengths.
type Literal struct {
	LiteralTag LiteralTag

	Integer uint64
	Signed  bool
	Float   float64
	Str     string

	// List holds element literals for LitList (aggregate) and the payload
	// slice for LitVariant.
	List []*Literal
	// VariantIndex is set for LitVariant.
	VariantIndex int

	// BorrowPath is set for LitBorrowOf: the path of the static this
	// constant's address-of expression resolved to.
	BorrowPath *Path
}

// IsInvalid reports whether this literal has not been successfully
// evaluated (the zero value of a fresh Literal).
func (lit *Literal) IsInvalid() bool { return lit == nil || lit.LiteralTag == LitInvalid }
