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
	"go/token"
	"strings"
)

// Cause is one link of the chained "because" notes spec.md §4.6.4
// describes walking back through composite members and pattern-binding
// origins to the original borrow site. The original's chain is a linked
// list built bottom-up as validate unwinds; here it is a plain slice built
// in the same order (outermost failure first, original borrow site last).
type Cause struct {
	At      token.Pos
	Message string
}

// ValidationError is returned by Validate when one or more outlives checks
// fail. Each Failure has its own Causes chain.
type ValidationError struct {
	Failures []Failure
}

// Failure is a single failed outlives check: lhs does not provably outlive
// rhs, with a chain of notes explaining why.
type Failure struct {
	At     token.Pos
	Causes []Cause
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "lifetimeinfer: validate: %d lifetime bound(s) failed", len(e.Failures))
	for _, f := range e.Failures {
		for _, c := range f.Causes {
			fmt.Fprintf(&b, "\n  %s", c.Message)
		}
	}
	return b.String()
}
