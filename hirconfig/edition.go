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

package hirconfig

// Edition gates the handful of version-dependent behaviors spec.md §6
// calls out, so passes branch on named predicates instead of scattering
// magic version comparisons (see SPEC_FULL.md's edition-gated feature
// matrix supplement).
type Edition uint8

const (
	Edition1_19 Edition = iota
	Edition1_29
	Edition1_39
	Edition1_54
)

// atLeast reports whether this edition is e or later, in the fixed
// declaration order above.
func (e Edition) atLeast(target Edition) bool { return e >= target }

// HasMagicClone reports whether the built-in magic Clone impl (§4.2.2 step
// 1a) applies; editions before 1.29 require an explicit impl.
func (e Edition) HasMagicClone() bool { return e.atLeast(Edition1_29) }

// HasDiscriminantKind reports whether the DiscriminantKind built-in trait
// (§4.2.2 step 1d) exists at all in this edition.
func (e Edition) HasDiscriminantKind() bool { return e.atLeast(Edition1_54) }

// AllowsValueReceiverObjectSafeMethods reports whether a by-value receiver
// method can still be object-safe (§4.7 step 1, vtable synthesis).
func (e Edition) AllowsValueReceiverObjectSafeMethods() bool { return e.atLeast(Edition1_39) }

// Config bundles everything the driver hands the pipeline at crate-load
// time: user-tunable target/edition plus presentation flags, mirroring the
// split the teacher's config.Config makes between analysis behavior flags
// and pretty-printing flags.
type Config struct {
	Target  TargetSpec
	Edition Edition
	// PrettyPrint is the colorized-output knob, matching the teacher's
	// config.PrettyPrint. cmd/hirxc sets it from its -pretty flag; no
	// package in this module reads it.
	PrettyPrint bool
}

// Default returns a Config for the newest edition and a 64-bit target,
// suitable for tests and as the CLI's flag defaults.
func Default() Config {
	return Config{Target: DefaultTargetSpec(), Edition: Edition1_54}
}
