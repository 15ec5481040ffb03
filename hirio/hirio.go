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

// Package hirio implements the one wire format both driver entry points
// (cmd/hirxc's CLI and cmd/hirxcplugin's module-plugin adapter) use to
// exchange a hir.Crate with whatever external process built it (spec.md
// §6: "the driver supplies a built HIR Crate"): gob, the same encoding
// traitresolve's cache Snapshot and the teacher's own InferredMap use for
// their own cross-invocation persistence.
package hirio

import (
	"encoding/gob"
	"go/token"
	"io"
	"sync"

	"github.com/rlang/hirxc/hir"
)

var registerOnce sync.Once

// Decode reads a crate gob-encoded by Encode. The FileSet travels as its
// own leading gob value via token.FileSet's Write/Read hooks — the
// standard library provides these specifically because a FileSet's own
// fields are all unexported and so invisible to a plain gob.Decode of a
// struct that merely embeds one — so position info round-trips along with
// the node graph rather than silently coming back empty.
//
// RebuildIndices is called on the decoded crate before it's returned: the
// impl-lookup indices are unexported for the same reason and never
// survive the round trip on their own.
func Decode(r io.Reader) (*hir.Crate, error) {
	registerOnce.Do(hir.RegisterGobKinds)
	dec := gob.NewDecoder(r)

	fset := token.NewFileSet()
	if err := fset.Read(dec.Decode); err != nil {
		return nil, err
	}

	crate := hir.NewCrate(fset)
	if err := dec.Decode(crate); err != nil {
		return nil, err
	}
	crate.FileSet = fset
	crate.RebuildIndices()
	return crate, nil
}

// Encode gob-encodes crate to w, writing its FileSet first (see Decode).
func Encode(w io.Writer, crate *hir.Crate) error {
	registerOnce.Do(hir.RegisterGobKinds)
	enc := gob.NewEncoder(w)
	if err := crate.FileSet.Write(enc.Encode); err != nil {
		return err
	}
	return enc.Encode(crate)
}
