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

package traitresolve

import (
	"bytes"
	"encoding/gob"
	"errors"

	"github.com/klauspost/compress/s2"
)

// gobQueryKey mirrors queryKey with exported fields: gob's default
// reflection codec silently drops unexported struct fields, so a type
// meant to cross a GobEncode boundary needs its own exported shape.
type gobQueryKey struct {
	Trait, Params, Ty string
}

type autoTraitEntry struct {
	Key   gobQueryKey
	Grade Grade
}

// Snapshot is the cross-invocation-persistable half of a Resolver's
// state: the auto-trait answer cache, keyed purely by rendered strings so
// it still means something once loaded into a freshly parsed crate in a
// later compiler invocation (spec.md §5 "Caches"). The per-function bound
// cache is deliberately excluded from Snapshot: its entries hold live
// hir.Type/*hir.GenericPath values pointing into this invocation's own
// arena, and have no meaning once that arena is gone — it is rebuilt by
// typeinfer fresh for every function body regardless.
type Snapshot struct {
	AutoTrait []autoTraitEntry
}

// TakeSnapshot captures the Resolver's persistable cache state.
func (r *Resolver) TakeSnapshot() Snapshot {
	var snap Snapshot
	for _, p := range r.autoTraitCache.Pairs {
		snap.AutoTrait = append(snap.AutoTrait, autoTraitEntry{
			Key:   gobQueryKey{Trait: p.Key.trait, Params: p.Key.params, Ty: p.Key.ty},
			Grade: p.Value,
		})
	}
	return snap
}

// Restore seeds the Resolver's auto-trait cache from a previously-saved
// Snapshot, so a later invocation over the same crate shape doesn't have
// to re-derive answers a prior process already worked out.
func (r *Resolver) Restore(snap Snapshot) {
	for _, e := range snap.AutoTrait {
		key := queryKey{trait: e.Key.Trait, params: e.Key.Params, ty: e.Key.Ty}
		r.autoTraitCache.Store(key, e.Grade)
	}
}

// Encode gob-encodes then s2-compresses snap, mirroring the teacher's own
// InferredMap.GobEncode (compress-then-store, rather than storing raw gob
// bytes) for the same cross-invocation reuse reason: these caches can grow
// large on a sizeable crate.
func (snap Snapshot) Encode() (b []byte, err error) {
	var buf bytes.Buffer
	w := s2.NewWriter(&buf)
	defer func() {
		if cerr := w.Close(); cerr != nil {
			err = errors.Join(err, cerr)
		}
	}()
	if err := gob.NewEncoder(w).Encode(snap); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeSnapshot reverses Encode.
func DecodeSnapshot(data []byte) (Snapshot, error) {
	var snap Snapshot
	err := gob.NewDecoder(s2.NewReader(bytes.NewReader(data))).Decode(&snap)
	return snap, err
}
