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

package hirio_test

import (
	"bytes"
	"testing"

	"github.com/rlang/hirxc/hir"
	"github.com/rlang/hirxc/hirio"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) { goleak.VerifyTestMain(m) }

// TestEncodeDecodeRoundTripsCrateAndPositions builds a crate with a
// real token.Pos (backed by a file added to the crate's own FileSet) and
// confirms both the node graph and the position survive an Encode/Decode
// round trip.
func TestEncodeDecodeRoundTripsCrateAndPositions(t *testing.T) {
	t.Parallel()

	crate := hir.NewCrate(nil)
	file := crate.FileSet.AddFile("lib.rs", -1, 100)
	pos := file.Pos(7)

	fn := &hir.Function{
		Name:       "identity",
		ReturnType: &hir.Primitive{Name: hir.PrimU32},
	}
	var body hir.Expr = &hir.ExprVariable{Slot: 0, Name: "x"}
	body.SetResultType(&hir.Primitive{Name: hir.PrimU32})
	fn.Body = body

	mod := hir.NewModule([]string{"pkg"})
	mod.AddValue("identity", &hir.ValueItem{Function: fn})
	crate.Root = mod

	var buf bytes.Buffer
	require.NoError(t, hirio.Encode(&buf, crate))

	decoded, err := hirio.Decode(&buf)
	require.NoError(t, err)

	got, ok := decoded.Root.Values["identity"]
	require.True(t, ok)
	require.Equal(t, "identity", got.Function.Name)
	require.Equal(t, &hir.Primitive{Name: hir.PrimU32}, got.Function.ReturnType)

	require.Equal(t, crate.FileSet.Position(pos), decoded.FileSet.Position(pos),
		"position info must survive the round trip via FileSet.Write/Read")
}

// TestDecodeRebuildsImplIndices confirms a round-tripped crate's
// unexported impl-lookup indices work, not just its exported slices.
func TestDecodeRebuildsImplIndices(t *testing.T) {
	t.Parallel()

	selfType := &hir.Primitive{Name: hir.PrimU32}
	impl := &hir.TypeImpl{SelfType: selfType, Generics: &hir.GenericParams{}}
	crate := hir.NewCrate(nil)
	crate.AddTypeImpl(impl)
	crate.Root = hir.NewModule(nil)

	var buf bytes.Buffer
	require.NoError(t, hirio.Encode(&buf, crate))

	decoded, err := hirio.Decode(&buf)
	require.NoError(t, err)

	require.Len(t, decoded.TypeImplCandidates(selfType), 1)
}
