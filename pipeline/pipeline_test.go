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

package pipeline_test

import (
	"testing"

	"github.com/rlang/hirxc/hir"
	"github.com/rlang/hirxc/hirconfig"
	"github.com/rlang/hirxc/pipeline"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) { goleak.VerifyTestMain(m) }

func u32Type() hir.Type { return &hir.Primitive{Name: hir.PrimU32} }

// TestRunPlainFunctionCompletesEveryPhase smoke-tests the common case: a
// function with a trivial body and nothing else in the crate. No phase
// should need to touch anything, and Run must still report no error.
func TestRunPlainFunctionCompletesEveryPhase(t *testing.T) {
	t.Parallel()

	var body hir.Expr = &hir.ExprVariable{Slot: 0, Name: "x"}
	body.SetResultType(u32Type())

	fn := &hir.Function{
		Name:       "identity",
		Params:     []hir.Param{{Ty: u32Type()}},
		ReturnType: u32Type(),
		Body:       body,
	}

	crate := hir.NewCrate(nil)
	mod := hir.NewModule([]string{"pkg"})
	mod.AddValue("identity", &hir.ValueItem{Function: fn})
	crate.Root = mod

	err := pipeline.New(crate, hirconfig.Default()).Run()
	require.NoError(t, err)
}

// TestRunLowersClosureBeforeLifetimeInference builds a function whose body
// is a capturing closure, exercising usage-inference (B) feeding
// closure-lowering (C): by the time Run returns, the closure node should
// have been fully extracted into a synthesized struct in the crate root,
// with every later phase (D through I) tolerating the replacement.
func TestRunLowersClosureBeforeLifetimeInference(t *testing.T) {
	t.Parallel()

	captured := &hir.ExprVariable{Slot: 0, Name: "n"}
	captured.SetResultType(u32Type())
	var closureBody hir.Expr = captured

	closure := &hir.ExprClosure{
		RetType: u32Type(),
		Body:    closureBody,
	}
	var fnBody hir.Expr = closure

	fn := &hir.Function{
		Name:       "makes_closure",
		Params:     []hir.Param{{Ty: u32Type()}},
		ReturnType: &hir.PathType{Path: &hir.Path{Kind: hir.PathGeneric, Generic: &hir.GenericPath{Segments: []string{"Fn"}}}},
		Body:       fnBody,
	}

	crate := hir.NewCrate(nil)
	mod := hir.NewModule([]string{"pkg"})
	mod.AddValue("makes_closure", &hir.ValueItem{Function: fn})
	crate.Root = mod

	err := pipeline.New(crate, hirconfig.Default()).Run()
	require.NoError(t, err)

	lowered, ok := fn.Body.(*hir.ExprClosure)
	require.True(t, ok)
	require.Nil(t, lowered.Body, "a lowered closure never keeps its Body")
	require.NotNil(t, lowered.ObjPath, "lowering must leave behind a path to the synthesized struct")
	require.NotEmpty(t, mod.Types, "the synthesized closure struct must land in the crate root module")
}

// TestResolverIsConstructedForCaller confirms Resolver is wired up and
// usable even though no phase of Run consults it directly.
func TestResolverIsConstructedForCaller(t *testing.T) {
	t.Parallel()

	crate := hir.NewCrate(nil)
	crate.Root = hir.NewModule([]string{"pkg"})

	p := pipeline.New(crate, hirconfig.Default())
	require.NotNil(t, p.Resolver)
}
