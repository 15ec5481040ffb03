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

package hirxcplugin

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/golangci/plugin-module-register/register"
	"github.com/rlang/hirxc/hir"
	"github.com/rlang/hirxc/hirio"
	"github.com/stretchr/testify/require"
)

func TestPluginBuildAnalyzersRunsPipelineEndToEnd(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cratePath := filepath.Join(dir, "crate.gob")
	outPath := filepath.Join(dir, "out.gob")

	var body hir.Expr = &hir.ExprVariable{Slot: 0, Name: "x"}
	body.SetResultType(&hir.Primitive{Name: hir.PrimU32})
	fn := &hir.Function{Name: "identity", ReturnType: &hir.Primitive{Name: hir.PrimU32}, Body: body}
	crate := hir.NewCrate(nil)
	mod := hir.NewModule([]string{"pkg"})
	mod.AddValue("identity", &hir.ValueItem{Function: fn})
	crate.Root = mod

	f, err := os.Create(cratePath)
	require.NoError(t, err)
	require.NoError(t, hirio.Encode(f, crate))
	require.NoError(t, f.Close())

	plugin, err := New(map[string]any{"crate-path": cratePath, "out-path": outPath})
	require.NoError(t, err)
	require.Equal(t, register.LoadModeSyntax, plugin.GetLoadMode())

	analyzers, err := plugin.BuildAnalyzers()
	require.NoError(t, err)
	require.Len(t, analyzers, 1)

	_, err = analyzers[0].Run(nil)
	require.NoError(t, err)

	require.FileExists(t, outPath)
}

func TestPluginMissingCratePathErrors(t *testing.T) {
	t.Parallel()

	plugin, err := New(map[string]any{})
	require.NoError(t, err)

	_, err = plugin.BuildAnalyzers()
	require.ErrorContains(t, err, "crate-path")
}

func TestPluginIncorrectSettingsType(t *testing.T) {
	t.Parallel()

	plugin, err := New(map[string]any{"invalid": []string{"a"}})
	require.Error(t, err)
	require.Nil(t, plugin)
}
