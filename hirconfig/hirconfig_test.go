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

package hirconfig_test

import (
	"testing"

	"github.com/rlang/hirxc/hirconfig"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) { goleak.VerifyTestMain(m) }

func TestEditionGatesAreMonotonicByDeclarationOrder(t *testing.T) {
	t.Parallel()

	require.False(t, hirconfig.Edition1_19.HasMagicClone())
	require.True(t, hirconfig.Edition1_29.HasMagicClone())
	require.True(t, hirconfig.Edition1_54.HasMagicClone())

	require.False(t, hirconfig.Edition1_39.HasDiscriminantKind())
	require.True(t, hirconfig.Edition1_54.HasDiscriminantKind())

	require.False(t, hirconfig.Edition1_29.AllowsValueReceiverObjectSafeMethods())
	require.True(t, hirconfig.Edition1_39.AllowsValueReceiverObjectSafeMethods())
}

func TestDefaultConfigUsesNewestEditionAnd64BitTarget(t *testing.T) {
	t.Parallel()

	cfg := hirconfig.Default()
	require.Equal(t, hirconfig.Edition1_54, cfg.Edition)
	require.Equal(t, 64, cfg.Target.PointerBits)
	require.Equal(t, hirconfig.LittleEndian, cfg.Target.Endianness)
}

func TestDefaultTargetSpecCarriesEveryIntegerWidth(t *testing.T) {
	t.Parallel()

	spec := hirconfig.DefaultTargetSpec()
	for _, name := range []string{"i8", "i16", "i32", "i64", "i128", "isize", "u8", "u16", "u32", "u64", "u128", "usize"} {
		_, ok := spec.IntegerWidths[name]
		require.True(t, ok, "missing width entry for %s", name)
	}
	require.Equal(t, 64, spec.IntegerWidths["isize"])
}
