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

package recursionguard_test

import (
	"testing"

	"github.com/rlang/hirxc/util/recursionguard"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) { goleak.VerifyTestMain(m) }

func TestEnterDetectsReentrantKey(t *testing.T) {
	t.Parallel()

	var s recursionguard.Stack[string]

	guard, ok := s.Enter("a/T")
	require.True(t, ok)
	require.Equal(t, 1, s.Depth())

	_, ok = s.Enter("a/T")
	require.False(t, ok, "re-entering the same key must be reported as a cycle")

	guard.Exit()
	require.Equal(t, 0, s.Depth())
}

func TestEnterAllowsDistinctKeysConcurrentlyOnStack(t *testing.T) {
	t.Parallel()

	var s recursionguard.Stack[string]

	g1, ok := s.Enter("a/T")
	require.True(t, ok)
	g2, ok := s.Enter("b/U")
	require.True(t, ok)
	require.Equal(t, 2, s.Depth())

	g2.Exit()
	require.Equal(t, 1, s.Depth())
	g1.Exit()
	require.Equal(t, 0, s.Depth())
}

func TestKeyReenterableAfterExit(t *testing.T) {
	t.Parallel()

	var s recursionguard.Stack[string]

	g1, ok := s.Enter("a/T")
	require.True(t, ok)
	g1.Exit()

	_, ok = s.Enter("a/T")
	require.True(t, ok, "a key is reenterable once its guard has exited")
}

func TestZeroGuardExitIsNoOp(t *testing.T) {
	t.Parallel()

	var zero recursionguard.Guard[string]
	require.NotPanics(t, func() { zero.Exit() })
}
