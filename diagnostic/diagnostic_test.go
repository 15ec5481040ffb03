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

package diagnostic_test

import (
	"go/token"
	"testing"

	"github.com/rlang/hirxc/diagnostic"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) { goleak.VerifyTestMain(m) }

func TestBugPanicsWithPositionWhenFileSetGiven(t *testing.T) {
	t.Parallel()

	fset := token.NewFileSet()
	file := fset.AddFile("lib.rs", -1, 10)
	pos := file.Pos(3)

	defer func() {
		r := recover()
		require.NotNil(t, r)
		require.Contains(t, r.(string), "lib.rs")
		require.Contains(t, r.(string), "invariant broken: 2")
	}()
	diagnostic.Bug(fset, pos, "invariant broken: %d", 2)
}

func TestBugPanicsWithBareMessageWhenFileSetNil(t *testing.T) {
	t.Parallel()

	defer func() {
		r := recover()
		require.Equal(t, "no fileset", r)
	}()
	diagnostic.Bug(nil, token.NoPos, "no fileset")
}

func TestRecursionDetectedErrorIncludesQuery(t *testing.T) {
	t.Parallel()

	err := &diagnostic.RecursionDetected{Query: "Clone/u32"}
	require.Contains(t, err.Error(), "Clone/u32")
}

func TestUserErrorDiagnosticFoldsNotesIntoMessage(t *testing.T) {
	t.Parallel()

	fset := token.NewFileSet()
	file := fset.AddFile("lib.rs", -1, 20)

	err := &diagnostic.UserError{
		Pos:     file.Pos(1),
		End:     file.Pos(5),
		Code:    "E0502",
		Message: "cannot borrow as mutable",
		Notes: []diagnostic.Note{
			{Pos: file.Pos(9), Message: "first borrow occurs here"},
		},
	}

	d := err.Diagnostic(fset)
	require.Equal(t, "E0502", d.Category)
	require.Equal(t, file.Pos(1), d.Pos)
	require.Equal(t, file.Pos(5), d.End)
	require.Contains(t, d.Message, "cannot borrow as mutable")
	require.Contains(t, d.Message, "note: first borrow occurs here")
	require.Contains(t, d.Message, "lib.rs")
}

func TestUserErrorDiagnosticWithoutFileSetOmitsPositionSuffix(t *testing.T) {
	t.Parallel()

	err := &diagnostic.UserError{
		Message: "plain message",
		Notes:   []diagnostic.Note{{Message: "a note"}},
	}

	d := err.Diagnostic(nil)
	require.Equal(t, "plain message\n\tnote: a note", d.Message)
}

func TestEngineCollectsDiagnosticsInReportOrder(t *testing.T) {
	t.Parallel()

	fset := token.NewFileSet()
	e := diagnostic.NewEngine(fset)
	require.True(t, e.Empty())

	e.Report(&diagnostic.UserError{Code: "E0001", Message: "first"})
	e.Report(&diagnostic.UserError{Code: "E0002", Message: "second"})

	require.False(t, e.Empty())
	diags := e.Diagnostics()
	require.Len(t, diags, 2)
	require.Equal(t, "E0001", diags[0].Category)
	require.Equal(t, "E0002", diags[1].Category)
}
