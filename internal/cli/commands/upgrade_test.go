package commands

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/leapstack-labs/h5pup/internal/state"
	"github.com/leapstack-labs/h5pup/internal/testutil"
	"github.com/leapstack-labs/h5pup/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeResults(t *testing.T, out string) []UpgradeResult {
	t.Helper()
	var results []UpgradeResult
	require.NoError(t, json.Unmarshal([]byte(out), &results), out)
	return results
}

func TestUpgradeCommand_JSON(t *testing.T) {
	p := newProject(t, "journal: false\n")
	file := writeProjectFile(t, p.root, "content/42.json", `{"body": "hello"}`+"\n")

	out, _, err := execute(t, NewUpgradeCommand(), "H5P.Text", "1.0", "1.2", file)
	require.NoError(t, err)

	results := decodeResults(t, out)
	require.Len(t, results, 1)
	assert.Equal(t, "42", results[0].ContentID)
	assert.Equal(t, core.RunStatusCompleted, results[0].Status)
	assert.Empty(t, results[0].RunID, "journal disabled")
	assert.JSONEq(t, `{"text":"hello","format":"html"}`, string(results[0].Params))

	// Without --write the file is untouched
	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.JSONEq(t, `{"body": "hello"}`, string(data))
}

func TestUpgradeCommand_TextPrintsParams(t *testing.T) {
	p := newProject(t, "journal: false\noutput: text\n")
	file := writeProjectFile(t, p.root, "c.json", `{"body":"hi","keep":[1,2.50]}`)

	out, _, err := execute(t, NewUpgradeCommand(), "H5P.Text", "1.0", "1.1", file)
	require.NoError(t, err)
	// Script hooks see floats, so 2.50 comes back in shortest form
	assert.Equal(t, `{"keep":[1,2.5],"text":"hi"}`+"\n", out)
}

func TestUpgradeCommand_SubContent(t *testing.T) {
	p := newProject(t, "journal: false\noutput: text\n")
	file := writeProjectFile(t, p.root, "column.json",
		`{"content":[{"library":"H5P.Text 1.0","params":{"body":"a"}},{"library":"H5P.Text 1.2","params":{"text":"b"}}]}`)

	out, _, err := execute(t, NewUpgradeCommand(), "H5P.Column", "1.0", "1.1", file)
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"content":[{"library":"H5P.Text 1.2","params":{"text":"a","format":"html"}},{"library":"H5P.Text 1.2","params":{"text":"b"}}]}`,
		out)
}

func TestUpgradeCommand_WriteAndOut(t *testing.T) {
	p := newProject(t, "journal: false\noutput: text\n")

	t.Run("write in place", func(t *testing.T) {
		a := writeProjectFile(t, p.root, "a.json", `{"body":"a"}`)
		b := writeProjectFile(t, p.root, "b.json", `{"body":"b"}`)

		out, errOut, err := execute(t, NewUpgradeCommand(), "--write", "H5P.Text", "1.0", "1.1", a, b)
		require.NoError(t, err)
		assert.Empty(t, out)
		assert.Contains(t, errOut, "a.json")

		data, err := os.ReadFile(b)
		require.NoError(t, err)
		assert.Equal(t, `{"text":"b"}`+"\n", string(data))
	})

	t.Run("out file", func(t *testing.T) {
		in := writeProjectFile(t, p.root, "in.json", `{"body":"x"}`)
		dest := filepath.Join(p.root, "out.json")

		_, _, err := execute(t, NewUpgradeCommand(), "H5P.Text", "1.0", "1.1", in, "--out", dest)
		require.NoError(t, err)

		data, err := os.ReadFile(dest)
		require.NoError(t, err)
		assert.Equal(t, `{"text":"x"}`+"\n", string(data))
	})
}

func TestUpgradeCommand_ArgumentErrors(t *testing.T) {
	p := newProject(t, "journal: false\n")
	file := writeProjectFile(t, p.root, "c.json", `{}`)

	tests := []struct {
		name      string
		args      []string
		errSubstr string
	}{
		{name: "too few args", args: []string{"H5P.Text", "1.0", "1.1"}, errSubstr: "requires at least 4 arg(s)"},
		{name: "bad from version", args: []string{"H5P.Text", "one", "1.1", file}, errSubstr: "from version"},
		{name: "bad to version", args: []string{"H5P.Text", "1.0", "1.x", file}, errSubstr: "to version"},
		{name: "out with many files", args: []string{"H5P.Text", "1.0", "1.1", file, file, "--out", "x.json"}, errSubstr: "--out requires exactly one file"},
		{name: "content id with many files", args: []string{"H5P.Text", "1.0", "1.1", file, file, "--content-id", "7"}, errSubstr: "--content-id requires exactly one file"},
		{name: "write and out", args: []string{"H5P.Text", "1.0", "1.1", file, "--write", "--out", "x.json"}, errSubstr: "none of the others can be"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(t, NewUpgradeCommand(), tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errSubstr)
		})
	}
}

func TestUpgradeCommand_FailuresAreJournaled(t *testing.T) {
	p := newProject(t, "")
	good := writeProjectFile(t, p.root, "good.json", `{"body":"fine"}`)
	broken := writeProjectFile(t, p.root, "broken.json", `{"body":`)
	hookFails := writeProjectFile(t, p.root, "boom.json", `{"body":"boom"}`)

	out, _, err := execute(t, NewUpgradeCommand(), "H5P.Text", "1.0", "1.2", good, broken, hookFails)
	require.Error(t, err)
	assert.Equal(t, "2 of 3 upgrade(s) failed", err.Error())

	results := decodeResults(t, out)
	require.Len(t, results, 3)
	assert.Equal(t, core.RunStatusCompleted, results[0].Status)
	assert.Equal(t, core.KindParamsBroken, results[1].ErrorKind)
	assert.Contains(t, results[1].Error, "content broken")
	assert.Equal(t, core.KindHookFailed, results[2].ErrorKind)
	assert.Contains(t, results[2].Error, "cannot convert text")
	assert.Empty(t, results[2].Params, "no partial result")

	store := state.NewSQLiteStore(testutil.NewTestLogger(t))
	require.NoError(t, store.Open(p.state))
	defer func() { _ = store.Close() }()

	runs, err := store.ListRuns(0)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	// Newest first
	assert.Equal(t, "boom", runs[0].ContentID)
	assert.Equal(t, core.RunStatusFailed, runs[0].Status)
	assert.Equal(t, results[2].RunID, runs[0].ID)
	assert.Equal(t, "good", runs[2].ContentID)
	assert.Equal(t, core.MustParseVersion("1.2"), runs[2].ToVersion)
}

func TestUpgradeCommand_MissingTargetLibrary(t *testing.T) {
	p := newProject(t, "journal: false\n")
	file := writeProjectFile(t, p.root, "c.json", `{}`)

	out, _, err := execute(t, NewUpgradeCommand(), "H5P.Text", "1.0", "1.9", file, "--content-id", "c-1")
	require.Error(t, err)

	results := decodeResults(t, out)
	require.Len(t, results, 1)
	assert.Equal(t, "c-1", results[0].ContentID)
	assert.Empty(t, results[0].ErrorKind, "loader errors carry no kind")
	assert.Contains(t, results[0].Error, "library not installed")
}

func TestUpgradeCommand_MissingLibrariesDir(t *testing.T) {
	p := newProject(t, "journal: false\n")
	require.NoError(t, os.RemoveAll(p.libraries))

	_, _, err := execute(t, NewUpgradeCommand(), "H5P.Text", "1.0", "1.1", "c.json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "libraries directory does not exist")
}

func TestContentIDFor(t *testing.T) {
	assert.Equal(t, "42", contentIDFor("content/42.json", ""))
	assert.Equal(t, "params", contentIDFor("/tmp/params", ""))
	assert.Equal(t, "x", contentIDFor("content/42.json", "x"))
}
