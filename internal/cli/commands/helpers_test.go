package commands

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/leapstack-labs/h5pup/internal/cli/config"
	"github.com/leapstack-labs/h5pup/internal/testutil"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

const textUpgrades = `
def _to_1_1(params):
    params["text"] = params.pop("body", "")
    return params

def _to_1_2(params):
    if params.get("text") == "boom":
        fail("cannot convert text")
    params["format"] = "html"
    return params

upgrades = {1: {1: _to_1_1, 2: _to_1_2}}
`

// project is a temporary h5pup project with a populated libraries directory.
type project struct {
	root      string
	libraries string
	state     string
}

func writeProjectFile(t *testing.T, dir, path, content string) string {
	t.Helper()
	full := filepath.Join(dir, path)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o750))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o600))
	return full
}

func writeLibrary(t *testing.T, dir, name, version, manifest, semantics string) {
	t.Helper()
	writeProjectFile(t, dir, name+"-"+version+"/library.json", manifest)
	writeProjectFile(t, dir, name+"-"+version+"/semantics.json", semantics)
}

// newProject installs H5P.Text 1.0 to 1.2 (with an upgrade script on 1.2)
// and H5P.Column 1.0 and 1.1, whose list field embeds H5P.Text, and loads
// a config pointing at them. extraConfig is appended to h5pup.yaml.
func newProject(t *testing.T, extraConfig string) *project {
	t.Helper()
	config.ResetConfig()
	t.Cleanup(config.ResetConfig)

	root := t.TempDir()
	p := &project{
		root:      root,
		libraries: filepath.Join(root, "libraries"),
		state:     filepath.Join(root, ".h5pup", "state.db"),
	}

	textSemantics := `[{"name": "text", "type": "text"}]`
	writeLibrary(t, p.libraries, "H5P.Text", "1.0",
		`{"machineName": "H5P.Text", "majorVersion": 1, "minorVersion": 0}`, `[{"name": "body", "type": "text"}]`)
	writeLibrary(t, p.libraries, "H5P.Text", "1.1",
		`{"machineName": "H5P.Text", "majorVersion": 1, "minorVersion": 1}`, textSemantics)
	writeLibrary(t, p.libraries, "H5P.Text", "1.2",
		`{"machineName": "H5P.Text", "majorVersion": 1, "minorVersion": 2}`, textSemantics)
	writeProjectFile(t, p.libraries, "H5P.Text-1.2/upgrades.star", textUpgrades)

	columnSemantics := `[{"name": "content", "type": "list", "field": {"name": "item", "type": "library", "options": ["H5P.Text 1.2"]}}]`
	writeLibrary(t, p.libraries, "H5P.Column", "1.0",
		`{"machineName": "H5P.Column", "majorVersion": 1, "minorVersion": 0}`, columnSemantics)
	writeLibrary(t, p.libraries, "H5P.Column", "1.1",
		`{"machineName": "H5P.Column", "majorVersion": 1, "minorVersion": 1}`, columnSemantics)

	cfgPath := writeProjectFile(t, root, "h5pup.yaml", "libraries_dir: libraries\n"+extraConfig)
	_, err := config.LoadConfig(cfgPath, nil)
	require.NoError(t, err)
	return p
}

// execute runs cmd with args and returns stdout and stderr.
func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	// Mirror the root command, which silences cobra's usage and error output.
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	cmd.SetContext(context.WithValue(context.Background(), config.LoggerKey(), testutil.NewTestLogger(t)))

	err := cmd.Execute()
	return out.String(), errOut.String(), err
}
