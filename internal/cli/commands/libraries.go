package commands

import (
	"strings"

	"github.com/leapstack-labs/h5pup/internal/library"
	"github.com/spf13/cobra"
)

// LibraryEntry describes one installed library version.
type LibraryEntry struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Latest  bool   `json:"latest"`
	Script  string `json:"script,omitempty"`
	// Hooks lists the hook versions registered for the library; only set
	// on the latest version, whose script provides them.
	Hooks []string `json:"hooks,omitempty"`
}

// NewLibrariesCommand creates the libraries command.
func NewLibrariesCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "libraries",
		Aliases: []string{"libs", "ls"},
		Short:   "List installed libraries and their upgrade hooks",
		Long: `List every library version installed in the libraries directory.

For the highest version of each library the hook versions declared by its
upgrades.star script are shown.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runLibraries(cmd)
		},
	}
}

func runLibraries(cmd *cobra.Command) error {
	cc := NewCommandContext(cmd)

	reg, err := cc.LoadHooks()
	if err != nil {
		return err
	}

	installed, err := library.NewFSLoader(cc.Cfg.LibrariesDir, library.WithLogger(cc.Logger)).List()
	if err != nil {
		return err
	}

	latest := make(map[string]string)
	for _, lib := range library.Latest(installed) {
		latest[lib.Name] = lib.Version.String()
	}

	entries := make([]LibraryEntry, 0, len(installed))
	for _, lib := range installed {
		e := LibraryEntry{
			Name:    lib.Name,
			Version: lib.Version.String(),
			Script:  lib.Script,
		}
		if latest[lib.Name] == e.Version {
			e.Latest = true
			for _, v := range reg.Versions(lib.Name) {
				e.Hooks = append(e.Hooks, v.String())
			}
		}
		entries = append(entries, e)
	}

	r := cc.Renderer
	if r.IsJSON() {
		return r.JSON(entries)
	}

	rows := make([][]any, 0, len(entries))
	for _, e := range entries {
		script := "-"
		if e.Script != "" {
			script = library.UpgradeScriptName
		}
		hooks := "-"
		if len(e.Hooks) > 0 {
			hooks = strings.Join(e.Hooks, ", ")
		}
		rows = append(rows, []any{e.Name, e.Version, script, hooks})
	}
	r.Table([]string{"Library", "Version", "Script", "Hooks"}, rows, "(no libraries installed)")
	return nil
}
