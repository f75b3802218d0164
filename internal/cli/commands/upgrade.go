package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/leapstack-labs/h5pup/internal/upgrade"
	"github.com/leapstack-labs/h5pup/pkg/core"
	"github.com/spf13/cobra"
)

// UpgradeOptions holds options for the upgrade command.
type UpgradeOptions struct {
	ContentID string
	Write     bool
	Out       string
}

// UpgradeResult is the outcome of upgrading one content file.
type UpgradeResult struct {
	File      string          `json:"file"`
	ContentID string          `json:"content_id"`
	RunID     string          `json:"run_id,omitempty"`
	Status    core.RunStatus  `json:"status"`
	ErrorKind string          `json:"error_kind,omitempty"`
	Error     string          `json:"error,omitempty"`
	Output    string          `json:"output,omitempty"`
	Params    json.RawMessage `json:"params,omitempty"`
}

// upgradeRequest holds the parsed positional arguments.
type upgradeRequest struct {
	library string
	from    core.Version
	to      core.Version
	files   []string
}

// NewUpgradeCommand creates the upgrade command.
func NewUpgradeCommand() *cobra.Command {
	opts := &UpgradeOptions{}

	cmd := &cobra.Command{
		Use:   "upgrade <library> <from> <to> <file>...",
		Short: "Upgrade content parameters to a newer library version",
		Long: `Upgrade the JSON parameters of one or more contents from one version of
their main library to another.

The target library version must be installed in the libraries directory.
Upgrade hooks come from the upgrades.star script of each library's highest
installed version. Sub-content embedded in the parameters is upgraded
against its own library versions.

Every run is recorded in the state database unless journaling is disabled.`,
		Example: `  # Print the upgraded parameters
  h5pup upgrade H5P.MultiChoice 1.10 1.16 content.json

  # Upgrade several files in place
  h5pup upgrade H5P.CoursePresentation 1.20 1.25 --write content/*.json

  # Write the result to another file with an explicit content id
  h5pup upgrade H5P.Text 1.0 1.1 old.json --out new.json --content-id 42`,
		Args: cobra.MinimumNArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpgrade(cmd, args, opts)
		},
	}

	cmd.Flags().StringVar(&opts.ContentID, "content-id", "", "Content id used in errors and the journal (default: file name)")
	cmd.Flags().BoolVarP(&opts.Write, "write", "w", false, "Overwrite each file with its upgraded parameters")
	cmd.Flags().StringVar(&opts.Out, "out", "", "Write the upgraded parameters to this file")
	cmd.MarkFlagsMutuallyExclusive("write", "out")

	return cmd
}

func parseUpgradeArgs(args []string, opts *UpgradeOptions) (*upgradeRequest, error) {
	from, err := core.ParseVersion(args[1])
	if err != nil {
		return nil, fmt.Errorf("from version: %w", err)
	}
	to, err := core.ParseVersion(args[2])
	if err != nil {
		return nil, fmt.Errorf("to version: %w", err)
	}

	files := args[3:]
	if len(files) > 1 && opts.Out != "" {
		return nil, errors.New("--out requires exactly one file")
	}
	if len(files) > 1 && opts.ContentID != "" {
		return nil, errors.New("--content-id requires exactly one file")
	}

	return &upgradeRequest{library: args[0], from: from, to: to, files: files}, nil
}

func runUpgrade(cmd *cobra.Command, args []string, opts *UpgradeOptions) error {
	req, err := parseUpgradeArgs(args, opts)
	if err != nil {
		return err
	}

	cc := NewCommandContext(cmd)

	reg, err := cc.LoadHooks()
	if err != nil {
		return err
	}
	u, err := cc.NewUpgrader(reg)
	if err != nil {
		return err
	}

	var store core.Store
	if cc.Cfg.Journal {
		s, cleanup, err := cc.OpenStore()
		if err != nil {
			return err
		}
		defer cleanup()
		store = s
	}

	results := make([]UpgradeResult, 0, len(req.files))
	failed := 0
	for _, file := range req.files {
		res := upgradeFile(cmd, cc, u, store, req, file, opts)
		if res.Status == core.RunStatusFailed {
			failed++
		}
		results = append(results, res)
	}

	r := cc.Renderer
	if r.IsJSON() {
		if err := r.JSON(results); err != nil {
			return err
		}
	} else {
		for _, res := range results {
			switch {
			case res.Status == core.RunStatusFailed:
				r.Notice("✗ %s: %s", res.File, res.Error)
			case res.Output != "":
				r.Notice("✓ %s → %s", res.File, res.Output)
			default:
				r.Println(string(res.Params))
			}
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d upgrade(s) failed", failed, len(results))
	}
	return nil
}

// upgradeFile upgrades one content file and journals the run.
func upgradeFile(cmd *cobra.Command, cc *CommandContext, u *upgrade.Upgrader, store core.Store, req *upgradeRequest, file string, opts *UpgradeOptions) UpgradeResult {
	res := UpgradeResult{File: file, ContentID: contentIDFor(file, opts.ContentID)}
	run := &core.UpgradeRun{
		ContentID:   res.ContentID,
		Library:     req.library,
		FromVersion: req.from,
		ToVersion:   req.to,
		StartedAt:   time.Now(),
	}

	out, err := func() (string, error) {
		data, err := os.ReadFile(file) //nolint:gosec // G304: file is a user-supplied CLI argument
		if err != nil {
			return "", err
		}
		upgraded, err := u.UpgradeContent(cmd.Context(), req.library, req.from, req.to, strings.TrimSpace(string(data)), res.ContentID)
		if err != nil {
			return "", err
		}
		return upgraded, writeResult(file, upgraded, opts)
	}()
	run.CompletedAt = time.Now()

	if err != nil {
		run.Status = core.RunStatusFailed
		run.ErrorKind = core.ErrorKind(err)
		run.Error = err.Error()
		cc.Logger.Debug("upgrade failed", "file", file, "kind", run.ErrorKind, "error", err)
	} else {
		run.Status = core.RunStatusCompleted
		res.Params = json.RawMessage(out)
		switch {
		case opts.Write:
			res.Output = file
		case opts.Out != "":
			res.Output = opts.Out
		}
		cc.Logger.Debug("upgraded content", "file", file, "duration", run.Duration())
	}
	res.Status = run.Status
	res.ErrorKind = run.ErrorKind
	res.Error = run.Error

	if store != nil {
		if err := store.RecordRun(run); err != nil {
			cc.Logger.Warn("failed to record upgrade run", "file", file, "error", err)
		} else {
			res.RunID = run.ID
		}
	}
	return res
}

func writeResult(file, upgraded string, opts *UpgradeOptions) error {
	target := opts.Out
	if opts.Write {
		target = file
	}
	if target == "" {
		return nil
	}
	if err := os.WriteFile(target, []byte(upgraded+"\n"), 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", target, err)
	}
	return nil
}

// contentIDFor returns explicit, or the file name without its extension.
func contentIDFor(file, explicit string) string {
	if explicit != "" {
		return explicit
	}
	base := filepath.Base(file)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
