package commands

import (
	"time"

	"github.com/leapstack-labs/h5pup/pkg/core"
	"github.com/spf13/cobra"
)

// HistoryOptions holds options for the history command.
type HistoryOptions struct {
	Limit     int
	ContentID string
}

// HistoryEntry is one journaled run as rendered by the history command.
type HistoryEntry struct {
	ID          string         `json:"id"`
	ContentID   string         `json:"content_id"`
	Library     string         `json:"library"`
	From        string         `json:"from"`
	To          string         `json:"to"`
	Status      core.RunStatus `json:"status"`
	ErrorKind   string         `json:"error_kind,omitempty"`
	Error       string         `json:"error,omitempty"`
	StartedAt   time.Time      `json:"started_at"`
	CompletedAt time.Time      `json:"completed_at"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand() *cobra.Command {
	opts := &HistoryOptions{}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded upgrade runs",
		Long:  `Show the most recent upgrade runs recorded in the state database, newest first.`,
		Example: `  # Last 20 runs
  h5pup history

  # Every run of one content
  h5pup history --content-id 42 --limit 0`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runHistory(cmd, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 20, "Maximum number of runs to show (0 for all)")
	cmd.Flags().StringVar(&opts.ContentID, "content-id", "", "Only show runs of this content")

	return cmd
}

func runHistory(cmd *cobra.Command, opts *HistoryOptions) error {
	cc := NewCommandContext(cmd)

	store, cleanup, err := cc.OpenStore()
	if err != nil {
		return err
	}
	defer cleanup()

	var runs []*core.UpgradeRun
	if opts.ContentID != "" {
		runs, err = store.ListRunsForContent(opts.ContentID, opts.Limit)
	} else {
		runs, err = store.ListRuns(opts.Limit)
	}
	if err != nil {
		return err
	}

	entries := make([]HistoryEntry, 0, len(runs))
	for _, run := range runs {
		entries = append(entries, HistoryEntry{
			ID:          run.ID,
			ContentID:   run.ContentID,
			Library:     run.Library,
			From:        run.FromVersion.String(),
			To:          run.ToVersion.String(),
			Status:      run.Status,
			ErrorKind:   run.ErrorKind,
			Error:       run.Error,
			StartedAt:   run.StartedAt,
			CompletedAt: run.CompletedAt,
		})
	}

	r := cc.Renderer
	if r.IsJSON() {
		return r.JSON(entries)
	}

	rows := make([][]any, 0, len(runs))
	for _, run := range runs {
		status := string(run.Status)
		if run.ErrorKind != "" {
			status += " (" + run.ErrorKind + ")"
		}
		rows = append(rows, []any{
			run.StartedAt.Local().Format(time.DateTime),
			run.ContentID,
			run.Library,
			run.FromVersion.String() + " → " + run.ToVersion.String(),
			status,
			run.Duration().Round(time.Millisecond),
		})
	}
	r.Table([]string{"Started", "Content", "Library", "Versions", "Status", "Duration"}, rows, "(no upgrade runs recorded)")
	return nil
}
