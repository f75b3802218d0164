package commands

import (
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/h5pup/internal/cli/config"
	"github.com/leapstack-labs/h5pup/internal/cli/output"
	"github.com/leapstack-labs/h5pup/internal/library"
	"github.com/leapstack-labs/h5pup/internal/registry"
	"github.com/leapstack-labs/h5pup/internal/starlark"
	"github.com/leapstack-labs/h5pup/internal/state"
	"github.com/leapstack-labs/h5pup/internal/upgrade"
	"github.com/spf13/cobra"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Renderer *output.Renderer
}

// NewCommandContext creates a CommandContext from the loaded configuration.
func NewCommandContext(cmd *cobra.Command) *CommandContext {
	cfg := getConfig()
	return &CommandContext{
		Cfg:      cfg,
		Logger:   config.GetLogger(cmd.Context()),
		Renderer: output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(cfg.OutputFormat)),
	}
}

// getConfig returns the current configuration, or the defaults when none
// was loaded.
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}
	return config.Default()
}

// LoadHooks registers the upgrade scripts of the libraries directory.
func (c *CommandContext) LoadHooks() (*registry.HookRegistry, error) {
	if err := c.Cfg.ValidateDirectories(); err != nil {
		return nil, err
	}

	reg := registry.NewHookRegistry()
	if err := starlark.LoadRegistry(c.Cfg.LibrariesDir, reg, starlark.WithLogger(c.Logger)); err != nil {
		return nil, fmt.Errorf("failed to load upgrade scripts: %w", err)
	}
	c.Logger.Debug("upgrade scripts loaded", "libraries", len(reg.Libraries()), "hooks", reg.Count())
	return reg, nil
}

// NewUpgrader wires the filesystem library loader, the hooks of reg and
// the configured range mode into an upgrader.
func (c *CommandContext) NewUpgrader(reg *registry.HookRegistry) (*upgrade.Upgrader, error) {
	mode, err := upgrade.ParseRangeMode(c.Cfg.RangeMode)
	if err != nil {
		return nil, err
	}

	fs := library.NewFSLoader(c.Cfg.LibrariesDir, library.WithLogger(c.Logger))
	return upgrade.New(upgrade.Config{
		Loader:    library.NewCachedLoader(fs),
		Hooks:     reg,
		Logger:    c.Logger,
		RangeMode: mode,
	})
}

// OpenStore opens and migrates the run journal.
// The returned cleanup function must be called (typically via defer).
func (c *CommandContext) OpenStore() (*state.SQLiteStore, func(), error) {
	store := state.NewSQLiteStore(c.Logger)
	if err := store.Open(c.Cfg.StatePath); err != nil {
		return nil, nil, fmt.Errorf("failed to open state store: %w", err)
	}
	if err := store.Migrate(); err != nil {
		_ = store.Close()
		return nil, nil, fmt.Errorf("failed to migrate state store: %w", err)
	}
	return store, func() { _ = store.Close() }, nil
}
