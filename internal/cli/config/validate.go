package config

import (
	"fmt"
	"os"
	"slices"
)

var (
	rangeModes    = []string{"strict", "legacy"}
	outputFormats = []string{"auto", "text", "json"}
	logFormats    = []string{"text", "json"}
)

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.LibrariesDir == "" {
		return fmt.Errorf("libraries_dir is required")
	}
	if !slices.Contains(rangeModes, c.RangeMode) {
		return fmt.Errorf("invalid range_mode %q (want strict or legacy)", c.RangeMode)
	}
	if !slices.Contains(outputFormats, c.OutputFormat) {
		return fmt.Errorf("invalid output %q (want auto, text or json)", c.OutputFormat)
	}
	if !slices.Contains(logFormats, c.LogFormat) {
		return fmt.Errorf("invalid log_format %q (want text or json)", c.LogFormat)
	}
	if c.Journal && c.StatePath == "" {
		return fmt.Errorf("state_path is required when the journal is enabled")
	}
	return nil
}

// ValidateDirectories checks if required directories exist.
func (c *Config) ValidateDirectories() error {
	info, err := os.Stat(c.LibrariesDir)
	if os.IsNotExist(err) {
		return fmt.Errorf("libraries directory does not exist: %s\nHint: Create the directory or use --libraries-dir to specify a different path", c.LibrariesDir)
	}
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("libraries path is not a directory: %s", c.LibrariesDir)
	}
	return nil
}
