// Package config provides configuration management for the h5pup CLI.
package config

// Config holds all CLI configuration options.
type Config struct {
	LibrariesDir string `koanf:"libraries_dir"`
	StatePath    string `koanf:"state_path"`
	RangeMode    string `koanf:"range_mode"`
	Verbose      bool   `koanf:"verbose"`
	OutputFormat string `koanf:"output"`
	LogFormat    string `koanf:"log_format"`
	Journal      bool   `koanf:"journal"`

	// ProjectRoot is the directory relative paths are resolved against.
	ProjectRoot string `koanf:"-"`
}

// Default configuration values.
const (
	DefaultLibrariesDir = "libraries"
	DefaultStateFile    = ".h5pup/state.db"
	DefaultRangeMode    = "strict"
	DefaultOutput       = "auto" // Auto-detect: TTY=text, non-TTY=json
	DefaultLogFormat    = "text"
)

// Config file names, in lookup order.
var configFileNames = []string{"h5pup.yaml", "h5pup.yml"}

// Default returns the configuration used when nothing is loaded.
func Default() *Config {
	return &Config{
		LibrariesDir: DefaultLibrariesDir,
		StatePath:    DefaultStateFile,
		RangeMode:    DefaultRangeMode,
		OutputFormat: DefaultOutput,
		LogFormat:    DefaultLogFormat,
		Journal:      true,
	}
}
