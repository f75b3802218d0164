// Package library reads installed library schemas from disk.
//
// Every installed library version lives in its own directory named
// "<machineName>-<major>.<minor>" below the libraries directory:
//
//	libraries/
//	  H5P.Text-1.1/
//	    library.json     (or library.yaml)
//	    semantics.json   (or semantics.yaml)
//	    upgrades.star    (optional upgrade hooks)
package library

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/leapstack-labs/h5pup/pkg/core"
	"gopkg.in/yaml.v3"
)

// UpgradeScriptName is the file holding a library's upgrade hooks.
const UpgradeScriptName = "upgrades.star"

// ErrNotInstalled is returned when a requested library version has no
// directory below the libraries directory.
var ErrNotInstalled = errors.New("library not installed")

// Installed is one library version found on disk.
type Installed struct {
	Name    string
	Version core.Version
	// Dir is the library version's directory
	Dir string
	// Script is the path of upgrades.star, empty when there is none
	Script string
}

// String returns "name major.minor".
func (i Installed) String() string {
	return core.FormatLibrary(i.Name, i.Version)
}

// FSLoader loads library schemas from a libraries directory.
type FSLoader struct {
	dir    string
	logger *slog.Logger
}

// Option configures an FSLoader.
type Option func(*FSLoader)

// WithLogger sets the loader's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *FSLoader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// NewFSLoader creates a loader reading from dir.
func NewFSLoader(dir string, opts ...Option) *FSLoader {
	l := &FSLoader{
		dir:    dir,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Dir returns the libraries directory.
func (l *FSLoader) Dir() string {
	return l.dir
}

// DirName returns the directory name of a library version.
func DirName(name string, v core.Version) string {
	return fmt.Sprintf("%s-%d.%d", name, v.Major, v.Minor)
}

// LoadLibrary implements core.LibraryLoader.
func (l *FSLoader) LoadLibrary(ctx context.Context, name string, v core.Version) (*core.Library, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dir := filepath.Join(l.dir, DirName(name, v))
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", core.FormatLibrary(name, v), ErrNotInstalled)
		}
		return nil, fmt.Errorf("failed to access library %s: %w", core.FormatLibrary(name, v), err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("library path is not a directory: %s", dir)
	}

	l.logger.Debug("loading library", "library", core.FormatLibrary(name, v), "dir", dir)

	m, manifestPath, err := readManifest(dir)
	if err != nil {
		return nil, err
	}
	if m.MachineName != name || m.MajorVersion != v.Major || m.MinorVersion != v.Minor {
		described := core.FormatLibrary(m.MachineName, core.Version{Major: m.MajorVersion, Minor: m.MinorVersion})
		return nil, &DescriptorError{
			File:    manifestPath,
			Message: fmt.Sprintf("describes %s, expected %s", described, core.FormatLibrary(name, v)),
		}
	}

	semantics, err := readSemantics(dir)
	if err != nil {
		return nil, err
	}

	hasScript := m.UpgradesScript
	if _, err := os.Stat(filepath.Join(dir, UpgradeScriptName)); err == nil {
		hasScript = true
	}

	return &core.Library{
		Name:             name,
		Version:          v,
		Semantics:        semantics,
		HasUpgradeScript: hasScript,
	}, nil
}

// List returns every library version installed below the libraries
// directory, sorted by name then version. Entries whose name does not look
// like "<name>-<major>.<minor>" are skipped. A missing directory lists
// nothing.
func (l *FSLoader) List() ([]Installed, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read libraries directory: %w", err)
	}

	var installed []Installed
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		name, v, ok := parseDirName(entry.Name())
		if !ok {
			l.logger.Debug("skipping directory", "name", entry.Name())
			continue
		}

		lib := Installed{
			Name:    name,
			Version: v,
			Dir:     filepath.Join(l.dir, entry.Name()),
		}
		script := filepath.Join(lib.Dir, UpgradeScriptName)
		if _, err := os.Stat(script); err == nil {
			lib.Script = script
		}
		installed = append(installed, lib)
	}

	sort.Slice(installed, func(i, j int) bool {
		if installed[i].Name != installed[j].Name {
			return installed[i].Name < installed[j].Name
		}
		return installed[i].Version.Less(installed[j].Version)
	})
	return installed, nil
}

// Latest returns the highest installed version of every library, sorted by
// name.
func Latest(installed []Installed) []Installed {
	byName := make(map[string]Installed)
	for _, lib := range installed {
		if cur, ok := byName[lib.Name]; !ok || cur.Version.Less(lib.Version) {
			byName[lib.Name] = lib
		}
	}

	out := make([]Installed, 0, len(byName))
	for _, lib := range byName {
		out = append(out, lib)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// LatestWithScript returns, for every library, the highest installed
// version that ships an upgrade script, sorted by name. Libraries without
// any script are left out.
func LatestWithScript(installed []Installed) []Installed {
	withScript := make([]Installed, 0, len(installed))
	for _, lib := range installed {
		if lib.Script != "" {
			withScript = append(withScript, lib)
		}
	}
	return Latest(withScript)
}

// parseDirName splits "H5P.Text-1.1" into its name and version.
func parseDirName(s string) (string, core.Version, bool) {
	i := strings.LastIndex(s, "-")
	if i <= 0 {
		return "", core.Version{}, false
	}
	v, err := core.ParseVersion(s[i+1:])
	if err != nil {
		return "", core.Version{}, false
	}
	return s[:i], v, true
}

// manifest is the subset of library.json the loader needs.
type manifest struct {
	MachineName    string `mapstructure:"machineName"`
	MajorVersion   int    `mapstructure:"majorVersion"`
	MinorVersion   int    `mapstructure:"minorVersion"`
	UpgradesScript bool   `mapstructure:"upgradesScript"`
}

func readManifest(dir string) (*manifest, string, error) {
	path, raw, err := readDescriptor(dir, "library")
	if err != nil {
		return nil, path, err
	}

	var m manifest
	if err := decode(raw, &m); err != nil {
		return nil, path, &DescriptorError{File: path, Message: err.Error()}
	}
	if m.MachineName == "" {
		return nil, path, &DescriptorError{File: path, Message: "machineName is required"}
	}
	return &m, path, nil
}

// fieldSpec mirrors one semantics entry. Options stays untyped because
// non-library fields (select, ...) use it for value/label records.
type fieldSpec struct {
	Name    string      `mapstructure:"name"`
	Type    string      `mapstructure:"type"`
	Options []any       `mapstructure:"options"`
	Fields  []fieldSpec `mapstructure:"fields"`
	Field   *fieldSpec  `mapstructure:"field"`
}

func readSemantics(dir string) ([]core.Field, error) {
	path, raw, err := readDescriptor(dir, "semantics")
	if err != nil {
		return nil, err
	}

	var specs []fieldSpec
	if err := decode(raw, &specs); err != nil {
		return nil, &DescriptorError{File: path, Message: err.Error()}
	}

	fields := make([]core.Field, len(specs))
	for i, spec := range specs {
		fields[i] = spec.toField()
	}
	return fields, nil
}

func (s fieldSpec) toField() core.Field {
	f := core.Field{
		Name: s.Name,
		Kind: core.ParseFieldKind(s.Type),
		Type: s.Type,
	}

	switch f.Kind {
	case core.FieldKindLibrary:
		for _, opt := range s.Options {
			if str, ok := opt.(string); ok {
				f.Options = append(f.Options, str)
			}
		}
	case core.FieldKindGroup:
		f.Fields = make([]core.Field, len(s.Fields))
		for i, sub := range s.Fields {
			f.Fields[i] = sub.toField()
		}
	case core.FieldKindList:
		if s.Field != nil {
			item := s.Field.toField()
			f.Item = &item
		}
	}
	return f
}

// readDescriptor reads <base>.json, falling back to <base>.yaml and
// <base>.yml, into a generic value.
func readDescriptor(dir, base string) (string, any, error) {
	candidates := []string{base + ".json", base + ".yaml", base + ".yml"}
	for _, name := range candidates {
		path := filepath.Join(dir, name)
		content, err := os.ReadFile(path) //nolint:gosec // G304: path is built from the libraries directory
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return path, nil, fmt.Errorf("failed to read %s: %w", path, err)
		}

		var raw any
		if strings.HasSuffix(name, ".json") {
			err = json.Unmarshal(content, &raw)
		} else {
			err = yaml.Unmarshal(content, &raw)
		}
		if err != nil {
			return path, nil, &DescriptorError{File: path, Message: fmt.Sprintf("invalid syntax: %v", err)}
		}
		return path, raw, nil
	}

	return "", nil, &DescriptorError{
		File:    filepath.Join(dir, base+".json"),
		Message: "file not found",
	}
}

func decode(raw, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	return dec.Decode(raw)
}

// DescriptorError reports a missing or malformed library descriptor.
type DescriptorError struct {
	File    string
	Message string
}

func (e *DescriptorError) Error() string {
	return fmt.Sprintf("%s: %s", e.File, e.Message)
}
