package core_test

import (
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// TestCoreImportsOnlyStdlib verifies pkg/core only imports the standard library.
func TestCoreImportsOnlyStdlib(t *testing.T) {
	for _, f := range parseCoreFiles(t) {
		for _, imp := range f.imports {
			// Stdlib paths have no dot in their first element
			if strings.Contains(strings.SplitN(imp, "/", 2)[0], ".") {
				t.Errorf("%s imports non-stdlib package: %s", f.name, imp)
			}
		}
	}
}

// TestCoreDoesNotImportInternal verifies pkg/core doesn't import any internal packages.
func TestCoreDoesNotImportInternal(t *testing.T) {
	for _, f := range parseCoreFiles(t) {
		for _, imp := range f.imports {
			if strings.Contains(imp, "/internal/") {
				t.Errorf("%s imports internal package: %s (core must not import internal packages)", f.name, imp)
			}
		}
	}
}

type coreFile struct {
	name    string
	imports []string
}

func parseCoreFiles(t *testing.T) []coreFile {
	t.Helper()
	fset := token.NewFileSet()

	entries, err := os.ReadDir(".")
	if err != nil {
		t.Fatalf("Failed to read core directory: %v", err)
	}

	var files []coreFile
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".go") {
			continue
		}
		if strings.HasSuffix(entry.Name(), "_test.go") {
			continue
		}

		path := filepath.Join(".", entry.Name())
		f, err := parser.ParseFile(fset, path, nil, parser.ImportsOnly)
		if err != nil {
			t.Errorf("Failed to parse %s: %v", path, err)
			continue
		}

		cf := coreFile{name: entry.Name()}
		for _, imp := range f.Imports {
			cf.imports = append(cf.imports, strings.Trim(imp.Path.Value, `"`))
		}
		files = append(files, cf)
	}
	return files
}
