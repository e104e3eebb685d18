package core_test

import (
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// modulePath is the import path prefix of this module.
const modulePath = "github.com/leapstack-labs/mdtables"

// imports returns the imports of every non-test Go file in dir, keyed by file name.
func imports(t *testing.T, dir string) map[string][]string {
	t.Helper()
	fset := token.NewFileSet()

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("Failed to read %s: %v", dir, err)
	}

	result := make(map[string][]string)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".go") || strings.HasSuffix(entry.Name(), "_test.go") {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		f, err := parser.ParseFile(fset, path, nil, parser.ImportsOnly)
		if err != nil {
			t.Errorf("Failed to parse %s: %v", path, err)
			continue
		}
		for _, imp := range f.Imports {
			result[entry.Name()] = append(result[entry.Name()], strings.Trim(imp.Path.Value, `"`))
		}
	}
	return result
}

// TestCoreImportsOnly verifies pkg/core only imports the standard library.
// The Golden Rule: every other package depends on core, not the reverse.
func TestCoreImportsOnly(t *testing.T) {
	for file, paths := range imports(t, ".") {
		for _, importPath := range paths {
			// Allow stdlib (no dots in the first path element)
			if !strings.Contains(strings.Split(importPath, "/")[0], ".") {
				continue
			}
			t.Errorf("%s imports forbidden package: %s", file, importPath)
		}
	}
}

// TestPublicPackagesDoNotImportInternal verifies the library packages under
// pkg/ stay usable without the application packages.
func TestPublicPackagesDoNotImportInternal(t *testing.T) {
	for _, dir := range []string{".", "../markdown", "../table"} {
		for file, paths := range imports(t, dir) {
			for _, importPath := range paths {
				if strings.HasPrefix(importPath, modulePath+"/internal/") {
					t.Errorf("%s/%s imports internal package: %s", filepath.Base(dir), file, importPath)
				}
			}
		}
	}
}

// TestMarkdownDoesNotImportTable verifies the parser and serializer do not
// depend on the table model.
func TestMarkdownDoesNotImportTable(t *testing.T) {
	for file, paths := range imports(t, "../markdown") {
		for _, importPath := range paths {
			if importPath == modulePath+"/pkg/table" {
				t.Errorf("markdown/%s imports pkg/table", file)
			}
		}
	}
}
