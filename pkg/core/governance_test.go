//go:build governance

package core_test

import (
	"go/types"
	"strings"
	"testing"

	"golang.org/x/tools/go/packages"
)

// =============================================================================
// COHESION TEST - Core types must be shared by multiple packages
// =============================================================================

// TestGovernance_CoreCohesion verifies that types in pkg/core are genuinely
// shared across multiple packages. Single-use types should be moved to their
// sole consumer to maintain cohesion.
func TestGovernance_CoreCohesion(t *testing.T) {
	cfg := &packages.Config{
		Mode: packages.NeedName | packages.NeedImports | packages.NeedTypes |
			packages.NeedTypesInfo | packages.NeedDeps,
	}
	pkgs, err := packages.Load(cfg, modulePath+"/...")
	if err != nil {
		t.Fatalf("Failed to load packages: %v", err)
	}

	// Find pkg/core and collect exported types
	coreDefs := make(map[types.Object]string)
	var corePkg *packages.Package

	for _, p := range pkgs {
		if p.PkgPath == modulePath+"/pkg/core" {
			corePkg = p
			scope := p.Types.Scope()
			for _, name := range scope.Names() {
				obj := scope.Lookup(name)
				if obj.Exported() {
					coreDefs[obj] = name
				}
			}
			break
		}
	}

	if corePkg == nil {
		t.Fatal("Could not find pkg/core")
	}

	// Count usages: CoreTypeName -> set of importing packages
	usageMap := make(map[string]map[string]bool)
	for _, name := range coreDefs {
		usageMap[name] = make(map[string]bool)
	}

	base := modulePath + "/"

	for _, p := range pkgs {
		// Skip core itself and test packages
		if p.PkgPath == corePkg.PkgPath || strings.HasSuffix(p.PkgPath, "_test") {
			continue
		}
		if p.TypesInfo == nil {
			continue
		}

		for _, info := range p.TypesInfo.Uses {
			if name, exists := coreDefs[info]; exists {
				importer := strings.TrimPrefix(p.PkgPath, base)
				usageMap[name][importer] = true
			}
		}
	}

	// Report violations
	for typeName, importers := range usageMap {
		if isCohesionAllowlisted(typeName) {
			continue
		}

		if len(importers) == 0 {
			t.Logf("WARNING: Unused Core Type: %s (consider deleting)", typeName)
		} else if len(importers) == 1 {
			var user string
			for k := range importers {
				user = k
			}
			t.Errorf("COHESION VIOLATION: 'core.%s' is used ONLY by '%s'.\n"+
				"   Fix: Move type from pkg/core to %s.",
				typeName, user, user)
		}
	}
}

// isCohesionAllowlisted returns true for types allowed to have single usage.
func isCohesionAllowlisted(name string) bool {
	allowlist := map[string]bool{
		"Boundary":         true, // Produced by markdown, consumed through table
		"ValidationResult": true, // Returned by table validation only
	}
	return allowlist[name]
}

// =============================================================================
// PURITY TEST - No type alias re-exports of core types
// =============================================================================

// TestGovernance_NoTypeAliasReexports ensures packages don't re-export core
// types as aliases. Consumers should name core.TableData, not a local alias.
func TestGovernance_NoTypeAliasReexports(t *testing.T) {
	cfg := &packages.Config{
		Mode: packages.NeedName | packages.NeedImports | packages.NeedTypes,
	}
	pkgs, err := packages.Load(cfg, modulePath+"/...")
	if err != nil {
		t.Fatalf("Failed to load packages: %v", err)
	}

	corePath := modulePath + "/pkg/core"
	for _, pkg := range pkgs {
		if len(pkg.Errors) > 0 || pkg.PkgPath == corePath {
			continue
		}

		scope := pkg.Types.Scope()
		for _, name := range scope.Names() {
			obj := scope.Lookup(name)
			if !obj.Exported() {
				continue
			}

			typeName, ok := obj.(*types.TypeName)
			if !ok || !typeName.IsAlias() {
				continue
			}
			named, ok := types.Unalias(typeName.Type()).(*types.Named)
			if !ok || named.Obj().Pkg() == nil || named.Obj().Pkg().Path() != corePath {
				continue
			}
			t.Errorf("PURITY VIOLATION: Package '%s' re-exports type alias '%s'.\n"+
				"   Fix: Remove the alias. Consumers should use core.%s directly.",
				strings.TrimPrefix(pkg.PkgPath, modulePath+"/"), name, named.Obj().Name())
		}
	}
}

// =============================================================================
// LAYERING TEST - Document writes go through sessions
// =============================================================================

// TestGovernance_PersistOnlyBehindSessions ensures that only the session layer
// patches documents. A surface writing through the synchronizer directly would
// skip undo history, recovery and broadcasts.
func TestGovernance_PersistOnlyBehindSessions(t *testing.T) {
	cfg := &packages.Config{Mode: packages.NeedName | packages.NeedImports, Tests: true}
	pkgs, err := packages.Load(cfg, modulePath+"/...")
	if err != nil {
		t.Fatalf("Failed to load packages: %v", err)
	}

	persistPath := modulePath + "/internal/persist"
	allowed := map[string]bool{
		persistPath:                      true,
		modulePath + "/internal/session": true,
	}

	for _, pkg := range pkgs {
		if allowed[strings.TrimSuffix(pkg.PkgPath, "_test")] {
			continue
		}
		if _, ok := pkg.Imports[persistPath]; ok {
			t.Errorf("LAYERING VIOLATION: '%s' imports internal/persist.\n"+
				"   Fix: Send a transport message to a session instead.",
				strings.TrimPrefix(pkg.PkgPath, modulePath+"/"))
		}
	}
}
