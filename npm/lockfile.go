package npm

import (
	"encoding/json"
	"strings"

	"golang.org/x/xerrors"

	"github.com/aquasecurity/shai-hulud-inspector/types"
)

const (
	nodeModulesDir = "node_modules/"
	aliasPrefix    = "npm:"
)

// lockfileShape is decided once from the top-level fields.
type lockfileShape int

const (
	shapeUnrecognized lockfileShape = iota
	// lockfileVersion 2 and 3: "packages" keyed by install path
	shapeFlatPaths
	// lockfileVersion 1: "dependencies" nested by package name
	shapeNestedTree
)

type lockfile struct {
	LockfileVersion json.RawMessage `json:"lockfileVersion"`
	Packages        json.RawMessage `json:"packages"`
	Dependencies    json.RawMessage `json:"dependencies"`
}

func (l lockfile) shape() lockfileShape {
	switch {
	case present(l.Packages):
		return shapeFlatPaths
	case present(l.Dependencies):
		return shapeNestedTree
	default:
		return shapeUnrecognized
	}
}

// Node fields stay raw so that one badly typed field does not hide the
// others.
type flatPackage struct {
	Name    json.RawMessage `json:"name"`
	Version json.RawMessage `json:"version"`
}

type nestedDependency struct {
	Version      json.RawMessage `json:"version"`
	Dependencies json.RawMessage `json:"dependencies"`
}

func parseLockfile(b []byte) (types.ExtractionResult, error) {
	var lock lockfile
	if err := json.Unmarshal(b, &lock); err != nil {
		return types.ExtractionResult{}, xerrors.Errorf("%s: %w", err, ErrManifestCorrupt)
	}

	result := types.ExtractionResult{
		Dependencies: types.Dependencies{},
		SourceKind:   types.SourceLockfile,
	}
	// lockfileVersion is informational only
	_ = json.Unmarshal(lock.LockfileVersion, &result.LockfileVersion)

	var err error
	switch lock.shape() {
	case shapeFlatPaths:
		err = extractFlatPaths(lock.Packages, result.Dependencies)
	case shapeNestedTree:
		err = extractNestedTree(lock.Dependencies, result.Dependencies)
	}
	if err != nil {
		return types.ExtractionResult{}, err
	}
	return result, nil
}

func extractFlatPaths(raw json.RawMessage, deps types.Dependencies) error {
	var packages map[string]json.RawMessage
	if err := json.Unmarshal(raw, &packages); err != nil {
		return xerrors.Errorf("packages: %s: %w", err, ErrManifestCorrupt)
	}

	for path, rawPkg := range packages {
		// the root project
		if path == "" {
			continue
		}
		var pkg flatPackage
		if err := json.Unmarshal(rawPkg, &pkg); err != nil {
			continue
		}
		version := stringField(pkg.Version)
		if version == "" {
			continue
		}
		name, version := resolveAlias(packageName(path, stringField(pkg.Name)), version)
		if name == "" {
			continue
		}
		deps.Add(name, version)
	}
	return nil
}

// packageName derives the package name from an install path such as
// "node_modules/@scope/pkg" or "node_modules/a/node_modules/b". A
// non-empty name field wins.
func packageName(path, name string) string {
	if name != "" {
		return name
	}
	if i := strings.LastIndex("/"+path, "/"+nodeModulesDir); i >= 0 {
		return path[i+len(nodeModulesDir):]
	}
	return path
}

func extractNestedTree(raw json.RawMessage, deps types.Dependencies) error {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil {
		return xerrors.Errorf("dependencies: %s: %w", err, ErrManifestCorrupt)
	}

	type node struct {
		name string
		raw  json.RawMessage
	}
	var stack []node
	for name, r := range top {
		stack = append(stack, node{name: name, raw: r})
	}

	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		var dep nestedDependency
		if err := json.Unmarshal(n.raw, &dep); err != nil {
			continue
		}
		if version := stringField(dep.Version); version != "" {
			deps.Add(resolveAlias(n.name, version))
		}
		var children map[string]json.RawMessage
		if err := json.Unmarshal(dep.Dependencies, &children); err != nil {
			continue
		}
		for name, r := range children {
			stack = append(stack, node{name: name, raw: r})
		}
	}
	return nil
}

// resolveAlias maps an aliased install ("npm:string-width@4.2.3") to the
// real package name and version.
func resolveAlias(name, version string) (string, string) {
	if !strings.HasPrefix(version, aliasPrefix) {
		return name, version
	}
	target := strings.TrimPrefix(version, aliasPrefix)
	i := strings.LastIndex(target, "@")
	if i <= 0 {
		return name, version
	}
	return target[:i], target[i+1:]
}

// stringField returns the string held by raw, or "" for any other JSON type.
func stringField(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

func present(raw json.RawMessage) bool {
	return len(raw) > 0 && string(raw) != "null"
}
