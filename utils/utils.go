package utils

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	artifactsDir = "artifacts"
	nodeDir      = "node"
)

// ArtifactsDir returns the directory holding bundled package lists,
// resolved next to the running executable. Binaries built into the temp
// directory by "go run" resolve it against the working directory instead.
func ArtifactsDir() string {
	exe, err := os.Executable()
	if err != nil {
		return filepath.Join(artifactsDir, nodeDir)
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	tmpDir := os.TempDir()
	if resolved, err := filepath.EvalSymlinks(tmpDir); err == nil {
		tmpDir = resolved
	}
	return artifactsDirFor(exe, tmpDir)
}

func artifactsDirFor(exe, tmpDir string) string {
	dir := filepath.Dir(exe)
	if rel, err := filepath.Rel(tmpDir, dir); err == nil && !strings.HasPrefix(rel, "..") {
		return filepath.Join(artifactsDir, nodeDir)
	}
	return filepath.Join(dir, artifactsDir, nodeDir)
}

func LookupEnv(key, defaultValue string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return defaultValue
}
