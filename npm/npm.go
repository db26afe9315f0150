package npm

import (
	"log"
	"path/filepath"

	"github.com/spf13/afero"
	"golang.org/x/xerrors"

	"github.com/aquasecurity/shai-hulud-inspector/types"
	"github.com/aquasecurity/shai-hulud-inspector/utils"
)

const (
	packageLockFile = "package-lock.json"
	shrinkwrapFile  = "npm-shrinkwrap.json"
	manifestFile    = "package.json"
)

var (
	ErrNoManifestFound = xerrors.New("no package-lock.json, npm-shrinkwrap.json or package.json found")
	ErrManifestCorrupt = xerrors.New("malformed dependency file")

	lockfiles = []string{packageLockFile, shrinkwrapFile}

	manifestWarnings = []string{
		"No package-lock.json found: dependencies were read from package.json instead.",
		"Only direct dependencies are checked. Transitive dependencies are not covered, and declared version ranges are compared as-is rather than resolved.",
		`Run "npm install --package-lock-only" to generate a lockfile and scan again for full coverage.`,
	}
)

type option func(*Extractor)

func WithAppFs(v afero.Fs) option {
	return func(e *Extractor) { e.appFs = v }
}

type Extractor struct {
	appFs afero.Fs
}

func NewExtractor(opts ...option) *Extractor {
	e := &Extractor{
		appFs: afero.NewOsFs(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract collects the dependencies of the project at projectPath. A
// lockfile is preferred; package.json is the fallback and only yields
// direct dependencies.
func (e *Extractor) Extract(projectPath string) (types.ExtractionResult, error) {
	fs := utils.NewFs(e.appFs)

	for _, name := range lockfiles {
		path := filepath.Join(projectPath, name)
		b, ok, err := fs.ReadFile(path)
		if err != nil {
			return types.ExtractionResult{}, xerrors.Errorf("failed to read lockfile: %w", err)
		} else if !ok {
			continue
		}

		log.Printf("Extracting dependencies from %s", path)
		result, err := parseLockfile(b)
		if err != nil {
			return types.ExtractionResult{}, xerrors.Errorf("%s: %w", path, err)
		}
		result.SourceFile = path
		return result, nil
	}

	path := filepath.Join(projectPath, manifestFile)
	b, ok, err := fs.ReadFile(path)
	if err != nil {
		return types.ExtractionResult{}, xerrors.Errorf("failed to read manifest: %w", err)
	} else if !ok {
		return types.ExtractionResult{}, xerrors.Errorf("%s: %w", projectPath, ErrNoManifestFound)
	}

	log.Printf("Extracting direct dependencies from %s", path)
	deps, err := parseManifest(b)
	if err != nil {
		return types.ExtractionResult{}, xerrors.Errorf("%s: %w", path, err)
	}
	return types.ExtractionResult{
		Dependencies: deps,
		SourceKind:   types.SourceManifest,
		SourceFile:   path,
		Warnings:     append([]string(nil), manifestWarnings...),
	}, nil
}
