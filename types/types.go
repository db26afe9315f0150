package types

import (
	"github.com/samber/lo"
	"golang.org/x/exp/slices"
)

type VulnerabilityEntry struct {
	Package string `json:"Package"`
	Version string `json:"Version"`
}

type SourceKind string

const (
	SourceLockfile SourceKind = "lockfile"
	SourceManifest SourceKind = "manifest"
)

// VersionSet holds every version string observed for one package.
type VersionSet map[string]struct{}

func NewVersionSet(versions ...string) VersionSet {
	s := VersionSet{}
	for _, v := range versions {
		s.Add(v)
	}
	return s
}

func (s VersionSet) Add(version string) {
	s[version] = struct{}{}
}

func (s VersionSet) Has(version string) bool {
	_, ok := s[version]
	return ok
}

func (s VersionSet) Sorted() []string {
	versions := lo.Keys(s)
	slices.Sort(versions)
	return versions
}

// Dependencies maps a package name to the versions observed for it.
type Dependencies map[string]VersionSet

func (d Dependencies) Add(name, version string) {
	if _, ok := d[name]; !ok {
		d[name] = VersionSet{}
	}
	d[name].Add(version)
}

// List returns the dependency inventory sorted by package name.
func (d Dependencies) List() []Dependency {
	names := lo.Keys(d)
	slices.Sort(names)
	return lo.Map(names, func(name string, _ int) Dependency {
		return Dependency{
			Name:     name,
			Versions: d[name].Sorted(),
		}
	})
}

type Dependency struct {
	Name     string   `json:"name"`
	Versions []string `json:"versions"`
}

type ExtractionResult struct {
	Dependencies    Dependencies `json:"-"`
	SourceKind      SourceKind   `json:"sourceKind"`
	SourceFile      string       `json:"sourceFile"`
	LockfileVersion int          `json:"lockfileVersion,omitempty"`
	Warnings        []string     `json:"warnings,omitempty"`
}

type Match struct {
	Package              string   `json:"package"`
	InstalledVersions    []string `json:"installedVersions"`
	VulnerableVersions   []string `json:"vulnerableVersions"`
	AllInstalledVersions []string `json:"allInstalledVersions"`
}

// SafeVersions returns the installed versions that did not match.
func (m Match) SafeVersions() []string {
	return lo.Without(m.AllInstalledVersions, m.InstalledVersions...)
}

type ScanSummary struct {
	TotalPackagesScanned   int     `json:"totalPackagesScanned"`
	TotalVulnerableEntries int     `json:"totalVulnerablePackages"`
	Matches                []Match `json:"matches"`
}

func (s ScanSummary) MatchesFound() int {
	return len(s.Matches)
}
