package matcher

import (
	"strings"

	"github.com/hashicorp/go-version"
	"github.com/samber/lo"

	"github.com/aquasecurity/shai-hulud-inspector/constraint"
	"github.com/aquasecurity/shai-hulud-inspector/types"
)

// Match returns one record per database entry whose package has at least
// one installed version listed as compromised. Database order is kept.
func Match(deps types.Dependencies, db []types.VulnerabilityEntry) []types.Match {
	var matches []types.Match
	for _, entry := range db {
		installed, ok := deps[entry.Package]
		if !ok {
			continue
		}

		vulnerable := constraint.Parse(entry.Version)
		all := installed.Sorted()
		matched := lo.Filter(all, func(v string, _ int) bool {
			return lo.ContainsBy(vulnerable, func(vv string) bool {
				return equal(v, vv)
			})
		})
		if len(matched) == 0 {
			continue
		}

		matches = append(matches, types.Match{
			Package:              entry.Package,
			InstalledVersions:    matched,
			VulnerableVersions:   vulnerable,
			AllInstalledVersions: all,
		})
	}
	return matches
}

// Scan matches deps against db and summarizes the outcome.
func Scan(deps types.Dependencies, db []types.VulnerabilityEntry) types.ScanSummary {
	return types.ScanSummary{
		TotalPackagesScanned:   len(deps),
		TotalVulnerableEntries: len(db),
		Matches:                Match(deps, db),
	}
}

// equal compares as semantic versions, or as raw strings when either side
// is not one (e.g. a "^1.0.0" range read from package.json).
func equal(installed, vulnerable string) bool {
	iv, ok := semver(installed)
	if !ok {
		return installed == vulnerable
	}
	vv, ok := semver(vulnerable)
	if !ok {
		return installed == vulnerable
	}
	return iv.Equal(vv)
}

// semver parses s only when it has exactly major.minor.patch. NewSemver
// alone pads "1.0" to "1.0.0".
func semver(s string) (*version.Version, bool) {
	v, err := version.NewSemver(s)
	if err != nil {
		return nil, false
	}
	core, _, _ := strings.Cut(strings.TrimPrefix(s, "v"), "+")
	core, _, _ = strings.Cut(core, "-")
	if strings.Count(core, ".") != 2 {
		return nil, false
	}
	return v, true
}
