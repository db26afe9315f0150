package npm

import (
	"encoding/json"

	"golang.org/x/xerrors"

	"github.com/aquasecurity/shai-hulud-inspector/types"
)

var dependencyGroups = []string{
	"dependencies",
	"devDependencies",
	"optionalDependencies",
	"peerDependencies",
}

// parseManifest records declared ranges verbatim; nothing is resolved.
func parseManifest(b []byte) (types.Dependencies, error) {
	var manifest map[string]json.RawMessage
	if err := json.Unmarshal(b, &manifest); err != nil {
		return nil, xerrors.Errorf("%s: %w", err, ErrManifestCorrupt)
	}

	deps := types.Dependencies{}
	for _, group := range dependencyGroups {
		raw, ok := manifest[group]
		if !ok {
			continue
		}
		var declared map[string]json.RawMessage
		if err := json.Unmarshal(raw, &declared); err != nil {
			continue
		}
		for name, r := range declared {
			var rng string
			if err := json.Unmarshal(r, &rng); err != nil {
				continue
			}
			deps.Add(name, rng)
		}
	}
	return deps, nil
}
