package database

import (
	"bytes"
	"encoding/json"
	"io"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/spf13/afero"
	"golang.org/x/xerrors"

	"github.com/aquasecurity/shai-hulud-inspector/types"
	"github.com/aquasecurity/shai-hulud-inspector/utils"
)

const (
	defaultFileName = "shai-hulud-2-packages.json"
	zstdExt         = ".zst"

	envDatabasePath = "SHAI_HULUD_DB"
)

var (
	ErrDatabaseMissing = xerrors.New("Shai Hulud packages list not found")
	ErrDatabaseCorrupt = xerrors.New("Shai Hulud packages list is corrupt")
)

// DefaultPath returns $SHAI_HULUD_DB, or the bundled list next to the executable.
func DefaultPath() string {
	return utils.LookupEnv(envDatabasePath, filepath.Join(utils.ArtifactsDir(), defaultFileName))
}

// rawEntry keeps both fields loosely typed so one bad element does not
// fail the whole list.
type rawEntry struct {
	Package json.RawMessage `json:"Package"`
	Version json.RawMessage `json:"Version"`
}

// Load reads the list of compromised package/version pairs at path.
// Files ending in .zst are zstd-compressed.
func Load(appFs afero.Fs, path string) ([]types.VulnerabilityEntry, error) {
	b, ok, err := utils.NewFs(appFs).ReadFile(path)
	if err != nil {
		return nil, xerrors.Errorf("%s (%s): %w", path, err, ErrDatabaseMissing)
	} else if !ok {
		return nil, xerrors.Errorf("%s: %w", path, ErrDatabaseMissing)
	}

	if strings.HasSuffix(path, zstdExt) {
		if b, err = decompress(b); err != nil {
			return nil, xerrors.Errorf("%s: %s: %w", path, err, ErrDatabaseCorrupt)
		}
	}

	var raw []json.RawMessage
	if err = json.Unmarshal(b, &raw); err != nil {
		return nil, xerrors.Errorf("%s: %s: %w", path, err, ErrDatabaseCorrupt)
	}

	var entries []types.VulnerabilityEntry
	for _, r := range raw {
		var re rawEntry
		if err = json.Unmarshal(r, &re); err != nil {
			// not an object
			return nil, xerrors.Errorf("%s: unexpected element %s: %w", path, string(r), ErrDatabaseCorrupt)
		}

		pkg, ok := decodeString(re.Package)
		if !ok || pkg == "" {
			continue
		}
		ver, ok := decodeString(re.Version)
		if !ok {
			continue
		}
		entries = append(entries, types.VulnerabilityEntry{
			Package: pkg,
			Version: ver,
		})
	}
	return entries, nil
}

func decodeString(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

func decompress(b []byte) ([]byte, error) {
	d, err := zstd.NewReader(bytes.NewReader(b))
	if err != nil {
		return nil, xerrors.Errorf("failed to create zstd reader: %w", err)
	}
	defer d.Close()

	out, err := io.ReadAll(d)
	if err != nil {
		return nil, xerrors.Errorf("failed to decompress: %w", err)
	}
	return out, nil
}
