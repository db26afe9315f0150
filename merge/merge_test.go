package merge_test

import (
	"flag"
	"io"
	"os"
	"testing"

	"github.com/kylelemons/godebug/pretty"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aquasecurity/shai-hulud-inspector/database"
	"github.com/aquasecurity/shai-hulud-inspector/merge"
	"github.com/aquasecurity/shai-hulud-inspector/types"
)

var update = flag.Bool("update", false, "update golden files")

func TestMerge(t *testing.T) {
	tests := []struct {
		name  string
		lists [][]types.VulnerabilityEntry
		want  merge.Result
	}{
		{
			name: "duplicates across lists",
			lists: [][]types.VulnerabilityEntry{
				{
					{Package: "left-pad", Version: "= 1.0.0 || = 1.0.1"},
				},
				{
					{Package: "left-pad", Version: "1.0.1"},
					{Package: "left-pad", Version: "= 1.0.3"},
				},
			},
			want: merge.Result{
				Entries: []types.VulnerabilityEntry{
					{Package: "left-pad", Version: "= 1.0.0 || = 1.0.1 || = 1.0.3"},
				},
				InputEntries:      3,
				InputPairs:        4,
				UniquePairs:       3,
				UniquePackages:    1,
				NewFromLater:      1,
				DuplicatesRemoved: 1,
			},
		},
		{
			name: "sorted by package name",
			lists: [][]types.VulnerabilityEntry{
				{
					{Package: "zeta", Version: "= 1.0.0"},
					{Package: "@scope/alpha", Version: "= 2.0.0"},
					{Package: "Gamma", Version: "= 4.0.0"},
					{Package: "beta", Version: "= 3.0.0"},
				},
			},
			want: merge.Result{
				Entries: []types.VulnerabilityEntry{
					{Package: "@scope/alpha", Version: "= 2.0.0"},
					{Package: "beta", Version: "= 3.0.0"},
					{Package: "Gamma", Version: "= 4.0.0"},
					{Package: "zeta", Version: "= 1.0.0"},
				},
				InputEntries:   4,
				InputPairs:     4,
				UniquePairs:    4,
				UniquePackages: 4,
			},
		},
		{
			name: "no input",
			want: merge.Result{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := merge.Merge(tt.lists...)
			if diff := pretty.Compare(got, tt.want); diff != "" {
				t.Errorf("Merge() diff: %s", diff)
			}
		})
	}
}

func TestMerge_Quiet(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	stderr := os.Stderr
	os.Stderr = w
	t.Cleanup(func() { os.Stderr = stderr })

	merge.Merge([]types.VulnerabilityEntry{{Package: "left-pad", Version: "= 1.0.0"}})

	os.Stderr = stderr
	require.NoError(t, w.Close())
	out, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestRun(t *testing.T) {
	tests := []struct {
		name       string
		inputs     []string
		goldenFile string
		wantErr    string
	}{
		{
			name:       "happy path",
			inputs:     []string{"testdata/first.json", "testdata/second.json"},
			goldenFile: "testdata/golden/merged.json",
		},
		{
			name:    "missing input",
			inputs:  []string{"testdata/first.json", "testdata/unknown.json"},
			wantErr: "failed to load testdata/unknown.json",
		},
		{
			name:    "no inputs",
			wantErr: "at least one input file must be specified",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			appFs := afero.NewCopyOnWriteFs(afero.NewReadOnlyFs(afero.NewOsFs()), afero.NewMemMapFs())
			output := "/tmp/artifacts/node/shai-hulud-merged-packages.json"

			res, err := merge.Run(appFs, tt.inputs, output)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)

			got, err := afero.ReadFile(appFs, output)
			require.NoError(t, err)

			if *update {
				require.NoError(t, os.WriteFile(tt.goldenFile, got, 0666))
			}
			want, err := os.ReadFile(tt.goldenFile)
			require.NoError(t, err)
			assert.JSONEq(t, string(want), string(got))

			assert.Equal(t, 5, res.InputEntries)
			assert.Equal(t, 3, res.UniquePackages)
			assert.Equal(t, 6, res.UniquePairs)
			assert.Equal(t, 3, res.NewFromLater)

			// the merged list loads back as a database
			entries, err := database.Load(appFs, output)
			require.NoError(t, err)
			assert.Len(t, entries, 3)
		})
	}
}
