package main

import (
	"bytes"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDatabase = `[
  {"Package": "@posthog/icons", "Version": "= 0.36.1"},
  {"Package": "left-pad", "Version": "= 1.0.0 || = 1.0.2"}
]`

func newTestFs(t *testing.T, files map[string]string) afero.Fs {
	t.Helper()
	appFs := afero.NewMemMapFs()
	for name, content := range files {
		require.NoError(t, afero.WriteFile(appFs, name, []byte(content), 0644))
	}
	return appFs
}

func TestScan(t *testing.T) {
	tests := []struct {
		name     string
		files    map[string]string
		args     []string
		wantCode int
		contains []string
		wantErr  string
	}{
		{
			name: "compromised package found",
			files: map[string]string{
				"/db.json": testDatabase,
				"/project/package-lock.json": `{
  "lockfileVersion": 3,
  "packages": {
    "": {"name": "project"},
    "node_modules/@posthog/icons": {"version": "0.36.1"},
    "node_modules/left-pad": {"version": "1.3.0"}
  }
}`,
			},
			args:     []string{"-db", "/db.json", "-no-color", "-quiet", "/project"},
			wantCode: 1,
			contains: []string{"Vulnerable packages found: 1", "@posthog/icons"},
		},
		{
			name: "clean project",
			files: map[string]string{
				"/db.json": testDatabase,
				"/project/package-lock.json": `{
  "lockfileVersion": 1,
  "dependencies": {
    "left-pad": {"version": "1.3.0"}
  }
}`,
			},
			args:     []string{"-db", "/db.json", "-no-color", "-quiet", "/project"},
			wantCode: 0,
			contains: []string{"No vulnerable packages detected"},
		},
		{
			name: "json output with dependency list",
			files: map[string]string{
				"/db.json":              testDatabase,
				"/project/package.json": `{"dependencies": {"left-pad": "1.0.0"}}`,
			},
			args:     []string{"-db", "/db.json", "-format", "json", "-list", "-quiet", "/project"},
			wantCode: 1,
			contains: []string{`"sourceKind": "manifest"`, `"matchesFound": 1`, `"name": "left-pad"`},
		},
		{
			name: "config file",
			files: map[string]string{
				"/etc/shai-hulud.yaml":  "database: /db.json\nformat: json\nquiet: true\n",
				"/db.json":              testDatabase,
				"/project/package.json": `{"dependencies": {"left-pad": "^1.0.0"}}`,
			},
			args:     []string{"-config", "/etc/shai-hulud.yaml", "/project"},
			wantCode: 0,
			contains: []string{`"matchesFound": 0`},
		},
		{
			name: "no manifest",
			files: map[string]string{
				"/db.json": testDatabase,
			},
			args:    []string{"-db", "/db.json", "-quiet", "/project"},
			wantErr: "no package-lock.json, npm-shrinkwrap.json or package.json found",
		},
		{
			name: "missing database",
			files: map[string]string{
				"/project/package.json": `{}`,
			},
			args:    []string{"-db", "/unknown.json", "-quiet", "/project"},
			wantErr: "Shai Hulud packages list not found",
		},
		{
			name:    "invalid format",
			args:    []string{"-db", "/db.json", "-format", "xml", "/project"},
			wantErr: `invalid format "xml"`,
		},
		{
			name:    "unknown flag",
			args:    []string{"-unknown"},
			wantErr: "invalid arguments",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout bytes.Buffer
			code, err := scan(newTestFs(t, tt.files), tt.args, &stdout)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				assert.Equal(t, 1, code)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantCode, code)
			for _, s := range tt.contains {
				assert.Contains(t, stdout.String(), s)
			}
		})
	}
}

func TestRun_Error(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{"-quiet", "-db", "/definitely/not/here.json", t.TempDir()}, &stdout, &stderr)

	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "Error:")
	assert.Contains(t, stderr.String(), usage)
	assert.Empty(t, stdout.String())
}
