package config

import (
	"github.com/samber/lo"
	"github.com/spf13/afero"
	"golang.org/x/xerrors"
	"gopkg.in/yaml.v2"

	"github.com/aquasecurity/shai-hulud-inspector/database"
	"github.com/aquasecurity/shai-hulud-inspector/report"
	"github.com/aquasecurity/shai-hulud-inspector/utils"
)

const (
	EnvConfigPath   = "SHAI_HULUD_CONFIG"
	EnvDatabasePath = "SHAI_HULUD_DB"
	EnvFormat       = "SHAI_HULUD_FORMAT"
	EnvNoColor      = "NO_COLOR"
)

type Config struct {
	DatabasePath string `yaml:"database"`
	Format       string `yaml:"format"`
	NoColor      bool   `yaml:"no-color"`
	Quiet        bool   `yaml:"quiet"`
}

func Default() Config {
	return Config{
		DatabasePath: database.DefaultPath(),
		Format:       report.FormatTable,
	}
}

// Load layers the YAML file at path (if any) and the environment over
// the defaults. Flags are applied by the caller afterwards.
func Load(appFs afero.Fs, path string) (Config, error) {
	c := Default()

	if path != "" {
		b, ok, err := utils.NewFs(appFs).ReadFile(path)
		if err != nil {
			return Config{}, xerrors.Errorf("failed to read config: %w", err)
		} else if !ok {
			return Config{}, xerrors.Errorf("config file not found: %s", path)
		}
		if err = yaml.UnmarshalStrict(b, &c); err != nil {
			return Config{}, xerrors.Errorf("unable to decode YAML (%s): %w", path, err)
		}
	}

	c.DatabasePath = utils.LookupEnv(EnvDatabasePath, c.DatabasePath)
	c.Format = utils.LookupEnv(EnvFormat, c.Format)
	if utils.LookupEnv(EnvNoColor, "") != "" {
		c.NoColor = true
	}
	return c, nil
}

func (c Config) Validate() error {
	if !lo.Contains(report.Formats, c.Format) {
		return xerrors.Errorf("invalid format %q: must be one of %v", c.Format, report.Formats)
	}
	if c.DatabasePath == "" {
		return xerrors.New("database path must be specified")
	}
	return nil
}
