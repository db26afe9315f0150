package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"golang.org/x/xerrors"

	"github.com/aquasecurity/shai-hulud-inspector/config"
	"github.com/aquasecurity/shai-hulud-inspector/database"
	"github.com/aquasecurity/shai-hulud-inspector/matcher"
	"github.com/aquasecurity/shai-hulud-inspector/npm"
	"github.com/aquasecurity/shai-hulud-inspector/report"
	"github.com/aquasecurity/shai-hulud-inspector/utils"
)

const usage = "Usage: shai-hulud-inspector [flags] [project-path]"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run returns the process exit status: 0 for a clean scan, 1 when
// compromised packages were found or the scan failed.
func run(args []string, stdout, stderr io.Writer) int {
	log.SetOutput(stderr)

	code, err := scan(afero.NewOsFs(), args, stdout)
	if err != nil {
		fmt.Fprintf(stderr, "\nError: %s\n", err)
		fmt.Fprintf(stderr, "\n%s\n", usage)
		return 1
	}
	return code
}

func scan(appFs afero.Fs, args []string, stdout io.Writer) (int, error) {
	fs := flag.NewFlagSet("shai-hulud-inspector", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var (
		configPath = fs.String("config", utils.LookupEnv(config.EnvConfigPath, ""), "path to a YAML config file")
		dbPath     = fs.String("db", "", "path to the compromised packages list (.json or .json.zst)")
		format     = fs.String("format", "", "output format (table, json)")
		noColor    = fs.Bool("no-color", false, "disable colored output")
		quiet      = fs.Bool("quiet", false, "suppress progress logs")
		list       = fs.Bool("list", false, "also print every extracted dependency")
	)
	if err := fs.Parse(args); err != nil {
		return 1, xerrors.Errorf("invalid arguments: %w", err)
	}

	c, err := config.Load(appFs, *configPath)
	if err != nil {
		return 1, err
	}
	if *dbPath != "" {
		c.DatabasePath = *dbPath
	}
	if *format != "" {
		c.Format = *format
	}
	c.NoColor = c.NoColor || *noColor
	c.Quiet = c.Quiet || *quiet
	if err = c.Validate(); err != nil {
		return 1, err
	}
	if c.Quiet {
		log.SetOutput(io.Discard)
	}

	projectPath := "."
	if fs.NArg() > 0 {
		projectPath = fs.Arg(0)
	}
	if abs, err := filepath.Abs(projectPath); err == nil {
		projectPath = abs
	}
	log.Printf("Scanning project at: %s", projectPath)

	result, err := npm.NewExtractor(npm.WithAppFs(appFs)).Extract(projectPath)
	if err != nil {
		return 1, xerrors.Errorf("dependency extraction error: %w", err)
	}

	entries, err := database.Load(appFs, c.DatabasePath)
	if err != nil {
		return 1, xerrors.Errorf("database error: %w", err)
	}

	summary := matcher.Scan(result.Dependencies, entries)

	w := report.NewWriter(stdout,
		report.WithFormat(c.Format),
		report.WithNoColor(c.NoColor),
		report.WithDependencyList(*list))
	if err = w.Write(projectPath, result, summary); err != nil {
		return 1, err
	}
	return report.ExitCode(summary), nil
}
