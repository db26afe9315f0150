package main

import (
	"flag"
	"log"
	"path/filepath"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/afero"

	"github.com/aquasecurity/shai-hulud-inspector/merge"
	"github.com/aquasecurity/shai-hulud-inspector/utils"
)

var (
	defaultInputs = []string{
		filepath.Join(utils.ArtifactsDir(), "shai-hulud-2-packages.json"),
		filepath.Join(utils.ArtifactsDir(), "shai-hulud-2-more-packages.json"),
	}

	inputs = flag.String("input", strings.Join(defaultInputs, ","), "comma-separated package lists to merge, in priority order")
	output = flag.String("output", filepath.Join(utils.ArtifactsDir(), "shai-hulud-merged-packages.json"), "merged output file")
)

func main() {
	flag.Parse()

	log.Println("Starting package merge process...")
	if _, err := merge.Run(afero.NewOsFs(), lo.Compact(strings.Split(*inputs, ",")), *output); err != nil {
		log.Fatal(err)
	}
	log.Printf("Output file: %s", *output)
}
