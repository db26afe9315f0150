package merge

import (
	"log"
	"path/filepath"
	"strings"

	"github.com/cheggaaa/pb/v3"
	"github.com/samber/lo"
	"github.com/spf13/afero"
	"golang.org/x/exp/slices"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
	"golang.org/x/xerrors"

	"github.com/aquasecurity/shai-hulud-inspector/constraint"
	"github.com/aquasecurity/shai-hulud-inspector/database"
	"github.com/aquasecurity/shai-hulud-inspector/types"
	"github.com/aquasecurity/shai-hulud-inspector/utils"
)

const orSeparator = " || "

type Result struct {
	Entries           []types.VulnerabilityEntry
	InputEntries      int
	InputPairs        int
	UniquePairs       int
	UniquePackages    int
	NewFromLater      int
	DuplicatesRemoved int
}

type pair struct {
	pkg     string
	version string
}

// Merge combines package lists into one entry per package. Every version
// is normalized to "= <version>", duplicates are dropped, versions are
// joined with " || " and entries are sorted by package name in locale
// collation order.
func Merge(lists ...[]types.VulnerabilityEntry) Result {
	var (
		res   Result
		pairs []pair
		seen  = map[pair]struct{}{}
	)

	for i, list := range lists {
		res.InputEntries += len(list)
		for _, entry := range list {
			for _, operand := range constraint.Split(entry.Version) {
				res.InputPairs++
				p := pair{pkg: entry.Package, version: constraint.Normalize(operand)}
				if _, ok := seen[p]; ok {
					continue
				}
				seen[p] = struct{}{}
				pairs = append(pairs, p)
				if i > 0 {
					res.NewFromLater++
				}
			}
		}
	}

	grouped := lo.GroupBy(pairs, func(p pair) string { return p.pkg })
	for pkg, ps := range grouped {
		versions := lo.Map(ps, func(p pair, _ int) string { return p.version })
		slices.Sort(versions)
		res.Entries = append(res.Entries, types.VulnerabilityEntry{
			Package: pkg,
			Version: strings.Join(versions, orSeparator),
		})
	}
	// locale order, so "Zeta" follows "alpha"
	c := collate.New(language.Und)
	slices.SortFunc(res.Entries, func(a, b types.VulnerabilityEntry) int {
		return c.CompareString(a.Package, b.Package)
	})

	res.UniquePairs = len(pairs)
	res.UniquePackages = len(grouped)
	res.DuplicatesRemoved = res.InputPairs - res.UniquePairs
	return res
}

// Run loads every input list, merges them and writes the result to output.
func Run(appFs afero.Fs, inputs []string, output string) (Result, error) {
	if len(inputs) == 0 {
		return Result{}, xerrors.New("at least one input file must be specified")
	}

	var lists [][]types.VulnerabilityEntry
	bar := pb.StartNew(len(inputs))
	for _, input := range inputs {
		entries, err := database.Load(appFs, input)
		if err != nil {
			bar.Finish()
			return Result{}, xerrors.Errorf("failed to load %s: %w", input, err)
		}
		log.Printf("%s: %d entries", filepath.Base(input), len(entries))
		lists = append(lists, entries)
		bar.Increment()
	}
	bar.Finish()

	res := Merge(lists...)

	if err := utils.NewFs(appFs).WriteJSON(output, res.Entries); err != nil {
		return Result{}, xerrors.Errorf("failed to write %s: %w", output, err)
	}

	log.Printf("Total unique package-version combinations: %d", res.UniquePairs)
	log.Printf("Total unique packages: %d", res.UniquePackages)
	log.Printf("New entries from later files: %d", res.NewFromLater)
	log.Printf("Duplicates removed: %d", res.DuplicatesRemoved)
	return res, nil
}
