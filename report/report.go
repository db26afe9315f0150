package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/xerrors"

	"github.com/aquasecurity/shai-hulud-inspector/types"
)

const (
	FormatTable = "table"
	FormatJSON  = "json"

	moreInfoURL = "https://www.bleepingcomputer.com/news/security/shai-hulud-worm-spreads-via-1000-npm-packages"
	ruleWidth   = 70
)

var Formats = []string{FormatTable, FormatJSON}

type option func(*Writer)

func WithFormat(v string) option {
	return func(w *Writer) { w.format = v }
}

func WithNoColor(v bool) option {
	return func(w *Writer) { w.noColor = v }
}

// WithDependencyList also prints every extracted dependency.
func WithDependencyList(v bool) option {
	return func(w *Writer) { w.listDeps = v }
}

type Writer struct {
	out      io.Writer
	format   string
	noColor  bool
	listDeps bool
	styles   styles
}

type styles struct {
	title   lipgloss.Style
	label   lipgloss.Style
	danger  lipgloss.Style
	warning lipgloss.Style
	ok      lipgloss.Style
	muted   lipgloss.Style
}

func NewWriter(out io.Writer, opts ...option) *Writer {
	w := &Writer{
		out:    out,
		format: FormatTable,
	}
	for _, opt := range opts {
		opt(w)
	}
	w.styles = newStyles(lipgloss.NewRenderer(out), w.noColor)
	return w
}

func newStyles(r *lipgloss.Renderer, noColor bool) styles {
	if noColor {
		plain := r.NewStyle()
		return styles{title: plain, label: plain, danger: plain, warning: plain, ok: plain, muted: plain}
	}
	return styles{
		title:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("205")),
		label:   r.NewStyle().Bold(true),
		danger:  r.NewStyle().Bold(true).Foreground(lipgloss.Color("9")),
		warning: r.NewStyle().Foreground(lipgloss.Color("214")),
		ok:      r.NewStyle().Foreground(lipgloss.Color("10")),
		muted:   r.NewStyle().Foreground(lipgloss.Color("243")),
	}
}

// ExitCode is 1 when any compromised package was found.
func ExitCode(summary types.ScanSummary) int {
	if summary.MatchesFound() > 0 {
		return 1
	}
	return 0
}

type jsonReport struct {
	ProjectPath  string                 `json:"projectPath"`
	Source       types.ExtractionResult `json:"source"`
	Dependencies []types.Dependency     `json:"dependencies,omitempty"`
	MatchesFound int                    `json:"matchesFound"`
	Summary      types.ScanSummary      `json:"summary"`
}

func (w *Writer) Write(projectPath string, result types.ExtractionResult, summary types.ScanSummary) error {
	switch w.format {
	case FormatJSON:
		r := jsonReport{
			ProjectPath:  projectPath,
			Source:       result,
			MatchesFound: summary.MatchesFound(),
			Summary:      summary,
		}
		if w.listDeps {
			r.Dependencies = result.Dependencies.List()
		}
		return w.writeJSON(r)
	case FormatTable:
		if w.listDeps {
			if err := w.writeDependencies(result.Dependencies.List()); err != nil {
				return err
			}
		}
		return w.writeTable(result, summary)
	default:
		return xerrors.Errorf("unknown format: %s", w.format)
	}
}

func (w *Writer) writeDependencies(deps []types.Dependency) error {
	var sb strings.Builder
	sb.WriteString(w.styles.label.Render(fmt.Sprintf("Dependencies (%d)", len(deps))) + "\n")
	for _, d := range deps {
		fmt.Fprintf(&sb, "  %s %s\n", d.Name, w.styles.muted.Render(strings.Join(d.Versions, ", ")))
	}
	sb.WriteString("\n")
	return w.flush(sb.String())
}

func (w *Writer) writeJSON(v interface{}) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return xerrors.Errorf("failed to marshal JSON: %w", err)
	}
	return w.flush(string(b) + "\n")
}

func (w *Writer) writeTable(result types.ExtractionResult, summary types.ScanSummary) error {
	s := w.styles
	var sb strings.Builder

	sb.WriteString(s.title.Render(banner()) + "\n\n")

	fmt.Fprintf(&sb, "Source: %s (%s)\n", result.SourceFile, result.SourceKind)
	fmt.Fprintf(&sb, "Total packages scanned: %d\n", summary.TotalPackagesScanned)
	fmt.Fprintf(&sb, "Known vulnerable packages in database: %d\n", summary.TotalVulnerableEntries)
	fmt.Fprintf(&sb, "Vulnerable packages found: %d\n\n", summary.MatchesFound())

	for _, warning := range result.Warnings {
		sb.WriteString(s.warning.Render("WARNING: "+warning) + "\n")
	}
	if len(result.Warnings) > 0 {
		sb.WriteString("\n")
	}

	if summary.MatchesFound() == 0 {
		sb.WriteString(s.ok.Render("No vulnerable packages detected in your dependencies.") + "\n")
		return w.flush(sb.String())
	}

	sb.WriteString(s.danger.Render("VULNERABLE PACKAGES DETECTED:") + "\n")
	sb.WriteString(strings.Repeat("═", ruleWidth) + "\n\n")

	for i, m := range summary.Matches {
		fmt.Fprintf(&sb, "%d. %s %s\n", i+1, s.label.Render("Package:"), m.Package)
		fmt.Fprintf(&sb, "   ├─ Installed version(s): %s\n", s.danger.Render(strings.Join(m.InstalledVersions, ", ")))
		fmt.Fprintf(&sb, "   ├─ Vulnerable version(s): %s\n", strings.Join(m.VulnerableVersions, ", "))
		if safe := m.SafeVersions(); len(safe) > 0 {
			fmt.Fprintf(&sb, "   ├─ Other installed versions: %s\n", strings.Join(safe, ", "))
		}
		fmt.Fprintf(&sb, "   └─ %s\n\n", s.danger.Render("ACTION REQUIRED: Remove or update this package immediately!"))
	}

	sb.WriteString(strings.Repeat("═", ruleWidth) + "\n")
	fmt.Fprintf(&sb, "\nMore info: %s\n", s.muted.Render(moreInfoURL))
	sb.WriteString("\nRecommendation: Run \"npm audit\" and update/remove vulnerable packages.\n")
	return w.flush(sb.String())
}

func (w *Writer) flush(s string) error {
	if _, err := io.WriteString(w.out, s); err != nil {
		return xerrors.Errorf("failed to write report: %w", err)
	}
	return nil
}

func banner() string {
	return strings.Join([]string{
		"╔═══════════════════════════════════════════════════════════════╗",
		"║         SHAI HULUD VULNERABILITY SCANNER                      ║",
		"║         100% Private - Zero Data Collection                   ║",
		"╚═══════════════════════════════════════════════════════════════╝",
	}, "\n")
}
