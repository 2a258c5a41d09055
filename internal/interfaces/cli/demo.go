package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/turtacn/ClinFHIR-Bridge/internal/application/conversion"
	"github.com/turtacn/ClinFHIR-Bridge/internal/domain/clinical"
	"github.com/turtacn/ClinFHIR-Bridge/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ClinFHIR-Bridge/pkg/errors"
)

var (
	demoExampleName string
	demoList        bool
)

// Highlight palette.  Entity spans get a light category background with dark
// ink; confidence values get a semantic foreground at the 0.8/0.6 cutoffs.
var (
	colorCondition  = lipgloss.Color("#ffcccc")
	colorMedication = lipgloss.Color("#cce5ff")
	colorProcedure  = lipgloss.Color("#ccffcc")
	colorFallback   = lipgloss.Color("#ffffcc")
	colorInk        = lipgloss.Color("#1a1a1a")
	colorConfHigh   = lipgloss.Color("#00aa00")
	colorConfMid    = lipgloss.Color("#ff8800")
	colorConfLow    = lipgloss.Color("#cc0000")

	styleCondition  = lipgloss.NewStyle().Background(colorCondition).Foreground(colorInk)
	styleMedication = lipgloss.NewStyle().Background(colorMedication).Foreground(colorInk)
	styleProcedure  = lipgloss.NewStyle().Background(colorProcedure).Foreground(colorInk)
	styleFallback   = lipgloss.NewStyle().Background(colorFallback).Foreground(colorInk)
	styleConfHigh   = lipgloss.NewStyle().Foreground(colorConfHigh)
	styleConfMid    = lipgloss.NewStyle().Foreground(colorConfMid)
	styleConfLow    = lipgloss.NewStyle().Foreground(colorConfLow)
)

// demoExample pairs a display name with a prepared clinical note.
type demoExample struct {
	Name string
	Note string
}

// demoExamples are the built-in notes the demo can run.  Together they cover
// all three entity categories at different densities.
var demoExamples = []demoExample{
	{
		Name: "Type 2 Diabetes",
		Note: `Patient is a 58-year-old male with type 2 diabetes mellitus.
Current medications include metformin 1000mg twice daily and glipizide 10mg daily.
HbA1c is 7.2%. Patient reports good medication compliance.
No history of diabetic complications at this time.`,
	},
	{
		Name: "Hypertension & Cardiovascular",
		Note: `67-year-old female with essential hypertension and coronary artery disease.
Currently taking lisinopril 20mg daily, atorvastatin 40mg nightly, and aspirin 81mg daily.
Blood pressure today is 138/82. Patient underwent cardiac catheterization last year.
Reports occasional chest discomfort with exertion.`,
	},
	{
		Name: "Post-Surgery Follow-up",
		Note: `Patient underwent laparoscopic cholecystectomy three weeks ago for symptomatic cholelithiasis.
Recovery has been uneventful. Surgical wounds are well-healed.
Patient is off pain medications and has resumed normal activities.
Follow-up complete, no further surgical care needed.`,
	},
	{
		Name: "Respiratory & Pain Management",
		Note: `42-year-old male presenting with chronic lower back pain and asthma.
Currently prescribed ibuprofen 600mg three times daily as needed for pain.
Uses albuterol inhaler for asthma symptoms. Recent X-ray showed mild degenerative changes.
Referred to physical therapy for pain management.`,
	},
}

// NewDemoCmd creates the demo command.  It runs the extraction pipeline on a
// built-in example note and renders the annotated result in the terminal.
func NewDemoCmd(svc conversion.Service, logger logging.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run the conversion pipeline on a built-in example note",
		Long: `Convert one of the built-in example clinical notes and render the result:
the note with entity spans highlighted by category, the extracted entities
grouped with their confidence scores, and a bundle summary.`,
		Example: `  clinfhir demo
  clinfhir demo --list
  clinfhir demo --example "Post-Surgery Follow-up"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDemo(cmd, svc, logger)
		},
	}

	cmd.Flags().StringVarP(&demoExampleName, "example", "e", "", "Example note to run (see --list; default: first example)")
	cmd.Flags().BoolVarP(&demoList, "list", "l", false, "List the available example notes")

	return cmd
}

func runDemo(cmd *cobra.Command, svc conversion.Service, logger logging.Logger) error {
	if demoList {
		fmt.Fprint(cmd.OutOrStdout(), formatExampleList())
		return nil
	}

	if svc == nil {
		return errors.Internal("conversion service is not configured")
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	example, err := selectExample(demoExampleName)
	if err != nil {
		return err
	}

	ctx, cancel := commandContext(cmd)
	defer cancel()

	result, err := svc.Convert(ctx, &conversion.ConvertInput{ClinicalNote: example.Note})
	if err != nil {
		logger.Error("demo conversion failed", logging.Err(err))
		return err
	}

	if outputFormat(cmd) == "json" {
		return printJSON(cmd, result)
	}

	noColor := false
	if cliCtx, ctxErr := GetCLIContext(cmd); ctxErr == nil {
		noColor = cliCtx.NoColor
	}

	fmt.Fprint(cmd.OutOrStdout(), renderDemo(example, result, noColor))
	return nil
}

func formatExampleList() string {
	headers := []string{"NAME", "CHARACTERS"}
	rows := make([][]string, 0, len(demoExamples))
	for _, ex := range demoExamples {
		rows = append(rows, []string{ex.Name, fmt.Sprintf("%d", len(ex.Note))})
	}

	var sb strings.Builder
	sb.WriteString("Available example notes:\n\n")
	sb.WriteString(FormatTable(headers, rows))
	return sb.String()
}

func selectExample(name string) (demoExample, error) {
	if name == "" {
		return demoExamples[0], nil
	}

	for _, ex := range demoExamples {
		if strings.EqualFold(ex.Name, name) {
			return ex, nil
		}
	}

	names := make([]string, 0, len(demoExamples))
	for _, ex := range demoExamples {
		names = append(names, ex.Name)
	}
	return demoExample{}, errors.InvalidParam(
		fmt.Sprintf("unknown example %q (available: %s)", name, strings.Join(names, ", ")))
}

func renderDemo(example demoExample, result *conversion.ConvertResult, noColor bool) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Example: %s\n\n", example.Name))
	sb.WriteString(highlightEntities(example.Note, result.Entities, noColor))
	sb.WriteString("\n\n")

	if len(result.Entities) == 0 {
		sb.WriteString("No entities detected in this note.\n")
	} else {
		sb.WriteString(renderEntityGroups(result.Entities, noColor))
	}

	resourceCount := 0
	if result.Bundle != nil {
		resourceCount = len(result.Bundle.Entry)
	}
	sb.WriteString(fmt.Sprintf("\nSummary: %d entities, average confidence %.0f%%, %d FHIR resources\n",
		len(result.Entities), averageConfidence(result.Entities)*100, resourceCount))

	for _, w := range result.Warnings {
		sb.WriteString(fmt.Sprintf("Warning: %s\n", w))
	}

	return sb.String()
}

// highlightEntities colors each entity span in place.  Splicing runs from the
// highest start offset down so earlier offsets stay valid while styled spans
// grow the string.
func highlightEntities(note string, entities []clinical.Entity, noColor bool) string {
	if len(entities) == 0 || noColor {
		return note
	}

	sorted := make([]clinical.Entity, len(entities))
	copy(sorted, entities)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start > sorted[j].Start })

	out := note
	for _, e := range sorted {
		if e.Start < 0 || e.End > len(out) || e.Start >= e.End {
			continue
		}
		out = out[:e.Start] + categoryStyle(e.Type).Render(out[e.Start:e.End]) + out[e.End:]
	}
	return out
}

func categoryStyle(c clinical.Category) lipgloss.Style {
	switch c {
	case clinical.CategoryCondition:
		return styleCondition
	case clinical.CategoryMedication:
		return styleMedication
	case clinical.CategoryProcedure:
		return styleProcedure
	default:
		return styleFallback
	}
}

func renderEntityGroups(entities []clinical.Entity, noColor bool) string {
	groups := make(map[clinical.Category][]clinical.Entity)
	order := make([]clinical.Category, 0, 3)
	for _, e := range entities {
		if _, seen := groups[e.Type]; !seen {
			order = append(order, e.Type)
		}
		groups[e.Type] = append(groups[e.Type], e)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Entities (%d):\n", len(entities)))
	for _, cat := range order {
		members := groups[cat]
		sb.WriteString(fmt.Sprintf("\n  %ss (%d)\n", titleCase(string(cat)), len(members)))
		for _, e := range members {
			sb.WriteString(fmt.Sprintf("    %-40s %s\n", e.Text, confidenceLabel(e.Confidence, noColor)))
		}
	}
	return sb.String()
}

func confidenceLabel(confidence float64, noColor bool) string {
	label := fmt.Sprintf("%.0f%%", confidence*100)
	if noColor {
		return label
	}
	switch {
	case confidence >= 0.8:
		return styleConfHigh.Render(label)
	case confidence >= 0.6:
		return styleConfMid.Render(label)
	default:
		return styleConfLow.Render(label)
	}
}

func averageConfidence(entities []clinical.Entity) float64 {
	if len(entities) == 0 {
		return 0
	}
	sum := 0.0
	for _, e := range entities {
		sum += e.Confidence
	}
	return sum / float64(len(entities))
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
