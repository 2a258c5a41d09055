package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/turtacn/ClinFHIR-Bridge/internal/application/conversion"
	"github.com/turtacn/ClinFHIR-Bridge/internal/domain/clinical"
	"github.com/turtacn/ClinFHIR-Bridge/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ClinFHIR-Bridge/pkg/errors"
)

var (
	convertNote        string
	convertFile        string
	convertPatientID   string
	convertExtractOnly bool
)

// NewConvertCmd creates the convert command.  Conversion runs in process
// against the injected service; no API server is required.
func NewConvertCmd(svc conversion.Service, logger logging.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Convert a clinical note into a FHIR bundle",
		Long: `Extract medical entities (conditions, medications, procedures) from a
free-text clinical note and assemble them into a FHIR R5 collection bundle.

The note is taken from --note, from --file, or from stdin, in that order.`,
		Example: `  clinfhir convert --note "Patient has type 2 diabetes, taking metformin."
  clinfhir convert --file note.txt --patient patient-42 -o json
  cat note.txt | clinfhir convert --extract-only`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(cmd, svc, logger)
		},
	}

	cmd.Flags().StringVarP(&convertNote, "note", "n", "", "Clinical note text (mutually exclusive with --file)")
	cmd.Flags().StringVarP(&convertFile, "file", "f", "", "Read the clinical note from a file")
	cmd.Flags().StringVarP(&convertPatientID, "patient", "p", "", "FHIR Patient reference ID for the bundle subject")
	cmd.Flags().BoolVar(&convertExtractOnly, "extract-only", false, "Extract entities without assembling a bundle")

	return cmd
}

func runConvert(cmd *cobra.Command, svc conversion.Service, logger logging.Logger) error {
	if svc == nil {
		return errors.Internal("conversion service is not configured")
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	if convertNote != "" && convertFile != "" {
		return errors.InvalidParam("--note and --file are mutually exclusive, provide only one")
	}

	note, err := resolveNote(cmd)
	if err != nil {
		return err
	}
	if strings.TrimSpace(note) == "" {
		return errors.InvalidParam("no clinical note provided; use --note, --file, or pipe text on stdin")
	}

	ctx, cancel := commandContext(cmd)
	defer cancel()

	format := outputFormat(cmd)

	if convertExtractOnly {
		entities, err := svc.ExtractOnly(ctx, note)
		if err != nil {
			logger.Error("extraction failed", logging.Err(err))
			return err
		}
		logger.Info("extraction completed", logging.Int("entities", len(entities)))

		if format == "json" {
			return printJSON(cmd, entities)
		}
		fmt.Fprint(cmd.OutOrStdout(), formatEntityTable(entities))
		return nil
	}

	result, err := svc.Convert(ctx, &conversion.ConvertInput{
		ClinicalNote: note,
		PatientID:    convertPatientID,
	})
	if err != nil {
		logger.Error("conversion failed", logging.Err(err))
		return err
	}
	logger.Info("conversion completed",
		logging.Int("entities", len(result.Entities)),
		logging.Int("warnings", len(result.Warnings)))

	if format == "json" {
		return printJSON(cmd, result)
	}
	fmt.Fprint(cmd.OutOrStdout(), formatConvertResult(result))
	return nil
}

// resolveNote returns the note text from --note, --file, or stdin.
func resolveNote(cmd *cobra.Command) (string, error) {
	if convertNote != "" {
		return convertNote, nil
	}

	if convertFile != "" {
		data, err := os.ReadFile(convertFile)
		if err != nil {
			return "", errors.Wrapf(err, errors.ErrCodeBadRequest, "cannot read note file %s", convertFile)
		}
		return string(data), nil
	}

	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeBadRequest, "cannot read note from stdin")
	}
	return string(data), nil
}

// commandContext derives a bounded context for one CLI operation.  The
// timeout comes from the global --timeout flag when the root command ran.
func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	timeout := 30 * time.Second
	if cliCtx, err := GetCLIContext(cmd); err == nil && cliCtx.Timeout > 0 {
		timeout = cliCtx.Timeout
	}

	return context.WithTimeout(ctx, timeout)
}

// outputFormat returns the active --output value, "text" when the command
// runs without the root's persistent setup.
func outputFormat(cmd *cobra.Command) string {
	if cliCtx, err := GetCLIContext(cmd); err == nil && cliCtx.OutputFormat != "" {
		return strings.ToLower(cliCtx.OutputFormat)
	}
	return "text"
}

func formatConvertResult(result *conversion.ConvertResult) string {
	var sb strings.Builder

	sb.WriteString(formatEntityTable(result.Entities))

	if result.Bundle != nil {
		sb.WriteString(fmt.Sprintf("\nFHIR bundle: %d resources (type %s)\n",
			len(result.Bundle.Entry), result.Bundle.Type))
	}

	for _, w := range result.Warnings {
		sb.WriteString(fmt.Sprintf("Warning: %s\n", w))
	}

	return sb.String()
}

func formatEntityTable(entities []clinical.Entity) string {
	if len(entities) == 0 {
		return "No entities detected in this note.\n"
	}

	headers := []string{"CATEGORY", "TEXT", "SPAN", "CONFIDENCE"}
	rows := make([][]string, 0, len(entities))
	for _, e := range entities {
		rows = append(rows, []string{
			string(e.Type),
			e.Text,
			fmt.Sprintf("[%d,%d)", e.Start, e.End),
			fmt.Sprintf("%.2f", e.Confidence),
		})
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Extracted %d entities:\n\n", len(entities)))
	sb.WriteString(FormatTable(headers, rows))
	return sb.String()
}
