// CLI client entry point for ClinFHIR-Bridge.
package main

import (
	"fmt"
	"os"

	"github.com/turtacn/ClinFHIR-Bridge/internal/application/conversion"
	"github.com/turtacn/ClinFHIR-Bridge/internal/config"
	"github.com/turtacn/ClinFHIR-Bridge/internal/domain/clinical"
	"github.com/turtacn/ClinFHIR-Bridge/internal/domain/fhir"
	"github.com/turtacn/ClinFHIR-Bridge/internal/infrastructure/monitoring/logging"
	keywordextractor "github.com/turtacn/ClinFHIR-Bridge/internal/intelligence/keyword_extractor"
	"github.com/turtacn/ClinFHIR-Bridge/internal/interfaces/cli"
)

// Build-time variables injected via ldflags.
var (
	version   = ""
	commit    = ""
	buildDate = ""
)

func init() {
	if version != "" {
		config.Version = version
	}
	if commit != "" {
		config.GitCommit = commit
	}
	if buildDate != "" {
		config.BuildDate = buildDate
	}
}

func main() {
	deps, err := buildDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// Execute prints its own error before returning it.
	if err := cli.Execute(deps); err != nil {
		os.Exit(1)
	}
}

// buildDependencies wires the in-process conversion pipeline used by the
// convert and demo commands.  The pipeline logger stays at warn on stderr;
// command output owns stdout.
func buildDependencies() (cli.CommandDependencies, error) {
	logger, err := logging.NewLogger(logging.LogConfig{
		Level:            logging.LevelWarn,
		Format:           "console",
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	})
	if err != nil {
		return cli.CommandDependencies{}, err
	}

	extractor, err := keywordextractor.NewKeywordExtractor(
		clinical.DefaultVocabulary(),
		keywordextractor.DefaultExtractorConfig(),
		logger.Named("extractor"),
	)
	if err != nil {
		return cli.CommandDependencies{}, err
	}

	builder := fhir.NewBundleBuilder().WithLogger(logger.Named("fhir"))
	service := conversion.NewService(extractor, builder, nil, logger.Named("conversion"))

	return cli.CommandDependencies{
		Logger:     logger,
		Conversion: service,
	}, nil
}
