package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/turtacn/ClinFHIR-Bridge/pkg/client"
	"github.com/turtacn/ClinFHIR-Bridge/pkg/errors"
)

// serverStatus aggregates one health and readiness probe for output.
type serverStatus struct {
	Server    string                  `json:"server"`
	Health    *client.HealthStatus    `json:"health"`
	Readiness *client.ReadinessStatus `json:"readiness,omitempty"`
}

// NewStatusCmd creates the status command.  It probes a running API server
// through the SDK client configured by the global --server flag.
func NewStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check health and readiness of a running API server",
		Example: `  clinfhir status
  clinfhir status --server http://localhost:8000 -o json`,
		RunE: runStatus,
	}
}

func runStatus(cmd *cobra.Command, args []string) error {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}
	if cliCtx.Client == nil {
		return errors.Unavailable("API client is not initialized; check the --server address")
	}

	ctx, cancel := commandContext(cmd)
	defer cancel()

	status := &serverStatus{Server: cliCtx.Client.BaseURL()}

	status.Health, err = cliCtx.Client.Health(ctx)
	if err != nil {
		return errors.Wrapf(err, errors.ErrCodeServiceUnavailable,
			"API server at %s is unreachable", status.Server)
	}

	// A server that is live but still warming its components answers 503 on
	// the readiness probe, so this error only downgrades the Ready line.
	readiness, readyErr := cliCtx.Client.Readiness(ctx)
	if readyErr == nil {
		status.Readiness = readiness
	}

	if outputFormat(cmd) == "json" {
		return printJSON(cmd, status)
	}

	fmt.Fprint(cmd.OutOrStdout(), formatServerStatus(status, readyErr))
	return nil
}

func formatServerStatus(status *serverStatus, readyErr error) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Server:   %s\n", status.Server))
	sb.WriteString(fmt.Sprintf("Status:   %s\n", status.Health.Status))
	sb.WriteString(fmt.Sprintf("Version:  %s\n", status.Health.Version))
	if status.Health.Uptime != "" {
		sb.WriteString(fmt.Sprintf("Uptime:   %s\n", status.Health.Uptime))
	}

	if readyErr != nil {
		sb.WriteString(fmt.Sprintf("Ready:    no (%s)\n", readyErr))
		return sb.String()
	}

	sb.WriteString(fmt.Sprintf("Ready:    %s\n", status.Readiness.Status))
	if len(status.Readiness.Components) > 0 {
		sb.WriteString("\n")
		sb.WriteString(formatComponentTable(status.Readiness.Components))
	}

	return sb.String()
}

func formatComponentTable(components map[string]client.ComponentStatus) string {
	names := make([]string, 0, len(components))
	for name := range components {
		names = append(names, name)
	}
	sort.Strings(names)

	headers := []string{"COMPONENT", "STATUS", "DETAIL"}
	rows := make([][]string, 0, len(names))
	for _, name := range names {
		comp := components[name]
		detail := comp.Latency
		if comp.Error != "" {
			detail = comp.Error
		}
		rows = append(rows, []string{name, comp.Status, detail})
	}

	return FormatTable(headers, rows)
}
