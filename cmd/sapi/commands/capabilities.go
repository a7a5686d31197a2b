package commands

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/olekukonko/tablewriter"
	"github.com/senseware-io/sapi/pkg/sapi"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// NewCapabilitiesCommand creates the capabilities command group
func NewCapabilitiesCommand() *cobra.Command {
	var detect bool

	cmd := &cobra.Command{
		Use:     "capabilities",
		Aliases: []string{"caps"},
		Short:   "Inspect detected backend capabilities",
		Long: `Report which API generation serves each operation on the target
deployment. Pass --detect to probe every capability now; without it the
report reflects the current session's cache and capabilities never called
show as unprobed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCapabilitiesReport(detect)
		},
	}

	cmd.Flags().BoolVar(&detect, "detect", true, "run detection for unprobed capabilities")

	return cmd
}

func runCapabilitiesReport(detect bool) error {
	ctx := context.Background()

	client, err := createClient(ctx)
	if err != nil {
		return err
	}

	var report map[sapi.CapabilityID]sapi.ResolutionSummary

	if detect {
		report, err = client.DetectAll(ctx)
		if err != nil {
			return fmt.Errorf("detecting capabilities: %w", err)
		}
	} else {
		report = client.Capabilities()
	}

	ids := make([]sapi.CapabilityID, 0, len(report))
	for id := range report {
		ids = append(ids, id)
	}

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	output := viper.GetString("output")
	switch output {
	case OutputFormatJSON:
		return outputJSON(report)
	case OutputFormatYAML:
		return outputYAML(report)
	default:
		table := tablewriter.NewWriter(os.Stdout)
		table.Header("Capability", "State", "Version", "Endpoint")

		for _, id := range ids {
			summary := report[id]

			version := summary.Version
			if version == "" {
				version = NotAvailable
			}

			endpoint := summary.Endpoint
			if endpoint == "" {
				endpoint = NotAvailable
			}

			_ = table.Append(string(id), string(summary.State), version, endpoint)
		}

		return table.Render()
	}
}
