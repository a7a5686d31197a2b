package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// NewDashboardsCommand creates the dashboards command group
func NewDashboardsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "dashboards",
		Aliases: []string{"dashboard", "dash"},
		Short:   "Manage dashboards",
		Long:    "List and inspect dashboards and their widgets",
	}

	cmd.AddCommand(newDashboardsListCommand())
	cmd.AddCommand(newDashboardsGetCommand())
	cmd.AddCommand(newDashboardsWidgetsCommand())

	return cmd
}

func newDashboardsListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List dashboards",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			client, err := createClient(ctx)
			if err != nil {
				return err
			}

			dashboards, err := client.Dashboards().List(ctx)
			if err != nil {
				return fmt.Errorf("failed to list dashboards: %w", err)
			}

			output := viper.GetString("output")
			switch output {
			case OutputFormatJSON:
				return outputJSON(dashboards)
			case OutputFormatYAML:
				return outputYAML(dashboards)
			default:
				if len(dashboards) == 0 {
					fmt.Println("No dashboards found")

					return nil
				}

				table := tablewriter.NewWriter(os.Stdout)
				table.Header("OID", "Title", "Datasource", "Updated")

				for _, dashboard := range dashboards {
					datasource := dashboard.Datasource.Title
					if datasource == "" {
						datasource = NotAvailable
					}

					_ = table.Append(dashboard.OID, dashboard.Title, datasource, formatTime(dashboard.UpdatedAt))
				}

				return table.Render()
			}
		},
	}
}

func newDashboardsGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get DASHBOARD_OID",
		Short: "Show one dashboard",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			client, err := createClient(ctx)
			if err != nil {
				return err
			}

			dashboard, err := client.Dashboards().Get(ctx, args[0])
			if err != nil {
				return fmt.Errorf("failed to get dashboard: %w", err)
			}

			output := viper.GetString("output")
			switch output {
			case OutputFormatJSON:
				return outputJSON(dashboard)
			case OutputFormatYAML:
				return outputYAML(dashboard)
			default:
				table := tablewriter.NewWriter(os.Stdout)
				table.Header("Property", "Value")
				_ = table.Append("OID", dashboard.OID)
				_ = table.Append("Title", dashboard.Title)
				_ = table.Append("Owner", dashboard.Owner)
				_ = table.Append("Datasource", dashboard.Datasource.Title)
				_ = table.Append("Widgets", fmt.Sprintf("%d", len(dashboard.Widgets)))
				_ = table.Append("Updated", formatTime(dashboard.UpdatedAt))

				return table.Render()
			}
		},
	}
}

func newDashboardsWidgetsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "widgets DASHBOARD_OID",
		Short: "List the widgets of one dashboard",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			client, err := createClient(ctx)
			if err != nil {
				return err
			}

			widgets, err := client.Dashboards().ListWidgets(ctx, args[0])
			if err != nil {
				return fmt.Errorf("failed to list widgets: %w", err)
			}

			output := viper.GetString("output")
			switch output {
			case OutputFormatJSON:
				return outputJSON(widgets)
			case OutputFormatYAML:
				return outputYAML(widgets)
			default:
				if len(widgets) == 0 {
					fmt.Println("No widgets found")

					return nil
				}

				table := tablewriter.NewWriter(os.Stdout)
				table.Header("OID", "Title", "Type", "Subtype")

				for _, widget := range widgets {
					_ = table.Append(widget.OID, widget.Title, widget.Type, widget.Subtype)
				}

				return table.Render()
			}
		},
	}
}
