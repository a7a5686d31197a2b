package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/senseware-io/sapi/pkg/sapi"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// NewDataModelsCommand creates the datamodels command group
func NewDataModelsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "datamodels",
		Aliases: []string{"datamodel", "models", "cubes"},
		Short:   "Manage data models",
		Long:    "List and inspect data models (elasticubes on older deployments)",
	}

	cmd.AddCommand(newDataModelsListCommand())
	cmd.AddCommand(newDataModelsGetCommand())
	cmd.AddCommand(newDataModelsSchemaCommand())

	return cmd
}

func newDataModelsListCommand() *cobra.Command {
	var modelType string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List data models",
		Long:  "List all data models the user has access to",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			client, err := createClient(ctx)
			if err != nil {
				return err
			}

			var opts *sapi.DataModelListOptions
			if modelType != "" {
				opts = &sapi.DataModelListOptions{Type: modelType}
			}

			models, err := client.DataModels().List(ctx, opts)
			if err != nil {
				return fmt.Errorf("failed to list data models: %w", err)
			}

			output := viper.GetString("output")
			switch output {
			case OutputFormatJSON:
				return outputJSON(models)
			case OutputFormatYAML:
				return outputYAML(models)
			default:
				if len(models) == 0 {
					fmt.Println("No data models found")

					return nil
				}

				table := tablewriter.NewWriter(os.Stdout)
				table.Header("OID", "Title", "Type", "API", "Updated")

				for _, model := range models {
					modelKind := model.Type
					if modelKind == "" {
						modelKind = NotAvailable
					}

					_ = table.Append(model.OID, model.Title, modelKind, model.APIVersion, formatTime(model.UpdatedAt))
				}

				return table.Render()
			}
		},
	}

	cmd.Flags().StringVar(&modelType, "type", "", "filter by model type (e.g. live, extract)")

	return cmd
}

func newDataModelsGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get MODEL_OID",
		Short: "Show one data model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			client, err := createClient(ctx)
			if err != nil {
				return err
			}

			model, err := client.DataModels().Get(ctx, args[0])
			if err != nil {
				return fmt.Errorf("failed to get data model: %w", err)
			}

			output := viper.GetString("output")
			switch output {
			case OutputFormatJSON:
				return outputJSON(model)
			case OutputFormatYAML:
				return outputYAML(model)
			default:
				table := tablewriter.NewWriter(os.Stdout)
				table.Header("Property", "Value")
				_ = table.Append("OID", model.OID)
				_ = table.Append("Title", model.Title)
				_ = table.Append("Type", model.Type)
				_ = table.Append("Server", model.Server)
				_ = table.Append("Created", formatTime(model.CreatedAt))
				_ = table.Append("Updated", formatTime(model.UpdatedAt))

				return table.Render()
			}
		},
	}
}

func newDataModelsSchemaCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "schema MODEL_OID",
		Short: "Export the schema of one data model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			client, err := createClient(ctx)
			if err != nil {
				return err
			}

			schema, err := client.DataModels().ExportSchema(ctx, args[0])
			if err != nil {
				return fmt.Errorf("failed to export schema: %w", err)
			}

			if viper.GetString("output") == OutputFormatYAML {
				return outputYAML(schema)
			}

			// Schemas are structured documents; table output adds nothing.
			return outputJSON(schema)
		},
	}
}
