package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// NewConnectionsCommand creates the connections command group
func NewConnectionsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "connections",
		Aliases: []string{"connection", "conn"},
		Short:   "Manage data connections",
		Long:    "List, inspect, and test data connections",
	}

	cmd.AddCommand(newConnectionsListCommand())
	cmd.AddCommand(newConnectionsGetCommand())
	cmd.AddCommand(newConnectionsTestCommand())
	cmd.AddCommand(newConnectionsSchemaCommand())

	return cmd
}

func newConnectionsListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List data connections",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			client, err := createClient(ctx)
			if err != nil {
				return err
			}

			connections, err := client.Connections().List(ctx)
			if err != nil {
				return fmt.Errorf("failed to list connections: %w", err)
			}

			output := viper.GetString("output")
			switch output {
			case OutputFormatJSON:
				return outputJSON(connections)
			case OutputFormatYAML:
				return outputYAML(connections)
			default:
				if len(connections) == 0 {
					fmt.Println("No connections found")

					return nil
				}

				table := tablewriter.NewWriter(os.Stdout)
				table.Header("OID", "Title", "Provider")

				for _, connection := range connections {
					_ = table.Append(connection.OID, connection.Title, connection.Provider)
				}

				return table.Render()
			}
		},
	}
}

func newConnectionsGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get CONNECTION_OID",
		Short: "Show one connection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			client, err := createClient(ctx)
			if err != nil {
				return err
			}

			connection, err := client.Connections().Get(ctx, args[0])
			if err != nil {
				return fmt.Errorf("failed to get connection: %w", err)
			}

			if viper.GetString("output") == OutputFormatYAML {
				return outputYAML(connection)
			}

			return outputJSON(connection)
		},
	}
}

func newConnectionsTestCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "test CONNECTION_OID",
		Short: "Test a connection",
		Long:  "Ask the backend to verify the connection's target with its stored credentials",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			client, err := createClient(ctx)
			if err != nil {
				return err
			}

			result, err := client.Connections().Test(ctx, args[0])
			if err != nil {
				return fmt.Errorf("failed to test connection: %w", err)
			}

			if result.Success {
				fmt.Println("Connection OK")
			} else {
				fmt.Printf("Connection failed: %s\n", result.Message)
			}

			return nil
		},
	}
}

func newConnectionsSchemaCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "schema CONNECTION_OID",
		Short: "Show the schema listing of one connection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			client, err := createClient(ctx)
			if err != nil {
				return err
			}

			schema, err := client.Connections().Schema(ctx, args[0])
			if err != nil {
				return fmt.Errorf("failed to get connection schema: %w", err)
			}

			// Provider-specific document; print it as-is.
			fmt.Println(string(schema))

			return nil
		},
	}
}
