package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/senseware-io/sapi/pkg/sapi"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// NewQueryCommand creates the query command group
func NewQueryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Execute queries",
		Long:  "Execute JAQL or read-only SQL queries against a datasource",
	}

	cmd.AddCommand(newQuerySQLCommand())
	cmd.AddCommand(newQueryJAQLCommand())

	return cmd
}

func newQuerySQLCommand() *cobra.Command {
	var (
		limit  int
		offset int
	)

	cmd := &cobra.Command{
		Use:   "sql DATASOURCE STATEMENT",
		Short: "Execute a read-only SQL query",
		Long:  "Execute a SELECT statement against one datasource; mutating statements are rejected",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			client, err := createClient(ctx)
			if err != nil {
				return err
			}

			var opts *sapi.SQLOptions
			if limit > 0 || offset > 0 {
				opts = &sapi.SQLOptions{Limit: limit, Offset: offset}
			}

			result, err := client.Queries().ExecuteSQL(ctx, args[0], args[1], opts)
			if err != nil {
				return fmt.Errorf("failed to execute SQL query: %w", err)
			}

			return outputQueryResult(result)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of rows")
	cmd.Flags().IntVar(&offset, "offset", 0, "number of rows to skip")

	return cmd
}

func newQueryJAQLCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "jaql FILE",
		Short: "Execute a JAQL query",
		Long:  `Execute a JAQL query read from a JSON file (or "-" for stdin)`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload, err := readQueryFile(args[0])
			if err != nil {
				return err
			}

			var query sapi.JAQLQuery

			err = json.Unmarshal(payload, &query)
			if err != nil {
				return fmt.Errorf("parsing JAQL query: %w", err)
			}

			ctx := context.Background()

			client, err := createClient(ctx)
			if err != nil {
				return err
			}

			result, err := client.Queries().ExecuteJAQL(ctx, &query)
			if err != nil {
				return fmt.Errorf("failed to execute JAQL query: %w", err)
			}

			return outputQueryResult(result)
		},
	}
}

func readQueryFile(path string) ([]byte, error) {
	if path == "-" {
		payload, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("reading query from stdin: %w", err)
		}

		return payload, nil
	}

	payload, err := os.ReadFile(path) // #nosec G304 -- User-supplied query file path
	if err != nil {
		return nil, fmt.Errorf("reading query file: %w", err)
	}

	return payload, nil
}

func outputQueryResult(result *sapi.QueryResult) error {
	output := viper.GetString("output")
	switch output {
	case OutputFormatJSON:
		return outputJSON(result)
	case OutputFormatYAML:
		return outputYAML(result)
	default:
		if len(result.Values) == 0 {
			fmt.Println("No rows returned")

			return nil
		}

		table := tablewriter.NewWriter(os.Stdout)

		headers := make([]interface{}, len(result.Headers))
		for i, header := range result.Headers {
			headers[i] = header
		}

		table.Header(headers...)

		for _, row := range result.Values {
			var cells []interface{}

			err := json.Unmarshal(row, &cells)
			if err != nil {
				// Not a row array; print the raw value in one cell.
				_ = table.Append(string(row))

				continue
			}

			rendered := make([]interface{}, len(cells))
			for i, cell := range cells {
				rendered[i] = fmt.Sprintf("%v", cell)
			}

			_ = table.Append(rendered...)
		}

		return table.Render()
	}
}
