package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/senseware-io/sapi/pkg/sapi"
	"github.com/senseware-io/sapi/pkg/sapiclient"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Common string constants used throughout the commands package.
const (
	NotAvailable = "N/A"

	// Output formats.
	OutputFormatJSON = "json"
	OutputFormatYAML = "yaml"

	// JSON formatting.
	defaultJSONIndent = "  "
)

// createClient builds a sapi.Client from the flag/env/config surface.
func createClient(ctx context.Context) (sapi.Client, error) {
	config := &sapi.Config{
		Endpoint:      viper.GetString("endpoint"),
		APIToken:      viper.GetString("token"),
		Username:      viper.GetString("username"),
		Password:      viper.GetString("password"),
		SkipTLSVerify: viper.GetBool("skip-tls-verify"),
	}

	if config.Endpoint == "" {
		return nil, fmt.Errorf("%w (use --endpoint or set SAPI_ENDPOINT)", sapi.ErrEndpointRequired)
	}

	client, err := sapiclient.New(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("creating client: %w", err)
	}

	return client, nil
}

func outputJSON(value interface{}) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", defaultJSONIndent)

	err := encoder.Encode(value)
	if err != nil {
		return fmt.Errorf("encoding JSON output: %w", err)
	}

	return nil
}

func outputYAML(value interface{}) error {
	encoder := yaml.NewEncoder(os.Stdout)

	err := encoder.Encode(value)
	if err != nil {
		return fmt.Errorf("encoding YAML output: %w", err)
	}

	return encoder.Close()
}

// formatTime renders timestamps for table output.
func formatTime(value *time.Time) string {
	if value == nil {
		return NotAvailable
	}

	return value.Format(time.RFC3339)
}
