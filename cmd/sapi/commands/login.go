package commands

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/senseware-io/sapi/internal/constants"
	"github.com/senseware-io/sapi/pkg/sapi"
	"github.com/senseware-io/sapi/pkg/sapiclient"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"
)

// NewLoginCommand creates the login command
func NewLoginCommand() *cobra.Command {
	var (
		endpoint string
		username string
		password string
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Login to a backend",
		Long:  "Validate credentials against a backend and save them to the config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if endpoint == "" {
				endpoint = viper.GetString("endpoint")
			}

			if endpoint == "" {
				reader := bufio.NewReader(os.Stdin)
				fmt.Print("Endpoint: ")
				endpoint, _ = reader.ReadString('\n')
				endpoint = strings.TrimSpace(endpoint)
			}

			if endpoint == "" {
				return sapi.ErrEndpointRequired
			}

			token := viper.GetString("token")

			if token == "" {
				if username == "" {
					reader := bufio.NewReader(os.Stdin)
					fmt.Print("Username: ")
					username, _ = reader.ReadString('\n')
					username = strings.TrimSpace(username)
				}

				if password == "" {
					fmt.Print("Password: ")

					raw, err := term.ReadPassword(int(syscall.Stdin))

					fmt.Println()

					if err != nil {
						return fmt.Errorf("reading password: %w", err)
					}

					password = string(raw)
				}
			}

			ctx := context.Background()

			client, err := sapiclient.New(ctx, &sapi.Config{
				Endpoint:      endpoint,
				APIToken:      token,
				Username:      username,
				Password:      password,
				HTTPTimeout:   constants.ShortHTTPTimeout,
				SkipTLSVerify: viper.GetBool("skip-tls-verify"),
			})
			if err != nil {
				return err
			}

			err = client.ValidateAuth(ctx)
			if err != nil {
				return fmt.Errorf("authentication failed: %w", err)
			}

			err = saveLoginConfig(endpoint, token, username, password)
			if err != nil {
				return err
			}

			fmt.Printf("Logged in to %s\n", endpoint)

			return nil
		},
	}

	cmd.Flags().StringVarP(&endpoint, "endpoint", "e", "", "backend endpoint URL")
	cmd.Flags().StringVarP(&username, "username", "u", "", "account username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "account password")

	return cmd
}

// saveLoginConfig persists the validated credentials to the config file.
func saveLoginConfig(endpoint, token, username, password string) error {
	viper.Set("endpoint", endpoint)

	if token != "" {
		viper.Set("token", token)
	} else {
		viper.Set("username", username)
		viper.Set("password", password)
	}

	configFile := viper.ConfigFileUsed()
	if configFile == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("finding home directory: %w", err)
		}

		configFile = filepath.Join(home, ".sapi", "config.yml")
	}

	err := viper.WriteConfigAs(configFile)
	if err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	// The file holds credentials.
	err = os.Chmod(configFile, constants.ConfigFilePerm)
	if err != nil {
		return fmt.Errorf("restricting config file permissions: %w", err)
	}

	return nil
}
