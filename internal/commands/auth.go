package commands

import (
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/filesmanager/backend/internal/client"
	"github.com/filesmanager/backend/internal/clientconfig"
	"github.com/filesmanager/backend/internal/output"
	"github.com/spf13/cobra"
)

var (
	flagEmail    string
	flagPassword string
)

// password falls back to FILESMANAGER_PASSWORD so it need not appear in shell history.
func password() (string, error) {
	if flagPassword != "" {
		return flagPassword, nil
	}
	if env := os.Getenv("FILESMANAGER_PASSWORD"); env != "" {
		return env, nil
	}
	return "", fmt.Errorf("password required: use --password or FILESMANAGER_PASSWORD")
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Open a session and store its token",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		pw, err := password()
		if err != nil {
			return err
		}
		token, err := apiClient.Connect(flagEmail, pw)
		if err != nil {
			var apiErr *client.APIError
			if errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized {
				return fmt.Errorf("invalid email or password")
			}
			return fmt.Errorf("logging in: %w", err)
		}

		cfg.Token = token
		if err := clientconfig.Save(cfg); err != nil {
			return fmt.Errorf("saving config: %w", err)
		}
		fmt.Fprintf(stdout, "Logged in as %s\n", flagEmail)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "End the session and forget its token",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.HasToken() {
			// The server may already have expired the session.
			if err := apiClient.Disconnect(); err != nil {
				var apiErr *client.APIError
				if !errors.As(err, &apiErr) || apiErr.Status != http.StatusUnauthorized {
					return fmt.Errorf("logging out: %w", err)
				}
			}
		}
		cfg.Token = ""
		if err := clientconfig.Save(cfg); err != nil {
			return fmt.Errorf("saving config: %w", err)
		}
		fmt.Fprintln(stdout, "Logged out.")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the logged-in user",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAuth(); err != nil {
			return err
		}
		user, err := apiClient.Me()
		if err != nil {
			return fmt.Errorf("fetching user: %w", err)
		}
		if flagJSON {
			output.JSON(stdout, user)
			return nil
		}
		output.UserInfo(stdout, *user)
		return nil
	},
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		pw, err := password()
		if err != nil {
			return err
		}
		user, err := apiClient.Register(flagEmail, pw)
		if err != nil {
			return fmt.Errorf("registering: %w", err)
		}
		if flagJSON {
			output.JSON(stdout, user)
			return nil
		}
		fmt.Fprintf(stdout, "Registered %s (%s)\n", user.Email, user.ID)
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{loginCmd, registerCmd} {
		c.Flags().StringVarP(&flagEmail, "email", "e", "", "Account email")
		c.Flags().StringVarP(&flagPassword, "password", "p", "", "Account password")
		_ = c.MarkFlagRequired("email")
	}
	rootCmd.AddCommand(loginCmd, logoutCmd, whoamiCmd, registerCmd)
}
