// Package commands holds the cobra command tree: the server processes
// (serve, worker) and the client commands that talk to a running server.
package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/filesmanager/backend/internal/client"
	"github.com/filesmanager/backend/internal/clientconfig"
	"github.com/spf13/cobra"
)

var (
	flagJSON      bool
	flagServerURL string

	cfg       *clientconfig.Config
	apiClient *client.Client

	stdout io.Writer = os.Stdout
)

var rootCmd = &cobra.Command{
	Use:   "filesmanager",
	Short: "Personal file storage: API server, thumbnail worker and client",
	Long: `filesmanager stores files and folders per user, serves them over HTTP
and generates image thumbnails in the background.

Server:
  filesmanager serve                 Start the HTTP API
  filesmanager serve --with-worker   Start the API and the job consumers together
  filesmanager worker                Start the job consumers only

Client:
  filesmanager register -e a@x.com -p secret
  filesmanager login -e a@x.com -p secret
  filesmanager upload photo.png --parent <folder id>`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = clientconfig.Load()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if flagServerURL != "" {
			cfg.ServerURL = flagServerURL
		}
		apiClient = client.NewClient(cfg.ServerURL, cfg.Token)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "Output as JSON")
	rootCmd.PersistentFlags().StringVar(&flagServerURL, "server", "", "Override server URL (default: from config or "+clientconfig.DefaultURL+")")
}

func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

func requireAuth() error {
	if cfg == nil || !cfg.HasToken() {
		return fmt.Errorf("not authenticated: run \"filesmanager login\" first")
	}
	return nil
}
