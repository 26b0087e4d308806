package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/pagewise/internal/adapters/driving/httpapi"
	"github.com/custodia-labs/pagewise/internal/logger"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the JSON HTTP API",
	Long: `Starts an HTTP server exposing the pipeline:

  POST /v1/ingest  {"url": "..."}
  POST /v1/ask     {"question": "..."}
  GET  /healthz

Prompt files under the config directory are reloaded when they change.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", httpapi.DefaultAddr, "listen address")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	rt, err := openRuntime(cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	go func() {
		if err := rt.WatchPrompts(cmd.Context()); err != nil {
			logger.Warn("prompt watcher stopped: %v", err)
		}
	}()

	server := httpapi.NewServer(httpapi.Config{
		ListenAddr: serveAddr,
		Index:      rt.Settings.Index.Name,
	}, rt.Pipeline)

	cmd.Printf("pagewise API listening on http://%s\n", serveAddr)
	return server.Run(cmd.Context())
}
