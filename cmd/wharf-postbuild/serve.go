package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/iver-wharf/wharf-postbuild/pkg/badgeapi"
	"github.com/spf13/cobra"
)

var serveFlags = struct {
	bind string
}{}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serves builds, badges and summaries over HTTP",
	Long: `Starts a read-only HTTP API over the build store, letting UIs render
the badges and summaries that post-build scripts added to builds.

Runs until terminated, such as via SIGTERM.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(rootConfig.Store)
		if err != nil {
			return fmt.Errorf("open build store: %w", err)
		}
		defer store.Close()

		httpConfig := rootConfig.HTTP
		if serveFlags.bind != "" {
			httpConfig.BindAddress = serveFlags.bind
		}
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return badgeapi.Serve(ctx, store, httpConfig.badgeAPIConfig())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveFlags.bind, "bind", "", "Overrides the bind address, such as 0.0.0.0:5020")
}
