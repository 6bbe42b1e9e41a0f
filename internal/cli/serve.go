package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/riglink/pkg/api"
)

// shutdownTimeout bounds the graceful stop of `riglink serve`.
const shutdownTimeout = 10 * time.Second

// serveCommand creates the serve command for the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP JSON API",
		Long: `Serve exposes scenes, controllers and bindings over HTTP. Every mutating
request is saved as one undo step, so clients can revert it with
POST /scenes/{scene}/undo.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return c.withWorkspace(ctx, func(ws *workspace) error {
				if addr == "" {
					addr = ws.cfg.Server.Addr
				}
				srv, err := api.NewServer(api.ServerConfig{
					Addr:   addr,
					Scenes: ws.scenes,
					Runner: ws.runner,
					Logger: c.Logger,
				})
				if err != nil {
					return err
				}

				errc := make(chan error, 1)
				go func() { errc <- srv.Start() }()
				printSuccess("Listening on %s", StyleHighlight.Render("http://"+srv.Addr()))
				printDetail("store: %s", ws.cfg.Store.Backend)

				select {
				case err := <-errc:
					return err
				case <-ctx.Done():
				}
				stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				if err := srv.Stop(stopCtx); err != nil {
					return err
				}
				return <-errc
			})
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, 127.0.0.1:8427)")

	return cmd
}
