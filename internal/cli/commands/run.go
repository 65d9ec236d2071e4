package commands

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/conduit-lang/manifold/internal/orm/connect"
)

// shutdownTimeout bounds graceful shutdown after a signal
const shutdownTimeout = 10 * time.Second

func newRunCommand(a *app) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Serve the routes of every installed component",
		Long: `Populate the registry, open the configured databases, mount every
component's routes below server.root_path and start the HTTP server.
Ctrl+C shuts it down gracefully and closes the databases.`,
		Example: `  manifold run
  manifold run --port 8080`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			reg, err := a.populate(ctx, cmd)
			if err != nil {
				return err
			}

			conns, err := a.cfg.Connections()
			if err != nil {
				return err
			}
			connector := connect.NewConnector(conns, connect.WithLogger(a.logger))
			if err := connector.Open(ctx); err != nil {
				connector.Close()
				return err
			}
			defer connector.Close()

			r, err := a.mountRoutes(reg)
			if err != nil {
				return err
			}

			// Use config port if not overridden
			if cmd.Flags().Changed("port") {
				a.cfg.Server.Port = port
			}
			addr := a.cfg.Server.Addr()

			srv := &http.Server{
				Addr:              addr,
				Handler:           r,
				ReadHeaderTimeout: 10 * time.Second,
			}

			out := cmd.OutOrStdout()
			color.New(color.FgGreen, color.Bold).Fprintf(out, "Serving %d routes on http://%s%s\n",
				len(r.Routes()), addr, a.cfg.Server.RootPath)

			errCh := make(chan error, 1)
			go func() {
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-ctx.Done():
			}

			color.New(color.FgCyan).Fprintln(out, "Shutting down server...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				a.logger.Warn("shutdown timeout - closing connections", zap.Error(err))
				return srv.Close()
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 3000, "Port to serve on (default from server.port)")
	return cmd
}
