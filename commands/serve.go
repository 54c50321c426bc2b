package commands

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"leadprep/api"
	"leadprep/services"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the file management API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			srv := api.NewServer(a.logger)
			srv.Files = services.NewFileService(a.store, a.logger)
			srv.Reshaper = a.reshaper()
			srv.Pusher = a.pusher()
			srv.Summary = services.NewSummaryService(a.store, a.logger)
			srv.MaxUploadBytes = a.cfg.MaxUploadBytes()
			srv.CORSOrigins = a.cfg.CORSOrigins
			if a.pushLog != nil {
				srv.History = a.pushLog
			}

			httpServer := &http.Server{
				Addr:              a.cfg.ServerAddr,
				Handler:           srv.Routes(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				a.logger.Info("[api] listening on %s", a.cfg.ServerAddr)
				if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			a.logger.Info("[api] shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				return err
			}
			a.logger.Info("[api] server stopped")
			return nil
		},
	}
}
