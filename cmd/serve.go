package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"taskproxy/internal/bootstrap"
	"taskproxy/internal/bootstrap/logging"
	"taskproxy/internal/errs"
	"taskproxy/internal/transport/httpapi"
	"taskproxy/internal/usecase/tasks"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP proxy server",
	RunE: withApp(func(cmd *cobra.Command, app *bootstrap.App, svc *tasks.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		// Schema is ensured on boot so a fresh deployment serves without a
		// separate init-db step.
		if err := app.InitSchema(ctx); err != nil {
			return errs.Wrap(err, "initialize schema")
		}

		listen, _ := cmd.Flags().GetString("listen")
		if listen == "" {
			listen = app.Config.Server.Listen
		}

		server := &http.Server{
			Addr:        listen,
			Handler:     httpapi.NewRouter(svc),
			BaseContext: func(net.Listener) context.Context { return ctx },
		}

		notifyCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		serveErr := make(chan error, 1)
		go func() {
			logging.Info(ctx, "http server listening", slog.String("addr", listen))
			serveErr <- server.ListenAndServe()
		}()

		select {
		case err := <-serveErr:
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				return errs.Wrap(err, "serve http")
			}
			return nil
		case <-notifyCtx.Done():
		}

		logging.Info(ctx, "shutting down http server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return errs.Wrap(err, "shutdown http server")
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("listen", "", "Listen address (overrides server.listen)")
}
