package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/spf13/cobra"

	"github.com/Vasu1712/sceneitem-widget/internal/api/widgets"
	"github.com/Vasu1712/sceneitem-widget/internal/logging"
	"github.com/Vasu1712/sceneitem-widget/internal/middleware"
	"github.com/Vasu1712/sceneitem-widget/internal/obs"
	"github.com/Vasu1712/sceneitem-widget/internal/widget"
	"github.com/Vasu1712/sceneitem-widget/internal/ws"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Mount the widget and serve the dashboard API",
		Long: `Connects to OBS, mounts the widget for the configured instance and serves
the dashboard HTTP API with a websocket stream of every render.

Examples:
  sceneitem serve
  sceneitem serve --config ./sceneitem.yml -v
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts)
		},
	}
}

func runServe(ctx context.Context, opts *rootOptions) error {
	cfg, err := opts.load()
	if err != nil {
		return err
	}
	logger := logging.NewLogger("server")

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openProps(ctx, cfg.Props)
	if err != nil {
		return err
	}
	defer closeStore()

	session, err := dialOBS(ctx, cfg.OBS, true)
	if err != nil {
		return err
	}
	go session.Run(ctx)

	hub := ws.NewHub()
	go hub.Run(ctx)

	w, err := newWidget(cfg, obs.NewClient(session), store,
		widget.MultiSink{widget.NewLogSink(), ws.NewSink(hub, cfg.Widget.InstanceID)})
	if err != nil {
		return err
	}

	router := mux.NewRouter()
	handler := widgets.NewHandler(w, store, hub, ws.Upgrader(cfg.Server.AllowedOrigin))
	widgets.RegisterWidgetRoutes(router, handler, middleware.RequireToken(cfg.Server.JWTSecret))
	if cfg.Server.JWTSecret == "" {
		logger.Warn("No JWT secret configured, write endpoints are unauthenticated")
	}

	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           middleware.CORS(cfg.Server.AllowedOrigin)(router),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 2)
	go func() {
		errc <- w.Run(ctx)
	}()
	go func() {
		logger.WithField("addr", cfg.Server.Addr).Info("Server started")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err = <-errc:
		stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if shutdownErr := server.Shutdown(shutdownCtx); shutdownErr != nil {
		logger.WithError(shutdownErr).Warn("Server shutdown failed")
	}
	logger.Info("Server stopped")
	return err
}
