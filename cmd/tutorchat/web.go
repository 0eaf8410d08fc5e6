package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ashureev/tutor-chat/internal/api"
	"github.com/ashureev/tutor-chat/internal/chat"
	"github.com/ashureev/tutor-chat/internal/config"
	"github.com/ashureev/tutor-chat/internal/middleware"
	"github.com/ashureev/tutor-chat/internal/webview"
	"github.com/ashureev/tutor-chat/web"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func newWebCmd(cfg **config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "web",
		Short: "Serve the chat in a browser",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runWeb(ctx, *cfg)
		},
	}
}

func runWeb(ctx context.Context, cfg *config.Config) error {
	d, err := openDeps(ctx, cfg)
	if err != nil {
		slog.Error("Failed to initialize", "error", err)
		return err
	}
	defer d.close()

	hub := webview.NewHub(slog.Default())
	ctrl, err := chat.NewController(chat.Config{
		Backend:              d.client,
		Sessions:             d.sessions,
		Views:                chat.ViewsOf(hub),
		ErrorDisplayDuration: cfg.ErrorDisplayDuration,
		Logger:               slog.Default(),
	})
	if err != nil {
		return err
	}

	// Turns get their own context so a shutdown lets in-flight requests finish.
	turnCtx, cancelTurns := context.WithCancel(context.WithoutCancel(ctx))
	defer cancelTurns()
	wsHandler := webview.NewHandler(turnCtx, hub, ctrl, cfg.Web.AllowedOrigins, slog.Default())
	apiHandler := api.NewHandler(hub, d.sessions, d.store, slog.Default())

	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/ping"))
	r.Use(middleware.CORS(cfg.Web.AllowedOrigins))

	apiHandler.RegisterRoutes(r)
	wsHandler.RegisterRoutes(r)
	r.Handle("/*", web.Handler())

	// No WriteTimeout: websocket connections are long-lived.
	srv := &http.Server{
		Addr:        cfg.Web.Addr,
		Handler:     r,
		ReadTimeout: 30 * time.Second,
		IdleTimeout: 120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("Browser view listening", "addr", srv.Addr, "api_url", cfg.APIBaseURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		ctrl.Start(gctx)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("Shutting down gracefully...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server forced to shutdown", "error", err)
			return err
		}

		done := make(chan struct{})
		go func() {
			wsHandler.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-shutdownCtx.Done():
			slog.Warn("Abandoning in-flight chat turns")
			cancelTurns()
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		slog.Error("Browser view failed", "error", err)
		return err
	}
	slog.Info("Server stopped successfully")
	return nil
}
