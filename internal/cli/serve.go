package cli

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"relgraph/internal/handler"
	"relgraph/internal/hub"
	"relgraph/internal/service"
	"relgraph/internal/watcher"
)

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		addr  string
		watch bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the relationship graph over HTTP with live updates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				rootOpts.Config.Server.Addr = addr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, rootOpts, watch)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "HTTP listen address (overrides server.addr)")
	cmd.Flags().BoolVar(&watch, "watch", false, "refresh when another process writes the database")
	return cmd
}

func runServe(ctx context.Context, opts *RootOptions, watch bool) error {
	logger := opts.Logger
	cfg := opts.Config

	logger.Info("Starting relgraph server", zap.String("config", cfg.Summary()))

	eventBus := service.NewEventBus()
	graph, s, err := opts.openGraph(ctx, eventBus)
	if err != nil {
		return err
	}
	defer s.Close()

	sseHub := hub.New(logger)

	// Connect event bus to SSE hub
	eventChan := make(chan service.Event, 100)
	eventBus.Subscribe(eventChan)
	defer eventBus.Unsubscribe(eventChan)

	mux := http.NewServeMux()
	handler.NewGraphHandler(graph, logger).Register(mux)
	mux.Handle("GET /events", sseHub)

	server := &http.Server{
		Addr: cfg.Server.Addr,
		Handler: handler.Chain(mux,
			handler.Recover(logger),
			handler.CORS(cfg.Server.CORSOrigin),
			handler.Logger(logger.Named("http")),
		),
		ReadTimeout:  cfg.Server.ReadTimeout.Duration(),
		WriteTimeout: cfg.Server.WriteTimeout.Duration(),
		IdleTimeout:  cfg.Server.IdleTimeout.Duration(),
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		sseHub.Run(gctx)
		return nil
	})

	g.Go(func() error {
		for {
			select {
			case event := <-eventChan:
				sseHub.Broadcast(event)
			case <-gctx.Done():
				return nil
			}
		}
	})

	if watch && watcher.Watchable(cfg.Database.Path) {
		gate, err := watcher.NewVersionGate(ctx, s.DataVersion)
		if err != nil {
			return err
		}
		w := watcher.New(cfg.Database.Path, func() {
			if !gate.Changed(gctx) {
				return
			}
			if err := graph.Refresh(gctx); err != nil {
				logger.Warn("Refresh after external change failed", zap.Error(err))
			}
		}, logger)
		g.Go(func() error {
			if err := w.Watch(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	g.Go(func() error {
		logger.Info("Server listening", zap.String("addr", cfg.Server.Addr))
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Duration())
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", zap.Error(err))
		return err
	}

	logger.Info("Server stopped")
	return nil
}
