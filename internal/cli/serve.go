package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"civil-quiz/internal/metrics"
	transport "civil-quiz/internal/transport/http"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// NewServeCmd builds the CLI subcommand that serves the browser front end.
func NewServeCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:     "serve",
		Aliases: []string{"start"},
		Short:   "Serve the quiz over websockets",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	s, err := newStack(configPath)
	if err != nil {
		return err
	}
	defer s.close()
	cfg := s.cfg

	if cfg.Catalog.Source == "postgres" {
		if err := runMigrationsWithConfig(ctx, cfg, s.log); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	kv, err := s.identityKV()
	if err != nil {
		return err
	}
	catalog, err := s.catalog(ctx)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	wsHandler := transport.NewWSHandler(transport.Services{
		AuthClient:     s.authClient(),
		KV:             kv,
		Catalog:        catalog,
		Reporter:       s.reporter(),
		Metrics:        m,
		Log:            s.log,
		RedirectDelay:  s.redirectDelay(),
		RateLimit:      rate.Limit(cfg.RateLimit.PerSecond),
		Burst:          cfg.RateLimit.Burst,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	})

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	mux.HandleFunc("/ws", wsHandler.ServeWS)
	if cfg.Server.CatalogDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(cfg.Server.CatalogDir)))
	}

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		s.log.Info("starting quiz server", zap.String("addr", server.Addr), zap.String("catalog", cfg.Catalog.Source))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.Error("failed to start server", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		s.log.Info("shutting down server...")
	case <-ctx.Done():
		s.log.Info("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
