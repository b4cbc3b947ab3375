// Command focusd runs the webcam focus detection server: a browser
// posts frames to /analyze, the configured vision backend classifies
// them, and the normalized verdict is returned as JSON.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/apex/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/codexvision/focusd/infrastructure/metrics"
	"github.com/codexvision/focusd/infrastructure/vision"
	"github.com/codexvision/focusd/internal/analysis"
	"github.com/codexvision/focusd/internal/config"
	"github.com/codexvision/focusd/internal/llamacpp"
	"github.com/codexvision/focusd/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("configuration error: %v", err)
	}
	if level, err := log.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatalf("focusd: %v", err)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	collector := metrics.NewPrometheusMetrics()

	// A local llama-server is spawned and health-checked before the
	// client is built against it.
	var supervisor *llamacpp.Supervisor
	if cfg.Backend == "llamacpp" && cfg.LlamaAutostart {
		supervisor = llamacpp.NewSupervisor(llamacpp.Options{
			Bin:          cfg.LlamaBin,
			ModelPath:    cfg.LlamaModelPath,
			MMProjPath:   cfg.LlamaMMProjPath,
			ExtraArgs:    cfg.LlamaArgs,
			StartTimeout: cfg.LlamaStartTimeout,
		})
		if err := supervisor.Ensure(ctx); err != nil {
			return fmt.Errorf("llama-server: %w", err)
		}
		defer supervisor.Stop()
		if cfg.BaseURL == "" {
			cfg.BaseURL = supervisor.BaseURL()
		}
	}

	middleware := []vision.Middleware{
		vision.TracingMiddleware(cfg.Backend),
		vision.MetricsMiddleware(cfg.Backend, collector),
		vision.TimeoutMiddleware(cfg.Timeout),
	}
	if cfg.RateLimit > 0 {
		middleware = append(middleware, vision.RateLimitMiddleware(rate.Limit(cfg.RateLimit), cfg.RateBurst))
	}

	client, err := vision.NewClient(cfg.Backend, vision.ClientConfig{
		APIKey:     cfg.APIKey,
		Model:      cfg.Model,
		BaseURL:    cfg.BaseURL,
		Timeout:    cfg.Timeout,
		Middleware: middleware,
	})
	if err != nil {
		return err
	}
	log.Infof("using %s backend, model %q", cfg.Backend, client.GetModel())

	vocab, err := cfg.Vocabulary()
	if err != nil {
		log.WithError(err).Warn("falling back to default vocabulary")
	}

	service := analysis.NewService(
		client,
		analysis.NewGate(),
		analysis.NewNormalizer(vocab),
		collector,
		analysis.ServiceConfig{
			Mode:         analysis.Mode(cfg.Mode),
			MaxTokens:    cfg.MaxTokens,
			Temperature:  cfg.Temperature,
			Stream:       cfg.Stream,
			UseSchema:    cfg.UseSchema,
			SchemaOption: schemaOptionFor(cfg.Backend),
		},
	)

	handler := server.NewHandler(service, cfg.Backend, client.GetModel(), cfg.Mode)
	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler: server.NewRouter(handler),
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Infof("listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// schemaOptionFor names the request option the backend reads its
// response schema from.
func schemaOptionFor(backend string) string {
	if backend == "ollama" {
		return vision.OptFormat
	}
	return vision.OptResponseSchema
}
