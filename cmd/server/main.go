package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/docthemes/internal/api"
	"github.com/dgallion1/docthemes/internal/cache"
	"github.com/dgallion1/docthemes/internal/chunker"
	"github.com/dgallion1/docthemes/internal/chunkstore"
	"github.com/dgallion1/docthemes/internal/config"
	"github.com/dgallion1/docthemes/internal/extract"
	"github.com/dgallion1/docthemes/internal/ingest"
	"github.com/dgallion1/docthemes/internal/llm"
	"github.com/dgallion1/docthemes/internal/parser"
	"github.com/dgallion1/docthemes/internal/pipeline"
	"github.com/dgallion1/docthemes/internal/synth"
	"github.com/dgallion1/docthemes/internal/theme"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		log.Error("load configuration", "error", err)
		os.Exit(1)
	}
	if err := cfg.ValidateServer(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize clients.
	stats := llm.NewLLMStats(time.Hour)
	client, err := llm.NewFromConfig(cfg, stats, log)
	if err != nil {
		log.Error("llm client", "error", err)
		os.Exit(1)
	}

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		log.Error("chunk store", "store", cfg.ChunkStore, "error", err)
		os.Exit(1)
	}
	defer closeStore()

	var results *cache.RedisCache
	pipeOpts := pipeline.Options{
		TopK:                 cfg.TopK,
		MaxConcurrentExtract: cfg.MaxConcurrentExtract,
		QueryTimeout:         cfg.QueryTimeout,
	}
	ingestOpts := ingest.Options{
		WorkerCount:        cfg.WorkerCount,
		MaxQueueSize:       cfg.MaxQueueSize,
		MaxConcurrentStore: cfg.MaxConcurrentStore,
		JobTTL:             cfg.JobTTL,
		Chunk: chunker.Config{
			ChunkSize:    cfg.DefaultChunkSize,
			ChunkOverlap: cfg.DefaultChunkOverlap,
			MinChunk:     1,
		},
		Parser: parser.Options{PdftotextFallback: cfg.PDFFallbackPdftotext},
	}
	deps := api.Deps{Store: store, LLM: client, Stats: stats}
	if cfg.RedisURL != "" {
		results, err = cache.Open(ctx, cfg.RedisURL, cfg.CacheTTL)
		if err != nil {
			log.Error("result cache", "error", err)
			os.Exit(1)
		}
		defer results.Close()
		pipeOpts.Cache = results
		ingestOpts.Cache = results
		deps.Cache = results
	}

	// Initialize pipelines.
	deps.Pipeline = pipeline.New(store,
		extract.New(client, log),
		theme.New(client, log),
		synth.New(client, log),
		pipeOpts, log)

	ingestor := ingest.New(store, ingestOpts, log)
	ingestor.Start(ctx)
	deps.Ingestor = ingestor

	// Initialize HTTP server.
	srv := api.NewServer(deps, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.QueryTimeout + 60*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		ingestor.Stop()
	}()

	log.Info("starting docthemes",
		"port", cfg.Port,
		"llm_provider", cfg.LLMProvider,
		"llm_model", client.Model(),
		"chunk_store", cfg.ChunkStore,
		"cache", cfg.RedisURL != "",
	)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}

func openStore(ctx context.Context, cfg config.Config) (chunkstore.Store, func(), error) {
	if cfg.ChunkStore != config.StorePostgres {
		return chunkstore.NewMemoryStore(), func() {}, nil
	}
	pg, err := chunkstore.OpenPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	if err := pg.InitSchema(ctx); err != nil {
		pg.Close()
		return nil, nil, err
	}
	return pg, func() { pg.Close() }, nil
}
