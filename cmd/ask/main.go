package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

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
	"github.com/dgallion1/docthemes/internal/tui"
)

func main() {
	var cfgPath, logPath string
	flag.StringVar(&cfgPath, "config", "", "YAML config file (overrides environment)")
	flag.StringVar(&logPath, "log", "", "write JSON logs to this file")
	flag.Parse()
	inputs := flag.Args()
	if len(inputs) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: ask [-config file.yaml] [-log ask.log] file1.pdf [file2.md ...]")
		os.Exit(2)
	}

	if cfgPath != "" {
		os.Setenv("CONFIG_FILE", cfgPath)
	}
	cfg, err := config.Load()
	if err != nil {
		fatal(err)
	}
	if err := cfg.Validate(); err != nil {
		fatal(err)
	}

	var logOut io.Writer = io.Discard
	if logPath != "" {
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			fatal(err)
		}
		defer f.Close()
		logOut = f
	}
	log := slog.New(slog.NewJSONHandler(logOut, nil))

	ctx := context.Background()
	client, err := llm.NewFromConfig(cfg, llm.NewLLMStats(time.Hour), log)
	if err != nil {
		fatal(err)
	}

	store := chunkstore.NewMemoryStore()
	summary, err := ingestFiles(ctx, store, cfg, log, inputs)
	if err != nil {
		fatal(err)
	}

	p := pipeline.New(store,
		extract.New(client, log),
		theme.New(client, log),
		synth.New(client, log),
		pipeline.Options{
			TopK:                 cfg.TopK,
			MaxConcurrentExtract: cfg.MaxConcurrentExtract,
			QueryTimeout:         cfg.QueryTimeout,
		}, log)

	m := tui.New(ctx, p, summary)
	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		fatal(err)
	}
}

// ingestFiles loads every path synchronously. Individual failures are
// reported and skipped; it errors only when nothing was stored.
func ingestFiles(ctx context.Context, store chunkstore.Store, cfg config.Config, log *slog.Logger, paths []string) (string, error) {
	in := ingest.New(store, ingest.Options{
		MaxConcurrentStore: cfg.MaxConcurrentStore,
		Chunk: chunker.Config{
			ChunkSize:    cfg.DefaultChunkSize,
			ChunkOverlap: cfg.DefaultChunkOverlap,
			MinChunk:     1,
		},
		Parser: parser.Options{PdftotextFallback: cfg.PDFFallbackPdftotext},
	}, log)

	var stored, chunks, skipped int
	var failed []string
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			failed = append(failed, fmt.Sprintf("%s: %v", path, err))
			continue
		}
		snap, err := in.IngestNow(ctx, ingest.NewJob(filepath.Base(path), data))
		if err != nil {
			failed = append(failed, err.Error())
			continue
		}
		if snap.Status == ingest.StatusDupSkipped {
			skipped++
			continue
		}
		stored++
		chunks += snap.Progress.ChunksStored
	}

	for _, f := range failed {
		fmt.Fprintln(os.Stderr, "skipped:", f)
	}
	if stored == 0 {
		return "", fmt.Errorf("no documents ingested (%d failed, %d duplicates)", len(failed), skipped)
	}

	parts := []string{fmt.Sprintf("%d documents, %d chunks", stored, chunks)}
	if skipped > 0 {
		parts = append(parts, fmt.Sprintf("%d duplicates", skipped))
	}
	if len(failed) > 0 {
		parts = append(parts, fmt.Sprintf("%d failed", len(failed)))
	}
	return strings.Join(parts, ", "), nil
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "ask:", err)
	os.Exit(1)
}
