package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/perbu/pdfqa/pkg/app"
	"github.com/perbu/pdfqa/pkg/embedder"
	"github.com/perbu/pdfqa/pkg/pdfqa"
)

var errUsage = errors.New("usage")

func main() {
	if err := run(); err != nil {
		if !errors.Is(err, errUsage) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			if hint := app.Hint(err); hint != "" {
				fmt.Fprintf(os.Stderr, "Hint: %s\n", hint)
			}
		}
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to a TOML config file")
	outputPath := flag.String("o", "index.gob", "where to write the index")
	verbose := flag.Bool("verbose", false, "enable verbose output for debugging")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: pdfqa-index [options] <file.pdf>\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		return errUsage
	}
	pdfPath := flag.Arg(0)

	fmt.Println("pdfqa index builder")
	fmt.Println("===================")
	fmt.Println()

	// Interrupts cancel the build; nothing is written for a partial index.
	// With a cache configured, a rerun only embeds what is missing.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, logger, err := app.Setup(*configPath, *verbose)
	if err != nil {
		return err
	}

	// Step 1: Load and chunk the document
	fmt.Println("Step 1: Loading and chunking document...")
	doc, chunks, err := app.LoadChunks(ctx, cfg, logger, pdfPath)
	if err != nil {
		return err
	}
	fmt.Printf("  ✓ Loaded %d pages, split into %d chunks\n\n", len(doc.Pages), len(chunks))

	// Step 2: Initialize embedder
	fmt.Println("Step 2: Initializing embedder...")
	emb, err := embedder.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if closer, ok := emb.(io.Closer); ok {
		defer closer.Close()
	}
	fmt.Printf("  ✓ Embedder initialized (model=%s, dim=%d)\n\n", emb.ModelInfo(), emb.Dimension())

	// Step 3: Generate embeddings with progress
	fmt.Println("Step 3: Generating embeddings...")
	opts := app.BuildOptions(cfg, logger, emb.ModelInfo())
	opts.Progress = func(done, total int) {
		fmt.Printf("\r  Progress: %d/%d (%.1f%%)", done, total, float64(done)/float64(total)*100)
		if done == total {
			fmt.Println()
		}
	}

	index, err := pdfqa.Build(ctx, chunks, emb, opts)
	if err != nil {
		if ctx.Err() != nil {
			fmt.Println("\n\n⚠ Interrupted, no index written.")
		}
		return err
	}
	if cached, ok := emb.(*embedder.CachedEmbedder); ok {
		hits, misses := cached.Stats()
		fmt.Printf("  ✓ Generated %d embeddings (%d from cache)\n\n", index.Len(), hits)
		logger.Debug().Int64("hits", hits).Int64("misses", misses).Msg("Embedding cache stats")
	} else {
		fmt.Printf("  ✓ Generated %d embeddings\n\n", index.Len())
	}

	// Step 4: Save the index
	fmt.Println("Step 4: Saving index...")
	snap := index.Snapshot(pdfPath, cfg.Chunking.MaxSize, cfg.Chunking.Overlap)
	if err := pdfqa.SaveSnapshotFile(*outputPath, snap); err != nil {
		return fmt.Errorf("saving index: %w", err)
	}

	info, err := os.Stat(*outputPath)
	if err == nil {
		sizeMB := float64(info.Size()) / (1024 * 1024)
		fmt.Printf("  ✓ Saved to %s (%.2f MB)\n\n", *outputPath, sizeMB)
	}

	fmt.Println("Done! Ask questions with:")
	fmt.Printf("  pdfqa -index %s\n", *outputPath)
	return nil
}
