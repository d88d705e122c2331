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

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/banner"

	"github.com/perbu/pdfqa/pkg/app"
	"github.com/perbu/pdfqa/pkg/config"
	"github.com/perbu/pdfqa/pkg/embedder"
	"github.com/perbu/pdfqa/pkg/generator"
	"github.com/perbu/pdfqa/pkg/pdfqa"
)

const version = "0.1.0"

var errUsage = errors.New("usage")

func main() {
	if err := run(); err != nil {
		switch {
		case errors.Is(err, errUsage):
			if err != errUsage {
				fmt.Fprintf(os.Stderr, "\nError: %v\n", err)
			}
		default:
			report(err)
		}
		os.Exit(1)
	}
}

func run() error {
	// Parse command line flags
	configPath := flag.String("config", "", "path to a TOML config file")
	indexPath := flag.String("index", "", "load a prebuilt index (see pdfqa-index) instead of embedding the PDF")
	top := flag.Int("k", 0, "number of chunks to retrieve per question (default from config)")
	verbose := flag.Bool("verbose", false, "enable verbose output for debugging")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: pdfqa [options] <file.pdf>\n")
		fmt.Fprintf(os.Stderr, "       pdfqa [options] -index <index.gob>\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	pdfPath, err := documentArg(*indexPath, flag.Args())
	if err != nil {
		flag.Usage()
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, logger, err := app.Setup(*configPath, *verbose)
	if err != nil {
		return err
	}
	if *top > 0 {
		cfg.Retrieval.TopK = *top
	}

	banner.PrintSimple("pdfqa", version)

	emb, err := embedder.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if closer, ok := emb.(io.Closer); ok {
		defer closer.Close()
	}

	gen, err := generator.New(ctx, cfg, logger)
	if err != nil {
		return err
	}

	var index *pdfqa.VectorIndex
	if *indexPath != "" {
		index, err = loadIndex(*indexPath, cfg, emb)
	} else {
		index, err = buildIndex(ctx, cfg, logger, emb, pdfPath)
	}
	if err != nil {
		if ctx.Err() != nil {
			fmt.Println("\nExiting...")
			return nil
		}
		return err
	}

	retriever := pdfqa.NewRetriever(index, emb, pdfqa.RetrieverOptions{
		Timeout: cfg.RequestTimeout(),
		Logger:  logger,
	})
	session := pdfqa.NewSession(retriever, gen, app.SessionOptions(cfg, logger))

	runLoop(ctx, os.Stdin, os.Stdout, os.Stderr, session, cfg.Retrieval.PreviewChars)
	return nil
}

// documentArg returns the PDF to index. A prebuilt index replaces the PDF
// argument, so giving both is a usage error.
func documentArg(indexPath string, args []string) (string, error) {
	switch {
	case indexPath != "" && len(args) == 0:
		return "", nil
	case indexPath != "":
		return "", fmt.Errorf("%w: -index and a PDF path are mutually exclusive", errUsage)
	case len(args) != 1:
		return "", errUsage
	}
	return args[0], nil
}

func buildIndex(ctx context.Context, cfg *config.Config, logger arbor.ILogger, emb embedder.Embedder, path string) (*pdfqa.VectorIndex, error) {
	fmt.Println("Loading PDF...")
	doc, chunks, err := app.LoadChunks(ctx, cfg, logger, path)
	if err != nil {
		return nil, err
	}
	fmt.Printf("Loaded %d pages\n", len(doc.Pages))
	fmt.Printf("Split into %d chunks\n", len(chunks))

	fmt.Println("Creating embeddings...")
	index, err := pdfqa.Build(ctx, chunks, emb, app.BuildOptions(cfg, logger, emb.ModelInfo()))
	if err != nil {
		return nil, err
	}
	fmt.Println("Vector index created")

	return index, nil
}

func loadIndex(path string, cfg *config.Config, emb embedder.Embedder) (*pdfqa.VectorIndex, error) {
	fmt.Printf("Loading index from %s...\n", path)
	snap, err := pdfqa.LoadSnapshotFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading index: %w", err)
	}
	if err := app.CheckSnapshot(snap, cfg, emb.ModelInfo()); err != nil {
		return nil, &config.ConfigurationError{Field: "index", Message: "rebuild it with pdfqa-index", Err: err}
	}

	index, err := pdfqa.LoadIndex(snap)
	if err != nil {
		return nil, fmt.Errorf("loading index: %w", err)
	}
	fmt.Printf("Loaded %d chunks from %s\n", index.Len(), snap.Source)

	return index, nil
}

func report(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	if hint := app.Hint(err); hint != "" {
		fmt.Fprintf(os.Stderr, "Hint: %s\n", hint)
	}
}
