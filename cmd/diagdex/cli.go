package main

import (
	"context"
	"io"

	"github.com/diagdex/diagdex"
	"github.com/diagdex/diagdex/ingest"
	"github.com/diagdex/diagdex/search"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx    context.Context
	Stdout io.Writer
	Stderr io.Writer

	Ingestor *ingest.Ingestor
	Searcher *search.Searcher
	Runs     diagdex.RunStore
	Store    diagdex.VectorStore
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Ingest IngestCmd `cmd:"" help:"Ingest documents into the index"`
	Query  QueryCmd  `cmd:"" help:"Search the index with a hybrid query"`
	Status StatusCmd `cmd:"" help:"Show per-document outcomes of an ingestion run"`
	Delete DeleteCmd `cmd:"" help:"Delete a document's chunks from the index"`
}

// IngestCmd is the "ingest" subcommand. Sources are URLs or local file
// paths; a directory is expanded to the text files under it.
type IngestCmd struct {
	Sources     []string `arg:"" help:"Document URLs, file paths or directories"`
	Concurrency int      `short:"c" default:"4" env:"DIAGDEX_CONCURRENCY" help:"Concurrent document limit"`
}

// QueryCmd is the "query" subcommand.
type QueryCmd struct {
	Text    string  `arg:"" help:"Query text"`
	K       int     `short:"k" default:"10" help:"Number of results"`
	Weight  float64 `name:"dense-weight" short:"w" default:"0.5" env:"DIAGDEX_DENSE_WEIGHT" help:"Dense score weight in fusion (0..1)"`
	Verbose bool    `short:"v" help:"Show chunk text with each hit"`
}

// StatusCmd is the "status" subcommand.
type StatusCmd struct {
	RunID string `arg:"" optional:"" help:"Run id (defaults to the latest run)"`
}

// DeleteCmd is the "delete" subcommand.
type DeleteCmd struct {
	DocumentID string `arg:"" help:"Document id (source URL or path)"`
	Force      bool   `help:"Confirm deletion"`
}
