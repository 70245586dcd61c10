package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"
	"github.com/diagdex/diagdex"
	"github.com/diagdex/diagdex/fs"
	"github.com/diagdex/diagdex/gemini"
	"github.com/diagdex/diagdex/htmltomarkdown"
	dhttp "github.com/diagdex/diagdex/http"
	"github.com/diagdex/diagdex/ingest"
	"github.com/diagdex/diagdex/qdrant"
	"github.com/diagdex/diagdex/search"
	dslog "github.com/diagdex/diagdex/slog"
	"github.com/diagdex/diagdex/sqlite"
	"github.com/joho/godotenv"
	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

func main() {
	ctx := context.Background()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// Database path. Set before calling Run().
	DBPath string

	// SQLite database holding the description cache and run records.
	DB *sqlite.DB
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{
		DBPath: defaultDBPath(),
	}
}

// Close gracefully stops the program.
func (m *Main) Close() error {
	if m.DB != nil {
		return m.DB.Close()
	}
	return nil
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	// A .env file in the working directory supplies API keys and
	// connection settings; its absence is fine.
	_ = godotenv.Load()

	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("diagdex"),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}), // Don't exit on help
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'diagdex --help' to see available commands")
	}

	cmd := args[0]
	if cmd == "help" || cmd == "--help" || cmd == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(stderr, nil))

	m.DB = sqlite.NewDB(m.DBPath)
	if err := m.DB.Open(); err != nil {
		fmt.Fprintf(stderr, "Hint: Set DIAGDEX_DB to use a different database path\n")
		return fmt.Errorf("failed to open database at %q: %w", m.DBPath, err)
	}
	defer m.Close()

	deps.Runs = sqlite.NewRunStore(m.DB)

	if cmd == "ingest" || cmd == "query" || cmd == "delete" {
		store := qdrant.NewStore(qdrant.Config{
			URL:        envOr("QDRANT_URL", "http://localhost:6333"),
			APIKey:     os.Getenv("QDRANT_API_KEY"),
			Collection: envOr("QDRANT_COLLECTION", "diagdex"),
			Dimension:  gemini.DefaultDimension,
		})
		if cmd == "ingest" {
			if err := store.Init(ctx); err != nil {
				fmt.Fprintln(stderr, "Hint: Check QDRANT_URL points at a running Qdrant instance")
				return fmt.Errorf("failed to initialize index: %w", err)
			}
		}
		deps.Store = dslog.NewLoggingStore(store, logger)
	}

	if cmd == "ingest" || cmd == "query" {
		apiKey := os.Getenv("GEMINI_API_KEY")
		if apiKey == "" {
			fmt.Fprintln(stderr, "GEMINI_API_KEY environment variable not set. Get an API key at https://aistudio.google.com/apikey")
			return fmt.Errorf("GEMINI_API_KEY not set. Get a key at https://aistudio.google.com/apikey")
		}

		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  apiKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			fmt.Fprintln(stderr, "Hint: Check your GEMINI_API_KEY is valid")
			return fmt.Errorf("failed to connect to Gemini API: %w", err)
		}

		embedder := gemini.NewEmbedder(client, gemini.DefaultEmbedModel, gemini.DefaultDimension)

		if cmd == "ingest" {
			describer := dslog.NewLoggingDescriber(gemini.NewDescriber(client, gemini.DefaultDescribeModel), logger)
			cache := sqlite.NewDescriptionCache(m.DB)
			limiter := rate.NewLimiter(rate.Limit(describeRequestsPerSecond), 1)

			fetcher := dslog.NewLoggingFetcher(dhttp.NewFetcher(), logger)
			defer fetcher.Close()
			web := dhttp.NewSource(fetcher, htmltomarkdown.NewConverter())

			tokenCounter, err := gemini.NewTokenCounter(tokenizerModel)
			if err != nil {
				return fmt.Errorf("failed to create token counter: %w", err)
			}

			deps.Ingestor = &ingest.Ingestor{
				Source:       NewCompositeSource(web, fs.NewSource()),
				Detector:     diagdex.NewDetector(),
				Chunker:      diagdex.NewChunker(),
				Descriptions: ingest.NewDescriptionResolver(describer, cache, limiter, nil),
				Embedder:     embedder,
				Store:        deps.Store,
				Runs:         deps.Runs,
				TokenCounter: tokenCounter,
				Logger:       logger,
			}
		}

		if cmd == "query" {
			deps.Searcher = &search.Searcher{
				Embedder: embedder,
				Store:    deps.Store,
			}
		}
	}

	return kongCtx.Run(deps)
}

// describeRequestsPerSecond paces vision calls below the free-tier
// rate limit.
const describeRequestsPerSecond = 2

// tokenizerModel is used for token counting.
const tokenizerModel = "gemini-2.5-flash"

func defaultDBPath() string {
	if path := os.Getenv("DIAGDEX_DB"); path != "" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "diagdex.db"
	}
	dir := filepath.Join(home, ".diagdex")
	_ = os.MkdirAll(dir, 0755)
	return filepath.Join(dir, "diagdex.db")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
