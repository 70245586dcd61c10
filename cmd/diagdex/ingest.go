package main

import (
	"fmt"
	"os"

	"github.com/diagdex/diagdex/fs"
	"github.com/diagdex/diagdex/ingest"
)

// Run executes the ingest command.
func (c *IngestCmd) Run(deps *Dependencies) error {
	sourceIDs, err := expandSources(c.Sources)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %v\n", err)
		return err
	}
	if len(sourceIDs) == 0 {
		fmt.Fprintln(deps.Stdout, "No documents to ingest.")
		return nil
	}

	if c.Concurrency > 0 {
		deps.Ingestor.Concurrency = c.Concurrency
	}

	progress := func(event ingest.ProgressEvent) {
		switch event.Type {
		case ingest.ProgressStarted:
			fmt.Fprintf(deps.Stdout, "Ingesting %d documents\n", event.Total)
		case ingest.ProgressSkipped:
			fmt.Fprintf(deps.Stderr, "  skip %s: %v\n", event.SourceID, event.Error)
		case ingest.ProgressFailed:
			fmt.Fprintf(deps.Stderr, "  fail %s: %v\n", event.SourceID, event.Error)
		}
	}

	result, err := deps.Ingestor.Ingest(deps.Ctx, sourceIDs, progress)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error ingesting: %v\n", err)
		return err
	}

	fmt.Fprintf(deps.Stdout, "  Indexed %d documents (%d chunks, %d diagrams, %d fallbacks, %s)\n",
		result.Indexed, result.Chunks, result.Diagrams, result.Fallbacks, formatTokens(result.Tokens))
	if result.Skipped > 0 || result.Failed > 0 {
		fmt.Fprintf(deps.Stdout, "  Skipped %d, failed %d (run %s for details)\n",
			result.Skipped, result.Failed, statusHint(result.RunID))
	}
	return nil
}

// expandSources replaces directory arguments with the text files they
// contain; URLs and plain files pass through unchanged.
func expandSources(sources []string) ([]string, error) {
	var ids []string
	for _, src := range sources {
		if isURL(src) {
			ids = append(ids, src)
			continue
		}
		info, err := os.Stat(src)
		if err == nil && info.IsDir() {
			found, err := fs.Discover(src)
			if err != nil {
				return nil, err
			}
			ids = append(ids, found...)
			continue
		}
		ids = append(ids, src)
	}
	return ids, nil
}

// formatTokens formats a token count in human-readable form.
func formatTokens(tokens int) string {
	if tokens < 1000 {
		return fmt.Sprintf("~%d tokens", tokens)
	}
	return fmt.Sprintf("~%dk tokens", (tokens+500)/1000)
}

func statusHint(runID string) string {
	if runID == "" {
		return "'diagdex status'"
	}
	return fmt.Sprintf("'diagdex status %s'", runID)
}
