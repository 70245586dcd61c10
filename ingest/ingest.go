// Package ingest provides ingestion orchestration. It coordinates
// fetching, diagram detection, description resolution, chunking,
// embedding and index maintenance for a set of documents.
package ingest

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/diagdex/diagdex"
	"golang.org/x/sync/errgroup"
)

// Ingestor orchestrates ingestion runs over a document set.
type Ingestor struct {
	Source       diagdex.Source
	Detector     *diagdex.Detector
	Chunker      *diagdex.Chunker
	Descriptions *DescriptionResolver
	Embedder     diagdex.Embedder
	Store        diagdex.VectorStore
	Runs         diagdex.RunStore
	TokenCounter diagdex.TokenCounter
	Concurrency  int
	RetryDelays  []time.Duration

	// Logger records run bookkeeping failures that do not change a
	// document's outcome. Nil selects slog.Default.
	Logger *slog.Logger
}

func (in *Ingestor) logger() *slog.Logger {
	if in.Logger != nil {
		return in.Logger
	}
	return slog.Default()
}

// Result holds the aggregate outcome of an ingestion run.
type Result struct {
	RunID     string
	Indexed   int
	Skipped   int
	Failed    int
	Chunks    int
	Diagrams  int
	Fallbacks int
	Tokens    int
}

// ProgressEvent reports progress during an ingestion run.
type ProgressEvent struct {
	Type      ProgressType
	Completed int
	Total     int
	SourceID  string
	Error     error
}

// ProgressType indicates the type of progress event.
type ProgressType int

const (
	ProgressStarted ProgressType = iota
	ProgressCompleted
	ProgressSkipped
	ProgressFailed
	ProgressFinished
)

// ProgressFunc is a callback for reporting ingestion progress.
type ProgressFunc func(event ProgressEvent)

// Ingest processes every source id and maintains the index for each.
// One document's failure never aborts the run; per-document outcomes
// are recorded in the run store and summarized in the Result. The
// progress callback, if provided, receives events as ingestion
// proceeds.
func (in *Ingestor) Ingest(ctx context.Context, sourceIDs []string, progress ProgressFunc) (*Result, error) {
	run := &diagdex.Run{}
	if in.Runs != nil {
		if err := in.Runs.CreateRun(ctx, run); err != nil {
			return nil, err
		}
	}

	concurrency := in.Concurrency
	if concurrency <= 0 {
		concurrency = 4
	}

	total := len(sourceIDs)
	statusCh := make(chan *diagdex.DocumentStatus, total)

	var completed atomic.Int64

	if progress != nil {
		progress(ProgressEvent{Type: ProgressStarted, Total: total})
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	go func() {
		for _, id := range sourceIDs {
			// Cancellation is honored between documents; a document
			// already in flight runs to completion or fails on its own
			// context checks.
			if gctx.Err() != nil {
				break
			}
			id := id
			g.Go(func() error {
				statusCh <- in.processDocument(gctx, id)
				return nil
			})
		}
		_ = g.Wait()
		close(statusCh)
	}()

	result := &Result{RunID: run.ID}
	for status := range statusCh {
		completed.Add(1)

		if in.Runs != nil {
			// Recorded from the collection loop so the run store sees
			// one writer. A failed write loses one status row, not the
			// document: the index update already happened.
			if err := in.Runs.PutDocumentStatus(ctx, run.ID, status); err != nil {
				in.logger().Error("record document status",
					slog.String("run", run.ID),
					slog.String("source", status.SourceID),
					slog.Any("error", err))
			}
		}

		event := ProgressEvent{
			Completed: int(completed.Load()),
			Total:     total,
			SourceID:  status.SourceID,
		}
		switch status.State {
		case diagdex.DocumentIndexed:
			result.Indexed++
			result.Chunks += status.Chunks
			result.Diagrams += status.Diagrams
			result.Fallbacks += status.Fallbacks
			result.Tokens += status.Tokens
			event.Type = ProgressCompleted
		case diagdex.DocumentSkipped:
			result.Skipped++
			event.Type = ProgressSkipped
			event.Error = errors.New(status.Err)
		case diagdex.DocumentFailed:
			result.Failed++
			event.Type = ProgressFailed
			event.Error = errors.New(status.Err)
		}
		if progress != nil {
			progress(event)
		}
	}

	if in.Runs != nil {
		if err := in.Runs.FinishRun(ctx, run.ID, time.Now()); err != nil {
			in.logger().Error("finish run",
				slog.String("run", run.ID),
				slog.Any("error", err))
		}
	}
	if progress != nil {
		progress(ProgressEvent{Type: ProgressFinished, Completed: total, Total: total})
	}
	return result, ctx.Err()
}

// processDocument runs the full pipeline for one document: fetch,
// detect, describe, chunk, embed, upsert, reconcile. Stale points are
// deleted only after every new point has been written, so a failure at
// any stage leaves the previous index state intact.
func (in *Ingestor) processDocument(ctx context.Context, sourceID string) *diagdex.DocumentStatus {
	status := &diagdex.DocumentStatus{SourceID: sourceID}
	delays := in.RetryDelays
	if delays == nil {
		delays = DefaultRetryDelays()
	}

	var doc *diagdex.Document
	err := retryTransient(ctx, delays, func(ctx context.Context) error {
		var err error
		doc, err = in.Source.Fetch(ctx, sourceID)
		return err
	})
	if err != nil {
		status.State = diagdex.DocumentSkipped
		status.Err = err.Error()
		return status
	}

	regions := in.Detector.Detect(doc.SourceID, doc.RawText)
	status.Diagrams = len(regions)

	descriptions := make(map[string]*diagdex.Description, len(regions))
	for i := range regions {
		res := in.Descriptions.Resolve(ctx, &regions[i])
		switch res.Outcome {
		case diagdex.RegionCached, diagdex.RegionDescribed:
			descriptions[regions[i].Hash()] = res.Description
		case diagdex.RegionFellBackToRaw:
			status.Fallbacks++
		}
		// RegionFailed also leaves the region undescribed; the chunker
		// keeps the raw text and flags the chunk as description-missing.
	}

	chunks, err := in.Chunker.Chunk(doc, regions, descriptions)
	if err != nil {
		status.State = diagdex.DocumentFailed
		status.Err = err.Error()
		return status
	}
	status.Chunks = len(chunks)

	texts := make([]string, len(chunks))
	for i, ch := range chunks {
		texts[i] = ch.Text
	}

	// Token totals are informational; a counting failure never affects
	// the document outcome.
	if in.TokenCounter != nil {
		for _, text := range texts {
			if tokens, err := in.TokenCounter.CountTokens(ctx, text); err == nil {
				status.Tokens += tokens
			}
		}
	}
	var vectors [][]float32
	err = retryTransient(ctx, delays, func(ctx context.Context) error {
		var err error
		vectors, err = in.Embedder.Embed(ctx, texts)
		return err
	})
	if err != nil {
		status.State = diagdex.DocumentFailed
		status.Err = err.Error()
		return status
	}
	if len(vectors) != len(chunks) {
		status.State = diagdex.DocumentFailed
		status.Err = "embedding count does not match chunk count"
		return status
	}

	points := make([]diagdex.IndexPoint, len(chunks))
	current := make(map[string]bool, len(chunks))
	for i, ch := range chunks {
		points[i] = diagdex.IndexPoint{
			ID:     ch.ID,
			Vector: vectors[i],
			Sparse: diagdex.SparseEncode(ch.Text),
			Payload: diagdex.Payload{
				DocumentID:         ch.DocumentID,
				StartOffset:        ch.StartOffset,
				EndOffset:          ch.EndOffset,
				ContainsDiagram:    ch.ContainsDiagram,
				DescriptionMissing: ch.DescriptionMissing,
				Text:               ch.Text,
			},
		}
		current[ch.ID] = true
	}

	err = retryTransient(ctx, delays, func(ctx context.Context) error {
		return in.Store.Upsert(ctx, points)
	})
	if err != nil {
		status.State = diagdex.DocumentFailed
		status.Err = err.Error()
		return status
	}

	if err := in.reconcile(ctx, delays, doc.SourceID, current); err != nil {
		status.State = diagdex.DocumentFailed
		status.Err = err.Error()
		return status
	}

	status.State = diagdex.DocumentIndexed
	return status
}

// reconcile deletes indexed points for the document whose chunk ids are
// no longer produced by the current content.
func (in *Ingestor) reconcile(ctx context.Context, delays []time.Duration, documentID string, current map[string]bool) error {
	var indexed []string
	err := retryTransient(ctx, delays, func(ctx context.Context) error {
		var err error
		indexed, err = in.Store.ListIDs(ctx, documentID)
		return err
	})
	if err != nil {
		return err
	}

	var stale []string
	for _, id := range indexed {
		if !current[id] {
			stale = append(stale, id)
		}
	}
	if len(stale) == 0 {
		return nil
	}
	return retryTransient(ctx, delays, func(ctx context.Context) error {
		return in.Store.Delete(ctx, stale)
	})
}
