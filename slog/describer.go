package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/diagdex/diagdex"
)

// Ensure LoggingDescriber implements diagdex.Describer.
var _ diagdex.Describer = (*LoggingDescriber)(nil)

// LoggingDescriber wraps a Describer with logging.
type LoggingDescriber struct {
	next   diagdex.Describer
	logger *slog.Logger
}

// NewLoggingDescriber creates a new LoggingDescriber.
func NewLoggingDescriber(next diagdex.Describer, logger *slog.Logger) *LoggingDescriber {
	return &LoggingDescriber{next: next, logger: logger}
}

// Describe delegates to the wrapped describer and logs the outcome.
func (d *LoggingDescriber) Describe(ctx context.Context, region *diagdex.DiagramRegion) (*diagdex.Description, error) {
	begin := time.Now()
	desc, err := d.next.Describe(ctx, region)
	if err != nil {
		d.logger.Error("describe",
			"region", region.Hash(),
			"document", region.DocumentID,
			"duration", time.Since(begin),
			"err", err,
		)
		return nil, err
	}
	d.logger.Info("describe",
		"region", region.Hash(),
		"document", region.DocumentID,
		"bytes", len(desc.Text),
		"duration", time.Since(begin),
	)
	return desc, nil
}
