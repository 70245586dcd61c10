package main

import (
	"fmt"

	"github.com/diagdex/diagdex"
)

// Run executes the status command.
func (c *StatusCmd) Run(deps *Dependencies) error {
	runID := c.RunID
	if runID == "" {
		run, err := deps.Runs.FindLatestRun(deps.Ctx)
		if diagdex.ErrorCode(err) == diagdex.ENOTFOUND {
			fmt.Fprintln(deps.Stdout, "No runs recorded. Use 'diagdex ingest' to start one.")
			return nil
		}
		if err != nil {
			fmt.Fprintf(deps.Stderr, "error: %s\n", diagdex.ErrorMessage(err))
			return err
		}
		runID = run.ID
	}

	statuses, err := deps.Runs.FindRunStatuses(deps.Ctx, runID)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", diagdex.ErrorMessage(err))
		return err
	}

	fmt.Fprintf(deps.Stdout, "Run %s\n", runID)
	for _, s := range statuses {
		switch s.State {
		case diagdex.DocumentIndexed:
			fmt.Fprintf(deps.Stdout, "  %-8s %s  chunks=%d diagrams=%d fallbacks=%d\n",
				s.State, s.SourceID, s.Chunks, s.Diagrams, s.Fallbacks)
		default:
			fmt.Fprintf(deps.Stdout, "  %-8s %s  %s\n", s.State, s.SourceID, s.Err)
		}
	}
	return nil
}
