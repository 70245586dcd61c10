package main

import (
	"fmt"

	"github.com/diagdex/diagdex"
)

// Run executes the query command.
func (c *QueryCmd) Run(deps *Dependencies) error {
	if c.Weight < 0 || c.Weight > 1 {
		fmt.Fprintf(deps.Stderr, "error: dense weight must be between 0 and 1\n")
		return diagdex.Errorf(diagdex.EINVALID, "dense weight must be between 0 and 1")
	}

	deps.Searcher.DenseWeight = c.Weight
	results, err := deps.Searcher.Query(deps.Ctx, c.Text, c.K)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", diagdex.ErrorMessage(err))
		return err
	}

	if len(results) == 0 {
		fmt.Fprintln(deps.Stdout, "No results.")
		return nil
	}

	for i, r := range results {
		marker := ""
		if r.Payload.ContainsDiagram {
			marker = "  [diagram]"
		}
		fmt.Fprintf(deps.Stdout, "%2d. %.4f  %s [%d:%d]%s\n",
			i+1, r.Score, r.Payload.DocumentID, r.Payload.StartOffset, r.Payload.EndOffset, marker)
		if c.Verbose {
			fmt.Fprintf(deps.Stdout, "    %s\n", r.Payload.Text)
		}
	}
	return nil
}
