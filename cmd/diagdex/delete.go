package main

import (
	"fmt"

	"github.com/diagdex/diagdex"
)

// Run executes the delete command.
func (c *DeleteCmd) Run(deps *Dependencies) error {
	if !c.Force {
		fmt.Fprintf(deps.Stderr, "error: use --force to confirm deletion\n")
		return diagdex.Errorf(diagdex.EINVALID, "use --force to confirm deletion")
	}

	ids, err := deps.Store.ListIDs(deps.Ctx, c.DocumentID)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", diagdex.ErrorMessage(err))
		return err
	}
	if len(ids) == 0 {
		fmt.Fprintf(deps.Stdout, "No chunks indexed for %q\n", c.DocumentID)
		return nil
	}

	if err := deps.Store.Delete(deps.Ctx, ids); err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", diagdex.ErrorMessage(err))
		return err
	}

	fmt.Fprintf(deps.Stdout, "Deleted %d chunks for %q\n", len(ids), c.DocumentID)
	return nil
}
