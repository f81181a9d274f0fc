// Package optimistic applies a local change before the remote write that
// confirms it, and undoes the change when the write fails.
package optimistic

import "context"

// Apply runs apply, then commit. When commit fails, revert runs and the
// commit error is returned.
func Apply(ctx context.Context, apply func(), commit func(context.Context) error, revert func()) error {
	apply()

	if err := commit(ctx); err != nil {
		revert()
		return err
	}

	return nil
}
