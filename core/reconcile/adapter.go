package reconcile

import (
	"context"

	"contact-sync/core/patch"
	"contact-sync/core/record"
)

// Target is the write side of the local record store used by Apply.
// Implementations stage every change in memory and make them durable only in
// Commit, so that a whole batch lands at once or not at all.
type Target interface {
	// Stage loads the existing record id and returns an accessor whose writes
	// are staged for the next Commit.
	Stage(ctx context.Context, id string) (patch.Accessor, error)

	// Create stages a new record and returns the local id assigned to it.
	Create(ctx context.Context, rec record.Record) (string, error)

	// Discard drops the staged changes of id, leaving the stored record as is.
	Discard(id string)

	// Commit writes all staged records.
	Commit(ctx context.Context) error
}
