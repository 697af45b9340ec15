package repositories

import (
	"context"
	"errors"
	"fmt"

	"group-service/internal/models"
	"group-service/internal/observability"
	"group-service/internal/store"
)

// MaxAttempts bounds how often a read-check-commit cycle is re-run after a guarded write lost a race.
const MaxAttempts = 3

// Commit applies b atomically and records the outcome. Condition failures and create collisions
// are returned untranslated so callers can re-read and retry; other failures carry an error kind.
func Commit(ctx context.Context, st store.Store, b *store.Batch) error {
	err := st.Commit(ctx, b)
	switch {
	case err == nil:
		observability.ObserveCommit("ok")
		return nil
	case errors.Is(err, store.ErrConditionFailed), errors.Is(err, store.ErrAlreadyExists):
		observability.ObserveCommit("conflict")
		return err
	case errors.Is(err, store.ErrNotFound):
		observability.ObserveCommit("error")
		return fmt.Errorf("%w: %w", models.ErrNotFound, err)
	default:
		observability.ObserveCommit("error")
		return fmt.Errorf("%w: %w", models.ErrStoreUnavailable, err)
	}
}

// Retry runs fn until it stops failing on a write condition, up to MaxAttempts times.
// fn must re-read the state it checks on every call.
func Retry(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 0; attempt < MaxAttempts; attempt++ {
		if err = fn(); !errors.Is(err, store.ErrConditionFailed) {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			break
		}
	}
	return fmt.Errorf("%w: concurrent update: %v", models.ErrStoreUnavailable, err)
}
