package presence

import (
	"context"
	"time"

	"secondlife/internal/domain/repository"
	"secondlife/pkg/logger"
)

// WriteThrough reads presence from a fast store and mirrors heartbeats into
// a durable one (the user document), which inactivity sweeps query.
type WriteThrough struct {
	fast    repository.ActivityStore
	durable repository.ActivityStore
}

func NewWriteThrough(fast, durable repository.ActivityStore) *WriteThrough {
	return &WriteThrough{fast: fast, durable: durable}
}

func (w *WriteThrough) Touch(ctx context.Context, userID string, at time.Time) error {
	if err := w.fast.Touch(ctx, userID, at); err != nil {
		return err
	}
	if err := w.durable.Touch(ctx, userID, at); err != nil {
		logger.Warn("durable heartbeat for %s failed: %v", userID, err)
	}
	return nil
}

// LastActive falls back to the durable store when the fast one has no entry
// or is unreachable.
func (w *WriteThrough) LastActive(ctx context.Context, userID string) (time.Time, error) {
	at, err := w.fast.LastActive(ctx, userID)
	if err == nil && !at.IsZero() {
		return at, nil
	}
	if err != nil {
		logger.Warn("presence cache read for %s failed: %v", userID, err)
	}
	return w.durable.LastActive(ctx, userID)
}
