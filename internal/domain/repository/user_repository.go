package repository

import (
	"context"
	"time"

	"secondlife/internal/domain/entity"
)

type UserRepository interface {
	// Upsert creates or merges the profile and reports whether it was new.
	Upsert(ctx context.Context, user *entity.User) (bool, error)
	GetByID(ctx context.Context, id string) (*entity.User, error)
	Update(ctx context.Context, user *entity.User) error
	UpdateRating(ctx context.Context, id string, rating entity.Rating) error
	// ListInactiveSince returns users last active before cutoff who were not
	// sent a follow-up since then.
	ListInactiveSince(ctx context.Context, cutoff time.Time) ([]*entity.User, error)
	MarkFollowUpSent(ctx context.Context, id string, at time.Time) error
}

// ActivityStore records heartbeats. The Firestore user repository and the
// Redis presence store both implement it.
type ActivityStore interface {
	Touch(ctx context.Context, userID string, at time.Time) error
	// LastActive returns the zero time when no heartbeat was recorded.
	LastActive(ctx context.Context, userID string) (time.Time, error)
}
