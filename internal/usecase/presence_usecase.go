package usecase

import (
	"context"
	"time"

	"secondlife/internal/domain/entity"
	"secondlife/internal/domain/repository"
	"secondlife/internal/domain/service"
	"secondlife/pkg/logger"
)

type PresenceUseCase struct {
	activity repository.ActivityStore
	tracker  *service.PresenceTracker
}

func NewPresenceUseCase(activity repository.ActivityStore, threshold time.Duration) *PresenceUseCase {
	return &PresenceUseCase{
		activity: activity,
		tracker:  service.NewPresenceTracker(threshold),
	}
}

// Touch records a heartbeat for userID at the current time.
func (uc *PresenceUseCase) Touch(ctx context.Context, userID string) error {
	return uc.activity.Touch(ctx, userID, uc.tracker.Now().UTC())
}

// PresenceOf never fails: a store error is reported as unknown, which the
// dispatcher treats like offline.
func (uc *PresenceUseCase) PresenceOf(ctx context.Context, userID string) entity.Presence {
	lastActive, err := uc.activity.LastActive(ctx, userID)
	if err != nil {
		logger.Warn("PresenceOf %s: %v", userID, err)
		return entity.Presence{UserID: userID, Verdict: entity.PresenceUnknown}
	}
	return uc.tracker.Presence(userID, lastActive)
}
