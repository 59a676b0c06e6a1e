package service

import (
	"time"

	"secondlife/internal/domain/entity"
)

const DefaultPresenceThreshold = 60 * time.Second

// PresenceTracker turns a last-activity timestamp into a verdict. It holds
// no state; callers supply lastActive from whichever store tracks heartbeats.
type PresenceTracker struct {
	Threshold time.Duration
	Now       func() time.Time
}

func NewPresenceTracker(threshold time.Duration) *PresenceTracker {
	if threshold <= 0 {
		threshold = DefaultPresenceThreshold
	}
	return &PresenceTracker{Threshold: threshold, Now: time.Now}
}

// Verdict is online iff now - lastActive < threshold. A zero lastActive
// means the user never reported activity, which is unknown, not online.
func (p *PresenceTracker) Verdict(lastActive time.Time) entity.PresenceVerdict {
	if lastActive.IsZero() {
		return entity.PresenceUnknown
	}
	if p.Now().Sub(lastActive) < p.Threshold {
		return entity.PresenceOnline
	}
	return entity.PresenceOffline
}

func (p *PresenceTracker) Presence(userID string, lastActive time.Time) entity.Presence {
	pr := entity.Presence{UserID: userID, Verdict: p.Verdict(lastActive)}
	if !lastActive.IsZero() {
		la := lastActive
		pr.LastActive = &la
	}
	return pr
}

// ShouldEmail: only a positively online recipient is spared the email.
func ShouldEmail(v entity.PresenceVerdict) bool {
	return v != entity.PresenceOnline
}
