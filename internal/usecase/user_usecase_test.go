package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"secondlife/internal/domain/entity"
	"secondlife/internal/infrastructure/events"
	"secondlife/pkg/errors"
)

func TestUpsertProfile_WelcomesNewUsersOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	input := UpsertProfileInput{Email: "nina@example.test", DisplayName: " Nina "}

	u, err := f.user.UpsertProfile(ctx, "user-new", input)
	require.NoError(t, err)
	assert.Equal(t, "Nina", u.DisplayName)

	_, err = f.user.UpsertProfile(ctx, "user-new", input)
	require.NoError(t, err)

	assert.Equal(t, []string{"welcome"}, f.notifier.kinds())
	assert.Equal(t, "nina@example.test", f.notifier.sent[0].to)
	assert.Equal(t, []string{events.TypeUserCreated}, f.publisher.types)
}

func TestUpdateProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	blank := "  "
	city := "Nantes"

	_, err := f.user.UpdateProfile(ctx, buyer, UpdateProfileInput{DisplayName: &blank})
	assert.True(t, errors.Is(err, errors.CodeBadRequest))

	u, err := f.user.UpdateProfile(ctx, buyer, UpdateProfileInput{City: &city})
	require.NoError(t, err)
	assert.Equal(t, "Nantes", u.City)
	assert.Equal(t, "Marc", u.DisplayName)
}

func TestHeartbeatMakesUserOnline(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	assert.Equal(t, entity.PresenceUnknown, f.user.Presence(ctx, buyer).Verdict)

	require.NoError(t, f.user.Heartbeat(ctx, buyer))

	profile, err := f.user.GetProfile(ctx, buyer)
	require.NoError(t, err)
	assert.Equal(t, entity.PresenceOnline, profile.Presence.Verdict)
	require.NotNil(t, profile.Presence.LastActive)
}

func TestPresenceOf_StaleHeartbeatIsOffline(t *testing.T) {
	f := newFixture(t)
	f.setLastActive(buyer, time.Now().Add(-2*time.Minute))

	assert.Equal(t, entity.PresenceOffline, f.presence.PresenceOf(context.Background(), buyer).Verdict)
}

func TestSendFollowUps(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.setLastActive(buyer, time.Now().Add(-10*24*time.Hour))
	f.setLastActive(other, time.Now().Add(-time.Hour))

	sent, err := f.user.SendFollowUps(ctx, 7*24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	require.Len(t, f.notifier.sent, 1)
	assert.Equal(t, notification{kind: "follow_up", to: "marc@example.test", name: "Marc"}, f.notifier.sent[0])

	sent, err = f.user.SendFollowUps(ctx, 7*24*time.Hour)
	require.NoError(t, err)
	assert.Zero(t, sent, "already reminded since the last visit")
}
