package usecase

import (
	"context"
	"strings"
	"time"

	"secondlife/internal/domain/entity"
	"secondlife/internal/domain/repository"
	"secondlife/internal/infrastructure/events"
	"secondlife/pkg/errors"
	"secondlife/pkg/logger"
)

type UserUseCase struct {
	userRepo  repository.UserRepository
	presence  *PresenceUseCase
	notifier  Notifier
	publisher events.Publisher
	async     runner
}

func NewUserUseCase(userRepo repository.UserRepository, presence *PresenceUseCase, notifier Notifier, publisher events.Publisher) *UserUseCase {
	return &UserUseCase{
		userRepo:  userRepo,
		presence:  presence,
		notifier:  notifier,
		publisher: orNopPublisher(publisher),
		async:     goAsync,
	}
}

type UpsertProfileInput struct {
	Email       string
	DisplayName string
	PhotoURL    string
	City        string
}

type ProfileView struct {
	*entity.User
	Presence entity.Presence `json:"presence"`
}

// UpsertProfile saves the caller's profile; the first save sends the
// welcome email.
func (uc *UserUseCase) UpsertProfile(ctx context.Context, userID string, input UpsertProfileInput) (*entity.User, error) {
	user := &entity.User{
		ID:          userID,
		Email:       strings.TrimSpace(input.Email),
		DisplayName: strings.TrimSpace(input.DisplayName),
		PhotoURL:    input.PhotoURL,
		City:        input.City,
	}
	created, err := uc.userRepo.Upsert(ctx, user)
	if err != nil {
		return nil, err
	}

	if created {
		welcome := *user
		detached(uc.async, func(ctx context.Context) {
			if err := uc.notifier.NotifyWelcome(ctx, welcome.Email, welcome.DisplayName); err != nil {
				logger.Error("UpsertProfile: welcome email to %s failed: %v", welcome.ID, err)
			}
			if err := uc.publisher.Publish(ctx, events.Event{Type: events.TypeUserCreated, Key: welcome.ID, Payload: welcome}); err != nil {
				logger.Warn("UpsertProfile: publish failed: %v", err)
			}
		})
	}
	return uc.userRepo.GetByID(ctx, userID)
}

func (uc *UserUseCase) GetProfile(ctx context.Context, userID string) (*ProfileView, error) {
	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &ProfileView{User: user, Presence: uc.presence.PresenceOf(ctx, userID)}, nil
}

type UpdateProfileInput struct {
	DisplayName *string
	PhotoURL    *string
	City        *string
}

func (uc *UserUseCase) UpdateProfile(ctx context.Context, userID string, input UpdateProfileInput) (*entity.User, error) {
	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if input.DisplayName != nil {
		name := strings.TrimSpace(*input.DisplayName)
		if name == "" {
			return nil, errors.BadRequest("Display name cannot be empty", nil)
		}
		user.DisplayName = name
	}
	if input.PhotoURL != nil {
		user.PhotoURL = *input.PhotoURL
	}
	if input.City != nil {
		user.City = *input.City
	}
	if err := uc.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (uc *UserUseCase) Heartbeat(ctx context.Context, userID string) error {
	return uc.presence.Touch(ctx, userID)
}

func (uc *UserUseCase) Presence(ctx context.Context, userID string) entity.Presence {
	return uc.presence.PresenceOf(ctx, userID)
}

// SendFollowUps emails users inactive for at least inactiveFor who have not
// been reminded since their last visit. It returns how many were sent.
func (uc *UserUseCase) SendFollowUps(ctx context.Context, inactiveFor time.Duration) (int, error) {
	cutoff := time.Now().UTC().Add(-inactiveFor)
	users, err := uc.userRepo.ListInactiveSince(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, u := range users {
		if u.Email == "" {
			continue
		}
		if err := uc.notifier.NotifyFollowUp(ctx, u.Email, u.DisplayName); err != nil {
			logger.Error("SendFollowUps: email to %s failed: %v", u.ID, err)
			continue
		}
		if err := uc.userRepo.MarkFollowUpSent(ctx, u.ID, time.Now().UTC()); err != nil {
			logger.Warn("SendFollowUps: could not record follow-up for %s: %v", u.ID, err)
		}
		sent++
	}
	return sent, nil
}
