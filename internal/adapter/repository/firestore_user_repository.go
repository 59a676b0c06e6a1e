package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"

	"secondlife/internal/domain/entity"
	"secondlife/internal/domain/repository"
	"secondlife/pkg/errors"
)

type firestoreUserRepository struct {
	client *firestore.Client
}

func NewFirestoreUserRepository(client *firestore.Client) repository.UserRepository {
	return &firestoreUserRepository{
		client: client,
	}
}

// NewFirestoreActivityStore keeps heartbeats on the user document itself.
func NewFirestoreActivityStore(client *firestore.Client) repository.ActivityStore {
	return &firestoreUserRepository{
		client: client,
	}
}

func (r *firestoreUserRepository) Upsert(ctx context.Context, user *entity.User) (bool, error) {
	ref := r.client.Collection(usersCollection).Doc(user.ID)
	created := false

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		created = false
		now := time.Now().UTC()

		doc, err := tx.Get(ref)
		if err != nil && !isNotFound(err) {
			return err
		}
		if err != nil || !doc.Exists() {
			created = true
			user.CreatedAt = now
			user.UpdatedAt = now
			return tx.Set(ref, user)
		}

		updates := map[string]interface{}{
			"email":     user.Email,
			"updatedAt": now,
		}
		if user.DisplayName != "" {
			updates["displayName"] = user.DisplayName
		}
		if user.PhotoURL != "" {
			updates["photoURL"] = user.PhotoURL
		}
		if user.City != "" {
			updates["city"] = user.City
		}
		return tx.Set(ref, updates, firestore.MergeAll)
	})
	if err != nil {
		return false, errors.Internal("Failed to save user", err)
	}
	return created, nil
}

func (r *firestoreUserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	doc, err := r.client.Collection(usersCollection).Doc(id).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, errors.NotFound("User", err)
		}
		return nil, errors.Internal("Failed to get user", err)
	}

	var user entity.User
	if err := doc.DataTo(&user); err != nil {
		return nil, errors.Internal("Failed to parse user data", err)
	}
	return &user, nil
}

func (r *firestoreUserRepository) Update(ctx context.Context, user *entity.User) error {
	updates := map[string]interface{}{
		"displayName": user.DisplayName,
		"photoURL":    user.PhotoURL,
		"city":        user.City,
		"updatedAt":   time.Now().UTC(),
	}
	if _, err := r.client.Collection(usersCollection).Doc(user.ID).Set(ctx, updates, firestore.MergeAll); err != nil {
		return errors.Internal("Failed to update user", err)
	}
	return nil
}

func (r *firestoreUserRepository) UpdateRating(ctx context.Context, id string, rating entity.Rating) error {
	_, err := r.client.Collection(usersCollection).Doc(id).Set(ctx, map[string]interface{}{
		"rating":    map[string]interface{}{"count": rating.Count, "average": rating.Average},
		"updatedAt": time.Now().UTC(),
	}, firestore.MergeAll)
	if err != nil {
		return errors.Internal("Failed to update rating", err)
	}
	return nil
}

func (r *firestoreUserRepository) ListInactiveSince(ctx context.Context, cutoff time.Time) ([]*entity.User, error) {
	users, err := collectDocs[entity.User](r.client.Collection(usersCollection).Where("lastActive", "<", cutoff).Documents(ctx))
	if err != nil {
		return nil, errors.Internal("Failed to list inactive users", err)
	}

	out := users[:0]
	for _, u := range users {
		if u.LastActive.IsZero() || u.FollowUpAt.After(u.LastActive) {
			continue
		}
		out = append(out, u)
	}
	return out, nil
}

func (r *firestoreUserRepository) MarkFollowUpSent(ctx context.Context, id string, at time.Time) error {
	if _, err := r.client.Collection(usersCollection).Doc(id).Set(ctx, map[string]interface{}{"followUpAt": at}, firestore.MergeAll); err != nil {
		return errors.Internal("Failed to record follow-up", err)
	}
	return nil
}

func (r *firestoreUserRepository) Touch(ctx context.Context, userID string, at time.Time) error {
	if _, err := r.client.Collection(usersCollection).Doc(userID).Set(ctx, map[string]interface{}{"lastActive": at}, firestore.MergeAll); err != nil {
		return errors.Internal("Failed to record activity", err)
	}
	return nil
}

func (r *firestoreUserRepository) LastActive(ctx context.Context, userID string) (time.Time, error) {
	user, err := r.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, errors.CodeNotFound) {
			return time.Time{}, nil
		}
		return time.Time{}, err
	}
	return user.LastActive, nil
}
