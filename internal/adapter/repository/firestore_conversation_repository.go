package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"

	"secondlife/internal/domain/entity"
	"secondlife/internal/domain/repository"
	"secondlife/pkg/errors"
)

type firestoreConversationRepository struct {
	client *firestore.Client
}

func NewFirestoreConversationRepository(client *firestore.Client) repository.ConversationRepository {
	return &firestoreConversationRepository{
		client: client,
	}
}

func (r *firestoreConversationRepository) Get(ctx context.Context, key entity.ConversationKey) (*entity.ConversationParticipants, error) {
	doc, err := r.client.Collection(conversationsCollection).Doc(key.DocID()).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, errors.NotFound("Conversation", err)
		}
		return nil, errors.Internal("Failed to get conversation", err)
	}

	var p entity.ConversationParticipants
	if err := doc.DataTo(&p); err != nil {
		return nil, errors.Internal("Failed to parse conversation data", err)
	}
	return &p, nil
}

func (r *firestoreConversationRepository) GetMany(ctx context.Context, keys []entity.ConversationKey) (map[string]*entity.ConversationParticipants, error) {
	out := make(map[string]*entity.ConversationParticipants, len(keys))
	if len(keys) == 0 {
		return out, nil
	}

	refs := make([]*firestore.DocumentRef, len(keys))
	for i, k := range keys {
		refs[i] = r.client.Collection(conversationsCollection).Doc(k.DocID())
	}

	snaps, err := r.client.GetAll(ctx, refs)
	if err != nil {
		return nil, errors.Internal("Failed to get conversations", err)
	}
	for i, snap := range snaps {
		if !snap.Exists() {
			continue
		}
		var p entity.ConversationParticipants
		if err := snap.DataTo(&p); err != nil {
			return nil, errors.Internal("Failed to parse conversation data", err)
		}
		out[keys[i].String()] = &p
	}
	return out, nil
}

func (r *firestoreConversationRepository) SetParticipantName(ctx context.Context, key entity.ConversationKey, buyerID, sellerID string, role entity.Role, name string) error {
	nameField := "buyerName"
	if role == entity.RoleSeller {
		nameField = "sellerName"
	}

	data := map[string]interface{}{
		"id":        key.DocID(),
		"productId": key.ProductID,
		"buyerId":   buyerID,
		"sellerId":  sellerID,
		nameField:   name,
		"updatedAt": time.Now().UTC(),
	}
	if _, err := r.client.Collection(conversationsCollection).Doc(key.DocID()).Set(ctx, data, firestore.MergeAll); err != nil {
		return errors.Internal("Failed to save participant name", err)
	}
	return nil
}
