package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"

	"secondlife/internal/domain/entity"
	"secondlife/internal/domain/repository"
	"secondlife/internal/domain/service"
	"secondlife/pkg/errors"
	"secondlife/pkg/logger"
)

type firestoreMessageRepository struct {
	client *firestore.Client
}

func NewFirestoreMessageRepository(client *firestore.Client) repository.MessageRepository {
	return &firestoreMessageRepository{
		client: client,
	}
}

func (r *firestoreMessageRepository) Create(ctx context.Context, message *entity.Message) error {
	if message.ID == "" {
		message.ID = uuid.New().String()
	}
	message.Timestamp = time.Now().UTC()
	service.AddReader(message, message.SenderID)

	_, err := r.client.Collection(messagesCollection).Doc(message.ID).Create(ctx, message)
	if err != nil {
		if isAlreadyExists(err) {
			return errors.Conflict("Message already exists")
		}
		return errors.Internal("Failed to create message", err)
	}
	return nil
}

func (r *firestoreMessageRepository) GetByID(ctx context.Context, id string) (*entity.Message, error) {
	doc, err := r.client.Collection(messagesCollection).Doc(id).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, errors.NotFound("Message", err)
		}
		return nil, errors.Internal("Failed to get message", err)
	}

	var message entity.Message
	if err := doc.DataTo(&message); err != nil {
		return nil, errors.Internal("Failed to parse message data", err)
	}
	return &message, nil
}

// ListByParticipant runs one query per role; Firestore has no OR across
// fields without a composite filter index.
func (r *firestoreMessageRepository) ListByParticipant(ctx context.Context, userID string) ([]*entity.Message, error) {
	col := r.client.Collection(messagesCollection)

	asBuyer, err := collectDocs[entity.Message](col.Where("buyerId", "==", userID).Documents(ctx))
	if err != nil {
		logger.Error("Firestore error while listing buyer messages for %s: %v", userID, err)
		return nil, errors.Internal("Failed to list messages", err)
	}
	asSeller, err := collectDocs[entity.Message](col.Where("sellerId", "==", userID).Documents(ctx))
	if err != nil {
		logger.Error("Firestore error while listing seller messages for %s: %v", userID, err)
		return nil, errors.Internal("Failed to list messages", err)
	}

	seen := make(map[string]bool, len(asBuyer)+len(asSeller))
	out := make([]*entity.Message, 0, len(asBuyer)+len(asSeller))
	for _, m := range append(asBuyer, asSeller...) {
		if seen[m.ID] {
			continue
		}
		seen[m.ID] = true
		out = append(out, m)
	}
	return out, nil
}

func (r *firestoreMessageRepository) ListByConversation(ctx context.Context, key entity.ConversationKey) ([]*entity.Message, error) {
	query := r.client.Collection(messagesCollection).
		Where("productId", "==", key.ProductID).
		Where("buyerId", "in", []string{key.UserA, key.UserB})

	msgs, err := collectDocs[entity.Message](query.Documents(ctx))
	if err != nil {
		logger.Error("Firestore error while listing conversation %s: %v", key, err)
		return nil, errors.Internal("Failed to list conversation", err)
	}

	thread := msgs[:0]
	for _, m := range msgs {
		if entity.NewConversationKey(m.ProductID, m.BuyerID, m.SellerID) == key {
			thread = append(thread, m)
		}
	}
	return service.SortThread(thread), nil
}

func (r *firestoreMessageRepository) MarkRead(ctx context.Context, messageID, userID string) error {
	_, err := r.client.Collection(messagesCollection).Doc(messageID).Update(ctx, []firestore.Update{
		{Path: "readBy", Value: firestore.ArrayUnion(userID)},
	})
	if err != nil {
		if isNotFound(err) {
			return errors.NotFound("Message", err)
		}
		return errors.Internal("Failed to mark message read", err)
	}
	return nil
}
