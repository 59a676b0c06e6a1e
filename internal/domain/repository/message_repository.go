package repository

import (
	"context"

	"secondlife/internal/domain/entity"
)

type MessageRepository interface {
	// Create assigns ID and Timestamp and puts the sender in ReadBy.
	Create(ctx context.Context, message *entity.Message) error
	GetByID(ctx context.Context, id string) (*entity.Message, error)
	// ListByParticipant returns every message where userID is buyer or seller.
	ListByParticipant(ctx context.Context, userID string) ([]*entity.Message, error)
	// ListByConversation returns the thread sorted by timestamp ascending.
	ListByConversation(ctx context.Context, key entity.ConversationKey) ([]*entity.Message, error)
	// MarkRead is an atomic, idempotent set-union of userID into readBy.
	MarkRead(ctx context.Context, messageID, userID string) error
}

type ConversationRepository interface {
	Get(ctx context.Context, key entity.ConversationKey) (*entity.ConversationParticipants, error)
	GetMany(ctx context.Context, keys []entity.ConversationKey) (map[string]*entity.ConversationParticipants, error)
	// SetParticipantName records the display name for one role only.
	SetParticipantName(ctx context.Context, key entity.ConversationKey, buyerID, sellerID string, role entity.Role, name string) error
}
