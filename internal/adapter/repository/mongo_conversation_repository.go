package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"secondlife/internal/domain/entity"
	"secondlife/internal/domain/repository"
	"secondlife/pkg/errors"
)

type mongoConversationRepository struct {
	col *mongo.Collection
}

func NewMongoConversationRepository(db *mongo.Database) repository.ConversationRepository {
	return &mongoConversationRepository{col: db.Collection(conversationsCollection)}
}

func (r *mongoConversationRepository) Get(ctx context.Context, key entity.ConversationKey) (*entity.ConversationParticipants, error) {
	ctx, cancel := context.WithTimeout(ctx, mongoOpTimeout)
	defer cancel()

	var p entity.ConversationParticipants
	if err := r.col.FindOne(ctx, bson.M{"_id": key.DocID()}).Decode(&p); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, errors.NotFound("Conversation", err)
		}
		return nil, errors.Internal("Failed to get conversation", err)
	}
	return &p, nil
}

func (r *mongoConversationRepository) GetMany(ctx context.Context, keys []entity.ConversationKey) (map[string]*entity.ConversationParticipants, error) {
	out := make(map[string]*entity.ConversationParticipants, len(keys))
	if len(keys) == 0 {
		return out, nil
	}

	ctx, cancel := context.WithTimeout(ctx, mongoOpTimeout)
	defer cancel()

	ids := make([]string, len(keys))
	byDocID := make(map[string]string, len(keys))
	for i, k := range keys {
		ids[i] = k.DocID()
		byDocID[k.DocID()] = k.String()
	}

	cur, err := r.col.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, errors.Internal("Failed to get conversations", err)
	}
	defer cur.Close(ctx)

	var found []*entity.ConversationParticipants
	if err := cur.All(ctx, &found); err != nil {
		return nil, errors.Internal("Failed to decode conversations", err)
	}
	for _, p := range found {
		out[byDocID[p.ID]] = p
	}
	return out, nil
}

func (r *mongoConversationRepository) SetParticipantName(ctx context.Context, key entity.ConversationKey, buyerID, sellerID string, role entity.Role, name string) error {
	ctx, cancel := context.WithTimeout(ctx, mongoOpTimeout)
	defer cancel()

	nameField := "buyerName"
	if role == entity.RoleSeller {
		nameField = "sellerName"
	}
	update := bson.M{
		"$set": bson.M{nameField: name, "updatedAt": time.Now().UTC()},
		"$setOnInsert": bson.M{
			"productId": key.ProductID,
			"buyerId":   buyerID,
			"sellerId":  sellerID,
		},
	}
	if _, err := r.col.UpdateByID(ctx, key.DocID(), update, options.Update().SetUpsert(true)); err != nil {
		return errors.Internal("Failed to save participant name", err)
	}
	return nil
}
