package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"secondlife/internal/domain/entity"
	"secondlife/internal/domain/repository"
	"secondlife/internal/domain/service"
	"secondlife/pkg/errors"
	"secondlife/pkg/logger"
)

type mongoMessageRepository struct {
	col *mongo.Collection
}

func NewMongoMessageRepository(db *mongo.Database) repository.MessageRepository {
	r := &mongoMessageRepository{col: db.Collection(messagesCollection)}
	_, err := r.col.Indexes().CreateMany(context.Background(), []mongo.IndexModel{
		{Keys: bson.D{{Key: "buyerId", Value: 1}, {Key: "sellerId", Value: 1}}},
		{Keys: bson.D{{Key: "sellerId", Value: 1}}},
		{Keys: bson.D{{Key: "productId", Value: 1}, {Key: "timestamp", Value: 1}}},
	})
	if err != nil {
		logger.Warn("mongo: creating message indexes failed: %v", err)
	}
	return r
}

func (r *mongoMessageRepository) Create(ctx context.Context, message *entity.Message) error {
	ctx, cancel := context.WithTimeout(ctx, mongoOpTimeout)
	defer cancel()

	if message.ID == "" {
		message.ID = uuid.New().String()
	}
	message.Timestamp = time.Now().UTC()
	service.AddReader(message, message.SenderID)

	if _, err := r.col.InsertOne(ctx, message); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return errors.Conflict("Message already exists")
		}
		return errors.Internal("Failed to create message", err)
	}
	return nil
}

func (r *mongoMessageRepository) GetByID(ctx context.Context, id string) (*entity.Message, error) {
	ctx, cancel := context.WithTimeout(ctx, mongoOpTimeout)
	defer cancel()

	var m entity.Message
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&m); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, errors.NotFound("Message", err)
		}
		return nil, errors.Internal("Failed to get message", err)
	}
	return &m, nil
}

func (r *mongoMessageRepository) ListByParticipant(ctx context.Context, userID string) ([]*entity.Message, error) {
	filter := bson.M{"$or": []bson.M{{"buyerId": userID}, {"sellerId": userID}}}
	return r.find(ctx, filter, options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}}))
}

func (r *mongoMessageRepository) ListByConversation(ctx context.Context, key entity.ConversationKey) ([]*entity.Message, error) {
	filter := bson.M{
		"productId": key.ProductID,
		"$or": []bson.M{
			{"buyerId": key.UserA, "sellerId": key.UserB},
			{"buyerId": key.UserB, "sellerId": key.UserA},
		},
	}
	msgs, err := r.find(ctx, filter, options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}}))
	if err != nil {
		return nil, err
	}
	return service.SortThread(msgs), nil
}

func (r *mongoMessageRepository) MarkRead(ctx context.Context, messageID, userID string) error {
	ctx, cancel := context.WithTimeout(ctx, mongoOpTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx, bson.M{"_id": messageID}, bson.M{"$addToSet": bson.M{"readBy": userID}})
	if err != nil {
		return errors.Internal("Failed to mark message read", err)
	}
	if res.MatchedCount == 0 {
		return errors.NotFound("Message", nil)
	}
	return nil
}

func (r *mongoMessageRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*entity.Message, error) {
	ctx, cancel := context.WithTimeout(ctx, mongoOpTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, errors.Internal("Failed to list messages", err)
	}
	defer cur.Close(ctx)

	out := []*entity.Message{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, errors.Internal("Failed to decode messages", err)
	}
	return out, nil
}
