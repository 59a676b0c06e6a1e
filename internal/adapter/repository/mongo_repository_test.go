package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"secondlife/internal/domain/entity"
	"secondlife/pkg/errors"
)

func TestMongoMessageRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("create adds the sender as reader", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		repo := NewMongoMessageRepository(mt.DB)

		mt.AddMockResponses(mtest.CreateSuccessResponse())
		m := &entity.Message{ProductID: "bike", SenderID: "buyer-1", BuyerID: "buyer-1", SellerID: "seller-1"}
		require.NoError(t, repo.Create(context.Background(), m))

		assert.NotEmpty(t, m.ID)
		assert.False(t, m.Timestamp.IsZero())
		assert.Equal(t, []string{"buyer-1"}, m.ReadBy)
	})

	mt.Run("duplicate id is a conflict", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		repo := NewMongoMessageRepository(mt.DB)

		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "E11000 duplicate key error collection: secondlife.messages index: _id_",
		}))
		err := repo.Create(context.Background(), &entity.Message{ID: "sale_bike", SenderID: "seller-1"})

		assert.True(t, errors.Is(err, errors.CodeConflict))
		assert.False(t, errors.IsRetryable(err))
	})

	mt.Run("mark read twice stays successful", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		repo := NewMongoMessageRepository(mt.DB)

		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 0}),
		)
		require.NoError(t, repo.MarkRead(context.Background(), "m1", "seller-1"))
		require.NoError(t, repo.MarkRead(context.Background(), "m1", "seller-1"))
	})

	mt.Run("mark read on a missing message", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		repo := NewMongoMessageRepository(mt.DB)

		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}))
		err := repo.MarkRead(context.Background(), "missing", "seller-1")

		assert.True(t, errors.Is(err, errors.CodeNotFound))
	})
}

func TestMongoProductRepository_SoldGuard(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("sold to another buyer", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		repo := NewMongoProductRepository(mt.DB)

		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}),
			mtest.CreateCursorResponse(0, "secondlife.products", mtest.FirstBatch, bson.D{{Key: "n", Value: 1}}),
		)
		err := repo.UpdateStatus(context.Background(), "bike", entity.StatusUpdate{Status: entity.ProductStatusSold, BuyerID: "buyer-2"})

		assert.True(t, errors.Is(err, errors.CodeConflict))
	})

	mt.Run("unknown product", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		repo := NewMongoProductRepository(mt.DB)

		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}),
			mtest.CreateCursorResponse(0, "secondlife.products", mtest.FirstBatch),
		)
		err := repo.UpdateStatus(context.Background(), "ghost", entity.StatusUpdate{Status: entity.ProductStatusSold, BuyerID: "buyer-1"})

		assert.True(t, errors.Is(err, errors.CodeNotFound))
	})

	mt.Run("first sale goes through", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		repo := NewMongoProductRepository(mt.DB)

		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}))
		err := repo.UpdateStatus(context.Background(), "bike", entity.StatusUpdate{Status: entity.ProductStatusSold, BuyerID: "buyer-1"})

		assert.NoError(t, err)
	})
}
