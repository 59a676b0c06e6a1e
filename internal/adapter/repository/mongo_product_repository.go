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
	"secondlife/pkg/errors"
	"secondlife/pkg/logger"
)

type mongoProductRepository struct {
	col *mongo.Collection
}

func NewMongoProductRepository(db *mongo.Database) repository.ProductRepository {
	r := &mongoProductRepository{col: db.Collection(productsCollection)}
	_, err := r.col.Indexes().CreateOne(context.Background(), mongo.IndexModel{
		Keys: bson.D{{Key: "category", Value: 1}, {Key: "createdAt", Value: -1}},
	})
	if err != nil {
		logger.Warn("mongo: creating product index failed: %v", err)
	}
	return r
}

func (r *mongoProductRepository) Create(ctx context.Context, product *entity.Product) error {
	ctx, cancel := context.WithTimeout(ctx, mongoOpTimeout)
	defer cancel()

	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	product.CreatedAt = now
	product.UpdatedAt = now

	if _, err := r.col.InsertOne(ctx, product); err != nil {
		return errors.Internal("Failed to create product", err)
	}
	return nil
}

func (r *mongoProductRepository) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, mongoOpTimeout)
	defer cancel()

	var p entity.Product
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, errors.NotFound("Product", err)
		}
		return nil, errors.Internal("Failed to get product", err)
	}
	return &p, nil
}

func (r *mongoProductRepository) List(ctx context.Context, filter entity.ProductFilter) ([]*entity.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, mongoOpTimeout)
	defer cancel()

	q := bson.M{}
	if filter.Category != "" {
		q["category"] = filter.Category
	}
	if filter.SellerID != "" {
		q["sellerId"] = filter.SellerID
	}
	if filter.Status != "" {
		q["status"] = filter.Status
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if filter.Latest > 0 {
		opts.SetLimit(int64(filter.Latest))
	}

	cur, err := r.col.Find(ctx, q, opts)
	if err != nil {
		return nil, errors.Internal("Failed to list products", err)
	}
	defer cur.Close(ctx)

	out := []*entity.Product{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, errors.Internal("Failed to decode products", err)
	}
	return out, nil
}

func (r *mongoProductRepository) Update(ctx context.Context, product *entity.Product) error {
	ctx, cancel := context.WithTimeout(ctx, mongoOpTimeout)
	defer cancel()

	product.UpdatedAt = time.Now().UTC()
	res, err := r.col.ReplaceOne(ctx, bson.M{"_id": product.ID}, product)
	if err != nil {
		return errors.Internal("Failed to update product", err)
	}
	if res.MatchedCount == 0 {
		return errors.NotFound("Product", nil)
	}
	return nil
}

func (r *mongoProductRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, mongoOpTimeout)
	defer cancel()

	if _, err := r.col.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return errors.Internal("Failed to delete product", err)
	}
	return nil
}

// UpdateStatus guards the sold transition in the filter itself, so two
// concurrent confirmations for different buyers cannot both win.
func (r *mongoProductRepository) UpdateStatus(ctx context.Context, id string, update entity.StatusUpdate) error {
	ctx, cancel := context.WithTimeout(ctx, mongoOpTimeout)
	defer cancel()

	filter := bson.M{"_id": id}
	if update.Status == entity.ProductStatusSold {
		filter["$or"] = []bson.M{
			{"status": bson.M{"$ne": entity.ProductStatusSold}},
			{"buyerId": bson.M{"$in": []string{"", update.BuyerID}}},
			{"buyerId": bson.M{"$exists": false}},
		}
	}

	set := bson.M{"status": update.Status, "updatedAt": time.Now().UTC()}
	unset := bson.M{}
	if update.BuyerID != "" {
		set["buyerId"] = update.BuyerID
	} else {
		unset["buyerId"] = ""
	}
	if update.SoldAt != nil {
		set["soldAt"] = *update.SoldAt
	} else {
		unset["soldAt"] = ""
	}
	doc := bson.M{"$set": set}
	if len(unset) > 0 {
		doc["$unset"] = unset
	}

	res, err := r.col.UpdateOne(ctx, filter, doc)
	if err != nil {
		return errors.Internal("Failed to update product status", err)
	}
	if res.MatchedCount == 0 {
		n, err := r.col.CountDocuments(ctx, bson.M{"_id": id})
		if err != nil {
			return errors.Internal("Failed to update product status", err)
		}
		if n == 0 {
			return errors.NotFound("Product", nil)
		}
		return errors.Conflict("Product already sold to another buyer")
	}
	return nil
}
