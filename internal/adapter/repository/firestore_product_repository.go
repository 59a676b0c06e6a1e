package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"

	"secondlife/internal/domain/entity"
	"secondlife/internal/domain/repository"
	"secondlife/pkg/errors"
)

type firestoreProductRepository struct {
	client *firestore.Client
}

func NewFirestoreProductRepository(client *firestore.Client) repository.ProductRepository {
	return &firestoreProductRepository{
		client: client,
	}
}

func (r *firestoreProductRepository) Create(ctx context.Context, product *entity.Product) error {
	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	product.CreatedAt = now
	product.UpdatedAt = now

	if _, err := r.client.Collection(productsCollection).Doc(product.ID).Set(ctx, product); err != nil {
		return errors.Internal("Failed to create product", err)
	}
	return nil
}

func (r *firestoreProductRepository) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	doc, err := r.client.Collection(productsCollection).Doc(id).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, errors.NotFound("Product", err)
		}
		return nil, errors.Internal("Failed to get product", err)
	}

	var product entity.Product
	if err := doc.DataTo(&product); err != nil {
		return nil, errors.Internal("Failed to parse product data", err)
	}
	return &product, nil
}

func (r *firestoreProductRepository) List(ctx context.Context, filter entity.ProductFilter) ([]*entity.Product, error) {
	query := r.client.Collection(productsCollection).Query
	if filter.Category != "" {
		query = query.Where("category", "==", filter.Category)
	}
	if filter.SellerID != "" {
		query = query.Where("sellerId", "==", filter.SellerID)
	}
	if filter.Status != "" {
		query = query.Where("status", "==", string(filter.Status))
	}
	query = query.OrderBy("createdAt", firestore.Desc)
	if filter.Latest > 0 {
		query = query.Limit(filter.Latest)
	}

	products, err := collectDocs[entity.Product](query.Documents(ctx))
	if err != nil {
		return nil, errors.Internal("Failed to list products", err)
	}
	return products, nil
}

func (r *firestoreProductRepository) Update(ctx context.Context, product *entity.Product) error {
	product.UpdatedAt = time.Now().UTC()
	if _, err := r.client.Collection(productsCollection).Doc(product.ID).Set(ctx, product); err != nil {
		return errors.Internal("Failed to update product", err)
	}
	return nil
}

func (r *firestoreProductRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.client.Collection(productsCollection).Doc(id).Delete(ctx); err != nil {
		return errors.Internal("Failed to delete product", err)
	}
	return nil
}

func (r *firestoreProductRepository) UpdateStatus(ctx context.Context, id string, update entity.StatusUpdate) error {
	ref := r.client.Collection(productsCollection).Doc(id)

	return r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(ref)
		if err != nil {
			if isNotFound(err) {
				return errors.NotFound("Product", err)
			}
			return errors.Internal("Failed to get product", err)
		}

		var current entity.Product
		if err := doc.DataTo(&current); err != nil {
			return errors.Internal("Failed to parse product data", err)
		}
		if update.Status == entity.ProductStatusSold && current.Status == entity.ProductStatusSold &&
			current.BuyerID != "" && current.BuyerID != update.BuyerID {
			return errors.Conflict("Product already sold to another buyer")
		}

		updates := []firestore.Update{
			{Path: "status", Value: string(update.Status)},
			{Path: "updatedAt", Value: time.Now().UTC()},
		}
		if update.BuyerID != "" {
			updates = append(updates, firestore.Update{Path: "buyerId", Value: update.BuyerID})
		} else {
			updates = append(updates, firestore.Update{Path: "buyerId", Value: firestore.Delete})
		}
		if update.SoldAt != nil {
			updates = append(updates, firestore.Update{Path: "soldAt", Value: *update.SoldAt})
		} else {
			updates = append(updates, firestore.Update{Path: "soldAt", Value: firestore.Delete})
		}
		return tx.Update(ref, updates)
	})
}
