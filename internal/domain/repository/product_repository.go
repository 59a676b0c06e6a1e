package repository

import (
	"context"

	"secondlife/internal/domain/entity"
)

type ProductRepository interface {
	Create(ctx context.Context, product *entity.Product) error
	GetByID(ctx context.Context, id string) (*entity.Product, error)
	List(ctx context.Context, filter entity.ProductFilter) ([]*entity.Product, error)
	Update(ctx context.Context, product *entity.Product) error
	Delete(ctx context.Context, id string) error
	// UpdateStatus fails with CONFLICT when marking sold a product already
	// sold to a different buyer.
	UpdateStatus(ctx context.Context, id string, update entity.StatusUpdate) error
}
