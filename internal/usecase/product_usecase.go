package usecase

import (
	"context"
	"strings"

	"secondlife/internal/domain/entity"
	"secondlife/internal/domain/repository"
	"secondlife/pkg/errors"
)

const latestListings = 5

type ProductUseCase struct {
	productRepo repository.ProductRepository
	userRepo    repository.UserRepository
}

func NewProductUseCase(productRepo repository.ProductRepository, userRepo repository.UserRepository) *ProductUseCase {
	return &ProductUseCase{
		productRepo: productRepo,
		userRepo:    userRepo,
	}
}

type CreateProductInput struct {
	Title       string
	Description string
	Price       float64
	Category    string
	City        string
	Images      []string
}

type UpdateProductInput struct {
	Title       *string
	Description *string
	Price       *float64
	Category    *string
	City        *string
	Images      []string
	Status      *entity.ProductStatus
}

type ListProductsInput struct {
	Category string
	SellerID string
	Newest   bool
}

func (uc *ProductUseCase) CreateProduct(ctx context.Context, sellerID string, input CreateProductInput) (*entity.Product, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, errors.BadRequest("Title is required", nil)
	}
	if input.Price < 0 {
		return nil, errors.BadRequest("Price cannot be negative", nil)
	}

	product := &entity.Product{
		Title:       strings.TrimSpace(input.Title),
		Description: input.Description,
		Price:       input.Price,
		Category:    input.Category,
		City:        input.City,
		Images:      input.Images,
		SellerID:    sellerID,
		Status:      entity.ProductStatusActive,
	}
	if product.Category == "" {
		product.Category = entity.DefaultCategory
	}
	if len(product.Images) > 0 {
		product.ImageURL = product.Images[0]
	}
	if seller, err := uc.userRepo.GetByID(ctx, sellerID); err == nil {
		product.SellerName = seller.DisplayName
		product.SellerAvatar = seller.PhotoURL
		if product.City == "" {
			product.City = seller.City
		}
	}

	if err := uc.productRepo.Create(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

func (uc *ProductUseCase) GetProduct(ctx context.Context, id string) (*entity.Product, error) {
	return uc.productRepo.GetByID(ctx, id)
}

// ListProducts hides listings their seller took down unless the seller
// lists their own.
func (uc *ProductUseCase) ListProducts(ctx context.Context, input ListProductsInput) ([]*entity.Product, error) {
	filter := entity.ProductFilter{Category: input.Category, SellerID: input.SellerID}
	if input.Newest {
		filter.Latest = latestListings
		filter.Status = entity.ProductStatusActive
	}

	products, err := uc.productRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if input.SellerID != "" {
		return products, nil
	}

	visible := make([]*entity.Product, 0, len(products))
	for _, p := range products {
		if p.Status != entity.ProductStatusHidden {
			visible = append(visible, p)
		}
	}
	return visible, nil
}

func (uc *ProductUseCase) UpdateProduct(ctx context.Context, sellerID, id string, input UpdateProductInput) (*entity.Product, error) {
	product, err := uc.ownedProduct(ctx, sellerID, id)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		if strings.TrimSpace(*input.Title) == "" {
			return nil, errors.BadRequest("Title cannot be empty", nil)
		}
		product.Title = strings.TrimSpace(*input.Title)
	}
	if input.Description != nil {
		product.Description = *input.Description
	}
	if input.Price != nil {
		if *input.Price < 0 {
			return nil, errors.BadRequest("Price cannot be negative", nil)
		}
		product.Price = *input.Price
	}
	if input.Category != nil {
		product.Category = *input.Category
	}
	if input.City != nil {
		product.City = *input.City
	}
	if input.Images != nil {
		product.Images = input.Images
		product.ImageURL = ""
		if len(input.Images) > 0 {
			product.ImageURL = input.Images[0]
		}
	}
	if input.Status != nil {
		switch *input.Status {
		case entity.ProductStatusActive, entity.ProductStatusHidden:
			if product.Status == entity.ProductStatusSold {
				return nil, errors.BadRequest("A sold product cannot be relisted", nil)
			}
			product.Status = *input.Status
		case entity.ProductStatusSold:
			return nil, errors.BadRequest("Confirm the sale from the conversation to mark a product sold", nil)
		default:
			return nil, errors.BadRequest("Unknown product status", nil)
		}
	}

	if err := uc.productRepo.Update(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

func (uc *ProductUseCase) DeleteProduct(ctx context.Context, sellerID, id string) error {
	if _, err := uc.ownedProduct(ctx, sellerID, id); err != nil {
		return err
	}
	return uc.productRepo.Delete(ctx, id)
}

func (uc *ProductUseCase) ownedProduct(ctx context.Context, sellerID, id string) (*entity.Product, error) {
	product, err := uc.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product.SellerID != sellerID {
		return nil, errors.Forbidden("You can only modify your own products", nil)
	}
	return product, nil
}
