package handler

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"secondlife/internal/domain/entity"
	"secondlife/internal/usecase"
	"secondlife/pkg/errors"
	"secondlife/pkg/response"
	"secondlife/pkg/utils"
)

type ProductHandler struct {
	productUseCase *usecase.ProductUseCase
}

func NewProductHandler(productUseCase *usecase.ProductUseCase) *ProductHandler {
	return &ProductHandler{
		productUseCase: productUseCase,
	}
}

type createProductRequest struct {
	Title       string   `json:"title" validate:"required,max=120"`
	Description string   `json:"description" validate:"max=2000"`
	Price       float64  `json:"price" validate:"gte=0"`
	Category    string   `json:"category" validate:"max=60"`
	City        string   `json:"city" validate:"max=80"`
	Images      []string `json:"images" validate:"max=10,dive,url"`
}

type updateProductRequest struct {
	Title       *string  `json:"title" validate:"omitempty,max=120"`
	Description *string  `json:"description" validate:"omitempty,max=2000"`
	Price       *float64 `json:"price" validate:"omitempty,gte=0"`
	Category    *string  `json:"category" validate:"omitempty,max=60"`
	City        *string  `json:"city" validate:"omitempty,max=80"`
	Images      []string `json:"images" validate:"omitempty,max=10,dive,url"`
	Status      *string  `json:"status" validate:"omitempty,oneof=active hidden sold"`
}

func (h *ProductHandler) CreateProduct(c echo.Context) error {
	var req createProductRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	sellerID := c.Get("uid").(string)

	product, err := h.productUseCase.CreateProduct(c.Request().Context(), sellerID, usecase.CreateProductInput{
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		Category:    req.Category,
		City:        req.City,
		Images:      req.Images,
	})
	if err != nil {
		return response.Error(c, err)
	}
	return response.Created(c, product)
}

// ListProducts supports ?category=, ?seller= and ?new=true (the newest
// active listings only).
func (h *ProductHandler) ListProducts(c echo.Context) error {
	newest, _ := strconv.ParseBool(c.QueryParam("new"))
	pagination := utils.GetPaginationParams(c)

	products, err := h.productUseCase.ListProducts(c.Request().Context(), usecase.ListProductsInput{
		Category: c.QueryParam("category"),
		SellerID: c.QueryParam("seller"),
		Newest:   newest,
	})
	if err != nil {
		return response.Error(c, err)
	}

	start, end := pagination.Window(len(products))
	return response.Paginated(c, products[start:end], int64(len(products)), pagination.Page, pagination.PageSize)
}

func (h *ProductHandler) GetProduct(c echo.Context) error {
	product, err := h.productUseCase.GetProduct(c.Request().Context(), c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, product)
}

func (h *ProductHandler) UpdateProduct(c echo.Context) error {
	var req updateProductRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	sellerID := c.Get("uid").(string)
	input := usecase.UpdateProductInput{
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		Category:    req.Category,
		City:        req.City,
		Images:      req.Images,
	}
	if req.Status != nil {
		status := entity.ProductStatus(*req.Status)
		input.Status = &status
	}

	product, err := h.productUseCase.UpdateProduct(c.Request().Context(), sellerID, c.Param("id"), input)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, product)
}

func (h *ProductHandler) DeleteProduct(c echo.Context) error {
	sellerID := c.Get("uid").(string)

	if err := h.productUseCase.DeleteProduct(c.Request().Context(), sellerID, c.Param("id")); err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, map[string]string{"message": "Product deleted successfully"})
}
