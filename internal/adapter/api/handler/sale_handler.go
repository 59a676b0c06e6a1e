package handler

import (
	"github.com/labstack/echo/v4"

	"secondlife/internal/usecase"
	"secondlife/pkg/errors"
	"secondlife/pkg/logger"
	"secondlife/pkg/response"
)

type SaleHandler struct {
	saleUseCase *usecase.SaleUseCase
}

func NewSaleHandler(saleUseCase *usecase.SaleUseCase) *SaleHandler {
	return &SaleHandler{
		saleUseCase: saleUseCase,
	}
}

type confirmSaleRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	BuyerID   string `json:"buyer_id" validate:"required"`
}

// ConfirmSale answers 201 when the sale was recorded now and 200 when it
// had already been confirmed.
func (h *SaleHandler) ConfirmSale(c echo.Context) error {
	var req confirmSaleRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	sellerID := c.Get("uid").(string)

	result, err := h.saleUseCase.ConfirmSale(c.Request().Context(), sellerID, usecase.ConfirmSaleInput{
		ProductID: req.ProductID,
		BuyerID:   req.BuyerID,
	})
	if err != nil {
		logger.Error("ConfirmSale Error: product %s buyer %s: %v", req.ProductID, req.BuyerID, err)
		return response.Error(c, err)
	}
	if result.AlreadyConfirmed {
		return response.Success(c, result)
	}
	return response.Created(c, result)
}
