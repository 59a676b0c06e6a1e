package handler

import (
	"github.com/labstack/echo/v4"

	"secondlife/internal/domain/entity"
	"secondlife/internal/usecase"
	"secondlife/pkg/errors"
	"secondlife/pkg/logger"
	"secondlife/pkg/response"
)

type MessageHandler struct {
	messageUseCase *usecase.MessageUseCase
}

func NewMessageHandler(messageUseCase *usecase.MessageUseCase) *MessageHandler {
	return &MessageHandler{
		messageUseCase: messageUseCase,
	}
}

type sendMessageRequest struct {
	ProductID  string `json:"product_id" validate:"required"`
	BuyerID    string `json:"buyer_id" validate:"required"`
	SellerID   string `json:"seller_id" validate:"required"`
	Content    string `json:"content" validate:"max=2000"`
	Type       string `json:"type" validate:"omitempty,oneof=text image payment_request payment_confirmed sale_confirmed"`
	ImageURL   string `json:"image_url" validate:"omitempty,url"`
	ClientID   string `json:"client_id" validate:"max=64"`
	SenderName string `json:"sender_name" validate:"max=80"`
}

func (h *MessageHandler) SendMessage(c echo.Context) error {
	var req sendMessageRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	senderID := c.Get("uid").(string)
	senderName := req.SenderName
	if senderName == "" {
		senderName = tokenClaim(c, "name")
	}

	message, err := h.messageUseCase.SendMessage(c.Request().Context(), senderID, usecase.SendMessageInput{
		ProductID:  req.ProductID,
		BuyerID:    req.BuyerID,
		SellerID:   req.SellerID,
		Content:    req.Content,
		Type:       entity.MessageType(req.Type),
		ImageURL:   req.ImageURL,
		ClientID:   req.ClientID,
		SenderName: senderName,
	})
	if err != nil {
		logger.Warn("SendMessage from %s rejected: %v", senderID, err)
		return response.Error(c, err)
	}
	return response.Created(c, message)
}

// ListMessages is the flat list the polling clients diff for new messages.
func (h *MessageHandler) ListMessages(c echo.Context) error {
	uid := c.Get("uid").(string)

	messages, err := h.messageUseCase.ListMessages(c.Request().Context(), uid)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, messages)
}

// Inbox is not paginated; every message of the caller is scanned.
func (h *MessageHandler) Inbox(c echo.Context) error {
	uid := c.Get("uid").(string)

	conversations, err := h.messageUseCase.Inbox(c.Request().Context(), uid)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, conversations)
}

func (h *MessageHandler) UnreadCount(c echo.Context) error {
	uid := c.Get("uid").(string)

	count, err := h.messageUseCase.UnreadCount(c.Request().Context(), uid)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, map[string]int{"unread_count": count})
}

func (h *MessageHandler) GetConversation(c echo.Context) error {
	uid := c.Get("uid").(string)

	view, err := h.messageUseCase.GetConversation(
		c.Request().Context(),
		uid,
		c.QueryParam("productId"),
		c.QueryParam("buyerId"),
		c.QueryParam("sellerId"),
	)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, view)
}

func (h *MessageHandler) MarkRead(c echo.Context) error {
	uid := c.Get("uid").(string)

	if err := h.messageUseCase.MarkRead(c.Request().Context(), uid, c.Param("id")); err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, map[string]string{"message": "Message marked as read"})
}
