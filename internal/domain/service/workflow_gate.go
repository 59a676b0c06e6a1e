package service

import (
	"secondlife/internal/domain/entity"
	apperrors "secondlife/pkg/errors"
)

// DeriveSaleState reads the conversation's workflow tags. Input order does
// not matter; only tagged messages and their timestamps are considered.
func DeriveSaleState(messages []*entity.Message) entity.SaleState {
	var latestPayment *entity.Message
	for _, m := range messages {
		switch m.Type {
		case entity.MessageTypeSaleConfirmed:
			return entity.SaleStateSold
		case entity.MessageTypePaymentRequest, entity.MessageTypePaymentConfirmed:
			if latestPayment == nil || later(m, latestPayment) {
				latestPayment = m
			}
		}
	}
	if latestPayment != nil && latestPayment.Type == entity.MessageTypePaymentRequest {
		return entity.SaleStatePaymentRequested
	}
	return entity.SaleStateOpen
}

// later orders by timestamp, breaking ties by id so the result is stable.
func later(a, b *entity.Message) bool {
	if a.Timestamp.Equal(b.Timestamp) {
		return a.ID > b.ID
	}
	return a.Timestamp.After(b.Timestamp)
}

// RoleOf returns the viewer's role in a conversation, or false when the
// viewer is neither participant.
func RoleOf(viewerID, buyerID, sellerID string) (entity.Role, bool) {
	switch viewerID {
	case sellerID:
		return entity.RoleSeller, true
	case buyerID:
		return entity.RoleBuyer, true
	}
	return "", false
}

// EvaluateWorkflow computes the action flags for one viewer.
func EvaluateWorkflow(messages []*entity.Message, viewerID, buyerID, sellerID string, reviewExists bool) entity.WorkflowView {
	state := DeriveSaleState(messages)
	role, _ := RoleOf(viewerID, buyerID, sellerID)

	view := entity.WorkflowView{
		State:        state,
		Role:         role,
		ReviewExists: reviewExists,
	}
	switch role {
	case entity.RoleSeller:
		view.CanConfirmSale = state != entity.SaleStateSold
		view.CanRequestPayment = state == entity.SaleStateOpen
	case entity.RoleBuyer:
		view.CanPay = state == entity.SaleStatePaymentRequested
		view.CanReview = state == entity.SaleStateSold && !reviewExists
	}
	return view
}

// CheckSend validates a message type against the viewer's workflow view.
// sale_confirmed is never accepted here; it is written by ConfirmSale only.
func CheckSend(t entity.MessageType, view entity.WorkflowView) error {
	if !t.Valid() {
		return apperrors.BadRequest("Unknown message type", nil)
	}
	if view.Role == "" {
		return apperrors.Forbidden("Not a participant of this conversation", nil)
	}

	switch t {
	case entity.MessageTypeText, entity.MessageTypeImage:
		return nil
	case entity.MessageTypePaymentRequest:
		if !view.CanRequestPayment {
			return apperrors.Forbidden("Payment can only be requested by the seller of an open conversation", nil)
		}
	case entity.MessageTypePaymentConfirmed:
		if !view.CanPay {
			return apperrors.Forbidden("Payment can only be confirmed by the buyer after a payment request", nil)
		}
	case entity.MessageTypeSaleConfirmed:
		return apperrors.Forbidden("Use sale confirmation to mark this item sold", nil)
	}
	return nil
}

// HasSaleConfirmation reports whether a sale_confirmed tag is already present.
func HasSaleConfirmation(messages []*entity.Message) bool {
	for _, m := range messages {
		if m.Type == entity.MessageTypeSaleConfirmed {
			return true
		}
	}
	return false
}
