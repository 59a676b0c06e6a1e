package entity

import "time"

type MessageType string

const (
	MessageTypeText             MessageType = "text"
	MessageTypeImage            MessageType = "image"
	MessageTypePaymentRequest   MessageType = "payment_request"
	MessageTypePaymentConfirmed MessageType = "payment_confirmed"
	MessageTypeSaleConfirmed    MessageType = "sale_confirmed"
)

func (t MessageType) Valid() bool {
	switch t {
	case MessageTypeText, MessageTypeImage, MessageTypePaymentRequest,
		MessageTypePaymentConfirmed, MessageTypeSaleConfirmed:
		return true
	}
	return false
}

// IsWorkflow reports whether the type is a control tag rather than chat content.
func (t MessageType) IsWorkflow() bool {
	return t == MessageTypePaymentRequest || t == MessageTypePaymentConfirmed || t == MessageTypeSaleConfirmed
}

// Role placeholders shown when no real display name is known.
const (
	BuyerPlaceholder  = "Acheteur"
	SellerPlaceholder = "Vendeur"
)

// Message is one chat record. A conversation is every message sharing
// {ProductID, BuyerID, SellerID}; it is never stored on its own.
type Message struct {
	ID           string      `json:"id" firestore:"id" bson:"_id"`
	ClientID     string      `json:"client_id,omitempty" firestore:"clientId,omitempty" bson:"clientId,omitempty"`
	ProductID    string      `json:"product_id" firestore:"productId" bson:"productId"`
	ProductTitle string      `json:"product_title" firestore:"productTitle" bson:"productTitle"`
	SenderID     string      `json:"sender_id" firestore:"senderId" bson:"senderId"`
	BuyerID      string      `json:"buyer_id" firestore:"buyerId" bson:"buyerId"`
	SellerID     string      `json:"seller_id" firestore:"sellerId" bson:"sellerId"`
	BuyerName    string      `json:"buyer_name" firestore:"buyerName" bson:"buyerName"`
	SellerName   string      `json:"seller_name" firestore:"sellerName" bson:"sellerName"`
	Content      string      `json:"content" firestore:"content" bson:"content"`
	Type         MessageType `json:"type" firestore:"type" bson:"type"`
	ImageURL     string      `json:"image_url,omitempty" firestore:"imageUrl,omitempty" bson:"imageUrl,omitempty"`
	ReadBy       []string    `json:"read_by" firestore:"readBy" bson:"readBy"`
	Timestamp    time.Time   `json:"timestamp" firestore:"timestamp" bson:"timestamp"`
}

func (m *Message) IsReadBy(userID string) bool {
	for _, id := range m.ReadBy {
		if id == userID {
			return true
		}
	}
	return false
}

// RecipientID is the participant who did not send the message.
func (m *Message) RecipientID() string {
	if m.SenderID == m.BuyerID {
		return m.SellerID
	}
	return m.BuyerID
}

// SenderName is the denormalized display name of whoever sent the message.
func (m *Message) SenderName() string {
	if m.SenderID == m.BuyerID {
		return m.BuyerName
	}
	return m.SellerName
}

// Preview is the text shown in notifications and inbox rows.
func (m *Message) Preview() string {
	if m.Content == "" && m.Type == MessageTypeImage {
		return "Image envoyée"
	}
	return m.Content
}
