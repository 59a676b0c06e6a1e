package entity

import (
	"sort"
	"strings"
	"time"
)

type Role string

const (
	RoleBuyer  Role = "buyer"
	RoleSeller Role = "seller"
)

// ConversationKey identifies a thread. The participant pair is stored sorted,
// so the key is the same whichever order buyer and seller are given.
type ConversationKey struct {
	ProductID string
	UserA     string
	UserB     string
}

func NewConversationKey(productID, buyerID, sellerID string) ConversationKey {
	pair := []string{buyerID, sellerID}
	sort.Strings(pair)
	return ConversationKey{ProductID: productID, UserA: pair[0], UserB: pair[1]}
}

func (k ConversationKey) String() string {
	return strings.Join([]string{k.ProductID, k.UserA, k.UserB}, "|")
}

// DocID is a storage-safe identifier for per-conversation records.
func (k ConversationKey) DocID() string {
	return strings.Join([]string{k.ProductID, k.UserA, k.UserB}, "_")
}

// ConversationParticipants holds the display names of each role owner. Only
// the owner of a role ever writes its name.
type ConversationParticipants struct {
	ID         string    `json:"id" firestore:"id" bson:"_id"`
	ProductID  string    `json:"product_id" firestore:"productId" bson:"productId"`
	BuyerID    string    `json:"buyer_id" firestore:"buyerId" bson:"buyerId"`
	SellerID   string    `json:"seller_id" firestore:"sellerId" bson:"sellerId"`
	BuyerName  string    `json:"buyer_name,omitempty" firestore:"buyerName,omitempty" bson:"buyerName,omitempty"`
	SellerName string    `json:"seller_name,omitempty" firestore:"sellerName,omitempty" bson:"sellerName,omitempty"`
	UpdatedAt  time.Time `json:"updated_at" firestore:"updatedAt" bson:"updatedAt"`
}

// Conversation is the inbox row derived from a bucket of messages.
type Conversation struct {
	Key              string    `json:"key"`
	ProductID        string    `json:"product_id"`
	ProductTitle     string    `json:"product_title"`
	BuyerID          string    `json:"buyer_id"`
	SellerID         string    `json:"seller_id"`
	BuyerName        string    `json:"buyer_name"`
	SellerName       string    `json:"seller_name"`
	Role             Role      `json:"role"`
	CounterpartyID   string    `json:"counterparty_id"`
	CounterpartyName string    `json:"counterparty_name"`
	LastMessage      Message   `json:"last_message"`
	LastActivity     time.Time `json:"last_activity"`
	UnreadCount      int       `json:"unread_count"`
	HasUnread        bool      `json:"has_unread"`
	State            SaleState `json:"state"`
}
