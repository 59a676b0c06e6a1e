package entity

import "time"

type ProductStatus string

const (
	ProductStatusActive ProductStatus = "active"
	ProductStatusSold   ProductStatus = "sold"
	ProductStatusHidden ProductStatus = "hidden"
)

const DefaultCategory = "Autres"

type Product struct {
	ID           string        `json:"id" firestore:"id" bson:"_id"`
	Title        string        `json:"title" firestore:"title" bson:"title"`
	Description  string        `json:"description" firestore:"description" bson:"description"`
	Price        float64       `json:"price" firestore:"price" bson:"price"`
	Category     string        `json:"category" firestore:"category" bson:"category"`
	City         string        `json:"city" firestore:"city" bson:"city"`
	Images       []string      `json:"images" firestore:"images" bson:"images"`
	ImageURL     string        `json:"image_url,omitempty" firestore:"imageUrl,omitempty" bson:"imageUrl,omitempty"`
	SellerID     string        `json:"seller_id" firestore:"sellerId" bson:"sellerId"`
	SellerName   string        `json:"seller_name" firestore:"sellerName" bson:"sellerName"`
	SellerAvatar string        `json:"seller_avatar,omitempty" firestore:"sellerAvatar,omitempty" bson:"sellerAvatar,omitempty"`
	Status       ProductStatus `json:"status" firestore:"status" bson:"status"`
	BuyerID      string        `json:"buyer_id,omitempty" firestore:"buyerId,omitempty" bson:"buyerId,omitempty"`
	SoldAt       *time.Time    `json:"sold_at,omitempty" firestore:"soldAt,omitempty" bson:"soldAt,omitempty"`
	CreatedAt    time.Time     `json:"created_at" firestore:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time     `json:"updated_at" firestore:"updatedAt" bson:"updatedAt"`
}

// StatusUpdate is the only way a product's sale fields change.
type StatusUpdate struct {
	Status  ProductStatus
	BuyerID string
	SoldAt  *time.Time
}

type ProductFilter struct {
	Category string
	SellerID string
	Status   ProductStatus
	// Latest limits the result to the N most recent listings when > 0.
	Latest int
}
