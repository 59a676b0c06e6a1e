package entity

import "time"

// Review is unique per (ProductID, ReviewerID); the store enforces it.
type Review struct {
	ID           string    `json:"id" firestore:"id" bson:"_id"`
	ProductID    string    `json:"product_id" firestore:"productId" bson:"productId"`
	ProductTitle string    `json:"product_title" firestore:"productTitle" bson:"productTitle"`
	ReviewerID   string    `json:"reviewer_id" firestore:"reviewerId" bson:"reviewerId"`
	ReviewerName string    `json:"reviewer_name" firestore:"reviewerName" bson:"reviewerName"`
	SellerID     string    `json:"seller_id" firestore:"sellerId" bson:"sellerId"`
	SellerName   string    `json:"seller_name" firestore:"sellerName" bson:"sellerName"`
	Rating       int       `json:"rating" firestore:"rating" bson:"rating"`
	Comment      string    `json:"comment" firestore:"comment" bson:"comment"`
	CreatedAt    time.Time `json:"created_at" firestore:"createdAt" bson:"createdAt"`
}

// ReviewID is the deterministic document id for a product/reviewer pair.
func ReviewID(productID, reviewerID string) string {
	return productID + "_" + reviewerID
}

// Rating is a seller's aggregate, always recomputed from the full review set.
type Rating struct {
	Count   int     `json:"count" firestore:"count" bson:"count"`
	Average float64 `json:"average" firestore:"average" bson:"average"`
}

func ComputeRating(reviews []*Review) Rating {
	if len(reviews) == 0 {
		return Rating{}
	}
	sum := 0
	for _, r := range reviews {
		sum += r.Rating
	}
	return Rating{Count: len(reviews), Average: float64(sum) / float64(len(reviews))}
}
