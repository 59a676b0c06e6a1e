package entity

import "time"

type User struct {
	ID          string    `json:"id" firestore:"id" bson:"_id"`
	Email       string    `json:"email" firestore:"email" bson:"email"`
	DisplayName string    `json:"display_name" firestore:"displayName" bson:"displayName"`
	PhotoURL    string    `json:"photo_url,omitempty" firestore:"photoURL,omitempty" bson:"photoURL,omitempty"`
	City        string    `json:"city,omitempty" firestore:"city,omitempty" bson:"city,omitempty"`
	Rating      Rating    `json:"rating" firestore:"rating" bson:"rating"`
	LastActive  time.Time `json:"last_active" firestore:"lastActive" bson:"lastActive"`
	FollowUpAt  time.Time `json:"-" firestore:"followUpAt,omitempty" bson:"followUpAt,omitempty"`
	CreatedAt   time.Time `json:"created_at" firestore:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time `json:"updated_at" firestore:"updatedAt" bson:"updatedAt"`
}

type PresenceVerdict string

const (
	PresenceOnline  PresenceVerdict = "online"
	PresenceOffline PresenceVerdict = "offline"
	PresenceUnknown PresenceVerdict = "unknown"
)

type Presence struct {
	UserID     string          `json:"user_id"`
	Verdict    PresenceVerdict `json:"verdict"`
	LastActive *time.Time      `json:"last_active,omitempty"`
}
