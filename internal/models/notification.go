package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Notification is a user-visible message appended by the review fan-out.
// EventID ties it to the audit entry written for the same decision.
type Notification struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	RecipientID string             `bson:"recipient_id" json:"recipient_id"`
	Kind        string             `bson:"kind" json:"kind"`
	Title       string             `bson:"title" json:"title"`
	Body        string             `bson:"body" json:"body"`
	Read        bool               `bson:"read" json:"read"`
	EventID     string             `bson:"event_id" json:"event_id"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
}
