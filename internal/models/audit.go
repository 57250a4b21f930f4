package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AuditEntry records which operator did what to which record. Append-only.
type AuditEntry struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ReviewerID string             `bson:"reviewer_id" json:"reviewer_id"`
	ActionKind string             `bson:"action_kind" json:"action_kind"`
	TargetID   string             `bson:"target_id" json:"target_id"`
	TargetKind string             `bson:"target_kind" json:"target_kind"`
	Note       string             `bson:"note,omitempty" json:"note,omitempty"`
	EventID    string             `bson:"event_id" json:"event_id"`
	CreatedAt  time.Time          `bson:"created_at" json:"created_at"`
}
