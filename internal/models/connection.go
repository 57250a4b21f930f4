package models

import "go.mongodb.org/mongo-driver/bson/primitive"

type ConnectionStatus string

const (
	ConnectionPending  ConnectionStatus = "pending"
	ConnectionApproved ConnectionStatus = "approved"
)

// Connection is a gated reveal of contact details between two parties.
// It moves to approved only as a side effect of approving a connection-kind
// payment.
type Connection struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SeekerID       string             `bson:"seeker_id" json:"seeker_id"`
	CounterpartyID string             `bson:"counterparty_id" json:"counterparty_id"`
	Status         ConnectionStatus   `bson:"status" json:"status"`
}
