package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PaymentKind identifies which paid action a proof-of-payment claims.
// The entitlement resolver switches exhaustively over these values; adding a
// kind without handling it there leaves the payer without entitlements.
type PaymentKind string

const (
	KindRegistration PaymentKind = "registration"
	KindPremium      PaymentKind = "premium"
	KindVideoUpload  PaymentKind = "video_upload"
	KindConnection   PaymentKind = "connection"
)

// PaymentMethod is the offline channel the payer claims to have used.
type PaymentMethod string

const (
	MethodEasypaisa    PaymentMethod = "easypaisa"
	MethodJazzcash     PaymentMethod = "jazzcash"
	MethodBankTransfer PaymentMethod = "bank_transfer"
)

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentApproved PaymentStatus = "approved"
	PaymentRejected PaymentStatus = "rejected"
)

// Payment is a payer's claim that an offline transfer happened, backed by a
// proof screenshot in external storage. Status is write-once after leaving
// pending; payments are never deleted.
type Payment struct {
	ID                     primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	PayerID                string             `bson:"payer_id" json:"payer_id"`
	Amount                 int64              `bson:"amount" json:"amount"` // minor currency units
	Kind                   PaymentKind        `bson:"kind" json:"kind"`
	Method                 PaymentMethod      `bson:"method" json:"method"`
	ProofRef               string             `bson:"proof_ref" json:"proof_ref"`
	ExternalTransactionRef string             `bson:"external_transaction_ref,omitempty" json:"external_transaction_ref,omitempty"`
	Status                 PaymentStatus      `bson:"status" json:"status"`
	ReviewerID             string             `bson:"reviewer_id,omitempty" json:"reviewer_id,omitempty"`
	ReviewedAt             *time.Time         `bson:"reviewed_at,omitempty" json:"reviewed_at,omitempty"`
	RejectionReason        string             `bson:"rejection_reason,omitempty" json:"rejection_reason,omitempty"`
	LinkedConnectionID     string             `bson:"linked_connection_id,omitempty" json:"linked_connection_id,omitempty"`
	// PatchedAt is stamped once the payer's entitlements reflect this
	// payment. Approved payments without it are picked up by the reconciler.
	PatchedAt *time.Time `bson:"patched_at,omitempty" json:"patched_at,omitempty"`
	CreatedAt time.Time  `bson:"created_at" json:"created_at"`
}
