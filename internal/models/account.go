package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ProfileStatus tracks how far a payer's profile has progressed.
type ProfileStatus string

const (
	ProfileIncomplete   ProfileStatus = "incomplete"
	ProfileVideoPending ProfileStatus = "video_pending"
	ProfileComplete     ProfileStatus = "complete"
)

const (
	RoleUser     = "user"
	RoleReviewer = "reviewer"
)

// Account is a portal user profile. The entitlement fields are written only
// by the payment review flow; everything else belongs to the account surface.
type Account struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FullName  string             `bson:"fullname" json:"fullname"`
	Email     string             `bson:"email" json:"email"`
	Number    string             `bson:"number" json:"number"`
	HPassword string             `bson:"password" json:"password,omitempty"`
	Role      string             `bson:"role" json:"role"`

	PaymentStatus        PaymentStatus `bson:"payment_status,omitempty" json:"payment_status,omitempty"`
	IsPremium            bool          `bson:"is_premium" json:"is_premium"`
	PremiumStartAt       *time.Time    `bson:"premium_start_at,omitempty" json:"premium_start_at,omitempty"`
	PremiumEndAt         *time.Time    `bson:"premium_end_at,omitempty" json:"premium_end_at,omitempty"`
	VideoUploadEnabled   bool          `bson:"video_upload_enabled" json:"video_upload_enabled"`
	ProfileStatus        ProfileStatus `bson:"profile_status,omitempty" json:"profile_status,omitempty"`
	RegistrationApproved bool          `bson:"registration_approved" json:"registration_approved"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
