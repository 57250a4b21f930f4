package services

import (
	"log"
	"time"

	"github.com/rozgarhub/rozgarhub-gobackend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
)

// premiumPeriod is how long a premium payment unlocks the payer's account for.
const premiumPeriod = 30 * 24 * time.Hour

// EntitlementPatch is the set of account fields a reviewed payment writes
// onto the payer. Nil fields are left untouched, so the patch never clobbers
// account state it does not own.
type EntitlementPatch struct {
	PaymentStatus        *models.PaymentStatus
	RegistrationApproved *bool
	IsPremium            *bool
	PremiumStartAt       *time.Time
	PremiumEndAt         *time.Time
	VideoUploadEnabled   *bool
	ProfileStatus        *models.ProfileStatus
}

func (p EntitlementPatch) IsZero() bool {
	return p.PaymentStatus == nil &&
		p.RegistrationApproved == nil &&
		p.IsPremium == nil &&
		p.PremiumStartAt == nil &&
		p.PremiumEndAt == nil &&
		p.VideoUploadEnabled == nil &&
		p.ProfileStatus == nil
}

// SetFields renders the patch as a partial $set document.
func (p EntitlementPatch) SetFields() bson.M {
	set := bson.M{}
	if p.PaymentStatus != nil {
		set["payment_status"] = *p.PaymentStatus
	}
	if p.RegistrationApproved != nil {
		set["registration_approved"] = *p.RegistrationApproved
	}
	if p.IsPremium != nil {
		set["is_premium"] = *p.IsPremium
	}
	if p.PremiumStartAt != nil {
		set["premium_start_at"] = *p.PremiumStartAt
	}
	if p.PremiumEndAt != nil {
		set["premium_end_at"] = *p.PremiumEndAt
	}
	if p.VideoUploadEnabled != nil {
		set["video_upload_enabled"] = *p.VideoUploadEnabled
	}
	if p.ProfileStatus != nil {
		set["profile_status"] = *p.ProfileStatus
	}
	return set
}

// ResolveEntitlementPatch maps an approved payment to the account fields it
// unlocks. Pure and deterministic: callers pass the payment's review time, so
// replaying the patch always produces the same values (a re-driven premium
// approval can never extend premium_end_at a second time).
func ResolveEntitlementPatch(kind models.PaymentKind, amount int64, now time.Time) EntitlementPatch {
	switch kind {
	case models.KindRegistration:
		return EntitlementPatch{
			RegistrationApproved: boolPtr(true),
			PaymentStatus:        statusPtr(models.PaymentApproved),
		}
	case models.KindPremium:
		start := now
		end := now.Add(premiumPeriod)
		return EntitlementPatch{
			IsPremium:      boolPtr(true),
			PremiumStartAt: &start,
			PremiumEndAt:   &end,
		}
	case models.KindVideoUpload:
		return EntitlementPatch{
			VideoUploadEnabled: boolPtr(true),
			ProfileStatus:      profilePtr(models.ProfileVideoPending),
		}
	case models.KindConnection:
		// The connection reveal itself targets a different document and is
		// handled by the review state machine.
		return EntitlementPatch{
			PaymentStatus: statusPtr(models.PaymentApproved),
		}
	default:
		// Forward-incompatible data must not block a reviewer, so an unknown
		// kind degrades to a no-op patch instead of failing the approval.
		log.Printf("entitlement: unknown payment kind %q (amount=%d), applying no patch", kind, amount)
		return EntitlementPatch{}
	}
}

// RejectionPatch unblocks re-submission after a rejected payment.
func RejectionPatch() EntitlementPatch {
	return EntitlementPatch{
		PaymentStatus: statusPtr(models.PaymentRejected),
		ProfileStatus: profilePtr(models.ProfileIncomplete),
	}
}

func boolPtr(b bool) *bool                                  { return &b }
func statusPtr(s models.PaymentStatus) *models.PaymentStatus { return &s }
func profilePtr(s models.ProfileStatus) *models.ProfileStatus { return &s }
