package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/rozgarhub/rozgarhub-gobackend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// ReviewService owns the pending -> approved/rejected lifecycle of a payment.
//
// There is no cross-document transaction behind it: the status write is a
// compare-and-swap keyed on the pending status (at-most-once per payment), and
// every write after it is best-effort but idempotent, so a failed step can be
// re-driven by the reconciler without double-crediting the payer.
type ReviewService struct {
	payments    PaymentStore
	accounts    AccountStore
	connections ConnectionStore
	settings    *SettingsService
	fanout      *FanoutService
	now         func() time.Time
}

func NewReviewService(db *mongo.Database, settings *SettingsService, fanout *FanoutService) *ReviewService {
	return NewReviewServiceWithStores(NewPaymentStore(db), NewAccountStore(db), NewConnectionStore(db), settings, fanout)
}

// NewReviewServiceWithStores wires explicit stores, mainly for tests.
func NewReviewServiceWithStores(payments PaymentStore, accounts AccountStore, connections ConnectionStore, settings *SettingsService, fanout *FanoutService) *ReviewService {
	return &ReviewService{
		payments:    payments,
		accounts:    accounts,
		connections: connections,
		settings:    settings,
		fanout:      fanout,
		now:         time.Now,
	}
}

// ReviewResult is what a reviewer decision hands back to the HTTP layer.
// Warnings carry fan-out soft failures; a PartialFailureError on the error
// side means a dependent write (entitlement patch, connection reveal) needs a
// re-drive.
type ReviewResult struct {
	Payment  *models.Payment `json:"payment"`
	Warnings []string        `json:"warnings,omitempty"`
}

// Submit records a payer's proof-of-payment claim in pending state.
func (s *ReviewService) Submit(ctx context.Context, p *models.Payment) (string, error) {
	p.PayerID = strings.TrimSpace(p.PayerID)
	p.ProofRef = strings.TrimSpace(p.ProofRef)

	if p.PayerID == "" {
		return "", fmt.Errorf("%w: payer_id is required", ErrValidation)
	}
	if p.Amount <= 0 {
		return "", fmt.Errorf("%w: amount must be positive", ErrValidation)
	}
	if p.ProofRef == "" {
		return "", fmt.Errorf("%w: proof_ref is required", ErrValidation)
	}
	switch p.Kind {
	case models.KindRegistration, models.KindPremium, models.KindVideoUpload, models.KindConnection:
	default:
		return "", fmt.Errorf("%w: unknown payment kind %q", ErrValidation, p.Kind)
	}
	switch p.Method {
	case models.MethodEasypaisa, models.MethodJazzcash, models.MethodBankTransfer:
	default:
		return "", fmt.Errorf("%w: unknown payment method %q", ErrValidation, p.Method)
	}
	if p.Kind == models.KindConnection && p.LinkedConnectionID == "" {
		return "", fmt.Errorf("%w: connection payments require linked_connection_id", ErrValidation)
	}

	cfg, err := s.settings.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("load settings: %w", err)
	}
	if cfg.MaintenanceMode {
		return "", fmt.Errorf("%w: submissions are paused for maintenance", ErrValidation)
	}
	switch p.Kind {
	case models.KindRegistration:
		if !cfg.AllowRegistrations {
			return "", fmt.Errorf("%w: registrations are currently closed", ErrValidation)
		}
	case models.KindVideoUpload:
		if !cfg.AllowVideoUploads {
			return "", fmt.Errorf("%w: video uploads are currently disabled", ErrValidation)
		}
		if p.Amount != cfg.VideoUploadFee {
			return "", fmt.Errorf("%w: video upload fee is %d, got %d", ErrValidation, cfg.VideoUploadFee, p.Amount)
		}
	case models.KindConnection:
		if p.Amount != cfg.ConnectionFee {
			return "", fmt.Errorf("%w: connection fee is %d, got %d", ErrValidation, cfg.ConnectionFee, p.Amount)
		}
	}

	p.Status = models.PaymentPending
	p.ReviewerID = ""
	p.ReviewedAt = nil
	p.RejectionReason = ""
	p.PatchedAt = nil
	p.CreatedAt = s.now()

	id, err := s.payments.Insert(ctx, p)
	if err != nil {
		return "", err
	}
	log.Printf("review: payment submitted id=%s payer=%s kind=%s amount=%d", id, p.PayerID, p.Kind, p.Amount)
	return id, nil
}

// Approve settles a pending payment in the payer's favour.
//
// Write order: (a) CAS pending->approved stamping reviewer, review time and
// the external transaction reference; (b) entitlement patch on the payer's
// account; (c) connection reveal for connection-kind payments; (d) fan-out.
// Only (a) is guarded; a failure in (b) or (c) surfaces as PartialFailureError
// with the approval already committed.
func (s *ReviewService) Approve(ctx context.Context, paymentID, reviewerID, externalRef string) (*ReviewResult, error) {
	if strings.TrimSpace(reviewerID) == "" {
		return nil, fmt.Errorf("%w: reviewer id is required", ErrValidation)
	}

	payment, err := s.payments.Transition(ctx, paymentID, models.PaymentApproved, ReviewStamp{
		ReviewerID:  reviewerID,
		ReviewedAt:  s.now(),
		ExternalRef: strings.TrimSpace(externalRef),
	})
	if err != nil {
		return nil, err
	}
	log.Printf("review: payment approved id=%s kind=%s reviewer=%s", paymentID, payment.Kind, reviewerID)

	var failedSteps []string
	var firstErr error

	// The patch is derived from the stamped review time, not the wall clock,
	// so a replay writes byte-identical values: premium never extends twice.
	patch := ResolveEntitlementPatch(payment.Kind, payment.Amount, *payment.ReviewedAt)
	if err := s.accounts.ApplyPatch(ctx, payment.PayerID, patch); err != nil {
		log.Printf("review: entitlement patch failed payment=%s payer=%s: %v", paymentID, payment.PayerID, err)
		failedSteps = append(failedSteps, "entitlement_patch")
		firstErr = err
	} else if err := s.payments.MarkPatched(ctx, paymentID, s.now()); err != nil {
		// The patch landed; a missing stamp only means the reconciler will
		// replay an idempotent write.
		log.Printf("review: patched_at stamp failed payment=%s: %v", paymentID, err)
	}

	var counterpartyID string
	if payment.Kind == models.KindConnection {
		conn, err := s.connections.Approve(ctx, payment.LinkedConnectionID)
		if err != nil {
			log.Printf("review: connection reveal failed payment=%s connection=%s: %v", paymentID, payment.LinkedConnectionID, err)
			failedSteps = append(failedSteps, "connection_reveal")
			if firstErr == nil {
				firstErr = err
			}
		} else {
			counterpartyID = conn.CounterpartyID
		}
	}

	warnings := s.fanout.Emit(ctx, FanoutEvent{
		RecipientID: payment.PayerID,
		Kind:        "payment_approved",
		Title:       "Payment approved",
		Body:        fmt.Sprintf("Your %s payment of %d was approved.", payment.Kind, payment.Amount),
		ReviewerID:  reviewerID,
		ActionKind:  "payment_approve",
		TargetID:    paymentID,
		TargetKind:  "payment",
		Note:        string(payment.Kind),
	})
	if counterpartyID != "" {
		warnings = append(warnings, s.fanout.Emit(ctx, FanoutEvent{
			RecipientID: counterpartyID,
			Kind:        "connection_revealed",
			Title:       "New connection",
			Body:        "A paid connection to your profile was approved. Contact details are now visible to the other party.",
			ReviewerID:  reviewerID,
			ActionKind:  "connection_approve",
			TargetID:    payment.LinkedConnectionID,
			TargetKind:  "connection",
		})...)
	}

	result := &ReviewResult{Payment: payment, Warnings: warnings}
	if len(failedSteps) > 0 {
		return result, &PartialFailureError{Steps: failedSteps, Err: firstErr}
	}
	return result, nil
}

// Reject settles a pending payment against the payer, recording the reason
// and unblocking profile re-submission.
func (s *ReviewService) Reject(ctx context.Context, paymentID, reviewerID, reason string) (*ReviewResult, error) {
	if strings.TrimSpace(reviewerID) == "" {
		return nil, fmt.Errorf("%w: reviewer id is required", ErrValidation)
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, fmt.Errorf("%w: rejection reason is required", ErrValidation)
	}

	payment, err := s.payments.Transition(ctx, paymentID, models.PaymentRejected, ReviewStamp{
		ReviewerID: reviewerID,
		ReviewedAt: s.now(),
		Reason:     reason,
	})
	if err != nil {
		return nil, err
	}
	log.Printf("review: payment rejected id=%s reviewer=%s reason=%q", paymentID, reviewerID, reason)

	var failedSteps []string
	var firstErr error
	if err := s.accounts.ApplyPatch(ctx, payment.PayerID, RejectionPatch()); err != nil {
		log.Printf("review: rejection patch failed payment=%s payer=%s: %v", paymentID, payment.PayerID, err)
		failedSteps = append(failedSteps, "entitlement_patch")
		firstErr = err
	}

	warnings := s.fanout.Emit(ctx, FanoutEvent{
		RecipientID: payment.PayerID,
		Kind:        "payment_rejected",
		Title:       "Payment rejected",
		Body:        "Your payment was rejected: " + reason,
		ReviewerID:  reviewerID,
		ActionKind:  "payment_reject",
		TargetID:    paymentID,
		TargetKind:  "payment",
		Note:        reason,
	})

	result := &ReviewResult{Payment: payment, Warnings: warnings}
	if len(failedSteps) > 0 {
		return result, &PartialFailureError{Steps: failedSteps, Err: firstErr}
	}
	return result, nil
}

func (s *ReviewService) Get(ctx context.Context, paymentID string) (*models.Payment, error) {
	return s.payments.Get(ctx, paymentID)
}

func (s *ReviewService) List(ctx context.Context, filter PaymentFilter) ([]models.Payment, error) {
	return s.payments.List(ctx, filter)
}

// EnsureIndexes creates the indexes the review queue and reconciler query on.
func (s *ReviewService) EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "payer_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "patched_at", Value: 1}}},
	}
	if _, err := db.Collection("payments").Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("create payment indexes: %w", err)
	}
	return nil
}
