package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rozgarhub/rozgarhub-gobackend/internal/models"
)

type reviewFixture struct {
	svc           *ReviewService
	payments      *fakePaymentStore
	accounts      *fakeAccountStore
	connections   *fakeConnectionStore
	notifications *fakeNotificationStore
	audits        *fakeAuditStore
	settings      *fakeSettingsStore
}

func newReviewFixture() *reviewFixture {
	f := &reviewFixture{
		payments:      newFakePaymentStore(),
		accounts:      &fakeAccountStore{},
		connections:   newFakeConnectionStore(),
		notifications: &fakeNotificationStore{},
		audits:        &fakeAuditStore{},
		settings:      &fakeSettingsStore{},
	}
	fanout := NewFanoutServiceWithStores(f.notifications, f.audits)
	f.svc = NewReviewServiceWithStores(f.payments, f.accounts, f.connections,
		NewSettingsServiceWithStore(f.settings), fanout)
	return f
}

func pendingPayment(kind models.PaymentKind, amount int64) *models.Payment {
	return &models.Payment{
		PayerID:   "payer-1",
		Amount:    amount,
		Kind:      kind,
		Method:    models.MethodEasypaisa,
		ProofRef:  "proofs/receipt.jpg",
		Status:    models.PaymentPending,
		CreatedAt: time.Now(),
	}
}

func TestApprovePremiumPatchesEntitlementWindow(t *testing.T) {
	f := newReviewFixture()
	reviewTime := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	f.svc.now = func() time.Time { return reviewTime }

	id := f.payments.add(pendingPayment(models.KindPremium, 10000))

	result, err := f.svc.Approve(context.Background(), id, "reviewer-1", "TXN-42")
	if err != nil {
		t.Fatalf("expected approval to succeed, got %v", err)
	}

	if result.Payment.Status != models.PaymentApproved {
		t.Errorf("expected status approved, got %s", result.Payment.Status)
	}
	if result.Payment.ReviewerID != "reviewer-1" {
		t.Errorf("expected reviewer stamp, got %q", result.Payment.ReviewerID)
	}
	if result.Payment.ExternalTransactionRef != "TXN-42" {
		t.Errorf("expected external ref stamp, got %q", result.Payment.ExternalTransactionRef)
	}

	if len(f.accounts.applied) != 1 {
		t.Fatalf("expected exactly one entitlement patch, got %d", len(f.accounts.applied))
	}
	patch := f.accounts.applied[0]
	if patch.accountID != "payer-1" {
		t.Errorf("patch applied to wrong account %q", patch.accountID)
	}
	if patch.patch.IsPremium == nil || !*patch.patch.IsPremium {
		t.Errorf("expected is_premium=true")
	}
	if !patch.patch.PremiumStartAt.Equal(reviewTime) {
		t.Errorf("expected premium_start_at=%v, got %v", reviewTime, patch.patch.PremiumStartAt)
	}
	wantEnd := time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)
	if !patch.patch.PremiumEndAt.Equal(wantEnd) {
		t.Errorf("expected premium_end_at=%v, got %v", wantEnd, patch.patch.PremiumEndAt)
	}

	stored, _ := f.payments.Get(context.Background(), id)
	if stored.PatchedAt == nil {
		t.Errorf("expected patched_at stamp after successful patch")
	}
	if len(f.notifications.notifications) != 1 {
		t.Errorf("expected one payer notification, got %d", len(f.notifications.notifications))
	}
	if len(f.audits.entries) != 1 {
		t.Errorf("expected one audit entry, got %d", len(f.audits.entries))
	}
}

func TestApproveTwiceFailsWithoutWrites(t *testing.T) {
	f := newReviewFixture()
	id := f.payments.add(pendingPayment(models.KindRegistration, 100000))

	if _, err := f.svc.Approve(context.Background(), id, "reviewer-1", ""); err != nil {
		t.Fatalf("first approval failed: %v", err)
	}
	writesAfterFirst := f.payments.writes
	patchesAfterFirst := len(f.accounts.applied)
	notificationsAfterFirst := len(f.notifications.notifications)

	_, err := f.svc.Approve(context.Background(), id, "reviewer-2", "")
	if !errors.Is(err, ErrInvalidStateTransition) {
		t.Fatalf("expected ErrInvalidStateTransition, got %v", err)
	}

	if f.payments.writes != writesAfterFirst {
		t.Errorf("second approval must not write to the payment")
	}
	if len(f.accounts.applied) != patchesAfterFirst {
		t.Errorf("second approval must not patch the account again")
	}
	if len(f.notifications.notifications) != notificationsAfterFirst {
		t.Errorf("second approval must not notify again")
	}

	stored, _ := f.payments.Get(context.Background(), id)
	if stored.ReviewerID != "reviewer-1" {
		t.Errorf("losing reviewer must not overwrite the stamp, got %q", stored.ReviewerID)
	}
}

func TestRejectAfterApproveFails(t *testing.T) {
	f := newReviewFixture()
	id := f.payments.add(pendingPayment(models.KindPremium, 10000))

	if _, err := f.svc.Approve(context.Background(), id, "reviewer-1", ""); err != nil {
		t.Fatalf("approval failed: %v", err)
	}

	_, err := f.svc.Reject(context.Background(), id, "reviewer-2", "changed my mind")
	if !errors.Is(err, ErrInvalidStateTransition) {
		t.Fatalf("expected ErrInvalidStateTransition, got %v", err)
	}
}

func TestApproveUnknownPayment(t *testing.T) {
	f := newReviewFixture()

	_, err := f.svc.Approve(context.Background(), "64b5fc0000000000deadbeef", "reviewer-1", "")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRejectRequiresReason(t *testing.T) {
	f := newReviewFixture()
	id := f.payments.add(pendingPayment(models.KindVideoUpload, 50000))

	_, err := f.svc.Reject(context.Background(), id, "reviewer-1", "   ")
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}

	if f.payments.transitions != 0 {
		t.Errorf("validation failure must happen before any write attempt")
	}
	stored, _ := f.payments.Get(context.Background(), id)
	if stored.Status != models.PaymentPending {
		t.Errorf("payment must stay pending, got %s", stored.Status)
	}
}

func TestRejectPatchesAccountAndCarriesReason(t *testing.T) {
	f := newReviewFixture()
	id := f.payments.add(pendingPayment(models.KindVideoUpload, 50000))

	result, err := f.svc.Reject(context.Background(), id, "reviewer-1", "blurry screenshot")
	if err != nil {
		t.Fatalf("rejection failed: %v", err)
	}

	if result.Payment.Status != models.PaymentRejected {
		t.Errorf("expected status rejected, got %s", result.Payment.Status)
	}
	if result.Payment.RejectionReason != "blurry screenshot" {
		t.Errorf("expected rejection reason stored, got %q", result.Payment.RejectionReason)
	}

	if len(f.accounts.applied) != 1 {
		t.Fatalf("expected one account patch, got %d", len(f.accounts.applied))
	}
	patch := f.accounts.applied[0].patch
	if patch.PaymentStatus == nil || *patch.PaymentStatus != models.PaymentRejected {
		t.Errorf("expected payment_status=rejected on the account")
	}
	if patch.ProfileStatus == nil || *patch.ProfileStatus != models.ProfileIncomplete {
		t.Errorf("expected profile_status=incomplete to unblock re-submission")
	}

	if len(f.notifications.notifications) != 1 {
		t.Fatalf("expected one notification, got %d", len(f.notifications.notifications))
	}
	if body := f.notifications.notifications[0].Body; !strings.Contains(body, "blurry screenshot") {
		t.Errorf("notification must carry the reason, got %q", body)
	}
}

func TestApproveConnectionRevealsAndNotifiesCounterparty(t *testing.T) {
	f := newReviewFixture()
	connID := f.connections.add(&models.Connection{
		SeekerID:       "payer-1",
		CounterpartyID: "employer-9",
		Status:         models.ConnectionPending,
	})
	payment := pendingPayment(models.KindConnection, 20000)
	payment.LinkedConnectionID = connID
	id := f.payments.add(payment)

	if _, err := f.svc.Approve(context.Background(), id, "reviewer-1", ""); err != nil {
		t.Fatalf("approval failed: %v", err)
	}

	if f.connections.connections[connID].Status != models.ConnectionApproved {
		t.Errorf("expected linked connection approved")
	}

	counterparty, _ := f.notifications.ListByRecipient(context.Background(), "employer-9")
	if len(counterparty) != 1 {
		t.Fatalf("expected exactly one counterparty notification, got %d", len(counterparty))
	}
	payer, _ := f.notifications.ListByRecipient(context.Background(), "payer-1")
	if len(payer) != 1 {
		t.Fatalf("expected exactly one payer notification, got %d", len(payer))
	}
}

func TestApprovePartialFailureKeepsApproval(t *testing.T) {
	f := newReviewFixture()
	f.accounts.applyErr = errors.New("store unavailable")
	id := f.payments.add(pendingPayment(models.KindPremium, 10000))

	result, err := f.svc.Approve(context.Background(), id, "reviewer-1", "")

	var partial *PartialFailureError
	if !errors.As(err, &partial) {
		t.Fatalf("expected PartialFailureError, got %v", err)
	}
	if len(partial.Steps) != 1 || partial.Steps[0] != "entitlement_patch" {
		t.Errorf("expected entitlement_patch step recorded, got %v", partial.Steps)
	}
	if result == nil || result.Payment.Status != models.PaymentApproved {
		t.Fatalf("primary transition is the source of truth and must stand")
	}

	stored, _ := f.payments.Get(context.Background(), id)
	if stored.Status != models.PaymentApproved {
		t.Errorf("payment must stay approved in the store")
	}
	if stored.PatchedAt != nil {
		t.Errorf("patched_at must stay unset so the reconciler can find it")
	}
}

func TestSubmitValidation(t *testing.T) {
	f := newReviewFixture()

	cases := []struct {
		name   string
		mutate func(p *models.Payment)
	}{
		{"missing payer", func(p *models.Payment) { p.PayerID = "" }},
		{"zero amount", func(p *models.Payment) { p.Amount = 0 }},
		{"negative amount", func(p *models.Payment) { p.Amount = -500 }},
		{"missing proof", func(p *models.Payment) { p.ProofRef = "" }},
		{"unknown kind", func(p *models.Payment) { p.Kind = "bribe" }},
		{"unknown method", func(p *models.Payment) { p.Method = "cash_under_table" }},
		{"connection without link", func(p *models.Payment) { p.Kind = models.KindConnection; p.Amount = 20000 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := pendingPayment(models.KindPremium, 10000)
			tc.mutate(p)
			if _, err := f.svc.Submit(context.Background(), p); !errors.Is(err, ErrValidation) {
				t.Errorf("expected ErrValidation, got %v", err)
			}
		})
	}

	if f.payments.writes != 0 {
		t.Errorf("validation failures must not write, got %d writes", f.payments.writes)
	}
}

func TestSubmitHonoursConfigToggles(t *testing.T) {
	f := newReviewFixture()

	cfg := DefaultSettings()
	cfg.MaintenanceMode = true
	f.settings.settings = &cfg
	if _, err := f.svc.Submit(context.Background(), pendingPayment(models.KindPremium, 10000)); !errors.Is(err, ErrValidation) {
		t.Errorf("maintenance mode must block submissions, got %v", err)
	}

	cfg = DefaultSettings()
	cfg.AllowVideoUploads = false
	f.settings.settings = &cfg
	if _, err := f.svc.Submit(context.Background(), pendingPayment(models.KindVideoUpload, cfg.VideoUploadFee)); !errors.Is(err, ErrValidation) {
		t.Errorf("disabled video uploads must block submissions, got %v", err)
	}

	cfg = DefaultSettings()
	f.settings.settings = &cfg
	if _, err := f.svc.Submit(context.Background(), pendingPayment(models.KindVideoUpload, cfg.VideoUploadFee+1)); !errors.Is(err, ErrValidation) {
		t.Errorf("wrong fee amount must fail validation, got %v", err)
	}

	id, err := f.svc.Submit(context.Background(), pendingPayment(models.KindVideoUpload, cfg.VideoUploadFee))
	if err != nil {
		t.Fatalf("valid submission failed: %v", err)
	}
	stored, _ := f.payments.Get(context.Background(), id)
	if stored.Status != models.PaymentPending {
		t.Errorf("submissions must start pending, got %s", stored.Status)
	}
}
