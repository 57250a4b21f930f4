package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rozgarhub/rozgarhub-gobackend/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// The fakes honour the same contracts as the Mongo stores: Transition is a
// compare-and-swap that writes nothing unless the record is still pending.

type fakePaymentStore struct {
	payments    map[string]*models.Payment
	transitions int
	writes      int
	patched     map[string]time.Time
	markErr     error
}

func newFakePaymentStore() *fakePaymentStore {
	return &fakePaymentStore{
		payments: make(map[string]*models.Payment),
		patched:  make(map[string]time.Time),
	}
}

func (f *fakePaymentStore) add(p *models.Payment) string {
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	id := p.ID.Hex()
	f.payments[id] = p
	return id
}

func (f *fakePaymentStore) Insert(ctx context.Context, p *models.Payment) (string, error) {
	f.writes++
	return f.add(p), nil
}

func (f *fakePaymentStore) Get(ctx context.Context, id string) (*models.Payment, error) {
	p, ok := f.payments[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *p
	return &copied, nil
}

func (f *fakePaymentStore) Transition(ctx context.Context, id string, to models.PaymentStatus, stamp ReviewStamp) (*models.Payment, error) {
	f.transitions++
	p, ok := f.payments[id]
	if !ok {
		return nil, ErrNotFound
	}
	if p.Status != models.PaymentPending {
		return nil, fmt.Errorf("%w: payment %s is already %s", ErrInvalidStateTransition, id, p.Status)
	}
	f.writes++
	p.Status = to
	p.ReviewerID = stamp.ReviewerID
	reviewedAt := stamp.ReviewedAt
	p.ReviewedAt = &reviewedAt
	if stamp.ExternalRef != "" {
		p.ExternalTransactionRef = stamp.ExternalRef
	}
	if stamp.Reason != "" {
		p.RejectionReason = stamp.Reason
	}
	copied := *p
	return &copied, nil
}

func (f *fakePaymentStore) MarkPatched(ctx context.Context, id string, at time.Time) error {
	if f.markErr != nil {
		return f.markErr
	}
	f.writes++
	f.patched[id] = at
	if p, ok := f.payments[id]; ok {
		patchedAt := at
		p.PatchedAt = &patchedAt
	}
	return nil
}

func (f *fakePaymentStore) List(ctx context.Context, filter PaymentFilter) ([]models.Payment, error) {
	var out []models.Payment
	for _, p := range f.payments {
		if filter.Status != "" && p.Status != filter.Status {
			continue
		}
		if filter.PayerID != "" && p.PayerID != filter.PayerID {
			continue
		}
		out = append(out, *p)
	}
	return out, nil
}

func (f *fakePaymentStore) ListUnpatchedApproved(ctx context.Context) ([]models.Payment, error) {
	var out []models.Payment
	for _, p := range f.payments {
		if p.Status == models.PaymentApproved && p.PatchedAt == nil {
			out = append(out, *p)
		}
	}
	return out, nil
}

type appliedPatch struct {
	accountID string
	patch     EntitlementPatch
}

type fakeAccountStore struct {
	applied  []appliedPatch
	applyErr error
}

func (f *fakeAccountStore) ApplyPatch(ctx context.Context, accountID string, patch EntitlementPatch) error {
	if f.applyErr != nil {
		return f.applyErr
	}
	if patch.IsZero() {
		return nil
	}
	f.applied = append(f.applied, appliedPatch{accountID: accountID, patch: patch})
	return nil
}

type fakeConnectionStore struct {
	connections map[string]*models.Connection
	approveErr  error
}

func newFakeConnectionStore() *fakeConnectionStore {
	return &fakeConnectionStore{connections: make(map[string]*models.Connection)}
}

func (f *fakeConnectionStore) add(c *models.Connection) string {
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	id := c.ID.Hex()
	f.connections[id] = c
	return id
}

func (f *fakeConnectionStore) Approve(ctx context.Context, id string) (*models.Connection, error) {
	if f.approveErr != nil {
		return nil, f.approveErr
	}
	c, ok := f.connections[id]
	if !ok {
		return nil, fmt.Errorf("%w: connection %s", ErrNotFound, id)
	}
	c.Status = models.ConnectionApproved
	copied := *c
	return &copied, nil
}

type fakeNotificationStore struct {
	notifications []models.Notification
	insertErr     error
}

func (f *fakeNotificationStore) Insert(ctx context.Context, n *models.Notification) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.notifications = append(f.notifications, *n)
	return nil
}

func (f *fakeNotificationStore) ListByRecipient(ctx context.Context, recipientID string) ([]models.Notification, error) {
	var out []models.Notification
	for _, n := range f.notifications {
		if n.RecipientID == recipientID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (f *fakeNotificationStore) MarkRead(ctx context.Context, id string) error {
	return nil
}

type fakeAuditStore struct {
	entries   []models.AuditEntry
	insertErr error
}

func (f *fakeAuditStore) Insert(ctx context.Context, e *models.AuditEntry) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.entries = append(f.entries, *e)
	return nil
}

type fakePlacementStore struct {
	placements  map[string]*models.Placement
	transitions int
	writes      int
}

func newFakePlacementStore() *fakePlacementStore {
	return &fakePlacementStore{placements: make(map[string]*models.Placement)}
}

func (f *fakePlacementStore) Insert(ctx context.Context, p *models.Placement) (string, error) {
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	f.writes++
	id := p.ID.Hex()
	f.placements[id] = p
	return id, nil
}

func (f *fakePlacementStore) Get(ctx context.Context, id string) (*models.Placement, error) {
	p, ok := f.placements[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *p
	return &copied, nil
}

func (f *fakePlacementStore) Transition(ctx context.Context, id string, to models.CommissionStatus, paidAt *time.Time) (*models.Placement, error) {
	f.transitions++
	p, ok := f.placements[id]
	if !ok {
		return nil, ErrNotFound
	}
	if p.CommissionStatus != models.CommissionPending {
		return nil, fmt.Errorf("%w: placement %s is already %s", ErrInvalidStateTransition, id, p.CommissionStatus)
	}
	f.writes++
	p.CommissionStatus = to
	if paidAt != nil {
		t := *paidAt
		p.CommissionPaidAt = &t
	}
	copied := *p
	return &copied, nil
}

func (f *fakePlacementStore) ListByStatus(ctx context.Context, status models.CommissionStatus) ([]models.Placement, error) {
	var out []models.Placement
	for _, p := range f.placements {
		if status == "" || p.CommissionStatus == status {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakePlacementStore) ListOverdue(ctx context.Context, now time.Time) ([]models.Placement, error) {
	var out []models.Placement
	for _, p := range f.placements {
		if p.CommissionStatus == models.CommissionPending && p.CommissionDueAt.Before(now) {
			out = append(out, *p)
		}
	}
	return out, nil
}

type fakeSettingsStore struct {
	settings *models.Settings
}

func (f *fakeSettingsStore) Get(ctx context.Context) (*models.Settings, error) {
	if f.settings == nil {
		return nil, ErrNotFound
	}
	copied := *f.settings
	return &copied, nil
}

func (f *fakeSettingsStore) Replace(ctx context.Context, s *models.Settings) error {
	copied := *s
	f.settings = &copied
	return nil
}
