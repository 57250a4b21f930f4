package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rozgarhub/rozgarhub-gobackend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// The store interfaces below are the per-document read/conditional-write
// primitives the services run on. The Mongo implementations are the only real
// ones; tests substitute fakes that honour the same conditional-update
// contract.

// ReviewStamp carries the fields written atomically with a payment status CAS.
type ReviewStamp struct {
	ReviewerID  string
	ReviewedAt  time.Time
	ExternalRef string // approve only
	Reason      string // reject only
}

// PaymentFilter narrows payment listings for the reviewer queue.
type PaymentFilter struct {
	Status  models.PaymentStatus
	PayerID string
	From    *time.Time
	To      *time.Time
}

type PaymentStore interface {
	Insert(ctx context.Context, p *models.Payment) (string, error)
	Get(ctx context.Context, id string) (*models.Payment, error)
	// Transition performs a compare-and-swap from pending to the given
	// status. It returns ErrNotFound for an unknown id and
	// ErrInvalidStateTransition when the payment already left pending,
	// writing nothing in either case.
	Transition(ctx context.Context, id string, to models.PaymentStatus, stamp ReviewStamp) (*models.Payment, error)
	MarkPatched(ctx context.Context, id string, at time.Time) error
	List(ctx context.Context, filter PaymentFilter) ([]models.Payment, error)
	// ListUnpatchedApproved finds approved payments whose entitlement patch
	// never landed; the reconciler re-drives them.
	ListUnpatchedApproved(ctx context.Context) ([]models.Payment, error)
}

type AccountStore interface {
	ApplyPatch(ctx context.Context, accountID string, patch EntitlementPatch) error
}

type ConnectionStore interface {
	// Approve sets the connection to approved and returns the document.
	// Approving an already-approved connection is a no-op by design: the
	// reconciler replays it freely.
	Approve(ctx context.Context, id string) (*models.Connection, error)
}

type NotificationStore interface {
	Insert(ctx context.Context, n *models.Notification) error
	ListByRecipient(ctx context.Context, recipientID string) ([]models.Notification, error)
	MarkRead(ctx context.Context, id string) error
}

type AuditStore interface {
	Insert(ctx context.Context, e *models.AuditEntry) error
}

type PlacementStore interface {
	Insert(ctx context.Context, p *models.Placement) (string, error)
	Get(ctx context.Context, id string) (*models.Placement, error)
	// Transition is the commission CAS from pending to collected/failed.
	Transition(ctx context.Context, id string, to models.CommissionStatus, paidAt *time.Time) (*models.Placement, error)
	ListByStatus(ctx context.Context, status models.CommissionStatus) ([]models.Placement, error)
	ListOverdue(ctx context.Context, now time.Time) ([]models.Placement, error)
}

type SettingsStore interface {
	Get(ctx context.Context) (*models.Settings, error)
	Replace(ctx context.Context, s *models.Settings) error
}

// --- Mongo implementations ---

type mongoPaymentStore struct {
	coll *mongo.Collection
}

func NewPaymentStore(db *mongo.Database) PaymentStore {
	return &mongoPaymentStore{coll: db.Collection("payments")}
}

func (s *mongoPaymentStore) Insert(ctx context.Context, p *models.Payment) (string, error) {
	p.ID = primitive.NewObjectID()
	result, err := s.coll.InsertOne(ctx, p)
	if err != nil {
		return "", fmt.Errorf("insert payment: %w", err)
	}
	return result.InsertedID.(primitive.ObjectID).Hex(), nil
}

func (s *mongoPaymentStore) Get(ctx context.Context, id string) (*models.Payment, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid payment id %q", ErrValidation, id)
	}

	var payment models.Payment
	if err := s.coll.FindOne(ctx, bson.M{"_id": objID}).Decode(&payment); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("fetch payment %s: %w", id, err)
	}
	return &payment, nil
}

func (s *mongoPaymentStore) Transition(ctx context.Context, id string, to models.PaymentStatus, stamp ReviewStamp) (*models.Payment, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid payment id %q", ErrValidation, id)
	}

	set := bson.M{
		"status":      to,
		"reviewer_id": stamp.ReviewerID,
		"reviewed_at": stamp.ReviewedAt,
	}
	if stamp.ExternalRef != "" {
		set["external_transaction_ref"] = stamp.ExternalRef
	}
	if stamp.Reason != "" {
		set["rejection_reason"] = stamp.Reason
	}

	// The pending filter is the race guard: two reviewers hitting the same
	// payment resolve to exactly one winner, the loser matches nothing.
	var payment models.Payment
	err = s.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": objID, "status": models.PaymentPending},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&payment)
	if err == nil {
		return &payment, nil
	}
	if err != mongo.ErrNoDocuments {
		return nil, fmt.Errorf("transition payment %s: %w", id, err)
	}

	// No match: unknown id or already terminal. A plain read tells which.
	if err := s.coll.FindOne(ctx, bson.M{"_id": objID}).Decode(&payment); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("fetch payment %s: %w", id, err)
	}
	return nil, fmt.Errorf("%w: payment %s is already %s", ErrInvalidStateTransition, id, payment.Status)
}

func (s *mongoPaymentStore) MarkPatched(ctx context.Context, id string, at time.Time) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: invalid payment id %q", ErrValidation, id)
	}
	_, err = s.coll.UpdateOne(ctx, bson.M{"_id": objID}, bson.M{"$set": bson.M{"patched_at": at}})
	if err != nil {
		return fmt.Errorf("mark payment %s patched: %w", id, err)
	}
	return nil
}

func (s *mongoPaymentStore) List(ctx context.Context, filter PaymentFilter) ([]models.Payment, error) {
	query := bson.M{}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	if filter.PayerID != "" {
		query["payer_id"] = filter.PayerID
	}
	if filter.From != nil && filter.To != nil {
		query["created_at"] = bson.M{"$gte": *filter.From, "$lte": *filter.To}
	}

	cur, err := s.coll.Find(ctx, query, options.Find().SetSort(bson.M{"created_at": -1}))
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer cur.Close(ctx)

	var payments []models.Payment
	if err := cur.All(ctx, &payments); err != nil {
		return nil, fmt.Errorf("decode payments: %w", err)
	}
	return payments, nil
}

func (s *mongoPaymentStore) ListUnpatchedApproved(ctx context.Context) ([]models.Payment, error) {
	query := bson.M{
		"status":     models.PaymentApproved,
		"patched_at": bson.M{"$exists": false},
	}
	cur, err := s.coll.Find(ctx, query, options.Find().SetSort(bson.M{"reviewed_at": 1}))
	if err != nil {
		return nil, fmt.Errorf("list unpatched payments: %w", err)
	}
	defer cur.Close(ctx)

	var payments []models.Payment
	if err := cur.All(ctx, &payments); err != nil {
		return nil, fmt.Errorf("decode unpatched payments: %w", err)
	}
	return payments, nil
}

type mongoAccountStore struct {
	coll *mongo.Collection
}

func NewAccountStore(db *mongo.Database) AccountStore {
	return &mongoAccountStore{coll: db.Collection("accounts")}
}

func (s *mongoAccountStore) ApplyPatch(ctx context.Context, accountID string, patch EntitlementPatch) error {
	if patch.IsZero() {
		return nil
	}
	objID, err := primitive.ObjectIDFromHex(accountID)
	if err != nil {
		return fmt.Errorf("%w: invalid account id %q", ErrValidation, accountID)
	}
	result, err := s.coll.UpdateOne(ctx, bson.M{"_id": objID}, bson.M{"$set": patch.SetFields()})
	if err != nil {
		return fmt.Errorf("patch account %s: %w", accountID, err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("%w: account %s", ErrNotFound, accountID)
	}
	return nil
}

type mongoConnectionStore struct {
	coll *mongo.Collection
}

func NewConnectionStore(db *mongo.Database) ConnectionStore {
	return &mongoConnectionStore{coll: db.Collection("connections")}
}

func (s *mongoConnectionStore) Approve(ctx context.Context, id string) (*models.Connection, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid connection id %q", ErrValidation, id)
	}

	var conn models.Connection
	err = s.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": objID},
		bson.M{"$set": bson.M{"status": models.ConnectionApproved}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&conn)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("%w: connection %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("approve connection %s: %w", id, err)
	}
	return &conn, nil
}

type mongoNotificationStore struct {
	coll *mongo.Collection
}

func NewNotificationStore(db *mongo.Database) NotificationStore {
	return &mongoNotificationStore{coll: db.Collection("notifications")}
}

func (s *mongoNotificationStore) Insert(ctx context.Context, n *models.Notification) error {
	n.ID = primitive.NewObjectID()
	if _, err := s.coll.InsertOne(ctx, n); err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

func (s *mongoNotificationStore) ListByRecipient(ctx context.Context, recipientID string) ([]models.Notification, error) {
	cur, err := s.coll.Find(ctx,
		bson.M{"recipient_id": recipientID},
		options.Find().SetSort(bson.M{"created_at": -1}),
	)
	if err != nil {
		return nil, fmt.Errorf("list notifications for %s: %w", recipientID, err)
	}
	defer cur.Close(ctx)

	var notifications []models.Notification
	if err := cur.All(ctx, &notifications); err != nil {
		return nil, fmt.Errorf("decode notifications: %w", err)
	}
	return notifications, nil
}

func (s *mongoNotificationStore) MarkRead(ctx context.Context, id string) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: invalid notification id %q", ErrValidation, id)
	}
	result, err := s.coll.UpdateOne(ctx, bson.M{"_id": objID}, bson.M{"$set": bson.M{"read": true}})
	if err != nil {
		return fmt.Errorf("mark notification %s read: %w", id, err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("%w: notification %s", ErrNotFound, id)
	}
	return nil
}

type mongoAuditStore struct {
	coll *mongo.Collection
}

func NewAuditStore(db *mongo.Database) AuditStore {
	return &mongoAuditStore{coll: db.Collection("audit_entries")}
}

func (s *mongoAuditStore) Insert(ctx context.Context, e *models.AuditEntry) error {
	e.ID = primitive.NewObjectID()
	if _, err := s.coll.InsertOne(ctx, e); err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

type mongoPlacementStore struct {
	coll *mongo.Collection
}

func NewPlacementStore(db *mongo.Database) PlacementStore {
	return &mongoPlacementStore{coll: db.Collection("placements")}
}

func (s *mongoPlacementStore) Insert(ctx context.Context, p *models.Placement) (string, error) {
	p.ID = primitive.NewObjectID()
	result, err := s.coll.InsertOne(ctx, p)
	if err != nil {
		return "", fmt.Errorf("insert placement: %w", err)
	}
	return result.InsertedID.(primitive.ObjectID).Hex(), nil
}

func (s *mongoPlacementStore) Get(ctx context.Context, id string) (*models.Placement, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid placement id %q", ErrValidation, id)
	}

	var placement models.Placement
	if err := s.coll.FindOne(ctx, bson.M{"_id": objID}).Decode(&placement); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("fetch placement %s: %w", id, err)
	}
	return &placement, nil
}

func (s *mongoPlacementStore) Transition(ctx context.Context, id string, to models.CommissionStatus, paidAt *time.Time) (*models.Placement, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid placement id %q", ErrValidation, id)
	}

	set := bson.M{"commission_status": to}
	if paidAt != nil {
		set["commission_paid_at"] = *paidAt
	}

	var placement models.Placement
	err = s.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": objID, "commission_status": models.CommissionPending},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&placement)
	if err == nil {
		return &placement, nil
	}
	if err != mongo.ErrNoDocuments {
		return nil, fmt.Errorf("transition placement %s: %w", id, err)
	}

	if err := s.coll.FindOne(ctx, bson.M{"_id": objID}).Decode(&placement); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("fetch placement %s: %w", id, err)
	}
	return nil, fmt.Errorf("%w: placement %s is already %s", ErrInvalidStateTransition, id, placement.CommissionStatus)
}

func (s *mongoPlacementStore) ListByStatus(ctx context.Context, status models.CommissionStatus) ([]models.Placement, error) {
	query := bson.M{}
	if status != "" {
		query["commission_status"] = status
	}
	cur, err := s.coll.Find(ctx, query, options.Find().SetSort(bson.M{"hired_at": -1}))
	if err != nil {
		return nil, fmt.Errorf("list placements: %w", err)
	}
	defer cur.Close(ctx)

	var placements []models.Placement
	if err := cur.All(ctx, &placements); err != nil {
		return nil, fmt.Errorf("decode placements: %w", err)
	}
	return placements, nil
}

func (s *mongoPlacementStore) ListOverdue(ctx context.Context, now time.Time) ([]models.Placement, error) {
	query := bson.M{
		"commission_status": models.CommissionPending,
		"commission_due_at": bson.M{"$lt": now},
	}
	cur, err := s.coll.Find(ctx, query, options.Find().SetSort(bson.M{"commission_due_at": 1}))
	if err != nil {
		return nil, fmt.Errorf("list overdue placements: %w", err)
	}
	defer cur.Close(ctx)

	var placements []models.Placement
	if err := cur.All(ctx, &placements); err != nil {
		return nil, fmt.Errorf("decode overdue placements: %w", err)
	}
	return placements, nil
}

// settingsDocID keys the single business-parameter document.
const settingsDocID = "portal"

type mongoSettingsStore struct {
	coll *mongo.Collection
}

func NewSettingsStore(db *mongo.Database) SettingsStore {
	return &mongoSettingsStore{coll: db.Collection("settings")}
}

func (s *mongoSettingsStore) Get(ctx context.Context) (*models.Settings, error) {
	var settings models.Settings
	if err := s.coll.FindOne(ctx, bson.M{"_id": settingsDocID}).Decode(&settings); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("fetch settings: %w", err)
	}
	return &settings, nil
}

func (s *mongoSettingsStore) Replace(ctx context.Context, settings *models.Settings) error {
	_, err := s.coll.ReplaceOne(ctx, bson.M{"_id": settingsDocID}, settings, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("replace settings: %w", err)
	}
	return nil
}
