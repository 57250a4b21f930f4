package services

import (
	"context"
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	"github.com/rozgarhub/rozgarhub-gobackend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// commissionDuePeriod is how long the employer has to settle the commission
// after a hire.
const commissionDuePeriod = 30 * 24 * time.Hour

// HireParams is the payload the application aggregate sends when a candidate
// is hired.
type HireParams struct {
	JobID            string    `json:"job_id"`
	EmployerID       string    `json:"employer_id"`
	CandidateID      string    `json:"candidate_id"`
	JobTitle         string    `json:"job_title"`
	EmployerName     string    `json:"employer_name"`
	CandidateName    string    `json:"candidate_name"`
	FirstMonthSalary int64     `json:"first_month_salary"`
	HiredAt          time.Time `json:"hired_at"`
}

// PlacementService owns the pending -> collected/failed lifecycle of a
// commission obligation. Same consistency rules as payment review: the status
// write is a CAS on the pending status, the fan-out after it is best-effort.
type PlacementService struct {
	placements PlacementStore
	settings   *SettingsService
	fanout     *FanoutService
	now        func() time.Time
}

func NewPlacementService(db *mongo.Database, settings *SettingsService, fanout *FanoutService) *PlacementService {
	return NewPlacementServiceWithStores(NewPlacementStore(db), settings, fanout)
}

// NewPlacementServiceWithStores wires an explicit store, mainly for tests.
func NewPlacementServiceWithStores(placements PlacementStore, settings *SettingsService, fanout *FanoutService) *PlacementService {
	return &PlacementService{
		placements: placements,
		settings:   settings,
		fanout:     fanout,
		now:        time.Now,
	}
}

// CreateFromHire records the hire and freezes the commission amount from the
// rate configured right now. Later rate changes never touch this placement.
func (s *PlacementService) CreateFromHire(ctx context.Context, params HireParams) (*models.Placement, error) {
	if strings.TrimSpace(params.JobID) == "" ||
		strings.TrimSpace(params.EmployerID) == "" ||
		strings.TrimSpace(params.CandidateID) == "" {
		return nil, fmt.Errorf("%w: job_id, employer_id and candidate_id are required", ErrValidation)
	}
	if params.FirstMonthSalary <= 0 {
		return nil, fmt.Errorf("%w: first_month_salary must be positive", ErrValidation)
	}

	cfg, err := s.settings.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	hiredAt := params.HiredAt
	if hiredAt.IsZero() {
		hiredAt = s.now()
	}

	placement := &models.Placement{
		JobID:            params.JobID,
		EmployerID:       params.EmployerID,
		CandidateID:      params.CandidateID,
		JobTitle:         params.JobTitle,
		EmployerName:     params.EmployerName,
		CandidateName:    params.CandidateName,
		FirstMonthSalary: params.FirstMonthSalary,
		CommissionAmount: int64(math.Round(float64(params.FirstMonthSalary) * cfg.CommissionRate)),
		CommissionStatus: models.CommissionPending,
		HiredAt:          hiredAt,
		CommissionDueAt:  hiredAt.Add(commissionDuePeriod),
		CreatedAt:        s.now(),
	}

	id, err := s.placements.Insert(ctx, placement)
	if err != nil {
		return nil, err
	}
	log.Printf("placement: created id=%s job=%s commission=%d due=%s",
		id, placement.JobID, placement.CommissionAmount, placement.CommissionDueAt.Format(time.RFC3339))
	return placement, nil
}

// MarkCollected settles the commission. Terminal.
func (s *PlacementService) MarkCollected(ctx context.Context, placementID, reviewerID string) (*models.Placement, []string, error) {
	if strings.TrimSpace(reviewerID) == "" {
		return nil, nil, fmt.Errorf("%w: reviewer id is required", ErrValidation)
	}

	paidAt := s.now()
	placement, err := s.placements.Transition(ctx, placementID, models.CommissionCollected, &paidAt)
	if err != nil {
		return nil, nil, err
	}
	log.Printf("placement: commission collected id=%s amount=%d reviewer=%s", placementID, placement.CommissionAmount, reviewerID)

	warnings := s.fanout.Emit(ctx, FanoutEvent{
		RecipientID: placement.EmployerID,
		Kind:        "commission_collected",
		Title:       "Commission received",
		Body:        fmt.Sprintf("Commission of %d for %q has been received. Thank you.", placement.CommissionAmount, placement.JobTitle),
		ReviewerID:  reviewerID,
		ActionKind:  "commission_collect",
		TargetID:    placementID,
		TargetKind:  "placement",
	})
	return placement, warnings, nil
}

// MarkFailed writes off the commission. Terminal: there is no failed->pending
// retry path.
func (s *PlacementService) MarkFailed(ctx context.Context, placementID, reviewerID, note string) (*models.Placement, []string, error) {
	if strings.TrimSpace(reviewerID) == "" {
		return nil, nil, fmt.Errorf("%w: reviewer id is required", ErrValidation)
	}

	placement, err := s.placements.Transition(ctx, placementID, models.CommissionFailed, nil)
	if err != nil {
		return nil, nil, err
	}
	log.Printf("placement: commission failed id=%s amount=%d reviewer=%s note=%q", placementID, placement.CommissionAmount, reviewerID, note)

	warnings := s.fanout.Emit(ctx, FanoutEvent{
		RecipientID: placement.EmployerID,
		Kind:        "commission_failed",
		Title:       "Commission collection failed",
		Body:        fmt.Sprintf("Commission of %d for %q could not be collected.", placement.CommissionAmount, placement.JobTitle),
		ReviewerID:  reviewerID,
		ActionKind:  "commission_fail",
		TargetID:    placementID,
		TargetKind:  "placement",
		Note:        note,
	})
	return placement, warnings, nil
}

func (s *PlacementService) Get(ctx context.Context, placementID string) (*models.Placement, error) {
	return s.placements.Get(ctx, placementID)
}

func (s *PlacementService) ListByStatus(ctx context.Context, status models.CommissionStatus) ([]models.Placement, error) {
	switch status {
	case "", models.CommissionPending, models.CommissionCollected, models.CommissionFailed:
	default:
		return nil, fmt.Errorf("%w: unknown commission status %q", ErrValidation, status)
	}
	return s.placements.ListByStatus(ctx, status)
}

// ListOverdue returns pending placements past their due date.
func (s *PlacementService) ListOverdue(ctx context.Context) ([]models.Placement, error) {
	return s.placements.ListOverdue(ctx, s.now())
}

// EnsureIndexes creates the indexes the tracker queries on.
func (s *PlacementService) EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "commission_status", Value: 1}, {Key: "hired_at", Value: -1}}},
		{Keys: bson.D{{Key: "commission_status", Value: 1}, {Key: "commission_due_at", Value: 1}}},
	}
	if _, err := db.Collection("placements").Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("create placement indexes: %w", err)
	}
	return nil
}
