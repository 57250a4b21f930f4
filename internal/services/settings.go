package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/rozgarhub/rozgarhub-gobackend/internal/models"
	"go.mongodb.org/mongo-driver/mongo"
)

// DefaultSettings are the business parameters used until an operator seeds
// the settings document. Amounts are minor currency units.
func DefaultSettings() models.Settings {
	return models.Settings{
		VideoUploadFee:     50000,
		ConnectionFee:      20000,
		CommissionRate:     0.5,
		AllowRegistrations: true,
		AllowVideoUploads:  true,
		MaintenanceMode:    false,
	}
}

// SettingsService is the read-only config store for the rest of the core.
// Update exists for the admin surface and for tests.
type SettingsService struct {
	store SettingsStore
}

func NewSettingsService(db *mongo.Database) *SettingsService {
	return &SettingsService{store: NewSettingsStore(db)}
}

func NewSettingsServiceWithStore(store SettingsStore) *SettingsService {
	return &SettingsService{store: store}
}

func (s *SettingsService) Get(ctx context.Context) (*models.Settings, error) {
	settings, err := s.store.Get(ctx)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			defaults := DefaultSettings()
			return &defaults, nil
		}
		return nil, err
	}
	return settings, nil
}

func (s *SettingsService) Update(ctx context.Context, settings *models.Settings) error {
	if settings.CommissionRate < 0 || settings.CommissionRate > 1 {
		return fmt.Errorf("%w: commission rate must be between 0 and 1", ErrValidation)
	}
	return s.store.Replace(ctx, settings)
}
