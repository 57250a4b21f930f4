package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rozgarhub/rozgarhub-gobackend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/crypto/bcrypt"
)

type UserService struct {
	collection *mongo.Collection
	settings   *SettingsService
}

func NewUserService(db *mongo.Database, settings *SettingsService) *UserService {
	return &UserService{collection: db.Collection("accounts"), settings: settings}
}

// CreateAccount registers a payer profile with entitlements zeroed. Reviewer
// accounts are provisioned the same way with the role set by an existing
// operator, never through a hardcoded allow-list.
func (s *UserService) CreateAccount(ctx context.Context, account *models.Account) (string, error) {
	account.Email = strings.TrimSpace(strings.ToLower(account.Email))
	if account.Email == "" || account.FullName == "" {
		return "", fmt.Errorf("%w: fullname and email are required", ErrValidation)
	}
	if len(account.HPassword) < 8 {
		return "", fmt.Errorf("%w: password must be at least 8 characters", ErrValidation)
	}

	cfg, err := s.settings.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("load settings: %w", err)
	}
	if !cfg.AllowRegistrations || cfg.MaintenanceMode {
		return "", fmt.Errorf("%w: registrations are currently closed", ErrValidation)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(account.HPassword), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	account.HPassword = string(hashed)

	if account.Role == "" {
		account.Role = models.RoleUser
	}
	account.ID = primitive.NewObjectID()
	account.PaymentStatus = models.PaymentPending
	account.IsPremium = false
	account.PremiumStartAt = nil
	account.PremiumEndAt = nil
	account.VideoUploadEnabled = false
	account.ProfileStatus = models.ProfileIncomplete
	account.RegistrationApproved = false
	account.CreatedAt = time.Now()

	result, err := s.collection.InsertOne(ctx, account)
	if err != nil {
		return "", fmt.Errorf("insert account: %w", err)
	}
	return result.InsertedID.(primitive.ObjectID).Hex(), nil
}

func (s *UserService) GetAccount(ctx context.Context, id string) (*models.Account, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid account id %q", ErrValidation, id)
	}

	var account models.Account
	if err := s.collection.FindOne(ctx, bson.M{"_id": objID}).Decode(&account); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("fetch account %s: %w", id, err)
	}
	return &account, nil
}

func (s *UserService) AccountList(ctx context.Context) ([]models.Account, error) {
	projection := bson.D{{Key: "password", Value: 0}}
	cur, err := s.collection.Find(ctx, bson.D{}, options.Find().SetProjection(projection))
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer cur.Close(ctx)

	var accounts []models.Account
	if err := cur.All(ctx, &accounts); err != nil {
		return nil, fmt.Errorf("decode accounts: %w", err)
	}
	return accounts, nil
}

func (s *UserService) Login(ctx context.Context, email, password string) (*models.Account, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	var account models.Account
	if err := s.collection.FindOne(ctx, bson.M{"email": email}).Decode(&account); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, errors.New("invalid email or password")
		}
		return nil, fmt.Errorf("fetch account by email: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.HPassword), []byte(password)); err != nil {
		return nil, errors.New("invalid email or password")
	}

	account.HPassword = ""
	return &account, nil
}
