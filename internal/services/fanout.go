package services

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/rozgarhub/rozgarhub-gobackend/internal/models"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/sync/errgroup"
)

// FanoutEvent describes the notification/audit pair written after a primary
// state transition.
type FanoutEvent struct {
	RecipientID string
	Kind        string
	Title       string
	Body        string

	ReviewerID string
	ActionKind string
	TargetID   string
	TargetKind string
	Note       string
}

// FanoutService appends a user-visible notification and an operator-visible
// audit entry for a reviewer decision. Both appends are best-effort: a failure
// is logged and returned as a warning string, never as an error, because the
// primary transition that triggered the fan-out already committed and must
// not be rolled back or blocked.
type FanoutService struct {
	notifications NotificationStore
	audits        AuditStore
	now           func() time.Time
}

func NewFanoutService(db *mongo.Database) *FanoutService {
	return NewFanoutServiceWithStores(NewNotificationStore(db), NewAuditStore(db))
}

func NewFanoutServiceWithStores(notifications NotificationStore, audits AuditStore) *FanoutService {
	return &FanoutService{
		notifications: notifications,
		audits:        audits,
		now:           time.Now,
	}
}

// Emit writes the two appends concurrently. The shared event id lets an
// operator join a notification to its audit entry.
func (s *FanoutService) Emit(ctx context.Context, ev FanoutEvent) []string {
	eventID := uuid.NewString()
	now := s.now()

	// Indexed slots, one per append, so no locking is needed.
	var failures [2]string

	var g errgroup.Group
	g.Go(func() error {
		n := &models.Notification{
			RecipientID: ev.RecipientID,
			Kind:        ev.Kind,
			Title:       ev.Title,
			Body:        ev.Body,
			EventID:     eventID,
			CreatedAt:   now,
		}
		if err := s.notifications.Insert(ctx, n); err != nil {
			log.Printf("fanout: notification append failed (event=%s recipient=%s): %v", eventID, ev.RecipientID, err)
			failures[0] = "notification: " + err.Error()
		}
		return nil
	})
	g.Go(func() error {
		e := &models.AuditEntry{
			ReviewerID: ev.ReviewerID,
			ActionKind: ev.ActionKind,
			TargetID:   ev.TargetID,
			TargetKind: ev.TargetKind,
			Note:       ev.Note,
			EventID:    eventID,
			CreatedAt:  now,
		}
		if err := s.audits.Insert(ctx, e); err != nil {
			log.Printf("fanout: audit append failed (event=%s target=%s/%s): %v", eventID, ev.TargetKind, ev.TargetID, err)
			failures[1] = "audit: " + err.Error()
		}
		return nil
	})
	g.Wait()

	var warnings []string
	for _, f := range failures {
		if f != "" {
			warnings = append(warnings, f)
		}
	}
	return warnings
}
