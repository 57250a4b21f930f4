package services

import (
	"context"
	"log"
	"time"

	"github.com/rozgarhub/rozgarhub-gobackend/internal/models"
	"go.mongodb.org/mongo-driver/mongo"
)

// ReconcileService closes the gap the write order leaves open: a payment can
// be approved while its entitlement patch never landed. The sweep finds such
// payments and replays the patch. Every replayed write is derived from fields
// frozen on the payment document (kind, amount, reviewed_at), so running the
// sweep twice, or racing it against an operator's manual re-drive, writes the
// same values again and credits nobody twice.
type ReconcileService struct {
	payments    PaymentStore
	accounts    AccountStore
	connections ConnectionStore
	now         func() time.Time
}

func NewReconcileService(db *mongo.Database) *ReconcileService {
	return NewReconcileServiceWithStores(NewPaymentStore(db), NewAccountStore(db), NewConnectionStore(db))
}

// NewReconcileServiceWithStores wires explicit stores, mainly for tests.
func NewReconcileServiceWithStores(payments PaymentStore, accounts AccountStore, connections ConnectionStore) *ReconcileService {
	return &ReconcileService{
		payments:    payments,
		accounts:    accounts,
		connections: connections,
		now:         time.Now,
	}
}

// Sweep re-drives the entitlement patch for every approved-but-unpatched
// payment. Returns how many payments were repaired.
func (s *ReconcileService) Sweep(ctx context.Context) (int, error) {
	stuck, err := s.payments.ListUnpatchedApproved(ctx)
	if err != nil {
		return 0, err
	}

	repaired := 0
	for _, payment := range stuck {
		if payment.ReviewedAt == nil {
			// Should not happen: the CAS stamps reviewed_at with the status.
			log.Printf("reconcile: payment %s approved without reviewed_at, skipping", payment.ID.Hex())
			continue
		}

		patch := ResolveEntitlementPatch(payment.Kind, payment.Amount, *payment.ReviewedAt)
		if err := s.accounts.ApplyPatch(ctx, payment.PayerID, patch); err != nil {
			log.Printf("reconcile: patch replay failed payment=%s payer=%s: %v", payment.ID.Hex(), payment.PayerID, err)
			continue
		}
		if payment.Kind == models.KindConnection {
			if _, err := s.connections.Approve(ctx, payment.LinkedConnectionID); err != nil {
				log.Printf("reconcile: connection replay failed payment=%s connection=%s: %v",
					payment.ID.Hex(), payment.LinkedConnectionID, err)
				continue
			}
		}
		if err := s.payments.MarkPatched(ctx, payment.ID.Hex(), s.now()); err != nil {
			log.Printf("reconcile: patched_at stamp failed payment=%s: %v", payment.ID.Hex(), err)
			continue
		}
		repaired++
	}

	if len(stuck) > 0 {
		log.Printf("reconcile: sweep found %d stuck payment(s), repaired %d", len(stuck), repaired)
	}
	return repaired, nil
}

// Run sweeps on a fixed interval until the context is cancelled. Started as a
// background goroutine from main.
func (s *ReconcileService) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Sweep(ctx); err != nil {
				log.Printf("reconcile: sweep failed: %v", err)
			}
		}
	}
}
