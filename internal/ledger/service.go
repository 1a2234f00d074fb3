// Package ledger implements the inventory movement core: purchases, transfers,
// assignments and expenditures over per-location on-hand quantities.
//
// Every onHand decrease goes through Store.AdjustOnHand, which is a conditional
// atomic decrement, so two racing operations cannot drive a quantity negative.
// Record writes and inventory writes are still separate steps; a failure
// between them is logged and, where possible, compensated.
package ledger

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"asset-ledger-api/internal/models"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Recorder receives one call per completed operation.
type Recorder interface {
	RecordOperation(operation string, err error, quantity int)
}

type Options struct {
	// AssignmentInitialStatus is the status new assignments start in:
	// "active" (default) or "pending".
	AssignmentInitialStatus string
	Logger                  *slog.Logger
	Recorder                Recorder
	Now                     func() time.Time
	// PasswordCost is the bcrypt cost for new passwords. Zero means
	// bcrypt.DefaultCost.
	PasswordCost            int
}

type Service struct {
	store         Store
	log           *slog.Logger
	rec           Recorder
	now           func() time.Time
	initialStatus string
	passwordCost  int
}

// NewService wires a Service over store.
func NewService(store Store, opts Options) *Service {
	s := &Service{
		store:         store,
		log:           opts.Logger,
		rec:           opts.Recorder,
		now:           opts.Now,
		initialStatus: opts.AssignmentInitialStatus,
		passwordCost:  opts.PasswordCost,
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.passwordCost == 0 {
		s.passwordCost = bcrypt.DefaultCost
	}
	if s.initialStatus == "" {
		s.initialStatus = models.AssignmentActive
	}
	return s
}

// Store exposes the underlying store for read paths outside the ledger
// (login, health checks).
func (s *Service) Store() Store {
	return s.store
}

// Ping checks the store is reachable.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func (s *Service) observe(operation string, quantity int, err error) {
	if s.rec == nil {
		return
	}
	s.rec.RecordOperation(operation, err, quantity)
}

// newReference returns a human-facing record code such as TRF-1A2B3C4D.
func newReference(prefix string) string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return prefix + "-" + strings.ToUpper(id[:8])
}

func (s *Service) item(ctx context.Context, id int64) (*models.InventoryItem, error) {
	it, err := s.store.GetInventoryItem(ctx, id)
	if err != nil {
		return nil, lookup(err, "loading inventory item", "Asset not found")
	}
	return it, nil
}

func (s *Service) location(ctx context.Context, id int64, missing string) (*models.Location, error) {
	loc, err := s.store.GetLocation(ctx, id)
	if err != nil {
		return nil, lookup(err, "loading location", missing)
	}
	return loc, nil
}

func (s *Service) assetType(ctx context.Context, id int64) (*models.AssetType, error) {
	at, err := s.store.GetAssetType(ctx, id)
	if err != nil {
		return nil, lookup(err, "loading asset type", "Asset type not found")
	}
	return at, nil
}

// debit takes qty off an item atomically. Losing a race to another debit
// surfaces as a validation error, the same as failing the pre-check.
func (s *Service) debit(ctx context.Context, itemID int64, qty int, message string) error {
	if _, err := s.store.AdjustOnHand(ctx, itemID, -qty); err != nil {
		switch {
		case errors.Is(err, ErrInsufficientQuantity):
			return validationf("%s", message)
		case errors.Is(err, ErrNotFound):
			return notFound("Asset not found")
		}
		return unexpected("debiting inventory", err)
	}
	return nil
}

// credit returns qty to an item. Callers treat failure as a secondary-write
// failure: logged, never rolled back.
func (s *Service) credit(ctx context.Context, itemID int64, qty int) error {
	_, err := s.store.AdjustOnHand(ctx, itemID, qty)
	return err
}

// The populate helpers mirror a document populate: a missing reference
// leaves the field nil rather than failing the request.

func (s *Service) optLocation(ctx context.Context, id int64) *models.Location {
	loc, err := s.store.GetLocation(ctx, id)
	if err != nil {
		return nil
	}
	return loc
}

func (s *Service) optAssetType(ctx context.Context, id int64) *models.AssetType {
	at, err := s.store.GetAssetType(ctx, id)
	if err != nil {
		return nil
	}
	return at
}

func (s *Service) optItem(ctx context.Context, id int64) *models.InventoryItem {
	it, err := s.store.GetInventoryItem(ctx, id)
	if err != nil {
		return nil
	}
	return it
}

func (s *Service) optUser(ctx context.Context, id *int64) *models.UserRef {
	if id == nil {
		return nil
	}
	u, err := s.store.GetUser(ctx, *id)
	if err != nil {
		return nil
	}
	return u.Ref()
}

func requirePositive(qty int) error {
	if qty < 1 {
		return validationf("quantity must be a positive integer")
	}
	return nil
}
