// Package transaction is the write path for user transactions.
package transaction

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bobmcallan/heritage/internal/common"
	"github.com/bobmcallan/heritage/internal/interfaces"
	"github.com/bobmcallan/heritage/internal/models"
	"github.com/bobmcallan/heritage/internal/services/valuation"
)

// Service implements TransactionService. Every accepted write drops the
// user's cached valuation results. Writes for one user are serialised so the
// holdings check always sees the history it is about to extend.
type Service struct {
	store       interfaces.TransactionStore
	assets      interfaces.AssetService
	invalidator interfaces.CacheInvalidator
	logger      *common.Logger
	now         func() time.Time
	userLocks   sync.Map // user id -> *sync.Mutex
}

// Option configures the service
type Option func(*Service)

// WithClock overrides the clock used for creation timestamps and date checks
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates a new transaction service. invalidator may be nil when
// valuation results are not cached.
func NewService(store interfaces.TransactionStore, assets interfaces.AssetService, invalidator interfaces.CacheInvalidator, logger *common.Logger, opts ...Option) *Service {
	s := &Service{
		store:       store,
		assets:      assets,
		invalidator: invalidator,
		logger:      logger,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) lockUser(userID string) func() {
	v, _ := s.userLocks.LoadOrStore(userID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

func validateUserID(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return common.NewValidationError("user_id", "must not be empty")
	}
	return nil
}

// List returns the user's transactions in replay order.
func (s *Service) List(ctx context.Context, userID string) ([]*models.Transaction, error) {
	if err := validateUserID(userID); err != nil {
		return nil, err
	}
	txs, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions for user %s: %w", userID, err)
	}
	return txs, nil
}

// Add validates and stores a single transaction.
func (s *Service) Add(ctx context.Context, tx *models.Transaction) (*models.Transaction, error) {
	if tx == nil {
		return nil, common.NewValidationError("transaction", "must not be nil")
	}
	added, err := s.AddRange(ctx, tx.UserID, []*models.Transaction{tx})
	if err != nil {
		return nil, err
	}
	return added[0], nil
}

// AddRange validates and stores txs for userID in one batch. Either every
// transaction is stored or none is.
func (s *Service) AddRange(ctx context.Context, userID string, txs []*models.Transaction) ([]*models.Transaction, error) {
	if err := validateUserID(userID); err != nil {
		return nil, err
	}
	if len(txs) == 0 {
		return nil, common.NewValidationError("transactions", "must not be empty")
	}

	directory, err := s.assets.GetDictionary(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load asset directory: %w", err)
	}

	now := s.now().UTC()
	prepared := make([]*models.Transaction, 0, len(txs))
	var missing []string
	for i, tx := range txs {
		if tx == nil {
			return nil, common.NewValidationError(fmt.Sprintf("transactions[%d]", i), "must not be nil")
		}
		// creation times increase with input order so same-day rows replay as submitted
		p, err := s.normalize(tx, userID, now.Add(time.Duration(i)))
		if err != nil {
			return nil, err
		}
		if _, ok := directory[p.AssetCode]; !ok {
			missing = append(missing, p.AssetCode)
		}
		prepared = append(prepared, p)
	}
	if len(missing) > 0 {
		return nil, common.NewAssetsNotFoundError(missing)
	}

	unlock := s.lockUser(userID)
	defer unlock()

	existing, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions for user %s: %w", userID, err)
	}
	if err := s.checkHoldings(append(append([]*models.Transaction{}, existing...), prepared...)); err != nil {
		return nil, err
	}

	if len(prepared) == 1 {
		err = s.store.Save(ctx, prepared[0])
	} else {
		err = s.store.SaveBatch(ctx, prepared)
	}
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Int("count", len(prepared)).Msg("Failed to store transactions")
		return nil, fmt.Errorf("failed to store transactions for user %s: %w", userID, err)
	}

	s.invalidate(ctx, userID)
	s.logger.Info().Str("user_id", userID).Int("count", len(prepared)).Msg("Transactions added")
	return prepared, nil
}

// Remove deletes one of the user's transactions. Removing a buy that later
// sells depend on is rejected.
func (s *Service) Remove(ctx context.Context, userID, id string) error {
	if err := validateUserID(userID); err != nil {
		return err
	}
	if strings.TrimSpace(id) == "" {
		return common.NewValidationError("id", "must not be empty")
	}

	unlock := s.lockUser(userID)
	defer unlock()

	existing, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load transactions for user %s: %w", userID, err)
	}
	remaining := make([]*models.Transaction, 0, len(existing))
	found := false
	for _, tx := range existing {
		if tx.ID == id {
			found = true
			continue
		}
		remaining = append(remaining, tx)
	}
	if !found {
		return fmt.Errorf("transaction %s: %w", id, common.ErrNotFound)
	}
	if err := s.checkHoldings(remaining); err != nil {
		return err
	}

	if err := s.store.Delete(ctx, userID, id); err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Str("id", id).Msg("Failed to delete transaction")
		return fmt.Errorf("failed to delete transaction %s: %w", id, err)
	}

	s.invalidate(ctx, userID)
	s.logger.Info().Str("user_id", userID).Str("id", id).Msg("Transaction removed")
	return nil
}

// normalize validates tx and returns the copy to persist: new id, owner,
// creation time, day-truncated date and amounts rounded to storage precision.
func (s *Service) normalize(tx *models.Transaction, userID string, now time.Time) (*models.Transaction, error) {
	if tx.UserID != "" && tx.UserID != userID {
		return nil, common.NewValidationError("user_id", "transaction belongs to %s", tx.UserID)
	}
	code := strings.TrimSpace(tx.AssetCode)
	if code == "" {
		return nil, common.NewValidationError("asset_code", "must not be empty")
	}
	if tx.TransactionDate.IsZero() {
		return nil, common.NewValidationError("transaction_date", "must be set")
	}
	date := tx.TransactionDate.UTC().Truncate(24 * time.Hour)
	if date.After(now) {
		return nil, common.NewValidationError("transaction_date", "%s is in the future", date.Format("2006-01-02"))
	}

	quantity := tx.Quantity.Round(models.QuantityPlaces)
	unitPrice := tx.UnitPrice.Round(models.PricePlaces)
	otherCosts := tx.OtherCosts.Round(models.PricePlaces)
	if quantity.Sign() <= 0 {
		return nil, common.NewValidationError("quantity", "must be positive")
	}
	if unitPrice.Sign() <= 0 {
		return nil, common.NewValidationError("unit_price", "must be positive")
	}
	if otherCosts.Sign() < 0 {
		return nil, common.NewValidationError("other_costs", "must not be negative")
	}

	return &models.Transaction{
		ID:              uuid.NewString(),
		UserID:          userID,
		AssetCode:       code,
		IsBuy:           tx.IsBuy,
		TransactionDate: date,
		Quantity:        quantity,
		UnitPrice:       unitPrice,
		OtherCosts:      otherCosts,
		CreatedAt:       now,
	}, nil
}

// checkHoldings rejects a transaction set in which a sell exceeds the
// quantity held at its date.
func (s *Service) checkHoldings(txs []*models.Transaction) error {
	_, err := valuation.TrackInvestments(txs, models.MonthOf(s.now().UTC()))
	return err
}

func (s *Service) invalidate(ctx context.Context, userID string) {
	if s.invalidator == nil {
		return
	}
	if err := s.invalidator.InvalidateUser(ctx, userID); err != nil {
		s.logger.Warn().Err(err).Str("user_id", userID).Msg("Failed to invalidate cached valuations")
	}
}

// Compile-time check
var _ interfaces.TransactionService = (*Service)(nil)
