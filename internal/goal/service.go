package goal

import (
	"fmt"
	"time"

	"Thufir/internal/model"
	"Thufir/internal/store"

	"github.com/shopspring/decimal"
)

// Service manages the profit goal lifecycle on top of the store. At most
// one goal is active at a time; setting a new amount while one is open
// updates it in place instead of creating a duplicate.
type Service struct {
	store store.Store
	now   func() time.Time
}

// NewService creates a profit goal service.
func NewService(s store.Store) *Service {
	return &Service{store: s, now: time.Now}
}

// Current returns the active (not yet profit-taken) goal, or nil.
func (s *Service) Current() (*model.ProfitGoal, error) {
	return s.store.ActiveGoal()
}

// SetGoal sets a new profit goal amount. An open goal is superseded in
// place; otherwise a fresh goal row is created.
func (s *Service) SetGoal(amount decimal.Decimal) (*model.ProfitGoal, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("profit goal must be positive")
	}

	now := s.now()
	current, err := s.store.ActiveGoal()
	if err != nil {
		return nil, err
	}
	if current != nil {
		current.Amount = amount
		current.ProfitTaken = false
		current.ProfitTakenAt = nil
		current.UpdatedAt = now
		return current, s.store.UpdateGoal(current)
	}

	g := &model.ProfitGoal{Amount: amount, CreatedAt: now, UpdatedAt: now}
	return g, s.store.InsertGoal(g)
}

// MarkProfitTaken records the confirmed realization of the active goal.
// One-way: re-opening requires setting a new goal amount.
func (s *Service) MarkProfitTaken() error {
	current, err := s.store.ActiveGoal()
	if err != nil {
		return err
	}
	if current == nil {
		return nil
	}
	now := s.now()
	current.ProfitTaken = true
	current.ProfitTakenAt = &now
	current.UpdatedAt = now
	return s.store.UpdateGoal(current)
}

// PendingTransfers returns goals whose profit is taken but whose funds have
// not yet been moved out of the account.
func (s *Service) PendingTransfers() ([]model.ProfitGoal, error) {
	return s.store.PendingTransferGoals()
}

// MarkFundsTransferred closes out the most recently taken goal.
func (s *Service) MarkFundsTransferred() (*model.ProfitGoal, error) {
	pending, err := s.store.PendingTransferGoals()
	if err != nil {
		return nil, err
	}
	if len(pending) == 0 {
		return nil, fmt.Errorf("no pending profit transfers found")
	}
	g := pending[0]
	now := s.now()
	g.FundsTransferred = true
	g.FundsTransferredAt = &now
	g.UpdatedAt = now
	if err := s.store.UpdateGoal(&g); err != nil {
		return nil, err
	}
	return &g, nil
}
