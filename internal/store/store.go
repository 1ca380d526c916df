package store

import "Thufir/internal/model"

// Store persists trade decisions (append-only) and profit goals.
type Store interface {
	SaveDecision(d *model.TradeDecision) error
	RecentDecisions(limit int) ([]model.TradeDecision, error)

	ActiveGoal() (*model.ProfitGoal, error) // nil when no open goal exists
	InsertGoal(g *model.ProfitGoal) error
	UpdateGoal(g *model.ProfitGoal) error
	PendingTransferGoals() ([]model.ProfitGoal, error)

	Close() error
}
