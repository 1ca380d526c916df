package store

import "Thufir/internal/model"

// NoopStore is a no-op implementation used when SQLite is not configured.
type NoopStore struct{}

func NewNoopStore() *NoopStore { return &NoopStore{} }

func (n *NoopStore) SaveDecision(_ *model.TradeDecision) error { return nil }
func (n *NoopStore) RecentDecisions(_ int) ([]model.TradeDecision, error) { return nil, nil }
func (n *NoopStore) ActiveGoal() (*model.ProfitGoal, error) { return nil, nil }
func (n *NoopStore) InsertGoal(_ *model.ProfitGoal) error { return nil }
func (n *NoopStore) UpdateGoal(_ *model.ProfitGoal) error { return nil }
func (n *NoopStore) PendingTransferGoals() ([]model.ProfitGoal, error) { return nil, nil }
func (n *NoopStore) Close() error { return nil }
