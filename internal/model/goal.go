package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProfitGoal is the operator's current profit target P. At most one goal is
// active (profit not yet taken) at any time. Transitions are one-way:
// created -> profit taken -> funds transferred.
type ProfitGoal struct {
	ID                 int64
	Amount             decimal.Decimal
	ProfitTaken        bool
	FundsTransferred   bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
	ProfitTakenAt      *time.Time
	FundsTransferredAt *time.Time
}
