package model

import "github.com/shopspring/decimal"

// Position is one open holding reported by the brokerage.
type Position struct {
	Symbol           string
	UnderlyingSymbol string
	InstrumentType   string
	Quantity         decimal.Decimal
	AveragePrice     decimal.Decimal
	MarketValue      decimal.Decimal
}

// Balances is the brokerage account balance snapshot used for risk checks.
type Balances struct {
	Cash               decimal.Decimal
	NetLiq             decimal.Decimal
	OptionBuyingPower  decimal.Decimal
	StockBuyingPower   decimal.Decimal
	MaintenanceRequire decimal.Decimal
}
