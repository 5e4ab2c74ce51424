package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account is a trading account: the authenticated identity plus the cash
// balance every buy and sell settles against.
type Account struct {
	ID           int64           `json:"id"`
	Username     string          `json:"username"`
	PasswordHash string          `json:"-"`
	Cash         decimal.Decimal `json:"cash"`
	CreatedAt    time.Time       `json:"created_at"`
}
