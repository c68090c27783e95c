package budget

import (
	"time"

	"github.com/shopspring/decimal"
)

// Budget caps spending for one category in one calendar month.
type Budget struct {
	ID        int64
	UserID    int64
	Category  string
	MonthYear string
	Limit     decimal.Decimal
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Input carries the caller-supplied fields for create and update.
type Input struct {
	Category  string
	MonthYear string
	Limit     decimal.Decimal
}
