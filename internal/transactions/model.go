package transactions

import (
	"time"

	"github.com/shopspring/decimal"
)

// Type distinguishes money coming in from money going out.
type Type string

const (
	TypeIncome  Type = "INCOME"
	TypeExpense Type = "EXPENSE"
)

// Valid reports whether t is a known transaction type.
func (t Type) Valid() bool {
	return t == TypeIncome || t == TypeExpense
}

// Transaction is a user-recorded income or expense line.
type Transaction struct {
	ID          int64
	UserID      int64
	Type        Type
	Category    string
	Amount      decimal.Decimal
	Description string
	OccurredOn  time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Input carries the caller-supplied fields for create and update.
type Input struct {
	Type        Type
	Category    string
	Amount      decimal.Decimal
	Description string
	OccurredOn  time.Time
}

// Page bounds a listing request. Type, when set, restricts the listing to one
// transaction type.
type Page struct {
	Limit  int
	Offset int
	Type   Type
}
