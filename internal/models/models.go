// package models defines the data model for the bookkeeping application
package models

import (
	"context"
	"time"
)

// Filter selects records whose named columns all equal the given values.
// An empty or nil Filter matches every record.
type Filter map[string]any

// Repository defines the data access operations for one record type.
//
// T is the record struct; operations take and return *T so that Add can assign the identity in place.
type Repository[T any] interface {
	Add(ctx context.Context, record *T) (int64, error)       // Add inserts an unsaved record and assigns its PK
	Get(ctx context.Context, pk int64) (*T, error)           // Get returns the record with pk, or nil if none exists
	GetAll(ctx context.Context, filter Filter) ([]*T, error) // GetAll returns every record matching filter
	Update(ctx context.Context, record *T) error             // Update overwrites the stored row of a saved record
	Delete(ctx context.Context, pk int64) error              // Delete removes the row with pk
}

// Account is a place money is kept.
type Account struct {
	Name    string `db:"name"`
	Balance int64  `db:"balance"`
	PK      int64  `db:"pk"`
}

// Category groups expenses. Parent is nil for top-level categories.
type Category struct {
	Name   string `db:"name"`
	Parent *int64 `db:"parent"`
	PK     int64  `db:"pk"`
}

// Expense is a single spending entry. Amount is in minor currency units.
type Expense struct {
	Amount      int64     `db:"amount"`
	Category    int64     `db:"category"`
	ExpenseDate time.Time `db:"expense_date"`
	AddedDate   time.Time `db:"added_date"`
	Comment     string    `db:"comment"`
	PK          int64     `db:"pk"`
}

// Budget is a spending limit for a period ("day", "week", "month").
type Budget struct {
	Period string `db:"period"`
	Limit  int64  `db:"limit_amount"`
	Spent  int64  `db:"spent"`
	PK     int64  `db:"pk"`
}

func (Account) TableName() string  { return "account" }
func (Category) TableName() string { return "category" }
func (Expense) TableName() string  { return "expense" }
func (Budget) TableName() string   { return "budget" }

// NewExpense creates an unsaved expense dated now.
func NewExpense(amount, category int64, comment string) *Expense {
	now := time.Now().UTC().Truncate(time.Second)
	return &Expense{
		Amount:      amount,
		Category:    category,
		ExpenseDate: now,
		AddedDate:   now,
		Comment:     comment,
	}
}

// Remaining returns how much of the budget is left; negative when overspent.
func (b Budget) Remaining() int64 {
	return b.Limit - b.Spent
}
