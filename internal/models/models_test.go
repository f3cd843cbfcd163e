package models

import (
	"testing"
	"time"
)

func TestNewExpense(t *testing.T) {
	before := time.Now().UTC().Add(-time.Second)
	e := NewExpense(1250, 3, "groceries")

	if e.Amount != 1250 || e.Category != 3 || e.Comment != "groceries" {
		t.Errorf("unexpected expense: %+v", e)
	}
	if e.PK != 0 {
		t.Errorf("expected unsaved expense, got pk %d", e.PK)
	}
	if e.ExpenseDate.Before(before) || !e.ExpenseDate.Equal(e.AddedDate) {
		t.Errorf("expected both dates set to now, got %v and %v", e.ExpenseDate, e.AddedDate)
	}
	if e.ExpenseDate.Location() != time.UTC || e.ExpenseDate.Nanosecond() != 0 {
		t.Errorf("expected UTC date truncated to the second, got %v", e.ExpenseDate)
	}
}

func TestBudgetRemaining(t *testing.T) {
	tc := []struct {
		name   string
		budget Budget
		want   int64
	}{
		{"unused", Budget{Limit: 1000}, 1000},
		{"partly spent", Budget{Limit: 1000, Spent: 250}, 750},
		{"overspent", Budget{Limit: 1000, Spent: 1200}, -200},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.budget.Remaining(); got != tt.want {
				t.Errorf("Remaining() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestTableNames(t *testing.T) {
	for want, got := range map[string]string{
		"account":  Account{}.TableName(),
		"category": Category{}.TableName(),
		"expense":  Expense{}.TableName(),
		"budget":   Budget{}.TableName(),
	} {
		if got != want {
			t.Errorf("expected table %s, got %s", want, got)
		}
	}
}
