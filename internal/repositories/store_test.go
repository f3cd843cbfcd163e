package repositories

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/SofiaMurZ/bookkeeper/internal/models"
	"github.com/SofiaMurZ/bookkeeper/internal/shared"
)

func TestStore(t *testing.T) {
	ctx := context.Background()

	t.Run("Initialize and Counts", func(t *testing.T) {
		store, err := InitializeStore(ctx, setupTestDB(t))
		if err != nil {
			t.Fatalf("failed to initialize store: %v", err)
		}

		if _, err := store.Accounts.Add(ctx, &models.Account{Name: "Cash", Balance: 1000}); err != nil {
			t.Fatalf("failed to add account: %v", err)
		}
		for _, period := range []string{"day", "month"} {
			if _, err := store.Budgets.Add(ctx, &models.Budget{Period: period, Limit: 500}); err != nil {
				t.Fatalf("failed to add budget: %v", err)
			}
		}

		counts, err := store.Counts(ctx)
		if err != nil {
			t.Fatalf("failed to count: %v", err)
		}

		want := map[string]int{"account": 1, "category": 0, "expense": 0, "budget": 2}
		for table, n := range want {
			if counts[table] != n {
				t.Errorf("expected %d rows in %s, got %d", n, table, counts[table])
			}
		}
	})

	t.Run("OpenStore keeps rows", func(t *testing.T) {
		db := setupTestDB(t)

		store, err := InitializeStore(ctx, db)
		if err != nil {
			t.Fatalf("failed to initialize store: %v", err)
		}
		if _, err := store.Accounts.Add(ctx, &models.Account{Name: "Cash"}); err != nil {
			t.Fatalf("failed to add account: %v", err)
		}

		reopened, err := OpenStore(ctx, db)
		if err != nil {
			t.Fatalf("failed to open store: %v", err)
		}
		if n, err := reopened.Accounts.Count(ctx); err != nil || n != 1 {
			t.Errorf("expected 1 account after reopening, got %d (%v)", n, err)
		}
	})

	t.Run("OpenStore rejects foreign layout", func(t *testing.T) {
		db := setupTestDB(t)
		if _, err := db.Exec(`CREATE TABLE "budget" ("period" TEXT, "pk" INTEGER PRIMARY KEY)`); err != nil {
			t.Fatalf("failed to create table: %v", err)
		}

		if _, err := OpenStore(ctx, db); !errors.Is(err, shared.ErrSchema) {
			t.Errorf("expected ErrSchema, got %v", err)
		}
	})

	t.Run("ExpensesIn", func(t *testing.T) {
		store, err := InitializeStore(ctx, setupTestDB(t))
		if err != nil {
			t.Fatalf("failed to initialize store: %v", err)
		}

		food := &models.Category{Name: "Food"}
		if _, err := store.Categories.Add(ctx, food); err != nil {
			t.Fatalf("failed to add category: %v", err)
		}
		sub := &models.Category{Name: "Groceries", Parent: &food.PK}
		if _, err := store.Categories.Add(ctx, sub); err != nil {
			t.Fatalf("failed to add category: %v", err)
		}

		fruit := &models.Category{Name: "Fruit", Parent: &sub.PK}
		if _, err := store.Categories.Add(ctx, fruit); err != nil {
			t.Fatalf("failed to add category: %v", err)
		}
		other := &models.Category{Name: "Travel"}
		if _, err := store.Categories.Add(ctx, other); err != nil {
			t.Fatalf("failed to add category: %v", err)
		}

		for _, e := range []*models.Expense{
			models.NewExpense(500, food.PK, "lunch"),
			models.NewExpense(1200, sub.PK, "market"),
			models.NewExpense(3000, other.PK, "train"),
			models.NewExpense(80, food.PK, "coffee"),
			models.NewExpense(250, fruit.PK, "apples"),
		} {
			if _, err := store.Expenses.Add(ctx, e); err != nil {
				t.Fatalf("failed to add expense: %v", err)
			}
		}

		got, err := store.ExpensesIn(ctx, food.PK)
		if err != nil {
			t.Fatalf("failed to list expenses: %v", err)
		}
		var comments []string
		for _, e := range got {
			comments = append(comments, e.Comment)
		}
		if strings.Join(comments, ",") != "lunch,market,coffee,apples" {
			t.Errorf("expected the whole Food subtree in insertion order, got %v", comments)
		}

		got, err = store.ExpensesIn(ctx, sub.PK)
		if err != nil {
			t.Fatalf("failed to list expenses: %v", err)
		}
		if len(got) != 2 || got[0].Comment != "market" || got[1].Comment != "apples" {
			t.Errorf("expected Groceries subtree only, got %+v", got)
		}

		got, err = store.ExpensesIn(ctx, 99)
		if err != nil || len(got) != 0 {
			t.Errorf("expected no expenses for unknown category, got %+v (%v)", got, err)
		}

		stored, err := store.Categories.Get(ctx, sub.PK)
		if err != nil || stored == nil || stored.Parent == nil || *stored.Parent != food.PK {
			t.Errorf("expected parent %d, got %+v (%v)", food.PK, stored, err)
		}
	})

	t.Run("expense dates round trip", func(t *testing.T) {
		store, err := InitializeStore(ctx, setupTestDB(t))
		if err != nil {
			t.Fatalf("failed to initialize store: %v", err)
		}

		e := models.NewExpense(500, 1, "")
		e.ExpenseDate = time.Date(2023, 12, 31, 23, 59, 59, 0, time.FixedZone("UTC+3", 3*60*60))
		if _, err := store.Expenses.Add(ctx, e); err != nil {
			t.Fatalf("failed to add expense: %v", err)
		}

		got, err := store.Expenses.Get(ctx, e.PK)
		if err != nil || got == nil {
			t.Fatalf("failed to get expense: %v", err)
		}
		if !got.ExpenseDate.Equal(e.ExpenseDate) || !got.AddedDate.Equal(e.AddedDate) {
			t.Errorf("expected dates %v / %v, got %v / %v", e.ExpenseDate, e.AddedDate, got.ExpenseDate, got.AddedDate)
		}
	})
}
