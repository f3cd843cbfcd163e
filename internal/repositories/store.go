package repositories

import (
	"context"
	"database/sql"

	"github.com/SofiaMurZ/bookkeeper/internal/models"
)

// Store bundles the repositories of every bookkeeping record type over one database.
type Store struct {
	Accounts   *SQLiteRepository[models.Account]
	Categories *SQLiteRepository[models.Category]
	Expenses   *SQLiteRepository[models.Expense]
	Budgets    *SQLiteRepository[models.Budget]
}

type opener[T any] func(context.Context, *sql.DB, ...Option) (*SQLiteRepository[T], error)

// OpenStore attaches to (or creates) every bookkeeping table without touching stored rows.
func OpenStore(ctx context.Context, db *sql.DB, opts ...Option) (*Store, error) {
	return buildStore(ctx, db, opts, Open[models.Account], Open[models.Category], Open[models.Expense], Open[models.Budget])
}

// InitializeStore drops and recreates every bookkeeping table.
func InitializeStore(ctx context.Context, db *sql.DB, opts ...Option) (*Store, error) {
	return buildStore(ctx, db, opts, Initialize[models.Account], Initialize[models.Category], Initialize[models.Expense], Initialize[models.Budget])
}

func buildStore(
	ctx context.Context, db *sql.DB, opts []Option,
	accounts opener[models.Account], categories opener[models.Category],
	expenses opener[models.Expense], budgets opener[models.Budget],
) (*Store, error) {
	var (
		s   Store
		err error
	)
	if s.Accounts, err = accounts(ctx, db, opts...); err != nil {
		return nil, err
	}
	if s.Categories, err = categories(ctx, db, opts...); err != nil {
		return nil, err
	}
	if s.Expenses, err = expenses(ctx, db, opts...); err != nil {
		return nil, err
	}
	if s.Budgets, err = budgets(ctx, db, opts...); err != nil {
		return nil, err
	}
	return &s, nil
}

// Counts returns the number of stored rows per table.
func (s *Store) Counts(ctx context.Context) (map[string]int, error) {
	counts := make(map[string]int, 4)
	for table, count := range map[string]func(context.Context) (int, error){
		s.Accounts.Descriptor().Table:   s.Accounts.Count,
		s.Categories.Descriptor().Table: s.Categories.Count,
		s.Expenses.Descriptor().Table:   s.Expenses.Count,
		s.Budgets.Descriptor().Table:    s.Budgets.Count,
	} {
		n, err := count(ctx)
		if err != nil {
			return nil, err
		}
		counts[table] = n
	}
	return counts, nil
}

// ExpensesIn returns the expenses recorded against a category or any of its descendants,
// in insertion order.
func (s *Store) ExpensesIn(ctx context.Context, category int64) ([]*models.Expense, error) {
	categories, err := s.Categories.GetAll(ctx, nil)
	if err != nil {
		return nil, err
	}

	children := make(map[int64][]int64, len(categories))
	for _, c := range categories {
		if c.Parent != nil {
			children[*c.Parent] = append(children[*c.Parent], c.PK)
		}
	}

	subtree := map[int64]bool{category: true}
	queue := []int64{category}
	for len(queue) > 0 {
		pk := queue[0]
		queue = queue[1:]
		for _, child := range children[pk] {
			if !subtree[child] {
				subtree[child] = true
				queue = append(queue, child)
			}
		}
	}

	expenses, err := s.Expenses.GetAll(ctx, nil)
	if err != nil {
		return nil, err
	}

	matched := make([]*models.Expense, 0, len(expenses))
	for _, e := range expenses {
		if subtree[e.Category] {
			matched = append(matched, e)
		}
	}
	return matched, nil
}
