// Package repositories implements SQLite persistence for bookkeeping records.
//
// [SQLiteRepository] is generic over the record struct: its table, columns and statements are
// derived once from the struct's fields (see the schema package), so one implementation serves
// accounts, categories, expenses and budgets alike.
//
// Opening a repository comes in two flavors:
//   - [Initialize] : drops and recreates the table; any stored rows are discarded
//   - [Open] : attaches to the existing table (creating it if absent) and checks its columns
//
// The identity column "pk" is assigned by SQLite on insert and is never reused within a table's
// lifetime. Add requires an unsaved record (PK == 0), Update and Delete require an existing row.
//
// Errors wrap the sentinels in the shared package: [shared.ErrSchema], [shared.ErrInvalidState],
// [shared.ErrNotFound] and [shared.ErrStore]. A missing row is not an error for Get and GetAll.
//
// GetAll reads the whole table and filters in memory.
package repositories
