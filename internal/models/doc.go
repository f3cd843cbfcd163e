// Package models defines the bookkeeping records and the persistence interface used to store them.
//
// Records are plain structs. Each declares an integer identity field PK, which is 0 until the
// record is first stored and holds the row's identity afterwards:
//   - [Account] : Where money is kept (cash, card), with a running balance
//   - [Category] : Expense categories, optionally nested under a parent category
//   - [Expense] : A single spending entry
//   - [Budget] : Spending limit for a period
//
// The [Repository] interface defines the CRUD contract; see the repositories package for the
// SQLite implementation that derives its table from the record type.
package models
