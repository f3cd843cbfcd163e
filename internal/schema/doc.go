// Package schema derives table layouts from Go struct types.
//
// A [Descriptor] lists a record type's business fields in declaration order, each tagged
// with an explicit semantic [Kind] ([Integer] or [Text]), and remembers where the identity
// field lives. The identity column is always named "pk", is never part of [Descriptor.Fields],
// and is always the last column of the generated table.
//
// Field names come from the `db` struct tag or the snake_case Go field name:
//
//	type Expense struct {
//		Amount   int64  `db:"amount"`
//		Category string `db:"category"`
//		Note     string `db:"-"`  // not persisted
//		PK       int64            // identity, column "pk"
//	}
//
// Integer kinds and bool map to INTEGER; string and [time.Time] map to TEXT. A pointer to
// any of these is the nullable variant of the same kind. Anything else is rejected with
// [shared.ErrSchema] when the descriptor is built, not at query time. Unsigned values above
// math.MaxInt64 do not fit a SQLite INTEGER and are rejected with [shared.ErrInvalidInput]
// when encoded.
//
// Times are stored as RFC 3339 text with their UTC offset. Reading one back yields the same
// instant and offset, but not the original [time.Location] value: a named zone comes back as
// a fixed offset (or as Local when the offset matches it). Compare times with [time.Time.Equal].
package schema
