package sqldbpool

import "database/sql"

// Handle is what Pool.Database hands callers: a usable database connection
// plus the bookkeeping the pool needs back at Return time. The zero Handle
// is an invalid handle: Valid reports false, and Return treats it as a
// no-op.
type Handle struct {
	name  string
	db    *sql.DB
	valid bool
}

// Valid reports whether the handle refers to a usable connection.
func (h Handle) Valid() bool { return h.valid }

// DB returns the underlying *sql.DB. Calling it on an invalid handle
// returns nil.
func (h Handle) DB() *sql.DB { return h.db }

// Name returns the pool's connection name for this handle (rdb{JJ}_{I}).
// Calling it on an invalid handle returns "".
func (h Handle) Name() string { return h.name }
