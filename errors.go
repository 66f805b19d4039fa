package sqldbpool

import "errors"

// ErrNotConfigured names the condition in which SQL is not configured for
// the process at all. Pool.Database does not return it: checkouts then
// degrade to invalid handles with a nil error instead of failing.
var ErrNotConfigured = errors.New("sqldbpool: no SQL database configured")

// ErrNoPooledConnection is raised by Database when both the available and
// cached stacks for an id are empty — every one of the N slots is
// currently checked out. It is a saturation condition, not a transient
// failure; the caller is expected to have bounded its own concurrency at N.
var ErrNoPooledConnection = errors.New("sqldbpool: no pooled connection available")

// ErrInvalidDatabaseID is returned when a caller passes an id outside
// [0, DatabaseSettingsCount).
var ErrInvalidDatabaseID = errors.New("sqldbpool: invalid database id")
