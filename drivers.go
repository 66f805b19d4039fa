package sqldbpool

import (
	// Real drivers registered with database/sql, giving each DriverKind a
	// concrete socket to open. Apart from go-sql-driver/mysql's Config,
	// which descriptor.go uses to build MySQL DSNs, the pool uses no
	// driver API beyond the database/sql.DB it returns.
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Driver kinds recognised out of the box. A settings provider names one of
// these as DriverType; any name database/sql.Open accepts (including ones
// registered by an embedding application) also works.
const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	// DriverSQLite is the "embedded-file" driver kind: DatabaseName is a
	// filesystem path, resolved relative to WebRootPath when it has no ':'
	// and is not already absolute.
	DriverSQLite = "sqlite3"
)

// isEmbeddedFileDriver reports whether kind addresses a local file rather
// than a network endpoint.
func isEmbeddedFileDriver(kind string) bool {
	return kind == DriverSQLite
}
