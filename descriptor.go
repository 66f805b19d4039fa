package sqldbpool

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"

	mysqldriver "github.com/go-sql-driver/mysql"
)

// Descriptor is a configured connection, owned by the ConnectionRegistry
// and referenced everywhere else only by name. It may be
// physically open (backed by a live *sql.DB holding exactly one
// connection) or closed; Open/Close may be called many times over the
// descriptor's lifetime, but the descriptor itself is created once, at
// pool initialisation, and destroyed once, at teardown.
type Descriptor struct {
	name       string
	databaseID int
	driverKind string

	databaseName       string
	hostName           string
	port               int
	userName           string
	password           string
	connectOptions     string
	postOpenStatements []string
	enableUpsert       bool
	extension          DriverExtension

	mu sync.Mutex
	db *sql.DB // nil when closed
}

// IsOpen reports whether the descriptor currently holds a live connection.
func (d *Descriptor) IsOpen() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.db != nil
}

// Name returns the descriptor's connection name (rdb{JJ}_{I}).
func (d *Descriptor) Name() string { return d.name }

// EnableUpsert reports the settings-applied upsert flag (opaque to the
// pool; surfaced for callers that need dialect-specific behaviour).
func (d *Descriptor) EnableUpsert() bool { return d.enableUpsert }

// Extension returns the driver-extension capability object attached at
// settings-application time, or nil.
func (d *Descriptor) Extension() DriverExtension { return d.extension }

// dataSourceName builds the driver-specific DSN from the descriptor's
// settings-applied fields.
func (d *Descriptor) dataSourceName() (string, error) {
	switch d.driverKind {
	case DriverMySQL:
		cfg := mysqldriver.NewConfig()
		cfg.DBName = d.databaseName
		cfg.User = d.userName
		cfg.Passwd = d.password
		if d.hostName != "" {
			addr := d.hostName
			if d.port > 0 {
				addr = fmt.Sprintf("%s:%d", d.hostName, d.port)
			}
			cfg.Net = "tcp"
			cfg.Addr = addr
		}
		if d.connectOptions != "" {
			cfg.Params = parseConnectOptions(d.connectOptions)
		}
		return cfg.FormatDSN(), nil

	case DriverPostgres:
		var b strings.Builder
		fmt.Fprintf(&b, "dbname=%s ", quotePQ(d.databaseName))
		if d.hostName != "" {
			fmt.Fprintf(&b, "host=%s ", quotePQ(d.hostName))
		}
		if d.port > 0 {
			fmt.Fprintf(&b, "port=%d ", d.port)
		}
		if d.userName != "" {
			fmt.Fprintf(&b, "user=%s ", quotePQ(d.userName))
		}
		if d.password != "" {
			fmt.Fprintf(&b, "password=%s ", quotePQ(d.password))
		}
		if d.connectOptions != "" {
			b.WriteString(d.connectOptions)
		} else {
			b.WriteString("sslmode=disable")
		}
		return b.String(), nil

	case DriverSQLite:
		dsn := d.databaseName
		if d.connectOptions != "" {
			sep := "?"
			if strings.Contains(dsn, "?") {
				sep = "&"
			}
			dsn = dsn + sep + d.connectOptions
		}
		return dsn, nil

	default:
		// Unknown driver kinds pass the database name through verbatim;
		// database/sql.Open will reject an unregistered driver name
		// before this DSN is ever used.
		return d.databaseName, nil
	}
}

func parseConnectOptions(raw string) map[string]string {
	out := map[string]string{}
	for _, kv := range strings.Split(raw, "&") {
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) == 2 {
			out[parts[0]] = parts[1]
		}
	}
	return out
}

func quotePQ(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `'`, `\'`)
	return "'" + s + "'"
}

// open physically opens the descriptor's connection. On success it runs
// the configured post-open statements before returning. On failure the
// descriptor is left closed.
func (d *Descriptor) open(ctx context.Context, log Logger) error {
	dsn, err := d.dataSourceName()
	if err != nil {
		return err
	}

	db, err := sql.Open(d.driverKind, dsn)
	if err != nil {
		return err
	}
	// One descriptor is exactly one physical connection; database/sql's
	// own pooling would otherwise silently multiply sockets behind the
	// name this pool already bounds at N per id.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return err
	}

	d.mu.Lock()
	d.db = db
	d.mu.Unlock()

	d.applyPostOpenStatements(ctx, log)
	return nil
}

// applyPostOpenStatements executes each configured post-open statement in
// order. Per-statement failures are tolerated and only logged: session
// setup errors belong to the query layer, not the pool.
func (d *Descriptor) applyPostOpenStatements(ctx context.Context, log Logger) {
	if len(d.postOpenStatements) == 0 {
		return
	}
	d.mu.Lock()
	db := d.db
	d.mu.Unlock()
	if db == nil {
		return
	}
	for _, stmt := range d.postOpenStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			log.Warnf("post-open statement failed on %s: %v", d.name, err)
		}
	}
}

// close physically closes the descriptor's connection. Safe to call on an
// already-closed descriptor.
func (d *Descriptor) close() error {
	d.mu.Lock()
	db := d.db
	d.db = nil
	d.mu.Unlock()
	if db == nil {
		return nil
	}
	return db.Close()
}

// DB returns the descriptor's live connection, or nil if closed. The
// returned *sql.DB is owned by the descriptor for as long as the caller
// holds the corresponding Handle.
func (d *Descriptor) DB() *sql.DB {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.db
}
