package sqldbpool

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
)

// fakeDriver is a minimal database/sql/driver.Driver used by this
// package's own tests in place of a real network database. It never
// touches a socket: Open only fails when the DSN contains "faildsn",
// giving tests a way to exercise the slow-path open-failure handling
// deterministically.
type fakeDriver struct {
	opens atomic.Int64
}

func (d *fakeDriver) Open(name string) (driver.Conn, error) {
	d.opens.Add(1)
	if strings.Contains(name, "faildsn") {
		return nil, errors.New("fakeDriver: connection refused")
	}
	return &fakeConn{}, nil
}

type fakeConn struct {
	mu     sync.Mutex
	closed bool
}

func (c *fakeConn) Prepare(query string) (driver.Stmt, error) { return &fakeStmt{}, nil }

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) Begin() (driver.Tx, error) { return nil, errors.New("fakeConn: transactions unsupported") }

type fakeStmt struct{}

func (s *fakeStmt) Close() error  { return nil }
func (s *fakeStmt) NumInput() int { return -1 }
func (s *fakeStmt) Exec(args []driver.Value) (driver.Result, error) {
	return driver.RowsAffected(0), nil
}
func (s *fakeStmt) Query(args []driver.Value) (driver.Rows, error) {
	return nil, errors.New("fakeStmt: queries unsupported")
}

const testDriverKind = "sqldbpool-faketest"

var testDriverRegisterOnce sync.Once
var testDriverInstance = &fakeDriver{}

func registerTestDriver() {
	testDriverRegisterOnce.Do(func() {
		sql.Register(testDriverKind, testDriverInstance)
	})
}
