package query

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"io"
	"sync"
)

// fakeDriver is a minimal database/sql/driver.Driver backed by an
// in-memory table of rows keyed by the query string, used to exercise
// Store's QueryContext/QueryRowContext call sites without a live
// Oracle instance. Every call to newFakeDB registers a fresh instance
// under a unique driver name.
type fakeDriver struct {
	mu      sync.Mutex
	results map[string][][]driver.Value
	cols    map[string][]string
}

var registeredFakeDrivers = struct {
	mu   sync.Mutex
	next int
}{}

func newFakeDB() (*sql.DB, *fakeDriver) {
	registeredFakeDrivers.mu.Lock()
	name := fmt.Sprintf("fakequery%d", registeredFakeDrivers.next)
	registeredFakeDrivers.next++
	registeredFakeDrivers.mu.Unlock()

	fd := &fakeDriver{results: make(map[string][][]driver.Value), cols: make(map[string][]string)}
	sql.Register(name, fd)
	db, _ := sql.Open(name, "")
	return db, fd
}

func (d *fakeDriver) stub(query string, cols []string, rows [][]driver.Value) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.results[query] = rows
	d.cols[query] = cols
}

func (d *fakeDriver) Open(name string) (driver.Conn, error) {
	return &fakeConn{d: d}, nil
}

type fakeConn struct{ d *fakeDriver }

func (c *fakeConn) Prepare(query string) (driver.Stmt, error) {
	return &fakeStmt{d: c.d, query: query}, nil
}
func (c *fakeConn) Close() error              { return nil }
func (c *fakeConn) Begin() (driver.Tx, error) { return nil, fmt.Errorf("transactions unsupported") }
func (c *fakeConn) Ping(ctx context.Context) error { return nil }

type fakeStmt struct {
	d     *fakeDriver
	query string
}

func (s *fakeStmt) Close() error  { return nil }
func (s *fakeStmt) NumInput() int { return -1 }
func (s *fakeStmt) Exec(args []driver.Value) (driver.Result, error) {
	return driver.ResultNoRows, nil
}
func (s *fakeStmt) Query(args []driver.Value) (driver.Rows, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	rows, ok := s.d.results[s.query]
	if !ok {
		return nil, fmt.Errorf("fakedriver: no stub for query %q", s.query)
	}
	return &fakeRows{cols: s.d.cols[s.query], rows: rows}, nil
}

type fakeRows struct {
	cols []string
	rows [][]driver.Value
	pos  int
}

func (r *fakeRows) Columns() []string { return r.cols }
func (r *fakeRows) Close() error      { return nil }
func (r *fakeRows) Next(dest []driver.Value) error {
	if r.pos >= len(r.rows) {
		return io.EOF
	}
	copy(dest, r.rows[r.pos])
	r.pos++
	return nil
}
