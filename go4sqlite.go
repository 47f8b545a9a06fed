// Package go4sqlite is a small typed access layer over the SQLite C
// API: positional typed binds, a stepping row cursor with positional,
// named, sequential, and typed field access, and a one-shot
// multi-statement query that renders everything as text.
//
// SQLite cells are dynamically typed. This layer never converts on
// read: the requested Go type must match the cell's storage class, and
// NULL is always an explicit Null[T] with Valid false, never a zero
// value. Arity contracts (bind count, typed-row destination count) are
// checked before any engine call.
//
// A Connection and its PreparedStatements are single-goroutine
// objects; there is no internal locking.
package go4sqlite

import (
	"strings"

	"github.com/berniev/go4sqlite/sqliteh"
)

// engineOpen is set by an init function in open_cgo.go or
// open_nocgo.go, depending on the build.
var engineOpen func(filename string, flags sqliteh.OpenFlags, vfs string) (sqliteh.DB, error)

// Connection is an open SQLite database handle.
//
// A Connection can only be used by one goroutine at a time.
type Connection struct {
	db     sqliteh.DB
	closed bool
}

// Open opens a database connection to the file named by filename,
// creating it if necessary. Pass ":memory:" for a transient in-memory
// database. Zero flags mean sqliteh.OpenFlagsDefault.
func Open(filename string, flags sqliteh.OpenFlags) (*Connection, error) {
	if flags == 0 {
		flags = sqliteh.OpenFlagsDefault
	}
	db, err := engineOpen(filename, flags, "")
	if err != nil {
		e := &Error{Loc: "Open", Query: filename}
		if code, ok := err.(sqliteh.ErrCode); ok {
			e.Code = sqliteh.Code(code)
		}
		if db != nil {
			// A failed open can still produce a handle, just so the
			// message can be extracted from it.
			e.Msg = db.ErrMsg()
			db.Close()
		}
		return nil, e
	}
	return &Connection{db: db}, nil
}

// Close closes the database handle. It is a no-op on an already
// closed Connection.
func (c *Connection) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	return reserr(c.db, "Close", "", c.db.Close())
}

// Prepare compiles a single SQL statement. Text after the first
// complete statement is an error; multi-statement scripts belong to
// QuickQuery.
func (c *Connection) Prepare(query string, prepFlags sqliteh.PrepareFlags) (*PreparedStatement, error) {
	stmt, rem, err := c.db.Prepare(query, prepFlags)
	if err != nil {
		return nil, reserr(c.db, "Prepare", query, err)
	}
	if stmt == nil {
		return nil, &Error{Code: sqliteh.SQLITE_MISUSE, Loc: "Prepare", Query: query,
			Msg: "query compiles to no statement"}
	}
	if rem != "" {
		stmt.Finalize()
		return nil, &Error{Code: sqliteh.SQLITE_MISUSE, Loc: "Prepare", Query: query,
			Msg: "unexpected trailing text (use QuickQuery for multi-statement SQL)"}
	}
	return &PreparedStatement{conn: c, stmt: stmt, query: query}, nil
}

// QuickQuery executes one or more semicolon-separated SQL statements
// in order and accumulates every row produced by any of them, each
// cell rendered as text. NULL renders as "". Any failure discards the
// accumulated rows entirely: the returned Table is nil.
//
// Intended for fire-and-forget DDL and for human-oriented peeks at
// data; use Prepare/Execute when types or parameters matter.
func (c *Connection) QuickQuery(queries string) (Table, error) {
	var table Table
	for {
		queries = strings.TrimSpace(queries)
		if queries == "" {
			return table, nil
		}
		stmt, rem, err := c.db.Prepare(queries, 0)
		if err != nil {
			return nil, reserr(c.db, "QuickQuery", queries, err)
		}
		if stmt == nil {
			// Trailing comment or whitespace.
			queries = rem
			continue
		}
		table, err = c.quickQueryRows(stmt, table)
		ferr := stmt.Finalize()
		if err != nil {
			return nil, reserr(c.db, "QuickQuery", queries, err)
		}
		if ferr != nil {
			return nil, reserr(c.db, "QuickQuery", queries, ferr)
		}
		queries = rem
	}
}

// quickQueryRows drains stmt, appending one text Row per result row.
func (c *Connection) quickQueryRows(stmt sqliteh.Stmt, table Table) (Table, error) {
	var names []string
	for {
		row, err := stmt.Step(nil)
		if err != nil {
			return nil, err
		}
		if !row {
			return table, nil
		}
		if names == nil {
			n := stmt.ColumnCount()
			names = make([]string, n)
			for i := range names {
				names[i] = stmt.ColumnName(i)
			}
		}
		r := make(Row, len(names))
		for i := range names {
			r[i] = Field{Name: names[i], Value: stmt.ColumnText(i)}
		}
		table = append(table, r)
	}
}

// AffectedRows reports the number of rows modified by the most recent
// INSERT, UPDATE, or DELETE on this connection.
func (c *Connection) AffectedRows() int { return c.db.Changes() }

// LastInsertID reports the rowid of the most recent successful INSERT
// on this connection.
func (c *Connection) LastInsertID() int64 { return c.db.LastInsertRowid() }

// ErrMsg reports the engine's message for the most recent failure on
// this connection.
func (c *Connection) ErrMsg() string { return c.db.ErrMsg() }

// Autocommit reports whether the connection is in autocommit mode,
// that is, no explicit transaction is open. After certain fatal errors
// inside a transaction this is the only way to observe the engine's
// automatic rollback.
func (c *Connection) Autocommit() bool { return c.db.GetAutocommit() }
