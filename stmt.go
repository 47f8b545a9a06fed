package go4sqlite

import (
	"fmt"
	"os"
	"strings"

	"github.com/berniev/go4sqlite/sqliteh"
)

// BlobFile is a filesystem path whose contents are bound as a blob.
// The file is read in full at Execute time; an unreadable file fails
// the Execute.
type BlobFile string

// PreparedStatement is a compiled SQL statement, reusable with
// different argument sets via Execute.
//
// A PreparedStatement can only be used by one goroutine at a time.
type PreparedStatement struct {
	conn   *Connection
	stmt   sqliteh.Stmt
	query  string
	gen    int // bumped per Execute, stale Resultsets detect themselves
	closed bool
}

// SQL reports the text the statement was prepared from.
func (ps *PreparedStatement) SQL() string { return ps.query }

// Execute binds args to the statement's placeholders in order and runs
// it, returning a cursor positioned on the first result row (or
// already exhausted, for statements that produce none). Any Resultset
// from a previous Execute of this statement is invalidated.
//
// Supported argument types: int, int32, int64, float64, string (bound
// as text, or as a blob if it contains a NUL byte), []byte (always a
// blob), BlobFile, and nil for SQL NULL.
func (ps *PreparedStatement) Execute(args ...any) (*Resultset, error) {
	if ps.closed {
		return nil, fmt.Errorf("go4sqlite.Execute: %w", ErrStaleResultset)
	}
	want := ps.stmt.BindParameterCount()
	if len(args) > want {
		return nil, fmt.Errorf("go4sqlite.Execute: too many bind params (%d args, %d placeholders): %w",
			len(args), want, ErrBindArity)
	}
	if len(args) < want {
		return nil, fmt.Errorf("go4sqlite.Execute: too few bind params (%d args, %d placeholders): %w",
			len(args), want, ErrBindArity)
	}
	if err := ps.stmt.Reset(); err != nil {
		return nil, reserr(ps.conn.db, "Execute", ps.query, err)
	}
	if err := ps.stmt.ClearBindings(); err != nil {
		return nil, reserr(ps.conn.db, "Execute", ps.query, err)
	}
	for i, arg := range args {
		if err := ps.bind(i+1, arg); err != nil {
			return nil, err
		}
	}
	ps.gen++
	return newResultset(ps)
}

// bind binds one argument to the 1-indexed placeholder col.
func (ps *PreparedStatement) bind(col int, arg any) error {
	var err error
	switch v := arg.(type) {
	case nil:
		err = ps.stmt.BindNull(col)
	case int:
		err = ps.stmt.BindInt64(col, int64(v))
	case int32:
		err = ps.stmt.BindInt64(col, int64(v))
	case int64:
		err = ps.stmt.BindInt64(col, v)
	case float64:
		err = ps.stmt.BindDouble(col, v)
	case string:
		// Text cells are NUL-terminated in some engine paths, so a
		// string carrying NUL bytes is stored as a blob to survive
		// round-tripping. Use []byte to force blob storage outright.
		if strings.IndexByte(v, 0) >= 0 {
			err = ps.stmt.BindBlob64(col, []byte(v))
		} else {
			err = ps.stmt.BindText64(col, v)
		}
	case []byte:
		err = ps.stmt.BindBlob64(col, v)
	case BlobFile:
		b, rerr := os.ReadFile(string(v))
		if rerr != nil {
			return fmt.Errorf("go4sqlite.Execute: bind param %d: %w", col, rerr)
		}
		err = ps.stmt.BindBlob64(col, b)
	default:
		return fmt.Errorf("go4sqlite.Execute: bind param %d: Go type %T: %w", col, arg, ErrUnsupportedType)
	}
	if err != nil {
		e := reserr(ps.conn.db, "Execute", ps.query, err).(*Error)
		e.Msg = fmt.Sprintf("bind param %d: %s", col, e.Msg)
		return e
	}
	return nil
}

// Close finalizes the statement. Resultsets still referring to it
// become stale. Close is a no-op when called twice.
func (ps *PreparedStatement) Close() error {
	if ps.closed {
		return nil
	}
	ps.closed = true
	ps.gen++
	return reserr(ps.conn.db, "Close", ps.query, ps.stmt.Finalize())
}
