package go4sqlite

import (
	"errors"
	"strings"

	"github.com/berniev/go4sqlite/sqliteh"
)

// Sentinel errors for failures this layer detects itself, before or
// after any engine call. Match with errors.Is; the wrapping error
// carries the details (position, column name, path).
var (
	// ErrBindArity is the argument count not matching the statement's
	// placeholder count.
	ErrBindArity = errors.New("bind arity mismatch")
	// ErrColumnNotFound is a column name not present in the resultset.
	ErrColumnNotFound = errors.New("column not found")
	// ErrColumnRange is a column position outside the resultset.
	ErrColumnRange = errors.New("column out of range")
	// ErrTypeArity is a typed-row destination count not matching the
	// column count.
	ErrTypeArity = errors.New("type arity mismatch")
	// ErrUnsupportedType is a bind or read with a Go type this layer
	// has no SQLite mapping for.
	ErrUnsupportedType = errors.New("unsupported type")
	// ErrFileExists is ToFile refusing to overwrite.
	ErrFileExists = errors.New("file exists")
	// ErrStaleResultset is any access through a Resultset whose
	// statement has since been re-executed or closed.
	ErrStaleResultset = errors.New("resultset invalidated by re-execute or close")
)

// Error is an error from the SQLite engine.
type Error struct {
	// Code is the SQLite extended error code.
	Code sqliteh.Code
	// Loc is the method in which the error was encountered.
	Loc string
	// Query is the SQL, if any, being processed when the error
	// was encountered.
	Query string
	// Msg is the value of sqlite3_errmsg, if any.
	Msg string
}

func (err *Error) Error() string {
	b := new(strings.Builder)
	b.WriteString("go4sqlite")
	if err.Loc != "" {
		b.WriteByte('.')
		b.WriteString(err.Loc)
	}
	b.WriteString(": ")
	b.WriteString(err.Code.String())
	if err.Msg != "" {
		b.WriteString(": ")
		b.WriteString(err.Msg)
	}
	if err.Query != "" {
		b.WriteString(" (")
		b.WriteString(err.Query)
		b.WriteByte(')')
	}
	return b.String()
}

// reserr packs up an engine error with the current errmsg and extended
// code from db. A nil err passes through.
func reserr(db sqliteh.DB, loc, query string, err error) error {
	if err == nil {
		return nil
	}
	e := &Error{Loc: loc, Query: query}
	if code, ok := err.(sqliteh.ErrCode); ok {
		e.Code = sqliteh.Code(code)
	}
	if db != nil {
		e.Msg = db.ErrMsg()
		if extCode := db.ExtendedErrCode(); extCode.Primary() == e.Code.Primary() {
			e.Code = extCode
		}
	}
	return e
}
