// Package sqliteh defines the narrow SQLite capability surface the
// go4sqlite layer consumes, as Go interfaces and constants.
package sqliteh

// Given everything in here has an sqliteh. prefix,
// why not strip the SQLITE_ prefix from constants?
// Because this way standard names show up in search.

// OpenFunc is sqlite3_open_v2.
//
// Surprisingly: an error opening the DB can return a non-nil handle.
// Call Close on it.
//
// https://sqlite.org/c3ref/open.html
type OpenFunc func(filename string, flags OpenFlags, vfs string) (DB, error)

// DB is an sqlite3* database connection object.
// https://sqlite.org/c3ref/sqlite3.html
type DB interface {
	// Close is sqlite3_close.
	// https://sqlite.org/c3ref/close.html
	Close() error
	// ErrMsg is sqlite3_errmsg.
	// https://sqlite.org/c3ref/errcode.html
	ErrMsg() string
	// Changes is sqlite3_changes.
	// https://sqlite.org/c3ref/changes.html
	Changes() int
	// ExtendedErrCode is sqlite3_extended_errcode.
	// https://sqlite.org/c3ref/errcode.html
	ExtendedErrCode() Code
	// LastInsertRowid is sqlite3_last_insert_rowid.
	// https://sqlite.org/c3ref/last_insert_rowid.html
	LastInsertRowid() int64
	// GetAutocommit is sqlite3_get_autocommit. It reports false while a
	// transaction is open. After certain fatal errors (SQLITE_FULL,
	// SQLITE_IOERR, SQLITE_NOMEM, SQLITE_BUSY, SQLITE_INTERRUPT) inside a
	// transaction, it is the only way to detect an automatic rollback.
	// https://sqlite.org/c3ref/get_autocommit.html
	GetAutocommit() bool
	// Prepare is sqlite3_prepare_v3. remainingQuery is the unparsed tail
	// of query, if any.
	// https://www.sqlite.org/c3ref/prepare.html
	Prepare(query string, prepFlags PrepareFlags) (stmt Stmt, remainingQuery string, err error)
}

// Stmt is an sqlite3_stmt* prepared statement object.
// https://sqlite.org/c3ref/stmt.html
type Stmt interface {
	// SQL is sqlite3_sql.
	// https://www.sqlite.org/c3ref/expanded_sql.html
	SQL() string
	// Reset is sqlite3_reset.
	// https://www.sqlite.org/c3ref/reset.html
	Reset() error
	// ClearBindings is sqlite3_clear_bindings.
	// https://www.sqlite.org/c3ref/clear_bindings.html
	ClearBindings() error
	// Finalize is sqlite3_finalize.
	// https://sqlite.org/c3ref/finalize.html
	Finalize() error
	// Step is sqlite3_step.
	//	For SQLITE_ROW, Step returns (true, nil).
	//	For SQLITE_DONE, Step returns (false, nil).
	//	For any error, Step returns (false, err).
	// On SQLITE_ROW, the storage class of each column of the new row is
	// written into colTypes (up to len(colTypes)); the same column can
	// report a different class on different rows.
	// https://www.sqlite.org/c3ref/step.html
	Step(colTypes []ColumnType) (row bool, err error)
	// BindDouble is sqlite3_bind_double.
	// https://sqlite.org/c3ref/bind_blob.html
	BindDouble(col int, val float64) error
	// BindInt64 is sqlite3_bind_int64.
	// https://sqlite.org/c3ref/bind_blob.html
	BindInt64(col int, val int64) error
	// BindNull is sqlite3_bind_null.
	// https://sqlite.org/c3ref/bind_blob.html
	BindNull(col int) error
	// BindText64 is sqlite3_bind_text64.
	// https://sqlite.org/c3ref/bind_blob.html
	BindText64(col int, val string) error
	// BindBlob64 is sqlite3_bind_blob64.
	// https://sqlite.org/c3ref/bind_blob.html
	BindBlob64(col int, val []byte) error
	// BindParameterCount is sqlite3_bind_parameter_count.
	// https://sqlite.org/c3ref/bind_parameter_count.html
	BindParameterCount() int
	// ColumnCount is sqlite3_column_count.
	// https://sqlite.org/c3ref/column_count.html
	ColumnCount() int
	// ColumnName is sqlite3_column_name.
	// https://sqlite.org/c3ref/column_name.html
	ColumnName(col int) string
	// ColumnText is sqlite3_column_text, length-prefixed so embedded
	// zero bytes survive.
	// https://sqlite.org/c3ref/column_blob.html
	ColumnText(col int) string
	// ColumnBlob is sqlite3_column_blob.
	//
	// WARNING: The returned memory is only valid until another call is
	//          made on this Stmt.
	//
	// https://sqlite.org/c3ref/column_blob.html
	ColumnBlob(col int) []byte
	// ColumnDouble is sqlite3_column_double.
	// https://sqlite.org/c3ref/column_blob.html
	ColumnDouble(col int) float64
	// ColumnInt64 is sqlite3_column_int64.
	// https://sqlite.org/c3ref/column_blob.html
	ColumnInt64(col int) int64
	// ColumnType is sqlite3_column_type.
	// https://www.sqlite.org/c3ref/column_blob.html
	ColumnType(col int) ColumnType
}

// ColumnType are constants for each of the SQLite datatypes
// (the per-cell storage classes).
// https://www.sqlite.org/c3ref/c_blob.html
type ColumnType int

const (
	SQLITE_INTEGER ColumnType = 1
	SQLITE_FLOAT   ColumnType = 2
	SQLITE_TEXT    ColumnType = 3
	SQLITE_BLOB    ColumnType = 4
	SQLITE_NULL    ColumnType = 5
)

func (t ColumnType) String() string {
	switch t {
	case SQLITE_INTEGER:
		return "SQLITE_INTEGER"
	case SQLITE_FLOAT:
		return "SQLITE_FLOAT"
	case SQLITE_TEXT:
		return "SQLITE_TEXT"
	case SQLITE_BLOB:
		return "SQLITE_BLOB"
	case SQLITE_NULL:
		return "SQLITE_NULL"
	default:
		return "UNKNOWN_SQLITE_DATATYPE"
	}
}

// https://www.sqlite.org/c3ref/c_prepare_normalize.html
type PrepareFlags int

const (
	SQLITE_PREPARE_PERSISTENT PrepareFlags = 0x01
	SQLITE_PREPARE_NORMALIZE  PrepareFlags = 0x02
	SQLITE_PREPARE_NO_VTAB    PrepareFlags = 0x04
)

// OpenFlags are flags used when opening a DB.
//
// https://www.sqlite.org/c3ref/c_open_autoproxy.html
type OpenFlags int

const (
	SQLITE_OPEN_READONLY     OpenFlags = 0x00000001
	SQLITE_OPEN_READWRITE    OpenFlags = 0x00000002
	SQLITE_OPEN_CREATE       OpenFlags = 0x00000004
	SQLITE_OPEN_URI          OpenFlags = 0x00000040
	SQLITE_OPEN_MEMORY       OpenFlags = 0x00000080
	SQLITE_OPEN_NOMUTEX      OpenFlags = 0x00008000
	SQLITE_OPEN_FULLMUTEX    OpenFlags = 0x00010000
	SQLITE_OPEN_SHAREDCACHE  OpenFlags = 0x00020000
	SQLITE_OPEN_PRIVATECACHE OpenFlags = 0x00040000
	SQLITE_OPEN_NOFOLLOW     OpenFlags = 0x00100000
	SQLITE_OPEN_EXRESCODE    OpenFlags = 0x02000000

	// OpenFlagsDefault matches the layer's single-connection-per-thread
	// expectation: the engine's own connection mutex is off.
	OpenFlagsDefault = SQLITE_OPEN_READWRITE |
		SQLITE_OPEN_CREATE |
		SQLITE_OPEN_NOMUTEX
)

var openFlagsStrings = map[OpenFlags]string{
	SQLITE_OPEN_READONLY:     "SQLITE_OPEN_READONLY",
	SQLITE_OPEN_READWRITE:    "SQLITE_OPEN_READWRITE",
	SQLITE_OPEN_CREATE:       "SQLITE_OPEN_CREATE",
	SQLITE_OPEN_URI:          "SQLITE_OPEN_URI",
	SQLITE_OPEN_MEMORY:       "SQLITE_OPEN_MEMORY",
	SQLITE_OPEN_NOMUTEX:      "SQLITE_OPEN_NOMUTEX",
	SQLITE_OPEN_FULLMUTEX:    "SQLITE_OPEN_FULLMUTEX",
	SQLITE_OPEN_SHAREDCACHE:  "SQLITE_OPEN_SHAREDCACHE",
	SQLITE_OPEN_PRIVATECACHE: "SQLITE_OPEN_PRIVATECACHE",
	SQLITE_OPEN_NOFOLLOW:     "SQLITE_OPEN_NOFOLLOW",
	SQLITE_OPEN_EXRESCODE:    "SQLITE_OPEN_EXRESCODE",
}

func (o OpenFlags) String() string {
	var flags []byte
	for flag := OpenFlags(1); flag != 0 && flag <= SQLITE_OPEN_EXRESCODE; flag <<= 1 {
		if o&flag == 0 {
			continue
		}
		if len(flags) > 0 {
			flags = append(flags, '|')
		}
		if flagStr, ok := openFlagsStrings[flag]; ok {
			flags = append(flags, flagStr...)
		} else {
			flags = append(flags, "UNKNOWN_FLAG:"...)
			var buf [20]byte
			flags = append(flags, itoa(buf[:], int64(flag))...)
		}
	}
	return string(flags)
}

// ErrCode is an SQLite error code as a Go error.
// It must not be one of the status codes SQLITE_OK, SQLITE_ROW, or SQLITE_DONE.
type ErrCode Code

func (e ErrCode) Error() string {
	return Code(e).String()
}

// Code is an SQLite extended error code.
//
// The three SQLite result codes (SQLITE_OK, SQLITE_ROW, and SQLITE_DONE)
// are not errors, so they should not be used in an ErrCode.
type Code int

// Primary reports the primary error code for an extended code.
func (code Code) Primary() Code { return code & 0xff }

func (code Code) String() string {
	switch code.Primary() {
	default:
		var buf [20]byte
		return "SQLITE_UNKNOWN_ERR(" + string(itoa(buf[:], int64(code))) + ")"
	case SQLITE_OK:
		return "SQLITE_OK(not an error)"
	case SQLITE_ROW:
		return "SQLITE_ROW(not an error)"
	case SQLITE_DONE:
		return "SQLITE_DONE(not an error)"
	case SQLITE_ERROR:
		return "SQLITE_ERROR"
	case SQLITE_INTERNAL:
		return "SQLITE_INTERNAL"
	case SQLITE_PERM:
		return "SQLITE_PERM"
	case SQLITE_ABORT:
		return "SQLITE_ABORT"
	case SQLITE_BUSY:
		return "SQLITE_BUSY"
	case SQLITE_LOCKED:
		return "SQLITE_LOCKED"
	case SQLITE_NOMEM:
		return "SQLITE_NOMEM"
	case SQLITE_READONLY:
		return "SQLITE_READONLY"
	case SQLITE_INTERRUPT:
		return "SQLITE_INTERRUPT"
	case SQLITE_IOERR:
		return "SQLITE_IOERR"
	case SQLITE_CORRUPT:
		return "SQLITE_CORRUPT"
	case SQLITE_NOTFOUND:
		return "SQLITE_NOTFOUND"
	case SQLITE_FULL:
		return "SQLITE_FULL"
	case SQLITE_CANTOPEN:
		return "SQLITE_CANTOPEN"
	case SQLITE_PROTOCOL:
		return "SQLITE_PROTOCOL"
	case SQLITE_EMPTY:
		return "SQLITE_EMPTY"
	case SQLITE_SCHEMA:
		return "SQLITE_SCHEMA"
	case SQLITE_TOOBIG:
		return "SQLITE_TOOBIG"
	case SQLITE_CONSTRAINT:
		return "SQLITE_CONSTRAINT"
	case SQLITE_MISMATCH:
		return "SQLITE_MISMATCH"
	case SQLITE_MISUSE:
		return "SQLITE_MISUSE"
	case SQLITE_NOLFS:
		return "SQLITE_NOLFS"
	case SQLITE_AUTH:
		return "SQLITE_AUTH"
	case SQLITE_FORMAT:
		return "SQLITE_FORMAT"
	case SQLITE_RANGE:
		return "SQLITE_RANGE"
	case SQLITE_NOTADB:
		return "SQLITE_NOTADB"
	case SQLITE_NOTICE:
		return "SQLITE_NOTICE"
	case SQLITE_WARNING:
		return "SQLITE_WARNING"
	}
}

const (
	SQLITE_OK         = Code(0) // do not use in ErrCode
	SQLITE_ERROR      = Code(1)
	SQLITE_INTERNAL   = Code(2)
	SQLITE_PERM       = Code(3)
	SQLITE_ABORT      = Code(4)
	SQLITE_BUSY       = Code(5)
	SQLITE_LOCKED     = Code(6)
	SQLITE_NOMEM      = Code(7)
	SQLITE_READONLY   = Code(8)
	SQLITE_INTERRUPT  = Code(9)
	SQLITE_IOERR      = Code(10)
	SQLITE_CORRUPT    = Code(11)
	SQLITE_NOTFOUND   = Code(12)
	SQLITE_FULL       = Code(13)
	SQLITE_CANTOPEN   = Code(14)
	SQLITE_PROTOCOL   = Code(15)
	SQLITE_EMPTY      = Code(16)
	SQLITE_SCHEMA     = Code(17)
	SQLITE_TOOBIG     = Code(18)
	SQLITE_CONSTRAINT = Code(19)
	SQLITE_MISMATCH   = Code(20)
	SQLITE_MISUSE     = Code(21)
	SQLITE_NOLFS      = Code(22)
	SQLITE_AUTH       = Code(23)
	SQLITE_FORMAT     = Code(24)
	SQLITE_RANGE      = Code(25)
	SQLITE_NOTADB     = Code(26)
	SQLITE_NOTICE     = Code(27)
	SQLITE_WARNING    = Code(28)
	SQLITE_ROW        = Code(100) // do not use in ErrCode
	SQLITE_DONE       = Code(101) // do not use in ErrCode

	// Extended constraint codes, the ones callers of this layer
	// commonly dispatch on.

	SQLITE_CONSTRAINT_PRIMARYKEY = Code(SQLITE_CONSTRAINT | (6 << 8))
	SQLITE_CONSTRAINT_UNIQUE     = Code(SQLITE_CONSTRAINT | (8 << 8))
)

// CodeAsError converts a Code to a Go error.
// SQLite non-error status codes return nil.
func CodeAsError(code Code) error {
	if code == SQLITE_OK || code == SQLITE_ROW || code == SQLITE_DONE {
		return nil
	}
	return ErrCode(code)
}

func itoa(buf []byte, val int64) []byte {
	i := len(buf) - 1
	neg := false
	if val < 0 {
		neg = true
		val = 0 - val
	}
	for val >= 10 {
		buf[i] = byte(val%10 + '0')
		i--
		val /= 10
	}
	buf[i] = byte(val + '0')
	if neg {
		i--
		buf[i] = '-'
	}
	return buf[i:]
}
