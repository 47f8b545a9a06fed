// Package moderncsqlite is a low-level interface onto SQLite using the
// cgo-free modernc.org/sqlite translation of the C library.
//
// It implements the same capability surface as cgosqlite and is used
// automatically when the toolchain has cgo disabled.
package moderncsqlite

import (
	"fmt"
	"sync"
	"unsafe"

	"modernc.org/libc"
	"modernc.org/libc/sys/types"
	lib "modernc.org/sqlite/lib"

	"github.com/berniev/go4sqlite/sqliteh"
)

const ptrSize = types.Size_t(unsafe.Sizeof(uintptr(0)))

var initOnce sync.Once

func initlib(tls *libc.TLS) {
	initOnce.Do(func() {
		lib.Xsqlite3_initialize(tls)
	})
}

// DB is an sqlite3* database connection object.
// Each DB carries its own libc thread-local state.
// https://sqlite.org/c3ref/sqlite3.html
type DB struct {
	tls *libc.TLS
	db  uintptr
}

// Stmt is an sqlite3_stmt* prepared statement object.
// https://sqlite.org/c3ref/stmt.html
type Stmt struct {
	db   *DB
	stmt uintptr
	sql  string
}

// Open is sqlite3_open_v2.
//
// Surprisingly: an error opening the DB can return a non-nil handle.
// Call Close on it.
//
// https://sqlite.org/c3ref/open.html
func Open(filename string, flags sqliteh.OpenFlags, vfs string) (*DB, error) {
	tls := libc.NewTLS()
	initlib(tls)

	cfilename, err := libc.CString(filename)
	if err != nil {
		tls.Close()
		return nil, err
	}
	defer libc.Xfree(tls, cfilename)

	cvfs := uintptr(0)
	if vfs != "" {
		cvfs, err = libc.CString(vfs)
		if err != nil {
			tls.Close()
			return nil, err
		}
		defer libc.Xfree(tls, cvfs)
	}

	dbPtr, err := malloc(tls, ptrSize)
	if err != nil {
		tls.Close()
		return nil, err
	}
	defer libc.Xfree(tls, dbPtr)

	res := lib.Xsqlite3_open_v2(tls, cfilename, dbPtr, int32(flags), cvfs)
	cdb := *(*uintptr)(unsafe.Pointer(dbPtr))
	if cdb == 0 {
		tls.Close()
		return nil, errCode(res)
	}
	return &DB{tls: tls, db: cdb}, errCode(res)
}

// Close is sqlite3_close. It also releases the libc state, so it must
// be the last call made on this DB.
// https://sqlite.org/c3ref/close.html
func (db *DB) Close() error {
	err := errCode(lib.Xsqlite3_close(db.tls, db.db))
	db.tls.Close()
	db.tls = nil
	return err
}

// ErrMsg is sqlite3_errmsg.
// https://sqlite.org/c3ref/errcode.html
func (db *DB) ErrMsg() string {
	return libc.GoString(lib.Xsqlite3_errmsg(db.tls, db.db))
}

// Changes is sqlite3_changes.
// https://sqlite.org/c3ref/changes.html
func (db *DB) Changes() int {
	return int(lib.Xsqlite3_changes(db.tls, db.db))
}

// ExtendedErrCode is sqlite3_extended_errcode.
// https://sqlite.org/c3ref/errcode.html
func (db *DB) ExtendedErrCode() sqliteh.Code {
	return sqliteh.Code(lib.Xsqlite3_extended_errcode(db.tls, db.db))
}

// LastInsertRowid is sqlite3_last_insert_rowid.
// https://sqlite.org/c3ref/last_insert_rowid.html
func (db *DB) LastInsertRowid() int64 {
	return lib.Xsqlite3_last_insert_rowid(db.tls, db.db)
}

// GetAutocommit is sqlite3_get_autocommit.
// https://sqlite.org/c3ref/get_autocommit.html
func (db *DB) GetAutocommit() bool {
	return lib.Xsqlite3_get_autocommit(db.tls, db.db) != 0
}

// Prepare is sqlite3_prepare_v3.
// https://www.sqlite.org/c3ref/prepare.html
func (db *DB) Prepare(query string, prepFlags sqliteh.PrepareFlags) (stmt sqliteh.Stmt, remainingQuery string, err error) {
	csql, err := libc.CString(query)
	if err != nil {
		return nil, "", err
	}
	defer libc.Xfree(db.tls, csql)

	stmtPtr, err := malloc(db.tls, ptrSize)
	if err != nil {
		return nil, "", err
	}
	defer libc.Xfree(db.tls, stmtPtr)

	tailPtr, err := malloc(db.tls, ptrSize)
	if err != nil {
		return nil, "", err
	}
	defer libc.Xfree(db.tls, tailPtr)

	res := lib.Xsqlite3_prepare_v3(db.tls, db.db, csql, int32(len(query))+1, uint32(prepFlags), stmtPtr, tailPtr)
	if err := errCode(res); err != nil {
		return nil, "", err
	}
	ctail := *(*uintptr)(unsafe.Pointer(tailPtr))
	remainingQuery = query[int(ctail-csql):]
	cstmt := *(*uintptr)(unsafe.Pointer(stmtPtr))
	if cstmt == 0 {
		// Comments and whitespace compile to no statement.
		return nil, remainingQuery, nil
	}
	return &Stmt{db: db, stmt: cstmt, sql: query[:len(query)-len(remainingQuery)]}, remainingQuery, nil
}

// SQL reports the text used to create the statement.
// https://www.sqlite.org/c3ref/expanded_sql.html
func (stmt *Stmt) SQL() string {
	return stmt.sql
}

// Reset is sqlite3_reset.
// https://www.sqlite.org/c3ref/reset.html
func (stmt *Stmt) Reset() error {
	return errCode(lib.Xsqlite3_reset(stmt.db.tls, stmt.stmt))
}

// ClearBindings is sqlite3_clear_bindings.
// https://www.sqlite.org/c3ref/clear_bindings.html
func (stmt *Stmt) ClearBindings() error {
	return errCode(lib.Xsqlite3_clear_bindings(stmt.db.tls, stmt.stmt))
}

// Finalize is sqlite3_finalize.
// https://sqlite.org/c3ref/finalize.html
func (stmt *Stmt) Finalize() error {
	return errCode(lib.Xsqlite3_finalize(stmt.db.tls, stmt.stmt))
}

// Step is sqlite3_step.
// https://www.sqlite.org/c3ref/step.html
func (stmt *Stmt) Step(colTypes []sqliteh.ColumnType) (row bool, err error) {
	res := lib.Xsqlite3_step(stmt.db.tls, stmt.stmt)
	switch res {
	case lib.SQLITE_ROW:
		for i := range colTypes {
			colTypes[i] = sqliteh.ColumnType(lib.Xsqlite3_column_type(stmt.db.tls, stmt.stmt, int32(i)))
		}
		return true, nil
	case lib.SQLITE_DONE:
		return false, nil
	default:
		return false, errCode(res)
	}
}

// BindDouble is sqlite3_bind_double.
// https://sqlite.org/c3ref/bind_blob.html
func (stmt *Stmt) BindDouble(col int, val float64) error {
	return errCode(lib.Xsqlite3_bind_double(stmt.db.tls, stmt.stmt, int32(col), val))
}

// BindInt64 is sqlite3_bind_int64.
// https://sqlite.org/c3ref/bind_blob.html
func (stmt *Stmt) BindInt64(col int, val int64) error {
	return errCode(lib.Xsqlite3_bind_int64(stmt.db.tls, stmt.stmt, int32(col), val))
}

// BindNull is sqlite3_bind_null.
// https://sqlite.org/c3ref/bind_blob.html
func (stmt *Stmt) BindNull(col int) error {
	return errCode(lib.Xsqlite3_bind_null(stmt.db.tls, stmt.stmt, int32(col)))
}

// BindText64 is sqlite3_bind_text.
//
// The value is copied into C-managed memory that SQLite frees once the
// binding is replaced or cleared.
//
// https://sqlite.org/c3ref/bind_blob.html
func (stmt *Stmt) BindText64(col int, val string) error {
	p, err := copyToC(stmt.db.tls, []byte(val))
	if err != nil {
		return err
	}
	return errCode(lib.Xsqlite3_bind_text(stmt.db.tls, stmt.stmt, int32(col), p, int32(len(val)), freeFuncPtr))
}

// BindBlob64 is sqlite3_bind_blob.
// https://sqlite.org/c3ref/bind_blob.html
func (stmt *Stmt) BindBlob64(col int, val []byte) error {
	if len(val) == 0 {
		return errCode(lib.Xsqlite3_bind_zeroblob64(stmt.db.tls, stmt.stmt, int32(col), 0))
	}
	p, err := copyToC(stmt.db.tls, val)
	if err != nil {
		return err
	}
	return errCode(lib.Xsqlite3_bind_blob(stmt.db.tls, stmt.stmt, int32(col), p, int32(len(val)), freeFuncPtr))
}

// BindParameterCount is sqlite3_bind_parameter_count.
// https://sqlite.org/c3ref/bind_parameter_count.html
func (stmt *Stmt) BindParameterCount() int {
	return int(lib.Xsqlite3_bind_parameter_count(stmt.db.tls, stmt.stmt))
}

// ColumnCount is sqlite3_column_count.
// https://sqlite.org/c3ref/column_count.html
func (stmt *Stmt) ColumnCount() int {
	return int(lib.Xsqlite3_column_count(stmt.db.tls, stmt.stmt))
}

// ColumnName is sqlite3_column_name.
// https://sqlite.org/c3ref/column_name.html
func (stmt *Stmt) ColumnName(col int) string {
	return libc.GoString(lib.Xsqlite3_column_name(stmt.db.tls, stmt.stmt, int32(col)))
}

// ColumnText is sqlite3_column_text.
// https://sqlite.org/c3ref/column_blob.html
func (stmt *Stmt) ColumnText(col int) string {
	p := lib.Xsqlite3_column_text(stmt.db.tls, stmt.stmt, int32(col))
	n := lib.Xsqlite3_column_bytes(stmt.db.tls, stmt.stmt, int32(col))
	if p == 0 || n == 0 {
		return ""
	}
	return string(unsafe.Slice((*byte)(unsafe.Pointer(p)), n))
}

// ColumnBlob is sqlite3_column_blob.
//
// WARNING: The returned memory is managed by the library and is only
//          valid until another call is made on this Stmt.
//
// https://sqlite.org/c3ref/column_blob.html
func (stmt *Stmt) ColumnBlob(col int) []byte {
	p := lib.Xsqlite3_column_blob(stmt.db.tls, stmt.stmt, int32(col))
	if p == 0 {
		return nil
	}
	n := int(lib.Xsqlite3_column_bytes(stmt.db.tls, stmt.stmt, int32(col)))
	return libc.GoBytes(p, n)
}

// ColumnDouble is sqlite3_column_double.
// https://sqlite.org/c3ref/column_blob.html
func (stmt *Stmt) ColumnDouble(col int) float64 {
	return lib.Xsqlite3_column_double(stmt.db.tls, stmt.stmt, int32(col))
}

// ColumnInt64 is sqlite3_column_int64.
// https://sqlite.org/c3ref/column_blob.html
func (stmt *Stmt) ColumnInt64(col int) int64 {
	return lib.Xsqlite3_column_int64(stmt.db.tls, stmt.stmt, int32(col))
}

// ColumnType is sqlite3_column_type.
// https://www.sqlite.org/c3ref/column_blob.html
func (stmt *Stmt) ColumnType(col int) sqliteh.ColumnType {
	return sqliteh.ColumnType(lib.Xsqlite3_column_type(stmt.db.tls, stmt.stmt, int32(col)))
}

var freeFuncPtr = cFuncPointer(libc.Xfree)

func malloc(tls *libc.TLS, n types.Size_t) (uintptr, error) {
	p := libc.Xmalloc(tls, n)
	if p == 0 {
		return 0, fmt.Errorf("out of memory")
	}
	return p, nil
}

// copyToC copies b into freshly malloc'd memory, to be released by
// SQLite through freeFuncPtr. A zero-length b still allocates one byte
// so that the bind call receives a non-null pointer.
func copyToC(tls *libc.TLS, b []byte) (uintptr, error) {
	n := types.Size_t(len(b))
	if n == 0 {
		n = 1
	}
	p, err := malloc(tls, n)
	if err != nil {
		return 0, err
	}
	for i, c := range b {
		*(*byte)(unsafe.Pointer(p + uintptr(i))) = c
	}
	return p, nil
}

// cFuncPointer converts a function defined by a function declaration to
// a C pointer suitable for use as an sqlite3 destructor argument. The
// result of using cFuncPointer on closures is undefined.
func cFuncPointer[T any](f T) uintptr {
	// Assumes the memory representation described in
	// https://golang.org/s/go11func.
	return *(*uintptr)(unsafe.Pointer(&struct{ f T }{f}))
}

func errCode(code int32) error { return sqliteh.CodeAsError(sqliteh.Code(code)) }
