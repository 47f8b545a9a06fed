package cgosqlite

// #cgo CFLAGS: -DSQLITE_THREADSAFE=2
// #cgo CFLAGS: -DSQLITE_LIKE_DOESNT_MATCH_BLOBS
// #cgo CFLAGS: -DSQLITE_OMIT_DEPRECATED
// #cgo linux LDFLAGS: -lsqlite3 -ldl -lm
// #cgo !linux LDFLAGS: -lsqlite3
// #cgo linux CFLAGS: -std=c99
//
// #include <stdint.h>
// #include <stdlib.h>
// #include <string.h>
// #include <sqlite3.h>
//
// // SQLITE_TRANSIENT is a function-pointer-typed constant that cgo
// // cannot express, so the transient bind calls live in C.
// static int bind_text_transient(sqlite3_stmt *stmt, int col, const char *p, sqlite3_uint64 n) {
//	return sqlite3_bind_text64(stmt, col, p, n, SQLITE_TRANSIENT, SQLITE_UTF8);
// }
// static int bind_text_empty(sqlite3_stmt *stmt, int col) {
//	return sqlite3_bind_text64(stmt, col, "", 0, SQLITE_STATIC, SQLITE_UTF8);
// }
// static int bind_blob_transient(sqlite3_stmt *stmt, int col, const void *p, sqlite3_uint64 n) {
//	return sqlite3_bind_blob64(stmt, col, p, n, SQLITE_TRANSIENT);
// }
import "C"
import (
	"unsafe"

	"github.com/berniev/go4sqlite/sqliteh"
)

func init() {
	C.sqlite3_initialize()
}

// DB is an sqlite3* database connection object.
// https://sqlite.org/c3ref/sqlite3.html
type DB struct {
	db *C.sqlite3
}

// Stmt is an sqlite3_stmt* prepared statement object.
// https://sqlite.org/c3ref/stmt.html
type Stmt struct {
	db   *DB
	stmt *C.sqlite3_stmt
}

// Open is sqlite3_open_v2.
//
// Surprisingly: an error opening the DB can return a non-nil handle.
// Call Close on it.
//
// https://sqlite.org/c3ref/open.html
func Open(filename string, flags sqliteh.OpenFlags, vfs string) (*DB, error) {
	cfilename := C.CString(filename)
	defer C.free(unsafe.Pointer(cfilename))

	cvfs := (*C.char)(nil)
	if vfs != "" {
		cvfs = C.CString(vfs)
		defer C.free(unsafe.Pointer(cvfs))
	}

	var cdb *C.sqlite3
	res := C.sqlite3_open_v2(cfilename, &cdb, C.int(flags), cvfs)
	var db *DB
	if cdb != nil {
		db = &DB{db: cdb}
	}
	return db, errCode(res)
}

// Close is sqlite3_close.
// https://sqlite.org/c3ref/close.html
func (db *DB) Close() error {
	return errCode(C.sqlite3_close(db.db))
}

// ErrMsg is sqlite3_errmsg.
// https://sqlite.org/c3ref/errcode.html
func (db *DB) ErrMsg() string {
	return C.GoString(C.sqlite3_errmsg(db.db))
}

// Changes is sqlite3_changes.
// https://sqlite.org/c3ref/changes.html
func (db *DB) Changes() int {
	return int(C.sqlite3_changes(db.db))
}

// ExtendedErrCode is sqlite3_extended_errcode.
// https://sqlite.org/c3ref/errcode.html
func (db *DB) ExtendedErrCode() sqliteh.Code {
	return sqliteh.Code(C.sqlite3_extended_errcode(db.db))
}

// LastInsertRowid is sqlite3_last_insert_rowid.
// https://sqlite.org/c3ref/last_insert_rowid.html
func (db *DB) LastInsertRowid() int64 {
	return int64(C.sqlite3_last_insert_rowid(db.db))
}

// GetAutocommit is sqlite3_get_autocommit.
// https://sqlite.org/c3ref/get_autocommit.html
func (db *DB) GetAutocommit() bool {
	return C.sqlite3_get_autocommit(db.db) != 0
}

// Prepare is sqlite3_prepare_v3.
// https://www.sqlite.org/c3ref/prepare.html
func (db *DB) Prepare(query string, prepFlags sqliteh.PrepareFlags) (stmt sqliteh.Stmt, remainingQuery string, err error) {
	csql := C.CString(query)
	defer C.free(unsafe.Pointer(csql))

	var cstmt *C.sqlite3_stmt
	var csqlTail *C.char
	res := C.sqlite3_prepare_v3(db.db, csql, C.int(len(query))+1, C.uint(prepFlags), &cstmt, &csqlTail)
	if err := errCode(res); err != nil {
		return nil, "", err
	}
	remainingQuery = query[len(query)-int(C.strlen(csqlTail)):]
	if cstmt == nil {
		// Comments and whitespace compile to no statement.
		return nil, remainingQuery, nil
	}
	return &Stmt{db: db, stmt: cstmt}, remainingQuery, nil
}

// SQL is sqlite3_sql.
// https://www.sqlite.org/c3ref/expanded_sql.html
func (stmt *Stmt) SQL() string {
	return C.GoString(C.sqlite3_sql(stmt.stmt))
}

// Reset is sqlite3_reset.
// https://www.sqlite.org/c3ref/reset.html
func (stmt *Stmt) Reset() error {
	return errCode(C.sqlite3_reset(stmt.stmt))
}

// ClearBindings is sqlite3_clear_bindings.
// https://www.sqlite.org/c3ref/clear_bindings.html
func (stmt *Stmt) ClearBindings() error {
	return errCode(C.sqlite3_clear_bindings(stmt.stmt))
}

// Finalize is sqlite3_finalize.
// https://sqlite.org/c3ref/finalize.html
func (stmt *Stmt) Finalize() error {
	return errCode(C.sqlite3_finalize(stmt.stmt))
}

// Step is sqlite3_step.
// https://www.sqlite.org/c3ref/step.html
func (stmt *Stmt) Step(colTypes []sqliteh.ColumnType) (row bool, err error) {
	res := C.sqlite3_step(stmt.stmt)
	switch res {
	case C.SQLITE_ROW:
		for i := range colTypes {
			colTypes[i] = sqliteh.ColumnType(C.sqlite3_column_type(stmt.stmt, C.int(i)))
		}
		return true, nil
	case C.SQLITE_DONE:
		return false, nil
	default:
		return false, errCode(res)
	}
}

// BindDouble is sqlite3_bind_double.
// https://sqlite.org/c3ref/bind_blob.html
func (stmt *Stmt) BindDouble(col int, val float64) error {
	return errCode(C.sqlite3_bind_double(stmt.stmt, C.int(col), C.double(val)))
}

// BindInt64 is sqlite3_bind_int64.
// https://sqlite.org/c3ref/bind_blob.html
func (stmt *Stmt) BindInt64(col int, val int64) error {
	return errCode(C.sqlite3_bind_int64(stmt.stmt, C.int(col), C.sqlite3_int64(val)))
}

// BindNull is sqlite3_bind_null.
// https://sqlite.org/c3ref/bind_blob.html
func (stmt *Stmt) BindNull(col int) error {
	return errCode(C.sqlite3_bind_null(stmt.stmt, C.int(col)))
}

// BindText64 is sqlite3_bind_text64.
// https://sqlite.org/c3ref/bind_blob.html
func (stmt *Stmt) BindText64(col int, val string) error {
	if len(val) == 0 {
		return errCode(C.bind_text_empty(stmt.stmt, C.int(col)))
	}
	p := (*C.char)(unsafe.Pointer(unsafe.StringData(val)))
	return errCode(C.bind_text_transient(stmt.stmt, C.int(col), p, C.sqlite3_uint64(len(val))))
}

// BindBlob64 is sqlite3_bind_blob64.
// https://sqlite.org/c3ref/bind_blob.html
func (stmt *Stmt) BindBlob64(col int, val []byte) error {
	if len(val) == 0 {
		return errCode(C.sqlite3_bind_zeroblob64(stmt.stmt, C.int(col), 0))
	}
	p := unsafe.Pointer(&val[0])
	return errCode(C.bind_blob_transient(stmt.stmt, C.int(col), p, C.sqlite3_uint64(len(val))))
}

// BindParameterCount is sqlite3_bind_parameter_count.
// https://sqlite.org/c3ref/bind_parameter_count.html
func (stmt *Stmt) BindParameterCount() int {
	return int(C.sqlite3_bind_parameter_count(stmt.stmt))
}

// ColumnCount is sqlite3_column_count.
// https://sqlite.org/c3ref/column_count.html
func (stmt *Stmt) ColumnCount() int {
	return int(C.sqlite3_column_count(stmt.stmt))
}

// ColumnName is sqlite3_column_name.
// https://sqlite.org/c3ref/column_name.html
func (stmt *Stmt) ColumnName(col int) string {
	return C.GoString(C.sqlite3_column_name(stmt.stmt, C.int(col)))
}

// ColumnText is sqlite3_column_text.
// https://sqlite.org/c3ref/column_blob.html
func (stmt *Stmt) ColumnText(col int) string {
	str := (*C.char)(unsafe.Pointer(C.sqlite3_column_text(stmt.stmt, C.int(col))))
	n := C.sqlite3_column_bytes(stmt.stmt, C.int(col))
	if str == nil || n == 0 {
		return ""
	}
	return C.GoStringN(str, n)
}

// ColumnBlob is sqlite3_column_blob.
//
// WARNING: The returned memory is managed by C and is only valid until
//          another call is made on this Stmt.
//
// https://sqlite.org/c3ref/column_blob.html
func (stmt *Stmt) ColumnBlob(col int) []byte {
	res := C.sqlite3_column_blob(stmt.stmt, C.int(col))
	if res == nil {
		return nil
	}
	n := int(C.sqlite3_column_bytes(stmt.stmt, C.int(col)))
	return unsafe.Slice((*byte)(res), n)
}

// ColumnDouble is sqlite3_column_double.
// https://sqlite.org/c3ref/column_blob.html
func (stmt *Stmt) ColumnDouble(col int) float64 {
	return float64(C.sqlite3_column_double(stmt.stmt, C.int(col)))
}

// ColumnInt64 is sqlite3_column_int64.
// https://sqlite.org/c3ref/column_blob.html
func (stmt *Stmt) ColumnInt64(col int) int64 {
	return int64(C.sqlite3_column_int64(stmt.stmt, C.int(col)))
}

// ColumnType is sqlite3_column_type.
// https://www.sqlite.org/c3ref/column_blob.html
func (stmt *Stmt) ColumnType(col int) sqliteh.ColumnType {
	return sqliteh.ColumnType(C.sqlite3_column_type(stmt.stmt, C.int(col)))
}

func errCode(code C.int) error { return sqliteh.CodeAsError(sqliteh.Code(code)) }
