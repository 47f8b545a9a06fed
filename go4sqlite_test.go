package go4sqlite

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const createScript = `
	CREATE TABLE Test(
		text_col_key text not null
		             constraint config_pk
		             primary key,
		text_col     text,
		int_col      integer,
		float_col    real,
		blob_col     blob
	);

	INSERT INTO Test ( text_col_key, text_col, int_col, float_col, blob_col )
	          VALUES ( 'row11'     , 'one'   , '1'    , '1.1'    , NULL     ),
	                 ( 'row21'     , 'two'   , '2'    , '2.2'    , NULL     ),
	                 ( 'row31'     , '€tre'  , '3'    , '3.3'    , NULL     ),
	                 ( 'row41'     , 'for'   , '4'    , '4.4'    , NULL     ),
	                 ( 'row42'     , 'for'   , '4'    , '4.4'    , NULL     ),
	                 ( 'row51'     , '51'    , '51'   , '5.5'    , NULL     ),
	                 ( 'row91'     , 'nin'   ,  NULL  ,  NULL    , NULL     )
`

func openTestConn(t testing.TB) *Connection {
	t.Helper()
	conn, err := Open(":memory:", 0)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { conn.Close() })
	if _, err := conn.QuickQuery(createScript); err != nil {
		t.Fatal(err)
	}
	return conn
}

func prepare(t testing.TB, conn *Connection, query string) *PreparedStatement {
	t.Helper()
	ps, err := conn.Prepare(query, 0)
	if err != nil {
		t.Fatalf("Prepare(%q): %v", query, err)
	}
	t.Cleanup(func() { ps.Close() })
	return ps
}

func execute(t testing.TB, conn *Connection, query string, args ...any) *Resultset {
	t.Helper()
	rs, err := prepare(t, conn, query).Execute(args...)
	if err != nil {
		t.Fatalf("Execute(%q): %v", query, err)
	}
	return rs
}

func TestOpenMissingDir(t *testing.T) {
	name := filepath.Join(t.TempDir(), "no-such-dir", "db.sqlite3")
	conn, err := Open(name, 0)
	if err == nil {
		conn.Close()
		t.Fatal("Open on a missing directory succeeded")
	}
	var e *Error
	if !errors.As(err, &e) {
		t.Fatalf("err = %T, want *Error", err)
	}
	if e.Loc != "Open" {
		t.Errorf("Loc = %q, want Open", e.Loc)
	}
}

func TestPrepareInvalidSQL(t *testing.T) {
	conn := openTestConn(t)
	_, err := conn.Prepare("SEL * FROM Test", 0)
	if err == nil {
		t.Fatal("Prepare of invalid SQL succeeded")
	}
	var e *Error
	if !errors.As(err, &e) {
		t.Fatalf("err = %T, want *Error", err)
	}
	if e.Msg == "" {
		t.Error("no engine message on prepare error")
	}
}

func TestPrepareTrailingText(t *testing.T) {
	conn := openTestConn(t)
	_, err := conn.Prepare("SELECT 1; SELECT 2", 0)
	if err == nil {
		t.Fatal("Prepare of a multi-statement string succeeded")
	}
	if !strings.Contains(err.Error(), "trailing") {
		t.Errorf("err = %v, want trailing text error", err)
	}
}

func TestQuickQueryResults(t *testing.T) {
	conn := openTestConn(t)
	got, err := conn.QuickQuery(
		"SELECT text_col_key, text_col, int_col, float_col FROM Test WHERE int_col = '1' OR int_col == '2'")
	if err != nil {
		t.Fatal(err)
	}
	want := Table{
		{{"text_col_key", "row11"}, {"text_col", "one"}, {"int_col", "1"}, {"float_col", "1.1"}},
		{{"text_col_key", "row21"}, {"text_col", "two"}, {"int_col", "2"}, {"float_col", "2.2"}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("table mismatch (-want +got):\n%s", diff)
	}
}

func TestQuickQueryNullIsEmptyString(t *testing.T) {
	conn := openTestConn(t)
	got, err := conn.QuickQuery(
		"SELECT text_col_key, text_col, int_col, float_col FROM Test WHERE int_col IS NULL")
	if err != nil {
		t.Fatal(err)
	}
	want := Table{
		{{"text_col_key", "row91"}, {"text_col", "nin"}, {"int_col", ""}, {"float_col", ""}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("table mismatch (-want +got):\n%s", diff)
	}
}

func TestQuickQueryEmptyValueIsNotNull(t *testing.T) {
	conn := openTestConn(t)
	got, err := conn.QuickQuery("SELECT text_col_key FROM Test WHERE int_col = ''")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("got %d rows, want none", len(got))
	}
}

func TestQuickQueryChangesFunction(t *testing.T) {
	conn := openTestConn(t)
	got, err := conn.QuickQuery(`
		INSERT INTO Test VALUES ('row61', 'son', 6, 6.6, NULL),
		                        ('row611', 'son', 6, 6.6, NULL);
		SELECT Changes() as changes;
		DELETE FROM Test WHERE text_col_key = 'row61' OR text_col_key = 'row611'
	`)
	if err != nil {
		t.Fatal(err)
	}
	want := Table{{{"changes", "2"}}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("table mismatch (-want +got):\n%s", diff)
	}
}

func TestQuickQueryFailureDiscardsRows(t *testing.T) {
	conn := openTestConn(t)
	// The second INSERT row violates the primary key; the SELECT before
	// it already produced rows, which must not leak out.
	table, err := conn.QuickQuery(`
		SELECT text_col_key FROM Test;
		INSERT INTO Test (text_col_key, text_col, int_col, float_col)
			VALUES ('row71', 'son', 7, 7.7),
			       ('row71', 'son', 7, 7.7)
	`)
	if err == nil {
		t.Fatal("constraint-violating script succeeded")
	}
	if table != nil {
		t.Errorf("failed QuickQuery returned %d rows, want nil table", len(table))
	}
	// Connection stays usable.
	got, err := conn.QuickQuery("SELECT COUNT(*) AS n FROM Test WHERE text_col_key = 'row71'")
	if err != nil {
		t.Fatal(err)
	}
	want := Table{{{"n", "0"}}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("table mismatch (-want +got):\n%s", diff)
	}
}

func TestInsertAndDelete(t *testing.T) {
	conn := openTestConn(t)
	if _, err := conn.QuickQuery("INSERT INTO Test VALUES ('row61', 'son', 6, 6.6, NULL)"); err != nil {
		t.Fatal(err)
	}
	if got := conn.AffectedRows(); got != 1 {
		t.Errorf("AffectedRows after insert = %d, want 1", got)
	}
	insertedID := conn.LastInsertID()

	f, err := execute(t, conn,
		"SELECT COUNT(text_col_key) AS count FROM Test WHERE ROWID = ?", insertedID).Field(0)
	if err != nil {
		t.Fatal(err)
	}
	if want := (Field{"count", "1"}); f != want {
		t.Errorf("after insert: field = %+v, want %+v", f, want)
	}

	execute(t, conn, "DELETE FROM Test WHERE ROWID = ?", insertedID)
	if got := conn.AffectedRows(); got != 1 {
		t.Errorf("AffectedRows after delete = %d, want 1", got)
	}

	f, err = execute(t, conn,
		"SELECT COUNT(text_col_key) AS count FROM Test WHERE ROWID = ?", insertedID).Field(0)
	if err != nil {
		t.Fatal(err)
	}
	if want := (Field{"count", "0"}); f != want {
		t.Errorf("after delete: field = %+v, want %+v", f, want)
	}
}

func TestAutocommit(t *testing.T) {
	conn := openTestConn(t)
	if !conn.Autocommit() {
		t.Fatal("Autocommit = false on a fresh connection")
	}
	if _, err := conn.QuickQuery("BEGIN"); err != nil {
		t.Fatal(err)
	}
	if conn.Autocommit() {
		t.Error("Autocommit = true inside an open transaction")
	}
	if _, err := conn.QuickQuery("COMMIT"); err != nil {
		t.Fatal(err)
	}
	if !conn.Autocommit() {
		t.Error("Autocommit = false after COMMIT")
	}
}

func TestCloseIdempotent(t *testing.T) {
	conn, err := Open(":memory:", 0)
	if err != nil {
		t.Fatal(err)
	}
	if err := conn.Close(); err != nil {
		t.Fatal(err)
	}
	if err := conn.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}
