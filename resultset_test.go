package go4sqlite

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestFieldPositional(t *testing.T) {
	conn := openTestConn(t)
	f, err := execute(t, conn, "SELECT text_col_key FROM Test WHERE int_col = '4'").Field(0)
	if err != nil {
		t.Fatal(err)
	}
	if want := (Field{"text_col_key", "row41"}); f != want {
		t.Errorf("Field(0) = %+v, want %+v", f, want)
	}
}

func TestFieldByName(t *testing.T) {
	conn := openTestConn(t)
	rs := execute(t, conn, "SELECT text_col FROM Test WHERE text_col_key = ?", "row21")
	f, err := rs.FieldByName("text_col")
	if err != nil {
		t.Fatal(err)
	}
	if want := (Field{"text_col", "two"}); f != want {
		t.Errorf("FieldByName = %+v, want %+v", f, want)
	}
	if _, err := rs.FieldByName("no_such_col"); !errors.Is(err, ErrColumnNotFound) {
		t.Errorf("unknown name err = %v, want ErrColumnNotFound", err)
	}
}

func TestValueUTF8(t *testing.T) {
	conn := openTestConn(t)
	v, err := execute(t, conn, "SELECT text_col FROM Test WHERE int_col = ?", 3).Value(0)
	if err != nil {
		t.Fatal(err)
	}
	if v != "€tre" {
		t.Errorf("Value(0) = %q, want €tre", v)
	}
}

func TestFieldOutOfRange(t *testing.T) {
	conn := openTestConn(t)
	rs := execute(t, conn, "SELECT float_col FROM Test WHERE int_col = ?", 3)
	if _, err := rs.Field(8); !errors.Is(err, ErrColumnRange) {
		t.Errorf("Field(8) err = %v, want ErrColumnRange", err)
	}
}

func TestFieldExhaustedIsZeroNotError(t *testing.T) {
	conn := openTestConn(t)
	rs := execute(t, conn, "SELECT text_col_key FROM Test WHERE text_col_key = 'xx'")
	if !rs.Empty() {
		t.Fatal("Empty = false for a rowless query")
	}
	// Exhausted wins over the range check.
	f, err := rs.Field(8)
	if err != nil {
		t.Fatalf("Field(8) on exhausted cursor: %v", err)
	}
	if f != (Field{}) {
		t.Errorf("Field(8) = %+v, want zero Field", f)
	}
}

// The sequential cursor starts at column 0 on each row, and NextField
// pre-increments, so the first call lands on column 1.
func TestNextField(t *testing.T) {
	conn := openTestConn(t)
	f, err := execute(t, conn,
		"SELECT text_col_key, text_col FROM Test WHERE int_col = '4'").NextField()
	if err != nil {
		t.Fatal(err)
	}
	if want := (Field{"text_col", "for"}); f != want {
		t.Errorf("NextField = %+v, want %+v", f, want)
	}
}

func TestNextFieldPastEnd(t *testing.T) {
	conn := openTestConn(t)
	rs := execute(t, conn, "SELECT text_col_key FROM Test WHERE int_col = '4'")
	if _, err := rs.NextField(); !errors.Is(err, ErrColumnRange) {
		t.Errorf("NextField on one-column row err = %v, want ErrColumnRange", err)
	}
}

func TestNextFieldSequential(t *testing.T) {
	conn := openTestConn(t)
	rs := execute(t, conn, "SELECT * FROM Test WHERE int_col = ?", 3)
	rs.NextField()
	rs.NextField()
	f, err := rs.NextField()
	if err != nil {
		t.Fatal(err)
	}
	if want := (Field{"float_col", "3.3"}); f != want {
		t.Errorf("third NextField = %+v, want %+v", f, want)
	}
}

func TestPositionalFieldDoesNotMoveCursor(t *testing.T) {
	conn := openTestConn(t)
	rs := execute(t, conn, "SELECT * FROM Test WHERE text_col = '€tre'")
	if _, err := rs.Field(1); err != nil {
		t.Fatal(err)
	}
	rs.NextField()
	f, err := rs.NextField()
	if err != nil {
		t.Fatal(err)
	}
	if want := (Field{"int_col", "3"}); f != want {
		t.Errorf("NextField after Field(1) = %+v, want %+v", f, want)
	}
}

func TestRow(t *testing.T) {
	conn := openTestConn(t)
	row, err := execute(t, conn,
		"SELECT text_col_key, text_col, float_col, blob_col FROM Test WHERE text_col_key = ?",
		"row31").Row()
	if err != nil {
		t.Fatal(err)
	}
	want := Row{
		{"text_col_key", "row31"}, {"text_col", "€tre"}, {"float_col", "3.3"}, {"blob_col", ""},
	}
	if diff := cmp.Diff(want, row); diff != "" {
		t.Errorf("row mismatch (-want +got):\n%s", diff)
	}
}

func TestRowAdvances(t *testing.T) {
	conn := openTestConn(t)
	rs := execute(t, conn,
		"SELECT text_col_key, text_col, int_col, float_col, blob_col FROM Test WHERE int_col = ?", 4)

	row1, err := rs.RowStrings()
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"row41", "for", "4", "4.4", ""}, row1); diff != "" {
		t.Errorf("first row mismatch (-want +got):\n%s", diff)
	}

	row2, err := rs.RowStrings()
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"row42", "for", "4", "4.4", ""}, row2); diff != "" {
		t.Errorf("second row mismatch (-want +got):\n%s", diff)
	}

	row3, err := rs.RowStrings()
	if err != nil {
		t.Fatal(err)
	}
	if row3 != nil {
		t.Errorf("third RowStrings = %v, want nil", row3)
	}
	if !rs.Empty() {
		t.Error("Empty = false after draining")
	}
}

func TestRowStringsNullsAreEmpty(t *testing.T) {
	conn := openTestConn(t)
	row, err := execute(t, conn,
		"SELECT text_col, int_col, float_col, blob_col FROM Test WHERE int_col IS NULL").RowStrings()
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"nin", "", "", ""}, row); diff != "" {
		t.Errorf("row mismatch (-want +got):\n%s", diff)
	}
}

func TestFieldAsTyped(t *testing.T) {
	conn := openTestConn(t)

	s, err := FieldAs[string](execute(t, conn,
		"SELECT text_col_key FROM Test WHERE int_col = ?", 4), 0)
	if err != nil {
		t.Fatal(err)
	}
	if !s.Valid || s.V != "row41" {
		t.Errorf("FieldAs[string] = %+v, want valid row41", s)
	}

	i, err := FieldAs[int](execute(t, conn,
		"SELECT int_col FROM Test WHERE text_col = ?", "for"), 0)
	if err != nil {
		t.Fatal(err)
	}
	if !i.Valid || i.V != 4 {
		t.Errorf("FieldAs[int] = %+v, want valid 4", i)
	}

	i64, err := FieldAs[int64](execute(t, conn,
		"SELECT int_col FROM Test WHERE text_col = ?", "for"), 0)
	if err != nil {
		t.Fatal(err)
	}
	if !i64.Valid || i64.V != 4 {
		t.Errorf("FieldAs[int64] = %+v, want valid 4", i64)
	}

	f, err := FieldAs[float64](execute(t, conn,
		"SELECT float_col FROM Test WHERE text_col = ?", "for"), 0)
	if err != nil {
		t.Fatal(err)
	}
	if !f.Valid || f.V != 4.4 {
		t.Errorf("FieldAs[float64] = %+v, want valid 4.4", f)
	}
}

func TestFieldAsUnsupportedType(t *testing.T) {
	conn := openTestConn(t)
	rs := execute(t, conn, "SELECT float_col FROM Test WHERE text_col = ?", "for")
	if _, err := FieldAs[bool](rs, 0); !errors.Is(err, ErrUnsupportedType) {
		t.Errorf("FieldAs[bool] err = %v, want ErrUnsupportedType", err)
	}
}

func TestFieldAsNull(t *testing.T) {
	conn := openTestConn(t)
	i, err := FieldAs[int](execute(t, conn,
		"SELECT int_col FROM Test WHERE text_col = ?", "nin"), 0)
	if err != nil {
		t.Fatal(err)
	}
	if i.Valid {
		t.Errorf("NULL cell read as %+v, want invalid", i)
	}
}

func TestFieldAsByName(t *testing.T) {
	conn := openTestConn(t)
	rs := execute(t, conn, "SELECT * FROM Test WHERE int_col = ?", 2)
	i, err := FieldAsByName[int](rs, "int_col")
	if err != nil {
		t.Fatal(err)
	}
	if !i.Valid || i.V != 2 {
		t.Errorf("FieldAsByName[int] = %+v, want valid 2", i)
	}
}

func TestNextFieldAsSequence(t *testing.T) {
	conn := openTestConn(t)
	rs := execute(t, conn, "SELECT * FROM Test WHERE int_col = ?", 4)

	s, err := NextFieldAs[string](rs)
	if err != nil {
		t.Fatal(err)
	}
	if !s.Valid || s.V != "for" {
		t.Errorf("first NextFieldAs = %+v, want valid for", s)
	}
	i, err := NextFieldAs[int](rs)
	if err != nil {
		t.Fatal(err)
	}
	if !i.Valid || i.V != 4 {
		t.Errorf("second NextFieldAs = %+v, want valid 4", i)
	}
	f, err := NextFieldAs[float64](rs)
	if err != nil {
		t.Fatal(err)
	}
	if !f.Valid || f.V != 4.4 {
		t.Errorf("third NextFieldAs = %+v, want valid 4.4", f)
	}
}

func TestScan(t *testing.T) {
	conn := openTestConn(t)
	rs := execute(t, conn,
		"SELECT text_col_key, text_col, int_col, float_col FROM Test WHERE int_col = ?", 2)

	var (
		key, str Null[string]
		intVal   Null[int]
		fltVal   Null[float64]
	)
	ok, err := rs.Scan(&key, &str, &intVal, &fltVal)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("Scan found no row")
	}
	if key.V != "row21" || str.V != "two" || intVal.V != 2 || fltVal.V != 2.2 {
		t.Errorf("Scan = %v %v %v %v", key, str, intVal, fltVal)
	}

	ok, err = rs.Scan(&key, &str, &intVal, &fltVal)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("Scan found a second row, want exhausted")
	}
}

func TestScanNulls(t *testing.T) {
	conn := openTestConn(t)
	rs := execute(t, conn, "SELECT int_col, float_col FROM Test WHERE text_col = ?", "nin")
	var (
		i Null[int]
		f Null[float64]
	)
	ok, err := rs.Scan(&i, &f)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("Scan found no row")
	}
	if i.Valid || f.Valid {
		t.Errorf("NULL cells scanned as %+v %+v, want invalid", i, f)
	}
}

func TestScanTypeArity(t *testing.T) {
	conn := openTestConn(t)
	var s Null[string]

	rs := execute(t, conn,
		"SELECT text_col_key, text_col FROM Test WHERE int_col = ?", 4)
	if _, err := rs.Scan(&s); !errors.Is(err, ErrTypeArity) {
		t.Errorf("too few destinations err = %v, want ErrTypeArity", err)
	}

	rs = execute(t, conn, "SELECT text_col_key FROM Test WHERE int_col = ?", 4)
	var s2 Null[string]
	if _, err := rs.Scan(&s, &s2); !errors.Is(err, ErrTypeArity) {
		t.Errorf("too many destinations err = %v, want ErrTypeArity", err)
	}
}

func TestRow2Typed(t *testing.T) {
	conn := openTestConn(t)
	rs := execute(t, conn, "SELECT int_col, float_col FROM Test WHERE text_col = ?", "nin")
	i, f, ok, err := Row2[int, float64](rs)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("Row2 found no row")
	}
	if i.Valid || f.Valid {
		t.Errorf("Row2 of NULLs = %+v %+v, want invalid", i, f)
	}
}

func TestRow4Typed(t *testing.T) {
	conn := openTestConn(t)
	rs := execute(t, conn,
		"SELECT text_col_key, text_col, int_col, float_col FROM Test WHERE int_col = ?", 2)
	key, str, i, f, ok, err := Row4[string, string, int, float64](rs)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("Row4 found no row")
	}
	if key.V != "row21" || str.V != "two" || i.V != 2 || f.V != 2.2 {
		t.Errorf("Row4 = %v %v %v %v", key, str, i, f)
	}
}

func TestRow1Exhausted(t *testing.T) {
	conn := openTestConn(t)
	rs := execute(t, conn, "SELECT text_col_key FROM Test WHERE int_col = ?", 4321)
	s, ok, err := Row1[string](rs)
	if err != nil {
		t.Fatal(err)
	}
	if ok || s.Valid {
		t.Errorf("Row1 on rowless query = %+v ok=%v, want invalid, false", s, ok)
	}
}

func TestReusePreparedStatement(t *testing.T) {
	conn := openTestConn(t)
	ps := prepare(t, conn, "SELECT COUNT(text_col_key) FROM Test WHERE int_col > ?")

	rs, err := ps.Execute(1)
	if err != nil {
		t.Fatal(err)
	}
	if v, err := rs.Value(0); err != nil || v != "5" {
		t.Errorf("first use = %q, %v, want 5", v, err)
	}

	rs, err = ps.Execute(4)
	if err != nil {
		t.Fatal(err)
	}
	if n, err := FieldAs[int](rs, 0); err != nil || n.V != 1 {
		t.Errorf("second use = %+v, %v, want 1", n, err)
	}

	rs, err = ps.Execute(3)
	if err != nil {
		t.Fatal(err)
	}
	if n, err := FieldAs[int](rs, 0); err != nil || n.V != 3 {
		t.Errorf("third use = %+v, %v, want 3", n, err)
	}
}

func TestStaleAfterReExecute(t *testing.T) {
	conn := openTestConn(t)
	ps := prepare(t, conn, "SELECT text_col_key FROM Test WHERE int_col = ?")

	rs1, err := ps.Execute(4)
	if err != nil {
		t.Fatal(err)
	}
	rs2, err := ps.Execute(2)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := rs1.Row(); !errors.Is(err, ErrStaleResultset) {
		t.Errorf("stale Row err = %v, want ErrStaleResultset", err)
	}
	if !rs1.Empty() {
		t.Error("stale cursor Empty = false")
	}
	if v, err := rs2.Value(0); err != nil || v != "row21" {
		t.Errorf("live cursor = %q, %v, want row21", v, err)
	}
}

func TestStaleAfterClose(t *testing.T) {
	conn := openTestConn(t)
	ps, err := conn.Prepare("SELECT text_col_key FROM Test WHERE int_col = ?", 0)
	if err != nil {
		t.Fatal(err)
	}
	rs, err := ps.Execute(4)
	if err != nil {
		t.Fatal(err)
	}
	if err := ps.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := rs.Field(0); !errors.Is(err, ErrStaleResultset) {
		t.Errorf("Field after Close err = %v, want ErrStaleResultset", err)
	}
	if _, err := ps.Execute(4); !errors.Is(err, ErrStaleResultset) {
		t.Errorf("Execute after Close err = %v, want ErrStaleResultset", err)
	}
	if err := ps.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}

// Storage classes belong to cells, not columns: the same column can be
// an integer on one row and NULL on the next, and the cursor must see
// the change.
func TestStorageClassPerRow(t *testing.T) {
	conn := openTestConn(t)
	rs := execute(t, conn,
		"SELECT int_col FROM Test WHERE int_col = 4 OR int_col IS NULL ORDER BY text_col_key")

	wantValid := []bool{true, true, false}
	for n, want := range wantValid {
		var i Null[int]
		ok, err := rs.Scan(&i)
		if err != nil {
			t.Fatal(err)
		}
		if !ok {
			t.Fatalf("row %d missing", n)
		}
		if i.Valid != want {
			t.Errorf("row %d: Valid = %v, want %v", n, i.Valid, want)
		}
	}
}
