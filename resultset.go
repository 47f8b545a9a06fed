package go4sqlite

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/berniev/go4sqlite/sqliteh"
)

// Field is one column of one row rendered as display text.
// A NULL cell renders as "", indistinguishable from an empty string;
// use the typed accessors when the distinction matters.
type Field struct {
	Name  string
	Value string
}

// Row is one result row of display-text Fields, in column order.
type Row []Field

// Table is every row of a QuickQuery, in statement order.
type Table []Row

// Null is an optional value of type T. Valid is false for SQL NULL.
type Null[T any] struct {
	V     T
	Valid bool
}

// FileReplace controls whether ToFile may overwrite an existing file.
type FileReplace int

const (
	NoReplace FileReplace = iota
	Replace
)

// Resultset is a forward-only cursor over the rows produced by one
// Execute. It is positioned on the first row from the start; a
// statement producing no rows yields an immediately exhausted cursor.
//
// The cursor borrows the PreparedStatement's handle. Re-executing or
// closing the statement invalidates it: every later access fails with
// ErrStaleResultset.
type Resultset struct {
	ps      *PreparedStatement
	stmt    sqliteh.Stmt
	gen     int
	hasRow  bool
	colPosn int // sequential cursor for NextField and friends
	names   []string
	types   []sqliteh.ColumnType // storage classes of the current row
}

func newResultset(ps *PreparedStatement) (*Resultset, error) {
	n := ps.stmt.ColumnCount()
	rs := &Resultset{
		ps:    ps,
		stmt:  ps.stmt,
		gen:   ps.gen,
		names: make([]string, n),
		types: make([]sqliteh.ColumnType, n),
	}
	for i := range rs.names {
		rs.names[i] = ps.stmt.ColumnName(i)
	}
	if err := rs.step(); err != nil {
		return nil, err
	}
	return rs, nil
}

// step is the only row transition. Storage classes are refreshed for
// the new row; the same column can report a different class row to
// row.
func (rs *Resultset) step() error {
	row, err := rs.stmt.Step(rs.types)
	if err != nil {
		rs.hasRow = false
		return reserr(rs.ps.conn.db, "Step", rs.ps.query, err)
	}
	rs.hasRow = row
	rs.colPosn = 0
	return nil
}

func (rs *Resultset) live() error {
	if rs.gen != rs.ps.gen {
		return fmt.Errorf("go4sqlite: %w", ErrStaleResultset)
	}
	return nil
}

func (rs *Resultset) checkPos(pos int) error {
	if pos < 0 || pos >= len(rs.names) {
		return fmt.Errorf("go4sqlite: column %d of %d: %w", pos, len(rs.names), ErrColumnRange)
	}
	return nil
}

func (rs *Resultset) posn(name string) (int, error) {
	for i, n := range rs.names {
		if n == name {
			return i, nil
		}
	}
	return 0, fmt.Errorf("go4sqlite: column %q: %w", name, ErrColumnNotFound)
}

func (rs *Resultset) checkTypeCount(count int) error {
	if n := len(rs.names); count != n {
		if count > n {
			return fmt.Errorf("go4sqlite: too many types (%d for %d columns): %w", count, n, ErrTypeArity)
		}
		return fmt.Errorf("go4sqlite: too few types (%d for %d columns): %w", count, n, ErrTypeArity)
	}
	return nil
}

// text renders the cell at pos as display text, whatever its storage
// class. The engine converts; NULL comes back "".
func (rs *Resultset) text(pos int) string {
	return rs.stmt.ColumnText(pos)
}

// Empty reports whether the cursor is exhausted. A stale cursor is
// always empty.
func (rs *Resultset) Empty() bool {
	return rs.gen != rs.ps.gen || !rs.hasRow
}

// ColumnCount reports the number of result columns, row or no row.
func (rs *Resultset) ColumnCount() int { return len(rs.names) }

// Name reports the declared name of the column at pos (0-based).
func (rs *Resultset) Name(pos int) (string, error) {
	if err := rs.checkPos(pos); err != nil {
		return "", err
	}
	return rs.names[pos], nil
}

// Field returns the name and display text of the column at pos
// (0-based) without advancing. An exhausted cursor returns a zero
// Field and no error, whatever pos is.
func (rs *Resultset) Field(pos int) (Field, error) {
	if err := rs.live(); err != nil {
		return Field{}, err
	}
	if !rs.hasRow {
		return Field{}, nil
	}
	if err := rs.checkPos(pos); err != nil {
		return Field{}, err
	}
	return Field{Name: rs.names[pos], Value: rs.text(pos)}, nil
}

// FieldByName is Field for the column named name. An unknown name is
// an error even on an exhausted cursor.
func (rs *Resultset) FieldByName(name string) (Field, error) {
	if err := rs.live(); err != nil {
		return Field{}, err
	}
	pos, err := rs.posn(name)
	if err != nil {
		return Field{}, err
	}
	if !rs.hasRow {
		return Field{}, nil
	}
	return Field{Name: rs.names[pos], Value: rs.text(pos)}, nil
}

// Value returns the display text of the column at pos (0-based)
// without advancing. An exhausted cursor returns "".
func (rs *Resultset) Value(pos int) (string, error) {
	f, err := rs.Field(pos)
	return f.Value, err
}

// ValueByName is Value for the column named name.
func (rs *Resultset) ValueByName(name string) (string, error) {
	f, err := rs.FieldByName(name)
	return f.Value, err
}

// NextField advances the sequential column cursor and returns the
// field there. The cursor starts at column 0 on every new row, so the
// first call returns column 1; read column 0 positionally.
// Advancing past the last column is an error.
func (rs *Resultset) NextField() (Field, error) {
	if err := rs.live(); err != nil {
		return Field{}, err
	}
	rs.colPosn++
	if !rs.hasRow {
		return Field{}, nil
	}
	if err := rs.checkPos(rs.colPosn); err != nil {
		return Field{}, err
	}
	return Field{Name: rs.names[rs.colPosn], Value: rs.text(rs.colPosn)}, nil
}

// NextValue is NextField returning only the display text.
func (rs *Resultset) NextValue() (string, error) {
	f, err := rs.NextField()
	return f.Value, err
}

// Row materializes every column of the current row as display-text
// Fields, then advances to the next row. An exhausted cursor returns
// nil, nil.
func (rs *Resultset) Row() (Row, error) {
	if err := rs.live(); err != nil {
		return nil, err
	}
	if !rs.hasRow {
		return nil, nil
	}
	row := make(Row, len(rs.names))
	for i := range rs.names {
		row[i] = Field{Name: rs.names[i], Value: rs.text(i)}
	}
	if err := rs.step(); err != nil {
		return nil, err
	}
	return row, nil
}

// RowStrings is Row without the column names.
func (rs *Resultset) RowStrings() ([]string, error) {
	if err := rs.live(); err != nil {
		return nil, err
	}
	if !rs.hasRow {
		return nil, nil
	}
	row := make([]string, len(rs.names))
	for i := range row {
		row[i] = rs.text(i)
	}
	if err := rs.step(); err != nil {
		return nil, err
	}
	return row, nil
}

// read reads the cell at pos into dest, which must be a *Null[T] for
// one of the supported T. The caller has already range-checked pos.
func (rs *Resultset) read(pos int, dest any) error {
	isNull := rs.types[pos] == sqliteh.SQLITE_NULL
	switch d := dest.(type) {
	case *Null[int]:
		if isNull {
			*d = Null[int]{}
			return nil
		}
		*d = Null[int]{V: int(rs.stmt.ColumnInt64(pos)), Valid: true}
	case *Null[int64]:
		if isNull {
			*d = Null[int64]{}
			return nil
		}
		*d = Null[int64]{V: rs.stmt.ColumnInt64(pos), Valid: true}
	case *Null[float64]:
		if isNull {
			*d = Null[float64]{}
			return nil
		}
		*d = Null[float64]{V: rs.stmt.ColumnDouble(pos), Valid: true}
	case *Null[string]:
		if isNull {
			*d = Null[string]{}
			return nil
		}
		// A blob cell read as string keeps its raw bytes; text cells
		// go through the engine's length-prefixed text read, so
		// embedded NULs survive either way.
		var s string
		if rs.types[pos] == sqliteh.SQLITE_BLOB {
			s = string(rs.stmt.ColumnBlob(pos))
		} else {
			s = rs.text(pos)
		}
		*d = Null[string]{V: s, Valid: true}
	case *Null[[]byte]:
		if isNull {
			*d = Null[[]byte]{}
			return nil
		}
		// Copied: the engine's buffer only lives until the next call.
		b := rs.stmt.ColumnBlob(pos)
		*d = Null[[]byte]{V: append([]byte(nil), b...), Valid: true}
	default:
		return fmt.Errorf("go4sqlite: read column %q: Go type %T: %w", rs.names[pos], dest, ErrUnsupportedType)
	}
	return nil
}

// readAs reads the cell at pos as a Null[T]. A NULL cell is invalid
// for every T, including ones read can't handle.
func readAs[T any](rs *Resultset, pos int) (Null[T], error) {
	if rs.types[pos] == sqliteh.SQLITE_NULL {
		return Null[T]{}, nil
	}
	var out Null[T]
	if err := rs.read(pos, &out); err != nil {
		return Null[T]{}, err
	}
	return out, nil
}

// FieldAs reads the column at pos (0-based) as a Null[T] without
// advancing. Supported T: int, int64, float64, string, []byte.
// An exhausted cursor returns an invalid Null and no error.
func FieldAs[T any](rs *Resultset, pos int) (Null[T], error) {
	if err := rs.live(); err != nil {
		return Null[T]{}, err
	}
	if !rs.hasRow {
		return Null[T]{}, nil
	}
	if err := rs.checkPos(pos); err != nil {
		return Null[T]{}, err
	}
	return readAs[T](rs, pos)
}

// FieldAsByName is FieldAs for the column named name.
func FieldAsByName[T any](rs *Resultset, name string) (Null[T], error) {
	if err := rs.live(); err != nil {
		return Null[T]{}, err
	}
	pos, err := rs.posn(name)
	if err != nil {
		return Null[T]{}, err
	}
	if !rs.hasRow {
		return Null[T]{}, nil
	}
	return readAs[T](rs, pos)
}

// NextFieldAs advances the sequential column cursor and reads the
// field there as a Null[T]; see NextField for the cursor rules.
func NextFieldAs[T any](rs *Resultset) (Null[T], error) {
	if err := rs.live(); err != nil {
		return Null[T]{}, err
	}
	rs.colPosn++
	if !rs.hasRow {
		return Null[T]{}, nil
	}
	if err := rs.checkPos(rs.colPosn); err != nil {
		return Null[T]{}, err
	}
	return readAs[T](rs, rs.colPosn)
}

// Scan reads every column of the current row into dest in column
// order, then advances. Each dest must be a *Null[T] for a supported
// T, and there must be exactly one per column; a mismatch is an error
// ("too many types" / "too few types"). An exhausted cursor returns
// false, nil.
func (rs *Resultset) Scan(dest ...any) (bool, error) {
	if err := rs.live(); err != nil {
		return false, err
	}
	if err := rs.checkTypeCount(len(dest)); err != nil {
		return false, err
	}
	if !rs.hasRow {
		return false, nil
	}
	for i, d := range dest {
		if err := rs.read(i, d); err != nil {
			return false, err
		}
	}
	if err := rs.step(); err != nil {
		return false, err
	}
	return true, nil
}

// Row1 reads a one-column row as a typed tuple, then advances.
// The bool reports whether a row was read.
func Row1[A any](rs *Resultset) (Null[A], bool, error) {
	var a Null[A]
	ok, err := typedRow(rs, 1, func() (err error) {
		a, err = readAs[A](rs, 0)
		return err
	})
	return a, ok, err
}

// Row2 reads a two-column row as a typed tuple, then advances.
func Row2[A, B any](rs *Resultset) (Null[A], Null[B], bool, error) {
	var (
		a Null[A]
		b Null[B]
	)
	ok, err := typedRow(rs, 2, func() (err error) {
		if a, err = readAs[A](rs, 0); err != nil {
			return err
		}
		b, err = readAs[B](rs, 1)
		return err
	})
	return a, b, ok, err
}

// Row3 reads a three-column row as a typed tuple, then advances.
func Row3[A, B, C any](rs *Resultset) (Null[A], Null[B], Null[C], bool, error) {
	var (
		a Null[A]
		b Null[B]
		c Null[C]
	)
	ok, err := typedRow(rs, 3, func() (err error) {
		if a, err = readAs[A](rs, 0); err != nil {
			return err
		}
		if b, err = readAs[B](rs, 1); err != nil {
			return err
		}
		c, err = readAs[C](rs, 2)
		return err
	})
	return a, b, c, ok, err
}

// Row4 reads a four-column row as a typed tuple, then advances.
func Row4[A, B, C, D any](rs *Resultset) (Null[A], Null[B], Null[C], Null[D], bool, error) {
	var (
		a Null[A]
		b Null[B]
		c Null[C]
		d Null[D]
	)
	ok, err := typedRow(rs, 4, func() (err error) {
		if a, err = readAs[A](rs, 0); err != nil {
			return err
		}
		if b, err = readAs[B](rs, 1); err != nil {
			return err
		}
		if c, err = readAs[C](rs, 2); err != nil {
			return err
		}
		d, err = readAs[D](rs, 3)
		return err
	})
	return a, b, c, d, ok, err
}

func typedRow(rs *Resultset, count int, materialize func() error) (bool, error) {
	if err := rs.live(); err != nil {
		return false, err
	}
	if err := rs.checkTypeCount(count); err != nil {
		return false, err
	}
	if !rs.hasRow {
		return false, nil
	}
	if err := materialize(); err != nil {
		return false, err
	}
	if err := rs.step(); err != nil {
		return false, err
	}
	return true, nil
}

// ToFile writes the raw bytes of column 0 of the current row to path
// and reports the byte count. With NoReplace an existing file is an
// error. The cursor does not advance; an exhausted cursor writes an
// empty file.
func (rs *Resultset) ToFile(path string, replace FileReplace) (int, error) {
	if err := rs.live(); err != nil {
		return 0, err
	}
	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if replace == NoReplace {
		flags |= os.O_EXCL
	}
	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return 0, fmt.Errorf("go4sqlite.ToFile: %s: %w", path, ErrFileExists)
		}
		return 0, fmt.Errorf("go4sqlite.ToFile: %w", err)
	}
	var blob []byte
	if rs.hasRow {
		blob = rs.stmt.ColumnBlob(0)
	}
	n, err := f.Write(blob)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return n, fmt.Errorf("go4sqlite.ToFile: %w", err)
	}
	return n, nil
}
