//go:build !cgo

package go4sqlite

import (
	"github.com/berniev/go4sqlite/moderncsqlite"
	"github.com/berniev/go4sqlite/sqliteh"
)

// Without cgo, the modernc.org translation of SQLite serves as the
// engine. Same semantics, slower, no C toolchain needed.
func init() {
	engineOpen = func(filename string, flags sqliteh.OpenFlags, vfs string) (sqliteh.DB, error) {
		db, err := moderncsqlite.Open(filename, flags, vfs)
		if db == nil {
			return nil, err
		}
		return db, err
	}
}
