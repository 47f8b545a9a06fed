//go:build cgo

package go4sqlite

import (
	"github.com/berniev/go4sqlite/cgosqlite"
	"github.com/berniev/go4sqlite/sqliteh"
)

// The cgo backend links against the system libsqlite3.
func init() {
	engineOpen = func(filename string, flags sqliteh.OpenFlags, vfs string) (sqliteh.DB, error) {
		db, err := cgosqlite.Open(filename, flags, vfs)
		if db == nil {
			return nil, err
		}
		return db, err
	}
}
