// Package cgosqlite is a low-level interface onto SQLite using cgo.
//
// This package is designed to have as few opinions as possible.
// It wraps the subset of the SQLite3 C API described by the sqliteh
// interfaces with functions that are Go-friendly, and does not unduly
// heap allocate where C wouldn't.
//
// Users of this package do not need to use any cgo, which means
// code using cgosqlite can focus on semantic transform of the API,
// not C<->Go transforms.
package cgosqlite
