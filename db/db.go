package db

import (
	"driza/store"
)

// Store is the shared store adapter handle, wired up once in main. Handlers
// reach it the same way the rest of the codebase reaches rdx.Conn.
var Store store.Store

func Init(s store.Store) {
	Store = s
}
