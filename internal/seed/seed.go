// Package seed bundles the data the server starts with: three practice
// accounts and a few public collections for the exercises. Everything is
// embedded so the binary is self-contained.
package seed

import (
	_ "embed"

	"github.com/lostpaws/pawserver/internal/store"
)

//go:embed protected.json
var protectedJSON []byte

//go:embed data.json
var dataJSON []byte

// Protected returns the users and sessions collections. All bundled accounts
// use the password "123456", except admin@abv.bg whose password is "admin".
func Protected() (store.Seed, error) {
	return store.ParseSeed(protectedJSON)
}

// Data returns the public collections.
func Data() (store.Seed, error) {
	return store.ParseSeed(dataJSON)
}
