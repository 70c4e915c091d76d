// storesync keeps storefront client state in sync from the command line:
// identity-scoped cart/wishlist/compare collections over SQLite, Postgres,
// or valkey, plus polled chat and notification synchronization.
package main

import "github.com/atelierline/storesync/internal/storecli"

func main() {
	storecli.Main()
}
