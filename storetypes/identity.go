// Package storetypes holds the closed schemas shared by the storefront sync
// core: identities and scope keys, the persisted collection item shapes, and
// the chat/notification wire types.
package storetypes

import "fmt"

// Collection names a scoped persistent collection kind.
type Collection string

const (
	CollectionCart     Collection = "cart"
	CollectionWishlist Collection = "wishlist"
	CollectionCompare  Collection = "compare"
)

// Identity is either the anonymous visitor or an authenticated user.
// The zero value is anonymous.
type Identity struct {
	UserID string `json:"userId,omitempty"`
}

// Anonymous returns the guest identity.
func Anonymous() Identity {
	return Identity{}
}

// User returns the identity for an authenticated user id.
func User(id string) Identity {
	return Identity{UserID: id}
}

// IsAnonymous reports whether the identity has no authenticated user.
func (i Identity) IsAnonymous() bool {
	return i.UserID == ""
}

func (i Identity) String() string {
	if i.IsAnonymous() {
		return "guest"
	}
	return "user:" + i.UserID
}

// ScopeKey derives the storage key for a collection under an identity.
// It is pure and total: the same (collection, identity) pair always yields
// the same key, and two distinct identities can never collide because user
// keys carry a "user_" segment the guest key lacks. A user-supplied id of
// "guest" still maps to "cart_user_guest", never to the guest scope.
func ScopeKey(collection Collection, identity Identity) string {
	if identity.IsAnonymous() {
		return fmt.Sprintf("%s_guest", collection)
	}
	return fmt.Sprintf("%s_user_%s", collection, identity.UserID)
}
