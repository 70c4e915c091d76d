package storetypes

import (
	"strings"
	"time"
)

// ProductSnapshot is the denormalized product view carried inside collection
// items. Collections cache it so lists render without a catalog round-trip.
type ProductSnapshot struct {
	ProductID string   `json:"productId"`
	Name      string   `json:"name"`
	Image     string   `json:"image,omitempty"`
	Price     float64  `json:"price"`
	SalePrice *float64 `json:"salePrice,omitempty"`
}

// EffectivePrice returns the sale price when set, the regular price otherwise.
func (p ProductSnapshot) EffectivePrice() float64 {
	if p.SalePrice != nil {
		return *p.SalePrice
	}
	return p.Price
}

// Normalize trims identifier whitespace. Called at the API boundary before a
// snapshot enters a collection.
func (p *ProductSnapshot) Normalize() {
	p.ProductID = strings.TrimSpace(p.ProductID)
	p.Name = strings.TrimSpace(p.Name)
}

// CartItem is one cart line. Uniqueness key: (ProductID, Size, Color).
type CartItem struct {
	Product  ProductSnapshot `json:"product"`
	Quantity int             `json:"quantity"`
	Size     string          `json:"size,omitempty"`
	Color    string          `json:"color,omitempty"`
	AddedAt  time.Time       `json:"addedAt"`
}

// Matches reports whether the item carries the given uniqueness key.
func (c CartItem) Matches(productID, size, color string) bool {
	return c.Product.ProductID == productID && c.Size == size && c.Color == color
}

// Subtotal is quantity times the effective unit price.
func (c CartItem) Subtotal() float64 {
	return float64(c.Quantity) * c.Product.EffectivePrice()
}

// WishlistItem is one wishlist entry. Uniqueness key: ProductID.
type WishlistItem struct {
	Product ProductSnapshot `json:"product"`
	AddedAt time.Time       `json:"addedAt"`
}

// CompareItem is one compare-list entry. Uniqueness key: ProductID.
// The compare list holds at most MaxCompareItems entries.
type CompareItem struct {
	Product ProductSnapshot `json:"product"`
	AddedAt time.Time       `json:"addedAt"`
}

// MaxCompareItems caps the compare list.
const MaxCompareItems = 4
