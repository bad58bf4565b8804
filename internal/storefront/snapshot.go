package storefront

import (
	"time"

	"github.com/noah-isme/toko-storefront/internal/catalog"
)

// ProductLookup resolves catalog products by id.
type ProductLookup interface {
	Product(id int) (catalog.Product, error)
}

// SnapshotItem is a cart line reduced to its product id.
type SnapshotItem struct {
	ProductID int `json:"productId"`
	Quantity  int `json:"quantity"`
}

// Snapshot is the serialisable state of a controller.
type Snapshot struct {
	Items            []SnapshotItem `json:"items"`
	CartOpen         bool           `json:"cartOpen"`
	ConfirmationOpen bool           `json:"confirmationOpen"`
	Menu             MenuState      `json:"menu"`
	HoverStartedAt   time.Time      `json:"hoverStartedAt,omitzero"`
	HeroIndex        int            `json:"heroIndex"`
	Geometry         Geometry       `json:"geometry"`
	Offset           float64        `json:"offset"`
	SavedAt          time.Time      `json:"savedAt"`
}

// Snapshot captures the controller state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	items := make([]SnapshotItem, 0, c.cart.Len())
	for _, it := range c.cart.Items() {
		items = append(items, SnapshotItem{ProductID: it.Product.ID, Quantity: it.Quantity})
	}
	return Snapshot{
		Items:            items,
		CartOpen:         c.cartOpen,
		ConfirmationOpen: c.confirmationOpen,
		Menu:             c.menu.state,
		HoverStartedAt:   c.menu.hoverStarted,
		HeroIndex:        c.hero.Index(),
		Geometry:         c.carousel.Geometry(),
		Offset:           c.carousel.Offset(),
		SavedAt:          c.now().UTC(),
	}
}

// Restore replaces the controller state with snap. Lines whose product no
// longer exists in the catalog, or whose quantity is outside
// 1..pricing.MaxQuantity, are dropped.
// A pending menu resumes with whatever is left of the open delay.
func (c *Controller) Restore(snap Snapshot, products ProductLookup) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cart = Cart{}
	for _, it := range snap.Items {
		if !validQuantity(it.Quantity) {
			continue
		}
		p, err := products.Product(it.ProductID)
		if err != nil {
			continue
		}
		if c.cart.Add(p) {
			c.cart.UpdateQuantity(p.ID, it.Quantity)
		}
	}
	c.cartOpen = snap.CartOpen
	c.confirmationOpen = snap.ConfirmationOpen
	c.hero.set(snap.HeroIndex)
	c.carousel.Resize(snap.Geometry)
	c.carousel.Sync(snap.Offset)

	c.menu.cancel()
	c.menu.state = MenuClosed
	c.menu.hoverStarted = time.Time{}
	switch snap.Menu {
	case MenuOpen:
		c.menu.state = MenuOpen
	case MenuPendingOpen:
		if c.closed {
			return
		}
		started := snap.HoverStartedAt
		if started.IsZero() {
			started = c.now()
		}
		remaining := c.delay - c.now().Sub(started)
		if remaining < 0 {
			remaining = 0
		}
		c.menu.state = MenuPendingOpen
		c.menu.hoverStarted = started
		c.armMenuTimer(c.menu.gen, remaining)
	}
}
