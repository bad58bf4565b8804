package storefront

import (
	"sync"
	"time"

	"github.com/noah-isme/toko-storefront/internal/catalog"
	"github.com/noah-isme/toko-storefront/internal/obs"
	"github.com/noah-isme/toko-storefront/internal/pricing"
)

const (
	// DefaultMenuOpenDelay is how long the pointer must rest on the
	// departments trigger before the menu opens.
	DefaultMenuOpenDelay = 2 * time.Second
	// CartInstallments is the interest-free installment count shown in the cart.
	CartInstallments = 6
)

// ControllerConfig configures a Controller.
type ControllerConfig struct {
	HeroBanners   int
	CarouselItems int
	MenuOpenDelay time.Duration
	Scheduler     Scheduler
	Now           func() time.Time
}

// Controller owns the cart and navigation state of one storefront session.
// All methods are safe for concurrent use.
type Controller struct {
	mu sync.Mutex

	cart             Cart
	cartOpen         bool
	confirmationOpen bool
	hero             Hero
	carousel         Carousel
	menu             menu

	delay  time.Duration
	sched  Scheduler
	now    func() time.Time
	closed bool
}

// NewController constructs a controller with an empty cart and everything closed.
func NewController(cfg ControllerConfig) *Controller {
	delay := cfg.MenuOpenDelay
	if delay <= 0 {
		delay = DefaultMenuOpenDelay
	}
	sched := cfg.Scheduler
	if sched == nil {
		sched = RealScheduler{}
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Controller{
		hero:     NewHero(cfg.HeroBanners),
		carousel: NewCarousel(cfg.CarouselItems),
		delay:    delay,
		sched:    sched,
		now:      now,
	}
}

// AddItem adds one unit of p and opens the confirmation dialog.
func (c *Controller) AddItem(p catalog.Product) {
	c.mu.Lock()
	defer c.mu.Unlock()
	line := "existing"
	if c.cart.Add(p) {
		line = "new"
	}
	c.confirmationOpen = true
	if obs.CartItemsAddedTotal != nil {
		obs.CartItemsAddedTotal.WithLabelValues(line).Inc()
	}
}

// RemoveItem deletes the line for id. It reports whether a line was removed.
func (c *Controller) RemoveItem(id int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := c.cart.Remove(id)
	if removed && obs.CartItemsRemovedTotal != nil {
		obs.CartItemsRemovedTotal.Inc()
	}
	return removed
}

// UpdateQuantity sets the quantity of an existing line. Quantities outside
// 1..pricing.MaxQuantity leave the cart untouched. It reports whether the
// cart changed.
func (c *Controller) UpdateQuantity(id, qty int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !validQuantity(qty) && obs.CartQuantityRejectedTotal != nil {
		obs.CartQuantityRejectedTotal.Inc()
	}
	return c.cart.UpdateQuantity(id, qty)
}

// Items returns the cart lines in insertion order.
func (c *Controller) Items() []CartItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cart.Items()
}

// Total is the exact sum of unit price times quantity.
func (c *Controller) Total() pricing.Money {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cart.Summary().Total
}

// Count is the sum of quantities shown on the cart badge.
func (c *Controller) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cart.Summary().Quantity
}

func (c *Controller) OpenCartPanel()  { c.setCartOpen(true) }
func (c *Controller) CloseCartPanel() { c.setCartOpen(false) }

// ToggleCartPanel flips the cart panel and returns the new value.
func (c *Controller) ToggleCartPanel() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cartOpen = !c.cartOpen
	return c.cartOpen
}

func (c *Controller) OpenConfirmation()  { c.setConfirmationOpen(true) }
func (c *Controller) CloseConfirmation() { c.setConfirmationOpen(false) }

// ContinueShopping dismisses the confirmation dialog.
func (c *Controller) ContinueShopping() { c.setConfirmationOpen(false) }

// GoToCart dismisses the confirmation dialog and opens the cart panel.
func (c *Controller) GoToCart() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.confirmationOpen = false
	c.cartOpen = true
}

func (c *Controller) setCartOpen(v bool) {
	c.mu.Lock()
	c.cartOpen = v
	c.mu.Unlock()
}

func (c *Controller) setConfirmationOpen(v bool) {
	c.mu.Lock()
	c.confirmationOpen = v
	c.mu.Unlock()
}

// HoverDepartmentsEnter starts or restarts the open delay unless the menu is
// already open.
func (c *Controller) HoverDepartmentsEnter() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	if gen, ok := c.menu.enter(c.now()); ok {
		c.armMenuTimer(gen, c.delay)
	}
}

// HoverDepartmentsLeave closes the menu and cancels a pending open.
func (c *Controller) HoverDepartmentsLeave() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.menu.leave()
}

// MenuState returns the departments menu state.
func (c *Controller) MenuState() MenuState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.menu.state
}

func (c *Controller) armMenuTimer(gen uint64, d time.Duration) {
	c.menu.timer = c.sched.AfterFunc(d, func() { c.menuTimerFired(gen) })
}

func (c *Controller) menuTimerFired(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.menu.fire(gen) && obs.DepartmentMenuOpenedTotal != nil {
		obs.DepartmentMenuOpenedTotal.Inc()
	}
}

// ResizeCarousel records the strip geometry measured by the View.
func (c *Controller) ResizeCarousel(g Geometry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.carousel.Resize(g)
}

// ScrollCarousel moves the best-sellers strip one viewport in dir.
func (c *Controller) ScrollCarousel(dir Direction) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.carousel.Scroll(dir)
}

// SyncCarousel records a free-scroll position reported by the View.
func (c *Controller) SyncCarousel(offset float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.carousel.Sync(offset)
}

// GoToSlide positions the strip at slide i.
func (c *Controller) GoToSlide(i int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.carousel.GoTo(i)
}

// AdvanceHeroBanner moves the hero carousel one banner in dir.
func (c *Controller) AdvanceHeroBanner(dir Direction) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hero.Advance(dir)
}

// Close cancels the pending hover timer and closes the menu. The controller
// must not be used for hover transitions afterwards.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.menu.leave()
}
