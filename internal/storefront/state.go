package storefront

import (
	"github.com/noah-isme/toko-storefront/internal/pricing"
)

// LineState is a rendered cart line.
type LineState struct {
	ProductID        int           `json:"productId"`
	Name             string        `json:"name"`
	Image            string        `json:"image"`
	Quantity         int           `json:"quantity"`
	UnitPrice        pricing.Money `json:"unitPrice"`
	UnitPriceDisplay string        `json:"unitPriceDisplay"`
	LineTotal        pricing.Money `json:"lineTotal"`
	LineTotalDisplay string        `json:"lineTotalDisplay"`
}

// CartState is the rendered cart with derived totals.
type CartState struct {
	Items              []LineState   `json:"items"`
	Count              int           `json:"count"`
	Total              pricing.Money `json:"total"`
	TotalDisplay       string        `json:"totalDisplay"`
	Installments       int           `json:"installments"`
	InstallmentAmount  pricing.Money `json:"installmentAmount"`
	InstallmentDisplay string        `json:"installmentDisplay"`
}

// HeroState is the hero carousel position.
type HeroState struct {
	Index int `json:"index"`
	Count int `json:"count"`
}

// CarouselState is the best-sellers strip position.
type CarouselState struct {
	Offset   float64 `json:"offset"`
	Max      float64 `json:"max"`
	Viewport float64 `json:"viewport"`
	Content  float64 `json:"content"`
	Slide    int     `json:"slide"`
	Items    int     `json:"items"`
}

// State is an immutable view of a controller used for rendering.
type State struct {
	Cart             CartState     `json:"cart"`
	CartOpen         bool          `json:"cartOpen"`
	ConfirmationOpen bool          `json:"confirmationOpen"`
	Departments      MenuState     `json:"departments"`
	Hero             HeroState     `json:"hero"`
	Carousel         CarouselState `json:"carousel"`
}

// View returns the current state.
func (c *Controller) View() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	lines := make([]LineState, 0, c.cart.Len())
	for _, it := range c.cart.Items() {
		lineTotal := pricing.LineTotal(it.Product.Price, it.Quantity)
		lines = append(lines, LineState{
			ProductID:        it.Product.ID,
			Name:             it.Product.Name,
			Image:            it.Product.Image,
			Quantity:         it.Quantity,
			UnitPrice:        it.Product.Price,
			UnitPriceDisplay: pricing.Format(it.Product.Price),
			LineTotal:        lineTotal,
			LineTotalDisplay: pricing.Format(lineTotal),
		})
	}
	sum := c.cart.Summary()
	installment := pricing.Installment(sum.Total, CartInstallments)
	g := c.carousel.Geometry()

	return State{
		Cart: CartState{
			Items:              lines,
			Count:              sum.Quantity,
			Total:              sum.Total,
			TotalDisplay:       pricing.FormatWithSymbol(sum.Total),
			Installments:       CartInstallments,
			InstallmentAmount:  installment,
			InstallmentDisplay: pricing.FormatWithSymbol(installment),
		},
		CartOpen:         c.cartOpen,
		ConfirmationOpen: c.confirmationOpen,
		Departments:      c.menu.state,
		Hero:             HeroState{Index: c.hero.Index(), Count: c.hero.Count()},
		Carousel: CarouselState{
			Offset:   c.carousel.Offset(),
			Max:      c.carousel.Max(),
			Viewport: g.Viewport,
			Content:  g.Content,
			Slide:    c.carousel.Slide(),
			Items:    c.carousel.Items(),
		},
	}
}
