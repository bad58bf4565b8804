package catalog

import (
	"errors"
	"sort"

	"github.com/noah-isme/toko-storefront/internal/pricing"
)

// ErrNotFound indicates the requested catalog entry does not exist.
var ErrNotFound = errors.New("catalog entry not found")

// ErrInvalid is returned when catalog records fail validation at load time.
var ErrInvalid = errors.New("invalid catalog")

// Section names a product grid on the storefront page.
type Section string

// Sections rendered by the storefront page.
const (
	SectionHighlights  Section = "highlights"
	SectionBestSellers Section = "best_sellers"
	SectionProducts    Section = "products"
	SectionNewProducts Section = "new_products"
)

// Sections lists every known section in page order.
func Sections() []Section {
	return []Section{SectionHighlights, SectionBestSellers, SectionProducts, SectionNewProducts}
}

// Valid reports whether s is a known section.
func (s Section) Valid() bool {
	for _, known := range Sections() {
		if s == known {
			return true
		}
	}
	return false
}

// Product is an immutable catalog item.
type Product struct {
	ID            int
	Name          string
	Image         string
	Price         pricing.Money
	OriginalPrice *pricing.Money
	Reviews       *int
}

// Department is a top-level entry of the departments menu.
type Department struct {
	Name          string
	Subcategories []string
}

// HeroBanner is one slide of the hero carousel.
type HeroBanner struct {
	Image      string
	Alt        string
	Badge      string
	Title      string
	Discount   string
	ButtonText string
}

// PromoBanner is a static promotional tile.
type PromoBanner struct {
	Image string
	Alt   string
}

// Catalog is the read-only data set supplied at startup. It is never mutated
// after construction and may be shared between sessions.
type Catalog struct {
	departments  []Department
	heroBanners  []HeroBanner
	promoBanners []PromoBanner
	sections     map[Section][]Product
	byID         map[int]Product
}

// Departments returns the departments in menu order.
func (c *Catalog) Departments() []Department {
	return append([]Department(nil), c.departments...)
}

// HeroBanners returns the hero banners in carousel order.
func (c *Catalog) HeroBanners() []HeroBanner {
	return append([]HeroBanner(nil), c.heroBanners...)
}

// PromoBanners returns the promotional tiles.
func (c *Catalog) PromoBanners() []PromoBanner {
	return append([]PromoBanner(nil), c.promoBanners...)
}

// Section returns the products of a section in display order.
func (c *Catalog) Section(s Section) ([]Product, error) {
	items, ok := c.sections[s]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]Product(nil), items...), nil
}

// Product looks up a product by id.
func (c *Catalog) Product(id int) (Product, error) {
	p, ok := c.byID[id]
	if !ok {
		return Product{}, ErrNotFound
	}
	return p, nil
}

// Products returns every product ordered by id.
func (c *Catalog) Products() []Product {
	out := make([]Product, 0, len(c.byID))
	for _, p := range c.byID {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// HeroCount returns the number of hero banners.
func (c *Catalog) HeroCount() int { return len(c.heroBanners) }

// SectionLen returns the number of products in a section, zero when unknown.
func (c *Catalog) SectionLen(s Section) int { return len(c.sections[s]) }
