package storefront

import "math"

// Geometry is the carousel extent measured by the View, in pixels.
type Geometry struct {
	Viewport float64 `json:"viewport" validate:"gte=0"`
	Content  float64 `json:"content" validate:"gte=0"`
}

// Carousel holds the best-sellers strip position. The offset is owned here;
// the View scrolls to whatever offset the carousel reports.
type Carousel struct {
	geometry Geometry
	offset   float64
	items    int
}

// NewCarousel builds a carousel over items products.
func NewCarousel(items int) Carousel {
	if items < 0 {
		items = 0
	}
	return Carousel{items: items}
}

// Max is the scrollable range, content minus viewport, never negative.
func (c *Carousel) Max() float64 {
	return math.Max(c.geometry.Content-c.geometry.Viewport, 0)
}

// Offset returns the current scroll offset.
func (c *Carousel) Offset() float64 { return c.offset }

// Geometry returns the last geometry reported by the View.
func (c *Carousel) Geometry() Geometry { return c.geometry }

// Items returns the number of products in the strip.
func (c *Carousel) Items() int { return c.items }

// Resize stores new geometry and clamps the offset into range.
func (c *Carousel) Resize(g Geometry) {
	if g.Viewport < 0 {
		g.Viewport = 0
	}
	if g.Content < 0 {
		g.Content = 0
	}
	c.geometry = g
	c.offset = c.clamp(c.offset)
}

// Scroll moves one viewport width. Past the end it wraps to 0 and before the
// start it wraps to Max. Without geometry it does nothing.
func (c *Carousel) Scroll(dir Direction) bool {
	vp := c.geometry.Viewport
	if vp <= 0 {
		return false
	}
	max := c.Max()
	switch dir {
	case Right:
		next := c.offset + vp
		if next > max {
			next = 0
		}
		c.offset = next
	case Left:
		next := c.offset - vp
		if next < 0 {
			next = max
		}
		c.offset = next
	default:
		return false
	}
	return true
}

// Sync accepts a free-scroll offset from the View, clamped to [0, Max].
func (c *Carousel) Sync(offset float64) {
	if math.IsNaN(offset) {
		return
	}
	c.offset = c.clamp(offset)
}

// GoTo positions the strip at slide i. Out of range indexes are ignored.
func (c *Carousel) GoTo(i int) bool {
	if i < 0 || i >= c.items || c.geometry.Viewport <= 0 {
		return false
	}
	c.offset = math.Min(float64(i)*c.geometry.Viewport, c.Max())
	return true
}

// Slide is the indicator index derived from the carousel's own offset.
func (c *Carousel) Slide() int {
	if c.items == 0 || c.geometry.Viewport <= 0 {
		return 0
	}
	return int(math.Round(c.offset/c.geometry.Viewport)) % c.items
}

func (c *Carousel) clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if max := c.Max(); v > max {
		return max
	}
	return v
}
