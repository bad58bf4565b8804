package storefront

// Hero tracks the active hero banner.
type Hero struct {
	index int
	count int
}

// NewHero builds a hero rotator over count banners.
func NewHero(count int) Hero {
	if count < 0 {
		count = 0
	}
	return Hero{count: count}
}

// Index returns the active banner, in [0, count).
func (h *Hero) Index() int { return h.index }

// Count returns the number of banners.
func (h *Hero) Count() int { return h.count }

// Advance moves the index cyclically. With no banners the index stays 0.
func (h *Hero) Advance(dir Direction) {
	if h.count == 0 {
		h.index = 0
		return
	}
	switch dir {
	case Left:
		if h.index == 0 {
			h.index = h.count - 1
		} else {
			h.index--
		}
	case Right:
		h.index = (h.index + 1) % h.count
	}
}

func (h *Hero) set(i int) {
	if h.count == 0 || i < 0 {
		h.index = 0
		return
	}
	h.index = i % h.count
}
