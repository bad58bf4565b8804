package storefront

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	cat := testCatalog(t)
	now := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	src := newTestController(&fakeScheduler{}, clock)
	for _, id := range []int{103, 101, 103, 202} {
		src.AddItem(mustProduct(t, cat, id))
	}
	src.UpdateQuantity(101, 5)
	src.GoToCart()
	src.AdvanceHeroBanner(Left)
	src.ResizeCarousel(Geometry{Viewport: 400, Content: 1000})
	src.ScrollCarousel(Right)

	raw, err := json.Marshal(src.Snapshot())
	require.NoError(t, err)
	var snap Snapshot
	require.NoError(t, json.Unmarshal(raw, &snap))

	dst := newTestController(&fakeScheduler{}, clock)
	dst.Restore(snap, cat)

	require.Equal(t, src.Items(), dst.Items())
	require.Equal(t, src.View(), dst.View())
}

func TestSnapshotOmitsUnsetHoverStart(t *testing.T) {
	c := newTestController(&fakeScheduler{}, nil)
	raw, err := json.Marshal(c.Snapshot())
	require.NoError(t, err)
	require.NotContains(t, string(raw), "hoverStartedAt")

	c.HoverDepartmentsEnter()
	raw, err = json.Marshal(c.Snapshot())
	require.NoError(t, err)
	require.Contains(t, string(raw), "hoverStartedAt")
}

func TestRestoreDropsUnknownProducts(t *testing.T) {
	cat := testCatalog(t)
	c := newTestController(&fakeScheduler{}, nil)
	c.Restore(Snapshot{Items: []SnapshotItem{
		{ProductID: 9999, Quantity: 2},
		{ProductID: 101, Quantity: 0},
		{ProductID: 103, Quantity: 1 << 50},
		{ProductID: 102, Quantity: 3},
	}}, cat)

	items := c.Items()
	require.Len(t, items, 1)
	require.Equal(t, 102, items[0].Product.ID)
	require.Equal(t, 3, items[0].Quantity)
}

func TestRestorePendingMenuResumesRemainingDelay(t *testing.T) {
	cat := testCatalog(t)
	start := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	sched := &fakeScheduler{}
	c := newTestController(sched, func() time.Time { return start.Add(1500 * time.Millisecond) })

	c.Restore(Snapshot{Menu: MenuPendingOpen, HoverStartedAt: start}, cat)
	require.Equal(t, MenuPendingOpen, c.MenuState())
	pending := sched.pending()
	require.Len(t, pending, 1)
	require.Equal(t, 500*time.Millisecond, pending[0].delay)

	sched.fireAll()
	require.Equal(t, MenuOpen, c.MenuState())
}

func TestMenuStateText(t *testing.T) {
	raw, err := json.Marshal(MenuPendingOpen)
	require.NoError(t, err)
	require.Equal(t, `"pending_open"`, string(raw))

	var s MenuState
	require.NoError(t, json.Unmarshal([]byte(`"open"`), &s))
	require.Equal(t, MenuOpen, s)
	require.Error(t, json.Unmarshal([]byte(`"ajar"`), &s))
}
