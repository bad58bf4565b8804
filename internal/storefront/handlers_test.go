package storefront

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/toko-storefront/internal/events"
	"github.com/noah-isme/toko-storefront/internal/session"
)

type capturePublisher struct {
	mu     sync.Mutex
	topics []string
}

func (c *capturePublisher) Publish(_ context.Context, a events.Activity) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.topics = append(c.topics, a.Topic)
	return nil
}

type handlerFixture struct {
	router    http.Handler
	sched     *fakeScheduler
	publisher *capturePublisher
}

func newHandlerFixture(t *testing.T) handlerFixture {
	t.Helper()
	cat := testCatalog(t)
	sched := &fakeScheduler{}
	reg := NewRegistry(RegistryConfig{
		Products: cat,
		Controller: ControllerConfig{
			HeroBanners:   cat.HeroCount(),
			CarouselItems: 6,
			Scheduler:     sched,
		},
		Logger: zerolog.Nop(),
	})
	pub := &capturePublisher{}
	h := NewHandler(HandlerConfig{Registry: reg, Products: cat, Publisher: pub, Logger: zerolog.Nop()})

	r := chi.NewRouter()
	r.Route("/api/v1/storefront", func(r chi.Router) { h.Routes(r) })
	return handlerFixture{router: r, sched: sched, publisher: pub}
}

type stateEnvelope struct {
	Data  State `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (f handlerFixture) do(t *testing.T, sessionID, method, path, body string) (int, stateEnvelope) {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if sessionID != "" {
		req = req.WithContext(session.WithID(req.Context(), sessionID))
	}
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)
	var env stateEnvelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env), rr.Body.String())
	return rr.Code, env
}

func TestHandlerCartFlow(t *testing.T) {
	f := newHandlerFixture(t)
	const base = "/api/v1/storefront"

	code, env := f.do(t, "s1", http.MethodPost, base+"/cart/items", `{"productId":301}`)
	require.Equal(t, http.StatusOK, code)
	require.True(t, env.Data.ConfirmationOpen)
	require.Equal(t, 1, env.Data.Cart.Count)

	code, env = f.do(t, "s1", http.MethodPost, base+"/cart/items", `{"productId":301}`)
	require.Equal(t, http.StatusOK, code)
	require.Len(t, env.Data.Cart.Items, 1)
	require.Equal(t, int64(301998), env.Data.Cart.Total)
	require.Equal(t, "R$ 3.019,98", env.Data.Cart.TotalDisplay)

	code, env = f.do(t, "s1", http.MethodPatch, base+"/cart/items/301", `{"quantity":0}`)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, 2, env.Data.Cart.Items[0].Quantity)

	code, env = f.do(t, "s1", http.MethodPatch, base+"/cart/items/301", `{"quantity":5}`)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, 5, env.Data.Cart.Count)

	code, env = f.do(t, "s1", http.MethodDelete, base+"/cart/items/999", "")
	require.Equal(t, http.StatusOK, code)
	require.Len(t, env.Data.Cart.Items, 1)

	for _, path := range []string{base + "/cart/items/0", base + "/cart/items/-7"} {
		code, env = f.do(t, "s1", http.MethodDelete, path, "")
		require.Equal(t, http.StatusOK, code, path)
		require.Len(t, env.Data.Cart.Items, 1, path)

		code, env = f.do(t, "s1", http.MethodPatch, path, `{"quantity":3}`)
		require.Equal(t, http.StatusOK, code, path)
		require.Equal(t, 5, env.Data.Cart.Count, path)
	}

	code, env = f.do(t, "s1", http.MethodDelete, base+"/cart/items/301", "")
	require.Equal(t, http.StatusOK, code)
	require.Empty(t, env.Data.Cart.Items)

	code, env = f.do(t, "s2", http.MethodGet, base, "")
	require.Equal(t, http.StatusOK, code)
	require.Empty(t, env.Data.Cart.Items, "sessions are isolated")

	require.Equal(t, []string{
		events.TopicCartItemAdded,
		events.TopicCartItemAdded,
		events.TopicCartQuantityUpdated,
		events.TopicCartItemRemoved,
	}, f.publisher.topics)
}

func TestHandlerAddUnknownProduct(t *testing.T) {
	f := newHandlerFixture(t)
	code, env := f.do(t, "s1", http.MethodPost, "/api/v1/storefront/cart/items", `{"productId":9999}`)
	require.Equal(t, http.StatusNotFound, code)
	require.NotNil(t, env.Error)
	require.Equal(t, "NOT_FOUND", env.Error.Code)
}

func TestHandlerRejectsBadPayloads(t *testing.T) {
	f := newHandlerFixture(t)
	cases := []struct {
		method, path, body string
	}{
		{http.MethodPost, "/api/v1/storefront/cart/items", `{}`},
		{http.MethodPost, "/api/v1/storefront/cart/items", `{"productId":1,"extra":true}`},
		{http.MethodPatch, "/api/v1/storefront/cart/items/abc", `{"quantity":1}`},
		{http.MethodPatch, "/api/v1/storefront/cart/items/301", `{}`},
		{http.MethodPatch, "/api/v1/storefront/cart/items/301", `{"quantity":1000}`},
		{http.MethodPatch, "/api/v1/storefront/cart/items/301", `{"quantity":1125899906842624}`},
		{http.MethodPost, "/api/v1/storefront/carousel/scroll", `{"direction":"up"}`},
		{http.MethodPost, "/api/v1/storefront/hero/advance", `{}`},
		{http.MethodPost, "/api/v1/storefront/carousel/slide", `{"index":-1}`},
	}
	for _, tc := range cases {
		code, env := f.do(t, "s1", tc.method, tc.path, tc.body)
		require.Equal(t, http.StatusBadRequest, code, tc.path+" "+tc.body)
		require.Equal(t, "BAD_REQUEST", env.Error.Code)
	}
}

func TestHandlerRequiresSession(t *testing.T) {
	f := newHandlerFixture(t)
	code, env := f.do(t, "", http.MethodGet, "/api/v1/storefront", "")
	require.Equal(t, http.StatusUnauthorized, code)
	require.Equal(t, "UNAUTHORIZED", env.Error.Code)
}

func TestHandlerNavigation(t *testing.T) {
	f := newHandlerFixture(t)
	const base = "/api/v1/storefront"

	_, env := f.do(t, "s1", http.MethodPost, base+"/hero/advance", `{"direction":"left"}`)
	require.Equal(t, 4, env.Data.Hero.Index)

	_, env = f.do(t, "s1", http.MethodPut, base+"/carousel/geometry", `{"viewport":400,"content":1000}`)
	require.Equal(t, 600.0, env.Data.Carousel.Max)
	_, env = f.do(t, "s1", http.MethodPost, base+"/carousel/scroll", `{"direction":"left"}`)
	require.Equal(t, 600.0, env.Data.Carousel.Offset)
	_, env = f.do(t, "s1", http.MethodPost, base+"/carousel/scroll", `{"direction":"right"}`)
	require.Equal(t, 0.0, env.Data.Carousel.Offset)
	_, env = f.do(t, "s1", http.MethodPost, base+"/carousel/slide", `{"index":1}`)
	require.Equal(t, 400.0, env.Data.Carousel.Offset)
	require.Equal(t, 1, env.Data.Carousel.Slide)
	_, env = f.do(t, "s1", http.MethodPost, base+"/carousel/sync", `{"offset":5000}`)
	require.Equal(t, 600.0, env.Data.Carousel.Offset)

	_, env = f.do(t, "s1", http.MethodPost, base+"/departments/enter", "")
	require.Equal(t, MenuPendingOpen, env.Data.Departments)
	f.sched.fireAll()
	_, env = f.do(t, "s1", http.MethodGet, base, "")
	require.Equal(t, MenuOpen, env.Data.Departments)
	_, env = f.do(t, "s1", http.MethodPost, base+"/departments/leave", "")
	require.Equal(t, MenuClosed, env.Data.Departments)

	_, env = f.do(t, "s1", http.MethodPost, base+"/confirmation/open", "")
	require.True(t, env.Data.ConfirmationOpen)
	_, env = f.do(t, "s1", http.MethodPost, base+"/confirmation/go-to-cart", "")
	require.False(t, env.Data.ConfirmationOpen)
	require.True(t, env.Data.CartOpen)
	_, env = f.do(t, "s1", http.MethodPost, base+"/cart-panel/toggle", "")
	require.False(t, env.Data.CartOpen)
	_, env = f.do(t, "s1", http.MethodPost, base+"/cart-panel/open", "")
	require.True(t, env.Data.CartOpen)
	_, env = f.do(t, "s1", http.MethodPost, base+"/cart-panel/close", "")
	require.False(t, env.Data.CartOpen)
	_, env = f.do(t, "s1", http.MethodPost, base+"/confirmation/open", "")
	_, env = f.do(t, "s1", http.MethodPost, base+"/confirmation/continue", "")
	require.False(t, env.Data.ConfirmationOpen)
	_, env = f.do(t, "s1", http.MethodPost, base+"/confirmation/open", "")
	_, env = f.do(t, "s1", http.MethodPost, base+"/confirmation/close", "")
	require.False(t, env.Data.ConfirmationOpen)
}
