package catalog

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/toko-storefront/internal/pricing"
)

func TestDefaultCatalogLoads(t *testing.T) {
	cat, err := Default()
	require.NoError(t, err)

	require.Len(t, cat.Departments(), 8)
	require.Equal(t, 5, cat.HeroCount())
	require.Len(t, cat.PromoBanners(), 2)
	require.Equal(t, 6, cat.SectionLen(SectionBestSellers))
	require.Equal(t, 5, cat.SectionLen(SectionHighlights))

	p, err := cat.Product(301)
	require.NoError(t, err)
	require.Equal(t, pricing.Money(150999), p.Price)
	require.NotNil(t, p.OriginalPrice)
	require.Equal(t, pricing.Money(189999), *p.OriginalPrice)

	_, err = cat.Product(1)
	require.ErrorIs(t, err, ErrNotFound)

	seen := map[int]bool{}
	for _, p := range cat.Products() {
		require.False(t, seen[p.ID], "duplicate id %d", p.ID)
		seen[p.ID] = true
	}
}

const minimalYAML = `
departments:
  - name: Hardware
    subcategories: [SSD]
heroBanners:
  - {image: /a.png, alt: a, badge: b, title: T, discount: 10%, buttonText: Comprar}
promoBanners: []
sections:
  best_sellers:
    - {id: 1, name: A, image: /a.png, price: "1.509,99"}
    - {id: 2, name: B, image: /b.png, price: "9,90", originalPrice: "12,00"}
`

func TestLoadYAMLBuildsCatalog(t *testing.T) {
	cat, err := LoadYAML(strings.NewReader(minimalYAML))
	require.NoError(t, err)
	items, err := cat.Section(SectionBestSellers)
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.Equal(t, pricing.Money(150999), items[0].Price)
	require.Equal(t, pricing.Money(990), items[1].Price)

	_, err = cat.Section(SectionProducts)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestLoadYAMLRejectsInvalidRecords(t *testing.T) {
	cases := map[string]string{
		"bad price":       strings.Replace(minimalYAML, `"9,90"`, `"nove"`, 1),
		"three decimals":  strings.Replace(minimalYAML, `"9,90"`, `"9,999"`, 1),
		"negative":        strings.Replace(minimalYAML, `"9,90"`, `"-9,90"`, 1),
		"duplicate id":    strings.Replace(minimalYAML, "{id: 2,", "{id: 1,", 1),
		"unknown section": strings.Replace(minimalYAML, "best_sellers:", "clearance:", 1),
		"missing name":    strings.Replace(minimalYAML, "name: B,", "name: '',", 1),
		"no hero":         strings.Replace(minimalYAML, "  - {image: /a.png, alt: a, badge: b, title: T, discount: 10%, buttonText: Comprar}\n", "  []\n", 1),
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadYAML(strings.NewReader(doc))
			require.Error(t, err)
		})
	}
}

func TestLoadYAMLRejectsUnknownFields(t *testing.T) {
	doc := strings.Replace(minimalYAML, `price: "1.509,99"`, `price: "1.509,99", stock: 3`, 1)
	_, err := LoadYAML(strings.NewReader(doc))
	require.Error(t, err)
}

func TestPgxMigrateURL(t *testing.T) {
	require.Equal(t, "pgx5://u:p@db/toko", pgxMigrateURL("postgres://u:p@db/toko"))
	require.Equal(t, "pgx5://u:p@db/toko", pgxMigrateURL("postgresql://u:p@db/toko"))
	require.Equal(t, "pgx5://db/toko", pgxMigrateURL("pgx5://db/toko"))
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	cat, err := Default()
	require.NoError(t, err)
	svc, err := NewService(ServiceConfig{Catalog: cat})
	require.NoError(t, err)
	h := NewHandler(HandlerConfig{Service: svc})

	r := chi.NewRouter()
	r.Get("/api/v1/catalog", h.Overview)
	r.Get("/api/v1/catalog/sections/{section}", h.Section)
	r.Get("/api/v1/products/{id}", h.ProductDetail)
	return r
}

func TestCatalogHandlers(t *testing.T) {
	router := newTestRouter(t)

	t.Run("overview", func(t *testing.T) {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/catalog", nil))
		require.Equal(t, http.StatusOK, rr.Code)
		var resp struct {
			Data Overview `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		require.Len(t, resp.Data.HeroBanners, 5)
		require.Len(t, resp.Data.Sections[SectionNewProducts], 3)
	})

	t.Run("section", func(t *testing.T) {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/catalog/sections/best_sellers", nil))
		require.Equal(t, http.StatusOK, rr.Code)
		var resp struct {
			Data []ProductDTO `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		require.Len(t, resp.Data, 6)
		require.Equal(t, "159,99", resp.Data[0].PriceDisplay)
		require.Equal(t, CardInstallments, resp.Data[0].Installments)
	})

	t.Run("product detail", func(t *testing.T) {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/products/301", nil))
		require.Equal(t, http.StatusOK, rr.Code)
		var resp struct {
			Data ProductDTO `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		require.Equal(t, "1.509,99", resp.Data.PriceDisplay)
		require.Equal(t, "1.899,99", resp.Data.OriginalPriceDisplay)
		require.Equal(t, "125,83", resp.Data.InstallmentDisplay)
	})

	errorCases := []struct {
		path   string
		status int
		code   string
	}{
		{"/api/v1/catalog/sections/clearance", http.StatusNotFound, "NOT_FOUND"},
		{"/api/v1/products/9999", http.StatusNotFound, "NOT_FOUND"},
		{"/api/v1/products/abc", http.StatusBadRequest, "BAD_REQUEST"},
		{"/api/v1/products/0", http.StatusBadRequest, "BAD_REQUEST"},
	}
	for _, tc := range errorCases {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, tc.path, nil))
		require.Equal(t, tc.status, rr.Code, tc.path)
		var resp struct {
			Error struct {
				Code string `json:"code"`
			} `json:"error"`
		}
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		require.Equal(t, tc.code, resp.Error.Code)
	}
}
