package security

import (
	"crypto/tls"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func status(code int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(code)
	})
}

func TestBodyLimitAllowsWithinLimit(t *testing.T) {
	var captured string
	handler := BodyLimit{Max: 32}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		captured = string(data)
		w.WriteHeader(http.StatusOK)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/v1/storefront/cart/items", strings.NewReader(`{"productId":101}`)))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, `{"productId":101}`, captured)
}

func TestBodyLimitRejectsOversized(t *testing.T) {
	handler := BodyLimit{Max: 5}.Middleware(status(http.StatusOK))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("excessive")))
	require.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
	require.Contains(t, rr.Body.String(), "PAYLOAD_TOO_LARGE")

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("abc"))
	req.ContentLength = 100
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
}

func TestCSRFMiddleware(t *testing.T) {
	handler := CSRF{}.Middleware(status(http.StatusOK))

	cases := []struct {
		name   string
		method string
		header string
		cookie string
		want   int
	}{
		{"safe method", http.MethodGet, "", "", http.StatusOK},
		{"missing header", http.MethodPost, "", "tok", http.StatusForbidden},
		{"missing cookie", http.MethodPost, "tok", "", http.StatusForbidden},
		{"mismatch", http.MethodPatch, "tok", "other", http.StatusForbidden},
		{"match", http.MethodDelete, "tok", "tok", http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, "/api/v1/storefront/cart/items/1", nil)
			if tc.header != "" {
				req.Header.Set(DefaultCSRFHeader, tc.header)
			}
			if tc.cookie != "" {
				req.AddCookie(&http.Cookie{Name: DefaultCSRFCookie, Value: tc.cookie})
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)
			require.Equal(t, tc.want, rr.Code)
		})
	}
}

func TestHeadersMiddleware(t *testing.T) {
	handler := Headers{EnableHSTS: true, NoStore: true}.Middleware(status(http.StatusOK))

	req := httptest.NewRequest(http.MethodGet, "https://shop.example/api/v1/storefront", nil)
	req.TLS = &tls.ConnectionState{}
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	h := rr.Result().Header
	require.Equal(t, "nosniff", h.Get("X-Content-Type-Options"))
	require.Equal(t, "no-store", h.Get("Cache-Control"))
	require.Equal(t, "max-age=31536000; includeSubDomains", h.Get("Strict-Transport-Security"))

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "http://shop.example/", nil))
	require.Empty(t, rr.Result().Header.Get("Strict-Transport-Security"))
}
