package session

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/noah-isme/toko-storefront/internal/common"
	"github.com/noah-isme/toko-storefront/internal/obs"
)

// DefaultCookieName is the session cookie name.
const DefaultCookieName = "toko_session"

// Middleware resolves the session from its signed cookie, issuing a new
// session when the cookie is missing, expired or forged. Tokens past half
// their lifetime are re-issued so active shoppers keep their session.
type Middleware struct {
	Codec      *Codec
	CookieName string
	// CSRFCookie, when set, names a script-readable cookie holding the
	// double-submit token. It is issued alongside a new session.
	CSRFCookie string
	Secure     bool
	SameSite   http.SameSite
	Logger     zerolog.Logger
	Now        func() time.Time
}

// Handler wraps next with session resolution.
func (m Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.Codec == nil {
			common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "session codec not configured", nil)
			return
		}
		now := m.now()
		id, reissue := m.resolve(r, now)
		if reissue {
			if err := m.setSessionCookie(w, id, now); err != nil {
				m.Logger.Error().Err(err).Msg("issue session cookie")
				common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "session unavailable", nil)
				return
			}
		}
		if m.CSRFCookie != "" {
			if c, err := r.Cookie(m.CSRFCookie); err != nil || c.Value == "" {
				m.setCSRFCookie(w)
			}
		}
		obs.Annotate(r.Context(), "session_id", id)
		next.ServeHTTP(w, r.WithContext(WithID(r.Context(), id)))
	})
}

func (m Middleware) resolve(r *http.Request, now time.Time) (id string, reissue bool) {
	cookie, err := r.Cookie(m.cookieName())
	if err == nil {
		claims, perr := m.Codec.Parse(cookie.Value, now)
		if perr == nil {
			half := claims.IssuedAt.Add(m.Codec.TTL() / 2)
			return claims.SessionID, now.After(half)
		}
		m.Logger.Debug().Err(perr).Msg("discarding session cookie")
	}
	return uuid.NewString(), true
}

func (m Middleware) setSessionCookie(w http.ResponseWriter, id string, now time.Time) error {
	token, err := m.Codec.Issue(id, now)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName(),
		Value:    token,
		Path:     "/",
		Expires:  now.Add(m.Codec.TTL()),
		MaxAge:   int(m.Codec.TTL() / time.Second),
		HttpOnly: true,
		Secure:   m.Secure,
		SameSite: m.sameSite(),
	})
	return nil
}

func (m Middleware) setCSRFCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.CSRFCookie,
		Value:    uuid.NewString(),
		Path:     "/",
		MaxAge:   int(m.Codec.TTL() / time.Second),
		HttpOnly: false,
		Secure:   m.Secure,
		SameSite: m.sameSite(),
	})
}

func (m Middleware) cookieName() string {
	if m.CookieName == "" {
		return DefaultCookieName
	}
	return m.CookieName
}

func (m Middleware) sameSite() http.SameSite {
	if m.SameSite == 0 {
		return http.SameSiteLaxMode
	}
	return m.SameSite
}

func (m Middleware) now() time.Time {
	if m.Now != nil {
		return m.Now()
	}
	return time.Now()
}
