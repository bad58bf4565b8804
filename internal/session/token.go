package session

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

// DefaultIssuer is stamped on every session token.
const DefaultIssuer = "toko-storefront"

// ErrInvalidToken is returned for tokens that fail signature or claim checks.
var ErrInvalidToken = errors.New("session: invalid token")

// Claims are the parts of a session token the server relies on.
type Claims struct {
	SessionID string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Codec signs and verifies session tokens with HMAC-SHA256.
type Codec struct {
	secret    []byte
	issuer    string
	ttl       time.Duration
	clockSkew time.Duration
	algorithm jwa.SignatureAlgorithm
}

// NewCodec constructs a codec. The secret must not be empty.
func NewCodec(secret string, ttl time.Duration) (*Codec, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("session: secret is required")
	}
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &Codec{
		secret:    []byte(secret),
		issuer:    DefaultIssuer,
		ttl:       ttl,
		clockSkew: 30 * time.Second,
		algorithm: jwa.HS256,
	}, nil
}

// TTL returns the lifetime of issued tokens.
func (c *Codec) TTL() time.Duration { return c.ttl }

// Issue signs a token for sessionID.
func (c *Codec) Issue(sessionID string, now time.Time) (string, error) {
	tok, err := jwt.NewBuilder().
		Issuer(c.issuer).
		Subject(sessionID).
		IssuedAt(now).
		Expiration(now.Add(c.ttl)).
		Build()
	if err != nil {
		return "", fmt.Errorf("session: build token: %w", err)
	}
	signed, err := jwt.Sign(tok, jwt.WithKey(c.algorithm, c.secret))
	if err != nil {
		return "", fmt.Errorf("session: sign token: %w", err)
	}
	return string(signed), nil
}

// Parse verifies raw and returns its claims.
func (c *Codec) Parse(raw string, now time.Time) (Claims, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Claims{}, fmt.Errorf("%w: empty", ErrInvalidToken)
	}
	alg, err := tokenAlgorithm(raw)
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if alg != c.algorithm {
		return Claims{}, fmt.Errorf("%w: unexpected algorithm %s", ErrInvalidToken, alg)
	}
	tok, err := jwt.ParseString(raw, jwt.WithKey(c.algorithm, c.secret), jwt.WithValidate(false))
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if err := jwt.Validate(tok,
		jwt.WithClock(jwt.ClockFunc(func() time.Time { return now })),
		jwt.WithAcceptableSkew(c.clockSkew),
		jwt.WithIssuer(c.issuer),
	); err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if tok.Subject() == "" {
		return Claims{}, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return Claims{SessionID: tok.Subject(), IssuedAt: tok.IssuedAt(), ExpiresAt: tok.Expiration()}, nil
}

func tokenAlgorithm(raw string) (jwa.SignatureAlgorithm, error) {
	msg, err := jws.ParseString(raw)
	if err != nil {
		return "", err
	}
	sigs := msg.Signatures()
	if len(sigs) != 1 {
		return "", fmt.Errorf("expected one signature, got %d", len(sigs))
	}
	headers := sigs[0].ProtectedHeaders()
	if headers == nil {
		return "", errors.New("missing protected headers")
	}
	alg := headers.Algorithm()
	if alg == "" || alg == jwa.NoSignature {
		return "", errors.New("missing or none algorithm")
	}
	return alg, nil
}
