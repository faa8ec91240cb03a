package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

/*─────────────────────────────────────────────────────────────────────────────*
| Identity                                                                    |
*─────────────────────────────────────────────────────────────────────────────*/

// Identity is the authenticated caller injected into r.Context().
// UserID is the token subject and doubles as the users._id key.
type Identity struct {
	UserID string
	Email  string
	Name   string
}

type ctxKey string

const currentUserKey ctxKey = "currentUser"

// CurrentUser returns the identity and a "found?" flag.
func CurrentUser(r *http.Request) (*Identity, bool) {
	u, ok := r.Context().Value(currentUserKey).(*Identity)
	return u, ok && u != nil && u.UserID != ""
}

// UserID returns the caller's user id, or "" when anonymous.
func UserID(r *http.Request) string {
	if u, ok := CurrentUser(r); ok {
		return u.UserID
	}
	return ""
}

// WithTestUser injects id directly, bypassing token verification.
func WithTestUser(r *http.Request, id *Identity) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentUserKey, id))
}

/*─────────────────────────────────────────────────────────────────────────────*
| Token verification                                                          |
*─────────────────────────────────────────────────────────────────────────────*/

var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
)

type claims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
}

// Verifier issues and checks HS256 identity tokens.
type Verifier struct {
	secret   []byte
	issuer   string
	audience string
	ttl      time.Duration
	now      func() time.Time
	log      *zap.Logger
}

// NewVerifier requires a secret of at least 32 bytes.
func NewVerifier(secret, issuer, audience string, ttl time.Duration, logger *zap.Logger) (*Verifier, error) {
	if len(secret) < 32 {
		return nil, fmt.Errorf("jwt secret must be at least 32 bytes, got %d", len(secret))
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Verifier{
		secret:   []byte(secret),
		issuer:   issuer,
		audience: audience,
		ttl:      ttl,
		now:      time.Now,
		log:      logger,
	}, nil
}

// SetClock replaces the time source. Used by tests.
func (v *Verifier) SetClock(now func() time.Time) { v.now = now }

// Issue signs a token for id.
func (v *Verifier) Issue(id Identity) (string, error) {
	now := v.now().UTC()
	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.UserID,
			Issuer:    v.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(v.ttl)),
		},
		Email: id.Email,
		Name:  id.Name,
	}
	if v.audience != "" {
		c.Audience = jwt.ClaimStrings{v.audience}
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(v.secret)
}

// Verify parses raw and returns the identity it carries.
func (v *Verifier) Verify(raw string) (*Identity, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrMissingToken
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(v.now),
		jwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}

	var c claims
	_, err := jwt.ParseWithClaims(raw, &c, func(*jwt.Token) (any, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if strings.TrimSpace(c.Subject) == "" {
		return nil, fmt.Errorf("%w: empty subject", ErrInvalidToken)
	}
	return &Identity{UserID: c.Subject, Email: c.Email, Name: c.Name}, nil
}

/*─────────────────────────────────────────────────────────────────────────────*
| Middleware                                                                  |
*─────────────────────────────────────────────────────────────────────────────*/

// LoadIdentity injects the caller if a valid Bearer token is present.
// Requests without a token, or with a bad one, continue anonymously;
// RequireSignedIn decides whether that is acceptable.
func (v *Verifier) LoadIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := bearerToken(r)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}
		id, err := v.Verify(raw)
		if err != nil {
			v.log.Debug("rejected bearer token", zap.Error(err), zap.String("path", r.URL.Path))
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, WithTestUser(r, id))
	})
}

// RequireSignedIn answers 401 with a JSON error body when no identity is present.
func RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUser(r); ok {
			next.ServeHTTP(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Header().Set("WWW-Authenticate", `Bearer realm="circlehub"`)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"authentication required","code":"unauthenticated"}` + "\n"))
	})
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	if len(h) < 7 || !strings.EqualFold(h[:7], "bearer ") {
		return "", false
	}
	tok := strings.TrimSpace(h[7:])
	return tok, tok != ""
}
