// Package activecircle remembers which circle a caller is working in.
//
// The selection lives in a signed cookie session. API clients that do not
// keep cookies may send the circle id in the X-Active-Circle header instead,
// which takes precedence.
package activecircle

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/sessions"
	"go.uber.org/zap"
)

const (
	// HeaderName overrides the cookie selection when present.
	HeaderName = "X-Active-Circle"

	// DefaultSessionName is the cookie name used when none is configured.
	DefaultSessionName = "circlehub-active"

	circleKey = "circle_id"
)

// Store reads and writes the active circle selection.
type Store struct {
	cookies *sessions.CookieStore
	name    string
	log     *zap.Logger
}

// NewStore builds a cookie-backed store. In production (secure=true) cookies
// are Secure with SameSite=None; locally over http they use Lax.
func NewStore(sessionKey, name, domain string, secure bool, logger *zap.Logger) (*Store, error) {
	if sessionKey == "" {
		return nil, fmt.Errorf("session key is empty; provide ≥32 random chars")
	}
	if len(sessionKey) < 32 {
		logger.Warn("session key is short; 32+ chars recommended",
			zap.Int("length", len(sessionKey)))
	}

	cs := sessions.NewCookieStore([]byte(sessionKey))
	cs.Options = &sessions.Options{
		Domain:   domain,
		Path:     "/",
		MaxAge:   86400 * 30,
		Secure:   secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	if secure {
		cs.Options.SameSite = http.SameSiteNoneMode
	}
	if name == "" {
		name = DefaultSessionName
	}
	return &Store{cookies: cs, name: name, log: logger}, nil
}

// Get returns the selected circle id, or "" when none is selected.
func (s *Store) Get(r *http.Request) string {
	if v := strings.TrimSpace(r.Header.Get(HeaderName)); v != "" {
		return v
	}
	sess, err := s.cookies.Get(r, s.name)
	if err != nil {
		// A cookie signed with a rotated key decodes as an error; treat as unset.
		s.log.Debug("active circle cookie unreadable", zap.Error(err))
		return ""
	}
	v, _ := sess.Values[circleKey].(string)
	return v
}

// Set records circleID as the caller's selection.
func (s *Store) Set(w http.ResponseWriter, r *http.Request, circleID string) error {
	sess, _ := s.cookies.Get(r, s.name)
	sess.Values[circleKey] = circleID
	return sess.Save(r, w)
}

// Clear drops the selection.
func (s *Store) Clear(w http.ResponseWriter, r *http.Request) error {
	sess, _ := s.cookies.Get(r, s.name)
	delete(sess.Values, circleKey)
	sess.Options.MaxAge = -1
	return sess.Save(r, w)
}
