package legacystore

import (
	"context"
	"crypto/sha256"
	"fmt"
	"net/http"

	"github.com/gorilla/sessions"
)

// SessionName is the name of the cookie carrying legacy editor snapshots.
const SessionName = "sqldeck-legacy-state"

// CookieBackend adapts legacy snapshots that still live client-side, carried
// in a signed session cookie. Unlike the Redis store it is request-scoped:
// call ForRequest to obtain a Store bound to one request/response pair.
type CookieBackend struct {
	store *sessions.CookieStore
}

// NewCookieBackend creates a cookie backend. The secret signs the session
// cookie; it is SHA-256 hashed to derive a stable 32-byte key and must be
// consistent across server restarts.
func NewCookieBackend(secret string) *CookieBackend {
	key := sha256.Sum256([]byte(secret))

	store := sessions.NewCookieStore(key[:])
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 30,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	return &CookieBackend{store: store}
}

// ForRequest returns a Store reading from and writing to the given
// request/response pair.
func (b *CookieBackend) ForRequest(r *http.Request, w http.ResponseWriter) Store {
	return &cookieStore{backend: b, r: r, w: w}
}

type cookieStore struct {
	backend *CookieBackend
	r       *http.Request
	w       http.ResponseWriter
}

func (s *cookieStore) Get(_ context.Context, key string) (string, bool, error) {
	// Get never fails hard: an undecodable cookie yields a fresh session,
	// which reads as "no legacy state".
	session, _ := s.backend.store.Get(s.r, SessionName)

	blob, ok := session.Values[key].(string)
	return blob, ok, nil
}

func (s *cookieStore) Remove(_ context.Context, key string) error {
	session, _ := s.backend.store.Get(s.r, SessionName)

	if _, ok := session.Values[key]; !ok {
		return nil
	}
	delete(session.Values, key)
	if err := session.Save(s.r, s.w); err != nil {
		return fmt.Errorf("failed to save legacy-state cookie: %w", err)
	}
	return nil
}

var _ Store = (*cookieStore)(nil)
