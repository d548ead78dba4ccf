package handlers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

const sessionCookieName = "audiofetch_session"

// SessionManager mints and verifies opaque per-browser session identifiers.
// The identifier scopes playlist and job ownership; it is not an
// authentication mechanism.
type SessionManager struct {
	secret []byte
}

// NewSessionManager creates a session manager with the given signing secret
func NewSessionManager(secret string) *SessionManager {
	return &SessionManager{secret: []byte(secret)}
}

// Mint returns a fresh signed session value of the form "<id>.<signature>"
func (sm *SessionManager) Mint() string {
	id := uuid.NewString()
	return id + "." + sm.sign(id)
}

// Verify checks the signature and returns the bare session identifier
func (sm *SessionManager) Verify(value string) (string, bool) {
	id, sig, found := strings.Cut(value, ".")
	if !found || id == "" {
		return "", false
	}
	if !hmac.Equal([]byte(sig), []byte(sm.sign(id))) {
		return "", false
	}
	return id, true
}

func (sm *SessionManager) sign(id string) string {
	mac := hmac.New(sha256.New, sm.secret)
	mac.Write([]byte(id))
	return hex.EncodeToString(mac.Sum(nil))
}

// Session returns the request's session identifier, minting a new cookie
// when the request carries none or an invalid one
func (sm *SessionManager) Session(w http.ResponseWriter, r *http.Request) string {
	if cookie, err := r.Cookie(sessionCookieName); err == nil {
		if id, ok := sm.Verify(cookie.Value); ok {
			return id
		}
	}

	value := sm.Mint()
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	id, _ := sm.Verify(value)
	return id
}
