package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSessionManager_MintAndVerify(t *testing.T) {
	sm := NewSessionManager("test-secret")

	value := sm.Mint()
	id, ok := sm.Verify(value)
	require.True(t, ok)
	require.NotEmpty(t, id)

	// Distinct mints produce distinct identifiers
	other := sm.Mint()
	otherID, ok := sm.Verify(other)
	require.True(t, ok)
	require.NotEqual(t, id, otherID)
}

func TestSessionManager_VerifyRejectsTampering(t *testing.T) {
	sm := NewSessionManager("test-secret")
	value := sm.Mint()

	tests := []struct {
		name  string
		value string
	}{
		{"empty value", ""},
		{"no separator", "justanid"},
		{"empty id", "." + value},
		{"flipped signature", value[:len(value)-1] + "x"},
		{"foreign secret", NewSessionManager("other-secret").Mint()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := sm.Verify(tt.value)
			require.False(t, ok)
		})
	}
}

func TestSessionManager_SessionMintsCookie(t *testing.T) {
	sm := NewSessionManager("test-secret")

	rec := httptest.NewRecorder()
	id := sm.Session(rec, httptest.NewRequest("GET", "/", nil))
	require.NotEmpty(t, id)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	require.Equal(t, sessionCookieName, cookies[0].Name)
	require.True(t, cookies[0].HttpOnly)
	require.Equal(t, http.SameSiteLaxMode, cookies[0].SameSite)
}

func TestSessionManager_SessionReusesValidCookie(t *testing.T) {
	sm := NewSessionManager("test-secret")

	first := httptest.NewRecorder()
	id := sm.Session(first, httptest.NewRequest("GET", "/", nil))

	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(first.Result().Cookies()[0])

	second := httptest.NewRecorder()
	require.Equal(t, id, sm.Session(second, req))
	require.Empty(t, second.Result().Cookies(), "no replacement cookie is set")
}

func TestSessionManager_SessionReplacesInvalidCookie(t *testing.T) {
	sm := NewSessionManager("test-secret")

	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: "bogus.signature"})

	rec := httptest.NewRecorder()
	id := sm.Session(rec, req)
	require.NotEmpty(t, id)
	require.Len(t, rec.Result().Cookies(), 1)
}
