package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"venturelink/domain/core/valueobjects"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T, secret string) *SessionManager {
	t.Helper()
	m, err := NewSessionManager(SessionConfig{Secret: secret, Issuer: "venturelink", TTL: time.Hour})
	require.NoError(t, err)
	return m
}

func TestNewSessionManager_RequiresSecret(t *testing.T) {
	_, err := NewSessionManager(SessionConfig{})
	assert.Error(t, err)
}

func TestSessionManager_IssueAndValidate(t *testing.T) {
	// Arrange
	m := newTestManager(t, "secret")

	// Act
	token, err := m.Issue(valueobjects.UserID(42))
	require.NoError(t, err)
	userID, err := m.Validate(token)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, valueobjects.UserID(42), userID)

	userID, err = m.Validate("Bearer " + token)
	require.NoError(t, err)
	assert.Equal(t, valueobjects.UserID(42), userID)
}

func TestSessionManager_ValidateFailures(t *testing.T) {
	m := newTestManager(t, "secret")
	other := newTestManager(t, "another-secret")
	foreign, err := other.Issue(1)
	require.NoError(t, err)

	expiring := newTestManager(t, "secret")
	expiring.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, err := expiring.Issue(1)
	require.NoError(t, err)

	tests := []struct {
		name    string
		token   string
		wantErr error
	}{
		{name: "missing", token: "", wantErr: ErrMissingToken},
		{name: "garbage", token: "not-a-jwt", wantErr: ErrInvalidToken},
		{name: "wrong secret", token: foreign, wantErr: ErrInvalidSignature},
		{name: "expired", token: expired, wantErr: ErrExpiredToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.Validate(tt.token)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestTokenFromRequest(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, TokenFromRequest(r))

	r.AddCookie(&http.Cookie{Name: CookieName, Value: "from-cookie"})
	assert.Equal(t, "from-cookie", TokenFromRequest(r))

	r.Header.Set("Authorization", "Bearer from-header")
	assert.Equal(t, "from-header", TokenFromRequest(r))
}

func TestSessionManager_Cookies(t *testing.T) {
	m := newTestManager(t, "secret")

	rec := httptest.NewRecorder()
	m.SetCookie(rec, "tok")
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, CookieName, cookies[0].Name)
	assert.Equal(t, "tok", cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
	assert.Equal(t, 3600, cookies[0].MaxAge)

	rec = httptest.NewRecorder()
	m.ClearCookie(rec)
	cookies = rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, -1, cookies[0].MaxAge)
}
