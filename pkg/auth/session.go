package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"venturelink/domain/core/valueobjects"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// CookieName is the cookie that carries the session token
const CookieName = "session"

var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrInvalidSignature = errors.New("invalid token signature")
	ErrMissingToken     = errors.New("missing authentication token")
	ErrInvalidClaims    = errors.New("invalid token claims")
)

// SessionConfig holds session token configuration
type SessionConfig struct {
	Secret       string
	Issuer       string
	TTL          time.Duration
	SecureCookie bool
}

// Claims are the claims carried by a session token. The subject is the user ID.
type Claims struct {
	jwt.RegisteredClaims
}

// SessionManager issues and validates HS256 session tokens
type SessionManager struct {
	secret       []byte
	issuer       string
	ttl          time.Duration
	secureCookie bool
	now          func() time.Time
}

// NewSessionManager creates a session manager. An empty secret is rejected.
func NewSessionManager(config SessionConfig) (*SessionManager, error) {
	if config.Secret == "" {
		return nil, errors.New("session secret is required")
	}
	if config.TTL <= 0 {
		config.TTL = 24 * time.Hour
	}
	return &SessionManager{
		secret:       []byte(config.Secret),
		issuer:       config.Issuer,
		ttl:          config.TTL,
		secureCookie: config.SecureCookie,
		now:          time.Now,
	}, nil
}

// TTL returns how long issued tokens stay valid
func (m *SessionManager) TTL() time.Duration {
	return m.ttl
}

// Issue signs a new token for userID
func (m *SessionManager) Issue(userID valueobjects.UserID) (string, error) {
	now := m.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, nil
}

// Validate checks a token and returns the user it was issued for
func (m *SessionManager) Validate(tokenString string) (valueobjects.UserID, error) {
	tokenString = strings.TrimSpace(strings.TrimPrefix(tokenString, "Bearer "))
	if tokenString == "" {
		return 0, ErrMissingToken
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
	}
	if m.issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return 0, ErrExpiredToken
		}
		if errors.Is(err, jwt.ErrTokenSignatureInvalid) || errors.Is(err, jwt.ErrSignatureInvalid) {
			return 0, ErrInvalidSignature
		}
		return 0, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return 0, ErrInvalidClaims
	}

	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid subject", ErrInvalidClaims)
	}
	return valueobjects.UserID(id), nil
}

// TokenFromRequest extracts a session token from the Authorization header or
// the session cookie, in that order.
func TokenFromRequest(r *http.Request) string {
	return TokenFromHeader(r.Header)
}

// TokenFromHeader is TokenFromRequest for transports that only hand over headers
func TokenFromHeader(header http.Header) string {
	if value := header.Get("Authorization"); value != "" {
		parts := strings.SplitN(value, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	if cookie, err := (&http.Request{Header: header}).Cookie(CookieName); err == nil {
		return cookie.Value
	}
	return ""
}

// Authenticate resolves the user behind the request's session, if any
func (m *SessionManager) Authenticate(r *http.Request) (valueobjects.UserID, error) {
	return m.Validate(TokenFromRequest(r))
}

// SetCookie writes the session cookie for token
func (m *SessionManager) SetCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: true,
		Secure:   m.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearCookie expires the session cookie
func (m *SessionManager) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}
