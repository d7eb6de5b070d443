package auth

import (
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dukerupert/casa/internal/errs"
)

// Claims is the payload of an access token. The subject is the user id.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies HS256 access tokens.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenIssuer(secret []byte, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: secret, ttl: ttl, now: time.Now}
}

func (t *TokenIssuer) Issue(userID, email string) (string, error) {
	now := t.now()
	claims := Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", errs.Wrap(err, errs.EInternal, "auth.Issue")
	}
	return signed, nil
}

// Parse verifies the signature and expiry of a token.
func (t *TokenIssuer) Parse(token string) (AuthContext, error) {
	if token == "" {
		return AuthContext{}, errs.New(errs.EUnauthorized, "authentication token is required")
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	claims := &Claims{}
	if _, err := parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return t.secret, nil
	}); err != nil {
		return AuthContext{}, errs.New(errs.EUnauthorized, "invalid or expired token")
	}
	if claims.Subject == "" {
		return AuthContext{}, errs.New(errs.EUnauthorized, "invalid or expired token")
	}
	return AuthContext{UserID: claims.Subject, Email: claims.Email}, nil
}

// BearerToken extracts the token from an "Authorization: Bearer <token>"
// header. Websocket upgrades may pass it as the token query parameter
// instead, since browsers cannot set headers on them.
func BearerToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		scheme, token, ok := strings.Cut(header, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}
	if strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
		return r.URL.Query().Get("token")
	}
	return ""
}
