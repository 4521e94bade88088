package auth

import (
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenManager issues and verifies the bearer tokens used by the API.
// The subject claim carries the user id as a string-encoded integer.
type TokenManager struct {
	secret []byte
	method jwt.SigningMethod
	ttl    time.Duration
}

// NewTokenManager builds a TokenManager for the configured HMAC
// algorithm. Supported: HS256 (default), HS384, HS512.
func NewTokenManager(secret, algorithm string, ttl time.Duration) (*TokenManager, error) {
	var method jwt.SigningMethod
	switch algorithm {
	case "", "HS256":
		method = jwt.SigningMethodHS256
	case "HS384":
		method = jwt.SigningMethodHS384
	case "HS512":
		method = jwt.SigningMethodHS512
	default:
		return nil, fmt.Errorf("unsupported signing algorithm %q", algorithm)
	}
	return &TokenManager{
		secret: []byte(secret),
		method: method,
		ttl:    ttl,
	}, nil
}

// Issue signs a token for the given user id with the configured expiry
// horizon.
func (tm *TokenManager) Issue(userID uint) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatUint(uint64(userID), 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(tm.ttl)),
	}
	token := jwt.NewWithClaims(tm.method, claims)
	return token.SignedString(tm.secret)
}

// ParseSubject verifies a token's signature and expiry and returns the
// user id from its subject claim. Any failure — malformed token, bad
// signature, expiry, missing or non-numeric subject — is reported the
// same way, as a single parse error.
func (tm *TokenManager) ParseSubject(tokenString string) (uint, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (interface{}, error) {
		return tm.secret, nil
	}, jwt.WithValidMethods([]string{tm.method.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return 0, err
	}
	if claims.Subject == "" {
		return 0, fmt.Errorf("token has no subject claim")
	}
	userID, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("token subject is not a user id: %w", err)
	}
	return uint(userID), nil
}
