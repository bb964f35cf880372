package utils

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	TokenKindAccess  = "access"
	TokenKindRefresh = "refresh"
)

var (
	ErrTokenExpired   = errors.New("token has expired")
	ErrTokenMalformed = errors.New("invalid token")
	ErrSubjectMissing = errors.New("token has no subject")
)

// TokenClaims carries the subject identity plus the token kind. Access and
// refresh tokens are never interchangeable: Verify rejects a token presented
// outside its declared kind.
type TokenClaims struct {
	Kind string `json:"kind"`
	jwt.RegisteredClaims
}

// TokenService mints and verifies signed, time-bounded identity tokens.
// Tokens are stateless: nothing is stored server-side, so revocation happens
// only through expiry or the client discarding its cookies. A leaked access
// token stays usable for at most the access TTL.
type TokenService struct {
	secretKey  string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewTokenService creates a new TokenService
func NewTokenService(secretKey string, accessTTL, refreshTTL time.Duration) *TokenService {
	return &TokenService{secretKey: secretKey, accessTTL: accessTTL, refreshTTL: refreshTTL}
}

// IssueAccessToken mints a short-lived access token for the user.
func (ts *TokenService) IssueAccessToken(userID int) (string, error) {
	return ts.issue(userID, TokenKindAccess, ts.accessTTL)
}

// IssueRefreshToken mints a long-lived refresh token for the user.
func (ts *TokenService) IssueRefreshToken(userID int) (string, error) {
	return ts.issue(userID, TokenKindRefresh, ts.refreshTTL)
}

func (ts *TokenService) issue(userID int, kind string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &TokenClaims{
		Kind: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.Itoa(userID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(ts.secretKey))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}

// Verify validates signature, expiry, kind and subject, returning the
// subject user ID.
func (ts *TokenService) Verify(tokenString, kind string) (int, error) {
	token, err := jwt.ParseWithClaims(tokenString, &TokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(ts.secretKey), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return 0, ErrTokenExpired
		}
		return 0, fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	}

	claims, ok := token.Claims.(*TokenClaims)
	if !ok || !token.Valid {
		return 0, ErrTokenMalformed
	}
	if claims.Kind != kind {
		return 0, fmt.Errorf("%w: unexpected token kind %q", ErrTokenMalformed, claims.Kind)
	}
	if claims.Subject == "" {
		return 0, ErrSubjectMissing
	}
	userID, err := strconv.Atoi(claims.Subject)
	if err != nil {
		return 0, fmt.Errorf("%w: non-numeric subject", ErrSubjectMissing)
	}
	return userID, nil
}
