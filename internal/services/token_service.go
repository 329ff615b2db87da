package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/dgrijalva/jwt-go"
)

// Token verification failures. Callers that need to react differently to an
// expired token versus a forged one can compare against these.
var (
	// ErrTokenMalformed indicates the token is not a well-formed JWT.
	ErrTokenMalformed = errors.New("authentication token is malformed")

	// ErrTokenExpired indicates the token was valid once but has expired.
	ErrTokenExpired = errors.New("authentication token has expired")

	// ErrTokenSignature indicates the signature does not verify.
	ErrTokenSignature = errors.New("authentication token signature is invalid")
)

// Claims is the identity payload embedded in a session token.
type Claims struct {
	UserID string
	Role   string
}

// TokenService issues and verifies signed bearer tokens. Tokens expire after
// a fixed day; there is no revocation list, logout is a client-side discard.
type TokenService struct {
	secret     []byte
	tokenDurat time.Duration
}

// NewTokenService creates a new TokenService signing with the given secret.
func NewTokenService(secret string) *TokenService {
	return &TokenService{
		secret:     []byte(secret),
		tokenDurat: 24 * time.Hour,
	}
}

// Issue embeds the claims and a 1-day expiry into a signed token.
func (s *TokenService) Issue(claims Claims) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":   claims.UserID,
		"role": claims.Role,
		"exp":  now.Add(s.tokenDurat).Unix(),
		"iat":  now.Unix(),
	})

	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}

// Verify parses and validates a token, returning its claims. Failures are
// distinguishable as malformed, expired or bad-signature.
func (s *TokenService) Verify(tokenString string) (*Claims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		var ve *jwt.ValidationError
		if errors.As(err, &ve) {
			switch {
			case ve.Errors&jwt.ValidationErrorMalformed != 0:
				return nil, ErrTokenMalformed
			case ve.Errors&(jwt.ValidationErrorExpired|jwt.ValidationErrorNotValidYet) != 0:
				return nil, ErrTokenExpired
			}
		}
		return nil, ErrTokenSignature
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, ErrTokenSignature
	}

	userID, _ := mapClaims["id"].(string)
	role, _ := mapClaims["role"].(string)
	if userID == "" {
		return nil, ErrTokenMalformed
	}
	return &Claims{UserID: userID, Role: role}, nil
}
