// Package auth issues and verifies identity tokens, hashes passwords, and
// provides the two-stage authentication middleware.
//
// TOKEN FORMAT:
// Tokens are HS256 JWTs. The payload carries the user's id and username
// next to the registered claims:
//
//	{"userId":"cv37rs3pp9olc6atsptg","username":"alice","iss":"bookfinder","iat":...,"exp":...}
//
// Tokens are stateless. There is no revocation list; expiry is the only way
// a token stops working.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/sakif/bookfinder/internal/model"
)

const (
	// TokenTTL is how long an issued token stays valid.
	TokenTTL = time.Hour

	issuer = "bookfinder"
)

// Identity is the per-request knowledge of who is calling.
//
// It is a two-state value: the zero value is Absent, anything with a
// UserID is Present. Verification failures produce Absent, never an error,
// so callers cannot mistake a bad token for a fatal condition.
type Identity struct {
	UserID   string
	Username string
}

// Absent is the identity of an anonymous request.
var Absent = Identity{}

// Present reports whether the identity carries a user.
func (i Identity) Present() bool {
	return i.UserID != ""
}

// TokenService handles JWT creation and validation with a single HMAC secret.
type TokenService struct {
	secret []byte
	now    func() time.Time
}

// NewTokenService creates a TokenService with the given secret.
// There is no fallback secret: an empty or short secret is an error.
func NewTokenService(secret string) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	return &TokenService{secret: []byte(secret), now: time.Now}, nil
}

// claims is the JWT payload.
type claims struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Issue signs a token for the user, valid for TokenTTL.
func (s *TokenService) Issue(user *model.User) (string, error) {
	return s.IssueWithTTL(user, TokenTTL)
}

// IssueWithTTL signs a token with a custom lifetime. A negative ttl yields
// an already expired token, which tests use.
func (s *TokenService) IssueWithTTL(user *model.User, ttl time.Duration) (string, error) {
	if user == nil || user.ID == "" {
		return "", errors.New("auth: cannot issue a token without a user id")
	}

	now := s.now()
	c := claims{
		UserID:   user.ID,
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, nil
}

// Verify parses a token and returns the identity it carries.
//
// The jwt library checks the signature, the expiry and the issuer; only
// HS256 is accepted, so a token claiming "none" or an RSA algorithm is
// rejected. Any failure yields Absent.
func (s *TokenService) Verify(tokenStr string) Identity {
	id, err := s.parse(tokenStr)
	if err != nil {
		return Absent
	}
	return id
}

// parse does the actual verification; Verify discards its error.
func (s *TokenService) parse(tokenStr string) (Identity, error) {
	if tokenStr == "" {
		return Absent, errors.New("auth: empty token")
	}

	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return Absent, fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return Absent, errors.New("auth: invalid token claims")
	}
	if c.UserID == "" {
		return Absent, errors.New("auth: token has no user id")
	}

	return Identity{UserID: c.UserID, Username: c.Username}, nil
}
