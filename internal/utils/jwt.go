package utils // package utils provides helper functions for token creation and hashing

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/iliyamo/movie-catalog-api/internal/model"
)

// AccessToken represents a signed bearer token along with its expiry.
type AccessToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

// Claims is the payload of a bearer token.  ID duplicates the subject so
// clients that decode the token can read the user id under a plain name.
type Claims struct {
	ID           string `json:"id"`
	Username     string `json:"username,omitempty"`
	DisplayName  string `json:"displayName,omitempty"`
	EmailAddress string `json:"emailAddress,omitempty"`
	jwt.RegisteredClaims
}

// UserID returns the numeric user id carried by the claims.
func (c *Claims) UserID() (uint64, error) {
	id := c.ID
	if id == "" {
		id = c.Subject
	}
	if id == "" {
		return 0, errors.New("token carries no user id")
	}
	return strconv.ParseUint(id, 10, 64)
}

// NewAccessToken builds and signs an HS256 JWT for u that expires after ttl.
func NewAccessToken(secret string, u *model.User, ttl time.Duration) (AccessToken, error) {
	if secret == "" {
		return AccessToken{}, errors.New("signing secret is empty")
	}
	now := time.Now().UTC()
	exp := now.Add(ttl)
	id := strconv.FormatUint(u.ID, 10)
	claims := Claims{
		ID:           id,
		Username:     u.Username,
		DisplayName:  u.DisplayName,
		EmailAddress: u.EmailAddress,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}

// ParseAccessToken verifies raw against secret and returns its claims.  Only
// HS256 is accepted and the exp claim is mandatory.
func ParseAccessToken(secret, raw string) (*Claims, error) {
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	if !tok.Valid {
		return nil, jwt.ErrTokenSignatureInvalid
	}
	return claims, nil
}
