package utils

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/movie-catalog-api/internal/model"
)

const testSecret = "test-secret-at-least-16-chars!!"

var neo = &model.User{ID: 42, Username: "neo", DisplayName: "Thomas Anderson", EmailAddress: "neo@zion.io"}

// flipSignatureByte changes one character in the middle of the signature
// segment so the decoded signature bytes always differ.
func flipSignatureByte(tok string) string {
	parts := strings.Split(tok, ".")
	sig := []byte(parts[2])
	i := len(sig) / 2
	if sig[i] == 'A' {
		sig[i] = 'B'
	} else {
		sig[i] = 'A'
	}
	parts[2] = string(sig)
	return strings.Join(parts, ".")
}

func TestAccessToken_RoundTrip(t *testing.T) {
	at, err := NewAccessToken(testSecret, neo, time.Hour)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), at.Exp, 5*time.Second)

	claims, err := ParseAccessToken(testSecret, at.Token)
	require.NoError(t, err)
	id, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, uint64(42), id)
	assert.Equal(t, "42", claims.Subject)
	assert.Equal(t, "neo", claims.Username)
	assert.Equal(t, "neo@zion.io", claims.EmailAddress)
}

func TestParseAccessToken_TamperedSignature(t *testing.T) {
	at, err := NewAccessToken(testSecret, neo, time.Hour)
	require.NoError(t, err)

	_, err = ParseAccessToken(testSecret, flipSignatureByte(at.Token))
	assert.ErrorIs(t, err, jwt.ErrTokenSignatureInvalid)
}

func TestParseAccessToken_WrongSecret(t *testing.T) {
	at, err := NewAccessToken(testSecret, neo, time.Hour)
	require.NoError(t, err)

	_, err = ParseAccessToken("another-secret-entirely", at.Token)
	assert.Error(t, err)
}

func TestParseAccessToken_Expired(t *testing.T) {
	at, err := NewAccessToken(testSecret, neo, -time.Minute)
	require.NoError(t, err)

	_, err = ParseAccessToken(testSecret, at.Token)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestParseAccessToken_MissingExpiry(t *testing.T) {
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"id": "42"}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = ParseAccessToken(testSecret, raw)
	assert.Error(t, err)
}

func TestParseAccessToken_RejectsOtherAlgorithms(t *testing.T) {
	claims := jwt.MapClaims{"id": "42", "exp": time.Now().Add(time.Hour).Unix()}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = ParseAccessToken(testSecret, raw)
	assert.Error(t, err)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = ParseAccessToken(testSecret, none)
	assert.Error(t, err)
}

func TestParseAccessToken_Garbage(t *testing.T) {
	_, err := ParseAccessToken(testSecret, "this.is.garbage")
	assert.Error(t, err)
}

func TestNewAccessToken_EmptySecret(t *testing.T) {
	_, err := NewAccessToken("", neo, time.Hour)
	assert.Error(t, err)
}

func TestClaims_UserID(t *testing.T) {
	c := &Claims{}
	_, err := c.UserID()
	assert.Error(t, err)

	c.Subject = "7"
	id, err := c.UserID()
	require.NoError(t, err)
	assert.Equal(t, uint64(7), id)

	c.ID = "not-a-number"
	_, err = c.UserID()
	assert.Error(t, err)
}
