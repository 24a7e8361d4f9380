package security

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)

func identity(userID string) IdentityClaims {
	return IdentityClaims{RegisteredClaims: jwt.RegisteredClaims{Subject: userID}}
}

func TestIdentityTokenRoundTrip(t *testing.T) {
	in := identity("u-1")
	in.Email = "a@b.in"
	in.Name = "Asha"
	token, err := IssueIdentityToken(in, time.Hour, "s3cret", testNow)
	require.NoError(t, err)
	assert.Len(t, strings.Split(token, "."), 3)

	claims, err := VerifyIdentityToken(token, "s3cret", testNow.Add(30*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID())
	assert.Equal(t, "a@b.in", claims.Email)
	assert.Equal(t, "Asha", claims.Name)
	assert.Equal(t, testNow.Add(time.Hour), claims.ExpiresAt.Time.UTC())
}

func TestIdentityTokenFromExternalIssuer(t *testing.T) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   "u-9",
		"email": "learner@example.com",
		"name":  "Learner",
		"exp":   testNow.Add(time.Hour).Unix(),
	}).SignedString([]byte("s3cret"))
	require.NoError(t, err)

	claims, err := VerifyIdentityToken(token, "s3cret", testNow)
	require.NoError(t, err)
	assert.Equal(t, "u-9", claims.UserID())
	assert.Equal(t, "learner@example.com", claims.Email)
	assert.Equal(t, "Learner", claims.Name)
}

func TestIdentityTokenRejections(t *testing.T) {
	token, err := IssueIdentityToken(identity("u-1"), time.Hour, "s3cret", testNow)
	require.NoError(t, err)

	_, err = VerifyIdentityToken(token, "other", testNow)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = VerifyIdentityToken(token, "s3cret", testNow.Add(2*time.Hour))
	assert.ErrorIs(t, err, ErrTokenExpired)

	_, err = VerifyIdentityToken("garbage", "s3cret", testNow)
	assert.ErrorIs(t, err, ErrInvalidToken)

	parts := strings.Split(token, ".")
	_, err = VerifyIdentityToken(parts[0]+"."+parts[1]+".AAAA", "s3cret", testNow)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = VerifyIdentityToken(token, "", testNow)
	assert.ErrorIs(t, err, ErrMissingSecret)

	_, err = IssueIdentityToken(IdentityClaims{}, time.Hour, "s3cret", testNow)
	assert.Error(t, err)
}

func TestIdentityTokenRejectsOtherAlgorithms(t *testing.T) {
	claims := jwt.MapClaims{"sub": "u-1", "exp": testNow.Add(time.Hour).Unix()}

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = VerifyIdentityToken(unsigned, "s3cret", testNow)
	assert.ErrorIs(t, err, ErrInvalidToken)

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("s3cret"))
	require.NoError(t, err)
	_, err = VerifyIdentityToken(hs512, "s3cret", testNow)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestIdentityTokenRequiresExpiryAndSubject(t *testing.T) {
	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "u-1"}).SignedString([]byte("s3cret"))
	require.NoError(t, err)
	_, err = VerifyIdentityToken(noExp, "s3cret", testNow)
	assert.ErrorIs(t, err, ErrInvalidToken)

	noSub, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"exp": testNow.Add(time.Hour).Unix()}).SignedString([]byte("s3cret"))
	require.NoError(t, err)
	_, err = VerifyIdentityToken(noSub, "s3cret", testNow)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokensAreBoundToTheirPurpose(t *testing.T) {
	identityToken, err := IssueIdentityToken(identity("u-1"), time.Hour, "shared", testNow)
	require.NoError(t, err)
	_, err = VerifyContentLinkToken(identityToken, "item-1", "shared", testNow)
	assert.ErrorIs(t, err, ErrInvalidToken)

	link, err := IssueContentLinkToken("u-1", "item-1", time.Hour, "shared", testNow)
	require.NoError(t, err)
	_, err = VerifyIdentityToken(link, "shared", testNow)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestContentLinkToken(t *testing.T) {
	token, err := IssueContentLinkToken("u-1", "item-1", time.Hour, "links", testNow)
	require.NoError(t, err)

	claims, err := VerifyContentLinkToken(token, "item-1", "links", testNow)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID)
	assert.Equal(t, testNow.Add(time.Hour), claims.ExpiresTime())

	_, err = VerifyContentLinkToken(token, "item-2", "links", testNow)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = VerifyContentLinkToken(token, "item-1", "links", testNow.Add(61*time.Minute))
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestDeriveKeyIsDeterministicPerPurpose(t *testing.T) {
	a, err := DeriveKey("secret", "one")
	require.NoError(t, err)
	b, err := DeriveKey("secret", "one")
	require.NoError(t, err)
	c, err := DeriveKey("secret", "two")
	require.NoError(t, err)

	assert.Len(t, a, 32)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}
