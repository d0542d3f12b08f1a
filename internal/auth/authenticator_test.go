package auth

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goevery/notifier/internal/ierr"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(secret))
	require.NoError(t, err)

	return tokenString
}

func TestAuthenticator_AuthenticateJWT(t *testing.T) {
	authenticator := NewAuthenticator("test-secret", "notifier", []string{"test-api-key"})

	t.Run("valid jwt", func(t *testing.T) {
		tokenString := signToken(t, "test-secret", jwt.MapClaims{
			"sub":   "test-user",
			"exp":   time.Now().Add(time.Hour).Unix(),
			"iat":   time.Now().Unix(),
			"aud":   "notifier",
			"scope": []string{"subscribe"},
		})

		auth, err := authenticator.AuthenticateJWT(tokenString)

		assert.NoError(t, err)
		assert.NotNil(t, auth)
		assert.Equal(t, "test-user", auth.Subject)
		assert.Equal(t, []string{"subscribe"}, auth.Scope)
		assert.True(t, auth.IsSubscriber())
		assert.False(t, auth.IsPublisher())
		assert.False(t, auth.IsAdmin)
	})

	t.Run("invalid jwt signature", func(t *testing.T) {
		tokenString := signToken(t, "invalid-secret", jwt.MapClaims{
			"sub":   "test-user",
			"exp":   time.Now().Add(time.Hour).Unix(),
			"iat":   time.Now().Unix(),
			"aud":   "notifier",
			"scope": []string{"subscribe"},
		})

		auth, err := authenticator.AuthenticateJWT(tokenString)

		assert.Error(t, err)
		assert.Nil(t, auth)
		assert.IsType(t, ierr.Error{}, err)
		assert.Equal(t, ierr.ErrorCodeUnauthenticated, err.(ierr.Error).Code)
	})

	t.Run("expired jwt", func(t *testing.T) {
		tokenString := signToken(t, "test-secret", jwt.MapClaims{
			"sub":   "test-user",
			"exp":   time.Now().Add(-time.Hour).Unix(),
			"iat":   time.Now().Add(-2 * time.Hour).Unix(),
			"aud":   "notifier",
			"scope": []string{"subscribe"},
		})

		auth, err := authenticator.AuthenticateJWT(tokenString)

		assert.Error(t, err)
		assert.Nil(t, auth)
		assert.Equal(t, ierr.ErrorCodeUnauthenticated, err.(ierr.Error).Code)
	})

	t.Run("wrong audience", func(t *testing.T) {
		tokenString := signToken(t, "test-secret", jwt.MapClaims{
			"sub":   "test-user",
			"exp":   time.Now().Add(time.Hour).Unix(),
			"iat":   time.Now().Unix(),
			"aud":   "broadcaster",
			"scope": []string{"subscribe"},
		})

		_, err := authenticator.AuthenticateJWT(tokenString)

		assert.Error(t, err)
		assert.Equal(t, ierr.ErrorCodeUnauthenticated, err.(ierr.Error).Code)
	})

	t.Run("missing subject", func(t *testing.T) {
		tokenString := signToken(t, "test-secret", jwt.MapClaims{
			"exp":   time.Now().Add(time.Hour).Unix(),
			"iat":   time.Now().Unix(),
			"aud":   "notifier",
			"scope": []string{"subscribe"},
		})

		auth, err := authenticator.AuthenticateJWT(tokenString)

		assert.Error(t, err)
		assert.Nil(t, auth)
		assert.Equal(t, ierr.ErrorCodeInvalidArgument, err.(ierr.Error).Code)
	})

	t.Run("missing scope", func(t *testing.T) {
		tokenString := signToken(t, "test-secret", jwt.MapClaims{
			"sub": "test-user",
			"exp": time.Now().Add(time.Hour).Unix(),
			"iat": time.Now().Unix(),
			"aud": "notifier",
		})

		auth, err := authenticator.AuthenticateJWT(tokenString)

		assert.Error(t, err)
		assert.Nil(t, auth)
		assert.Equal(t, ierr.ErrorCodeInvalidArgument, err.(ierr.Error).Code)
	})
}

func TestAuthenticator_AuthenticateAPIKey(t *testing.T) {
	authenticator := NewAuthenticator("test-secret", "notifier", []string{"test-api-key"})

	t.Run("valid api key", func(t *testing.T) {
		auth, err := authenticator.AuthenticateAPIKey("test-api-key")

		assert.NoError(t, err)
		assert.Equal(t, "api", auth.Subject)
		assert.Equal(t, []string{"publish"}, auth.Scope)
		assert.True(t, auth.IsAdmin)
	})

	t.Run("invalid api key", func(t *testing.T) {
		auth, err := authenticator.AuthenticateAPIKey("invalid-api-key")

		assert.Error(t, err)
		assert.Nil(t, auth)
		assert.Equal(t, ierr.ErrorCodeUnauthenticated, err.(ierr.Error).Code)
	})

	t.Run("empty api key", func(t *testing.T) {
		_, err := NewAuthenticator("test-secret", "notifier", []string{""}).AuthenticateAPIKey("")

		assert.Error(t, err)
	})
}

func TestAuthenticator_Authenticate(t *testing.T) {
	authenticator := NewAuthenticator("test-secret", "notifier", []string{"test-api-key"})

	auth, err := authenticator.Authenticate("test-api-key")
	require.NoError(t, err)
	assert.True(t, auth.IsAdmin)

	tokenString := signToken(t, "test-secret", jwt.MapClaims{
		"sub":   "test-user",
		"exp":   time.Now().Add(time.Hour).Unix(),
		"iat":   time.Now().Unix(),
		"aud":   "notifier",
		"scope": []string{"publish"},
	})

	auth, err = authenticator.Authenticate(tokenString)
	require.NoError(t, err)
	assert.Equal(t, "test-user", auth.Subject)

	_, err = authenticator.Authenticate("")
	assert.Error(t, err)
}

func TestAuthentication_CanTarget(t *testing.T) {
	user := &Authentication{Subject: "u1", Scope: []string{"publish"}}
	admin := &Authentication{Subject: "api", Scope: []string{"publish"}, IsAdmin: true}

	assert.True(t, user.CanTarget("u1"))
	assert.False(t, user.CanTarget("u2"))
	assert.False(t, user.CanTarget(""))
	assert.True(t, admin.CanTarget("u2"))
	assert.True(t, admin.CanTarget(""))
	assert.False(t, (&Authentication{}).CanTarget(""))
}

func TestTokenFromRequest(t *testing.T) {
	r := httptest.NewRequest("GET", "/events?token=query-token", nil)
	assert.Equal(t, "query-token", TokenFromRequest(r))

	r.Header.Set("Authorization", "Bearer header-token")
	assert.Equal(t, "header-token", TokenFromRequest(r))
}
