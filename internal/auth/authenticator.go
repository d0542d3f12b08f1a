package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/goevery/notifier/internal/ierr"
	"github.com/golang-jwt/jwt/v5"
)

const (
	ScopeSubscribe = "subscribe"
	ScopePublish   = "publish"
)

type Claims struct {
	jwt.RegisteredClaims
	Scope []string `json:"scope,omitempty"`
}

type Authentication struct {
	Subject string
	Scope   []string
	IsAdmin bool
}

func (a *Authentication) IsPublisher() bool {
	return slices.Contains(a.Scope, ScopePublish)
}

func (a *Authentication) IsSubscriber() bool {
	return slices.Contains(a.Scope, ScopeSubscribe)
}

// CanTarget reports whether the holder may publish to the given user.
// Only admins may target other users or broadcast.
func (a *Authentication) CanTarget(userId string) bool {
	if a.Subject == "" {
		return false
	}

	if a.IsAdmin {
		return true
	}

	return userId != "" && userId == a.Subject
}

type contextKey string

const authenticationKey contextKey = "authentication"

func WithAuthentication(ctx context.Context, auth *Authentication) context.Context {
	return context.WithValue(ctx, authenticationKey, auth)
}

func AuthenticationFromContext(ctx context.Context) (*Authentication, bool) {
	auth, ok := ctx.Value(authenticationKey).(*Authentication)
	return auth, ok
}

// TokenFromRequest reads a bearer token from the Authorization header, falling
// back to the token query parameter since EventSource and browser WebSockets
// cannot set headers.
func TokenFromRequest(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(token)
	}

	return r.URL.Query().Get("token")
}

type Authenticator struct {
	secret    []byte
	apiKeys   []string
	jwtParser *jwt.Parser
}

func NewAuthenticator(secret string, audience string, apiKeys []string) *Authenticator {
	jwtParser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(30*time.Second),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithAudience(audience),
	)

	return &Authenticator{
		secret:    []byte(secret),
		apiKeys:   apiKeys,
		jwtParser: jwtParser,
	}
}

func (a *Authenticator) keyFunc(token *jwt.Token) (any, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, ierr.New(ierr.ErrorCodeUnauthenticated, errors.New("unexpected signing method"))
	}
	return a.secret, nil
}

func (a *Authenticator) AuthenticateJWT(tokenString string) (*Authentication, error) {
	claims := Claims{}

	_, err := a.jwtParser.ParseWithClaims(tokenString, &claims, a.keyFunc)
	if err != nil {
		return nil, ierr.New(ierr.ErrorCodeUnauthenticated, err)
	}

	subject, err := claims.GetSubject()
	if err != nil || subject == "" {
		return nil, ierr.New(ierr.ErrorCodeInvalidArgument, errors.New("invalid subject claim"))
	}

	if len(claims.Scope) == 0 {
		return nil, ierr.New(ierr.ErrorCodeInvalidArgument, errors.New("scope cannot be empty"))
	}

	return &Authentication{
		Subject: subject,
		Scope:   claims.Scope,
		IsAdmin: false,
	}, nil
}

func (a *Authenticator) AuthenticateAPIKey(apiKey string) (*Authentication, error) {
	if apiKey != "" {
		for _, key := range a.apiKeys {
			if subtle.ConstantTimeCompare([]byte(apiKey), []byte(key)) == 1 {
				return &Authentication{
					Subject: "api",
					Scope:   []string{ScopePublish},
					IsAdmin: true,
				}, nil
			}
		}
	}

	return nil, ierr.New(ierr.ErrorCodeUnauthenticated, errors.New("invalid api key"))
}

// Authenticate accepts either an API key or a JWT.
func (a *Authenticator) Authenticate(credential string) (*Authentication, error) {
	if credential == "" {
		return nil, ierr.New(ierr.ErrorCodeUnauthenticated, errors.New("missing credentials"))
	}

	if authentication, err := a.AuthenticateAPIKey(credential); err == nil {
		return authentication, nil
	}

	return a.AuthenticateJWT(credential)
}
