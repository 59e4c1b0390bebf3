package auth

import (
	"context"
	"net/http"
	"time"

	"github.com/frahmantamala/hr-registry/internal"
	"github.com/golang-jwt/jwt/v5"
)

// Session is the authenticated actor every registry operation runs as.
// It is created by a successful login and ends at logout or expiry.
type Session struct {
	Username  string    `json:"username"`
	TokenID   string    `json:"token_id"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
	Token     string    `json:"-"`
}

func (s Session) IsAuthenticated() bool {
	return s.Username != ""
}

// ServiceAPI is what the HTTP layer needs from the auth service.
type ServiceAPI interface {
	Authenticate(ctx context.Context, dto LoginDTO) (*Session, error)
	Logout(ctx context.Context, session Session) error
	Validate(ctx context.Context, token string) (*Session, error)
}

// TokenGenerator issues and parses session tokens.
type TokenGenerator interface {
	Generate(username string) (Session, error)
	Parse(token string) (*Claims, error)
}

// Claims represents JWT token claims
type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

var (
	ErrUnknownUser      = internal.NewUnauthorizedError("unknown user", internal.ErrCodeUnknownUser)
	ErrWrongPassword    = internal.NewUnauthorizedError("wrong password", internal.ErrCodeWrongPassword)
	ErrCredentialConfig = internal.NewExternalError("credential directory unavailable", internal.ErrCodeCredentialConfig, http.StatusServiceUnavailable)
	ErrInvalidSession   = internal.NewUnauthorizedError("invalid session", internal.ErrCodeInvalidSession)
	ErrSessionExpired   = internal.NewUnauthorizedError("session expired", internal.ErrCodeSessionExpired)

	// ErrInvalidCredentials is what clients see for both unknown users and
	// wrong passwords.
	ErrInvalidCredentials = internal.NewUnauthorizedError("invalid credentials", internal.ErrCodeInvalidCredentials)
)

type ctxKey struct{}

func ContextWithSession(ctx context.Context, session Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, session)
}

func SessionFromContext(ctx context.Context) (Session, bool) {
	if ctx == nil {
		return Session{}, false
	}
	s, ok := ctx.Value(ctxKey{}).(Session)
	return s, ok && s.IsAuthenticated()
}
