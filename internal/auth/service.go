package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"sync"

	"github.com/frahmantamala/hr-registry/internal/core/events"
	"golang.org/x/crypto/bcrypt"
)

// Service is the authentication gate: it checks credentials against the
// directory and issues, validates and revokes sessions.
type Service struct {
	directory  *Directory
	tokens     TokenGenerator
	denylist   *Denylist
	events     events.Publisher
	logger     *slog.Logger
	bcryptCost int

	dummyOnce sync.Once
	dummyHash []byte
}

// NewService creates a new auth service
func NewService(directory *Directory, tokens TokenGenerator, publisher events.Publisher, bcryptCost int, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	if err := directory.Err(); err != nil {
		logger.Error("credential directory unavailable, every login will be denied", "error", err)
	}
	return &Service{
		directory:  directory,
		tokens:     tokens,
		denylist:   NewDenylist(),
		events:     publisher,
		logger:     logger,
		bcryptCost: bcryptCost,
	}
}

// Authenticate validates credentials and opens a session.
func (s *Service) Authenticate(ctx context.Context, dto LoginDTO) (*Session, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	hash, found, err := s.directory.Lookup(dto.Username)
	if err != nil {
		s.logger.Error("login denied, credential directory unavailable", "username", dto.Username, "error", err)
		return nil, err
	}

	if !found {
		// Same bcrypt work as a real user so the two failures cost the same.
		_ = bcrypt.CompareHashAndPassword(s.dummy(), []byte(dto.Password))
		s.logger.Warn("login failed", "username", dto.Username, "reason", "unknown user")
		return nil, ErrUnknownUser
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(dto.Password)); err != nil {
		s.logger.Warn("login failed", "username", dto.Username, "reason", "wrong password")
		return nil, ErrWrongPassword
	}

	session, err := s.tokens.Generate(dto.Username)
	if err != nil {
		s.logger.Error("failed to issue session", "username", dto.Username, "error", err)
		return nil, err
	}

	s.record(ctx, session.Username, events.ActionLogin, "Ouverture de session")
	s.logger.Info("user logged in", "username", session.Username, "session_id", session.TokenID)
	return &session, nil
}

// Logout records the logout, then revokes the session.
func (s *Service) Logout(ctx context.Context, session Session) error {
	if !session.IsAuthenticated() || session.TokenID == "" {
		return ErrInvalidSession
	}
	s.record(ctx, session.Username, events.ActionLogout, "Fermeture de session")
	s.denylist.Revoke(session.TokenID, session.ExpiresAt)
	s.logger.Info("user logged out", "username", session.Username, "session_id", session.TokenID)
	return nil
}

// Validate resolves a token to its live session.
func (s *Service) Validate(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, ErrInvalidSession
	}
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, err
	}
	if s.denylist.IsRevoked(claims.ID) {
		return nil, ErrInvalidSession
	}
	if _, found, err := s.directory.Lookup(claims.Username); err != nil || !found {
		return nil, ErrInvalidSession
	}

	session := Session{
		Username: claims.Username,
		TokenID:  claims.ID,
		Token:    token,
	}
	if claims.IssuedAt != nil {
		session.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		session.ExpiresAt = claims.ExpiresAt.Time
	}
	return &session, nil
}

// HashPassword creates a bcrypt hash of the password
func (s *Service) HashPassword(password string) (string, error) {
	return HashPassword(password, s.bcryptCost)
}

func HashPassword(password string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (s *Service) record(ctx context.Context, username, action, details string) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishSync(ctx, events.NewActionRecordedEvent(username, action, details)); err != nil {
		s.logger.Warn("audit entry not recorded", "username", username, "action", action, "error", err)
	}
}

func (s *Service) dummy() []byte {
	s.dummyOnce.Do(func() {
		secret, err := GenerateRandomToken()
		if err != nil {
			secret = "registry-dummy-password"
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(secret), s.bcryptCost)
		if err != nil {
			s.logger.Error("failed to build dummy hash", "error", err)
			return
		}
		s.dummyHash = hash
	})
	return s.dummyHash
}

// GenerateRandomToken generates a cryptographically secure random token
func GenerateRandomToken() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
