package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"eventix-gateway/internal/backend"
	"eventix-gateway/internal/logger"
	"eventix-gateway/internal/models"
	"eventix-gateway/internal/utils"
)

// Backend is the part of the REST client sign-in needs.
type Backend interface {
	Register(ctx context.Context, req models.RegisterRequest) (*models.User, backend.Credentials, error)
	Login(ctx context.Context, email, password string) (*models.User, backend.Credentials, error)
}

const minPasswordLength = 6

// RegistrationForm is what the sign-up view submits.
type RegistrationForm struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

// Validate applies the sign-up checks in the order the form shows them.
func (f RegistrationForm) Validate() error {
	if f.Name == "" || f.Email == "" || f.Password == "" || f.ConfirmPassword == "" {
		return utils.NewValidationError("All fields are required.")
	}
	if f.Password != f.ConfirmPassword {
		return utils.NewValidationError("Passwords do not match.")
	}
	if len(f.Password) < minPasswordLength {
		return utils.NewValidationError(fmt.Sprintf("Password must be at least %d characters.", minPasswordLength))
	}
	return nil
}

// SignIn is returned by Login and Register.
type SignIn struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expiresAt"`
	User      models.User `json:"user"`
	Redirect  string      `json:"redirect"`
	SessionID string      `json:"-"`
}

type Service struct {
	Backend  Backend
	Sessions *SessionStore
	Tokens   *TokenIssuer
	Logger   *logger.Logger
}

func NewService(b Backend, sessions *SessionStore, tokens *TokenIssuer, log *logger.Logger) *Service {
	return &Service{Backend: b, Sessions: sessions, Tokens: tokens, Logger: log}
}

func (s *Service) Login(ctx context.Context, email, password string) (*SignIn, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, utils.NewValidationError("Email and password are required")
	}

	user, creds, err := s.Backend.Login(ctx, email, password)
	if err != nil {
		s.Logger.LogSecurity("LOGIN_FAILED", fmt.Sprintf("email=%s: %v", email, err))
		return nil, fmt.Errorf("login: %w", err)
	}

	return s.start(ctx, user, creds, "/")
}

func (s *Service) Register(ctx context.Context, form RegistrationForm) (*SignIn, error) {
	form.Name = strings.TrimSpace(form.Name)
	form.Email = strings.TrimSpace(form.Email)
	if err := form.Validate(); err != nil {
		return nil, err
	}

	user, creds, err := s.Backend.Register(ctx, models.RegisterRequest{
		Name:     form.Name,
		Email:    form.Email,
		Password: form.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}

	return s.start(ctx, user, creds, "/events")
}

func (s *Service) start(ctx context.Context, user *models.User, creds backend.Credentials, redirect string) (*SignIn, error) {
	sess, err := s.Sessions.Create(ctx, *user, creds)
	if err != nil {
		return nil, err
	}

	token, expiresAt, err := s.Tokens.Issue(sess)
	if err != nil {
		if delErr := s.Sessions.Delete(ctx, sess.ID); delErr != nil {
			s.Logger.Warn("AUTH", fmt.Sprintf("Failed to drop session %s: %v", sess.ID, delErr))
		}
		return nil, err
	}

	s.Logger.Info("AUTH", fmt.Sprintf("Session %s started for user %d (%s)", sess.ID, user.ID, user.Role))
	return &SignIn{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      *user,
		Redirect:  redirect,
		SessionID: sess.ID,
	}, nil
}

// Logout ends the session. An unknown or expired session is not an error.
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if err := s.Sessions.Delete(ctx, sessionID); err != nil {
		return err
	}
	s.Logger.Info("AUTH", fmt.Sprintf("Session %s ended", sessionID))
	return nil
}

// SessionID pulls the session id out of a token without loading the session.
// Logout uses it so a signed-out token can still clear its cookie.
func (s *Service) SessionID(token string) string {
	claims, err := s.Tokens.Verify(token)
	if err != nil {
		return ""
	}
	return claims.SessionID
}
