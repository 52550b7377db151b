package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"zenith-casino/internal/models"
)

const minPasswordLength = 6

type AuthResult struct {
	Token   string              `json:"token"`
	Account *models.Account     `json:"-"`
	Session *models.UserSession `json:"-"`
}

// AuthService creates accounts and the login sessions bound to tokens.
type AuthService struct {
	accounts AccountStore
	sessions SessionStore
	jwt      *JWTService

	startingFree      int64
	startingChallenge int64
	sessionMaxAge     time.Duration
}

func NewAuthService(accounts AccountStore, sessions SessionStore, jwt *JWTService, startingFree, startingChallenge int64, sessionMaxAge time.Duration) *AuthService {
	return &AuthService{
		accounts:          accounts,
		sessions:          sessions,
		jwt:               jwt,
		startingFree:      startingFree,
		startingChallenge: startingChallenge,
		sessionMaxAge:     sessionMaxAge,
	}
}

func validateCredentials(email, password string) error {
	if _, err := mail.ParseAddress(email); err != nil {
		return fmt.Errorf("%w: invalid email address", models.ErrInvalidSignup)
	}
	if len(password) < minPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", models.ErrInvalidSignup, minPasswordLength)
	}
	return nil
}

// Signup registers a new account with the starting balances and logs it in.
func (s *AuthService) Signup(ctx context.Context, email, password string) (*AuthResult, error) {
	email = models.NormalizeEmail(email)
	if err := validateCredentials(email, password); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	account := models.NewAccount(models.GenerateAccountID(), email, string(hash), s.startingFree, s.startingChallenge)
	if err := s.accounts.CreateAccount(ctx, account); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"account_id": account.ID,
		"email":      email,
	}).Info("Account created")

	return s.openSession(ctx, account)
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = models.NormalizeEmail(email)

	account, err := s.accounts.GetAccountByEmail(ctx, email)
	if errors.Is(err, models.ErrAccountNotFound) {
		return nil, models.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		log.WithField("email", email).Info("Login rejected")
		return nil, models.ErrInvalidCredentials
	}

	return s.openSession(ctx, account)
}

func (s *AuthService) openSession(ctx context.Context, account *models.Account) (*AuthResult, error) {
	now := time.Now()
	session := &models.UserSession{
		SessionID:    models.GenerateSessionID(),
		AccountID:    account.ID,
		Email:        account.Email,
		CreatedAt:    now,
		LastAccessed: now,
	}
	if err := s.sessions.StoreUserSession(ctx, session, s.sessionMaxAge); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}

	token, err := s.jwt.GenerateToken(account.ID, session.SessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	return &AuthResult{Token: token, Account: account, Session: session}, nil
}

func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	return s.sessions.DeleteUserSession(ctx, sessionID)
}

// ResolveSession checks a token and that its session is still live.
func (s *AuthService) ResolveSession(ctx context.Context, token string) (*models.UserSession, error) {
	claims, err := s.jwt.ValidateToken(token)
	if err != nil {
		return nil, err
	}
	session, err := s.sessions.GetUserSession(ctx, claims.SessionID)
	if err != nil {
		return nil, err
	}
	if session.AccountID != claims.AccountID {
		return nil, models.ErrSessionNotFound
	}
	return session, nil
}

// Recover acknowledges a password recovery request. No mail is sent and the
// reply does not reveal whether the address is registered.
func (s *AuthService) Recover(ctx context.Context, email string) (string, error) {
	email = models.NormalizeEmail(email)
	if _, err := mail.ParseAddress(email); err != nil {
		return "", fmt.Errorf("%w: invalid email address", models.ErrInvalidSignup)
	}
	log.WithField("email", email).Info("Password recovery requested")
	return fmt.Sprintf("A recovery link has been sent to %s (Simulation)", email), nil
}
