package services

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/filesmanager/backend/internal/metrics"
	"github.com/filesmanager/backend/internal/models"
	"github.com/filesmanager/backend/internal/session"
	"github.com/filesmanager/backend/internal/store"
	"github.com/filesmanager/backend/pkg/logger"
	"github.com/filesmanager/backend/pkg/utils"
)

// WelcomeEnqueuer is the producer capability AuthService needs.
type WelcomeEnqueuer interface {
	EnqueueWelcome(ctx context.Context, job models.WelcomeJob) error
}

// AuthService is the access-control boundary: it turns credentials into
// session tokens and tokens back into user ids.
type AuthService struct {
	Users    store.Users
	Sessions *session.Store
	Jobs     WelcomeEnqueuer
}

func NewAuthService(users store.Users, sessions *session.Store, jobs WelcomeEnqueuer) *AuthService {
	return &AuthService{Users: users, Sessions: sessions, Jobs: jobs}
}

// ParseBasicAuth decodes an Authorization header of the form
// "Basic base64(email:password)". The password may itself contain ':'.
func ParseBasicAuth(header string) (email, password string, ok bool) {
	scheme, encoded, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Basic") {
		return "", "", false
	}
	decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return "", "", false
	}
	email, password, found = strings.Cut(string(decoded), ":")
	if !found || email == "" || password == "" {
		return "", "", false
	}
	return email, password, true
}

// Authenticate checks the email/password pair and mints a new session token.
func (a *AuthService) Authenticate(ctx context.Context, email, password string) (string, error) {
	if email == "" || password == "" {
		return "", ErrUnauthorized
	}

	user, err := a.Users.FindByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		metrics.Sessions.WithLabelValues("rejected").Inc()
		return "", ErrUnauthorized
	}
	if err != nil {
		return "", fmt.Errorf("looking up user: %w", err)
	}
	if !utils.CheckPassword(password, user.PasswordHash) {
		metrics.Sessions.WithLabelValues("rejected").Inc()
		logger.WarnWithUser(user.ID, "login_failed", map[string]interface{}{"reason": "bad password"})
		return "", ErrUnauthorized
	}

	token, err := a.Sessions.Create(ctx, user.ID)
	if err != nil {
		return "", fmt.Errorf("creating session: %w", err)
	}

	metrics.Sessions.WithLabelValues("created").Inc()
	logger.InfoWithUser(user.ID, "session_created", nil)
	return token, nil
}

// ResolveSession returns the user id bound to token.
func (a *AuthService) ResolveSession(ctx context.Context, token string) (string, error) {
	userID, err := a.Sessions.Lookup(ctx, token)
	if errors.Is(err, session.ErrNoSession) {
		return "", ErrUnauthorized
	}
	if err != nil {
		return "", fmt.Errorf("resolving session: %w", err)
	}
	return userID, nil
}

// EndSession revokes token. The token stops working immediately.
func (a *AuthService) EndSession(ctx context.Context, token string) error {
	userID, err := a.ResolveSession(ctx, token)
	if err != nil {
		return err
	}

	err = a.Sessions.Delete(ctx, token)
	if errors.Is(err, session.ErrNoSession) {
		return ErrUnauthorized
	}
	if err != nil {
		return fmt.Errorf("ending session: %w", err)
	}

	metrics.Sessions.WithLabelValues("ended").Inc()
	logger.InfoWithUser(userID, "session_ended", nil)
	return nil
}

// Register creates a user and queues the welcome job. A failed enqueue is
// logged; the user is still created.
func (a *AuthService) Register(ctx context.Context, email, password string) (*models.User, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, ErrMissingEmail
	}
	if password == "" {
		return nil, ErrMissingPassword
	}

	if _, err := a.Users.FindByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("checking email: %w", err)
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user := &models.User{Email: email, PasswordHash: hash}
	if err := a.Users.Create(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("creating user: %w", err)
	}

	logger.InfoWithUser(user.ID, "user_registered", map[string]interface{}{"email": user.Email})

	if a.Jobs != nil {
		if err := a.Jobs.EnqueueWelcome(ctx, models.WelcomeJob{UserID: user.ID}); err != nil {
			logger.ErrorWithUser(user.ID, "welcome_enqueue_failed", err, nil)
		}
	}
	return user, nil
}

// Me loads the caller. A session whose user no longer exists is unauthorized.
func (a *AuthService) Me(ctx context.Context, userID string) (*models.User, error) {
	user, err := a.Users.FindByID(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrUnauthorized
	}
	if err != nil {
		return nil, fmt.Errorf("loading user: %w", err)
	}
	return user, nil
}
