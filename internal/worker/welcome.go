package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/filesmanager/backend/internal/models"
	"github.com/filesmanager/backend/internal/store"
	"github.com/filesmanager/backend/pkg/logger"
)

// WelcomeProcessor greets newly registered users. Delivery is a log line.
type WelcomeProcessor struct {
	Users store.Users
}

func NewWelcomeProcessor(users store.Users) *WelcomeProcessor {
	return &WelcomeProcessor{Users: users}
}

func (p *WelcomeProcessor) Handle(ctx context.Context, payload []byte) error {
	var job models.WelcomeJob
	if err := json.Unmarshal(payload, &job); err != nil {
		return fmt.Errorf("decoding welcome job: %w", err)
	}
	return p.Process(ctx, job)
}

func (p *WelcomeProcessor) Process(ctx context.Context, job models.WelcomeJob) error {
	if job.UserID == "" {
		return ErrMissingUserID
	}

	user, err := p.Users.FindByID(ctx, job.UserID)
	if errors.Is(err, store.ErrNotFound) {
		return ErrUserNotFound
	}
	if err != nil {
		return err
	}

	logger.InfoWithUser(user.ID, "user_welcomed", map[string]interface{}{
		"message": "Welcome " + user.Email + "!",
	})
	return nil
}
