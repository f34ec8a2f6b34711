package service

import (
	"context"
	"errors"

	"qipu/internal/middleware"
	"qipu/internal/models"
)

// EventPublisher delivers realtime events to a user.
type EventPublisher interface {
	PublishUserEvent(ctx context.Context, userID uint, eventType string, payload any) error
}

// publish delivers best effort; failures are logged and never fail the
// request that caused them.
func publish(ctx context.Context, p EventPublisher, userID uint, eventType string, payload any) {
	if p == nil {
		return
	}
	if err := p.PublishUserEvent(ctx, userID, eventType, payload); err != nil {
		middleware.Logger.WarnContext(ctx, "failed to publish event",
			"event_type", eventType, "target_user", userID, "error", err)
	}
}

func isNotFound(err error) bool {
	var appErr *models.AppError
	return errors.As(err, &appErr) && appErr.Code == models.CodeNotFound
}
