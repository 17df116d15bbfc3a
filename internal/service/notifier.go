package service

import (
	"context"
	"log/slog"

	"hospital-api/internal/model"
)

// ResetNotifier delivers a password reset token to its owner.
type ResetNotifier interface {
	NotifyPasswordReset(ctx context.Context, notice model.ResetNotice) error
}

// LogNotifier stands in for an email channel. The token itself is only
// written at debug level.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) NotifyPasswordReset(ctx context.Context, notice model.ResetNotice) error {
	n.logger.InfoContext(ctx, "password reset requested",
		"user_id", notice.UserID,
		"email", notice.Email,
		"expires_at", notice.ExpiresAt,
	)
	n.logger.DebugContext(ctx, "password reset token issued",
		"user_id", notice.UserID,
		"reset_token", notice.Token,
	)
	return nil
}
