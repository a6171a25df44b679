package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeSendEmail is the task type for sending transactional emails.
	TaskTypeSendEmail = "mail:send"
	// TaskIdempotencyCleanup prunes stale idempotency keys.
	TaskIdempotencyCleanup = "idempotency:cleanup"
)

// SendEmailPayload describes the information required to send an email.
type SendEmailPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// NewSendEmailTask constructs an Asynq task.
func NewSendEmailTask(payload SendEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeSendEmail, data), nil
}

// Sender delivers a rendered message.
type Sender interface {
	Send(to, subject, body string) error
}

// NewSendEmailHandler builds the Asynq handler for TaskTypeSendEmail.
func NewSendEmailHandler(sender Sender, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload SendEmailPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		if err := sender.Send(payload.To, payload.Subject, payload.Body); err != nil {
			logger.Error("send email failed", slog.String("to", payload.To), slog.Any("error", err))
			return err
		}
		logger.Info("email sent", slog.String("to", payload.To), slog.String("subject", payload.Subject))
		return nil
	}
}

// KeyCleaner prunes idempotency keys older than the given age.
type KeyCleaner interface {
	Cleanup(ctx context.Context, olderThan time.Duration) error
}

// NewIdempotencyCleanupTask constructs the cleanup task.
func NewIdempotencyCleanupTask() *asynq.Task {
	return asynq.NewTask(TaskIdempotencyCleanup, nil)
}

// NewIdempotencyCleanupHandler builds the Asynq handler for TaskIdempotencyCleanup.
// Keys only guard the initial request burst, so a day of retention is plenty.
func NewIdempotencyCleanupHandler(cleaner KeyCleaner, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		if err := cleaner.Cleanup(ctx, 24*time.Hour); err != nil {
			logger.Error("idempotency cleanup failed", slog.Any("error", err))
			return err
		}
		logger.Info("idempotency keys pruned")
		return nil
	}
}
