package worker

import (
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-triage/internal/service"
)

// StartNotificationWorker subscribes the notification handlers to ticket events.
func StartNotificationWorker(notifications *service.NotificationService, logger *zap.Logger) {
	if notifications == nil {
		return
	}
	notifications.RegisterHandlers()
	logger.Info("notification worker started", zap.Bool("webhook", notifications.WebhookEnabled()))
}
