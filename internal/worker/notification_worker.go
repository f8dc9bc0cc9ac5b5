package worker

import (
	"github.com/valorant-dhruv/FeathersUp.ai/internal/events"
	"github.com/valorant-dhruv/FeathersUp.ai/internal/service"
)

// StartNotificationWorker registers the audit log handlers and, when configured, the Redis relay.
func StartNotificationWorker(dispatcher events.Dispatcher, notificationService *service.NotificationService, relay *events.RedisRelay) {
	if notificationService != nil {
		notificationService.RegisterHandlers()
	}
	if relay != nil && dispatcher != nil {
		relay.Register(dispatcher)
	}
}
