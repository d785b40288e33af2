package worker

import (
	"github.com/spec-kit/inventory-service/internal/service"
)

// StartNotificationWorker registers stock alert handlers. Handlers run
// synchronously inside the publishing request.
func StartNotificationWorker(notificationService *service.NotificationService) {
	if notificationService == nil {
		return
	}
	notificationService.RegisterHandlers()
}
