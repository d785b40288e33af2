package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/inventory-service/internal/config"
	"github.com/spec-kit/inventory-service/internal/events"
)

// NotificationService reacts to product events with stock alerts.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventStockAlert, n.handleStockAlert)
	n.dispatcher.Subscribe(events.EventStockAdjusted, n.handleStockAdjusted)
	n.dispatcher.Subscribe(events.EventProductDeleted, n.handleProductDeleted)
}

func (n *NotificationService) handleStockAlert(ctx context.Context, event events.Event) error {
	fields := []zap.Field{
		zap.String("product_id", event.ProductID),
		zap.String("owner_id", event.OwnerID),
	}
	if payload, ok := event.Payload.(events.StockAlertPayload); ok {
		fields = append(fields,
			zap.String("name", payload.Name),
			zap.Int("quantity", payload.Quantity),
			zap.Int("min_quantity", payload.MinQuantity),
			zap.String("status", string(payload.Status)))
	}
	n.logger.Warn("StockAlert", fields...)
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleStockAdjusted(_ context.Context, event events.Event) error {
	n.logger.Info("StockAdjusted", zap.String("product_id", event.ProductID), zap.Any("payload", event.Payload))
	return nil
}

func (n *NotificationService) handleProductDeleted(_ context.Context, event events.Event) error {
	n.logger.Info("ProductDeleted", zap.String("product_id", event.ProductID), zap.String("owner_id", event.OwnerID))
	return nil
}

func (n *NotificationService) sendWebhookNotificationStub(_ context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("sendWebhookNotificationStub",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("product_id", event.ProductID),
		zap.String("event_type", string(event.Type)))
}
