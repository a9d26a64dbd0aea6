package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-routing/internal/config"
	"github.com/spec-kit/ticket-routing/internal/domain"
	"github.com/spec-kit/ticket-routing/internal/events"
	"github.com/spec-kit/ticket-routing/internal/repository"
)

// NotificationService turns workflow events into outbound notifications: a
// pending call record for the target employee, plus email/webhook stubs.
type NotificationService struct {
	dispatcher events.Dispatcher
	directory  repository.WorkerDirectory
	logger     *zap.Logger
	cfg        config.NotifyConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, directory repository.WorkerDirectory, logger *zap.Logger, cfg config.NotifyConfig) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		directory:  directory,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventCallStarted, n.handleCallStarted)
	n.dispatcher.Subscribe(events.EventTicketRedirected, n.handleTicketRedirected)
	n.dispatcher.Subscribe(events.EventTicketNeedsReview, n.handleNeedsReview)
	n.dispatcher.Subscribe(events.EventWorkflowCompleted, n.handleWorkflowCompleted)
}

// handleCallStarted records a pending call so the target employee sees the
// incoming conversation in their queue.
func (n *NotificationService) handleCallStarted(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.CallStartedPayload)
	if !ok {
		n.logger.Warn("call started event with unexpected payload", zap.String("workflow_id", event.WorkflowID))
		return nil
	}

	notification := &domain.CallNotification{
		ID:             uuid.NewString(),
		TargetUsername: payload.TargetUsername,
		TicketID:       event.TicketID,
		TicketSubject:  payload.TicketSubject,
		CallerLabel:    payload.CallerLabel,
		Payload: map[string]any{
			"workflow_id": event.WorkflowID,
			"session_id":  payload.SessionID,
			"is_redirect": payload.IsRedirect,
		},
		Status: domain.CallNotificationPending,
	}
	if err := n.directory.CreatePendingCallNotification(ctx, notification); err != nil {
		n.logger.Error("could not record pending call",
			zap.String("target", payload.TargetUsername), zap.Error(err))
		return err
	}

	n.logger.Info("pending call recorded",
		zap.String("target", payload.TargetUsername),
		zap.String("ticket_id", event.TicketID))
	return nil
}

func (n *NotificationService) handleTicketRedirected(ctx context.Context, event events.Event) error {
	n.logger.Info("TicketRedirected", zap.String("ticket_id", event.TicketID), zap.Any("payload", event.Payload))
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleNeedsReview(ctx context.Context, event events.Event) error {
	n.logger.Info("TicketNeedsReview", zap.String("ticket_id", event.TicketID), zap.Any("payload", event.Payload))
	n.sendEmailNotificationStub(ctx, event)
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleWorkflowCompleted(ctx context.Context, event events.Event) error {
	n.logger.Info("WorkflowCompleted", zap.String("ticket_id", event.TicketID), zap.Any("payload", event.Payload))
	n.sendEmailNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) sendEmailNotificationStub(ctx context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" {
		return
	}
	n.logger.Debug("sendEmailNotificationStub",
		zap.String("from", n.cfg.EmailFrom),
		zap.String("ticket_id", event.TicketID),
		zap.String("event_type", string(event.Type)))
}

func (n *NotificationService) sendWebhookNotificationStub(ctx context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("sendWebhookNotificationStub",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("ticket_id", event.TicketID),
		zap.String("event_type", string(event.Type)))
}
