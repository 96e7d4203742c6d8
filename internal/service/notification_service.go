package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/lms-go-api/internal/dto"
	"github.com/noah-isme/lms-go-api/internal/models"
	"github.com/noah-isme/lms-go-api/internal/observability"
	"github.com/noah-isme/lms-go-api/internal/policy"
	"github.com/noah-isme/lms-go-api/internal/repository"
)

const notificationBufferSize = 16

// Live transports reported on the subscriber gauge.
const (
	TransportSSE       = "sse"
	TransportWebSocket = "websocket"
)

// NotificationDispatcher persists and fans out notifications produced by
// state-changing operations.
type NotificationDispatcher interface {
	Dispatch(ctx context.Context, events ...dto.NotificationRequest) []dto.NotificationResponse
}

// NotificationService exposes the notification inbox and live streams.
type NotificationService interface {
	NotificationDispatcher
	List(ctx context.Context, actor policy.Actor, req dto.NotificationListRequest) (dto.NotificationListResponse, error)
	UnreadCount(ctx context.Context, actor policy.Actor) (dto.UnreadCountResponse, error)
	MarkRead(ctx context.Context, actor policy.Actor, id string) (dto.NotificationResponse, error)
	MarkAllRead(ctx context.Context, actor policy.Actor) (dto.MarkAllReadResponse, error)
	Delete(ctx context.Context, actor policy.Actor, id string) error
	Subscribe(userID, transport string) (<-chan dto.NotificationResponse, func())
	Start(ctx context.Context)
}

type notificationService struct {
	repo         repository.NotificationRepository
	users        repository.UserRepository
	redis        *redis.Client
	redisChannel string
	nats         *nats.Conn
	natsSubject  string
	validator    *validator.Validate
	logger       zerolog.Logger
	tracer       trace.Tracer
	sanitizer    *bluemonday.Policy
	broker       *notificationBroker
	nodeID       string
	now          func() time.Time
}

type notificationEvent struct {
	Source       string                   `json:"source"`
	Notification dto.NotificationResponse `json:"notification"`
	SentAt       time.Time                `json:"sent_at"`
}

type notificationBroker struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan dto.NotificationResponse]struct{}
}

// NewNotificationService constructs a notification service. Redis and NATS are
// optional; without them delivery stays within this process.
func NewNotificationService(repo repository.NotificationRepository, users repository.UserRepository, redisClient *redis.Client, natsConn *nats.Conn, channel string, validate *validator.Validate, logger zerolog.Logger) NotificationService {
	subject := ""
	if channel != "" {
		subject = strings.ReplaceAll(channel, ":", ".")
	}

	return &notificationService{
		repo:         repo,
		users:        users,
		redis:        redisClient,
		redisChannel: channel,
		nats:         natsConn,
		natsSubject:  subject,
		validator:    validate,
		logger:       logger.With().Str("component", "notification_service").Logger(),
		tracer:       otel.Tracer(tracerPrefix + "notification"),
		sanitizer:    bluemonday.StrictPolicy(),
		broker: &notificationBroker{
			subscribers: make(map[string]map[chan dto.NotificationResponse]struct{}),
		},
		nodeID: uuid.NewString(),
		now:    time.Now,
	}
}

func (s *notificationService) Start(ctx context.Context) {
	if s.redis != nil && s.redisChannel != "" {
		go s.consumeRedis(ctx)
	}
	if s.nats != nil && s.natsSubject != "" {
		s.consumeNATS(ctx)
	}
}

// Dispatch is best-effort: every failure is logged and counted, never returned.
func (s *notificationService) Dispatch(ctx context.Context, events ...dto.NotificationRequest) []dto.NotificationResponse {
	if len(events) == 0 {
		return nil
	}

	spanCtx, span := s.tracer.Start(ctx, "notifications.dispatch", trace.WithAttributes(
		attribute.Int("notification.count", len(events)),
	))
	defer span.End()

	delivered := make([]dto.NotificationResponse, 0, len(events))
	for _, event := range events {
		response, ok := s.deliver(spanCtx, event)
		if ok {
			delivered = append(delivered, response)
		}
	}
	span.SetAttributes(attribute.Int("notification.delivered", len(delivered)))
	return delivered
}

func (s *notificationService) deliver(ctx context.Context, event dto.NotificationRequest) (dto.NotificationResponse, bool) {
	event.Title = strings.TrimSpace(s.sanitizer.Sanitize(event.Title))
	event.Message = strings.TrimSpace(s.sanitizer.Sanitize(event.Message))

	if err := s.validator.Struct(event); err != nil {
		s.drop(event, "invalid", err)
		return dto.NotificationResponse{}, false
	}

	if s.users != nil {
		if _, err := s.users.GetByID(ctx, event.UserID); err != nil {
			reason := "lookup_failed"
			if errors.Is(err, gorm.ErrRecordNotFound) {
				reason = "unknown_user"
			}
			s.drop(event, reason, err)
			return dto.NotificationResponse{}, false
		}
	}

	model := models.Notification{
		UserID:      event.UserID,
		Type:        event.Type,
		Title:       event.Title,
		Message:     event.Message,
		RelatedType: event.RelatedType,
		RelatedID:   event.RelatedID,
	}
	if err := s.repo.Create(ctx, &model); err != nil {
		s.drop(event, "persist_failed", err)
		return dto.NotificationResponse{}, false
	}

	response := dto.NewNotificationResponse(model)
	s.broker.broadcast(response.UserID, response)
	if err := s.publish(ctx, response); err != nil {
		s.logger.Warn().Err(err).Str("notification_id", response.ID).Msg("failed to publish notification to broker")
	}

	observability.NotificationsDispatched().WithLabelValues(response.Type).Inc()
	return response, true
}

func (s *notificationService) drop(event dto.NotificationRequest, reason string, err error) {
	observability.NotificationsDropped().WithLabelValues(reason).Inc()
	s.logger.Warn().
		Err(err).
		Str("user_id", event.UserID).
		Str("type", event.Type).
		Str("reason", reason).
		Msg("notification dropped")
}

func (s *notificationService) List(ctx context.Context, actor policy.Actor, req dto.NotificationListRequest) (dto.NotificationListResponse, error) {
	if err := requireActor(actor); err != nil {
		return dto.NotificationListResponse{}, err
	}

	page, pageSize := normalizePage(req.Page, req.PageSize)
	items, total, err := s.repo.List(ctx, repository.NotificationFilter{
		UserID:     actor.ID,
		UnreadOnly: req.UnreadOnly,
		Page:       page,
		PageSize:   pageSize,
	})
	if err != nil {
		return dto.NotificationListResponse{}, err
	}

	return dto.NotificationListResponse{
		Items:      dto.NewNotificationResponseSlice(items),
		Pagination: dto.NewPaginationMeta(page, pageSize, total),
	}, nil
}

func (s *notificationService) UnreadCount(ctx context.Context, actor policy.Actor) (dto.UnreadCountResponse, error) {
	if err := requireActor(actor); err != nil {
		return dto.UnreadCountResponse{}, err
	}
	total, err := s.repo.CountUnread(ctx, actor.ID)
	if err != nil {
		return dto.UnreadCountResponse{}, err
	}
	return dto.UnreadCountResponse{Unread: total}, nil
}

func (s *notificationService) MarkRead(ctx context.Context, actor policy.Actor, id string) (dto.NotificationResponse, error) {
	if err := requireActor(actor); err != nil {
		return dto.NotificationResponse{}, err
	}

	spanCtx, span := s.tracer.Start(ctx, "notifications.mark_read", trace.WithAttributes(
		attribute.String("notification.user_id", actor.ID),
	))
	defer span.End()

	notification, err := s.repo.MarkRead(spanCtx, id, actor.ID, s.now().UTC())
	if err != nil {
		span.RecordError(err)
		return dto.NotificationResponse{}, lookup(err, "notification not found")
	}

	return dto.NewNotificationResponse(notification), nil
}

func (s *notificationService) MarkAllRead(ctx context.Context, actor policy.Actor) (dto.MarkAllReadResponse, error) {
	if err := requireActor(actor); err != nil {
		return dto.MarkAllReadResponse{}, err
	}
	updated, err := s.repo.MarkAllRead(ctx, actor.ID, s.now().UTC())
	if err != nil {
		return dto.MarkAllReadResponse{}, err
	}
	return dto.MarkAllReadResponse{Updated: updated}, nil
}

func (s *notificationService) Delete(ctx context.Context, actor policy.Actor, id string) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	return lookup(s.repo.Delete(ctx, id, actor.ID), "notification not found")
}

func (s *notificationService) Subscribe(userID, transport string) (<-chan dto.NotificationResponse, func()) {
	channel := make(chan dto.NotificationResponse, notificationBufferSize)

	s.broker.subscribe(userID, channel)
	gauge := observability.LiveSubscribers().WithLabelValues(transport)
	gauge.Inc()

	var once sync.Once
	cleanup := func() {
		once.Do(func() {
			s.broker.unsubscribe(userID, channel)
			gauge.Dec()
		})
	}

	return channel, cleanup
}

func (s *notificationService) publish(ctx context.Context, notification dto.NotificationResponse) error {
	if (s.redis == nil || s.redisChannel == "") && (s.nats == nil || s.natsSubject == "") {
		return nil
	}

	event := notificationEvent{
		Source:       s.nodeID,
		Notification: notification,
		SentAt:       s.now().UTC(),
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	if s.redis != nil && s.redisChannel != "" {
		if err := s.redis.Publish(ctx, s.redisChannel, payload).Err(); err != nil {
			return err
		}
	}

	if s.nats != nil && s.natsSubject != "" {
		if err := s.nats.Publish(s.natsSubject, payload); err != nil {
			return err
		}
	}

	return nil
}

func (s *notificationService) consumeRedis(ctx context.Context) {
	pubsub := s.redis.Subscribe(ctx, s.redisChannel)
	defer func() { _ = pubsub.Close() }()

	for {
		msg, err := pubsub.ReceiveMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, redis.ErrClosed) {
				return
			}
			s.logger.Error().Err(err).Msg("notification redis subscription closed")
			return
		}
		s.handleEvent([]byte(msg.Payload))
	}
}

// consumeNATS subscribes without a queue group so every node receives every
// event and can reach its own connected subscribers.
func (s *notificationService) consumeNATS(ctx context.Context) {
	sub, err := s.nats.Subscribe(s.natsSubject, func(msg *nats.Msg) {
		s.handleEvent(msg.Data)
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to subscribe to nats notifications subject")
		return
	}

	go func() {
		<-ctx.Done()
		if err := sub.Drain(); err != nil {
			s.logger.Warn().Err(err).Msg("failed to drain notification nats subscription")
		}
	}()
}

func (s *notificationService) handleEvent(payload []byte) {
	var event notificationEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		s.logger.Warn().Err(err).Msg("invalid notification event payload")
		return
	}

	if event.Source == s.nodeID || event.Notification.UserID == "" {
		return
	}

	s.broker.broadcast(event.Notification.UserID, event.Notification)
}

func (b *notificationBroker) subscribe(userID string, ch chan dto.NotificationResponse) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.subscribers[userID]; !exists {
		b.subscribers[userID] = make(map[chan dto.NotificationResponse]struct{})
	}
	b.subscribers[userID][ch] = struct{}{}
}

func (b *notificationBroker) unsubscribe(userID string, ch chan dto.NotificationResponse) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if subscribers, ok := b.subscribers[userID]; ok {
		if _, present := subscribers[ch]; present {
			delete(subscribers, ch)
			close(ch)
		}
		if len(subscribers) == 0 {
			delete(b.subscribers, userID)
		}
	}
}

// broadcast never blocks; slow subscribers miss events.
func (b *notificationBroker) broadcast(userID string, notification dto.NotificationResponse) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for ch := range b.subscribers[userID] {
		select {
		case ch <- notification:
		default:
		}
	}
}
