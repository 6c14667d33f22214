package services

import (
	"context"
	"fmt"
	"time"

	"github.com/hms-platform/notification-service/internal/models"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

// NotificationService owns the notification lifecycle: creation, listing with
// per-caller read annotation, read tracking and deletion.
type NotificationService struct {
	store NotificationStore
}

func NewNotificationService(store NotificationStore) *NotificationService {
	return &NotificationService{store: store}
}

// CreateNotificationInput carries the creation fields. Empty target sets mean
// a global broadcast.
type CreateNotificationInput struct {
	Title             string                      `json:"title"`
	Message           string                      `json:"message"`
	Type              models.NotificationType     `json:"type"`
	Priority          models.NotificationPriority `json:"priority"`
	Category          models.NotificationCategory `json:"category"`
	TargetUsers       []primitive.ObjectID        `json:"target_users"`
	TargetRoles       []string                    `json:"target_roles"`
	TargetDepartments []primitive.ObjectID        `json:"target_departments"`
	Data              map[string]interface{}      `json:"data"`
	ActionURL         string                      `json:"action_url"`
	ExpiresAt         *time.Time                  `json:"expires_at"`
}

// SenderContext is the authenticated staff member creating a notification.
// A nil SenderContext marks the notification as system-generated.
type SenderContext struct {
	UserID primitive.ObjectID
	Name   string
	Role   string
}

// FeedItem is one listing entry. IsRead here is the caller's own read status,
// derived from their receipt, never the document's aggregate flag.
type FeedItem struct {
	ID        primitive.ObjectID          `json:"id"`
	Title     string                      `json:"title"`
	Message   string                      `json:"message"`
	Type      models.NotificationType     `json:"type"`
	Priority  models.NotificationPriority `json:"priority"`
	Category  models.NotificationCategory `json:"category"`
	IsRead    bool                        `json:"is_read"`
	Sender    models.Sender               `json:"sender"`
	Data      map[string]interface{}      `json:"data,omitempty"`
	ActionURL string                      `json:"action_url,omitempty"`
	CreatedAt time.Time                   `json:"created_at"`
	ExpiresAt *time.Time                  `json:"expires_at,omitempty"`
}

// NotificationFeed is a listing page. UnreadCount is the identity's overall
// unread total across everything visible to them, independent of the page's
// scope/category/type filters.
type NotificationFeed struct {
	Items       []FeedItem `json:"items"`
	TotalCount  int64      `json:"total_count"`
	UnreadCount int64      `json:"unread_count"`
	Page        int64      `json:"page"`
	Limit       int64      `json:"limit"`
	TotalPages  int64      `json:"total_pages"`
}

// CreateNotification validates the input, fills defaults and stores the
// notification. Validation happens before any store write.
func (s *NotificationService) CreateNotification(ctx context.Context, input *CreateNotificationInput, sender *SenderContext) (*models.Notification, error) {
	if input.Title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrValidation)
	}
	if input.Message == "" {
		return nil, fmt.Errorf("%w: message is required", ErrValidation)
	}
	if input.Category == "" {
		return nil, fmt.Errorf("%w: category is required", ErrValidation)
	}
	if !input.Category.Valid() {
		return nil, fmt.Errorf("%w: unknown category %q", ErrValidation, input.Category)
	}

	notifType := input.Type
	if notifType == "" {
		notifType = models.TypeInfo
	}
	if !notifType.Valid() {
		return nil, fmt.Errorf("%w: unknown type %q", ErrValidation, input.Type)
	}

	priority := input.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}
	if !priority.Valid() {
		return nil, fmt.Errorf("%w: unknown priority %q", ErrValidation, input.Priority)
	}

	now := time.Now()
	notif := &models.Notification{
		Title:             input.Title,
		Message:           input.Message,
		Type:              notifType,
		Priority:          priority,
		Category:          input.Category,
		TargetUsers:       input.TargetUsers,
		TargetRoles:       input.TargetRoles,
		TargetDepartments: input.TargetDepartments,
		Data:              input.Data,
		ActionURL:         input.ActionURL,
		ExpiresAt:         input.ExpiresAt,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if sender != nil {
		notif.Sender = models.Sender{
			UserID: &sender.UserID,
			Name:   sender.Name,
			Role:   sender.Role,
		}
	} else {
		notif.Sender = models.Sender{System: true}
	}

	return s.store.Insert(ctx, notif)
}

// ListNotifications returns one page of active notifications visible to the
// identity, annotated with the caller's own read status.
func (s *NotificationService) ListNotifications(ctx context.Context, identity models.Identity, filter models.ListFilter, page, limit int64) (*NotificationFeed, error) {
	if filter.Scope == "" {
		filter.Scope = models.ScopeAll
	}
	if !filter.Scope.Valid() {
		return nil, fmt.Errorf("%w: unknown scope %q", ErrValidation, filter.Scope)
	}
	if filter.Category != "" && !filter.Category.Valid() {
		return nil, fmt.Errorf("%w: unknown category %q", ErrValidation, filter.Category)
	}
	if filter.Type != "" && !filter.Type.Valid() {
		return nil, fmt.Errorf("%w: unknown type %q", ErrValidation, filter.Type)
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	notifications, err := s.store.FindVisible(ctx, identity, filter, page, limit)
	if err != nil {
		return nil, err
	}
	totalCount, err := s.store.CountVisible(ctx, identity, filter)
	if err != nil {
		return nil, err
	}
	// Deliberately a separate query: the overall unread total must ignore the
	// page's scope/category/type restrictions.
	unreadCount, err := s.store.CountUnread(ctx, identity)
	if err != nil {
		return nil, err
	}

	items := make([]FeedItem, 0, len(notifications))
	for i := range notifications {
		n := &notifications[i]
		items = append(items, FeedItem{
			ID:        n.ID,
			Title:     n.Title,
			Message:   n.Message,
			Type:      n.Type,
			Priority:  n.Priority,
			Category:  n.Category,
			IsRead:    n.ReadByUser(identity.UserID),
			Sender:    n.Sender,
			Data:      n.Data,
			ActionURL: n.ActionURL,
			CreatedAt: n.CreatedAt,
			ExpiresAt: n.ExpiresAt,
		})
	}

	totalPages := totalCount / limit
	if totalCount%limit != 0 {
		totalPages++
	}

	return &NotificationFeed{
		Items:       items,
		TotalCount:  totalCount,
		UnreadCount: unreadCount,
		Page:        page,
		Limit:       limit,
		TotalPages:  totalPages,
	}, nil
}

// MarkAsRead records that the identity read the notification. Idempotent: a
// repeat call is a no-op. The caller must be among the notification's
// targets; the reference frontend never sends reads for foreign
// notifications, so a mismatch here is either a bug or probing.
func (s *NotificationService) MarkAsRead(ctx context.Context, notifID primitive.ObjectID, identity models.Identity) error {
	notif, err := s.store.FindByID(ctx, notifID)
	if err != nil {
		return err
	}
	if notif == nil {
		return ErrNotFound
	}
	if !notif.TargetedAt(identity) {
		logrus.WithFields(logrus.Fields{
			"notification_id": notifID.Hex(),
			"user_id":         identity.UserID.Hex(),
		}).Warn("Read attempt on a foreign notification")
		return ErrNotTarget
	}

	appended, err := s.store.AppendReceipt(ctx, notifID, identity.UserID, time.Now())
	if err != nil {
		return err
	}
	if !appended {
		// Already read by this user.
		return nil
	}

	return s.recomputeAggregate(ctx, notifID)
}

// recomputeAggregate reloads the document and flips the stored aggregate flag
// once the receipt set satisfies the targeting mode. Two concurrent readers
// may both get here; both converge on true and the flag never reverts.
func (s *NotificationService) recomputeAggregate(ctx context.Context, notifID primitive.ObjectID) error {
	notif, err := s.store.FindByID(ctx, notifID)
	if err != nil {
		return err
	}
	if notif == nil || notif.IsRead || !notif.ComputeRead() {
		return nil
	}
	return s.store.SetAggregateRead(ctx, notifID, time.Now())
}

// MarkAllAsRead marks every visible unread notification as read by the
// identity and returns how many were touched. Each document update is atomic
// on its own; there is no cross-document transaction, so a failure mid-way
// leaves earlier notifications marked.
func (s *NotificationService) MarkAllAsRead(ctx context.Context, identity models.Identity) (int64, error) {
	unread, err := s.store.FindVisibleUnread(ctx, identity)
	if err != nil {
		return 0, err
	}

	var marked int64
	now := time.Now()
	for i := range unread {
		appended, err := s.store.AppendReceipt(ctx, unread[i].ID, identity.UserID, now)
		if err != nil {
			return marked, err
		}
		if !appended {
			continue
		}
		marked++
		if err := s.recomputeAggregate(ctx, unread[i].ID); err != nil {
			return marked, err
		}
	}

	logrus.WithFields(logrus.Fields{
		"user_id": identity.UserID.Hex(),
		"count":   marked,
	}).Info("Marked all notifications as read")
	return marked, nil
}

// DeleteNotification hard-removes a notification.
func (s *NotificationService) DeleteNotification(ctx context.Context, notifID primitive.ObjectID) error {
	deleted, err := s.store.Delete(ctx, notifID)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrNotFound
	}
	return nil
}

// GetStats returns the admin-wide aggregate view. Unlike listings it is not
// identity-scoped and its unread counts use the stored aggregate flag.
func (s *NotificationService) GetStats(ctx context.Context) (*models.NotificationStats, error) {
	return s.store.Stats(ctx, time.Now())
}

// UnreadCount returns the identity's overall unread total.
func (s *NotificationService) UnreadCount(ctx context.Context, identity models.Identity) (int64, error) {
	return s.store.CountUnread(ctx, identity)
}

// DeleteExpiredNotifications removes long-expired documents. Called by the
// cron sweep; listings never show expired documents either way.
func (s *NotificationService) DeleteExpiredNotifications(ctx context.Context) error {
	_, err := s.store.DeleteExpired(ctx, time.Now())
	return err
}
