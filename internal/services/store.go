package services

import (
	"context"
	"time"

	"github.com/hms-platform/notification-service/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NotificationStore is the persistence surface the service needs. The Mongo
// repository satisfies it in production; tests use an in-memory fake so the
// targeting and read-state logic runs without a live database.
type NotificationStore interface {
	Insert(ctx context.Context, notif *models.Notification) (*models.Notification, error)
	// FindByID returns (nil, nil) when no document exists for the id.
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Notification, error)
	FindVisible(ctx context.Context, id models.Identity, f models.ListFilter, page, limit int64) ([]models.Notification, error)
	CountVisible(ctx context.Context, id models.Identity, f models.ListFilter) (int64, error)
	CountUnread(ctx context.Context, id models.Identity) (int64, error)
	FindVisibleUnread(ctx context.Context, id models.Identity) ([]models.Notification, error)
	// AppendReceipt reports whether a receipt was appended; false means the
	// user already had one (or the document is gone).
	AppendReceipt(ctx context.Context, id, userID primitive.ObjectID, now time.Time) (bool, error)
	SetAggregateRead(ctx context.Context, id primitive.ObjectID, now time.Time) error
	// Delete reports whether a document was removed.
	Delete(ctx context.Context, id primitive.ObjectID) (bool, error)
	Stats(ctx context.Context, now time.Time) (*models.NotificationStats, error)
	DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error)
}
