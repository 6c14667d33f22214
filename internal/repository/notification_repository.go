package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hms-platform/notification-service/internal/models"
	"github.com/hms-platform/notification-service/pkg/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// NotificationRepository handles database operations on the notifications
// collection.
type NotificationRepository struct {
	collection *mongo.Collection
}

func NewNotificationRepository(db *mongo.Database) *NotificationRepository {
	return &NotificationRepository{
		collection: db.Collection("notifications"),
	}
}

// emptyOrMissing matches documents where the array field is absent or empty.
// Empty target arrays are dropped on insert (omitempty), but documents written
// by other producers may carry explicit empty arrays.
func emptyOrMissing(field string) bson.M {
	return bson.M{"$or": []bson.M{
		{field: bson.M{"$exists": false}},
		{field: bson.M{"$size": 0}},
	}}
}

// broadcastClause matches notifications with no explicit audience at all.
func broadcastClause() bson.M {
	return bson.M{"$and": []bson.M{
		emptyOrMissing("target_users"),
		emptyOrMissing("target_roles"),
		emptyOrMissing("target_departments"),
	}}
}

// VisibilityFilter builds the audience filter for an identity: member of
// target_users, target_roles or target_departments, or a global broadcast.
// An identity without a department gets no department clause at all, so a
// missing department can never match anything.
func VisibilityFilter(id models.Identity) bson.M {
	or := []bson.M{
		{"target_users": id.UserID},
		{"target_roles": id.Role},
	}
	if id.DepartmentID != nil {
		or = append(or, bson.M{"target_departments": *id.DepartmentID})
	}
	or = append(or, broadcastClause())
	return bson.M{"$or": or}
}

// notExpiredClause keeps notifications with no expiry or an expiry still in
// the future. Expired documents stay in the collection until the sweep job
// removes them; listings just never see them.
func notExpiredClause(now time.Time) bson.M {
	return bson.M{"$or": []bson.M{
		{"expires_at": bson.M{"$exists": false}},
		{"expires_at": bson.M{"$gt": now}},
	}}
}

// unreadClause matches documents carrying no receipt for the user.
func unreadClause(userID primitive.ObjectID) bson.M {
	return bson.M{"read_by.user_id": bson.M{"$ne": userID}}
}

// ActiveFilter combines visibility with the not-expired clause and the
// optional listing restrictions.
func ActiveFilter(id models.Identity, f models.ListFilter, now time.Time) bson.M {
	and := []bson.M{
		VisibilityFilter(id),
		notExpiredClause(now),
	}
	switch f.Scope {
	case models.ScopeUnread:
		and = append(and, unreadClause(id.UserID))
	case models.ScopeCritical:
		and = append(and, bson.M{"type": models.TypeCritical})
	}
	if f.Category != "" {
		and = append(and, bson.M{"category": f.Category})
	}
	if f.Type != "" {
		and = append(and, bson.M{"type": f.Type})
	}
	return bson.M{"$and": and}
}

// Insert stores a new notification and returns it with its assigned id.
func (r *NotificationRepository) Insert(ctx context.Context, notif *models.Notification) (*models.Notification, error) {
	result, err := r.collection.InsertOne(ctx, notif)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to insert notification")
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		logger.Log.Error("Failed to cast inserted notification ID")
		return nil, fmt.Errorf("unexpected inserted id type %T", result.InsertedID)
	}
	notif.ID = insertedID

	logger.Log.WithField("notification_id", notif.ID.Hex()).Info("Notification created")
	return notif, nil
}

// FindByID fetches a single notification. A missing document yields
// (nil, nil) so the service layer can map it to its own NotFound error.
func (r *NotificationRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Notification, error) {
	var notif models.Notification
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&notif)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		logger.Log.WithError(err).WithField("notification_id", id.Hex()).Error("Failed to find notification")
		return nil, fmt.Errorf("failed to fetch notification: %w", err)
	}
	return &notif, nil
}

// FindVisible returns one page of active notifications for the identity,
// newest first. The _id tiebreak keeps pagination stable for documents
// created in the same instant.
func (r *NotificationRepository) FindVisible(ctx context.Context, id models.Identity, f models.ListFilter, page, limit int64) ([]models.Notification, error) {
	filter := ActiveFilter(id, f, time.Now())
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip((page - 1) * limit).
		SetLimit(limit)

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		logger.Log.WithError(err).WithField("user_id", id.UserID.Hex()).Error("Failed to fetch notifications")
		return nil, fmt.Errorf("failed to fetch notifications: %w", err)
	}
	defer cursor.Close(ctx)

	var notifications []models.Notification
	if err := cursor.All(ctx, &notifications); err != nil {
		return nil, fmt.Errorf("failed to decode notifications: %w", err)
	}
	return notifications, nil
}

// CountVisible counts the active notifications matching the listing filter,
// before pagination.
func (r *NotificationRepository) CountVisible(ctx context.Context, id models.Identity, f models.ListFilter) (int64, error) {
	count, err := r.collection.CountDocuments(ctx, ActiveFilter(id, f, time.Now()))
	if err != nil {
		logger.Log.WithError(err).WithField("user_id", id.UserID.Hex()).Error("Failed to count notifications")
		return 0, fmt.Errorf("failed to count notifications: %w", err)
	}
	return count, nil
}

// CountUnread counts every active notification visible to the identity that
// the identity has not read. Built from scratch on purpose: it must not
// inherit scope/category/type restrictions from any listing call.
func (r *NotificationRepository) CountUnread(ctx context.Context, id models.Identity) (int64, error) {
	filter := bson.M{"$and": []bson.M{
		VisibilityFilter(id),
		notExpiredClause(time.Now()),
		unreadClause(id.UserID),
	}}
	count, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		logger.Log.WithError(err).WithField("user_id", id.UserID.Hex()).Error("Failed to count unread notifications")
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}

// FindVisibleUnread returns every active, visible notification without a
// receipt for the identity. Used by mark-all-as-read.
func (r *NotificationRepository) FindVisibleUnread(ctx context.Context, id models.Identity) ([]models.Notification, error) {
	filter := bson.M{"$and": []bson.M{
		VisibilityFilter(id),
		notExpiredClause(time.Now()),
		unreadClause(id.UserID),
	}}

	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		logger.Log.WithError(err).WithField("user_id", id.UserID.Hex()).Error("Failed to fetch unread notifications")
		return nil, fmt.Errorf("failed to fetch unread notifications: %w", err)
	}
	defer cursor.Close(ctx)

	var notifications []models.Notification
	if err := cursor.All(ctx, &notifications); err != nil {
		return nil, fmt.Errorf("failed to decode unread notifications: %w", err)
	}
	return notifications, nil
}

// AppendReceipt atomically appends a read receipt for userID unless one
// already exists. The guard lives in the update filter, so two concurrent
// calls for the same user can never produce two receipts. Reports whether a
// receipt was appended.
func (r *NotificationRepository) AppendReceipt(ctx context.Context, id, userID primitive.ObjectID, now time.Time) (bool, error) {
	filter := bson.M{
		"_id":             id,
		"read_by.user_id": bson.M{"$ne": userID},
	}
	update := bson.M{
		"$push": bson.M{"read_by": models.ReadReceipt{UserID: userID, ReadAt: now}},
		"$set":  bson.M{"updated_at": now},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		logger.Log.WithError(err).WithFields(map[string]interface{}{
			"notification_id": id.Hex(),
			"user_id":         userID.Hex(),
		}).Error("Failed to append read receipt")
		return false, fmt.Errorf("failed to append read receipt: %w", err)
	}
	return result.ModifiedCount == 1, nil
}

// SetAggregateRead flips the stored aggregate flag to true. The flag is
// one-way, so concurrent recomputes converge on the same value.
func (r *NotificationRepository) SetAggregateRead(ctx context.Context, id primitive.ObjectID, now time.Time) error {
	_, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "is_read": false},
		bson.M{"$set": bson.M{"is_read": true, "updated_at": now}},
	)
	if err != nil {
		logger.Log.WithError(err).WithField("notification_id", id.Hex()).Error("Failed to set aggregate read flag")
		return fmt.Errorf("failed to set read flag: %w", err)
	}
	return nil
}

// Delete hard-removes a notification. Reports whether a document was removed.
func (r *NotificationRepository) Delete(ctx context.Context, id primitive.ObjectID) (bool, error) {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		logger.Log.WithError(err).WithField("notification_id", id.Hex()).Error("Failed to delete notification")
		return false, fmt.Errorf("failed to delete notification: %w", err)
	}
	if result.DeletedCount == 0 {
		return false, nil
	}
	logger.Log.WithField("notification_id", id.Hex()).Info("Notification deleted")
	return true, nil
}

// Stats computes the admin-wide aggregate view. Scalar counts come from
// CountDocuments; the per-category breakdown runs a single $group pipeline.
// Unread everywhere here means the stored aggregate flag, not any caller's
// receipts.
func (r *NotificationRepository) Stats(ctx context.Context, now time.Time) (*models.NotificationStats, error) {
	stats := &models.NotificationStats{
		ByCategory: make(map[models.NotificationCategory]models.CategoryStats),
	}

	counts := []struct {
		dst    *int64
		filter bson.M
	}{
		{&stats.Total, bson.M{}},
		{&stats.Unread, bson.M{"is_read": false}},
		{&stats.Critical, bson.M{"type": models.TypeCritical}},
		{&stats.Expired, bson.M{"expires_at": bson.M{"$lte": now}}},
		{&stats.Last24h, bson.M{"created_at": bson.M{"$gte": now.Add(-24 * time.Hour)}}},
	}
	for _, c := range counts {
		n, err := r.collection.CountDocuments(ctx, c.filter)
		if err != nil {
			logger.Log.WithError(err).Error("Failed to count notifications for stats")
			return nil, fmt.Errorf("failed to compute notification stats: %w", err)
		}
		*c.dst = n
	}

	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$category"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
			{Key: "unread", Value: bson.D{{Key: "$sum", Value: bson.D{
				{Key: "$cond", Value: bson.A{"$is_read", 0, 1}},
			}}}},
		}}},
	}
	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to aggregate notifications by category")
		return nil, fmt.Errorf("failed to compute notification stats: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Category models.NotificationCategory `bson:"_id"`
		Count    int64                       `bson:"count"`
		Unread   int64                       `bson:"unread"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode notification stats: %w", err)
	}
	for _, row := range rows {
		stats.ByCategory[row.Category] = models.CategoryStats{Count: row.Count, Unread: row.Unread}
	}

	return stats, nil
}

// DeleteExpired removes notifications whose expiry passed before the cutoff.
// Listings already exclude expired documents; this is storage hygiene.
func (r *NotificationRepository) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.collection.DeleteMany(ctx, bson.M{"expires_at": bson.M{"$lte": cutoff}})
	if err != nil {
		logger.Log.WithError(err).Error("Failed to delete expired notifications")
		return 0, fmt.Errorf("failed to delete expired notifications: %w", err)
	}
	if result.DeletedCount > 0 {
		logger.Log.WithField("count", result.DeletedCount).Info("Deleted expired notifications")
	}
	return result.DeletedCount, nil
}
