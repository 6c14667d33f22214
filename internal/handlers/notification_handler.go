package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/hms-platform/notification-service/internal/models"
	"github.com/hms-platform/notification-service/internal/services"
	jwtutil "github.com/hms-platform/notification-service/pkg/jwt"
	"github.com/hms-platform/notification-service/pkg/logger"
	"github.com/hms-platform/notification-service/pkg/middleware"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NotificationHandler handles HTTP requests for the notification feed.
type NotificationHandler struct {
	Service *services.NotificationService
}

func NewNotificationHandler(service *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{Service: service}
}

// identityFromClaims converts the JWT claims into the identity the service
// operates on. An unset or malformed department id means "no department".
func identityFromClaims(claims *jwtutil.Claims) (models.Identity, error) {
	userID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return models.Identity{}, err
	}

	identity := models.Identity{UserID: userID, Role: claims.Role}
	if claims.DepartmentID != "" {
		if deptID, err := primitive.ObjectIDFromHex(claims.DepartmentID); err == nil {
			identity.DepartmentID = &deptID
		}
	}
	return identity, nil
}

// writeError maps service errors onto HTTP statuses without leaking driver
// detail on infrastructure failures.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		http.Error(w, "Notification not found", http.StatusNotFound)
	case errors.Is(err, services.ErrValidation):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, services.ErrNotTarget):
		http.Error(w, "Forbidden", http.StatusForbidden)
	default:
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// GET /notifications
func (h *NotificationHandler) ListNotificationsHandler(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	identity, err := identityFromClaims(claims)
	if err != nil {
		log.WithError(err).Error("Failed to convert user ID")
		http.Error(w, "Invalid user ID", http.StatusInternalServerError)
		return
	}

	query := r.URL.Query()
	page, _ := strconv.ParseInt(query.Get("page"), 10, 64)
	limit, _ := strconv.ParseInt(query.Get("limit"), 10, 64)
	filter := models.ListFilter{
		Scope:    models.ListScope(query.Get("scope")),
		Category: models.NotificationCategory(query.Get("category")),
		Type:     models.NotificationType(query.Get("type")),
	}

	feed, err := h.Service.ListNotifications(r.Context(), identity, filter, page, limit)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to list notifications")
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, feed)
}

// GET /notifications/unread-count
func (h *NotificationHandler) UnreadCountHandler(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	identity, err := identityFromClaims(claims)
	if err != nil {
		http.Error(w, "Invalid user ID", http.StatusInternalServerError)
		return
	}

	count, err := h.Service.UnreadCount(r.Context(), identity)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to count unread notifications")
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]int64{"unread_count": count})
}

// POST /notifications
func (h *NotificationHandler) CreateNotificationHandler(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var input services.CreateNotificationInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		log.WithError(err).Warn("Invalid request payload during notification creation")
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	userID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		http.Error(w, "Invalid user ID", http.StatusInternalServerError)
		return
	}
	sender := &services.SenderContext{
		UserID: userID,
		Role:   claims.Role,
	}

	notif, err := h.Service.CreateNotification(r.Context(), &input, sender)
	if err != nil {
		log.WithError(err).Warn("Failed to create notification")
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, notif)
}

// POST /notifications/{id}/read
func (h *NotificationHandler) MarkAsReadHandler(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	identity, err := identityFromClaims(claims)
	if err != nil {
		http.Error(w, "Invalid user ID", http.StatusInternalServerError)
		return
	}

	vars := mux.Vars(r)
	notifID, err := primitive.ObjectIDFromHex(vars["id"])
	if err != nil {
		http.Error(w, "Invalid notification ID", http.StatusBadRequest)
		return
	}

	if err := h.Service.MarkAsRead(r.Context(), notifID, identity); err != nil {
		logger.Log.WithError(err).Error("Failed to mark notification as read")
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Notification marked as read"})
}

// POST /notifications/read-all
func (h *NotificationHandler) MarkAllAsReadHandler(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	identity, err := identityFromClaims(claims)
	if err != nil {
		http.Error(w, "Invalid user ID", http.StatusInternalServerError)
		return
	}

	marked, err := h.Service.MarkAllAsRead(r.Context(), identity)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to mark all notifications as read")
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]int64{"marked_count": marked})
}

// DELETE /notifications/{id}
func (h *NotificationHandler) DeleteNotificationHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	notifID, err := primitive.ObjectIDFromHex(vars["id"])
	if err != nil {
		http.Error(w, "Invalid notification ID", http.StatusBadRequest)
		return
	}

	if err := h.Service.DeleteNotification(r.Context(), notifID); err != nil {
		logger.Log.WithError(err).Error("Failed to delete notification")
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Notification deleted"})
}

// GET /notifications/stats
func (h *NotificationHandler) StatsHandler(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Service.GetStats(r.Context())
	if err != nil {
		logger.Log.WithError(err).Error("Failed to compute notification stats")
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}
