package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NotificationType drives default urgency semantics on the dashboard.
type NotificationType string

const (
	TypeCritical NotificationType = "critical"
	TypeWarning  NotificationType = "warning"
	TypeInfo     NotificationType = "info"
	TypeSuccess  NotificationType = "success"
)

func (t NotificationType) Valid() bool {
	switch t {
	case TypeCritical, TypeWarning, TypeInfo, TypeSuccess:
		return true
	}
	return false
}

// NotificationPriority is independent of the type.
type NotificationPriority string

const (
	PriorityHigh   NotificationPriority = "high"
	PriorityMedium NotificationPriority = "medium"
	PriorityLow    NotificationPriority = "low"
)

func (p NotificationPriority) Valid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

type NotificationCategory string

const (
	CategorySystem      NotificationCategory = "system"
	CategoryAppointment NotificationCategory = "appointment"
	CategoryPatient     NotificationCategory = "patient"
	CategoryStaff       NotificationCategory = "staff"
	CategoryInventory   NotificationCategory = "inventory"
	CategorySecurity    NotificationCategory = "security"
)

func (c NotificationCategory) Valid() bool {
	switch c {
	case CategorySystem, CategoryAppointment, CategoryPatient, CategoryStaff, CategoryInventory, CategorySecurity:
		return true
	}
	return false
}

// Identity is the authenticated caller as the auth layer hands it to the core.
// DepartmentID is nil for staff without a department assignment.
type Identity struct {
	UserID       primitive.ObjectID
	Role         string
	DepartmentID *primitive.ObjectID
}

// Sender identifies who created a notification. System-generated notifications
// carry System=true and no user reference.
type Sender struct {
	UserID *primitive.ObjectID `bson:"user_id,omitempty" json:"user_id,omitempty"`
	Name   string              `bson:"name,omitempty" json:"name,omitempty"`
	Role   string              `bson:"role,omitempty" json:"role,omitempty"`
	System bool                `bson:"system" json:"system"`
}

// ReadReceipt records that one user read the notification. At most one per user.
type ReadReceipt struct {
	UserID primitive.ObjectID `bson:"user_id" json:"user_id"`
	ReadAt time.Time          `bson:"read_at" json:"read_at"`
}

type Notification struct {
	ID                primitive.ObjectID     `bson:"_id,omitempty" json:"id"`
	Title             string                 `bson:"title" json:"title"`
	Message           string                 `bson:"message" json:"message"`
	Type              NotificationType       `bson:"type" json:"type"`
	Priority          NotificationPriority   `bson:"priority" json:"priority"`
	Category          NotificationCategory   `bson:"category" json:"category"`
	TargetUsers       []primitive.ObjectID   `bson:"target_users,omitempty" json:"target_users,omitempty"`
	TargetRoles       []string               `bson:"target_roles,omitempty" json:"target_roles,omitempty"`
	TargetDepartments []primitive.ObjectID   `bson:"target_departments,omitempty" json:"target_departments,omitempty"`
	Sender            Sender                 `bson:"sender" json:"sender"`
	Data              map[string]interface{} `bson:"data,omitempty" json:"data,omitempty"` // opaque payload, not interpreted
	ActionURL         string                 `bson:"action_url,omitempty" json:"action_url,omitempty"`
	ReadBy            []ReadReceipt          `bson:"read_by,omitempty" json:"read_by,omitempty"`
	IsRead            bool                   `bson:"is_read" json:"is_read"` // aggregate flag, see ComputeRead
	ExpiresAt         *time.Time             `bson:"expires_at,omitempty" json:"expires_at,omitempty"`
	CreatedAt         time.Time              `bson:"created_at" json:"created_at"`
	UpdatedAt         time.Time              `bson:"updated_at" json:"updated_at"`
}

// IsBroadcast reports whether the notification targets everyone: no explicit
// users, roles or departments means a global broadcast.
func (n *Notification) IsBroadcast() bool {
	return len(n.TargetUsers) == 0 && len(n.TargetRoles) == 0 && len(n.TargetDepartments) == 0
}

// TargetedAt reports whether the given identity is in the notification's
// audience. Any single match grants visibility. A missing department never
// acts as a wildcard: identities without a department match no department
// target.
func (n *Notification) TargetedAt(id Identity) bool {
	if n.IsBroadcast() {
		return true
	}
	for _, u := range n.TargetUsers {
		if u == id.UserID {
			return true
		}
	}
	for _, r := range n.TargetRoles {
		if r == id.Role {
			return true
		}
	}
	if id.DepartmentID != nil {
		for _, d := range n.TargetDepartments {
			if d == *id.DepartmentID {
				return true
			}
		}
	}
	return false
}

// ReadByUser reports whether the given user has a receipt on this
// notification. Listings and unread counts use this, never the aggregate
// IsRead flag.
func (n *Notification) ReadByUser(userID primitive.ObjectID) bool {
	for _, r := range n.ReadBy {
		if r.UserID == userID {
			return true
		}
	}
	return false
}

// Expired reports whether the notification has passed its expiry instant.
// Notifications without an expiry never expire.
func (n *Notification) Expired(now time.Time) bool {
	return n.ExpiresAt != nil && !n.ExpiresAt.After(now)
}

// MarkRead appends a read receipt for userID and recomputes the aggregate
// IsRead flag. It reports whether the notification changed; a second call for
// the same user is a no-op. Persistence is the caller's job.
func (n *Notification) MarkRead(userID primitive.ObjectID, now time.Time) bool {
	if n.ReadByUser(userID) {
		return false
	}
	n.ReadBy = append(n.ReadBy, ReadReceipt{UserID: userID, ReadAt: now})
	if !n.IsRead && n.ComputeRead() {
		n.IsRead = true
	}
	n.UpdatedAt = now
	return true
}

// ComputeRead derives the aggregate read flag from the receipts. With explicit
// user targets the notification is read once every target has a receipt; with
// role/department/broadcast targeting a single receipt from anyone suffices.
func (n *Notification) ComputeRead() bool {
	if len(n.TargetUsers) == 0 {
		return len(n.ReadBy) > 0
	}
	for _, u := range n.TargetUsers {
		if !n.ReadByUser(u) {
			return false
		}
	}
	return true
}
