package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestTargetedAt_GlobalBroadcast(t *testing.T) {
	n := &Notification{Title: "maintenance window", Category: CategorySystem}
	require.True(t, n.IsBroadcast())

	dept := primitive.NewObjectID()
	identities := []Identity{
		{UserID: primitive.NewObjectID(), Role: "Doctor"},
		{UserID: primitive.NewObjectID(), Role: "Nurse", DepartmentID: &dept},
		{UserID: primitive.NewObjectID()},
	}
	for _, id := range identities {
		assert.True(t, n.TargetedAt(id), "broadcast must be visible to %s", id.Role)
	}
}

func TestTargetedAt_RoleDisjunction(t *testing.T) {
	n := &Notification{TargetRoles: []string{"Doctor"}}

	assert.True(t, n.TargetedAt(Identity{UserID: primitive.NewObjectID(), Role: "Doctor"}))
	assert.False(t, n.TargetedAt(Identity{UserID: primitive.NewObjectID(), Role: "Nurse"}))
}

func TestTargetedAt_AnySingleMatchGrantsVisibility(t *testing.T) {
	user := primitive.NewObjectID()
	dept := primitive.NewObjectID()
	n := &Notification{
		TargetUsers:       []primitive.ObjectID{user},
		TargetRoles:       []string{"Surgeon"},
		TargetDepartments: []primitive.ObjectID{dept},
	}

	assert.True(t, n.TargetedAt(Identity{UserID: user, Role: "Janitor"}), "user match")
	assert.True(t, n.TargetedAt(Identity{UserID: primitive.NewObjectID(), Role: "Surgeon"}), "role match")
	assert.True(t, n.TargetedAt(Identity{UserID: primitive.NewObjectID(), Role: "Janitor", DepartmentID: &dept}), "department match")
	assert.False(t, n.TargetedAt(Identity{UserID: primitive.NewObjectID(), Role: "Janitor"}), "no match")
}

func TestTargetedAt_MissingDepartmentIsNotWildcard(t *testing.T) {
	n := &Notification{TargetDepartments: []primitive.ObjectID{primitive.NewObjectID()}}

	// An identity without a department must not match a department-targeted
	// notification, whatever the stored values are.
	assert.False(t, n.TargetedAt(Identity{UserID: primitive.NewObjectID(), Role: "Doctor"}))
}

func TestMarkRead_Idempotent(t *testing.T) {
	user := primitive.NewObjectID()
	n := &Notification{TargetRoles: []string{"Nurse"}}
	now := time.Now()

	assert.True(t, n.MarkRead(user, now))
	assert.False(t, n.MarkRead(user, now.Add(time.Minute)), "second call must be a no-op")

	require.Len(t, n.ReadBy, 1)
	assert.Equal(t, user, n.ReadBy[0].UserID)
	assert.Equal(t, now, n.ReadBy[0].ReadAt)
}

func TestMarkRead_ExplicitTargetCompleteness(t *testing.T) {
	userA := primitive.NewObjectID()
	userB := primitive.NewObjectID()
	n := &Notification{TargetUsers: []primitive.ObjectID{userA, userB}}

	n.MarkRead(userA, time.Now())
	assert.False(t, n.IsRead, "one of two targets read it")

	n.MarkRead(userB, time.Now())
	assert.True(t, n.IsRead, "all explicit targets read it")
}

func TestMarkRead_BroadTargetingSingleReceiptSuffices(t *testing.T) {
	n := &Notification{TargetRoles: []string{"Doctor"}}

	n.MarkRead(primitive.NewObjectID(), time.Now())
	assert.True(t, n.IsRead, "any single receipt completes broad targeting")
}

func TestMarkRead_ReceiptFromNonTargetDoesNotComplete(t *testing.T) {
	userA := primitive.NewObjectID()
	outsider := primitive.NewObjectID()
	n := &Notification{TargetUsers: []primitive.ObjectID{userA}}

	n.MarkRead(outsider, time.Now())
	assert.False(t, n.IsRead, "outsider receipt must not satisfy explicit targets")

	n.MarkRead(userA, time.Now())
	assert.True(t, n.IsRead)
}

func TestReadByUser_IndependentOfAggregate(t *testing.T) {
	userX := primitive.NewObjectID()
	userY := primitive.NewObjectID()
	n := &Notification{TargetRoles: []string{"Nurse"}}

	n.MarkRead(userX, time.Now())

	// Aggregate flag is already true, but Y still has no receipt.
	assert.True(t, n.IsRead)
	assert.True(t, n.ReadByUser(userX))
	assert.False(t, n.ReadByUser(userY))
}

func TestExpired(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	assert.False(t, (&Notification{}).Expired(now), "no expiry never expires")
	assert.True(t, (&Notification{ExpiresAt: &past}).Expired(now))
	assert.False(t, (&Notification{ExpiresAt: &future}).Expired(now))
	assert.True(t, (&Notification{ExpiresAt: &now}).Expired(now), "expiry instant itself is expired")
}

func TestEnumValidation(t *testing.T) {
	assert.True(t, TypeCritical.Valid())
	assert.False(t, NotificationType("urgent").Valid())

	assert.True(t, PriorityLow.Valid())
	assert.False(t, NotificationPriority("extreme").Valid())

	assert.True(t, CategorySecurity.Valid())
	assert.False(t, NotificationCategory("billing").Valid())
}
