package repository

import (
	"testing"
	"time"

	"github.com/hms-platform/notification-service/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestVisibilityFilter_WithDepartment(t *testing.T) {
	dept := primitive.NewObjectID()
	identity := models.Identity{
		UserID:       primitive.NewObjectID(),
		Role:         "Doctor",
		DepartmentID: &dept,
	}

	filter := VisibilityFilter(identity)
	clauses, ok := filter["$or"].([]bson.M)
	require.True(t, ok)
	require.Len(t, clauses, 4, "user, role, department and broadcast clauses")

	assert.Equal(t, identity.UserID, clauses[0]["target_users"])
	assert.Equal(t, "Doctor", clauses[1]["target_roles"])
	assert.Equal(t, dept, clauses[2]["target_departments"])
	assert.Contains(t, clauses[3], "$and", "last clause is the broadcast match")
}

func TestVisibilityFilter_WithoutDepartment(t *testing.T) {
	identity := models.Identity{UserID: primitive.NewObjectID(), Role: "Nurse"}

	filter := VisibilityFilter(identity)
	clauses, ok := filter["$or"].([]bson.M)
	require.True(t, ok)
	require.Len(t, clauses, 3, "no department clause for an identity without a department")

	for _, clause := range clauses {
		assert.NotContains(t, clause, "target_departments",
			"missing department must never generate a department membership test")
	}
}

func TestBroadcastClause_RequiresAllThreeEmpty(t *testing.T) {
	clause := broadcastClause()
	and, ok := clause["$and"].([]bson.M)
	require.True(t, ok)
	require.Len(t, and, 3)
}

func TestActiveFilter_Scopes(t *testing.T) {
	identity := models.Identity{UserID: primitive.NewObjectID(), Role: "Nurse"}
	now := time.Now()

	t.Run("all adds no extra clause", func(t *testing.T) {
		filter := ActiveFilter(identity, models.ListFilter{Scope: models.ScopeAll}, now)
		and := filter["$and"].([]bson.M)
		assert.Len(t, and, 2, "visibility and expiry only")
	})

	t.Run("unread restricts on receipts", func(t *testing.T) {
		filter := ActiveFilter(identity, models.ListFilter{Scope: models.ScopeUnread}, now)
		and := filter["$and"].([]bson.M)
		require.Len(t, and, 3)
		assert.Equal(t, bson.M{"$ne": identity.UserID}, and[2]["read_by.user_id"])
	})

	t.Run("critical restricts on type", func(t *testing.T) {
		filter := ActiveFilter(identity, models.ListFilter{Scope: models.ScopeCritical}, now)
		and := filter["$and"].([]bson.M)
		require.Len(t, and, 3)
		assert.Equal(t, bson.M{"type": models.TypeCritical}, and[2])
	})

	t.Run("category and type equality constraints", func(t *testing.T) {
		filter := ActiveFilter(identity, models.ListFilter{
			Scope:    models.ScopeAll,
			Category: models.CategorySecurity,
			Type:     models.TypeWarning,
		}, now)
		and := filter["$and"].([]bson.M)
		require.Len(t, and, 4)
		assert.Equal(t, bson.M{"category": models.CategorySecurity}, and[2])
		assert.Equal(t, bson.M{"type": models.TypeWarning}, and[3])
	})
}

func TestActiveFilter_AlwaysExcludesExpired(t *testing.T) {
	identity := models.Identity{UserID: primitive.NewObjectID(), Role: "Nurse"}
	now := time.Now()

	filter := ActiveFilter(identity, models.ListFilter{Scope: models.ScopeAll}, now)
	and := filter["$and"].([]bson.M)
	require.Len(t, and, 2)

	expiry, ok := and[1]["$or"].([]bson.M)
	require.True(t, ok)
	require.Len(t, expiry, 2)
	assert.Equal(t, bson.M{"$exists": false}, expiry[0]["expires_at"])
	assert.Equal(t, bson.M{"$gt": now}, expiry[1]["expires_at"])
}
