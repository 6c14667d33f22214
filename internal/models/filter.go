package models

// ListScope narrows a listing beyond visibility.
type ListScope string

const (
	ScopeAll      ListScope = "all"
	ScopeUnread   ListScope = "unread"
	ScopeCritical ListScope = "critical"
)

func (s ListScope) Valid() bool {
	switch s {
	case ScopeAll, ScopeUnread, ScopeCritical:
		return true
	}
	return false
}

// ListFilter carries the optional listing restrictions on top of the caller's
// visibility. Zero values mean "no restriction".
type ListFilter struct {
	Scope    ListScope
	Category NotificationCategory
	Type     NotificationType
}

// CategoryStats is one row of the admin per-category breakdown. Unread here
// counts documents whose stored aggregate flag is false, not any particular
// caller's receipts.
type CategoryStats struct {
	Count  int64 `bson:"count" json:"count"`
	Unread int64 `bson:"unread" json:"unread"`
}

// NotificationStats is the admin-wide aggregate view.
type NotificationStats struct {
	Total      int64                                  `json:"total"`
	Unread     int64                                  `json:"unread"`
	Critical   int64                                  `json:"critical"`
	Expired    int64                                  `json:"expired"`
	Last24h    int64                                  `json:"last_24h"`
	ByCategory map[NotificationCategory]CategoryStats `json:"by_category"`
}
