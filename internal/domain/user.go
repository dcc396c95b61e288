package domain

// User is the owner of notifications. Notifications hold a weak reference
// to it; delivery recipients are resolved from account configuration, not
// from this record.
type User struct {
	ID    int64
	Email string
	Phone string
}
