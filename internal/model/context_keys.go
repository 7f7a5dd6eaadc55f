package model

// ContextKey is a dedicated type for request context keys so values set by
// the auth middleware cannot collide with other packages.
type ContextKey string

const (
	// UserContextKey holds the authenticated user id (string).
	UserContextKey ContextKey = "userID"
)
