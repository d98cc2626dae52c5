package models

import (
	"time"
)

// Connection status constants.
const (
	ConnectionStatusPending  = "pending"
	ConnectionStatusAccepted = "accepted"
	ConnectionStatusDeclined = "declined"
)

// Connection is a directed edge from the requester (FromUserID) to the
// recipient (ToUserID). At most one row exists per ordered pair.
type Connection struct {
	ID         int64     `json:"id"`
	FromUserID int64     `json:"from_user"`
	ToUserID   int64     `json:"to_user"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"-"`
	UpdatedAt  time.Time `json:"-"`
}

// IsTerminalStatus reports whether status is a resolved state that a
// pending connection can move into.
func IsTerminalStatus(status string) bool {
	return status == ConnectionStatusAccepted || status == ConnectionStatusDeclined
}

// MutualCandidate is a user the caller is not connected to, together with the
// number of the caller's accepted connections that user also points at.
type MutualCandidate struct {
	UserID      int64
	MutualCount int
}
