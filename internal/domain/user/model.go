package user

import "time"

// User is an authenticated identity, optionally linked to one player.
type User struct {
	ID                int64
	PlayerID          *int64
	Roles             RoleSet
	SessionToken      string
	SessionExpiration *time.Time
	LastLogin         *time.Time
	Created           time.Time
	Updated           *time.Time
}

// Principal is the caller identity resolved from an access token.
type Principal struct {
	UserID   int64
	PlayerID *int64
	Roles    RoleSet
}
