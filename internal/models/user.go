package models

import "time"

// User is a registered vault owner. UserName is the canonical spelling
// chosen at registration; lookups are case-insensitive.
type User struct {
	UserName     string
	PasswordHash []byte
	CreatedAt    time.Time
}
