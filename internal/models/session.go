package models

import "time"

// Session binds an external identity (chat or account id) to a logged-in user.
type Session struct {
	ExternalID int64
	UserName   string
	CreatedAt  time.Time
}
