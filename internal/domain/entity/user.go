package entity

import (
	"time"
)

// User is the slice of the user record the messaging core consumes.
type User struct {
	ID                  string    `json:"_id" firestore:"id"`
	Username            string    `json:"username" firestore:"username"`
	NotificationToken   string    `json:"-" firestore:"notificationToken"`
	NotificationEnabled bool      `json:"notificationEnabled" firestore:"notificationEnabled"`
	LastSeen            time.Time `json:"lastSeen" firestore:"lastSeen"`
	UpdatedAt           time.Time `json:"updatedAt" firestore:"updatedAt"`
}

// NotificationSubscription is the opaque push endpoint descriptor plus its switch.
type NotificationSubscription struct {
	Token   string `json:"token"`
	Enabled bool   `json:"enabled"`
}

// Deliverable reports whether a push may be attempted at all.
func (s NotificationSubscription) Deliverable() bool {
	return s.Enabled && s.Token != ""
}

func (u *User) Subscription() NotificationSubscription {
	return NotificationSubscription{Token: u.NotificationToken, Enabled: u.NotificationEnabled}
}
