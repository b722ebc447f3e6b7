// Package models defines server-side data models persisted in the database.
package models

import "time"

// Subscription is the account's plan.
type Subscription string

const (
	SubscriptionStarter  Subscription = "starter"
	SubscriptionPro      Subscription = "pro"
	SubscriptionBusiness Subscription = "business"
)

// Subscriptions lists every accepted plan, in display order.
var Subscriptions = []Subscription{SubscriptionStarter, SubscriptionPro, SubscriptionBusiness}

func (s Subscription) Valid() bool {
	for _, v := range Subscriptions {
		if s == v {
			return true
		}
	}
	return false
}

// User is an account holder.
//
// VerificationToken is non-empty only while Verified is false. Token is the
// single active session token; empty means logged out. PasswordHash is never
// serialized outward.
type User struct {
	ID                string
	Email             string
	PasswordHash      string
	Subscription      Subscription
	Verified          bool
	VerificationToken string
	Token             string
	AvatarURL         string
	OwnedContactIDs   []string
	CreatedAt         time.Time
}
