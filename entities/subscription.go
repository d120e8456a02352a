package entities

import "time"

const (
	SubscriptionActive   = "active"
	SubscriptionCanceled = "canceled"
)

type UserSubscription struct {
	ID         uint       `gorm:"primaryKey" json:"-"`
	UserID     string     `json:"user_id" gorm:"uniqueIndex;not null"`
	PlanID     string     `json:"plan_id" gorm:"not null"`
	Estado     string     `json:"estado"`
	StartedAt  time.Time  `json:"started_at"`
	RenewsAt   *time.Time `json:"renews_at,omitempty"`
	CanceledAt *time.Time `json:"canceled_at,omitempty"`
	CreatedAt  time.Time  `json:"-"`
	UpdatedAt  time.Time  `json:"-"`
}
