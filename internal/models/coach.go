package models

import "time"

// AvailabilityDay lists the slot labels a coach offers on one weekday.
type AvailabilityDay struct {
	Day   string   `json:"day"`
	Slots []string `json:"slots"`
}

type Coach struct {
	ID             int64             `json:"id"`
	UserID         int64             `json:"user_id"`
	Specialization []string          `json:"specialization"`
	Experience     int               `json:"experience"`
	Availability   []AvailabilityDay `json:"availability"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

type CoachDetail struct {
	Coach
	User PublicUser `json:"user"`
}
