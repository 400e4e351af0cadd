package models

import "time"

const (
	ScheduleStatusScheduled = "scheduled"
	ScheduleStatusCompleted = "completed"
	ScheduleStatusCancelled = "cancelled"
)

type Schedule struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	CoachID   int64     `json:"coach_id"`
	Date      time.Time `json:"date"`
	Time      string    `json:"time"`
	Type      string    `json:"type"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ScheduleDetail struct {
	Schedule
	User  PublicUser  `json:"user"`
	Coach CoachDetail `json:"coach"`
}

func IsValidScheduleStatus(status string) bool {
	switch status {
	case ScheduleStatusScheduled, ScheduleStatusCompleted, ScheduleStatusCancelled:
		return true
	}
	return false
}
