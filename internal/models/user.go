package models

import "time"

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
	RoleCoach = "coach"

	MembershipActive   = "active"
	MembershipInactive = "inactive"
)

type User struct {
	ID               int64     `json:"id"`
	Name             string    `json:"name"`
	Email            string    `json:"email"`
	PasswordHash     string    `json:"-"`
	Role             string    `json:"role"`
	MembershipStatus string    `json:"membership_status"`
	JoinDate         time.Time `json:"join_date"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// PublicUser is the user shape embedded in joined results.
type PublicUser struct {
	ID               int64     `json:"id"`
	Name             string    `json:"name"`
	Email            string    `json:"email"`
	Role             string    `json:"role"`
	MembershipStatus string    `json:"membership_status"`
	JoinDate         time.Time `json:"join_date"`
}

func (u User) Public() PublicUser {
	return PublicUser{
		ID:               u.ID,
		Name:             u.Name,
		Email:            u.Email,
		Role:             u.Role,
		MembershipStatus: u.MembershipStatus,
		JoinDate:         u.JoinDate,
	}
}

func IsValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleUser, RoleCoach:
		return true
	}
	return false
}

func IsValidMembershipStatus(status string) bool {
	return status == MembershipActive || status == MembershipInactive
}
