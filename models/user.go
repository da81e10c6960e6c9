package models

import (
	"strings"
	"time"
)

type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	FirstName    string    `gorm:"not null;size:100" json:"first_name"`
	LastName     string    `gorm:"not null;size:100" json:"last_name"`
	FullName     string    `gorm:"uniqueIndex;not null;size:200" json:"full_name"`
	Email        string    `gorm:"uniqueIndex;not null;size:200" json:"email"`
	PasswordHash string    `gorm:"not null" json:"-"`
	Category     string    `gorm:"size:100" json:"category"`
	TeamID       *uint     `gorm:"index" json:"team_id"`
	Team         *Team     `gorm:"foreignKey:TeamID" json:"team,omitempty"`
}

// BuildFullName derives the natural join key used to match uploaded rows
// against registered members.
func BuildFullName(firstName, lastName string) string {
	return strings.TrimSpace(firstName) + " " + strings.TrimSpace(lastName)
}
