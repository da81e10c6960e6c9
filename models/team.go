package models

import (
	"time"
)

type Team struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Name      string    `gorm:"uniqueIndex;not null;size:100" json:"name"`
	CaptainID *uint     `gorm:"index" json:"captain_id"`
	Captain   *User     `gorm:"foreignKey:CaptainID" json:"captain,omitempty"`
	Users     []User    `gorm:"foreignKey:TeamID" json:"users,omitempty"`
}
