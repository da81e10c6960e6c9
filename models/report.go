package models

import (
	"time"
)

// WeeklyReport identifies one Monday-Sunday reporting period. At most one
// report exists per (start, end) pair; re-uploading the same week replaces
// the report and every stat that belongs to it.
type WeeklyReport struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	WeekStartDate time.Time `gorm:"not null;uniqueIndex:idx_week_bounds" json:"week_start_date"`
	WeekEndDate   time.Time `gorm:"not null;uniqueIndex:idx_week_bounds" json:"week_end_date"`
	UploadedAt    time.Time `gorm:"not null" json:"uploaded_at"`
}
