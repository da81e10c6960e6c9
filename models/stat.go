package models

import (
	"time"
)

// Metrics is the fixed weekly activity vector tracked per member. JSON keys
// follow the column codes used on the chapter's upload sheets (P, A, RGI,
// TYFCB and so on). TR and CON are free-form numeric extension fields that
// are stored and summed but carry no score weight.
type Metrics struct {
	Present              int     `gorm:"column:present;not null;default:0" json:"P"`
	Absent               int     `gorm:"column:absent;not null;default:0" json:"A"`
	Late                 int     `gorm:"column:late;not null;default:0" json:"L"`
	Medical              int     `gorm:"column:medical;not null;default:0" json:"M"`
	Substitute           int     `gorm:"column:substitute;not null;default:0" json:"S"`
	ReferralsGivenIn     int     `gorm:"column:referrals_given_in;not null;default:0" json:"RGI"`
	ReferralsGivenOut    int     `gorm:"column:referrals_given_out;not null;default:0" json:"RGO"`
	ReferralsReceivedIn  int     `gorm:"column:referrals_received_in;not null;default:0" json:"RRI"`
	ReferralsReceivedOut int     `gorm:"column:referrals_received_out;not null;default:0" json:"RRO"`
	Visitors             int     `gorm:"column:visitors;not null;default:0" json:"V"`
	OneToOnes            int     `gorm:"column:one_to_ones;not null;default:0" json:"oneToOne"`
	CEU                  int     `gorm:"column:ceu;not null;default:0" json:"CEU"`
	Trainings            int     `gorm:"column:trainings;not null;default:0" json:"T"`
	TYFCBAmount          float64 `gorm:"column:tyfcb_amount;not null;default:0" json:"TYFCB_amount"`
	TR                   float64 `gorm:"column:tr;not null;default:0" json:"TR"`
	CON                  float64 `gorm:"column:con;not null;default:0" json:"CON"`
}

// Add accumulates another vector element-wise onto m.
func (m *Metrics) Add(o Metrics) {
	m.Present += o.Present
	m.Absent += o.Absent
	m.Late += o.Late
	m.Medical += o.Medical
	m.Substitute += o.Substitute
	m.ReferralsGivenIn += o.ReferralsGivenIn
	m.ReferralsGivenOut += o.ReferralsGivenOut
	m.ReferralsReceivedIn += o.ReferralsReceivedIn
	m.ReferralsReceivedOut += o.ReferralsReceivedOut
	m.Visitors += o.Visitors
	m.OneToOnes += o.OneToOnes
	m.CEU += o.CEU
	m.Trainings += o.Trainings
	m.TYFCBAmount += o.TYFCBAmount
	m.TR += o.TR
	m.CON += o.CON
}

// MetricColumns lists the database columns of the metric vector in
// declaration order, for bulk updates and aggregate selects.
var MetricColumns = []string{
	"present", "absent", "late", "medical", "substitute",
	"referrals_given_in", "referrals_given_out", "referrals_received_in", "referrals_received_out",
	"visitors", "one_to_ones", "ceu", "trainings", "tyfcb_amount", "tr", "con",
}

// UserWeeklyStat is the merged metric vector and derived score for one member
// in one reporting week. The (user, week) pair is unique; ingestion relies on
// that constraint to stay duplicate-free under concurrent uploads.
type UserWeeklyStat struct {
	ID          uint          `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
	UserID      uint          `gorm:"not null;uniqueIndex:idx_user_week" json:"user_id"`
	User        *User         `gorm:"foreignKey:UserID" json:"user,omitempty"`
	WeekID      uint          `gorm:"not null;uniqueIndex:idx_user_week;index" json:"week_id"`
	Week        *WeeklyReport `gorm:"foreignKey:WeekID" json:"week,omitempty"`
	Metrics     `gorm:"embedded"`
	TotalPoints int `gorm:"not null" json:"total_points"`
}
