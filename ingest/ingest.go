// Package ingest orchestrates weekly report uploads: parse, resolve the
// reporting week, match rows to members, accumulate metrics and persist the
// scored weekly stats.
package ingest

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"chapterstats/models"
	"chapterstats/parser"
	"chapterstats/points"
	"chapterstats/week"
)

// Skip reasons recorded for rows that fail validation or member lookup.
const (
	ReasonMissingName  = "Missing firstName or lastName"
	ReasonUserNotFound = "User not found"
)

// File is one uploaded report payload.
type File struct {
	Name string
	Data []byte
}

// SkippedRow carries a rejected input row with its reason so operators can
// fix the source sheet and re-upload.
type SkippedRow struct {
	Row    parser.Row `json:"row"`
	Reason string     `json:"reason"`
}

// Result summarises one ingestion call.
type Result struct {
	Week      models.WeeklyReport `json:"week"`
	Processed int                 `json:"processed"`
	Skipped   []SkippedRow        `json:"skipped"`
}

type Ingestor struct {
	db      *gorm.DB
	weights points.Weights
}

func New(db *gorm.DB, weights points.Weights) *Ingestor {
	return &Ingestor{db: db, weights: weights}
}

// Header aliases accepted on upload sheets. For each canonical field the
// first present, non-empty key wins.
var (
	firstNameKeys = []string{"First Name", "firstName"}
	lastNameKeys  = []string{"Last Name", "lastName"}
)

// Ingest processes one or more report files into the stats of a single
// reporting week. When startDate and endDate are both supplied they are used
// verbatim; otherwise the week is derived from the upload instant. Any
// existing report for the same bounds is replaced wholesale, but rows across
// the files of one call accumulate per member before scoring.
func (in *Ingestor) Ingest(files []File, startDate, endDate *time.Time) (*Result, error) {
	// Parse everything up front so a corrupt file aborts before any write.
	parsed := make([][]parser.Row, len(files))
	for i, f := range files {
		rows, err := parser.Parse(f.Data, f.Name)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", f.Name, err)
		}
		parsed[i] = rows
	}

	uploadedAt := time.Now().UTC()
	var start, end time.Time
	if startDate != nil && endDate != nil {
		start, end = *startDate, *endDate
	} else {
		start, end = week.Resolve(uploadedAt)
	}

	var existing models.WeeklyReport
	err := in.db.Where("week_start_date = ? AND week_end_date = ?", start, end).First(&existing).Error
	switch {
	case err == nil:
		if err := in.db.Where("week_id = ?", existing.ID).Delete(&models.UserWeeklyStat{}).Error; err != nil {
			return nil, err
		}
		if err := in.db.Delete(&existing).Error; err != nil {
			return nil, err
		}
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, err
	}

	report := models.WeeklyReport{
		WeekStartDate: start,
		WeekEndDate:   end,
		UploadedAt:    uploadedAt,
	}
	if err := in.db.Create(&report).Error; err != nil {
		return nil, err
	}

	result := &Result{Week: report, Skipped: []SkippedRow{}}

	// Accumulate per member across all files of this call, flushing once per
	// member at the end instead of round-tripping the store per row.
	acc := make(map[uint]*models.UserWeeklyStat)
	var order []uint

	for _, rows := range parsed {
		for _, row := range rows {
			firstName := pick(row, firstNameKeys)
			lastName := pick(row, lastNameKeys)
			if firstName == "" || lastName == "" {
				result.Skipped = append(result.Skipped, SkippedRow{Row: row, Reason: ReasonMissingName})
				continue
			}

			fullName := models.BuildFullName(firstName, lastName)
			var user models.User
			if err := in.db.Where("full_name = ?", fullName).First(&user).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					result.Skipped = append(result.Skipped, SkippedRow{Row: row, Reason: ReasonUserNotFound})
					continue
				}
				return nil, err
			}

			stat, ok := acc[user.ID]
			if !ok {
				stat = &models.UserWeeklyStat{UserID: user.ID, WeekID: report.ID}
				acc[user.ID] = stat
				order = append(order, user.ID)
			}
			stat.Metrics.Add(rowMetrics(row))
			result.Processed++
		}
	}

	for _, userID := range order {
		stat := acc[userID]
		stat.TotalPoints = in.weights.Total(stat.Metrics)
		// The fresh report makes conflicts impossible within this call; a
		// concurrent upload for the same week can still race the (user, week)
		// uniqueness, in which case the create degrades to an update.
		err := in.db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "week_id"}},
			DoUpdates: clause.AssignmentColumns(statUpdateColumns),
		}).Create(stat).Error
		if err != nil {
			return nil, err
		}
	}

	return result, nil
}

var statUpdateColumns = append(append([]string{}, models.MetricColumns...), "total_points", "updated_at")

// pick returns the first present, non-empty value among keys.
func pick(row parser.Row, keys []string) string {
	for _, key := range keys {
		if value, ok := row[key]; ok {
			if trimmed := strings.TrimSpace(value); trimmed != "" {
				return trimmed
			}
		}
	}
	return ""
}

func intField(row parser.Row, keys ...string) int {
	return int(numField(row, keys...))
}

// numField parses the first matching field as a number, defaulting to zero
// when the field is missing or non-numeric.
func numField(row parser.Row, keys ...string) float64 {
	value := pick(row, keys)
	if value == "" {
		return 0
	}
	n, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0
	}
	return n
}

func rowMetrics(row parser.Row) models.Metrics {
	return models.Metrics{
		Present:              intField(row, "P"),
		Absent:               intField(row, "A"),
		Late:                 intField(row, "L"),
		Medical:              intField(row, "M"),
		Substitute:           intField(row, "S"),
		ReferralsGivenIn:     intField(row, "RGI"),
		ReferralsGivenOut:    intField(row, "RGO"),
		ReferralsReceivedIn:  intField(row, "RRI"),
		ReferralsReceivedOut: intField(row, "RRO"),
		Visitors:             intField(row, "V"),
		OneToOnes:            intField(row, "1-2-1", "oneToOne"),
		CEU:                  intField(row, "CEU"),
		Trainings:            intField(row, "T"),
		TYFCBAmount:          numField(row, "TYFCB", "TYFCB_amount"),
		TR:                   numField(row, "TR"),
		CON:                  numField(row, "CON"),
	}
}
