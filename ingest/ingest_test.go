package ingest

import (
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"chapterstats/models"
	"chapterstats/points"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Team{},
		&models.WeeklyReport{},
		&models.UserWeeklyStat{},
	))
	return db
}

func seedUser(t *testing.T, db *gorm.DB, firstName, lastName string) models.User {
	t.Helper()
	user := models.User{
		FirstName:    firstName,
		LastName:     lastName,
		FullName:     models.BuildFullName(firstName, lastName),
		Email:        fmt.Sprintf("%s.%s@example.com", firstName, lastName),
		PasswordHash: "x",
	}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func bounds(start, end time.Time) (*time.Time, *time.Time) {
	return &start, &end
}

var (
	weekStart = time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	weekEnd   = time.Date(2025, 6, 8, 23, 59, 59, 999000000, time.UTC)
)

func TestIngestCreatesScoredStats(t *testing.T) {
	db := newTestDB(t)
	jane := seedUser(t, db, "Jane", "Doe")
	in := New(db, points.Default)

	csv := "First Name,Last Name,P,A,RGI,V,TYFCB\nJane,Doe,3,1,2,1,2500\n"
	start, end := bounds(weekStart, weekEnd)
	result, err := in.Ingest([]File{{Name: "week.csv", Data: []byte(csv)}}, start, end)
	require.NoError(t, err)

	require.Equal(t, 1, result.Processed)
	require.Empty(t, result.Skipped)
	require.True(t, result.Week.WeekStartDate.Equal(weekStart))
	require.True(t, result.Week.WeekEndDate.Equal(weekEnd))

	var stat models.UserWeeklyStat
	require.NoError(t, db.Where("user_id = ? AND week_id = ?", jane.ID, result.Week.ID).First(&stat).Error)
	require.Equal(t, 3, stat.Present)
	require.Equal(t, 1, stat.Absent)
	require.Equal(t, 2, stat.ReferralsGivenIn)
	require.Equal(t, 1, stat.Visitors)
	require.Equal(t, 2500.0, stat.TYFCBAmount)
	require.Equal(t, 34, stat.TotalPoints)
}

func TestIngestDerivesWeekFromUploadDate(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, "Jane", "Doe")
	in := New(db, points.Default)

	csv := "First Name,Last Name,P\nJane,Doe,1\n"
	result, err := in.Ingest([]File{{Name: "week.csv", Data: []byte(csv)}}, nil, nil)
	require.NoError(t, err)

	require.Equal(t, time.Monday, result.Week.WeekStartDate.Weekday())
	require.Equal(t, time.Sunday, result.Week.WeekEndDate.Weekday())
	require.Equal(t, 7*24*time.Hour-time.Millisecond, result.Week.WeekEndDate.Sub(result.Week.WeekStartDate))
}

func TestIngestExplicitBoundsVerbatim(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, "Jane", "Doe")
	in := New(db, points.Default)

	// Deliberately not a Monday-Sunday pair; must not be re-derived.
	customStart := time.Date(2025, 6, 4, 0, 0, 0, 0, time.UTC)
	customEnd := time.Date(2025, 6, 5, 0, 0, 0, 0, time.UTC)

	csv := "First Name,Last Name,P\nJane,Doe,1\n"
	result, err := in.Ingest([]File{{Name: "week.csv", Data: []byte(csv)}}, &customStart, &customEnd)
	require.NoError(t, err)
	require.True(t, result.Week.WeekStartDate.Equal(customStart))
	require.True(t, result.Week.WeekEndDate.Equal(customEnd))
}

func TestReingestReplacesWeek(t *testing.T) {
	db := newTestDB(t)
	jane := seedUser(t, db, "Jane", "Doe")
	john := seedUser(t, db, "John", "Smith")
	in := New(db, points.Default)

	first := "First Name,Last Name,P\nJane,Doe,2\nJohn,Smith,4\n"
	start, end := bounds(weekStart, weekEnd)
	_, err := in.Ingest([]File{{Name: "a.csv", Data: []byte(first)}}, start, end)
	require.NoError(t, err)

	second := "First Name,Last Name,P\nJane,Doe,3\n"
	result, err := in.Ingest([]File{{Name: "b.csv", Data: []byte(second)}}, start, end)
	require.NoError(t, err)
	require.Equal(t, 1, result.Processed)

	// Exactly one report survives for the bounds.
	var reportCount int64
	db.Model(&models.WeeklyReport{}).Count(&reportCount)
	require.EqualValues(t, 1, reportCount)

	// No stat from the first upload survives.
	var stats []models.UserWeeklyStat
	require.NoError(t, db.Find(&stats).Error)
	require.Len(t, stats, 1)
	require.Equal(t, jane.ID, stats[0].UserID)
	require.Equal(t, result.Week.ID, stats[0].WeekID)
	require.Equal(t, 3, stats[0].Present)

	var johnCount int64
	db.Model(&models.UserWeeklyStat{}).Where("user_id = ?", john.ID).Count(&johnCount)
	require.EqualValues(t, 0, johnCount)
}

func TestIngestAccumulatesAcrossFiles(t *testing.T) {
	db := newTestDB(t)
	jane := seedUser(t, db, "Jane", "Doe")
	in := New(db, points.Default)

	fileA := "First Name,Last Name,P,RGI\nJane,Doe,2,1\n"
	fileB := "First Name,Last Name,P,V\nJane,Doe,3,1\n"
	start, end := bounds(weekStart, weekEnd)
	result, err := in.Ingest([]File{
		{Name: "a.csv", Data: []byte(fileA)},
		{Name: "b.csv", Data: []byte(fileB)},
	}, start, end)
	require.NoError(t, err)
	require.Equal(t, 2, result.Processed)

	var stats []models.UserWeeklyStat
	require.NoError(t, db.Where("user_id = ?", jane.ID).Find(&stats).Error)
	require.Len(t, stats, 1)
	require.Equal(t, 5, stats[0].Present)
	require.Equal(t, 1, stats[0].ReferralsGivenIn)
	require.Equal(t, 1, stats[0].Visitors)
	// Score reflects the combined vector: 5*2 + 1*5 + 1*10.
	require.Equal(t, 25, stats[0].TotalPoints)
}

func TestIngestAccumulatesDuplicateRowsInOneFile(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, "Jane", "Doe")
	in := New(db, points.Default)

	csv := "First Name,Last Name,P\nJane,Doe,1\nJane,Doe,2\n"
	start, end := bounds(weekStart, weekEnd)
	result, err := in.Ingest([]File{{Name: "week.csv", Data: []byte(csv)}}, start, end)
	require.NoError(t, err)
	require.Equal(t, 2, result.Processed)

	var stats []models.UserWeeklyStat
	require.NoError(t, db.Find(&stats).Error)
	require.Len(t, stats, 1)
	require.Equal(t, 3, stats[0].Present)
}

func TestIngestSkipsRowsWithoutName(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, "Jane", "Doe")
	in := New(db, points.Default)

	csv := "First Name,Last Name,P\nJane,,5\nJane,Doe,1\n"
	start, end := bounds(weekStart, weekEnd)
	result, err := in.Ingest([]File{{Name: "week.csv", Data: []byte(csv)}}, start, end)
	require.NoError(t, err)

	require.Equal(t, 1, result.Processed)
	require.Len(t, result.Skipped, 1)
	require.Equal(t, ReasonMissingName, result.Skipped[0].Reason)
	require.Equal(t, "Jane", result.Skipped[0].Row["First Name"])

	var count int64
	db.Model(&models.UserWeeklyStat{}).Count(&count)
	require.EqualValues(t, 1, count)
}

func TestIngestSkipsUnknownUser(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, "Jane", "Doe")
	in := New(db, points.Default)

	csv := "First Name,Last Name,P\nGhost,Member,5\nJane,Doe,1\n"
	start, end := bounds(weekStart, weekEnd)
	result, err := in.Ingest([]File{{Name: "week.csv", Data: []byte(csv)}}, start, end)
	require.NoError(t, err)

	require.Equal(t, 1, result.Processed)
	require.Len(t, result.Skipped, 1)
	require.Equal(t, ReasonUserNotFound, result.Skipped[0].Reason)
}

func TestIngestNonNumericFieldsDefaultToZero(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, "Jane", "Doe")
	in := New(db, points.Default)

	csv := "First Name,Last Name,P,V\nJane,Doe,n/a,2\n"
	start, end := bounds(weekStart, weekEnd)
	_, err := in.Ingest([]File{{Name: "week.csv", Data: []byte(csv)}}, start, end)
	require.NoError(t, err)

	var stat models.UserWeeklyStat
	require.NoError(t, db.First(&stat).Error)
	require.Equal(t, 0, stat.Present)
	require.Equal(t, 2, stat.Visitors)
	require.Equal(t, 20, stat.TotalPoints)
}

func TestIngestCorruptFileAbortsBeforeWrites(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, "Jane", "Doe")
	in := New(db, points.Default)

	good := "First Name,Last Name,P\nJane,Doe,1\n"
	start, end := bounds(weekStart, weekEnd)
	_, err := in.Ingest([]File{
		{Name: "good.csv", Data: []byte(good)},
		{Name: "bad.xlsx", Data: []byte("not a workbook")},
	}, start, end)
	require.Error(t, err)

	var reportCount, statCount int64
	db.Model(&models.WeeklyReport{}).Count(&reportCount)
	db.Model(&models.UserWeeklyStat{}).Count(&statCount)
	require.EqualValues(t, 0, reportCount)
	require.EqualValues(t, 0, statCount)
}

func TestIngestOneToOneAliases(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, "Jane", "Doe")
	seedUser(t, db, "John", "Smith")
	in := New(db, points.Default)

	csv := "First Name,Last Name,1-2-1\nJane,Doe,2\n"
	alt := "firstName,lastName,oneToOne\nJohn,Smith,3\n"
	start, end := bounds(weekStart, weekEnd)
	result, err := in.Ingest([]File{
		{Name: "a.csv", Data: []byte(csv)},
		{Name: "b.csv", Data: []byte(alt)},
	}, start, end)
	require.NoError(t, err)
	require.Equal(t, 2, result.Processed)

	var stats []models.UserWeeklyStat
	require.NoError(t, db.Order("user_id").Find(&stats).Error)
	require.Len(t, stats, 2)
	require.Equal(t, 2, stats[0].OneToOnes)
	require.Equal(t, 3, stats[1].OneToOnes)
}
