// Package dashboard holds the read-only reporting queries over the stored
// weekly stats: totals, rankings, breakdowns and chart series.
package dashboard

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"

	"chapterstats/models"
)

// Filter optionally narrows a query to the reports of one calendar month.
// It is active only when both month and year are set; an inactive filter
// means all time.
type Filter struct {
	Month int
	Year  int
}

func (f Filter) active() bool {
	return f.Month >= 1 && f.Month <= 12 && f.Year > 0
}

func (f Filter) bounds() (start, end time.Time) {
	start = time.Date(f.Year, time.Month(f.Month), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}

type Service struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Service {
	return &Service{db: db}
}

type TeamTotal struct {
	TeamID      uint   `json:"team_id"`
	TeamName    string `json:"team_name"`
	TotalPoints int    `json:"total_points"`
}

type TopTeam struct {
	TeamTotal
	CaptainName *string `json:"captain_name"`
}

type UserTotal struct {
	UserID      uint    `json:"user_id"`
	FullName    string  `json:"full_name"`
	TeamName    *string `json:"team_name"`
	TotalPoints int     `json:"total_points"`
}

type CategoryTotals struct {
	models.Metrics `gorm:"embedded"`
	TotalPoints    int `json:"total_points"`
}

type TeamBreakdown struct {
	TeamID         uint    `json:"team_id"`
	TeamName       string  `json:"team_name"`
	CaptainName    *string `json:"captain_name"`
	MemberCount    int     `json:"member_count"`
	models.Metrics `gorm:"embedded"`
	TotalPoints    int `json:"total_points"`
}

type UserBreakdown struct {
	UserID         uint    `json:"user_id"`
	FullName       string  `json:"full_name"`
	TeamName       *string `json:"team_name"`
	models.Metrics `gorm:"embedded"`
	TotalPoints    int `json:"total_points"`
}

type WeekPoint struct {
	TeamID        uint      `json:"team_id"`
	TeamName      string    `json:"team_name"`
	WeekStartDate time.Time `json:"week_start_date"`
	TotalPoints   int       `json:"total_points"`
}

type MonthlyTotal struct {
	Year        int `json:"year"`
	Month       int `json:"month"`
	TotalPoints int `json:"total_points"`
}

// window restricts a stats query to reports starting within the filter's
// month. Callers must not have joined weekly_reports already.
func window(q *gorm.DB, f Filter) *gorm.DB {
	if !f.active() {
		return q
	}
	start, end := f.bounds()
	return q.
		Joins("JOIN weekly_reports ON weekly_reports.id = user_weekly_stats.week_id").
		Where("weekly_reports.week_start_date >= ? AND weekly_reports.week_start_date < ?", start, end)
}

// metricSums builds the aggregate select list for every metric column plus
// the total score, zero-filled when nothing matches.
func metricSums() string {
	parts := make([]string, 0, len(models.MetricColumns)+1)
	for _, col := range models.MetricColumns {
		parts = append(parts, fmt.Sprintf("COALESCE(SUM(user_weekly_stats.%s), 0) AS %s", col, col))
	}
	parts = append(parts, "COALESCE(SUM(user_weekly_stats.total_points), 0) AS total_points")
	return strings.Join(parts, ", ")
}

// TeamTotals sums scores per team, highest first. Members without a team are
// excluded from team grouping.
func (s *Service) TeamTotals(f Filter) ([]TeamTotal, error) {
	var totals []TeamTotal
	q := s.db.Table("user_weekly_stats").
		Select("teams.id AS team_id, teams.name AS team_name, SUM(user_weekly_stats.total_points) AS total_points").
		Joins("JOIN users ON users.id = user_weekly_stats.user_id").
		Joins("JOIN teams ON teams.id = users.team_id")
	q = window(q, f)
	err := q.Group("teams.id, teams.name").
		Order("total_points DESC").
		Scan(&totals).Error
	return totals, err
}

// TopTeams truncates the team totals to limit (default 3) and enriches each
// entry with the captain's full name when a captain is set.
func (s *Service) TopTeams(limit int, f Filter) ([]TopTeam, error) {
	if limit <= 0 {
		limit = 3
	}
	totals, err := s.TeamTotals(f)
	if err != nil {
		return nil, err
	}
	if len(totals) > limit {
		totals = totals[:limit]
	}

	top := make([]TopTeam, len(totals))
	ids := make([]uint, len(totals))
	for i, t := range totals {
		top[i] = TopTeam{TeamTotal: t}
		ids[i] = t.TeamID
	}
	if len(ids) == 0 {
		return top, nil
	}

	var teams []models.Team
	if err := s.db.Preload("Captain").Where("id IN ?", ids).Find(&teams).Error; err != nil {
		return nil, err
	}
	captains := make(map[uint]string, len(teams))
	for _, team := range teams {
		if team.Captain != nil {
			captains[team.ID] = team.Captain.FullName
		}
	}
	for i := range top {
		if name, ok := captains[top[i].TeamID]; ok {
			top[i].CaptainName = &name
		}
	}
	return top, nil
}

func (s *Service) userTotals(f Filter, limit int) ([]UserTotal, error) {
	var totals []UserTotal
	q := s.db.Table("user_weekly_stats").
		Select("users.id AS user_id, users.full_name AS full_name, teams.name AS team_name, SUM(user_weekly_stats.total_points) AS total_points").
		Joins("JOIN users ON users.id = user_weekly_stats.user_id").
		Joins("LEFT JOIN teams ON teams.id = users.team_id")
	q = window(q, f)
	q = q.Group("users.id, users.full_name, teams.name").
		Order("total_points DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Scan(&totals).Error
	return totals, err
}

// TopPerformers ranks members by summed score, truncated to limit (default 3).
func (s *Service) TopPerformers(limit int, f Filter) ([]UserTotal, error) {
	if limit <= 0 {
		limit = 3
	}
	return s.userTotals(f, limit)
}

// UserTotals ranks every member with at least one stat, unbounded.
func (s *Service) UserTotals(f Filter) ([]UserTotal, error) {
	return s.userTotals(f, 0)
}

// CategoryTotals sums every metric field across the filtered window into one
// aggregate row. With no matching stats the row is zero-filled.
func (s *Service) CategoryTotals(f Filter) (CategoryTotals, error) {
	var totals CategoryTotals
	q := s.db.Table("user_weekly_stats").Select(metricSums())
	q = window(q, f)
	err := q.Scan(&totals).Error
	return totals, err
}

// TeamBreakdown sums every metric per team and attaches the roster size and
// captain name, highest score first.
func (s *Service) TeamBreakdown(f Filter) ([]TeamBreakdown, error) {
	var rows []TeamBreakdown
	q := s.db.Table("user_weekly_stats").
		Select("teams.id AS team_id, teams.name AS team_name, " + metricSums()).
		Joins("JOIN users ON users.id = user_weekly_stats.user_id").
		Joins("JOIN teams ON teams.id = users.team_id")
	q = window(q, f)
	err := q.Group("teams.id, teams.name").
		Order("total_points DESC").
		Scan(&rows).Error
	if err != nil || len(rows) == 0 {
		return rows, err
	}

	ids := make([]uint, len(rows))
	for i, row := range rows {
		ids[i] = row.TeamID
	}

	var counts []struct {
		TeamID uint
		Count  int
	}
	err = s.db.Model(&models.User{}).
		Select("team_id, COUNT(*) AS count").
		Where("team_id IN ?", ids).
		Group("team_id").
		Scan(&counts).Error
	if err != nil {
		return nil, err
	}
	rosterSize := make(map[uint]int, len(counts))
	for _, c := range counts {
		rosterSize[c.TeamID] = c.Count
	}

	var teams []models.Team
	if err := s.db.Preload("Captain").Where("id IN ?", ids).Find(&teams).Error; err != nil {
		return nil, err
	}
	captains := make(map[uint]string, len(teams))
	for _, team := range teams {
		if team.Captain != nil {
			captains[team.ID] = team.Captain.FullName
		}
	}

	for i := range rows {
		rows[i].MemberCount = rosterSize[rows[i].TeamID]
		if name, ok := captains[rows[i].TeamID]; ok {
			rows[i].CaptainName = &name
		}
	}
	return rows, nil
}

// UserBreakdown sums every metric per member. Without a team filter the
// member set comes from the stats themselves and the list is truncated to
// limit (default 7). With a team filter the whole roster is returned, zero
// rows included, with no truncation.
func (s *Service) UserBreakdown(f Filter, teamID *uint, limit int) ([]UserBreakdown, error) {
	if teamID != nil {
		return s.teamUserBreakdown(f, *teamID)
	}

	if limit <= 0 {
		limit = 7
	}
	var rows []UserBreakdown
	q := s.db.Table("user_weekly_stats").
		Select("users.id AS user_id, users.full_name AS full_name, teams.name AS team_name, " + metricSums()).
		Joins("JOIN users ON users.id = user_weekly_stats.user_id").
		Joins("LEFT JOIN teams ON teams.id = users.team_id")
	q = window(q, f)
	err := q.Group("users.id, users.full_name, teams.name").
		Order("total_points DESC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}

func (s *Service) teamUserBreakdown(f Filter, teamID uint) ([]UserBreakdown, error) {
	var team models.Team
	if err := s.db.First(&team, teamID).Error; err != nil {
		return nil, err
	}

	var members []models.User
	if err := s.db.Where("team_id = ?", teamID).Order("id").Find(&members).Error; err != nil {
		return nil, err
	}
	if len(members) == 0 {
		return []UserBreakdown{}, nil
	}

	memberIDs := make([]uint, len(members))
	for i, m := range members {
		memberIDs[i] = m.ID
	}

	var sums []struct {
		UserID         uint
		models.Metrics `gorm:"embedded"`
		TotalPoints    int
	}
	q := s.db.Table("user_weekly_stats").
		Select("user_weekly_stats.user_id AS user_id, " + metricSums()).
		Where("user_weekly_stats.user_id IN ?", memberIDs)
	q = window(q, f)
	if err := q.Group("user_weekly_stats.user_id").Scan(&sums).Error; err != nil {
		return nil, err
	}
	byUser := make(map[uint]int, len(sums))
	for i, row := range sums {
		byUser[row.UserID] = i
	}

	// Left-merge so roster members without stats still appear with zeros.
	rows := make([]UserBreakdown, len(members))
	for i, member := range members {
		rows[i] = UserBreakdown{
			UserID:   member.ID,
			FullName: member.FullName,
			TeamName: &team.Name,
		}
		if j, ok := byUser[member.ID]; ok {
			rows[i].Metrics = sums[j].Metrics
			rows[i].TotalPoints = sums[j].TotalPoints
		}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].TotalPoints > rows[j].TotalPoints
	})
	return rows, nil
}

// WeeklySeries sums scores per (team, week) for time-series charts, ordered
// by week start then team name. Not truncated.
func (s *Service) WeeklySeries(f Filter) ([]WeekPoint, error) {
	var series []WeekPoint
	q := s.db.Table("user_weekly_stats").
		Select("teams.id AS team_id, teams.name AS team_name, weekly_reports.week_start_date AS week_start_date, SUM(user_weekly_stats.total_points) AS total_points").
		Joins("JOIN users ON users.id = user_weekly_stats.user_id").
		Joins("JOIN teams ON teams.id = users.team_id").
		Joins("JOIN weekly_reports ON weekly_reports.id = user_weekly_stats.week_id")
	if f.active() {
		start, end := f.bounds()
		q = q.Where("weekly_reports.week_start_date >= ? AND weekly_reports.week_start_date < ?", start, end)
	}
	err := q.Group("teams.id, teams.name, weekly_reports.week_start_date").
		Order("weekly_reports.week_start_date ASC, teams.name ASC").
		Scan(&series).Error
	return series, err
}

// MonthlyRollup groups the reporting weeks by the calendar month of their
// start date and sums all member scores in each, newest month first. The
// grouping runs in Go to stay portable across stores.
func (s *Service) MonthlyRollup() ([]MonthlyTotal, error) {
	var weekSums []struct {
		WeekStartDate time.Time
		TotalPoints   int
	}
	err := s.db.Table("user_weekly_stats").
		Select("weekly_reports.week_start_date AS week_start_date, SUM(user_weekly_stats.total_points) AS total_points").
		Joins("JOIN weekly_reports ON weekly_reports.id = user_weekly_stats.week_id").
		Group("weekly_reports.week_start_date").
		Scan(&weekSums).Error
	if err != nil {
		return nil, err
	}

	type ym struct {
		year  int
		month int
	}
	byMonth := make(map[ym]int)
	for _, w := range weekSums {
		key := ym{year: w.WeekStartDate.Year(), month: int(w.WeekStartDate.Month())}
		byMonth[key] += w.TotalPoints
	}

	rollup := make([]MonthlyTotal, 0, len(byMonth))
	for key, total := range byMonth {
		rollup = append(rollup, MonthlyTotal{Year: key.year, Month: key.month, TotalPoints: total})
	}
	sort.Slice(rollup, func(i, j int) bool {
		if rollup[i].Year != rollup[j].Year {
			return rollup[i].Year > rollup[j].Year
		}
		return rollup[i].Month > rollup[j].Month
	})
	return rollup, nil
}
