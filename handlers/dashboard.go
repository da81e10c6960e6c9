package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"gorm.io/gorm"

	"chapterstats/dashboard"
)

type DashboardHandler struct {
	service *dashboard.Service
}

func NewDashboardHandler(service *dashboard.Service) *DashboardHandler {
	return &DashboardHandler{service: service}
}

// queryFilter reads the optional month/year query parameters. Both must be
// present and valid for the filter to take effect.
func queryFilter(r *http.Request) dashboard.Filter {
	var f dashboard.Filter
	if m, err := strconv.Atoi(r.URL.Query().Get("month")); err == nil && m >= 1 && m <= 12 {
		f.Month = m
	}
	if y, err := strconv.Atoi(r.URL.Query().Get("year")); err == nil && y >= 2000 && y <= 2100 {
		f.Year = y
	}
	return f
}

func queryLimit(r *http.Request) int {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		return 0
	}
	return limit
}

func (h *DashboardHandler) TeamStats(w http.ResponseWriter, r *http.Request) {
	series, err := h.service.WeeklySeries(queryFilter(r))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to load team stats")
		return
	}
	respondJSON(w, http.StatusOK, series)
}

func (h *DashboardHandler) TopTeams(w http.ResponseWriter, r *http.Request) {
	teams, err := h.service.TopTeams(queryLimit(r), queryFilter(r))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to load top teams")
		return
	}
	respondJSON(w, http.StatusOK, teams)
}

func (h *DashboardHandler) TopPerformers(w http.ResponseWriter, r *http.Request) {
	performers, err := h.service.TopPerformers(queryLimit(r), queryFilter(r))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to load top performers")
		return
	}
	respondJSON(w, http.StatusOK, performers)
}

func (h *DashboardHandler) UserTotals(w http.ResponseWriter, r *http.Request) {
	totals, err := h.service.UserTotals(queryFilter(r))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to load user totals")
		return
	}
	respondJSON(w, http.StatusOK, totals)
}

func (h *DashboardHandler) CategoryTotals(w http.ResponseWriter, r *http.Request) {
	totals, err := h.service.CategoryTotals(queryFilter(r))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to load category totals")
		return
	}
	respondJSON(w, http.StatusOK, totals)
}

func (h *DashboardHandler) TeamBreakdown(w http.ResponseWriter, r *http.Request) {
	breakdown, err := h.service.TeamBreakdown(queryFilter(r))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to load team breakdown")
		return
	}
	respondJSON(w, http.StatusOK, breakdown)
}

func (h *DashboardHandler) UserBreakdown(w http.ResponseWriter, r *http.Request) {
	var teamID *uint
	if raw := r.URL.Query().Get("teamId"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid teamId")
			return
		}
		id := uint(parsed)
		teamID = &id
	}

	breakdown, err := h.service.UserBreakdown(queryFilter(r), teamID, queryLimit(r))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(w, http.StatusNotFound, "Team not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "Failed to load user breakdown")
		return
	}
	respondJSON(w, http.StatusOK, breakdown)
}
