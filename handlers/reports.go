package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"

	"chapterstats/dashboard"
	"chapterstats/database"
	"chapterstats/ingest"
	"chapterstats/models"
	"chapterstats/parser"
)

type ReportHandler struct {
	ingestor *ingest.Ingestor
	reports  *dashboard.Service
}

func NewReportHandler(ingestor *ingest.Ingestor, reports *dashboard.Service) *ReportHandler {
	return &ReportHandler{ingestor: ingestor, reports: reports}
}

// ListMonthly rolls the reporting weeks up by calendar month.
func (h *ReportHandler) ListMonthly(w http.ResponseWriter, r *http.Request) {
	rollup, err := h.reports.MonthlyRollup()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to load monthly reports")
		return
	}
	respondJSON(w, http.StatusOK, rollup)
}

// UploadWeekly ingests one or more report files into a single reporting
// week. Explicit weekStartDate/weekEndDate form fields (YYYY-MM-DD) take
// priority over deriving the week from the upload date.
func (h *ReportHandler) UploadWeekly(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	fileHeaders := r.MultipartForm.File["files"]
	if len(fileHeaders) == 0 {
		fileHeaders = r.MultipartForm.File["file"]
	}
	if len(fileHeaders) == 0 {
		respondError(w, http.StatusBadRequest, "At least one CSV or Excel file is required")
		return
	}

	var files []ingest.File
	for _, fh := range fileHeaders {
		f, err := fh.Open()
		if err != nil {
			respondError(w, http.StatusBadRequest, "Failed to open uploaded file")
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			respondError(w, http.StatusBadRequest, "Failed to read uploaded file")
			return
		}
		files = append(files, ingest.File{Name: fh.Filename, Data: data})
	}

	var startDate, endDate *time.Time
	if startStr := r.FormValue("weekStartDate"); startStr != "" {
		parsed, err := time.Parse("2006-01-02", startStr)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid weekStartDate format")
			return
		}
		startDate = &parsed
	}
	if endStr := r.FormValue("weekEndDate"); endStr != "" {
		parsed, err := time.Parse("2006-01-02", endStr)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid weekEndDate format")
			return
		}
		endDate = &parsed
	}

	result, err := h.ingestor.Ingest(files, startDate, endDate)
	if err != nil {
		if errors.Is(err, parser.ErrUnsupportedFormat) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusCreated, result)
}

func (h *ReportHandler) ListWeekly(w http.ResponseWriter, r *http.Request) {
	var reports []models.WeeklyReport
	err := database.GetDB().Order("week_start_date DESC").Find(&reports).Error
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to list reports")
		return
	}
	respondJSON(w, http.StatusOK, reports)
}

// DeleteWeekly removes a report and every stat belonging to it.
func (h *ReportHandler) DeleteWeekly(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 32)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid report ID")
		return
	}

	db := database.GetDB()

	var report models.WeeklyReport
	if err := db.First(&report, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(w, http.StatusNotFound, "Weekly report not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "Failed to load report")
		return
	}

	statsDelete := db.Where("week_id = ?", report.ID).Delete(&models.UserWeeklyStat{})
	if statsDelete.Error != nil {
		respondError(w, http.StatusInternalServerError, "Failed to delete stats")
		return
	}
	if err := db.Delete(&report).Error; err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to delete report")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"deletedWeekId": report.ID,
		"deletedStats":  statsDelete.RowsAffected,
	})
}
