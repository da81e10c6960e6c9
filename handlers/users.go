package handlers

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"chapterstats/database"
	"chapterstats/models"
	"chapterstats/parser"
)

type UserHandler struct{}

func NewUserHandler() *UserHandler {
	return &UserHandler{}
}

type skippedUserRow struct {
	Row    parser.Row `json:"row"`
	Reason string     `json:"reason"`
}

type uploadUsersResponse struct {
	Created int              `json:"created"`
	Skipped []skippedUserRow `json:"skipped"`
}

// UploadUsers bulk-imports members from an uploaded CSV or Excel file.
// Duplicate full names are skipped and reported, not fatal.
func (h *UserHandler) UploadUsers(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "A CSV or Excel file is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Failed to read uploaded file")
		return
	}

	rows, err := parser.Parse(data, header.Filename)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	db := database.GetDB()
	result := uploadUsersResponse{Skipped: []skippedUserRow{}}

	for _, row := range rows {
		firstName := firstNonEmpty(row, "First Name", "firstName")
		lastName := firstNonEmpty(row, "Last Name", "lastName")
		category := firstNonEmpty(row, "Category", "category")

		if firstName == "" || lastName == "" {
			result.Skipped = append(result.Skipped, skippedUserRow{Row: row, Reason: "Missing firstName or lastName"})
			continue
		}

		fullName := models.BuildFullName(firstName, lastName)
		var count int64
		db.Model(&models.User{}).Where("full_name = ?", fullName).Count(&count)
		if count > 0 {
			result.Skipped = append(result.Skipped, skippedUserRow{Row: row, Reason: "Duplicate fullName"})
			continue
		}

		user := models.User{
			FirstName: firstName,
			LastName:  lastName,
			FullName:  fullName,
			Category:  category,
			// Email and password are not part of bulk uploads; they can be
			// filled in later through registration.
			Email:        fmt.Sprintf("%s.%s.%d@placeholder.local", firstName, lastName, time.Now().UnixNano()),
			PasswordHash: "placeholder-hash",
		}
		if err := db.Create(&user).Error; err != nil {
			respondError(w, http.StatusInternalServerError, "Failed to create user")
			return
		}
		result.Created++
	}

	respondJSON(w, http.StatusCreated, result)
}

func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	var users []models.User
	err := database.GetDB().Preload("Team").Order("created_at DESC").Find(&users).Error
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to list users")
		return
	}
	respondJSON(w, http.StatusOK, users)
}

func firstNonEmpty(row parser.Row, keys ...string) string {
	for _, key := range keys {
		if value := row[key]; value != "" {
			return value
		}
	}
	return ""
}
