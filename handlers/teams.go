package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"

	"chapterstats/database"
	"chapterstats/models"
)

type TeamHandler struct{}

func NewTeamHandler() *TeamHandler {
	return &TeamHandler{}
}

type teamRequest struct {
	Name      string `json:"name"`
	UserIDs   []uint `json:"userIds"`
	CaptainID *uint  `json:"captainId"`
}

func (h *TeamHandler) CreateTeam(w http.ResponseWriter, r *http.Request) {
	var req teamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "Team name is required")
		return
	}

	db := database.GetDB()

	var count int64
	db.Model(&models.Team{}).Where("name = ?", req.Name).Count(&count)
	if count > 0 {
		respondError(w, http.StatusConflict, "Team name must be unique")
		return
	}

	team := models.Team{Name: req.Name, CaptainID: req.CaptainID}
	if err := db.Create(&team).Error; err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to create team")
		return
	}

	if len(req.UserIDs) > 0 {
		err := db.Model(&models.User{}).Where("id IN ?", req.UserIDs).Update("team_id", team.ID).Error
		if err != nil {
			respondError(w, http.StatusInternalServerError, "Failed to assign members")
			return
		}
	}

	db.Preload("Users").Preload("Captain").First(&team, team.ID)
	respondJSON(w, http.StatusCreated, team)
}

func (h *TeamHandler) ListTeams(w http.ResponseWriter, r *http.Request) {
	var teams []models.Team
	err := database.GetDB().Preload("Users").Preload("Captain").Find(&teams).Error
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to list teams")
		return
	}
	respondJSON(w, http.StatusOK, teams)
}

func (h *TeamHandler) UpdateTeam(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 32)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid team ID")
		return
	}

	var req struct {
		Name      *string `json:"name"`
		UserIDs   *[]uint `json:"userIds"`
		CaptainID *uint   `json:"captainId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	db := database.GetDB()

	var team models.Team
	if err := db.First(&team, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(w, http.StatusNotFound, "Team not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "Failed to load team")
		return
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name != "" && name != team.Name {
			var count int64
			db.Model(&models.Team{}).Where("name = ?", name).Count(&count)
			if count > 0 {
				respondError(w, http.StatusConflict, "Team name must be unique")
				return
			}
			team.Name = name
		}
	}

	if req.CaptainID != nil {
		team.CaptainID = req.CaptainID
	}

	if err := db.Save(&team).Error; err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to update team")
		return
	}

	if req.UserIDs != nil {
		userIDs := *req.UserIDs
		// Clear members no longer on this team, then assign the new roster.
		err := db.Model(&models.User{}).
			Where("team_id = ? AND id NOT IN ?", team.ID, append([]uint{0}, userIDs...)).
			Update("team_id", nil).Error
		if err != nil {
			respondError(w, http.StatusInternalServerError, "Failed to update roster")
			return
		}
		if len(userIDs) > 0 {
			err = db.Model(&models.User{}).Where("id IN ?", userIDs).Update("team_id", team.ID).Error
			if err != nil {
				respondError(w, http.StatusInternalServerError, "Failed to update roster")
				return
			}
		}
	}

	db.Preload("Users").Preload("Captain").First(&team, team.ID)
	respondJSON(w, http.StatusOK, team)
}

func (h *TeamHandler) DeleteTeam(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 32)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid team ID")
		return
	}

	db := database.GetDB()

	var team models.Team
	if err := db.First(&team, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(w, http.StatusNotFound, "Team not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "Failed to load team")
		return
	}

	// Removing a team clears the team reference on its former members.
	if err := db.Model(&models.User{}).Where("team_id = ?", team.ID).Update("team_id", nil).Error; err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to detach members")
		return
	}
	if err := db.Delete(&team).Error; err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to delete team")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"deletedTeamId": team.ID})
}
