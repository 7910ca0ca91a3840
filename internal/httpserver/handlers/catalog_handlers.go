package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"fintrack/internal/models"
)

// Display-label catalogs behind the audit client signal.

func ListBrowsers(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var items []models.Browser
		if err := db.Order("name asc").Find(&items).Error; err != nil {
			http.Error(w, "server error", http.StatusInternalServerError)
			return
		}
		respondJSON(w, items)
	}
}

func CreateBrowser(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Name string `json:"name"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		name := strings.TrimSpace(req.Name)
		if name == "" {
			http.Error(w, "name required", http.StatusBadRequest)
			return
		}
		b := models.Browser{Name: name}
		if err := db.Create(&b).Error; err != nil {
			if isUniqueViolation(err) {
				http.Error(w, "browser already exists", http.StatusBadRequest)
				return
			}
			http.Error(w, "server error", http.StatusInternalServerError)
			return
		}
		respondCreated(w, b)
	}
}

func ListOperatingSystems(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var items []models.OperatingSystem
		if err := db.Order("name asc").Find(&items).Error; err != nil {
			http.Error(w, "server error", http.StatusInternalServerError)
			return
		}
		respondJSON(w, items)
	}
}

func CreateOperatingSystem(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Name string `json:"name"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		name := strings.TrimSpace(req.Name)
		if name == "" {
			http.Error(w, "name required", http.StatusBadRequest)
			return
		}
		o := models.OperatingSystem{Name: name}
		if err := db.Create(&o).Error; err != nil {
			if isUniqueViolation(err) {
				http.Error(w, "operating system already exists", http.StatusBadRequest)
				return
			}
			http.Error(w, "server error", http.StatusInternalServerError)
			return
		}
		respondCreated(w, o)
	}
}
