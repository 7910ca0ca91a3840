package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"fintrack/internal/accesslog"
	"fintrack/internal/auth"
	"fintrack/internal/clientmeta"
	"fintrack/internal/models"
)

func ListUsers(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var users []models.User
		if err := db.Order("created_at desc").Find(&users).Error; err != nil {
			http.Error(w, "server error", http.StatusInternalServerError)
			return
		}
		respondJSON(w, users)
	}
}

func CreateUser(db *gorm.DB, hasher *auth.PasswordHasher, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			FullName string `json:"full_name"`
			Email    string `json:"email"`
			Password string `json:"password"`
			Role     string `json:"role"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		req.Email = normalizeEmail(req.Email)
		if req.Email == "" || req.Password == "" {
			http.Error(w, "email and password required", http.StatusBadRequest)
			return
		}
		if req.Role == "" {
			req.Role = models.RoleUser
		}
		if req.Role != models.RoleUser && req.Role != models.RoleAdmin {
			http.Error(w, "role must be user or admin", http.StatusBadRequest)
			return
		}
		if err := auth.ValidateNewPassword(req.Password, req.Email, req.FullName); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		hash, err := hasher.Hash(req.Password)
		if err != nil {
			http.Error(w, "hash error", http.StatusInternalServerError)
			return
		}
		u := models.User{FullName: req.FullName, Email: req.Email, PasswordHash: hash, Role: req.Role, IsActive: true}
		if err := db.Create(&u).Error; err != nil {
			if isUniqueViolation(err) {
				http.Error(w, "email already registered", http.StatusBadRequest)
				return
			}
			http.Error(w, "server error", http.StatusInternalServerError)
			return
		}
		respondCreated(w, map[string]any{"id": u.ID})
	}
}

func UpdateUser(db *gorm.DB, hasher *auth.PasswordHasher, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// reject malformed ids before they reach the uuid column
		id := chi.URLParam(r, "id")
		if _, err := uuid.Parse(id); err != nil {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		var req struct {
			FullName *string `json:"full_name"`
			Email    *string `json:"email"`
			Role     *string `json:"role"`
			IsActive *bool   `json:"is_active"`
			Password *string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		var u models.User
		if err := db.First(&u, "id = ?", id).Error; err != nil {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		if req.FullName != nil {
			u.FullName = *req.FullName
		}
		if req.Email != nil {
			u.Email = normalizeEmail(*req.Email)
		}
		if req.Role != nil {
			if *req.Role != models.RoleUser && *req.Role != models.RoleAdmin {
				http.Error(w, "role must be user or admin", http.StatusBadRequest)
				return
			}
			u.Role = *req.Role
		}
		if req.Password != nil && *req.Password != "" {
			if err := auth.ValidateNewPassword(*req.Password, u.Email, u.FullName); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			hash, err := hasher.Hash(*req.Password)
			if err != nil {
				http.Error(w, "hash error", http.StatusInternalServerError)
				return
			}
			u.PasswordHash = hash
		}

		stateEvent := ""
		if req.IsActive != nil && *req.IsActive != u.IsActive {
			u.IsActive = *req.IsActive
			if u.IsActive {
				stateEvent = models.EventAccountEnabled
			} else {
				stateEvent = models.EventAccountDisabled
			}
		}

		meta := clientmeta.FromRequest(r)
		if err := db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Save(&u).Error; err != nil {
				return err
			}
			if stateEvent != "" {
				// state change and its audit row commit together
				return accesslog.Record(tx, &u.ID, stateEvent, u.Email, meta)
			}
			return nil
		}); err != nil {
			http.Error(w, "server error", http.StatusInternalServerError)
			return
		}
		respondJSON(w, map[string]any{"updated": true})
	}
}

func DeleteUser(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if _, err := uuid.Parse(id); err != nil {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		res := db.Delete(&models.User{}, "id = ?", id)
		if res.Error != nil {
			http.Error(w, "server error", http.StatusInternalServerError)
			return
		}
		if res.RowsAffected == 0 {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		respondJSON(w, map[string]any{"deleted": true})
	}
}
