package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"fintrack/internal/auth"
	"fintrack/internal/models"
)

// ListAccessLogs returns recent access events, newest first. Regular users
// see their own; administrators can pass ?all=1 for everyone and filter a
// single account with ?user_id=.
func ListAccessLogs(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := auth.FromContext(r.Context())
		q := db.Order("created_at desc").Limit(200)
		if claims.IsAdmin() && r.URL.Query().Get("all") == "1" {
			if uid := r.URL.Query().Get("user_id"); uid != "" {
				if _, err := uuid.Parse(uid); err != nil {
					http.Error(w, "user_id must be a uuid", http.StatusBadRequest)
					return
				}
				q = q.Where("user_id = ?", uid)
			}
		} else {
			var u models.User
			if err := db.First(&u, "email = ?", claims.Email).Error; err != nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			q = q.Where("user_id = ?", u.ID)
		}
		var logs []models.AccessLog
		if err := q.Find(&logs).Error; err != nil {
			http.Error(w, "server error", http.StatusInternalServerError)
			return
		}
		respondJSON(w, logs)
	}
}
