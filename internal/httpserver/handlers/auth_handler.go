package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"fintrack/internal/accesslog"
	"fintrack/internal/auth"
	"fintrack/internal/clientmeta"
	"fintrack/internal/models"
)

const invalidCredentials = "invalid credentials"

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

type registerReq struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func Register(db *gorm.DB, hasher *auth.PasswordHasher, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		req.Email = normalizeEmail(req.Email)
		req.FullName = strings.TrimSpace(req.FullName)
		if req.Email == "" || req.FullName == "" || req.Password == "" {
			http.Error(w, "full_name, email and password required", http.StatusBadRequest)
			return
		}
		if err := auth.ValidateNewPassword(req.Password, req.Email, req.FullName); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		var count int64
		if err := db.Model(&models.User{}).Where("email = ?", req.Email).Count(&count).Error; err != nil {
			http.Error(w, "server error", http.StatusInternalServerError)
			return
		}
		if count > 0 {
			http.Error(w, "email already registered", http.StatusBadRequest)
			return
		}
		hash, err := hasher.Hash(req.Password)
		if err != nil {
			http.Error(w, "hash error", http.StatusInternalServerError)
			return
		}
		u := models.User{FullName: req.FullName, Email: req.Email, PasswordHash: hash, Role: models.RoleUser, IsActive: true}
		if err := db.Create(&u).Error; err != nil {
			// unique index on email closes the check-then-create race
			if isUniqueViolation(err) {
				http.Error(w, "email already registered", http.StatusBadRequest)
				return
			}
			http.Error(w, "server error", http.StatusInternalServerError)
			return
		}
		// registration deliberately emits no access-log event: no kind
		// exists for it in the closed enumeration
		respondCreated(w, map[string]any{
			"id": u.ID, "full_name": u.FullName, "email": u.Email, "role": u.Role,
		})
	}
}

type loginReq struct {
	Email    string `json:"email"`
	Username string `json:"username"` // legacy clients send the email here
	Password string `json:"password"`
}

func Login(db *gorm.DB, hasher *auth.PasswordHasher, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		email := normalizeEmail(req.Email)
		if email == "" {
			email = normalizeEmail(req.Username)
		}
		if email == "" || req.Password == "" {
			http.Error(w, "email and password required", http.StatusBadRequest)
			return
		}
		meta := clientmeta.FromRequest(r)

		var u models.User
		err := db.First(&u, "email = ?", email).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// burn the same hashing cost as a real verification so the
			// response time does not reveal whether the email exists
			hasher.Verify(req.Password, hasher.DummyHash())
			if err := db.Transaction(func(tx *gorm.DB) error {
				return accesslog.Record(tx, nil, models.EventLoginFail, email, meta)
			}); err != nil {
				lg.Errorw("record login failure", "error", err)
			}
			http.Error(w, invalidCredentials, http.StatusBadRequest)
			return
		}
		if err != nil {
			http.Error(w, "server error", http.StatusInternalServerError)
			return
		}

		passwordOK := false
		needsRehash := false
		if auth.IsHashed(u.PasswordHash) {
			passwordOK = hasher.Verify(req.Password, u.PasswordHash)
		} else {
			// legacy row still holding plaintext: direct compare, then
			// upgrade in the same transaction as the audit write
			passwordOK = u.PasswordHash == req.Password
			needsRehash = passwordOK
		}

		if !passwordOK {
			if err := db.Transaction(func(tx *gorm.DB) error {
				return accesslog.Record(tx, &u.ID, models.EventLoginFail, email, meta)
			}); err != nil {
				lg.Errorw("record login failure", "error", err)
			}
			http.Error(w, invalidCredentials, http.StatusBadRequest)
			return
		}

		token, err := auth.Sign(u.Email, u.Role)
		if err != nil {
			http.Error(w, "token error", http.StatusInternalServerError)
			return
		}
		if err := db.Transaction(func(tx *gorm.DB) error {
			if needsRehash {
				hash, err := hasher.Hash(req.Password)
				if err != nil {
					return err
				}
				if err := tx.Model(&models.User{}).Where("id = ?", u.ID).
					Update("password_hash", hash).Error; err != nil {
					return err
				}
			}
			return accesslog.Record(tx, &u.ID, models.EventLoginSuccess, u.Email, meta)
		}); err != nil {
			http.Error(w, "server error", http.StatusInternalServerError)
			return
		}
		respondJSON(w, map[string]any{
			"token":      token,
			"token_type": "bearer",
			"role":       u.Role,
			"email":      u.Email,
			"full_name":  u.FullName,
		})
	}
}

type logoutReq struct {
	Token string `json:"token"`
}

// Logout is audit-only: session tokens are stateless, so nothing is
// revoked server-side. The token comes from the body, else the bearer
// header.
func Logout(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req logoutReq
		if r.Body != nil {
			_ = json.NewDecoder(r.Body).Decode(&req)
		}
		raw := strings.TrimSpace(req.Token)
		if raw == "" {
			raw = auth.BearerToken(r.Header.Get("Authorization"))
		}
		if raw == "" {
			http.Error(w, "token required", http.StatusBadRequest)
			return
		}
		claims, err := auth.Verify(raw)
		if err != nil || claims.Purpose != "" {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
		var u models.User
		if err := db.First(&u, "email = ?", normalizeEmail(claims.Email)).Error; err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
		meta := clientmeta.FromRequest(r)
		if err := db.Transaction(func(tx *gorm.DB) error {
			return accesslog.Record(tx, &u.ID, models.EventLogout, u.Email, meta)
		}); err != nil {
			http.Error(w, "server error", http.StatusInternalServerError)
			return
		}
		respondJSON(w, map[string]any{"msg": "session closed"})
	}
}

func Me(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var u models.User
		if err := db.First(&u, "email = ?", auth.Subject(r.Context())).Error; err != nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		respondJSON(w, map[string]any{
			"id":             u.ID,
			"full_name":      u.FullName,
			"email":          u.Email,
			"role":           u.Role,
			"is_active":      u.IsActive,
			"email_verified": u.EmailVerified,
		})
	}
}

type changePasswordReq struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func ChangePassword(db *gorm.DB, hasher *auth.PasswordHasher, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req changePasswordReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if req.CurrentPassword == "" || req.NewPassword == "" {
			http.Error(w, "current_password and new_password required", http.StatusBadRequest)
			return
		}
		if req.CurrentPassword == req.NewPassword {
			http.Error(w, "new password must differ from the current one", http.StatusBadRequest)
			return
		}
		var u models.User
		if err := db.First(&u, "email = ?", auth.Subject(r.Context())).Error; err != nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		currentOK := false
		if auth.IsHashed(u.PasswordHash) {
			currentOK = hasher.Verify(req.CurrentPassword, u.PasswordHash)
		} else {
			currentOK = u.PasswordHash == req.CurrentPassword
		}
		if !currentOK {
			http.Error(w, "current password is incorrect", http.StatusBadRequest)
			return
		}
		if err := auth.ValidateNewPassword(req.NewPassword, u.Email, u.FullName); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		hash, err := hasher.Hash(req.NewPassword)
		if err != nil {
			http.Error(w, "hash error", http.StatusInternalServerError)
			return
		}
		meta := clientmeta.FromRequest(r)
		if err := db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Model(&models.User{}).Where("id = ?", u.ID).
				Update("password_hash", hash).Error; err != nil {
				return err
			}
			return accesslog.Record(tx, &u.ID, models.EventPasswordResetSuccess, u.Email, meta)
		}); err != nil {
			http.Error(w, "server error", http.StatusInternalServerError)
			return
		}
		respondJSON(w, map[string]any{"msg": "password updated"})
	}
}
