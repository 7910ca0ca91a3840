package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"fintrack/internal/accesslog"
	"fintrack/internal/auth"
	"fintrack/internal/clientmeta"
	"fintrack/internal/models"
)

// resetRequestedMsg is returned whether or not the email resolves to an
// account, so the endpoint cannot be used to enumerate users.
const resetRequestedMsg = "if the email exists, recovery instructions were sent"

type resetRequestReq struct {
	Email string `json:"email"`
}

func RequestPasswordReset(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req resetRequestReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		email := normalizeEmail(req.Email)
		if email == "" {
			http.Error(w, "email required", http.StatusBadRequest)
			return
		}
		meta := clientmeta.FromRequest(r)

		var u models.User
		err := db.First(&u, "email = ?", email).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// audit the attempt, reply the same as for a real account
			if err := db.Transaction(func(tx *gorm.DB) error {
				return accesslog.Record(tx, nil, models.EventPasswordResetRequest, email, meta)
			}); err != nil {
				lg.Errorw("record reset request", "error", err)
			}
			respondJSON(w, map[string]any{"msg": resetRequestedMsg})
			return
		}
		if err != nil {
			http.Error(w, "server error", http.StatusInternalServerError)
			return
		}

		token, err := auth.SignPurpose(u.Email, auth.PurposePasswordReset, auth.ResetTokenTTL)
		if err != nil {
			http.Error(w, "token error", http.StatusInternalServerError)
			return
		}
		expires := time.Now().Add(auth.ResetTokenTTL)
		// storing the new token supersedes any earlier unconsumed one, so
		// at most one reset token is ever valid per user
		if err := db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Model(&models.User{}).Where("id = ?", u.ID).Updates(map[string]any{
				"reset_token":         token,
				"reset_token_expires": expires,
			}).Error; err != nil {
				return err
			}
			return accesslog.Record(tx, &u.ID, models.EventPasswordResetRequest, u.Email, meta)
		}); err != nil {
			http.Error(w, "server error", http.StatusInternalServerError)
			return
		}
		// delivery is out of scope here; the mail worker reads the stored
		// token. The body must stay identical to the unknown-email branch.
		respondJSON(w, map[string]any{"msg": resetRequestedMsg})
	}
}

type resetConfirmReq struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

func ConfirmPasswordReset(db *gorm.DB, hasher *auth.PasswordHasher, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req resetConfirmReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		claims, err := auth.Verify(req.Token)
		if err != nil || claims.Purpose != auth.PurposePasswordReset {
			http.Error(w, "invalid or expired token", http.StatusBadRequest)
			return
		}
		email := normalizeEmail(claims.Email)
		if err := auth.ValidateNewPassword(req.Password, email); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		hash, err := hasher.Hash(req.Password)
		if err != nil {
			http.Error(w, "hash error", http.StatusInternalServerError)
			return
		}
		meta := clientmeta.FromRequest(r)

		// The stored-token checks re-read the row under a lock inside the
		// transaction: of two concurrent confirms with the same token only
		// the first passes, the second sees the cleared token and fails.
		var failStatus int
		var failMsg string
		txErr := db.Transaction(func(tx *gorm.DB) error {
			var u models.User
			err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				First(&u, "email = ?", email).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				failStatus, failMsg = http.StatusNotFound, "user not found"
				return err
			}
			if err != nil {
				return err
			}
			if u.ResetToken == nil || *u.ResetToken != req.Token {
				failStatus, failMsg = http.StatusBadRequest, "token does not match"
				return errors.New(failMsg)
			}
			if u.ResetTokenExpires == nil || u.ResetTokenExpires.Before(time.Now()) {
				failStatus, failMsg = http.StatusBadRequest, "token expired"
				return errors.New(failMsg)
			}
			if err := tx.Model(&models.User{}).Where("id = ?", u.ID).Updates(map[string]any{
				"password_hash":       hash,
				"reset_token":         nil,
				"reset_token_expires": nil,
			}).Error; err != nil {
				return err
			}
			return accesslog.Record(tx, &u.ID, models.EventPasswordResetSuccess, u.Email, meta)
		})
		if txErr != nil {
			if failMsg != "" {
				http.Error(w, failMsg, failStatus)
				return
			}
			http.Error(w, "server error", http.StatusInternalServerError)
			return
		}
		respondJSON(w, map[string]any{"msg": "password reset"})
	}
}

// RequestEmailVerification issues a purpose-tagged verification token for
// the authenticated user, mirroring the reset flow.
func RequestEmailVerification(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var u models.User
		if err := db.First(&u, "email = ?", auth.Subject(r.Context())).Error; err != nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		if u.EmailVerified {
			respondJSON(w, map[string]any{"msg": "email already verified"})
			return
		}
		token, err := auth.SignPurpose(u.Email, auth.PurposeEmailVerify, auth.VerifyTokenTTL)
		if err != nil {
			http.Error(w, "token error", http.StatusInternalServerError)
			return
		}
		expires := time.Now().Add(auth.VerifyTokenTTL)
		meta := clientmeta.FromRequest(r)
		if err := db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Model(&models.User{}).Where("id = ?", u.ID).Updates(map[string]any{
				"verification_token":         token,
				"verification_token_expires": expires,
			}).Error; err != nil {
				return err
			}
			return accesslog.Record(tx, &u.ID, models.EventEmailVerifySent, u.Email, meta)
		}); err != nil {
			http.Error(w, "server error", http.StatusInternalServerError)
			return
		}
		respondJSON(w, map[string]any{"msg": "verification sent", "verification_token": token})
	}
}

type verifyConfirmReq struct {
	Token string `json:"token"`
}

func ConfirmEmailVerification(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req verifyConfirmReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		claims, err := auth.Verify(req.Token)
		if err != nil || claims.Purpose != auth.PurposeEmailVerify {
			http.Error(w, "invalid or expired token", http.StatusBadRequest)
			return
		}
		meta := clientmeta.FromRequest(r)
		var failStatus int
		var failMsg string
		txErr := db.Transaction(func(tx *gorm.DB) error {
			var u models.User
			err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				First(&u, "email = ?", normalizeEmail(claims.Email)).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				failStatus, failMsg = http.StatusNotFound, "user not found"
				return err
			}
			if err != nil {
				return err
			}
			if u.VerificationToken == nil || *u.VerificationToken != req.Token {
				failStatus, failMsg = http.StatusBadRequest, "token does not match"
				return errors.New(failMsg)
			}
			if u.VerificationTokenExpires == nil || u.VerificationTokenExpires.Before(time.Now()) {
				failStatus, failMsg = http.StatusBadRequest, "token expired"
				return errors.New(failMsg)
			}
			if err := tx.Model(&models.User{}).Where("id = ?", u.ID).Updates(map[string]any{
				"email_verified":             true,
				"verification_token":         nil,
				"verification_token_expires": nil,
			}).Error; err != nil {
				return err
			}
			return accesslog.Record(tx, &u.ID, models.EventEmailVerifySuccess, u.Email, meta)
		})
		if txErr != nil {
			if failMsg != "" {
				http.Error(w, failMsg, failStatus)
				return
			}
			http.Error(w, "server error", http.StatusInternalServerError)
			return
		}
		respondJSON(w, map[string]any{"msg": "email verified"})
	}
}
