// Package bootstrap holds startup routines that run before the server
// accepts requests.
package bootstrap

import (
	"go.uber.org/zap"
	"gorm.io/gorm"

	"fintrack/internal/auth"
	"fintrack/internal/models"
)

// MigratePlainPasswords upgrades any legacy plaintext credential to an
// argon2id hash. One batch, one transaction; a failure rolls back, is
// logged, and must not stop the process — already-hashed rows are never
// touched, so the routine is idempotent and simply retries on next boot.
func MigratePlainPasswords(db *gorm.DB, hasher *auth.PasswordHasher, lg *zap.SugaredLogger) {
	changed := 0
	err := db.Transaction(func(tx *gorm.DB) error {
		var users []models.User
		if err := tx.Where("password_hash <> ''").Find(&users).Error; err != nil {
			return err
		}
		for i := range users {
			if auth.IsHashed(users[i].PasswordHash) {
				continue
			}
			hash, err := hasher.Hash(users[i].PasswordHash)
			if err != nil {
				return err
			}
			if err := tx.Model(&models.User{}).Where("id = ?", users[i].ID).
				Update("password_hash", hash).Error; err != nil {
				return err
			}
			changed++
		}
		return nil
	})
	if err != nil {
		lg.Errorw("password hash migration failed", "error", err)
		return
	}
	if changed > 0 {
		lg.Infow("migrated plaintext passwords to hash", "count", changed)
	}
}
