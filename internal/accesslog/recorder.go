// Package accesslog appends immutable audit rows for authentication events.
package accesslog

import (
	"gorm.io/gorm"

	"fintrack/internal/clientmeta"
	"fintrack/internal/models"
)

// Record stages one access-log row on the caller's transaction. The caller
// commits it together with any related state change so the two are atomic;
// Record never commits on its own.
func Record(tx *gorm.DB, userID *string, event, attemptEmail string, meta clientmeta.Meta) error {
	entry := models.AccessLog{
		UserID:       userID,
		Event:        event,
		AttemptEmail: attemptEmail,
		IPAddress:    meta.IP,
		WebAgent:     meta.WebAgent,
		Metadata: models.JSONBOf(map[string]string{
			"os":         meta.OS,
			"user_agent": meta.RawUserAgent,
		}),
	}
	return tx.Create(&entry).Error
}
