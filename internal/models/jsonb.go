package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// JSONB is a thin helper for storing arbitrary JSON with GORM.
type JSONB []byte

func (j JSONB) Value() (driver.Value, error) {
	if len(j) == 0 {
		return []byte("{}"), nil
	}
	return []byte(j), nil
}

// JSONBOf marshals v into a JSONB value; falls back to an empty object
// when v cannot be marshaled, since audit metadata is best-effort.
func JSONBOf(v any) JSONB {
	b, err := json.Marshal(v)
	if err != nil {
		return JSONB("{}")
	}
	return JSONB(b)
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = JSONB("{}")
		return nil
	}
	switch v := value.(type) {
	case []byte:
		*j = JSONB(v); return nil
	case string:
		*j = JSONB([]byte(v)); return nil
	default:
		b, err := json.Marshal(v)
		if err != nil { return fmt.Errorf("jsonb scan: %w", err) }
		*j = JSONB(b); return nil
	}
}
