package models

import "time"

// Role values for User.Role. Exactly these two exist.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID       string `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	FullName string `gorm:"size:255;not null" json:"full_name"`
	Email    string `gorm:"size:255;uniqueIndex;not null" json:"email"`
	// PasswordHash normally holds an argon2id hash; rows predating the
	// hash migration may still hold plaintext until the next boot or login.
	PasswordHash string `gorm:"size:255;not null" json:"-"`
	Role         string `gorm:"size:20;not null;default:user" json:"role"`
	IsActive     bool   `gorm:"not null;default:true" json:"is_active"`

	EmailVerified            bool       `gorm:"not null;default:false" json:"email_verified"`
	ResetToken               *string    `gorm:"size:512" json:"-"`
	ResetTokenExpires        *time.Time `json:"-"`
	VerificationToken        *string    `gorm:"size:512" json:"-"`
	VerificationTokenExpires *time.Time `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Category struct {
	ID        string    `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name      string    `gorm:"size:255;uniqueIndex;not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type Expense struct {
	ID          string    `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID      string    `gorm:"type:uuid;index;not null" json:"user_id"`
	CategoryID  string    `gorm:"type:uuid;not null" json:"category_id"`
	Category    *Category `json:"category,omitempty"`
	Amount      float64   `gorm:"type:numeric(15,2);not null" json:"amount"`
	ExpenseDate time.Time `gorm:"not null" json:"expense_date"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Access event kinds. Closed set.
const (
	EventLoginSuccess         = "LOGIN_SUCCESS"
	EventLoginFail            = "LOGIN_FAIL"
	EventLogout               = "LOGOUT"
	EventPasswordResetRequest = "PASSWORD_RESET_REQUEST"
	EventPasswordResetSuccess = "PASSWORD_RESET_SUCCESS"
	EventEmailVerifySent      = "EMAIL_VERIFY_SENT"
	EventEmailVerifySuccess   = "EMAIL_VERIFY_SUCCESS"
	EventAccountDisabled      = "ACCOUNT_DISABLED"
	EventAccountEnabled       = "ACCOUNT_ENABLED"
)

// AccessLog is append-only: rows are created inside the transaction of the
// action they audit and never updated or deleted afterwards.
type AccessLog struct {
	ID     int64   `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID *string `gorm:"type:uuid;index" json:"user_id,omitempty"`
	Event  string  `gorm:"size:50;not null;index" json:"event"`
	// AttemptEmail is the identifier as submitted, kept even when it
	// resolved to no user.
	AttemptEmail string    `gorm:"size:255;not null" json:"attempt_email"`
	IPAddress    string    `gorm:"size:45" json:"ip_address"`
	WebAgent     string    `gorm:"size:255" json:"web_agent"`
	Metadata     JSONB     `gorm:"type:jsonb;default:'{}'::jsonb" json:"metadata"`
	CreatedAt    time.Time `json:"created_at"`
}

type Browser struct {
	ID   string `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name string `gorm:"size:100;uniqueIndex;not null" json:"name"`
}

type OperatingSystem struct {
	ID   string `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name string `gorm:"size:100;uniqueIndex;not null" json:"name"`
}
