package main

import (
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"fintrack/internal/auth"
	"fintrack/internal/bootstrap"
	"fintrack/internal/httpserver"
	"fintrack/internal/logger"
	"fintrack/internal/models"
)

func main() {
	_ = godotenv.Load()
	lg := logger.New()
	defer lg.Sync()
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		lg.Fatalw("DATABASE_URL is empty")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		lg.Fatalw("db connect failed", "error", err)
	}
	if err := db.AutoMigrate(
		&models.User{}, &models.Category{}, &models.Expense{},
		&models.AccessLog{}, &models.Browser{}, &models.OperatingSystem{},
	); err != nil {
		lg.Fatalw("automigrate failed", "error", err)
	}

	hasher := auth.NewPasswordHasher()
	seedCatalogs(db)
	seedDefaultAdmin(db, hasher, lg)
	// must finish before the server accepts requests
	bootstrap.MigratePlainPasswords(db, hasher, lg)

	router := httpserver.NewRouter(db, hasher, lg)
	port := os.Getenv("HTTP_PORT")
	if port == "" {
		port = "8080"
	}
	lg.Infow("listening", "port", port)
	if err := http.ListenAndServe(":"+port, router); err != nil {
		log.Fatal(err)
	}
}

func seedDefaultAdmin(db *gorm.DB, hasher *auth.PasswordHasher, lg *zap.SugaredLogger) {
	email := strings.ToLower("admin@fintrack.local")
	var count int64
	db.Model(&models.User{}).Where("email = ?", email).Count(&count)
	if count > 0 {
		return
	}
	password := os.Getenv("ADMIN_SEED_PASSWORD")
	if password == "" {
		password = "change-me-on-first-login"
	}
	hash, err := hasher.Hash(password)
	if err != nil {
		lg.Errorw("seed admin hash failed", "error", err)
		return
	}
	u := models.User{
		FullName:     "Administrator",
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleAdmin,
		IsActive:     true,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	if err := db.Create(&u).Error; err != nil {
		lg.Errorw("seed admin failed", "error", err)
		return
	}
	lg.Infow("seeded default admin", "email", email)
}

func seedCatalogs(db *gorm.DB) {
	for _, name := range []string{"Brave", "Edge", "Opera", "Firefox", "Safari", "Chrome"} {
		db.Exec(`INSERT INTO browsers(name) VALUES (?) ON CONFLICT DO NOTHING`, name)
	}
	for _, name := range []string{"Windows", "macOS", "Linux", "Android", "iOS"} {
		db.Exec(`INSERT INTO operating_systems(name) VALUES (?) ON CONFLICT DO NOTHING`, name)
	}
}
