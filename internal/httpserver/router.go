package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"fintrack/internal/auth"
	"fintrack/internal/httpserver/handlers"
	"fintrack/internal/models"
)

func NewRouter(db *gorm.DB, hasher *auth.PasswordHasher, lg *zap.SugaredLogger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer, middleware.Logger)

	r.Post("/v1/auth/register", handlers.Register(db, hasher, lg))
	r.Post("/v1/auth/login", handlers.Login(db, hasher, lg))
	r.Post("/v1/auth/logout", handlers.Logout(db, lg))
	r.Post("/v1/auth/reset/request", handlers.RequestPasswordReset(db, lg))
	r.Post("/v1/auth/reset/confirm", handlers.ConfirmPasswordReset(db, hasher, lg))
	r.Post("/v1/auth/verify/confirm", handlers.ConfirmEmailVerification(db, lg))

	r.Group(func(protected chi.Router) {
		protected.Use(auth.JWTAuth())
		protected.Get("/v1/me", handlers.Me(db, lg))
		protected.Patch("/v1/me/password", handlers.ChangePassword(db, hasher, lg))
		protected.Post("/v1/auth/verify/request", handlers.RequestEmailVerification(db, lg))

		protected.Post("/v1/expenses", handlers.CreateExpense(db, lg))
		protected.Get("/v1/expenses", handlers.ListExpenses(db, lg))
		protected.Patch("/v1/expenses/{id}", handlers.UpdateExpense(db, lg))
		protected.Delete("/v1/expenses/{id}", handlers.DeleteExpense(db, lg))
		protected.Get("/v1/categories", handlers.ListCategories(db, lg))

		protected.Get("/v1/logs", handlers.ListAccessLogs(db, lg))

		protected.Group(func(admin chi.Router) {
			admin.Use(auth.RequireRole(models.RoleAdmin))
			admin.Get("/v1/admin/users", handlers.ListUsers(db, lg))
			admin.Post("/v1/admin/users", handlers.CreateUser(db, hasher, lg))
			admin.Patch("/v1/admin/users/{id}", handlers.UpdateUser(db, hasher, lg))
			admin.Delete("/v1/admin/users/{id}", handlers.DeleteUser(db, lg))
			admin.Get("/v1/admin/catalog/browsers", handlers.ListBrowsers(db, lg))
			admin.Post("/v1/admin/catalog/browsers", handlers.CreateBrowser(db, lg))
			admin.Get("/v1/admin/catalog/os", handlers.ListOperatingSystems(db, lg))
			admin.Post("/v1/admin/catalog/os", handlers.CreateOperatingSystem(db, lg))
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	return r
}
