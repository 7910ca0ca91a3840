package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"fintrack/internal/auth"
	"fintrack/internal/models"
)

type expenseReq struct {
	Amount       float64 `json:"amount"`
	ExpenseDate  string  `json:"expense_date"` // YYYY-MM-DD
	Description  string  `json:"description"`
	CategoryName string  `json:"category_name"`
}

func normalizeCategoryName(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func currentUser(db *gorm.DB, r *http.Request) (models.User, error) {
	var u models.User
	err := db.First(&u, "email = ?", auth.Subject(r.Context())).Error
	return u, err
}

func parseExpenseDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

func CreateExpense(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req expenseReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		name := normalizeCategoryName(req.CategoryName)
		if name == "" {
			http.Error(w, "category_name required", http.StatusBadRequest)
			return
		}
		if req.Amount <= 0 {
			http.Error(w, "amount must be positive", http.StatusBadRequest)
			return
		}
		day, err := parseExpenseDate(req.ExpenseDate)
		if err != nil {
			http.Error(w, "expense_date must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		u, err := currentUser(db, r)
		if err != nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var exp models.Expense
		txErr := db.Transaction(func(tx *gorm.DB) error {
			var cat models.Category
			err := tx.First(&cat, "LOWER(name) = ?", strings.ToLower(name)).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				cat = models.Category{Name: name}
				if err := tx.Create(&cat).Error; err != nil {
					return err
				}
			} else if err != nil {
				return err
			}
			exp = models.Expense{
				UserID:      u.ID,
				CategoryID:  cat.ID,
				Amount:      req.Amount,
				ExpenseDate: day,
				Description: strings.TrimSpace(req.Description),
			}
			if err := tx.Create(&exp).Error; err != nil {
				return err
			}
			exp.Category = &cat
			return nil
		})
		if txErr != nil {
			http.Error(w, "server error", http.StatusInternalServerError)
			return
		}
		respondCreated(w, exp)
	}
}

func ListExpenses(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, err := currentUser(db, r)
		if err != nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		q := db.Preload("Category").Where("user_id = ?", u.ID)
		if cid := r.URL.Query().Get("category_id"); cid != "" {
			if _, err := uuid.Parse(cid); err != nil {
				http.Error(w, "category_id must be a uuid", http.StatusBadRequest)
				return
			}
			q = q.Where("category_id = ?", cid)
		}
		if from := r.URL.Query().Get("date_from"); from != "" {
			if t, err := parseExpenseDate(from); err == nil {
				q = q.Where("expense_date >= ?", t)
			}
		}
		if to := r.URL.Query().Get("date_to"); to != "" {
			if t, err := parseExpenseDate(to); err == nil {
				q = q.Where("expense_date <= ?", t)
			}
		}
		var expenses []models.Expense
		if err := q.Order("expense_date desc").Find(&expenses).Error; err != nil {
			http.Error(w, "server error", http.StatusInternalServerError)
			return
		}
		respondJSON(w, expenses)
	}
}

func UpdateExpense(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if _, err := uuid.Parse(id); err != nil {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		var req struct {
			Amount      *float64 `json:"amount"`
			ExpenseDate *string  `json:"expense_date"`
			Description *string  `json:"description"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		u, err := currentUser(db, r)
		if err != nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		var exp models.Expense
		if err := db.First(&exp, "id = ? AND user_id = ?", id, u.ID).Error; err != nil {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		if req.Amount != nil {
			if *req.Amount <= 0 {
				http.Error(w, "amount must be positive", http.StatusBadRequest)
				return
			}
			exp.Amount = *req.Amount
		}
		if req.ExpenseDate != nil {
			day, err := parseExpenseDate(*req.ExpenseDate)
			if err != nil {
				http.Error(w, "expense_date must be YYYY-MM-DD", http.StatusBadRequest)
				return
			}
			exp.ExpenseDate = day
		}
		if req.Description != nil {
			exp.Description = strings.TrimSpace(*req.Description)
		}
		if err := db.Save(&exp).Error; err != nil {
			http.Error(w, "server error", http.StatusInternalServerError)
			return
		}
		respondJSON(w, exp)
	}
}

func DeleteExpense(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if _, err := uuid.Parse(id); err != nil {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		u, err := currentUser(db, r)
		if err != nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		res := db.Delete(&models.Expense{}, "id = ? AND user_id = ?", id, u.ID)
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

func ListCategories(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var cats []models.Category
		if err := db.Order("name asc").Find(&cats).Error; err != nil {
			http.Error(w, "server error", http.StatusInternalServerError)
			return
		}
		respondJSON(w, cats)
	}
}
