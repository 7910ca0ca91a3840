package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"fintrack/internal/auth"
)

func authedJSONRequest(t *testing.T, method, target string, body any, claims auth.Claims) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req.WithContext(auth.WithClaims(req.Context(), claims))
}

func TestCreateExpenseExistingCategory(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery(`SELECT (.+) FROM "users" WHERE email = \$1`).
		WillReturnRows(userRow("u-1", "a@x.com", "$argon2id$irrelevant"))
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM "categories" WHERE LOWER\(name\) = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow("c-1", "Groceries"))
	mock.ExpectQuery(`INSERT INTO "expenses"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("e-1"))
	mock.ExpectCommit()

	req := authedJSONRequest(t, http.MethodPost, "/v1/expenses", map[string]any{
		"amount":        42.50,
		"expense_date":  "2026-08-30",
		"description":   "weekly shop",
		"category_name": " groceries ",
	}, auth.Claims{Email: "a@x.com", Role: "user"})
	rec := httptest.NewRecorder()
	CreateExpense(db, zap.NewNop().Sugar()).ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "c-1", body["category_id"])
	assert.Equal(t, 42.50, body["amount"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateExpenseAutoCreatesCategory(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery(`SELECT (.+) FROM "users" WHERE email = \$1`).
		WillReturnRows(userRow("u-1", "a@x.com", "$argon2id$irrelevant"))
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM "categories" WHERE LOWER\(name\) = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery(`INSERT INTO "categories"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("c-2"))
	mock.ExpectQuery(`INSERT INTO "expenses"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("e-2"))
	mock.ExpectCommit()

	req := authedJSONRequest(t, http.MethodPost, "/v1/expenses", map[string]any{
		"amount":        9.99,
		"expense_date":  "2026-08-30",
		"description":   "app subscription",
		"category_name": "Software  Tools",
	}, auth.Claims{Email: "a@x.com", Role: "user"})
	rec := httptest.NewRecorder()
	CreateExpense(db, zap.NewNop().Sugar()).ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateExpenseRejectsBadInput(t *testing.T) {
	db, mock := newMockDB(t)
	claims := auth.Claims{Email: "a@x.com", Role: "user"}

	cases := []map[string]any{
		{"amount": -1, "expense_date": "2026-08-30", "category_name": "x"},
		{"amount": 10, "expense_date": "30/08/2026", "category_name": "x"},
		{"amount": 10, "expense_date": "2026-08-30", "category_name": "   "},
	}
	for _, body := range cases {
		req := authedJSONRequest(t, http.MethodPost, "/v1/expenses", body, claims)
		rec := httptest.NewRecorder()
		CreateExpense(db, zap.NewNop().Sugar()).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "body %v", body)
	}
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListExpensesRejectsBadCategoryFilter(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery(`SELECT (.+) FROM "users" WHERE email = \$1`).
		WillReturnRows(userRow("u-1", "a@x.com", "$argon2id$irrelevant"))

	req := authedJSONRequest(t, http.MethodGet, "/v1/expenses?category_id=groceries", nil,
		auth.Claims{Email: "a@x.com", Role: "user"})
	rec := httptest.NewRecorder()
	ListExpenses(db, zap.NewNop().Sugar()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "category_id must be a uuid")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteExpenseMalformedIDNotFound(t *testing.T) {
	db, mock := newMockDB(t)

	// malformed ids 404 without a database round trip
	req := authedJSONRequest(t, http.MethodDelete, "/v1/expenses/123", nil,
		auth.Claims{Email: "a@x.com", Role: "user"})
	rec := httptest.NewRecorder()
	withURLParam(req, rec, "id", "123", DeleteExpense(db, zap.NewNop().Sugar()))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListExpensesScopedToOwner(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery(`SELECT (.+) FROM "users" WHERE email = \$1`).
		WillReturnRows(userRow("u-1", "a@x.com", "$argon2id$irrelevant"))
	mock.ExpectQuery(`SELECT (.+) FROM "expenses" WHERE user_id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "category_id", "amount"}).
			AddRow("e-1", "u-1", "c-1", 42.50))
	mock.ExpectQuery(`SELECT (.+) FROM "categories" WHERE "categories"."id" = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow("c-1", "Groceries"))

	req := authedJSONRequest(t, http.MethodGet, "/v1/expenses", nil, auth.Claims{Email: "a@x.com", Role: "user"})
	rec := httptest.NewRecorder()
	ListExpenses(db, zap.NewNop().Sugar()).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var got []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "e-1", got[0]["id"])
	require.NoError(t, mock.ExpectationsWereMet())
}
