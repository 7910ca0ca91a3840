package bootstrap

import (
	"database/sql/driver"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"fintrack/internal/auth"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })
	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB, PreferSimpleProtocol: true}), &gorm.Config{})
	if err != nil {
		t.Fatalf("gorm.Open error: %v", err)
	}
	return db, mock
}

// hashedValue matches any argument that is an argon2id-encoded string.
type hashedValue struct{}

func (hashedValue) Match(v driver.Value) bool {
	s, ok := v.(string)
	return ok && auth.IsHashed(s)
}

func TestMigratePlainPasswordsUpgradesLegacyRows(t *testing.T) {
	db, mock := newMockDB(t)
	hasher := auth.NewPasswordHasher()
	alreadyHashed, err := hasher.Hash("migrated-before")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM "users" WHERE password_hash <> ''`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "password_hash"}).
			AddRow("u-1", "legacy@x.com", "plaintext-secret").
			AddRow("u-2", "done@x.com", alreadyHashed))
	mock.ExpectExec(`UPDATE "users" SET`).
		WithArgs(hashedValue{}, sqlmock.AnyArg(), "u-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	MigratePlainPasswords(db, hasher, zap.NewNop().Sugar())

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestMigratePlainPasswordsIdempotent(t *testing.T) {
	db, mock := newMockDB(t)
	hasher := auth.NewPasswordHasher()
	hashed, err := hasher.Hash("already-done")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}

	// every row already hashed: no UPDATE may be issued
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM "users" WHERE password_hash <> ''`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "password_hash"}).
			AddRow("u-1", "a@x.com", hashed))
	mock.ExpectCommit()

	MigratePlainPasswords(db, hasher, zap.NewNop().Sugar())

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestMigratePlainPasswordsFailureRollsBackAndContinues(t *testing.T) {
	db, mock := newMockDB(t)
	hasher := auth.NewPasswordHasher()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM "users" WHERE password_hash <> ''`).
		WillReturnError(errors.New("relation does not exist"))
	mock.ExpectRollback()

	// must log and return, never panic or abort startup
	MigratePlainPasswords(db, hasher, zap.NewNop().Sugar())

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
