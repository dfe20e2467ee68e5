package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/pabloERSH/nutrition-service/config"
	"github.com/pabloERSH/nutrition-service/models"
)

// fixedNow is the clock used by diary tests: 2026-10-18 12:00 UTC.
var fixedNow = time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:?_pragma=foreign_keys(1)"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, config.Migrate(db))
	return db
}

func createUser(t *testing.T, db *gorm.DB, name string) *models.User {
	t.Helper()
	u := models.User{Name: name, Email: fmt.Sprintf("%s@example.com", name), Password: "x"}
	require.NoError(t, db.Create(&u).Error)
	return &u
}

func newEatenFoodService(db *gorm.DB) *EatenFoodService {
	s := NewEatenFoodService(db, time.UTC)
	s.now = func() time.Time { return fixedNow }
	return s
}

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func str(s string) *string { return &s }

func foodRef(v uint) *uint { return &v }

func daysAgo(n int) *string {
	s := fixedNow.AddDate(0, 0, -n).Format("2006-01-02")
	return &s
}

func savedFoodInput(name, p, f, c string) SavedFoodInput {
	return SavedFoodInput{FoodName: str(name), Proteins: dec(p), Fats: dec(f), Carbs: dec(c)}
}

func requireValidation(t *testing.T, err error, msgs ...string) {
	t.Helper()
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	for _, m := range msgs {
		require.Contains(t, verr.Errors, m)
	}
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.True(t, decimal.RequireFromString(want).Equal(got), "want %s got %s", want, got)
}
