package services

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	return db, mock
}

func savedFoodRows(userID uint) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{"id", "user_id", "food_name", "proteins", "fats", "carbs", "created_at", "updated_at"}).
		AddRow(7, userID, "Chicken", "31.00", "3.60", "0.00", now, now)
}

func TestSavedFoodDeleteRunsInOneTransaction(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewSavedFoodService(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "saved_foods"`) + `.*FOR UPDATE`).
		WillReturnRows(savedFoodRows(1))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "eaten_foods" SET`)).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "saved_foods"`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	converted, err := svc.Delete(context.Background(), 1, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(2), converted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSavedFoodDeleteRollsBackWhenConversionFails(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewSavedFoodService(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "saved_foods"`)).
		WillReturnRows(savedFoodRows(1))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "eaten_foods" SET`)).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	_, err := svc.Delete(context.Background(), 1, 7)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSavedFoodDeleteRollsBackWhenDeleteFails(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewSavedFoodService(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "saved_foods"`)).
		WillReturnRows(savedFoodRows(1))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "eaten_foods" SET`)).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "saved_foods"`)).
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	_, err := svc.Delete(context.Background(), 1, 7)
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSavedFoodDeleteForbiddenWritesNothing(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewSavedFoodService(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "saved_foods"`)).
		WillReturnRows(savedFoodRows(2))
	mock.ExpectRollback()

	_, err := svc.Delete(context.Background(), 1, 7)
	assert.ErrorIs(t, err, ErrForbidden)
	assert.NoError(t, mock.ExpectationsWereMet())
}
