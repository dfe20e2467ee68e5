package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/pabloERSH/nutrition-service/models"
	"github.com/pabloERSH/nutrition-service/utils"
)

type PurgeService struct {
	db  *gorm.DB
	loc *time.Location
	now func() time.Time
}

func NewPurgeService(db *gorm.DB, loc *time.Location) *PurgeService {
	if loc == nil {
		loc = time.UTC
	}
	return &PurgeService{db: db, loc: loc, now: time.Now}
}

// PurgeOlderThan deletes diary entries dated before today minus days and
// returns how many were removed.
func (s *PurgeService) PurgeOlderThan(ctx context.Context, days int) (int64, error) {
	cutoff := utils.Today(s.now(), s.loc).AddDate(0, 0, -days)
	res := s.db.WithContext(ctx).Where("eaten_at < ?", cutoff).Delete(&models.EatenFood{})
	if res.Error != nil {
		return 0, fmt.Errorf("purge eaten foods: %w", res.Error)
	}
	slog.InfoContext(ctx, "purged old eaten foods", "cutoff", cutoff.Format(utils.DateLayout), "deleted", res.RowsAffected)
	return res.RowsAffected, nil
}
