package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pabloERSH/nutrition-service/models"
	"github.com/pabloERSH/nutrition-service/utils"
)

var tracer = otel.Tracer("github.com/pabloERSH/nutrition-service/services")

type SavedFoodService struct{ db *gorm.DB }

func NewSavedFoodService(db *gorm.DB) *SavedFoodService { return &SavedFoodService{db: db} }

// SavedFoodInput is a create or partial update request. Nil fields are
// absent.
type SavedFoodInput struct {
	FoodName *string          `json:"food_name"`
	Proteins *decimal.Decimal `json:"proteins"`
	Fats     *decimal.Decimal `json:"fats"`
	Carbs    *decimal.Decimal `json:"carbs"`
}

type SavedFoodView struct {
	ID        uint            `json:"id"`
	UserID    uint            `json:"user_id"`
	FoodName  string          `json:"food_name"`
	Proteins  decimal.Decimal `json:"proteins"`
	Fats      decimal.Decimal `json:"fats"`
	Carbs     decimal.Decimal `json:"carbs"`
	Kcal      decimal.Decimal `json:"kcal"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type SavedFoodPage struct {
	Data []SavedFoodView `json:"data"`
	Meta PageMeta        `json:"meta"`
}

func newSavedFoodView(f *models.SavedFood) SavedFoodView {
	return SavedFoodView{
		ID:        f.ID,
		UserID:    f.UserID,
		FoodName:  f.FoodName,
		Proteins:  f.Proteins,
		Fats:      f.Fats,
		Carbs:     f.Carbs,
		Kcal:      utils.Kcal(f.Proteins, f.Fats, f.Carbs),
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
	}
}

func (s *SavedFoodService) Create(ctx context.Context, userID uint, in SavedFoodInput) (*SavedFoodView, error) {
	var v fieldErrors
	food := models.SavedFood{UserID: userID}

	if in.FoodName == nil {
		v.add(msgNameRequired)
	} else {
		food.FoodName = v.name(*in.FoodName)
	}
	food.Proteins = requiredGrams(&v, "Proteins", in.Proteins, maxSavedNutrient)
	food.Fats = requiredGrams(&v, "Fats", in.Fats, maxSavedNutrient)
	food.Carbs = requiredGrams(&v, "Carbohydrates", in.Carbs, maxSavedNutrient)
	v.nutrientSum(food.Proteins, food.Fats, food.Carbs)
	if err := v.err(); err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	dup, err := duplicateExists(db, &food)
	if err != nil {
		return nil, err
	}
	if dup {
		return nil, ErrDuplicateFood
	}
	if err := db.Create(&food).Error; err != nil {
		return nil, storageError("create saved food", err, ErrDuplicateFood)
	}

	out := newSavedFoodView(&food)
	return &out, nil
}

func requiredGrams(v *fieldErrors, label string, d *decimal.Decimal, max decimal.Decimal) decimal.Decimal {
	if d == nil {
		v.add(fmt.Sprintf("%s are required.", label))
		return decimal.Zero
	}
	return v.grams(label, *d, max)
}

// duplicateExists reports whether another saved food, owned by anyone, has the
// same name and nutrients as f.
func duplicateExists(db *gorm.DB, f *models.SavedFood) (bool, error) {
	q := db.Model(&models.SavedFood{}).
		Where("food_name = ? AND proteins = ? AND fats = ? AND carbs = ?", f.FoodName, f.Proteins, f.Fats, f.Carbs)
	if f.ID != 0 {
		q = q.Where("id <> ?", f.ID)
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return false, fmt.Errorf("check duplicate food: %w", err)
	}
	return n > 0, nil
}

// List returns the caller's saved foods, newest first.
func (s *SavedFoodService) List(ctx context.Context, userID uint, page PageRequest) (*SavedFoodPage, error) {
	base := func() *gorm.DB {
		return s.db.WithContext(ctx).Model(&models.SavedFood{}).Where("user_id = ?", userID)
	}
	return s.page(base, page)
}

// Search matches food names case-insensitively across all users.
func (s *SavedFoodService) Search(ctx context.Context, query string, page PageRequest) (*SavedFoodPage, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, newValidationError(msgSearchRequired)
	}
	pattern := "%" + escapeLike(strings.ToLower(query)) + "%"
	base := func() *gorm.DB {
		return s.db.WithContext(ctx).Model(&models.SavedFood{}).
			Where(`LOWER(food_name) LIKE ? ESCAPE '\'`, pattern)
	}
	return s.page(base, page)
}

func (s *SavedFoodService) page(base func() *gorm.DB, page PageRequest) (*SavedFoodPage, error) {
	var total int64
	if err := base().Count(&total).Error; err != nil {
		return nil, fmt.Errorf("count saved foods: %w", err)
	}

	var foods []models.SavedFood
	if err := page.apply(base()).Order("id DESC").Find(&foods).Error; err != nil {
		return nil, fmt.Errorf("list saved foods: %w", err)
	}

	out := &SavedFoodPage{Data: make([]SavedFoodView, 0, len(foods)), Meta: newPageMeta(page, total)}
	for i := range foods {
		out.Data = append(out.Data, newSavedFoodView(&foods[i]))
	}
	return out, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string { return likeEscaper.Replace(s) }

// load fetches a saved food and checks that userID owns it.
func (s *SavedFoodService) load(db *gorm.DB, userID, id uint) (*models.SavedFood, error) {
	var food models.SavedFood
	if err := db.First(&food, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load saved food: %w", err)
	}
	if food.UserID != userID {
		return nil, ErrForbidden
	}
	return &food, nil
}

// Update applies a partial update. Ownership is checked before any field is
// validated. Changes never propagate to linked diary entries, which resolve
// nutrients at read time.
func (s *SavedFoodService) Update(ctx context.Context, userID, id uint, in SavedFoodInput) (*SavedFoodView, error) {
	db := s.db.WithContext(ctx)
	food, err := s.load(db, userID, id)
	if err != nil {
		return nil, err
	}

	var v fieldErrors
	updates := map[string]any{}
	if in.FoodName != nil {
		food.FoodName = v.name(*in.FoodName)
		updates["food_name"] = food.FoodName
	}
	if in.Proteins != nil {
		food.Proteins = v.grams("Proteins", *in.Proteins, maxSavedNutrient)
		updates["proteins"] = food.Proteins
	}
	if in.Fats != nil {
		food.Fats = v.grams("Fats", *in.Fats, maxSavedNutrient)
		updates["fats"] = food.Fats
	}
	if in.Carbs != nil {
		food.Carbs = v.grams("Carbohydrates", *in.Carbs, maxSavedNutrient)
		updates["carbs"] = food.Carbs
	}
	v.nutrientSum(food.Proteins, food.Fats, food.Carbs)
	if err := v.err(); err != nil {
		return nil, err
	}

	if len(updates) > 0 {
		dup, err := duplicateExists(db, food)
		if err != nil {
			return nil, err
		}
		if dup {
			return nil, ErrDuplicateFood
		}
		if err := db.Model(food).Updates(updates).Error; err != nil {
			return nil, storageError("update saved food", err, ErrDuplicateFood)
		}
	}

	out := newSavedFoodView(food)
	return &out, nil
}

// Delete removes a saved food. Every diary entry linked to it is first
// converted to an inline entry carrying the food's current name and
// nutrients. Both steps commit or roll back together. It returns the number
// of converted entries.
func (s *SavedFoodService) Delete(ctx context.Context, userID, id uint) (int64, error) {
	ctx, span := tracer.Start(ctx, "SavedFoodService.Delete")
	defer span.End()
	span.SetAttributes(attribute.Int64("saved_food.id", int64(id)))

	var converted int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		food, err := s.load(tx.Clauses(clause.Locking{Strength: "UPDATE"}), userID, id)
		if err != nil {
			return err
		}

		res := tx.Model(&models.EatenFood{}).
			Where("food_id = ?", food.ID).
			Updates(map[string]any{
				"food_id":   nil,
				"food_name": food.FoodName,
				"proteins":  food.Proteins,
				"fats":      food.Fats,
				"carbs":     food.Carbs,
			})
		if res.Error != nil {
			return storageError("convert linked eaten foods", res.Error, nil)
		}
		converted = res.RowsAffected

		if err := tx.Delete(&models.SavedFood{}, food.ID).Error; err != nil {
			return storageError("delete saved food", err, nil)
		}
		return nil
	})
	if err != nil {
		if !errors.Is(err, ErrNotFound) && !errors.Is(err, ErrForbidden) {
			span.RecordError(err)
			span.SetStatus(codes.Error, "delete failed")
		}
		return 0, err
	}

	span.SetAttributes(attribute.Int64("eaten_foods.converted", converted))
	slog.InfoContext(ctx, "saved food deleted", "saved_food_id", id, "user_id", userID, "converted_entries", converted)
	return converted, nil
}
