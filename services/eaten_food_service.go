package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/pabloERSH/nutrition-service/models"
	"github.com/pabloERSH/nutrition-service/utils"
)

type EatenFoodService struct {
	db  *gorm.DB
	loc *time.Location
	now func() time.Time
}

// NewEatenFoodService builds the diary service. loc decides which calendar
// day "today" is for the eaten_at window.
func NewEatenFoodService(db *gorm.DB, loc *time.Location) *EatenFoodService {
	if loc == nil {
		loc = time.UTC
	}
	return &EatenFoodService{db: db, loc: loc, now: time.Now}
}

func (s *EatenFoodService) today() time.Time { return utils.Today(s.now(), s.loc) }

// EatenFoodInput is a create or partial update request. Nil fields are
// absent.
type EatenFoodInput struct {
	FoodID   *uint            `json:"food_id"`
	FoodName *string          `json:"food_name"`
	Proteins *decimal.Decimal `json:"proteins"`
	Fats     *decimal.Decimal `json:"fats"`
	Carbs    *decimal.Decimal `json:"carbs"`
	Weight   *decimal.Decimal `json:"weight"`
	EatenAt  *string          `json:"eaten_at"`
}

func (in EatenFoodInput) hasInline() bool {
	return in.FoodName != nil || in.Proteins != nil || in.Fats != nil || in.Carbs != nil
}

func (in EatenFoodInput) hasAllInline() bool {
	return in.FoodName != nil && in.Proteins != nil && in.Fats != nil && in.Carbs != nil
}

// EatenFoodView is a diary entry with name and nutrients resolved from the
// linked saved food when there is one.
type EatenFoodView struct {
	ID        uint            `json:"id"`
	UserID    uint            `json:"user_id"`
	FoodID    *uint           `json:"food_id"`
	FoodName  string          `json:"food_name"`
	Proteins  decimal.Decimal `json:"proteins"`
	Fats      decimal.Decimal `json:"fats"`
	Carbs     decimal.Decimal `json:"carbs"`
	Weight    decimal.Decimal `json:"weight"`
	EatenAt   string          `json:"eaten_at"`
	Kcal      decimal.Decimal `json:"kcal"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type EatenFoodPage struct {
	Data []EatenFoodView `json:"data"`
	Meta PageMeta        `json:"meta"`
}

type DaySummary struct {
	Items         []EatenFoodView `json:"items"`
	TotalProteins decimal.Decimal `json:"total_proteins"`
	TotalFats     decimal.Decimal `json:"total_fats"`
	TotalCarbs    decimal.Decimal `json:"total_carbs"`
	TotalKcal     decimal.Decimal `json:"total_kcal"`
}

type EatenFoodDayPage struct {
	Data DaySummary `json:"data"`
	Meta PageMeta   `json:"meta"`
}

// eatenFoodRow is one row of the resolving join.
type eatenFoodRow struct {
	ID        uint
	UserID    uint
	FoodID    *uint
	FoodName  *string
	Proteins  decimal.NullDecimal
	Fats      decimal.NullDecimal
	Carbs     decimal.NullDecimal
	Weight    decimal.Decimal
	EatenAt   time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

const resolvedColumns = `eaten_foods.id, eaten_foods.user_id, eaten_foods.food_id,
COALESCE(saved_foods.food_name, eaten_foods.food_name) AS food_name,
COALESCE(saved_foods.proteins, eaten_foods.proteins) AS proteins,
COALESCE(saved_foods.fats, eaten_foods.fats) AS fats,
COALESCE(saved_foods.carbs, eaten_foods.carbs) AS carbs,
eaten_foods.weight, eaten_foods.eaten_at, eaten_foods.created_at, eaten_foods.updated_at`

func (r *eatenFoodRow) view() EatenFoodView {
	out := EatenFoodView{
		ID:        r.ID,
		UserID:    r.UserID,
		FoodID:    r.FoodID,
		Proteins:  r.Proteins.Decimal,
		Fats:      r.Fats.Decimal,
		Carbs:     r.Carbs.Decimal,
		Weight:    r.Weight,
		EatenAt:   r.EatenAt.Format(utils.DateLayout),
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	if r.FoodName != nil {
		out.FoodName = *r.FoodName
	}
	out.Kcal = utils.KcalWeighted(out.Proteins, out.Fats, out.Carbs, out.Weight)
	return out
}

func (s *EatenFoodService) resolved(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).
		Table("eaten_foods").
		Select(resolvedColumns).
		Joins("LEFT JOIN saved_foods ON saved_foods.id = eaten_foods.food_id")
}

func (s *EatenFoodService) Create(ctx context.Context, userID uint, in EatenFoodInput) (*EatenFoodView, error) {
	db := s.db.WithContext(ctx)
	var v fieldErrors
	entry := models.EatenFood{UserID: userID}

	if in.EatenAt == nil {
		v.add(msgDateRequired)
	} else {
		entry.EatenAt = v.eatenAt(*in.EatenAt, s.today())
	}
	if in.Weight == nil {
		v.add(msgWeightRequired)
	} else {
		entry.Weight = v.grams("Weight", *in.Weight, maxWeight)
	}

	switch {
	case in.FoodID != nil && in.hasInline():
		v.add(msgBothSources)
	case in.FoodID != nil:
		ok, err := savedFoodExists(db, *in.FoodID)
		if err != nil {
			return nil, err
		}
		if !ok {
			v.add(msgInvalidFoodID)
		}
		entry.FoodID = in.FoodID
	case !in.hasAllInline():
		v.add(msgMissingNutrients)
	default:
		name := v.name(*in.FoodName)
		p := v.grams("Proteins", *in.Proteins, maxEatenNutrient)
		f := v.grams("Fats", *in.Fats, maxEatenNutrient)
		c := v.grams("Carbohydrates", *in.Carbs, maxEatenNutrient)
		v.nutrientSum(p, f, c)
		entry.FoodName, entry.Proteins, entry.Fats, entry.Carbs = &name, &p, &f, &c
	}
	if err := v.err(); err != nil {
		return nil, err
	}

	if err := db.Create(&entry).Error; err != nil {
		return nil, storageError("create eaten food", err, nil)
	}
	return s.Get(ctx, userID, entry.ID)
}

func savedFoodExists(db *gorm.DB, id uint) (bool, error) {
	var n int64
	if err := db.Model(&models.SavedFood{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return false, fmt.Errorf("check saved food: %w", err)
	}
	return n > 0, nil
}

// Get returns one of the caller's entries.
func (s *EatenFoodService) Get(ctx context.Context, userID, id uint) (*EatenFoodView, error) {
	var rows []eatenFoodRow
	if err := s.resolved(ctx).Where("eaten_foods.id = ?", id).Limit(1).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("load eaten food: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	if rows[0].UserID != userID {
		return nil, ErrForbidden
	}
	out := rows[0].view()
	return &out, nil
}

// List returns the caller's entries, most recent day first.
func (s *EatenFoodService) List(ctx context.Context, userID uint, page PageRequest) (*EatenFoodPage, error) {
	views, meta, err := s.list(ctx, page, "eaten_foods.user_id = ?", userID)
	if err != nil {
		return nil, err
	}
	return &EatenFoodPage{Data: views, Meta: meta}, nil
}

// ListByDate returns the caller's entries for one day with totals over the
// returned page. Nutrient totals add up the per-100 g values; the kcal total
// adds up each entry's weighted kcal.
func (s *EatenFoodService) ListByDate(ctx context.Context, userID uint, date string, page PageRequest) (*EatenFoodDayPage, error) {
	day, err := utils.ParseDate(date)
	if err != nil {
		return nil, newValidationError(msgQueryDate)
	}

	views, meta, err := s.list(ctx, page, "eaten_foods.user_id = ? AND eaten_foods.eaten_at = ?", userID, day)
	if err != nil {
		return nil, err
	}

	sum := DaySummary{Items: views}
	for _, item := range views {
		sum.TotalProteins = sum.TotalProteins.Add(item.Proteins)
		sum.TotalFats = sum.TotalFats.Add(item.Fats)
		sum.TotalCarbs = sum.TotalCarbs.Add(item.Carbs)
		sum.TotalKcal = sum.TotalKcal.Add(item.Kcal)
	}
	return &EatenFoodDayPage{Data: sum, Meta: meta}, nil
}

func (s *EatenFoodService) list(ctx context.Context, page PageRequest, where string, args ...any) ([]EatenFoodView, PageMeta, error) {
	var total int64
	if err := s.db.WithContext(ctx).Table("eaten_foods").Where(where, args...).Count(&total).Error; err != nil {
		return nil, PageMeta{}, fmt.Errorf("count eaten foods: %w", err)
	}

	var rows []eatenFoodRow
	q := s.resolved(ctx).Where(where, args...).Order("eaten_foods.eaten_at DESC, eaten_foods.id DESC")
	if err := page.apply(q).Scan(&rows).Error; err != nil {
		return nil, PageMeta{}, fmt.Errorf("list eaten foods: %w", err)
	}

	views := make([]EatenFoodView, 0, len(rows))
	for i := range rows {
		views = append(views, rows[i].view())
	}
	return views, newPageMeta(page, total), nil
}

func (s *EatenFoodService) load(db *gorm.DB, userID, id uint) (*models.EatenFood, error) {
	var entry models.EatenFood
	if err := db.First(&entry, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load eaten food: %w", err)
	}
	if entry.UserID != userID {
		return nil, ErrForbidden
	}
	return &entry, nil
}

// Update applies a partial update after the ownership check. An entry keeps
// its mode: a linked entry may switch to another saved food but never takes
// inline nutrients, and an inline entry never takes a food_id.
func (s *EatenFoodService) Update(ctx context.Context, userID, id uint, in EatenFoodInput) (*EatenFoodView, error) {
	db := s.db.WithContext(ctx)
	entry, err := s.load(db, userID, id)
	if err != nil {
		return nil, err
	}

	var v fieldErrors
	updates := map[string]any{}
	if in.EatenAt != nil {
		updates["eaten_at"] = v.eatenAt(*in.EatenAt, s.today())
	}
	if in.Weight != nil {
		updates["weight"] = v.grams("Weight", *in.Weight, maxWeight)
	}

	if entry.FoodID != nil {
		if in.hasInline() {
			v.add(msgLinkedNoInline)
		}
		if in.FoodID != nil {
			ok, err := savedFoodExists(db, *in.FoodID)
			if err != nil {
				return nil, err
			}
			if !ok {
				v.add(msgInvalidFoodID)
			}
			updates["food_id"] = *in.FoodID
		}
	} else {
		if in.FoodID != nil {
			v.add(msgInlineNoLink)
		}
		s.mergeInline(&v, entry, in, updates)
	}
	if err := v.err(); err != nil {
		return nil, err
	}

	if len(updates) > 0 {
		if err := db.Model(entry).Updates(updates).Error; err != nil {
			return nil, storageError("update eaten food", err, nil)
		}
	}
	return s.Get(ctx, userID, id)
}

// mergeInline validates inline fields of an update against the stored values
// and records the changed columns.
func (s *EatenFoodService) mergeInline(v *fieldErrors, entry *models.EatenFood, in EatenFoodInput, updates map[string]any) {
	if in.FoodName != nil {
		updates["food_name"] = v.name(*in.FoodName)
	}
	merged := func(col, label string, stored, given *decimal.Decimal) decimal.Decimal {
		if given == nil {
			if stored == nil {
				return decimal.Zero
			}
			return *stored
		}
		d := v.grams(label, *given, maxEatenNutrient)
		updates[col] = d
		return d
	}
	p := merged("proteins", "Proteins", entry.Proteins, in.Proteins)
	f := merged("fats", "Fats", entry.Fats, in.Fats)
	c := merged("carbs", "Carbohydrates", entry.Carbs, in.Carbs)
	v.nutrientSum(p, f, c)
}

func (s *EatenFoodService) Delete(ctx context.Context, userID, id uint) error {
	db := s.db.WithContext(ctx)
	entry, err := s.load(db, userID, id)
	if err != nil {
		return err
	}
	if err := db.Delete(entry).Error; err != nil {
		return fmt.Errorf("delete eaten food: %w", err)
	}
	return nil
}
