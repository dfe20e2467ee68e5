package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// EatenFood is a diary entry. It either links a SavedFood (FoodID set, inline
// columns null) or carries its own name and nutrients (FoodID null).
type EatenFood struct {
	ID        uint             `gorm:"primaryKey" json:"id"`
	UserID    uint             `gorm:"index;not null" json:"user_id"`
	User      *User            `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	FoodID    *uint            `gorm:"index;check:check_food_id_or_nutrients,(food_id IS NOT NULL AND food_name IS NULL AND proteins IS NULL AND fats IS NULL AND carbs IS NULL) OR (food_id IS NULL AND food_name IS NOT NULL AND proteins IS NOT NULL AND fats IS NOT NULL AND carbs IS NOT NULL)" json:"food_id"`
	SavedFood *SavedFood       `gorm:"foreignKey:FoodID;constraint:OnDelete:SET NULL" json:"-"`
	FoodName  *string          `gorm:"size:255" json:"food_name"`
	Proteins  *decimal.Decimal `gorm:"type:numeric(5,2)" json:"proteins"`
	Fats      *decimal.Decimal `gorm:"type:numeric(5,2)" json:"fats"`
	Carbs     *decimal.Decimal `gorm:"type:numeric(5,2);check:check_eaten_nutrients_sum,ROUND(proteins + fats + carbs, 2) <= 100" json:"carbs"`
	Weight    decimal.Decimal  `gorm:"type:numeric(7,2);not null" json:"weight"`
	EatenAt   time.Time        `gorm:"type:date;not null;index" json:"eaten_at"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// All lists the models in migration order.
func All() []any {
	return []any{&User{}, &SavedFood{}, &EatenFood{}}
}
