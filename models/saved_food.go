package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// SavedFood is a reusable food definition. Nutrients are grams per 100 g.
// The (food_name, proteins, fats, carbs) tuple is unique across all users.
type SavedFood struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	UserID    uint            `gorm:"index;not null" json:"user_id"`
	User      *User           `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	FoodName  string          `gorm:"size:255;not null;uniqueIndex:unique_food" json:"food_name"`
	Proteins  decimal.Decimal `gorm:"type:numeric(5,2);not null;uniqueIndex:unique_food" json:"proteins"`
	Fats      decimal.Decimal `gorm:"type:numeric(5,2);not null;uniqueIndex:unique_food" json:"fats"`
	Carbs     decimal.Decimal `gorm:"type:numeric(5,2);not null;uniqueIndex:unique_food;check:check_saved_nutrients_sum,ROUND(proteins + fats + carbs, 2) <= 100" json:"carbs"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}
