package services

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/pabloERSH/nutrition-service/utils"
)

const (
	msgBothSources      = "Cannot provide both food_id and nutrients."
	msgMissingNutrients = "Must provide all nutrients (proteins, fats, carbs) and food name if food_id is not provided."
	msgNutrientSum      = "The total amount of nutrients should be less than or equal to 100 grams."
	msgDuplicateFood    = "A food with these nutritional values already exists."
	msgInvalidFoodID    = "The selected food_id is invalid."
	msgLinkedNoInline   = "Cannot provide nutrients for an entry linked to a saved food."
	msgInlineNoLink     = "Cannot link a saved food to an entry with custom nutrients."
	msgNameRequired     = "The food name is required."
	msgNameTooLong      = "The food name cannot exceed 255 characters."
	msgDateRequired     = "The eaten_at is required."
	msgDateFormat       = "The eaten_at must be a YYYY-MM-DD format."
	msgDateTooOld       = "The eaten_at should not be earlier than 30 days."
	msgDateFuture       = "The eaten_at cannot be later than today."
	msgWeightRequired   = "Weight is required."
	msgQueryDate        = "Date should be in format YYYY-MM-DD."
	msgSearchRequired   = "The food_name field is required."
	maxFoodNameRunes    = 255
	WindowDays          = 30
)

var (
	maxSavedNutrient = decimal.RequireFromString("99.99")
	maxEatenNutrient = decimal.RequireFromString("999.99")
	maxWeight        = decimal.RequireFromString("99999.99")
	maxNutrientSum   = decimal.NewFromInt(100)
)

func init() {
	// Grams and kcal go over the wire as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

type fieldErrors struct {
	msgs []string
}

func (v *fieldErrors) add(msg string) { v.msgs = append(v.msgs, msg) }

func (v *fieldErrors) err() error {
	if len(v.msgs) == 0 {
		return nil
	}
	return newValidationError(v.msgs...)
}

// name trims and checks a food name, returning the cleaned value.
func (v *fieldErrors) name(s string) string {
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		v.add(msgNameRequired)
	case utf8.RuneCountInString(s) > maxFoodNameRunes:
		v.add(msgNameTooLong)
	}
	return s
}

// grams checks a non-negative amount not above max, rounded to cents.
func (v *fieldErrors) grams(label string, d, max decimal.Decimal) decimal.Decimal {
	d = d.Round(2)
	if d.IsNegative() {
		v.add(fmt.Sprintf("%s cannot be negative.", label))
	}
	if d.GreaterThan(max) {
		v.add(fmt.Sprintf("%s cannot exceed %s.", label, max.StringFixed(2)))
	}
	return d
}

func (v *fieldErrors) nutrientSum(p, f, c decimal.Decimal) {
	if utils.SumDecimals(p, f, c).GreaterThan(maxNutrientSum) {
		v.add(msgNutrientSum)
	}
}

// eatenAt parses a diary date and checks it lies in [today-30d, today].
func (v *fieldErrors) eatenAt(s string, today time.Time) time.Time {
	d, err := utils.ParseDate(strings.TrimSpace(s))
	if err != nil {
		v.add(msgDateFormat)
		return time.Time{}
	}
	if d.Before(today.AddDate(0, 0, -WindowDays)) {
		v.add(msgDateTooOld)
	}
	if d.After(today) {
		v.add(msgDateFuture)
	}
	return d
}
