package utils

import "github.com/shopspring/decimal"

var (
	kcalPerGramProtein = decimal.NewFromInt(4)
	kcalPerGramFat     = decimal.NewFromInt(9)
	kcalPerGramCarb    = decimal.NewFromInt(4)
	hundred            = decimal.NewFromInt(100)
)

// Kcal returns the energy of 100 g of food with the given macronutrient
// grams, rounded half-up to 2 decimal places.
func Kcal(proteins, fats, carbs decimal.Decimal) decimal.Decimal {
	return proteins.Mul(kcalPerGramProtein).
		Add(fats.Mul(kcalPerGramFat)).
		Add(carbs.Mul(kcalPerGramCarb)).
		Round(2)
}

// KcalWeighted scales Kcal to a portion of weight grams.
func KcalWeighted(proteins, fats, carbs, weight decimal.Decimal) decimal.Decimal {
	return weight.Div(hundred).Mul(Kcal(proteins, fats, carbs)).Round(2)
}
