package utils

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestKcal(t *testing.T) {
	cases := []struct {
		name             string
		p, f, c, wantKcal string
	}{
		{"mixed", "10", "20", "30", "340"},
		{"zero", "0", "0", "0", "0"},
		{"fractional", "12.34", "5.67", "8.9", "135.99"},
		{"fat only", "0", "99.99", "0", "899.91"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Kcal(dec(tc.p), dec(tc.f), dec(tc.c))
			assert.True(t, got.Equal(dec(tc.wantKcal)), "got %s want %s", got, tc.wantKcal)
		})
	}
}

func TestKcalWeighted(t *testing.T) {
	cases := []struct {
		name           string
		p, f, c, w, want string
	}{
		{"one and a half portions", "10", "20", "30", "150", "510"},
		{"hundred grams", "10", "20", "30", "100", "340"},
		{"no weight", "10", "20", "30", "0", "0"},
		{"rounds half up", "0.01", "0", "0", "12.5", "0.01"},
		{"rounds to cents", "1.11", "0", "0", "33", "1.47"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := KcalWeighted(dec(tc.p), dec(tc.f), dec(tc.c), dec(tc.w))
			assert.True(t, got.Equal(dec(tc.want)), "got %s want %s", got, tc.want)
		})
	}
}

func centigrams(max int64) gopter.Gen {
	return gen.Int64Range(0, max).Map(func(v int64) decimal.Decimal {
		return decimal.New(v, -2)
	})
}

func TestKcalProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("kcal is 4p + 9f + 4c", prop.ForAll(
		func(p, f, c decimal.Decimal) bool {
			want := p.Mul(decimal.NewFromInt(4)).Add(f.Mul(decimal.NewFromInt(9))).Add(c.Mul(decimal.NewFromInt(4)))
			return Kcal(p, f, c).Equal(want)
		},
		centigrams(9999), centigrams(9999), centigrams(9999),
	))

	properties.Property("100 g portion equals base kcal", prop.ForAll(
		func(p, f, c decimal.Decimal) bool {
			return KcalWeighted(p, f, c, decimal.NewFromInt(100)).Equal(Kcal(p, f, c))
		},
		centigrams(9999), centigrams(9999), centigrams(9999),
	))

	properties.Property("weighted kcal grows with weight", prop.ForAll(
		func(p, f, c, w1, w2 decimal.Decimal) bool {
			lo, hi := w1, w2
			if lo.GreaterThan(hi) {
				lo, hi = hi, lo
			}
			return KcalWeighted(p, f, c, lo).LessThanOrEqual(KcalWeighted(p, f, c, hi))
		},
		centigrams(9999), centigrams(9999), centigrams(9999), centigrams(9999999), centigrams(9999999),
	))

	properties.Property("results have at most two decimals", prop.ForAll(
		func(p, f, c, w decimal.Decimal) bool {
			got := KcalWeighted(p, f, c, w)
			return got.Equal(got.Round(2))
		},
		centigrams(9999), centigrams(9999), centigrams(9999), centigrams(9999999),
	))

	properties.TestingRun(t)
}
