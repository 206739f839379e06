package plan

import (
	"github.com/shopspring/decimal"

	"fjacquet/commission-reconcile/internal/classifier"
)

func rate(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

// DefaultPlans returns the built-in commission plans. A plans YAML file,
// when configured, replaces these wholesale.
func DefaultPlans() []Plan {
	return []Plan{
		{
			Year:        2023,
			QuotaTarget: decimal.NewFromInt(1_500_000),
			Rates: map[classifier.DealCategory]decimal.Decimal{
				classifier.CategorySoftware:               rate(0.073),
				classifier.CategoryManagedServicesPublic:  rate(0.059),
				classifier.CategoryManagedServicesPrivate: rate(0.044),
				classifier.CategoryProfessionalServices:   rate(0.029),
				classifier.CategoryIndexationsParameter:   rate(0.044),
				classifier.CategoryChurn:                  rate(0.044),
			},
			FlatRate: rate(0.01),
			Kickers: []KickerTier{
				{Name: "overperformance_120", Threshold: 120, Multiplier: 1.2},
				{Name: "overperformance_200", Threshold: 200, Multiplier: 2.0},
			},
		},
		{
			Year:        2024,
			QuotaTarget: decimal.NewFromInt(1_500_000),
			Rates: map[classifier.DealCategory]decimal.Decimal{
				classifier.CategorySoftware:               rate(0.073),
				classifier.CategoryManagedServicesPublic:  rate(0.059),
				classifier.CategoryManagedServicesPrivate: rate(0.073),
				classifier.CategoryProfessionalServices:   rate(0.029),
				classifier.CategoryIndexationsParameter:   rate(0.088),
				classifier.CategoryChurn:                  rate(0.044),
			},
			FlatRate: rate(0.01),
			Kickers: []KickerTier{
				{Name: "overperformance_120", Threshold: 120, Multiplier: 1.2},
				{Name: "overperformance_200", Threshold: 200, Multiplier: 2.0},
			},
		},
		{
			Year:        2025,
			QuotaTarget: decimal.NewFromInt(1_700_000),
			Rates: map[classifier.DealCategory]decimal.Decimal{
				classifier.CategorySoftware:               rate(0.07),
				classifier.CategoryManagedServicesPublic:  rate(0.074),
				classifier.CategoryManagedServicesPrivate: rate(0.084),
				classifier.CategoryProfessionalServices:   rate(0.031),
				classifier.CategoryIndexationsParameter:   rate(0.093),
				classifier.CategoryChurn:                  rate(0.044),
			},
			FlatRate: rate(0.01),
			Kickers: []KickerTier{
				{Name: "overperformance_100", Threshold: 100, Multiplier: 1.1},
				{Name: "overperformance_130", Threshold: 130, Multiplier: 1.2},
				{Name: "overperformance_160", Threshold: 160, Multiplier: 1.3},
				{Name: "overperformance_180", Threshold: 180, Multiplier: 1.4},
				{Name: "overperformance_200", Threshold: 200, Multiplier: 1.5},
			},
			EarlyBird: &EarlyBird{Quarter: 1, Multiplier: 1.2},
		},
	}
}
