// Package plan holds the versioned commission plans and resolves expected
// commission rates, quarter splits and quota kickers from them.
package plan

import (
	"sort"

	"github.com/shopspring/decimal"

	"fjacquet/commission-reconcile/internal/classifier"
)

// KickerTier is one rung of the overperformance ladder: reaching Threshold
// percent of quota earns Multiplier on commission. Tiers are evaluated
// high-to-low; the highest threshold met wins.
type KickerTier struct {
	Name       string  `yaml:"name" validate:"required"`
	Threshold  float64 `yaml:"threshold" validate:"gt=0"`
	Multiplier float64 `yaml:"multiplier" validate:"gte=1"`
}

// EarlyBird is a first-quarter bonus that overrides the standard ladder
// for the plan year it belongs to.
type EarlyBird struct {
	Quarter    int     `yaml:"quarter" validate:"min=1,max=4"`
	Multiplier float64 `yaml:"multiplier" validate:"gte=1"`
}

// Plan is the immutable commission reference data for one fiscal year.
type Plan struct {
	Year        int
	QuotaTarget decimal.Decimal
	// Rates maps deal categories to commission rates (decimal fractions).
	Rates map[classifier.DealCategory]decimal.Decimal
	// FlatRate applies to professional-services-style deals regardless of
	// category.
	FlatRate  decimal.Decimal
	Kickers   []KickerTier
	EarlyBird *EarlyBird
}

// QuarterlyQuota is the annual quota target divided over four quarters.
func (p Plan) QuarterlyQuota() decimal.Decimal {
	return p.QuotaTarget.Div(decimal.NewFromInt(4))
}

// sortedKickers returns the kicker ladder ordered by descending threshold.
func (p Plan) sortedKickers() []KickerTier {
	tiers := make([]KickerTier, len(p.Kickers))
	copy(tiers, p.Kickers)
	sort.Slice(tiers, func(i, j int) bool {
		return tiers[i].Threshold > tiers[j].Threshold
	})
	return tiers
}
