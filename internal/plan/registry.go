package plan

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"fjacquet/commission-reconcile/internal/classifier"
	"fjacquet/commission-reconcile/internal/parsererror"
)

// Registry looks up commission plans by fiscal year.
type Registry struct {
	plans map[int]Plan
}

// NewRegistry creates a registry over the given plans.
func NewRegistry(plans []Plan) *Registry {
	byYear := make(map[int]Plan, len(plans))
	for _, p := range plans {
		byYear[p.Year] = p
	}
	return &Registry{plans: byYear}
}

// NewDefaultRegistry creates a registry over the built-in plans.
func NewDefaultRegistry() *Registry {
	return NewRegistry(DefaultPlans())
}

// Get returns the plan for a year. A missing year is the one loud failure
// of the resolver: silently assuming a zero rate would hide real
// discrepancies.
func (r *Registry) Get(year int) (Plan, error) {
	p, ok := r.plans[year]
	if !ok {
		return Plan{}, &parsererror.PlanNotFoundError{Year: year}
	}
	return p, nil
}

// Rate resolves the expected commission rate for a year and category.
// Flat-rated deals get the plan's fixed rate regardless of category.
// An unknown category falls back to the standard software rate; the
// fallback is silent by design, matching the behavior the compensation
// team calibrated against.
func (r *Registry) Rate(year int, category classifier.DealCategory, isFlatRate bool) (decimal.Decimal, error) {
	p, err := r.Get(year)
	if err != nil {
		return decimal.Zero, err
	}

	if isFlatRate {
		return p.FlatRate, nil
	}

	if rate, ok := p.Rates[category]; ok {
		return rate, nil
	}
	return p.Rates[classifier.CategorySoftware], nil
}

// planFile is the YAML schema of an external plans file.
type planFile struct {
	Plans []planDoc `yaml:"plans" validate:"required,min=1,dive"`
}

type planDoc struct {
	Year        int                `yaml:"year" validate:"required,min=2000"`
	QuotaTarget float64            `yaml:"quota_target" validate:"gt=0"`
	Rates       map[string]float64 `yaml:"rates" validate:"required,min=1"`
	FlatRate    float64            `yaml:"flat_rate" validate:"gte=0"`
	Kickers     []KickerTier       `yaml:"kickers" validate:"dive"`
	EarlyBird   *EarlyBird         `yaml:"early_bird"`
}

// LoadFile reads and validates a plans YAML file and returns a registry
// over its plans.
func LoadFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading plans file: %w", err)
	}

	var file planFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, &parsererror.ValidationError{
			Subject: path,
			Reason:  "invalid plans YAML",
			Err:     err,
		}
	}

	if err := validator.New().Struct(file); err != nil {
		return nil, &parsererror.ValidationError{
			Subject: path,
			Reason:  "plans file failed schema validation",
			Err:     err,
		}
	}

	plans := make([]Plan, 0, len(file.Plans))
	for _, doc := range file.Plans {
		rates := make(map[classifier.DealCategory]decimal.Decimal, len(doc.Rates))
		for category, r := range doc.Rates {
			rates[classifier.DealCategory(category)] = decimal.NewFromFloat(r)
		}
		plans = append(plans, Plan{
			Year:        doc.Year,
			QuotaTarget: decimal.NewFromFloat(doc.QuotaTarget),
			Rates:       rates,
			FlatRate:    decimal.NewFromFloat(doc.FlatRate),
			Kickers:     doc.Kickers,
			EarlyBird:   doc.EarlyBird,
		})
	}

	return NewRegistry(plans), nil
}
