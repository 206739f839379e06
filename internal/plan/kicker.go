package plan

import (
	"time"

	"github.com/shopspring/decimal"
)

// QuotaProgress tracks quota achievement for one quarter.
type QuotaProgress struct {
	Quarter     Quarter
	TotalBooked decimal.Decimal
	QuotaTarget decimal.Decimal
	// Achievement is the booked total over the quarterly quota, in percent.
	Achievement float64
	KickerName  string
	Multiplier  float64
}

// KickerResult is a commission with its applicable kicker resolved.
type KickerResult struct {
	Base        decimal.Decimal
	KickerName  string
	Multiplier  float64
	Kicker      decimal.Decimal
	Total       decimal.Decimal
	Achievement float64
}

// KickerCalculator accumulates booked deal amounts per quarter and resolves
// the overperformance multiplier quota achievement earns.
type KickerCalculator struct {
	registry *Registry
	booked   map[Quarter]decimal.Decimal
	order    []Quarter
}

// NewKickerCalculator creates a calculator over a plan registry.
func NewKickerCalculator(registry *Registry) *KickerCalculator {
	return &KickerCalculator{
		registry: registry,
		booked:   make(map[Quarter]decimal.Decimal),
	}
}

// AddBooking records a booked amount against the quarter of its close date.
// Bookings without a close date cannot be attributed and are skipped.
func (k *KickerCalculator) AddBooking(closeDate *time.Time, amount decimal.Decimal) {
	if closeDate == nil {
		return
	}
	q := QuarterOf(*closeDate)
	if _, seen := k.booked[q]; !seen {
		k.order = append(k.order, q)
	}
	k.booked[q] = k.booked[q].Add(amount)
}

// Progress computes quota achievement and the applicable kicker for a
// quarter. Returns nil when the quarter has no bookings or no plan year.
func (k *KickerCalculator) Progress(q Quarter) *QuotaProgress {
	total, ok := k.booked[q]
	if !ok {
		return nil
	}

	p, err := k.registry.Get(q.Year)
	if err != nil {
		return nil
	}

	quota := p.QuarterlyQuota()
	achievement := 0.0
	if quota.IsPositive() {
		pct, _ := total.Div(quota).Mul(decimal.NewFromInt(100)).Float64()
		achievement = pct
	}

	name, multiplier := applicableKicker(p, q, achievement)

	return &QuotaProgress{
		Quarter:     q,
		TotalBooked: total,
		QuotaTarget: quota,
		Achievement: achievement,
		KickerName:  name,
		Multiplier:  multiplier,
	}
}

// applicableKicker picks the kicker a quarter's achievement earns. The
// early-bird bonus overrides the ladder for the plan's designated quarter;
// otherwise the highest threshold met wins. No kicker means multiplier 1.0.
func applicableKicker(p Plan, q Quarter, achievement float64) (string, float64) {
	if p.EarlyBird != nil && q.Q == p.EarlyBird.Quarter {
		return "earlybird", p.EarlyBird.Multiplier
	}

	for _, tier := range p.sortedKickers() {
		if achievement >= tier.Threshold {
			return tier.Name, tier.Multiplier
		}
	}

	return "", 1.0
}

// WithKicker applies the close-quarter's kicker to a base commission.
func (k *KickerCalculator) WithKicker(base decimal.Decimal, closeDate *time.Time) KickerResult {
	result := KickerResult{
		Base:       base,
		Multiplier: 1.0,
		Kicker:     decimal.Zero,
		Total:      base,
	}
	if closeDate == nil {
		return result
	}

	progress := k.Progress(QuarterOf(*closeDate))
	if progress == nil || progress.KickerName == "" {
		return result
	}

	kicker := base.Mul(decimal.NewFromFloat(progress.Multiplier)).Sub(base)
	result.KickerName = progress.KickerName
	result.Multiplier = progress.Multiplier
	result.Kicker = kicker
	result.Total = base.Add(kicker)
	result.Achievement = progress.Achievement
	return result
}

// QuarterlySummary returns quota progress for every quarter with bookings,
// in first-seen order.
func (k *KickerCalculator) QuarterlySummary() []QuotaProgress {
	summary := make([]QuotaProgress, 0, len(k.order))
	for _, q := range k.order {
		if progress := k.Progress(q); progress != nil {
			summary = append(summary, *progress)
		}
	}
	return summary
}
