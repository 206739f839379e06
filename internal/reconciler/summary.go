package reconciler

import (
	"github.com/shopspring/decimal"

	"fjacquet/commission-reconcile/internal/logging"
	"fjacquet/commission-reconcile/internal/models"
	"fjacquet/commission-reconcile/internal/plan"
)

// analyzeForecasts resolves the kicker each forecast row should earn.
// Quota progress is accumulated from every closed-won deal's commission
// base; the kicker credited is the larger of the calculated one and the
// explicit kicker columns the source itself carries.
func (e *Engine) analyzeForecasts(r *run) models.ForecastSummary {
	summary := models.ForecastSummary{
		TotalAmount:  decimal.Zero,
		TotalKickers: decimal.Zero,
	}
	if len(r.forecast) == 0 {
		return summary
	}

	calc := plan.NewKickerCalculator(e.registry)
	for _, deal := range r.deals {
		calc.AddBooking(deal.CloseDate, deal.CommissionBase)
	}

	for _, tx := range r.forecast {
		base := tx.PaidAmount
		if base.IsZero() {
			base = tx.FullAmount
		}

		result := calc.WithKicker(base, tx.CloseDate)
		explicit := tx.EarlyBirdKicker.Add(tx.PerformanceKicker).Add(tx.CampaignKicker)

		kicker := result.Kicker
		name := result.KickerName
		if explicit.GreaterThan(kicker) {
			kicker = explicit
			name = "explicit"
		}

		summary.TotalAmount = summary.TotalAmount.Add(base)
		summary.TotalKickers = summary.TotalKickers.Add(kicker)
		if kicker.IsPositive() {
			summary.DealsWithKickers++
		}
		summary.Deals = append(summary.Deals, models.ForecastDeal{
			DealName:         tx.DealName,
			Commission:       base,
			Kickers:          kicker,
			KickerName:       name,
			KickerMultiplier: result.Multiplier,
		})
	}

	e.logger.WithFields(
		logging.Field{Key: logging.FieldCount, Value: len(r.forecast)},
		logging.Field{Key: "with_kickers", Value: summary.DealsWithKickers},
	).Info("Analyzed forecast transactions")

	return summary
}

// withholdingSummary totals the withholding ledger. Rows without a full
// amount assume the standard 50% scheme, releasing to twice the paid
// figure.
func (e *Engine) withholdingSummary(r *run) models.WithholdingSummary {
	summary := models.WithholdingSummary{
		TotalPaid:     decimal.Zero,
		TotalWithheld: decimal.Zero,
		TotalFull:     decimal.Zero,
	}

	for _, tx := range r.withholding {
		full := tx.FullAmount
		if full.IsZero() && tx.PaidAmount.IsPositive() {
			full = tx.PaidAmount.Mul(two)
		}

		withheld := tx.PaidAmount
		if full.GreaterThan(tx.PaidAmount) {
			withheld = full.Sub(tx.PaidAmount)
		}

		summary.TotalPaid = summary.TotalPaid.Add(tx.PaidAmount)
		summary.TotalWithheld = summary.TotalWithheld.Add(withheld)
		summary.TotalFull = summary.TotalFull.Add(full)
	}

	return summary
}

// centrallyManagedSummary breaks the auto-resolved transactions down by the
// marker that identified them.
func (e *Engine) centrallyManagedSummary(r *run) models.CentrallyManagedSummary {
	summary := models.CentrallyManagedSummary{
		TotalCommission: decimal.Zero,
		CountByMarker:   make(map[string]int),
	}

	for _, tx := range r.central {
		summary.Count++
		summary.TotalCommission = summary.TotalCommission.Add(tx.PaidAmount)
		if marker := e.classifier.CentrallyManagedMarker(tx.DealName); marker != "" {
			summary.CountByMarker[marker]++
		}
	}

	return summary
}

// buildSummary assembles the aggregate view of one run.
func (e *Engine) buildSummary(r *run, result *models.Result, forecast models.ForecastSummary, qualityScore float64) models.Summary {
	summary := models.Summary{
		TotalDeals:        len(r.deals),
		TotalTransactions: r.totalTransactions,
		MatchedDeals:      len(result.Matches),
		UnmatchedDeals:    len(result.UnmatchedDeals),
		UnmatchedTxs:      len(result.UnmatchedTransactions),

		DealAmountTotal:     decimal.Zero,
		PaidCommissionTotal: decimal.Zero,

		MatchesByStrategy:   make(map[models.MatchStrategy]int),
		DiscrepanciesByKind: make(map[models.DiscrepancyKind]models.DiscrepancyStats),
		TotalDiscrepancies:  len(result.Discrepancies),
		TotalImpact:         decimal.Zero,

		RegularCount:     len(r.regular),
		WithholdingCount: len(r.withholding),
		ForecastCount:    len(r.forecast),
		SplitCount:       len(r.split),

		CentrallyManaged: e.centrallyManagedSummary(r),
		Withholding:      e.withholdingSummary(r),
		Forecast:         forecast,

		DataQualityScore: qualityScore,
	}

	for _, deal := range r.deals {
		summary.DealAmountTotal = summary.DealAmountTotal.Add(deal.CommissionBase)
	}

	confidenceTotal := 0.0
	for _, match := range result.Matches {
		summary.MatchesByStrategy[match.Strategy]++
		confidenceTotal += match.Confidence
		for _, tx := range match.Transactions {
			summary.PaidCommissionTotal = summary.PaidCommissionTotal.Add(tx.PaidAmount)
		}
	}
	if len(result.Matches) > 0 {
		summary.AverageMatchConfidence = confidenceTotal / float64(len(result.Matches))
	}

	for _, d := range result.Discrepancies {
		stats := summary.DiscrepanciesByKind[d.Kind]
		stats.Count++
		stats.Impact = stats.Impact.Add(d.Impact)
		summary.DiscrepanciesByKind[d.Kind] = stats
		summary.TotalImpact = summary.TotalImpact.Add(d.Impact)
	}

	return summary
}
