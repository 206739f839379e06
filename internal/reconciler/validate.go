package reconciler

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"fjacquet/commission-reconcile/internal/classifier"
	"fjacquet/commission-reconcile/internal/dateutils"
	"fjacquet/commission-reconcile/internal/logging"
	"fjacquet/commission-reconcile/internal/models"
	"fjacquet/commission-reconcile/internal/plan"
)

var two = decimal.NewFromInt(2)

// validate runs every post-matching check and appends its findings to the
// run. Findings are data, not errors; the only error path is an input year
// no commission plan covers.
func (e *Engine) validate(r *run) error {
	e.validateCommissions(r)
	e.validateQuarterSplits(r)
	if err := e.validateUnmatchedDeals(r); err != nil {
		return err
	}
	e.validateCurrencyConversion(r)
	e.validateRevenueDates(r)

	e.logger.WithField(logging.FieldCount, len(r.discrepancies)).
		Info("Validation complete")
	return nil
}

// validateCommissions checks each regular transaction against the figures
// the compensation source itself recorded: expected = basis x applied rate,
// divided across split portions and halved again under withholding.
func (e *Engine) validateCommissions(r *run) {
	for _, match := range r.matches {
		if match.Strategy == models.StrategyCentrallyManaged {
			continue
		}

		regulars := match.RegularTransactions()
		withheld := len(match.WithholdingTransactions()) > 0

		for _, tx := range regulars {
			if tx.BasisAmount.IsZero() || tx.AppliedRate.IsZero() {
				continue
			}

			expected := tx.BasisAmount.Mul(tx.AppliedRate)

			if tx.HasSplitFlag {
				if portions := splitPortions(regulars, tx.BasisAmount); portions > 1 {
					expected = expected.Div(decimal.NewFromInt(int64(portions)))
				}
			}
			if withheld {
				expected = expected.Div(two)
			}

			diff := expected.Sub(tx.PaidAmount).Abs()
			if diff.LessThanOrEqual(e.cfg.Tolerance) {
				continue
			}

			severity := models.SeverityMedium
			if diff.GreaterThan(e.cfg.HighImpactThreshold) {
				severity = models.SeverityHigh
			}

			r.discrepancies = append(r.discrepancies, models.Discrepancy{
				SubjectID:   match.Deal.ExternalID,
				SubjectName: match.Deal.Name,
				Kind:        models.DiscrepancyWrongCommission,
				Expected:    formatAmount(expected),
				Actual:      formatAmount(tx.PaidAmount),
				Impact:      diff,
				Severity:    severity,
				Detail: fmt.Sprintf("Commission differs from %s x %s",
					tx.BasisAmount.StringFixed(2), tx.AppliedRate.String()),
				MatchConfidence: match.Confidence,
				Source:          tx.Source,
			})
		}
	}
}

// splitPortions counts the regular transactions of a match that share the
// same basis amount; each is one portion of the same commission. The flag
// gates only the row being validated, not the rows counted against it.
func splitPortions(regulars []models.Transaction, basis decimal.Decimal) int {
	portions := 0
	for _, tx := range regulars {
		if tx.BasisAmount.Equal(basis) {
			portions++
		}
	}
	return portions
}

// validateQuarterSplits flags matched deals whose commission should book
// half to the close quarter and half to the revenue-start quarter, but
// whose transactions never cover the second quarter.
func (e *Engine) validateQuarterSplits(r *run) {
	for _, match := range r.matches {
		if match.Strategy == models.StrategyCentrallyManaged {
			continue
		}
		deal := match.Deal
		if deal.CloseDate == nil || deal.RevenueStartDate == nil {
			continue
		}

		shares := plan.SplitQuarters(*deal.CloseDate, deal.RevenueStartDate)
		if len(shares) < 2 {
			continue
		}

		covered := make(map[plan.Quarter]bool)
		for _, tx := range match.Transactions {
			if tx.CloseDate != nil {
				covered[plan.QuarterOf(*tx.CloseDate)] = true
			}
		}

		revenueQ := plan.QuarterOf(*deal.RevenueStartDate)
		if covered[revenueQ] {
			continue
		}

		rate := e.rateFor(deal)
		impact := deal.CommissionBase.Mul(decimal.NewFromFloat(0.5)).Mul(rate)

		r.discrepancies = append(r.discrepancies, models.Discrepancy{
			SubjectID:   deal.ExternalID,
			SubjectName: deal.Name,
			Kind:        models.DiscrepancyMissingQuarterSplit,
			Expected:    fmt.Sprintf("booking in %s", revenueQ),
			Actual:      "no transaction in revenue quarter",
			Impact:      impact,
			Severity:    models.SeverityMedium,
			Detail: fmt.Sprintf("Commission should split 50/50 between %s and %s",
				plan.QuarterOf(*deal.CloseDate), revenueQ),
			MatchConfidence: match.Confidence,
		})
	}
}

// validateUnmatchedDeals raises a missing-deal finding for every closed-won
// deal with no commission transaction at all. The impact is the full
// commission the plan owes on the deal; a close year without a plan is the
// one condition that aborts the run.
func (e *Engine) validateUnmatchedDeals(r *run) error {
	for di, deal := range r.deals {
		if r.claimedDeals[di] {
			continue
		}

		expected := decimal.Zero
		if deal.CloseDate != nil {
			rate, err := e.registry.Rate(deal.CloseDate.Year(), e.categoryOf(deal), deal.IsFlatRate)
			if err != nil {
				return err
			}
			expected = deal.CommissionBase.Mul(rate)
		}

		r.discrepancies = append(r.discrepancies, models.Discrepancy{
			SubjectID:   deal.ExternalID,
			SubjectName: deal.Name,
			Kind:        models.DiscrepancyMissingDeal,
			Expected:    formatAmount(expected),
			Actual:      "no transaction",
			Impact:      expected,
			Severity:    models.SeverityHigh,
			Detail:      "Closed-won deal has no commission transaction",
		})
	}
	return nil
}

// validateCurrencyConversion flags foreign-currency deals the CRM export
// never converted to the home currency. Their commission base is unreliable
// until the conversion is fixed, so the finding carries no impact figure.
func (e *Engine) validateCurrencyConversion(r *run) {
	for _, deal := range r.deals {
		if deal.OriginalCurrency == "" || deal.OriginalCurrency == e.cfg.HomeCurrency {
			continue
		}
		if !deal.ConvertedAmount.IsZero() {
			continue
		}

		r.discrepancies = append(r.discrepancies, models.Discrepancy{
			SubjectID:   deal.ExternalID,
			SubjectName: deal.Name,
			Kind:        models.DiscrepancyMissingConversion,
			Expected:    fmt.Sprintf("amount converted to %s", e.cfg.HomeCurrency),
			Actual:      fmt.Sprintf("only %s amount present", deal.OriginalCurrency),
			Impact:      decimal.Zero,
			Severity:    models.SeverityHigh,
			Detail:      "Deal amount was never converted to the home currency",
		})
	}
}

// validateRevenueDates enforces the recurring-price-adjustment policy:
// CPI and fixed-price increases must start revenue on January 1 of the
// year after close. Synthetic centrally-managed matches are checked too,
// since those are exactly the deals the policy is about.
func (e *Engine) validateRevenueDates(r *run) {
	for _, match := range r.matches {
		deal := match.Deal
		if !e.classifier.SubjectToRevenueDatePolicy(deal.Name) || deal.CloseDate == nil {
			continue
		}

		expected := time.Date(deal.CloseDate.Year()+1, time.January, 1, 0, 0, 0, 0, time.UTC)
		if deal.RevenueStartDate != nil && dateutils.SameDay(*deal.RevenueStartDate, expected) {
			continue
		}

		actual := "not set"
		if deal.RevenueStartDate != nil {
			actual = deal.RevenueStartDate.Format("2006-01-02")
		}

		r.discrepancies = append(r.discrepancies, models.Discrepancy{
			SubjectID:       deal.ExternalID,
			SubjectName:     deal.Name,
			Kind:            models.DiscrepancyIncorrectRevenueDate,
			Expected:        expected.Format("2006-01-02"),
			Actual:          actual,
			Impact:          decimal.Zero,
			Severity:        models.SeverityMedium,
			Detail:          "Price-adjustment revenue must start January 1 of the year after close",
			MatchConfidence: match.Confidence,
		})
	}
}

// rateFor resolves a deal's plan rate, treating a missing plan year as a
// zero rate. Quarter-split impacts are estimates, not grounds to abort.
func (e *Engine) rateFor(deal models.Deal) decimal.Decimal {
	if deal.CloseDate == nil {
		return decimal.Zero
	}
	rate, err := e.registry.Rate(deal.CloseDate.Year(), e.categoryOf(deal), deal.IsFlatRate)
	if err != nil {
		e.logger.WithError(err).WithField(logging.FieldDealName, deal.Name).
			Warn("No plan for deal year, assuming zero rate")
		return decimal.Zero
	}
	return rate
}

func (e *Engine) categoryOf(deal models.Deal) classifier.DealCategory {
	return e.classifier.Category(classifier.RecordTraits{
		ProductName: deal.ProductName,
		TypesOfACV:  deal.TypesOfACV,
		DealType:    deal.DealType,
		Deployment:  deal.Deployment,
		IsFlatRate:  deal.IsFlatRate,
	})
}

func formatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}
