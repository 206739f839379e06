// Package reconciler implements the multi-strategy matching engine and the
// commission validation that runs over its matches. The engine is a pure
// function of (deals, transactions, plans): it keeps no state across runs,
// so concurrent reconciliations over separate inputs are safe.
package reconciler

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"fjacquet/commission-reconcile/internal/classifier"
	"fjacquet/commission-reconcile/internal/dateutils"
	"fjacquet/commission-reconcile/internal/logging"
	"fjacquet/commission-reconcile/internal/models"
	"fjacquet/commission-reconcile/internal/plan"
	"fjacquet/commission-reconcile/internal/textutils"
)

// Confidence levels of the matching cascade.
const (
	confidenceExactID     = 100.0
	confidenceNameDate    = 95.0
	confidenceCompanyBase = 80.0
	confidencePerDay      = 5.0
	confidenceAmountBonus = 10.0
	confidenceSplitByName = 85.0
)

// Date tolerances of the matching cascade, in days.
const (
	nameDateTolerance    = 1
	companyDateTolerance = 7
)

// Config tunes the engine. Zero values select the defaults.
type Config struct {
	// CompanySuffixes overrides the legal-entity suffixes stripped during
	// company-name normalization.
	CompanySuffixes []string
	// Tolerance is the absolute commission difference accepted before a
	// wrong-commission finding is raised. Default 1.0 (one currency unit).
	Tolerance decimal.Decimal
	// HighImpactThreshold separates medium from high severity. Default 100.
	HighImpactThreshold decimal.Decimal
	// HomeCurrency is the currency deals are expected to be normalized to.
	// Default EUR.
	HomeCurrency string
}

func (c Config) withDefaults() Config {
	if c.Tolerance.IsZero() {
		c.Tolerance = decimal.NewFromInt(1)
	}
	if c.HighImpactThreshold.IsZero() {
		c.HighImpactThreshold = decimal.NewFromInt(100)
	}
	if c.HomeCurrency == "" {
		c.HomeCurrency = "EUR"
	}
	return c
}

// Engine runs the reconciliation cascade.
type Engine struct {
	registry   *plan.Registry
	classifier *classifier.Classifier
	cfg        Config
	logger     logging.Logger
}

// New creates an Engine. Nil collaborators select defaults.
func New(registry *plan.Registry, cls *classifier.Classifier, cfg Config, logger logging.Logger) *Engine {
	if registry == nil {
		registry = plan.NewDefaultRegistry()
	}
	if cls == nil {
		cls = classifier.New(nil)
	}
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	return &Engine{
		registry:   registry,
		classifier: cls,
		cfg:        cfg.withDefaults(),
		logger:     logger,
	}
}

// run carries the working state of one reconciliation. Claimed items are
// tracked as explicit index sets so each cascade stage is a function of
// (pool, claimed set) with no hidden list mutation.
type run struct {
	deals []models.Deal

	regular     []models.Transaction
	withholding []models.Transaction
	forecast    []models.Transaction
	split       []models.Transaction
	central     []models.Transaction

	claimedDeals       map[int]bool
	claimedRegular     map[int]bool
	claimedWithholding map[int]bool
	claimedSplit       map[int]bool

	matches         []models.Match
	unmatchedSplits []models.Transaction
	discrepancies   []models.Discrepancy

	totalTransactions int
}

// Reconcile runs the full cascade over the inputs and returns matches,
// unmatched sets, discrepancies and the aggregate summary. The quality
// score of the transaction dataset is carried through to the summary.
func (e *Engine) Reconcile(deals []models.Deal, transactions []models.Transaction, qualityScore float64) (*models.Result, error) {
	r := e.newRun(deals, transactions)

	e.resolveCentrallyManaged(r)
	e.matchByID(r)
	e.matchByNameAndDate(r)
	e.matchByCompanyAndDate(r)
	e.matchWithholdings(r)
	e.matchSplits(r)

	if err := e.validate(r); err != nil {
		return nil, err
	}

	forecast := e.analyzeForecasts(r)

	result := &models.Result{
		Matches:               r.matches,
		UnmatchedDeals:        e.unmatchedDeals(r),
		UnmatchedTransactions: e.unmatchedTransactions(r),
		UnmatchedSplits:       r.unmatchedSplits,
		Discrepancies:         r.discrepancies,
	}
	result.Summary = e.buildSummary(r, result, forecast, qualityScore)

	e.logger.WithFields(
		logging.Field{Key: "matches", Value: len(result.Matches)},
		logging.Field{Key: "discrepancies", Value: len(result.Discrepancies)},
	).Info("Reconciliation complete")

	return result, nil
}

// newRun splits the transaction pool by category and extracts centrally
// managed entries before any matching stage sees them.
func (e *Engine) newRun(deals []models.Deal, transactions []models.Transaction) *run {
	r := &run{
		deals:              deals,
		claimedDeals:       make(map[int]bool),
		claimedRegular:     make(map[int]bool),
		claimedWithholding: make(map[int]bool),
		claimedSplit:       make(map[int]bool),
		totalTransactions:  len(transactions),
	}

	for _, tx := range transactions {
		if e.classifier.IsCentrallyManaged(tx.DealName) {
			r.central = append(r.central, tx)
			continue
		}
		switch tx.Category {
		case models.CategoryWithholding:
			r.withholding = append(r.withholding, tx)
		case models.CategoryForecast:
			r.forecast = append(r.forecast, tx)
		case models.CategorySplit:
			r.split = append(r.split, tx)
		default:
			r.regular = append(r.regular, tx)
		}
	}

	e.logger.WithFields(
		logging.Field{Key: "regular", Value: len(r.regular)},
		logging.Field{Key: "withholding", Value: len(r.withholding)},
		logging.Field{Key: "forecast", Value: len(r.forecast)},
		logging.Field{Key: "split", Value: len(r.split)},
		logging.Field{Key: "centrally_managed", Value: len(r.central)},
	).Info("Categorized transactions")

	return r
}

// resolveCentrallyManaged auto-resolves transactions handled by the central
// sales-operations process into synthetic matches. These deals never appear
// in the CRM and must not surface as missing deals.
func (e *Engine) resolveCentrallyManaged(r *run) {
	for _, tx := range r.central {
		deal := models.Deal{
			ExternalID:       "cm-" + uuid.NewString(),
			Name:             tx.DealName,
			CloseDate:        tx.CloseDate,
			RevenueStartDate: tx.RevenueStartDate,
			CommissionBase:   tx.BasisAmount,
			OriginalCurrency: tx.Currency,
			CompanyName:      tx.CompanyName,
		}
		r.matches = append(r.matches, models.Match{
			DealID:       deal.ExternalID,
			Strategy:     models.StrategyCentrallyManaged,
			Confidence:   confidenceExactID,
			Deal:         deal,
			Transactions: []models.Transaction{tx},
		})
	}

	if len(r.central) > 0 {
		e.logger.WithField(logging.FieldCount, len(r.central)).
			Info("Auto-resolved centrally managed transactions")
	}
}

// matchByID claims every regular transaction whose external ID equals a
// deal's external ID. All same-ID transactions group into one match.
func (e *Engine) matchByID(r *run) {
	byID := make(map[string][]int, len(r.regular))
	for i, tx := range r.regular {
		if tx.ExternalID == "" {
			continue
		}
		byID[tx.ExternalID] = append(byID[tx.ExternalID], i)
	}

	matched := 0
	for di, deal := range r.deals {
		if r.claimedDeals[di] || deal.ExternalID == "" {
			continue
		}
		indexes, ok := byID[deal.ExternalID]
		if !ok {
			continue
		}

		var txs []models.Transaction
		for _, ti := range indexes {
			if r.claimedRegular[ti] {
				continue
			}
			txs = append(txs, r.regular[ti])
			r.claimedRegular[ti] = true
		}
		if len(txs) == 0 {
			continue
		}

		r.claimedDeals[di] = true
		r.matches = append(r.matches, models.Match{
			DealID:       deal.ExternalID,
			Strategy:     models.StrategyExactID,
			Confidence:   confidenceExactID,
			Deal:         deal,
			Transactions: txs,
		})
		matched++
	}

	e.logger.WithField(logging.FieldCount, matched).Info("Matched deals by external ID")
}

// matchByNameAndDate claims pairs with an exact deal-name match and close
// dates no more than one day apart.
func (e *Engine) matchByNameAndDate(r *run) {
	matched := 0
	for di, deal := range r.deals {
		if r.claimedDeals[di] || deal.Name == "" || deal.CloseDate == nil {
			continue
		}

		for ti, tx := range r.regular {
			if r.claimedRegular[ti] || tx.DealName != deal.Name {
				continue
			}
			if !dateutils.WithinDays(deal.CloseDate, tx.CloseDate, nameDateTolerance) {
				continue
			}

			r.claimedDeals[di] = true
			r.claimedRegular[ti] = true
			r.matches = append(r.matches, models.Match{
				DealID:       deal.ExternalID,
				Strategy:     models.StrategyNameAndDate,
				Confidence:   confidenceNameDate,
				Deal:         deal,
				Transactions: []models.Transaction{tx},
			})
			matched++
			break
		}
	}

	e.logger.WithField(logging.FieldCount, matched).Info("Matched deals by name and date")
}

// matchByCompanyAndDate claims pairs with equal normalized company names
// and close dates within a week. Confidence starts at 80, drops five points
// per day of date difference and gains ten when the transaction's basis is
// within one percent of the deal's commission base. The highest-confidence
// candidate wins; ties keep the first seen.
func (e *Engine) matchByCompanyAndDate(r *run) {
	matched := 0
	for di, deal := range r.deals {
		if r.claimedDeals[di] || deal.CloseDate == nil {
			continue
		}
		dealCompany := textutils.NormalizeCompany(deal.CompanyName, e.cfg.CompanySuffixes)
		if dealCompany == "" {
			continue
		}

		bestIdx := -1
		bestConfidence := 0.0
		for ti, tx := range r.regular {
			if r.claimedRegular[ti] || tx.CloseDate == nil {
				continue
			}
			if textutils.NormalizeCompany(tx.CompanyName, e.cfg.CompanySuffixes) != dealCompany {
				continue
			}
			days := dateutils.DaysApart(*deal.CloseDate, *tx.CloseDate)
			if days > companyDateTolerance {
				continue
			}

			confidence := confidenceCompanyBase - float64(days)*confidencePerDay
			if basisWithinOnePercent(deal.CommissionBase, tx.BasisAmount) {
				confidence += confidenceAmountBonus
			}
			if confidence > bestConfidence {
				bestConfidence = confidence
				bestIdx = ti
			}
		}

		if bestIdx < 0 {
			continue
		}

		r.claimedDeals[di] = true
		r.claimedRegular[bestIdx] = true
		r.matches = append(r.matches, models.Match{
			DealID:       deal.ExternalID,
			Strategy:     models.StrategyCompanyAndDate,
			Confidence:   bestConfidence,
			Deal:         deal,
			Transactions: []models.Transaction{r.regular[bestIdx]},
		})
		matched++
	}

	e.logger.WithField(logging.FieldCount, matched).Info("Matched deals by company and date")
}

// basisWithinOnePercent reports whether the transaction's recorded basis is
// within one percent of the deal's commission base.
func basisWithinOnePercent(dealBase, txBasis decimal.Decimal) bool {
	if !txBasis.IsPositive() {
		return false
	}
	diff := dealBase.Sub(txBasis).Abs()
	return diff.Div(txBasis).LessThan(decimal.NewFromFloat(0.01))
}

// matchWithholdings appends unclaimed withholding transactions to the
// matches they belong to, by ID or by name within a day. A withholding
// whose full amount does not release to twice the paid regular commission
// raises a withholding-mismatch finding.
func (e *Engine) matchWithholdings(r *run) {
	matched := 0
	for mi := range r.matches {
		match := &r.matches[mi]
		if match.Strategy == models.StrategyCentrallyManaged {
			continue
		}

		for wi, wh := range r.withholding {
			if r.claimedWithholding[wi] {
				continue
			}
			idHit := wh.ExternalID != "" && wh.ExternalID == match.Deal.ExternalID
			nameHit := wh.DealName == match.Deal.Name &&
				dateutils.WithinDays(wh.CloseDate, match.Deal.CloseDate, nameDateTolerance)
			if !idHit && !nameHit {
				continue
			}

			r.claimedWithholding[wi] = true
			matched++

			regulars := match.RegularTransactions()
			match.Transactions = append(match.Transactions, wh)

			if len(regulars) > 0 {
				expectedFull := regulars[0].PaidAmount.Mul(decimal.NewFromInt(2))
				diff := expectedFull.Sub(wh.FullAmount).Abs()
				if diff.GreaterThan(decimal.NewFromFloat(0.01)) {
					r.discrepancies = append(r.discrepancies, models.Discrepancy{
						SubjectID:       match.Deal.ExternalID,
						SubjectName:     match.Deal.Name,
						Kind:            models.DiscrepancyWithholdingMismatch,
						Expected:        formatAmount(expectedFull),
						Actual:          formatAmount(wh.FullAmount),
						Impact:          diff,
						Severity:        models.SeverityMedium,
						Detail:          "Withholding calculation mismatch. Expected 50% withholding.",
						MatchConfidence: match.Confidence,
						Source:          wh.Source,
					})
				}
			}
			break
		}
	}

	e.logger.WithField(logging.FieldCount, matched).Info("Matched withholding transactions")
}

// matchSplits resolves split transactions. A split may belong to an
// existing match, or be the first-seen portion of a deal whose primary
// transaction lives in another period, in which case it creates a new
// match directly. Splits unresolved after both attempts are kept as
// unmatched-split, not discarded.
func (e *Engine) matchSplits(r *run) {
	appended, created := 0, 0

	for si, split := range r.split {
		if r.claimedSplit[si] {
			continue
		}

		if mi := e.findMatchForSplit(r, split); mi >= 0 {
			r.matches[mi].Transactions = append(r.matches[mi].Transactions, split)
			r.claimedSplit[si] = true
			appended++
			continue
		}

		if e.createSplitMatch(r, si, split) {
			created++
			continue
		}

		r.unmatchedSplits = append(r.unmatchedSplits, split)
	}

	e.logger.WithFields(
		logging.Field{Key: "appended", Value: appended},
		logging.Field{Key: "created", Value: created},
	).Info("Matched split transactions")
}

func (e *Engine) findMatchForSplit(r *run, split models.Transaction) int {
	for mi, match := range r.matches {
		if match.Strategy == models.StrategyCentrallyManaged {
			continue
		}
		if (split.DealName != "" && split.DealName == match.Deal.Name) ||
			(split.ExternalID != "" && split.ExternalID == match.Deal.ExternalID) {
			return mi
		}
	}
	return -1
}

func (e *Engine) createSplitMatch(r *run, si int, split models.Transaction) bool {
	for di, deal := range r.deals {
		if r.claimedDeals[di] {
			continue
		}

		if split.ExternalID != "" && split.ExternalID == deal.ExternalID {
			r.claimedDeals[di] = true
			r.claimedSplit[si] = true
			r.matches = append(r.matches, models.Match{
				DealID:       deal.ExternalID,
				Strategy:     models.StrategyExactID,
				Confidence:   confidenceExactID,
				Deal:         deal,
				Transactions: []models.Transaction{split},
			})
			return true
		}

		if split.DealName == deal.Name &&
			dateutils.WithinDays(split.CloseDate, deal.CloseDate, nameDateTolerance) {
			r.claimedDeals[di] = true
			r.claimedSplit[si] = true
			r.matches = append(r.matches, models.Match{
				DealID:       deal.ExternalID,
				Strategy:     models.StrategyNameAndDate,
				Confidence:   confidenceSplitByName,
				Deal:         deal,
				Transactions: []models.Transaction{split},
			})
			return true
		}
	}
	return false
}

// unmatchedDeals returns deals no stage claimed, in input order.
func (e *Engine) unmatchedDeals(r *run) []models.Deal {
	var unmatched []models.Deal
	for di, deal := range r.deals {
		if !r.claimedDeals[di] {
			unmatched = append(unmatched, deal)
		}
	}
	return unmatched
}

// unmatchedTransactions returns every non-centrally-managed transaction no
// stage claimed: regular, withholding and unresolved split transactions in
// pool order, then forecasts (which are consumed by the forecast analysis
// rather than by matching).
func (e *Engine) unmatchedTransactions(r *run) []models.Transaction {
	var unmatched []models.Transaction
	for ti, tx := range r.regular {
		if !r.claimedRegular[ti] {
			unmatched = append(unmatched, tx)
		}
	}
	for wi, tx := range r.withholding {
		if !r.claimedWithholding[wi] {
			unmatched = append(unmatched, tx)
		}
	}
	unmatched = append(unmatched, r.unmatchedSplits...)
	unmatched = append(unmatched, r.forecast...)
	return unmatched
}
