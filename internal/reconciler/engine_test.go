package reconciler

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fjacquet/commission-reconcile/internal/logging"
	"fjacquet/commission-reconcile/internal/models"
)

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func dec(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

func newTestEngine() *Engine {
	return New(nil, nil, Config{}, &logging.MockLogger{})
}

func softwareDeal(id, name string) models.Deal {
	return models.Deal{
		ExternalID:       id,
		Name:             name,
		CloseDate:        date(2025, 7, 15),
		CommissionBase:   dec(50000),
		ConvertedAmount:  dec(50000),
		OriginalCurrency: "EUR",
		CompanyName:      "Acme GmbH",
	}
}

func regularTx(id, name string, paid float64) models.Transaction {
	return models.Transaction{
		ExternalID:  id,
		DealName:    name,
		CompanyName: "Acme GmbH",
		CloseDate:   date(2025, 7, 15),
		PaidAmount:  dec(paid),
		AppliedRate: dec(0.073),
		BasisAmount: dec(50000),
		Category:    models.CategoryRegular,
	}
}

func TestReconcile_ExactIDMatch(t *testing.T) {
	e := newTestEngine()

	deal := softwareDeal("1", "Software License@Acme")
	tx := regularTx("1", "Software License@Acme", 3650)

	result, err := e.Reconcile([]models.Deal{deal}, []models.Transaction{tx}, 100)
	require.NoError(t, err)

	require.Len(t, result.Matches, 1)
	match := result.Matches[0]
	assert.Equal(t, models.StrategyExactID, match.Strategy)
	assert.Equal(t, 100.0, match.Confidence)
	assert.Equal(t, "1", match.DealID)

	assert.Empty(t, result.Discrepancies)
	assert.Empty(t, result.UnmatchedDeals)
	assert.Empty(t, result.UnmatchedTransactions)
}

func TestReconcile_WrongCommission(t *testing.T) {
	e := newTestEngine()

	deal := softwareDeal("1", "Software License@Acme")
	tx := regularTx("1", "Software License@Acme", 3600)

	result, err := e.Reconcile([]models.Deal{deal}, []models.Transaction{tx}, 100)
	require.NoError(t, err)

	require.Len(t, result.Discrepancies, 1)
	d := result.Discrepancies[0]
	assert.Equal(t, models.DiscrepancyWrongCommission, d.Kind)
	assert.True(t, d.Impact.Equal(dec(50)), "impact %s", d.Impact)
	assert.Equal(t, models.SeverityMedium, d.Severity)
	assert.Equal(t, "3650.00", d.Expected)
	assert.Equal(t, "3600.00", d.Actual)
}

func TestReconcile_WrongCommissionHighSeverity(t *testing.T) {
	e := newTestEngine()

	deal := softwareDeal("1", "Software License@Acme")
	tx := regularTx("1", "Software License@Acme", 3400)

	result, err := e.Reconcile([]models.Deal{deal}, []models.Transaction{tx}, 100)
	require.NoError(t, err)

	require.Len(t, result.Discrepancies, 1)
	assert.Equal(t, models.SeverityHigh, result.Discrepancies[0].Severity)
	assert.True(t, result.Discrepancies[0].Impact.Equal(dec(250)))
}

func TestReconcile_NameAndDateMatch(t *testing.T) {
	e := newTestEngine()

	deal := softwareDeal("1", "Acme Renewal")
	tx := regularTx("", "Acme Renewal", 3650)
	tx.CloseDate = date(2025, 7, 16)

	result, err := e.Reconcile([]models.Deal{deal}, []models.Transaction{tx}, 100)
	require.NoError(t, err)

	require.Len(t, result.Matches, 1)
	assert.Equal(t, models.StrategyNameAndDate, result.Matches[0].Strategy)
	assert.Equal(t, 95.0, result.Matches[0].Confidence)
}

func TestReconcile_NameAndDateTooFarApart(t *testing.T) {
	e := newTestEngine()

	deal := softwareDeal("1", "Acme Renewal")
	deal.CompanyName = "Someone Else"
	tx := regularTx("", "Acme Renewal", 3650)
	tx.CloseDate = date(2025, 7, 25)

	result, err := e.Reconcile([]models.Deal{deal}, []models.Transaction{tx}, 100)
	require.NoError(t, err)

	assert.Empty(t, result.Matches)
	assert.Len(t, result.UnmatchedDeals, 1)
	assert.Len(t, result.UnmatchedTransactions, 1)
}

func TestReconcile_CompanyAndDateMatch(t *testing.T) {
	e := newTestEngine()

	deal := softwareDeal("1", "Acme Renewal FY25")
	tx := regularTx("", "Acme Renewal (truncat…", 3650)
	tx.CompanyName = "Acme"
	tx.CloseDate = date(2025, 7, 18)

	result, err := e.Reconcile([]models.Deal{deal}, []models.Transaction{tx}, 100)
	require.NoError(t, err)

	require.Len(t, result.Matches, 1)
	match := result.Matches[0]
	assert.Equal(t, models.StrategyCompanyAndDate, match.Strategy)
	// 80 base - 3 days x 5 + 10 amount bonus.
	assert.Equal(t, 75.0, match.Confidence)
}

func TestReconcile_CompanyAndDateBestCandidateWins(t *testing.T) {
	e := newTestEngine()

	deal := softwareDeal("1", "Acme Renewal FY25")

	far := regularTx("", "Acme A", 3650)
	far.CloseDate = date(2025, 7, 20)
	near := regularTx("", "Acme B", 3650)
	near.CloseDate = date(2025, 7, 16)

	result, err := e.Reconcile([]models.Deal{deal}, []models.Transaction{far, near}, 100)
	require.NoError(t, err)

	require.Len(t, result.Matches, 1)
	require.Len(t, result.Matches[0].Transactions, 1)
	assert.Equal(t, "Acme B", result.Matches[0].Transactions[0].DealName)
}

func TestReconcile_ConfidenceMonotonicity(t *testing.T) {
	e := newTestEngine()

	idDeal := softwareDeal("1", "ID Deal")
	nameDeal := softwareDeal("2", "Name Deal")
	nameDeal.CompanyName = "Beta AG"
	companyDeal := softwareDeal("3", "Company Deal")
	companyDeal.CompanyName = "Gamma Ltd"

	idTx := regularTx("1", "Other Name", 3650)
	nameTx := regularTx("", "Name Deal", 3650)
	nameTx.CompanyName = "Beta AG"
	companyTx := regularTx("", "Totally Different", 3650)
	companyTx.CompanyName = "Gamma"
	companyTx.CloseDate = date(2025, 7, 17)

	result, err := e.Reconcile(
		[]models.Deal{idDeal, nameDeal, companyDeal},
		[]models.Transaction{idTx, nameTx, companyTx}, 100)
	require.NoError(t, err)

	byStrategy := make(map[models.MatchStrategy]float64)
	for _, m := range result.Matches {
		byStrategy[m.Strategy] = m.Confidence
	}
	require.Len(t, byStrategy, 3)
	assert.Greater(t, byStrategy[models.StrategyExactID], byStrategy[models.StrategyNameAndDate])
	assert.Greater(t, byStrategy[models.StrategyNameAndDate], byStrategy[models.StrategyCompanyAndDate])
}

func TestReconcile_Determinism(t *testing.T) {
	e := newTestEngine()

	deals := []models.Deal{
		softwareDeal("1", "Alpha"),
		softwareDeal("2", "Beta"),
		softwareDeal("3", "Gamma"),
	}
	txs := []models.Transaction{
		regularTx("2", "Beta", 3650),
		regularTx("", "Alpha", 3650),
		regularTx("", "Unrelated", 100),
	}

	first, err := e.Reconcile(deals, txs, 100)
	require.NoError(t, err)
	second, err := e.Reconcile(deals, txs, 100)
	require.NoError(t, err)

	require.Equal(t, len(first.Matches), len(second.Matches))
	for i := range first.Matches {
		assert.Equal(t, first.Matches[i].DealID, second.Matches[i].DealID)
		assert.Equal(t, first.Matches[i].Strategy, second.Matches[i].Strategy)
		assert.Equal(t, first.Matches[i].Confidence, second.Matches[i].Confidence)
	}
	assert.Equal(t, first.UnmatchedDeals, second.UnmatchedDeals)
	assert.Equal(t, first.UnmatchedTransactions, second.UnmatchedTransactions)
	assert.Equal(t, len(first.Discrepancies), len(second.Discrepancies))
}

func TestReconcile_PartitionInvariant(t *testing.T) {
	e := newTestEngine()

	deals := []models.Deal{
		softwareDeal("1", "Alpha"),
		softwareDeal("2", "Beta"),
	}
	txs := []models.Transaction{
		regularTx("1", "Alpha", 3650),
		regularTx("", "Orphan", 100),
	}

	result, err := e.Reconcile(deals, txs, 100)
	require.NoError(t, err)

	seen := make(map[string]int)
	for _, m := range result.Matches {
		seen[m.Deal.ExternalID]++
	}
	for _, d := range result.UnmatchedDeals {
		seen[d.ExternalID]++
	}
	for _, deal := range deals {
		assert.Equal(t, 1, seen[deal.ExternalID], "deal %s must appear exactly once", deal.ExternalID)
	}

	txCount := 0
	for _, m := range result.Matches {
		txCount += len(m.Transactions)
	}
	txCount += len(result.UnmatchedTransactions)
	assert.Equal(t, len(txs), txCount)
}

func TestReconcile_CentrallyManaged(t *testing.T) {
	e := newTestEngine()

	tx := regularTx("", "Acme CPI Increase 2025", 150)
	tx.CloseDate = date(2025, 7, 15)
	tx.RevenueStartDate = date(2026, 1, 1)

	result, err := e.Reconcile(nil, []models.Transaction{tx}, 100)
	require.NoError(t, err)

	require.Len(t, result.Matches, 1)
	match := result.Matches[0]
	assert.Equal(t, models.StrategyCentrallyManaged, match.Strategy)
	assert.Equal(t, 100.0, match.Confidence)
	assert.NotEmpty(t, match.DealID)

	assert.Empty(t, result.UnmatchedTransactions)
	for _, d := range result.Discrepancies {
		assert.NotEqual(t, models.DiscrepancyMissingDeal, d.Kind)
	}

	assert.Equal(t, 1, result.Summary.CentrallyManaged.Count)
	assert.True(t, result.Summary.CentrallyManaged.TotalCommission.Equal(dec(150)))
	assert.Equal(t, 1, result.Summary.CentrallyManaged.CountByMarker["cpi increase"])
}

func TestReconcile_CentrallyManagedRevenueDatePolicy(t *testing.T) {
	e := newTestEngine()

	tx := regularTx("", "Acme CPI Increase 2025", 150)
	tx.RevenueStartDate = date(2025, 9, 1)

	result, err := e.Reconcile(nil, []models.Transaction{tx}, 100)
	require.NoError(t, err)

	require.Len(t, result.Discrepancies, 1)
	d := result.Discrepancies[0]
	assert.Equal(t, models.DiscrepancyIncorrectRevenueDate, d.Kind)
	assert.Equal(t, models.SeverityMedium, d.Severity)
	assert.Equal(t, "2026-01-01", d.Expected)
	assert.True(t, d.Impact.IsZero())
}

func TestReconcile_MissingDeal(t *testing.T) {
	e := newTestEngine()

	deal := softwareDeal("1", "Lonely Deal")

	result, err := e.Reconcile([]models.Deal{deal}, nil, 100)
	require.NoError(t, err)

	require.Len(t, result.Discrepancies, 1)
	d := result.Discrepancies[0]
	assert.Equal(t, models.DiscrepancyMissingDeal, d.Kind)
	assert.Equal(t, models.SeverityHigh, d.Severity)
	// 2025 software rate 0.07 on 50000.
	assert.True(t, d.Impact.Equal(dec(3500)), "impact %s", d.Impact)
}

func TestReconcile_MissingDealUnknownYearFails(t *testing.T) {
	e := newTestEngine()

	deal := softwareDeal("1", "Ancient Deal")
	deal.CloseDate = date(2019, 7, 15)

	_, err := e.Reconcile([]models.Deal{deal}, nil, 100)
	assert.Error(t, err)
}

func TestReconcile_Withholding(t *testing.T) {
	e := newTestEngine()

	deal := softwareDeal("1", "Acme Renewal")
	regular := regularTx("1", "Acme Renewal", 500)
	regular.BasisAmount = dec(10000)
	regular.AppliedRate = dec(0.1)
	withholding := regularTx("1", "Acme Renewal", 500)
	withholding.Category = models.CategoryWithholding
	withholding.BasisAmount = dec(10000)
	withholding.AppliedRate = dec(0.1)
	withholding.FullAmount = dec(1000)

	result, err := e.Reconcile([]models.Deal{deal}, []models.Transaction{regular, withholding}, 100)
	require.NoError(t, err)

	require.Len(t, result.Matches, 1)
	assert.Len(t, result.Matches[0].Transactions, 2)

	// Regular expected = 10000 x 0.1 halved under withholding = 500 paid.
	assert.Empty(t, result.Discrepancies)

	assert.True(t, result.Summary.Withholding.TotalPaid.Equal(dec(500)))
	assert.True(t, result.Summary.Withholding.TotalWithheld.Equal(dec(500)))
	assert.True(t, result.Summary.Withholding.TotalFull.Equal(dec(1000)))
}

func TestReconcile_WithholdingMismatch(t *testing.T) {
	e := newTestEngine()

	deal := softwareDeal("1", "Acme Renewal")
	regular := regularTx("1", "Acme Renewal", 500)
	regular.BasisAmount = dec(10000)
	regular.AppliedRate = dec(0.1)
	withholding := regularTx("1", "Acme Renewal", 450)
	withholding.Category = models.CategoryWithholding
	withholding.BasisAmount = decimal.Zero
	withholding.AppliedRate = decimal.Zero
	withholding.FullAmount = dec(900)

	result, err := e.Reconcile([]models.Deal{deal}, []models.Transaction{regular, withholding}, 100)
	require.NoError(t, err)

	var mismatch *models.Discrepancy
	for i, d := range result.Discrepancies {
		if d.Kind == models.DiscrepancyWithholdingMismatch {
			mismatch = &result.Discrepancies[i]
		}
	}
	require.NotNil(t, mismatch)
	assert.Equal(t, models.SeverityMedium, mismatch.Severity)
	assert.True(t, mismatch.Impact.Equal(dec(100)), "impact %s", mismatch.Impact)
}

func TestReconcile_SplitFlagHalvesExpected(t *testing.T) {
	e := newTestEngine()

	deal := softwareDeal("1", "Acme Renewal")
	first := regularTx("1", "Acme Renewal", 1825)
	first.HasSplitFlag = true
	second := regularTx("1", "Acme Renewal", 1825)
	second.HasSplitFlag = true

	result, err := e.Reconcile([]models.Deal{deal}, []models.Transaction{first, second}, 100)
	require.NoError(t, err)

	require.Len(t, result.Matches, 1)
	assert.Len(t, result.Matches[0].Transactions, 2)
	// Each portion expects 50000 x 0.073 / 2 = 1825.
	assert.Empty(t, result.Discrepancies)
}

func TestReconcile_SplitFlagCountsUnflaggedPortions(t *testing.T) {
	e := newTestEngine()

	deal := softwareDeal("1", "Acme Renewal")
	flagged := regularTx("1", "Acme Renewal", 1825)
	flagged.HasSplitFlag = true
	unflagged := regularTx("1", "Acme Renewal", 3650)

	result, err := e.Reconcile([]models.Deal{deal}, []models.Transaction{flagged, unflagged}, 100)
	require.NoError(t, err)

	require.Len(t, result.Matches, 1)
	// The flagged row divides by every same-basis regular row, flagged or
	// not: 50000 x 0.073 / 2 = 1825. The unflagged row expects the full
	// amount.
	assert.Empty(t, result.Discrepancies)
}

func TestReconcile_SplitFlagMixedUnderpaidRow(t *testing.T) {
	e := newTestEngine()

	deal := softwareDeal("1", "Acme Renewal")
	flagged := regularTx("1", "Acme Renewal", 1825)
	flagged.HasSplitFlag = true
	unflagged := regularTx("1", "Acme Renewal", 1825)

	result, err := e.Reconcile([]models.Deal{deal}, []models.Transaction{flagged, unflagged}, 100)
	require.NoError(t, err)

	// Only the unflagged row is short: it owes the full 3650.
	require.Len(t, result.Discrepancies, 1)
	d := result.Discrepancies[0]
	assert.Equal(t, models.DiscrepancyWrongCommission, d.Kind)
	assert.Equal(t, "3650.00", d.Expected)
	assert.Equal(t, "1825.00", d.Actual)
}

func TestReconcile_SplitTransactionAppendsToMatch(t *testing.T) {
	e := newTestEngine()

	deal := softwareDeal("1", "Acme Renewal")
	regular := regularTx("1", "Acme Renewal", 3650)
	split := regularTx("", "Acme Renewal", 100)
	split.Category = models.CategorySplit
	split.BasisAmount = decimal.Zero
	split.AppliedRate = decimal.Zero

	result, err := e.Reconcile([]models.Deal{deal}, []models.Transaction{regular, split}, 100)
	require.NoError(t, err)

	require.Len(t, result.Matches, 1)
	assert.Len(t, result.Matches[0].Transactions, 2)
	assert.Empty(t, result.UnmatchedSplits)
}

func TestReconcile_SplitTransactionCreatesMatch(t *testing.T) {
	e := newTestEngine()

	deal := softwareDeal("1", "Acme Renewal")
	split := regularTx("", "Acme Renewal", 1825)
	split.Category = models.CategorySplit
	split.BasisAmount = decimal.Zero
	split.AppliedRate = decimal.Zero

	result, err := e.Reconcile([]models.Deal{deal}, []models.Transaction{split}, 100)
	require.NoError(t, err)

	require.Len(t, result.Matches, 1)
	assert.Equal(t, models.StrategyNameAndDate, result.Matches[0].Strategy)
	assert.Equal(t, 85.0, result.Matches[0].Confidence)
	assert.Empty(t, result.UnmatchedDeals)
}

func TestReconcile_UnmatchedSplitKept(t *testing.T) {
	e := newTestEngine()

	split := regularTx("", "Orphan Split", 100)
	split.Category = models.CategorySplit

	result, err := e.Reconcile(nil, []models.Transaction{split}, 100)
	require.NoError(t, err)

	require.Len(t, result.UnmatchedSplits, 1)
	assert.Len(t, result.UnmatchedTransactions, 1)
	assert.Equal(t, "Orphan Split", result.UnmatchedSplits[0].DealName)
}

func TestReconcile_MissingQuarterSplit(t *testing.T) {
	e := newTestEngine()

	deal := softwareDeal("1", "Acme Renewal")
	deal.RevenueStartDate = date(2026, 1, 1)
	tx := regularTx("1", "Acme Renewal", 3650)

	result, err := e.Reconcile([]models.Deal{deal}, []models.Transaction{tx}, 100)
	require.NoError(t, err)

	var found *models.Discrepancy
	for i, d := range result.Discrepancies {
		if d.Kind == models.DiscrepancyMissingQuarterSplit {
			found = &result.Discrepancies[i]
		}
	}
	require.NotNil(t, found)
	assert.Equal(t, models.SeverityMedium, found.Severity)
	// 50000 x 0.5 x 0.07 (2025 software rate).
	assert.True(t, found.Impact.Equal(dec(1750)), "impact %s", found.Impact)
}

func TestReconcile_MissingCurrencyConversion(t *testing.T) {
	e := newTestEngine()

	deal := softwareDeal("1", "Acme Renewal")
	deal.OriginalCurrency = "USD"
	deal.ConvertedAmount = decimal.Zero
	tx := regularTx("1", "Acme Renewal", 3650)

	result, err := e.Reconcile([]models.Deal{deal}, []models.Transaction{tx}, 100)
	require.NoError(t, err)

	var found *models.Discrepancy
	for i, d := range result.Discrepancies {
		if d.Kind == models.DiscrepancyMissingConversion {
			found = &result.Discrepancies[i]
		}
	}
	require.NotNil(t, found)
	assert.Equal(t, models.SeverityHigh, found.Severity)
	assert.True(t, found.Impact.IsZero())
}

func TestReconcile_Summary(t *testing.T) {
	e := newTestEngine()

	deals := []models.Deal{
		softwareDeal("1", "Alpha"),
		softwareDeal("2", "Beta"),
	}
	txs := []models.Transaction{
		regularTx("1", "Alpha", 3650),
	}

	result, err := e.Reconcile(deals, txs, 92.5)
	require.NoError(t, err)

	s := result.Summary
	assert.Equal(t, 2, s.TotalDeals)
	assert.Equal(t, 1, s.TotalTransactions)
	assert.Equal(t, 1, s.MatchedDeals)
	assert.Equal(t, 1, s.UnmatchedDeals)
	assert.Equal(t, 1, s.MatchesByStrategy[models.StrategyExactID])
	assert.Equal(t, 100.0, s.AverageMatchConfidence)
	assert.True(t, s.DealAmountTotal.Equal(dec(100000)))
	assert.True(t, s.PaidCommissionTotal.Equal(dec(3650)))
	assert.Equal(t, 1, s.DiscrepanciesByKind[models.DiscrepancyMissingDeal].Count)
	assert.InDelta(t, 92.5, s.DataQualityScore, 0.001)
}

func TestReconcile_ForecastKickers(t *testing.T) {
	e := newTestEngine()

	// Bookings put Q1 2025 under the earlybird bonus regardless of quota.
	deal := softwareDeal("1", "Alpha")
	deal.CloseDate = date(2025, 2, 1)

	forecast := regularTx("", "Upcoming Deal", 1000)
	forecast.Category = models.CategoryForecast
	forecast.CloseDate = date(2025, 2, 10)

	result, err := e.Reconcile([]models.Deal{deal}, []models.Transaction{forecast}, 100)
	require.NoError(t, err)

	f := result.Summary.Forecast
	require.Len(t, f.Deals, 1)
	assert.Equal(t, "earlybird", f.Deals[0].KickerName)
	assert.True(t, f.Deals[0].Kickers.Equal(dec(200)), "kicker %s", f.Deals[0].Kickers)
	assert.Equal(t, 1, f.DealsWithKickers)
	assert.True(t, f.TotalAmount.Equal(dec(1000)))
}

func TestReconcile_ForecastExplicitKickerWins(t *testing.T) {
	e := newTestEngine()

	forecast := regularTx("", "Upcoming Deal", 1000)
	forecast.Category = models.CategoryForecast
	forecast.CloseDate = date(2024, 5, 10)
	forecast.PerformanceKicker = dec(300)

	result, err := e.Reconcile(nil, []models.Transaction{forecast}, 100)
	require.NoError(t, err)

	f := result.Summary.Forecast
	require.Len(t, f.Deals, 1)
	assert.Equal(t, "explicit", f.Deals[0].KickerName)
	assert.True(t, f.Deals[0].Kickers.Equal(dec(300)))
}
