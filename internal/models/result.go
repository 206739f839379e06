package models

import "github.com/shopspring/decimal"

// DiscrepancyStats aggregates one discrepancy kind in the summary.
type DiscrepancyStats struct {
	Count  int
	Impact decimal.Decimal
}

// WithholdingSummary totals the withholding transactions of a run.
// A missing full amount is assumed to be twice the paid amount.
type WithholdingSummary struct {
	TotalPaid     decimal.Decimal
	TotalWithheld decimal.Decimal
	TotalFull     decimal.Decimal
}

// ForecastDeal is one forecast row with its resolved kicker.
type ForecastDeal struct {
	DealName         string
	Commission       decimal.Decimal
	Kickers          decimal.Decimal
	KickerName       string
	KickerMultiplier float64
}

// ForecastSummary aggregates forecast transactions and their kickers.
type ForecastSummary struct {
	TotalAmount      decimal.Decimal
	TotalKickers     decimal.Decimal
	DealsWithKickers int
	Deals            []ForecastDeal
}

// CentrallyManagedSummary reports transactions that are handled by the
// central sales-operations process and never appear in the CRM.
type CentrallyManagedSummary struct {
	Count           int
	TotalCommission decimal.Decimal
	// CountByMarker breaks the count down by the name marker that
	// identified each transaction.
	CountByMarker map[string]int
}

// Summary carries the aggregate counts and sums of one reconciliation run.
type Summary struct {
	TotalDeals        int
	TotalTransactions int
	MatchedDeals      int
	UnmatchedDeals    int
	UnmatchedTxs      int

	DealAmountTotal     decimal.Decimal
	PaidCommissionTotal decimal.Decimal

	MatchesByStrategy      map[MatchStrategy]int
	DiscrepanciesByKind    map[DiscrepancyKind]DiscrepancyStats
	TotalDiscrepancies     int
	TotalImpact            decimal.Decimal
	AverageMatchConfidence float64

	RegularCount     int
	WithholdingCount int
	ForecastCount    int
	SplitCount       int

	CentrallyManaged CentrallyManagedSummary
	Withholding      WithholdingSummary
	Forecast         ForecastSummary

	DataQualityScore float64
}

// Result is the complete output of one reconciliation run.
type Result struct {
	Matches               []Match
	UnmatchedDeals        []Deal
	UnmatchedTransactions []Transaction
	UnmatchedSplits       []Transaction
	Discrepancies         []Discrepancy
	Summary               Summary
}
