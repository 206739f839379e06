// Package models defines the canonical record types exchanged between the
// normalizers, the matching engine and the report writers.
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionCategory classifies a compensation-system transaction.
// Every transaction carries exactly one category.
type TransactionCategory string

const (
	CategoryRegular     TransactionCategory = "regular"
	CategoryWithholding TransactionCategory = "withholding"
	CategoryForecast    TransactionCategory = "forecast"
	CategorySplit       TransactionCategory = "split"
)

// QualitySource is the trust tier of a transaction dataset.
type QualitySource string

const (
	SourceManual  QualitySource = "manual"
	SourceScraped QualitySource = "scraped"
	SourceUnknown QualitySource = "unknown"
)

// MatchStrategy identifies which cascade stage produced a match.
type MatchStrategy string

const (
	StrategyExactID          MatchStrategy = "exact_id"
	StrategyNameAndDate      MatchStrategy = "name_and_date"
	StrategyCompanyAndDate   MatchStrategy = "company_and_date"
	StrategyCentrallyManaged MatchStrategy = "centrally_managed"
)

// DiscrepancyKind is the taxonomy of validation findings.
type DiscrepancyKind string

const (
	DiscrepancyWrongCommission      DiscrepancyKind = "wrong_commission"
	DiscrepancyMissingDeal          DiscrepancyKind = "missing_deal"
	DiscrepancyWithholdingMismatch  DiscrepancyKind = "withholding_mismatch"
	DiscrepancyMissingQuarterSplit  DiscrepancyKind = "missing_quarter_split"
	DiscrepancyMissingConversion    DiscrepancyKind = "missing_currency_conversion"
	DiscrepancyIncorrectRevenueDate DiscrepancyKind = "incorrect_revenue_date"
)

// Severity ranks the urgency of a discrepancy.
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

// ACVBreakdown splits a deal's annual contract value by sales category.
type ACVBreakdown struct {
	Software             decimal.Decimal `csv:"acv_software"`
	ManagedServices      decimal.Decimal `csv:"acv_managed_services"`
	ProfessionalServices decimal.Decimal `csv:"acv_professional_services"`
}

// Deal is one closed-won opportunity from the CRM export. Deals are
// constructed once by the normalizer and immutable thereafter.
type Deal struct {
	ExternalID       string
	Name             string
	CloseDate        *time.Time
	RevenueStartDate *time.Time

	// CommissionBase is the home-currency amount commission is computed on.
	CommissionBase decimal.Decimal
	// ConvertedAmount is the export's home-currency figure before any
	// fallback; zero when the source never converted the original amount.
	ConvertedAmount  decimal.Decimal
	OriginalAmount   decimal.Decimal
	OriginalCurrency string

	DealType    string
	ProductName string
	TypesOfACV  string
	Deployment  string
	ACV         ACVBreakdown

	// IsFlatRate marks professional-services-style deals that earn a fixed
	// rate regardless of category.
	IsFlatRate  bool
	CompanyName string
	Owner       string
}

// Transaction is one commission-ledger entry from the compensation source.
type Transaction struct {
	ExternalID       string
	DealName         string
	CompanyID        string
	CompanyName      string
	CloseDate        *time.Time
	RevenueStartDate *time.Time

	// PaidAmount is the commission actually credited. For withholding rows
	// it is the partial (commonly 50%) payment.
	PaidAmount decimal.Decimal
	// FullAmount is the full commission a withheld payment releases to.
	FullAmount decimal.Decimal
	// AppliedRate is the decimal-fraction rate the source applied.
	AppliedRate decimal.Decimal
	// BasisAmount is the revenue figure the source applied the rate to,
	// independent of the deal's own amount.
	BasisAmount decimal.Decimal
	Currency    string

	DealType    string
	ProductName string
	TypesOfACV  string

	Category     TransactionCategory
	HasSplitFlag bool
	IsFlatRate   bool
	Source       QualitySource

	// Explicit kicker amounts carried by forecast rows.
	EarlyBirdKicker   decimal.Decimal
	PerformanceKicker decimal.Decimal
	CampaignKicker    decimal.Decimal
}

// Match associates one deal with an ordered set of one or more transactions.
// Each deal and each transaction appears in at most one match.
type Match struct {
	DealID       string
	Strategy     MatchStrategy
	Confidence   float64
	Deal         Deal
	Transactions []Transaction
}

// RegularTransactions returns the regular-category transactions of a match.
func (m *Match) RegularTransactions() []Transaction {
	var regular []Transaction
	for _, tx := range m.Transactions {
		if tx.Category == CategoryRegular {
			regular = append(regular, tx)
		}
	}
	return regular
}

// WithholdingTransactions returns the withholding transactions of a match.
func (m *Match) WithholdingTransactions() []Transaction {
	var withheld []Transaction
	for _, tx := range m.Transactions {
		if tx.Category == CategoryWithholding {
			withheld = append(withheld, tx)
		}
	}
	return withheld
}

// Discrepancy is one validation finding. Discrepancies are data, not
// errors: they are created append-only during validation and never raise.
type Discrepancy struct {
	SubjectID       string
	SubjectName     string
	Kind            DiscrepancyKind
	Expected        string
	Actual          string
	Impact          decimal.Decimal
	Severity        Severity
	Detail          string
	MatchConfidence float64
	Source          QualitySource
}

// DataQualityReport assesses one loaded transaction dataset.
type DataQualityReport struct {
	Source         QualitySource
	TotalRecords   int
	ValidIDs       int
	ValidNames     int
	TruncatedNames int
	MissingFields  map[string]int
	// Score is 0-100; it degrades with missing IDs, truncated names and
	// wholly-missing critical columns.
	Score    float64
	Warnings []string
}
