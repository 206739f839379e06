// Package report renders reconciliation results as discrepancy CSV files,
// JSON documents and human-readable text summaries.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"fjacquet/commission-reconcile/internal/common"
	"fjacquet/commission-reconcile/internal/logging"
	"fjacquet/commission-reconcile/internal/models"
)

// discrepancyRow is the CSV schema of the discrepancy export.
type discrepancyRow struct {
	SubjectID   string `csv:"Subject ID"`
	SubjectName string `csv:"Subject Name"`
	Kind        string `csv:"Kind"`
	Severity    string `csv:"Severity"`
	Expected    string `csv:"Expected"`
	Actual      string `csv:"Actual"`
	Impact      string `csv:"Impact"`
	Confidence  string `csv:"Match Confidence"`
	Source      string `csv:"Source"`
	Detail      string `csv:"Detail"`
}

// Writer renders reconciliation results.
type Writer struct {
	logger logging.Logger
}

// NewWriter creates a Writer. A nil logger selects the default adapter.
func NewWriter(logger logging.Logger) *Writer {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	return &Writer{logger: logger}
}

// WriteDiscrepancyCSV writes every finding of a run to a CSV file, ordered
// high severity first, then by impact descending.
func (w *Writer) WriteDiscrepancyCSV(result *models.Result, filePath string) error {
	ordered := make([]models.Discrepancy, len(result.Discrepancies))
	copy(ordered, result.Discrepancies)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Severity != ordered[j].Severity {
			return severityRank(ordered[i].Severity) < severityRank(ordered[j].Severity)
		}
		return ordered[i].Impact.GreaterThan(ordered[j].Impact)
	})

	rows := make([]discrepancyRow, 0, len(ordered))
	for _, d := range ordered {
		confidence := ""
		if d.MatchConfidence > 0 {
			confidence = fmt.Sprintf("%.0f", d.MatchConfidence)
		}
		rows = append(rows, discrepancyRow{
			SubjectID:   d.SubjectID,
			SubjectName: d.SubjectName,
			Kind:        string(d.Kind),
			Severity:    string(d.Severity),
			Expected:    d.Expected,
			Actual:      d.Actual,
			Impact:      d.Impact.StringFixed(2),
			Confidence:  confidence,
			Source:      string(d.Source),
			Detail:      d.Detail,
		})
	}

	return common.WriteCSVFile(rows, filePath, w.logger)
}

func severityRank(s models.Severity) int {
	switch s {
	case models.SeverityHigh:
		return 0
	case models.SeverityMedium:
		return 1
	default:
		return 2
	}
}

// WriteJSON writes the full result as an indented JSON document.
func (w *Writer) WriteJSON(result *models.Result, out io.Writer) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(result); err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	return nil
}

// WriteSummary renders the aggregate view of a run as readable text.
func (w *Writer) WriteSummary(result *models.Result, out io.Writer) error {
	s := result.Summary

	p := func(format string, args ...any) {
		fmt.Fprintf(out, format+"\n", args...)
	}

	p("=== Commission Reconciliation Summary ===")
	p("")
	p("Deals:            %d (%d matched, %d unmatched)",
		s.TotalDeals, s.TotalDeals-s.UnmatchedDeals, s.UnmatchedDeals)
	p("Transactions:     %d (%d unmatched)", s.TotalTransactions, s.UnmatchedTxs)
	p("Deal amount:      %s", s.DealAmountTotal.StringFixed(2))
	p("Paid commission:  %s", s.PaidCommissionTotal.StringFixed(2))
	p("Data quality:     %.1f/100", s.DataQualityScore)
	p("")

	p("Matches by strategy (avg confidence %.1f):", s.AverageMatchConfidence)
	for _, strategy := range []models.MatchStrategy{
		models.StrategyExactID,
		models.StrategyNameAndDate,
		models.StrategyCompanyAndDate,
		models.StrategyCentrallyManaged,
	} {
		if count := s.MatchesByStrategy[strategy]; count > 0 {
			p("  %-20s %d", strategy, count)
		}
	}
	p("")

	p("Transaction categories: %d regular, %d withholding, %d forecast, %d split",
		s.RegularCount, s.WithholdingCount, s.ForecastCount, s.SplitCount)
	p("")

	if s.CentrallyManaged.Count > 0 {
		p("Centrally managed: %d transactions, %s commission",
			s.CentrallyManaged.Count, s.CentrallyManaged.TotalCommission.StringFixed(2))
		markers := make([]string, 0, len(s.CentrallyManaged.CountByMarker))
		for marker := range s.CentrallyManaged.CountByMarker {
			markers = append(markers, marker)
		}
		sort.Strings(markers)
		for _, marker := range markers {
			p("  %-24s %d", marker, s.CentrallyManaged.CountByMarker[marker])
		}
		p("")
	}

	if s.WithholdingCount > 0 {
		p("Withholding: paid %s, withheld %s, full %s",
			s.Withholding.TotalPaid.StringFixed(2),
			s.Withholding.TotalWithheld.StringFixed(2),
			s.Withholding.TotalFull.StringFixed(2))
		p("")
	}

	if s.ForecastCount > 0 {
		p("Forecast: %s commission, %s kickers (%d deals with kickers)",
			s.Forecast.TotalAmount.StringFixed(2),
			s.Forecast.TotalKickers.StringFixed(2),
			s.Forecast.DealsWithKickers)
		p("")
	}

	p("Discrepancies: %d, total impact %s", s.TotalDiscrepancies, s.TotalImpact.StringFixed(2))
	kinds := make([]models.DiscrepancyKind, 0, len(s.DiscrepanciesByKind))
	for kind := range s.DiscrepanciesByKind {
		kinds = append(kinds, kind)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	for _, kind := range kinds {
		stats := s.DiscrepanciesByKind[kind]
		p("  %-28s %3d  impact %s", kind, stats.Count, stats.Impact.StringFixed(2))
	}

	return nil
}
