package salescookie

import (
	"fmt"

	"fjacquet/commission-reconcile/internal/models"
	"fjacquet/commission-reconcile/internal/textutils"
)

// Column names the quality assessment keys on.
const (
	colUniqueID       = "Unique ID"
	colDealName       = "Deal Name"
	colCustomer       = "Customer"
	colCloseDate      = "Close Date"
	colCommission     = "Commission"
	colCommissionRate = "Commission Rate"
	colCommissionCcy  = "Commission Currency"
	colIsClosedWon    = "Is Closed Won"
)

// criticalColumns are the fields a wholly-missing column of which degrades
// the quality score by ten points each.
var criticalColumns = []string{colCustomer, colCloseDate, colCommission, colCommissionRate}

// truncationThreshold is the fraction of truncated deal names above which a
// dataset is considered scraped rather than manually exported.
const truncationThreshold = 0.1

// detectSource inspects the column signature of a dataset. The manual
// export carries marker columns the scraper never produces; a dataset with
// the three key columns and few truncated names is also trusted as manual.
func detectSource(header map[string]int, rows [][]string) models.QualitySource {
	if _, hasCcy := header[colCommissionCcy]; hasCcy {
		if _, hasWon := header[colIsClosedWon]; hasWon {
			return models.SourceManual
		}
	}

	_, hasCommission := header[colCommission]
	_, hasRate := header[colCommissionRate]
	_, hasID := header[colUniqueID]
	if hasCommission && hasRate && hasID {
		if nameIdx, ok := header[colDealName]; ok && len(rows) > 0 {
			truncated := 0
			for _, row := range rows {
				if nameIdx < len(row) && textutils.IsTruncatedName(row[nameIdx]) {
					truncated++
				}
			}
			if float64(truncated) > float64(len(rows))*truncationThreshold {
				return models.SourceScraped
			}
		}
		return models.SourceManual
	}

	return models.SourceScraped
}

// assessQuality scores a dataset 0-100. The score degrades with missing
// IDs, truncated names and wholly-missing critical columns.
func assessQuality(header map[string]int, rows [][]string, source models.QualitySource) *models.DataQualityReport {
	total := len(rows)
	report := &models.DataQualityReport{
		Source:        source,
		TotalRecords:  total,
		MissingFields: make(map[string]int),
		Score:         100.0,
	}

	cell := func(row []string, col string) (string, bool) {
		idx, ok := header[col]
		if !ok || idx >= len(row) {
			return "", false
		}
		return row[idx], true
	}

	if _, ok := header[colUniqueID]; ok {
		for _, row := range rows {
			if v, _ := cell(row, colUniqueID); v != "" {
				report.ValidIDs++
			}
		}
		if report.ValidIDs < total {
			report.Warnings = append(report.Warnings,
				fmt.Sprintf("%d records missing Unique ID", total-report.ValidIDs))
		}
	} else {
		report.MissingFields[colUniqueID] = total
		report.Warnings = append(report.Warnings, "Critical: Unique ID column missing")
	}

	if _, ok := header[colDealName]; ok {
		for _, row := range rows {
			v, _ := cell(row, colDealName)
			if v != "" {
				report.ValidNames++
			}
			if textutils.IsTruncatedName(v) {
				report.TruncatedNames++
			}
		}
		if report.TruncatedNames > 0 {
			report.Warnings = append(report.Warnings,
				fmt.Sprintf("%d deal names are truncated", report.TruncatedNames))
		}
	} else {
		report.MissingFields[colDealName] = total
		report.Warnings = append(report.Warnings, "Critical: Deal Name column missing")
	}

	for _, col := range criticalColumns {
		if _, ok := header[col]; !ok {
			report.MissingFields[col] = total
			report.Warnings = append(report.Warnings, fmt.Sprintf("Missing field: %s", col))
			continue
		}
		missing := 0
		for _, row := range rows {
			if v, _ := cell(row, col); v == "" {
				missing++
			}
		}
		if missing > 0 {
			report.MissingFields[col] = missing
		}
	}

	if total > 0 {
		missingColumns := 0
		for _, count := range report.MissingFields {
			if count == total {
				missingColumns++
			}
		}
		report.Score -= float64(total-report.ValidIDs) / float64(total) * 30
		report.Score -= float64(report.TruncatedNames) / float64(total) * 20
		report.Score -= float64(missingColumns) * 10
		if report.Score < 0 {
			report.Score = 0
		}
	}

	return report
}

// CombinedScore is the record-weighted average quality score of several
// reports. An empty set scores a clean 100.
func CombinedScore(reports []*models.DataQualityReport) float64 {
	totalRecords := 0
	weighted := 0.0
	for _, r := range reports {
		if r == nil {
			continue
		}
		totalRecords += r.TotalRecords
		weighted += r.Score * float64(r.TotalRecords)
	}
	if totalRecords == 0 {
		return 100.0
	}
	return weighted / float64(totalRecords)
}
