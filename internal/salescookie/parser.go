// Package salescookie normalizes compensation-system exports of variable
// quality into canonical Transaction records. Two export flavors exist: the
// manual export (complete columns, trusted) and the scraped export
// (aliased columns, truncated deal names).
package salescookie

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"fjacquet/commission-reconcile/internal/classifier"
	"fjacquet/commission-reconcile/internal/currencyutils"
	"fjacquet/commission-reconcile/internal/dateutils"
	"fjacquet/commission-reconcile/internal/logging"
	"fjacquet/commission-reconcile/internal/models"
	"fjacquet/commission-reconcile/internal/parsererror"
	"fjacquet/commission-reconcile/internal/textutils"
)

// columnAliases maps the scraped export's column spellings back to the
// canonical manual-export names.
var columnAliases = map[string]string{
	"Unique_ID":       colUniqueID,
	"ID":              colUniqueID,
	"Deal_Name":       colDealName,
	"Name":            colDealName,
	"Company":         colCustomer,
	"Client":          colCustomer,
	"ACV EUR":         "ACV (EUR)",
	"ACV":             "ACV (EUR)",
	"Est. Commission": "Est_Commission",
}

// Parser normalizes compensation exports.
type Parser struct {
	classifier *classifier.Classifier
	logger     logging.Logger
}

// NewParser creates a Parser. A nil logger selects the default adapter.
func NewParser(cls *classifier.Classifier, logger logging.Logger) *Parser {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	if cls == nil {
		cls = classifier.New(nil)
	}
	return &Parser{classifier: cls, logger: logger}
}

// CategoryForFilename derives the transaction category of an export file
// from its name: withholding, split and forecast ("estimated") exports are
// produced as separate files; everything else is a regular credits file.
func CategoryForFilename(name string) models.TransactionCategory {
	lower := strings.ToLower(filepath.Base(name))
	switch {
	case strings.Contains(lower, "withholding"):
		return models.CategoryWithholding
	case strings.Contains(lower, "split"):
		return models.CategorySplit
	case strings.Contains(lower, "estimated"), strings.Contains(lower, "forecast"):
		return models.CategoryForecast
	default:
		return models.CategoryRegular
	}
}

// ParseFile reads one export file. The source hint forces manual or scraped
// handling; SourceUnknown auto-detects from the column signature. Rows that
// fail to normalize are logged and skipped, never fatal.
func (p *Parser) ParseFile(filePath string, hint models.QualitySource) ([]models.Transaction, *models.DataQualityReport, error) {
	header, rows, err := readDelimited(filePath)
	if err != nil {
		return nil, nil, err
	}
	if len(rows) == 0 {
		return nil, nil, &parsererror.EmptyInputError{FilePath: filePath}
	}

	source := hint
	if source == models.SourceUnknown || source == "" {
		source = detectSource(header, rows)
		p.logger.WithField(logging.FieldSource, string(source)).Info("Detected data source")
	}

	quality := assessQuality(header, rows, source)
	p.logger.WithFields(
		logging.Field{Key: logging.FieldFile, Value: filePath},
		logging.Field{Key: "quality_score", Value: quality.Score},
	).Info("Assessed data quality")

	category := CategoryForFilename(filePath)

	transactions := make([]models.Transaction, 0, len(rows))
	for _, row := range rows {
		tx, ok := p.normalizeRow(header, row, source, category)
		if !ok {
			continue
		}
		transactions = append(transactions, tx)
	}

	return transactions, quality, nil
}

// ParseDirectory reads every CSV export under dir, tagging each file's
// transactions with the category its filename declares. Categories not in
// the include set are skipped; a nil set includes everything.
func (p *Parser) ParseDirectory(dir string, hint models.QualitySource, include map[models.TransactionCategory]bool) ([]models.Transaction, []*models.DataQualityReport, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, err
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".csv") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	var all []models.Transaction
	var reports []*models.DataQualityReport
	for _, name := range names {
		if include != nil && !include[CategoryForFilename(name)] {
			continue
		}
		path := filepath.Join(dir, name)
		transactions, quality, err := p.ParseFile(path, hint)
		if err != nil {
			// File-level failures degrade the run, they do not abort it.
			p.logger.WithError(err).WithField(logging.FieldFile, path).
				Warn("Skipping unreadable export file")
			continue
		}
		all = append(all, transactions...)
		reports = append(reports, quality)
	}

	if len(all) == 0 {
		return nil, nil, &parsererror.EmptyInputError{FilePath: dir}
	}
	return all, reports, nil
}

// normalizeRow builds a canonical Transaction from one export row. Rows
// without a usable ID or deal name carry no matching signal and are
// dropped.
func (p *Parser) normalizeRow(header map[string]int, row []string, source models.QualitySource, category models.TransactionCategory) (models.Transaction, bool) {
	get := func(col string) string {
		idx, ok := header[col]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	id := get(colUniqueID)
	dealName := get(colDealName)
	if id == "" && dealName == "" {
		return models.Transaction{}, false
	}

	if textutils.IsTruncatedName(dealName) {
		p.logger.WithField(logging.FieldDealName, dealName).Debug("Truncated deal name detected")
	}

	closeDate, err := dateutils.ParseOptionalDate(get(colCloseDate))
	if err != nil {
		p.logger.WithError(err).WithField(logging.FieldDealName, dealName).
			Warn("Unparseable close date, transaction unmatchable by date")
	}
	revenueStart, err := dateutils.ParseOptionalDate(get("Revenue Start Date"))
	if err != nil {
		p.logger.WithError(err).WithField(logging.FieldDealName, dealName).
			Warn("Unparseable revenue start date")
	}

	companyID, companyName := textutils.SplitCustomerField(get(colCustomer))

	appliedRate := currencyutils.ParseRate(get(colCommissionRate))
	paid := currencyutils.ParseEmbeddedAmount(get(colCommission))
	full := currencyutils.ParseEmbeddedAmount(get("Est_Commission"))
	basis := currencyutils.ParseAmountOrZero(get("ACV (EUR)"))

	currency := get(colCommissionCcy)
	if currency == "" {
		currency = "EUR"
	}

	hasSplit := parseYes(get("Split"))

	isFlatRate := p.classifier.IsFlatRate(classifier.FlatRateTraits{
		DealName:    dealName,
		DealType:    get("Deal Type"),
		AppliedRate: appliedRate,
		PSTotalTCV:  currencyutils.ParseAmountOrZero(get("TCV (Professional Services)")),
	})

	return models.Transaction{
		ExternalID:       id,
		DealName:         dealName,
		CompanyID:        companyID,
		CompanyName:      companyName,
		CloseDate:        closeDate,
		RevenueStartDate: revenueStart,
		PaidAmount:       paid,
		FullAmount:       full,
		AppliedRate:      appliedRate,
		BasisAmount:      basis,
		Currency:         currency,
		DealType:         get("Deal Type"),
		ProductName:      get("Product Name"),
		TypesOfACV:       get("Types of ACV"),
		Category:         category,
		HasSplitFlag:     hasSplit,
		IsFlatRate:       isFlatRate,
		Source:           source,
		EarlyBirdKicker:  currencyutils.ParseAmountOrZero(firstNonEmpty(get("Early Bird Kicker"), get("Earlybird Kicker"))),
		PerformanceKicker: currencyutils.ParseAmountOrZero(get("Performance Kicker")),
		CampaignKicker:   currencyutils.ParseAmountOrZero(get("Campaign Kicker")),
	}, true
}

func parseYes(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "yes", "true", "1":
		return true
	}
	return false
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// readDelimited reads a CSV file trying comma, semicolon and tab
// delimiters, returning a canonical header index and the data rows. Column
// names are trimmed, stripped of any BOM and de-aliased.
func readDelimited(filePath string) (map[string]int, [][]string, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, nil, err
	}

	for _, delimiter := range []rune{',', ';', '\t'} {
		reader := csv.NewReader(strings.NewReader(string(data)))
		reader.Comma = delimiter
		reader.FieldsPerRecord = -1
		reader.LazyQuotes = true

		records, err := reader.ReadAll()
		if err != nil || len(records) == 0 || len(records[0]) < 2 {
			continue
		}

		header := make(map[string]int, len(records[0]))
		for i, col := range records[0] {
			name := strings.TrimSpace(strings.TrimPrefix(col, "\ufeff"))
			if canonical, ok := columnAliases[name]; ok {
				if _, taken := header[canonical]; !taken {
					header[canonical] = i
				}
				continue
			}
			header[name] = i
		}
		return header, records[1:], nil
	}

	return nil, nil, &parsererror.ParseError{
		Parser: "salescookie",
		Field:  "file",
		Value:  filePath,
		Err:    io.ErrUnexpectedEOF,
	}
}
