// Package hubspot normalizes CRM deal exports into canonical Deal records.
package hubspot

import (
	"strings"

	"fjacquet/commission-reconcile/internal/classifier"
	"fjacquet/commission-reconcile/internal/common"
	"fjacquet/commission-reconcile/internal/currencyutils"
	"fjacquet/commission-reconcile/internal/dateutils"
	"fjacquet/commission-reconcile/internal/logging"
	"fjacquet/commission-reconcile/internal/models"
	"fjacquet/commission-reconcile/internal/parsererror"
)

// closedWonStage is the pipeline stage exported deals must carry to be
// commission-relevant.
const closedWonStage = "Closed & Won"

// dealRow maps the CRM export columns. The trailing space in the
// professional-services ACV header is present in the real export.
type dealRow struct {
	RecordID        string `csv:"Record ID"`
	DealName        string `csv:"Deal Name"`
	DealStage       string `csv:"Deal Stage"`
	CloseDate       string `csv:"Close Date"`
	Amount          string `csv:"Amount"`
	AmountCompany   string `csv:"Amount in company currency"`
	Currency        string `csv:"Currency"`
	DealType        string `csv:"Deal Type"`
	ProductName     string `csv:"Product Name"`
	TypesOfACV      string `csv:"Types of ACV"`
	Company         string `csv:"Associated Company (Primary)"`
	Owner           string `csv:"Deal owner"`
	RevenueStart    string `csv:"Revenue Start Date"`
	ACVSoftware     string `csv:"ACV Sales (Software)"`
	ACVManaged      string `csv:"ACV Sales (Managed Services)"`
	ACVProfessional string `csv:"ACV Sales (Professional Services) "`
	TCVProfessional string `csv:"TCV (Professional Services)"`
	Deployment      string `csv:"Deployment Type"`
}

var requiredColumns = []string{"Record ID", "Deal Name", "Close Date"}

// Parser normalizes CRM exports.
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

// ParseFile reads a CRM export and returns its closed-won deals as
// canonical records. Unparseable rows are logged and skipped; a file
// missing a mandatory column is rejected as a whole.
func (p *Parser) ParseFile(filePath string) ([]models.Deal, error) {
	header, err := common.ReadCSVHeader(filePath)
	if err != nil {
		return nil, err
	}
	if col := missingColumn(header); col != "" {
		return nil, &parsererror.MissingColumnError{FilePath: filePath, Column: col}
	}

	rows, err := common.ReadCSVFile[dealRow](filePath, p.logger)
	if err != nil {
		return nil, err
	}

	deals := make([]models.Deal, 0, len(rows))
	for _, row := range rows {
		if !strings.EqualFold(strings.TrimSpace(row.DealStage), closedWonStage) {
			continue
		}
		deals = append(deals, p.normalizeRow(row))
	}

	p.logger.WithFields(
		logging.Field{Key: logging.FieldFile, Value: filePath},
		logging.Field{Key: logging.FieldCount, Value: len(deals)},
	).Info("Normalized closed-won deals")

	if len(deals) == 0 {
		return nil, &parsererror.EmptyInputError{FilePath: filePath}
	}
	return deals, nil
}

func missingColumn(header []string) string {
	present := make(map[string]bool, len(header))
	for _, col := range header {
		present[col] = true
	}
	for _, col := range requiredColumns {
		if !present[col] {
			return col
		}
	}
	return ""
}

// normalizeRow builds a canonical Deal from one export row. Dates that fail
// every format resolve to nil (the deal stays eligible for ID and name
// matching); unparseable amounts resolve to zero.
func (p *Parser) normalizeRow(row dealRow) models.Deal {
	closeDate, err := dateutils.ParseOptionalDate(row.CloseDate)
	if err != nil {
		p.logger.WithError(err).WithField(logging.FieldDealName, row.DealName).
			Warn("Unparseable close date, deal unmatchable by date")
	}
	revenueStart, err := dateutils.ParseOptionalDate(row.RevenueStart)
	if err != nil {
		p.logger.WithError(err).WithField(logging.FieldDealName, row.DealName).
			Warn("Unparseable revenue start date")
	}

	originalAmount := currencyutils.ParseAmountOrZero(row.Amount)
	companyAmount := currencyutils.ParseAmountOrZero(row.AmountCompany)

	// Commission is computed on the home-currency amount; fall back to the
	// original amount when the export carries no converted figure.
	commissionBase := companyAmount
	if commissionBase.IsZero() {
		commissionBase = originalAmount
	}

	acv := models.ACVBreakdown{
		Software:             currencyutils.ParseAmountOrZero(row.ACVSoftware),
		ManagedServices:      currencyutils.ParseAmountOrZero(row.ACVManaged),
		ProfessionalServices: currencyutils.ParseAmountOrZero(row.ACVProfessional),
	}

	isFlatRate := p.classifier.IsFlatRate(classifier.FlatRateTraits{
		DealName:    row.DealName,
		DealType:    row.DealType,
		PSTotalTCV:  currencyutils.ParseAmountOrZero(row.TCVProfessional),
		ACVSoftware: acv.Software,
		ACVManaged:  acv.ManagedServices,
		ACVPS:       acv.ProfessionalServices,
	})

	currency := strings.TrimSpace(row.Currency)
	if currency == "" {
		currency = "EUR"
	}

	return models.Deal{
		ExternalID:       strings.TrimSpace(row.RecordID),
		Name:             strings.TrimSpace(row.DealName),
		CloseDate:        closeDate,
		RevenueStartDate: revenueStart,
		CommissionBase:   commissionBase,
		ConvertedAmount:  companyAmount,
		OriginalAmount:   originalAmount,
		OriginalCurrency: currency,
		DealType:         strings.TrimSpace(row.DealType),
		ProductName:      strings.TrimSpace(row.ProductName),
		TypesOfACV:       strings.TrimSpace(row.TypesOfACV),
		Deployment:       strings.TrimSpace(row.Deployment),
		ACV:              acv,
		IsFlatRate:       isFlatRate,
		CompanyName:      strings.TrimSpace(row.Company),
		Owner:            strings.TrimSpace(row.Owner),
	}
}
