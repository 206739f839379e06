// Package classifier detects the commission-relevant traits of deals and
// transactions from their free-text fields. Detection is driven by small
// ordered rule tables so that the patterns live as data rather than as
// scattered conditionals.
package classifier

import (
	"strings"

	"github.com/shopspring/decimal"
)

// DealCategory is the commission-plan category a record resolves to.
type DealCategory string

const (
	CategorySoftware               DealCategory = "software"
	CategoryManagedServicesPublic  DealCategory = "managed_services_public"
	CategoryManagedServicesPrivate DealCategory = "managed_services_private"
	CategoryProfessionalServices   DealCategory = "recurring_professional_services"
	CategoryIndexationsParameter   DealCategory = "indexations_parameter"
	CategoryChurn                  DealCategory = "churn"
)

// DefaultCentrallyManagedMarkers identify transactions handled by the
// central sales-operations process. These deals never appear in the CRM
// source and must not generate missing-deal findings. The set is
// configurable; these are the markers observed in production exports.
var DefaultCentrallyManagedMarkers = []string{
	"cpi increase",
	"fp increase",
	"fixed price increase",
	"fix increase",
	"indexation",
}

// revenueDatePolicyMarkers are the recurring-price-adjustment deal names
// whose revenue start must be January 1 of the year after close.
var revenueDatePolicyMarkers = []string{
	"cpi increase",
	"fp increase",
	"fixed price increase",
}

// categoryRule maps name/type substrings to a plan category. Rules are
// evaluated in order; the first hit wins.
type categoryRule struct {
	keywords []string
	category DealCategory
}

var categoryRules = []categoryRule{
	{[]string{"indexation", "parameter", "balance sheet"}, CategoryIndexationsParameter},
	{[]string{"managed services", "managed software", "managed"}, CategoryManagedServicesPrivate},
	{[]string{"professional services"}, CategoryProfessionalServices},
	{[]string{"churn"}, CategoryChurn},
}

// Classifier evaluates the rule tables. The zero value uses the default
// marker sets.
type Classifier struct {
	centrallyManagedMarkers []string
}

// New creates a Classifier. A nil or empty marker list selects the
// defaults.
func New(centrallyManagedMarkers []string) *Classifier {
	if len(centrallyManagedMarkers) == 0 {
		centrallyManagedMarkers = DefaultCentrallyManagedMarkers
	}
	return &Classifier{centrallyManagedMarkers: centrallyManagedMarkers}
}

// CentrallyManagedMarker returns the marker that tags a deal name as
// centrally managed, or "" when none matches.
func (c *Classifier) CentrallyManagedMarker(dealName string) string {
	lower := strings.ToLower(dealName)
	for _, marker := range c.centrallyManagedMarkers {
		if strings.Contains(lower, marker) {
			return marker
		}
	}
	return ""
}

// IsCentrallyManaged reports whether a deal name carries any
// centrally-managed marker.
func (c *Classifier) IsCentrallyManaged(dealName string) bool {
	return c.CentrallyManagedMarker(dealName) != ""
}

// SubjectToRevenueDatePolicy reports whether a deal name names a
// recurring price adjustment, whose revenue start date must be January 1
// of the year following close.
func (c *Classifier) SubjectToRevenueDatePolicy(dealName string) bool {
	lower := strings.ToLower(dealName)
	for _, marker := range revenueDatePolicyMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// RecordTraits carries the free-text fields category inference reads.
type RecordTraits struct {
	ProductName string
	TypesOfACV  string
	DealType    string
	Deployment  string
	IsFlatRate  bool
}

// Category infers the commission-plan category of a record. Priority order:
// recurring-price-adjustment markers, then managed services (split
// public/private by deployment text), then professional services (only when
// not already flat-rated), then the standard software category.
func (c *Classifier) Category(traits RecordTraits) DealCategory {
	product := strings.ToLower(traits.ProductName)
	acvTypes := strings.ToLower(traits.TypesOfACV)
	dealType := strings.ToLower(traits.DealType)
	deployment := strings.ToLower(traits.Deployment)

	haystack := product + " " + acvTypes + " " + dealType

	for _, rule := range categoryRules {
		for _, keyword := range rule.keywords {
			if !strings.Contains(haystack, keyword) {
				continue
			}
			switch rule.category {
			case CategoryManagedServicesPrivate:
				if strings.Contains(deployment, "public") || strings.Contains(deployment, "rcloud") {
					return CategoryManagedServicesPublic
				}
				return CategoryManagedServicesPrivate
			case CategoryProfessionalServices:
				if traits.IsFlatRate {
					// Flat-rated PS deals bypass category rates entirely.
					continue
				}
				return CategoryProfessionalServices
			default:
				return rule.category
			}
		}
	}

	return CategorySoftware
}

// FlatRateTraits carries the signals of professional-services-style deals.
type FlatRateTraits struct {
	DealName    string
	DealType    string
	AppliedRate decimal.Decimal
	PSTotalTCV  decimal.Decimal
	ACVSoftware decimal.Decimal
	ACVManaged  decimal.Decimal
	ACVPS       decimal.Decimal
}

var flatRateValue = decimal.NewFromFloat(0.01)

// IsFlatRate reports whether a record is a professional-services-style deal
// earning the plan's fixed flat rate. Any single indicator is sufficient.
func (c *Classifier) IsFlatRate(traits FlatRateTraits) bool {
	name := strings.ToUpper(traits.DealName)
	if strings.HasPrefix(name, "PS @") || strings.Contains(strings.ToLower(traits.DealName), "ps deal") {
		return true
	}
	if strings.EqualFold(strings.TrimSpace(traits.DealType), "professional services") {
		return true
	}
	if traits.AppliedRate.Equal(flatRateValue) {
		return true
	}
	if traits.PSTotalTCV.IsPositive() {
		return true
	}
	if traits.ACVPS.IsPositive() && traits.ACVSoftware.IsZero() && traits.ACVManaged.IsZero() {
		return true
	}
	return false
}
