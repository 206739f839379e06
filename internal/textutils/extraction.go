// Package textutils provides text extraction and normalization utilities
// for the free-text fields of CRM and compensation exports.
package textutils

import (
	"regexp"
	"strings"
)

// TruncationMarker is appended by the compensation system's web UI when a
// deal name exceeds the column width. Truncated names are a data-quality
// concern: they break exact-name matching.
const TruncationMarker = "…"

// DefaultCompanySuffixes lists the legal-entity suffixes stripped during
// company-name normalization. The set is configuration, not algorithm;
// callers may override it from the application config.
var DefaultCompanySuffixes = []string{
	"gmbh", "ag", "bank", "aktiengesellschaft", "abp", "oyj",
	"inc.", "inc", "ltd", "limited", "plc", "s.a.", "sa",
	"kommanditgesellschaft",
}

var (
	parentheticalRe = regexp.MustCompile(`\s*\(.*\)$`)
	andCoRe         = regexp.MustCompile(`\s*&\s*co\.?.*$`)
	punctuationRe   = regexp.MustCompile(`[^\w\s]`)
)

// NormalizeCompany canonicalizes a company name for fallback matching:
// lowercase, parenthetical suffix stripped, legal-entity suffixes stripped,
// punctuation collapsed to whitespace, whitespace collapsed.
func NormalizeCompany(name string, suffixes []string) string {
	if name == "" {
		return ""
	}
	if suffixes == nil {
		suffixes = DefaultCompanySuffixes
	}

	name = strings.ToLower(strings.TrimSpace(name))
	name = parentheticalRe.ReplaceAllString(name, "")
	name = andCoRe.ReplaceAllString(name, "")

	for _, suffix := range suffixes {
		re := regexp.MustCompile(`\s+` + regexp.QuoteMeta(suffix) + `\b.*$`)
		name = re.ReplaceAllString(name, "")
	}

	name = punctuationRe.ReplaceAllString(name, " ")
	return strings.Join(strings.Fields(name), " ")
}

// SplitCustomerField splits a composite customer field of the form
// "ID; Name" into its parts. A field without a separator is treated as a
// bare company name.
func SplitCustomerField(customer string) (id, name string) {
	customer = strings.TrimSpace(customer)
	if customer == "" {
		return "", ""
	}

	if idx := strings.Index(customer, ";"); idx >= 0 {
		return strings.TrimSpace(customer[:idx]), strings.TrimSpace(customer[idx+1:])
	}
	return "", customer
}

// IsTruncatedName reports whether a deal name was cut off by the source.
func IsTruncatedName(name string) bool {
	return strings.HasSuffix(name, TruncationMarker)
}
