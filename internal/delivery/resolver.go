package delivery

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"

	"github.com/pmdelrosario/merkado-backend/pkg/db/models"
)

// Resolution is a matched delivery rule for an address. A nil Resolution
// means the address is not yet covered and checkout stays blocked.
type Resolution struct {
	AreaName      string
	FreeThreshold decimal.Decimal
	Fee           decimal.Decimal
}

// NormalizePostalCode strips everything except digits.
func NormalizePostalCode(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NormalizeArea case-folds and collapses whitespace in a free-text area
// string (barangay + city).
func NormalizeArea(raw string) string {
	return strings.Join(strings.Fields(strings.ToLower(raw)), " ")
}

// Resolve picks the delivery rule for a normalized postal code and area.
//
// Postal code match is exact. When several rules share the postal code,
// preference order is: a rule whose area name is a substring of the address
// area, then a rule with any area-name token longer than 3 characters
// appearing in the address area, then the rule with the lowest free-delivery
// threshold as the conservative default.
func Resolve(rules []models.DeliveryRule, postalCode, area string) *Resolution {
	postalCode = NormalizePostalCode(postalCode)
	if postalCode == "" {
		return nil
	}
	area = NormalizeArea(area)

	var matched []models.DeliveryRule
	for _, rule := range rules {
		if rule.PostalCode == postalCode {
			matched = append(matched, rule)
		}
	}

	switch len(matched) {
	case 0:
		return nil
	case 1:
		return resolutionFrom(matched[0])
	}

	for _, rule := range matched {
		if name := NormalizeArea(rule.AreaName); name != "" && strings.Contains(area, name) {
			return resolutionFrom(rule)
		}
	}

	for _, rule := range matched {
		for _, token := range strings.Fields(NormalizeArea(rule.AreaName)) {
			if len(token) > 3 && strings.Contains(area, token) {
				return resolutionFrom(rule)
			}
		}
	}

	lowest := matched[0]
	for _, rule := range matched[1:] {
		if rule.FreeThreshold.LessThan(lowest.FreeThreshold) {
			lowest = rule
		}
	}
	return resolutionFrom(lowest)
}

func resolutionFrom(rule models.DeliveryRule) *Resolution {
	return &Resolution{
		AreaName:      rule.AreaName,
		FreeThreshold: rule.FreeThreshold,
		Fee:           rule.Fee,
	}
}
