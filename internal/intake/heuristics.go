package intake

import (
	"regexp"
	"strconv"
	"strings"
)

// Plausibility floors for deterministic corrections. Model values below
// these are treated as extraction mistakes and replaced.
const (
	minPlausiblePriceUSD   = 1000.0
	minPlausibleLotSqFt    = 200.0
	acreInSquareFeet       = 43560.0
	minPlausibleYearBuilt  = 1800
	maxPlausibleYearBuilt  = 2100
	minPlausibleSquareFeet = 100.0
)

var (
	priceRe      = regexp.MustCompile(`(?i)\$\s*([\d][\d,]*(?:\.\d+)?)\s*([km])?`)
	askingRe     = regexp.MustCompile(`(?i)(?:asking|listed?\s+(?:at|for)|worth|price\s+of)\s+\$?\s*([\d][\d,]*(?:\.\d+)?)\s*([km])?`)
	yearBuiltRe  = regexp.MustCompile(`(?i)built\s+(?:in\s+)?((?:18|19|20)\d{2})`)
	squareFeetRe = regexp.MustCompile(`(?i)([\d][\d,]*)\s*(?:sq\.?\s*ft\.?|sqft|square\s+feet)`)
	lotAcresRe   = regexp.MustCompile(`(?i)([\d][\d,]*(?:\.\d+)?)\s*[- ]?acres?`)
	lotSqFtRe    = regexp.MustCompile(`(?i)lot\s+(?:of|is|size[:\s]*)?\s*([\d][\d,]*)\s*(?:sq\.?\s*ft\.?|sqft|square\s+feet)`)
	hoaRe        = regexp.MustCompile(`(?i)hoa\s*(?:fee|dues)?\s*(?:of|is|:|are)?\s*\$?\s*([\d][\d,]*(?:\.\d+)?)`)

	sellKeywordsRe = regexp.MustCompile(`(?i)\b(sell|selling|list\s+my|listing\s+my)\b`)
	monthsOutRe    = regexp.MustCompile(`\b[2-6]\s+months\b`)
)

// applySellerHeuristics backfills seller facts extracted deterministically
// from the text. Heuristic values win over implausible model values but
// never overwrite plausible ones.
func applySellerHeuristics(parsed *ParsedIntake, text string) {
	if parsed.Intent == "" || parsed.Intent == "unknown" {
		if sellKeywordsRe.MatchString(text) {
			parsed.Intent = "sell"
		}
	}

	if price, ok := extractPrice(text); ok {
		if parsed.TransactionInfo.ListingPrice < minPlausiblePriceUSD {
			parsed.TransactionInfo.ListingPrice = price
		}
		setFact(parsed.Preferences, "asking_price", price, func(existing float64) bool {
			return existing < minPlausiblePriceUSD
		})
	}

	if year, ok := extractYearBuilt(text); ok {
		setFact(parsed.Preferences, "year_built", float64(year), func(existing float64) bool {
			return existing < minPlausibleYearBuilt || existing > maxPlausibleYearBuilt
		})
	}

	if sqft, ok := extractSquareFeet(text); ok {
		setFact(parsed.Preferences, "square_feet", sqft, func(existing float64) bool {
			return existing < minPlausibleSquareFeet
		})
	}

	if lot, ok := extractLotSize(text); ok {
		setFact(parsed.Preferences, "lot_size_sqft", lot, func(existing float64) bool {
			return existing < minPlausibleLotSqFt
		})
	}

	if fee, ok := extractHOAFee(text); ok {
		setFact(parsed.Preferences, "hoa_fee", fee, func(existing float64) bool {
			return existing <= 0
		})
	}

	if propertyType := extractPropertyType(text); propertyType != "" {
		setStringFact(parsed.Preferences, "property_type", propertyType)
	}
	if occupancy := extractOccupancy(text); occupancy != "" {
		setStringFact(parsed.Preferences, "occupancy", occupancy)
	}
	if condition := extractCondition(text); condition != "" {
		setStringFact(parsed.Preferences, "condition", condition)
	}
	if timeline := extractTimeline(text); timeline != "" {
		setStringFact(parsed.Preferences, "timeline", timeline)
	}
}

// setFact writes a numeric fact when absent or when the existing value is
// implausible per the provided check.
func setFact(preferences map[string]any, key string, value float64, implausible func(float64) bool) {
	existing, ok := toFloat(preferences[key])
	if !ok || implausible(existing) {
		preferences[key] = value
	}
}

// setStringFact writes a string fact only when absent or blank.
func setStringFact(preferences map[string]any, key, value string) {
	if existing, ok := preferences[key].(string); ok && strings.TrimSpace(existing) != "" {
		return
	}
	preferences[key] = value
}

func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	}
	return 0, false
}

func extractPrice(text string) (float64, bool) {
	if match := askingRe.FindStringSubmatch(text); match != nil {
		return parseAmount(match[1], match[2])
	}
	if match := priceRe.FindStringSubmatch(text); match != nil {
		amount, ok := parseAmount(match[1], match[2])
		if ok && amount >= minPlausiblePriceUSD {
			return amount, true
		}
	}
	return 0, false
}

func parseAmount(digits, suffix string) (float64, bool) {
	cleaned := strings.ReplaceAll(digits, ",", "")
	amount, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	switch strings.ToLower(suffix) {
	case "k":
		amount *= 1_000
	case "m":
		amount *= 1_000_000
	}
	return amount, true
}

func extractYearBuilt(text string) (int, bool) {
	match := yearBuiltRe.FindStringSubmatch(text)
	if match == nil {
		return 0, false
	}
	year, err := strconv.Atoi(match[1])
	if err != nil {
		return 0, false
	}
	return year, true
}

func extractSquareFeet(text string) (float64, bool) {
	// Lot-size mentions also match the generic sqft pattern; strip them
	// first so the house size is not confused with the lot.
	withoutLot := lotSqFtRe.ReplaceAllString(text, "")
	match := squareFeetRe.FindStringSubmatch(withoutLot)
	if match == nil {
		return 0, false
	}
	sqft, err := strconv.ParseFloat(strings.ReplaceAll(match[1], ",", ""), 64)
	if err != nil || sqft < minPlausibleSquareFeet {
		return 0, false
	}
	return sqft, true
}

func extractLotSize(text string) (float64, bool) {
	if match := lotSqFtRe.FindStringSubmatch(text); match != nil {
		sqft, err := strconv.ParseFloat(strings.ReplaceAll(match[1], ",", ""), 64)
		if err == nil && sqft >= minPlausibleLotSqFt {
			return sqft, true
		}
	}
	if match := lotAcresRe.FindStringSubmatch(text); match != nil {
		acres, err := strconv.ParseFloat(strings.ReplaceAll(match[1], ",", ""), 64)
		if err == nil && acres > 0 {
			return acres * acreInSquareFeet, true
		}
	}
	return 0, false
}

func extractHOAFee(text string) (float64, bool) {
	match := hoaRe.FindStringSubmatch(text)
	if match == nil {
		return 0, false
	}
	fee, err := strconv.ParseFloat(strings.ReplaceAll(match[1], ",", ""), 64)
	if err != nil || fee <= 0 {
		return 0, false
	}
	return fee, true
}

func extractPropertyType(text string) string {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "condo"):
		return "condo"
	case strings.Contains(lower, "townhouse") || strings.Contains(lower, "townhome"):
		return "townhouse"
	case strings.Contains(lower, "duplex"):
		return "duplex"
	case strings.Contains(lower, "multi-family") || strings.Contains(lower, "multifamily"):
		return "multi_family"
	case strings.Contains(lower, "vacant land") || strings.Contains(lower, "empty lot"):
		return "land"
	case strings.Contains(lower, "single-family") || strings.Contains(lower, "single family") ||
		strings.Contains(lower, "house") || strings.Contains(lower, "home"):
		return "single_family"
	}
	return ""
}

func extractOccupancy(text string) string {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "owner-occupied") || strings.Contains(lower, "owner occupied") ||
		strings.Contains(lower, "we live in") || strings.Contains(lower, "i live in"):
		return "owner_occupied"
	case strings.Contains(lower, "tenant") || strings.Contains(lower, "rented out") ||
		strings.Contains(lower, "renters"):
		return "tenant_occupied"
	case strings.Contains(lower, "vacant") || strings.Contains(lower, "empty house"):
		return "vacant"
	}
	return ""
}

func extractCondition(text string) string {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "fixer") || strings.Contains(lower, "needs work") ||
		strings.Contains(lower, "as-is") || strings.Contains(lower, "as is") ||
		strings.Contains(lower, "tlc"):
		return "needs_work"
	case strings.Contains(lower, "renovated") || strings.Contains(lower, "remodeled") ||
		strings.Contains(lower, "updated"):
		return "updated"
	case strings.Contains(lower, "move-in ready") || strings.Contains(lower, "move in ready"):
		return "move_in_ready"
	}
	return ""
}

func extractTimeline(text string) string {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "asap") || strings.Contains(lower, "immediately") ||
		strings.Contains(lower, "right away"):
		return "asap"
	case strings.Contains(lower, "this month") || strings.Contains(lower, "30 days"):
		return "within_1_month"
	case strings.Contains(lower, "few months") || strings.Contains(lower, "this year") ||
		monthsOutRe.MatchString(lower):
		return "within_6_months"
	case strings.Contains(lower, "next year") || strings.Contains(lower, "no rush") ||
		strings.Contains(lower, "just exploring"):
		return "exploring"
	}
	return ""
}
