package properties

import (
	"regexp"
	"strings"
)

// Location is the normalized form of a free-text location filter.
type Location struct {
	ZipCode string
	City    string
	State   string
}

var zipRe = regexp.MustCompile(`^\d{5}(?:-\d{4})?$`)

var stateCodes = map[string]string{
	"alabama": "AL", "alaska": "AK", "arizona": "AZ", "arkansas": "AR",
	"california": "CA", "colorado": "CO", "connecticut": "CT", "delaware": "DE",
	"florida": "FL", "georgia": "GA", "hawaii": "HI", "idaho": "ID",
	"illinois": "IL", "indiana": "IN", "iowa": "IA", "kansas": "KS",
	"kentucky": "KY", "louisiana": "LA", "maine": "ME", "maryland": "MD",
	"massachusetts": "MA", "michigan": "MI", "minnesota": "MN", "mississippi": "MS",
	"missouri": "MO", "montana": "MT", "nebraska": "NE", "nevada": "NV",
	"new hampshire": "NH", "new jersey": "NJ", "new mexico": "NM", "new york": "NY",
	"north carolina": "NC", "north dakota": "ND", "ohio": "OH", "oklahoma": "OK",
	"oregon": "OR", "pennsylvania": "PA", "rhode island": "RI", "south carolina": "SC",
	"south dakota": "SD", "tennessee": "TN", "texas": "TX", "utah": "UT",
	"vermont": "VT", "virginia": "VA", "washington": "WA", "west virginia": "WV",
	"wisconsin": "WI", "wyoming": "WY",
}

// NormalizeLocation interprets a free-text location as a ZIP code,
// "City, ST", a bare state, or a bare city, in that order.
func NormalizeLocation(raw string) Location {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Location{}
	}

	if zipRe.MatchString(trimmed) {
		zip := trimmed
		if len(zip) > 5 {
			zip = zip[:5]
		}
		return Location{ZipCode: zip}
	}

	if city, state, ok := strings.Cut(trimmed, ","); ok {
		return Location{
			City:  strings.TrimSpace(city),
			State: normalizeState(strings.TrimSpace(state)),
		}
	}

	if code := normalizeState(trimmed); code != "" && len(trimmed) != len(code) {
		return Location{State: code}
	}
	if len(trimmed) == 2 {
		if code := normalizeState(trimmed); code != "" {
			return Location{State: code}
		}
	}
	return Location{City: trimmed}
}

// normalizeState maps a full state name or 2-letter code to the code.
func normalizeState(raw string) string {
	if raw == "" {
		return ""
	}
	lower := strings.ToLower(raw)
	if code, ok := stateCodes[lower]; ok {
		return code
	}
	upper := strings.ToUpper(raw)
	if len(upper) == 2 {
		for _, code := range stateCodes {
			if code == upper {
				return upper
			}
		}
	}
	return ""
}

func equalFold(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
