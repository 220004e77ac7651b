package properties

const priceWidenFactor = 0.10

// relaxUntilMatch applies the relaxation ladder strictly in order and stops
// at the first tier producing at least one result. The unfiltered tier is
// the terminal fallback so the caller never gets an empty answer while
// candidates exist.
func relaxUntilMatch(candidates []Property, filters SearchFilters) ([]Property, int) {
	tiers := []struct {
		tier  int
		match func(Property) bool
	}{
		{TierStrict, func(p Property) bool { return matches(p, filters, false, false, 0) }},
		{TierUnknownBathrooms, func(p Property) bool { return matches(p, filters, true, false, 0) }},
		{TierUnknownBedrooms, func(p Property) bool { return matches(p, filters, true, true, 0) }},
		{TierWidenedPrice, func(p Property) bool { return matches(p, filters, true, true, priceWidenFactor) }},
	}

	for _, level := range tiers {
		var matched []Property
		for _, candidate := range candidates {
			if level.match(candidate) {
				matched = append(matched, candidate)
			}
		}
		if len(matched) > 0 {
			return matched, level.tier
		}
	}
	return candidates, TierUnfiltered
}

// matches evaluates one candidate against the filters. allowUnknownBaths and
// allowUnknownBeds let listings with missing counts through; widen expands
// the price bounds by the given fraction.
func matches(p Property, filters SearchFilters, allowUnknownBaths, allowUnknownBeds bool, widen float64) bool {
	if filters.MinBedrooms > 0 {
		if p.Bedrooms == nil {
			if !allowUnknownBeds {
				return false
			}
		} else if *p.Bedrooms < filters.MinBedrooms {
			return false
		}
	}

	if filters.MinBathrooms > 0 {
		if p.Bathrooms == nil {
			if !allowUnknownBaths {
				return false
			}
		} else if *p.Bathrooms < filters.MinBathrooms {
			return false
		}
	}

	if filters.MinPrice > 0 && p.Price > 0 {
		if p.Price < filters.MinPrice*(1-widen) {
			return false
		}
	}
	if filters.MaxPrice > 0 && p.Price > 0 {
		if p.Price > filters.MaxPrice*(1+widen) {
			return false
		}
	}
	return true
}
