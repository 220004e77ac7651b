package properties

// fallbackListings is the deterministic local dataset served when the
// inventory provider is unconfigured, failing, or timing out. The same
// filter constraints and relaxation ladder apply to it.
var fallbackListings = []Property{
	{
		Street: "2408 Maple Ave", City: "Dallas", State: "TX", ZipCode: "75201",
		Price: 440000, PriceSource: "fallback", Bedrooms: intPtr(3), Bathrooms: floatPtr(2),
		SquareFeet: 1850, MLSNumber: "20451123",
		Images: []string{"https://photos.example.com/75201/2408-maple.jpg"},
	},
	{
		Street: "1711 Routh St", City: "Dallas", State: "TX", ZipCode: "75201",
		Price: 625000, PriceSource: "fallback", Bedrooms: intPtr(4), Bathrooms: floatPtr(3),
		SquareFeet: 2600, MLSNumber: "20460877",
		Images: []string{"https://photos.example.com/75201/1711-routh.jpg"},
	},
	{
		Street: "3309 Live Oak St", City: "Dallas", State: "TX", ZipCode: "75204",
		Price: 389000, PriceSource: "fallback", Bedrooms: intPtr(3), Bathrooms: nil,
		SquareFeet: 1700, MLSNumber: "20438210",
	},
	{
		Street: "901 S 1st St", City: "Austin", State: "TX", ZipCode: "78704",
		Price: 515000, PriceSource: "fallback", Bedrooms: intPtr(2), Bathrooms: floatPtr(2),
		SquareFeet: 1250, MLSNumber: "9154402",
		Images: []string{"https://photos.example.com/78704/901-s-1st.jpg"},
	},
	{
		Street: "4505 Menchaca Rd", City: "Austin", State: "TX", ZipCode: "78745",
		Price: 460000, PriceSource: "fallback", Bedrooms: intPtr(3), Bathrooms: floatPtr(2.5),
		SquareFeet: 1600, MLSNumber: "9162218",
	},
	{
		Street: "2016 Main St", City: "Houston", State: "TX", ZipCode: "77002",
		Price: 350000, PriceSource: "fallback", Bedrooms: nil, Bathrooms: nil,
		SquareFeet: 1400, MLSNumber: "67120045",
	},
	{
		Street: "815 Walker St", City: "Houston", State: "TX", ZipCode: "77002",
		Price: 298000, PriceSource: "fallback", Bedrooms: intPtr(2), Bathrooms: floatPtr(1),
		SquareFeet: 1100, MLSNumber: "67133390",
	},
	{
		Street: "12 Dove Creek Ln", City: "Plano", State: "TX", ZipCode: "75023",
		Price: 725000, PriceSource: "fallback", Bedrooms: intPtr(5), Bathrooms: floatPtr(4),
		SquareFeet: 3400, MLSNumber: "20471566",
		Images: []string{"https://photos.example.com/75023/12-dove-creek.jpg"},
	},
}

// FallbackListings returns a copy of the local dataset scoped to the filter's
// location, or the whole set when no location is given.
func FallbackListings(location string) []Property {
	normalized := NormalizeLocation(location)
	listings := make([]Property, 0, len(fallbackListings))
	for _, listing := range fallbackListings {
		if matchesLocation(listing, normalized) {
			listings = append(listings, listing)
		}
	}
	return listings
}

func matchesLocation(listing Property, loc Location) bool {
	if loc.ZipCode != "" {
		return listing.ZipCode == loc.ZipCode
	}
	if loc.City != "" {
		return equalFold(listing.City, loc.City) && (loc.State == "" || equalFold(listing.State, loc.State))
	}
	if loc.State != "" {
		return equalFold(listing.State, loc.State)
	}
	return true
}

func intPtr(n int) *int           { return &n }
func floatPtr(f float64) *float64 { return &f }
