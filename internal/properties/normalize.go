package properties

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

const maxScanDepth = 5

// listingPaths are tried in order to locate the candidate array before any
// deep scan.
var listingPaths = [][]string{
	{"props"},
	{"properties"},
	{"listings"},
	{"results"},
	{"data", "props"},
	{"data", "results"},
	{"data"},
}

// pricePaths are tried in order on each listing before the deep scan.
var pricePaths = [][]string{
	{"listPrice"},
	{"list_price"},
	{"price"},
	{"askingPrice"},
	{"currentPrice"},
	{"mlsListingPrice"},
	{"estimatedValue"},
}

var imagePaths = [][]string{
	{"photos"},
	{"images"},
	{"media", "photos"},
	{"propertyPhotos"},
}

// NormalizeListings extracts canonical property records from a provider
// response of unknown shape. Missing or unrecognizable listings are skipped.
func NormalizeListings(tree any) []Property {
	items := findListingArray(tree)
	properties := make([]Property, 0, len(items))
	for _, item := range items {
		record, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if property, ok := normalizeListing(record); ok {
			properties = append(properties, property)
		}
	}
	return properties
}

// findListingArray locates the array of listing objects: preferred paths
// first, then a bounded scan for the first array of objects.
func findListingArray(tree any) []any {
	for _, path := range listingPaths {
		if value, ok := lookupPath(tree, path); ok {
			if items, ok := value.([]any); ok && len(items) > 0 {
				if _, isObject := items[0].(map[string]any); isObject {
					return items
				}
			}
		}
	}
	if items, ok := tree.([]any); ok {
		return items
	}

	var found []any
	scanTree(tree, maxScanDepth, func(_ string, _ string, value any) bool {
		items, ok := value.([]any)
		if !ok || len(items) == 0 {
			return false
		}
		if _, isObject := items[0].(map[string]any); !isObject {
			return false
		}
		found = items
		return true
	})
	return found
}

func normalizeListing(record map[string]any) (Property, bool) {
	property := Property{
		Street:    firstString(record, "streetAddress", "street", "address1", "addressLine1"),
		City:      firstString(record, "city"),
		State:     firstString(record, "state", "stateCode"),
		ZipCode:   firstString(record, "zip", "zipCode", "postalCode"),
		MLSNumber: firstString(record, "mlsNumber", "mls_number", "mlsId"),
		ListingID: firstString(record, "id", "listingId", "propertyId", "zpid"),
	}

	if address, ok := record["address"].(map[string]any); ok {
		if property.Street == "" {
			property.Street = firstString(address, "street", "streetAddress", "line1")
		}
		if property.City == "" {
			property.City = firstString(address, "city")
		}
		if property.State == "" {
			property.State = firstString(address, "state", "stateCode")
		}
		if property.ZipCode == "" {
			property.ZipCode = firstString(address, "zip", "zipCode", "postalCode")
		}
	}

	property.Price, property.PriceSource = extractPrice(record)
	property.Images = extractImages(record)
	property.SquareFeet, _ = firstNumber(record, "squareFeet", "sqft", "livingArea", "square_feet")

	if beds, ok := firstNumber(record, "bedrooms", "beds", "bedroomsTotal"); ok {
		n := int(beds)
		property.Bedrooms = &n
	}
	if baths, ok := firstNumber(record, "bathrooms", "baths", "bathroomsTotal"); ok {
		property.Bathrooms = &baths
	}

	// A listing with neither a price nor an address is unusable.
	if property.Price <= 0 && property.Street == "" && property.ZipCode == "" {
		return Property{}, false
	}
	return property, true
}

// extractPrice tries the preferred price paths, then deep-scans for a
// price-like key. The returned source tags where the value came from.
func extractPrice(record map[string]any) (float64, string) {
	for _, path := range pricePaths {
		if value, ok := lookupPath(record, path); ok {
			if price, ok := toNumber(value); ok && price > 0 {
				return price, strings.Join(path, ".")
			}
		}
	}

	var price float64
	var source string
	scanTree(record, maxScanDepth, func(path string, key string, value any) bool {
		lower := strings.ToLower(key)
		if !strings.Contains(lower, "price") && !strings.Contains(lower, "value") {
			return false
		}
		number, ok := toNumber(value)
		if !ok || number <= 0 {
			return false
		}
		price = number
		source = path
		return true
	})
	return price, source
}

func extractImages(record map[string]any) []string {
	for _, path := range imagePaths {
		value, ok := lookupPath(record, path)
		if !ok {
			continue
		}
		if urls := collectImageURLs(value); len(urls) > 0 {
			return urls
		}
	}

	var images []string
	scanTree(record, maxScanDepth, func(_ string, key string, value any) bool {
		lower := strings.ToLower(key)
		if !strings.Contains(lower, "photo") && !strings.Contains(lower, "image") {
			return false
		}
		if urls := collectImageURLs(value); len(urls) > 0 {
			images = urls
			return true
		}
		return false
	})
	return images
}

func collectImageURLs(value any) []string {
	switch v := value.(type) {
	case string:
		if looksLikeImageURL(v) {
			return []string{v}
		}
	case []any:
		var urls []string
		for _, item := range v {
			switch entry := item.(type) {
			case string:
				if looksLikeImageURL(entry) {
					urls = append(urls, entry)
				}
			case map[string]any:
				if url := firstString(entry, "url", "href", "src"); looksLikeImageURL(url) {
					urls = append(urls, url)
				}
			}
		}
		return urls
	}
	return nil
}

func looksLikeImageURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// scanTree walks the generic tree breadth-first up to maxDepth levels,
// invoking visit for each map entry. A visited set guards against cycles.
// visit returning true stops the scan.
func scanTree(tree any, maxDepth int, visit func(path, key string, value any) bool) {
	type node struct {
		value any
		path  string
		depth int
	}
	visited := map[uintptr]struct{}{}
	queue := []node{{value: tree}}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if current.depth > maxDepth {
			continue
		}
		if ptr, ok := containerPointer(current.value); ok {
			if _, seen := visited[ptr]; seen {
				continue
			}
			visited[ptr] = struct{}{}
		}

		switch v := current.value.(type) {
		case map[string]any:
			for key, value := range v {
				path := key
				if current.path != "" {
					path = current.path + "." + key
				}
				if visit(path, key, value) {
					return
				}
				queue = append(queue, node{value: value, path: path, depth: current.depth + 1})
			}
		case []any:
			for i, value := range v {
				path := fmt.Sprintf("%s[%d]", current.path, i)
				queue = append(queue, node{value: value, path: path, depth: current.depth + 1})
			}
		}
	}
}

func containerPointer(value any) (uintptr, bool) {
	switch value.(type) {
	case map[string]any, []any:
		return reflect.ValueOf(value).Pointer(), true
	}
	return 0, false
}

func lookupPath(tree any, path []string) (any, bool) {
	current := tree
	for _, segment := range path {
		record, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = record[segment]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

func firstString(record map[string]any, keys ...string) string {
	for _, key := range keys {
		if s, ok := record[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func firstNumber(record map[string]any, keys ...string) (float64, bool) {
	for _, key := range keys {
		if value, ok := record[key]; ok {
			if n, ok := toNumber(value); ok {
				return n, true
			}
		}
	}
	return 0, false
}

func toNumber(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case string:
		cleaned := strings.TrimSpace(strings.ReplaceAll(strings.TrimPrefix(v, "$"), ",", ""))
		if cleaned == "" {
			return 0, false
		}
		n, err := strconv.ParseFloat(cleaned, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	}
	return 0, false
}
