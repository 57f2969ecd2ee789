package request

// Categories is the fixed vocabulary a request may be tagged with.
var Categories = []string{
	"Apparel & Fashion",
	"Electronics & Gadgets",
	"Home & Garden",
	"Automotive",
	"Services",
	"Books & Media",
	"Custom Items",
	"Food & Beverages",
	"Health & Beauty",
	"Sports & Recreation",
}

var categorySet = func() map[string]bool {
	m := make(map[string]bool, len(Categories))
	for _, c := range Categories {
		m[c] = true
	}
	return m
}()

func KnownCategory(tag string) bool {
	return categorySet[tag]
}
