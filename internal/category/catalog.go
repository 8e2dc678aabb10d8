package category

// FallbackCategory is the sentinel the extraction service emits when it
// cannot classify a receipt, and what Suggest returns with no keyword hits.
const FallbackCategory = "Uncategorized"

// DefaultCatalog returns the built-in category catalog. Declaration order
// is significant: earlier entries win score ties. Keywords are matched as
// substrings against normalized (lowercased, whitespace-collapsed) text.
func DefaultCatalog() []Category {
	return []Category{
		{
			Name: "Meals",
			Keywords: []string{
				"restaurant", "cafe", "coffee", "espresso", "bistro",
				"pizza", "burger", "sushi", "bakery", "bar", "pub",
				"lunch", "dinner", "breakfast", "catering",
			},
		},
		{
			Name: "Travel",
			Keywords: []string{
				"taxi", "uber", "train", "rail", "flight", "airline",
				"airport", "hotel", "parking", "fuel", "petrol", "toll",
				"car rental", "metro",
			},
		},
		{
			Name: "Office Supplies",
			Keywords: []string{
				"office", "stationery", "paper", "printer", "toner",
				"ink", "pen", "notebook", "whiteboard",
			},
		},
		{
			Name: "Software",
			Keywords: []string{
				"software", "license", "subscription", "saas", "cloud",
				"hosting", "domain",
			},
		},
		{
			Name: "Telecom",
			Keywords: []string{
				"phone", "mobile", "sim", "internet", "broadband",
				"telecom", "roaming",
			},
		},
	}
}
