package domain

import "strings"

// CategoryAll is the synthetic category key covering the whole wardrobe.
const CategoryAll = "All"

// Categories maps each canonical garment category to its subcategories.
// Classifier output is normalized against this table; anything it does not
// recognize falls back to "Custom".
var Categories = map[string][]string{
	"Tops":        {"T-Shirts", "Polo Shirts", "Shirts", "Blouses", "Vests", "Sweaters/Knits", "Hoodies", "Suits", "Denim Jackets", "Knitwear", "Windbreakers", "Coats", "Down Jackets", "Leather Jackets", "Trench Coats", "Other Tops", "Custom"},
	"Pants":       {"Jeans", "Casual Pants", "Athletic Pants", "Suit Pants", "Leggings", "Leather Pants", "Other Pants", "Custom"},
	"Skirts":      {"Skirt Suits", "Suspender Skirts", "Pleated Skirts", "A-Line Skirts", "Midi Skirts", "Other Skirts", "Custom"},
	"Dresses":     {"Dress Skirts", "Jumpsuits", "Custom"},
	"Shoes":       {"High Heels", "Loafers", "Boots", "Slippers/Sandals", "Sneakers", "Canvas Shoes", "Athletic Shoes", "Snow Boots", "Casual Shoes", "Other Shoes", "Custom"},
	"Bags":        {"Casual/Sport Bags", "Fashion Bags", "Canvas Bags", "Handbags", "Backpacks", "Other Bags", "Custom"},
	"Hats":        {"Baseball Caps", "Berets", "Knitted Caps", "Sun Hats", "Fisherman's Hats", "Other Hats", "Custom"},
	"Jewelry":     {"Bracelets/Bangles", "Rings", "Brooches", "Necklaces", "Earrings", "Other Jewelry", "Custom"},
	"Accessories": {"Watches", "Hair Accessories", "Socks", "Belts/Waist Chains", "Ties/Bowties", "Silk Scarves", "Gloves", "Glasses", "Other Accessories", "Custom"},
}

// KnownCategory reports whether name is one of the canonical categories.
func KnownCategory(name string) bool {
	_, ok := Categories[name]
	return ok
}

// NormalizeClassification maps a raw classifier result onto the canonical
// category table. Category names match case-insensitively; a subcategory
// not in the matched category's list becomes "Custom". An unrecognized
// category is kept verbatim with subcategory "Custom".
func NormalizeClassification(cls Classification) Classification {
	canonical, ok := matchCategory(cls.Category)
	if !ok {
		cls.Subcategory = "Custom"
		return cls
	}
	cls.Category = canonical
	for _, sub := range Categories[canonical] {
		if strings.EqualFold(sub, cls.Subcategory) {
			cls.Subcategory = sub
			return cls
		}
	}
	cls.Subcategory = "Custom"
	return cls
}

func matchCategory(name string) (string, bool) {
	if KnownCategory(name) {
		return name, true
	}
	for canonical := range Categories {
		if strings.EqualFold(canonical, name) {
			return canonical, true
		}
	}
	return "", false
}
