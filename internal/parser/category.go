package parser

import (
	"strings"

	"spendbot/internal/core"
)

// categoryRules is the ordered substring rule list for category
// resolution. Order is load-bearing: the first substring found in the
// command line wins, so "grocery" can never shadow "food".
var categoryRules = []struct {
	substr   string
	category core.Category
}{
	{"food", core.CategoryFood},
	{"drink", core.CategoryDrink},
	{"grocery", core.CategoryGroceries},
	{"item", core.CategoryItem},
	{"dessert", core.CategoryDessert},
}

// ResolveCategory derives the category by case-insensitive substring
// search over the entire original command line, keyword included.
//
// Because the item name is part of the searched text, a name that
// itself contains a rule substring influences the result: "/item $2
// fooddrink" resolves to Food, not Item. This mirrors how users have
// always interacted with the tracker and is intentional; do not
// restrict the search to the keyword.
func ResolveCategory(line string) core.Category {
	lowered := strings.ToLower(line)
	for _, rule := range categoryRules {
		if strings.Contains(lowered, rule.substr) {
			return rule.category
		}
	}
	return core.CategoryOthers
}
