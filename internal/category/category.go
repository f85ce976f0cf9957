package category

import "strings"

// Other is returned when no keyword matches.
const Other = "other"

// Rule binds a category to its lowercase trigger keywords.
type Rule struct {
	Category string
	Keywords []string
}

// taxonomy is scanned in declaration order; the first matching rule wins.
var taxonomy = []Rule{
	{Category: "politics", Keywords: []string{
		"bundesregierung", "wahl", "kanzler", "minister",
		"eu", "russland", "krieg", "ukraine", "parlament",
		"regierung", "afd", "spd", "fdp", "cdu", "grüne",
	}},
	{Category: "economy", Keywords: []string{
		"inflation", "wirtschaft", "unternehmen", "handel",
		"industrie", "arbeitsmarkt", "energiepreise",
		"gas", "strom", "lieferkette",
	}},
	{Category: "tech", Keywords: []string{
		"ki", "künstliche intelligenz", "digitalisierung",
		"software", "hardware", "cyber", "hacker", "internet",
		"startup", "forschung",
	}},
	{Category: "world", Keywords: []string{
		"usa", "china", "frankreich",
		"nahost", "israel", "afrika", "indien",
	}},
	{Category: "society", Keywords: []string{
		"gesellschaft", "migration", "kultur", "schule",
		"gesundheit", "soziales", "familie",
	}},
}

// Categorize returns the first category whose keyword occurs in text, or Other.
func Categorize(text string) string {
	lowered := strings.ToLower(text)
	for _, rule := range taxonomy {
		for _, kw := range rule.Keywords {
			if strings.Contains(lowered, kw) {
				return rule.Category
			}
		}
	}
	return Other
}

// Names lists the categories in precedence order, without Other.
func Names() []string {
	names := make([]string, 0, len(taxonomy))
	for _, rule := range taxonomy {
		names = append(names, rule.Category)
	}
	return names
}

// Known reports whether name is a declared category or Other.
func Known(name string) bool {
	if name == Other {
		return true
	}
	for _, rule := range taxonomy {
		if rule.Category == name {
			return true
		}
	}
	return false
}
