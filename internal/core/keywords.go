package core

import "strings"

// Static lookup tables for query understanding and retrieval expansion.
// All matching is done on the lower-cased query, so every keyword here is
// lower case. Tables are consulted in declaration order to keep extraction
// deterministic.

var comparisonKeywords = []string{"compare", "vs", "versus", "difference", "better", "best"}

type categoryEntry struct {
	Tag      string
	Keywords []string
}

// categoryKeywords maps a category tag to the query substrings that imply it.
// A tag is appended at most once per entry, but the same tag may repeat in an
// intent if differently-worded entries ever overlap.
var categoryKeywords = []categoryEntry{
	{Tag: "smartphones", Keywords: []string{"smartphone", "iphone", "android", "mobile phone", "cell phone"}},
	{Tag: "laptops", Keywords: []string{"laptop", "notebook", "macbook", "ultrabook"}},
	{Tag: "headphones", Keywords: []string{"headphone", "earbud", "earphone", "headset"}},
	{Tag: "smartwatches", Keywords: []string{"smartwatch", "smart watch", "fitness tracker"}},
	{Tag: "tablets", Keywords: []string{"tablet", "ipad"}},
	{Tag: "monitors", Keywords: []string{"monitor", "display"}},
	{Tag: "keyboards", Keywords: []string{"keyboard"}},
	{Tag: "cameras", Keywords: []string{"camera", "dslr", "mirrorless"}},
	{Tag: "gaming", Keywords: []string{"gaming", "console", "playstation", "xbox"}},
	{Tag: "smart home", Keywords: []string{"smart home", "smart bulb", "thermostat", "smart speaker"}},
	{Tag: "storage", Keywords: []string{"external drive", "ssd", "hard drive", "memory card"}},
}

// featureKeywords are matched as plain substrings and appended in table order.
var featureKeywords = []string{
	"wireless",
	"bluetooth",
	"noise cancellation",
	"noise cancelling",
	"waterproof",
	"battery life",
	"fast charging",
	"lightweight",
	"portable",
	"4k",
	"touchscreen",
	"backlit",
	"mechanical",
	"ergonomic",
}

// relatedCategories is the category-adjacency table used for the retrieval
// orchestrator's related-category expansion. Keys match catalog category
// names; lookups are case-insensitive.
var relatedCategories = map[string][]string{
	"smartphones":  {"Smartwatches", "Headphones"},
	"laptops":      {"Monitors", "Headphones"},
	"headphones":   {"Smartphones", "Laptops"},
	"smartwatches": {"Smartphones"},
	"gaming":       {"Headphones", "Monitors"},
	"tablets":      {"Keyboards", "Headphones"},
	"smart home":   {"Smartphones"},
	"cameras":      {"Headphones", "Storage"},
}

// maxRelatedPerCategory bounds how many adjacent categories are expanded for
// each category discovered in the accumulator.
const maxRelatedPerCategory = 2

// lookupRelated returns up to maxRelatedPerCategory adjacent categories for
// the given catalog category, or nil when the category has no entry.
func lookupRelated(category string) []string {
	related := relatedCategories[strings.ToLower(category)]
	if len(related) > maxRelatedPerCategory {
		related = related[:maxRelatedPerCategory]
	}
	return related
}
