package core

import (
	"regexp"
	"strconv"
	"strings"
)

// pricePatterns are tried in order; the first match wins and the remaining
// patterns are skipped.
var pricePatterns = []*regexp.Regexp{
	regexp.MustCompile(`under \$(\d+(?:\.\d+)?)`),
	regexp.MustCompile(`below \$(\d+(?:\.\d+)?)`),
	regexp.MustCompile(`less than \$(\d+(?:\.\d+)?)`),
	regexp.MustCompile(`budget of \$(\d+(?:\.\d+)?)`),
	regexp.MustCompile(`\$(\d+(?:\.\d+)?) budget`),
}

// ExtractIntent parses a raw query into an Intent. It is a total function:
// an empty or unparseable query yields the all-default Intent.
func ExtractIntent(query string) Intent {
	q := strings.ToLower(query)
	intent := Intent{Type: IntentGeneral}

	for _, kw := range comparisonKeywords {
		if strings.Contains(q, kw) {
			intent.ComparisonRequested = true
			intent.Type = IntentComparison
			break
		}
	}

	for _, entry := range categoryKeywords {
		for _, kw := range entry.Keywords {
			if strings.Contains(q, kw) {
				intent.Categories = append(intent.Categories, entry.Tag)
				break
			}
		}
	}

	for _, pattern := range pricePatterns {
		m := pattern.FindStringSubmatch(q)
		if m == nil {
			continue
		}
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			intent.BudgetMentioned = true
			intent.PriceRange = &v
		}
		break
	}

	for _, feature := range featureKeywords {
		if strings.Contains(q, feature) {
			intent.SpecificFeatures = append(intent.SpecificFeatures, feature)
		}
	}

	return intent
}

// categoryMatchesIntent reports whether a candidate's catalog category
// textually matches any of the intent's category tags (case-insensitive
// substring in either direction).
func categoryMatchesIntent(category string, tags []string) bool {
	if category == "" {
		return false
	}
	lc := strings.ToLower(category)
	for _, tag := range tags {
		if strings.Contains(lc, tag) || strings.Contains(tag, lc) {
			return true
		}
	}
	return false
}
