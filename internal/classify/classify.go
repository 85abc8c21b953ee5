// Package classify derives a category, priority, and title for a
// free-text issue description using an ordered keyword table. It is the
// deterministic fallback behind AI-assisted classification and is also
// consulted directly for instant suggestions while a citizen types.
package classify

import (
	"strings"

	"github.com/vmedia7860-pixel/civic-issue-reporting/internal/model"
)

// Result is a classification outcome. Classify always produces one;
// it never fails, whatever the input.
type Result struct {
	Category model.Category
	Priority int
	Title    string
}

// Rule maps a set of lowercase keywords to a category and priority.
type Rule struct {
	Keywords []string
	Category model.Category
	Priority int
}

// Rules is the classification table, checked strictly in order: the
// first rule with any keyword appearing as a substring of the
// lowercased input wins. Ties never go to "best match" — precedence is
// the table order and nothing else. Exported so precedence stays
// auditable and testable rule by rule.
var Rules = []Rule{
	{[]string{"pothole", "road", "sinkhole", "asphalt", "pavement"}, model.CategoryRoad, 6},
	{[]string{"leak", "water", "sewer", "pipeline", "drainage", "flood"}, model.CategoryWater, 8},
	{[]string{"electric", "light", "streetlight", "power", "outage", "wire"}, model.CategoryElectricity, 7},
	{[]string{"garbage", "trash", "dump", "waste", "litter", "bin"}, model.CategoryWaste, 5},
	{[]string{"fire", "smoke", "emergency"}, model.CategoryEmergency, 9},
	{[]string{"traffic", "signal", "sign", "parking"}, model.CategoryTraffic, 4},
	{[]string{"tree", "branch", "vegetation"}, model.CategoryParks, 3},
}

// Fallback values when no rule matches.
const (
	fallbackPriority = 3
	maxTitleRunes    = 50
	maxTitleWords    = 8
)

// Classify maps free text to a category, priority, and derived title.
// Pure and total: any input, including the empty string, yields a result.
func Classify(text string) Result {
	lowered := strings.ToLower(text)

	for _, rule := range Rules {
		for _, kw := range rule.Keywords {
			if strings.Contains(lowered, kw) {
				return Result{
					Category: rule.Category,
					Priority: rule.Priority,
					Title:    matchedTitle(text, rule.Category),
				}
			}
		}
	}

	return Result{
		Category: model.CategoryGeneral,
		Priority: fallbackPriority,
		Title:    fallbackTitle(text),
	}
}

// matchedTitle keeps the first eight whitespace-delimited words of the
// original-case text, prefixed with the category label.
func matchedTitle(text string, cat model.Category) string {
	words := strings.Fields(text)
	if len(words) > maxTitleWords {
		words = words[:maxTitleWords]
	}
	return string(cat) + " Issue: " + strings.Join(words, " ")
}

// fallbackTitle truncates unmatched text at 50 characters with an
// ellipsis. This is intentionally a different rule from the matched
// path's word cap.
func fallbackTitle(text string) string {
	runes := []rune(text)
	if len(runes) <= maxTitleRunes {
		return text
	}
	return string(runes[:maxTitleRunes]) + "..."
}
