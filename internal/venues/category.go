package venues

import (
	"strings"
	"unicode"

	"github.com/sawpanic/predictmkt/internal/market"
)

// categoryKeywords maps each closed-set category to keywords matched as
// whole words against the question when venue metadata doesn't supply a
// category.
var categoryKeywords = map[market.Category][]string{
	market.CategoryPolitics:    {"election", "president", "senate", "congress", "governor", "vote", "parliament"},
	market.CategoryCrypto:      {"bitcoin", "btc", "ethereum", "eth", "crypto", "token", "defi", "blockchain"},
	market.CategorySports:      {"championship", "game", "match", "tournament", "league", "playoffs", "super bowl"},
	market.CategoryEconomics:   {"inflation", "gdp", "rate hike", "fed", "recession", "unemployment", "interest rate"},
	market.CategoryWorld:       {"war", "invasion", "ceasefire", "treaty", "summit"},
	market.CategoryCulture:     {"movie", "album", "oscar", "grammy", "celebrity", "award"},
	market.CategoryGeopolitics: {"sanctions", "nato", "border", "diplomatic", "embassy"},
}

// classifyCategory chooses a category from venue metadata (a hint
// string), falling back to keyword match on the question, falling back
// to Other.
func classifyCategory(hint, question string) market.Category {
	if c := matchCategoryName(hint); c != "" {
		return c
	}

	words := strings.FieldsFunc(strings.ToLower(question), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	paddedQ := " " + strings.Join(words, " ") + " "
	for _, cat := range market.AllCategories {
		for _, kw := range categoryKeywords[cat] {
			if strings.Contains(paddedQ, " "+kw+" ") {
				return cat
			}
		}
	}
	return market.CategoryOther
}

func matchCategoryName(hint string) market.Category {
	hint = strings.TrimSpace(hint)
	for _, cat := range market.AllCategories {
		if strings.EqualFold(string(cat), hint) {
			return cat
		}
	}
	return ""
}
