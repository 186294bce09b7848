package matching

import (
	"regexp"
	"sort"
	"strings"
)

// entitySet is the intermediate value used only by the matching engine:
// names, dates and events extracted from one question.
type entitySet struct {
	Names  []string
	Dates  []string
	Events []string
}

var namesPattern = regexp.MustCompile(`[A-Z][a-z]+(?:\s[A-Z][a-z]+)+`)

var monthNames = []string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

var yearPattern = regexp.MustCompile(`\b(?:19|20)\d{2}\b`)
var monthDayYearPattern = regexp.MustCompile(
	`(?:` + strings.Join(monthNames, "|") + `)\s+\d{1,2}(?:,)?\s+\d{4}`,
)
var monthYearPattern = regexp.MustCompile(
	`(?:` + strings.Join(monthNames, "|") + `)\s+\d{4}`,
)

// eventVocabulary is a fixed domain-keyword list of verbs/nouns that
// signal "the same kind of event" across venues' wording.
var eventVocabulary = []string{
	"election", "championship", "win", "wins", "resign", "resigns",
	"launch", "launches", "approve", "approves", "release", "releases",
	"announce", "announces", "merger", "acquire", "acquires", "impeach",
	"impeaches", "sign", "signs", "veto", "vetoes", "ban", "bans",
	"nominate", "nominates", "confirm", "confirms", "default", "defaults",
	"ceasefire", "invade", "invades", "strike", "strikes", "sanction",
	"sanctions",
}

// extractEntities pulls names, dates and events out of a question.
func extractEntities(q string) entitySet {
	names := dedupe(namesPattern.FindAllString(q, -1))

	dateSet := map[string]struct{}{}
	for _, m := range monthDayYearPattern.FindAllString(q, -1) {
		dateSet[strings.ToLower(m)] = struct{}{}
	}
	for _, m := range monthYearPattern.FindAllString(q, -1) {
		dateSet[strings.ToLower(m)] = struct{}{}
	}
	for _, m := range yearPattern.FindAllString(q, -1) {
		dateSet[m] = struct{}{}
	}
	dates := make([]string, 0, len(dateSet))
	for d := range dateSet {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	lower := strings.ToLower(q)
	var events []string
	for _, kw := range eventVocabulary {
		if strings.Contains(lower, kw) {
			events = append(events, kw)
		}
	}
	events = dedupe(events)

	return entitySet{Names: names, Dates: dates, Events: events}
}

func dedupe(items []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(items))
	for _, it := range items {
		if _, ok := seen[it]; ok {
			continue
		}
		seen[it] = struct{}{}
		out = append(out, it)
	}
	sort.Strings(out)
	return out
}

// itemsMatch is the per-item equality used to compare entity sets:
// exact equality after lowercasing, or substring containment in either
// direction.
func itemsMatch(a, b string) bool {
	la, lb := strings.ToLower(a), strings.ToLower(b)
	if la == lb {
		return true
	}
	return strings.Contains(la, lb) || strings.Contains(lb, la)
}

// maxBipartiteMatching counts the largest set of pairs (a in A, b in B)
// such that itemsMatch(a,b), each element used at most once. Computed
// via Kuhn's augmenting-path algorithm so the result is a genuine
// maximum matching, not an order-dependent greedy one — this is what
// keeps entity_score (and therefore match confidence) symmetric.
func maxBipartiteMatching(a, b []string) int {
	matchB := make([]int, len(b))
	for i := range matchB {
		matchB[i] = -1
	}

	var tryAugment func(u int, visited []bool) bool
	tryAugment = func(u int, visited []bool) bool {
		for v := range b {
			if !itemsMatch(a[u], b[v]) || visited[v] {
				continue
			}
			visited[v] = true
			if matchB[v] == -1 || tryAugment(matchB[v], visited) {
				matchB[v] = u
				return true
			}
		}
		return false
	}

	count := 0
	for u := range a {
		visited := make([]bool, len(b))
		if tryAugment(u, visited) {
			count++
		}
	}
	return count
}

// categoryScore returns (score, skip) for one entity category.
func categoryScore(a, b []string) (float64, bool) {
	if len(a) == 0 && len(b) == 0 {
		return 0, true
	}
	denom := len(a)
	if len(b) > denom {
		denom = len(b)
	}
	matches := maxBipartiteMatching(a, b)
	return float64(matches) / float64(denom), false
}

// entityScore computes the weighted mean of the three category scores
// (names 0.4, dates 0.4, events 0.2), renormalized over the categories
// that were not skipped. Zero when every category was skipped.
func entityScore(e1, e2 entitySet) float64 {
	type weighted struct {
		score  float64
		weight float64
		skip   bool
	}
	cats := []weighted{}

	if s, skip := categoryScore(e1.Names, e2.Names); true {
		cats = append(cats, weighted{s, 0.4, skip})
	}
	if s, skip := categoryScore(e1.Dates, e2.Dates); true {
		cats = append(cats, weighted{s, 0.4, skip})
	}
	if s, skip := categoryScore(e1.Events, e2.Events); true {
		cats = append(cats, weighted{s, 0.2, skip})
	}

	var totalWeight, weightedSum float64
	for _, c := range cats {
		if c.skip {
			continue
		}
		totalWeight += c.weight
		weightedSum += c.weight * c.score
	}
	if totalWeight == 0 {
		return 0
	}
	return weightedSum / totalWeight
}
