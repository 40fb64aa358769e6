package service

import (
	"strings"
	"unicode/utf8"

	"github.com/GTDGit/book_api/pkg/bookfeed"
)

// MatchStrategy names the rule that paired a catalog title with a feed item.
type MatchStrategy string

// Strategies in the order they are tried.
const (
	MatchExact    MatchStrategy = "exact"
	MatchShort    MatchStrategy = "short"
	MatchContains MatchStrategy = "contains"
	MatchWords    MatchStrategy = "words"
)

// minWordLen is the rune count a word must exceed to count in word overlap.
const minWordLen = 2

// Match is the outcome of pairing one catalog title.
type Match struct {
	Item     bookfeed.Item
	Index    int
	Strategy MatchStrategy
}

type titleKeys struct {
	full  string
	short string
	words []string
}

func newTitleKeys(title string) titleKeys {
	short := ShortTitle(title)
	return titleKeys{
		full:  NormalizeTitle(title),
		short: short,
		words: significantWords(short),
	}
}

// TitleMatcher pairs catalog titles with feed items. It is built once per
// reconciliation run; feed keys are computed up front and never change, so a
// TitleMatcher is safe for concurrent use.
type TitleMatcher struct {
	items []bookfeed.Item
	keys  []titleKeys
}

// NewTitleMatcher precomputes the keys of every feed item.
func NewTitleMatcher(items []bookfeed.Item) *TitleMatcher {
	keys := make([]titleKeys, len(items))
	for i, it := range items {
		keys[i] = newTitleKeys(it.Title)
	}
	return &TitleMatcher{items: items, keys: keys}
}

// Len returns the number of feed items the matcher searches.
func (m *TitleMatcher) Len() int {
	return len(m.items)
}

// Match finds the feed item for a catalog title. Strategies are tried from
// strictest to loosest; within a strategy the earliest feed item wins.
func (m *TitleMatcher) Match(title string) (Match, bool) {
	d := newTitleKeys(title)

	rules := []struct {
		name MatchStrategy
		hit  func(x titleKeys) bool
	}{
		{MatchExact, func(x titleKeys) bool { return d.full != "" && x.full == d.full }},
		{MatchShort, func(x titleKeys) bool { return d.short != "" && x.short == d.short }},
		{MatchContains, func(x titleKeys) bool { return containsEither(x, d) }},
		{MatchWords, func(x titleKeys) bool { return wordsOverlap(x.words, d.words) }},
	}

	for _, rule := range rules {
		for i, x := range m.keys {
			if rule.hit(x) {
				return Match{Item: m.items[i], Index: i, Strategy: rule.name}, true
			}
		}
	}
	return Match{}, false
}

// containsEither reports substring containment in either direction between
// feed keys x and catalog keys d. Empty keys never participate.
func containsEither(x, d titleKeys) bool {
	pairs := [][2]string{
		{x.full, d.short},
		{x.short, d.short},
		{x.full, d.full},
	}
	for _, p := range pairs {
		a, b := p[0], p[1]
		if a == "" || b == "" {
			continue
		}
		if strings.Contains(a, b) || strings.Contains(b, a) {
			return true
		}
	}
	return false
}

// wordsOverlap counts catalog words that contain, or are contained in, some
// feed word. It accepts at least two such words and at least half of the
// catalog's words.
func wordsOverlap(feedWords, catalogWords []string) bool {
	if len(catalogWords) == 0 || len(feedWords) == 0 {
		return false
	}

	matched := 0
	for _, w := range catalogWords {
		for _, fw := range feedWords {
			if strings.Contains(fw, w) || strings.Contains(w, fw) {
				matched++
				break
			}
		}
	}

	need := (len(catalogWords) + 1) / 2
	if need < 2 {
		need = 2
	}
	return matched >= need
}

func significantWords(key string) []string {
	var out []string
	for _, w := range strings.Split(key, " ") {
		if utf8.RuneCountInString(w) > minWordLen {
			out = append(out, w)
		}
	}
	return out
}
