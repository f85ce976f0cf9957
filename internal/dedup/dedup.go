package dedup

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"NewsDigest/internal/domain"
)

// DefaultThreshold is the title similarity at which a later article is dropped.
const DefaultThreshold = 0.75

// Filter drops articles whose title is a near-duplicate of an earlier title in
// the batch. Order is preserved and the earliest article always survives.
func Filter(articles []domain.CleanedArticle, threshold float64) []domain.CleanedArticle {
	seen := make([][]string, 0, len(articles))
	kept := make([]domain.CleanedArticle, 0, len(articles))

	for _, article := range articles {
		title := runes(article.Title)
		if duplicateOf(title, seen, threshold) {
			continue
		}
		seen = append(seen, title)
		kept = append(kept, article)
	}
	return kept
}

func duplicateOf(title []string, seen [][]string, threshold float64) bool {
	for _, prev := range seen {
		if ratio(title, prev) >= threshold {
			return true
		}
	}
	return false
}

// Ratio is the case-insensitive matching-blocks similarity of a and b in [0,1].
func Ratio(a, b string) float64 {
	return ratio(runes(a), runes(b))
}

func ratio(a, b []string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	forward := difflib.NewMatcher(a, b).Ratio()
	backward := difflib.NewMatcher(b, a).Ratio()
	if backward > forward {
		return backward
	}
	return forward
}

func runes(s string) []string {
	lowered := []rune(strings.ToLower(s))
	out := make([]string, len(lowered))
	for i, r := range lowered {
		out[i] = string(r)
	}
	return out
}
