package usecase

import (
	"fmt"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"NewsDigest/internal/domain"
)

// Messages returned instead of a digest.
const (
	NoDataMessage = "⚠️ No fresh news could be fetched right now. Please try again later."
	NoNewsMessage = "⚠️ No news available at the moment."
)

const entrySeparator = "\n\n"

var (
	strict = bluemonday.StrictPolicy()

	languageFlags = map[string]string{
		"de": "🇩🇪",
		"en": "🇬🇧",
		"ru": "🇷🇺",
	}
)

func escape(s string) string {
	return strict.Sanitize(s)
}

func formatShortEntry(summary, url string) string {
	return fmt.Sprintf("🗞️ %s\n🔗 %s", escape(summary), escape(url))
}

func formatDeepEntry(title, summary, url string) string {
	return fmt.Sprintf("📰 <b>%s</b>\n%s\n🔗 %s", escape(title), escape(summary), escape(url))
}

func formatSkippedEntry(title, url string) string {
	return fmt.Sprintf("⚠️ Skipped: text too short or unsuitable for summarization.\n<b>%s</b>\n🔗 %s", escape(title), escape(url))
}

func formatMultilangEntry(title, url string, ms domain.MultilangSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📰 <b>%s</b>\n\n", escape(title))
	fmt.Fprintf(&b, "%s <b>%s:</b> %s\n\n", flag(ms.BaseLang), strings.ToUpper(ms.BaseLang), escape(ms.Base))
	for _, tr := range ms.Translations {
		label := strings.ToUpper(tr.Lang)
		if tr.Err != nil {
			fmt.Fprintf(&b, "⚠️ <b>%s:</b> translation unavailable\n\n", label)
			continue
		}
		fmt.Fprintf(&b, "%s <b>%s:</b> %s\n\n", flag(tr.Lang), label, escape(tr.Text))
	}
	fmt.Fprintf(&b, "🔗 %s", escape(url))
	return b.String()
}

func flag(lang string) string {
	if f, ok := languageFlags[lang]; ok {
		return f
	}
	return "🌐"
}

// FormatLinks renders title/link pairs as a plain digest.
func FormatLinks(links []domain.ArticleLink) string {
	entries := make([]string, 0, len(links))
	for _, l := range links {
		entries = append(entries, fmt.Sprintf("🗞️ %s\n🔗 %s", escape(l.Title), escape(l.URL)))
	}
	return strings.Join(entries, entrySeparator)
}

// FormatCategoryCounts renders the per-category article totals.
func FormatCategoryCounts(counts []domain.CategoryCount) string {
	var b strings.Builder
	for _, c := range counts {
		fmt.Fprintf(&b, "• <b>%s</b>: %d\n", escape(c.Category), c.Count)
	}
	return strings.TrimSuffix(b.String(), "\n")
}
