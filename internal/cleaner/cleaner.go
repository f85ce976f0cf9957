package cleaner

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// navigationPhrases are page chrome fragments scraped along with article text.
var navigationPhrases = []string{
	"zum inhalt springen",
	"zur hauptnavigation springen",
	"zu weiteren angeboten",
	"please enable javascript",
	"view this video",
}

// spaceRun matches any Unicode whitespace, including no-break and
// ideographic spaces.
const spaceRun = `[\s\p{Z}\x{85}]+`

var phraseExprs = compilePhrases(navigationPhrases)

// Phrases returns the boilerplate phrases removed by Normalize.
func Phrases() []string {
	out := make([]string, len(navigationPhrases))
	copy(out, navigationPhrases)
	return out
}

// Normalize turns raw article markup into a single line of plain text.
func Normalize(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	return collapse(removePhrases(stripMarkup(raw)))
}

// removePhrases repeats until stable since a removal can join the halves of
// another occurrence.
func removePhrases(text string) string {
	for {
		before := text
		for _, expr := range phraseExprs {
			text = expr.ReplaceAllString(text, " ")
		}
		if text == before {
			return text
		}
	}
}

func stripMarkup(raw string) string {
	if !strings.ContainsAny(raw, "<&") {
		return raw
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return raw
	}
	doc.Find("script, style, noscript, template").Remove()

	var sb strings.Builder
	for _, node := range doc.Nodes {
		writeText(&sb, node)
	}
	return sb.String()
}

func writeText(sb *strings.Builder, n *html.Node) {
	if n.Type == html.TextNode {
		sb.WriteString(n.Data)
		sb.WriteByte(' ')
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeText(sb, c)
	}
}

// collapse joins the fields split on unicode.IsSpace with single spaces.
func collapse(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// compilePhrases builds case-insensitive matchers that tolerate any whitespace
// run between the words of a phrase.
func compilePhrases(phrases []string) []*regexp.Regexp {
	exprs := make([]*regexp.Regexp, 0, len(phrases))
	for _, phrase := range phrases {
		words := strings.Fields(phrase)
		for i, w := range words {
			words[i] = regexp.QuoteMeta(w)
		}
		exprs = append(exprs, regexp.MustCompile(`(?i)`+strings.Join(words, spaceRun)))
	}
	return exprs
}
