package domain

import "time"

// RawArticle is a record handed over by an article source. Any field may be empty.
type RawArticle struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
}

// CleanedArticle is a normalized RawArticle living for a single pipeline run.
type CleanedArticle struct {
	Title   string
	URL     string
	Content string
}

// StoredArticle is the persisted article row; URL is unique.
type StoredArticle struct {
	ID        int64
	Title     string
	URL       string
	Content   string
	SummaryDE string
	SummaryEN string
	SummaryRU string
	Lang      string
	Category  string
	CreatedAt time.Time
}

// LegacyNewsRecord mirrors a stored article into the flat news log.
type LegacyNewsRecord struct {
	ID        int64
	Title     string
	URL       string
	Summary   string
	CreatedAt time.Time
}

// Legacy projects the article onto the news log row written next to it.
func (a StoredArticle) Legacy() LegacyNewsRecord {
	return LegacyNewsRecord{
		Title:   a.Title,
		URL:     a.URL,
		Summary: a.SummaryDE,
	}
}

// SetSummary assigns a summary to the column of the given language.
func (a *StoredArticle) SetSummary(lang, text string) {
	switch lang {
	case "de":
		a.SummaryDE = text
	case "en":
		a.SummaryEN = text
	case "ru":
		a.SummaryRU = text
	}
}

// Subscriber is a chat receiving the periodic digest.
type Subscriber struct {
	ChatID    int64
	CreatedAt time.Time
}

// ArticleLink is the title/link projection used by listings and fallbacks.
type ArticleLink struct {
	Title string
	URL   string
}

// CategoryCount is the number of stored articles per category in a window.
type CategoryCount struct {
	Category string
	Count    int
}

// Translation is one target language of a multilingual summary.
type Translation struct {
	Lang string
	Text string
	Err  error
}

// MultilangSummary holds a base summary plus its translations.
type MultilangSummary struct {
	Base         string
	BaseLang     string
	Translations []Translation
}

// Mode enumerates digest flavours.
type Mode string

const (
	ModeShort        Mode = "short"
	ModeDeep         Mode = "deep"
	ModeMultilingual Mode = "multilingual"
	ModePeriodic     Mode = "periodic"
)

// SummarizesOnPersist reports whether the base summary is computed before storing.
func (m Mode) SummarizesOnPersist() bool {
	return m == ModeDeep || m == ModeMultilingual
}
