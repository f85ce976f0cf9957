package cleaner

import (
	"strings"
	"testing"
	"unicode"
)

// hasSpaceRun reports two adjacent whitespace runes or any whitespace other
// than a plain space.
func hasSpaceRun(s string) bool {
	prev := false
	for _, r := range s {
		space := unicode.IsSpace(r)
		if space && (prev || r != ' ') {
			return true
		}
		prev = space
	}
	return false
}

func TestNormalizeStripsMarkup(t *testing.T) {
	t.Parallel()

	raw := `<html><head><script>var x = 1;</script><style>p{}</style></head>
	<body><h1>Berlin</h1><p>Der   Bundestag<br>tagt &amp; berät.</p><p>Ende</p></body></html>`

	got := Normalize(raw)
	want := "Berlin Der Bundestag tagt & berät. Ende"
	if got != want {
		t.Fatalf("unexpected text:\n got: %q\nwant: %q", got, want)
	}
}

func TestNormalizeRemovesBoilerplate(t *testing.T) {
	t.Parallel()

	raw := "Zum Inhalt springen Zur Hauptnavigation springen Die Regierung plant\n\n neue Gesetze. PLEASE ENABLE JAVASCRIPT"
	got := Normalize(raw)

	if got != "Die Regierung plant neue Gesetze." {
		t.Fatalf("unexpected text: %q", got)
	}
}

func TestNormalizeProperties(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"",
		"   ",
		"plain\ttext\n\nwith   gaps",
		"<div>view   this\nvideo</div><p>Inhalt</p>",
		"zum inhalt zum inhalt springen springen",
		"<p>unclosed <b>markup",
		"Zu weiteren Angeboten<p> Text </p>",
		"Berlin\u00a0\u00a0heute",
		"<p>Berlin&nbsp;&nbsp;heute</p>",
		"Zum\u00a0Inhalt springen Text",
		"Tokio\u3000\u3000Börse\u2009\u2009schließt",
		"zur\u00a0hauptnavigation\u3000springen",
	}

	for _, in := range inputs {
		out := Normalize(in)
		if hasSpaceRun(out) {
			t.Fatalf("whitespace run left in %q -> %q", in, out)
		}
		if out != strings.TrimSpace(out) {
			t.Fatalf("untrimmed output for %q: %q", in, out)
		}
		lowered := strings.ToLower(out)
		for _, phrase := range Phrases() {
			if strings.Contains(lowered, phrase) {
				t.Fatalf("phrase %q left in %q -> %q", phrase, in, out)
			}
		}
	}
}

func TestNormalizeKeepsPlainText(t *testing.T) {
	t.Parallel()

	if got := Normalize("Wahl in Hessen"); got != "Wahl in Hessen" {
		t.Fatalf("unexpected text: %q", got)
	}
}

func TestNormalizeUnicodeSpaces(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"Berlin\u00a0\u00a0heute":                  "Berlin heute",
		"<p>Berlin&nbsp;&nbsp;heute</p>":           "Berlin heute",
		"Zum\u00a0Inhalt springen Text":            "Text",
		"Tokio\u3000Börse\u202fschließt\u0085fest": "Tokio Börse schließt fest",
	}
	for in, want := range cases {
		if got := Normalize(in); got != want {
			t.Fatalf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}
