package ingest

import (
	"bytes"
	"strings"
	"testing"

	"github.com/pagemarkapp/pagemark-server/internal/epub"
	"github.com/pagemarkapp/pagemark-server/internal/epub/epubtest"
)

func openTestBook(t *testing.T, title, author string, entries []epubtest.ManifestEntry) *epub.Book {
	t.Helper()
	raw := epubtest.Archive(t, title, author, entries)
	b, err := epub.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		t.Fatalf("open test book: %v", err)
	}
	return b
}

func TestWordCount(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"", 0},
		{"   \n\t ", 0},
		{"hello world", 2},
		{"hello, world!", 2},
		{"--- ... !!!", 0},
		{"it's a test", 4}, // it, s, a, test
		{"chapter 1: the end", 4},
		{"état café 42", 3},
	}

	for _, tt := range tests {
		if got := WordCount(tt.text); got != tt.want {
			t.Errorf("WordCount(%q) = %d, want %d", tt.text, got, tt.want)
		}
	}
}

func TestNormalize_OrdinalsAndCumulativeCounts(t *testing.T) {
	b := openTestBook(t, "T", "A", []epubtest.ManifestEntry{
		{Path: "ch1.xhtml", MediaType: "application/xhtml+xml", Content: epubtest.Doc("One", "<p>one two three</p>"), Spine: true},
		{Path: "ch2.xhtml", MediaType: "application/xhtml+xml", Content: epubtest.Doc("Two", "<p>four five</p>"), Spine: true},
		{Path: "ch3.xhtml", MediaType: "application/xhtml+xml", Content: epubtest.Doc("Three", "<p>six</p>"), Spine: true},
	})
	defer b.Close()

	chapters, _, err := Normalize("book-1", b)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if len(chapters) != 3 {
		t.Fatalf("chapters: got %d, want 3", len(chapters))
	}

	cumulative := 0
	for i, ch := range chapters {
		if ch.Ordinal != i {
			t.Errorf("ordinal %d: got %d", i, ch.Ordinal)
		}
		cumulative += ch.WordCount
		if ch.CumulativeWords != cumulative {
			t.Errorf("cumulative at %d: got %d, want %d", i, ch.CumulativeWords, cumulative)
		}
	}

	// "One" comes from the <title> element, which also adds a counted word
	// to the extracted text, so word counts include it.
	if chapters[0].Title != "One" {
		t.Errorf("title: got %q", chapters[0].Title)
	}
}

func TestNormalize_SkipsEmptyUnits(t *testing.T) {
	b := openTestBook(t, "T", "A", []epubtest.ManifestEntry{
		{Path: "ch1.xhtml", MediaType: "application/xhtml+xml", Content: epubtest.Doc("", "<p>alpha beta</p>"), Spine: true},
		{Path: "empty.xhtml", MediaType: "application/xhtml+xml", Content: []byte(`<html><body>   </body></html>`), Spine: true},
		{Path: "ch3.xhtml", MediaType: "application/xhtml+xml", Content: epubtest.Doc("", "<p>gamma</p>"), Spine: true},
	})
	defer b.Close()

	chapters, refs, err := Normalize("book-1", b)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if len(chapters) != 2 {
		t.Fatalf("chapters: got %d, want 2", len(chapters))
	}
	// Skipped unit shifts later ordinals down.
	if chapters[0].Ordinal != 0 || chapters[1].Ordinal != 1 {
		t.Errorf("ordinals: got %d, %d", chapters[0].Ordinal, chapters[1].Ordinal)
	}

	// The empty unit contributes no reference mapping.
	for _, ref := range refs {
		if strings.Contains(ref.SourceToken, "empty") {
			t.Errorf("skipped unit must not be referenced: %q", ref.SourceToken)
		}
	}
}

func TestNormalize_TitleFallbacks(t *testing.T) {
	tests := []struct {
		name    string
		content []byte
		want    string
	}{
		{
			"document title",
			epubtest.Doc("From Head", "<h1>From Heading</h1><p>x</p>"),
			"From Head",
		},
		{
			"h1 fallback",
			[]byte(`<html><head><title>  </title></head><body><h1>Heading One</h1><p>x</p></body></html>`),
			"Heading One",
		},
		{
			"h2 fallback",
			[]byte(`<html><body><h2>Heading Two</h2><p>x</p></body></html>`),
			"Heading Two",
		},
		{
			"h3 fallback",
			[]byte(`<html><body><h3>Heading Three</h3><p>x</p></body></html>`),
			"Heading Three",
		},
		{
			"default label",
			[]byte(`<html><body><p>just text</p></body></html>`),
			DefaultChapterTitle,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := openTestBook(t, "T", "A", []epubtest.ManifestEntry{
				{Path: "ch.xhtml", MediaType: "application/xhtml+xml", Content: tt.content, Spine: true},
			})
			defer b.Close()

			chapters, _, err := Normalize("book-1", b)
			if err != nil {
				t.Fatalf("Normalize: %v", err)
			}
			if len(chapters) != 1 {
				t.Fatalf("chapters: got %d, want 1", len(chapters))
			}
			if chapters[0].Title != tt.want {
				t.Errorf("title: got %q, want %q", chapters[0].Title, tt.want)
			}
		})
	}
}

func TestNormalize_RewritesBodyReferences(t *testing.T) {
	b := openTestBook(t, "T", "A", []epubtest.ManifestEntry{
		{Path: "ch.xhtml", MediaType: "application/xhtml+xml",
			Content: epubtest.Doc("C", `<p>pic:</p><img src="images/pic.png"/>`), Spine: true},
		{Path: "images/pic.png", MediaType: "image/png", Content: epubtest.PNG()},
	})
	defer b.Close()

	chapters, _, err := Normalize("book-7", b)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if len(chapters) != 1 {
		t.Fatalf("chapters: got %d, want 1", len(chapters))
	}
	if !strings.Contains(chapters[0].Body, "/resources/book-7/pic.png") {
		t.Errorf("body references not rewritten: %s", chapters[0].Body)
	}
}

func TestNormalize_ReferenceTokens(t *testing.T) {
	b := openTestBook(t, "T", "A", []epubtest.ManifestEntry{
		{Path: "text/ch01.xhtml", MediaType: "application/xhtml+xml", Content: epubtest.Doc("1", "<p>x</p>"), Spine: true},
		{Path: "text/ch02.xhtml", MediaType: "application/xhtml+xml", Content: epubtest.Doc("2", "<p>y</p>"), Spine: true},
	})
	defer b.Close()

	_, refs, err := Normalize("book-1", b)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}

	byToken := make(map[string]int)
	for _, r := range refs {
		byToken[r.SourceToken] = r.Ordinal
	}

	// Both the full internal name and the basename map to the ordinal.
	if got := byToken["OEBPS/text/ch01.xhtml"]; got != 0 {
		t.Errorf("full token: got ordinal %d, want 0", got)
	}
	if got := byToken["ch01.xhtml"]; got != 0 {
		t.Errorf("basename token: got ordinal %d, want 0", got)
	}
	if got := byToken["ch02.xhtml"]; got != 1 {
		t.Errorf("basename token 2: got ordinal %d, want 1", got)
	}
}

func TestNormalize_ZeroChaptersIsValid(t *testing.T) {
	b := openTestBook(t, "T", "A", []epubtest.ManifestEntry{
		{Path: "empty.xhtml", MediaType: "application/xhtml+xml", Content: []byte(`<html><body> </body></html>`), Spine: true},
	})
	defer b.Close()

	chapters, refs, err := Normalize("book-1", b)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if len(chapters) != 0 || len(refs) != 0 {
		t.Errorf("expected degenerate empty result, got %d chapters, %d refs", len(chapters), len(refs))
	}
}

func TestNormalize_IgnoresImageSpineEntries(t *testing.T) {
	// Some archives put a cover image in the spine; it must not be parsed
	// as markup and emitted as a chapter.
	b := openTestBook(t, "T", "A", []epubtest.ManifestEntry{
		{Path: "cover.png", MediaType: "image/png", Content: epubtest.PNG(), Spine: true},
		{Path: "ch1.xhtml", MediaType: "application/xhtml+xml", Content: epubtest.Doc("One", "<p>one two</p>"), Spine: true},
	})
	defer b.Close()

	chapters, _, err := Normalize("book-1", b)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if len(chapters) != 1 {
		t.Fatalf("chapters: got %d, want 1", len(chapters))
	}
	if chapters[0].Title != "One" {
		t.Errorf("title: got %q, want %q", chapters[0].Title, "One")
	}
	if chapters[0].Ordinal != 0 {
		t.Errorf("ordinal: got %d, want 0", chapters[0].Ordinal)
	}
}
