package ingest

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pagemarkapp/pagemark-server/internal/domain"
	"github.com/pagemarkapp/pagemark-server/internal/epub"
)

// DefaultChapterTitle is used when a document unit carries no usable title.
const DefaultChapterTitle = "Chapter"

// wordToken matches a word-like token: a run of letters or digits. Counting
// these instead of whitespace-split fields keeps punctuation-only tokens from
// inflating word counts.
var wordToken = regexp.MustCompile(`[\p{L}\p{N}]+`)

// WordCount returns the number of word-like tokens in text.
func WordCount(text string) int {
	return len(wordToken.FindAllStringIndex(text, -1))
}

// Normalize walks the archive's reading order and produces ordered chapter
// records with ordinals 0..N-1 in emission order, plus the reference mappings
// from source tokens to ordinals.
//
// Units that cannot be read or parsed, and units whose extracted text is
// empty, are skipped entirely: they contribute no chapter, no ordinal, and no
// reference mapping, shifting later ordinals down. A book with zero emittable
// chapters is a valid degenerate result.
func Normalize(bookID string, book *epub.Book) ([]domain.Chapter, []domain.ChapterReference, error) {
	var chapters []domain.Chapter
	var refs []domain.ChapterReference
	seenTokens := make(map[string]bool)
	cumulative := 0

	for _, item := range book.ReadingOrder() {
		data, err := item.Content()
		if err != nil {
			continue
		}

		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
		if err != nil {
			continue
		}

		text := doc.Text()
		if strings.TrimSpace(text) == "" {
			continue
		}

		title := extractTitle(doc)
		words := WordCount(text)

		rewriteImages(bookID, doc.Selection)
		body, err := doc.Find("body").Html()
		if err != nil {
			return nil, nil, fmt.Errorf("serialize chapter %s: %w", item.Name, err)
		}

		ordinal := len(chapters)
		cumulative += words
		chapters = append(chapters, domain.Chapter{
			BookID:          bookID,
			Ordinal:         ordinal,
			Title:           title,
			Body:            body,
			WordCount:       words,
			CumulativeWords: cumulative,
		})

		// Record reference tokens for reverse lookup: the full internal
		// name and, when it differs, the basename a link might use.
		// First mapping for a token wins.
		tokens := []string{item.Name}
		if base, _ := Aliases(item.Name); base != item.Name {
			tokens = append(tokens, base)
		}
		for _, token := range tokens {
			if token == "" || seenTokens[token] {
				continue
			}
			seenTokens[token] = true
			refs = append(refs, domain.ChapterReference{
				BookID:      bookID,
				SourceToken: token,
				Ordinal:     ordinal,
			})
		}
	}

	return chapters, refs, nil
}

// extractTitle derives a chapter title: the first non-empty document title
// element, else the first h1/h2/h3 in that priority order, else a fixed label.
func extractTitle(doc *goquery.Document) string {
	if t := strings.TrimSpace(doc.Find("title").First().Text()); t != "" {
		return t
	}
	for _, tag := range []string{"h1", "h2", "h3"} {
		if t := strings.TrimSpace(doc.Find(tag).First().Text()); t != "" {
			return t
		}
	}
	return DefaultChapterTitle
}
