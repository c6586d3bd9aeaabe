// Package domain contains the core business entities for the Pagemark reading service.
package domain

import "time"

// UnknownLabel is the placeholder used when source metadata lacks a title or author.
const UnknownLabel = "Unknown"

// Book represents an ingested e-book. Books are immutable after ingestion
// except for full replacement; deleting a book cascades to its chapters,
// resources, reference mappings, progress, and bookmarks.
type Book struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Author       string    `json:"author"`
	ChapterCount int       `json:"chapter_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Chapter is a normalized reading unit of a book.
//
// Ordinals for a book form a contiguous range starting at 0 in emission
// order, and CumulativeWords at ordinal k equals the sum of word counts of
// ordinals 0..k.
type Chapter struct {
	BookID          string `json:"book_id"`
	Ordinal         int    `json:"ordinal"`
	Title           string `json:"title"`
	Body            string `json:"body,omitempty"`
	WordCount       int    `json:"word_count"`
	CumulativeWords int    `json:"cumulative_word_count"`
}

// TOCEntry is a chapter listed without its body, for table-of-contents views.
type TOCEntry struct {
	Ordinal int    `json:"ordinal"`
	Title   string `json:"title"`
}

// Resource is a binary payload (an image) extracted from a book's archive,
// stored under a lookup alias. The same payload may be stored under multiple
// aliases; aliases are unique per book.
type Resource struct {
	BookID  string `json:"book_id"`
	Alias   string `json:"alias"`
	Payload []byte `json:"-"`
}

// ChapterReference maps a source-document reference token (an href or a
// derived basename) to a chapter ordinal.
type ChapterReference struct {
	BookID      string `json:"book_id"`
	SourceToken string `json:"source_token"`
	Ordinal     int    `json:"ordinal"`
}
