package domain

import "time"

// ReadingProgress is the last-read position within a book. One row per book,
// replace-on-write; no history is retained.
type ReadingProgress struct {
	BookID    string    `json:"book_id"`
	Chapter   int       `json:"chapter"`
	Page      int       `json:"page"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DefaultProgress is the position reported for a book that has never been read.
func DefaultProgress(bookID string) *ReadingProgress {
	return &ReadingProgress{BookID: bookID, Chapter: 0, Page: 1}
}

// Bookmark is a user annotation at a (chapter, page) position. Bookmarks are
// append-only except explicit delete by id.
type Bookmark struct {
	ID           int64     `json:"id"`
	BookID       string    `json:"book_id"`
	Chapter      int       `json:"chapter"`
	Page         int       `json:"page"`
	ChapterTitle string    `json:"chapter_title"`
	Title        string    `json:"title"`
	Description  string    `json:"description,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// BookmarkWithBook is a bookmark joined with its book's metadata, used by the
// cross-book bookmark listing.
type BookmarkWithBook struct {
	Bookmark
	BookTitle  string `json:"book_title"`
	BookAuthor string `json:"book_author"`
}
