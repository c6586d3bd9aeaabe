package sqlite

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pagemarkapp/pagemark-server/internal/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	s, err := Open(dbPath, logger)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// makeTestBook builds a book with n chapters, matching reference tokens,
// and one image resource per chapter.
func makeTestBook(id, title string, n int) (*domain.Book, []domain.Chapter, []domain.ChapterReference, []domain.Resource) {
	now := time.Now().UTC()
	book := &domain.Book{
		ID:           id,
		Title:        title,
		Author:       "Test Author",
		ChapterCount: n,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	var chapters []domain.Chapter
	var refs []domain.ChapterReference
	var resources []domain.Resource
	cumulative := 0
	for i := 0; i < n; i++ {
		words := 100 * (i + 1)
		cumulative += words
		chapters = append(chapters, domain.Chapter{
			BookID:          id,
			Ordinal:         i,
			Title:           fmt.Sprintf("Chapter %d", i+1),
			Body:            fmt.Sprintf("<p>body of chapter %d</p>", i+1),
			WordCount:       words,
			CumulativeWords: cumulative,
		})
		refs = append(refs, domain.ChapterReference{
			BookID:      id,
			SourceToken: fmt.Sprintf("ch%02d.xhtml", i+1),
			Ordinal:     i,
		})
		resources = append(resources, domain.Resource{
			BookID:  id,
			Alias:   fmt.Sprintf("img%d.png", i),
			Payload: []byte{0x89, 0x50, 0x4E, 0x47, byte(i)},
		})
	}
	return book, chapters, refs, resources
}

// seedBook ingests a test book and returns its metadata.
func seedBook(t *testing.T, s *Store, id, title string, n int) *domain.Book {
	t.Helper()
	book, chapters, refs, resources := makeTestBook(id, title, n)
	if err := s.IngestBook(context.Background(), book, chapters, refs, resources); err != nil {
		t.Fatalf("IngestBook: %v", err)
	}
	return book
}

func TestOpen(t *testing.T) {
	s := newTestStore(t)

	// Verify WAL mode is set.
	var journalMode string
	err := s.db.QueryRow("PRAGMA journal_mode").Scan(&journalMode)
	if err != nil {
		t.Fatalf("query journal_mode: %v", err)
	}
	if journalMode != "wal" {
		t.Errorf("expected wal, got %s", journalMode)
	}

	// Verify tables exist.
	tables := []string{
		"books", "chapters", "chapter_reference", "resources",
		"reading_progress", "bookmarks",
	}
	for _, table := range tables {
		var name string
		err := s.db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("table %s not found: %v", table, err)
		}
	}
}

func TestOpenClose(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	s, err := Open(dbPath, logger)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close store: %v", err)
	}

	// Re-open should work (schema is idempotent).
	s2, err := Open(dbPath, logger)
	if err != nil {
		t.Fatalf("re-open store: %v", err)
	}
	s2.Close()
}
