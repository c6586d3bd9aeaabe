package service

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/pagemarkapp/pagemark-server/internal/epub/epubtest"
	"github.com/pagemarkapp/pagemark-server/internal/ingest"
	"github.com/pagemarkapp/pagemark-server/internal/store/sqlite"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

type testEnv struct {
	lib    *LibraryService
	reader *ReaderService
	dbPath string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := testLogger()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	store, err := sqlite.Open(dbPath, logger)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	ingestor := ingest.NewIngestor(store, logger)
	return &testEnv{
		lib:    NewLibraryService(store, ingestor, logger),
		reader: NewReaderService(store, logger),
		dbPath: dbPath,
	}
}

// clearChapterReferences wipes a book's stored reference mappings, simulating
// data ingested before mappings were recorded.
func clearChapterReferences(t *testing.T, env *testEnv, bookID string) {
	t.Helper()
	db, err := sql.Open("sqlite", env.dbPath)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()
	if _, err := db.Exec("DELETE FROM chapter_reference WHERE book_id = ?", bookID); err != nil {
		t.Fatalf("delete references: %v", err)
	}
}

// ingestTestBook ingests a small archive with three chapters and one image
// and returns the new book's id.
func ingestTestBook(t *testing.T, lib *LibraryService, title string) string {
	t.Helper()
	archive := epubtest.ArchiveFile(t, title, "An Author", []epubtest.ManifestEntry{
		{Path: "ch01.xhtml", MediaType: "application/xhtml+xml", Spine: true,
			Content: epubtest.Doc("The Beginning", `<p>It began on a cold morning with words enough to count.</p>`)},
		{Path: "ch02.xhtml", MediaType: "application/xhtml+xml", Spine: true,
			Content: epubtest.Doc("The Middle", `<p>Things happened. <img src="images/map.png"/> More things happened.</p>`)},
		{Path: "ch03.xhtml", MediaType: "application/xhtml+xml", Spine: true,
			Content: epubtest.Doc("The End", `<p>And then it was over.</p>`)},
		{Path: "images/map.png", MediaType: "image/png", Content: epubtest.PNG()},
	})

	book, err := lib.Ingest(context.Background(), archive)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	return book.ID
}
