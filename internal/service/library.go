// Package service provides the business logic layer for book ingestion,
// reading, and annotation.
package service

import (
	"context"
	"log/slog"
	"path"
	"regexp"
	"strconv"
	"strings"

	"github.com/h2non/filetype"

	"github.com/pagemarkapp/pagemark-server/internal/domain"
	"github.com/pagemarkapp/pagemark-server/internal/errors"
	"github.com/pagemarkapp/pagemark-server/internal/ingest"
	"github.com/pagemarkapp/pagemark-server/internal/store/sqlite"
)

// LibraryService orchestrates book ingestion and chapter delivery.
type LibraryService struct {
	store    *sqlite.Store
	ingestor *ingest.Ingestor
	logger   *slog.Logger
}

// NewLibraryService creates a new library service.
func NewLibraryService(store *sqlite.Store, ingestor *ingest.Ingestor, logger *slog.Logger) *LibraryService {
	return &LibraryService{
		store:    store,
		ingestor: ingestor,
		logger:   logger,
	}
}

// Ingest runs the full ingestion pipeline on an uploaded archive and returns
// the stored book's metadata.
func (s *LibraryService) Ingest(ctx context.Context, archivePath string) (*domain.Book, error) {
	book, err := s.ingestor.Ingest(ctx, archivePath)
	if err != nil {
		return nil, err
	}

	s.logger.Info("book ingested",
		"book_id", book.ID,
		"title", book.Title,
		"chapters", book.ChapterCount,
	)
	return book, nil
}

// ListBooks returns all books, newest first.
func (s *LibraryService) ListBooks(ctx context.Context) ([]*domain.Book, error) {
	return s.store.ListBooks(ctx)
}

// GetBook retrieves a book's metadata.
func (s *LibraryService) GetBook(ctx context.Context, bookID string) (*domain.Book, error) {
	return s.store.GetBook(ctx, bookID)
}

// DeleteBook removes a book together with its chapters, resources, reference
// mappings, reading progress, and bookmarks.
func (s *LibraryService) DeleteBook(ctx context.Context, bookID string) error {
	if err := s.store.DeleteBook(ctx, bookID); err != nil {
		return err
	}
	s.logger.Info("book deleted", "book_id", bookID)
	return nil
}

// GetTOC returns the table of contents for a book.
func (s *LibraryService) GetTOC(ctx context.Context, bookID string) ([]domain.TOCEntry, error) {
	if _, err := s.store.GetBook(ctx, bookID); err != nil {
		return nil, err
	}
	return s.store.GetTOC(ctx, bookID)
}

// GetChapter retrieves one chapter and the number of pages its word count
// paginates to.
func (s *LibraryService) GetChapter(ctx context.Context, bookID string, ordinal int) (*domain.Chapter, int, error) {
	if ordinal < 0 {
		return nil, 0, errors.Validation("chapter ordinal must not be negative")
	}

	ch, err := s.store.GetChapter(ctx, bookID, ordinal)
	if err != nil {
		return nil, 0, err
	}
	return ch, domain.Pages(ch.WordCount, domain.WordsPerPage), nil
}

// GetResource retrieves a stored binary resource and sniffs its content
// type from the payload. Unrecognized payloads are served as image/jpeg.
func (s *LibraryService) GetResource(ctx context.Context, bookID, alias string) (*domain.Resource, string, error) {
	r, err := s.store.GetResource(ctx, bookID, alias)
	if err != nil {
		return nil, "", err
	}
	return r, resourceContentType(r.Payload), nil
}

// resourceContentType sniffs an image content type from payload magic bytes.
func resourceContentType(payload []byte) string {
	kind, err := filetype.Image(payload)
	if err == nil && kind != filetype.Unknown {
		return kind.MIME.Value
	}
	return "image/jpeg"
}

// legacyChapterToken matches the chapter file names older ingestions
// produced, e.g. ch01.xhtml, ch1, chapter3.html, chapter_12.
var legacyChapterToken = regexp.MustCompile(`^(?:ch|chapter_?)0*([0-9]+)(?:\.x?html?)?$`)

// ResolveReference maps a source-document token to a chapter ordinal. It
// tries the stored mappings first, with the token's basename as a second
// attempt. Books ingested before reference mappings were recorded have none
// stored at all; for those alone the ordinal is recovered from the chapter
// number embedded in the token.
func (s *LibraryService) ResolveReference(ctx context.Context, bookID, token string) (int, error) {
	book, err := s.store.GetBook(ctx, bookID)
	if err != nil {
		return 0, err
	}

	ref, err := s.store.GetChapterReference(ctx, bookID, token)
	if err == nil {
		return ref.Ordinal, nil
	}
	if !errors.Is(err, errors.ErrNotFound) {
		return 0, err
	}

	base := path.Base(strings.ReplaceAll(token, `\`, "/"))
	if base != token {
		ref, err = s.store.GetChapterReference(ctx, bookID, base)
		if err == nil {
			return ref.Ordinal, nil
		}
		if !errors.Is(err, errors.ErrNotFound) {
			return 0, err
		}
	}

	has, err := s.store.HasChapterReferences(ctx, bookID)
	if err != nil {
		return 0, err
	}
	if !has {
		if m := legacyChapterToken.FindStringSubmatch(base); m != nil {
			n, convErr := strconv.Atoi(m[1])
			if convErr == nil && n >= 1 && n <= book.ChapterCount {
				return n - 1, nil
			}
		}
	}

	return 0, errors.NotFoundf("reference %q not found for book %s", token, bookID)
}
