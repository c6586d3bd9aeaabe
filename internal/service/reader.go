package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/pagemarkapp/pagemark-server/internal/domain"
	"github.com/pagemarkapp/pagemark-server/internal/errors"
	"github.com/pagemarkapp/pagemark-server/internal/store/sqlite"
)

// ReaderService manages reading positions and bookmarks.
type ReaderService struct {
	store  *sqlite.Store
	logger *slog.Logger
}

// NewReaderService creates a new reader service.
func NewReaderService(store *sqlite.Store, logger *slog.Logger) *ReaderService {
	return &ReaderService{
		store:  store,
		logger: logger,
	}
}

// GetProgress returns the reading position for a book. A book that has
// never been read reports chapter 0, page 1.
func (s *ReaderService) GetProgress(ctx context.Context, bookID string) (*domain.ReadingProgress, error) {
	if _, err := s.store.GetBook(ctx, bookID); err != nil {
		return nil, err
	}

	p, err := s.store.GetProgress(ctx, bookID)
	if errors.Is(err, errors.ErrNotFound) {
		return domain.DefaultProgress(bookID), nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// SaveProgress records a new reading position, replacing the previous one.
func (s *ReaderService) SaveProgress(ctx context.Context, bookID string, chapter, page int) (*domain.ReadingProgress, error) {
	if chapter < 0 {
		return nil, errors.Validation("chapter must not be negative")
	}
	if page < 1 {
		return nil, errors.Validation("page must be at least 1")
	}
	if _, err := s.store.GetBook(ctx, bookID); err != nil {
		return nil, err
	}

	p := &domain.ReadingProgress{BookID: bookID, Chapter: chapter, Page: page}
	if err := s.store.SaveProgress(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// CurrentBook returns the book whose progress was written most recently,
// together with that position.
func (s *ReaderService) CurrentBook(ctx context.Context) (*domain.Book, *domain.ReadingProgress, error) {
	bookID, err := s.store.GetCurrentBookID(ctx)
	if err != nil {
		return nil, nil, err
	}

	book, err := s.store.GetBook(ctx, bookID)
	if err != nil {
		return nil, nil, err
	}
	progress, err := s.store.GetProgress(ctx, bookID)
	if err != nil {
		return nil, nil, err
	}
	return book, progress, nil
}

// AddBookmark validates and stores a bookmark at a (chapter, page) position.
func (s *ReaderService) AddBookmark(ctx context.Context, bookID string, chapter, page int, chapterTitle, title, description string) (*domain.Bookmark, error) {
	if chapter < 0 {
		return nil, errors.Validation("chapter must not be negative")
	}
	if page < 1 {
		return nil, errors.Validation("page must be at least 1")
	}
	chapterTitle = strings.TrimSpace(chapterTitle)
	title = strings.TrimSpace(title)
	if chapterTitle == "" {
		return nil, errors.Validation("chapter title must not be empty")
	}
	if title == "" {
		return nil, errors.Validation("bookmark title must not be empty")
	}
	if _, err := s.store.GetBook(ctx, bookID); err != nil {
		return nil, err
	}

	b := &domain.Bookmark{
		BookID:       bookID,
		Chapter:      chapter,
		Page:         page,
		ChapterTitle: chapterTitle,
		Title:        title,
		Description:  strings.TrimSpace(description),
	}
	if err := s.store.AddBookmark(ctx, b); err != nil {
		return nil, err
	}

	s.logger.Debug("bookmark added", "book_id", bookID, "bookmark_id", b.ID)
	return b, nil
}

// ListBookmarks returns the bookmarks of one book, newest first.
func (s *ReaderService) ListBookmarks(ctx context.Context, bookID string) ([]*domain.Bookmark, error) {
	if _, err := s.store.GetBook(ctx, bookID); err != nil {
		return nil, err
	}
	return s.store.ListBookmarks(ctx, bookID)
}

// ListAllBookmarks returns every bookmark across all books, newest first,
// joined with book titles and authors.
func (s *ReaderService) ListAllBookmarks(ctx context.Context) ([]*domain.BookmarkWithBook, error) {
	return s.store.ListAllBookmarks(ctx)
}

// DeleteBookmark removes a bookmark. Unknown ids are a no-op.
func (s *ReaderService) DeleteBookmark(ctx context.Context, id int64) error {
	return s.store.DeleteBookmark(ctx, id)
}
