package ingest

import (
	"context"
	"log/slog"
	"time"

	"github.com/pagemarkapp/pagemark-server/internal/domain"
	"github.com/pagemarkapp/pagemark-server/internal/epub"
	domainerrors "github.com/pagemarkapp/pagemark-server/internal/errors"
	"github.com/pagemarkapp/pagemark-server/internal/id"
)

// Committer persists a fully normalized book as a single atomic unit.
// On any failure no partial book, chapter, resource, or mapping rows remain.
type Committer interface {
	IngestBook(ctx context.Context, book *domain.Book, chapters []domain.Chapter, refs []domain.ChapterReference, resources []domain.Resource) error
}

// Ingestor drives the full ingestion pipeline: archive parsing, resource
// extraction, chapter normalization, and the transactional commit.
type Ingestor struct {
	committer Committer
	logger    *slog.Logger
}

// NewIngestor creates an ingestor committing through the given store.
func NewIngestor(committer Committer, logger *slog.Logger) *Ingestor {
	return &Ingestor{
		committer: committer,
		logger:    logger,
	}
}

// Ingest parses the archive at archivePath, assigns a fresh book identity,
// and commits the normalized result. The caller owns the archive file; it is
// not removed here.
//
// A book with zero emittable chapters is valid; an unreadable archive is not.
func (ing *Ingestor) Ingest(ctx context.Context, archivePath string) (*domain.Book, error) {
	src, err := epub.Open(archivePath)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeIngestion, "could not read e-book archive")
	}
	defer src.Close()

	bookID, err := id.Generate("book")
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "generate book id")
	}

	resources := ExtractResources(bookID, src, ing.logger)

	chapters, refs, err := Normalize(bookID, src)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeIngestion, "could not normalize book content")
	}

	now := time.Now()
	book := &domain.Book{
		ID:           bookID,
		Title:        withDefault(src.Title),
		Author:       withDefault(src.Author),
		ChapterCount: len(chapters),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := ing.committer.IngestBook(ctx, book, chapters, refs, resources); err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "commit ingested book")
	}

	ing.logger.Info("Ingested book",
		"book_id", book.ID,
		"title", book.Title,
		"chapters", book.ChapterCount,
		"resources", len(resources),
	)

	return book, nil
}

// withDefault substitutes the placeholder label for missing metadata.
func withDefault(s string) string {
	if s == "" {
		return domain.UnknownLabel
	}
	return s
}
