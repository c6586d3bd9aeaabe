package sqlite

import (
	"context"
	"database/sql"

	"github.com/pagemarkapp/pagemark-server/internal/domain"
	domainerrors "github.com/pagemarkapp/pagemark-server/internal/errors"
)

// GetChapterReference resolves a source-document token to the chapter
// ordinal it was recorded against during ingestion.
func (s *Store) GetChapterReference(ctx context.Context, bookID, token string) (*domain.ChapterReference, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT book_id, source_token, ordinal
		FROM chapter_reference
		WHERE book_id = ? AND source_token = ?`,
		bookID, token,
	)

	var ref domain.ChapterReference
	err := row.Scan(&ref.BookID, &ref.SourceToken, &ref.Ordinal)
	if err == sql.ErrNoRows {
		return nil, domainerrors.NotFoundf("reference %q not found for book %s", token, bookID)
	}
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "get chapter reference")
	}
	return &ref, nil
}

// HasChapterReferences reports whether any reference mappings were recorded
// for a book. Used to distinguish books ingested before reference tracking
// existed from books whose archive simply had no resolvable token.
func (s *Store) HasChapterReferences(ctx context.Context, bookID string) (bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM chapter_reference WHERE book_id = ?`, bookID)

	var n int
	if err := row.Scan(&n); err != nil {
		return false, domainerrors.Wrap(err, domainerrors.CodeInternal, "count chapter references")
	}
	return n > 0, nil
}
