package sqlite

import (
	"context"
	"database/sql"

	"github.com/pagemarkapp/pagemark-server/internal/domain"
	domainerrors "github.com/pagemarkapp/pagemark-server/internal/errors"
)

// GetChapter retrieves a single chapter of a book by its zero-based ordinal.
func (s *Store) GetChapter(ctx context.Context, bookID string, ordinal int) (*domain.Chapter, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT book_id, ordinal, title, body, word_count, cumulative_word_count
		FROM chapters
		WHERE book_id = ? AND ordinal = ?`,
		bookID, ordinal,
	)

	var ch domain.Chapter
	err := row.Scan(&ch.BookID, &ch.Ordinal, &ch.Title, &ch.Body, &ch.WordCount, &ch.CumulativeWords)
	if err == sql.ErrNoRows {
		return nil, domainerrors.NotFoundf("chapter %d of book %s not found", ordinal, bookID)
	}
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "get chapter")
	}
	return &ch, nil
}

// GetTOC returns the table of contents for a book: chapter ordinals and
// titles in reading order, without chapter bodies.
func (s *Store) GetTOC(ctx context.Context, bookID string) ([]domain.TOCEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT ordinal, title
		FROM chapters
		WHERE book_id = ?
		ORDER BY ordinal`,
		bookID,
	)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "get toc")
	}
	defer rows.Close()

	entries := []domain.TOCEntry{}
	for rows.Next() {
		var e domain.TOCEntry
		if err := rows.Scan(&e.Ordinal, &e.Title); err != nil {
			return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "scan toc entry")
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "iterate toc")
	}
	return entries, nil
}
