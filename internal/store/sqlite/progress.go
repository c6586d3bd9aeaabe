package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/pagemarkapp/pagemark-server/internal/domain"
	domainerrors "github.com/pagemarkapp/pagemark-server/internal/errors"
)

// SaveProgress records the reading position for a book, replacing any
// previous position. The write timestamp also marks the book as the most
// recently read.
func (s *Store) SaveProgress(ctx context.Context, p *domain.ReadingProgress) error {
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO reading_progress (book_id, chapter, page, updated_at)
		VALUES (?, ?, ?, ?)`,
		p.BookID, p.Chapter, p.Page, formatTime(p.UpdatedAt),
	)
	if err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeInternal, "save progress")
	}
	return nil
}

// GetProgress retrieves the stored reading position for a book. A book with
// no recorded position returns a not found error; callers supply the default
// position themselves.
func (s *Store) GetProgress(ctx context.Context, bookID string) (*domain.ReadingProgress, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT book_id, chapter, page, updated_at
		FROM reading_progress
		WHERE book_id = ?`,
		bookID,
	)

	var p domain.ReadingProgress
	var updatedAt string
	err := row.Scan(&p.BookID, &p.Chapter, &p.Page, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, domainerrors.NotFoundf("no reading progress for book %s", bookID)
	}
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "get progress")
	}

	p.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "parse progress timestamp")
	}
	return &p, nil
}

// GetCurrentBookID returns the id of the book whose progress was written
// most recently. Replace-on-write assigns a fresh rowid, so rowid order is
// write order; the timestamp string is not lexicographically reliable.
func (s *Store) GetCurrentBookID(ctx context.Context) (string, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT rp.book_id
		FROM reading_progress rp
		JOIN books b ON b.id = rp.book_id
		ORDER BY rp.rowid DESC
		LIMIT 1`)

	var id string
	err := row.Scan(&id)
	if err == sql.ErrNoRows {
		return "", domainerrors.NotFound("no book is currently being read")
	}
	if err != nil {
		return "", domainerrors.Wrap(err, domainerrors.CodeInternal, "get current book")
	}
	return id, nil
}
