package sqlite

import (
	"context"
	"database/sql"

	"github.com/pagemarkapp/pagemark-server/internal/domain"
	domainerrors "github.com/pagemarkapp/pagemark-server/internal/errors"
)

// GetResource retrieves a stored binary resource by its per-book alias.
func (s *Store) GetResource(ctx context.Context, bookID, alias string) (*domain.Resource, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT book_id, alias, payload
		FROM resources
		WHERE book_id = ? AND alias = ?`,
		bookID, alias,
	)

	var r domain.Resource
	err := row.Scan(&r.BookID, &r.Alias, &r.Payload)
	if err == sql.ErrNoRows {
		return nil, domainerrors.NotFoundf("resource %q not found for book %s", alias, bookID)
	}
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "get resource")
	}
	return &r, nil
}
