package sqlite

import (
	"context"
	"database/sql"

	"github.com/pagemarkapp/pagemark-server/internal/domain"
	domainerrors "github.com/pagemarkapp/pagemark-server/internal/errors"
	"github.com/pagemarkapp/pagemark-server/internal/ingest"
)

// Store implements ingest.Committer.
var _ ingest.Committer = (*Store)(nil)

// bookColumns is the ordered list of columns selected in book queries.
// Must match the scan order in scanBook.
const bookColumns = `id, title, author, chapter_count, created_at, updated_at`

// scanBook scans a sql.Row (or sql.Rows via its Scan method) into a domain.Book.
func scanBook(scanner interface{ Scan(dest ...any) error }) (*domain.Book, error) {
	var b domain.Book
	var createdAt, updatedAt string

	err := scanner.Scan(
		&b.ID,
		&b.Title,
		&b.Author,
		&b.ChapterCount,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	b.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	b.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, err
	}

	return &b, nil
}

// IngestBook commits a normalized book - metadata, chapters, reference
// mappings, and resources - as a single transaction. Any failure rolls the
// whole ingestion back; no partial rows remain.
func (s *Store) IngestBook(ctx context.Context, book *domain.Book, chapters []domain.Chapter, refs []domain.ChapterReference, resources []domain.Resource) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeInternal, "begin ingest transaction")
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO books (id, title, author, chapter_count, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		book.ID, book.Title, book.Author, book.ChapterCount,
		formatTime(book.CreatedAt), formatTime(book.UpdatedAt),
	)
	if err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeInternal, "insert book")
	}

	for _, ch := range chapters {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO chapters (book_id, ordinal, title, body, word_count, cumulative_word_count)
			VALUES (?, ?, ?, ?, ?, ?)`,
			ch.BookID, ch.Ordinal, ch.Title, ch.Body, ch.WordCount, ch.CumulativeWords,
		)
		if err != nil {
			return domainerrors.Wrapf(err, domainerrors.CodeInternal, "insert chapter %d", ch.Ordinal)
		}
	}

	for _, ref := range refs {
		_, err = tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO chapter_reference (book_id, source_token, ordinal)
			VALUES (?, ?, ?)`,
			ref.BookID, ref.SourceToken, ref.Ordinal,
		)
		if err != nil {
			return domainerrors.Wrapf(err, domainerrors.CodeInternal, "insert chapter reference %q", ref.SourceToken)
		}
	}

	for _, r := range resources {
		_, err = tx.ExecContext(ctx, `
			INSERT OR REPLACE INTO resources (book_id, alias, payload)
			VALUES (?, ?, ?)`,
			r.BookID, r.Alias, r.Payload,
		)
		if err != nil {
			return domainerrors.Wrapf(err, domainerrors.CodeInternal, "insert resource %q", r.Alias)
		}
	}

	if err := tx.Commit(); err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeInternal, "commit ingest transaction")
	}
	return nil
}

// GetBook retrieves a book by id.
func (s *Store) GetBook(ctx context.Context, id string) (*domain.Book, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+bookColumns+` FROM books WHERE id = ?`, id)

	book, err := scanBook(row)
	if err == sql.ErrNoRows {
		return nil, domainerrors.NotFoundf("book %s not found", id)
	}
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "get book")
	}
	return book, nil
}

// ListBooks returns all books, newest first. Insertion order stands in for
// creation order: the timestamp string is not lexicographically reliable
// (a whole-second value sorts after a fractional one in the same second).
func (s *Store) ListBooks(ctx context.Context) ([]*domain.Book, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+bookColumns+` FROM books ORDER BY rowid DESC`)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "list books")
	}
	defer rows.Close()

	books := []*domain.Book{}
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "scan book")
		}
		books = append(books, b)
	}
	if err := rows.Err(); err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "iterate books")
	}
	return books, nil
}

// DeleteBook removes a book and everything it owns: chapters, reference
// mappings, resources, reading progress, and bookmarks. The cascade is
// enforced explicitly in one transaction. Deleting an unknown id returns
// a not found error.
func (s *Store) DeleteBook(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeInternal, "begin delete transaction")
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM books WHERE id = ?`, id)
	if err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeInternal, "delete book")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeInternal, "delete book")
	}
	if affected == 0 {
		return domainerrors.NotFoundf("book %s not found", id)
	}

	for _, stmt := range []string{
		`DELETE FROM chapters WHERE book_id = ?`,
		`DELETE FROM chapter_reference WHERE book_id = ?`,
		`DELETE FROM resources WHERE book_id = ?`,
		`DELETE FROM reading_progress WHERE book_id = ?`,
		`DELETE FROM bookmarks WHERE book_id = ?`,
	} {
		if _, err := tx.ExecContext(ctx, stmt, id); err != nil {
			return domainerrors.Wrap(err, domainerrors.CodeInternal, "cascade delete")
		}
	}

	if err := tx.Commit(); err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeInternal, "commit delete transaction")
	}
	return nil
}
