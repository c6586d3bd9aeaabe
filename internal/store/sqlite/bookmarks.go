package sqlite

import (
	"context"
	"time"

	"github.com/pagemarkapp/pagemark-server/internal/domain"
	domainerrors "github.com/pagemarkapp/pagemark-server/internal/errors"
)

// AddBookmark persists a bookmark and fills in its generated id and
// creation time.
func (s *Store) AddBookmark(ctx context.Context, b *domain.Bookmark) error {
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO bookmarks (book_id, chapter, page, chapter_title, bookmark_title, description, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		b.BookID, b.Chapter, b.Page, b.ChapterTitle, b.Title, b.Description, formatTime(b.CreatedAt),
	)
	if err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeInternal, "add bookmark")
	}

	b.ID, err = res.LastInsertId()
	if err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeInternal, "add bookmark")
	}
	return nil
}

// ListBookmarks returns all bookmarks for one book, newest first.
func (s *Store) ListBookmarks(ctx context.Context, bookID string) ([]*domain.Bookmark, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, book_id, chapter, page, chapter_title, bookmark_title, description, created_at
		FROM bookmarks
		WHERE book_id = ?
		ORDER BY created_at DESC, id DESC`,
		bookID,
	)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "list bookmarks")
	}
	defer rows.Close()

	bookmarks := []*domain.Bookmark{}
	for rows.Next() {
		var b domain.Bookmark
		var createdAt string
		if err := rows.Scan(&b.ID, &b.BookID, &b.Chapter, &b.Page, &b.ChapterTitle, &b.Title, &b.Description, &createdAt); err != nil {
			return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "scan bookmark")
		}
		b.CreatedAt, err = parseTime(createdAt)
		if err != nil {
			return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "parse bookmark timestamp")
		}
		bookmarks = append(bookmarks, &b)
	}
	if err := rows.Err(); err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "iterate bookmarks")
	}
	return bookmarks, nil
}

// ListAllBookmarks returns bookmarks across every book, newest first, each
// joined with its book's title and author.
func (s *Store) ListAllBookmarks(ctx context.Context) ([]*domain.BookmarkWithBook, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT bm.id, bm.book_id, bm.chapter, bm.page, bm.chapter_title, bm.bookmark_title, bm.description, bm.created_at,
		       b.title, b.author
		FROM bookmarks bm
		JOIN books b ON b.id = bm.book_id
		ORDER BY bm.created_at DESC, bm.id DESC`)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "list all bookmarks")
	}
	defer rows.Close()

	bookmarks := []*domain.BookmarkWithBook{}
	for rows.Next() {
		var b domain.BookmarkWithBook
		var createdAt string
		err := rows.Scan(
			&b.ID, &b.BookID, &b.Chapter, &b.Page, &b.ChapterTitle, &b.Title, &b.Description, &createdAt,
			&b.BookTitle, &b.BookAuthor,
		)
		if err != nil {
			return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "scan bookmark")
		}
		b.CreatedAt, err = parseTime(createdAt)
		if err != nil {
			return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "parse bookmark timestamp")
		}
		bookmarks = append(bookmarks, &b)
	}
	if err := rows.Err(); err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "iterate bookmarks")
	}
	return bookmarks, nil
}

// DeleteBookmark removes a bookmark by id. Deleting an id that does not
// exist is not an error.
func (s *Store) DeleteBookmark(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM bookmarks WHERE id = ?`, id)
	if err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeInternal, "delete bookmark")
	}
	return nil
}
