package api

import (
	"net/http"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pagemarkapp/pagemark-server/internal/domain"
)

func TestSaveAndGetProgress(t *testing.T) {
	s := setupTestServer(t)

	id := uploadTestBook(t, s, "Tracked")

	w := doJSON(t, s, http.MethodPut, "/api/v1/books/"+id+"/progress",
		map[string]int{"chapter": 2, "page": 4})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doRequest(s, http.MethodGet, "/api/v1/books/"+id+"/progress", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	var progress domain.ReadingProgress
	decodeEnvelope(t, w, &progress)
	assert.Equal(t, 2, progress.Chapter)
	assert.Equal(t, 4, progress.Page)
}

func TestSaveProgressValidation(t *testing.T) {
	s := setupTestServer(t)

	id := uploadTestBook(t, s, "Strict")

	w := doJSON(t, s, http.MethodPut, "/api/v1/books/"+id+"/progress",
		map[string]int{"chapter": -1, "page": 1})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, s, http.MethodPut, "/api/v1/books/"+id+"/progress",
		map[string]int{"chapter": 0, "page": 0})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(s, http.MethodPut, "/api/v1/books/"+id+"/progress",
		strings.NewReader("{not json"), "application/json")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, s, http.MethodPut, "/api/v1/books/book-missing/progress",
		map[string]int{"chapter": 0, "page": 1})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCurrentBook(t *testing.T) {
	s := setupTestServer(t)

	w := doRequest(s, http.MethodGet, "/api/v1/reading/current", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	first := uploadTestBook(t, s, "First")
	second := uploadTestBook(t, s, "Second")

	doJSON(t, s, http.MethodPut, "/api/v1/books/"+first+"/progress", map[string]int{"chapter": 0, "page": 1})
	doJSON(t, s, http.MethodPut, "/api/v1/books/"+second+"/progress", map[string]int{"chapter": 1, "page": 2})

	w = doRequest(s, http.MethodGet, "/api/v1/reading/current", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	var data struct {
		Book     domain.Book            `json:"book"`
		Progress domain.ReadingProgress `json:"progress"`
	}
	decodeEnvelope(t, w, &data)
	assert.Equal(t, second, data.Book.ID)
	assert.Equal(t, 1, data.Progress.Chapter)
}

func TestAddAndListBookmarks(t *testing.T) {
	s := setupTestServer(t)

	id := uploadTestBook(t, s, "Marked")

	w := doJSON(t, s, http.MethodPost, "/api/v1/books/"+id+"/bookmarks", map[string]any{
		"chapter":       0,
		"page":          1,
		"chapter_title": "The Beginning",
		"title":         "great opening",
		"description":   "remember this",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var bookmark domain.Bookmark
	decodeEnvelope(t, w, &bookmark)
	assert.NotZero(t, bookmark.ID)
	assert.Equal(t, "great opening", bookmark.Title)

	w = doRequest(s, http.MethodGet, "/api/v1/books/"+id+"/bookmarks", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	var bookmarks []domain.Bookmark
	decodeEnvelope(t, w, &bookmarks)
	assert.Len(t, bookmarks, 1)
}

func TestAddBookmarkValidation(t *testing.T) {
	s := setupTestServer(t)

	id := uploadTestBook(t, s, "Strict")

	w := doJSON(t, s, http.MethodPost, "/api/v1/books/"+id+"/bookmarks", map[string]any{
		"chapter": 0,
		"page":    1,
		"title":   "no chapter title",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, s, http.MethodPost, "/api/v1/books/"+id+"/bookmarks", map[string]any{
		"chapter":       0,
		"page":          0,
		"chapter_title": "The Beginning",
		"title":         "bad page",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListAllBookmarks(t *testing.T) {
	s := setupTestServer(t)

	alpha := uploadTestBook(t, s, "Alpha")
	beta := uploadTestBook(t, s, "Beta")

	for _, id := range []string{alpha, beta} {
		w := doJSON(t, s, http.MethodPost, "/api/v1/books/"+id+"/bookmarks", map[string]any{
			"chapter":       0,
			"page":          1,
			"chapter_title": "The Beginning",
			"title":         "mark",
		})
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w := doRequest(s, http.MethodGet, "/api/v1/bookmarks", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	var all []domain.BookmarkWithBook
	decodeEnvelope(t, w, &all)
	require.Len(t, all, 2)
	for _, b := range all {
		assert.NotEmpty(t, b.BookTitle)
		assert.Equal(t, "An Author", b.BookAuthor)
	}
}

func TestDeleteBookmark(t *testing.T) {
	s := setupTestServer(t)

	id := uploadTestBook(t, s, "Marked")

	w := doJSON(t, s, http.MethodPost, "/api/v1/books/"+id+"/bookmarks", map[string]any{
		"chapter":       0,
		"page":          1,
		"chapter_title": "The Beginning",
		"title":         "mark",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var bookmark domain.Bookmark
	decodeEnvelope(t, w, &bookmark)

	path := "/api/v1/bookmarks/" + strconv.FormatInt(bookmark.ID, 10)
	w = doRequest(s, http.MethodDelete, path, nil, "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	// Idempotent: deleting again still succeeds.
	w = doRequest(s, http.MethodDelete, path, nil, "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doRequest(s, http.MethodDelete, "/api/v1/bookmarks/abc", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
