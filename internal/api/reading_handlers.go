package api

import (
	"encoding/json/v2"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/pagemarkapp/pagemark-server/internal/domain"
	"github.com/pagemarkapp/pagemark-server/internal/http/response"
)

type saveProgressRequest struct {
	Chapter int `json:"chapter" validate:"gte=0"`
	Page    int `json:"page" validate:"gte=1"`
}

// handleGetProgress returns the reading position for a book.
func (s *Server) handleGetProgress(w http.ResponseWriter, r *http.Request) {
	progress, err := s.reader.GetProgress(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.Success(w, progress, s.logger)
}

// handleSaveProgress records a new reading position.
func (s *Server) handleSaveProgress(w http.ResponseWriter, r *http.Request) {
	var req saveProgressRequest
	if err := json.UnmarshalRead(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid JSON body", s.logger)
		return
	}
	if err := s.validator.Validate(req); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	progress, err := s.reader.SaveProgress(r.Context(), chi.URLParam(r, "id"), req.Chapter, req.Page)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.Success(w, progress, s.logger)
}

// currentBookResponse pairs the book being read with its position.
type currentBookResponse struct {
	Book     *domain.Book            `json:"book"`
	Progress *domain.ReadingProgress `json:"progress"`
}

// handleCurrentBook returns the book of the most recent progress write.
func (s *Server) handleCurrentBook(w http.ResponseWriter, r *http.Request) {
	book, progress, err := s.reader.CurrentBook(r.Context())
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.Success(w, currentBookResponse{Book: book, Progress: progress}, s.logger)
}

type addBookmarkRequest struct {
	Chapter      int    `json:"chapter" validate:"gte=0"`
	Page         int    `json:"page" validate:"gte=1"`
	ChapterTitle string `json:"chapter_title" validate:"required,max=500"`
	Title        string `json:"title" validate:"required,max=500"`
	Description  string `json:"description" validate:"max=2000"`
}

// handleAddBookmark stores a bookmark on a book.
func (s *Server) handleAddBookmark(w http.ResponseWriter, r *http.Request) {
	var req addBookmarkRequest
	if err := json.UnmarshalRead(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid JSON body", s.logger)
		return
	}
	if err := s.validator.Validate(req); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	bookmark, err := s.reader.AddBookmark(r.Context(), chi.URLParam(r, "id"),
		req.Chapter, req.Page, req.ChapterTitle, req.Title, req.Description)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.Created(w, bookmark, s.logger)
}

// handleListBookmarks returns the bookmarks of one book.
func (s *Server) handleListBookmarks(w http.ResponseWriter, r *http.Request) {
	bookmarks, err := s.reader.ListBookmarks(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.Success(w, bookmarks, s.logger)
}

// handleListAllBookmarks returns every bookmark with its book's metadata.
func (s *Server) handleListAllBookmarks(w http.ResponseWriter, r *http.Request) {
	bookmarks, err := s.reader.ListAllBookmarks(r.Context())
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.Success(w, bookmarks, s.logger)
}

// handleDeleteBookmark removes a bookmark by id. Unknown ids still return 204.
func (s *Server) handleDeleteBookmark(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Bookmark id must be an integer", s.logger)
		return
	}

	if err := s.reader.DeleteBookmark(r.Context(), id); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.NoContent(w)
}
