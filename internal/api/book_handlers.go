package api

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/h2non/filetype"

	"github.com/pagemarkapp/pagemark-server/internal/domain"
	"github.com/pagemarkapp/pagemark-server/internal/http/response"
)

// uploadFilenamePattern restricts upload names to a safe character set.
var uploadFilenamePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._ -]*$`)

// sniffLen is how many leading bytes are needed for archive type detection.
const sniffLen = 262

// handleUploadBook accepts a multipart EPUB upload and ingests it.
// The uploaded archive is staged under a random name and removed once
// ingestion finishes, success or not.
func (s *Server) handleUploadBook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadSize)
	if err := r.ParseMultipartForm(s.maxUploadSize); err != nil {
		response.BadRequest(w, fmt.Sprintf("Upload malformed or larger than %d bytes", s.maxUploadSize), s.logger)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		response.BadRequest(w, "No file uploaded. Use 'file' field in multipart form", s.logger)
		return
	}
	defer file.Close()

	if header.Size > s.maxUploadSize {
		response.BadRequest(w, fmt.Sprintf("File too large. Maximum size is %d bytes", s.maxUploadSize), s.logger)
		return
	}
	if !uploadFilenamePattern.MatchString(header.Filename) {
		response.BadRequest(w, "File name contains unsupported characters", s.logger)
		return
	}
	if !strings.EqualFold(filepath.Ext(header.Filename), ".epub") {
		response.BadRequest(w, "Only .epub files are accepted", s.logger)
		return
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(file, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		s.logger.Error("Failed to read upload", "error", err)
		response.InternalError(w, "Failed to read uploaded file", s.logger)
		return
	}
	head = head[:n]
	if !filetype.Is(head, "epub") && !filetype.Is(head, "zip") {
		response.BadRequest(w, "File content is not an EPUB archive", s.logger)
		return
	}

	if err := os.MkdirAll(s.scratchDir, 0o755); err != nil {
		s.logger.Error("Failed to create upload scratch dir", "error", err, "dir", s.scratchDir)
		response.InternalError(w, "Failed to stage uploaded file", s.logger)
		return
	}
	staged := filepath.Join(s.scratchDir, uuid.NewString()+".epub")
	out, err := os.Create(staged)
	if err != nil {
		s.logger.Error("Failed to stage upload", "error", err, "path", staged)
		response.InternalError(w, "Failed to stage uploaded file", s.logger)
		return
	}
	defer os.Remove(staged)

	_, err = out.Write(head)
	if err == nil {
		_, err = io.Copy(out, file)
	}
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		s.logger.Error("Failed to write staged upload", "error", err, "path", staged)
		response.InternalError(w, "Failed to stage uploaded file", s.logger)
		return
	}

	book, err := s.library.Ingest(ctx, staged)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Created(w, book, s.logger)
}

// handleListBooks returns all ingested books.
func (s *Server) handleListBooks(w http.ResponseWriter, r *http.Request) {
	books, err := s.library.ListBooks(r.Context())
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.Success(w, books, s.logger)
}

// bookWithProgress pairs book metadata with its reading position.
type bookWithProgress struct {
	*domain.Book
	Progress *domain.ReadingProgress `json:"progress"`
}

// handleGetBook returns a single book together with its last reading position.
func (s *Server) handleGetBook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	book, err := s.library.GetBook(ctx, id)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	progress, err := s.reader.GetProgress(ctx, id)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, bookWithProgress{Book: book, Progress: progress}, s.logger)
}

// handleDeleteBook removes a book and everything stored for it.
func (s *Server) handleDeleteBook(w http.ResponseWriter, r *http.Request) {
	if err := s.library.DeleteBook(r.Context(), chi.URLParam(r, "id")); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.NoContent(w)
}

// handleGetTOC returns a book's table of contents.
func (s *Server) handleGetTOC(w http.ResponseWriter, r *http.Request) {
	toc, err := s.library.GetTOC(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.Success(w, toc, s.logger)
}

// chapterResponse is a chapter plus the page count its words paginate to.
type chapterResponse struct {
	*domain.Chapter
	TotalPages int `json:"total_pages"`
}

// handleGetChapter returns one chapter body with its pagination.
func (s *Server) handleGetChapter(w http.ResponseWriter, r *http.Request) {
	ordinal, err := strconv.Atoi(chi.URLParam(r, "ordinal"))
	if err != nil {
		response.BadRequest(w, "Chapter ordinal must be an integer", s.logger)
		return
	}

	ch, pages, err := s.library.GetChapter(r.Context(), chi.URLParam(r, "id"), ordinal)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.Success(w, chapterResponse{Chapter: ch, TotalPages: pages}, s.logger)
}

// handleResolveReference maps a source-document token to a chapter ordinal.
func (s *Server) handleResolveReference(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		response.BadRequest(w, "Query parameter 'token' is required", s.logger)
		return
	}

	ordinal, err := s.library.ResolveReference(r.Context(), chi.URLParam(r, "id"), token)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.Success(w, map[string]int{"ordinal": ordinal}, s.logger)
}

// handleServeResource streams a stored binary resource (chapter image).
func (s *Server) handleServeResource(w http.ResponseWriter, r *http.Request) {
	bookID := chi.URLParam(r, "bookID")
	alias := chi.URLParam(r, "alias")
	if unescaped, err := url.PathUnescape(alias); err == nil {
		alias = unescaped
	}

	resource, contentType, err := s.library.GetResource(r.Context(), bookID, alias)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(resource.Payload)))
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.Write(resource.Payload)
}
