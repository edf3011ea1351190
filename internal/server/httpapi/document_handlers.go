package httpapi

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/avolkov/docvault/internal/common"
	"github.com/avolkov/docvault/internal/server/models"
)

type documentJSON struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	UploadDate string `json:"upload_date"`
	UserID     int64  `json:"user_id"`
}

type documentListResponse struct {
	Success   bool           `json:"success"`
	Documents []documentJSON `json:"documents"`
	Total     int64          `json:"total"`
}

func toDocumentJSON(docs []*models.Document) []documentJSON {
	out := make([]documentJSON, 0, len(docs))
	for _, d := range docs {
		out = append(out, documentJSON{
			ID:         d.ID,
			Name:       d.Name,
			UploadDate: d.UploadDate.Format(timestampLayout),
			UserID:     d.OwnerID,
		})
	}
	return out
}

func pageParams(r *http.Request) (page, limit int) {
	page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	return page, limit
}

func docIDParam(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 1 {
		return 0, common.ErrorInvalidInput
	}
	return id, nil
}

func (h *Handler) handleGetDocuments(w http.ResponseWriter, r *http.Request) {
	p := principalFrom(r.Context())
	page, limit := pageParams(r)

	docs, total, err := h.documents.List(r.Context(), p, page, limit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, documentListResponse{
		Success:   true,
		Documents: toDocumentJSON(docs),
		Total:     total,
	})
}

func (h *Handler) handleUploadDocument(w http.ResponseWriter, r *http.Request) {
	p := principalFrom(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Success: false, Message: "File too large"})
			return
		}
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Success: false, Message: "No file part"})
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Success: false, Message: "No file part"})
		return
	}
	defer file.Close()

	if header.Filename == "" {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Success: false, Message: "No selected file"})
		return
	}

	content, err := io.ReadAll(file)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if _, err := h.documents.Upload(r.Context(), p, header.Filename, content); err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, messageResponse{Message: "Document uploaded successfully!"})
}

func (h *Handler) handleDownloadDocument(w http.ResponseWriter, r *http.Request) {
	p := principalFrom(r.Context())

	id, err := docIDParam(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	name, content, err := h.documents.Download(r.Context(), p, id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("Content-Length", strconv.Itoa(len(content)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(content); err != nil {
		h.logger.Error(r.Context(), "writing download body", "error", err.Error())
	}
}

func (h *Handler) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	p := principalFrom(r.Context())

	id, err := docIDParam(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := h.documents.Delete(r.Context(), p, id); err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, successResponse{Success: true, Message: "Document deleted successfully"})
}
