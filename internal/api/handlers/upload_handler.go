package handlers

import (
	"net/http"

	"github.com/hg9336099029/survey-be/internal/upload"
	"github.com/rs/zerolog/log"
)

// UploadHandler handles standalone image uploads (profile pictures).
type UploadHandler struct {
	uploads *upload.Store
}

// NewUploadHandler creates a new UploadHandler.
func NewUploadHandler(uploads *upload.Store) *UploadHandler {
	return &UploadHandler{uploads: uploads}
}

// UploadImage accepts a single multipart image under the "image" field and
// returns its public URL.
func (h *UploadHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(upload.MaxFileSize * 2); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	_, fh, err := r.FormFile("image")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "An image file is required")
		return
	}

	name, err := h.uploads.Save("image", fh)
	if err != nil {
		log.Warn().Err(err).Str("filename", fh.Filename).Msg("Failed to store uploaded image")
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"imageUrl": publicBaseURL(r) + "/uploads/" + name,
	})
}
