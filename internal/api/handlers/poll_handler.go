package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hg9336099029/survey-be/internal/auth"
	"github.com/hg9336099029/survey-be/internal/services"
	"github.com/hg9336099029/survey-be/internal/upload"
	"github.com/rs/zerolog/log"
)

// maxCreatePollMemory bounds how much of a multipart create-poll request is
// held in memory before spilling to temp files.
const maxCreatePollMemory = 16 << 20

// PollHandler handles HTTP requests for polls, votes and bookmarks.
type PollHandler struct {
	service services.PollServiceProvider
	uploads *upload.Store
}

// NewPollHandler creates a new PollHandler.
func NewPollHandler(service services.PollServiceProvider, uploads *upload.Store) *PollHandler {
	return &PollHandler{service: service, uploads: uploads}
}

// publicBaseURL reconstructs the externally visible base URL of the request,
// used to build absolute /uploads links the way the dashboard expects them.
func publicBaseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}

// Create handles the multipart create-poll request: question and pollType
// fields, plus either an options JSON array or up to 4 image files.
func (h *PollHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusInternalServerError, "Could not retrieve user from token")
		return
	}

	if err := r.ParseMultipartForm(maxCreatePollMemory); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	question := r.FormValue("question")
	pollType := r.FormValue("pollType")
	if question == "" || pollType == "" {
		writeMessage(w, http.StatusBadRequest, "Question and Poll Type are required")
		return
	}

	var options []string
	if raw := r.FormValue("options"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &options); err != nil {
			writeMessage(w, http.StatusBadRequest, "Options must be a JSON array of strings")
			return
		}
	}

	var images []string
	if r.MultipartForm != nil {
		files := r.MultipartForm.File["images"]
		if err := upload.Validate(files); err != nil {
			writeMessage(w, http.StatusBadRequest, err.Error())
			return
		}
		for _, fh := range files {
			name, err := h.uploads.Save("images", fh)
			if err != nil {
				log.Error().Err(err).Str("filename", fh.Filename).Msg("Failed to store uploaded image")
				writeMessage(w, http.StatusBadRequest, err.Error())
				return
			}
			images = append(images, publicBaseURL(r)+"/uploads/"+name)
		}
	}

	poll, err := h.service.CreatePoll(claims.UserID, question, pollType, options, images)
	if err != nil {
		log.Warn().Err(err).Str("user_id", claims.UserID).Msg("Failed to create poll")
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Poll created successfully",
		"poll":    poll,
	})
}

// GetAll handles the request to list every poll, newest first.
func (h *PollHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	polls, err := h.service.GetAllPolls()
	if err != nil {
		log.Error().Err(err).Msg("Failed to retrieve polls")
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"polls": polls})
}

// GetMine handles the request to list the caller's own polls.
func (h *PollHandler) GetMine(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusInternalServerError, "Could not retrieve user from token")
		return
	}

	polls, err := h.service.GetPollsByCreator(claims.UserID)
	if err != nil {
		log.Error().Err(err).Str("user_id", claims.UserID).Msg("Failed to retrieve user polls")
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"polls": polls})
}

// GetVoted handles the request to list the polls the caller has voted on.
func (h *PollHandler) GetVoted(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusInternalServerError, "Could not retrieve user from token")
		return
	}

	polls, err := h.service.GetVotedPolls(claims.UserID)
	if err != nil {
		log.Error().Err(err).Str("user_id", claims.UserID).Msg("Failed to retrieve voted polls")
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"polls": polls})
}

// GetBookmarked handles the request to list the caller's bookmarked polls.
func (h *PollHandler) GetBookmarked(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusInternalServerError, "Could not retrieve user from token")
		return
	}

	polls, err := h.service.GetBookmarkedPolls(claims.UserID)
	if err != nil {
		log.Error().Err(err).Str("user_id", claims.UserID).Msg("Failed to retrieve bookmarked polls")
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"polls": polls})
}

// GetTrending handles the request for the top polls by total votes.
func (h *PollHandler) GetTrending(w http.ResponseWriter, r *http.Request) {
	polls, err := h.service.GetTrendingPolls()
	if err != nil {
		log.Error().Err(err).Msg("Failed to retrieve trending polls")
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"polls": polls})
}

// Delete handles removing a poll. The service rejects callers who are not
// the creator.
func (h *PollHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusInternalServerError, "Could not retrieve user from token")
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.service.DeletePoll(id, claims.UserID); err != nil {
		log.Warn().Err(err).Str("poll_id", id).Str("user_id", claims.UserID).Msg("Failed to delete poll")
		writeServiceError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "Poll deleted successfully")
}

// VotePayload defines the body of a vote request: an option index for most
// poll types, or a comment for open ended ones.
type VotePayload struct {
	OptionIndex *int   `json:"optionIndex"`
	Comment     string `json:"comment"`
}

// Vote handles recording a vote on a poll.
func (h *PollHandler) Vote(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusInternalServerError, "Could not retrieve user from token")
		return
	}

	pollID := chi.URLParam(r, "pollId")
	var payload VotePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.service.Vote(pollID, claims.UserID, payload.OptionIndex, payload.Comment)
	if err != nil {
		log.Warn().Err(err).Str("poll_id", pollID).Str("user_id", claims.UserID).Msg("Failed to record vote")
		writeServiceError(w, err)
		return
	}

	message := "Vote recorded successfully"
	if result.AlreadyVoted {
		message = "You have already voted on this poll"
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":      message,
		"alreadyVoted": result.AlreadyVoted,
		"poll":         result.Poll,
	})
}

// Bookmark handles adding a poll to the caller's bookmarks.
func (h *PollHandler) Bookmark(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusInternalServerError, "Could not retrieve user from token")
		return
	}

	pollID := chi.URLParam(r, "pollId")
	if err := h.service.Bookmark(claims.UserID, pollID); err != nil {
		log.Warn().Err(err).Str("poll_id", pollID).Str("user_id", claims.UserID).Msg("Failed to bookmark poll")
		writeServiceError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "Poll bookmarked successfully")
}
