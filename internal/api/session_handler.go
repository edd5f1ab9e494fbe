package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/mnemolabs/mnemo-api/internal/api/shared"
	"github.com/mnemolabs/mnemo-api/internal/domain"
	"github.com/mnemolabs/mnemo-api/internal/platform/logger"
	"github.com/mnemolabs/mnemo-api/internal/service/session"
)

// SessionHandler handles practice session HTTP requests.
type SessionHandler struct {
	sessionService session.SessionService
	logger         *slog.Logger
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(sessionService session.SessionService, log *slog.Logger) *SessionHandler {
	if sessionService == nil {
		panic("sessionService cannot be nil for SessionHandler")
	}
	if log == nil {
		log = slog.Default()
	}
	return &SessionHandler{
		sessionService: sessionService,
		logger:         log.With(slog.String("component", "session_handler")),
	}
}

// CreateSession handles POST /sessions. A student with nothing due
// gets an empty card list, not an error.
func (h *SessionHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var req CreateSessionRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request data")
		return
	}

	interleaved := true
	if req.Interleaved != nil {
		interleaved = *req.Interleaved
	}

	practice, cards, err := h.sessionService.CreateSession(
		r.Context(), req.StudentID, req.CourseID, session.CreateOptions{
			TargetCount: req.TargetCount,
			Topics:      req.Topics,
			Interleaved: interleaved,
			Seed:        req.Seed,
		})
	if errors.Is(err, session.ErrNoCardsDue) {
		log.Debug("no cards due for session",
			slog.String("student_id", req.StudentID.String()))
		shared.RespondWithJSON(w, r, http.StatusOK, CreateSessionResponse{
			Cards: []CardResponse{},
		})
		return
	}
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	resp := NewSessionResponse(practice)
	shared.RespondWithJSON(w, r, http.StatusCreated, CreateSessionResponse{
		Session: &resp,
		Cards:   NewCardResponses(cards),
	})
}

// SubmitResponse handles POST /sessions/{sessionID}/responses.
func (h *SessionHandler) SubmitResponse(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := uuidParam(w, r, "sessionID")
	if !ok {
		return
	}

	var req SessionAnswerRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request data")
		return
	}

	result, err := h.sessionService.SubmitResponse(
		r.Context(), req.StudentID, sessionID, req.CardID,
		domain.Rating(req.Rating), req.TimeSpentSeconds)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, SessionAnswerResponse{
		Card:           NewCardResponse(result.Card),
		Done:           result.Done,
		CardsRemaining: result.CardsRemaining,
	})
}

// CompleteSession handles POST /sessions/{sessionID}/complete.
func (h *SessionHandler) CompleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := uuidParam(w, r, "sessionID")
	if !ok {
		return
	}

	var req StudentScopedRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request data")
		return
	}

	summary, err := h.sessionService.CompleteSession(r.Context(), req.StudentID, sessionID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, summary)
}

// AbandonSession handles POST /sessions/{sessionID}/abandon.
func (h *SessionHandler) AbandonSession(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := uuidParam(w, r, "sessionID")
	if !ok {
		return
	}

	var req StudentScopedRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request data")
		return
	}

	if err := h.sessionService.AbandonSession(r.Context(), req.StudentID, sessionID); err != nil {
		respondServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetSession handles GET /sessions/{sessionID}?student_id=...
func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := uuidParam(w, r, "sessionID")
	if !ok {
		return
	}

	studentID, err := uuid.Parse(r.URL.Query().Get("student_id"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid student_id")
		return
	}

	practice, err := h.sessionService.GetSession(r.Context(), studentID, sessionID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, NewSessionResponse(practice))
}

// RecentSessions handles GET /students/{studentID}/courses/{courseID}/sessions.
// Optional query parameter: limit.
func (h *SessionHandler) RecentSessions(w http.ResponseWriter, r *http.Request) {
	studentID, courseID, ok := studentCourseParams(w, r)
	if !ok {
		return
	}

	limit := queryInt(r, "limit", 10)

	sessions, err := h.sessionService.RecentSessions(r.Context(), studentID, courseID, limit)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	out := make([]SessionResponse, len(sessions))
	for i, s := range sessions {
		out[i] = NewSessionResponse(s)
	}
	shared.RespondWithJSON(w, r, http.StatusOK, out)
}

// StudyStats handles GET /students/{studentID}/courses/{courseID}/stats.
// Optional query parameter: days (default 7).
func (h *SessionHandler) StudyStats(w http.ResponseWriter, r *http.Request) {
	studentID, courseID, ok := studentCourseParams(w, r)
	if !ok {
		return
	}

	days := queryInt(r, "days", 7)

	stats, err := h.sessionService.StudyStats(r.Context(), studentID, courseID, days)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, stats)
}
