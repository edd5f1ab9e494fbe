package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mnemolabs/mnemo-api/internal/api/shared"
	"github.com/mnemolabs/mnemo-api/internal/domain"
	"github.com/mnemolabs/mnemo-api/internal/platform/logger"
	"github.com/mnemolabs/mnemo-api/internal/service/review"
)

// CardHandler handles card-related HTTP requests: enrollment, due
// queries, reviews, resets, and retrievability.
type CardHandler struct {
	reviewService review.ReviewService
	logger        *slog.Logger
}

// NewCardHandler creates a new CardHandler.
func NewCardHandler(reviewService review.ReviewService, log *slog.Logger) *CardHandler {
	if reviewService == nil {
		panic("reviewService cannot be nil for CardHandler")
	}
	if log == nil {
		log = slog.Default()
	}
	return &CardHandler{
		reviewService: reviewService,
		logger:        log.With(slog.String("component", "card_handler")),
	}
}

// EnrollCards handles POST /students/{studentID}/courses/{courseID}/cards.
func (h *CardHandler) EnrollCards(w http.ResponseWriter, r *http.Request) {
	studentID, courseID, ok := studentCourseParams(w, r)
	if !ok {
		return
	}

	var req EnrollCardsRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request data")
		return
	}

	items := make([]review.EnrollItem, len(req.Items))
	for i, item := range req.Items {
		items[i] = review.EnrollItem{ContentRef: item.ContentRef, Topic: item.Topic}
	}

	result, err := h.reviewService.EnrollCards(r.Context(), studentID, courseID, items)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	resp := EnrollCardsResponse{
		Created: NewCardResponses(result.Created),
		Skipped: result.Skipped,
	}
	if resp.Skipped == nil {
		resp.Skipped = []uuid.UUID{}
	}
	shared.RespondWithJSON(w, r, http.StatusCreated, resp)
}

// DueCards handles GET /students/{studentID}/courses/{courseID}/cards/due.
// Optional query parameters: topic (repeatable), limit.
func (h *CardHandler) DueCards(w http.ResponseWriter, r *http.Request) {
	studentID, courseID, ok := studentCourseParams(w, r)
	if !ok {
		return
	}

	topics := r.URL.Query()["topic"]
	limit := queryInt(r, "limit", 0)

	cards, err := h.reviewService.DueCards(r.Context(), studentID, courseID, topics, limit)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, NewCardResponses(cards))
}

// DueCount handles GET /students/{studentID}/courses/{courseID}/cards/due/count.
// Optional query parameter: days_ahead.
func (h *CardHandler) DueCount(w http.ResponseWriter, r *http.Request) {
	studentID, courseID, ok := studentCourseParams(w, r)
	if !ok {
		return
	}

	daysAhead := queryInt(r, "days_ahead", 0)

	count, err := h.reviewService.DueCount(r.Context(), studentID, courseID, daysAhead)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, DueCountResponse{
		Count:     count,
		DaysAhead: daysAhead,
	})
}

// CardStatistics handles GET /students/{studentID}/courses/{courseID}/cards/statistics
func (h *CardHandler) CardStatistics(w http.ResponseWriter, r *http.Request) {
	studentID, courseID, ok := studentCourseParams(w, r)
	if !ok {
		return
	}

	stats, err := h.reviewService.CardStatistics(r.Context(), studentID, courseID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, CardStatisticsResponse{
		TotalCards:      stats.TotalCards,
		TotalReviews:    stats.TotalReviews,
		AverageAccuracy: stats.AverageAccuracy,
		CardsDue:        stats.CardsDue,
		CardsMastered:   stats.CardsMastered,
	})
}

// SubmitReview handles POST /cards/{cardID}/review.
func (h *CardHandler) SubmitReview(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	cardID, ok := uuidParam(w, r, "cardID")
	if !ok {
		return
	}

	var req ReviewRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest,
			"Rating must be between 1 (again) and 4 (easy)")
		return
	}

	card, err := h.reviewService.SubmitReview(
		r.Context(), req.StudentID, cardID, domain.Rating(req.Rating), req.TimeSpentSeconds)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	log.Debug("review submitted",
		slog.String("card_id", cardID.String()),
		slog.Int("rating", req.Rating))
	shared.RespondWithJSON(w, r, http.StatusOK, NewCardResponse(card))
}

// ResetCard handles POST /cards/{cardID}/reset.
func (h *CardHandler) ResetCard(w http.ResponseWriter, r *http.Request) {
	cardID, ok := uuidParam(w, r, "cardID")
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

	card, err := h.reviewService.ResetCard(r.Context(), req.StudentID, cardID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, NewCardResponse(card))
}

// Retrievability handles GET /cards/{cardID}/retrievability.
// Query parameter: student_id.
func (h *CardHandler) Retrievability(w http.ResponseWriter, r *http.Request) {
	cardID, ok := uuidParam(w, r, "cardID")
	if !ok {
		return
	}

	studentID, err := uuid.Parse(r.URL.Query().Get("student_id"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid student_id")
		return
	}

	retrievability, err := h.reviewService.CardRetrievability(r.Context(), studentID, cardID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, RetrievabilityResponse{
		CardID:         cardID,
		Retrievability: retrievability,
	})
}

// uuidParam extracts and parses a UUID path parameter, responding 400
// on failure.
func uuidParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

func studentCourseParams(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	studentID, ok := uuidParam(w, r, "studentID")
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	courseID, ok := uuidParam(w, r, "courseID")
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	return studentID, courseID, true
}

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return fallback
	}
	return v
}
