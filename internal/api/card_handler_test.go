package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mnemolabs/mnemo-api/internal/domain"
	"github.com/mnemolabs/mnemo-api/internal/service/review"
	"github.com/mnemolabs/mnemo-api/internal/store"
)

// mockReviewService is a function-field mock of review.ReviewService.
type mockReviewService struct {
	enrollFn         func(ctx context.Context, studentID, courseID uuid.UUID, items []review.EnrollItem) (*review.EnrollResult, error)
	submitReviewFn   func(ctx context.Context, studentID, cardID uuid.UUID, rating domain.Rating, timeSpent int) (*domain.Card, error)
	resetFn          func(ctx context.Context, studentID, cardID uuid.UUID) (*domain.Card, error)
	dueCardsFn       func(ctx context.Context, studentID, courseID uuid.UUID, topics []string, limit int) ([]*domain.Card, error)
	dueCountFn       func(ctx context.Context, studentID, courseID uuid.UUID, daysAhead int) (int, error)
	retrievabilityFn func(ctx context.Context, studentID, cardID uuid.UUID) (float64, error)
	statisticsFn     func(ctx context.Context, studentID, courseID uuid.UUID) (*store.CardStatistics, error)
}

func (m *mockReviewService) EnrollCards(
	ctx context.Context,
	studentID, courseID uuid.UUID,
	items []review.EnrollItem,
) (*review.EnrollResult, error) {
	return m.enrollFn(ctx, studentID, courseID, items)
}

func (m *mockReviewService) SubmitReview(
	ctx context.Context,
	studentID, cardID uuid.UUID,
	rating domain.Rating,
	timeSpentSeconds int,
) (*domain.Card, error) {
	return m.submitReviewFn(ctx, studentID, cardID, rating, timeSpentSeconds)
}

func (m *mockReviewService) ResetCard(
	ctx context.Context,
	studentID, cardID uuid.UUID,
) (*domain.Card, error) {
	return m.resetFn(ctx, studentID, cardID)
}

func (m *mockReviewService) DueCards(
	ctx context.Context,
	studentID, courseID uuid.UUID,
	topics []string,
	limit int,
) ([]*domain.Card, error) {
	return m.dueCardsFn(ctx, studentID, courseID, topics, limit)
}

func (m *mockReviewService) DueCount(
	ctx context.Context,
	studentID, courseID uuid.UUID,
	daysAhead int,
) (int, error) {
	return m.dueCountFn(ctx, studentID, courseID, daysAhead)
}

func (m *mockReviewService) CardRetrievability(
	ctx context.Context,
	studentID, cardID uuid.UUID,
) (float64, error) {
	return m.retrievabilityFn(ctx, studentID, cardID)
}

func (m *mockReviewService) CardStatistics(
	ctx context.Context,
	studentID, courseID uuid.UUID,
) (*store.CardStatistics, error) {
	return m.statisticsFn(ctx, studentID, courseID)
}

// newCardRouter mounts the card handler on the real route shapes.
func newCardRouter(svc review.ReviewService) http.Handler {
	h := NewCardHandler(svc, nil)
	r := chi.NewRouter()
	r.Route("/students/{studentID}/courses/{courseID}", func(r chi.Router) {
		r.Post("/cards", h.EnrollCards)
		r.Get("/cards/due", h.DueCards)
		r.Get("/cards/due/count", h.DueCount)
		r.Get("/cards/statistics", h.CardStatistics)
	})
	r.Route("/cards/{cardID}", func(r chi.Router) {
		r.Post("/review", h.SubmitReview)
		r.Post("/reset", h.ResetCard)
		r.Get("/retrievability", h.Retrievability)
	})
	return r
}

func testCard(t *testing.T, studentID uuid.UUID) *domain.Card {
	t.Helper()
	card, err := domain.NewCard(studentID, uuid.New(), uuid.New(), "algebra")
	require.NoError(t, err)
	return card
}

func TestEnrollCardsCreated(t *testing.T) {
	t.Parallel()

	studentID := uuid.New()
	courseID := uuid.New()
	card := testCard(t, studentID)

	svc := &mockReviewService{
		enrollFn: func(_ context.Context, sid, cid uuid.UUID, items []review.EnrollItem) (*review.EnrollResult, error) {
			assert.Equal(t, studentID, sid)
			assert.Equal(t, courseID, cid)
			require.Len(t, items, 1)
			return &review.EnrollResult{Created: []*domain.Card{card}}, nil
		},
	}
	router := newCardRouter(svc)

	body, _ := json.Marshal(EnrollCardsRequest{Items: []EnrollItemRequest{
		{ContentRef: uuid.New(), Topic: "algebra"},
	}})
	req := httptest.NewRequest(http.MethodPost,
		fmt.Sprintf("/students/%s/courses/%s/cards", studentID, courseID),
		bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)

	var resp EnrollCardsResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Created, 1)
	assert.Equal(t, card.ID, resp.Created[0].ID)
	assert.Equal(t, "new", resp.Created[0].State)
}

func TestEnrollCardsEmptyBodyRejected(t *testing.T) {
	t.Parallel()

	router := newCardRouter(&mockReviewService{})

	body, _ := json.Marshal(EnrollCardsRequest{})
	req := httptest.NewRequest(http.MethodPost,
		fmt.Sprintf("/students/%s/courses/%s/cards", uuid.New(), uuid.New()),
		bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmitReviewStatusMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		serviceErr error
		wantStatus int
	}{
		{"not found", review.ErrCardNotFound, http.StatusNotFound},
		{"not owned", review.ErrCardNotOwned, http.StatusForbidden},
		{"concurrent review", review.ErrReviewConflict, http.StatusConflict},
		{"unexpected", fmt.Errorf("connection refused"), http.StatusInternalServerError},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			svc := &mockReviewService{
				submitReviewFn: func(context.Context, uuid.UUID, uuid.UUID, domain.Rating, int) (*domain.Card, error) {
					return nil, tc.serviceErr
				},
			}
			router := newCardRouter(svc)

			body, _ := json.Marshal(ReviewRequest{
				StudentID:        uuid.New(),
				Rating:           3,
				TimeSpentSeconds: 10,
			})
			req := httptest.NewRequest(http.MethodPost,
				fmt.Sprintf("/cards/%s/review", uuid.New()), bytes.NewReader(body))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, tc.wantStatus, rec.Code)

			var resp map[string]interface{}
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
			// The raw error never reaches the client.
			assert.NotContains(t, resp["error"], "connection refused")
		})
	}
}

func TestSubmitReviewInvalidRating(t *testing.T) {
	t.Parallel()

	router := newCardRouter(&mockReviewService{})

	body, _ := json.Marshal(ReviewRequest{StudentID: uuid.New(), Rating: 9})
	req := httptest.NewRequest(http.MethodPost,
		fmt.Sprintf("/cards/%s/review", uuid.New()), bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmitReviewSuccess(t *testing.T) {
	t.Parallel()

	studentID := uuid.New()
	card := testCard(t, studentID)

	svc := &mockReviewService{
		submitReviewFn: func(_ context.Context, sid, cid uuid.UUID, rating domain.Rating, timeSpent int) (*domain.Card, error) {
			assert.Equal(t, studentID, sid)
			assert.Equal(t, card.ID, cid)
			assert.Equal(t, domain.RatingEasy, rating)
			assert.Equal(t, 42, timeSpent)
			return card, nil
		},
	}
	router := newCardRouter(svc)

	body, _ := json.Marshal(ReviewRequest{
		StudentID:        studentID,
		Rating:           4,
		TimeSpentSeconds: 42,
	})
	req := httptest.NewRequest(http.MethodPost,
		fmt.Sprintf("/cards/%s/review", card.ID), bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp CardResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, card.ID, resp.ID)
}

func TestDueCardsPassesTopicsAndLimit(t *testing.T) {
	t.Parallel()

	studentID := uuid.New()
	courseID := uuid.New()

	svc := &mockReviewService{
		dueCardsFn: func(_ context.Context, _, _ uuid.UUID, topics []string, limit int) ([]*domain.Card, error) {
			assert.Equal(t, []string{"algebra", "geometry"}, topics)
			assert.Equal(t, 5, limit)
			return nil, nil
		},
	}
	router := newCardRouter(svc)

	req := httptest.NewRequest(http.MethodGet,
		fmt.Sprintf("/students/%s/courses/%s/cards/due?topic=algebra&topic=geometry&limit=5",
			studentID, courseID), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestDueCountResponse(t *testing.T) {
	t.Parallel()

	svc := &mockReviewService{
		dueCountFn: func(_ context.Context, _, _ uuid.UUID, daysAhead int) (int, error) {
			assert.Equal(t, 3, daysAhead)
			return 17, nil
		},
	}
	router := newCardRouter(svc)

	req := httptest.NewRequest(http.MethodGet,
		fmt.Sprintf("/students/%s/courses/%s/cards/due/count?days_ahead=3",
			uuid.New(), uuid.New()), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp DueCountResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, 17, resp.Count)
	assert.Equal(t, 3, resp.DaysAhead)
}

func TestCardStatisticsResponse(t *testing.T) {
	t.Parallel()

	studentID := uuid.New()
	courseID := uuid.New()

	svc := &mockReviewService{
		statisticsFn: func(_ context.Context, sid, cid uuid.UUID) (*store.CardStatistics, error) {
			assert.Equal(t, studentID, sid)
			assert.Equal(t, courseID, cid)
			return &store.CardStatistics{
				TotalCards:      25,
				TotalReviews:    90,
				AverageAccuracy: 88.4,
				CardsDue:        6,
				CardsMastered:   9,
			}, nil
		},
	}
	router := newCardRouter(svc)

	req := httptest.NewRequest(http.MethodGet,
		fmt.Sprintf("/students/%s/courses/%s/cards/statistics", studentID, courseID), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp CardStatisticsResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, 25, resp.TotalCards)
	assert.Equal(t, 90, resp.TotalReviews)
	assert.InDelta(t, 88.4, resp.AverageAccuracy, 1e-9)
	assert.Equal(t, 6, resp.CardsDue)
	assert.Equal(t, 9, resp.CardsMastered)
}

func TestRetrievabilityRequiresStudentID(t *testing.T) {
	t.Parallel()

	router := newCardRouter(&mockReviewService{})

	req := httptest.NewRequest(http.MethodGet,
		fmt.Sprintf("/cards/%s/retrievability", uuid.New()), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestInvalidCardIDParam(t *testing.T) {
	t.Parallel()

	router := newCardRouter(&mockReviewService{})

	req := httptest.NewRequest(http.MethodPost, "/cards/not-a-uuid/review", bytes.NewReader([]byte("{}")))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
