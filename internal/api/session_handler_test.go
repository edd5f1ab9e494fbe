package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mnemolabs/mnemo-api/internal/domain"
	"github.com/mnemolabs/mnemo-api/internal/service/session"
)

// mockSessionService is a function-field mock of session.SessionService.
type mockSessionService struct {
	createFn   func(ctx context.Context, studentID, courseID uuid.UUID, opts session.CreateOptions) (*domain.PracticeSession, []*domain.Card, error)
	submitFn   func(ctx context.Context, studentID, sessionID, cardID uuid.UUID, rating domain.Rating, timeSpent int) (*session.SubmitResult, error)
	completeFn func(ctx context.Context, studentID, sessionID uuid.UUID) (*domain.SessionSummary, error)
	abandonFn  func(ctx context.Context, studentID, sessionID uuid.UUID) error
	getFn      func(ctx context.Context, studentID, sessionID uuid.UUID) (*domain.PracticeSession, error)
	recentFn   func(ctx context.Context, studentID, courseID uuid.UUID, limit int) ([]*domain.PracticeSession, error)
	statsFn    func(ctx context.Context, studentID, courseID uuid.UUID, days int) (*session.StudyStats, error)
}

func (m *mockSessionService) CreateSession(
	ctx context.Context,
	studentID, courseID uuid.UUID,
	opts session.CreateOptions,
) (*domain.PracticeSession, []*domain.Card, error) {
	return m.createFn(ctx, studentID, courseID, opts)
}

func (m *mockSessionService) SubmitResponse(
	ctx context.Context,
	studentID, sessionID, cardID uuid.UUID,
	rating domain.Rating,
	timeSpentSeconds int,
) (*session.SubmitResult, error) {
	return m.submitFn(ctx, studentID, sessionID, cardID, rating, timeSpentSeconds)
}

func (m *mockSessionService) CompleteSession(
	ctx context.Context,
	studentID, sessionID uuid.UUID,
) (*domain.SessionSummary, error) {
	return m.completeFn(ctx, studentID, sessionID)
}

func (m *mockSessionService) AbandonSession(
	ctx context.Context,
	studentID, sessionID uuid.UUID,
) error {
	return m.abandonFn(ctx, studentID, sessionID)
}

func (m *mockSessionService) GetSession(
	ctx context.Context,
	studentID, sessionID uuid.UUID,
) (*domain.PracticeSession, error) {
	return m.getFn(ctx, studentID, sessionID)
}

func (m *mockSessionService) RecentSessions(
	ctx context.Context,
	studentID, courseID uuid.UUID,
	limit int,
) ([]*domain.PracticeSession, error) {
	return m.recentFn(ctx, studentID, courseID, limit)
}

func (m *mockSessionService) StudyStats(
	ctx context.Context,
	studentID, courseID uuid.UUID,
	days int,
) (*session.StudyStats, error) {
	return m.statsFn(ctx, studentID, courseID, days)
}

func newSessionRouter(svc session.SessionService) http.Handler {
	h := NewSessionHandler(svc, nil)
	r := chi.NewRouter()
	r.Post("/sessions", h.CreateSession)
	r.Route("/sessions/{sessionID}", func(r chi.Router) {
		r.Get("/", h.GetSession)
		r.Post("/responses", h.SubmitResponse)
		r.Post("/complete", h.CompleteSession)
		r.Post("/abandon", h.AbandonSession)
	})
	r.Route("/students/{studentID}/courses/{courseID}", func(r chi.Router) {
		r.Get("/sessions", h.RecentSessions)
		r.Get("/stats", h.StudyStats)
	})
	return r
}

func TestCreateSessionReturnsQueue(t *testing.T) {
	t.Parallel()

	studentID := uuid.New()
	courseID := uuid.New()
	card := testCard(t, studentID)
	practice := domain.NewPracticeSession(
		studentID, courseID, []uuid.UUID{card.ID}, true, time.Now().UTC())

	svc := &mockSessionService{
		createFn: func(_ context.Context, sid, cid uuid.UUID, opts session.CreateOptions) (*domain.PracticeSession, []*domain.Card, error) {
			assert.Equal(t, studentID, sid)
			assert.Equal(t, courseID, cid)
			assert.Equal(t, 10, opts.TargetCount)
			assert.True(t, opts.Interleaved)
			return practice, []*domain.Card{card}, nil
		},
	}
	router := newSessionRouter(svc)

	body, _ := json.Marshal(CreateSessionRequest{
		StudentID:   studentID,
		CourseID:    courseID,
		TargetCount: 10,
	})
	req := httptest.NewRequest(http.MethodPost, "/sessions", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)

	var resp CreateSessionResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.NotNil(t, resp.Session)
	assert.Equal(t, practice.ID, resp.Session.ID)
	assert.Equal(t, "active", resp.Session.Status)
	require.Len(t, resp.Cards, 1)
	assert.Equal(t, card.ID, resp.Cards[0].ID)
}

func TestCreateSessionNothingDueIsNotAnError(t *testing.T) {
	t.Parallel()

	svc := &mockSessionService{
		createFn: func(context.Context, uuid.UUID, uuid.UUID, session.CreateOptions) (*domain.PracticeSession, []*domain.Card, error) {
			return nil, nil, session.ErrNoCardsDue
		},
	}
	router := newSessionRouter(svc)

	body, _ := json.Marshal(CreateSessionRequest{
		StudentID: uuid.New(),
		CourseID:  uuid.New(),
	})
	req := httptest.NewRequest(http.MethodPost, "/sessions", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp CreateSessionResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Nil(t, resp.Session)
	assert.Empty(t, resp.Cards)
}

func TestSubmitResponseReturnsProgress(t *testing.T) {
	t.Parallel()

	studentID := uuid.New()
	card := testCard(t, studentID)
	sessionID := uuid.New()

	svc := &mockSessionService{
		submitFn: func(_ context.Context, sid, sessID, cardID uuid.UUID, rating domain.Rating, timeSpent int) (*session.SubmitResult, error) {
			assert.Equal(t, studentID, sid)
			assert.Equal(t, sessionID, sessID)
			assert.Equal(t, card.ID, cardID)
			assert.Equal(t, domain.RatingGood, rating)
			return &session.SubmitResult{Card: card, Done: true, CardsRemaining: 0}, nil
		},
	}
	router := newSessionRouter(svc)

	body, _ := json.Marshal(SessionAnswerRequest{
		StudentID:        studentID,
		CardID:           card.ID,
		Rating:           3,
		TimeSpentSeconds: 12,
	})
	req := httptest.NewRequest(http.MethodPost,
		fmt.Sprintf("/sessions/%s/responses", sessionID), bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp SessionAnswerResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.True(t, resp.Done)
	assert.Zero(t, resp.CardsRemaining)
}

func TestCompleteSessionTwiceConflicts(t *testing.T) {
	t.Parallel()

	svc := &mockSessionService{
		completeFn: func(context.Context, uuid.UUID, uuid.UUID) (*domain.SessionSummary, error) {
			return nil, domain.ErrSessionAlreadyCompleted
		},
	}
	router := newSessionRouter(svc)

	body, _ := json.Marshal(StudentScopedRequest{StudentID: uuid.New()})
	req := httptest.NewRequest(http.MethodPost,
		fmt.Sprintf("/sessions/%s/complete", uuid.New()), bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestAbandonSessionNoContent(t *testing.T) {
	t.Parallel()

	svc := &mockSessionService{
		abandonFn: func(context.Context, uuid.UUID, uuid.UUID) error {
			return nil
		},
	}
	router := newSessionRouter(svc)

	body, _ := json.Marshal(StudentScopedRequest{StudentID: uuid.New()})
	req := httptest.NewRequest(http.MethodPost,
		fmt.Sprintf("/sessions/%s/abandon", uuid.New()), bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestGetSessionNotOwnedForbidden(t *testing.T) {
	t.Parallel()

	svc := &mockSessionService{
		getFn: func(context.Context, uuid.UUID, uuid.UUID) (*domain.PracticeSession, error) {
			return nil, session.ErrSessionNotOwned
		},
	}
	router := newSessionRouter(svc)

	req := httptest.NewRequest(http.MethodGet,
		fmt.Sprintf("/sessions/%s/?student_id=%s", uuid.New(), uuid.New()), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestStudyStatsDefaultsDays(t *testing.T) {
	t.Parallel()

	svc := &mockSessionService{
		statsFn: func(_ context.Context, _, _ uuid.UUID, days int) (*session.StudyStats, error) {
			assert.Equal(t, 7, days)
			return &session.StudyStats{CompletedSessions: 2}, nil
		},
	}
	router := newSessionRouter(svc)

	req := httptest.NewRequest(http.MethodGet,
		fmt.Sprintf("/students/%s/courses/%s/stats", uuid.New(), uuid.New()), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp session.StudyStats
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, 2, resp.CompletedSessions)
}
