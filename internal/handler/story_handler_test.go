package handler_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"storyfairy-server/internal/auth"
	"storyfairy-server/internal/handler"
	"storyfairy-server/internal/mocks"
	"storyfairy-server/internal/model"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeAuth stands in for the JWT middleware and injects a fixed user.
func fakeAuth(userID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(auth.GinContextUserKey, userID)
		c.Next()
	}
}

func setupRouter(t *testing.T, svc *mocks.MockStoryService) *gin.Engine {
	t.Helper()
	router := gin.New()
	h := handler.NewStoryHandler(svc, zap.NewNop())
	h.RegisterRoutes(router, fakeAuth("user-1"))
	return router
}

func doJSON(router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestGenerateStory_Created(t *testing.T) {
	svc := mocks.NewMockStoryService(t)
	record := &model.StoryRecord{ID: uuid.New(), UserID: "user-1", Title: "A Story"}
	svc.On("GenerateStory", mock.Anything, "user-1", mock.Anything).Return(record, nil)

	w := doJSON(setupRouter(t, svc), http.MethodPost, "/api/stories/generate",
		map[string]string{"topic": "a brave turtle"})

	require.Equal(t, http.StatusCreated, w.Code)
	var got model.StoryRecord
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, record.ID, got.ID)
	assert.Equal(t, "A Story", got.Title)
}

func TestGenerateStory_ErrorStatuses(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"invalid model", model.ErrInvalidModel, http.StatusBadRequest},
		{"insufficient credits", model.ErrInsufficientCredits, http.StatusPaymentRequired},
		{"generation in progress", model.ErrGenerationInProgress, http.StatusConflict},
		{"unsafe content", &model.UnsafeContentError{Violations: []model.Category{model.CategoryViolence}}, http.StatusUnprocessableEntity},
		{"generation failed", model.ErrGenerationFailed, http.StatusInternalServerError},
		{"persistence failed", model.ErrPersistenceFailed, http.StatusInternalServerError},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := mocks.NewMockStoryService(t)
			svc.On("GenerateStory", mock.Anything, "user-1", mock.Anything).Return(nil, tc.err)

			w := doJSON(setupRouter(t, svc), http.MethodPost, "/api/stories/generate",
				map[string]string{"topic": "anything"})
			assert.Equal(t, tc.want, w.Code)
		})
	}
}

func TestGenerateStory_InternalErrorIsOpaque(t *testing.T) {
	svc := mocks.NewMockStoryService(t)
	svc.On("GenerateStory", mock.Anything, "user-1", mock.Anything).
		Return(nil, errors.New("pg: connection refused at 10.0.0.5"))

	w := doJSON(setupRouter(t, svc), http.MethodPost, "/api/stories/generate",
		map[string]string{"topic": "anything"})

	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "10.0.0.5")
}

func TestGetStory_NotFound(t *testing.T) {
	svc := mocks.NewMockStoryService(t)
	svc.On("GetStory", mock.Anything, "user-1", mock.Anything).Return(nil, model.ErrStoryNotFound)

	w := doJSON(setupRouter(t, svc), http.MethodGet, "/api/stories/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetStory_BadID(t *testing.T) {
	svc := mocks.NewMockStoryService(t)

	w := doJSON(setupRouter(t, svc), http.MethodGet, "/api/stories/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	svc.AssertNotCalled(t, "GetStory", mock.Anything, mock.Anything, mock.Anything)
}

func TestDeleteStory_NoContent(t *testing.T) {
	storyID := uuid.New()
	svc := mocks.NewMockStoryService(t)
	svc.On("DeleteStory", mock.Anything, "user-1", storyID).Return(nil)

	w := doJSON(setupRouter(t, svc), http.MethodDelete, "/api/stories/"+storyID.String(), nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	svc.AssertExpectations(t)
}

func TestListStories_PassesPaging(t *testing.T) {
	svc := mocks.NewMockStoryService(t)
	svc.On("ListStories", mock.Anything, "user-1", 5, "cursor-1").
		Return(&model.StoryPage{}, nil)

	w := doJSON(setupRouter(t, svc), http.MethodGet, "/api/stories?limit=5&cursor=cursor-1", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}

func TestGetCredits(t *testing.T) {
	svc := mocks.NewMockStoryService(t)
	svc.On("GetBalance", mock.Anything, "user-1").Return(17, nil)

	w := doJSON(setupRouter(t, svc), http.MethodGet, "/api/credits", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"balance": 17}`, w.Body.String())
}

func TestAddCredits_RejectsNonPositive(t *testing.T) {
	svc := mocks.NewMockStoryService(t)

	w := doJSON(setupRouter(t, svc), http.MethodPost, "/api/credits/add",
		map[string]int{"amount": 0})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	svc.AssertNotCalled(t, "AddCredits", mock.Anything, mock.Anything, mock.Anything)
}

func TestAddCredits_OK(t *testing.T) {
	svc := mocks.NewMockStoryService(t)
	svc.On("AddCredits", mock.Anything, "user-1", 10).Return(15, nil)

	w := doJSON(setupRouter(t, svc), http.MethodPost, "/api/credits/add",
		map[string]int{"amount": 10})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"balance": 15}`, w.Body.String())
}
