package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"hospital-api/internal/middleware"
	"hospital-api/internal/model"
	"hospital-api/pkg/apierror"
)

type MockDiseaseService struct {
	mock.Mock
}

func (m *MockDiseaseService) Get(ctx context.Context, id int64) (model.Disease, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.Disease), args.Error(1)
}

func (m *MockDiseaseService) List(ctx context.Context, page model.ListQuery) ([]model.Disease, model.Meta, error) {
	args := m.Called(ctx, page)
	items, _ := args.Get(0).([]model.Disease)
	return items, args.Get(1).(model.Meta), args.Error(2)
}

func (m *MockDiseaseService) Create(ctx context.Context, actor model.Actor, in model.DiseaseInput) (model.Disease, error) {
	args := m.Called(ctx, actor, in)
	return args.Get(0).(model.Disease), args.Error(1)
}

func (m *MockDiseaseService) Update(ctx context.Context, actor model.Actor, id int64, in model.DiseaseInput) (model.Disease, error) {
	args := m.Called(ctx, actor, id, in)
	return args.Get(0).(model.Disease), args.Error(1)
}

func (m *MockDiseaseService) Delete(ctx context.Context, actor model.Actor, id int64) error {
	return m.Called(ctx, actor, id).Error(0)
}

type MockLabTestService struct {
	mock.Mock
}

func (m *MockLabTestService) Get(ctx context.Context, id int64) (model.LabTest, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.LabTest), args.Error(1)
}

func (m *MockLabTestService) ListByVisit(ctx context.Context, visitID int64, page model.ListQuery) ([]model.LabTest, model.Meta, error) {
	args := m.Called(ctx, visitID, page)
	items, _ := args.Get(0).([]model.LabTest)
	return items, args.Get(1).(model.Meta), args.Error(2)
}

func (m *MockLabTestService) Create(ctx context.Context, actor model.Actor, in model.LabTestInput) (model.LabTest, error) {
	args := m.Called(ctx, actor, in)
	return args.Get(0).(model.LabTest), args.Error(1)
}

func (m *MockLabTestService) Update(ctx context.Context, actor model.Actor, id int64, in model.LabTestInput) (model.LabTest, error) {
	args := m.Called(ctx, actor, id, in)
	return args.Get(0).(model.LabTest), args.Error(1)
}

func (m *MockLabTestService) Delete(ctx context.Context, actor model.Actor, id int64) error {
	return m.Called(ctx, actor, id).Error(0)
}

func diseaseRouter(svc *MockDiseaseService) http.Handler {
	h := NewResourceHandler[model.Disease, model.DiseaseInput](svc, "Disease")
	r := chi.NewRouter()
	r.Get("/diseases", h.List)
	r.Post("/diseases", h.Create)
	r.Get("/diseases/{id}", h.Get)
	r.Put("/diseases/{id}", h.Update)
	r.Delete("/diseases/{id}", h.Delete)
	r.Get("/visits/{id}/diseases", h.ListByVisit)
	return r
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) model.APIResponse {
	t.Helper()
	var body model.APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func withClaims(req *http.Request, userID int64) *http.Request {
	return req.WithContext(middleware.WithClaims(req.Context(), model.AuthClaims{UserID: userID, SessionID: "s"}))
}

func TestResourceHandler_List(t *testing.T) {
	svc := new(MockDiseaseService)
	svc.On("List", mock.Anything, model.ListQuery{Page: 2, Limit: 10}).
		Return(nil, model.Meta{Page: 2, Limit: 10, Total: 11, TotalPages: 2}, nil)

	rec := httptest.NewRecorder()
	diseaseRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/diseases?page=2&limit=10", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"data":[],"meta":{"page":2,"limit":10,"total":11,"total_pages":2}}`, rec.Body.String())
}

func TestResourceHandler_ListByVisitUnsupported(t *testing.T) {
	rec := httptest.NewRecorder()
	diseaseRouter(new(MockDiseaseService)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/visits/3/diseases", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestResourceHandler_Create(t *testing.T) {
	name := "Influenza"
	svc := new(MockDiseaseService)
	svc.On("Create", mock.Anything, model.Actor{UserID: 4, IP: "192.0.2.50"}, model.DiseaseInput{Name: &name}).
		Return(model.Disease{ID: 8, Name: name}, nil)

	req := httptest.NewRequest(http.MethodPost, "/diseases", strings.NewReader(`{"name":"Influenza"}`))
	req.RemoteAddr = "192.0.2.50:41000"
	rec := httptest.NewRecorder()
	diseaseRouter(svc).ServeHTTP(rec, withClaims(req, 4))

	assert.Equal(t, http.StatusCreated, rec.Code)
	body := decodeBody(t, rec)
	assert.True(t, body.Success)
	assert.Equal(t, "Disease created successfully", body.Message)
	svc.AssertExpectations(t)
}

func TestResourceHandler_CreateRejectsBadBodies(t *testing.T) {
	cases := map[string]string{
		"empty":   "",
		"garbage": "{not json",
	}
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			svc := new(MockDiseaseService)
			rec := httptest.NewRecorder()
			diseaseRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/diseases", strings.NewReader(payload)))

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "VALIDATION_ERROR", decodeBody(t, rec).Error.Code)
			svc.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestResourceHandler_GetErrors(t *testing.T) {
	t.Run("non numeric id", func(t *testing.T) {
		rec := httptest.NewRecorder()
		diseaseRouter(new(MockDiseaseService)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/diseases/abc", nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "id", decodeBody(t, rec).Error.Details)
	})

	t.Run("not found", func(t *testing.T) {
		svc := new(MockDiseaseService)
		svc.On("Get", mock.Anything, int64(99)).Return(model.Disease{}, apierror.NotFound("disease not found", "99"))

		rec := httptest.NewRecorder()
		diseaseRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/diseases/99", nil))

		assert.Equal(t, http.StatusNotFound, rec.Code)
		body := decodeBody(t, rec)
		assert.False(t, body.Success)
		assert.Equal(t, "NOT_FOUND", body.Error.Code)
		assert.Equal(t, "disease not found", body.Error.Message)
	})

	t.Run("unexpected error hides detail", func(t *testing.T) {
		ExposeErrorDetail(false)
		svc := new(MockDiseaseService)
		svc.On("Get", mock.Anything, int64(5)).Return(model.Disease{}, errors.New("pq: connection refused"))

		rec := httptest.NewRecorder()
		diseaseRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/diseases/5", nil))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.NotContains(t, rec.Body.String(), "connection refused")
	})

	t.Run("development exposes detail", func(t *testing.T) {
		ExposeErrorDetail(true)
		defer ExposeErrorDetail(false)
		svc := new(MockDiseaseService)
		svc.On("Get", mock.Anything, int64(5)).Return(model.Disease{}, errors.New("pq: connection refused"))

		rec := httptest.NewRecorder()
		diseaseRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/diseases/5", nil))

		assert.Equal(t, "pq: connection refused", decodeBody(t, rec).Error.Details)
	})
}

func TestResourceHandler_UpdateAndDelete(t *testing.T) {
	desc := "seasonal"
	svc := new(MockDiseaseService)
	svc.On("Update", mock.Anything, mock.Anything, int64(8), model.DiseaseInput{Description: &desc}).
		Return(model.Disease{ID: 8, Name: "Influenza", Description: &desc}, nil)
	svc.On("Delete", mock.Anything, mock.Anything, int64(8)).Return(nil)

	router := diseaseRouter(svc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/diseases/8", strings.NewReader(`{"description":"seasonal"}`)))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Disease updated successfully", decodeBody(t, rec).Message)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/diseases/8", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Disease deleted successfully", decodeBody(t, rec).Message)

	svc.AssertExpectations(t)
}

func TestResourceHandler_ListByVisit(t *testing.T) {
	svc := new(MockLabTestService)
	svc.On("ListByVisit", mock.Anything, int64(12), model.ListQuery{Page: 1, Limit: 50}).
		Return([]model.LabTest{{ID: 1, VisitID: 12, TestName: "CBC"}}, model.Meta{Page: 1, Limit: 50, Total: 1, TotalPages: 1}, nil)

	h := NewResourceHandler[model.LabTest, model.LabTestInput](svc, "Lab test")
	r := chi.NewRouter()
	r.Get("/visits/{id}/lab-tests", h.ListByVisit)
	r.Get("/lab-tests", h.List)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/visits/12/lab-tests", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"CBC"`)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/lab-tests", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
