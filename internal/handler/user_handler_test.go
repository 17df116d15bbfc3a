package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"hospital-api/internal/model"
	"hospital-api/pkg/apierror"
)

type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) List(ctx context.Context, page model.ListQuery) ([]model.UserAccount, model.Meta, error) {
	args := m.Called(ctx, page)
	items, _ := args.Get(0).([]model.UserAccount)
	return items, args.Get(1).(model.Meta), args.Error(2)
}

func (m *MockUserService) Get(ctx context.Context, id int64) (model.UserAccount, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.UserAccount), args.Error(1)
}

func (m *MockUserService) Update(ctx context.Context, actor model.Actor, id int64, req model.UpdateUserRequest) (model.UserAccount, error) {
	args := m.Called(ctx, actor, id, req)
	return args.Get(0).(model.UserAccount), args.Error(1)
}

func userRouter(svc *MockUserService) http.Handler {
	h := NewUserHandler(svc)
	r := chi.NewRouter()
	r.Get("/users", h.List)
	r.Get("/users/{id}", h.Get)
	r.Patch("/users/{id}", h.Update)
	return r
}

func TestUserHandler_List(t *testing.T) {
	svc := new(MockUserService)
	svc.On("List", mock.Anything, model.ListQuery{Page: 1, Limit: 50}).
		Return(nil, model.Meta{Page: 1, Limit: 50}, nil)

	rec := httptest.NewRecorder()
	userRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"data":[],"meta":{"page":1,"limit":50,"total":0,"total_pages":0}}`, rec.Body.String())
}

func TestUserHandler_Get(t *testing.T) {
	svc := new(MockUserService)
	svc.On("Get", mock.Anything, int64(3)).Return(model.UserAccount{UserID: 3, Username: "jwilson", Roles: []string{}}, nil)
	svc.On("Get", mock.Anything, int64(9)).Return(model.UserAccount{}, apierror.NotFound("user not found", "9"))

	rec := httptest.NewRecorder()
	userRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users/3", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"username":"jwilson"`)
	assert.NotContains(t, rec.Body.String(), "password")

	rec = httptest.NewRecorder()
	userRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users/9", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUserHandler_Update(t *testing.T) {
	inactive := false
	svc := new(MockUserService)
	svc.On("Update", mock.Anything, model.Actor{UserID: 1, IP: "192.0.2.9"}, int64(3),
		model.UpdateUserRequest{IsActive: &inactive, RoleIDs: []int64{2}}).
		Return(model.UserAccount{UserID: 3, IsActive: false, Roles: []string{"clinician"}}, nil)

	req := httptest.NewRequest(http.MethodPatch, "/users/3", strings.NewReader(`{"isActive":false,"roleIds":[2]}`))
	req.RemoteAddr = "192.0.2.9:5000"
	rec := httptest.NewRecorder()
	userRouter(svc).ServeHTTP(rec, withClaims(req, 1))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.True(t, body.Success)
	assert.Equal(t, "User updated successfully", body.Message)
	svc.AssertExpectations(t)

	t.Run("bad body never reaches the service", func(t *testing.T) {
		svc := new(MockUserService)
		rec := httptest.NewRecorder()
		userRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodPatch, "/users/3", strings.NewReader("{")))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		svc.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}
