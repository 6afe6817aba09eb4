package availability

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/eservice-api/internal/handler"
	"github.com/jwalitptl/eservice-api/internal/model"
	availabilityService "github.com/jwalitptl/eservice-api/internal/service/availability"
	apperrors "github.com/jwalitptl/eservice-api/pkg/errors"
)

type mockService struct {
	mock.Mock
}

func (m *mockService) GetConfig(ctx context.Context, officeID uuid.UUID) (*model.OfficeAvailability, error) {
	args := m.Called(ctx, officeID)
	cfg, _ := args.Get(0).(*model.OfficeAvailability)
	return cfg, args.Error(1)
}

func (m *mockService) UpdateConfig(ctx context.Context, actorID, officeID uuid.UUID, in model.PartialConfig) (*model.OfficeAvailability, error) {
	args := m.Called(ctx, actorID, officeID, in)
	cfg, _ := args.Get(0).(*model.OfficeAvailability)
	return cfg, args.Error(1)
}

func (m *mockService) GetAvailableSlots(ctx context.Context, officeID uuid.UUID, date string) (*model.AvailabilityResult, error) {
	args := m.Called(ctx, officeID, date)
	res, _ := args.Get(0).(*model.AvailabilityResult)
	return res, args.Error(1)
}

func (m *mockService) IsSlotBookable(ctx context.Context, officeID uuid.UUID, date, clock string) (bool, error) {
	args := m.Called(ctx, officeID, date, clock)
	return args.Bool(0), args.Error(1)
}

func setup(userID uuid.UUID) (*gin.Engine, *mockService) {
	gin.SetMode(gin.TestMode)
	svc := new(mockService)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		handler.SetUserID(c, userID)
		c.Next()
	})
	NewHandler(svc).RegisterRoutes(r.Group("/api"))
	return r, svc
}

func serve(r *gin.Engine, method, path string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func message(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp handler.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Message
}

func TestGetConfig(t *testing.T) {
	officeID := uuid.New()
	r, svc := setup(uuid.New())
	svc.On("GetConfig", mock.Anything, officeID).Return(availabilityService.DefaultAvailability(officeID), nil)

	w := serve(r, http.MethodGet, "/api/office/"+officeID.String()+"/availability", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"slot_duration":30`)

	missing := uuid.New()
	svc.On("GetConfig", mock.Anything, missing).Return(nil, apperrors.NotFound("Office", nil))
	w = serve(r, http.MethodGet, "/api/office/"+missing.String()+"/availability", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Office not found", message(t, w))
}

func TestUpdateConfig(t *testing.T) {
	userID, officeID := uuid.New(), uuid.New()
	r, svc := setup(userID)

	duration := 20
	expected := model.PartialConfig{SlotDuration: &duration}
	updated := availabilityService.DefaultAvailability(officeID)
	updated.SlotDuration = 20
	svc.On("UpdateConfig", mock.Anything, userID, officeID, expected).Return(updated, nil)

	w := serve(r, http.MethodPut, "/api/office/"+officeID.String()+"/availability", []byte(`{"slot_duration":20}`))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"slot_duration":20`)
}

func TestUpdateConfigForbidden(t *testing.T) {
	userID, officeID := uuid.New(), uuid.New()
	r, svc := setup(userID)
	svc.On("UpdateConfig", mock.Anything, userID, officeID, mock.Anything).
		Return(nil, apperrors.Forbidden(availabilityService.MsgManageOwnOffice))

	w := serve(r, http.MethodPut, "/api/office/"+officeID.String()+"/availability", []byte(`{"unavailable_dates":["2026-12-25"]}`))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, availabilityService.MsgManageOwnOffice, message(t, w))
}

func TestUpdateConfigMalformedBody(t *testing.T) {
	officeID := uuid.New()
	r, svc := setup(uuid.New())

	w := serve(r, http.MethodPut, "/api/office/"+officeID.String()+"/availability", []byte(`{"slot_duration":"soon"}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	svc.AssertNotCalled(t, "UpdateConfig", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestGetSlots(t *testing.T) {
	officeID := uuid.New()
	r, svc := setup(uuid.Nil)
	res := &model.AvailabilityResult{
		Config:         availabilityService.DefaultAvailability(officeID),
		Date:           "2026-10-19",
		AvailableSlots: []model.TimeSlot{{Start: "09:00", End: "09:30", Available: true}},
		BookedSlots:    []string{"09:30"},
	}
	svc.On("GetAvailableSlots", mock.Anything, officeID, "2026-10-19").Return(res, nil)

	w := serve(r, http.MethodGet, "/api/office/"+officeID.String()+"/availability/slots?date=2026-10-19", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"booked_slots":["09:30"]`)

	w = serve(r, http.MethodGet, "/api/office/"+officeID.String()+"/availability/slots", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "date is required", message(t, w))
}

func TestCheckSlot(t *testing.T) {
	officeID := uuid.New()
	r, svc := setup(uuid.Nil)
	svc.On("IsSlotBookable", mock.Anything, officeID, "2026-10-19", "10:00").Return(true, nil)

	w := serve(r, http.MethodGet, "/api/office/"+officeID.String()+"/availability/check?date=2026-10-19&time=10:00", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"available":true`)

	w = serve(r, http.MethodGet, "/api/office/"+officeID.String()+"/availability/check?date=2026-10-19", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
