package availability

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/eservice-api/internal/model"
	"github.com/jwalitptl/eservice-api/internal/repository"
	"github.com/jwalitptl/eservice-api/internal/service/permission"
	apperrors "github.com/jwalitptl/eservice-api/pkg/errors"
)

type fakeStore struct {
	mu       sync.Mutex
	configs  map[uuid.UUID]*model.OfficeAvailability
	offices  map[uuid.UUID]bool
	booked   map[string][]string
	inserts  int
	upserts  int
	bookErr  error
	actors   map[uuid.UUID]*model.Actor
	recorded []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		configs: map[uuid.UUID]*model.OfficeAvailability{},
		offices: map[uuid.UUID]bool{},
		booked:  map[string][]string{},
		actors:  map[uuid.UUID]*model.Actor{},
	}
}

func (s *fakeStore) GetOrCreate(_ context.Context, defaults *model.OfficeAvailability) (*model.OfficeAvailability, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cfg, ok := s.configs[defaults.OfficeID]; ok {
		cp := *cfg
		return &cp, nil
	}
	cp := *defaults
	cp.ID = uuid.New()
	s.configs[defaults.OfficeID] = &cp
	s.inserts++
	out := cp
	return &out, nil
}

func (s *fakeStore) Upsert(_ context.Context, cfg *model.OfficeAvailability) (*model.OfficeAvailability, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *cfg
	if existing, ok := s.configs[cfg.OfficeID]; ok {
		cp.ID = existing.ID
	}
	s.configs[cfg.OfficeID] = &cp
	s.upserts++
	out := cp
	return &out, nil
}

func (s *fakeStore) GetOffice(_ context.Context, id uuid.UUID) (*model.Office, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.offices[id] {
		return nil, fmt.Errorf("failed to get office: %w", repository.ErrNotFound)
	}
	return &model.Office{Base: model.Base{ID: id}}, nil
}

func (s *fakeStore) ListBookedTimes(_ context.Context, officeID uuid.UUID, date string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bookErr != nil {
		return nil, s.bookErr
	}
	return s.booked[officeID.String()+"/"+date], nil
}

func (s *fakeStore) ResolveActor(_ context.Context, userID uuid.UUID) (*model.Actor, error) {
	a, ok := s.actors[userID]
	if !ok {
		return nil, apperrors.Unauthorized(nil)
	}
	return a, nil
}

func (s *fakeStore) Record(_ context.Context, eventType string, _ interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recorded = append(s.recorded, eventType)
}

func (s *fakeStore) addOffice() uuid.UUID {
	id := uuid.New()
	s.offices[id] = true
	return id
}

func (s *fakeStore) addActor(rt model.RoleType, officeID *uuid.UUID, perms ...permission.Name) uuid.UUID {
	id := uuid.New()
	s.actors[id] = &model.Actor{
		User:        &model.User{Base: model.Base{ID: id}, Status: model.UserStatusActive},
		Role:        &model.Role{Name: string(rt)},
		RoleType:    rt,
		OfficeID:    officeID,
		Permissions: model.NewPermissionSet(perms...),
	}
	return id
}

func newTestService(s *fakeStore) *Service {
	return NewService(s, s, s, s, s, nil)
}

func requireAppError(t *testing.T, err error, code apperrors.ErrorCode) *apperrors.AppError {
	t.Helper()
	require.Error(t, err)
	appErr, ok := apperrors.As(err)
	require.True(t, ok, "expected AppError, got %v", err)
	assert.Equal(t, code, appErr.Code)
	return appErr
}

func TestGetConfigCreatesOnce(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	officeID := store.addOffice()

	first, err := svc.GetConfig(context.Background(), officeID)
	require.NoError(t, err)
	second, err := svc.GetConfig(context.Background(), officeID)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, store.inserts)
	assert.Equal(t, DefaultSlotDuration, second.SlotDuration)
}

func TestGetConfigConcurrentFirstReads(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	officeID := store.addOffice()

	var wg sync.WaitGroup
	ids := make([]uuid.UUID, 8)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			cfg, err := svc.GetConfig(context.Background(), officeID)
			if err == nil {
				ids[i] = cfg.ID
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, store.inserts)
	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
}

func TestGetConfigUnknownOffice(t *testing.T) {
	svc := newTestService(newFakeStore())
	_, err := svc.GetConfig(context.Background(), uuid.New())
	appErr := requireAppError(t, err, apperrors.ErrNotFound)
	assert.Equal(t, "Office not found", appErr.Message)
}

func TestUpdateConfigAuthorization(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	officeX, officeY := store.addOffice(), store.addOffice()

	admin := store.addActor(model.RoleTypeAdmin, nil)
	managerX := store.addActor(model.RoleTypeManager, &officeX, permission.AvailabilityUpdate, permission.OfficeUpdate)
	staffX := store.addActor(model.RoleTypeStaff, &officeX, permission.AvailabilityUpdate)
	unassigned := store.addActor(model.RoleTypeManager, nil, permission.AvailabilityUpdate)

	duration := 45
	in := model.PartialConfig{SlotDuration: &duration}
	ctx := context.Background()

	tests := []struct {
		name    string
		actor   uuid.UUID
		office  uuid.UUID
		allowed bool
		msg     string
	}{
		{"manager own office", managerX, officeX, true, ""},
		{"manager other office", managerX, officeY, false, MsgManageOwnOffice},
		{"manager without office", unassigned, officeX, false, MsgManageOwnOffice},
		{"staff with permission", staffX, officeX, false, MsgUpdateNotAllowed},
		{"admin any office", admin, officeY, true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := svc.UpdateConfig(ctx, tt.actor, tt.office, in)
			if tt.allowed {
				require.NoError(t, err)
				assert.Equal(t, 45, cfg.SlotDuration)
				return
			}
			appErr := requireAppError(t, err, apperrors.ErrForbidden)
			assert.Equal(t, tt.msg, appErr.Message)
		})
	}

	_, err := svc.UpdateConfig(ctx, uuid.New(), officeX, in)
	requireAppError(t, err, apperrors.ErrUnauthorized)
}

func TestUpdateConfigValidation(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	officeID := store.addOffice()
	admin := store.addActor(model.RoleTypeAdmin, nil)

	intp := func(v int) *int { return &v }

	tests := []struct {
		name string
		in   model.PartialConfig
		msg  string
	}{
		{"duration too small", model.PartialConfig{SlotDuration: intp(4)}, "slot_duration must be at least 5"},
		{"duration too large", model.PartialConfig{SlotDuration: intp(481)}, "slot_duration must not exceed 480"},
		{"bad clock", model.PartialConfig{DefaultSchedule: &model.WeekSchedule{1: {Start: "9:00", End: "17:00", Available: true}}}, "HH:MM"},
		{"weekday out of range", model.PartialConfig{DefaultSchedule: &model.WeekSchedule{7: {Start: "09:00", End: "17:00", Available: true}}}, "default_schedule"},
		{"inverted day", model.PartialConfig{DefaultSchedule: &model.WeekSchedule{1: {Start: "17:00", End: "09:00", Available: true}}}, "default_schedule[1]: start must be before end"},
		{"bad blackout date", model.PartialConfig{UnavailableDates: &model.DateList{"2026/10/19"}}, "YYYY-MM-DD"},
		{"inverted range", model.PartialConfig{UnavailableDateRanges: &model.DateRanges{{Start: "2026-10-20", End: "2026-10-19"}}}, "unavailable_date_ranges[0]: start must not be after end"},
		{"bad override key", model.PartialConfig{DateOverrides: &model.DateOverrides{"tomorrow": {Start: "09:00", End: "10:00", Available: true}}}, "YYYY-MM-DD"},
		{"inverted override", model.PartialConfig{DateOverrides: &model.DateOverrides{"2026-10-19": {Start: "10:00", End: "10:00", Available: true}}}, "date_overrides[2026-10-19]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.UpdateConfig(context.Background(), admin, officeID, tt.in)
			appErr := requireAppError(t, err, apperrors.ErrBadRequest)
			assert.Contains(t, appErr.Message, tt.msg)
		})
	}
	assert.Zero(t, store.upserts)
	assert.Empty(t, store.recorded)
}

func TestUpdateConfigMergesPartial(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	officeID := store.addOffice()
	admin := store.addActor(model.RoleTypeAdmin, nil)

	closed := model.DaySchedule{Start: "09:00", End: "17:00", Available: false}
	cfg, err := svc.UpdateConfig(context.Background(), admin, officeID, model.PartialConfig{
		UnavailableDates: &model.DateList{"2026-12-25"},
		DateOverrides:    &model.DateOverrides{"2026-12-24": closed},
	})
	require.NoError(t, err)

	assert.Equal(t, DefaultSlotDuration, cfg.SlotDuration)
	assert.Len(t, cfg.DefaultSchedule, 7)
	assert.Equal(t, model.DateList{"2026-12-25"}, cfg.UnavailableDates)
	assert.Equal(t, closed, cfg.DateOverrides["2026-12-24"])
	assert.Equal(t, []string{model.EventAvailabilityUpdated}, store.recorded)
}

func TestGetAvailableSlots(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	officeID := store.addOffice()
	store.booked[officeID.String()+"/2026-10-19"] = []string{"09:30", "16:00"}

	res, err := svc.GetAvailableSlots(context.Background(), officeID, "2026-10-19")
	require.NoError(t, err)

	assert.Equal(t, "2026-10-19", res.Date)
	assert.Equal(t, []string{"09:30", "16:00"}, res.BookedSlots)
	assert.Len(t, res.AvailableSlots, 14)
	assert.NotContains(t, starts(res.AvailableSlots), "09:30")
	assert.Equal(t, officeID, res.Config.OfficeID)

	res, err = svc.GetAvailableSlots(context.Background(), officeID, "2026-10-24")
	require.NoError(t, err)
	assert.Empty(t, res.AvailableSlots)
	assert.NotNil(t, res.BookedSlots)
}

func TestGetAvailableSlotsErrors(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	officeID := store.addOffice()

	_, err := svc.GetAvailableSlots(context.Background(), officeID, "19-10-2026")
	requireAppError(t, err, apperrors.ErrBadRequest)

	_, err = svc.GetAvailableSlots(context.Background(), uuid.New(), "2026-10-19")
	requireAppError(t, err, apperrors.ErrNotFound)

	store.bookErr = errors.New("connection refused")
	_, err = svc.GetAvailableSlots(context.Background(), officeID, "2026-10-19")
	requireAppError(t, err, apperrors.ErrInternal)
}

func TestIsSlotBookable(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	officeID := store.addOffice()
	store.booked[officeID.String()+"/2026-10-19"] = []string{"10:00"}

	ok, err := svc.IsSlotBookable(context.Background(), officeID, "2026-10-19", "09:30")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.IsSlotBookable(context.Background(), officeID, "2026-10-19", "10:00")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = svc.IsSlotBookable(context.Background(), officeID, "2026-10-19", "09:15")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = svc.IsSlotBookable(context.Background(), officeID, "2026-10-19", "9:15")
	requireAppError(t, err, apperrors.ErrBadRequest)
}
