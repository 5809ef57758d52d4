package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/rand"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sportsbuddy/internal/domain"
	"sportsbuddy/internal/repository/memory"
)

var fixedNow = time.Date(2026, time.October, 17, 12, 0, 0, 0, time.UTC)

var (
	creator  = domain.Requester{ID: "creator-c", Role: domain.RoleUser}
	stranger = domain.Requester{ID: "user-d", Role: domain.RoleUser}
	admin    = domain.Requester{ID: "admin-m", Role: domain.RoleAdmin}
)

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }

func validDraft() domain.EventDraft {
	return domain.EventDraft{
		Name:        "Saturday pickup game",
		Category:    domain.CategoryBasketball,
		Description: "Casual three-on-three at the outdoor courts",
		Date:        domain.DateOf(fixedNow.AddDate(0, 0, 1)),
		Time:        "09:30",
		Location:    domain.Location{Address: "12 Court Road", City: "Bristol"},
	}
}

func newTestService(repo domain.EventRepository) domain.EventService {
	return NewEventService(repo, EventServiceConfig{
		Timeout: time.Second,
		Now:     func() time.Time { return fixedNow },
	})
}

func createEvent(t *testing.T, svc domain.EventService, maxParticipants int) *domain.Event {
	t.Helper()
	draft := validDraft()
	draft.MaxParticipants = intPtr(maxParticipants)
	event, err := svc.CreateEvent(context.Background(), creator, draft)
	require.NoError(t, err)
	return event
}

// failingEventRepository fails every call with err.
type failingEventRepository struct {
	err error
}

func (f *failingEventRepository) Create(ctx context.Context, event *domain.Event) error { return f.err }
func (f *failingEventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	return nil, f.err
}
func (f *failingEventRepository) List(ctx context.Context) ([]*domain.Event, error) {
	return nil, f.err
}
func (f *failingEventRepository) ListByCreator(ctx context.Context, userID string) ([]*domain.Event, error) {
	return nil, f.err
}
func (f *failingEventRepository) Update(ctx context.Context, id string, patch domain.EventPatch) (*domain.Event, error) {
	return nil, f.err
}
func (f *failingEventRepository) Delete(ctx context.Context, id string) error { return f.err }
func (f *failingEventRepository) AddParticipant(ctx context.Context, id, userID string) (*domain.Event, error) {
	return nil, f.err
}
func (f *failingEventRepository) RemoveParticipant(ctx context.Context, id, userID string) (*domain.Event, error) {
	return nil, f.err
}

func TestEventService_CreateEvent(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		requester  domain.Requester
		mutate     func(d *domain.EventDraft)
		wantErr    error
		wantFields []string
	}{
		{
			name:      "valid draft",
			requester: creator,
			mutate:    func(d *domain.EventDraft) {},
		},
		{
			name:      "date yesterday",
			requester: creator,
			mutate:    func(d *domain.EventDraft) { d.Date = domain.DateOf(fixedNow.AddDate(0, 0, -1)) },
			wantErr:   domain.ErrValidation, wantFields: []string{"date"},
		},
		{
			name:      "date today is not in the future",
			requester: creator,
			mutate:    func(d *domain.EventDraft) { d.Date = domain.DateOf(fixedNow) },
			wantErr:   domain.ErrValidation, wantFields: []string{"date"},
		},
		{
			name:      "time out of range",
			requester: creator,
			mutate:    func(d *domain.EventDraft) { d.Time = "24:00" },
			wantErr:   domain.ErrValidation, wantFields: []string{"time"},
		},
		{
			name:      "minute out of range",
			requester: creator,
			mutate:    func(d *domain.EventDraft) { d.Time = "10:60" },
			wantErr:   domain.ErrValidation, wantFields: []string{"time"},
		},
		{
			name:      "every violation is listed",
			requester: creator,
			mutate: func(d *domain.EventDraft) {
				d.Name = "ab"
				d.Category = "Chess"
				d.Description = "short"
				d.Location = domain.Location{Address: "x", City: ""}
				d.MaxParticipants = intPtr(0)
				fee := -1.0
				d.RegistrationFee = &fee
			},
			wantErr: domain.ErrValidation,
			wantFields: []string{
				"name", "category", "description", "location.address", "location.city",
				"maxParticipants", "registrationFee",
			},
		},
		{
			name:      "capacity above system limit",
			requester: creator,
			mutate:    func(d *domain.EventDraft) { d.MaxParticipants = intPtr(101) },
			wantErr:   domain.ErrValidation, wantFields: []string{"maxParticipants"},
		},
		{
			name:      "anonymous requester",
			requester: domain.Requester{},
			mutate:    func(d *domain.EventDraft) {},
			wantErr:   domain.ErrUnauthenticated,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(memory.NewEventRepository())
			draft := validDraft()
			tt.mutate(&draft)

			event, err := svc.CreateEvent(ctx, tt.requester, draft)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				if len(tt.wantFields) > 0 {
					var verr *domain.ValidationError
					require.ErrorAs(t, err, &verr)
					var got []string
					for _, f := range verr.Fields {
						got = append(got, f.Field)
					}
					assert.ElementsMatch(t, tt.wantFields, got)
				}
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, event.ID)
			assert.Equal(t, []string{}, event.Participants)
			assert.Equal(t, tt.requester.ID, event.CreatedBy)
			assert.Equal(t, domain.StatusUpcoming, event.Status)
			assert.Equal(t, domain.DifficultyBeginner, event.Difficulty)
			assert.Equal(t, DefaultMaxParticipants, event.MaxParticipants)
			assert.Equal(t, 0.0, event.RegistrationFee)
			assert.Equal(t, fixedNow, event.CreatedAt)
		})
	}
}

func TestEventService_CreateEvent_ConfigurableLimit(t *testing.T) {
	svc := NewEventService(memory.NewEventRepository(), EventServiceConfig{
		DefaultMaxParticipants: 25,
		MaxParticipantsLimit:   1000,
		Now:                    func() time.Time { return fixedNow },
	})
	draft := validDraft()
	event, err := svc.CreateEvent(context.Background(), creator, draft)
	require.NoError(t, err)
	assert.Equal(t, 25, event.MaxParticipants)

	draft.MaxParticipants = intPtr(1000)
	_, err = svc.CreateEvent(context.Background(), creator, draft)
	require.NoError(t, err)
}

func TestEventService_UpdateEvent(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(memory.NewEventRepository())
	event := createEvent(t, svc, 10)
	name := "Renamed pickup game"

	_, err := svc.UpdateEvent(ctx, stranger, event.ID, domain.EventPatch{Name: &name})
	require.ErrorIs(t, err, domain.ErrForbidden)
	unchanged, err := svc.GetEventByID(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, event.Name, unchanged.Name, "record is unchanged after a refused update")

	updated, err := svc.UpdateEvent(ctx, admin, event.ID, domain.EventPatch{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, name, updated.Name)
	assert.Equal(t, creator.ID, updated.CreatedBy, "admin edits keep the creator")

	city := domain.Location{Address: "99 New Street", City: "Bath"}
	updated, err = svc.UpdateEvent(ctx, creator, event.ID, domain.EventPatch{Location: &city})
	require.NoError(t, err)
	assert.Equal(t, "Bath", updated.Location.City)

	_, err = svc.UpdateEvent(ctx, creator, "missing", domain.EventPatch{Name: &name})
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestEventService_UpdateEvent_Validation(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewEventRepository()
	svc := newTestService(repo)
	event := createEvent(t, svc, 3)

	yesterday := domain.DateOf(fixedNow.AddDate(0, 0, -1))
	_, err := svc.UpdateEvent(ctx, creator, event.ID, domain.EventPatch{Date: &yesterday})
	require.ErrorIs(t, err, domain.ErrValidation)

	badTime := "7pm"
	_, err = svc.UpdateEvent(ctx, creator, event.ID, domain.EventPatch{Time: &badTime})
	require.ErrorIs(t, err, domain.ErrValidation)

	for _, u := range []string{"a", "b"} {
		_, err := svc.Participate(ctx, domain.Requester{ID: u, Role: domain.RoleUser}, event.ID)
		require.NoError(t, err)
	}
	_, err = svc.UpdateEvent(ctx, creator, event.ID, domain.EventPatch{MaxParticipants: intPtr(1)})
	require.ErrorIs(t, err, domain.ErrValidation)
	updated, err := svc.UpdateEvent(ctx, creator, event.ID, domain.EventPatch{MaxParticipants: intPtr(2)})
	require.NoError(t, err)
	assert.Equal(t, 2, updated.MaxParticipants)
}

func TestEventService_UpdateEvent_PastEventStillEditable(t *testing.T) {
	ctx := context.Background()
	clock := fixedNow
	svc := NewEventService(memory.NewEventRepository(), EventServiceConfig{Now: func() time.Time { return clock }})
	event, err := svc.CreateEvent(ctx, creator, validDraft())
	require.NoError(t, err)

	clock = fixedNow.AddDate(0, 0, 7)
	updated, err := svc.UpdateEvent(ctx, creator, event.ID, domain.EventPatch{Name: strPtr("Postponed game")})
	require.NoError(t, err, "untouched date is not re-validated")
	assert.Equal(t, "Postponed game", updated.Name)
}

func TestEventService_DeleteEvent(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(memory.NewEventRepository())

	first := createEvent(t, svc, 10)
	require.ErrorIs(t, svc.DeleteEvent(ctx, stranger, first.ID), domain.ErrForbidden)
	_, err := svc.GetEventByID(ctx, first.ID)
	require.NoError(t, err, "record survives a refused delete")

	require.NoError(t, svc.DeleteEvent(ctx, creator, first.ID))
	_, err = svc.GetEventByID(ctx, first.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)
	require.ErrorIs(t, svc.DeleteEvent(ctx, creator, first.ID), domain.ErrNotFound)

	second := createEvent(t, svc, 10)
	require.NoError(t, svc.DeleteEvent(ctx, admin, second.ID))
}

func TestEventService_CapacityScenario(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(memory.NewEventRepository())
	event := createEvent(t, svc, 1)
	userA := domain.Requester{ID: "user-a", Role: domain.RoleUser}
	userB := domain.Requester{ID: "user-b", Role: domain.RoleUser}

	got, err := svc.Participate(ctx, userA, event.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"user-a"}, got.Participants)

	_, err = svc.Participate(ctx, userB, event.ID)
	require.ErrorIs(t, err, domain.ErrEventFull)

	got, err = svc.Leave(ctx, userA, event.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Participants)

	got, err = svc.Participate(ctx, userB, event.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"user-b"}, got.Participants)
}

func TestEventService_ParticipateErrors(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(memory.NewEventRepository())
	event := createEvent(t, svc, 5)

	_, err := svc.Participate(ctx, stranger, event.ID)
	require.NoError(t, err)
	_, err = svc.Participate(ctx, stranger, event.ID)
	require.ErrorIs(t, err, domain.ErrAlreadyJoined)

	_, err = svc.Participate(ctx, stranger, "missing")
	require.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.Participate(ctx, domain.Requester{}, event.ID)
	require.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestEventService_LeaveIsIdempotent(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(memory.NewEventRepository())
	event := createEvent(t, svc, 5)

	for i := 0; i < 2; i++ {
		got, err := svc.Leave(ctx, stranger, event.ID)
		require.NoError(t, err)
		assert.Empty(t, got.Participants)
	}
	_, err := svc.Leave(ctx, stranger, "missing")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestEventService_RosterInvariantsUnderRandomOps(t *testing.T) {
	ctx := context.Background()
	rng := rand.New(rand.NewSource(42))

	for round := 0; round < 20; round++ {
		svc := newTestService(memory.NewEventRepository())
		capacity := 1 + rng.Intn(5)
		event := createEvent(t, svc, capacity)

		for op := 0; op < 200; op++ {
			user := domain.Requester{ID: fmt.Sprintf("u%d", rng.Intn(8)), Role: domain.RoleUser}
			var err error
			if rng.Intn(2) == 0 {
				_, err = svc.Participate(ctx, user, event.ID)
			} else {
				_, err = svc.Leave(ctx, user, event.ID)
			}
			if err != nil {
				require.True(t, errors.Is(err, domain.ErrEventFull) || errors.Is(err, domain.ErrAlreadyJoined), "unexpected error %v", err)
			}

			current, err := svc.GetEventByID(ctx, event.ID)
			require.NoError(t, err)
			require.LessOrEqual(t, len(current.Participants), capacity)
			sorted := slices.Clone(current.Participants)
			slices.Sort(sorted)
			require.Equal(t, len(sorted), len(slices.Compact(sorted)), "roster has duplicates: %v", current.Participants)
		}
	}
}

func TestEventService_ListEvents(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(memory.NewEventRepository())

	for _, name := range []string{"Morning run", "Evening swim", "Night run"} {
		draft := validDraft()
		draft.Name = name
		_, err := svc.CreateEvent(ctx, creator, draft)
		require.NoError(t, err)
	}

	all, err := svc.ListEvents(ctx, domain.ListOptions{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Morning run", all[0].Name, "default is persisted order")

	filter := domain.EventFilter{Query: "RUN"}
	less, err := domain.EventOrdering("-name")
	require.NoError(t, err)
	runs, err := svc.ListEvents(ctx, domain.ListOptions{Filter: filter.Match, Less: less})
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "Night run", runs[0].Name)
	assert.Equal(t, "Morning run", runs[1].Name)

	mine, err := svc.ListEventsByCreator(ctx, creator.ID)
	require.NoError(t, err)
	require.Len(t, mine, 3)
	assert.Equal(t, "Night run", mine[0].Name)
}

func TestEventService_TimeIsZeroPadded(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(memory.NewEventRepository())

	early := validDraft()
	early.Name = "Early session"
	early.Time = " 9:30 "
	earlyEvent, err := svc.CreateEvent(ctx, creator, early)
	require.NoError(t, err)
	assert.Equal(t, "09:30", earlyEvent.Time)

	late := validDraft()
	late.Name = "Late session"
	late.Time = "10:00"
	_, err = svc.CreateEvent(ctx, creator, late)
	require.NoError(t, err)

	less, err := domain.EventOrdering("date")
	require.NoError(t, err)
	events, err := svc.ListEvents(ctx, domain.ListOptions{Less: less})
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "Early session", events[0].Name, "9:30 sorts before 10:00")

	updated, err := svc.UpdateEvent(ctx, creator, earlyEvent.ID, domain.EventPatch{Time: strPtr("7:05")})
	require.NoError(t, err)
	assert.Equal(t, "07:05", updated.Time)
}

func TestEventService_StorageErrors(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(&failingEventRepository{err: sql.ErrConnDone})
	patchName := "Whatever name"

	calls := map[string]func() error{
		"create": func() error { _, err := svc.CreateEvent(ctx, creator, validDraft()); return err },
		"get":    func() error { _, err := svc.GetEventByID(ctx, "ev"); return err },
		"update": func() error {
			_, err := svc.UpdateEvent(ctx, creator, "ev", domain.EventPatch{Name: &patchName})
			return err
		},
		"delete":      func() error { return svc.DeleteEvent(ctx, creator, "ev") },
		"participate": func() error { _, err := svc.Participate(ctx, creator, "ev"); return err },
		"leave":       func() error { _, err := svc.Leave(ctx, creator, "ev"); return err },
		"list":        func() error { _, err := svc.ListEvents(ctx, domain.ListOptions{}); return err },
		"mine":        func() error { _, err := svc.ListEventsByCreator(ctx, creator.ID); return err },
	}
	for name, call := range calls {
		t.Run(name, func(t *testing.T) {
			err := call()
			var serr *domain.StorageError
			require.ErrorAs(t, err, &serr)
			require.ErrorIs(t, err, sql.ErrConnDone)
		})
	}
}
