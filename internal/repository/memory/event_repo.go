// Package memory holds in-process implementations of the domain repositories.
// They are safe for concurrent use and never hand out references to their
// internal state.
package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"sportsbuddy/internal/domain"
)

type eventRepository struct {
	mu     sync.Mutex
	events map[string]*domain.Event
	order  []string
	now    func() time.Time
}

// NewEventRepository returns an empty in-memory EventRepository.
func NewEventRepository() domain.EventRepository {
	return &eventRepository{
		events: make(map[string]*domain.Event),
		now:    time.Now,
	}
}

func (r *eventRepository) Create(_ context.Context, e *domain.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e.ID = uuid.NewString()
	if e.Participants == nil {
		e.Participants = []string{}
	}
	r.events[e.ID] = e.Clone()
	r.order = append(r.order, e.ID)
	return nil
}

func (r *eventRepository) GetByID(_ context.Context, id string) (*domain.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.events[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return e.Clone(), nil
}

func (r *eventRepository) List(_ context.Context) ([]*domain.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	events := make([]*domain.Event, 0, len(r.order))
	for _, id := range r.order {
		events = append(events, r.events[id].Clone())
	}
	return events, nil
}

func (r *eventRepository) ListByCreator(_ context.Context, userID string) ([]*domain.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	events := make([]*domain.Event, 0)
	for i := len(r.order) - 1; i >= 0; i-- {
		if e := r.events[r.order[i]]; e.CreatedBy == userID {
			events = append(events, e.Clone())
		}
	}
	return events, nil
}

func (r *eventRepository) Update(_ context.Context, id string, patch domain.EventPatch) (*domain.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.events[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if patch.IsEmpty() {
		return e.Clone(), nil
	}
	if patch.MaxParticipants != nil && *patch.MaxParticipants < len(e.Participants) {
		return nil, domain.ErrRosterExceedsCapacity
	}
	draft := e.Draft()
	patch.ApplyTo(&draft)
	e.Name = draft.Name
	e.Category = draft.Category
	e.Description = draft.Description
	e.Date = draft.Date
	e.Time = draft.Time
	e.Location = draft.Location
	e.MaxParticipants = *draft.MaxParticipants
	e.Difficulty = draft.Difficulty
	e.RegistrationFee = *draft.RegistrationFee
	e.Status = draft.Status
	e.UpdatedAt = r.now()
	return e.Clone(), nil
}

func (r *eventRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.events[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.events, id)
	r.order = slices.DeleteFunc(r.order, func(s string) bool { return s == id })
	return nil
}

// AddParticipant checks and appends while holding the store lock, so no two
// joins can both observe the last free slot.
func (r *eventRepository) AddParticipant(_ context.Context, id, userID string) (*domain.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.events[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if e.IsFull() {
		return nil, domain.ErrEventFull
	}
	if e.HasParticipant(userID) {
		return nil, domain.ErrAlreadyJoined
	}
	e.Participants = append(e.Participants, userID)
	if e.CreatedBy == "" {
		e.CreatedBy = userID
	}
	e.UpdatedAt = r.now()
	return e.Clone(), nil
}

func (r *eventRepository) RemoveParticipant(_ context.Context, id, userID string) (*domain.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.events[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if e.HasParticipant(userID) {
		e.Participants = slices.DeleteFunc(e.Participants, func(p string) bool { return p == userID })
		e.UpdatedAt = r.now()
	}
	return e.Clone(), nil
}
