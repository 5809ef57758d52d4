package services

import (
	"context"
	"errors"
	"sort"
	"time"

	"sportsbuddy/internal/domain"
)

// Defaults applied by NewEventService when the config leaves a field zero.
const (
	DefaultMaxParticipants      = 10
	DefaultMaxParticipantsLimit = 100
)

// EventServiceConfig holds the tunables of the event service.
type EventServiceConfig struct {
	// DefaultMaxParticipants is used when a draft omits maxParticipants.
	DefaultMaxParticipants int
	// MaxParticipantsLimit is the upper bound accepted for maxParticipants.
	MaxParticipantsLimit int
	// Timeout bounds every store round trip; zero means no service-level timeout.
	Timeout time.Duration
	// Now is the clock used for date validation and timestamps.
	Now func() time.Time
}

type eventService struct {
	eventRepo domain.EventRepository
	cfg       EventServiceConfig
}

func NewEventService(eventRepo domain.EventRepository, cfg EventServiceConfig) domain.EventService {
	if cfg.DefaultMaxParticipants <= 0 {
		cfg.DefaultMaxParticipants = DefaultMaxParticipants
	}
	if cfg.MaxParticipantsLimit <= 0 {
		cfg.MaxParticipantsLimit = DefaultMaxParticipantsLimit
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &eventService{
		eventRepo: eventRepo,
		cfg:       cfg,
	}
}

func (s *eventService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.cfg.Timeout)
}

func (s *eventService) rules() domain.EventRules {
	return domain.EventRules{
		MaxParticipantsLimit: s.cfg.MaxParticipantsLimit,
		Now:                  s.cfg.Now(),
	}
}

func (s *eventService) CreateEvent(ctx context.Context, requester domain.Requester, draft domain.EventDraft) (*domain.Event, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if !requester.IsAuthenticated() {
		return nil, domain.ErrUnauthenticated
	}

	draft.Normalize()
	if draft.MaxParticipants == nil {
		v := s.cfg.DefaultMaxParticipants
		draft.MaxParticipants = &v
	}
	if draft.RegistrationFee == nil {
		v := 0.0
		draft.RegistrationFee = &v
	}
	if draft.Difficulty == "" {
		draft.Difficulty = domain.DifficultyBeginner
	}
	if draft.Status == "" {
		draft.Status = domain.StatusUpcoming
	}
	if err := domain.ValidateDraft(draft, s.rules()); err != nil {
		return nil, err
	}

	now := s.cfg.Now()
	event := &domain.Event{
		Name:            draft.Name,
		Category:        draft.Category,
		Description:     draft.Description,
		Date:            draft.Date,
		Time:            draft.Time,
		Location:        draft.Location,
		Participants:    []string{},
		MaxParticipants: *draft.MaxParticipants,
		Difficulty:      draft.Difficulty,
		RegistrationFee: *draft.RegistrationFee,
		CreatedBy:       requester.ID,
		Status:          draft.Status,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.eventRepo.Create(ctx, event); err != nil {
		return nil, &domain.StorageError{Op: "create event", Err: err}
	}
	return event, nil
}

func (s *eventService) GetEventByID(ctx context.Context, eventID string) (*domain.Event, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	return s.getEvent(ctx, eventID)
}

func (s *eventService) getEvent(ctx context.Context, eventID string) (*domain.Event, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, &domain.StorageError{Op: "get event", Err: err}
	}
	return event, nil
}

func (s *eventService) UpdateEvent(ctx context.Context, requester domain.Requester, eventID string, patch domain.EventPatch) (*domain.Event, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	event, err := s.getEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !requester.CanModify(event) {
		return nil, domain.ErrForbidden
	}

	patch.Normalize()
	if patch.IsEmpty() {
		return event, nil
	}
	if err := domain.ValidatePatch(event, patch, s.rules()); err != nil {
		return nil, err
	}

	updated, err := s.eventRepo.Update(ctx, eventID, patch)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			return nil, domain.ErrNotFound
		case errors.Is(err, domain.ErrRosterExceedsCapacity):
			return nil, domain.NewValidationError(domain.FieldError{
				Field:   "maxParticipants",
				Message: "maxParticipants cannot be lower than the current number of participants",
			})
		}
		return nil, &domain.StorageError{Op: "update event", Err: err}
	}
	return updated, nil
}

func (s *eventService) DeleteEvent(ctx context.Context, requester domain.Requester, eventID string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	event, err := s.getEvent(ctx, eventID)
	if err != nil {
		return err
	}
	if !requester.CanModify(event) {
		return domain.ErrForbidden
	}
	if err := s.eventRepo.Delete(ctx, eventID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return &domain.StorageError{Op: "delete event", Err: err}
	}
	return nil
}

func (s *eventService) Participate(ctx context.Context, requester domain.Requester, eventID string) (*domain.Event, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if !requester.IsAuthenticated() {
		return nil, domain.ErrUnauthenticated
	}
	event, err := s.eventRepo.AddParticipant(ctx, eventID, requester.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrEventFull) || errors.Is(err, domain.ErrAlreadyJoined) {
			return nil, err
		}
		return nil, &domain.StorageError{Op: "add participant", Err: err}
	}
	return event, nil
}

func (s *eventService) Leave(ctx context.Context, requester domain.Requester, eventID string) (*domain.Event, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if !requester.IsAuthenticated() {
		return nil, domain.ErrUnauthenticated
	}
	event, err := s.eventRepo.RemoveParticipant(ctx, eventID, requester.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, &domain.StorageError{Op: "remove participant", Err: err}
	}
	return event, nil
}

func (s *eventService) ListEvents(ctx context.Context, opts domain.ListOptions) ([]*domain.Event, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	all, err := s.eventRepo.List(ctx)
	if err != nil {
		return nil, &domain.StorageError{Op: "list events", Err: err}
	}
	events := make([]*domain.Event, 0, len(all))
	for _, e := range all {
		if opts.Filter == nil || opts.Filter(e) {
			events = append(events, e)
		}
	}
	if opts.Less != nil {
		sort.SliceStable(events, func(i, j int) bool { return opts.Less(events[i], events[j]) })
	}
	return events, nil
}

func (s *eventService) ListEventsByCreator(ctx context.Context, userID string) ([]*domain.Event, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	events, err := s.eventRepo.ListByCreator(ctx, userID)
	if err != nil {
		return nil, &domain.StorageError{Op: "list events by creator", Err: err}
	}
	return events, nil
}
