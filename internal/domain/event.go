package domain

import (
	"context"
	"slices"
	"strings"
	"time"
)

// Category is the sport an event is organised around.
type Category string

const (
	CategoryFootball   Category = "Football"
	CategoryBasketball Category = "Basketball"
	CategoryTennis     Category = "Tennis"
	CategoryRunning    Category = "Running"
	CategoryCycling    Category = "Cycling"
	CategorySwimming   Category = "Swimming"
	CategoryVolleyball Category = "Volleyball"
	CategoryCricket    Category = "Cricket"
	CategoryOther      Category = "Other"
)

// Difficulty is the skill level an event targets.
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "Beginner"
	DifficultyIntermediate Difficulty = "Intermediate"
	DifficultyAdvanced     Difficulty = "Advanced"
)

// Status is informational metadata set by the caller; nothing transitions it automatically.
type Status string

const (
	StatusUpcoming  Status = "Upcoming"
	StatusOngoing   Status = "Ongoing"
	StatusCompleted Status = "Completed"
	StatusCancelled Status = "Cancelled"
)

// Location is where an event takes place. State is optional.
type Location struct {
	Address string `json:"address" validate:"required,min=3"`
	City    string `json:"city" validate:"required,min=2"`
	State   string `json:"state,omitempty"`
}

// Event represents a sports activity with a date, location, and participant roster.
// swagger:model Event
type Event struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	Category        Category   `json:"category"`
	Description     string     `json:"description"`
	Date            Date       `json:"date"`
	Time            string     `json:"time"`
	Location        Location   `json:"location"`
	Participants    []string   `json:"participants"`
	MaxParticipants int        `json:"maxParticipants"`
	Difficulty      Difficulty `json:"difficulty"`
	RegistrationFee float64    `json:"registrationFee"`
	CreatedBy       string     `json:"createdBy"`
	Status          Status     `json:"status"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// HasParticipant reports whether userID is on the roster.
func (e *Event) HasParticipant(userID string) bool {
	return slices.Contains(e.Participants, userID)
}

// IsFull reports whether the roster has reached maxParticipants.
func (e *Event) IsFull() bool {
	return len(e.Participants) >= e.MaxParticipants
}

// Clone returns a copy of the event that shares no roster storage with e.
func (e *Event) Clone() *Event {
	if e == nil {
		return nil
	}
	c := *e
	c.Participants = append(make([]string, 0, len(e.Participants)), e.Participants...)
	return &c
}

// Draft returns the user-editable fields of the event.
func (e *Event) Draft() EventDraft {
	maxParticipants := e.MaxParticipants
	fee := e.RegistrationFee
	return EventDraft{
		Name:            e.Name,
		Category:        e.Category,
		Description:     e.Description,
		Date:            e.Date,
		Time:            e.Time,
		Location:        e.Location,
		MaxParticipants: &maxParticipants,
		Difficulty:      e.Difficulty,
		RegistrationFee: &fee,
		Status:          e.Status,
	}
}

// EventDraft carries the fields a requester supplies when creating an event.
// id, participants and createdBy are assigned by the service.
type EventDraft struct {
	Name            string     `json:"name" validate:"required,min=3,max=100"`
	Category        Category   `json:"category" validate:"required,oneof=Football Basketball Tennis Running Cycling Swimming Volleyball Cricket Other"`
	Description     string     `json:"description" validate:"required,min=10,max=1000"`
	Date            Date       `json:"date" validate:"-"`
	Time            string     `json:"time" validate:"required,clock"`
	Location        Location   `json:"location"`
	MaxParticipants *int       `json:"maxParticipants" validate:"omitempty,min=1"`
	Difficulty      Difficulty `json:"difficulty" validate:"omitempty,oneof=Beginner Intermediate Advanced"`
	RegistrationFee *float64   `json:"registrationFee" validate:"omitempty,gte=0"`
	Status          Status     `json:"status" validate:"omitempty,oneof=Upcoming Ongoing Completed Cancelled"`
}

// Normalize trims surrounding whitespace from free-text fields and stores
// the time as HH:MM.
func (d *EventDraft) Normalize() {
	d.Name = strings.TrimSpace(d.Name)
	d.Description = strings.TrimSpace(d.Description)
	d.Time = normalizeClock(d.Time)
	d.Location = d.Location.normalized()
}

func (l Location) normalized() Location {
	return Location{
		Address: strings.TrimSpace(l.Address),
		City:    strings.TrimSpace(l.City),
		State:   strings.TrimSpace(l.State),
	}
}

// EventPatch is a partial update. Nil fields are left unchanged.
// participants and createdBy are not patchable.
type EventPatch struct {
	Name            *string
	Category        *Category
	Description     *string
	Date            *Date
	Time            *string
	Location        *Location
	MaxParticipants *int
	Difficulty      *Difficulty
	RegistrationFee *float64
	Status          *Status
}

// IsEmpty reports whether the patch changes nothing.
func (p EventPatch) IsEmpty() bool {
	return len(p.Fields()) == 0
}

// Fields returns the JSON names of the fields set on the patch.
func (p EventPatch) Fields() []string {
	var fields []string
	add := func(set bool, name string) {
		if set {
			fields = append(fields, name)
		}
	}
	add(p.Name != nil, "name")
	add(p.Category != nil, "category")
	add(p.Description != nil, "description")
	add(p.Date != nil, "date")
	add(p.Time != nil, "time")
	add(p.Location != nil, "location")
	add(p.MaxParticipants != nil, "maxParticipants")
	add(p.Difficulty != nil, "difficulty")
	add(p.RegistrationFee != nil, "registrationFee")
	add(p.Status != nil, "status")
	return fields
}

// Normalize trims surrounding whitespace from the free-text fields that are set.
func (p *EventPatch) Normalize() {
	trim := func(s *string) {
		if s != nil {
			*s = strings.TrimSpace(*s)
		}
	}
	trim(p.Name)
	trim(p.Description)
	if p.Time != nil {
		t := normalizeClock(*p.Time)
		p.Time = &t
	}
	if p.Location != nil {
		l := p.Location.normalized()
		p.Location = &l
	}
}

// ApplyTo copies the set fields onto d.
func (p EventPatch) ApplyTo(d *EventDraft) {
	if p.Name != nil {
		d.Name = *p.Name
	}
	if p.Category != nil {
		d.Category = *p.Category
	}
	if p.Description != nil {
		d.Description = *p.Description
	}
	if p.Date != nil {
		d.Date = *p.Date
	}
	if p.Time != nil {
		d.Time = *p.Time
	}
	if p.Location != nil {
		d.Location = *p.Location
	}
	if p.MaxParticipants != nil {
		v := *p.MaxParticipants
		d.MaxParticipants = &v
	}
	if p.Difficulty != nil {
		d.Difficulty = *p.Difficulty
	}
	if p.RegistrationFee != nil {
		v := *p.RegistrationFee
		d.RegistrationFee = &v
	}
	if p.Status != nil {
		d.Status = *p.Status
	}
}

// ListOptions selects and orders events. A nil Filter keeps every event; a nil
// Less keeps the persisted order.
type ListOptions struct {
	Filter func(*Event) bool
	Less   func(a, b *Event) bool
}

// EventRepository defines the interface for event storage.
//
// AddParticipant must check capacity and membership and append in a single
// atomic step, returning ErrNotFound, ErrEventFull or ErrAlreadyJoined when the
// write does not apply. It also fills an empty createdBy with userID.
// Update never modifies participants or createdBy.
type EventRepository interface {
	Create(ctx context.Context, event *Event) error
	GetByID(ctx context.Context, id string) (*Event, error)
	List(ctx context.Context) ([]*Event, error)
	ListByCreator(ctx context.Context, userID string) ([]*Event, error)
	Update(ctx context.Context, id string, patch EventPatch) (*Event, error)
	Delete(ctx context.Context, id string) error
	AddParticipant(ctx context.Context, id, userID string) (*Event, error)
	RemoveParticipant(ctx context.Context, id, userID string) (*Event, error)
}

// EventService defines the business logic for events and their rosters.
type EventService interface {
	CreateEvent(ctx context.Context, requester Requester, draft EventDraft) (*Event, error)
	UpdateEvent(ctx context.Context, requester Requester, eventID string, patch EventPatch) (*Event, error)
	DeleteEvent(ctx context.Context, requester Requester, eventID string) error
	Participate(ctx context.Context, requester Requester, eventID string) (*Event, error)
	Leave(ctx context.Context, requester Requester, eventID string) (*Event, error)
	GetEventByID(ctx context.Context, eventID string) (*Event, error)
	ListEvents(ctx context.Context, opts ListOptions) ([]*Event, error)
	ListEventsByCreator(ctx context.Context, userID string) ([]*Event, error)
}
