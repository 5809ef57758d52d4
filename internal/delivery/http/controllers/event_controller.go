package controllers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"sportsbuddy/internal/delivery/http/helpers"
	"sportsbuddy/internal/domain"
)

// serverAssigned lists fields a client may echo back from a fetched event.
// They are accepted so that a whole event can be PUT back, and then ignored.
type serverAssigned struct {
	ID           json.RawMessage `json:"id,omitempty" swaggerignore:"true"`
	Participants json.RawMessage `json:"participants,omitempty" swaggerignore:"true"`
	CreatedBy    json.RawMessage `json:"createdBy,omitempty" swaggerignore:"true"`
	CreatedAt    json.RawMessage `json:"createdAt,omitempty" swaggerignore:"true"`
	UpdatedAt    json.RawMessage `json:"updatedAt,omitempty" swaggerignore:"true"`
}

// CreateEventRequest is the request body for POST /events. date is YYYY-MM-DD
// (an RFC 3339 timestamp is accepted) and time is HH:MM.
type CreateEventRequest struct {
	domain.EventDraft
	serverAssigned
}

// UpdateEventRequest is the request body for PATCH and PUT /events/{eventID}.
// Omitted fields are unchanged.
type UpdateEventRequest struct {
	Name            *string            `json:"name"`
	Category        *domain.Category   `json:"category"`
	Description     *string            `json:"description"`
	Date            *domain.Date       `json:"date"`
	Time            *string            `json:"time"`
	Location        *domain.Location   `json:"location"`
	MaxParticipants *int               `json:"maxParticipants"`
	Difficulty      *domain.Difficulty `json:"difficulty"`
	RegistrationFee *float64           `json:"registrationFee"`
	Status          *domain.Status     `json:"status"`
	serverAssigned
}

// Patch converts the request into a domain patch.
func (u UpdateEventRequest) Patch() domain.EventPatch {
	return domain.EventPatch{
		Name:            u.Name,
		Category:        u.Category,
		Description:     u.Description,
		Date:            u.Date,
		Time:            u.Time,
		Location:        u.Location,
		MaxParticipants: u.MaxParticipants,
		Difficulty:      u.Difficulty,
		RegistrationFee: u.RegistrationFee,
		Status:          u.Status,
	}
}

// EventSuccessResponse is the success envelope of endpoints returning one event.
type EventSuccessResponse struct {
	Data  *domain.Event     `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// EventListSuccessResponse is the success envelope for GET /events.
type EventListSuccessResponse struct {
	Data  helpers.PaginatedData[*domain.Event] `json:"data"`
	Error *helpers.APIError                    `json:"error"`
}

// EventsSuccessResponse is the success envelope for GET /users/me/events.
type EventsSuccessResponse struct {
	Data  []*domain.Event   `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// DeleteEventResponse is the data payload for DELETE /events/{eventID} (200).
type DeleteEventResponse struct {
	Status string `json:"status"`
}

// DeleteEventSuccessResponse is the success response envelope for DELETE /events/{eventID} (200).
type DeleteEventSuccessResponse struct {
	Data  DeleteEventResponse `json:"data"`
	Error *helpers.APIError   `json:"error"`
}

type EventController struct {
	Logger  *slog.Logger
	Service domain.EventService
}

func NewEventController(logger *slog.Logger, svc domain.EventService) *EventController {
	return &EventController{
		Logger:  logger,
		Service: svc,
	}
}

// eventID returns the eventID path value. Ids are UUIDs, so anything else
// cannot name an event and gets a 404.
func eventID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := r.PathValue("eventID")
	if _, err := uuid.Parse(id); err != nil {
		helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "event not found")
		return "", false
	}
	return id, true
}

// CreateEvent godoc
// @Summary Create an event
// @Description Creates an event owned by the caller. participants starts empty; maxParticipants defaults to 10, difficulty to Beginner, status to Upcoming, registrationFee to 0. The date must be after today.
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param event body CreateEventRequest true "Event data"
// @Success 201 {object} controllers.EventSuccessResponse "data contains the created event"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request, error.fields lists every violation"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events [post]
func (c *EventController) CreateEvent(w http.ResponseWriter, r *http.Request) {
	requester, ok := requireRequester(w, r)
	if !ok {
		return
	}
	var req CreateEventRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	event, err := c.Service.CreateEvent(r.Context(), requester, req.EventDraft)
	if err != nil {
		writeServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, event)
}

// GetEventByID godoc
// @Summary Get an event
// @Tags events
// @Produce json
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {object} controllers.EventSuccessResponse "data contains the event"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID} [get]
func (c *EventController) GetEventByID(w http.ResponseWriter, r *http.Request) {
	id, ok := eventID(w, r)
	if !ok {
		return
	}
	event, err := c.Service.GetEventByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, event)
}

// ListEvents godoc
// @Summary List events
// @Description Lists events in creation order unless sort is given. Filters combine with AND; q matches the name case-insensitively.
// @Tags events
// @Produce json
// @Param category query string false "Category"
// @Param difficulty query string false "Difficulty"
// @Param status query string false "Status"
// @Param q query string false "Name substring"
// @Param sort query string false "date, name, createdAt or fee; prefix with - for descending"
// @Param page query int false "Page (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Success 200 {object} controllers.EventListSuccessResponse "data contains items and pagination"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request (unknown sort key)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events [get]
func (c *EventController) ListEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := domain.EventFilter{
		Category:   domain.Category(q.Get("category")),
		Difficulty: domain.Difficulty(q.Get("difficulty")),
		Status:     domain.Status(q.Get("status")),
		Query:      q.Get("q"),
	}
	less, err := domain.EventOrdering(q.Get("sort"))
	if err != nil {
		writeServiceError(w, r, c.Logger, err)
		return
	}
	opts := domain.ListOptions{Less: less}
	if !filter.IsZero() {
		opts.Filter = filter.Match
	}
	events, err := c.Service.ListEvents(r.Context(), opts)
	if err != nil {
		writeServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, helpers.Paginate(events, helpers.ParsePagination(r)))
}

// UpdateEvent godoc
// @Summary Update an event
// @Description Partially updates an event. Only the creator or an admin may update. participants and createdBy are ignored if sent. maxParticipants cannot drop below the current number of participants.
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Param body body UpdateEventRequest true "Fields to update (all optional)"
// @Success 200 {object} controllers.EventSuccessResponse "data contains the updated event"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID} [patch]
// @Router /events/{eventID} [put]
func (c *EventController) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	requester, ok := requireRequester(w, r)
	if !ok {
		return
	}
	id, ok := eventID(w, r)
	if !ok {
		return
	}
	var req UpdateEventRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	event, err := c.Service.UpdateEvent(r.Context(), requester, id, req.Patch())
	if err != nil {
		writeServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, event)
}

// DeleteEvent godoc
// @Summary Delete an event
// @Description Only the creator or an admin may delete.
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {object} controllers.DeleteEventSuccessResponse "data contains status"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID} [delete]
func (c *EventController) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	requester, ok := requireRequester(w, r)
	if !ok {
		return
	}
	id, ok := eventID(w, r)
	if !ok {
		return
	}
	if err := c.Service.DeleteEvent(r.Context(), requester, id); err != nil {
		writeServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, DeleteEventResponse{Status: "deleted"})
}

// Participate godoc
// @Summary Join an event
// @Description Adds the caller to the roster. Fails with 409 when the event is full or the caller already joined.
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {object} controllers.EventSuccessResponse "data contains the updated event"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/participate [post]
func (c *EventController) Participate(w http.ResponseWriter, r *http.Request) {
	requester, ok := requireRequester(w, r)
	if !ok {
		return
	}
	id, ok := eventID(w, r)
	if !ok {
		return
	}
	event, err := c.Service.Participate(r.Context(), requester, id)
	if err != nil {
		writeServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, event)
}

// Leave godoc
// @Summary Leave an event
// @Description Removes the caller from the roster. Leaving an event the caller never joined succeeds.
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {object} controllers.EventSuccessResponse "data contains the updated event"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/leave [post]
func (c *EventController) Leave(w http.ResponseWriter, r *http.Request) {
	requester, ok := requireRequester(w, r)
	if !ok {
		return
	}
	id, ok := eventID(w, r)
	if !ok {
		return
	}
	event, err := c.Service.Leave(r.Context(), requester, id)
	if err != nil {
		writeServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, event)
}

// ListMyEvents godoc
// @Summary List events created by the current user
// @Description Newest first.
// @Tags events
// @Produce json
// @Security BearerAuth
// @Success 200 {object} controllers.EventsSuccessResponse "data is an array of events"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /users/me/events [get]
func (c *EventController) ListMyEvents(w http.ResponseWriter, r *http.Request) {
	requester, ok := requireRequester(w, r)
	if !ok {
		return
	}
	events, err := c.Service.ListEventsByCreator(r.Context(), requester.ID)
	if err != nil {
		writeServiceError(w, r, c.Logger, err)
		return
	}
	if events == nil {
		events = []*domain.Event{}
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, events)
}
