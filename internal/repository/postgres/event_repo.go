package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"sportsbuddy/internal/domain"
)

// participateAttempts bounds how often a conditional join is re-issued when the
// roster changed between the failed write and the classifying read.
const participateAttempts = 3

const eventColumns = `id, name, category, description, date, time,
		location_address, location_city, location_state,
		participants, max_participants, difficulty, registration_fee,
		created_by, status, created_at, updated_at`

type eventRepository struct {
	DB *sql.DB
}

func NewEventRepository(db *sql.DB) domain.EventRepository {
	return &eventRepository{
		DB: db,
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (*domain.Event, error) {
	e := &domain.Event{}
	var category, difficulty, status string
	err := row.Scan(
		&e.ID, &e.Name, &category, &e.Description, &e.Date, &e.Time,
		&e.Location.Address, &e.Location.City, &e.Location.State,
		pq.Array(&e.Participants), &e.MaxParticipants, &difficulty, &e.RegistrationFee,
		&e.CreatedBy, &status, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	e.Category = domain.Category(category)
	e.Difficulty = domain.Difficulty(difficulty)
	e.Status = domain.Status(status)
	if e.Participants == nil {
		e.Participants = []string{}
	}
	return e, nil
}

// queryEvent runs a single-row query and maps a missing row (or an id that is
// not a UUID) to domain.ErrNotFound.
func (r *eventRepository) queryEvent(ctx context.Context, query string, args ...any) (*domain.Event, error) {
	e, err := scanEvent(r.DB.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || isInvalidText(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

func (r *eventRepository) queryEvents(ctx context.Context, query string, args ...any) ([]*domain.Event, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	events := make([]*domain.Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (r *eventRepository) Create(ctx context.Context, e *domain.Event) error {
	if e.Participants == nil {
		e.Participants = []string{}
	}
	query := `
		INSERT INTO events (name, category, description, date, time,
			location_address, location_city, location_state,
			participants, max_participants, difficulty, registration_fee,
			created_by, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING id
	`
	return r.DB.QueryRowContext(ctx, query,
		e.Name, string(e.Category), e.Description, e.Date, e.Time,
		e.Location.Address, e.Location.City, e.Location.State,
		pq.Array(e.Participants), e.MaxParticipants, string(e.Difficulty), e.RegistrationFee,
		e.CreatedBy, string(e.Status), e.CreatedAt, e.UpdatedAt,
	).Scan(&e.ID)
}

func (r *eventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	query := `SELECT ` + eventColumns + `
		FROM events
		WHERE id = $1
	`
	return r.queryEvent(ctx, query, id)
}

func (r *eventRepository) List(ctx context.Context) ([]*domain.Event, error) {
	query := `SELECT ` + eventColumns + `
		FROM events
		ORDER BY created_at ASC, id ASC
	`
	return r.queryEvents(ctx, query)
}

func (r *eventRepository) ListByCreator(ctx context.Context, userID string) ([]*domain.Event, error) {
	query := `SELECT ` + eventColumns + `
		FROM events
		WHERE created_by = $1
		ORDER BY created_at DESC
	`
	return r.queryEvents(ctx, query, userID)
}

func (r *eventRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM events WHERE id = $1`
	result, err := r.DB.ExecContext(ctx, query, id)
	if err != nil {
		if isInvalidText(err) {
			return domain.ErrNotFound
		}
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Update writes only the columns the patch sets. Lowering max_participants is
// conditional on the roster still fitting.
func (r *eventRepository) Update(ctx context.Context, eventID string, patch domain.EventPatch) (*domain.Event, error) {
	setClauses := []string{"updated_at = NOW()"}
	args := []any{}
	n := 1
	set := func(column string, value any) {
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", column, n))
		args = append(args, value)
		n++
	}
	if patch.Name != nil {
		set("name", *patch.Name)
	}
	if patch.Category != nil {
		set("category", string(*patch.Category))
	}
	if patch.Description != nil {
		set("description", *patch.Description)
	}
	if patch.Date != nil {
		set("date", *patch.Date)
	}
	if patch.Time != nil {
		set("time", *patch.Time)
	}
	if patch.Location != nil {
		set("location_address", patch.Location.Address)
		set("location_city", patch.Location.City)
		set("location_state", patch.Location.State)
	}
	if patch.MaxParticipants != nil {
		set("max_participants", *patch.MaxParticipants)
	}
	if patch.Difficulty != nil {
		set("difficulty", string(*patch.Difficulty))
	}
	if patch.RegistrationFee != nil {
		set("registration_fee", *patch.RegistrationFee)
	}
	if patch.Status != nil {
		set("status", string(*patch.Status))
	}
	if n == 1 {
		// No fields to update; just fetch current row
		return r.GetByID(ctx, eventID)
	}

	where := fmt.Sprintf("id = $%d", n)
	args = append(args, eventID)
	n++
	if patch.MaxParticipants != nil {
		where += fmt.Sprintf(" AND cardinality(participants) <= $%d", n)
		args = append(args, *patch.MaxParticipants)
	}
	query := fmt.Sprintf(`
		UPDATE events SET %s
		WHERE %s
		RETURNING %s
	`, strings.Join(setClauses, ", "), where, eventColumns)

	e, err := r.queryEvent(ctx, query, args...)
	if errors.Is(err, domain.ErrNotFound) && patch.MaxParticipants != nil {
		if _, getErr := r.GetByID(ctx, eventID); getErr != nil {
			return nil, getErr
		}
		return nil, domain.ErrRosterExceedsCapacity
	}
	return e, err
}

// AddParticipant appends userID in one conditional UPDATE: the row only
// changes if the roster has room and does not already hold userID at write
// time. When nothing matched, the current row tells which condition failed.
func (r *eventRepository) AddParticipant(ctx context.Context, eventID, userID string) (*domain.Event, error) {
	query := `
		UPDATE events
		SET participants = array_append(participants, $2::text),
			created_by = CASE WHEN created_by = '' THEN $2::text ELSE created_by END,
			updated_at = NOW()
		WHERE id = $1
			AND cardinality(participants) < max_participants
			AND NOT ($2::text = ANY(participants))
		RETURNING ` + eventColumns

	for attempt := 0; attempt < participateAttempts; attempt++ {
		e, err := r.queryEvent(ctx, query, eventID, userID)
		if err == nil {
			return e, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		current, err := r.GetByID(ctx, eventID)
		if err != nil {
			return nil, err
		}
		if current.IsFull() {
			return nil, domain.ErrEventFull
		}
		if current.HasParticipant(userID) {
			return nil, domain.ErrAlreadyJoined
		}
	}
	return nil, fmt.Errorf("add participant: roster of event %s kept changing", eventID)
}

// RemoveParticipant is idempotent: removing an absent user still returns the event.
func (r *eventRepository) RemoveParticipant(ctx context.Context, eventID, userID string) (*domain.Event, error) {
	query := `
		UPDATE events
		SET participants = array_remove(participants, $2::text),
			updated_at = CASE WHEN $2::text = ANY(participants) THEN NOW() ELSE updated_at END
		WHERE id = $1
		RETURNING ` + eventColumns
	return r.queryEvent(ctx, query, eventID, userID)
}

// isInvalidText reports a Postgres invalid_text_representation error, raised
// when an id parameter is not a valid UUID.
func isInvalidText(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "22P02"
}
