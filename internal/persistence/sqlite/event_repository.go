package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/event-manager/internal/persistence"
)

// EventRepository implements persistence.EventRepository using SQLite.
type EventRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewEventRepository creates a new SQLite event repository.
func NewEventRepository(pool *ConnectionPool) *EventRepository {
	return &EventRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

const eventColumns = `id, edition, description, area, start_date, end_date,
	registry_start_date, registry_end_date, status_active, status_visible,
	event_category_id, created_at, updated_at`

// CreateEvent inserts a new event with its responsible users.
func (r *EventRepository) CreateEvent(ctx context.Context, event persistence.Event) error {
	if event.ID == "" {
		return persistence.ErrConstraintViolation
	}

	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		query := `
			INSERT INTO events (` + eventColumns + `)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`
		_, err := r.helper.ExecTx(tx, query,
			event.ID,
			event.Edition,
			event.Description,
			event.Area,
			event.StartDate.UTC().Format(time.RFC3339),
			event.EndDate.UTC().Format(time.RFC3339),
			event.RegistryStartDate.UTC().Format(time.RFC3339),
			event.RegistryEndDate.UTC().Format(time.RFC3339),
			boolToInt(event.StatusActive),
			boolToInt(event.StatusVisible),
			event.EventCategoryID,
			event.CreatedAt.UTC().Format(time.RFC3339),
			event.UpdatedAt.UTC().Format(time.RFC3339),
		)
		if err != nil {
			return r.mapper.MapError(err)
		}

		return r.replaceResponsibles(tx, event.ID, event.ResponsibleUserIDs)
	})
}

// UpdateEvent updates an existing event and its responsible users.
func (r *EventRepository) UpdateEvent(ctx context.Context, event persistence.Event) error {
	if event.ID == "" {
		return persistence.ErrNotFound
	}

	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		query := `
			UPDATE events
			SET edition = ?, description = ?, area = ?, start_date = ?, end_date = ?,
				registry_start_date = ?, registry_end_date = ?, status_active = ?,
				status_visible = ?, event_category_id = ?, updated_at = ?
			WHERE id = ?
		`
		result, err := r.helper.ExecTx(tx, query,
			event.Edition,
			event.Description,
			event.Area,
			event.StartDate.UTC().Format(time.RFC3339),
			event.EndDate.UTC().Format(time.RFC3339),
			event.RegistryStartDate.UTC().Format(time.RFC3339),
			event.RegistryEndDate.UTC().Format(time.RFC3339),
			boolToInt(event.StatusActive),
			boolToInt(event.StatusVisible),
			event.EventCategoryID,
			event.UpdatedAt.UTC().Format(time.RFC3339),
			event.ID,
		)
		if err != nil {
			return r.mapper.MapError(err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rowsAffected == 0 {
			return persistence.ErrNotFound
		}

		return r.replaceResponsibles(tx, event.ID, event.ResponsibleUserIDs)
	})
}

// GetEvent retrieves an event by ID.
func (r *EventRepository) GetEvent(ctx context.Context, id string) (persistence.Event, error) {
	if id == "" {
		return persistence.Event{}, persistence.ErrNotFound
	}

	row := r.helper.QueryRow(ctx, `SELECT `+eventColumns+` FROM events WHERE id = ?`, id)
	event, err := r.scanEvent(row)
	if err != nil {
		return persistence.Event{}, err
	}

	event.ResponsibleUserIDs, err = r.loadResponsibles(ctx, event.ID)
	if err != nil {
		return persistence.Event{}, err
	}
	return event, nil
}

// GetEventByEdition resolves the event carrying the edition within a category.
func (r *EventRepository) GetEventByEdition(ctx context.Context, eventCategoryID string, edition int) (persistence.Event, error) {
	row := r.helper.QueryRow(ctx,
		`SELECT `+eventColumns+` FROM events WHERE event_category_id = ? AND edition = ?`,
		eventCategoryID, edition)
	event, err := r.scanEvent(row)
	if err != nil {
		return persistence.Event{}, err
	}

	event.ResponsibleUserIDs, err = r.loadResponsibles(ctx, event.ID)
	if err != nil {
		return persistence.Event{}, err
	}
	return event, nil
}

// ListEvents lists all events ordered by start date.
func (r *EventRepository) ListEvents(ctx context.Context) ([]persistence.Event, error) {
	rows, err := r.helper.Query(ctx,
		`SELECT `+eventColumns+` FROM events ORDER BY start_date ASC, id ASC`)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var events []persistence.Event
	for rows.Next() {
		event, err := r.scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}

	for i := range events {
		events[i].ResponsibleUserIDs, err = r.loadResponsibles(ctx, events[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return events, nil
}

// DeleteEvent removes an event and its responsible user links.
func (r *EventRepository) DeleteEvent(ctx context.Context, id string) error {
	if id == "" {
		return persistence.ErrNotFound
	}

	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		_, err := r.helper.ExecTx(tx, "DELETE FROM event_responsibles WHERE event_id = ?", id)
		if err != nil {
			return r.mapper.MapError(err)
		}

		result, err := r.helper.ExecTx(tx, "DELETE FROM events WHERE id = ?", id)
		if err != nil {
			return r.mapper.MapError(err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rowsAffected == 0 {
			return persistence.ErrNotFound
		}
		return nil
	})
}

// CountActivities counts the activities owned by an event.
func (r *EventRepository) CountActivities(ctx context.Context, eventID string) (int, error) {
	var count int
	err := r.helper.QueryRow(ctx,
		"SELECT COUNT(*) FROM activities WHERE event_id = ?", eventID).Scan(&count)
	if err != nil {
		return 0, r.mapper.MapError(err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *EventRepository) scanEvent(row rowScanner) (persistence.Event, error) {
	var event persistence.Event
	var startStr, endStr, regStartStr, regEndStr, createdStr, updatedStr string
	var active, visible int

	err := row.Scan(
		&event.ID,
		&event.Edition,
		&event.Description,
		&event.Area,
		&startStr,
		&endStr,
		&regStartStr,
		&regEndStr,
		&active,
		&visible,
		&event.EventCategoryID,
		&createdStr,
		&updatedStr,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return persistence.Event{}, persistence.ErrNotFound
		}
		return persistence.Event{}, r.mapper.MapError(err)
	}

	event.StatusActive = active != 0
	event.StatusVisible = visible != 0

	if event.StartDate, err = time.Parse(time.RFC3339, startStr); err != nil {
		return persistence.Event{}, fmt.Errorf("failed to parse start_date: %w", err)
	}
	if event.EndDate, err = time.Parse(time.RFC3339, endStr); err != nil {
		return persistence.Event{}, fmt.Errorf("failed to parse end_date: %w", err)
	}
	if event.RegistryStartDate, err = time.Parse(time.RFC3339, regStartStr); err != nil {
		return persistence.Event{}, fmt.Errorf("failed to parse registry_start_date: %w", err)
	}
	if event.RegistryEndDate, err = time.Parse(time.RFC3339, regEndStr); err != nil {
		return persistence.Event{}, fmt.Errorf("failed to parse registry_end_date: %w", err)
	}
	if event.CreatedAt, err = time.Parse(time.RFC3339, createdStr); err != nil {
		return persistence.Event{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if event.UpdatedAt, err = time.Parse(time.RFC3339, updatedStr); err != nil {
		return persistence.Event{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	return event, nil
}

func (r *EventRepository) replaceResponsibles(tx *sql.Tx, eventID string, userIDs []string) error {
	_, err := r.helper.ExecTx(tx, "DELETE FROM event_responsibles WHERE event_id = ?", eventID)
	if err != nil {
		return r.mapper.MapError(err)
	}
	for _, userID := range userIDs {
		if userID == "" {
			continue
		}
		_, err := r.helper.ExecTx(tx,
			"INSERT INTO event_responsibles (event_id, user_id) VALUES (?, ?)",
			eventID, userID)
		if err != nil {
			return r.mapper.MapError(err)
		}
	}
	return nil
}

func (r *EventRepository) loadResponsibles(ctx context.Context, eventID string) ([]string, error) {
	rows, err := r.helper.Query(ctx,
		"SELECT user_id FROM event_responsibles WHERE event_id = ? ORDER BY user_id ASC", eventID)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var userIDs []string
	for rows.Next() {
		var userID string
		if err := rows.Scan(&userID); err != nil {
			return nil, r.mapper.MapError(err)
		}
		userIDs = append(userIDs, userID)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return userIDs, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
