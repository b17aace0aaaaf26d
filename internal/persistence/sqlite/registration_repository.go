package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/event-manager/internal/persistence"
)

// RegistrationRepository implements persistence.RegistrationRepository using SQLite.
type RegistrationRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewRegistrationRepository creates a new SQLite registration repository.
func NewRegistrationRepository(pool *ConnectionPool) *RegistrationRepository {
	return &RegistrationRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// CreateRegistration inserts a registration. The unique index on
// (activity_id, user_id) turns duplicate enrollments into ErrDuplicate.
func (r *RegistrationRepository) CreateRegistration(ctx context.Context, registration persistence.Registration) error {
	if registration.ID == "" {
		return persistence.ErrConstraintViolation
	}

	_, err := r.helper.Exec(ctx,
		`INSERT INTO registrations (id, activity_id, user_id, registered_at)
		 VALUES (?, ?, ?, ?)`,
		registration.ID,
		registration.ActivityID,
		registration.UserID,
		registration.RegisteredAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return nil
}

// DeleteRegistration removes one user's enrollment in an activity.
func (r *RegistrationRepository) DeleteRegistration(ctx context.Context, activityID, userID string) error {
	result, err := r.helper.Exec(ctx,
		"DELETE FROM registrations WHERE activity_id = ? AND user_id = ?",
		activityID, userID)
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
}

// ListRegistrationsForActivity lists an activity's registrations ordered by time.
func (r *RegistrationRepository) ListRegistrationsForActivity(ctx context.Context, activityID string) ([]persistence.Registration, error) {
	rows, err := r.helper.Query(ctx,
		`SELECT id, activity_id, user_id, registered_at
		 FROM registrations WHERE activity_id = ?
		 ORDER BY registered_at ASC, id ASC`,
		activityID)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var registrations []persistence.Registration
	for rows.Next() {
		var registration persistence.Registration
		var registeredStr string
		if err := rows.Scan(&registration.ID, &registration.ActivityID, &registration.UserID, &registeredStr); err != nil {
			return nil, r.mapper.MapError(err)
		}
		if registration.RegisteredAt, err = time.Parse(time.RFC3339, registeredStr); err != nil {
			return nil, fmt.Errorf("failed to parse registered_at: %w", err)
		}
		registrations = append(registrations, registration)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return registrations, nil
}

// CountRegistrations counts an activity's registrations.
func (r *RegistrationRepository) CountRegistrations(ctx context.Context, activityID string) (int, error) {
	var count int
	err := r.helper.QueryRow(ctx,
		"SELECT COUNT(*) FROM registrations WHERE activity_id = ?", activityID).Scan(&count)
	if err != nil {
		return 0, r.mapper.MapError(err)
	}
	return count, nil
}

// DeleteRegistrationsForActivity removes every registration of an activity.
func (r *RegistrationRepository) DeleteRegistrationsForActivity(ctx context.Context, activityID string) error {
	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		_, err := r.helper.ExecTx(tx, "DELETE FROM registrations WHERE activity_id = ?", activityID)
		if err != nil {
			return r.mapper.MapError(err)
		}
		return nil
	})
}
