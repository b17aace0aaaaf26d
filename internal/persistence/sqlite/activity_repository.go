package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/event-manager/internal/persistence"
)

// ActivityRepository implements persistence.ActivityRepository using SQLite.
// Schedule rows live and die with their activity row inside one transaction.
type ActivityRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewActivityRepository creates a new SQLite activity repository.
func NewActivityRepository(pool *ConnectionPool) *ActivityRepository {
	return &ActivityRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

const activityColumns = `id, event_id, title, description, vacancy, workload_minutes,
	activity_category_id, index_in_category, ready_for_certificate_emission,
	created_at, updated_at`

// CreateActivity inserts an activity with its schedules and user links.
func (r *ActivityRepository) CreateActivity(ctx context.Context, activity persistence.Activity) error {
	if activity.ID == "" {
		return persistence.ErrConstraintViolation
	}

	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		query := `
			INSERT INTO activities (` + activityColumns + `)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`
		_, err := r.helper.ExecTx(tx, query,
			activity.ID,
			activity.EventID,
			activity.Title,
			activity.Description,
			activity.Vacancy,
			activity.WorkloadMinutes,
			activity.ActivityCategoryID,
			activity.IndexInCategory,
			boolToInt(activity.ReadyForCertificateEmission),
			activity.CreatedAt.UTC().Format(time.RFC3339),
			activity.UpdatedAt.UTC().Format(time.RFC3339),
		)
		if err != nil {
			return r.mapper.MapError(err)
		}

		if err := r.replaceUserLinks(tx, "activity_responsibles", activity.ID, activity.ResponsibleUserIDs); err != nil {
			return err
		}
		if err := r.replaceUserLinks(tx, "activity_teachers", activity.ID, activity.TeachingUserIDs); err != nil {
			return err
		}
		return r.replaceSchedules(tx, activity.ID, activity.Schedules)
	})
}

// UpdateActivity replaces the activity row and reconciles its schedule rows
// in one transaction. When invalidateRegistrations is set, the activity's
// registrations are removed in the same transaction, so a timing change can
// never be observed with stale enrollments.
func (r *ActivityRepository) UpdateActivity(ctx context.Context, activity persistence.Activity, invalidateRegistrations bool) error {
	if activity.ID == "" {
		return persistence.ErrNotFound
	}

	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		query := `
			UPDATE activities
			SET title = ?, description = ?, vacancy = ?, workload_minutes = ?,
				activity_category_id = ?, index_in_category = ?,
				ready_for_certificate_emission = ?, updated_at = ?
			WHERE id = ?
		`
		result, err := r.helper.ExecTx(tx, query,
			activity.Title,
			activity.Description,
			activity.Vacancy,
			activity.WorkloadMinutes,
			activity.ActivityCategoryID,
			activity.IndexInCategory,
			boolToInt(activity.ReadyForCertificateEmission),
			activity.UpdatedAt.UTC().Format(time.RFC3339),
			activity.ID,
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

		if err := r.replaceUserLinks(tx, "activity_responsibles", activity.ID, activity.ResponsibleUserIDs); err != nil {
			return err
		}
		if err := r.replaceUserLinks(tx, "activity_teachers", activity.ID, activity.TeachingUserIDs); err != nil {
			return err
		}
		if err := r.replaceSchedules(tx, activity.ID, activity.Schedules); err != nil {
			return err
		}

		if invalidateRegistrations {
			_, err := r.helper.ExecTx(tx, "DELETE FROM registrations WHERE activity_id = ?", activity.ID)
			if err != nil {
				return r.mapper.MapError(err)
			}
		}
		return nil
	})
}

// GetActivity retrieves an activity with its schedules and user links.
func (r *ActivityRepository) GetActivity(ctx context.Context, id string) (persistence.Activity, error) {
	if id == "" {
		return persistence.Activity{}, persistence.ErrNotFound
	}

	row := r.helper.QueryRow(ctx, `SELECT `+activityColumns+` FROM activities WHERE id = ?`, id)
	activity, err := r.scanActivity(row)
	if err != nil {
		return persistence.Activity{}, err
	}
	if err := r.loadChildren(ctx, &activity); err != nil {
		return persistence.Activity{}, err
	}
	return activity, nil
}

// ListActivitiesForEvent lists an event's activities ordered by category and index.
func (r *ActivityRepository) ListActivitiesForEvent(ctx context.Context, eventID string) ([]persistence.Activity, error) {
	return r.list(ctx,
		`SELECT `+activityColumns+` FROM activities WHERE event_id = ?
		 ORDER BY activity_category_id ASC, index_in_category ASC`,
		eventID)
}

// ListActivitiesInCategory lists the activities of one (event, category) pair.
func (r *ActivityRepository) ListActivitiesInCategory(ctx context.Context, eventID, activityCategoryID string) ([]persistence.Activity, error) {
	return r.list(ctx,
		`SELECT `+activityColumns+` FROM activities
		 WHERE event_id = ? AND activity_category_id = ?
		 ORDER BY index_in_category ASC`,
		eventID, activityCategoryID)
}

// ListSchedulesInRoom returns every schedule using the room across all activities.
func (r *ActivityRepository) ListSchedulesInRoom(ctx context.Context, roomID string) ([]persistence.Schedule, error) {
	rows, err := r.helper.Query(ctx,
		`SELECT id, activity_id, start_time, duration_minutes, room_id, url
		 FROM schedules WHERE room_id = ?
		 ORDER BY start_time ASC, id ASC`,
		roomID)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	return r.scanSchedules(rows)
}

// DeleteActivity removes an activity with its schedules, user links, and
// registrations.
func (r *ActivityRepository) DeleteActivity(ctx context.Context, id string) error {
	if id == "" {
		return persistence.ErrNotFound
	}

	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		for _, table := range []string{"registrations", "schedules", "activity_responsibles", "activity_teachers"} {
			_, err := r.helper.ExecTx(tx, "DELETE FROM "+table+" WHERE activity_id = ?", id)
			if err != nil {
				return r.mapper.MapError(err)
			}
		}

		result, err := r.helper.ExecTx(tx, "DELETE FROM activities WHERE id = ?", id)
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

func (r *ActivityRepository) list(ctx context.Context, query string, args ...interface{}) ([]persistence.Activity, error) {
	rows, err := r.helper.Query(ctx, query, args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var activities []persistence.Activity
	for rows.Next() {
		activity, err := r.scanActivity(rows)
		if err != nil {
			return nil, err
		}
		activities = append(activities, activity)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}

	for i := range activities {
		if err := r.loadChildren(ctx, &activities[i]); err != nil {
			return nil, err
		}
	}
	return activities, nil
}

func (r *ActivityRepository) scanActivity(row rowScanner) (persistence.Activity, error) {
	var activity persistence.Activity
	var ready int
	var createdStr, updatedStr string

	err := row.Scan(
		&activity.ID,
		&activity.EventID,
		&activity.Title,
		&activity.Description,
		&activity.Vacancy,
		&activity.WorkloadMinutes,
		&activity.ActivityCategoryID,
		&activity.IndexInCategory,
		&ready,
		&createdStr,
		&updatedStr,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return persistence.Activity{}, persistence.ErrNotFound
		}
		return persistence.Activity{}, r.mapper.MapError(err)
	}

	activity.ReadyForCertificateEmission = ready != 0
	if activity.CreatedAt, err = time.Parse(time.RFC3339, createdStr); err != nil {
		return persistence.Activity{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if activity.UpdatedAt, err = time.Parse(time.RFC3339, updatedStr); err != nil {
		return persistence.Activity{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	return activity, nil
}

func (r *ActivityRepository) loadChildren(ctx context.Context, activity *persistence.Activity) error {
	var err error
	if activity.ResponsibleUserIDs, err = r.loadUserLinks(ctx, "activity_responsibles", activity.ID); err != nil {
		return err
	}
	if activity.TeachingUserIDs, err = r.loadUserLinks(ctx, "activity_teachers", activity.ID); err != nil {
		return err
	}

	rows, err := r.helper.Query(ctx,
		`SELECT id, activity_id, start_time, duration_minutes, room_id, url
		 FROM schedules WHERE activity_id = ?
		 ORDER BY start_time ASC, id ASC`,
		activity.ID)
	if err != nil {
		return r.mapper.MapError(err)
	}
	defer rows.Close()

	activity.Schedules, err = r.scanSchedules(rows)
	return err
}

func (r *ActivityRepository) scanSchedules(rows *sql.Rows) ([]persistence.Schedule, error) {
	var schedules []persistence.Schedule
	for rows.Next() {
		var schedule persistence.Schedule
		var startStr string
		var roomID, url sql.NullString

		err := rows.Scan(
			&schedule.ID,
			&schedule.ActivityID,
			&startStr,
			&schedule.DurationMinutes,
			&roomID,
			&url,
		)
		if err != nil {
			return nil, r.mapper.MapError(err)
		}

		if roomID.Valid {
			schedule.RoomID = &roomID.String
		}
		if url.Valid {
			schedule.URL = &url.String
		}
		if schedule.Start, err = time.Parse(time.RFC3339, startStr); err != nil {
			return nil, fmt.Errorf("failed to parse start_time: %w", err)
		}
		schedules = append(schedules, schedule)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return schedules, nil
}

// replaceSchedules swaps the activity's schedule rows for the given set.
// Room occupancy is re-checked here, inside the caller's transaction, so two
// writers that both validated against the same pre-write occupancy cannot
// both commit a double booking.
func (r *ActivityRepository) replaceSchedules(tx *sql.Tx, activityID string, schedules []persistence.Schedule) error {
	_, err := r.helper.ExecTx(tx, "DELETE FROM schedules WHERE activity_id = ?", activityID)
	if err != nil {
		return r.mapper.MapError(err)
	}

	for _, schedule := range schedules {
		if err := r.ensureRoomFree(tx, activityID, schedule); err != nil {
			return err
		}
		var roomID sql.NullString
		if schedule.RoomID != nil {
			roomID.String = *schedule.RoomID
			roomID.Valid = true
		}
		var url sql.NullString
		if schedule.URL != nil {
			url.String = *schedule.URL
			url.Valid = true
		}

		_, err := r.helper.ExecTx(tx,
			`INSERT INTO schedules (id, activity_id, start_time, duration_minutes, room_id, url)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			schedule.ID,
			activityID,
			schedule.Start.UTC().Format(time.RFC3339),
			schedule.DurationMinutes,
			roomID,
			url,
		)
		if err != nil {
			return r.mapper.MapError(err)
		}
	}
	return nil
}

// ensureRoomFree queries for any schedule of another activity holding the
// same room during the half-open interval [start, start+duration). Touching
// endpoints do not collide.
func (r *ActivityRepository) ensureRoomFree(tx *sql.Tx, activityID string, schedule persistence.Schedule) error {
	if schedule.RoomID == nil || *schedule.RoomID == "" {
		return nil
	}

	start := schedule.Start.UTC().Format(time.RFC3339)
	var withScheduleID string
	err := r.helper.QueryRowTx(tx, `
		SELECT id FROM schedules
		WHERE room_id = ? AND activity_id != ?
		  AND datetime(start_time) < datetime(?, '+' || ? || ' minutes')
		  AND datetime(start_time, '+' || duration_minutes || ' minutes') > datetime(?)
		ORDER BY start_time ASC, id ASC
		LIMIT 1`,
		*schedule.RoomID, activityID, start, schedule.DurationMinutes, start,
	).Scan(&withScheduleID)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return r.mapper.MapError(err)
	}
	return &persistence.RoomConflictError{
		RoomID:         *schedule.RoomID,
		ScheduleID:     schedule.ID,
		WithScheduleID: withScheduleID,
	}
}

func (r *ActivityRepository) replaceUserLinks(tx *sql.Tx, table, activityID string, userIDs []string) error {
	_, err := r.helper.ExecTx(tx, "DELETE FROM "+table+" WHERE activity_id = ?", activityID)
	if err != nil {
		return r.mapper.MapError(err)
	}
	for _, userID := range userIDs {
		if userID == "" {
			continue
		}
		_, err := r.helper.ExecTx(tx,
			"INSERT INTO "+table+" (activity_id, user_id) VALUES (?, ?)",
			activityID, userID)
		if err != nil {
			return r.mapper.MapError(err)
		}
	}
	return nil
}

func (r *ActivityRepository) loadUserLinks(ctx context.Context, table, activityID string) ([]string, error) {
	rows, err := r.helper.Query(ctx,
		"SELECT user_id FROM "+table+" WHERE activity_id = ? ORDER BY user_id ASC", activityID)
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
