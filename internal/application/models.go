package application

import "time"

// Event represents a time-bounded container of activities, such as one
// edition of a conference.
type Event struct {
	ID                 string
	Edition            int
	Description        string
	Area               string
	StartDate          time.Time
	EndDate            time.Time
	RegistryStartDate  time.Time
	RegistryEndDate    time.Time
	StatusActive       bool
	StatusVisible      bool
	EventCategoryID    string
	ResponsibleUserIDs []string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// EventInput captures caller provided event fields.
type EventInput struct {
	Edition            int
	Description        string
	Area               string
	StartDate          time.Time
	EndDate            time.Time
	RegistryStartDate  time.Time
	RegistryEndDate    time.Time
	StatusActive       bool
	StatusVisible      bool
	EventCategoryID    string
	ResponsibleUserIDs []string
}

// CreateEventParams wraps the data required to create an event.
type CreateEventParams struct {
	Input EventInput
}

// UpdateEventParams wraps the data required to update an existing event.
type UpdateEventParams struct {
	EventID string
	Input   EventInput
}

// Activity represents a schedulable unit of programming within an event.
type Activity struct {
	ID                          string
	EventID                     string
	Title                       string
	Description                 string
	Vacancy                     int
	WorkloadMinutes             int
	ActivityCategoryID          string
	IndexInCategory             int
	ResponsibleUserIDs          []string
	TeachingUserIDs             []string
	ReadyForCertificateEmission bool
	Schedules                   []Schedule
	CreatedAt                   time.Time
	UpdatedAt                   time.Time
}

// Schedule represents one concrete time/place occurrence of an activity.
type Schedule struct {
	ID              string
	ActivityID      string
	Start           time.Time
	DurationMinutes int
	RoomID          *string
	URL             *string
}

// End derives the schedule's exclusive end instant.
func (s Schedule) End() time.Time {
	return s.Start.Add(time.Duration(s.DurationMinutes) * time.Minute)
}

// ScheduleInput captures caller provided schedule fields. An empty ID marks a
// schedule to be created; a non-empty ID must reference a persisted schedule
// of the same activity.
type ScheduleInput struct {
	ID              string
	Start           time.Time
	DurationMinutes int
	RoomID          *string
	URL             *string
}

// ActivityInput captures caller provided activity fields. IndexInCategory is
// intentionally absent: the system assigns it and silently discards any value
// a client submits.
type ActivityInput struct {
	EventID                     string
	Title                       string
	Description                 string
	Vacancy                     int
	WorkloadMinutes             int
	ActivityCategoryID          string
	ResponsibleUserIDs          []string
	TeachingUserIDs             []string
	ReadyForCertificateEmission bool
	Schedules                   []ScheduleInput
}

// CreateActivityParams wraps the data required to create an activity.
type CreateActivityParams struct {
	Input ActivityInput
}

// UpdateActivityParams wraps the data required to update an existing activity.
type UpdateActivityParams struct {
	ActivityID string
	Input      ActivityInput
}

// Registration represents a user's enrollment in an activity.
type Registration struct {
	ID           string
	ActivityID   string
	UserID       string
	RegisteredAt time.Time
}

// RegisterParams wraps the data required to enroll a user in an activity.
type RegisterParams struct {
	ActivityID string
	UserID     string
}
