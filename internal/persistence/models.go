package persistence

import "time"

// Event is a time-bounded container of activities stored in persistence.
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

// Activity is a schedulable unit of programming owned by exactly one event.
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

// Schedule is one concrete time/place occurrence of an activity. A schedule
// row never exists without its owning activity.
type Schedule struct {
	ID              string
	ActivityID      string
	Start           time.Time
	DurationMinutes int
	RoomID          *string
	URL             *string
}

// Registration links a user to an activity at a point in time.
type Registration struct {
	ID           string
	ActivityID   string
	UserID       string
	RegisteredAt time.Time
}
