package model

import (
	"time"

	"gorm.io/datatypes"
)

type EventStatus string

var (
	Confirmed EventStatus = "confirmed"
	Tentative EventStatus = "tentative"
	Cancelled EventStatus = "cancelled"
)

// Event is the only persisted record. SessionID is a partition key, it carries no ownership.
type Event struct {
	ID          string                      `gorm:"column:id;type:uuid"`
	SessionID   string                      `gorm:"column:session_id"`
	Title       string                      `gorm:"column:title"`
	Description *string                     `gorm:"column:description"`
	Location    *string                     `gorm:"column:location"`
	Attendees   datatypes.JSONSlice[string] `gorm:"column:attendees;type:jsonb"`
	Start       time.Time                   `gorm:"column:start_time"`
	End         time.Time                   `gorm:"column:end_time"`
	Status      EventStatus                 `gorm:"column:status"`
	CreatedAt   time.Time                   `gorm:"column:created_at"`
	UpdatedAt   time.Time                   `gorm:"column:updated_at"`
}

func (m *Event) TableName() string {
	return "events"
}

// Patchable fields, named as they appear in request bodies.
const (
	FieldTitle       = "title"
	FieldDescription = "description"
	FieldLocation    = "location"
	FieldAttendees   = "attendees"
	FieldStart       = "start"
	FieldEnd         = "end"
	FieldStatus      = "status"
)

// EventPatch holds the already validated values of a partial update keyed by
// request field name. Description and location may hold a nil *string, which clears them.
type EventPatch map[string]any

// Has reports whether the patch overrides field.
func (p EventPatch) Has(field string) bool {
	_, ok := p[field]
	return ok
}

// TimeRange bounds a listing. A record matches when its interval overlaps the
// range: end >= Start and start <= End, each check applied only when the bound is set.
type TimeRange struct {
	Start *time.Time
	End   *time.Time
}
