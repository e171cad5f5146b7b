package model

import (
	"encoding/json"
	"strings"
)

const attendeeSeparator = ";"

// EventCSV is one row of a session import/export file.
type EventCSV struct {
	Title       string `csv:"title"`
	Description string `csv:"description"`
	Location    string `csv:"location"`
	Attendees   string `csv:"attendees"`
	Start       string `csv:"start"`
	End         string `csv:"end"`
	Status      string `csv:"status"`
}

// Input turns the row into a create body. Empty optional cells are treated as absent.
func (r EventCSV) Input() map[string]json.RawMessage {
	body := map[string]json.RawMessage{}
	put := func(field string, v any) {
		b, _ := json.Marshal(v)
		body[field] = b
	}

	put(FieldTitle, r.Title)
	put(FieldStart, r.Start)
	put(FieldEnd, r.End)
	if r.Description != "" {
		put(FieldDescription, r.Description)
	}
	if r.Location != "" {
		put(FieldLocation, r.Location)
	}
	if r.Status != "" {
		put(FieldStatus, r.Status)
	}

	attendees := []string{}
	for _, a := range strings.Split(r.Attendees, attendeeSeparator) {
		if a = strings.TrimSpace(a); a != "" {
			attendees = append(attendees, a)
		}
	}
	put(FieldAttendees, attendees)
	return body
}

func NewEventCSV(e Event) EventCSV {
	row := EventCSV{
		Title:     e.Title,
		Attendees: strings.Join(e.Attendees, attendeeSeparator),
		Start:     FormatTimestamp(e.Start),
		End:       FormatTimestamp(e.End),
		Status:    string(e.Status),
	}
	if e.Description != nil {
		row.Description = *e.Description
	}
	if e.Location != nil {
		row.Location = *e.Location
	}
	return row
}
