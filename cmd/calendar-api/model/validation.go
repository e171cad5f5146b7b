package model

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
)

// TimestampFormat is the single text form used for every timestamp on the wire.
const TimestampFormat = "2006-01-02T15:04:05.000Z07:00"

// Accepted input layouts, tried in order. Layouts without a zone are read as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04",
	"2006-01-02",
	time.RFC1123Z,
	time.RFC1123,
	time.RFC850,
	time.ANSIC,
	"Jan 2, 2006 15:04:05",
	"Jan 2, 2006 15:04",
	"Jan 2, 2006",
	"January 2, 2006 15:04:05",
	"January 2, 2006 15:04",
	"January 2, 2006",
}

// CreateFields are the validated client-supplied values of a new event.
type CreateFields struct {
	Title       string
	Description *string
	Location    *string
	Attendees   []string
	Start       time.Time
	End         time.Time
	Status      EventStatus
}

// NewEvent builds the record to insert. CreatedAt and UpdatedAt are equal.
func (f CreateFields) NewEvent(id, sessionID string, now time.Time) Event {
	now = now.UTC().Truncate(time.Microsecond)
	return Event{
		ID:          id,
		SessionID:   sessionID,
		Title:       f.Title,
		Description: f.Description,
		Location:    f.Location,
		Attendees:   f.Attendees,
		Start:       f.Start,
		End:         f.End,
		Status:      f.Status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func ParseTimestamp(raw, field string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s != "" {
		for _, layout := range timestampLayouts {
			if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
				return t, nil
			}
		}
	}
	return time.Time{}, invalidField(field, "Invalid date for field %s", field)
}

func ValidateOrder(start, end time.Time) error {
	if !end.After(start) {
		return invalidField(FieldEnd, "end must be after start")
	}
	return nil
}

// DecodeBody reads a JSON object body. An empty body is an empty object.
func DecodeBody(data []byte) (map[string]json.RawMessage, error) {
	body := map[string]json.RawMessage{}
	if len(bytes.TrimSpace(data)) == 0 {
		return body, nil
	}
	if err := json.Unmarshal(data, &body); err != nil || body == nil {
		return nil, ErrInvalidBody
	}
	return body, nil
}

func ParseCreateInput(body map[string]json.RawMessage) (CreateFields, error) {
	var f CreateFields
	var err error

	if f.Title, err = requiredString(body, FieldTitle); err != nil {
		return CreateFields{}, err
	}
	startRaw, err := requiredString(body, FieldStart)
	if err != nil {
		return CreateFields{}, err
	}
	endRaw, err := requiredString(body, FieldEnd)
	if err != nil {
		return CreateFields{}, err
	}
	if f.Start, err = ParseTimestamp(startRaw, FieldStart); err != nil {
		return CreateFields{}, err
	}
	if f.End, err = ParseTimestamp(endRaw, FieldEnd); err != nil {
		return CreateFields{}, err
	}
	if err = ValidateOrder(f.Start, f.End); err != nil {
		return CreateFields{}, err
	}

	if f.Description, err = optionalString(body, FieldDescription); err != nil {
		return CreateFields{}, err
	}
	if f.Location, err = optionalString(body, FieldLocation); err != nil {
		return CreateFields{}, err
	}
	f.Attendees = attendees(body[FieldAttendees])
	if f.Status, err = status(body); err != nil {
		return CreateFields{}, err
	}
	return f, nil
}

// ParsePatchInput keeps only the fields present in body and checks the
// start/end pair that results from applying them to existing.
func ParsePatchInput(existing Event, body map[string]json.RawMessage) (EventPatch, error) {
	patch := EventPatch{}

	if _, ok := body[FieldTitle]; ok {
		title, err := requiredString(body, FieldTitle)
		if err != nil {
			return nil, invalidField(FieldTitle, "Field title must be a non-empty string")
		}
		patch[FieldTitle] = title
	}
	for _, field := range []string{FieldDescription, FieldLocation} {
		if _, ok := body[field]; !ok {
			continue
		}
		v, err := optionalString(body, field)
		if err != nil {
			return nil, err
		}
		patch[field] = v
	}
	if raw, ok := body[FieldAttendees]; ok {
		patch[FieldAttendees] = attendees(raw)
	}
	if _, ok := body[FieldStatus]; ok {
		s, err := status(body)
		if err != nil {
			return nil, err
		}
		patch[FieldStatus] = s
	}

	start, end := existing.Start, existing.End
	for _, field := range []string{FieldStart, FieldEnd} {
		raw, ok := body[field]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, invalidField(field, "Invalid date for field %s", field)
		}
		t, err := ParseTimestamp(s, field)
		if err != nil {
			return nil, err
		}
		patch[field] = t
		if field == FieldStart {
			start = t
		} else {
			end = t
		}
	}
	if err := ValidateOrder(start, end); err != nil {
		return nil, err
	}
	return patch, nil
}

func Serialize(e Event) EventView {
	attendees := []string(e.Attendees)
	if attendees == nil {
		attendees = []string{}
	}
	status := string(e.Status)
	if status == "" {
		status = string(Confirmed)
	}
	return EventView{
		ID:          e.ID,
		Title:       e.Title,
		Description: e.Description,
		Location:    e.Location,
		Attendees:   attendees,
		Start:       FormatTimestamp(e.Start),
		End:         FormatTimestamp(e.End),
		Status:      status,
		CreatedAt:   FormatTimestamp(e.CreatedAt),
		UpdatedAt:   FormatTimestamp(e.UpdatedAt),
	}
}

func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampFormat)
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func requiredString(body map[string]json.RawMessage, field string) (string, error) {
	raw, ok := body[field]
	if !ok || isNull(raw) {
		return "", missingField(field)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", invalidField(field, "Field %s must be a string", field)
	}
	if strings.TrimSpace(s) == "" {
		return "", missingField(field)
	}
	return s, nil
}

func optionalString(body map[string]json.RawMessage, field string) (*string, error) {
	raw, ok := body[field]
	if !ok || isNull(raw) {
		return nil, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, invalidField(field, "Field %s must be a string", field)
	}
	return &s, nil
}

// attendees falls back to an empty list for anything but an array of strings.
func attendees(raw json.RawMessage) []string {
	var out []string
	if len(raw) == 0 || json.Unmarshal(raw, &out) != nil || out == nil {
		return []string{}
	}
	return out
}

func status(body map[string]json.RawMessage) (EventStatus, error) {
	s, err := optionalString(body, FieldStatus)
	if err != nil {
		return "", err
	}
	if s == nil || *s == "" {
		return Confirmed, nil
	}
	return EventStatus(*s), nil
}
