package repository

import (
	"calendar-sessions-backend/cmd/calendar-api/model"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const uniqueViolation = "23505"

type EventRepo struct {
	db  *gorm.DB
	now func() time.Time
}

func NewEventRepo(db *gorm.DB) *EventRepo {
	return &EventRepo{
		db:  db,
		now: time.Now,
	}
}

func (r *EventRepo) ListEvents(ctx context.Context, sessionID string, rng model.TimeRange) ([]model.Event, error) {

	events := []model.Event{}

	query := r.db.
		WithContext(ctx).
		Where("session_id = ?", sessionID)
	if rng.Start != nil {
		query = query.Where("end_time >= ?", *rng.Start)
	}
	if rng.End != nil {
		query = query.Where("start_time <= ?", *rng.End)
	}

	result := query.
		Order("start_time ASC").
		Order("created_at ASC").
		Find(&events)

	if result.Error != nil {
		return nil, fmt.Errorf("list events: %w", result.Error)
	}

	return events, nil
}

func (r *EventRepo) GetEvent(ctx context.Context, sessionID, id string) (model.Event, bool, error) {

	var event model.Event

	result := r.db.
		WithContext(ctx).
		Where("session_id = ? AND id = ?", sessionID, id).
		Take(&event)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return model.Event{}, false, nil
	}
	if result.Error != nil {
		return model.Event{}, false, fmt.Errorf("get event: %w", result.Error)
	}

	return event, true, nil
}

func (r *EventRepo) CreateEvent(ctx context.Context, event model.Event) error {

	if event.Attendees == nil {
		event.Attendees = []string{}
	}
	if event.Status == "" {
		event.Status = model.Confirmed
	}

	result := r.db.
		WithContext(ctx).
		Create(&event)

	if result.Error != nil {
		var pgErr *pgconn.PgError
		if errors.As(result.Error, &pgErr) && pgErr.Code == uniqueViolation {
			return model.ErrConflict
		}
		return fmt.Errorf("create event: %w", result.Error)
	}

	return nil
}

// UpdateEvent applies patch to the record and returns the stored result.
// A non-zero unmodifiedSince makes the write conditional on the record still
// carrying that updated_at; a mismatch yields model.ErrStaleEvent.
func (r *EventRepo) UpdateEvent(ctx context.Context, sessionID, id string, patch model.EventPatch, unmodifiedSince time.Time) (model.Event, bool, error) {

	var updated model.Event

	err := r.db.
		WithContext(ctx).
		Transaction(func(tx *gorm.DB) error {
			query := tx.
				Model(&model.Event{}).
				Where("session_id = ? AND id = ?", sessionID, id)
			if !unmodifiedSince.IsZero() {
				query = query.Where("updated_at = ?", unmodifiedSince)
			}

			result := query.Updates(patchAssignments(patch, r.now()))
			if result.Error != nil {
				return result.Error
			}

			if result.RowsAffected == 0 {
				var count int64
				if err := tx.
					Model(&model.Event{}).
					Where("session_id = ? AND id = ?", sessionID, id).
					Count(&count).Error; err != nil {
					return err
				}
				if count == 0 {
					return gorm.ErrRecordNotFound
				}
				return model.ErrStaleEvent
			}

			return tx.
				Where("session_id = ? AND id = ?", sessionID, id).
				Take(&updated).Error
		})

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return model.Event{}, false, nil
	case errors.Is(err, model.ErrStaleEvent):
		return model.Event{}, true, err
	case err != nil:
		return model.Event{}, false, fmt.Errorf("update event: %w", err)
	}

	return updated, true, nil
}

func (r *EventRepo) DeleteEvent(ctx context.Context, sessionID, id string) (bool, error) {

	result := r.db.
		WithContext(ctx).
		Where("session_id = ? AND id = ?", sessionID, id).
		Delete(&model.Event{})

	if result.Error != nil {
		return false, fmt.Errorf("delete event: %w", result.Error)
	}

	return result.RowsAffected > 0, nil
}

func (r *EventRepo) ListSessions(ctx context.Context) ([]string, error) {

	sessions := []string{}

	result := r.db.
		WithContext(ctx).
		Model(&model.Event{}).
		Distinct().
		Order("session_id ASC").
		Pluck("session_id", &sessions)

	if result.Error != nil {
		return nil, fmt.Errorf("list sessions: %w", result.Error)
	}

	return sessions, nil
}

// patchAssignments maps request field names onto columns. Only known fields
// reach the SET clause; updated_at always moves forward, by at least 1ms.
func patchAssignments(patch model.EventPatch, now time.Time) map[string]any {
	set := map[string]any{
		"updated_at": gorm.Expr("GREATEST(?, updated_at + interval '1 millisecond')", now.UTC()),
	}

	for field, value := range patch {
		switch field {
		case model.FieldTitle:
			set["title"] = value
		case model.FieldDescription:
			set["description"] = nullableText(value)
		case model.FieldLocation:
			set["location"] = nullableText(value)
		case model.FieldAttendees:
			attendees, _ := value.([]string)
			if attendees == nil {
				attendees = []string{}
			}
			set["attendees"] = datatypes.JSONSlice[string](attendees)
		case model.FieldStart:
			set["start_time"] = value
		case model.FieldEnd:
			set["end_time"] = value
		case model.FieldStatus:
			if status, ok := value.(model.EventStatus); ok {
				set["status"] = string(status)
			}
		}
	}

	return set
}

func nullableText(value any) any {
	if s, ok := value.(*string); ok && s != nil {
		return *s
	}
	return nil
}
