package apis

import (
	"calendar-sessions-backend/cmd/calendar-api/model"
	"context"
	"sort"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"
)

// MockEventRepo implements IEventRepo interface for testing
type MockEventRepo struct {
	mock.Mock
}

func (m *MockEventRepo) ListEvents(ctx context.Context, sessionID string, rng model.TimeRange) ([]model.Event, error) {
	args := m.Called(ctx, sessionID, rng)
	return args.Get(0).([]model.Event), args.Error(1)
}

func (m *MockEventRepo) GetEvent(ctx context.Context, sessionID, id string) (model.Event, bool, error) {
	args := m.Called(ctx, sessionID, id)
	return args.Get(0).(model.Event), args.Bool(1), args.Error(2)
}

func (m *MockEventRepo) CreateEvent(ctx context.Context, event model.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockEventRepo) UpdateEvent(ctx context.Context, sessionID, id string, patch model.EventPatch, unmodifiedSince time.Time) (model.Event, bool, error) {
	args := m.Called(ctx, sessionID, id, patch, unmodifiedSince)
	return args.Get(0).(model.Event), args.Bool(1), args.Error(2)
}

func (m *MockEventRepo) DeleteEvent(ctx context.Context, sessionID, id string) (bool, error) {
	args := m.Called(ctx, sessionID, id)
	return args.Bool(0), args.Error(1)
}

// MockSessionRepo implements ISessionRepo interface for testing
type MockSessionRepo struct {
	mock.Mock
}

func (m *MockSessionRepo) ListSessions(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	return args.Get(0).([]string), args.Error(1)
}

// memoryRepo keeps events in memory with the same filtering rules as the
// Postgres repository, so whole request flows can be exercised.
type memoryRepo struct {
	mu     sync.Mutex
	events map[string]model.Event
	now    func() time.Time
}

func newMemoryRepo(now func() time.Time) *memoryRepo {
	return &memoryRepo{events: map[string]model.Event{}, now: now}
}

func key(sessionID, id string) string { return sessionID + "\x00" + id }

func (r *memoryRepo) ListEvents(_ context.Context, sessionID string, rng model.TimeRange) ([]model.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := []model.Event{}
	for _, e := range r.events {
		if e.SessionID != sessionID {
			continue
		}
		if rng.Start != nil && e.End.Before(*rng.Start) {
			continue
		}
		if rng.End != nil && e.Start.After(*rng.End) {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out, nil
}

func (r *memoryRepo) GetEvent(_ context.Context, sessionID, id string) (model.Event, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.events[key(sessionID, id)]
	return e, ok, nil
}

func (r *memoryRepo) CreateEvent(_ context.Context, event model.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, e := range r.events {
		if e.ID == event.ID {
			return model.ErrConflict
		}
	}
	r.events[key(event.SessionID, event.ID)] = event
	return nil
}

func (r *memoryRepo) UpdateEvent(_ context.Context, sessionID, id string, patch model.EventPatch, unmodifiedSince time.Time) (model.Event, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.events[key(sessionID, id)]
	if !ok {
		return model.Event{}, false, nil
	}
	if !unmodifiedSince.IsZero() && !e.UpdatedAt.Equal(unmodifiedSince) {
		return model.Event{}, true, model.ErrStaleEvent
	}

	for field, v := range patch {
		switch field {
		case model.FieldTitle:
			e.Title = v.(string)
		case model.FieldDescription:
			e.Description = v.(*string)
		case model.FieldLocation:
			e.Location = v.(*string)
		case model.FieldAttendees:
			e.Attendees = v.([]string)
		case model.FieldStart:
			e.Start = v.(time.Time)
		case model.FieldEnd:
			e.End = v.(time.Time)
		case model.FieldStatus:
			e.Status = v.(model.EventStatus)
		}
	}

	now := r.now().UTC()
	if !now.After(e.UpdatedAt) {
		now = e.UpdatedAt.Add(time.Millisecond)
	}
	e.UpdatedAt = now

	r.events[key(sessionID, id)] = e
	return e, true, nil
}

func (r *memoryRepo) DeleteEvent(_ context.Context, sessionID, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.events[key(sessionID, id)]; !ok {
		return false, nil
	}
	delete(r.events, key(sessionID, id))
	return true, nil
}

func (r *memoryRepo) ListSessions(_ context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	seen := map[string]bool{}
	out := []string{}
	for _, e := range r.events {
		if !seen[e.SessionID] {
			seen[e.SessionID] = true
			out = append(out, e.SessionID)
		}
	}
	sort.Strings(out)
	return out, nil
}
