package apis

import (
	"calendar-sessions-backend/cmd/calendar-api/model"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type IEventRepo interface {
	ListEvents(ctx context.Context, sessionID string, rng model.TimeRange) ([]model.Event, error)
	GetEvent(ctx context.Context, sessionID, id string) (model.Event, bool, error)
	CreateEvent(ctx context.Context, event model.Event) error
	UpdateEvent(ctx context.Context, sessionID, id string, patch model.EventPatch, unmodifiedSince time.Time) (model.Event, bool, error)
	DeleteEvent(ctx context.Context, sessionID, id string) (bool, error)
}

type EventAPI struct {
	eventRepo IEventRepo
	newID     func() (uuid.UUID, error)
	now       func() time.Time
}

func NewEventAPI(eventRepo IEventRepo) *EventAPI {

	return &EventAPI{
		eventRepo: eventRepo,
		newID:     uuid.NewV7,
		now:       time.Now,
	}
}

func (a *EventAPI) Setup(g *echo.Group) {
	g.GET("/sessions/:sid/events", a.listEvents, requireSession)
	g.POST("/sessions/:sid/events", a.createEvent, requireSession)
	g.GET("/sessions/:sid/events/:id", a.getEvent, requireSession, requireSingleSegment)
	g.PATCH("/sessions/:sid/events/:id", a.updateEvent, requireSession, requireSingleSegment)
	g.DELETE("/sessions/:sid/events/:id", a.deleteEvent, requireSession, requireSingleSegment)
}

// requireSession rejects an empty session segment as an unknown route.
func requireSession(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if c.Param("sid") == "" {
			return echo.ErrNotFound
		}
		return next(c)
	}
}

// requireSingleSegment rejects paths where the trailing :id swallowed further
// segments, e.g. /sessions/S1/events/<id>/extra.
func requireSingleSegment(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if strings.Contains(c.Param("id"), "/") {
			return echo.ErrNotFound
		}
		return next(c)
	}
}

func (a *EventAPI) listEvents(c echo.Context) error {

	ctx := c.Request().Context()

	var rng model.TimeRange
	for _, q := range []struct {
		param string
		bound **time.Time
	}{
		{"range_start", &rng.Start},
		{"range_end", &rng.End},
	} {
		raw := c.QueryParam(q.param)
		if raw == "" {
			continue
		}
		t, err := model.ParseTimestamp(raw, q.param)
		if err != nil {
			return respondError(c, err)
		}
		*q.bound = &t
	}

	events, err := a.eventRepo.ListEvents(ctx, c.Param("sid"), rng)
	if err != nil {
		return respondError(c, err)
	}

	views := make([]model.EventView, 0, len(events))
	for _, event := range events {
		views = append(views, model.Serialize(event))
	}

	return c.JSON(http.StatusOK, views)
}

func (a *EventAPI) createEvent(c echo.Context) error {

	ctx := c.Request().Context()

	body, err := readBody(c)
	if err != nil {
		return respondError(c, err)
	}

	fields, err := model.ParseCreateInput(body)
	if err != nil {
		return respondError(c, err)
	}

	id, err := a.newID()
	if err != nil {
		return respondError(c, err)
	}

	event := fields.NewEvent(id.String(), c.Param("sid"), a.now())
	err = a.eventRepo.CreateEvent(
		ctx,
		event,
	)

	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusCreated, model.Serialize(event))
}

func (a *EventAPI) getEvent(c echo.Context) error {

	ctx := c.Request().Context()

	id, ok := eventID(c)
	if !ok {
		return respondError(c, model.ErrNotFound)
	}

	event, found, err := a.eventRepo.GetEvent(ctx, c.Param("sid"), id)
	if err != nil {
		return respondError(c, err)
	}
	if !found {
		return respondError(c, model.ErrNotFound)
	}

	return c.JSON(http.StatusOK, model.Serialize(event))
}

func (a *EventAPI) updateEvent(c echo.Context) error {

	ctx := c.Request().Context()
	sessionID := c.Param("sid")

	id, ok := eventID(c)
	if !ok {
		return respondError(c, model.ErrNotFound)
	}

	body, err := readBody(c)
	if err != nil {
		return respondError(c, err)
	}

	existing, found, err := a.eventRepo.GetEvent(ctx, sessionID, id)
	if err != nil {
		return respondError(c, err)
	}
	if !found {
		return respondError(c, model.ErrNotFound)
	}

	patch, err := model.ParsePatchInput(existing, body)
	if err != nil {
		return respondError(c, err)
	}

	// The write only lands if nobody changed the record since it was validated above.
	updated, found, err := a.eventRepo.UpdateEvent(ctx, sessionID, id, patch, existing.UpdatedAt)
	if err != nil {
		return respondError(c, err)
	}
	if !found {
		return respondError(c, model.ErrNotFound)
	}

	return c.JSON(http.StatusOK, model.Serialize(updated))
}

func (a *EventAPI) deleteEvent(c echo.Context) error {

	ctx := c.Request().Context()

	id, ok := eventID(c)
	if !ok {
		return c.JSON(http.StatusOK, model.DeleteResponse{Success: false})
	}

	removed, err := a.eventRepo.DeleteEvent(ctx, c.Param("sid"), id)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, model.DeleteResponse{Success: removed})
}

// eventID returns the :id path segment when it can name a stored record.
func eventID(c echo.Context) (string, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return "", false
	}
	return id.String(), true
}

func readBody(c echo.Context) (map[string]json.RawMessage, error) {
	data, err := io.ReadAll(c.Request().Body)
	if err != nil {
		if he, ok := err.(*echo.HTTPError); ok {
			return nil, he
		}
		return nil, model.ErrInvalidBody
	}
	return model.DecodeBody(data)
}
