package apis

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
)

type ISessionRepo interface {
	ListSessions(ctx context.Context) ([]string, error)
}

type SessionAPI struct {
	sessionRepo ISessionRepo
}

func NewSessionAPI(sessionRepo ISessionRepo) *SessionAPI {
	return &SessionAPI{
		sessionRepo: sessionRepo,
	}
}

func (a *SessionAPI) Setup(g *echo.Group) {
	g.GET("/sessions", a.listSessions)
}

func (a *SessionAPI) listSessions(c echo.Context) error {

	sessions, err := a.sessionRepo.ListSessions(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, sessions)
}
