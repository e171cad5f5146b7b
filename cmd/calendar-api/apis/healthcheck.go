package apis

import (
	"calendar-sessions-backend/cmd/calendar-api/model"
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
)

type Pinger interface {
	PingContext(ctx context.Context) error
}

type HealthCheckAPI struct {
	db Pinger
}

func NewHealthCheckAPI(db Pinger) *HealthCheckAPI {
	return &HealthCheckAPI{
		db: db,
	}
}

// Setup registers the liveness marker. It never touches the database.
func (a *HealthCheckAPI) Setup(g *echo.Group) {
	g.GET("/health", a.healthCheck)
}

// SetupReadiness registers the database-backed probe on the admin listener.
func (a *HealthCheckAPI) SetupReadiness(g *echo.Group) {
	g.GET("/readyz", a.readinessCheck)
}

func (a *HealthCheckAPI) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, model.HealthResponse{OK: true})
}

func (a *HealthCheckAPI) readinessCheck(c echo.Context) error {

	err := a.db.PingContext(c.Request().Context())
	if err != nil {
		return c.JSON(
			http.StatusServiceUnavailable,
			model.ErrorResponse{
				Error: err.Error(),
			},
		)
	}

	return c.JSON(http.StatusOK, model.HealthResponse{OK: true})
}
