package model

// EventView is the wire shape of an Event.
type EventView struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description *string  `json:"description"`
	Location    *string  `json:"location"`
	Attendees   []string `json:"attendees"`
	Start       string   `json:"start"`
	End         string   `json:"end"`
	Status      string   `json:"status"`
	CreatedAt   string   `json:"createdAt"`
	UpdatedAt   string   `json:"updatedAt"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type DeleteResponse struct {
	Success bool `json:"success"`
}

type HealthResponse struct {
	OK bool `json:"ok"`
}
