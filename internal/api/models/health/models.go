package health

import "time"

const (
	Healthy     = "healthy"
	ServiceName = "open-app-config"
)

type Status struct {
	Status    string    `json:"status" example:"healthy"`
	Service   string    `json:"service" example:"open-app-config"`
	Timestamp time.Time `json:"timestamp" swaggertype:"string" format:"date-time"`
}
