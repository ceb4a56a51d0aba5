package api

import (
	"time"

	"github.com/dd0wney/apwr-dropcalc/pkg/config"
	"github.com/dd0wney/apwr-dropcalc/pkg/topology"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string       `json:"error"`
	Message string       `json:"message"`
	Code    int          `json:"code"`
	Fields  []FieldError `json:"fields,omitempty"`
}

// FieldError is one rejected input value.
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
	Value  any    `json:"value,omitempty"`
}

// ValidateResponse answers /api/v1/validate.
type ValidateResponse struct {
	Valid  bool `json:"valid"`
	Hubs   int  `json:"hubs"`
	Links  int  `json:"links"`
	Anodes int  `json:"anodes"`
}

// DefaultsResponse lists the values used for anything a request omits.
type DefaultsResponse struct {
	Params             config.SystemParams `json:"params"`
	Topology           topology.Spec       `json:"topology"`
	AllowedDropPercent float64             `json:"allowed_drop_percent"`
}

// PublishResponse lists the objects written by /api/v1/publish.
type PublishResponse struct {
	CalculationID string   `json:"calculation_id"`
	Status        string   `json:"status"`
	Keys          []string `json:"keys"`
}

// InfoResponse answers GET /.
type InfoResponse struct {
	Service string    `json:"service"`
	Version string    `json:"version"`
	Started time.Time `json:"started"`
	Formats []string  `json:"formats"`
	Routes  []string  `json:"routes"`
}
