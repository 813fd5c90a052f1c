package model

import "time"

// Holiday is one jurisdiction holiday at day granularity.
type Holiday struct {
	Date time.Time `json:"date"`
	Name string    `json:"name,omitempty"`
}
