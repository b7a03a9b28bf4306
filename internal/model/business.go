// Package model defines the persisted shapes shared by the store, the
// aggregator, and the command surface.
package model

import "time"

// Business is one tracked business in a consulting organization's portfolio.
type Business struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}
