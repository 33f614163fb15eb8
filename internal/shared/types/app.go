package types

import "time"

// State represents instance lifecycle states
type State string

const (
	StateActive  State = "active"
	StateClosing State = "closing"
	StateClosed  State = "closed"
)

// Instance is the read-only view of a running application instance
type Instance struct {
	ID              string    `json:"id"`
	WindowID        string    `json:"window_id"`
	AppID           string    `json:"app_id"`
	Title           string    `json:"title"`
	TrustLevel      string    `json:"trust_level"`
	State           State     `json:"state"`
	Inspectable     bool      `json:"inspectable"`
	DisplayAffinity *int      `json:"display_affinity,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// Stats contains instance manager statistics
type Stats struct {
	TotalInstances  int            `json:"total_instances"`
	ActiveInstances int            `json:"active_instances"`
	ByTrustLevel    map[string]int `json:"by_trust_level"`
	ContainerAppID  string         `json:"container_app_id,omitempty"`
	ContainerReady  bool           `json:"container_ready"`
}
