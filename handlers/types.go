package handlers

import "time"

// RegisterRequest is the optional body of POST /{group}/{id}.
type RegisterRequest struct {
	Meta map[string]any `json:"meta"`
}

// InstanceInfo is one registered instance.
type InstanceInfo struct {
	Id        string         `json:"id"`
	Group     string         `json:"group"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	Meta      map[string]any `json:"meta"`
}

// GroupSummaryInfo is one entry of GET /.
type GroupSummaryInfo struct {
	Group         string    `json:"group"`
	Instances     int       `json:"instances"`
	CreatedAt     time.Time `json:"createdAt"`
	LastUpdatedAt time.Time `json:"lastUpdatedAt"`
}

// MessageResponse carries a human-readable confirmation.
type MessageResponse struct {
	Message string `json:"message"`
}

// HealthResponse is the body of a successful GET /healthz.
type HealthResponse struct {
	Status string `json:"status"`
}
