package persist

import "time"

// Agent is one roster row as pushed to dashboards.
type Agent struct {
	ID             string
	Position       int
	Name           string
	Role           string
	Status         string // "active" | "idle" | "error"
	TasksCompleted int
	AvgTimeMs      int
	Errors         int
	Progress       float64
	CurrentTask    string
	UpdatedAt      time.Time
}

// AlertRecord is an alert broadcast through the server.
type AlertRecord struct {
	ID        int64
	Message   string
	Severity  string
	CreatedAt time.Time
}
