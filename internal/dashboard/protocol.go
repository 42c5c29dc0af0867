// Package dashboard keeps the live metrics view in sync with the push
// channel and renders it for the terminal.
package dashboard

import (
	"encoding/json"
	"fmt"
)

// MessageType is the "type" field of a push message.
type MessageType string

const (
	TypeMetrics MessageType = "metrics"
	TypeAgents  MessageType = "agents"
	TypeAlert   MessageType = "alert"
)

// Envelope is one push message: {"type": ..., "payload": ...}.
type Envelope struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Metrics is the aggregate snapshot pushed every few seconds. Missing
// fields decode as zero.
type Metrics struct {
	RequestRate float64 `json:"requestRate"`
	AvgResponse float64 `json:"avgResponse"`
	ErrorRate   float64 `json:"errorRate"`
	QueueSize   int     `json:"queueSize"`
}

// Agent is one roster entry.
type Agent struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Role           string  `json:"role"`
	Status         string  `json:"status"`
	TasksCompleted int     `json:"tasksCompleted"`
	AvgTime        int     `json:"avgTime"`
	Errors         int     `json:"errors"`
	Progress       float64 `json:"progress"`
	CurrentTask    string  `json:"currentTask"`
}

// Severity values used by alerts.
const (
	SeveritySuccess = "success"
	SeverityInfo    = "info"
	SeverityWarning = "warning"
	SeverityError   = "error"
)

type Alert struct {
	Message  string `json:"message"`
	Severity string `json:"severity"`
}

// Snapshot is the bootstrap document served by /api/dashboard/data.
type Snapshot struct {
	Metrics Metrics `json:"metrics"`
	Agents  []Agent `json:"agents"`
}

// NewEnvelope encodes payload under the given type.
func NewEnvelope(t MessageType, payload any) (Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("encode %s payload: %w", t, err)
	}
	return Envelope{Type: t, Payload: raw}, nil
}

// Decode parses a push message. Unknown types are accepted here and
// ignored by State.Apply.
func Decode(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, fmt.Errorf("decode push message: %w", err)
	}
	return env, nil
}
