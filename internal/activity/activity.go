// Package activity records what happened to the document store: uploads,
// deletions and questions.
package activity

import "time"

// Action describes what was done.
type Action string

const (
	ActionUpload Action = "upload"
	ActionDelete Action = "delete"
	ActionAsk    Action = "ask"
)

// Status is the outcome of an action.
type Status string

const (
	StatusOK    Status = "ok"
	StatusError Status = "error"
)

// Entry is a single activity record.
type Entry struct {
	ID        string        `json:"id"`
	Timestamp time.Time     `json:"timestamp"`
	Action    Action        `json:"action"`
	Status    Status        `json:"status"`
	Documents []string      `json:"documents"`
	Question  string        `json:"question,omitempty"`
	Answer    string        `json:"answer,omitempty"`
	Detail    string        `json:"detail,omitempty"`
	Duration  time.Duration `json:"duration"`
}
