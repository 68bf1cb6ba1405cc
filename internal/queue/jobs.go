package queue

import (
	"encoding/json"
	"time"
)

type JobType string

const (
	JobWelcomeEmail JobType = "welcome_email"
)

// check to see if the job type is a known constant
func (t JobType) IsValid() bool {
	switch t {
	case JobWelcomeEmail:
		return true
	default:
		return false
	}
}

// Job is the envelope that travels through the redis list.
type Job struct {
	ID         string          `json:"id"`
	Type       JobType         `json:"type"`
	Payload    json.RawMessage `json:"payload"`
	Attempts   int             `json:"attempts"`
	EnqueuedAt time.Time       `json:"enqueuedAt"`
}

type WelcomeEmailPayload struct {
	UserID   string `json:"userId"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Username string `json:"username"`
}
