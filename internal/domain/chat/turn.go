package chat

import "time"

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	// RoleError marks an assistant-side turn that carries a failure notice instead of an answer.
	RoleError Role = "error"
)

type Turn struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	RequestID string    `json:"request_id,omitempty"`
	At        time.Time `json:"at"`
}

// Reply is the backend answer to a single question.
type Reply struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}
