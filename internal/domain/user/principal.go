package user

import "github.com/yungbote/neurobridge-companion/internal/pkg/wiretime"

// Principal is the authenticated user as reported by the backend.
type Principal struct {
	ID        string        `json:"id"`
	Email     string        `json:"email"`
	FullName  string        `json:"full_name"`
	CreatedAt wiretime.Time `json:"created_at"`
}

func (p Principal) IsZero() bool { return p.ID == "" }
