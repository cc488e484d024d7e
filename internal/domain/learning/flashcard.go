package learning

import "github.com/yungbote/neurobridge-companion/internal/pkg/wiretime"

type Flashcard struct {
	ID          string        `json:"id"`
	MaterialID  string        `json:"material_id"`
	Question    string        `json:"question"`
	Answer      string        `json:"answer"`
	Explanation string        `json:"explanation"`
	CreatedAt   wiretime.Time `json:"created_at"`
}
