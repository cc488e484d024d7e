package studyapi

import (
	"io"

	"github.com/yungbote/neurobridge-companion/internal/domain/learning"
)

type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type UploadRequest struct {
	Title    string
	FileName string
	Content  io.Reader
}

type UploadResult struct {
	Message    string `json:"message"`
	MaterialID string `json:"material_id"`
}

type GenerateQuizRequest struct {
	MaterialID   string
	QuizType     learning.QuizKind
	QuestionType learning.QuestionType
}

type submitRequest struct {
	QuizID      string                  `json:"quiz_id"`
	UserAnswers []learning.AnswerRecord `json:"user_answers"`
}

// SubmitResult is the backend's authoritative grading.
type SubmitResult struct {
	Score          int `json:"score"`
	CorrectAnswers int `json:"correct_answers"`
	TotalQuestions int `json:"total_questions"`
}
