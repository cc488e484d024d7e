package studyapi

import (
	"context"
	"net/http"
	"net/url"

	"github.com/yungbote/neurobridge-companion/internal/domain/learning"
	"github.com/yungbote/neurobridge-companion/internal/platform/apierr"
)

func formRequest(op, path string, values url.Values) request {
	return request{
		op:          op,
		method:      http.MethodPost,
		path:        path,
		contentType: "application/x-www-form-urlencoded",
		body:        []byte(values.Encode()),
	}
}

func (c *Client) GenerateQuiz(ctx context.Context, in GenerateQuizRequest) (*learning.Quiz, error) {
	r := formRequest("generate_quiz", "/quiz/generate", url.Values{
		"material_id":   {in.MaterialID},
		"quiz_type":     {string(in.QuizType)},
		"question_type": {string(in.QuestionType)},
	})
	var out learning.Quiz
	if err := c.do(ctx, r, &out); err != nil {
		return nil, classify(r.op, apierr.KindGeneration, err)
	}
	return &out, nil
}

func (c *Client) SubmitQuiz(ctx context.Context, quizID string, answers []learning.AnswerRecord) (SubmitResult, error) {
	r, err := jsonRequest("submit_quiz", http.MethodPost, "/quiz/"+url.PathEscape(quizID)+"/submit", submitRequest{
		QuizID:      quizID,
		UserAnswers: answers,
	})
	if err != nil {
		return SubmitResult{}, err
	}
	var out SubmitResult
	if err := c.do(ctx, r, &out); err != nil {
		return SubmitResult{}, classify(r.op, apierr.KindSubmission, err)
	}
	return out, nil
}

func (c *Client) GenerateFlashcards(ctx context.Context, materialID string) ([]learning.Flashcard, error) {
	r := formRequest("generate_flashcards", "/flashcards/generate", url.Values{"material_id": {materialID}})
	var out []learning.Flashcard
	if err := c.do(ctx, r, &out); err != nil {
		return nil, classify(r.op, apierr.KindGeneration, err)
	}
	return out, nil
}

func (c *Client) GetFlashcards(ctx context.Context, materialID string) ([]learning.Flashcard, error) {
	r := request{op: "get_flashcards", method: http.MethodGet, path: "/flashcards/" + url.PathEscape(materialID)}
	var out []learning.Flashcard
	if err := c.do(ctx, r, &out); err != nil {
		return nil, classify(r.op, apierr.KindGeneration, err)
	}
	return out, nil
}
