package learning

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/yungbote/neurobridge-companion/internal/pkg/wiretime"
)

type QuizKind string

const (
	QuizKindPractice QuizKind = "practice"
	QuizKindTest     QuizKind = "test"
)

func (k QuizKind) Valid() bool { return k == QuizKindPractice || k == QuizKindTest }

type QuestionType string

const (
	QuestionTypeMultipleChoice QuestionType = "mcq"
	QuestionTypeShortAnswer    QuestionType = "short_answer"
)

func (t QuestionType) Valid() bool {
	return t == QuestionTypeMultipleChoice || t == QuestionTypeShortAnswer
}

// TimeLimitFor returns the countdown for a quiz configuration. Practice quizzes have none.
func TimeLimitFor(kind QuizKind, qt QuestionType) time.Duration {
	if kind != QuizKindTest {
		return 0
	}
	if qt == QuestionTypeShortAnswer {
		return 30 * time.Minute
	}
	return 15 * time.Minute
}

// QuestionBody is the type-specific part of a Question: MultipleChoice or ShortAnswer.
type QuestionBody interface {
	Type() QuestionType
}

type MultipleChoice struct {
	Options []string
}

func (MultipleChoice) Type() QuestionType { return QuestionTypeMultipleChoice }

type ShortAnswer struct{}

func (ShortAnswer) Type() QuestionType { return QuestionTypeShortAnswer }

type Question struct {
	ID              string
	Prompt          string
	ReferenceAnswer string
	Explanation     string
	Body            QuestionBody
}

func (q Question) Type() QuestionType {
	if q.Body == nil {
		return QuestionTypeShortAnswer
	}
	return q.Body.Type()
}

// Options returns the choices of a multiple-choice question and nil otherwise.
func (q Question) Options() []string {
	if mc, ok := q.Body.(MultipleChoice); ok {
		return mc.Options
	}
	return nil
}

type questionWire struct {
	ID           string       `json:"id"`
	Question     string       `json:"question"`
	Options      []string     `json:"options,omitempty"`
	Answer       string       `json:"answer"`
	Explanation  string       `json:"explanation"`
	QuestionType QuestionType `json:"question_type"`
}

func (q Question) MarshalJSON() ([]byte, error) {
	return json.Marshal(questionWire{
		ID:           q.ID,
		Question:     q.Prompt,
		Options:      q.Options(),
		Answer:       q.ReferenceAnswer,
		Explanation:  q.Explanation,
		QuestionType: q.Type(),
	})
}

func (q *Question) UnmarshalJSON(data []byte) error {
	var w questionWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	options := lo.Filter(w.Options, func(o string, _ int) bool { return strings.TrimSpace(o) != "" })

	qt := w.QuestionType
	if qt == "" {
		qt = QuestionTypeShortAnswer
		if len(options) > 0 {
			qt = QuestionTypeMultipleChoice
		}
	}

	var body QuestionBody
	switch qt {
	case QuestionTypeMultipleChoice:
		if len(options) == 0 {
			return fmt.Errorf("question %q: multiple-choice question without options", w.ID)
		}
		body = MultipleChoice{Options: options}
	case QuestionTypeShortAnswer:
		body = ShortAnswer{}
	default:
		return fmt.Errorf("question %q: unknown question_type %q", w.ID, qt)
	}

	*q = Question{
		ID:              w.ID,
		Prompt:          w.Question,
		ReferenceAnswer: w.Answer,
		Explanation:     w.Explanation,
		Body:            body,
	}
	return nil
}

type Quiz struct {
	ID               string        `json:"id"`
	MaterialID       string        `json:"material_id"`
	Title            string        `json:"title"`
	Kind             QuizKind      `json:"quiz_type"`
	TimeLimitMinutes int           `json:"time_limit"`
	Questions        []Question    `json:"questions"`
	CreatedAt        wiretime.Time `json:"created_at"`
}

func (q *Quiz) QuestionCount() int {
	if q == nil {
		return 0
	}
	return len(q.Questions)
}

// QuestionByID returns the question with id and whether it exists.
func (q *Quiz) QuestionByID(id string) (Question, bool) {
	if q == nil {
		return Question{}, false
	}
	return lo.Find(q.Questions, func(item Question) bool { return item.ID == id })
}

type AnswerRecord struct {
	QuestionID string `json:"question_id"`
	Answer     string `json:"answer"`
}

// MatchesReference is the lenient local grading rule: the reference answer, lower-cased and
// trimmed, must appear inside the submitted answer. It is for display only.
func MatchesReference(submitted, reference string) bool {
	ref := strings.ToLower(strings.TrimSpace(reference))
	if ref == "" {
		return false
	}
	return strings.Contains(strings.ToLower(strings.TrimSpace(submitted)), ref)
}

type QuestionOutcome struct {
	QuestionID string `json:"question_id"`
	Submitted  string `json:"submitted"`
	Correct    bool   `json:"correct"`
}

type QuizResult struct {
	TotalQuestions int               `json:"total_questions"`
	CorrectAnswers int               `json:"correct_answers"`
	Score          int               `json:"score"`
	ReportedScore  int               `json:"reported_score"`
	PerQuestion    []QuestionOutcome `json:"per_question"`
}

// ScorePercent returns round(100 * correct / total), and 0 when total is not positive.
func ScorePercent(correct, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(correct) / float64(total)))
}

// Grade computes local per-question outcomes for records against quiz.
func Grade(quiz *Quiz, records []AnswerRecord) []QuestionOutcome {
	if quiz == nil {
		return nil
	}
	byID := lo.SliceToMap(records, func(r AnswerRecord) (string, string) { return r.QuestionID, r.Answer })
	return lo.Map(quiz.Questions, func(q Question, _ int) QuestionOutcome {
		submitted := byID[q.ID]
		return QuestionOutcome{
			QuestionID: q.ID,
			Submitted:  submitted,
			Correct:    MatchesReference(submitted, q.ReferenceAnswer),
		}
	})
}
