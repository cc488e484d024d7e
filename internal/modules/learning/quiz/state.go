package quiz

import (
	"fmt"
	"time"

	"github.com/yungbote/neurobridge-companion/internal/domain/learning"
	"github.com/yungbote/neurobridge-companion/internal/platform/apierr"
)

type State string

const (
	StateIdle       State = "idle"
	StateGenerating State = "generating"
	StateInProgress State = "in_progress"
	StateSubmitting State = "submitting"
	StateCompleted  State = "completed"
)

type Config struct {
	QuizType     learning.QuizKind     `json:"quiz_type"`
	QuestionType learning.QuestionType `json:"question_type"`
	// TimeLimit overrides the countdown of a test quiz. Zero uses the standard limit.
	TimeLimit time.Duration `json:"-"`
}

func (c Config) validate() error {
	if !c.QuizType.Valid() {
		return apierr.New(apierr.KindInvalid, 0, "invalid_quiz_type", fmt.Errorf("%w: quiz_type %q", apierr.ErrInvalidArgument, c.QuizType))
	}
	if !c.QuestionType.Valid() {
		return apierr.New(apierr.KindInvalid, 0, "invalid_question_type", fmt.Errorf("%w: question_type %q", apierr.ErrInvalidArgument, c.QuestionType))
	}
	return nil
}

func (c Config) timeLimit() time.Duration {
	if c.QuizType != learning.QuizKindTest {
		return 0
	}
	if c.TimeLimit > 0 {
		return c.TimeLimit
	}
	return learning.TimeLimitFor(c.QuizType, c.QuestionType)
}

// Snapshot is a copy of the controller state. Mutating it has no effect on the controller.
type Snapshot struct {
	State              State                `json:"state"`
	MaterialID         string               `json:"material_id,omitempty"`
	Config             Config               `json:"config"`
	Quiz               *learning.Quiz       `json:"quiz,omitempty"`
	Cursor             int                  `json:"cursor"`
	Answers            map[string]string    `json:"answers"`
	TimeLimited        bool                 `json:"time_limited"`
	RemainingSeconds   int                  `json:"remaining_seconds"`
	ExplanationVisible bool                 `json:"explanation_visible"`
	Result             *learning.QuizResult `json:"result,omitempty"`
	Error              string               `json:"error,omitempty"`
	Err                error                `json:"-"`
}

func (s Snapshot) QuestionCount() int { return s.Quiz.QuestionCount() }

// Current returns the question under the cursor.
func (s Snapshot) Current() (learning.Question, bool) {
	if s.Quiz == nil || s.Cursor < 0 || s.Cursor >= len(s.Quiz.Questions) {
		return learning.Question{}, false
	}
	return s.Quiz.Questions[s.Cursor], true
}

// Countdown formats the remaining time as mm:ss.
func (s Snapshot) Countdown() string {
	return FormatCountdown(s.RemainingSeconds)
}

func FormatCountdown(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}
