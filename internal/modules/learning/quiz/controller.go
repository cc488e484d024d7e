package quiz

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/yungbote/neurobridge-companion/internal/clients/studyapi"
	"github.com/yungbote/neurobridge-companion/internal/domain/learning"
	"github.com/yungbote/neurobridge-companion/internal/platform/apierr"
	"github.com/yungbote/neurobridge-companion/internal/platform/clock"
	"github.com/yungbote/neurobridge-companion/internal/platform/logger"
)

var (
	ErrClosed = errors.New("quiz session closed")
	// ErrDiscarded is returned to a caller whose request completed after the session moved on.
	ErrDiscarded = errors.New("quiz request discarded")
)

type API interface {
	GenerateQuiz(ctx context.Context, in studyapi.GenerateQuizRequest) (*learning.Quiz, error)
	SubmitQuiz(ctx context.Context, quizID string, answers []learning.AnswerRecord) (studyapi.SubmitResult, error)
}

type Deps struct {
	Log   *logger.Logger
	API   API
	Clock clock.Clock
}

// Controller drives one quiz session: Idle, Generating, InProgress, Submitting, Completed.
// Every transition runs under mu; backend calls run outside it and are applied only if the
// session epoch is unchanged when they return.
type Controller struct {
	log   *logger.Logger
	api   API
	clock clock.Clock

	baseCtx context.Context
	cancel  context.CancelFunc

	mu         sync.Mutex
	closed     bool
	state      State
	epoch      uint64
	materialID string
	cfg        Config
	quiz       *learning.Quiz
	cursor     int
	answers    map[string]string
	remaining  int
	timer      clock.Timer
	timerSeq   uint64
	result     *learning.QuizResult
	lastErr    error
}

func New(deps Deps) *Controller {
	if deps.Log == nil {
		deps.Log = logger.Nop()
	}
	if deps.Clock == nil {
		deps.Clock = clock.Real()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		log:     deps.Log.With("component", "quiz"),
		api:     deps.API,
		clock:   deps.Clock,
		baseCtx: ctx,
		cancel:  cancel,
		state:   StateIdle,
		answers: map[string]string{},
	}
}

func invalidState(op string, s State) error {
	return apierr.New(apierr.KindInvalid, 0, "invalid_state", fmt.Errorf("%w: %s not allowed in state %s", apierr.ErrInvalidState, op, s))
}

func (c *Controller) guardLocked(op string, allowed ...State) error {
	if c.closed {
		return apierr.New(apierr.KindInvalid, 0, "closed", ErrClosed)
	}
	if !lo.Contains(allowed, c.state) {
		return invalidState(op, c.state)
	}
	return nil
}

// Generate requests a quiz for materialID and starts it. On failure the controller is back in
// Idle with no partial quiz.
func (c *Controller) Generate(ctx context.Context, materialID string, cfg Config) error {
	materialID = strings.TrimSpace(materialID)
	if materialID == "" {
		return apierr.New(apierr.KindInvalid, 0, "missing_material_id", apierr.ErrInvalidArgument)
	}
	if err := cfg.validate(); err != nil {
		return err
	}

	c.mu.Lock()
	if err := c.guardLocked("generate", StateIdle); err != nil {
		c.mu.Unlock()
		return err
	}
	c.state = StateGenerating
	c.materialID = materialID
	c.cfg = cfg
	c.lastErr = nil
	c.epoch++
	epoch := c.epoch
	c.mu.Unlock()

	c.log.Info("generating quiz", "material_id", materialID, "quiz_type", cfg.QuizType, "question_type", cfg.QuestionType)
	q, err := c.api.GenerateQuiz(ctx, studyapi.GenerateQuizRequest{
		MaterialID:   materialID,
		QuizType:     cfg.QuizType,
		QuestionType: cfg.QuestionType,
	})
	if err == nil && q.QuestionCount() == 0 {
		err = errors.New("generated quiz has no questions")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.epoch != epoch || c.state != StateGenerating {
		c.log.Debug("dropping stale generation result", "material_id", materialID)
		return ErrDiscarded
	}
	if err != nil {
		c.resetLocked()
		c.lastErr = apierr.Recast(apierr.KindGeneration, err)
		c.log.Warn("quiz generation failed", "material_id", materialID, "error", err)
		return c.lastErr
	}

	c.quiz = q
	c.cursor = 0
	c.answers = map[string]string{}
	c.result = nil
	c.state = StateInProgress
	c.remaining = 0
	if limit := cfg.timeLimit(); limit > 0 {
		c.remaining = int(limit / time.Second)
		c.startTimerLocked()
	}
	c.log.Info("quiz started", "quiz_id", q.ID, "questions", len(q.Questions), "remaining_seconds", c.remaining)
	return nil
}

func (c *Controller) Next() error {
	return c.move(func(i int) int { return i + 1 })
}

func (c *Controller) Prev() error {
	return c.move(func(i int) int { return i - 1 })
}

// GoTo moves the cursor to i, clamped to the question range.
func (c *Controller) GoTo(i int) error {
	return c.move(func(int) int { return i })
}

func (c *Controller) move(to func(int) int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.guardLocked("navigate", StateInProgress, StateSubmitting, StateCompleted); err != nil {
		return err
	}
	c.cursor = lo.Clamp(to(c.cursor), 0, len(c.quiz.Questions)-1)
	return nil
}

// Answer records text for the question under the cursor, replacing any earlier answer.
func (c *Controller) Answer(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.guardLocked("answer", StateInProgress); err != nil {
		return err
	}
	c.answers[c.quiz.Questions[c.cursor].ID] = text
	return nil
}

func (c *Controller) Submit(ctx context.Context) error {
	return c.submit(ctx, false)
}

func (c *Controller) submit(ctx context.Context, auto bool) error {
	c.mu.Lock()
	if auto && c.state != StateInProgress {
		c.mu.Unlock()
		return nil
	}
	if err := c.guardLocked("submit", StateInProgress); err != nil {
		c.mu.Unlock()
		return err
	}
	c.stopTimerLocked()
	c.state = StateSubmitting
	c.lastErr = nil
	quiz := c.quiz
	records := c.recordsLocked()
	epoch := c.epoch
	c.mu.Unlock()

	c.log.Info("submitting quiz", "quiz_id", quiz.ID, "auto", auto)
	res, err := c.api.SubmitQuiz(ctx, quiz.ID, records)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.epoch != epoch || c.state != StateSubmitting {
		c.log.Debug("dropping stale submission result", "quiz_id", quiz.ID)
		return ErrDiscarded
	}
	if err != nil {
		c.state = StateInProgress
		c.lastErr = apierr.Recast(apierr.KindSubmission, err)
		if c.remaining > 0 {
			c.startTimerLocked()
		}
		c.log.Warn("quiz submission failed", "quiz_id", quiz.ID, "auto", auto, "error", err)
		return c.lastErr
	}

	total := res.TotalQuestions
	if total <= 0 {
		total = len(records)
	}
	c.result = &learning.QuizResult{
		TotalQuestions: total,
		CorrectAnswers: res.CorrectAnswers,
		Score:          learning.ScorePercent(res.CorrectAnswers, total),
		ReportedScore:  res.Score,
		PerQuestion:    learning.Grade(quiz, records),
	}
	c.state = StateCompleted
	c.log.Info("quiz completed", "quiz_id", quiz.ID, "score", c.result.Score, "correct", res.CorrectAnswers, "total", total)
	return nil
}

// recordsLocked builds one record per question in quiz order. Unanswered questions get "".
func (c *Controller) recordsLocked() []learning.AnswerRecord {
	return lo.Map(c.quiz.Questions, func(q learning.Question, _ int) learning.AnswerRecord {
		return learning.AnswerRecord{QuestionID: q.ID, Answer: c.answers[q.ID]}
	})
}

// Reset discards the quiz and any result and returns to Idle. In-flight requests are dropped.
func (c *Controller) Reset() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return apierr.New(apierr.KindInvalid, 0, "closed", ErrClosed)
	}
	c.resetLocked()
	c.lastErr = nil
	return nil
}

func (c *Controller) resetLocked() {
	c.stopTimerLocked()
	c.epoch++
	c.state = StateIdle
	c.quiz = nil
	c.cursor = 0
	c.answers = map[string]string{}
	c.remaining = 0
	c.result = nil
}

// Close stops the countdown and invalidates in-flight requests. The controller is unusable
// afterwards.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.stopTimerLocked()
	c.epoch++
	c.mu.Unlock()
	c.cancel()
}

func (c *Controller) startTimerLocked() {
	c.stopTimerLocked()
	seq := c.timerSeq
	c.timer = c.clock.AfterFunc(time.Second, func() { c.tick(seq) })
}

func (c *Controller) stopTimerLocked() {
	c.timerSeq++
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

func (c *Controller) tick(seq uint64) {
	c.mu.Lock()
	if seq != c.timerSeq || c.closed || c.state != StateInProgress {
		c.mu.Unlock()
		return
	}
	c.remaining--
	if c.remaining > 0 {
		c.startTimerLocked()
		c.mu.Unlock()
		return
	}
	c.remaining = 0
	c.stopTimerLocked()
	c.mu.Unlock()

	c.log.Info("time limit reached, submitting")
	if err := c.submit(c.baseCtx, true); err != nil && !errors.Is(err, ErrDiscarded) {
		c.log.Warn("automatic submission failed", "error", err)
	}
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := Snapshot{
		State:            c.state,
		MaterialID:       c.materialID,
		Config:           c.cfg,
		Quiz:             c.quiz,
		Cursor:           c.cursor,
		Answers:          make(map[string]string, len(c.answers)),
		TimeLimited:      c.quiz != nil && c.cfg.timeLimit() > 0,
		RemainingSeconds: c.remaining,
		Err:              c.lastErr,
	}
	for k, v := range c.answers {
		s.Answers[k] = v
	}
	if c.result != nil {
		r := *c.result
		r.PerQuestion = append([]learning.QuestionOutcome(nil), c.result.PerQuestion...)
		s.Result = &r
	}
	if c.lastErr != nil {
		s.Error = c.lastErr.Error()
	}
	s.ExplanationVisible = c.explanationVisibleLocked()
	return s
}

func (c *Controller) explanationVisibleLocked() bool {
	if c.quiz == nil {
		return false
	}
	if c.state == StateCompleted {
		return true
	}
	if c.cfg.QuizType != learning.QuizKindPractice {
		return false
	}
	ans, ok := c.answers[c.quiz.Questions[c.cursor].ID]
	return ok && strings.TrimSpace(ans) != ""
}
