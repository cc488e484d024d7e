package quiz

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/neurobridge-companion/internal/clients/studyapi"
	"github.com/yungbote/neurobridge-companion/internal/domain/learning"
	"github.com/yungbote/neurobridge-companion/internal/platform/apierr"
	"github.com/yungbote/neurobridge-companion/internal/platform/clock"
)

type fakeAPI struct {
	mu          sync.Mutex
	quiz        *learning.Quiz
	genErr      error
	genCalled   chan struct{}
	genRelease  chan struct{}
	submitErr     error
	submitCalled  chan struct{}
	submitRelease chan struct{}
	submissions   [][]learning.AnswerRecord
}

func (f *fakeAPI) GenerateQuiz(_ context.Context, in studyapi.GenerateQuizRequest) (*learning.Quiz, error) {
	if f.genCalled != nil {
		f.genCalled <- struct{}{}
	}
	if f.genRelease != nil {
		<-f.genRelease
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.genErr != nil {
		return nil, f.genErr
	}
	q := *f.quiz
	q.MaterialID = in.MaterialID
	q.Kind = in.QuizType
	return &q, nil
}

// SubmitQuiz grades the way the backend does.
func (f *fakeAPI) SubmitQuiz(_ context.Context, quizID string, answers []learning.AnswerRecord) (studyapi.SubmitResult, error) {
	if f.submitCalled != nil {
		f.submitCalled <- struct{}{}
	}
	if f.submitRelease != nil {
		<-f.submitRelease
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submissions = append(f.submissions, answers)
	if f.submitErr != nil {
		return studyapi.SubmitResult{}, f.submitErr
	}
	correct := 0
	for _, a := range answers {
		if q, ok := f.quiz.QuestionByID(a.QuestionID); ok && learning.MatchesReference(a.Answer, q.ReferenceAnswer) {
			correct++
		}
	}
	total := len(f.quiz.Questions)
	return studyapi.SubmitResult{Score: correct * 100 / total, CorrectAnswers: correct, TotalQuestions: total}, nil
}

func (f *fakeAPI) submitCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.submissions)
}

func mcqQuiz(n int) *learning.Quiz {
	q := &learning.Quiz{ID: "quiz-1", Title: "Cells - Practice Quiz"}
	for i := 0; i < n; i++ {
		id := string(rune('a' + i))
		q.Questions = append(q.Questions, learning.Question{
			ID:              "q" + id,
			Prompt:          "Question " + id,
			ReferenceAnswer: "B. Answer " + id,
			Explanation:     "Because " + id,
			Body:            learning.MultipleChoice{Options: []string{"A. Wrong", "B. Answer " + id}},
		})
	}
	return q
}

func newController(api *fakeAPI) (*Controller, *clock.Manual) {
	clk := clock.NewManual(time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC))
	return New(Deps{API: api, Clock: clk}), clk
}

var practiceMCQ = Config{QuizType: learning.QuizKindPractice, QuestionType: learning.QuestionTypeMultipleChoice}

func TestGenerateValidatesInput(t *testing.T) {
	c, _ := newController(&fakeAPI{quiz: mcqQuiz(3)})
	defer c.Close()

	err := c.Generate(context.Background(), " ", practiceMCQ)
	assert.True(t, apierr.Is(err, apierr.KindInvalid))
	err = c.Generate(context.Background(), "m1", Config{QuizType: "exam", QuestionType: learning.QuestionTypeMultipleChoice})
	assert.True(t, apierr.Is(err, apierr.KindInvalid))
	assert.Equal(t, StateIdle, c.Snapshot().State)

	require.NoError(t, c.Generate(context.Background(), "m1", practiceMCQ))
	err = c.Generate(context.Background(), "m1", practiceMCQ)
	assert.ErrorIs(t, err, apierr.ErrInvalidState)
}

func TestGenerationFailureReturnsToIdle(t *testing.T) {
	c, _ := newController(&fakeAPI{genErr: errors.New("model timed out")})
	defer c.Close()

	err := c.Generate(context.Background(), "m1", practiceMCQ)
	require.Error(t, err)
	assert.True(t, apierr.Is(err, apierr.KindGeneration))

	s := c.Snapshot()
	assert.Equal(t, StateIdle, s.State)
	assert.Nil(t, s.Quiz)
	assert.Empty(t, s.Answers)
	assert.True(t, apierr.Is(s.Err, apierr.KindGeneration))
}

func TestEmptyQuizIsAGenerationFailure(t *testing.T) {
	c, _ := newController(&fakeAPI{quiz: &learning.Quiz{ID: "empty"}})
	defer c.Close()
	err := c.Generate(context.Background(), "m1", practiceMCQ)
	assert.True(t, apierr.Is(err, apierr.KindGeneration))
	assert.Equal(t, StateIdle, c.Snapshot().State)
}

func TestAuthFailureKeepsItsKind(t *testing.T) {
	c, _ := newController(&fakeAPI{genErr: apierr.New(apierr.KindAuth, 401, "", apierr.ErrUnauthorized)})
	defer c.Close()
	err := c.Generate(context.Background(), "m1", practiceMCQ)
	assert.True(t, apierr.Is(err, apierr.KindAuth))
}

func TestCursorStaysInBounds(t *testing.T) {
	c, _ := newController(&fakeAPI{quiz: mcqQuiz(3)})
	defer c.Close()

	assert.ErrorIs(t, c.Next(), apierr.ErrInvalidState, "navigation needs a quiz")
	require.NoError(t, c.Generate(context.Background(), "m1", practiceMCQ))

	require.NoError(t, c.Prev())
	assert.Equal(t, 0, c.Snapshot().Cursor)
	require.NoError(t, c.Answer("first"))

	for i := 0; i < 5; i++ {
		require.NoError(t, c.Next())
	}
	assert.Equal(t, 2, c.Snapshot().Cursor)

	require.NoError(t, c.GoTo(-4))
	assert.Equal(t, 0, c.Snapshot().Cursor)
	require.NoError(t, c.GoTo(99))
	assert.Equal(t, 2, c.Snapshot().Cursor)
	require.NoError(t, c.GoTo(1))
	assert.Equal(t, 1, c.Snapshot().Cursor)

	assert.Equal(t, map[string]string{"qa": "first"}, c.Snapshot().Answers)
}

func TestAnswerOverwritesCurrentQuestion(t *testing.T) {
	c, _ := newController(&fakeAPI{quiz: mcqQuiz(2)})
	defer c.Close()
	require.NoError(t, c.Generate(context.Background(), "m1", practiceMCQ))

	require.NoError(t, c.Answer("A. Wrong"))
	require.NoError(t, c.Answer("B. Answer a"))
	require.NoError(t, c.Next())
	require.NoError(t, c.Answer(""))

	assert.Equal(t, map[string]string{"qa": "B. Answer a", "qb": ""}, c.Snapshot().Answers)
}

func TestPracticeExplanationVisibleOnceAnswered(t *testing.T) {
	c, _ := newController(&fakeAPI{quiz: mcqQuiz(2)})
	defer c.Close()
	require.NoError(t, c.Generate(context.Background(), "m1", practiceMCQ))

	assert.False(t, c.Snapshot().ExplanationVisible)
	require.NoError(t, c.Answer("A. Wrong"))
	assert.True(t, c.Snapshot().ExplanationVisible)
	require.NoError(t, c.Next())
	assert.False(t, c.Snapshot().ExplanationVisible)
}

func TestTestQuizHidesExplanationsUntilCompleted(t *testing.T) {
	c, _ := newController(&fakeAPI{quiz: mcqQuiz(1)})
	defer c.Close()
	require.NoError(t, c.Generate(context.Background(), "m1", Config{QuizType: learning.QuizKindTest, QuestionType: learning.QuestionTypeMultipleChoice}))

	require.NoError(t, c.Answer("B. Answer a"))
	assert.False(t, c.Snapshot().ExplanationVisible)
	require.NoError(t, c.Submit(context.Background()))
	assert.True(t, c.Snapshot().ExplanationVisible)
}

func TestPracticeScenarioThreeQuestions(t *testing.T) {
	api := &fakeAPI{quiz: mcqQuiz(3)}
	c, clk := newController(api)
	defer c.Close()

	require.NoError(t, c.Generate(context.Background(), "m1", practiceMCQ))
	assert.Equal(t, 0, clk.Pending(), "practice quizzes have no countdown")
	assert.False(t, c.Snapshot().TimeLimited)

	require.NoError(t, c.Answer("B. Answer a"))
	require.NoError(t, c.GoTo(2))
	require.NoError(t, c.Submit(context.Background()))

	s := c.Snapshot()
	require.Equal(t, StateCompleted, s.State)
	require.NotNil(t, s.Result)
	assert.Equal(t, 3, s.Result.TotalQuestions)
	assert.Equal(t, 1, s.Result.CorrectAnswers)
	assert.Equal(t, 33, s.Result.Score)
	require.Len(t, s.Result.PerQuestion, 3)
	assert.True(t, s.Result.PerQuestion[0].Correct)
	assert.False(t, s.Result.PerQuestion[1].Correct)
	assert.False(t, s.Result.PerQuestion[2].Correct)

	require.Len(t, api.submissions, 1)
	assert.Equal(t, []learning.AnswerRecord{
		{QuestionID: "qa", Answer: "B. Answer a"},
		{QuestionID: "qb", Answer: ""},
		{QuestionID: "qc", Answer: ""},
	}, api.submissions[0])

	assert.ErrorIs(t, c.Answer("late"), apierr.ErrInvalidState)
	assert.ErrorIs(t, c.Submit(context.Background()), apierr.ErrInvalidState)
}

func TestTestScenarioAutoSubmitsAtZero(t *testing.T) {
	api := &fakeAPI{quiz: mcqQuiz(3)}
	c, clk := newController(api)
	defer c.Close()

	cfg := Config{QuizType: learning.QuizKindTest, QuestionType: learning.QuestionTypeMultipleChoice, TimeLimit: time.Minute}
	require.NoError(t, c.Generate(context.Background(), "m1", cfg))
	s := c.Snapshot()
	assert.True(t, s.TimeLimited)
	assert.Equal(t, 60, s.RemainingSeconds)
	assert.Equal(t, "01:00", s.Countdown())

	clk.Advance(30 * time.Second)
	assert.Equal(t, 30, c.Snapshot().RemainingSeconds)
	assert.Equal(t, "00:30", c.Snapshot().Countdown())
	assert.Equal(t, 0, api.submitCount())

	clk.Advance(30 * time.Second)
	s = c.Snapshot()
	require.Equal(t, StateCompleted, s.State)
	assert.Equal(t, 0, s.RemainingSeconds)
	require.Equal(t, 1, api.submitCount())
	for _, rec := range api.submissions[0] {
		assert.Equal(t, "", rec.Answer)
	}
	assert.Equal(t, 0, s.Result.CorrectAnswers)
	assert.Equal(t, 0, s.Result.Score)

	clk.Advance(5 * time.Minute)
	assert.Equal(t, 1, api.submitCount(), "no further automatic submission after completion")
	assert.Equal(t, 0, clk.Pending())

	require.NoError(t, c.submit(context.Background(), true))
	assert.Equal(t, 1, api.submitCount(), "a late automatic fire is a no-op")
}

func TestStandardTimeLimits(t *testing.T) {
	cases := []struct {
		qt   learning.QuestionType
		want int
	}{
		{learning.QuestionTypeMultipleChoice, 15 * 60},
		{learning.QuestionTypeShortAnswer, 30 * 60},
	}
	for _, tc := range cases {
		c, _ := newController(&fakeAPI{quiz: mcqQuiz(1)})
		require.NoError(t, c.Generate(context.Background(), "m1", Config{QuizType: learning.QuizKindTest, QuestionType: tc.qt}))
		assert.Equal(t, tc.want, c.Snapshot().RemainingSeconds, tc.qt)
		c.Close()
	}
}

func TestManualSubmitStopsCountdown(t *testing.T) {
	api := &fakeAPI{quiz: mcqQuiz(2)}
	c, clk := newController(api)
	defer c.Close()

	require.NoError(t, c.Generate(context.Background(), "m1", Config{QuizType: learning.QuizKindTest, QuestionType: learning.QuestionTypeMultipleChoice, TimeLimit: 10 * time.Second}))
	clk.Advance(3 * time.Second)
	require.NoError(t, c.Submit(context.Background()))
	assert.Equal(t, 0, clk.Pending())

	clk.Advance(time.Minute)
	assert.Equal(t, 1, api.submitCount())
	assert.Equal(t, 7, c.Snapshot().RemainingSeconds)
}

func TestSubmissionFailureKeepsAnswersAndResumesTimer(t *testing.T) {
	api := &fakeAPI{quiz: mcqQuiz(2), submitErr: errors.New("503")}
	c, clk := newController(api)
	defer c.Close()

	require.NoError(t, c.Generate(context.Background(), "m1", Config{QuizType: learning.QuizKindTest, QuestionType: learning.QuestionTypeMultipleChoice, TimeLimit: 10 * time.Second}))
	require.NoError(t, c.Answer("B. Answer a"))

	err := c.Submit(context.Background())
	require.Error(t, err)
	assert.True(t, apierr.Is(err, apierr.KindSubmission))

	s := c.Snapshot()
	assert.Equal(t, StateInProgress, s.State)
	assert.Equal(t, map[string]string{"qa": "B. Answer a"}, s.Answers)
	assert.True(t, apierr.Is(s.Err, apierr.KindSubmission))
	assert.Equal(t, 1, clk.Pending(), "countdown resumes")

	clk.Advance(10 * time.Second)
	s = c.Snapshot()
	assert.Equal(t, StateInProgress, s.State, "automatic submission failed too")
	assert.Equal(t, 0, s.RemainingSeconds)
	assert.Equal(t, 0, clk.Pending(), "no rescheduling at zero")
	assert.Equal(t, 2, api.submitCount())

	api.mu.Lock()
	api.submitErr = nil
	api.mu.Unlock()
	require.NoError(t, c.Submit(context.Background()))
	s = c.Snapshot()
	assert.Equal(t, StateCompleted, s.State)
	assert.Equal(t, 1, s.Result.CorrectAnswers)
	assert.Equal(t, 50, s.Result.Score)
	assert.Nil(t, s.Err)
}

func TestResetReturnsToIdle(t *testing.T) {
	c, clk := newController(&fakeAPI{quiz: mcqQuiz(2)})
	defer c.Close()

	require.NoError(t, c.Generate(context.Background(), "m1", Config{QuizType: learning.QuizKindTest, QuestionType: learning.QuestionTypeMultipleChoice}))
	require.NoError(t, c.Reset())
	assert.Equal(t, 0, clk.Pending(), "reset cancels the countdown")

	require.NoError(t, c.Generate(context.Background(), "m1", practiceMCQ))
	require.NoError(t, c.Submit(context.Background()))
	require.NoError(t, c.Reset())

	s := c.Snapshot()
	assert.Equal(t, StateIdle, s.State)
	assert.Nil(t, s.Quiz)
	assert.Nil(t, s.Result)
	assert.Empty(t, s.Answers)
}

func TestResetDuringSubmissionDropsLateResult(t *testing.T) {
	api := &fakeAPI{quiz: mcqQuiz(2), submitCalled: make(chan struct{}, 1), submitRelease: make(chan struct{})}
	c, clk := newController(api)
	defer c.Close()

	require.NoError(t, c.Generate(context.Background(), "m1", Config{QuizType: learning.QuizKindTest, QuestionType: learning.QuestionTypeMultipleChoice}))
	require.NoError(t, c.Answer("B. Answer a"))

	errc := make(chan error, 1)
	go func() { errc <- c.Submit(context.Background()) }()
	<-api.submitCalled
	assert.Equal(t, StateSubmitting, c.Snapshot().State)

	require.NoError(t, c.Reset())
	close(api.submitRelease)
	assert.ErrorIs(t, <-errc, ErrDiscarded)

	s := c.Snapshot()
	assert.Equal(t, StateIdle, s.State)
	assert.Nil(t, s.Result)
	assert.Nil(t, s.Quiz)
	assert.Empty(t, s.Answers)
	assert.Empty(t, s.Error)
	assert.Equal(t, 0, clk.Pending(), "no countdown restarts after the late result")
}

func TestResetDuringGenerationDropsLateQuiz(t *testing.T) {
	api := &fakeAPI{quiz: mcqQuiz(2), genCalled: make(chan struct{}, 2), genRelease: make(chan struct{})}
	c, clk := newController(api)
	defer c.Close()

	errc := make(chan error, 1)
	go func() {
		errc <- c.Generate(context.Background(), "m1", Config{QuizType: learning.QuizKindTest, QuestionType: learning.QuestionTypeMultipleChoice})
	}()
	<-api.genCalled
	assert.Equal(t, StateGenerating, c.Snapshot().State)

	require.NoError(t, c.Reset())
	close(api.genRelease)
	assert.ErrorIs(t, <-errc, ErrDiscarded)

	s := c.Snapshot()
	assert.Equal(t, StateIdle, s.State)
	assert.Nil(t, s.Quiz)
	assert.Nil(t, s.Result)
	assert.Equal(t, 0, clk.Pending())

	require.NoError(t, c.Generate(context.Background(), "m1", practiceMCQ))
	assert.Equal(t, StateInProgress, c.Snapshot().State)
}

func TestCloseDropsInFlightGeneration(t *testing.T) {
	api := &fakeAPI{quiz: mcqQuiz(2), genCalled: make(chan struct{}, 1), genRelease: make(chan struct{})}
	c, clk := newController(api)

	errc := make(chan error, 1)
	go func() {
		errc <- c.Generate(context.Background(), "m1", Config{QuizType: learning.QuizKindTest, QuestionType: learning.QuestionTypeMultipleChoice})
	}()
	<-api.genCalled
	assert.Equal(t, StateGenerating, c.Snapshot().State)

	c.Close()
	close(api.genRelease)
	assert.ErrorIs(t, <-errc, ErrDiscarded)
	assert.Equal(t, 0, clk.Pending())
	assert.Nil(t, c.Snapshot().Quiz)
	assert.ErrorIs(t, c.Reset(), ErrClosed)
}

func TestCloseStopsCountdown(t *testing.T) {
	api := &fakeAPI{quiz: mcqQuiz(1)}
	c, clk := newController(api)
	require.NoError(t, c.Generate(context.Background(), "m1", Config{QuizType: learning.QuizKindTest, QuestionType: learning.QuestionTypeShortAnswer}))
	c.Close()
	assert.Equal(t, 0, clk.Pending())
	clk.Advance(time.Hour)
	assert.Equal(t, 0, api.submitCount())
}

func TestScoreInvariant(t *testing.T) {
	for total := 1; total <= 40; total++ {
		for correct := 0; correct <= total; correct++ {
			want := int(math.Round(100 * float64(correct) / float64(total)))
			require.Equal(t, want, learning.ScorePercent(correct, total), "%d/%d", correct, total)
		}
	}
}

func TestFormatCountdown(t *testing.T) {
	assert.Equal(t, "15:00", FormatCountdown(900))
	assert.Equal(t, "00:09", FormatCountdown(9))
	assert.Equal(t, "00:00", FormatCountdown(-3))
}
