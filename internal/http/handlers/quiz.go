package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"

	"github.com/yungbote/neurobridge-companion/internal/domain/learning"
	"github.com/yungbote/neurobridge-companion/internal/http/response"
	"github.com/yungbote/neurobridge-companion/internal/modules/learning/quiz"
	"github.com/yungbote/neurobridge-companion/internal/modules/workspace"
)

type QuizHandler struct {
	workspace *workspace.Workspace
}

func NewQuizHandler(ws *workspace.Workspace) *QuizHandler {
	return &QuizHandler{workspace: ws}
}

type questionView struct {
	ID           string                `json:"id"`
	Question     string                `json:"question"`
	QuestionType learning.QuestionType `json:"question_type"`
	Options      []string              `json:"options,omitempty"`
	Explanation  string                `json:"explanation,omitempty"`
}

// quizView is what the UI sees of a quiz. Reference answers stay hidden until completion.
type quizView struct {
	State            quiz.State           `json:"state"`
	MaterialID       string               `json:"material_id,omitempty"`
	Config           quiz.Config          `json:"config"`
	QuizID           string               `json:"quiz_id,omitempty"`
	Title            string               `json:"title,omitempty"`
	QuestionCount    int                  `json:"question_count"`
	Cursor           int                  `json:"cursor"`
	Current          *questionView        `json:"current,omitempty"`
	Answers          map[string]string    `json:"answers"`
	Answered         int                  `json:"answered"`
	TimeLimited      bool                 `json:"time_limited"`
	RemainingSeconds int                  `json:"remaining_seconds"`
	Countdown        string               `json:"countdown,omitempty"`
	Result           *learning.QuizResult `json:"result,omitempty"`
	Review           []learning.Question  `json:"review,omitempty"`
	Error            string               `json:"error,omitempty"`
}

func newQuizView(s quiz.Snapshot) quizView {
	v := quizView{
		State:            s.State,
		MaterialID:       s.MaterialID,
		Config:           s.Config,
		QuestionCount:    s.QuestionCount(),
		Cursor:           s.Cursor,
		Answers:          s.Answers,
		Answered:         answeredCount(s.Answers),
		TimeLimited:      s.TimeLimited,
		RemainingSeconds: s.RemainingSeconds,
		Result:           s.Result,
		Error:            s.Error,
	}
	if s.Quiz != nil {
		v.QuizID = s.Quiz.ID
		v.Title = s.Quiz.Title
	}
	if s.TimeLimited {
		v.Countdown = s.Countdown()
	}
	if q, ok := s.Current(); ok {
		v.Current = &questionView{ID: q.ID, Question: q.Prompt, QuestionType: q.Type(), Options: q.Options()}
		if s.ExplanationVisible {
			v.Current.Explanation = q.Explanation
		}
	}
	if s.State == quiz.StateCompleted && s.Quiz != nil {
		v.Review = s.Quiz.Questions
	}
	return v
}

func (h *QuizHandler) controller(c *gin.Context) (*quiz.Controller, bool) {
	m, ok := mountFor(c, h.workspace)
	if !ok {
		return nil, false
	}
	qc, err := m.Quiz(c.Request.Context())
	if err != nil {
		response.RespondFailure(c, err)
		return nil, false
	}
	return qc, true
}

// respond writes the snapshot after an action. A failed action still carries the snapshot so
// the caller sees the state it was returned to.
func (h *QuizHandler) respond(c *gin.Context, qc *quiz.Controller, err error) {
	view := newQuizView(qc.Snapshot())
	if err != nil {
		status, code := response.StatusFor(err)
		c.JSON(status, gin.H{"quiz": view, "error": response.APIError{Message: err.Error(), Code: code}})
		return
	}
	response.RespondOK(c, gin.H{"quiz": view})
}

// GET /api/materials/:id/quiz
func (h *QuizHandler) Get(c *gin.Context) {
	qc, ok := h.controller(c)
	if !ok {
		return
	}
	h.respond(c, qc, nil)
}

// POST /api/materials/:id/quiz {"quiz_type": "test", "question_type": "mcq"}
func (h *QuizHandler) Generate(c *gin.Context) {
	var cfg quiz.Config
	if err := c.ShouldBindJSON(&cfg); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	qc, ok := h.controller(c)
	if !ok {
		return
	}
	h.respond(c, qc, qc.Generate(c.Request.Context(), c.Param("id"), cfg))
}

// POST /api/materials/:id/quiz/answer {"answer": "..."}
func (h *QuizHandler) Answer(c *gin.Context) {
	var req struct {
		Answer string `json:"answer"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	qc, ok := h.controller(c)
	if !ok {
		return
	}
	h.respond(c, qc, qc.Answer(req.Answer))
}

// POST /api/materials/:id/quiz/navigate {"direction": "next"|"prev"} or {"index": 2}
func (h *QuizHandler) Navigate(c *gin.Context) {
	var req navigateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	qc, ok := h.controller(c)
	if !ok {
		return
	}
	h.respond(c, qc, req.apply(qc))
}

// POST /api/materials/:id/quiz/submit
func (h *QuizHandler) Submit(c *gin.Context) {
	qc, ok := h.controller(c)
	if !ok {
		return
	}
	h.respond(c, qc, qc.Submit(c.Request.Context()))
}

// POST /api/materials/:id/quiz/reset
func (h *QuizHandler) Reset(c *gin.Context) {
	qc, ok := h.controller(c)
	if !ok {
		return
	}
	h.respond(c, qc, qc.Reset())
}

func answeredCount(answers map[string]string) int {
	return len(lo.PickBy(answers, func(_ string, v string) bool { return strings.TrimSpace(v) != "" }))
}
