package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/neurobridge-companion/internal/http/response"
	"github.com/yungbote/neurobridge-companion/internal/modules/learning/flashcards"
	"github.com/yungbote/neurobridge-companion/internal/modules/workspace"
)

type FlashcardHandler struct {
	workspace *workspace.Workspace
}

func NewFlashcardHandler(ws *workspace.Workspace) *FlashcardHandler {
	return &FlashcardHandler{workspace: ws}
}

type cardView struct {
	ID          string `json:"id"`
	Question    string `json:"question"`
	Answer      string `json:"answer,omitempty"`
	Explanation string `json:"explanation,omitempty"`
}

type deckView struct {
	Status          flashcards.Status `json:"status"`
	NeedsGeneration bool              `json:"needs_generation"`
	Count           int               `json:"count"`
	Cursor          int               `json:"cursor"`
	Revealed        bool              `json:"revealed"`
	Card            *cardView         `json:"card,omitempty"`
	Error           string            `json:"error,omitempty"`
}

func newDeckView(s flashcards.Snapshot) deckView {
	v := deckView{
		Status:          s.Status,
		NeedsGeneration: s.NeedsGeneration(),
		Count:           len(s.Deck),
		Cursor:          s.Cursor,
		Revealed:        s.Revealed,
		Error:           s.Error,
	}
	if card, ok := s.Current(); ok {
		v.Card = &cardView{ID: card.ID, Question: card.Question}
		if s.Revealed {
			v.Card.Answer = card.Answer
			v.Card.Explanation = card.Explanation
		}
	}
	return v
}

func (h *FlashcardHandler) controller(c *gin.Context) (*flashcards.Controller, bool) {
	m, ok := mountFor(c, h.workspace)
	if !ok {
		return nil, false
	}
	fc, err := m.Flashcards(c.Request.Context())
	if fc == nil {
		response.RespondFailure(c, err)
		return nil, false
	}
	return fc, true
}

func (h *FlashcardHandler) respond(c *gin.Context, fc *flashcards.Controller, err error) {
	view := newDeckView(fc.Snapshot())
	if err != nil && !errors.Is(err, flashcards.ErrDiscarded) {
		status, code := response.StatusFor(err)
		c.JSON(status, gin.H{"deck": view, "error": response.APIError{Message: err.Error(), Code: code}})
		return
	}
	response.RespondOK(c, gin.H{"deck": view})
}

// GET /api/materials/:id/flashcards
func (h *FlashcardHandler) Get(c *gin.Context) {
	fc, ok := h.controller(c)
	if !ok {
		return
	}
	h.respond(c, fc, nil)
}

// POST /api/materials/:id/flashcards/fetch
func (h *FlashcardHandler) Fetch(c *gin.Context) {
	fc, ok := h.controller(c)
	if !ok {
		return
	}
	h.respond(c, fc, fc.Fetch(c.Request.Context()))
}

// POST /api/materials/:id/flashcards/generate
func (h *FlashcardHandler) Generate(c *gin.Context) {
	fc, ok := h.controller(c)
	if !ok {
		return
	}
	h.respond(c, fc, fc.Generate(c.Request.Context()))
}

// POST /api/materials/:id/flashcards/reveal
func (h *FlashcardHandler) Reveal(c *gin.Context) {
	fc, ok := h.controller(c)
	if !ok {
		return
	}
	h.respond(c, fc, fc.ToggleReveal())
}

// POST /api/materials/:id/flashcards/navigate {"direction": "next"|"prev"} or {"index": 0}
func (h *FlashcardHandler) Navigate(c *gin.Context) {
	var req navigateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	fc, ok := h.controller(c)
	if !ok {
		return
	}
	h.respond(c, fc, req.apply(fc))
}
