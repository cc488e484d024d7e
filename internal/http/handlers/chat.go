package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	domain "github.com/yungbote/neurobridge-companion/internal/domain/chat"
	"github.com/yungbote/neurobridge-companion/internal/http/response"
	"github.com/yungbote/neurobridge-companion/internal/modules/chat"
	"github.com/yungbote/neurobridge-companion/internal/modules/workspace"
)

type ChatHandler struct {
	workspace *workspace.Workspace
}

func NewChatHandler(ws *workspace.Workspace) *ChatHandler {
	return &ChatHandler{workspace: ws}
}

func (h *ChatHandler) controller(c *gin.Context) (*chat.Controller, bool) {
	m, ok := mountFor(c, h.workspace)
	if !ok {
		return nil, false
	}
	cc, err := m.Chat(c.Request.Context())
	if err != nil {
		response.RespondFailure(c, err)
		return nil, false
	}
	return cc, true
}

func transcriptOf(cc *chat.Controller) []domain.Turn {
	turns := cc.Transcript()
	if turns == nil {
		turns = []domain.Turn{}
	}
	return turns
}

// GET /api/materials/:id/chat
func (h *ChatHandler) Transcript(c *gin.Context) {
	cc, ok := h.controller(c)
	if !ok {
		return
	}
	response.RespondOK(c, gin.H{"transcript": transcriptOf(cc), "pending": cc.Pending(), "input": cc.Input()})
}

// PUT /api/materials/:id/chat/input {"text": "..."}
func (h *ChatHandler) Draft(c *gin.Context) {
	var req struct {
		Text string `json:"text"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	cc, ok := h.controller(c)
	if !ok {
		return
	}
	cc.SetInput(req.Text)
	response.RespondOK(c, gin.H{"input": cc.Input()})
}

// POST /api/materials/:id/chat {"question": "...", "background": false}
//
// A blank question asks the draft input. With background set the question is sent without
// waiting and the reply shows up in the transcript later (202). Otherwise a failed answer is part
// of the transcript, so the response is 200 either way.
func (h *ChatHandler) Ask(c *gin.Context) {
	var req struct {
		Question   string `json:"question"`
		Background bool   `json:"background"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	cc, ok := h.controller(c)
	if !ok {
		return
	}
	if req.Background {
		if strings.TrimSpace(req.Question) != "" {
			cc.SetInput(req.Question)
		}
		rid, err := cc.Send()
		if err != nil {
			response.RespondFailure(c, err)
			return
		}
		c.JSON(http.StatusAccepted, gin.H{"asked": rid != "", "request_id": rid, "transcript": transcriptOf(cc), "input": cc.Input()})
		return
	}
	question := req.Question
	if strings.TrimSpace(question) == "" {
		question = cc.Input()
	}
	asked, err := cc.Ask(c.Request.Context(), question)
	body := gin.H{"asked": asked, "transcript": transcriptOf(cc), "input": cc.Input()}
	if err != nil {
		if !asked {
			response.RespondFailure(c, err)
			return
		}
		body["error"] = err.Error()
	}
	response.RespondOK(c, body)
}
