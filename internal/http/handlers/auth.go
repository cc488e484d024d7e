package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/neurobridge-companion/internal/domain/user"
	"github.com/yungbote/neurobridge-companion/internal/http/response"
	"github.com/yungbote/neurobridge-companion/internal/modules/workspace"
)

type Identity interface {
	Login(ctx context.Context, email, password string) error
	Register(ctx context.Context, email, password, fullName string) error
	Logout(ctx context.Context)
	Principal() (user.Principal, bool)
}

type AuthHandler struct {
	identity  Identity
	workspace *workspace.Workspace
}

func NewAuthHandler(identity Identity, ws *workspace.Workspace) *AuthHandler {
	return &AuthHandler{identity: identity, workspace: ws}
}

type sessionView struct {
	Authenticated bool            `json:"authenticated"`
	User          *user.Principal `json:"user,omitempty"`
	Route         workspace.Route `json:"route"`
	Redirect      string          `json:"redirect"`
}

func (ah *AuthHandler) view() sessionView {
	route := ah.workspace.Route()
	v := sessionView{Route: route, Redirect: route.Path()}
	if p, ok := ah.identity.Principal(); ok {
		v.Authenticated = true
		v.User = &p
	}
	return v
}

// GET /api/session
func (ah *AuthHandler) Session(c *gin.Context) {
	response.RespondOK(c, ah.view())
}

// POST /api/session/register
func (ah *AuthHandler) Register(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		FullName string `json:"full_name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if err := ah.identity.Register(c.Request.Context(), req.Email, req.Password, req.FullName); err != nil {
		response.RespondFailure(c, err)
		return
	}
	response.RespondOK(c, ah.view())
}

// POST /api/session/login
func (ah *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if err := ah.identity.Login(c.Request.Context(), req.Email, req.Password); err != nil {
		response.RespondFailure(c, err)
		return
	}
	response.RespondOK(c, ah.view())
}

// POST /api/session/logout
func (ah *AuthHandler) Logout(c *gin.Context) {
	ah.identity.Logout(c.Request.Context())
	response.RespondOK(c, ah.view())
}
