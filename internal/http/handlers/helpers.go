package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/neurobridge-companion/internal/http/response"
	"github.com/yungbote/neurobridge-companion/internal/modules/workspace"
)

// mountFor opens the material named by the :id path param, switching the workspace to it when
// another material is mounted. It writes the failure response itself and returns false.
func mountFor(c *gin.Context, ws *workspace.Workspace) (*workspace.Mount, bool) {
	id := strings.TrimSpace(c.Param("id"))
	route, err := ws.Navigate(c.Request.Context(), id)
	if err != nil {
		response.RespondFailure(c, err)
		return nil, false
	}
	if route.View != workspace.ViewMaterial {
		status := http.StatusNotFound
		if route.View == workspace.ViewLogin {
			status = http.StatusUnauthorized
		}
		c.JSON(status, response.ErrorEnvelope{Error: response.APIError{
			Message:  "material view unavailable",
			Code:     "redirect",
			Redirect: route.Path(),
		}})
		return nil, false
	}
	m, err := ws.Mounted(route.MaterialID)
	if err != nil {
		response.RespondFailure(c, err)
		return nil, false
	}
	return m, true
}

type navigateReq struct {
	Direction string `json:"direction"`
	Index     *int   `json:"index"`
}

type navigator interface {
	Next() error
	Prev() error
	GoTo(i int) error
}

func (r navigateReq) apply(n navigator) error {
	if r.Index != nil {
		return n.GoTo(*r.Index)
	}
	if strings.EqualFold(strings.TrimSpace(r.Direction), "prev") {
		return n.Prev()
	}
	return n.Next()
}
