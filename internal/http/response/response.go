package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/neurobridge-companion/internal/clients/studyapi"
	"github.com/yungbote/neurobridge-companion/internal/platform/apierr"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
	// Redirect names the view the caller should move to, e.g. /login after a rejected credential.
	Redirect string `json:"redirect,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

// RespondFailure maps err to a status by its apierr.Kind. Auth failures point the caller at the
// login view.
func RespondFailure(c *gin.Context, err error) {
	status, code := StatusFor(err)
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
		if d := studyapi.Detail(err); d != "" {
			msg = d
		}
	}
	body := APIError{Message: msg, Code: code}
	if status == http.StatusUnauthorized {
		body.Redirect = "/login"
	}
	c.JSON(status, ErrorEnvelope{Error: body})
}

func StatusFor(err error) (int, string) {
	if errors.Is(err, apierr.ErrInvalidState) {
		return http.StatusConflict, "invalid_state"
	}
	switch kind := apierr.KindOf(err); kind {
	case apierr.KindAuth:
		return http.StatusUnauthorized, string(kind)
	case apierr.KindInvalid:
		return http.StatusBadRequest, string(kind)
	case apierr.KindNotFound:
		return http.StatusNotFound, string(kind)
	case apierr.KindGeneration, apierr.KindSubmission, apierr.KindChat:
		return http.StatusBadGateway, string(kind)
	case apierr.KindUnavailable:
		return http.StatusServiceUnavailable, string(kind)
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}
