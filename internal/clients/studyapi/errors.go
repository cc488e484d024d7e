package studyapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/yungbote/neurobridge-companion/internal/platform/apierr"
)

type HTTPError struct {
	StatusCode int
	Detail     string
	RequestID  string
	Body       string
}

func (e *HTTPError) Error() string {
	if e == nil {
		return "http error"
	}
	msg := strings.TrimSpace(e.Detail)
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	if msg == "" {
		msg = "http error"
	}
	return fmt.Sprintf("http error: status=%d detail=%s", e.StatusCode, msg)
}

func (e *HTTPError) HTTPStatusCode() int { return e.StatusCode }

// parseHTTPError reads the {"detail": ...} envelope. detail is a string for handled errors and a
// list of {loc, msg} objects for validation failures.
func parseHTTPError(status int, raw []byte) *HTTPError {
	herr := &HTTPError{StatusCode: status, Body: strings.TrimSpace(string(raw))}

	var env struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(raw, &env); err != nil || len(env.Detail) == 0 {
		return herr
	}
	var s string
	if err := json.Unmarshal(env.Detail, &s); err == nil {
		herr.Detail = strings.TrimSpace(s)
		return herr
	}
	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(env.Detail, &items); err == nil {
		msgs := make([]string, 0, len(items))
		for _, it := range items {
			if m := strings.TrimSpace(it.Msg); m != "" {
				msgs = append(msgs, m)
			}
		}
		herr.Detail = strings.Join(msgs, "; ")
	}
	return herr
}

// classify attaches an apierr.Kind to err. Status-specific kinds take precedence over the
// operation's own kind.
func classify(op string, kind apierr.Kind, err error) error {
	if err == nil {
		return nil
	}
	var herr *HTTPError
	if errors.As(err, &herr) {
		switch herr.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return apierr.New(apierr.KindAuth, herr.StatusCode, "", fmt.Errorf("%s: %w: %w", op, apierr.ErrUnauthorized, herr))
		case http.StatusNotFound:
			return apierr.New(apierr.KindNotFound, herr.StatusCode, "", fmt.Errorf("%s: %w: %w", op, apierr.ErrNotFound, herr))
		case http.StatusBadRequest, http.StatusUnprocessableEntity:
			return apierr.New(apierr.KindInvalid, herr.StatusCode, "", fmt.Errorf("%s: %w: %w", op, apierr.ErrInvalidArgument, herr))
		}
		return apierr.New(kind, herr.StatusCode, "", fmt.Errorf("%s: %w", op, herr))
	}
	return apierr.New(kind, 0, "", fmt.Errorf("%s: %w", op, err))
}

// Detail returns the backend's human-readable message for err, if it carries one.
func Detail(err error) string {
	var herr *HTTPError
	if errors.As(err, &herr) {
		return herr.Detail
	}
	return ""
}
