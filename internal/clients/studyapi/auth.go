package studyapi

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/yungbote/neurobridge-companion/internal/domain/user"
	"github.com/yungbote/neurobridge-companion/internal/platform/apierr"
)

func (c *Client) Register(ctx context.Context, in RegisterRequest) (Token, error) {
	r, err := jsonRequest("register", http.MethodPost, "/auth/register", in)
	if err != nil {
		return Token{}, err
	}
	r.auth = authNone
	return c.token(ctx, r)
}

func (c *Client) Login(ctx context.Context, email, password string) (Token, error) {
	r, err := jsonRequest("login", http.MethodPost, "/auth/login", loginRequest{Email: email, Password: password})
	if err != nil {
		return Token{}, err
	}
	r.auth = authNone
	return c.token(ctx, r)
}

func (c *Client) token(ctx context.Context, r request) (Token, error) {
	var out Token
	if err := c.do(ctx, r, &out); err != nil {
		return Token{}, classify(r.op, apierr.KindUnavailable, err)
	}
	if strings.TrimSpace(out.AccessToken) == "" {
		return Token{}, apierr.Wrap(apierr.KindAuth, errors.New(r.op+": empty access_token"))
	}
	return out, nil
}

// Me resolves the principal behind the session credential.
func (c *Client) Me(ctx context.Context) (user.Principal, error) {
	return c.me(ctx, request{op: "me", method: http.MethodGet, path: "/auth/me"})
}

// MeWithToken resolves the principal behind token without consulting or affecting the session.
func (c *Client) MeWithToken(ctx context.Context, token string) (user.Principal, error) {
	return c.me(ctx, request{op: "me", method: http.MethodGet, path: "/auth/me", auth: authExplicit, token: token})
}

func (c *Client) me(ctx context.Context, r request) (user.Principal, error) {
	var out user.Principal
	if err := c.do(ctx, r, &out); err != nil {
		return user.Principal{}, classify(r.op, apierr.KindUnavailable, err)
	}
	if out.IsZero() {
		return user.Principal{}, apierr.Wrap(apierr.KindAuth, errors.New("me: principal without id"))
	}
	return out, nil
}
