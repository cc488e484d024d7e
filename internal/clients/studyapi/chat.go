package studyapi

import (
	"context"
	"net/url"

	"github.com/yungbote/neurobridge-companion/internal/domain/chat"
	"github.com/yungbote/neurobridge-companion/internal/platform/apierr"
)

func (c *Client) Ask(ctx context.Context, materialID, question string) (chat.Reply, error) {
	r := formRequest("ask", "/chat/ask", url.Values{
		"material_id": {materialID},
		"question":    {question},
	})
	var out chat.Reply
	if err := c.do(ctx, r, &out); err != nil {
		return chat.Reply{}, classify(r.op, apierr.KindChat, err)
	}
	return out, nil
}
