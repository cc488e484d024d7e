package requestid

import (
	"context"

	"github.com/google/uuid"

	"github.com/yungbote/neurobridge-companion/internal/platform/ctxutil"
)

const Header = "X-Request-ID"

func New() string {
	return uuid.NewString()
}

// Ensure returns ctx unchanged when it already carries a request id, otherwise a child context
// with a fresh one.
func Ensure(ctx context.Context) (context.Context, string) {
	if id := ctxutil.RequestID(ctx); id != "" {
		return ctx, id
	}
	id := New()
	td := &ctxutil.TraceData{RequestID: id}
	if prev := ctxutil.GetTraceData(ctx); prev != nil {
		td.TraceID = prev.TraceID
	}
	return ctxutil.WithTraceData(ctx, td), id
}
