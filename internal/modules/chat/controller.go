package chat

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/yungbote/neurobridge-companion/internal/clients/studyapi"
	domain "github.com/yungbote/neurobridge-companion/internal/domain/chat"
	"github.com/yungbote/neurobridge-companion/internal/platform/apierr"
	"github.com/yungbote/neurobridge-companion/internal/platform/clock"
	"github.com/yungbote/neurobridge-companion/internal/platform/logger"
	"github.com/yungbote/neurobridge-companion/internal/platform/requestid"
)

// FailureMessage is the content of the error turn appended when a question cannot be answered.
const FailureMessage = "Sorry, I couldn't process your question. Please try again."

var ErrClosed = errors.New("chat session closed")

type API interface {
	Ask(ctx context.Context, materialID, question string) (domain.Reply, error)
}

type Deps struct {
	Log        *logger.Logger
	API        API
	Clock      clock.Clock
	MaterialID string
}

// Controller owns the append-only transcript for one material. Questions are never cancelled or
// de-duplicated; replies land in completion order.
type Controller struct {
	log        *logger.Logger
	api        API
	clock      clock.Clock
	materialID string

	baseCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	mu         sync.Mutex
	closed     bool
	input      string
	transcript []domain.Turn
	inFlight   int
}

func New(deps Deps) *Controller {
	if deps.Log == nil {
		deps.Log = logger.Nop()
	}
	if deps.Clock == nil {
		deps.Clock = clock.Real()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		log:        deps.Log.With("component", "chat", "material_id", deps.MaterialID),
		api:        deps.API,
		clock:      deps.Clock,
		materialID: strings.TrimSpace(deps.MaterialID),
		baseCtx:    ctx,
		cancel:     cancel,
	}
}

func (c *Controller) SetInput(text string) {
	c.mu.Lock()
	c.input = text
	c.mu.Unlock()
}

func (c *Controller) Input() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.input
}

// Ask appends question as a user turn and blocks until the matching assistant or error turn has
// been appended. A draft holding the same text is cleared. Blank questions are ignored and
// return ok=false.
func (c *Controller) Ask(ctx context.Context, question string) (ok bool, err error) {
	ctx, rid, ok, err := c.begin(ctx, question, false)
	if !ok || err != nil {
		return ok, err
	}
	return true, c.resolve(ctx, rid, question)
}

// Send takes the input buffer as the question, clears it and resolves the answer in the
// background. It returns the request id of the question, or "" when the buffer was blank.
func (c *Controller) Send() (string, error) {
	c.mu.Lock()
	question := c.input
	c.mu.Unlock()

	ctx, rid, ok, err := c.begin(c.baseCtx, question, true)
	if !ok || err != nil {
		return "", err
	}
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		if err := c.resolve(ctx, rid, question); err != nil {
			c.log.Debug("background question dropped", "request_id", rid, "error", err)
		}
	}()
	return rid, nil
}

// Wait blocks until every question started with Send has been resolved.
func (c *Controller) Wait() {
	c.wg.Wait()
}

func (c *Controller) begin(ctx context.Context, question string, clearInput bool) (context.Context, string, bool, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return ctx, "", false, nil
	}
	if c.materialID == "" {
		return ctx, "", false, apierr.New(apierr.KindInvalid, 0, "missing_material_id", apierr.ErrInvalidArgument)
	}
	ctx, rid := requestid.Ensure(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ctx, "", false, apierr.New(apierr.KindInvalid, 0, "closed", ErrClosed)
	}
	c.transcript = append(c.transcript, domain.Turn{Role: domain.RoleUser, Content: question, RequestID: rid, At: c.clock.Now()})
	if clearInput || strings.TrimSpace(c.input) == question {
		c.input = ""
	}
	c.inFlight++
	return ctx, rid, true, nil
}

func (c *Controller) resolve(ctx context.Context, rid, question string) error {
	reply, err := c.api.Ask(ctx, c.materialID, question)

	turn := domain.Turn{Role: domain.RoleAssistant, Content: reply.Answer, RequestID: rid}
	if err != nil {
		c.log.Warn("question failed", "request_id", rid, "error", err)
		turn.Role = domain.RoleError
		turn.Content = FailureMessage
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.inFlight--
	if c.closed {
		return ErrClosed
	}
	turn.At = c.clock.Now()
	c.transcript = append(c.transcript, turn)
	if err != nil {
		return apierr.Recast(apierr.KindChat, err)
	}
	return nil
}

// Transcript returns a copy of the turns in append order.
func (c *Controller) Transcript() []domain.Turn {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]domain.Turn(nil), c.transcript...)
}

// Pending reports how many questions are awaiting a reply.
func (c *Controller) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inFlight
}

// Close drops replies that arrive afterwards and cancels background questions.
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	c.cancel()
}

var _ API = (*studyapi.Client)(nil)
