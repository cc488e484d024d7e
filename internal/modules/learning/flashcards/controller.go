package flashcards

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/samber/lo"

	"github.com/yungbote/neurobridge-companion/internal/domain/learning"
	"github.com/yungbote/neurobridge-companion/internal/platform/apierr"
	"github.com/yungbote/neurobridge-companion/internal/platform/logger"
)

var (
	ErrClosed    = errors.New("flashcard session closed")
	ErrDiscarded = errors.New("flashcard request discarded")
)

type API interface {
	GenerateFlashcards(ctx context.Context, materialID string) ([]learning.Flashcard, error)
	GetFlashcards(ctx context.Context, materialID string) ([]learning.Flashcard, error)
}

type Status string

const (
	StatusIdle       Status = "idle"
	StatusLoading    Status = "loading"
	StatusEmpty      Status = "empty"
	StatusGenerating Status = "generating"
	StatusReady      Status = "ready"
)

type Deps struct {
	Log        *logger.Logger
	API        API
	MaterialID string
}

// Controller reviews the flashcard deck of one material. The deck is replaced wholesale by Fetch
// or Generate and never edited in place.
type Controller struct {
	log        *logger.Logger
	api        API
	materialID string

	mu       sync.Mutex
	closed   bool
	status   Status
	epoch    uint64
	deck     []learning.Flashcard
	cursor   int
	revealed bool
	lastErr  error
}

func New(deps Deps) *Controller {
	if deps.Log == nil {
		deps.Log = logger.Nop()
	}
	return &Controller{
		log:        deps.Log.With("component", "flashcards", "material_id", deps.MaterialID),
		api:        deps.API,
		materialID: strings.TrimSpace(deps.MaterialID),
		status:     StatusIdle,
	}
}

type Snapshot struct {
	MaterialID string               `json:"material_id"`
	Status     Status               `json:"status"`
	Deck       []learning.Flashcard `json:"deck"`
	Cursor     int                  `json:"cursor"`
	Revealed   bool                 `json:"revealed"`
	Error      string               `json:"error,omitempty"`
	Err        error                `json:"-"`
}

// NeedsGeneration reports whether the material has no deck yet and the caller should offer
// generation instead of an empty review.
func (s Snapshot) NeedsGeneration() bool { return s.Status == StatusEmpty }

func (s Snapshot) Current() (learning.Flashcard, bool) {
	if s.Cursor < 0 || s.Cursor >= len(s.Deck) {
		return learning.Flashcard{}, false
	}
	return s.Deck[s.Cursor], true
}

// Fetch loads a previously generated deck. A missing deck is not an error.
func (c *Controller) Fetch(ctx context.Context) error {
	return c.load(ctx, "fetch", StatusLoading, c.api.GetFlashcards)
}

// Generate requests a fresh deck, replacing the current one on success.
func (c *Controller) Generate(ctx context.Context) error {
	return c.load(ctx, "generate", StatusGenerating, c.api.GenerateFlashcards)
}

func (c *Controller) load(ctx context.Context, op string, pending Status, call func(context.Context, string) ([]learning.Flashcard, error)) error {
	if c.materialID == "" {
		return apierr.New(apierr.KindInvalid, 0, "missing_material_id", apierr.ErrInvalidArgument)
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return apierr.New(apierr.KindInvalid, 0, "closed", ErrClosed)
	}
	if c.status == StatusLoading || c.status == StatusGenerating {
		s := c.status
		c.mu.Unlock()
		return apierr.New(apierr.KindInvalid, 0, "invalid_state", fmt.Errorf("%w: %s while %s", apierr.ErrInvalidState, op, s))
	}
	prev := c.status
	c.status = pending
	c.lastErr = nil
	c.epoch++
	epoch := c.epoch
	c.mu.Unlock()

	cards, err := call(ctx, c.materialID)
	if op == "fetch" && apierr.Is(err, apierr.KindNotFound) {
		cards, err = nil, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.epoch != epoch {
		c.log.Debug("dropping stale deck", "op", op)
		return ErrDiscarded
	}
	if err != nil {
		c.status = prev
		c.lastErr = apierr.Recast(apierr.KindGeneration, err)
		c.log.Warn("flashcard request failed", "op", op, "error", err)
		return c.lastErr
	}

	cards = lo.Filter(cards, func(f learning.Flashcard, _ int) bool {
		return strings.TrimSpace(f.Question) != ""
	})
	if len(cards) == 0 {
		if op == "generate" {
			c.status = prev
			c.lastErr = apierr.Wrap(apierr.KindGeneration, errors.New("generated deck is empty"))
			return c.lastErr
		}
		c.status = StatusEmpty
		c.deck = nil
		c.cursor = 0
		c.revealed = false
		return nil
	}
	c.deck = cards
	c.cursor = 0
	c.revealed = false
	c.status = StatusReady
	c.log.Info("deck loaded", "op", op, "cards", len(cards))
	return nil
}

// ToggleReveal flips the answer face of the current card.
func (c *Controller) ToggleReveal() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.readyLocked("reveal"); err != nil {
		return err
	}
	c.revealed = !c.revealed
	return nil
}

func (c *Controller) Next() error {
	return c.move(func(i int) int { return i + 1 })
}

func (c *Controller) Prev() error {
	return c.move(func(i int) int { return i - 1 })
}

func (c *Controller) GoTo(i int) error {
	return c.move(func(int) int { return i })
}

// move clamps the cursor to the deck. Arriving at a different card hides its answer.
func (c *Controller) move(to func(int) int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.readyLocked("navigate"); err != nil {
		return err
	}
	next := lo.Clamp(to(c.cursor), 0, len(c.deck)-1)
	if next != c.cursor {
		c.cursor = next
		c.revealed = false
	}
	return nil
}

func (c *Controller) readyLocked(op string) error {
	if c.closed {
		return apierr.New(apierr.KindInvalid, 0, "closed", ErrClosed)
	}
	if c.status != StatusReady {
		return apierr.New(apierr.KindInvalid, 0, "invalid_state", fmt.Errorf("%w: %s with no deck", apierr.ErrInvalidState, op))
	}
	return nil
}

func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.epoch++
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := Snapshot{
		MaterialID: c.materialID,
		Status:     c.status,
		Deck:       append([]learning.Flashcard(nil), c.deck...),
		Cursor:     c.cursor,
		Revealed:   c.revealed,
		Err:        c.lastErr,
	}
	if c.lastErr != nil {
		s.Error = c.lastErr.Error()
	}
	return s
}
