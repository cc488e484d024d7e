package workspace

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/yungbote/neurobridge-companion/internal/domain/materials"
	"github.com/yungbote/neurobridge-companion/internal/modules/chat"
	"github.com/yungbote/neurobridge-companion/internal/modules/identity"
	"github.com/yungbote/neurobridge-companion/internal/modules/learning/flashcards"
	"github.com/yungbote/neurobridge-companion/internal/modules/learning/quiz"
	"github.com/yungbote/neurobridge-companion/internal/platform/apierr"
	"github.com/yungbote/neurobridge-companion/internal/platform/clock"
	"github.com/yungbote/neurobridge-companion/internal/platform/logger"
)

var ErrSuperseded = errors.New("navigation superseded")

func superseded(materialID string) error {
	return apierr.New(apierr.KindInvalid, 0, "superseded", fmt.Errorf("%w: %w: material %q", ErrSuperseded, apierr.ErrInvalidState, materialID))
}

type Tab string

const (
	TabQuiz       Tab = "quiz"
	TabFlashcards Tab = "flashcards"
	TabChat       Tab = "chat"
)

func (t Tab) Valid() bool { return t == TabQuiz || t == TabFlashcards || t == TabChat }

type Identity interface {
	Authenticated() bool
	OnChange(fn func(identity.Change))
}

type Materials interface {
	Get(ctx context.Context, id string) (materials.Material, error)
}

type Deps struct {
	Log          *logger.Logger
	Identity     Identity
	Materials    Materials
	QuizAPI      quiz.API
	FlashcardAPI flashcards.API
	ChatAPI      chat.API
	Clock        clock.Clock
}

// Workspace holds the detail view of the active material. At most one material is mounted; its
// controllers are closed when the user navigates elsewhere or signs out.
type Workspace struct {
	log  *logger.Logger
	deps Deps

	mu    sync.Mutex
	epoch uint64
	// target is the material the latest navigation asked for, "" for other views.
	target  string
	route   Route
	current *Mount
}

func New(deps Deps) *Workspace {
	if deps.Log == nil {
		deps.Log = logger.Nop()
	}
	if deps.Clock == nil {
		deps.Clock = clock.Real()
	}
	w := &Workspace{
		log:   deps.Log.With("component", "workspace"),
		deps:  deps,
		route: Route{View: ViewLogin},
	}
	if deps.Identity != nil {
		if deps.Identity.Authenticated() {
			w.route = Route{View: ViewDashboard}
		}
		deps.Identity.OnChange(w.onIdentityChange)
	}
	return w
}

func (w *Workspace) onIdentityChange(c identity.Change) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if c.Authenticated {
		if w.route.View == ViewLogin {
			w.route = Route{View: ViewDashboard}
		}
		return
	}
	w.epoch++
	w.target = ""
	w.unmountLocked()
	w.route = Route{View: ViewLogin, Redirect: true}
	w.log.Info("signed out, workspace cleared", "reason", c.Reason)
}

func (w *Workspace) authenticated() bool {
	return w.deps.Identity != nil && w.deps.Identity.Authenticated()
}

// Navigate moves to the detail view of materialID, or to the fallback view Resolve picks.
// Navigating to the mounted material keeps its controllers.
func (w *Workspace) Navigate(ctx context.Context, materialID string) (Route, error) {
	route := Resolve(Request{Authenticated: w.authenticated(), MaterialID: materialID})

	w.mu.Lock()
	w.epoch++
	epoch := w.epoch
	w.target = route.MaterialID
	if route.View != ViewMaterial {
		w.unmountLocked()
		w.route = route
		w.mu.Unlock()
		return route, nil
	}
	if w.current != nil && w.current.Material.ID == route.MaterialID {
		w.route = route
		w.mu.Unlock()
		return route, nil
	}
	w.mu.Unlock()

	m, err := w.deps.Materials.Get(ctx, route.MaterialID)

	w.mu.Lock()
	defer w.mu.Unlock()
	if apierr.Is(err, apierr.KindAuth) {
		w.unmountLocked()
		w.route = Route{View: ViewLogin, Redirect: true}
		return w.route, err
	}
	// A newer navigation to the same material shares this result.
	if err == nil && w.current != nil && w.current.Material.ID == route.MaterialID {
		w.route = route
		return route, nil
	}
	if w.epoch != epoch && (err != nil || w.target != route.MaterialID) {
		return w.route, superseded(route.MaterialID)
	}
	if err != nil {
		w.unmountLocked()
		w.route = Route{View: ViewDashboard, Redirect: true}
		w.log.Warn("material unavailable", "material_id", route.MaterialID, "error", err)
		return w.route, err
	}

	w.unmountLocked()
	w.current = newMount(w.deps, w.log, m)
	w.route = route
	w.log.Info("material mounted", "material_id", m.ID)
	return route, nil
}

func (w *Workspace) Route() Route {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.route
}

// Current returns the mounted material view, or nil.
func (w *Workspace) Current() *Mount {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current
}

// Mounted returns the view of materialID when it is the mounted one.
func (w *Workspace) Mounted(materialID string) (*Mount, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.current == nil || w.current.Material.ID != materialID {
		return nil, apierr.New(apierr.KindNotFound, 0, "not_mounted", fmt.Errorf("%w: material %q is not open", apierr.ErrNotFound, materialID))
	}
	return w.current, nil
}

func (w *Workspace) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.epoch++
	w.target = ""
	w.unmountLocked()
}

func (w *Workspace) unmountLocked() {
	if w.current == nil {
		return
	}
	w.current.close()
	w.log.Debug("material unmounted", "material_id", w.current.Material.ID)
	w.current = nil
}

// Mount is the detail view of one material. Each tab gets its own controller, created the first
// time the tab is opened.
type Mount struct {
	Material materials.Material

	deps Deps
	log  *logger.Logger

	mu         sync.Mutex
	closed     bool
	active     Tab
	quiz       *quiz.Controller
	flashcards *flashcards.Controller
	chat       *chat.Controller
}

func newMount(deps Deps, log *logger.Logger, m materials.Material) *Mount {
	return &Mount{Material: m, deps: deps, log: log.With("material_id", m.ID)}
}

func (m *Mount) ActiveTab() Tab {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

// Open makes tab visible. Opening the flashcard tab for the first time loads the existing deck.
func (m *Mount) Open(ctx context.Context, tab Tab) error {
	if !tab.Valid() {
		return apierr.New(apierr.KindInvalid, 0, "invalid_tab", fmt.Errorf("%w: tab %q", apierr.ErrInvalidArgument, tab))
	}
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return apierr.New(apierr.KindInvalid, 0, "closed", apierr.ErrInvalidState)
	}
	m.active = tab
	var fetch *flashcards.Controller
	switch tab {
	case TabQuiz:
		if m.quiz == nil {
			m.quiz = quiz.New(quiz.Deps{Log: m.log, API: m.deps.QuizAPI, Clock: m.deps.Clock})
		}
	case TabFlashcards:
		if m.flashcards == nil {
			m.flashcards = flashcards.New(flashcards.Deps{Log: m.log, API: m.deps.FlashcardAPI, MaterialID: m.Material.ID})
			fetch = m.flashcards
		}
	case TabChat:
		if m.chat == nil {
			m.chat = chat.New(chat.Deps{Log: m.log, API: m.deps.ChatAPI, Clock: m.deps.Clock, MaterialID: m.Material.ID})
		}
	}
	m.mu.Unlock()

	if fetch != nil {
		if err := fetch.Fetch(ctx); err != nil && !errors.Is(err, flashcards.ErrDiscarded) {
			return err
		}
	}
	return nil
}

func (m *Mount) Quiz(ctx context.Context) (*quiz.Controller, error) {
	if err := m.Open(ctx, TabQuiz); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.quiz, nil
}

// Flashcards opens the flashcard tab. The controller is returned even when loading the existing
// deck failed; the failure is in its snapshot as well.
func (m *Mount) Flashcards(ctx context.Context) (*flashcards.Controller, error) {
	err := m.Open(ctx, TabFlashcards)
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.flashcards, err
}

func (m *Mount) Chat(ctx context.Context) (*chat.Controller, error) {
	if err := m.Open(ctx, TabChat); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.chat, nil
}

func (m *Mount) close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	if m.quiz != nil {
		m.quiz.Close()
	}
	if m.flashcards != nil {
		m.flashcards.Close()
	}
	if m.chat != nil {
		m.chat.Close()
	}
}
