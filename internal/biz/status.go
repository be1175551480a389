package biz

import (
	"sync"

	"github.com/hashicorp/golang-lru/v2/simplelru"
)

//go:generate mockgen -destination=mocks/presenter_mock.go -package=mocks . Presenter

// Level is the severity of a notice shown on the login page.
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Notice is a transient user-visible message.
type Notice struct {
	Level   Level  `json:"level"`
	Message string `json:"message"`
}

// Presenter is the login page's loading and message state.
type Presenter interface {
	SetBusy(busy bool)
	Notify(n Notice)
}

// Status is a snapshot of one browser's login state.
type Status struct {
	Busy   bool    `json:"busy"`
	Notice *Notice `json:"notice,omitempty"`
}

// DefaultBoardSize is the board capacity used when none is configured.
const DefaultBoardSize = 10000

// StatusBoard holds the login state of every browser scope. Entries for
// scopes that are idle with nothing to show, or whose last attempt signed
// in, are dropped; the rest are bounded by an LRU.
type StatusBoard struct {
	mu      sync.Mutex
	entries *simplelru.LRU[string, *boardEntry]
}

type boardEntry struct {
	inFlight int
	notice   *Notice
}

// NewStatusBoard creates an empty board holding at most maxScopes entries.
func NewStatusBoard(maxScopes int) *StatusBoard {
	if maxScopes <= 0 {
		maxScopes = DefaultBoardSize
	}
	// only fails for a non-positive size
	entries, _ := simplelru.NewLRU[string, *boardEntry](maxScopes, nil)
	return &StatusBoard{entries: entries}
}

// For returns the presenter of one scope.
func (b *StatusBoard) For(scope string) Presenter {
	return &scopePresenter{board: b, scope: scope}
}

// Get returns a copy of the scope's state.
func (b *StatusBoard) Get(scope string) Status {
	b.mu.Lock()
	defer b.mu.Unlock()
	e, ok := b.entries.Peek(scope)
	if !ok {
		return Status{}
	}
	out := Status{Busy: e.inFlight > 0}
	if e.notice != nil {
		n := *e.notice
		out.Notice = &n
	}
	return out
}

// Forget drops the scope's state.
func (b *StatusBoard) Forget(scope string) {
	b.mu.Lock()
	b.entries.Remove(scope)
	b.mu.Unlock()
}

// Len returns the number of scopes with state.
func (b *StatusBoard) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.entries.Len()
}

func (b *StatusBoard) update(scope string, fn func(e *boardEntry)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	e, ok := b.entries.Get(scope)
	if !ok {
		e = &boardEntry{}
		b.entries.Add(scope, e)
	}
	fn(e)
	if e.inFlight > 0 {
		return
	}
	// idle: nothing to show, or the page has already navigated to the portal
	if e.notice == nil || e.notice.Level == LevelSuccess {
		b.entries.Remove(scope)
	}
}

// scopePresenter counts attempts in flight, so overlapping attempts keep the
// scope busy until the last one finishes.
type scopePresenter struct {
	board *StatusBoard
	scope string
}

func (p *scopePresenter) SetBusy(busy bool) {
	p.board.update(p.scope, func(e *boardEntry) {
		if busy {
			e.inFlight++
			e.notice = nil
			return
		}
		if e.inFlight > 0 {
			e.inFlight--
		}
	})
}

func (p *scopePresenter) Notify(n Notice) {
	p.board.update(p.scope, func(e *boardEntry) {
		e.notice = &n
	})
}
