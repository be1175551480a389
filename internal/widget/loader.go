package widget

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/simplelru"
	"go.uber.org/zap"

	"github.com/pr-poehali-dev/telegram-auth-portal/internal/auth"
)

// ErrStaleMount is returned when a callback addresses a mount that no longer exists.
var ErrStaleMount = errors.New("widget mount is gone")

// ErrMountBusy is returned when a callback arrives while an earlier one for
// the same mount is still running.
var ErrMountBusy = errors.New("widget mount is busy")

// Callback receives the widget's identity payload for one mount.
type Callback func(ctx context.Context, payload auth.IdentityPayload) auth.Result

// Script is the script element appended to a container.
type Script struct {
	Src   string
	Attrs []Attr
	Async bool
}

// Mount is one widget instance living in a container.
type Mount struct {
	key         string
	containerID string
	config      Config
	script      Script
	callback    Callback
	loader      *Loader
	cancelled   bool // guarded by loader.mu
	inFlight    bool // guarded by loader.mu
}

// Key returns the unique key the widget uses to address this mount.
func (m *Mount) Key() string { return m.key }

// ContainerID returns the container the mount lives in.
func (m *Mount) ContainerID() string { return m.containerID }

// Config returns the configuration the mount was created with.
func (m *Mount) Config() Config { return m.config }

// Script returns the script element injected for this mount.
func (m *Mount) Script() Script { return m.script }

// Active reports whether the mount has not been unmounted.
func (m *Mount) Active() bool {
	m.loader.mu.Lock()
	defer m.loader.mu.Unlock()
	return !m.cancelled
}

// Unmount clears the container and cancels the mount. Safe to call twice.
func (m *Mount) Unmount() {
	m.loader.mu.Lock()
	defer m.loader.mu.Unlock()
	m.loader.retireLocked(m)
}

// Loader injects widget scripts into containers and keeps the per-mount
// dispatch table the page's callbacks are routed through.
type Loader struct {
	mu         sync.Mutex
	containers *simplelru.LRU[string, *Mount] // container id -> current mount
	mounts     map[string]*Mount              // mount key -> mount
	logger     *zap.Logger
}

// NewLoader creates a loader tracking at most maxContainers containers.
// When full, the least recently mounted container is unmounted.
func NewLoader(maxContainers int, logger *zap.Logger) (*Loader, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	l := &Loader{
		mounts: make(map[string]*Mount),
		logger: logger,
	}
	containers, err := simplelru.NewLRU[string, *Mount](maxContainers, func(_ string, m *Mount) {
		l.cancelLocked(m)
	})
	if err != nil {
		return nil, err
	}
	l.containers = containers
	return l, nil
}

// Mount replaces whatever the container holds with a fresh widget for cfg.
// The callback is registered before the script is built, so the widget can
// never call a key that is not yet in the dispatch table.
func (l *Loader) Mount(containerID string, cfg Config, cb Callback) (*Mount, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cb == nil && !cfg.RedirectMode() {
		return nil, fmt.Errorf("%w: callback mode requires a callback", ErrInvalidConfig)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	// clear the container; no-op when empty
	l.containers.Remove(containerID)

	m := &Mount{
		key:         uuid.NewString(),
		containerID: containerID,
		config:      cfg,
		callback:    cb,
		loader:      l,
	}
	l.mounts[m.key] = m

	m.script = Script{
		Src:   ScriptSrc,
		Attrs: Attributes(cfg, DispatchExpr(m.key)),
		Async: true,
	}
	l.containers.Add(containerID, m)

	l.logger.Debug("widget mounted",
		zap.String("container", containerID),
		zap.String("mount", m.key),
		zap.Bool("redirect_mode", cfg.RedirectMode()),
	)
	return m, nil
}

// Unmount clears a container. Safe to call on an empty container.
func (l *Loader) Unmount(containerID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.containers.Remove(containerID)
}

// Current returns the live mount of a container.
func (l *Loader) Current(containerID string) (*Mount, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.containers.Peek(containerID)
}

// Dispatch delivers a widget callback to the mount it was issued for. Calls
// for unknown or unmounted keys, or for a key that belongs to another
// container, return ErrStaleMount and reach no callback. At most one callback
// per mount runs at a time; a concurrent one gets ErrMountBusy. A successful
// callback consumes the mount, a failed one leaves it usable.
func (l *Loader) Dispatch(ctx context.Context, containerID, key string, payload auth.IdentityPayload) (auth.Result, error) {
	l.mu.Lock()
	m, ok := l.mounts[key]
	if ok && (m.cancelled || m.containerID != containerID || m.callback == nil) {
		ok = false
	}
	if !ok {
		l.mu.Unlock()
		l.logger.Info("dropped widget callback for stale mount",
			zap.String("container", containerID),
			zap.String("mount", key),
		)
		return auth.Result{}, ErrStaleMount
	}
	if m.inFlight {
		l.mu.Unlock()
		l.logger.Info("dropped concurrent widget callback",
			zap.String("container", containerID),
			zap.String("mount", key),
		)
		return auth.Result{}, ErrMountBusy
	}
	m.inFlight = true
	l.mu.Unlock()

	res := m.callback(ctx, payload)

	l.mu.Lock()
	m.inFlight = false
	if res.OK() {
		l.retireLocked(m)
	}
	l.mu.Unlock()
	return res, nil
}

// Render returns the container's current content as HTML.
func (l *Loader) Render(containerID string) template.HTML {
	m, ok := l.Current(containerID)
	if !ok {
		return ""
	}
	return RenderScript(m.Script())
}

// Len returns the number of mounted containers.
func (l *Loader) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.containers.Len()
}

// retireLocked unmounts m, clearing its container if m still occupies it.
func (l *Loader) retireLocked(m *Mount) {
	if current, ok := l.containers.Peek(m.containerID); ok && current == m {
		l.containers.Remove(m.containerID) // evict callback cancels
		return
	}
	l.cancelLocked(m)
}

func (l *Loader) cancelLocked(m *Mount) {
	if m.cancelled {
		return
	}
	m.cancelled = true
	delete(l.mounts, m.key)
}

// RenderScript renders a script element. Attribute names are the fixed
// widget names above; values are escaped.
func RenderScript(s Script) template.HTML {
	var b strings.Builder
	b.WriteString(`<script`)
	if s.Async {
		b.WriteString(` async`)
	}
	b.WriteString(` src="`)
	b.WriteString(template.HTMLEscapeString(s.Src))
	b.WriteString(`"`)
	for _, a := range s.Attrs {
		b.WriteString(` `)
		b.WriteString(a.Name)
		b.WriteString(`="`)
		b.WriteString(template.HTMLEscapeString(a.Value))
		b.WriteString(`"`)
	}
	b.WriteString(`></script>`)
	return template.HTML(b.String())
}
