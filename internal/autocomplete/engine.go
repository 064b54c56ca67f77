// Package autocomplete resolves free text into an entity through a debounced,
// stale-suppressing lookup.
package autocomplete

import (
	"context"
	"fmt"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/wolfman30/clinic-nexus/internal/observability/metrics"
	"github.com/wolfman30/clinic-nexus/pkg/logging"
)

const (
	DefaultDebounce = 300 * time.Millisecond
	DefaultMinChars = 2
)

// SearchFunc looks up entities matching query.
type SearchFunc[T any] func(ctx context.Context, query string) ([]T, error)

// Options tune an Engine. Zero values fall back to the defaults.
type Options struct {
	Debounce time.Duration
	MinChars int
	Clock    Clock
	Logger   *logging.Logger
	Metrics  *metrics.SearchMetrics
	// Kind labels logs and metrics, e.g. "patient".
	Kind string
}

// State is a snapshot of the engine. Rev increases with every change.
type State[T any] struct {
	Rev         uint64
	Text        string
	Open        bool
	Loading     bool
	Suggestions []T
	Selected    *T
}

// Engine is one autocomplete input stream. All methods are safe for
// concurrent use; lookups run on the clock's goroutine.
type Engine[T any] struct {
	search   SearchFunc[T]
	display  func(T) string
	clock    Clock
	debounce time.Duration
	minChars int
	logger   *logging.Logger
	metrics  *metrics.SearchMetrics
	kind     string

	mu          sync.Mutex
	text        string
	open        bool
	loading     bool
	suggestions []T
	selected    *T
	seq         uint64
	rev         uint64
	timer       Timer
	closed      bool

	onText   func(string)
	onSelect func(*T)

	emitMu  sync.Mutex
	emitted uint64
	onState func(State[T])
}

func New[T any](search SearchFunc[T], display func(T) string, opts Options) *Engine[T] {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.MinChars <= 0 {
		opts.MinChars = DefaultMinChars
	}
	if opts.Clock == nil {
		opts.Clock = SystemClock
	}
	if opts.Logger == nil {
		opts.Logger = logging.Default()
	}
	if opts.Kind == "" {
		opts.Kind = "entity"
	}
	return &Engine[T]{
		search:   search,
		display:  display,
		clock:    opts.Clock,
		debounce: opts.Debounce,
		minChars: opts.MinChars,
		logger:   opts.Logger.With("component", "autocomplete", "kind", opts.Kind),
		metrics:  opts.Metrics,
		kind:     opts.Kind,
	}
}

// OnTextChange registers the callback fired whenever the text changes,
// including the text written by Select and Clear.
func (e *Engine[T]) OnTextChange(fn func(string)) {
	e.mu.Lock()
	e.onText = fn
	e.mu.Unlock()
}

// OnSelect registers the callback fired by Select (with the entity) and
// Clear (with nil).
func (e *Engine[T]) OnSelect(fn func(*T)) {
	e.mu.Lock()
	e.onSelect = fn
	e.mu.Unlock()
}

// OnStateChange registers an observer of state snapshots. Snapshots are
// delivered in Rev order and older ones are dropped. The observer must not
// call back into the engine.
func (e *Engine[T]) OnStateChange(fn func(State[T])) {
	e.emitMu.Lock()
	e.onState = fn
	e.emitMu.Unlock()
}

// SetText records a keystroke: the list opens and a lookup is scheduled for
// the end of the quiet period. Short queries clear suggestions at once.
func (e *Engine[T]) SetText(text string) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.text = text
	e.open = true
	seq := e.bumpLocked()
	if utf8.RuneCountInString(text) < e.minChars {
		e.suggestions = nil
		e.loading = false
	} else {
		e.timer = e.clock.AfterFunc(e.debounce, func() { e.lookup(seq, text) })
	}
	onText := e.onText
	st := e.snapshotLocked()
	e.mu.Unlock()

	if onText != nil {
		onText(text)
	}
	e.publish(st)
}

// Focus opens the suggestion list without scheduling a lookup.
func (e *Engine[T]) Focus() {
	e.setOpen(true)
}

// Blur closes the list, as an interaction outside the input does.
func (e *Engine[T]) Blur() {
	e.setOpen(false)
}

// Select resolves the input to entity: the selection callback fires, the
// text becomes the entity's display value and the list closes. No lookup is
// scheduled, so selecting the same entity again changes nothing.
func (e *Engine[T]) Select(entity T) {
	text := e.display(entity)

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.bumpLocked()
	selected := entity
	e.selected = &selected
	e.text = text
	e.open = false
	e.loading = false
	onSelect, onText := e.onSelect, e.onText
	st := e.snapshotLocked()
	e.mu.Unlock()

	if onSelect != nil {
		picked := entity
		onSelect(&picked)
	}
	if onText != nil {
		onText(text)
	}
	e.publish(st)
}

// Clear drops the selection and text and closes the list.
func (e *Engine[T]) Clear() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.bumpLocked()
	e.selected = nil
	e.text = ""
	e.open = false
	e.loading = false
	e.suggestions = nil
	onSelect, onText := e.onSelect, e.onText
	st := e.snapshotLocked()
	e.mu.Unlock()

	if onSelect != nil {
		onSelect(nil)
	}
	if onText != nil {
		onText("")
	}
	e.publish(st)
}

// State returns the current snapshot.
func (e *Engine[T]) State() State[T] {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

// Close stops the pending debounce timer. Responses still in flight are
// discarded when they arrive.
func (e *Engine[T]) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.bumpLocked()
	e.closed = true
}

func (e *Engine[T]) setOpen(open bool) {
	e.mu.Lock()
	if e.closed || e.open == open {
		e.mu.Unlock()
		return
	}
	e.open = open
	e.rev++
	st := e.snapshotLocked()
	e.mu.Unlock()
	e.publish(st)
}

// bumpLocked supersedes the pending timer and any in-flight lookup.
func (e *Engine[T]) bumpLocked() uint64 {
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	e.seq++
	e.rev++
	return e.seq
}

func (e *Engine[T]) lookup(seq uint64, query string) {
	e.mu.Lock()
	if seq != e.seq {
		e.mu.Unlock()
		return
	}
	e.timer = nil
	e.loading = true
	e.rev++
	st := e.snapshotLocked()
	e.mu.Unlock()
	e.publish(st)

	start := time.Now()
	results, err := e.safeSearch(query)
	e.metrics.ObserveLatency(e.kind, time.Since(start))

	e.mu.Lock()
	if seq != e.seq {
		e.mu.Unlock()
		e.metrics.ObserveLookup(e.kind, metrics.LookupStale)
		e.logger.Debug("autocomplete: discarded stale response", "query", query)
		return
	}
	e.loading = false
	if err != nil {
		e.suggestions = nil
	} else {
		e.suggestions = results
	}
	e.rev++
	st = e.snapshotLocked()
	e.mu.Unlock()

	if err != nil {
		e.metrics.ObserveLookup(e.kind, metrics.LookupError)
		e.logger.Warn("autocomplete: lookup failed", "query", query, "error", err)
	} else {
		e.metrics.ObserveLookup(e.kind, metrics.LookupApplied)
	}
	e.publish(st)
}

func (e *Engine[T]) safeSearch(query string) (results []T, err error) {
	defer func() {
		if r := recover(); r != nil {
			results = nil
			err = fmt.Errorf("autocomplete: lookup panicked: %v", r)
		}
	}()
	if e.search == nil {
		return nil, nil
	}
	return e.search(context.Background(), query)
}

func (e *Engine[T]) snapshotLocked() State[T] {
	st := State[T]{
		Rev:     e.rev,
		Text:    e.text,
		Open:    e.open,
		Loading: e.loading,
	}
	if e.suggestions != nil {
		st.Suggestions = make([]T, len(e.suggestions))
		copy(st.Suggestions, e.suggestions)
	}
	if e.selected != nil {
		sel := *e.selected
		st.Selected = &sel
	}
	return st
}

func (e *Engine[T]) publish(st State[T]) {
	e.emitMu.Lock()
	defer e.emitMu.Unlock()
	if e.onState == nil || st.Rev <= e.emitted {
		return
	}
	e.emitted = st.Rev
	e.onState(st)
}
