package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"golang.org/x/net/websocket"

	"github.com/wolfman30/clinic-nexus/internal/autocomplete"
	httpmiddleware "github.com/wolfman30/clinic-nexus/internal/http/middleware"
	"github.com/wolfman30/clinic-nexus/internal/observability/metrics"
	"github.com/wolfman30/clinic-nexus/internal/search"
	"github.com/wolfman30/clinic-nexus/pkg/logging"
)

type SearchConfig struct {
	Searcher search.Searcher
	Debounce time.Duration
	MinChars int
	// Origins gates the socket handshake. Nil allows same-host pages only.
	Origins *httpmiddleware.OriginPolicy
	Metrics *metrics.SearchMetrics
	Logger  *logging.Logger
}

// SearchHandler resolves entity references, either once per request or as a
// debounced autocomplete session over a websocket.
type SearchHandler struct {
	searcher search.Searcher
	debounce time.Duration
	minChars int
	origins  *httpmiddleware.OriginPolicy
	metrics  *metrics.SearchMetrics
	logger   *logging.Logger
}

func NewSearchHandler(cfg SearchConfig) *SearchHandler {
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	if cfg.MinChars <= 0 {
		cfg.MinChars = autocomplete.DefaultMinChars
	}
	return &SearchHandler{
		searcher: cfg.Searcher,
		debounce: cfg.Debounce,
		minChars: cfg.MinChars,
		origins:  cfg.Origins,
		metrics:  cfg.Metrics,
		logger:   cfg.Logger,
	}
}

// SocketEvent is what the input widget sends.
type SocketEvent struct {
	Type string `json:"type"` // "input", "focus", "blur", "select", "clear", "ping"
	Text string `json:"text,omitempty"`
	ID   int    `json:"id,omitempty"`
}

// SocketFrame is what the server pushes back.
type SocketFrame struct {
	Type        string       `json:"type"` // "state", "error", "pong"
	Rev         uint64       `json:"rev,omitempty"`
	Text        string       `json:"text"`
	Open        bool         `json:"open"`
	Loading     bool         `json:"loading"`
	Suggestions []search.Hit `json:"suggestions"`
	Selected    *search.Hit  `json:"selected,omitempty"`
	Error       string       `json:"error,omitempty"`
}

func stateFrame(st autocomplete.State[search.Hit]) SocketFrame {
	suggestions := st.Suggestions
	if suggestions == nil {
		suggestions = []search.Hit{}
	}
	return SocketFrame{
		Type:        "state",
		Rev:         st.Rev,
		Text:        st.Text,
		Open:        st.Open,
		Loading:     st.Loading,
		Suggestions: suggestions,
		Selected:    st.Selected,
	}
}

// Lookup runs one search. Queries shorter than the minimum return no hits.
// Route: GET /search/{kind}
func (h *SearchHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	kind, err := search.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if utf8.RuneCountInString(query) < h.minChars {
		respond(w, http.StatusOK, []search.Hit{}, nil, nil)
		return
	}
	hits, err := h.searcher.Search(r.Context(), kind, query)
	if err != nil {
		h.logger.Warn("search: lookup failed", "kind", string(kind), "error", err)
		respond(w, http.StatusOK, nil, err, nil)
		return
	}
	if hits == nil {
		hits = []search.Hit{}
	}
	respond(w, http.StatusOK, hits, nil, nil)
}

// Socket upgrades to a websocket carrying one autocomplete session.
// Route: GET /ws/search/{kind}
func (h *SearchHandler) Socket(w http.ResponseWriter, r *http.Request) {
	kind, err := search.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	websocket.Server{
		Handshake: h.handshake,
		Handler: func(conn *websocket.Conn) {
			h.serveSocket(conn, kind)
		},
	}.ServeHTTP(w, r)
}

// handshake admits clients without an Origin header (CLI tools, services)
// and browsers whose origin the policy allows. A refusal answers 403.
func (h *SearchHandler) handshake(cfg *websocket.Config, r *http.Request) error {
	parsed, err := websocket.Origin(cfg, r)
	if err != nil {
		return fmt.Errorf("search socket: %w", err)
	}
	cfg.Origin = parsed
	origin := r.Header.Get("Origin")
	if parsed == nil || h.origins.Allows(origin, r.Host) {
		return nil
	}
	h.logger.Warn("search socket: origin refused", "origin", origin)
	return fmt.Errorf("search socket: origin %q not allowed", origin)
}

func (h *SearchHandler) serveSocket(conn *websocket.Conn, kind search.Kind) {
	logger := h.logger.With("kind", string(kind))
	engine := search.NewEngine(h.searcher, kind, h.debounce, h.minChars, h.metrics, logger)
	defer engine.Close()

	var sendMu sync.Mutex
	send := func(frame SocketFrame) {
		sendMu.Lock()
		defer sendMu.Unlock()
		if err := websocket.JSON.Send(conn, frame); err != nil {
			logger.Debug("search socket: send failed", "error", err)
		}
	}
	engine.OnStateChange(func(st autocomplete.State[search.Hit]) {
		send(stateFrame(st))
	})

	logger.Info("search socket: opened")
	send(stateFrame(engine.State()))

	for {
		var ev SocketEvent
		if err := websocket.JSON.Receive(conn, &ev); err != nil {
			logger.Debug("search socket: closed", "error", err)
			return
		}
		switch ev.Type {
		case "input":
			engine.SetText(ev.Text)
		case "focus":
			engine.Focus()
		case "blur":
			engine.Blur()
		case "clear":
			engine.Clear()
		case "select":
			hit, ok := findHit(engine.State().Suggestions, ev.ID)
			if !ok {
				send(SocketFrame{Type: "error", Suggestions: []search.Hit{}, Error: "unknown suggestion"})
				continue
			}
			engine.Select(hit)
		case "ping":
			send(SocketFrame{Type: "pong", Suggestions: []search.Hit{}})
		default:
			send(SocketFrame{Type: "error", Suggestions: []search.Hit{}, Error: "unknown event " + ev.Type})
		}
	}
}

func findHit(hits []search.Hit, id int) (search.Hit, bool) {
	for _, hit := range hits {
		if hit.ID == id {
			return hit, true
		}
	}
	return search.Hit{}, false
}
