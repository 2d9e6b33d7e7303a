package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"civil-quiz/internal/app"
	"civil-quiz/internal/domain"
	"civil-quiz/internal/metrics"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Services are shared by every connection; identity and quiz state are per
// connection.
type Services struct {
	AuthClient    app.AuthClient
	KV            app.KV
	Catalog       *app.Catalog
	Reporter      *app.Reporter
	Metrics       *metrics.Metrics
	Log           *zap.Logger
	RedirectDelay time.Duration
	// RateLimit is inbound messages per second per connection.
	RateLimit rate.Limit
	Burst     int
	// TickerFactory is used by tests to drive the quiz clock.
	TickerFactory app.TickerFactory
	// AllowedOrigins lists browser origins that may open a socket. Empty
	// means same-origin only.
	AllowedOrigins []string
}

type WSHandler struct {
	svc      Services
	upgrader websocket.Upgrader
}

func NewWSHandler(svc Services) *WSHandler {
	if svc.Log == nil {
		svc.Log = zap.NewNop()
	}
	if svc.RateLimit <= 0 {
		svc.RateLimit = 10
	}
	if svc.Burst <= 0 {
		svc.Burst = 20
	}
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
	}
	if len(svc.AllowedOrigins) > 0 {
		allowed := make(map[string]struct{}, len(svc.AllowedOrigins))
		for _, o := range svc.AllowedOrigins {
			allowed[o] = struct{}{}
		}
		upgrader.CheckOrigin = func(r *http.Request) bool {
			_, ok := allowed[r.Header.Get("Origin")]
			return ok
		}
	}
	return &WSHandler{svc: svc, upgrader: upgrader}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type loginPayload struct {
	Name          string `json:"name"`
	Qualification string `json:"qual"`
	Code          string `json:"code"`
}

type startPayload struct {
	ID   *int   `json:"id"`
	File string `json:"file"`
}

type answerPayload struct {
	Option int `json:"option"`
}

// ServeWS upgrades the request and runs one quiz client over it. The
// deviceId query parameter scopes the stored identity.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	deviceID := r.URL.Query().Get("deviceId")
	if deviceID == "" {
		http.Error(w, "missing deviceId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.svc.Log.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	log := h.svc.Log.With(zap.String("device", deviceID))
	h.svc.Metrics.ConnectionOpened()
	defer h.svc.Metrics.ConnectionClosed()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	send := make(chan outboundMessage, 32)
	done := make(chan struct{})
	writerDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for {
			select {
			case msg := <-send:
				if err := conn.WriteJSON(msg); err != nil {
					log.Debug("ws write error", zap.Error(err))
					return
				}
			case <-done:
				return
			}
		}
	}()

	view := &wsView{send: send, done: done}
	identities := app.NewIdentityStore(h.svc.KV, "device:"+deviceID)
	countdown := app.NewCountdown(h.svc.TickerFactory)
	controller := app.NewController(view, app.Deps{
		Auth:          app.NewAuthenticator(h.svc.AuthClient, identities, log),
		Identities:    identities,
		Catalog:       h.svc.Catalog,
		Reporter:      h.svc.Reporter,
		Timer:         countdown,
		Metrics:       h.svc.Metrics,
		Log:           log,
		RedirectDelay: h.svc.RedirectDelay,
	})

	// Commands run one at a time in arrival order.
	queue := make(chan inboundMessage, 64)
	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		for msg := range queue {
			if ctx.Err() != nil {
				continue
			}
			h.dispatch(ctx, controller, view, msg, log)
		}
	}()

	limiter := rate.NewLimiter(h.svc.RateLimit, h.svc.Burst)
read:
	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		if !limiter.Allow() {
			view.emit("error", messagePayload{Message: "rate limit exceeded"})
			continue
		}
		select {
		case queue <- inbound:
		case <-ctx.Done():
			break read
		}
	}

	cancel()
	close(queue)
	close(done)
	<-workerDone
	countdown.Stop()
	<-writerDone
}

func (h *WSHandler) dispatch(ctx context.Context, c *app.Controller, view *wsView, msg inboundMessage, log *zap.Logger) {
	run := func(op func() error) { report(view, log, msg.Type, op()) }

	switch msg.Type {
	case "boot":
		run(func() error { return c.Boot(ctx) })
	case "login":
		var p loginPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			view.emit("error", messagePayload{Message: "invalid login payload"})
			return
		}
		run(func() error { return c.Login(ctx, p.Name, p.Qualification, p.Code) })
	case "logout":
		run(func() error { return c.Logout(ctx) })
	case "dashboard":
		run(func() error { return c.Dashboard(ctx) })
	case "start":
		var p startPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil || (p.ID == nil && p.File == "") {
			view.emit("error", messagePayload{Message: "invalid start payload"})
			return
		}
		if p.ID != nil {
			id := *p.ID
			run(func() error { return c.Select(ctx, id) })
			return
		}
		run(func() error { return c.SelectFile(ctx, p.File) })
	case "answer":
		var p answerPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			view.emit("error", messagePayload{Message: "invalid answer payload"})
			return
		}
		run(func() error { return c.Answer(p.Option) })
	case "next":
		run(func() error { return c.Next(ctx) })
	default:
		view.emit("error", messagePayload{Message: "unsupported message type"})
	}
}

// report forwards usage errors to the client. Failures the controller has
// already rendered (alerts, catalog errors, login status) are only logged.
func report(view *wsView, log *zap.Logger, op string, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, domain.ErrNoActiveQuiz),
		errors.Is(err, domain.ErrQuestionUnanswered),
		errors.Is(err, domain.ErrOptionNotFound),
		errors.Is(err, domain.ErrQuizFinished),
		errors.Is(err, domain.ErrLoginInProgress),
		errors.Is(err, domain.ErrQuizNotFound),
		errors.Is(err, domain.ErrNotLoggedIn):
		view.emit("error", messagePayload{Message: err.Error()})
	default:
		log.Debug("operation failed", zap.String("op", op), zap.Error(err))
	}
}
