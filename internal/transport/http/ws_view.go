package http

import (
	"civil-quiz/internal/app"
	"civil-quiz/internal/domain"
)

type outboundMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type messagePayload struct {
	Message string `json:"message"`
}

type viewPayload struct {
	Name domain.ViewName `json:"name"`
}

type greetingPayload struct {
	Text string `json:"text"`
}

type catalogPayload struct {
	Entries []domain.ManifestEntry `json:"entries"`
}

type timerPayload struct {
	Clock string `json:"clock"`
}

type syncPayload struct {
	Status   domain.SyncStatus `json:"status"`
	Message  string            `json:"message"`
	Degraded bool              `json:"degraded"`
}

// wsView turns controller callbacks into frames for the connection writer.
// Sends are dropped once the connection is gone.
type wsView struct {
	send chan<- outboundMessage
	done <-chan struct{}
}

func (v *wsView) emit(typ string, payload any) {
	select {
	case v.send <- outboundMessage{Type: typ, Payload: payload}:
	case <-v.done:
	}
}

func (v *wsView) ShowView(name domain.ViewName) { v.emit("view", viewPayload{Name: name}) }

func (v *wsView) ShowAuthStatus(status app.AuthStatus) { v.emit("authStatus", status) }

func (v *wsView) Alert(message string) { v.emit("alert", messagePayload{Message: message}) }

func (v *wsView) ShowGreeting(text string) { v.emit("greeting", greetingPayload{Text: text}) }

func (v *wsView) ShowLoading(message string) { v.emit("loading", messagePayload{Message: message}) }

func (v *wsView) ShowCatalog(entries []domain.ManifestEntry) {
	v.emit("catalog", catalogPayload{Entries: entries})
}

func (v *wsView) ShowCatalogError(message string) {
	v.emit("catalogError", messagePayload{Message: message})
}

func (v *wsView) ShowQuestion(q app.QuestionView) { v.emit("question", q) }

func (v *wsView) ShowFeedback(f app.FeedbackView) { v.emit("feedback", f) }

func (v *wsView) ShowTimer(clock string) { v.emit("timer", timerPayload{Clock: clock}) }

func (v *wsView) ShowResult(r app.ResultView) { v.emit("result", r) }

func (v *wsView) ShowSyncStatus(status domain.SyncStatus) {
	v.emit("syncStatus", syncPayload{Status: status, Message: status.Message(), Degraded: status.Degraded()})
}
