package app_test

import (
	"context"
	"fmt"
	"sync"
	"time"

	"civil-quiz/internal/app"
	"civil-quiz/internal/domain"
)

type authFunc func(ctx context.Context, name, qual, code string) error

func (f authFunc) Verify(ctx context.Context, name, qual, code string) error {
	return f(ctx, name, qual, code)
}

type recordingScores struct {
	mu      sync.Mutex
	records []domain.ResultRecord
	err     error
}

func (r *recordingScores) Submit(_ context.Context, rec domain.ResultRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, rec)
	return r.err
}

func (r *recordingScores) calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}

// keepOrder makes every shuffle the identity permutation.
type keepOrder struct{}

func (keepOrder) Intn(n int) int { return n - 1 }

type fakeTicker struct {
	c       chan time.Time
	mu      sync.Mutex
	stopped bool
}

func (f *fakeTicker) C() <-chan time.Time { return f.c }

func (f *fakeTicker) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = true
}

func (f *fakeTicker) isStopped() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stopped
}

// fakeClock hands out tickers that only fire when the test says so.
type fakeClock struct {
	mu      sync.Mutex
	tickers []*fakeTicker
}

func (f *fakeClock) factory(time.Duration) app.Ticker {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := &fakeTicker{c: make(chan time.Time)}
	f.tickers = append(f.tickers, t)
	return t
}

func (f *fakeClock) last() *fakeTicker {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tickers[len(f.tickers)-1]
}

// recordingView keeps a flat log of what the controller rendered.
type recordingView struct {
	mu     sync.Mutex
	events []string
	last   app.ResultView
}

func (v *recordingView) add(format string, args ...any) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.events = append(v.events, fmt.Sprintf(format, args...))
}

func (v *recordingView) log() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]string(nil), v.events...)
}

func (v *recordingView) reset() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.events = nil
}

func (v *recordingView) result() app.ResultView {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.last
}

func (v *recordingView) ShowView(name domain.ViewName) { v.add("view:%s", name) }
func (v *recordingView) ShowAuthStatus(s app.AuthStatus) {
	v.add("auth:%s:%s", s.State, s.Message)
}
func (v *recordingView) Alert(message string)       { v.add("alert:%s", message) }
func (v *recordingView) ShowGreeting(text string)   { v.add("greeting:%s", text) }
func (v *recordingView) ShowLoading(message string) { v.add("loading:%s", message) }
func (v *recordingView) ShowCatalog(entries []domain.ManifestEntry) {
	names := ""
	for i, e := range entries {
		if i > 0 {
			names += ","
		}
		names += e.Name
	}
	v.add("catalog:%s", names)
}
func (v *recordingView) ShowCatalogError(message string) { v.add("catalogError:%s", message) }
func (v *recordingView) ShowQuestion(q app.QuestionView) {
	v.add("question:%d/%d:%s", q.Number, q.Total, q.Clock)
}
func (v *recordingView) ShowFeedback(f app.FeedbackView) { v.add("feedback:%s", f.Message) }
func (v *recordingView) ShowTimer(clock string)          { v.add("timer:%s", clock) }
func (v *recordingView) ShowResult(r app.ResultView) {
	v.mu.Lock()
	v.last = r
	v.mu.Unlock()
	v.add("result:%d/%d:%s", r.Score, r.Total, r.Accuracy)
}
func (v *recordingView) ShowSyncStatus(s domain.SyncStatus) { v.add("sync:%s", s) }

func mechanicsSet() []domain.Question {
	return []domain.Question{
		{Text: "SI unit of stress?", Options: []string{"Pascal", "Newton", "Joule", "Watt"}, Answer: 0, Explanation: "Force per area."},
		{Text: "Unit of work?", Options: []string{"Watt", "Joule", "Pascal", "Newton"}, Answer: 1},
	}
}
