package terminal

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"civil-quiz/internal/app"
	"civil-quiz/internal/domain"
)

// View prints controller output as plain text. The countdown calls in from
// its own goroutine, so writes are serialized.
type View struct {
	mu  sync.Mutex
	out io.Writer
}

func NewView(out io.Writer) *View {
	return &View{out: out}
}

func (v *View) printf(format string, args ...any) {
	v.mu.Lock()
	defer v.mu.Unlock()
	fmt.Fprintf(v.out, format, args...)
}

func (v *View) ShowView(name domain.ViewName) {
	v.printf("\n== %s ==\n", strings.ToUpper(string(name)))
}

func (v *View) ShowAuthStatus(status app.AuthStatus) { v.printf("%s\n", status.Message) }

func (v *View) Alert(message string) { v.printf("! %s\n", message) }

func (v *View) ShowGreeting(text string) { v.printf("%s\n", text) }

func (v *View) ShowLoading(message string) { v.printf("%s\n", message) }

func (v *View) ShowCatalog(entries []domain.ManifestEntry) {
	if len(entries) == 0 {
		v.printf("No tests available.\n")
		return
	}
	for _, e := range entries {
		v.printf("  [%d] %s\n", e.ID, e.Name)
	}
}

func (v *View) ShowCatalogError(message string) { v.printf("! %s\n", message) }

func (v *View) ShowQuestion(q app.QuestionView) {
	var b strings.Builder
	fmt.Fprintf(&b, "\nQuestion %d/%d  (%s left)\n%s\n", q.Number, q.Total, q.Clock, q.Text)
	for _, opt := range q.Options {
		fmt.Fprintf(&b, "  %s) %s\n", opt.Label, opt.Text)
	}
	b.WriteString(q.Feedback + "\n")
	v.printf("%s", b.String())
}

func (v *View) ShowFeedback(f app.FeedbackView) {
	v.printf("%s (answer: %s)\n", f.Message, app.OptionLabel(f.CorrectIndex))
	if f.Explanation != "" {
		v.printf("  %s\n", f.Explanation)
	}
}

// ShowTimer only prints whole minutes and the final ten seconds.
func (v *View) ShowTimer(clock string) {
	if strings.HasSuffix(clock, ":00") || strings.HasPrefix(clock, "0:0") {
		v.printf("[%s left]\n", clock)
	}
}

func (v *View) ShowResult(r app.ResultView) {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %d/%d  %s\n", r.Topic, r.Score, r.Total, r.Accuracy)
	if len(r.Mistakes) > 0 {
		b.WriteString("Review:\n")
		for _, m := range r.Mistakes {
			fmt.Fprintf(&b, "  - %s\n    yours: %s\n    correct: %s\n", m.Question, m.Selected, m.Correct)
		}
	}
	v.printf("%s", b.String())
}

func (v *View) ShowSyncStatus(status domain.SyncStatus) { v.printf("%s\n", status.Message()) }
