package app

import "civil-quiz/internal/domain"

// View renders controller state. Implementations must not call back into
// the controller from these methods.
type View interface {
	ShowView(name domain.ViewName)
	ShowAuthStatus(status AuthStatus)
	Alert(message string)
	ShowGreeting(text string)
	ShowLoading(message string)
	ShowCatalog(entries []domain.ManifestEntry)
	ShowCatalogError(message string)
	ShowQuestion(q QuestionView)
	ShowFeedback(f FeedbackView)
	ShowTimer(clock string)
	ShowResult(r ResultView)
	ShowSyncStatus(status domain.SyncStatus)
}

// AuthState is the phase of a login attempt.
type AuthState string

const (
	AuthPending AuthState = "pending"
	AuthSuccess AuthState = "success"
	AuthFailed  AuthState = "error"
)

type AuthStatus struct {
	State   AuthState `json:"state"`
	Message string    `json:"message"`
}

type OptionView struct {
	Label string `json:"label"`
	Text  string `json:"text"`
}

// QuestionView is the current question; Number is 1-based.
type QuestionView struct {
	Number   int          `json:"number"`
	Total    int          `json:"total"`
	Text     string       `json:"text"`
	Options  []OptionView `json:"options"`
	Feedback string       `json:"feedback"`
	Clock    string       `json:"clock"`
}

// FeedbackView is shown once the current question has been answered.
type FeedbackView struct {
	Selected     int    `json:"selected"`
	CorrectIndex int    `json:"correctIndex"`
	Correct      bool   `json:"correct"`
	Message      string `json:"message"`
	Explanation  string `json:"explanation,omitempty"`
}

type ResultView struct {
	Topic    string           `json:"topic"`
	Score    int              `json:"score"`
	Total    int              `json:"total"`
	Percent  int              `json:"percent"`
	Accuracy string           `json:"accuracy"`
	Mistakes []domain.Mistake `json:"mistakes"`
}

// OptionLabel returns A, B, C, … for display positions.
func OptionLabel(i int) string {
	return string(rune('A' + i))
}
