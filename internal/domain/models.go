package domain

// UserIdentity is the single record kept in the identity store.
// JSON field names match the record written by earlier web clients.
type UserIdentity struct {
	Name          string `json:"name"`
	Qualification string `json:"qual"`
	Code          string `json:"code"`
}

// ManifestEntry describes one quiz listed in list.json.
type ManifestEntry struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	File string `json:"file"`
}

// Question is a multiple-choice question as stored in a question-set file.
type Question struct {
	Text        string   `json:"q"`
	Options     []string `json:"o"`
	Answer      int      `json:"a"`
	Explanation string   `json:"e,omitempty"`
}

// ShuffledOption is an option with its correctness flag, detached from its
// original position.
type ShuffledOption struct {
	Text    string `json:"text"`
	Correct bool   `json:"-"`
}

// Mistake records a wrong answer for later review.
type Mistake struct {
	Question string `json:"question"`
	Selected string `json:"selected"`
	Correct  string `json:"correct"`
}

// ResultRecord is the payload posted to the score endpoint.
type ResultRecord struct {
	Date          string `json:"date"`
	Name          string `json:"name"`
	Qualification string `json:"qualification"`
	Topic         string `json:"topic"`
	Score         int    `json:"score"`
}

// ViewName identifies the screen currently shown to the user.
type ViewName string

const (
	ViewLogin     ViewName = "login"
	ViewDashboard ViewName = "dashboard"
	ViewQuiz      ViewName = "quiz"
	ViewResult    ViewName = "result"
)

// SyncStatus is the outcome of reporting a result.
type SyncStatus string

const (
	SyncPending           SyncStatus = "syncing"
	SyncSubmitted         SyncStatus = "submitted"
	SyncOfflineNetwork    SyncStatus = "offline-network"
	SyncOfflineNoInternet SyncStatus = "offline-no-internet"
)

// Message returns the user-facing text for the status.
func (s SyncStatus) Message() string {
	switch s {
	case SyncPending:
		return "Syncing score..."
	case SyncSubmitted:
		return "Score submitted."
	case SyncOfflineNetwork:
		return "Saved offline (Network Error)"
	case SyncOfflineNoInternet:
		return "Saved offline (No Internet)"
	default:
		return string(s)
	}
}

// Degraded reports whether the result could not be handed to the network.
func (s SyncStatus) Degraded() bool {
	return s == SyncOfflineNetwork || s == SyncOfflineNoInternet
}
